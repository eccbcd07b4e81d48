package tui

import "github.com/charmbracelet/lipgloss"

// Static styles for content elements
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true).
			Padding(0, 1)

	CountdownStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	CardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#626262")).
			Width(cellWidth).
			Padding(0, 1)

	EmptySlotStyle = CardStyle.
			Foreground(lipgloss.Color("#626262")).
			BorderForeground(lipgloss.Color("#3A3A3A"))

	KeyHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700"))

	WinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true)

	FrozenStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#74B9FF"))

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	PaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#626262"))
)

// PlayerStyles colour each player's tokens and name, cycling when there are
// more players than colours.
var PlayerStyles = []lipgloss.Style{
	lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
	lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4")).Bold(true),
	lipgloss.NewStyle().Foreground(lipgloss.Color("#FFEAA7")).Bold(true),
	lipgloss.NewStyle().Foreground(lipgloss.Color("#A29BFE")).Bold(true),
}

func playerStyle(id int) lipgloss.Style {
	return PlayerStyles[id%len(PlayerStyles)]
}
