package tui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/lox/setforbots/internal/deck"
)

const (
	cellWidth   = 28
	columns     = 4
	maxEvents   = 200
	logHeight   = 8
	sidebarMin  = 26
	classicDeck = 4
)

// Controller receives what the keyboard does. *game.Game implements it.
type Controller interface {
	KeyPressed(player, slot int)
	Terminate()
}

// PlayerInfo describes one player for the scoreboard. Keys binds slot i to
// the i-th rune for human players.
type PlayerInfo struct {
	Name  string
	Human bool
	Keys  string
}

type slotView struct {
	card    deck.Card
	present bool
	tokens  []bool // Indexed by player id
}

type slotBinding struct {
	player  int
	slot    int
	binding key.Binding
}

// Model is the Bubble Tea model rendering one game.
type Model struct {
	ctrl         Controller
	logger       *log.Logger
	featureCount int
	players      []PlayerInfo

	slots    []slotView
	bindings []slotBinding
	quitKey  key.Binding

	remaining time.Duration
	warn      bool
	scores    []int
	freezes   []time.Duration
	winners   []int
	hints     int

	events      []string
	logViewport viewport.Model

	width    int
	height   int
	quitting bool
}

// NewModel creates a model for a table of tableSize slots.
func NewModel(ctrl Controller, logger *log.Logger, featureCount, tableSize int, players []PlayerInfo) *Model {
	m := &Model{
		ctrl:         ctrl,
		logger:       logger.WithPrefix("tui"),
		featureCount: featureCount,
		players:      slices.Clone(players),
		slots:        make([]slotView, tableSize),
		quitKey: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "quit"),
		),
		scores:      make([]int, len(players)),
		freezes:     make([]time.Duration, len(players)),
		logViewport: viewport.New(10, logHeight),
	}
	for i := range m.slots {
		m.slots[i].tokens = make([]bool, len(players))
	}
	for id, p := range players {
		if !p.Human {
			continue
		}
		for slot, r := range []rune(p.Keys) {
			if slot >= tableSize {
				break
			}
			m.bindings = append(m.bindings, slotBinding{
				player: id,
				slot:   slot,
				binding: key.NewBinding(
					key.WithKeys(string(r)),
					key.WithHelp(string(r), fmt.Sprintf("%s: slot %d", p.Name, slot)),
				),
			})
		}
	}
	return m
}

// Init initializes the TUI model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logger.Debug("Updating dimensions", "width", m.width, "height", m.height)

	case tea.KeyMsg:
		if key.Matches(msg, m.quitKey) {
			m.quitting = true
			m.ctrl.Terminate()
			return m, tea.Quit
		}
		for _, b := range m.bindings {
			if key.Matches(msg, b.binding) {
				m.ctrl.KeyPressed(b.player, b.slot)
				return m, nil
			}
		}
		var cmd tea.Cmd
		m.logViewport, cmd = m.logViewport.Update(msg)
		return m, cmd

	case countdownMsg:
		m.remaining, m.warn = msg.remaining, msg.warn

	case cardPlacedMsg:
		if s := m.slot(msg.slot); s != nil {
			s.card, s.present = msg.card, true
		}

	case cardRemovedMsg:
		if s := m.slot(msg.slot); s != nil {
			s.present = false
			clear(s.tokens)
		}

	case tokenMsg:
		if s := m.slot(msg.slot); s != nil && m.validPlayer(msg.player) {
			s.tokens[msg.player] = msg.placed
		}

	case slotTokensClearedMsg:
		if s := m.slot(msg.slot); s != nil {
			clear(s.tokens)
		}

	case allTokensClearedMsg:
		for i := range m.slots {
			clear(m.slots[i].tokens)
		}
		m.addEvent("Table reshuffled")

	case scoreMsg:
		if m.validPlayer(msg.player) {
			m.scores[msg.player] = msg.score
			m.addEvent(fmt.Sprintf("%s found a triple (%d)", m.players[msg.player].Name, msg.score))
		}

	case freezeMsg:
		if m.validPlayer(msg.player) {
			m.freezes[msg.player] = msg.remaining
		}

	case winnersMsg:
		m.winners = msg.players
		names := make([]string, 0, len(msg.players))
		for _, id := range msg.players {
			if m.validPlayer(id) {
				names = append(names, m.players[id].Name)
			}
		}
		m.addEvent("Winner: " + strings.Join(names, ", "))

	case hintsMsg:
		m.hints = len(msg.triples)
		for _, t := range msg.triples {
			m.addEvent(fmt.Sprintf("Hint: %s | %s | %s", m.label(t[0]), m.label(t[1]), m.label(t[2])))
		}
	}
	return m, nil
}

func (m *Model) slot(i int) *slotView {
	if i < 0 || i >= len(m.slots) {
		return nil
	}
	return &m.slots[i]
}

func (m *Model) validPlayer(id int) bool {
	return id >= 0 && id < len(m.players)
}

func (m *Model) addEvent(line string) {
	m.events = append(m.events, line)
	if len(m.events) > maxEvents {
		m.events = m.events[len(m.events)-maxEvents:]
	}
	m.logViewport.SetContent(strings.Join(m.events, "\n"))
	m.logViewport.GotoBottom()
}

// label renders a card by name for the classic deck and by digits otherwise.
func (m *Model) label(c deck.Card) string {
	if m.featureCount == classicDeck {
		return c.String()
	}
	return c.Short(m.featureCount)
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	board := m.renderBoard()
	sidebar := PaneStyle.Width(max(sidebarMin, lipgloss.Width(m.renderScores()))).
		Render(m.renderScores())

	logWidth := max(lipgloss.Width(board)-2, 10)
	if m.width > 0 {
		logWidth = max(m.width-lipgloss.Width(sidebar)-2, 10)
	}
	m.logViewport.Width = logWidth
	logPane := PaneStyle.Width(logWidth).Render(m.logViewport.View())

	top := lipgloss.JoinHorizontal(lipgloss.Top, board, sidebar)
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		top,
		logPane,
		InfoStyle.Render("Press your slot keys to mark cards • Esc to quit"),
	)
}

func (m *Model) renderHeader() string {
	countdown := CountdownStyle.Render(formatCountdown(m.remaining, m.warn))
	if m.warn {
		countdown = WarningStyle.Render(formatCountdown(m.remaining, m.warn))
	}
	header := HeaderStyle.Render("setforbots") + "  " + countdown
	if m.hints > 0 {
		header += "  " + InfoStyle.Render(fmt.Sprintf("%d triples on the table", m.hints))
	}
	return header
}

func formatCountdown(remaining time.Duration, warn bool) string {
	if warn {
		return fmt.Sprintf("%.2fs", remaining.Seconds())
	}
	return fmt.Sprintf("%ds", int(remaining.Round(time.Second).Seconds()))
}

func (m *Model) renderBoard() string {
	var rows []string
	for start := 0; start < len(m.slots); start += columns {
		end := min(start+columns, len(m.slots))
		cells := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			cells = append(cells, m.renderSlot(i))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *Model) renderSlot(i int) string {
	s := m.slots[i]

	var keys []string
	for _, b := range m.bindings {
		if b.slot == i {
			keys = append(keys, b.binding.Help().Key)
		}
	}
	hint := KeyHintStyle.Render("[" + strings.Join(keys, "/") + "]")
	if len(keys) == 0 {
		hint = ""
	}

	if !s.present {
		return EmptySlotStyle.Render(hint + "\n\n")
	}

	var marks strings.Builder
	for id, on := range s.tokens {
		if on {
			marks.WriteString(playerStyle(id).Render(fmt.Sprintf("●%d ", id+1)))
		}
	}
	return CardStyle.Render(hint + "\n" + m.label(s.card) + "\n" + marks.String())
}

func (m *Model) renderScores() string {
	var b strings.Builder
	b.WriteString(InfoStyle.Render("Players"))
	b.WriteString("\n")
	for id, p := range m.players {
		line := fmt.Sprintf("%d %-10s %3d", id+1, p.Name, m.scores[id])
		line = playerStyle(id).Render(line)
		if m.freezes[id] > 0 {
			line += " " + FrozenStyle.Render(fmt.Sprintf("frozen %ds", int(m.freezes[id].Round(time.Second).Seconds())))
		}
		if slices.Contains(m.winners, id) {
			line += " " + WinnerStyle.Render("★ winner")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
