package game

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/setforbots/internal/deck"
)

// Display receives fire-and-forget notifications about the game. Methods are
// called from the arbiter and from player goroutines, so implementations must
// be safe for concurrent use and must not block for long.
type Display interface {
	SetCountdown(remaining time.Duration, warn bool)
	PlaceCard(card deck.Card, slot int)
	RemoveCard(slot int)
	PlaceToken(player, slot int)
	RemoveToken(player, slot int)
	// RemoveTokens hides every player's token on slot.
	RemoveTokens(slot int)
	// RemoveAllTokens hides every token on the table.
	RemoveAllTokens()
	SetScore(player, score int)
	SetFreeze(player int, remaining time.Duration)
	AnnounceWinners(players []int)
	ShowHints(triples []deck.Triple)
}

// NullDisplay ignores every notification.
type NullDisplay struct{}

func (NullDisplay) SetCountdown(time.Duration, bool) {}
func (NullDisplay) PlaceCard(deck.Card, int)         {}
func (NullDisplay) RemoveCard(int)                   {}
func (NullDisplay) PlaceToken(int, int)              {}
func (NullDisplay) RemoveToken(int, int)             {}
func (NullDisplay) RemoveTokens(int)                 {}
func (NullDisplay) RemoveAllTokens()                 {}
func (NullDisplay) SetScore(int, int)                {}
func (NullDisplay) SetFreeze(int, time.Duration)     {}
func (NullDisplay) AnnounceWinners([]int)            {}
func (NullDisplay) ShowHints([]deck.Triple)          {}

// MultiDisplay fan-outs notifications to multiple displays.
type MultiDisplay struct {
	displays []Display
}

// NewMultiDisplay builds a composite display, pruning nil entries and
// returning a NullDisplay when none are left.
func NewMultiDisplay(displays ...Display) Display {
	filtered := make([]Display, 0, len(displays))
	for _, d := range displays {
		if d != nil {
			filtered = append(filtered, d)
		}
	}

	switch len(filtered) {
	case 0:
		return NullDisplay{}
	case 1:
		return filtered[0]
	default:
		return MultiDisplay{displays: filtered}
	}
}

func (m MultiDisplay) SetCountdown(remaining time.Duration, warn bool) {
	for _, d := range m.displays {
		d.SetCountdown(remaining, warn)
	}
}

func (m MultiDisplay) PlaceCard(card deck.Card, slot int) {
	for _, d := range m.displays {
		d.PlaceCard(card, slot)
	}
}

func (m MultiDisplay) RemoveCard(slot int) {
	for _, d := range m.displays {
		d.RemoveCard(slot)
	}
}

func (m MultiDisplay) PlaceToken(player, slot int) {
	for _, d := range m.displays {
		d.PlaceToken(player, slot)
	}
}

func (m MultiDisplay) RemoveToken(player, slot int) {
	for _, d := range m.displays {
		d.RemoveToken(player, slot)
	}
}

func (m MultiDisplay) RemoveTokens(slot int) {
	for _, d := range m.displays {
		d.RemoveTokens(slot)
	}
}

func (m MultiDisplay) RemoveAllTokens() {
	for _, d := range m.displays {
		d.RemoveAllTokens()
	}
}

func (m MultiDisplay) SetScore(player, score int) {
	for _, d := range m.displays {
		d.SetScore(player, score)
	}
}

func (m MultiDisplay) SetFreeze(player int, remaining time.Duration) {
	for _, d := range m.displays {
		d.SetFreeze(player, remaining)
	}
}

func (m MultiDisplay) AnnounceWinners(players []int) {
	for _, d := range m.displays {
		d.AnnounceWinners(players)
	}
}

func (m MultiDisplay) ShowHints(triples []deck.Triple) {
	for _, d := range m.displays {
		d.ShowHints(triples)
	}
}

// LogDisplay writes notifications to a logger. Frequent updates go to the
// debug level so headless games stay readable at info.
type LogDisplay struct {
	logger *log.Logger
	names  []string
}

// NewLogDisplay creates a display that logs player names instead of ids.
func NewLogDisplay(logger *log.Logger, players []PlayerConfig) *LogDisplay {
	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.Name
	}
	return &LogDisplay{logger: logger.WithPrefix("display"), names: names}
}

func (d *LogDisplay) name(player int) string {
	if player >= 0 && player < len(d.names) {
		return d.names[player]
	}
	return "unknown"
}

func (d *LogDisplay) SetCountdown(remaining time.Duration, warn bool) {
	if warn {
		d.logger.Debug("Countdown", "remaining", remaining.Round(time.Millisecond), "warn", warn)
	}
}

func (d *LogDisplay) PlaceCard(card deck.Card, slot int) {
	d.logger.Debug("Card placed", "slot", slot, "card", card)
}

func (d *LogDisplay) RemoveCard(slot int) {
	d.logger.Debug("Card removed", "slot", slot)
}

func (d *LogDisplay) PlaceToken(player, slot int) {
	d.logger.Debug("Token placed", "player", d.name(player), "slot", slot)
}

func (d *LogDisplay) RemoveToken(player, slot int) {
	d.logger.Debug("Token removed", "player", d.name(player), "slot", slot)
}

func (d *LogDisplay) RemoveTokens(slot int) {
	d.logger.Debug("Tokens removed", "slot", slot)
}

func (d *LogDisplay) RemoveAllTokens() {
	d.logger.Debug("All tokens removed")
}

func (d *LogDisplay) SetScore(player, score int) {
	d.logger.Info("Score", "player", d.name(player), "score", score)
}

func (d *LogDisplay) SetFreeze(player int, remaining time.Duration) {
	d.logger.Debug("Freeze", "player", d.name(player), "remaining", remaining)
}

func (d *LogDisplay) AnnounceWinners(players []int) {
	names := make([]string, len(players))
	for i, p := range players {
		names[i] = d.name(p)
	}
	d.logger.Info("Winners", "players", names)
}

func (d *LogDisplay) ShowHints(triples []deck.Triple) {
	d.logger.Info("Hints", "triples", len(triples), "cards", triples)
}
