package tui

import (
	"slices"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lox/setforbots/internal/deck"
	"github.com/lox/setforbots/internal/game"
)

var _ game.Display = (*Display)(nil)

type (
	countdownMsg struct {
		remaining time.Duration
		warn      bool
	}
	cardPlacedMsg struct {
		card deck.Card
		slot int
	}
	cardRemovedMsg struct {
		slot int
	}
	tokenMsg struct {
		player int
		slot   int
		placed bool
	}
	slotTokensClearedMsg struct {
		slot int
	}
	scoreMsg struct {
		player int
		score  int
	}
	freezeMsg struct {
		player    int
		remaining time.Duration
	}
	winnersMsg struct {
		players []int
	}
	hintsMsg struct {
		triples []deck.Triple
	}
	allTokensClearedMsg struct{}
)

// Display turns game notifications into Bubble Tea messages. Until a
// program is attached notifications are dropped.
type Display struct {
	mu   sync.RWMutex
	send func(tea.Msg)
}

// NewDisplay creates a detached display.
func NewDisplay() *Display {
	return &Display{}
}

// Attach routes notifications to a running program.
func (d *Display) Attach(p *tea.Program) {
	d.AttachFunc(p.Send)
}

// AttachFunc routes notifications to send.
func (d *Display) AttachFunc(send func(tea.Msg)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.send = send
}

func (d *Display) emit(msg tea.Msg) {
	d.mu.RLock()
	send := d.send
	d.mu.RUnlock()
	if send != nil {
		send(msg)
	}
}

func (d *Display) SetCountdown(remaining time.Duration, warn bool) {
	d.emit(countdownMsg{remaining: remaining, warn: warn})
}

func (d *Display) PlaceCard(card deck.Card, slot int) {
	d.emit(cardPlacedMsg{card: card, slot: slot})
}

func (d *Display) RemoveCard(slot int) {
	d.emit(cardRemovedMsg{slot: slot})
}

func (d *Display) PlaceToken(player, slot int) {
	d.emit(tokenMsg{player: player, slot: slot, placed: true})
}

func (d *Display) RemoveToken(player, slot int) {
	d.emit(tokenMsg{player: player, slot: slot})
}

func (d *Display) RemoveTokens(slot int) {
	d.emit(slotTokensClearedMsg{slot: slot})
}

func (d *Display) RemoveAllTokens() {
	d.emit(allTokensClearedMsg{})
}

func (d *Display) SetScore(player, score int) {
	d.emit(scoreMsg{player: player, score: score})
}

func (d *Display) SetFreeze(player int, remaining time.Duration) {
	d.emit(freezeMsg{player: player, remaining: remaining})
}

func (d *Display) AnnounceWinners(players []int) {
	d.emit(winnersMsg{players: slices.Clone(players)})
}

func (d *Display) ShowHints(triples []deck.Triple) {
	d.emit(hintsMsg{triples: slices.Clone(triples)})
}
