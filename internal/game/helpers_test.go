package game

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/setforbots/internal/deck"
	"github.com/stretchr/testify/require"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

// humanConfig returns a config where nobody presses anything unless the
// test does.
func humanConfig(players int) Config {
	cfg := DefaultConfig()
	cfg.Players = make([]PlayerConfig, players)
	for i := range cfg.Players {
		cfg.Players[i] = PlayerConfig{Name: "p" + string(rune('0'+i)), Human: true}
	}
	cfg.EndGamePause = 0
	cfg.PointFreeze = 0
	cfg.PenaltyFreeze = 0
	cfg.Seed = 1
	return cfg
}

func newTestGame(t *testing.T, cfg Config, opts ...Option) *Game {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	g, err := New(cfg, opts...)
	require.NoError(t, err)
	return g
}

func slotOf(t *testing.T, a *Arbiter, card deck.Card) int {
	t.Helper()
	slot, ok := a.table.SlotOf(card)
	require.True(t, ok, "card %d not on table", card)
	return slot
}

// selectCards toggles the given cards for p and returns the submission the
// last toggle produced, if any.
func selectCards(t *testing.T, a *Arbiter, p *Player, cards ...deck.Card) (Submission, bool) {
	t.Helper()
	var (
		sub Submission
		ok  bool
	)
	for _, c := range cards {
		sub, ok = p.toggle(slotOf(t, a, c))
	}
	return sub, ok
}

func receiveOutcome(t *testing.T, p *Player) Outcome {
	t.Helper()
	select {
	case o := <-p.verdicts:
		return o
	case <-time.After(time.Second):
		t.Fatalf("no outcome delivered to player %d", p.id)
		return Outcome{}
	}
}

func waitDone(t *testing.T, g *Game, timeout time.Duration) Result {
	t.Helper()
	select {
	case <-g.Done():
	case <-time.After(timeout):
		g.Terminate()
		t.Fatalf("game did not finish within %s", timeout)
	}
	res, err := g.Wait()
	require.NoError(t, err)
	return res
}

// recordingDisplay keeps the notifications the tests care about.
type recordingDisplay struct {
	NullDisplay

	mu         sync.Mutex
	countdowns []countdown
	winners    [][]int
	freezes    map[int][]time.Duration
	placed     int
	hints      [][]deck.Triple
}

type countdown struct {
	remaining time.Duration
	warn      bool
}

func newRecordingDisplay() *recordingDisplay {
	return &recordingDisplay{freezes: make(map[int][]time.Duration)}
}

func (d *recordingDisplay) SetCountdown(remaining time.Duration, warn bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.countdowns = append(d.countdowns, countdown{remaining, warn})
}

func (d *recordingDisplay) PlaceCard(deck.Card, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.placed++
}

func (d *recordingDisplay) SetFreeze(player int, remaining time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.freezes[player] = append(d.freezes[player], remaining)
}

func (d *recordingDisplay) AnnounceWinners(players []int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.winners = append(d.winners, players)
}

func (d *recordingDisplay) ShowHints(triples []deck.Triple) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hints = append(d.hints, triples)
}

func (d *recordingDisplay) announced() [][]int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([][]int(nil), d.winners...)
}

func (d *recordingDisplay) freezesOf(player int) []time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]time.Duration(nil), d.freezes[player]...)
}

func (d *recordingDisplay) sawWarning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range d.countdowns {
		if c.warn {
			return true
		}
	}
	return false
}
