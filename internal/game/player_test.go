package game

import (
	"context"
	rand "math/rand/v2"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/lox/setforbots/internal/deck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dealtGame(t *testing.T, cfg Config, opts ...Option) (*Game, *Arbiter) {
	t.Helper()
	g := newTestGame(t, cfg, opts...)
	g.arbiter.deal()
	return g, g.arbiter
}

func TestToggleSubmitsOnThirdToken(t *testing.T) {
	_, a := dealtGame(t, humanConfig(1), WithDeck(0, 1, 2, 3, 4, 5))
	p := a.players[0]

	_, ok := selectCards(t, a, p, 0, 1)
	assert.False(t, ok)
	assert.Equal(t, PlayerSelecting, p.State())
	assert.ElementsMatch(t, []deck.Card{0, 1}, p.Tokens())

	// Removing and re-adding a token goes 2 -> 1 -> 2 without submitting.
	_, ok = selectCards(t, a, p, 1)
	assert.False(t, ok)
	assert.ElementsMatch(t, []deck.Card{0}, p.Tokens())
	_, ok = selectCards(t, a, p, 3)
	assert.False(t, ok)

	sub, ok := selectCards(t, a, p, 4)
	require.True(t, ok)
	assert.Equal(t, uint64(1), sub.Seq)
	assert.Equal(t, 0, sub.Player)
	assert.Equal(t, deck.Triple{0, 3, 4}, sub.Cards)
	assert.Equal(t, PlayerAwaitingVerdict, p.State())
	assert.False(t, p.ready.IsOpen())

	// Nothing changes while the verdict is pending.
	_, ok = selectCards(t, a, p, 5)
	assert.False(t, ok)
	_, ok = selectCards(t, a, p, 0)
	assert.False(t, ok)
	assert.ElementsMatch(t, []deck.Card{0, 3, 4}, p.Tokens())
}

func TestToggleIgnoresEmptySlotsAndClosedTable(t *testing.T) {
	_, a := dealtGame(t, humanConfig(1), WithDeck(0, 1, 2))
	p := a.players[0]

	empty := a.table.EmptySlots()
	require.NotEmpty(t, empty)
	_, ok := p.toggle(empty[0])
	assert.False(t, ok)
	assert.Empty(t, p.Tokens())

	a.tableOpen.Close()
	_, ok = p.toggle(slotOf(t, a, 0))
	assert.False(t, ok)
	assert.Empty(t, p.Tokens(), "tokens cannot be added while the table is reset")
}

func TestKeyPressedDropsWhileBusy(t *testing.T) {
	_, a := dealtGame(t, humanConfig(1))
	p := a.players[0]

	p.pending.Store(true)
	p.KeyPressed(0)
	assert.Empty(t, p.keys)

	p.pending.Store(false)
	p.frozen.Store(true)
	p.KeyPressed(0)
	assert.Empty(t, p.keys)

	p.frozen.Store(false)
	for range keyBuffer + 2 {
		p.KeyPressed(0)
	}
	assert.Len(t, p.keys, keyBuffer)
}

func TestResolveServesPenaltyFreeze(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mClock := quartz.NewMock(t)
	display := newRecordingDisplay()
	cfg := humanConfig(1)
	cfg.PenaltyFreeze = 2 * time.Second
	_, a := dealtGame(t, cfg, WithClock(mClock), WithDisplay(display), WithDeck(0, 1, 3))
	p := a.players[0]

	sub, ok := selectCards(t, a, p, 0, 1, 3)
	require.True(t, ok)
	assert.Equal(t, VerdictPenalty, a.process(sub))
	outcome := receiveOutcome(t, p)
	assert.Equal(t, sub.Seq, outcome.Seq)

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.resolve(ctx, outcome.Verdict)
	}()

	for range 2 {
		require.Eventually(t, func() bool {
			_, ok := mClock.Peek()
			return ok
		}, time.Second, time.Millisecond)
		assert.Equal(t, PlayerFrozen, p.State())
		p.KeyPressed(0)
		assert.Empty(t, p.keys, "presses are dropped while frozen")

		_, w := mClock.AdvanceNext()
		w.MustWait(ctx)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("freeze did not end")
	}
	assert.Equal(t, PlayerIdle, p.State())
	assert.Empty(t, p.Tokens())
	assert.True(t, p.ready.IsOpen())
	assert.Equal(t, 0, p.Score())
	assert.Equal(t, []time.Duration{2 * time.Second, time.Second, 0}, display.freezesOf(0))
}

func TestRandomInputPausesWhileNotReady(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mClock := quartz.NewMock(t)
	_, a := dealtGame(t, humanConfig(1), WithClock(mClock))
	p := a.players[0]
	in := NewRandomInput(rand.New(rand.NewPCG(1, 2)), 10*time.Millisecond, mClock)

	p.ready.Close()
	done := make(chan error, 1)
	go func() { done <- in.Run(ctx, p) }()

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, p.keys)

	p.ready.Open()
	// One press, then the generator waits on its pacing timer.
	require.Eventually(t, func() bool { return len(p.keys) == 1 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool {
		_, ok := mClock.Peek()
		return ok
	}, time.Second, time.Millisecond)
	assert.Len(t, p.keys, 1)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("random input did not stop")
	}
}

type trackingInput struct {
	exited atomic.Bool
}

func (in *trackingInput) Run(ctx context.Context, p *Player) error {
	<-ctx.Done()
	time.Sleep(10 * time.Millisecond)
	in.exited.Store(true)
	return nil
}

func TestPlayerRunJoinsInput(t *testing.T) {
	in := &trackingInput{}
	g := newTestGame(t, humanConfig(1), WithInput(0, in))
	p := g.arbiter.players[0]

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
		assert.True(t, in.exited.Load(), "player returned before its input source")
	case <-time.After(time.Second):
		t.Fatal("player did not stop")
	}
}
