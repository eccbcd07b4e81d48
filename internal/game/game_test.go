package game

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/lox/setforbots/internal/deck"
	"github.com/lox/setforbots/internal/gameid"
	"github.com/lox/setforbots/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameEndsWhenLastTripleIsFound(t *testing.T) {
	cfg := humanConfig(2)
	cfg.TurnTimeout = time.Minute
	display := newRecordingDisplay()
	g := newTestGame(t, cfg, WithDeck(0, 1, 2), WithDisplay(display))
	a := g.arbiter

	g.Start(context.Background())
	require.Eventually(t, func() bool {
		return g.State() == StateCountingDown && a.table.Count() == 3
	}, time.Second, time.Millisecond)

	for _, c := range []deck.Card{0, 1, 2} {
		g.KeyPressed(0, slotOf(t, a, c))
	}

	res := waitDone(t, g, 5*time.Second)
	assert.Equal(t, []int{0}, res.Winners)
	assert.Equal(t, []int{1, 0}, res.Scores)
	assert.Equal(t, 1, res.Stats.TriplesFound)
	assert.Equal(t, 0, res.Stats.CardsRemaining)
	assert.Equal(t, StateTerminated, g.State())
	assert.Equal(t, [][]int{{0}}, display.announced())
}

func TestGameWithoutAnyTripleEndsImmediately(t *testing.T) {
	for name, cards := range map[string][]deck.Card{
		"empty deck": {},
		"no triple":  {0, 1, 3},
		"two cards":  {4, 8},
	} {
		t.Run(name, func(t *testing.T) {
			display := newRecordingDisplay()
			g := newTestGame(t, humanConfig(2), WithDeck(cards...), WithDisplay(display))

			res := waitDone(t, startGame(g), 2*time.Second)
			assert.Equal(t, []int{0, 1}, res.Winners, "everyone ties at zero")
			assert.Equal(t, []int{0, 0}, res.Scores)
			assert.Equal(t, 0, display.placed)
			assert.Equal(t, len(cards), res.Stats.CardsRemaining)
		})
	}
}

func startGame(g *Game) *Game {
	g.Start(context.Background())
	return g
}

func TestTimeoutReshufflesTable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mClock := quartz.NewMock(t)
	display := newRecordingDisplay()
	cfg := humanConfig(1)
	cfg.TurnTimeout = 3 * time.Second
	cfg.TurnTimeoutWarning = time.Second
	g := newTestGame(t, cfg, WithClock(mClock), WithDisplay(display))
	a := g.arbiter

	g.Start(ctx)
	for i := 0; a.stats.reshuffles.Load() == 0; i++ {
		require.Less(t, i, 1000, "table was never reshuffled")
		require.Eventually(t, func() bool {
			_, ok := mClock.Peek()
			return ok
		}, time.Second, time.Millisecond)
		_, w := mClock.AdvanceNext()
		w.MustWait(ctx)
	}

	require.Eventually(t, func() bool {
		display.mu.Lock()
		defer display.mu.Unlock()
		return g.State() == StateCountingDown && display.placed == 24
	}, time.Second, time.Millisecond, "the table is dealt twice")
	assert.Equal(t, 12, a.table.Count())
	assert.True(t, display.sawWarning())

	g.Terminate()
	res := waitDone(t, g, 2*time.Second)
	assert.Equal(t, 1, res.Stats.Reshuffles)
	assert.Equal(t, 81, res.Stats.CardsRemaining)
}

func TestAutomatedGameRunsToCompletion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FeatureCount = 3
	cfg.Players = []PlayerConfig{{Name: "bot1"}, {Name: "bot2"}, {Name: "bot3"}}
	cfg.QueueCapacity = len(cfg.Players)
	cfg.TurnTimeout = 100 * time.Millisecond
	cfg.TurnTimeoutWarning = 20 * time.Millisecond
	cfg.PointFreeze = time.Millisecond
	cfg.PenaltyFreeze = 2 * time.Millisecond
	cfg.EndGamePause = 0
	cfg.BotDelay = time.Millisecond
	cfg.Seed = 42

	g := newTestGame(t, cfg)
	res := waitDone(t, startGame(g), 30*time.Second)
	a := g.arbiter

	require.NoError(t, a.checkConservation())
	assert.Equal(t, 0, a.table.Count())
	assert.False(t, rules.New(3).ContainsAnyValidTriple(a.deck.Cards()), "game ended with a triple left")
	assert.Equal(t, 27, 3*res.Stats.TriplesFound+res.Stats.CardsRemaining)

	total, best := 0, 0
	for _, s := range res.Scores {
		total += s
		best = max(best, s)
	}
	assert.Equal(t, res.Stats.TriplesFound, total)
	require.NotEmpty(t, res.Winners)
	for _, w := range res.Winners {
		assert.Equal(t, best, res.Scores[w])
	}
	for _, ps := range res.Stats.Players {
		assert.Equal(t, ps.Score, ps.Points, "player %s", ps.Name)
	}
	for _, p := range g.Players() {
		assert.Empty(t, p.Tokens())
	}
}

func TestTerminateStopsRunningGame(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Players = make([]PlayerConfig, 4)
	for i := range cfg.Players {
		cfg.Players[i] = PlayerConfig{Name: fmt.Sprintf("bot%d", i+1)}
	}
	cfg.EndGamePause = time.Minute
	g := newTestGame(t, cfg)

	g.Start(context.Background())
	g.Start(context.Background())
	require.Eventually(t, func() bool { return g.State() == StateCountingDown }, time.Second, time.Millisecond)

	g.Terminate()
	g.Terminate()
	waitDone(t, g, 2*time.Second)
	assert.Equal(t, StateTerminated, g.State())
}

func TestTerminateBeforeStart(t *testing.T) {
	g := newTestGame(t, humanConfig(2))
	_, err := g.Wait()
	assert.ErrorIs(t, err, ErrNotStarted)

	g.Terminate()
	res := waitDone(t, startGame(g), time.Second)
	assert.Equal(t, 0, res.Stats.TriplesFound)
	assert.Equal(t, StateTerminated, g.State())
}

func TestRunHonoursContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	cfg := humanConfig(1)
	g := newTestGame(t, cfg)
	res, err := g.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, res.Winners)
}

func TestKeyPressedIgnoresUnknownPlayers(t *testing.T) {
	g := newTestGame(t, humanConfig(1))
	assert.NotPanics(t, func() {
		g.KeyPressed(-1, 0)
		g.KeyPressed(7, 0)
	})
}

func TestGameID(t *testing.T) {
	g := newTestGame(t, humanConfig(1))
	assert.NoError(t, gameid.Validate(g.ID()))

	named := newTestGame(t, humanConfig(1), WithID("fixed"), WithDeck())
	assert.Equal(t, "fixed", named.ID())
	res := waitDone(t, startGame(named), time.Second)
	assert.Equal(t, "fixed", res.ID)
}
