package game

import (
	"testing"

	"github.com/lox/setforbots/internal/deck"
	"github.com/lox/setforbots/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDealFillsTable(t *testing.T) {
	display := newRecordingDisplay()
	_, a := dealtGame(t, humanConfig(1), WithDisplay(display))

	assert.Equal(t, 12, a.table.Count())
	assert.Equal(t, 81-12, a.deck.Len())
	assert.Equal(t, 12, display.placed)
	assert.True(t, a.tableOpen.IsOpen())
	require.NoError(t, a.checkConservation())
}

func TestDealStopsWhenDeckRunsOut(t *testing.T) {
	_, a := dealtGame(t, humanConfig(1), WithDeck(0, 1, 2, 3, 4))
	assert.Equal(t, 5, a.table.Count())
	assert.True(t, a.deck.IsEmpty())
	assert.Len(t, a.table.EmptySlots(), 7)
}

func TestValidTripleScoresAndLeavesTable(t *testing.T) {
	_, a := dealtGame(t, humanConfig(2), WithDeck(0, 1, 2, 3, 4, 5, 6))
	p := a.players[0]

	sub, ok := selectCards(t, a, p, 0, 1, 2)
	require.True(t, ok)
	a.submissions <- sub
	assert.Equal(t, 1, a.drain())

	assert.Equal(t, Outcome{Seq: sub.Seq, Verdict: VerdictPoint}, receiveOutcome(t, p))
	assert.Equal(t, 1, p.Score())
	assert.Equal(t, 4, a.table.Count())
	for _, c := range sub.Cards {
		assert.False(t, a.table.Contains(c))
		assert.False(t, a.deck.Contains(c))
	}
	assert.ElementsMatch(t, []deck.Card{0, 1, 2}, a.removed)
	assert.Empty(t, p.Tokens())
	require.NoError(t, a.checkConservation())
}

func TestInvalidTriplePenalises(t *testing.T) {
	_, a := dealtGame(t, humanConfig(1), WithDeck(0, 1, 2, 3))
	p := a.players[0]

	sub, ok := selectCards(t, a, p, 0, 1, 3)
	require.True(t, ok)
	assert.Equal(t, VerdictPenalty, a.process(sub))

	assert.Equal(t, VerdictPenalty, receiveOutcome(t, p).Verdict)
	assert.Equal(t, 0, p.Score())
	assert.Equal(t, 4, a.table.Count(), "a penalty leaves the table alone")
	assert.Empty(t, a.removed)
}

func TestLaterSubmissionOnRemovedCardIsStale(t *testing.T) {
	_, a := dealtGame(t, humanConfig(2), WithDeck(0, 1, 2, 3, 4, 5))
	first, second := a.players[0], a.players[1]

	sub0, ok := selectCards(t, a, first, 0, 1, 2)
	require.True(t, ok)
	sub1, ok := selectCards(t, a, second, 2, 3, 4)
	require.True(t, ok)

	a.submissions <- sub0
	a.submissions <- sub1
	assert.Equal(t, 1, a.drain())

	assert.Equal(t, VerdictPoint, receiveOutcome(t, first).Verdict)
	assert.Equal(t, VerdictStale, receiveOutcome(t, second).Verdict)
	assert.Equal(t, 1, first.Score())
	assert.Equal(t, 0, second.Score())

	stats := a.stats.snapshot(a.players, 0)
	assert.Equal(t, 2, stats.Submissions)
	assert.Equal(t, 1, stats.Players[1].Stale)
}

func TestPointDropsOtherPlayersTokensOnRemovedCards(t *testing.T) {
	_, a := dealtGame(t, humanConfig(2), WithDeck(0, 1, 2, 3, 4, 5))
	first, second := a.players[0], a.players[1]

	_, ok := selectCards(t, a, second, 2, 3)
	require.False(t, ok)

	sub, ok := selectCards(t, a, first, 0, 1, 2)
	require.True(t, ok)
	a.process(sub)

	assert.Equal(t, []deck.Card{3}, second.Tokens())
}

func TestClearTableDropsTokensAndAnswersQueuedSubmissions(t *testing.T) {
	_, a := dealtGame(t, humanConfig(3), WithDeck(0, 1, 2, 3, 4, 5))
	selecting, submitted := a.players[0], a.players[1]

	_, ok := selectCards(t, a, selecting, 0, 1)
	require.False(t, ok)
	slot := slotOf(t, a, 0)

	sub, ok := selectCards(t, a, submitted, 0, 1, 2)
	require.True(t, ok)
	a.submissions <- sub

	a.clearTable()

	assert.Equal(t, 0, a.table.Count())
	assert.Equal(t, 6, a.deck.Len())
	assert.Empty(t, selecting.Tokens())
	assert.Equal(t, VerdictStale, receiveOutcome(t, submitted).Verdict)
	assert.False(t, a.tableOpen.IsOpen())
	require.NoError(t, a.checkConservation())

	// A toggle still in flight finds the slot empty and does nothing.
	_, ok = selecting.toggle(slot)
	assert.False(t, ok)
	assert.Empty(t, selecting.Tokens())

	// Clearing again is harmless.
	a.clearTable()
	assert.Equal(t, 6, a.deck.Len())
	require.NoError(t, a.checkConservation())
}

func TestExhausted(t *testing.T) {
	_, a := dealtGame(t, humanConfig(1), WithDeck(0, 1, 2, 3))
	assert.False(t, a.exhausted())

	sub, ok := selectCards(t, a, a.players[0], 0, 1, 2)
	require.True(t, ok)
	a.process(sub)
	assert.True(t, a.exhausted())
}

func TestAnnounceWinnersReportsTies(t *testing.T) {
	display := newRecordingDisplay()
	g := newTestGame(t, humanConfig(3), WithDisplay(display))
	a := g.arbiter
	a.players[0].score.Store(2)
	a.players[1].score.Store(3)
	a.players[2].score.Store(3)

	a.announceWinners()
	assert.Equal(t, [][]int{{1, 2}}, display.announced())
	assert.Equal(t, []int{1, 2}, a.result().Winners)
	assert.Equal(t, []int{2, 3, 3}, a.result().Scores)
}

func TestHintsListTriplesOnTable(t *testing.T) {
	display := newRecordingDisplay()
	cfg := humanConfig(1)
	cfg.Hints = true
	_, a := dealtGame(t, cfg, WithDisplay(display), WithDeck(0, 1, 2, 3))

	require.Len(t, display.hints, 1)
	assert.Equal(t, rules.New(4).FindTriples(a.table.Cards(), 0), display.hints[0])
	require.Len(t, display.hints[0], 1)
}
