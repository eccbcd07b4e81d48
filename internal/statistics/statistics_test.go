package statistics

import (
	"testing"

	"github.com/lox/setforbots/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSample(t *testing.T) {
	var s Sample
	for i, score := range []int{2, 4, 4, 4, 5, 5, 7, 9} {
		s.Add(score, i%2 == 0, 1)
	}

	assert.Equal(t, 8, s.Games)
	assert.Equal(t, 4, s.Wins)
	assert.Equal(t, 8, s.Penalties)
	assert.InDelta(t, 5.0, s.Mean(), 1e-9)
	assert.InDelta(t, 32.0/7.0, s.Variance(), 1e-9)
	assert.InDelta(t, 0.5, s.WinRate(), 1e-9)
	assert.InDelta(t, 4.5, s.Median(), 1e-9)
	assert.InDelta(t, 9.0, s.Percentile(1), 1e-9)
	assert.InDelta(t, 2.0, s.Percentile(0), 1e-9)

	lo, hi := s.ConfidenceInterval95()
	assert.Less(t, lo, s.Mean())
	assert.Greater(t, hi, s.Mean())
}

func TestEmptySample(t *testing.T) {
	var s Sample
	assert.Zero(t, s.Mean())
	assert.Zero(t, s.StdError())
	assert.Zero(t, s.WinRate())
	assert.Zero(t, s.Median())
}

func result(winners []int, scores ...int) game.Result {
	res := game.Result{Winners: winners, Scores: scores}
	for id, s := range scores {
		res.Stats.TriplesFound += s
		res.Stats.Players = append(res.Stats.Players, game.PlayerStats{ID: id, Score: s, Points: s})
	}
	return res
}

func TestBatch(t *testing.T) {
	b := NewBatch([]string{"bot1", "bot2"})
	require.NoError(t, b.Add(result([]int{0}, 5, 3)))
	require.NoError(t, b.Add(result([]int{0, 1}, 4, 4)))
	require.NoError(t, b.Add(result([]int{1}, 2, 6)))

	require.NoError(t, b.Validate())
	assert.Equal(t, 3, b.Games)
	assert.Equal(t, 24, b.TriplesFound)
	assert.Equal(t, 2, b.Players[0].Wins)
	assert.Equal(t, 2, b.Players[1].Wins)
	assert.InDelta(t, 11.0/3.0, b.Players[0].Mean(), 1e-9)

	assert.Error(t, b.Add(result([]int{0}, 1)))
}

func TestBatchValidate(t *testing.T) {
	b := NewBatch([]string{"bot1"})
	assert.ErrorContains(t, b.Validate(), "invalid games count")

	require.NoError(t, b.Add(result([]int{0}, 3)))
	b.TriplesFound = 4
	assert.ErrorContains(t, b.Validate(), "add up")
}
