// Package statistics aggregates the results of repeated automated games.
package statistics

import (
	"fmt"
	"math"
	"slices"

	"github.com/lox/setforbots/internal/game"
)

// Sample tracks one player's scores across games.
type Sample struct {
	Games     int
	Wins      int // Including shared wins
	Penalties int
	SumScore  float64
	SumScore2 float64 // Sum of squares for variance calculation
	Values    []float64
}

// Add records the player's score in one game.
func (s *Sample) Add(score int, won bool, penalties int) {
	v := float64(score)
	s.Games++
	s.SumScore += v
	s.SumScore2 += v * v
	s.Values = append(s.Values, v)
	s.Penalties += penalties
	if won {
		s.Wins++
	}
}

// Mean returns the average score per game
func (s *Sample) Mean() float64 {
	if s.Games == 0 {
		return 0
	}
	return s.SumScore / float64(s.Games)
}

// Variance returns the sample variance of the scores
func (s *Sample) Variance() float64 {
	if s.Games < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumScore2 - float64(s.Games)*mean*mean) / float64(s.Games-1)
}

// StdDev returns the sample standard deviation
func (s *Sample) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean
func (s *Sample) StdError() float64 {
	if s.Games == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Games))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Sample) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// WinRate returns the fraction of games the player won or shared.
func (s *Sample) WinRate() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Games)
}

// Median returns the median score
func (s *Sample) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile returns the score at p in [0, 1], interpolating linearly.
func (s *Sample) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := slices.Clone(s.Values)
	slices.Sort(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	if lower+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[lower+1]*weight
}

// Batch aggregates game results for a fixed line-up.
type Batch struct {
	Names        []string
	Players      []Sample
	Games        int
	TriplesFound int
	Reshuffles   int
	Submissions  int
}

// NewBatch creates an empty batch for the given players.
func NewBatch(names []string) *Batch {
	return &Batch{
		Names:   slices.Clone(names),
		Players: make([]Sample, len(names)),
	}
}

// Add incorporates one game's result.
func (b *Batch) Add(res game.Result) error {
	if len(res.Scores) != len(b.Players) || len(res.Stats.Players) != len(b.Players) {
		return fmt.Errorf("result has %d players, batch has %d", len(res.Scores), len(b.Players))
	}
	b.Games++
	b.TriplesFound += res.Stats.TriplesFound
	b.Reshuffles += res.Stats.Reshuffles
	b.Submissions += res.Stats.Submissions
	for id, score := range res.Scores {
		b.Players[id].Add(score, slices.Contains(res.Winners, id), res.Stats.Players[id].Penalties)
	}
	return nil
}

// Validate checks that the per-player samples add up to the batch totals.
func (b *Batch) Validate() error {
	if b.Games <= 0 {
		return fmt.Errorf("invalid games count: %d", b.Games)
	}
	total := 0.0
	for i, p := range b.Players {
		if p.Games != b.Games {
			return fmt.Errorf("player %s has %d games, batch has %d", b.Names[i], p.Games, b.Games)
		}
		if len(p.Values) != p.Games {
			return fmt.Errorf("player %s: values length (%d) does not match games (%d)", b.Names[i], len(p.Values), p.Games)
		}
		total += p.SumScore
	}
	if math.Abs(total-float64(b.TriplesFound)) > 1e-6 {
		return fmt.Errorf("scores add up to %.0f but %d triples were found", total, b.TriplesFound)
	}
	return nil
}
