package game

import "sync/atomic"

// PlayerStats summarises one player's submissions.
type PlayerStats struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
	Points    int    `json:"points"`
	Penalties int    `json:"penalties"`
	Stale     int    `json:"stale"`
}

// Stats summarises a game.
type Stats struct {
	Submissions    int           `json:"submissions"`
	TriplesFound   int           `json:"triplesFound"`
	Reshuffles     int           `json:"reshuffles"`
	CardsRemaining int           `json:"cardsRemaining"`
	Players        []PlayerStats `json:"players"`
}

// Result is what a finished game reports.
type Result struct {
	ID      string `json:"id"`
	Winners []int  `json:"winners"` // Player ids with the best score, ascending
	Scores  []int  `json:"scores"`  // Indexed by player id
	Stats   Stats  `json:"stats"`
}

// stats counts verdicts as the arbiter hands them out. Counters are atomic
// so observers can read them while a game runs.
type stats struct {
	reshuffles atomic.Int64
	points     []atomic.Int64
	penalties  []atomic.Int64
	stale      []atomic.Int64
}

func newStats(players int) *stats {
	return &stats{
		points:    make([]atomic.Int64, players),
		penalties: make([]atomic.Int64, players),
		stale:     make([]atomic.Int64, players),
	}
}

func (s *stats) record(player int, v Verdict) {
	switch v {
	case VerdictPoint:
		s.points[player].Add(1)
	case VerdictPenalty:
		s.penalties[player].Add(1)
	case VerdictStale:
		s.stale[player].Add(1)
	}
}

func (s *stats) snapshot(players []*Player, remaining int) Stats {
	out := Stats{
		Reshuffles:     int(s.reshuffles.Load()),
		CardsRemaining: remaining,
		Players:        make([]PlayerStats, len(players)),
	}
	for i, p := range players {
		ps := PlayerStats{
			ID:        p.id,
			Name:      p.name,
			Score:     p.Score(),
			Points:    int(s.points[i].Load()),
			Penalties: int(s.penalties[i].Load()),
			Stale:     int(s.stale[i].Load()),
		}
		out.Submissions += ps.Points + ps.Penalties + ps.Stale
		out.TriplesFound += ps.Points
		out.Players[i] = ps
	}
	return out
}
