package game

import "github.com/lox/setforbots/internal/deck"

// Submission is a candidate triple handed to the arbiter. It is created
// the instant a player places its third token and consumed exactly once.
type Submission struct {
	Seq    uint64 // Per-player sequence number, echoed back in the Outcome
	Player int
	Cards  deck.Triple
}

// Verdict is the arbiter's answer to one submission.
type Verdict int

const (
	// VerdictStale means at least one card left the table before validation.
	VerdictStale Verdict = iota
	VerdictPoint
	VerdictPenalty
)

func (v Verdict) String() string {
	switch v {
	case VerdictStale:
		return "stale"
	case VerdictPoint:
		return "point"
	case VerdictPenalty:
		return "penalty"
	default:
		return "unknown"
	}
}

// Outcome carries a verdict back to the submitting player.
type Outcome struct {
	Seq     uint64
	Verdict Verdict
}
