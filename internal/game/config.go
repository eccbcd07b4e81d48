package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/lox/setforbots/internal/deck"
)

const (
	// MaxPlayers bounds the number of concurrent player actors.
	MaxPlayers = 8
	// MaxFeatureCount bounds the deck to 3^8 cards.
	MaxFeatureCount = 8
	// TokensPerSubmission is the number of cards in a candidate triple.
	TokensPerSubmission = 3
)

// PlayerConfig describes one participant.
type PlayerConfig struct {
	Name  string
	Human bool
}

// Config holds the read-only settings of one game.
type Config struct {
	TableSize    int // Number of slots, also the deal target
	FeatureCount int // Deck holds 3^FeatureCount cards
	Players      []PlayerConfig

	TurnTimeout        time.Duration // Time before the table is reshuffled
	TurnTimeoutWarning time.Duration // Countdown shows a warning below this
	EndGamePause       time.Duration // Winners stay on screen this long
	PointFreeze        time.Duration
	PenaltyFreeze      time.Duration
	Hints              bool

	// QueueCapacity sizes the submission queue. It must be at least the
	// number of players so that simultaneous submissions never block.
	QueueCapacity int
	// BotDelay is the pause between two presses of an automated player.
	BotDelay time.Duration
	Seed     int64 // Zero picks a time-based seed
}

// DefaultConfig returns a config with sensible defaults for a classic game
// between one human and one automated player.
func DefaultConfig() Config {
	return Config{
		TableSize:    12,
		FeatureCount: 4,
		Players: []PlayerConfig{
			{Name: "player1", Human: true},
			{Name: "bot1"},
		},
		TurnTimeout:        60 * time.Second,
		TurnTimeoutWarning: 5 * time.Second,
		EndGamePause:       5 * time.Second,
		PointFreeze:        time.Second,
		PenaltyFreeze:      3 * time.Second,
		QueueCapacity:      50,
		BotDelay:           10 * time.Millisecond,
	}
}

// DeckSize returns the number of cards in a full deck.
func (c Config) DeckSize() int {
	return deck.Size(c.FeatureCount)
}

// Validate checks the config before any goroutine starts.
func (c Config) Validate() error {
	var errs []error
	if c.FeatureCount < 1 || c.FeatureCount > MaxFeatureCount {
		errs = append(errs, fmt.Errorf("feature count must be between 1 and %d, got %d", MaxFeatureCount, c.FeatureCount))
	}
	if c.TableSize < TokensPerSubmission {
		errs = append(errs, fmt.Errorf("table size must be at least %d, got %d", TokensPerSubmission, c.TableSize))
	}
	if len(c.Players) == 0 || len(c.Players) > MaxPlayers {
		errs = append(errs, fmt.Errorf("player count must be between 1 and %d, got %d", MaxPlayers, len(c.Players)))
	}
	if c.QueueCapacity < len(c.Players) {
		errs = append(errs, fmt.Errorf("queue capacity %d is smaller than player count %d", c.QueueCapacity, len(c.Players)))
	}
	if c.TurnTimeout <= 0 {
		errs = append(errs, fmt.Errorf("turn timeout must be positive, got %s", c.TurnTimeout))
	}
	if c.TurnTimeoutWarning < 0 {
		errs = append(errs, fmt.Errorf("turn timeout warning must not be negative, got %s", c.TurnTimeoutWarning))
	}
	if c.EndGamePause < 0 || c.PointFreeze < 0 || c.PenaltyFreeze < 0 {
		errs = append(errs, errors.New("pauses and freezes must not be negative"))
	}
	for i, p := range c.Players {
		if !p.Human && c.BotDelay <= 0 {
			errs = append(errs, fmt.Errorf("player %d (%s): bot delay must be positive", i, p.Name))
			break
		}
	}
	return errors.Join(errs...)
}
