package spectate

import (
	"encoding/json"
	"time"

	"github.com/lox/setforbots/internal/deck"
)

// EventType identifies a spectator event
type EventType string

const (
	TypeSnapshot         EventType = "snapshot"
	TypeCountdown        EventType = "countdown"
	TypeCardPlaced       EventType = "card_placed"
	TypeCardRemoved      EventType = "card_removed"
	TypeTokenPlaced      EventType = "token_placed"
	TypeTokenRemoved     EventType = "token_removed"
	TypeTokensCleared    EventType = "tokens_cleared"
	TypeAllTokensCleared EventType = "all_tokens_cleared"
	TypeScore            EventType = "score"
	TypeFreeze           EventType = "freeze"
	TypeWinners          EventType = "winners"
	TypeHints            EventType = "hints"
)

// Event is the envelope of every message sent to spectators
type Event struct {
	Type      EventType       `json:"type"`
	Game      string          `json:"game,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent creates an event stamped with the given time
func NewEvent(eventType EventType, game string, data any, now time.Time) (*Event, error) {
	ev := &Event{Type: eventType, Game: game, Timestamp: now}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		ev.Data = raw
	}
	return ev, nil
}

// CardData describes a card in a slot
type CardData struct {
	Slot     int    `json:"slot"`
	Card     int    `json:"card"`
	Features []int  `json:"features"`
	Label    string `json:"label"`
}

func newCardData(card deck.Card, slot, featureCount int) CardData {
	return CardData{
		Slot:     slot,
		Card:     int(card),
		Features: card.Features(featureCount),
		Label:    card.String(),
	}
}

type SlotData struct {
	Slot int `json:"slot"`
}

type TokenData struct {
	Player int `json:"player"`
	Slot   int `json:"slot"`
}

type CountdownData struct {
	RemainingMs int64 `json:"remainingMs"`
	Warn        bool  `json:"warn"`
}

type ScoreData struct {
	Player int `json:"player"`
	Score  int `json:"score"`
}

type FreezeData struct {
	Player      int   `json:"player"`
	RemainingMs int64 `json:"remainingMs"`
}

type WinnersData struct {
	Players []int `json:"players"`
}

type HintsData struct {
	Triples [][3]int `json:"triples"`
}

// PlayerData names a player in a snapshot
type PlayerData struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Human bool   `json:"human"`
	Score int    `json:"score"`
}

// SnapshotData is sent to every spectator on connect so late joiners see the
// current board.
type SnapshotData struct {
	Players   []PlayerData  `json:"players"`
	Cards     []CardData    `json:"cards"`
	Tokens    []TokenData   `json:"tokens"`
	Countdown CountdownData `json:"countdown"`
	Winners   []int         `json:"winners,omitempty"`
}
