// Package table holds the shared slot to card mapping of a running game.
//
// The mapping is kept as two fixed-size arrays, slot to card and card to
// slot, changed only through Place, Remove and Clear so both directions stay
// consistent. Writes must come from a single goroutine (the arbiter). Reads
// may come from any goroutine: each cell is atomic, so a reader sees a value
// that was true at some recent instant, which is all players need to decide
// whether a slot is worth toggling.
package table

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/lox/setforbots/internal/deck"
)

var (
	ErrSlotOutOfRange = errors.New("slot out of range")
	ErrCardOutOfRange = errors.New("card out of range")
	ErrSlotOccupied   = errors.New("slot occupied")
	ErrSlotEmpty      = errors.New("slot empty")
	ErrCardOnTable    = errors.New("card already on table")
)

// empty marks an unoccupied cell. Cells store value+1 so the zero value of a
// fresh array means empty.
const empty = 0

// Table is the slot to card mapping.
type Table struct {
	slotToCard []atomic.Int32 // card+1, or empty
	cardToSlot []atomic.Int32 // slot+1, or empty
	count      atomic.Int32
}

// New creates an empty table with slots slots for cards in [0, deckSize).
func New(slots, deckSize int) *Table {
	return &Table{
		slotToCard: make([]atomic.Int32, slots),
		cardToSlot: make([]atomic.Int32, deckSize),
	}
}

// Slots returns the fixed number of slots.
func (t *Table) Slots() int {
	return len(t.slotToCard)
}

// Place puts card on slot.
func (t *Table) Place(card deck.Card, slot int) error {
	if err := t.checkSlot(slot); err != nil {
		return err
	}
	if err := t.checkCard(card); err != nil {
		return err
	}
	if t.slotToCard[slot].Load() != empty {
		return fmt.Errorf("place card %d on slot %d: %w", card, slot, ErrSlotOccupied)
	}
	if t.cardToSlot[card].Load() != empty {
		return fmt.Errorf("place card %d on slot %d: %w", card, slot, ErrCardOnTable)
	}
	// Publish the reverse mapping first so a reader that finds the card on a
	// slot can always resolve it back.
	t.cardToSlot[card].Store(int32(slot) + 1)
	t.slotToCard[slot].Store(int32(card) + 1)
	t.count.Add(1)
	return nil
}

// Remove empties slot and returns the card that was on it.
func (t *Table) Remove(slot int) (deck.Card, error) {
	if err := t.checkSlot(slot); err != nil {
		return 0, err
	}
	v := t.slotToCard[slot].Load()
	if v == empty {
		return 0, fmt.Errorf("remove slot %d: %w", slot, ErrSlotEmpty)
	}
	card := deck.Card(v - 1)
	t.slotToCard[slot].Store(empty)
	t.cardToSlot[card].Store(empty)
	t.count.Add(-1)
	return card, nil
}

// Clear empties every slot and returns the removed cards in slot order.
// Clearing an empty table is a no-op.
func (t *Table) Clear() []deck.Card {
	var removed []deck.Card
	for slot := range t.slotToCard {
		if card, err := t.Remove(slot); err == nil {
			removed = append(removed, card)
		}
	}
	return removed
}

// CardAt returns the card on slot, if any.
func (t *Table) CardAt(slot int) (deck.Card, bool) {
	if slot < 0 || slot >= len(t.slotToCard) {
		return 0, false
	}
	v := t.slotToCard[slot].Load()
	if v == empty {
		return 0, false
	}
	return deck.Card(v - 1), true
}

// SlotOf returns the slot holding card, if it is on the table.
func (t *Table) SlotOf(card deck.Card) (int, bool) {
	if card < 0 || int(card) >= len(t.cardToSlot) {
		return 0, false
	}
	v := t.cardToSlot[card].Load()
	if v == empty {
		return 0, false
	}
	return int(v - 1), true
}

// Contains reports whether card is currently on the table.
func (t *Table) Contains(card deck.Card) bool {
	_, ok := t.SlotOf(card)
	return ok
}

// Count returns the number of occupied slots.
func (t *Table) Count() int {
	return int(t.count.Load())
}

// Cards returns the cards on the table in slot order.
func (t *Table) Cards() []deck.Card {
	cards := make([]deck.Card, 0, len(t.slotToCard))
	for slot := range t.slotToCard {
		if card, ok := t.CardAt(slot); ok {
			cards = append(cards, card)
		}
	}
	return cards
}

// EmptySlots returns the unoccupied slots in ascending order.
func (t *Table) EmptySlots() []int {
	var slots []int
	for slot := range t.slotToCard {
		if t.slotToCard[slot].Load() == empty {
			slots = append(slots, slot)
		}
	}
	return slots
}

func (t *Table) checkSlot(slot int) error {
	if slot < 0 || slot >= len(t.slotToCard) {
		return fmt.Errorf("slot %d: %w", slot, ErrSlotOutOfRange)
	}
	return nil
}

func (t *Table) checkCard(card deck.Card) error {
	if card < 0 || int(card) >= len(t.cardToSlot) {
		return fmt.Errorf("card %d: %w", card, ErrCardOutOfRange)
	}
	return nil
}
