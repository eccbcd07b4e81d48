package deck

import (
	rand "math/rand/v2"
	"slices"
)

// Deck holds the cards that are neither on the table nor permanently
// removed. Order carries no meaning: Draw picks uniformly at random.
// A Deck is owned by the arbiter and is not safe for concurrent use.
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// New creates a deck holding every card of a featureCount deck.
func New(featureCount int, rng *rand.Rand) *Deck {
	size := Size(featureCount)
	cards := make([]Card, size)
	for i := range size {
		cards[i] = Card(i)
	}
	return &Deck{cards: cards, rng: rng}
}

// NewWithCards creates a deck holding exactly the given cards.
func NewWithCards(cards []Card, rng *rand.Rand) *Deck {
	return &Deck{cards: slices.Clone(cards), rng: rng}
}

// Draw removes and returns a random card.
func (d *Deck) Draw() (Card, bool) {
	if len(d.cards) == 0 {
		return 0, false
	}
	i := d.rng.IntN(len(d.cards))
	card := d.cards[i]
	last := len(d.cards) - 1
	d.cards[i] = d.cards[last]
	d.cards = d.cards[:last]
	return card, true
}

// Return puts cards back, e.g. when the table is cleared at the end of a round.
func (d *Deck) Return(cards ...Card) {
	d.cards = append(d.cards, cards...)
}

// Len returns the number of cards left in the deck.
func (d *Deck) Len() int {
	return len(d.cards)
}

// IsEmpty returns true if the deck has no cards left
func (d *Deck) IsEmpty() bool {
	return len(d.cards) == 0
}

// Contains reports whether card is currently in the deck.
func (d *Deck) Contains(card Card) bool {
	return slices.Contains(d.cards, card)
}

// Cards returns a sorted copy of the deck contents.
func (d *Deck) Cards() []Card {
	out := slices.Clone(d.cards)
	slices.Sort(out)
	return out
}
