// Package rules implements the matching rule for triples of feature cards.
//
// A triple matches when, for every feature, the three cards either all share
// the same value or all have different values. Because every feature takes
// exactly three values, that condition is equivalent to the feature values
// summing to a multiple of three.
package rules

import (
	"github.com/lox/setforbots/internal/deck"
)

// Rules answers match questions for a deck with a fixed feature count.
// It holds no mutable state and is safe for concurrent use.
type Rules struct {
	featureCount int
}

// New returns the rules for cards with featureCount features.
func New(featureCount int) Rules {
	return Rules{featureCount: featureCount}
}

// FeatureCount returns the number of features per card.
func (r Rules) FeatureCount() int {
	return r.featureCount
}

// IsValidTriple reports whether a, b and c form a match. Repeated cards never do.
func (r Rules) IsValidTriple(a, b, c deck.Card) bool {
	if a == b || b == c || a == c {
		return false
	}
	x, y, z := int(a), int(b), int(c)
	for range r.featureCount {
		if (x%deck.FeatureValues+y%deck.FeatureValues+z%deck.FeatureValues)%deck.FeatureValues != 0 {
			return false
		}
		x /= deck.FeatureValues
		y /= deck.FeatureValues
		z /= deck.FeatureValues
	}
	return true
}

// ContainsAnyValidTriple reports whether cards contain at least one match.
func (r Rules) ContainsAnyValidTriple(cards []deck.Card) bool {
	return len(r.FindTriples(cards, 1)) > 0
}

// FindTriples returns up to limit matches among cards, in index order.
// A limit of zero or less returns every match.
//
// For each pair the third card is fully determined, so the search is a pair
// scan with a set lookup.
func (r Rules) FindTriples(cards []deck.Card, limit int) []deck.Triple {
	index := make(map[deck.Card]int, len(cards))
	for i, c := range cards {
		index[c] = i
	}

	var found []deck.Triple
	for i := 0; i < len(cards); i++ {
		for j := i + 1; j < len(cards); j++ {
			third, ok := r.complete(cards[i], cards[j])
			if !ok {
				continue
			}
			k, present := index[third]
			if !present || k <= j {
				continue
			}
			found = append(found, deck.Triple{cards[i], cards[j], third})
			if limit > 0 && len(found) >= limit {
				return found
			}
		}
	}
	return found
}

// complete returns the unique card that forms a match with a and b.
func (r Rules) complete(a, b deck.Card) (deck.Card, bool) {
	if a == b {
		return 0, false
	}
	x, y := int(a), int(b)
	third, place := 0, 1
	for range r.featureCount {
		fx, fy := x%deck.FeatureValues, y%deck.FeatureValues
		fz := (2*deck.FeatureValues - fx - fy) % deck.FeatureValues
		third += fz * place
		place *= deck.FeatureValues
		x /= deck.FeatureValues
		y /= deck.FeatureValues
	}
	return deck.Card(third), true
}
