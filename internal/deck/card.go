package deck

import (
	"fmt"
	"strings"
)

// FeatureValues is the number of values each card feature can take.
const FeatureValues = 3

// Card is an opaque card identity. Its base-3 digits encode the card's
// features, least significant digit first.
type Card int

// Size returns the number of distinct cards for the given feature count.
func Size(featureCount int) int {
	n := 1
	for range featureCount {
		n *= FeatureValues
	}
	return n
}

// Features decodes the card into featureCount values in [0, FeatureValues).
func (c Card) Features(featureCount int) []int {
	features := make([]int, featureCount)
	v := int(c)
	for i := range featureCount {
		features[i] = v % FeatureValues
		v /= FeatureValues
	}
	return features
}

// Feature returns the value of a single feature.
func (c Card) Feature(i int) int {
	v := int(c)
	for range i {
		v /= FeatureValues
	}
	return v % FeatureValues
}

// Names of the classic four features, in digit order.
var (
	colors   = [FeatureValues]string{"red", "green", "purple"}
	counts   = [FeatureValues]string{"1", "2", "3"}
	shapes   = [FeatureValues]string{"oval", "diamond", "squiggle"}
	shadings = [FeatureValues]string{"solid", "striped", "open"}
)

// String renders the card as "<count> <color> <shading> <shape>" for the
// classic four-feature deck, falling back to the raw digits otherwise.
func (c Card) String() string {
	if c < 0 || int(c) >= Size(4) {
		return fmt.Sprintf("#%d", int(c))
	}
	return fmt.Sprintf("%s %s %s %s",
		counts[c.Feature(1)], colors[c.Feature(0)], shadings[c.Feature(3)], shapes[c.Feature(2)])
}

// Short renders a compact digit form such as "0212".
func (c Card) Short(featureCount int) string {
	var b strings.Builder
	for _, f := range c.Features(featureCount) {
		fmt.Fprintf(&b, "%d", f)
	}
	return b.String()
}

// Triple is an unordered group of three cards.
type Triple [3]Card
