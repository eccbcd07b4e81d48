// Package gameid names games with sortable, URL-safe identifiers: a UUIDv7
// rendered as 26 characters of Crockford base32.
package gameid

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// Crockford's base32 alphabet, lower case
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length is the number of characters in an id.
const Length = 26

// Generate returns a new id. Ids generated later sort after earlier ones.
func Generate() string {
	return encode(uuid.Must(uuid.NewV7()))
}

// FromReader returns an id whose random bits come from r, for reproducible
// ids in seeded games and tests. The timestamp part still comes from the
// clock.
func FromReader(r io.Reader) (string, error) {
	id, err := uuid.NewV7FromReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to generate game id: %w", err)
	}
	return encode(id), nil
}

// encode writes the 128 bits of id as 26 base32 digits, most significant
// first. The leading digit only carries three bits.
func encode(id uuid.UUID) string {
	hi := binary.BigEndian.Uint64(id[:8])
	lo := binary.BigEndian.Uint64(id[8:])

	out := make([]byte, Length)
	for i := Length - 1; i >= 0; i-- {
		out[i] = alphabet[lo&0x1f]
		lo = lo>>5 | hi<<59
		hi >>= 5
	}
	return string(out)
}

// Validate checks that id is 26 base32 digits encoding at most 128 bits.
func Validate(id string) error {
	if len(id) != Length {
		return fmt.Errorf("game ID must be exactly %d characters, got %d", Length, len(id))
	}
	if id[0] > '7' {
		return fmt.Errorf("game ID first character must be 0-7, got %c", id[0])
	}
	for i, char := range id {
		if !strings.ContainsRune(alphabet, char) {
			return fmt.Errorf("invalid character %c at position %d", char, i)
		}
	}
	return nil
}
