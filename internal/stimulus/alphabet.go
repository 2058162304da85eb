package stimulus

import (
	"fmt"
	"slices"
)

// Symbol is a single spoken letter.
type Symbol string

// Alphabet is the ordered set of symbols a sequence draws from.
// Symbols must be distinct.
type Alphabet []Symbol

// defaultAlphabet holds eight letters that stay distinguishable over a phone
// speaker. It is copied on every access so callers cannot mutate it.
var defaultAlphabet = [...]Symbol{"C", "H", "K", "L", "Q", "R", "S", "T"}

// AlphabetSize is the number of symbols in every alphabet the task accepts.
const AlphabetSize = len(defaultAlphabet)

// DefaultAlphabet returns a fresh copy of the built-in alphabet.
func DefaultAlphabet() Alphabet {
	return slices.Clone(defaultAlphabet[:])
}

// Contains reports whether s is a member of the alphabet.
func (a Alphabet) Contains(s Symbol) bool {
	return slices.Contains(a, s)
}

// Validate checks that the alphabet can produce non-matching draws:
// at least two symbols, all distinct and non-empty.
func (a Alphabet) Validate() error {
	if len(a) < 2 {
		return fmt.Errorf("alphabet needs at least 2 symbols, got %d", len(a))
	}
	seen := make(map[Symbol]bool, len(a))
	for i, s := range a {
		if s == "" {
			return fmt.Errorf("alphabet[%d] is empty", i)
		}
		if seen[s] {
			return fmt.Errorf("alphabet has duplicate symbol %q", s)
		}
		seen[s] = true
	}
	return nil
}
