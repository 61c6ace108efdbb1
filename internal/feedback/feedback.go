package feedback

import (
	"errors"
	"fmt"
)

// Code classifies a single guessed digit against the secret.
type Code string

const (
	// CodeExact indicates the digit is correct and in the correct position
	CodeExact Code = "exact"

	// CodePresent indicates the digit occurs in the secret at another position
	CodePresent Code = "present"

	// CodeAbsent indicates the digit does not occur in the secret at all
	CodeAbsent Code = "absent"
)

// ErrLengthMismatch is returned when the guess and secret differ in length
var ErrLengthMismatch = errors.New("guess and secret must have the same length")

// Compute scores a guess against a secret of equal digit length.
//
// Two passes: exact matches are marked first and consume their secret
// position, then each remaining guess digit claims the leftmost
// unconsumed secret position holding the same digit. A digit is never
// credited more times than it occurs in both strings, which a naive
// containment check gets wrong for repeated digits.
func Compute(guess, secret string) ([]Code, error) {
	if len(guess) == 0 || len(guess) != len(secret) {
		return nil, ErrLengthMismatch
	}

	for i := 0; i < len(guess); i++ {
		if !isDigit(guess[i]) || !isDigit(secret[i]) {
			return nil, fmt.Errorf("non-digit character at position %d", i)
		}
	}

	n := len(guess)
	codes := make([]Code, n)
	consumed := make([]bool, n)

	// First pass: exact matches
	for i := 0; i < n; i++ {
		if guess[i] == secret[i] {
			codes[i] = CodeExact
			consumed[i] = true
		}
	}

	// Second pass: misplaced digits against the unconsumed supply
	for i := 0; i < n; i++ {
		if codes[i] == CodeExact {
			continue
		}

		codes[i] = CodeAbsent
		for j := 0; j < n; j++ {
			if !consumed[j] && guess[i] == secret[j] {
				codes[i] = CodePresent
				consumed[j] = true
				break
			}
		}
	}

	return codes, nil
}

// AllExact reports whether every position scored an exact match.
func AllExact(codes []Code) bool {
	if len(codes) == 0 {
		return false
	}

	for _, c := range codes {
		if c != CodeExact {
			return false
		}
	}

	return true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
