package sequence

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Alphabet is the ordered set of letters a sequence may contain.
type Alphabet string

const (
	DNA     Alphabet = "ACGT"
	RNA     Alphabet = "ACGU"
	Protein Alphabet = "ACDEFGHIKLMNPQRSTVWY"
)

var ErrInvalidLetter = errors.New("letter not in alphabet")

// Index returns the position of letter r in the alphabet, or -1.
func (a Alphabet) Index(r byte) int {
	return strings.IndexByte(string(a), r)
}

func (a Alphabet) Len() int {
	return len(a)
}

// Validate checks that every letter of seq belongs to the alphabet.
func Validate(seq string, alphabet Alphabet) error {
	if alphabet.Len() == 0 {
		return fmt.Errorf("alphabet is empty")
	}
	for i := 0; i < len(seq); i++ {
		if alphabet.Index(seq[i]) < 0 {
			return fmt.Errorf("%w: %q at position %d", ErrInvalidLetter, seq[i], i)
		}
	}
	return nil
}

// Distance is the Levenshtein edit distance between two sequences.
func Distance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// Random draws a uniformly random sequence of the given length.
func Random(rng *rand.Rand, length int, alphabet Alphabet) (string, error) {
	if rng == nil {
		return "", fmt.Errorf("random source is required")
	}
	if length <= 0 {
		return "", fmt.Errorf("invalid sequence length: %d", length)
	}
	if alphabet.Len() == 0 {
		return "", fmt.Errorf("alphabet is empty")
	}
	out := make([]byte, length)
	for i := range out {
		out[i] = alphabet[rng.Intn(alphabet.Len())]
	}
	return string(out), nil
}

// Mutate substitutes each position with probability rate. At least one
// position always changes, so the result never equals seq when the alphabet
// has more than one letter.
func Mutate(rng *rand.Rand, seq string, alphabet Alphabet, rate float64) (string, error) {
	if rng == nil {
		return "", fmt.Errorf("random source is required")
	}
	if len(seq) == 0 {
		return "", fmt.Errorf("sequence is empty")
	}
	if alphabet.Len() < 2 {
		return "", fmt.Errorf("alphabet needs at least two letters, got %d", alphabet.Len())
	}
	if rate < 0 || rate > 1 {
		return "", fmt.Errorf("mutation rate out of range: %f", rate)
	}

	out := []byte(seq)
	mutated := false
	for i := range out {
		if rng.Float64() < rate {
			out[i] = substitute(rng, out[i], alphabet)
			mutated = true
		}
	}
	if !mutated {
		pos := rng.Intn(len(out))
		out[pos] = substitute(rng, out[pos], alphabet)
	}
	return string(out), nil
}

func substitute(rng *rand.Rand, current byte, alphabet Alphabet) byte {
	for {
		next := alphabet[rng.Intn(alphabet.Len())]
		if next != current {
			return next
		}
	}
}
