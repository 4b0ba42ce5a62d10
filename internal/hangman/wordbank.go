package hangman

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyWordBank is returned when a word bank would have no words.
var ErrEmptyWordBank = errors.New("word bank is empty")

// InvalidWordError reports a candidate word outside the A-Z alphabet.
type InvalidWordError struct {
	Index int
	Word  string
}

func (e *InvalidWordError) Error() string {
	return fmt.Sprintf("word %d %q: must be non-empty and contain only letters A-Z", e.Index, e.Word)
}

// defaultWords is the built-in vocabulary.
var defaultWords = []string{
	"PYTHON", "JAVASCRIPT", "PROGRAMMING", "COMPUTER", "ALGORITHM",
	"DATABASE", "NETWORK", "DEVELOPER", "SOFTWARE", "CODING",
}

// WordBank is an immutable, non-empty list of candidate secret words.
type WordBank struct {
	words []string
}

// NewWordBank validates and copies words. Lowercase input is upper-cased;
// anything else outside A-Z is rejected.
func NewWordBank(words []string) (WordBank, error) {
	if len(words) == 0 {
		return WordBank{}, ErrEmptyWordBank
	}
	out := make([]string, len(words))
	for i, w := range words {
		up := strings.ToUpper(w)
		if !isWord(up) {
			return WordBank{}, &InvalidWordError{Index: i, Word: w}
		}
		out[i] = up
	}
	return WordBank{words: out}, nil
}

// DefaultWordBank returns the built-in vocabulary.
func DefaultWordBank() WordBank {
	return WordBank{words: append([]string(nil), defaultWords...)}
}

// Len returns the number of candidate words.
func (b WordBank) Len() int { return len(b.words) }

// At returns the word at index i.
func (b WordBank) At(i int) string { return b.words[i] }

// Words returns a copy of the vocabulary.
func (b WordBank) Words() []string {
	return append([]string(nil), b.words...)
}

func isWord(w string) bool {
	if w == "" {
		return false
	}
	for i := 0; i < len(w); i++ {
		if w[i] < 'A' || w[i] > 'Z' {
			return false
		}
	}
	return true
}
