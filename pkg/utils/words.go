package utils

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadWords reads a word bank file: one word per line, blank lines and
// lines starting with '#' are skipped, words are upper-cased. Validation of
// the alphabet is left to hangman.NewWordBank.
func LoadWords(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open word bank: %w", err)
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		l := strings.TrimSpace(scanner.Text())
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		words = append(words, strings.ToUpper(l))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read word bank %s: %w", path, err)
	}
	return words, nil
}
