package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sakshamg567/hangman/internal/render"
)

const shotLayout = "20060102_150405"

// screenshot writes the current board as a text file and a matching SVG of
// the figure, and returns the text file's path.
func (a *app) screenshot() (string, error) {
	if err := os.MkdirAll(a.shotDir, 0o755); err != nil {
		return "", err
	}
	base := filepath.Join(a.shotDir, "hangman_game_"+a.now().Format(shotLayout))

	var b strings.Builder
	fmt.Fprintf(&b, "HANGMAN round %d\n\n", a.snap.Round)
	for _, line := range render.ASCII(a.snap.Mistakes) {
		b.WriteString(line + "\n")
	}
	fmt.Fprintf(&b, "\n%s\n", render.Mask(a.snap))
	fmt.Fprintf(&b, "Mistakes: %d/%d\n", a.snap.Mistakes, a.snap.MaxMistakes)
	fmt.Fprintf(&b, "Guessed: %s\n", strings.Join(a.snap.Guessed, " "))
	fmt.Fprintf(&b, "Status: %s\n", a.snap.Status)
	if a.snap.Message != "" {
		b.WriteString(a.snap.Message + "\n")
	}

	path := base + ".txt"
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", err
	}
	if err := os.WriteFile(base+".svg", []byte(render.SVG(a.snap.Mistakes)), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
