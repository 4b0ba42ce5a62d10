package render

import (
	"strconv"
	"strings"

	"github.com/sakshamg567/hangman/internal/hangman"
)

// ASCII draws the gallows as fixed-width text lines.
func ASCII(mistakes int) []string {
	var (
		pole  = hangman.PartVisible(hangman.PartPole, mistakes)
		head  = hangman.PartVisible(hangman.PartHead, mistakes)
		body  = hangman.PartVisible(hangman.PartBody, mistakes)
		larm  = hangman.PartVisible(hangman.PartLeftArm, mistakes)
		rarm  = hangman.PartVisible(hangman.PartRightArm, mistakes)
		legs  = hangman.PartVisible(hangman.PartLegs, mistakes)
		lines = make([]string, 7)
	)

	pick := func(on bool, s string) string {
		if on {
			return s
		}
		return strings.Repeat(" ", len(s))
	}

	lines[0] = "  " + pick(pole, "+---+")
	lines[1] = "  " + pick(pole, "|") + "   " + pick(pole, "|")
	lines[2] = "  " + pick(pole, "|") + "   " + pick(head, "O")
	lines[3] = "  " + pick(pole, "|") + "  " + pick(larm, "/") + pick(body, "|") + pick(rarm, "\\")
	lines[4] = "  " + pick(pole, "|") + "  " + pick(legs, "/ \\")
	lines[5] = "  " + pick(pole, "|")
	lines[6] = "========="

	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	return lines
}

// Mask formats a reveal mask as "N _ T _ _ _ K".
func Mask(s hangman.Snapshot) string {
	cells := make([]string, len(s.RevealMask))
	for i, c := range s.RevealMask {
		switch {
		case c != "":
			cells[i] = c
		case s.SecretWord != "":
			cells[i] = s.SecretWord[i : i+1]
		default:
			cells[i] = "_"
		}
	}
	return strings.Join(cells, " ")
}

type segment struct {
	part   hangman.PartID
	points [][2]int
}

// Coordinates follow the 300x300 canvas of the browser version.
var segments = []segment{
	{part: hangman.PartPole, points: [][2]int{{100, 250}, {100, 50}, {200, 50}, {200, 80}}},
	{part: hangman.PartBody, points: [][2]int{{200, 120}, {200, 180}}},
	{part: hangman.PartLeftArm, points: [][2]int{{200, 140}, {170, 160}}},
	{part: hangman.PartRightArm, points: [][2]int{{200, 140}, {230, 160}}},
	{part: hangman.PartLegs, points: [][2]int{{200, 180}, {170, 220}}},
	{part: hangman.PartLegs, points: [][2]int{{200, 180}, {230, 220}}},
}

// SVG renders the figure for the given mistake count.
func SVG(mistakes int) string {
	var b strings.Builder
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="300" height="300" viewBox="0 0 300 300">`)
	b.WriteString(`<g fill="none" stroke="#2C3E50" stroke-width="3">`)

	// base is always drawn
	writePolyline(&b, [][2]int{{50, 250}, {250, 250}})

	for _, seg := range segments {
		if hangman.PartVisible(seg.part, mistakes) {
			writePolyline(&b, seg.points)
		}
	}
	if hangman.PartVisible(hangman.PartHead, mistakes) {
		b.WriteString(`<circle cx="200" cy="100" r="20"/>`)
	}

	b.WriteString(`</g></svg>`)
	return b.String()
}

func writePolyline(b *strings.Builder, pts [][2]int) {
	b.WriteString(`<polyline points="`)
	for i, p := range pts {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(p[0]))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(p[1]))
	}
	b.WriteString(`"/>`)
}
