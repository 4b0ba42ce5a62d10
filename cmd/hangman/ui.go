package main

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/sakshamg567/hangman/internal/hangman"
	"github.com/sakshamg567/hangman/internal/render"
)

const (
	keysPerRow = 13
	keyWidth   = 4
	keyLeft    = 2

	rowTitle    = 0
	rowFigure   = 2
	rowMask     = 10
	rowMistakes = 12
	rowKeys     = 14
	rowMessage  = 17
	rowBanner   = 18
	rowHelp     = 20
)

var (
	styleText    = tcell.StyleDefault
	styleTitle   = tcell.StyleDefault.Bold(true).Foreground(tcell.ColorTeal)
	styleKey     = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleUsedHit = tcell.StyleDefault.Foreground(tcell.ColorGreen).Dim(true)
	styleUsedMis = tcell.StyleDefault.Foreground(tcell.ColorRed).Dim(true)
	styleWon     = tcell.StyleDefault.Bold(true).Foreground(tcell.ColorGreen)
	styleLost    = tcell.StyleDefault.Bold(true).Foreground(tcell.ColorRed)
	styleHelp    = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

type app struct {
	screen tcell.Screen
	engine *hangman.Engine
	snap   hangman.Snapshot
	note   string

	shotDir string
	now     func() time.Time
}

func newApp(s tcell.Screen, e *hangman.Engine) *app {
	return &app{
		screen:  s,
		engine:  e,
		snap:    e.Snapshot(),
		shotDir: "screenshots",
		now:     time.Now,
	}
}

func (a *app) run() error {
	for {
		a.draw()
		ev := a.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if a.handle(ev) {
			return nil
		}
	}
}

// handle applies one terminal event and reports whether to quit.
func (a *app) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		a.screen.Sync()

	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return true
		case tcell.KeyEnter:
			if a.snap.Status.Over() {
				a.snap = a.engine.NewRound()
				a.note = ""
			}
		case tcell.KeyF12:
			if path, err := a.screenshot(); err != nil {
				a.note = "Screenshot failed: " + err.Error()
			} else {
				a.note = "Screenshot saved: " + path
			}
		case tcell.KeyRune:
			a.guess(string(ev.Rune()))
		}

	case *tcell.EventMouse:
		if ev.Buttons()&tcell.Button1 == 0 {
			break
		}
		if l, ok := keyAt(ev.Position()); ok {
			a.guess(string(l))
		}
	}
	return false
}

func (a *app) guess(input string) {
	a.snap = a.engine.Guess(input)
	switch a.snap.LastOutcome {
	case hangman.OutcomeRepeat:
		a.note = fmt.Sprintf("You already guessed '%s'", a.snap.LastLetter)
	case hangman.OutcomeRoundOver:
		a.note = "Press Enter for a new round"
	default:
		a.note = ""
	}
}

// keyPos returns the screen cell of the on-screen key for letter.
func keyPos(letter byte) (x, y int) {
	i := int(letter - 'A')
	return keyLeft + (i%keysPerRow)*keyWidth, rowKeys + i/keysPerRow
}

// keyAt maps a screen cell back to the on-screen key under it.
func keyAt(x, y int) (byte, bool) {
	if y < rowKeys || y >= rowKeys+2 || x < keyLeft {
		return 0, false
	}
	col := (x - keyLeft) / keyWidth
	if col >= keysPerRow || (x-keyLeft)%keyWidth == keyWidth-1 {
		return 0, false
	}
	i := (y-rowKeys)*keysPerRow + col
	return hangman.Alphabet[i], true
}

func (a *app) draw() {
	s := a.screen
	s.Clear()

	puts(s, keyLeft, rowTitle, styleTitle, "H A N G M A N")
	puts(s, keyLeft+20, rowTitle, styleHelp, fmt.Sprintf("round %d", a.snap.Round))

	for i, line := range render.ASCII(a.snap.Mistakes) {
		puts(s, keyLeft, rowFigure+i, styleText, line)
	}

	puts(s, keyLeft, rowMask, styleTitle, render.Mask(a.snap))
	puts(s, keyLeft, rowMistakes, styleText,
		fmt.Sprintf("Mistakes: %d/%d", a.snap.Mistakes, a.snap.MaxMistakes))

	for i := 0; i < len(hangman.Alphabet); i++ {
		l := hangman.Alphabet[i]
		x, y := keyPos(l)
		st := styleKey
		if a.snap.HasGuessed(string(l)) {
			st = styleUsedMis
			if a.revealed(l) {
				st = styleUsedHit
			}
		}
		puts(s, x, y, st, "["+string(l)+"]")
	}

	msg := a.snap.Message
	if a.note != "" {
		msg = a.note
	}
	switch a.snap.Status {
	case hangman.StatusWon:
		puts(s, keyLeft, rowBanner, styleWon, msg)
		puts(s, keyLeft, rowBanner+1, styleHelp, "Press Enter to play again")
	case hangman.StatusLost:
		puts(s, keyLeft, rowBanner, styleLost, msg)
		puts(s, keyLeft, rowBanner+1, styleHelp, "Press Enter to play again")
	default:
		puts(s, keyLeft, rowMessage, styleText, msg)
	}

	puts(s, keyLeft, rowHelp+1, styleHelp, "type or click letters to guess, F12 saves a screenshot, Esc quits")
	s.Show()
}

func (a *app) revealed(l byte) bool {
	for _, c := range a.snap.RevealMask {
		if c == string(l) {
			return true
		}
	}
	return a.snap.SecretWord != "" && containsByte(a.snap.SecretWord, l)
}

func containsByte(s string, b byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return true
		}
	}
	return false
}

func puts(s tcell.Screen, x, y int, st tcell.Style, text string) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, st)
		x++
	}
}
