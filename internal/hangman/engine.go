package hangman

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"
)

// IndexSource picks a word index in [0, n). *rand.Rand satisfies it.
type IndexSource interface {
	Intn(n int) int
}

// Engine enforces the hangman rules for one round at a time.
//
// Engine is not safe for concurrent use; whoever owns it must serialize
// calls (the room hub does this with its mutex).
type Engine struct {
	bank WordBank
	src  IndexSource

	round    int
	word     string
	guessed  [26]bool
	order    []byte
	mistakes int
	status   Status

	lastOutcome Outcome
	lastLetter  byte
}

// New builds an engine and starts its first round. A nil src uses a
// time-seeded math/rand source; an empty bank falls back to the built-in one.
func New(bank WordBank, src IndexSource) *Engine {
	if bank.Len() == 0 {
		bank = DefaultWordBank()
	}
	if src == nil {
		src = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	e := &Engine{bank: bank, src: src}
	e.NewRound()
	return e
}

// NewRound discards the active round and starts a fresh one.
func (e *Engine) NewRound() Snapshot {
	n := e.bank.Len()
	i := e.src.Intn(n)
	if i < 0 || i >= n {
		i = ((i % n) + n) % n
	}

	e.round++
	e.word = e.bank.At(i)
	e.guessed = [26]bool{}
	e.order = e.order[:0]
	e.mistakes = 0
	e.status = StatusInProgress
	e.lastOutcome = OutcomeNone
	e.lastLetter = 0
	return e.Snapshot()
}

// Guess applies one letter. Malformed input, repeats and guesses after the
// round has ended are ignored; the returned snapshot says which via
// LastOutcome.
func (e *Engine) Guess(input string) Snapshot {
	letter, ok := normalize(input)
	switch {
	case !ok:
		e.lastOutcome, e.lastLetter = OutcomeInvalid, 0
	case e.status != StatusInProgress:
		e.lastOutcome, e.lastLetter = OutcomeRoundOver, letter
	case e.guessed[letter-'A']:
		e.lastOutcome, e.lastLetter = OutcomeRepeat, letter
	default:
		e.apply(letter)
	}
	return e.Snapshot()
}

func (e *Engine) apply(letter byte) {
	e.guessed[letter-'A'] = true
	e.order = append(e.order, letter)
	e.lastLetter = letter

	if strings.IndexByte(e.word, letter) < 0 {
		e.mistakes++
		e.lastOutcome = OutcomeMiss
	} else {
		e.lastOutcome = OutcomeHit
	}

	// Mistakes only grow on absent letters, so a single guess can never
	// satisfy both conditions; won is checked first regardless.
	switch {
	case e.solved():
		e.status = StatusWon
	case e.mistakes >= MaxMistakes:
		e.status = StatusLost
	}
}

func (e *Engine) solved() bool {
	for i := 0; i < len(e.word); i++ {
		if !e.guessed[e.word[i]-'A'] {
			return false
		}
	}
	return true
}

// Snapshot returns the current round state. It never mutates the engine.
func (e *Engine) Snapshot() Snapshot {
	mask := make([]string, len(e.word))
	for i := 0; i < len(e.word); i++ {
		if e.guessed[e.word[i]-'A'] {
			mask[i] = e.word[i : i+1]
		}
	}

	guessed := make([]string, 0, len(e.order))
	for _, l := range e.order {
		guessed = append(guessed, string(l))
	}
	sort.Strings(guessed)

	s := Snapshot{
		Round:       e.round,
		RevealMask:  mask,
		Guessed:     guessed,
		Mistakes:    e.mistakes,
		MaxMistakes: MaxMistakes,
		Remaining:   MaxMistakes - e.mistakes,
		Status:      e.status,
		LastOutcome: e.lastOutcome,
	}
	if e.lastLetter != 0 {
		s.LastLetter = string(e.lastLetter)
	}
	if e.status == StatusLost {
		s.SecretWord = e.word
	}
	s.Message = feedback(s, e.word)
	return s
}

// History returns guessed letters in the order they were played.
func (e *Engine) History() []string {
	out := make([]string, len(e.order))
	for i, l := range e.order {
		out[i] = string(l)
	}
	return out
}

// Word returns the secret word of the active round. Presentation layers
// should rely on Snapshot.SecretWord; this exists for result recording.
func (e *Engine) Word() string { return e.word }

func (e *Engine) String() string {
	return fmt.Sprintf("round %d %s (%d/%d mistakes)", e.round, e.status, e.mistakes, MaxMistakes)
}

// normalize accepts exactly one ASCII letter, ignoring surrounding
// whitespace, and returns it upper-cased.
func normalize(input string) (byte, bool) {
	s := strings.TrimSpace(input)
	if len(s) != 1 {
		return 0, false
	}
	c := s[0]
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	if c < 'A' || c > 'Z' {
		return 0, false
	}
	return c, true
}
