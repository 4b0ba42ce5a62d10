package hangman

import "fmt"

// feedback builds the one-line message shown under the board.
func feedback(s Snapshot, word string) string {
	switch s.Status {
	case StatusWon:
		return "Congratulations! You won!"
	case StatusLost:
		return "Game Over! The word was: " + word
	}
	switch s.LastOutcome {
	case OutcomeHit:
		return fmt.Sprintf("Good! '%s' is in the word!", s.LastLetter)
	case OutcomeMiss:
		return fmt.Sprintf("'%s' is not in the word", s.LastLetter)
	}
	return ""
}
