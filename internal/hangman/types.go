package hangman

const (
	// MaxMistakes is the number of wrong guesses that ends a round.
	MaxMistakes = 6

	// Alphabet is the full guess domain.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Status is the derived state of a round.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusWon        Status = "won"
	StatusLost       Status = "lost"
)

// Over reports whether the round has reached a terminal state.
func (s Status) Over() bool {
	return s == StatusWon || s == StatusLost
}

// Outcome describes what the last call to Guess did.
type Outcome string

const (
	OutcomeNone      Outcome = ""
	OutcomeHit       Outcome = "hit"
	OutcomeMiss      Outcome = "miss"
	OutcomeRepeat    Outcome = "repeat"
	OutcomeInvalid   Outcome = "invalid"
	OutcomeRoundOver Outcome = "round_over"
)

// Changed reports whether the outcome mutated the round.
func (o Outcome) Changed() bool {
	return o == OutcomeHit || o == OutcomeMiss
}

// Snapshot is a read-only projection of the active round.
type Snapshot struct {
	Round       int      `json:"round"`
	RevealMask  []string `json:"revealMask"` // "" marks an unguessed position
	Guessed     []string `json:"guessed"`
	Mistakes    int      `json:"mistakes"`
	MaxMistakes int      `json:"maxMistakes"`
	Remaining   int      `json:"remaining"`
	Status      Status   `json:"status"`
	SecretWord  string   `json:"secretWord,omitempty"` // only set once lost
	LastOutcome Outcome  `json:"lastOutcome,omitempty"`
	LastLetter  string   `json:"lastLetter,omitempty"`
	Message     string   `json:"message,omitempty"`
}

// HasGuessed reports whether letter is in the snapshot's guessed set.
func (s Snapshot) HasGuessed(letter string) bool {
	for _, g := range s.Guessed {
		if g == letter {
			return true
		}
	}
	return false
}
