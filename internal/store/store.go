package store

import (
	"context"
	"time"

	"github.com/sakshamg567/hangman/internal/hangman"
)

// Result is one finished round.
type Result struct {
	RoomID     string         `json:"roomId"`
	Round      int            `json:"round"`
	Word       string         `json:"word"`
	Status     hangman.Status `json:"status"`
	Mistakes   int            `json:"mistakes"`
	Guesses    []string       `json:"guesses"`
	FinishedAt time.Time      `json:"finishedAt"`
}

// Stats aggregates every recorded round.
type Stats struct {
	Played         int     `json:"played"`
	Won            int     `json:"won"`
	Lost           int     `json:"lost"`
	AvgWinMistakes float64 `json:"avgWinMistakes"`
	winMistakes    int
}

func (s *Stats) add(r Result) {
	s.Played++
	switch r.Status {
	case hangman.StatusWon:
		s.Won++
		s.winMistakes += r.Mistakes
	case hangman.StatusLost:
		s.Lost++
	}
	if s.Won > 0 {
		s.AvgWinMistakes = float64(s.winMistakes) / float64(s.Won)
	}
}

// Store persists finished rounds.
type Store interface {
	RecordRound(ctx context.Context, r Result) error
	Stats(ctx context.Context) (Stats, error)
	Recent(ctx context.Context, limit int) ([]Result, error)
	Close() error
}

// recentCap bounds the recent list kept by the memory and redis stores.
const recentCap = 100
