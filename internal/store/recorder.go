package store

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/sakshamg567/hangman/logger"
)

// Recorder writes results to a Store, retrying transient failures.
type Recorder struct {
	store      Store
	timeout    time.Duration
	maxRetries uint64
	newBackoff func() backoff.BackOff
}

// NewRecorder wraps s with the default retry policy: up to 3 retries with
// exponential backoff, the whole attempt bounded by 5s.
func NewRecorder(s Store) *Recorder {
	return &Recorder{
		store:      s,
		timeout:    5 * time.Second,
		maxRetries: 3,
		newBackoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 100 * time.Millisecond
			b.MaxInterval = time.Second
			return b
		},
	}
}

// Record stores r. Failures are logged and dropped.
func (rec *Recorder) Record(r Result) {
	if rec == nil || rec.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), rec.timeout)
	defer cancel()

	policy := backoff.WithContext(backoff.WithMaxRetries(rec.newBackoff(), rec.maxRetries), ctx)
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		return rec.store.RecordRound(ctx, r)
	}, policy)
	if err != nil {
		logger.Error("record round room=%s round=%d failed after %d attempt(s): %v", r.RoomID, r.Round, attempt, err)
		return
	}
	logger.Debug("recorded round room=%s round=%d status=%s", r.RoomID, r.Round, r.Status)
}
