package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/sakshamg567/hangman/internal/hangman"
	"github.com/sakshamg567/hangman/logger"
)

func TestMain(m *testing.M) {
	logger.EnableLogging(false)
	os.Exit(m.Run())
}

func sampleResults() []Result {
	at := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	return []Result{
		{RoomID: "r1", Round: 1, Word: "CODING", Status: hangman.StatusWon, Mistakes: 2, Guesses: []string{"C", "O", "X", "D", "I", "Q", "N", "G"}, FinishedAt: at},
		{RoomID: "r1", Round: 2, Word: "PYTHON", Status: hangman.StatusLost, Mistakes: 6, Guesses: []string{"X", "Q", "Z", "W", "V", "K"}, FinishedAt: at.Add(time.Minute)},
		{RoomID: "r2", Round: 1, Word: "NETWORK", Status: hangman.StatusWon, Mistakes: 0, Guesses: []string{"N", "E", "T", "W", "O", "R", "K"}, FinishedAt: at.Add(2 * time.Minute)},
	}
}

// exerciseStore runs the shared contract against any Store.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	for _, r := range sampleResults() {
		if err := s.RecordRound(ctx, r); err != nil {
			t.Fatalf("RecordRound: %v", err)
		}
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Played != 3 || st.Won != 2 || st.Lost != 1 {
		t.Errorf("Stats = %+v, want 3 played 2 won 1 lost", st)
	}
	if st.AvgWinMistakes != 1 {
		t.Errorf("AvgWinMistakes = %v, want 1", st.AvgWinMistakes)
	}

	recent, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Recent(2) len = %d", len(recent))
	}
	if recent[0].Word != "NETWORK" || recent[1].Word != "PYTHON" {
		t.Errorf("Recent order = %s, %s; want newest first", recent[0].Word, recent[1].Word)
	}
	if got := strings.Join(recent[1].Guesses, ""); got != "XQZWVK" {
		t.Errorf("guesses = %q", got)
	}
	if recent[1].Status != hangman.StatusLost || recent[1].Mistakes != 6 {
		t.Errorf("recent[1] = %+v", recent[1])
	}
	if !recent[0].FinishedAt.Equal(sampleResults()[2].FinishedAt) {
		t.Errorf("FinishedAt = %v", recent[0].FinishedAt)
	}
}

// exerciseReplay records an already stored round again, as a retry after a
// timed-out commit would, and expects nothing to change.
func exerciseReplay(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if err := s.RecordRound(ctx, sampleResults()[0]); err != nil {
		t.Fatalf("RecordRound replay: %v", err)
	}
	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Played != 3 || st.Won != 2 {
		t.Errorf("Stats after replay = %+v, want 3 played 2 won", st)
	}
	recent, err := s.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 3 {
		t.Errorf("Recent after replay len = %d, want 3", len(recent))
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestMemoryRecentCap(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for i := 0; i < recentCap+20; i++ {
		m.RecordRound(ctx, Result{Round: i, Status: hangman.StatusLost})
	}
	all, _ := m.Recent(ctx, 0)
	if len(all) != recentCap {
		t.Errorf("Recent len = %d, want %d", len(all), recentCap)
	}
	if all[0].Round != recentCap+19 {
		t.Errorf("newest round = %d", all[0].Round)
	}
	st, _ := m.Stats(ctx)
	if st.Played != recentCap+20 {
		t.Errorf("Played = %d, stats must count past the cap", st.Played)
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "data", "hangman.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
	exerciseReplay(t, s)
}

func TestSQLiteStoreEmptyStats(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "empty.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()

	st, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st != (Stats{}) {
		t.Errorf("empty Stats = %+v", st)
	}

	recent, err := s.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if recent == nil || len(recent) != 0 {
		t.Errorf("empty Recent = %#v, want empty non-nil slice", recent)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("HANGMAN_REDIS_ADDR")
	if addr == "" {
		t.Skip("HANGMAN_REDIS_ADDR not set")
	}
	ctx := context.Background()
	s, err := OpenRedis(ctx, addr)
	if err != nil {
		t.Fatalf("OpenRedis: %v", err)
	}
	defer s.Close()

	keys := []interface{}{redisStatsKey, redisRecentKey}
	for _, r := range sampleResults() {
		keys = append(keys, roundKey(r))
	}
	conn := s.pool.Get()
	conn.Do("DEL", keys...)
	conn.Close()

	exerciseStore(t, s)
	exerciseReplay(t, s)
}

type flakyStore struct {
	*Memory
	mu       sync.Mutex
	failures int
	calls    int
}

func (f *flakyStore) RecordRound(ctx context.Context, r Result) error {
	f.mu.Lock()
	f.calls++
	fail := f.calls <= f.failures
	f.mu.Unlock()
	if fail {
		return errors.New("database is locked")
	}
	return f.Memory.RecordRound(ctx, r)
}

func fastRecorder(s Store) *Recorder {
	rec := NewRecorder(s)
	rec.newBackoff = func() backoff.BackOff {
		return backoff.NewConstantBackOff(time.Millisecond)
	}
	return rec
}

func TestRecorderRetries(t *testing.T) {
	fs := &flakyStore{Memory: NewMemory(), failures: 2}
	fastRecorder(fs).Record(sampleResults()[0])

	if fs.calls != 3 {
		t.Errorf("calls = %d, want 3", fs.calls)
	}
	st, _ := fs.Stats(context.Background())
	if st.Played != 1 {
		t.Errorf("Played = %d, want 1", st.Played)
	}
}

func TestRecorderGivesUp(t *testing.T) {
	fs := &flakyStore{Memory: NewMemory(), failures: 100}
	fastRecorder(fs).Record(sampleResults()[0])

	if fs.calls != 4 {
		t.Errorf("calls = %d, want 1 try + 3 retries", fs.calls)
	}
	st, _ := fs.Stats(context.Background())
	if st.Played != 0 {
		t.Errorf("Played = %d, want 0", st.Played)
	}
}

func TestNilRecorder(t *testing.T) {
	var rec *Recorder
	rec.Record(Result{}) // must not panic
}
