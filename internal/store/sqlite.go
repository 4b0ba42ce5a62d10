package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sakshamg567/hangman/internal/hangman"
	"github.com/sakshamg567/hangman/logger"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS rounds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		room_id TEXT NOT NULL,
		round INTEGER NOT NULL,
		word TEXT NOT NULL,
		status TEXT NOT NULL,
		mistakes INTEGER NOT NULL,
		guesses TEXT NOT NULL DEFAULT '',
		finished_at INTEGER NOT NULL
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_rounds_room_round ON rounds(room_id, round);`,
	`CREATE INDEX IF NOT EXISTS idx_rounds_status ON rounds(status);`,
	`CREATE INDEX IF NOT EXISTS idx_rounds_finished ON rounds(finished_at);`,
}

// SQLite stores results in a local database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies
// the schema.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// one writer keeps sqlite from returning SQLITE_BUSY under load
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		logger.Warn("sqlite: couldn't enable WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		logger.Warn("sqlite: couldn't set busy timeout: %v", err)
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	logger.Info("sqlite store ready at %s", path)
	return &SQLite{db: db}, nil
}

// RecordRound is keyed on (room_id, round); recording the same round again
// is a no-op.
func (s *SQLite) RecordRound(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO rounds (room_id, round, word, status, mistakes, guesses, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.RoomID, r.Round, r.Word, string(r.Status), r.Mistakes, strings.Join(r.Guesses, ""), r.FinishedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert round: %w", err)
	}
	return nil
}

func (s *SQLite) Stats(ctx context.Context) (Stats, error) {
	var (
		st  Stats
		avg sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			AVG(CASE WHEN status = ? THEN mistakes END)
		FROM rounds`,
		string(hangman.StatusWon), string(hangman.StatusLost), string(hangman.StatusWon),
	).Scan(&st.Played, &st.Won, &st.Lost, &avg)
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	st.AvgWinMistakes = avg.Float64
	return st, nil
}

// Recent returns up to limit results, newest first.
func (s *SQLite) Recent(ctx context.Context, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = recentCap
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT room_id, round, word, status, mistakes, guesses, finished_at
		FROM rounds
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	out := []Result{}
	for rows.Next() {
		var (
			r       Result
			status  string
			guesses string
			at      int64
		)
		if err := rows.Scan(&r.RoomID, &r.Round, &r.Word, &status, &r.Mistakes, &guesses, &at); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		r.Status = hangman.Status(status)
		r.Guesses = splitLetters(guesses)
		r.FinishedAt = time.UnixMilli(at).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func splitLetters(s string) []string {
	out := make([]string, 0, len(s))
	for i := 0; i < len(s); i++ {
		out = append(out, s[i:i+1])
	}
	return out
}
