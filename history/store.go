// Package history persists finished transcripts so quick-repeat works
// across restarts and -history can list recent dictations.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrEmpty is returned by Last when nothing has been transcribed yet.
var ErrEmpty = errors.New("history is empty")

type Entry struct {
	ID        string
	Text      string
	App       string // focused application at session start, may be empty
	AudioMs   int64  // captured audio length in milliseconds
	CreatedAt time.Time
}

type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS transcripts (
	id         TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	app        TEXT NOT NULL,
	audio_ms   INTEGER NOT NULL,
	text       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transcripts_created_at ON transcripts(created_at);
`

// DefaultPath is <user config dir>/murmur/history.db.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}
	return filepath.Join(base, "murmur", "history.db"), nil
}

// Open creates or opens the store at path, creating the directory and
// schema as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Add records one finished transcript and returns the stored entry.
func (s *Store) Add(ctx context.Context, text, app string, audio time.Duration) (Entry, error) {
	e := Entry{
		ID:        uuid.NewString(),
		Text:      text,
		App:       app,
		AudioMs:   audio.Milliseconds(),
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transcripts (id, created_at, app, audio_ms, text) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.CreatedAt.Format(time.RFC3339Nano), e.App, e.AudioMs, e.Text)
	if err != nil {
		return Entry{}, fmt.Errorf("storing transcript: %w", err)
	}
	return e, nil
}

// Last returns the most recent transcript, or ErrEmpty.
func (s *Store) Last(ctx context.Context) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, app, audio_ms, text FROM transcripts
		 ORDER BY created_at DESC, rowid DESC LIMIT 1`)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrEmpty
	}
	return e, err
}

// Recent returns up to n transcripts, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, app, audio_ms, text FROM transcripts
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var e Entry
	var created string
	if err := row.Scan(&e.ID, &created, &e.App, &e.AudioMs, &e.Text); err != nil {
		return Entry{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing created_at %q: %w", created, err)
	}
	e.CreatedAt = t
	return e, nil
}
