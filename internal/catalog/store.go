// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog records the converted files the service keeps available
// for download, so they can be looked up by name and pruned by age.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned by Lookup for unknown names.
var ErrNotFound = errors.New("download not found")

// Entry is one downloadable file.
type Entry struct {
	Name      string    `json:"name" yaml:"name"`
	Path      string    `json:"path" yaml:"path"`
	Format    string    `json:"format" yaml:"format"`
	Size      int64     `json:"size" yaml:"size"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Store manages the catalog SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens or creates the catalog database at path, creating its
// directory and schema when missing.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS downloads (
			name TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			format TEXT NOT NULL,
			size INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_downloads_created_at ON downloads(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record adds or replaces e. A zero CreatedAt is set to now and a zero Size
// is read from the file.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.Name == "" {
		return errors.New("recording download: empty name")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	if e.Size == 0 {
		if st, err := os.Stat(e.Path); err == nil {
			e.Size = st.Size()
		}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO downloads (name, path, format, size, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.Name, e.Path, e.Format, e.Size, e.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("recording download %s: %w", e.Name, err)
	}
	return nil
}

// Lookup returns the entry named name, or ErrNotFound.
func (s *Store) Lookup(ctx context.Context, name string) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT name, path, format, size, created_at FROM downloads WHERE name = ?`, name)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("looking up download %s: %w", name, err)
	}
	return e, nil
}

// List returns all entries, newest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	return s.query(ctx,
		`SELECT name, path, format, size, created_at FROM downloads ORDER BY created_at DESC, name`)
}

// Prune deletes entries created before the cutoff together with their
// files, and returns how many entries were removed. Files already gone
// are not an error.
func (s *Store) Prune(ctx context.Context, before time.Time) (int, error) {
	old, err := s.query(ctx,
		`SELECT name, path, format, size, created_at FROM downloads WHERE created_at < ? ORDER BY created_at`,
		before.UnixNano())
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range old {
		if err := os.Remove(e.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, fmt.Errorf("removing %s: %w", e.Path, err)
		}
		if _, err := s.db.ExecContext(ctx, `DELETE FROM downloads WHERE name = ?`, e.Name); err != nil {
			return removed, fmt.Errorf("deleting download %s: %w", e.Name, err)
		}
		removed++
	}
	return removed, nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying downloads: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning download: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (Entry, error) {
	var e Entry
	var created int64
	if err := sc.Scan(&e.Name, &e.Path, &e.Format, &e.Size, &created); err != nil {
		return Entry{}, err
	}
	e.CreatedAt = time.Unix(0, created)
	return e, nil
}
