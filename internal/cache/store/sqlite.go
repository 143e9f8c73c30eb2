package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	doc        TEXT PRIMARY KEY,
	symbols    BLOB NOT NULL,
	navigation BLOB NOT NULL,
	saved_at   INTEGER NOT NULL
);`

// SQLiteStore persists records in a single SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and ensures the
// schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set PRAGMA: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(doc string) (Record, error) {
	var symbols, navigation []byte
	var rec Record

	err := s.db.QueryRow(
		"SELECT symbols, navigation, saved_at FROM snapshots WHERE doc = ?",
		doc,
	).Scan(&symbols, &navigation, &rec.SavedAt)
	if err == sql.ErrNoRows {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to query snapshot: %w", err)
	}

	if err := json.Unmarshal(symbols, &rec.Symbols); err != nil {
		return Record{}, fmt.Errorf("corrupt symbol record for %s: %w", doc, err)
	}
	if err := json.Unmarshal(navigation, &rec.Navigation); err != nil {
		return Record{}, fmt.Errorf("corrupt navigation record for %s: %w", doc, err)
	}
	return rec, nil
}

func (s *SQLiteStore) Save(doc string, rec Record) error {
	symbols, err := json.Marshal(rec.Symbols)
	if err != nil {
		return fmt.Errorf("failed to encode symbols: %w", err)
	}
	navigation, err := json.Marshal(rec.Navigation)
	if err != nil {
		return fmt.Errorf("failed to encode navigation: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO snapshots (doc, symbols, navigation, saved_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(doc) DO UPDATE SET symbols = ?, navigation = ?, saved_at = ?`,
		doc, symbols, navigation, rec.SavedAt,
		symbols, navigation, rec.SavedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(doc string) error {
	if _, err := s.db.Exec("DELETE FROM snapshots WHERE doc = ?", doc); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
