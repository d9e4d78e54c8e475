package session

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"resumetracker/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS storage (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);`

// SQLiteStore persists the session in a key/value table
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("session database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run session migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get() (types.AuthSession, error) {
	rows, err := s.db.Query(`SELECT key, value FROM storage WHERE key IN (?, ?)`, KeyAuthToken, KeyUserData)
	if err != nil {
		return types.AuthSession{}, fmt.Errorf("failed to query session: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string, 2)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return types.AuthSession{}, fmt.Errorf("failed to scan session row: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return types.AuthSession{}, fmt.Errorf("failed to read session rows: %w", err)
	}

	return decode(values)
}

// Set writes token and user data in one transaction
func (s *SQLiteStore) Set(session types.AuthSession) error {
	values, err := encode(session)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, key := range []string{KeyAuthToken, KeyUserData} {
		if _, err := tx.Exec(`
			INSERT INTO storage (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
			key, values[key]); err != nil {
			return fmt.Errorf("failed to store %s: %w", key, err)
		}
	}

	return tx.Commit()
}

// Clear deletes token and user data in one statement
func (s *SQLiteStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM storage WHERE key IN (?, ?)`, KeyAuthToken, KeyUserData); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
