package ports

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteKeyValueStore is a single-file transactional KeyValueStore backed
// by a `kv(key TEXT PRIMARY KEY, value BLOB, updated_at INTEGER)` table,
// for deployments that prefer one database file over many loose JSON
// files.
type SQLiteKeyValueStore struct {
	db *sql.DB
}

// NewSQLiteKeyValueStore opens (creating if necessary) a SQLite database
// at path and ensures the kv table exists.
func NewSQLiteKeyValueStore(path string) (*SQLiteKeyValueStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ports: cannot open sqlite store: %w", err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite serializes writers per connection

	const schema = `CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ports: cannot create kv table: %w", err)
	}

	return &SQLiteKeyValueStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteKeyValueStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteKeyValueStore) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ports: sqlite get %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteKeyValueStore) Set(key string, value []byte) error {
	const upsert = `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, strftime('%s','now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	if _, err := s.db.Exec(upsert, key, value); err != nil {
		return fmt.Errorf("ports: sqlite set %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteKeyValueStore) Remove(key string) error {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("ports: sqlite remove %q: %w", key, err)
	}
	return nil
}
