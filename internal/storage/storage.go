package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/epg-sync/epgctl/internal/shared"
)

const (
	AuthKey     = "auth-storage"
	SyncLogsKey = "syncLogs"
)

// Storage is a synchronous string key-value store.
//
// GetItem returns [shared.ErrKeyMissing] when the key has never been written or was removed.
type Storage interface {
	GetItem(key string) (string, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

// SQLiteStore implements [Storage] over the kv_store table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new [SQLiteStore] with the given database connection.
// The kv_store table must already exist (see [shared.RunMigrations]).
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetItem retrieves the value stored under key.
func (s *SQLiteStore) GetItem(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv_store WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", shared.ErrKeyMissing, key)
	}
	if err != nil {
		return "", fmt.Errorf("%w: failed to read %s: %v", shared.ErrStorage, key, err)
	}
	return value, nil
}

// SetItem inserts or replaces the value stored under key.
func (s *SQLiteStore) SetItem(key, value string) error {
	query := `
		INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	if _, err := s.db.Exec(query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("%w: failed to write %s: %v", shared.ErrStorage, key, err)
	}
	return nil
}

// RemoveItem deletes key. Removing a missing key is not an error.
func (s *SQLiteStore) RemoveItem(key string) error {
	if _, err := s.db.Exec("DELETE FROM kv_store WHERE key = ?", key); err != nil {
		return fmt.Errorf("%w: failed to remove %s: %v", shared.ErrStorage, key, err)
	}
	return nil
}

// Keys lists every stored key in lexical order.
func (s *SQLiteStore) Keys() ([]string, error) {
	rows, err := s.db.Query("SELECT key FROM kv_store ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list keys: %v", shared.ErrStorage, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("%w: failed to scan key: %v", shared.ErrStorage, err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// LoadJSON decodes the JSON value under key into v.
//
// Missing keys surface as [shared.ErrKeyMissing]; undecodable values as [shared.ErrStorage].
func LoadJSON(s Storage, key string, v any) error {
	raw, err := s.GetItem(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: malformed value under %s: %v", shared.ErrStorage, key, err)
	}
	return nil
}

// SaveJSON encodes v as JSON and stores it under key.
func SaveJSON(s Storage, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: failed to encode %s: %v", shared.ErrStorage, key, err)
	}
	return s.SetItem(key, string(data))
}
