package storage

// client_storage.go holds the small key-value store the bridge keeps between
// sessions: UI settings and the default connector id.

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Keys used by the bridge.
const (
	KeySettings           = "settings"
	KeyDefaultConnectorID = "defaultConnectorId"
)

// Settings is the value stored under KeySettings.
type Settings struct {
	ServerPort int `json:"serverPort"`
}

// GetValue decodes the JSON value stored under key into dest. It reports
// false when the key is absent.
func (s *SQLiteStore) GetValue(key string, dest any) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw string
	err := s.db.QueryRow("SELECT value FROM client_storage WHERE key = ?", key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query client storage %q: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("decode client storage %q: %w", key, err)
	}
	return true, nil
}

// SetValue stores value under key as JSON, replacing any previous value.
func (s *SQLiteStore) SetValue(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode client storage %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	const upsert = `
		INSERT INTO client_storage (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.db.Exec(upsert, key, string(data), time.Now().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("save client storage %q: %w", key, err)
	}
	return nil
}

// DeleteValue removes key. Deleting an absent key is not an error.
func (s *SQLiteStore) DeleteValue(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM client_storage WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete client storage %q: %w", key, err)
	}
	return nil
}
