package storage

// command_audit.go contains SQLiteStore methods for the command audit log.
// Every executed command is recorded with its outcome for debugging.

import (
	"fmt"
	"log"
	"time"
)

// Audit outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// CommandAuditEntry represents one executed command.
type CommandAuditEntry struct {
	ID           int64
	RequestID    string
	ConnectionID string
	Command      string
	ScopeRootID  string
	ReadOnly     bool
	Outcome      string
	ErrorCode    string
	ErrorMessage string
	Duration     time.Duration
	At           time.Time
}

// SaveAndPruneCommandAudit inserts an audit entry and prunes oldest beyond maxRows in a single tx.
func (s *SQLiteStore) SaveAndPruneCommandAudit(entry *CommandAuditEntry, maxRows int) error {
	if entry == nil {
		return fmt.Errorf("command audit entry cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	readOnly := 0
	if entry.ReadOnly {
		readOnly = 1
	}

	const insertQuery = `
		INSERT INTO command_audit
			(request_id, connection_id, command, scope_root_id, read_only, outcome, error_code, error_message, duration_ms, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.Exec(insertQuery,
		entry.RequestID,
		entry.ConnectionID,
		entry.Command,
		entry.ScopeRootID,
		readOnly,
		entry.Outcome,
		entry.ErrorCode,
		entry.ErrorMessage,
		entry.Duration.Milliseconds(),
		entry.At.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert command audit: %w", err)
	}

	if maxRows > 0 {
		const pruneQuery = `
			DELETE FROM command_audit
			WHERE id NOT IN (SELECT id FROM command_audit ORDER BY id DESC LIMIT ?)
		`
		if _, err := tx.Exec(pruneQuery, maxRows); err != nil {
			return fmt.Errorf("prune command audit: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit command audit: %w", err)
	}

	log.Printf("storage: saved command audit command=%s outcome=%s request_id=%s", entry.Command, entry.Outcome, entry.RequestID)
	return nil
}

// ListCommandAudit returns audit entries newest first. A command filter of
// "" matches every command; limit <= 0 returns everything.
func (s *SQLiteStore) ListCommandAudit(command string, limit int) ([]*CommandAuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, request_id, connection_id, command, scope_root_id, read_only, outcome, error_code, error_message, duration_ms, at
		FROM command_audit
	`
	var args []interface{}
	if command != "" {
		query += " WHERE command = ?"
		args = append(args, command)
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query command audit: %w", err)
	}
	defer rows.Close()

	var entries []*CommandAuditEntry
	for rows.Next() {
		var (
			entry      CommandAuditEntry
			readOnly   int
			durationMS int64
			atStr      string
		)
		err := rows.Scan(
			&entry.ID,
			&entry.RequestID,
			&entry.ConnectionID,
			&entry.Command,
			&entry.ScopeRootID,
			&readOnly,
			&entry.Outcome,
			&entry.ErrorCode,
			&entry.ErrorMessage,
			&durationMS,
			&atStr,
		)
		if err != nil {
			return nil, fmt.Errorf("scan command audit row: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, atStr)
		if err != nil {
			return nil, fmt.Errorf("parse command audit at: %w", err)
		}
		entry.ReadOnly = readOnly != 0
		entry.Duration = time.Duration(durationMS) * time.Millisecond
		entry.At = t
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate command audit rows: %w", err)
	}

	return entries, nil
}

// ProbeCommandAuditWrite verifies audit storage is writable by inserting and
// deleting a row inside one transaction.
func (s *SQLiteStore) ProbeCommandAuditWrite() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO command_audit (command, outcome, at) VALUES (?, ?, ?)`,
		"startup_probe",
		OutcomeOK,
		time.Now().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert probe row: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM command_audit WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete probe row: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit probe: %w", err)
	}
	return nil
}
