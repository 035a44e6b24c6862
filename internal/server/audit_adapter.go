package server

// audit_adapter.go bridges the storage and server packages for the command
// audit log.

import (
	"log"

	"github.com/ttfbridge/host/internal/storage"
)

// CommandAuditStoreAdapter writes command audit events to SQLite.
type CommandAuditStoreAdapter struct {
	store   *storage.SQLiteStore
	maxRows int
}

// NewCommandAuditStoreAdapter creates a durable command audit writer that
// keeps at most maxRows entries. A non-positive maxRows uses the default.
func NewCommandAuditStoreAdapter(store *storage.SQLiteStore, maxRows int) *CommandAuditStoreAdapter {
	if maxRows <= 0 {
		maxRows = defaultAuditMaxRows
	}
	return &CommandAuditStoreAdapter{store: store, maxRows: maxRows}
}

// WriteCommandAudit converts the event and persists it.
func (a *CommandAuditStoreAdapter) WriteCommandAudit(event CommandAuditEvent) error {
	entry := &storage.CommandAuditEntry{
		RequestID:    event.RequestID,
		ConnectionID: event.ConnectionID,
		Command:      event.Command,
		ScopeRootID:  event.ScopeRootID,
		ReadOnly:     event.ReadOnly,
		Outcome:      storage.OutcomeOK,
		ErrorCode:    event.ErrorCode,
		ErrorMessage: event.ErrorMessage,
		Duration:     event.Duration,
		At:           event.At,
	}
	if event.ErrorCode != "" || event.ErrorMessage != "" {
		entry.Outcome = storage.OutcomeError
	}
	if err := a.store.SaveAndPruneCommandAudit(entry, a.maxRows); err != nil {
		log.Printf("command audit: durable write failed: %v", err)
		return err
	}
	return nil
}
