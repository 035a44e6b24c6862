package main

// audit.go implements `ttfbridge audit`, a reader for the command audit log.

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ttfbridge/host/internal/config"
	"github.com/ttfbridge/host/internal/storage"
)

// auditItem is the JSON form of one audit entry.
type auditItem struct {
	RequestID    string `json:"request_id"`
	ConnectionID string `json:"connection_id"`
	Command      string `json:"command"`
	ScopeRootID  string `json:"scope_root_id,omitempty"`
	ReadOnly     bool   `json:"read_only"`
	Outcome      string `json:"outcome"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	DurationMs   int64  `json:"duration_ms"`
	At           string `json:"at"`
}

func runAudit(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("audit", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "Path to config file (default: ~/.ttfbridge/config.toml)")
	storagePath := fs.String("storage", "", "Path to the bridge database (default: from config)")
	command := fs.String("command", "", "Only show entries for this command")
	limit := fs.Int("limit", 20, "Maximum number of entries")
	jsonOutput := fs.Bool("json", false, "Output in JSON format")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: ttfbridge audit [options]\n\nShow recently executed commands, newest first.\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	path := *storagePath
	if path == "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		cfg.ApplyDefaults()
		path = cfg.StoragePath
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(stderr, "Error: no bridge database at %s\n", path)
		return 1
	}

	store, err := storage.NewSQLiteStore(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer store.Close()

	entries, err := store.ListCommandAudit(*command, *limit)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if *jsonOutput {
		items := make([]auditItem, 0, len(entries))
		for _, e := range entries {
			items = append(items, auditItem{
				RequestID:    e.RequestID,
				ConnectionID: e.ConnectionID,
				Command:      e.Command,
				ScopeRootID:  e.ScopeRootID,
				ReadOnly:     e.ReadOnly,
				Outcome:      e.Outcome,
				ErrorCode:    e.ErrorCode,
				ErrorMessage: e.ErrorMessage,
				DurationMs:   e.Duration.Milliseconds(),
				At:           e.At.UTC().Format(time.RFC3339),
			})
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		enc.Encode(items)
		return 0
	}

	if len(entries) == 0 {
		fmt.Fprintln(stdout, "No commands recorded.")
		return 0
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s  %-28s %-5s %6dms", e.At.Local().Format("2006-01-02 15:04:05"), e.Command, e.Outcome, e.Duration.Milliseconds())
		if e.ErrorMessage != "" {
			line += "  " + e.ErrorMessage
		}
		fmt.Fprintln(stdout, line)
	}
	return 0
}
