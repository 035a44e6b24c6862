package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ttfbridge/host/internal/server"
	"github.com/ttfbridge/host/internal/storage"
)

func runWithArgs(args []string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunUsage(t *testing.T) {
	code, out, _ := runWithArgs([]string{"ttfbridge"})
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(out, "Usage:") {
		t.Fatalf("expected usage output, got %q", out)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	code, out, _ := runWithArgs([]string{"ttfbridge", "nope"})
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(out, "Unknown command") {
		t.Fatalf("expected unknown command output, got %q", out)
	}
}

func TestRunVersion(t *testing.T) {
	code, out, _ := runWithArgs([]string{"ttfbridge", "version"})
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if out != "ttfbridge dev\n" {
		t.Fatalf("unexpected version output %q", out)
	}
}

func TestServeHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := runServe([]string{"--help"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(stderr.String(), "Usage: ttfbridge serve") {
		t.Fatalf("expected serve usage, got %q", stderr.String())
	}
}

func TestServeInvalidFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := runServe([]string{"--port=bad"}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if stderr.Len() == 0 {
		t.Fatal("expected error output for invalid flag")
	}
}

func TestServeRejectsPortOutOfRange(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := runServe([]string{"--port=70000"}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "invalid port") {
		t.Fatalf("expected port error, got %q", stderr.String())
	}
}

func TestServeMissingConfigFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := runServe([]string{"--config", filepath.Join(t.TempDir(), "absent.toml")}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "config file not found") {
		t.Fatalf("expected config error, got %q", stderr.String())
	}
}

func TestSendRequiresCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := runSend(nil, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "Usage: ttfbridge send") {
		t.Fatalf("expected send usage, got %q", stderr.String())
	}
}

func TestSendRejectsInvalidParams(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := runSend([]string{"get_node_info", "{nope"}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "valid JSON") {
		t.Fatalf("expected params error, got %q", stderr.String())
	}
}

func TestCommandsList(t *testing.T) {
	code, out, _ := runWithArgs([]string{"ttfbridge", "commands"})
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 43 {
		t.Fatalf("expected 43 commands, got %d", len(lines))
	}
	if !strings.Contains(out, "delete_multiple_nodes") || !strings.Contains(out, "get_document_info") {
		t.Errorf("missing commands in %q", out)
	}
}

func TestCommandsMutatingJSON(t *testing.T) {
	code, out, _ := runWithArgs([]string{"ttfbridge", "commands", "--mutating", "--json"})
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	var list []struct {
		Name     string `json:"name"`
		Mutating bool   `json:"mutating"`
	}
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(list) == 0 {
		t.Fatal("expected mutating commands")
	}
	for _, c := range list {
		if !c.Mutating {
			t.Errorf("%s listed as read-only", c.Name)
		}
		if c.Name == "get_document_info" {
			t.Error("read command listed with --mutating")
		}
	}
}

func TestAuditListsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.db")
	store, err := storage.NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	adapter := server.NewCommandAuditStoreAdapter(store, 0)
	adapter.WriteCommandAudit(server.CommandAuditEvent{RequestID: "1", Command: "get_selection", At: time.Now()})
	adapter.WriteCommandAudit(server.CommandAuditEvent{RequestID: "2", Command: "move_node", ReadOnly: true, ErrorCode: "access.read_only", ErrorMessage: "denied", At: time.Now()})
	store.Close()

	code, out, errOut := runWithArgs([]string{"ttfbridge", "audit", "--storage", path, "--json"})
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (%s)", code, errOut)
	}
	var items []auditItem
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(items))
	}
	if items[0].Command != "move_node" || items[0].Outcome != storage.OutcomeError {
		t.Errorf("unexpected newest entry %+v", items[0])
	}

	code, out, _ = runWithArgs([]string{"ttfbridge", "audit", "--storage", path, "--command", "get_selection"})
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(out, "get_selection") || strings.Contains(out, "move_node") {
		t.Errorf("filter not applied: %q", out)
	}
}

func TestAuditMissingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.db")
	code, _, errOut := runWithArgs([]string{"ttfbridge", "audit", "--storage", path})
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(errOut, "no bridge database") {
		t.Errorf("unexpected error %q", errOut)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("audit created a database")
	}
}
