package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ttfbridge/host/internal/document/memdoc"
	"github.com/ttfbridge/host/internal/mdns"
	"github.com/ttfbridge/host/internal/server"
)

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{45, "45s"},
		{323, "5m 23s"},
		{8100, "2h 15m"},
		{273600, "3d 4h"},
	}
	for _, tt := range tests {
		if got := formatUptime(tt.seconds); got != tt.want {
			t.Errorf("formatUptime(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestRunStatusAgainstBridge(t *testing.T) {
	srv := server.NewServer("127.0.0.1:3055", memdoc.New(memdoc.Options{}))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	addr := strings.TrimPrefix(ts.URL, "http://")

	var stdout, stderr bytes.Buffer
	code := runStatus([]string{"--addr", addr}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (%s)", code, stderr.String())
	}
	out := stdout.String()
	if !strings.Contains(out, "Listening:    127.0.0.1:3055") || !strings.Contains(out, "Commands:     43") {
		t.Errorf("unexpected output %q", out)
	}

	stdout.Reset()
	if code := runStatus([]string{"--addr", addr, "--json"}, &stdout, &stderr); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	var status server.StatusResponse
	if err := json.Unmarshal(stdout.Bytes(), &status); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if status.Commands != 43 {
		t.Errorf("expected 43 commands, got %d", status.Commands)
	}
}

func TestRunStatusUnreachable(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := runStatus([]string{"--addr", "127.0.0.1:1"}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "not running") {
		t.Errorf("unexpected error %q", stderr.String())
	}
}

func TestResolveAddrCandidates(t *testing.T) {
	var stderr bytes.Buffer
	got := resolveAddrCandidates("", 4000, false, &stderr)
	if len(got) != 2 || got[0] != "127.0.0.1:4000" || got[1] != "[::1]:4000" {
		t.Errorf("unexpected candidates %v", got)
	}

	got = resolveAddrCandidates("10.0.0.2:5000", 4000, true, &stderr)
	if len(got) != 1 || got[0] != "10.0.0.2:5000" {
		t.Errorf("unexpected candidates %v", got)
	}
	if !strings.Contains(stderr.String(), "--addr overrides --port") {
		t.Errorf("expected override warning, got %q", stderr.String())
	}
}

func TestRunDiscover(t *testing.T) {
	orig := discoverBridges
	t.Cleanup(func() { discoverBridges = orig })
	discoverBridges = func(ctx context.Context) ([]mdns.DiscoveredBridge, error) {
		return []mdns.DiscoveredBridge{{Name: "studio", Host: "192.168.1.5", Port: 3055, Version: "1"}}, nil
	}

	var stdout, stderr bytes.Buffer
	if code := runDiscover([]string{"--json"}, &stdout, &stderr); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	var items []discoveredItem
	if err := json.Unmarshal(stdout.Bytes(), &items); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(items) != 1 || items[0].URL != "ws://192.168.1.5:3055/ws" {
		t.Errorf("unexpected items %+v", items)
	}

	discoverBridges = func(ctx context.Context) ([]mdns.DiscoveredBridge, error) { return nil, nil }
	stdout.Reset()
	runDiscover(nil, &stdout, &stderr)
	if !strings.Contains(stdout.String(), "No bridges found.") {
		t.Errorf("unexpected output %q", stdout.String())
	}
}
