package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}
	return path
}

// TestLoad_AllFields verifies that all config fields are parsed correctly from TOML.
func TestLoad_AllFields(t *testing.T) {
	path := writeConfig(t, `
addr = "0.0.0.0:4000"
server_port = 4000
storage_path = "/tmp/bridge.db"
log_file = "/tmp/bridge.log"
mdns_enabled = true
mdns_name = "studio"
auto_connect = true
document = "/tmp/doc.json"
batch_chunk_size = 8
batch_pause_ms = 250
scan_chunk_size = 20
scan_item_delay_ms = 1
scan_chunk_pause_ms = 10
inbound_rate = 12.5
inbound_burst = 30
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Addr != "0.0.0.0:4000" {
		t.Errorf("Addr = %q, want %q", cfg.Addr, "0.0.0.0:4000")
	}
	if cfg.ServerPort != 4000 {
		t.Errorf("ServerPort = %d, want 4000", cfg.ServerPort)
	}
	if cfg.StoragePath != "/tmp/bridge.db" {
		t.Errorf("StoragePath = %q", cfg.StoragePath)
	}
	if cfg.LogFile != "/tmp/bridge.log" {
		t.Errorf("LogFile = %q", cfg.LogFile)
	}
	if !cfg.MdnsEnabled {
		t.Error("MdnsEnabled = false, want true")
	}
	if cfg.MdnsName != "studio" {
		t.Errorf("MdnsName = %q", cfg.MdnsName)
	}
	if !cfg.AutoConnect {
		t.Error("AutoConnect = false, want true")
	}
	if cfg.Document != "/tmp/doc.json" {
		t.Errorf("Document = %q", cfg.Document)
	}
	if cfg.BatchChunkSize != 8 || cfg.BatchPauseMs != 250 {
		t.Errorf("batch = %d/%d, want 8/250", cfg.BatchChunkSize, cfg.BatchPauseMs)
	}
	if cfg.ScanChunkSize != 20 || cfg.ScanItemDelayMs != 1 || cfg.ScanChunkPauseMs != 10 {
		t.Errorf("scan = %d/%d/%d", cfg.ScanChunkSize, cfg.ScanItemDelayMs, cfg.ScanChunkPauseMs)
	}
	if cfg.InboundRate != 12.5 || cfg.InboundBurst != 30 {
		t.Errorf("inbound = %v/%d", cfg.InboundRate, cfg.InboundBurst)
	}
}

// TestLoad_ExplicitMissing verifies an explicit path must exist.
func TestLoad_ExplicitMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.toml")
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for missing explicit config")
	}
	if !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestLoad_DefaultMissing verifies a missing default file is not an error.
func TestLoad_DefaultMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if cfg.Addr != "" || cfg.ServerPort != 0 {
		t.Errorf("expected empty config, got %+v", cfg)
	}
}

// TestLoad_DefaultPresent verifies the default location is read when present.
func TestLoad_DefaultPresent(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".ttfbridge")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`server_port = 5055`), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.ServerPort != 5055 {
		t.Errorf("ServerPort = %d, want 5055", cfg.ServerPort)
	}
}

func TestLoad_ParseError(t *testing.T) {
	path := writeConfig(t, `addr = `)
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_RejectsNegative(t *testing.T) {
	path := writeConfig(t, `batch_chunk_size = -1`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "batch_chunk_size") {
		t.Errorf("error does not name the field: %v", err)
	}
}

func TestValidate_PortRange(t *testing.T) {
	cfg := &Config{ServerPort: 70000}
	if err := cfg.Validate(); err == nil {
		t.Error("expected out-of-range port error")
	}
}

func TestApplyDefaults(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	cfg := &Config{}
	cfg.ApplyDefaults()

	if cfg.ServerPort != DefaultServerPort {
		t.Errorf("ServerPort = %d", cfg.ServerPort)
	}
	if cfg.Addr != "127.0.0.1:3055" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.StoragePath != filepath.Join("/home/tester", ".ttfbridge", "ttfbridge.db") {
		t.Errorf("StoragePath = %q", cfg.StoragePath)
	}
	if cfg.BatchPause() != time.Second {
		t.Errorf("BatchPause = %v", cfg.BatchPause())
	}
	if cfg.ScanItemDelay() != 5*time.Millisecond || cfg.ScanChunkPause() != 50*time.Millisecond {
		t.Errorf("scan timings = %v/%v", cfg.ScanItemDelay(), cfg.ScanChunkPause())
	}
	if cfg.BatchChunkSize != 5 || cfg.ScanChunkSize != 10 {
		t.Errorf("chunk sizes = %d/%d", cfg.BatchChunkSize, cfg.ScanChunkSize)
	}
	if cfg.InboundRate != DefaultInboundRate || cfg.InboundBurst != DefaultInboundBurst {
		t.Errorf("inbound = %v/%d", cfg.InboundRate, cfg.InboundBurst)
	}
}

// TestApplyDefaults_KeepsExplicit verifies explicit values win and the
// default addr follows a custom server port.
func TestApplyDefaults_KeepsExplicit(t *testing.T) {
	cfg := &Config{ServerPort: 4100, BatchChunkSize: 3}
	cfg.ApplyDefaults()
	if cfg.Addr != "127.0.0.1:4100" {
		t.Errorf("Addr = %q, want 127.0.0.1:4100", cfg.Addr)
	}
	if cfg.BatchChunkSize != 3 {
		t.Errorf("BatchChunkSize = %d, want 3", cfg.BatchChunkSize)
	}
}
