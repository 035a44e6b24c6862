// Package config provides TOML configuration file loading and parsing for the bridge.
// The configuration file lives at ~/.ttfbridge/config.toml by default, but can be
// overridden with the --config flag. CLI flags always take precedence over file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the bridge configuration file structure.
// Field names use Go camelCase internally but map to snake_case in TOML files
// via struct tags.
type Config struct {
	// Addr is the host:port for the WebSocket server.
	// Default: 127.0.0.1:3055
	Addr string `toml:"addr"`

	// ServerPort is the port reported to the UI in the session context.
	// Default: 3055
	ServerPort int `toml:"server_port"`

	// StoragePath is the SQLite database holding client storage and the
	// command audit log.
	// Default: ~/.ttfbridge/ttfbridge.db
	StoragePath string `toml:"storage_path"`

	// LogFile redirects log output to a file when set.
	LogFile string `toml:"log_file"`

	// MdnsEnabled advertises the bridge on the local network.
	// Default: false
	MdnsEnabled bool `toml:"mdns_enabled"`

	// MdnsName is the advertised instance name. Defaults to the hostname.
	MdnsName string `toml:"mdns_name"`

	// AutoConnect sends an auto-connect message to every new client.
	// Default: false
	AutoConnect bool `toml:"auto_connect"`

	// Document is a JSON snapshot loaded into the in-memory document at startup.
	// If empty, the bridge starts with a blank page.
	Document string `toml:"document"`

	// BatchChunkSize is the chunk size for delete and text replacement batches.
	// Default: 5
	BatchChunkSize int `toml:"batch_chunk_size"`

	// BatchPauseMs is the pause between delete chunks in milliseconds.
	// Default: 1000
	BatchPauseMs int `toml:"batch_pause_ms"`

	// ScanChunkSize is the chunk size for text scans.
	// Default: 10
	ScanChunkSize int `toml:"scan_chunk_size"`

	// ScanItemDelayMs spaces items within a scan chunk.
	// Default: 5
	ScanItemDelayMs int `toml:"scan_item_delay_ms"`

	// ScanChunkPauseMs is the pause between scan chunks.
	// Default: 50
	ScanChunkPauseMs int `toml:"scan_chunk_pause_ms"`

	// InboundRate is the sustained inbound message rate per client (messages/second).
	// Default: 50
	InboundRate float64 `toml:"inbound_rate"`

	// InboundBurst is the inbound burst allowance per client.
	// Default: 100
	InboundBurst int `toml:"inbound_burst"`
}

// DefaultConfigPath returns the default config file location: ~/.ttfbridge/config.toml.
// Returns an error only if the user's home directory cannot be determined.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".ttfbridge", "config.toml"), nil
}

// DefaultStoragePath returns ~/.ttfbridge/ttfbridge.db.
func DefaultStoragePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".ttfbridge", "ttfbridge.db"), nil
}

// Load reads a TOML config file from the given path and returns a Config.
//
// Behavior:
//   - If path is empty, attempts to load from the default location (~/.ttfbridge/config.toml).
//     Returns an empty Config without error if the default file doesn't exist.
//   - If path is specified, returns an error if the file doesn't exist.
//   - Returns an error if the file exists but cannot be parsed.
//
// Unset fields are left zero; call ApplyDefaults to fill them.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return cfg, nil
		}
		if _, err := os.Stat(defaultPath); os.IsNotExist(err) {
			return cfg, nil
		}
		path = defaultPath
	} else {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return cfg, nil
}

// Validate rejects negative sizes and timings. Zero means "use the default".
func (c *Config) Validate() error {
	checks := []struct {
		name  string
		value int
	}{
		{"server_port", c.ServerPort},
		{"batch_chunk_size", c.BatchChunkSize},
		{"batch_pause_ms", c.BatchPauseMs},
		{"scan_chunk_size", c.ScanChunkSize},
		{"scan_item_delay_ms", c.ScanItemDelayMs},
		{"scan_chunk_pause_ms", c.ScanChunkPauseMs},
		{"inbound_burst", c.InboundBurst},
	}
	for _, check := range checks {
		if check.value < 0 {
			return fmt.Errorf("%s must not be negative, got %d", check.name, check.value)
		}
	}
	if c.ServerPort > 65535 {
		return fmt.Errorf("server_port out of range: %d", c.ServerPort)
	}
	if c.InboundRate < 0 {
		return fmt.Errorf("inbound_rate must not be negative, got %v", c.InboundRate)
	}
	return nil
}

// ApplyDefaults fills every zero-valued field with its default.
func (c *Config) ApplyDefaults() {
	if c.ServerPort == 0 {
		c.ServerPort = DefaultServerPort
	}
	if c.Addr == "" {
		c.Addr = fmt.Sprintf("%s:%d", DefaultHost, c.ServerPort)
	}
	if c.StoragePath == "" {
		if p, err := DefaultStoragePath(); err == nil {
			c.StoragePath = p
		}
	}
	if c.BatchChunkSize == 0 {
		c.BatchChunkSize = DefaultBatchChunkSize
	}
	if c.BatchPauseMs == 0 {
		c.BatchPauseMs = DefaultBatchPauseMs
	}
	if c.ScanChunkSize == 0 {
		c.ScanChunkSize = DefaultScanChunkSize
	}
	if c.ScanItemDelayMs == 0 {
		c.ScanItemDelayMs = DefaultScanItemDelayMs
	}
	if c.ScanChunkPauseMs == 0 {
		c.ScanChunkPauseMs = DefaultScanChunkPauseMs
	}
	if c.InboundRate == 0 {
		c.InboundRate = DefaultInboundRate
	}
	if c.InboundBurst == 0 {
		c.InboundBurst = DefaultInboundBurst
	}
}

// BatchPause returns BatchPauseMs as a duration.
func (c *Config) BatchPause() time.Duration {
	return time.Duration(c.BatchPauseMs) * time.Millisecond
}

// ScanItemDelay returns ScanItemDelayMs as a duration.
func (c *Config) ScanItemDelay() time.Duration {
	return time.Duration(c.ScanItemDelayMs) * time.Millisecond
}

// ScanChunkPause returns ScanChunkPauseMs as a duration.
func (c *Config) ScanChunkPause() time.Duration {
	return time.Duration(c.ScanChunkPauseMs) * time.Millisecond
}
