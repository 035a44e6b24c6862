package main

// serve.go implements `ttfbridge serve`, the long-running bridge process.

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ttfbridge/host/internal/batch"
	"github.com/ttfbridge/host/internal/config"
	"github.com/ttfbridge/host/internal/document/memdoc"
	"github.com/ttfbridge/host/internal/handlers"
	"github.com/ttfbridge/host/internal/mdns"
	"github.com/ttfbridge/host/internal/server"
	"github.com/ttfbridge/host/internal/storage"
)

// ServeConfig holds the command-line flags of `ttfbridge serve`.
type ServeConfig struct {
	Config      string
	Addr        string
	Port        int
	StoragePath string
	LogFile     string
	Document    string
	MdnsEnabled bool
	MdnsName    string
	AutoConnect bool
}

func runServe(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)

	flags := &ServeConfig{}

	fs.StringVar(&flags.Config, "config", "", "Path to config file (default: ~/.ttfbridge/config.toml)")
	fs.StringVar(&flags.Addr, "addr", "", "Address for the WebSocket server (default: 127.0.0.1:3055)")
	fs.IntVar(&flags.Port, "port", 0, "Port to listen on when --addr is not set (default: 3055)")
	fs.StringVar(&flags.StoragePath, "storage", "", "Path to the client storage database (default: ~/.ttfbridge/ttfbridge.db)")
	fs.StringVar(&flags.LogFile, "log-file", "", "Write logs to this file instead of stderr")
	fs.StringVar(&flags.Document, "document", "", "JSON snapshot to load into the in-memory document")
	fs.BoolVar(&flags.MdnsEnabled, "mdns", false, "Advertise the bridge with mDNS/Bonjour (LAN-visible)")
	fs.StringVar(&flags.MdnsName, "mdns-name", "", "Advertised instance name (default: hostname)")
	fs.BoolVar(&flags.AutoConnect, "auto-connect", false, "Ask every new UI connection to connect automatically")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: ttfbridge serve [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	explicitFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		explicitFlags[f.Name] = true
	})

	if explicitFlags["port"] {
		if err := validatePort(flags.Port); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	fileCfg, err := config.Load(flags.Config)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	cfg := mergeServeConfig(flags, explicitFlags, fileCfg)

	if cfg.LogFile != "" {
		logFile, err := openLogFile(cfg.LogFile)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		defer logFile.Close()
		log.SetOutput(logFile)
	}

	b, err := newBridge(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer b.Close()

	if err := <-b.server.StartAsync(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Bridge listening on ws://%s/ws\n", cfg.Addr)

	var advertiser *mdns.Advertiser
	if cfg.MdnsEnabled {
		advertiser = mdns.NewAdvertiser(mdns.Config{
			Port: cfg.ServerPort,
			Path: mdns.DefaultPath,
			Name: cfg.MdnsName,
		})
		if err := advertiser.Start(); err != nil {
			// Discovery is optional; the bridge still works by address.
			fmt.Fprintf(stderr, "Warning: mDNS advertisement failed: %v\n", err)
			advertiser = nil
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	sig := <-sigCh
	log.Printf("serve: received %v, shutting down", sig)

	if advertiser != nil {
		advertiser.Stop()
	}
	fmt.Fprintln(stdout, "Bridge stopped")
	return 0
}

// mergeServeConfig applies explicit CLI flags over the file config and
// fills the remaining defaults.
func mergeServeConfig(flags *ServeConfig, explicitFlags map[string]bool, fileCfg *config.Config) *config.Config {
	cfg := *fileCfg

	if flags.Addr != "" {
		cfg.Addr = flags.Addr
	}
	if explicitFlags["port"] {
		cfg.ServerPort = flags.Port
		if flags.Addr == "" {
			cfg.Addr = ""
		}
	}
	if flags.StoragePath != "" {
		cfg.StoragePath = flags.StoragePath
	}
	if flags.LogFile != "" {
		cfg.LogFile = flags.LogFile
	}
	if flags.Document != "" {
		cfg.Document = flags.Document
	}
	if flags.MdnsName != "" {
		cfg.MdnsName = flags.MdnsName
	}
	// Boolean flags override the file only when given, so --mdns=false works.
	if explicitFlags["mdns"] {
		cfg.MdnsEnabled = flags.MdnsEnabled
	}
	if explicitFlags["auto-connect"] {
		cfg.AutoConnect = flags.AutoConnect
	}

	cfg.ApplyDefaults()
	return &cfg
}

// handlerConfig converts the configured pacing into batch configs.
func handlerConfig(cfg *config.Config) handlers.Config {
	return handlers.Config{
		Delete:      batch.Config{ChunkSize: cfg.BatchChunkSize, Pause: cfg.BatchPause()},
		TextReplace: batch.Config{ChunkSize: cfg.BatchChunkSize, Pause: cfg.BatchPause()},
		Scan: batch.Config{
			ChunkSize:  cfg.ScanChunkSize,
			Pause:      cfg.ScanChunkPause(),
			Sequential: true,
			ItemDelay:  cfg.ScanItemDelay(),
		},
	}
}

// bridge is a configured server with the resources it owns.
type bridge struct {
	server *server.Server
	store  *storage.SQLiteStore
	doc    *memdoc.Document
}

// newBridge opens storage, loads the document and configures the server.
// It does not start listening.
func newBridge(cfg *config.Config) (*bridge, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.StoragePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	store, err := storage.NewSQLiteStore(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	if err := store.ProbeCommandAuditWrite(); err != nil {
		store.Close()
		return nil, fmt.Errorf("command audit is not writable: %w", err)
	}

	doc := memdoc.New(memdoc.Options{})
	if cfg.Document != "" {
		doc, err = memdoc.LoadFile(cfg.Document)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to load document %s: %w", cfg.Document, err)
		}
	}

	srv := server.NewServer(cfg.Addr, doc)
	srv.SetClientStorage(store)
	srv.SetHandlerConfig(handlerConfig(cfg))
	srv.SetAuditWriter(server.NewCommandAuditStoreAdapter(store, 0))
	srv.SetServerPort(savedServerPort(store, cfg.ServerPort))
	srv.SetAutoConnect(cfg.AutoConnect)
	srv.SetInboundLimit(cfg.InboundRate, cfg.InboundBurst)

	return &bridge{server: srv, store: store, doc: doc}, nil
}

// savedServerPort returns the port the UI last saved through
// update-settings, or fallback when none was saved.
func savedServerPort(store *storage.SQLiteStore, fallback int) int {
	var settings storage.Settings
	ok, err := store.GetValue(storage.KeySettings, &settings)
	if err != nil {
		log.Printf("serve: failed to read saved settings: %v", err)
		return fallback
	}
	if !ok || settings.ServerPort <= 0 {
		return fallback
	}
	return settings.ServerPort
}

// Close stops the server and releases storage.
func (b *bridge) Close() {
	if err := b.server.Stop(); err != nil {
		log.Printf("serve: stop failed: %v", err)
	}
	if err := b.store.Close(); err != nil {
		log.Printf("serve: closing storage failed: %v", err)
	}
}

// openLogFile opens path for appending, creating its directory.
func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}
