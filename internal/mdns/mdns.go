// Package mdns provides optional mDNS/Bonjour advertisement of the bridge.
//
// When enabled, the bridge advertises itself on the local network using
// DNS-SD so a design-tool UI or the ttfbridge CLI can find it without a
// hard-coded address.
//
// The advertisement includes:
//   - Service type: _ttfbridge._tcp
//   - TXT records with protocol version, instance name and WebSocket path
package mdns

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/grandcat/zeroconf"
)

// ServiceType is the mDNS service type for ttfbridge hosts.
const ServiceType = "_ttfbridge._tcp"

// ProtocolVersion identifies the bridge message protocol.
const ProtocolVersion = "1"

// DefaultPath is the WebSocket endpoint advertised when Config.Path is empty.
const DefaultPath = "/ws"

// Config holds configuration for mDNS advertisement.
type Config struct {
	// Port is the server port to advertise (e.g., 3055).
	Port int

	// Path is the WebSocket endpoint path. Defaults to /ws.
	Path string

	// Name is a human-readable name for this bridge.
	// Defaults to the system hostname if empty.
	Name string
}

// Advertiser manages mDNS/DNS-SD service registration.
type Advertiser struct {
	config Config
	server *zeroconf.Server
	mu     sync.Mutex
}

// NewAdvertiser creates a new mDNS advertiser with the given configuration.
func NewAdvertiser(cfg Config) *Advertiser {
	return &Advertiser{
		config: cfg,
	}
}

// instanceName resolves the advertised instance name.
func (a *Advertiser) instanceName() string {
	if a.config.Name != "" {
		return a.config.Name
	}
	hostname, err := os.Hostname()
	if err != nil {
		return "ttfbridge"
	}
	return hostname
}

// txtRecords builds the TXT strings for an advertisement. Each string stays
// well under the 255 byte DNS limit.
func txtRecords(name, path string) []string {
	if path == "" {
		path = DefaultPath
	}
	return []string{
		fmt.Sprintf("version=%s", ProtocolVersion),
		fmt.Sprintf("name=%s", name),
		fmt.Sprintf("path=%s", path),
	}
}

// Start begins advertising the service via mDNS.
//
// Start is safe to call multiple times; subsequent calls are no-ops
// if already running.
func (a *Advertiser) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		return nil
	}

	name := a.instanceName()
	server, err := zeroconf.Register(
		name,
		ServiceType,
		"local.",
		a.config.Port,
		txtRecords(name, a.config.Path),
		nil, // all interfaces
	)
	if err != nil {
		return fmt.Errorf("mdns register: %w", err)
	}

	a.server = server
	return nil
}

// Stop stops the mDNS advertisement and unregisters the service.
// It is safe to call Stop multiple times or on an advertiser that
// was never started.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

// IsRunning returns true if the advertiser is currently running.
func (a *Advertiser) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.server != nil
}

// DiscoveredBridge represents a bridge found via mDNS discovery.
type DiscoveredBridge struct {
	Name    string
	Host    string
	Port    int
	Path    string
	Version string
}

// URL returns the WebSocket URL for the bridge.
func (b DiscoveredBridge) URL() string {
	path := b.Path
	if path == "" {
		path = DefaultPath
	}
	host := b.Host
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return fmt.Sprintf("ws://%s:%d%s", host, b.Port, path)
}

// applyTXT copies known TXT keys into b.
func (b *DiscoveredBridge) applyTXT(records []string) {
	for _, txt := range records {
		key, value, ok := strings.Cut(txt, "=")
		if !ok || value == "" {
			continue
		}
		switch key {
		case "version":
			b.Version = value
		case "name":
			b.Name = value
		case "path":
			b.Path = value
		}
	}
}

// Discover searches for bridges on the local network until ctx is done.
func Discover(ctx context.Context) ([]DiscoveredBridge, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("mdns resolver: %w", err)
	}

	var (
		bridges []DiscoveredBridge
		mu      sync.Mutex
		wg      sync.WaitGroup
	)

	entries := make(chan *zeroconf.ServiceEntry)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for entry := range entries {
			bridge := DiscoveredBridge{
				Name: entry.Instance,
				Port: entry.Port,
			}

			// Prefer IPv4 address
			if len(entry.AddrIPv4) > 0 {
				bridge.Host = entry.AddrIPv4[0].String()
			} else if len(entry.AddrIPv6) > 0 {
				bridge.Host = entry.AddrIPv6[0].String()
			}
			bridge.applyTXT(entry.Text)

			mu.Lock()
			bridges = append(bridges, bridge)
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, "local.", entries); err != nil {
		return nil, fmt.Errorf("mdns browse: %w", err)
	}

	<-ctx.Done()

	// zeroconf closes entries once ctx is done.
	wg.Wait()

	return bridges, nil
}
