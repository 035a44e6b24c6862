package main

// discover.go implements `ttfbridge discover`.

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/ttfbridge/host/internal/mdns"
)

// discoverBridges browses the local network. Tests replace it.
var discoverBridges = mdns.Discover

// discoveredItem is the JSON form of one discovered bridge.
type discoveredItem struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Version string `json:"version,omitempty"`
}

func runDiscover(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("discover", flag.ContinueOnError)
	fs.SetOutput(stderr)

	timeout := fs.Duration("timeout", 3*time.Second, "How long to browse")
	jsonOutput := fs.Bool("json", false, "Output in JSON format")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: ttfbridge discover [options]\n\nFind bridges advertised with mDNS on the local network.\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	bridges, err := discoverBridges(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	items := make([]discoveredItem, 0, len(bridges))
	for _, b := range bridges {
		items = append(items, discoveredItem{Name: b.Name, URL: b.URL(), Version: b.Version})
	}

	if *jsonOutput {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		enc.Encode(items)
		return 0
	}

	if len(items) == 0 {
		fmt.Fprintln(stdout, "No bridges found.")
		return 0
	}
	for _, item := range items {
		fmt.Fprintf(stdout, "%-24s %s\n", item.Name, item.URL)
	}
	return 0
}
