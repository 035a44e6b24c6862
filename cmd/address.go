package main

// address.go centralizes address selection for local CLI commands.

import (
	"fmt"
	"io"
	"net"
	"strconv"
)

func resolveAddrCandidates(addr string, port int, explicitPort bool, stderr io.Writer) []string {
	if addr != "" {
		if explicitPort {
			fmt.Fprintf(stderr, "Warning: --addr overrides --port; using %s\n", addr)
		}
		return []string{addr}
	}

	return defaultAddrCandidates(port)
}

// defaultAddrCandidates lists the loopback addresses a local bridge may be
// bound to. /status only answers loopback callers.
func defaultAddrCandidates(port int) []string {
	portStr := strconv.Itoa(port)
	return []string{
		net.JoinHostPort("127.0.0.1", portStr),
		net.JoinHostPort("::1", portStr),
	}
}

func validatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %d (must be 1-65535)", port)
	}
	return nil
}
