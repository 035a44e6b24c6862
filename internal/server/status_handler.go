package server

// status_handler.go implements the local status endpoint queried by the CLI.

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ttfbridge/host/internal/router"
)

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	// ListeningAddress is the address the bridge is listening on.
	ListeningAddress string `json:"listening_address"`

	// ConnectedClients is the number of open UI connections.
	ConnectedClients int `json:"connected_clients"`

	// UptimeSeconds is how long the bridge has been running.
	UptimeSeconds int64 `json:"uptime_seconds"`

	// Commands is the number of routed commands.
	Commands int `json:"commands"`

	// AutoConnect reports whether new clients receive auto-connect.
	AutoConnect bool `json:"auto_connect"`
}

// StatusHandler serves bridge status to local callers only.
type StatusHandler struct {
	server *Server
}

// NewStatusHandler creates a StatusHandler for s.
func NewStatusHandler(s *Server) *StatusHandler {
	return &StatusHandler{server: s}
}

// ServeHTTP answers GET requests from loopback addresses.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !isLoopbackRequest(r) {
		http.Error(w, "Forbidden: status endpoint is local-only", http.StatusForbidden)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.server.mu.RLock()
	autoConnect := h.server.autoConnect
	started := h.server.startTime
	h.server.mu.RUnlock()

	resp := StatusResponse{
		ListeningAddress: h.server.Addr(),
		ConnectedClients: h.server.ClientCount(),
		UptimeSeconds:    int64(time.Since(started).Seconds()),
		Commands:         len(router.Commands()),
		AutoConnect:      autoConnect,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
