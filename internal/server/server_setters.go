package server

import (
	"golang.org/x/time/rate"

	"github.com/ttfbridge/host/internal/handlers"
)

// SetClientStorage sets the key-value store shared by all sessions.
func (s *Server) SetClientStorage(storage handlers.ClientStorage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientStorage = storage
}

// SetHandlerConfig sets the pacing of the batch commands.
func (s *Server) SetHandlerConfig(cfg handlers.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlerConfig = cfg
}

// SetAuditWriter sets where executed commands are recorded.
func (s *Server) SetAuditWriter(w CommandAuditWriter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = w
}

// SetServerPort sets the port reported to new sessions.
func (s *Server) SetServerPort(port int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serverPort = port
}

// SetAutoConnect controls whether new clients receive auto-connect.
func (s *Server) SetAutoConnect(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoConnect = enabled
}

// SetInboundLimit sets the per-client inbound message rate and burst.
// A non-positive rate disables the limit.
func (s *Server) SetInboundLimit(perSecond float64, burst int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if perSecond <= 0 {
		s.inboundRate = rate.Inf
	} else {
		s.inboundRate = rate.Limit(perSecond)
	}
	s.inboundBurst = burst
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.addr
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}
