package server

import (
	"context"
	"log"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/ttfbridge/host/internal/handlers"
	"github.com/ttfbridge/host/internal/progress"
	"github.com/ttfbridge/host/internal/router"
	"github.com/ttfbridge/host/internal/session"
)

// Handler returns the HTTP handler serving /ws, /health and /status.
func (s *Server) Handler() http.Handler {
	return s.createMux()
}

func (s *Server) createMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", s.handleWebSocket)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Local-only status for the CLI.
	mux.Handle("/status", NewStatusHandler(s))

	return mux
}

// handleWebSocket upgrades an HTTP connection and starts the client pumps.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	stopped := s.stopped
	s.mu.RUnlock()
	if stopped {
		http.Error(w, "server stopped", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade failed: %v", err)
		return
	}

	client := s.newClient()
	client.conn = conn

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		client.cancel()
		conn.Close()
		return
	}
	s.clients[client] = true
	count := len(s.clients)
	autoConnect := s.autoConnect
	s.mu.Unlock()

	log.Printf("server: client %s connected (%d total)", client.id, count)

	if autoConnect {
		client.trySend(NewAutoConnectMessage())
	}

	go client.writePump()
	go client.readPump()
}

// newClient builds a client with a fresh read-only session.
func (s *Server) newClient() *Client {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		id:             uuid.NewString(),
		send:           make(chan Message, channelBufferSize),
		done:           make(chan struct{}),
		server:         s,
		session:        session.New(s.serverPort),
		inboundLimiter: rate.NewLimiter(s.inboundRate, s.inboundBurst),
		ctx:            ctx,
		cancel:         cancel,
	}
	h := handlers.New(s.store, s.clientStorage, progress.EmitterFunc(c.sendProgress))
	h.Config = s.handlerConfig
	c.router = router.New(h, c.session)
	return c
}
