package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/ttfbridge/host/internal/document"
	"github.com/ttfbridge/host/internal/handlers"
	"github.com/ttfbridge/host/internal/router"
	"github.com/ttfbridge/host/internal/session"
)

// channelBufferSize is the buffer size of the per-client send channels.
// Progress events are dropped for a client whose buffer is full; command
// replies wait for room.
const channelBufferSize = 256

// maxMessageSize bounds a single inbound frame. SVG markup and long text
// batches arrive in one message.
const maxMessageSize = 4 << 20

// Default per-client inbound limits.
const (
	defaultInboundRate  = 50
	defaultInboundBurst = 100
)

// defaultAuditMaxRows bounds the command audit table.
const defaultAuditMaxRows = 5000

// CommandAuditEvent records one executed command.
type CommandAuditEvent struct {
	RequestID    string
	ConnectionID string
	Command      string
	ScopeRootID  string
	ReadOnly     bool
	ErrorCode    string
	ErrorMessage string
	Duration     time.Duration
	At           time.Time
}

// CommandAuditWriter persists command audit events.
type CommandAuditWriter interface {
	WriteCommandAudit(event CommandAuditEvent) error
}

// Server accepts UI connections and runs their commands against a shared
// document store.
type Server struct {
	// addr is the address to listen on (e.g., "127.0.0.1:3055")
	addr string

	upgrader websocket.Upgrader

	// clients tracks all connected WebSocket clients.
	clients map[*Client]bool

	// mu protects every field below it.
	mu sync.RWMutex

	// stopped indicates whether the server has been stopped.
	stopped bool

	httpServer *http.Server

	// store is the document every connection edits.
	store document.Store

	// clientStorage keeps UI settings and the default connector between
	// sessions. If nil, update-settings is logged and dropped.
	clientStorage handlers.ClientStorage

	// handlerConfig paces the batch commands.
	handlerConfig handlers.Config

	// audit records every executed command. If nil, nothing is recorded.
	audit CommandAuditWriter

	// serverPort seeds the port of new sessions.
	serverPort int

	// autoConnect sends auto-connect to every new client.
	autoConnect bool

	inboundRate  rate.Limit
	inboundBurst int

	startTime time.Time
}

// NewServer creates a server for addr that edits store. Optional
// collaborators are set with the Set methods before Start.
func NewServer(addr string, store document.Store) *Server {
	return &Server{
		addr:    addr,
		clients: make(map[*Client]bool),
		upgrader: websocket.Upgrader{
			// The UI runs inside the design tool with an opaque origin.
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		store:         store,
		handlerConfig: handlers.DefaultConfig(),
		serverPort:    session.DefaultServerPort,
		inboundRate:   defaultInboundRate,
		inboundBurst:  defaultInboundBurst,
		startTime:     time.Now(),
	}
}

// Client is one UI connection with its own session.
type Client struct {
	// id identifies the connection in logs and the audit table.
	id string

	conn *websocket.Conn

	// send is a buffered channel for outgoing messages.
	send chan Message

	// done is closed to signal the client should shut down.
	done chan struct{}

	// sendOnce ensures done is only closed once. Both Stop() and
	// readPump() may close it.
	sendOnce sync.Once

	server *Server

	// session is the access-control state of this connection.
	session *session.Context

	// router runs commands with this client's session and progress sink.
	router *router.Router

	// inboundLimiter throttles execute-command messages.
	inboundLimiter *rate.Limiter

	// ctx is cancelled when the connection goes away, which stops any
	// batch still running for it.
	ctx    context.Context
	cancel context.CancelFunc

	// inflight counts execute-command goroutines.
	inflight sync.WaitGroup
}
