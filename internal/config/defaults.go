package config

// DefaultHost is the interface the WebSocket server binds to by default.
const DefaultHost = "127.0.0.1"

// DefaultServerPort matches the port the design-tool UI dials.
const DefaultServerPort = 3055

// Batch pacing defaults.
const (
	DefaultBatchChunkSize   = 5
	DefaultBatchPauseMs     = 1000
	DefaultScanChunkSize    = 10
	DefaultScanItemDelayMs  = 5
	DefaultScanChunkPauseMs = 50
)

// Inbound message limits per client.
const (
	DefaultInboundRate  = 50.0
	DefaultInboundBurst = 100
)
