// Package progress builds the command_progress events long-running commands
// stream back to the controller.
package progress

import (
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Status is the lifecycle stage of a progress event.
type Status string

const (
	StatusStarted    Status = "started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Event is one progress report for a running command.
type Event struct {
	CommandID      string         `json:"commandId"`
	CommandType    string         `json:"commandType"`
	Status         Status         `json:"status"`
	Progress       float64        `json:"progress"`
	TotalItems     int            `json:"totalItems"`
	ProcessedItems int            `json:"processedItems"`
	Message        string         `json:"message"`
	Timestamp      int64          `json:"timestamp"`
	CurrentChunk   *int           `json:"currentChunk,omitempty"`
	TotalChunks    *int           `json:"totalChunks,omitempty"`
	ChunkSize      *int           `json:"chunkSize,omitempty"`
	Payload        map[string]any `json:"payload,omitempty"`
}

// NewCommandID returns a fresh id for correlating progress events.
// It is distinct from the envelope id the controller assigns.
func NewCommandID() string {
	return "cmd_" + strings.ToLower(ulid.Make().String())
}

// Emitter receives progress events.
type Emitter interface {
	Emit(Event)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(Event)

// Emit calls f(ev).
func (f EmitterFunc) Emit(ev Event) { f(ev) }

// Discard drops every event.
var Discard Emitter = EmitterFunc(func(Event) {})

// Recorder collects events in memory. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit appends ev.
func (r *Recorder) Emit(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many recorded events have the given status.
func (r *Recorder) Count(status Status) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Status == status {
			n++
		}
	}
	return n
}

// Tracker stamps events for a single command invocation.
type Tracker struct {
	ID      string
	Type    string
	Emitter Emitter
	Now     func() time.Time
}

// NewTracker creates a tracker with a fresh command id.
func NewTracker(commandType string, emitter Emitter) *Tracker {
	if emitter == nil {
		emitter = Discard
	}
	return &Tracker{
		ID:      NewCommandID(),
		Type:    commandType,
		Emitter: emitter,
		Now:     time.Now,
	}
}

// Send builds an event, emits it and returns it.
func (t *Tracker) Send(status Status, progress float64, total, processed int, message string, payload map[string]any) Event {
	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	ev := Event{
		CommandID:      t.ID,
		CommandType:    t.Type,
		Status:         status,
		Progress:       progress,
		TotalItems:     total,
		ProcessedItems: processed,
		Message:        message,
		Timestamp:      now().UnixMilli(),
	}
	if payload != nil {
		cur, okCur := intField(payload, "currentChunk")
		tot, okTot := intField(payload, "totalChunks")
		if okCur && okTot {
			ev.CurrentChunk = &cur
			ev.TotalChunks = &tot
			if size, ok := intField(payload, "chunkSize"); ok {
				ev.ChunkSize = &size
			}
		}
		ev.Payload = payload
	}
	if t.Emitter != nil {
		t.Emitter.Emit(ev)
	}
	return ev
}

func intField(m map[string]any, key string) (int, bool) {
	switch v := m[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
