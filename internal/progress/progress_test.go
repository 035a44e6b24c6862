package progress

import (
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func fixedTracker(rec *Recorder) *Tracker {
	return &Tracker{
		ID:      "cmd_test",
		Type:    "delete_multiple_nodes",
		Emitter: rec,
		Now:     func() time.Time { return time.UnixMilli(1700000000000) },
	}
}

func TestNewCommandID(t *testing.T) {
	a := NewCommandID()
	b := NewCommandID()
	assert.Equal(t, strings.HasPrefix(a, "cmd_"), true)
	assert.Equal(t, len(a), len("cmd_")+26)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, strings.ToLower(a))
}

func TestSendLiftsChunkFields(t *testing.T) {
	rec := &Recorder{}
	tr := fixedTracker(rec)

	ev := tr.Send(StatusInProgress, 50, 12, 5, "Processing deletion chunk 2/3", map[string]any{
		"currentChunk": 2,
		"totalChunks":  3,
		"chunkSize":    5,
	})

	assert.Equal(t, ev.CommandID, "cmd_test")
	assert.Equal(t, ev.Timestamp, int64(1700000000000))
	assert.Equal(t, *ev.CurrentChunk, 2)
	assert.Equal(t, *ev.TotalChunks, 3)
	assert.Equal(t, *ev.ChunkSize, 5)
	assert.Equal(t, len(rec.Events()), 1)
}

func TestSendKeepsPayloadWithoutChunkPair(t *testing.T) {
	rec := &Recorder{}
	tr := fixedTracker(rec)

	ev := tr.Send(StatusStarted, 0, 4, 0, "Starting", map[string]any{"chunkSize": 10})
	assert.Equal(t, ev.CurrentChunk == nil, true)
	assert.Equal(t, ev.ChunkSize == nil, true)
	assert.Equal(t, ev.Payload["chunkSize"], 10)

	ev = tr.Send(StatusCompleted, 100, 4, 4, "done", nil)
	assert.Equal(t, ev.Payload == nil, true)
	assert.Equal(t, rec.Count(StatusStarted), 1)
	assert.Equal(t, rec.Count(StatusCompleted), 1)
}

func TestNewTrackerDefaultsToDiscard(t *testing.T) {
	tr := NewTracker("scan_text_nodes", nil)
	ev := tr.Send(StatusStarted, 0, 0, 0, "x", nil)
	assert.Equal(t, ev.CommandType, "scan_text_nodes")
	assert.Equal(t, strings.HasPrefix(ev.CommandID, "cmd_"), true)
}
