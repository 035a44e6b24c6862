package batch

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/ttfbridge/host/internal/progress"
)

type itemResult struct {
	ID string
	OK bool
}

func (r itemResult) Succeeded() bool { return r.OK }

func ids(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = strconv.Itoa(i)
	}
	return out
}

func TestRunChunksAndEvents(t *testing.T) {
	rec := &progress.Recorder{}
	tracker := progress.NewTracker("delete_multiple_nodes", rec)

	// Every third item fails.
	perItem := func(_ context.Context, id string) itemResult {
		n, _ := strconv.Atoi(id)
		return itemResult{ID: id, OK: n%3 != 0}
	}
	sum, err := Run(context.Background(), Config{ChunkSize: 5}, tracker, ids(12), perItem, Hooks[string, itemResult]{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	assert.Equal(t, sum.Chunks, 3)
	assert.Equal(t, sum.Total, 12)
	assert.Equal(t, sum.Succeeded+sum.Failed, sum.Total)
	assert.Equal(t, sum.Failed, 4)
	assert.Equal(t, sum.Success(), true)
	assert.Equal(t, rec.Count(progress.StatusInProgress), 6)
	assert.Equal(t, rec.Count(progress.StatusStarted), 0)
	assert.Equal(t, rec.Count(progress.StatusCompleted), 0)

	events := rec.Events()
	wantProgress := []float64{5, 35, 35, 65, 65, 95}
	for i, ev := range events {
		assert.Equal(t, ev.Progress, wantProgress[i])
		assert.Equal(t, ev.CommandID, tracker.ID)
	}
	assert.Equal(t, *events[5].CurrentChunk, 3)
	assert.Equal(t, *events[5].TotalChunks, 3)
	assert.Equal(t, events[1].Message, "Completed chunk 1/3. 3 successful, 2 failed so far.")
	chunkResults := events[5].Payload["chunkResults"].([]itemResult)
	assert.Equal(t, len(chunkResults), 2)

	for i, r := range sum.Results {
		assert.Equal(t, r.ID, strconv.Itoa(i))
	}
}

func TestRunRecoversPanics(t *testing.T) {
	tracker := progress.NewTracker("test", progress.Discard)
	perItem := func(_ context.Context, id string) itemResult {
		if id == "1" {
			panic("boom")
		}
		return itemResult{ID: id, OK: true}
	}
	hooks := Hooks[string, itemResult]{
		Recover: func(id string, _ any) itemResult { return itemResult{ID: id} },
	}
	sum, err := Run(context.Background(), Config{ChunkSize: 2}, tracker, ids(3), perItem, hooks)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	assert.Equal(t, sum.Succeeded, 2)
	assert.Equal(t, sum.Failed, 1)
	assert.Equal(t, sum.Results[1].ID, "1")
}

func TestRunAllFail(t *testing.T) {
	tracker := progress.NewTracker("test", progress.Discard)
	sum, _ := Run(context.Background(), Config{ChunkSize: 5}, tracker, ids(2),
		func(_ context.Context, id string) itemResult { return itemResult{ID: id} },
		Hooks[string, itemResult]{})
	assert.Equal(t, sum.Success(), false)
}

func TestRunSequentialPreservesOrder(t *testing.T) {
	tracker := progress.NewTracker("scan", progress.Discard)
	var active, maxActive int32
	var order []string
	perItem := func(_ context.Context, id string) itemResult {
		n := atomic.AddInt32(&active, 1)
		if n > atomic.LoadInt32(&maxActive) {
			atomic.StoreInt32(&maxActive, n)
		}
		order = append(order, id)
		atomic.AddInt32(&active, -1)
		return itemResult{ID: id, OK: true}
	}
	cfg := Config{ChunkSize: 4, Sequential: true, ItemDelay: time.Millisecond}
	if _, err := Run(context.Background(), cfg, tracker, ids(6), perItem, Hooks[string, itemResult]{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	assert.Equal(t, maxActive, int32(1))
	assert.Equal(t, order, ids(6))
}

func TestRunPausesBetweenChunks(t *testing.T) {
	tracker := progress.NewTracker("test", progress.Discard)
	start := time.Now()
	_, err := Run(context.Background(), Config{ChunkSize: 1, Pause: 30 * time.Millisecond}, tracker, ids(3),
		func(_ context.Context, id string) itemResult { return itemResult{ID: id, OK: true} },
		Hooks[string, itemResult]{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("Run took %v, want at least two pauses", elapsed)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	tracker := progress.NewTracker("test", progress.Discard)
	ctx, cancel := context.WithCancel(context.Background())
	perItem := func(_ context.Context, id string) itemResult {
		cancel()
		return itemResult{ID: id, OK: true}
	}
	sum, err := Run(ctx, Config{ChunkSize: 1, Pause: time.Hour}, tracker, ids(3), perItem, Hooks[string, itemResult]{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
	assert.Equal(t, len(sum.Results), 1)
}

func TestCustomHooks(t *testing.T) {
	rec := &progress.Recorder{}
	tracker := progress.NewTracker("delete_multiple_nodes", rec)
	hooks := Hooks[string, itemResult]{
		BeforeChunk: func(st State[itemResult]) (string, map[string]any) {
			return "Processing deletion chunk " + strconv.Itoa(st.Chunk), nil
		},
	}
	_, _ = Run(context.Background(), Config{ChunkSize: 5}, tracker, ids(1),
		func(_ context.Context, id string) itemResult { return itemResult{ID: id, OK: true} }, hooks)
	events := rec.Events()
	assert.Equal(t, events[0].Message, "Processing deletion chunk 1")
	assert.Equal(t, events[0].CurrentChunk == nil, true)
}

func TestChunkCount(t *testing.T) {
	assert.Equal(t, ChunkCount(12, 5), 3)
	assert.Equal(t, ChunkCount(10, 5), 2)
	assert.Equal(t, ChunkCount(0, 5), 0)
	assert.Equal(t, ChunkCount(23, 10), 3)
}
