// Package batch runs bulk document operations in fixed-size chunks.
//
// Items inside a chunk run concurrently; chunks run strictly one after
// another with a pause between them so the host stays responsive. Each chunk
// produces two in_progress events, one before and one after it runs. The
// caller emits the started and completed events because their messages and
// payloads are command specific.
package batch

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ttfbridge/host/internal/progress"
)

// Outcome is the per-item result of a batch.
type Outcome interface {
	Succeeded() bool
}

// Config controls chunking and pacing.
type Config struct {
	ChunkSize int
	// Pause is the minimum spacing between the starts of consecutive chunks.
	Pause time.Duration
	// Sequential runs the items of a chunk one at a time, spaced by ItemDelay.
	Sequential bool
	ItemDelay  time.Duration
}

// State is the batch position handed to hooks.
type State[R Outcome] struct {
	Chunk        int // 1-based
	Chunks       int
	ChunkSize    int
	Total        int
	Processed    int
	Succeeded    int
	Failed       int
	ChunkResults []R
}

// Hooks customize the per-chunk progress events. A nil hook uses the
// default message and payload.
type Hooks[T any, R Outcome] struct {
	BeforeChunk func(State[R]) (string, map[string]any)
	AfterChunk  func(State[R]) (string, map[string]any)
	// Recover turns a panic inside the item function into a result. Without
	// it the item is counted as failed and its result is the zero value.
	Recover func(item T, recovered any) R
}

// Summary aggregates a finished batch.
type Summary[R Outcome] struct {
	Succeeded int
	Failed    int
	Total     int
	Chunks    int
	Results   []R
}

// Success reports whether at least one item succeeded.
func (s Summary[R]) Success() bool { return s.Succeeded > 0 }

// ChunkCount returns how many chunks n items split into.
func ChunkCount(n, size int) int {
	if size <= 0 {
		size = 1
	}
	return (n + size - 1) / size
}

// Percent returns the progress reported at a chunk boundary.
func Percent(boundary, chunks int) float64 {
	if chunks == 0 {
		return 95
	}
	return math.Round(5 + float64(boundary)/float64(chunks)*90)
}

type result[R Outcome] struct {
	value    R
	panicked bool
}

// Run processes items with perItem. perItem must report failures through its
// result rather than panicking; panics are recovered and counted as failed.
// Run only returns an error when ctx ends; the summary then covers the
// chunks that finished.
func Run[T any, R Outcome](ctx context.Context, cfg Config, tracker *progress.Tracker, items []T, perItem func(context.Context, T) R, hooks Hooks[T, R]) (Summary[R], error) {
	size := cfg.ChunkSize
	if size <= 0 {
		size = len(items)
		if size == 0 {
			size = 1
		}
	}
	chunks := ChunkCount(len(items), size)
	sum := Summary[R]{Total: len(items), Chunks: chunks, Results: make([]R, 0, len(items))}

	pacer := rate.NewLimiter(rate.Every(cfg.Pause), 1)
	for i := 0; i < chunks; i++ {
		if i > 0 {
			if err := pacer.Wait(ctx); err != nil {
				return sum, err
			}
		} else {
			pacer.Allow()
		}

		lo := i * size
		hi := min(lo+size, len(items))
		st := State[R]{
			Chunk:     i + 1,
			Chunks:    chunks,
			ChunkSize: size,
			Total:     len(items),
			Processed: sum.Succeeded + sum.Failed,
			Succeeded: sum.Succeeded,
			Failed:    sum.Failed,
		}
		msg, payload := beforeChunk(hooks, st)
		tracker.Send(progress.StatusInProgress, Percent(i, chunks), len(items), st.Processed, msg, payload)

		chunk, err := runChunk(ctx, cfg, items[lo:hi], perItem, hooks.Recover)
		if err != nil {
			return sum, err
		}
		st.ChunkResults = make([]R, 0, len(chunk))
		for _, r := range chunk {
			if !r.panicked && r.value.Succeeded() {
				sum.Succeeded++
			} else {
				sum.Failed++
			}
			sum.Results = append(sum.Results, r.value)
			st.ChunkResults = append(st.ChunkResults, r.value)
		}
		st.Processed = sum.Succeeded + sum.Failed
		st.Succeeded = sum.Succeeded
		st.Failed = sum.Failed

		msg, payload = afterChunk(hooks, st)
		tracker.Send(progress.StatusInProgress, Percent(i+1, chunks), len(items), st.Processed, msg, payload)
	}
	return sum, nil
}

func runChunk[T any, R Outcome](ctx context.Context, cfg Config, items []T, perItem func(context.Context, T) R, recoverFn func(T, any) R) ([]result[R], error) {
	out := make([]result[R], len(items))
	call := func(idx int) {
		defer func() {
			if p := recover(); p != nil {
				log.Printf("batch: item %d panicked: %v", idx, p)
				out[idx].panicked = true
				if recoverFn != nil {
					out[idx].value = recoverFn(items[idx], p)
					out[idx].panicked = !out[idx].value.Succeeded()
				}
			}
		}()
		out[idx].value = perItem(ctx, items[idx])
	}

	if !cfg.Sequential {
		var wg sync.WaitGroup
		for idx := range items {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				call(idx)
			}(idx)
		}
		wg.Wait()
		return out, nil
	}

	spacing := rate.NewLimiter(rate.Every(cfg.ItemDelay), 1)
	for idx := range items {
		if err := spacing.Wait(ctx); err != nil {
			return nil, err
		}
		call(idx)
	}
	return out, nil
}

func beforeChunk[T any, R Outcome](hooks Hooks[T, R], st State[R]) (string, map[string]any) {
	if hooks.BeforeChunk != nil {
		return hooks.BeforeChunk(st)
	}
	return fmt.Sprintf("Processing chunk %d/%d", st.Chunk, st.Chunks), map[string]any{
		"currentChunk": st.Chunk,
		"totalChunks":  st.Chunks,
		"successCount": st.Succeeded,
		"failureCount": st.Failed,
	}
}

func afterChunk[T any, R Outcome](hooks Hooks[T, R], st State[R]) (string, map[string]any) {
	if hooks.AfterChunk != nil {
		return hooks.AfterChunk(st)
	}
	msg := fmt.Sprintf("Completed chunk %d/%d. %d successful, %d failed so far.", st.Chunk, st.Chunks, st.Succeeded, st.Failed)
	return msg, map[string]any{
		"currentChunk": st.Chunk,
		"totalChunks":  st.Chunks,
		"successCount": st.Succeeded,
		"failureCount": st.Failed,
		"chunkResults": st.ChunkResults,
	}
}
