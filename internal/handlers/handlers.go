// Package handlers implements the bridge commands against a document.Store.
//
// Handlers hold no state between calls. Every method re-resolves the node
// ids it is given, because a person working in the same document may move or
// delete nodes at any time. Failures are returned as *errors.CodedError so
// callers can branch on the error kind; batch commands report per-item
// failures inside their result records instead.
package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/ttfbridge/host/internal/batch"
	"github.com/ttfbridge/host/internal/document"
	apperrors "github.com/ttfbridge/host/internal/errors"
	"github.com/ttfbridge/host/internal/progress"
)

// ClientStorage is the small key-value store shared across sessions.
// storage.SQLiteStore implements it.
type ClientStorage interface {
	// GetValue decodes the value stored under key into dest. It reports
	// false when the key is absent.
	GetValue(key string, dest any) (bool, error)
	SetValue(key string, value any) error
}

// KeyDefaultConnectorID is the storage key of the connector cloned by
// create_connections.
const KeyDefaultConnectorID = "defaultConnectorId"

// Config holds the pacing of the batch commands.
type Config struct {
	// Delete paces delete_multiple_nodes.
	Delete batch.Config
	// TextReplace paces set_multiple_text_contents.
	TextReplace batch.Config
	// Scan paces scan_text_nodes when chunking is enabled. ChunkSize is the
	// default when the caller does not pass one.
	Scan batch.Config
}

// DefaultConfig returns the pacing the design-tool UI expects.
func DefaultConfig() Config {
	return Config{
		Delete:      batch.Config{ChunkSize: 5, Pause: time.Second},
		TextReplace: batch.Config{ChunkSize: 5, Pause: time.Second},
		Scan: batch.Config{
			ChunkSize:  10,
			Pause:      50 * time.Millisecond,
			Sequential: true,
			ItemDelay:  5 * time.Millisecond,
		},
	}
}

// Handlers executes commands. A zero Emitter drops progress events.
type Handlers struct {
	Store   document.Store
	Storage ClientStorage
	Emitter progress.Emitter
	Config  Config
}

// New returns Handlers using the default pacing.
func New(store document.Store, storage ClientStorage, emitter progress.Emitter) *Handlers {
	return &Handlers{
		Store:   store,
		Storage: storage,
		Emitter: emitter,
		Config:  DefaultConfig(),
	}
}

// WithEmitter returns a copy of h that reports progress to emitter.
func (h *Handlers) WithEmitter(emitter progress.Emitter) *Handlers {
	c := *h
	c.Emitter = emitter
	return &c
}

func (h *Handlers) tracker(commandType string) *progress.Tracker {
	return progress.NewTracker(commandType, h.Emitter)
}

// node resolves id, reporting a miss with the standard not-found text.
func (h *Handlers) node(ctx context.Context, id string) (document.Node, error) {
	return h.lookup(ctx, id, "Node not found with ID: %s")
}

// lookup resolves id, reporting a miss with notFound formatted with the id.
// Several commands word the not-found case differently.
func (h *Handlers) lookup(ctx context.Context, id, notFound string) (document.Node, error) {
	n, err := h.Store.NodeByID(ctx, id)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			return nil, apperrors.NotFoundf(notFound, id)
		}
		return nil, apperrors.StoreFailed("Error resolving node "+id, err)
	}
	return n, nil
}

// NodeRef is the minimal description of a node.
type NodeRef struct {
	ID   string            `json:"id"`
	Name string            `json:"name"`
	Type document.NodeType `json:"type"`
}

func refOf(n document.Node) NodeRef {
	return NodeRef{ID: n.ID(), Name: n.Name(), Type: n.Type()}
}

// parentID returns the id of n's parent, or "" for the root.
func parentID(n document.Node) string {
	if p := n.Parent(); p != nil {
		return p.ID()
	}
	return ""
}

func ptr[T any](v T) *T { return &v }

// orDefault dereferences p, or returns def when p is nil.
func orDefault[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
