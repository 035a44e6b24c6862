package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/ttfbridge/host/internal/batch"
	"github.com/ttfbridge/host/internal/document"
	apperrors "github.com/ttfbridge/host/internal/errors"
	"github.com/ttfbridge/host/internal/progress"
)

type MoveNodeParams struct {
	NodeID string   `json:"nodeId"`
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
}

type MovedNode struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// MoveNode sets a node's position relative to its parent.
func (h *Handlers) MoveNode(ctx context.Context, p MoveNodeParams) (*MovedNode, error) {
	if p.NodeID == "" {
		return nil, apperrors.MissingParam("nodeId")
	}
	if p.X == nil || p.Y == nil {
		return nil, apperrors.New(apperrors.CodeMissingParam, "Missing x or y parameters")
	}
	n, err := h.node(ctx, p.NodeID)
	if err != nil {
		return nil, err
	}
	pos, ok := n.(document.Positioned)
	if !ok {
		return nil, apperrors.Unsupported("Node does not support position: %s", p.NodeID)
	}
	pos.SetPosition(*p.X, *p.Y)
	return &MovedNode{ID: n.ID(), Name: n.Name(), X: pos.X(), Y: pos.Y()}, nil
}

type ResizeNodeParams struct {
	NodeID string   `json:"nodeId"`
	Width  *float64 `json:"width"`
	Height *float64 `json:"height"`
}

type ResizedNode struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (h *Handlers) ResizeNode(ctx context.Context, p ResizeNodeParams) (*ResizedNode, error) {
	if p.NodeID == "" {
		return nil, apperrors.MissingParam("nodeId")
	}
	if p.Width == nil || p.Height == nil {
		return nil, apperrors.New(apperrors.CodeMissingParam, "Missing width or height parameters")
	}
	n, err := h.node(ctx, p.NodeID)
	if err != nil {
		return nil, err
	}
	r, ok := n.(document.Resizable)
	if !ok {
		return nil, apperrors.Unsupported("Node does not support resizing: %s", p.NodeID)
	}
	if err := r.Resize(*p.Width, *p.Height); err != nil {
		return nil, apperrors.StoreFailed("Error resizing node", err)
	}
	return &ResizedNode{ID: n.ID(), Name: n.Name(), Width: r.Width(), Height: r.Height()}, nil
}

type SetNodeNameParams struct {
	NodeID string  `json:"nodeId"`
	Name   *string `json:"name"`
}

type RenamedNode struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OldName string `json:"oldName"`
}

func (h *Handlers) SetNodeName(ctx context.Context, p SetNodeNameParams) (*RenamedNode, error) {
	if p.NodeID == "" {
		return nil, apperrors.MissingParam("nodeId")
	}
	if p.Name == nil {
		return nil, apperrors.MissingParam("name")
	}
	n, err := h.node(ctx, p.NodeID)
	if err != nil {
		return nil, err
	}
	old := n.Name()
	n.SetName(*p.Name)
	return &RenamedNode{ID: n.ID(), Name: n.Name(), OldName: old}, nil
}

type DeleteMultipleNodesParams struct {
	NodeIDs []string `json:"nodeIds"`
}

// DeleteOutcome is the per-node record of a batch delete.
type DeleteOutcome struct {
	Success  bool     `json:"success"`
	NodeID   string   `json:"nodeId"`
	Error    string   `json:"error,omitempty"`
	NodeInfo *NodeRef `json:"nodeInfo,omitempty"`
}

func (o DeleteOutcome) Succeeded() bool { return o.Success }

type DeleteSummary struct {
	Success           bool            `json:"success"`
	NodesDeleted      int             `json:"nodesDeleted"`
	NodesFailed       int             `json:"nodesFailed"`
	TotalNodes        int             `json:"totalNodes"`
	Results           []DeleteOutcome `json:"results"`
	CompletedInChunks int             `json:"completedInChunks"`
	CommandID         string          `json:"commandId"`
}

// DeleteMultipleNodes removes nodes in paced chunks. A node that cannot be
// deleted is reported in its result record and does not stop the batch.
func (h *Handlers) DeleteMultipleNodes(ctx context.Context, p DeleteMultipleNodesParams) (*DeleteSummary, error) {
	if len(p.NodeIDs) == 0 {
		return nil, apperrors.Invalid("Missing or invalid nodeIds parameter")
	}
	cfg := h.Config.Delete
	tr := h.tracker("delete_multiple_nodes")
	chunks := batch.ChunkCount(len(p.NodeIDs), cfg.ChunkSize)
	tr.Send(progress.StatusStarted, 0, len(p.NodeIDs), 0,
		fmt.Sprintf("Starting deletion of %d nodes", len(p.NodeIDs)),
		map[string]any{"totalNodes": len(p.NodeIDs), "totalChunks": chunks, "chunkSize": cfg.ChunkSize})

	sum, err := batch.Run(ctx, cfg, tr, p.NodeIDs, h.deleteOne, batch.Hooks[string, DeleteOutcome]{
		BeforeChunk: func(st batch.State[DeleteOutcome]) (string, map[string]any) {
			return fmt.Sprintf("Processing deletion chunk %d/%d", st.Chunk, st.Chunks), map[string]any{
				"currentChunk": st.Chunk,
				"totalChunks":  st.Chunks,
				"successCount": st.Succeeded,
				"failureCount": st.Failed,
			}
		},
		Recover: func(id string, r any) DeleteOutcome {
			return DeleteOutcome{NodeID: id, Error: fmt.Sprintf("Error deleting node: %v", r)}
		},
	})
	if err != nil {
		return nil, apperrors.StoreFailed("Node deletion interrupted", err)
	}

	tr.Send(progress.StatusCompleted, 100, sum.Total, sum.Total,
		fmt.Sprintf("Node deletion complete: %d successful, %d failed", sum.Succeeded, sum.Failed),
		map[string]any{
			"totalNodes":        sum.Total,
			"nodesDeleted":      sum.Succeeded,
			"nodesFailed":       sum.Failed,
			"completedInChunks": sum.Chunks,
			"results":           sum.Results,
		})
	return &DeleteSummary{
		Success:           sum.Success(),
		NodesDeleted:      sum.Succeeded,
		NodesFailed:       sum.Failed,
		TotalNodes:        sum.Total,
		Results:           sum.Results,
		CompletedInChunks: sum.Chunks,
		CommandID:         tr.ID,
	}, nil
}

func (h *Handlers) deleteOne(ctx context.Context, id string) DeleteOutcome {
	n, err := h.Store.NodeByID(ctx, id)
	if err != nil {
		if !errors.Is(err, document.ErrNotFound) {
			log.Printf("handlers: resolving %s for deletion: %v", id, err)
		}
		return DeleteOutcome{NodeID: id, Error: "Node not found: " + id}
	}
	info := refOf(n)
	if err := n.Remove(); err != nil {
		return DeleteOutcome{NodeID: id, Error: "Error deleting node: " + err.Error()}
	}
	return DeleteOutcome{Success: true, NodeID: id, NodeInfo: &info}
}

type SetSelectionsParams struct {
	NodeIDs []string `json:"nodeIds"`
}

type NameID struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type SelectionResult struct {
	Success       bool     `json:"success"`
	Count         int      `json:"count"`
	SelectedNodes []NameID `json:"selectedNodes"`
	NotFoundIDs   []string `json:"notFoundIds"`
	Message       string   `json:"message"`
}

// SetSelections selects the nodes that resolve and scrolls them into view.
func (h *Handlers) SetSelections(ctx context.Context, p SetSelectionsParams) (*SelectionResult, error) {
	if p.NodeIDs == nil {
		return nil, apperrors.Invalid("Missing or invalid nodeIds parameter")
	}
	if len(p.NodeIDs) == 0 {
		return nil, apperrors.Invalid("nodeIds array cannot be empty")
	}
	var (
		found    []document.Node
		notFound []string
	)
	for _, id := range p.NodeIDs {
		n, err := h.Store.NodeByID(ctx, id)
		if err != nil {
			notFound = append(notFound, id)
			continue
		}
		found = append(found, n)
	}
	if len(found) == 0 {
		return nil, apperrors.NotFoundf("No valid nodes found for the provided IDs: %s", strings.Join(p.NodeIDs, ", "))
	}
	if err := h.Store.SetSelection(ctx, found); err != nil {
		return nil, apperrors.StoreFailed("Error setting selection", err)
	}
	if err := h.Store.ScrollAndZoomIntoView(ctx, found); err != nil {
		return nil, apperrors.StoreFailed("Error scrolling to selection", err)
	}

	out := &SelectionResult{Success: true, Count: len(found), NotFoundIDs: notFound}
	if out.NotFoundIDs == nil {
		out.NotFoundIDs = []string{}
	}
	for _, n := range found {
		out.SelectedNodes = append(out.SelectedNodes, NameID{Name: n.Name(), ID: n.ID()})
	}
	out.Message = fmt.Sprintf("Selected %d nodes", len(found))
	if len(notFound) > 0 {
		out.Message += fmt.Sprintf(" (%d not found)", len(notFound))
	}
	return out, nil
}
