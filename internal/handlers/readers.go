package handlers

import (
	"context"

	"github.com/ttfbridge/host/internal/document"
	apperrors "github.com/ttfbridge/host/internal/errors"
	"github.com/ttfbridge/host/internal/nodeutil"
)

type PageInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ChildCount int    `json:"childCount"`
}

type DocumentInfo struct {
	Name        string            `json:"name"`
	ID          string            `json:"id"`
	Type        document.NodeType `json:"type"`
	Children    []NodeRef         `json:"children"`
	CurrentPage PageInfo          `json:"currentPage"`
	Pages       []PageInfo        `json:"pages"`
}

// GetDocumentInfo describes the current page and its top-level children.
func (h *Handlers) GetDocumentInfo(ctx context.Context, _ struct{}) (*DocumentInfo, error) {
	page := h.Store.CurrentPage(ctx)
	children := page.Children()
	info := &DocumentInfo{
		Name:     page.Name(),
		ID:       page.ID(),
		Type:     page.Type(),
		Children: make([]NodeRef, 0, len(children)),
	}
	for _, c := range children {
		info.Children = append(info.Children, refOf(c))
	}
	pi := PageInfo{ID: page.ID(), Name: page.Name(), ChildCount: len(children)}
	info.CurrentPage = pi
	info.Pages = []PageInfo{pi}
	return info, nil
}

type SelectedNode struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Type    document.NodeType `json:"type"`
	Visible bool              `json:"visible"`
}

type SelectionInfo struct {
	SelectionCount int            `json:"selectionCount"`
	Selection      []SelectedNode `json:"selection"`
}

func (h *Handlers) GetSelection(ctx context.Context, _ struct{}) (*SelectionInfo, error) {
	sel := h.Store.Selection(ctx)
	out := &SelectionInfo{SelectionCount: len(sel), Selection: make([]SelectedNode, 0, len(sel))}
	for _, n := range sel {
		out.Selection = append(out.Selection, SelectedNode{ID: n.ID(), Name: n.Name(), Type: n.Type(), Visible: n.Visible()})
	}
	return out, nil
}

type NodesInfoParams struct {
	NodeIDs []string `json:"nodeIds"`
}

// NodeDocument pairs a node id with its serialized subtree.
type NodeDocument struct {
	NodeID   string                `json:"nodeId"`
	Document *nodeutil.Serialized `json:"document"`
}

// GetNodesInfo serializes each node in p.NodeIDs. Ids that do not resolve
// are skipped.
func (h *Handlers) GetNodesInfo(ctx context.Context, p NodesInfoParams) ([]NodeDocument, error) {
	if p.NodeIDs == nil {
		return nil, apperrors.Invalid(apperrors.MsgMissingNodeIDs)
	}
	out := make([]NodeDocument, 0, len(p.NodeIDs))
	for _, id := range p.NodeIDs {
		n, err := h.Store.NodeByID(ctx, id)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, apperrors.StoreFailed("Error getting nodes info", ctxErr)
			}
			continue
		}
		out = append(out, NodeDocument{NodeID: n.ID(), Document: nodeutil.Serialize(n)})
	}
	return out, nil
}

// ReadMyDesign serializes the current selection.
func (h *Handlers) ReadMyDesign(ctx context.Context, _ struct{}) ([]NodeDocument, error) {
	sel := h.Store.Selection(ctx)
	out := make([]NodeDocument, 0, len(sel))
	for _, n := range sel {
		out = append(out, NodeDocument{NodeID: n.ID(), Document: nodeutil.Serialize(n)})
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.StoreFailed("Error getting nodes info", err)
	}
	return out, nil
}
