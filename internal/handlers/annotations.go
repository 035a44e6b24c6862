package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/ttfbridge/host/internal/document"
	apperrors "github.com/ttfbridge/host/internal/errors"
	"github.com/ttfbridge/host/internal/nodeutil"
	"github.com/ttfbridge/host/internal/progress"
)

type GetAnnotationsParams struct {
	NodeID            string `json:"nodeId"`
	IncludeCategories *bool  `json:"includeCategories"`
}

// NodeAnnotation is one annotation found under a node.
type NodeAnnotation struct {
	NodeID     string              `json:"nodeId"`
	Annotation document.Annotation `json:"annotation"`
}

type AnnotatedNode struct {
	NodeID      string                `json:"nodeId"`
	Name        string                `json:"name"`
	Annotations []document.Annotation `json:"annotations"`
}

// AnnotationsResult has NodeID, Name and Annotations set when a node was
// given, and AnnotatedNodes otherwise.
type AnnotationsResult struct {
	NodeID         string                        `json:"nodeId,omitempty"`
	Name           string                        `json:"name,omitempty"`
	Annotations    []NodeAnnotation              `json:"annotations,omitempty"`
	AnnotatedNodes []AnnotatedNode               `json:"annotatedNodes,omitempty"`
	Categories     []document.AnnotationCategory `json:"categories,omitempty"`
}

// GetAnnotations gathers the annotations of a node's subtree, or of every
// annotated node on the current page when no node is given.
func (h *Handlers) GetAnnotations(ctx context.Context, p GetAnnotationsParams) (*AnnotationsResult, error) {
	out := &AnnotationsResult{}
	if orDefault(p.IncludeCategories, true) {
		cats, err := h.Store.AnnotationCategories(ctx)
		if err != nil {
			return nil, apperrors.StoreFailed("Error getting annotation categories", err)
		}
		out.Categories = make([]document.AnnotationCategory, 0, len(cats))
		out.Categories = append(out.Categories, cats...)
	}

	if p.NodeID != "" {
		n, err := h.lookup(ctx, p.NodeID, "Node not found: %s")
		if err != nil {
			return nil, err
		}
		if _, ok := n.(document.Annotatable); !ok {
			return nil, apperrors.Unsupported("Node type %s does not support annotations", n.Type())
		}
		out.NodeID, out.Name = n.ID(), n.Name()
		out.Annotations = []NodeAnnotation{}
		subtree := append([]document.Node{n}, nodeutil.FindAll(n, func(document.Node) bool { return true })...)
		for _, c := range subtree {
			a, ok := c.(document.Annotatable)
			if !ok {
				continue
			}
			for _, an := range a.Annotations() {
				out.Annotations = append(out.Annotations, NodeAnnotation{NodeID: c.ID(), Annotation: an})
			}
		}
		return out, nil
	}

	out.AnnotatedNodes = []AnnotatedNode{}
	for _, c := range nodeutil.FindAll(h.Store.CurrentPage(ctx), func(document.Node) bool { return true }) {
		a, ok := c.(document.Annotatable)
		if !ok {
			continue
		}
		if list := a.Annotations(); len(list) > 0 {
			out.AnnotatedNodes = append(out.AnnotatedNodes, AnnotatedNode{NodeID: c.ID(), Name: c.Name(), Annotations: list})
		}
	}
	return out, nil
}

type ScanNodesByTypesParams struct {
	NodeID string   `json:"nodeId"`
	Types  []string `json:"types"`
}

type MatchingNode struct {
	ID   string            `json:"id"`
	Name string            `json:"name"`
	Type document.NodeType `json:"type"`
	BBox document.Rect     `json:"bbox"`
}

type ScanByTypesResult struct {
	Success       bool           `json:"success"`
	Message       string         `json:"message"`
	Count         int            `json:"count"`
	MatchingNodes []MatchingNode `json:"matchingNodes"`
	SearchedTypes []string       `json:"searchedTypes"`
}

// ScanNodesByTypes finds visible nodes of the given types, including the
// scanned node itself.
func (h *Handlers) ScanNodesByTypes(ctx context.Context, p ScanNodesByTypesParams) (*ScanByTypesResult, error) {
	if len(p.Types) == 0 {
		return nil, apperrors.Invalid("No types specified to search for")
	}
	if p.NodeID == "" {
		return nil, apperrors.MissingParam("nodeId")
	}
	n, err := h.lookup(ctx, p.NodeID, "Node with ID %s not found")
	if err != nil {
		return nil, err
	}
	tr := h.tracker("scan_nodes_by_types")
	tr.Send(progress.StatusStarted, 0, 1, 0,
		fmt.Sprintf("Starting scan of node %q for types: %s", stringOr(n.Name(), p.NodeID), strings.Join(p.Types, ", ")), nil)

	types := make([]document.NodeType, len(p.Types))
	for i, t := range p.Types {
		types[i] = document.NodeType(t)
	}
	match := nodeutil.OfTypes(types...)
	found := []MatchingNode{}
	for _, v := range nodeutil.Collect(n) {
		if !match(v.Node) {
			continue
		}
		m := MatchingNode{ID: v.Node.ID(), Name: nodeutil.DisplayName(v.Node), Type: v.Node.Type()}
		if pos, ok := v.Node.(document.Positioned); ok {
			m.BBox.X, m.BBox.Y = pos.X(), pos.Y()
		}
		if r, ok := v.Node.(document.Resizable); ok {
			m.BBox.Width, m.BBox.Height = r.Width(), r.Height()
		}
		found = append(found, m)
	}

	tr.Send(progress.StatusCompleted, 100, len(found), len(found),
		fmt.Sprintf("Scan complete. Found %d matching nodes.", len(found)),
		map[string]any{"matchingNodes": found})
	return &ScanByTypesResult{
		Success:       true,
		Message:       fmt.Sprintf("Found %d matching nodes.", len(found)),
		Count:         len(found),
		MatchingNodes: found,
		SearchedTypes: p.Types,
	}, nil
}

type AnnotationInput struct {
	NodeID        string                        `json:"nodeId"`
	LabelMarkdown string                        `json:"labelMarkdown"`
	CategoryID    string                        `json:"categoryId,omitempty"`
	Properties    []document.AnnotationProperty `json:"properties,omitempty"`
}

type SetMultipleAnnotationsParams struct {
	NodeID      string            `json:"nodeId"`
	Annotations []AnnotationInput `json:"annotations"`
}

type AnnotationOutcome struct {
	Success bool   `json:"success"`
	NodeID  string `json:"nodeId"`
	Error   string `json:"error,omitempty"`
}

type AnnotationsSummary struct {
	Success            bool                `json:"success"`
	Error              string              `json:"error,omitempty"`
	AnnotationsApplied int                 `json:"annotationsApplied"`
	AnnotationsFailed  int                 `json:"annotationsFailed"`
	TotalAnnotations   int                 `json:"totalAnnotations"`
	Results            []AnnotationOutcome `json:"results"`
}

// SetMultipleAnnotations appends markdown annotations one at a time. Failed
// entries are reported in the results and do not stop the rest.
func (h *Handlers) SetMultipleAnnotations(ctx context.Context, p SetMultipleAnnotationsParams) (*AnnotationsSummary, error) {
	if len(p.Annotations) == 0 {
		return &AnnotationsSummary{Error: "No annotations provided", Results: []AnnotationOutcome{}}, nil
	}
	out := &AnnotationsSummary{TotalAnnotations: len(p.Annotations), Results: make([]AnnotationOutcome, 0, len(p.Annotations))}
	for _, in := range p.Annotations {
		res := AnnotationOutcome{NodeID: in.NodeID}
		if err := h.annotate(ctx, in); err != nil {
			res.Error = err.Error()
			out.AnnotationsFailed++
		} else {
			res.Success = true
			out.AnnotationsApplied++
		}
		out.Results = append(out.Results, res)
	}
	out.Success = out.AnnotationsApplied > 0
	return out, nil
}

func (h *Handlers) annotate(ctx context.Context, in AnnotationInput) error {
	if in.NodeID == "" {
		return fmt.Errorf("Missing nodeId parameter")
	}
	if in.LabelMarkdown == "" {
		return fmt.Errorf("Missing labelMarkdown parameter")
	}
	n, err := h.Store.NodeByID(ctx, in.NodeID)
	if err != nil {
		return fmt.Errorf("Node not found: %s", in.NodeID)
	}
	a, ok := n.(document.Annotatable)
	if !ok {
		return fmt.Errorf("Node type %s does not support annotations", n.Type())
	}
	an := document.Annotation{
		Label:      &document.AnnotationLabel{Type: "MARKDOWN", Content: in.LabelMarkdown},
		CategoryID: in.CategoryID,
		Properties: in.Properties,
	}
	return a.SetAnnotations(append(a.Annotations(), an))
}
