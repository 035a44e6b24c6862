package handlers

import (
	"context"
	"slices"

	"github.com/ttfbridge/host/internal/document"
	apperrors "github.com/ttfbridge/host/internal/errors"
)

var (
	primaryAxisValues = []string{"MIN", "MAX", "CENTER", "SPACE_BETWEEN"}
	counterAxisValues = []string{"MIN", "MAX", "CENTER", "BASELINE"}
	sizingValues      = []string{"FIXED", "HUG", "FILL"}
)

// layoutTarget resolves a frame-like node. feature completes the
// capability mismatch message.
func (h *Handlers) layoutTarget(ctx context.Context, id, feature string) (document.AutoLayout, error) {
	if id == "" {
		return nil, apperrors.MissingParam("nodeId")
	}
	n, err := h.lookup(ctx, id, "Node with ID %s not found")
	if err != nil {
		return nil, err
	}
	al, ok := n.(document.AutoLayout)
	if !document.IsFrameLike(n.Type()) || !ok {
		return nil, apperrors.Unsupported("Node type %s does not support %s", n.Type(), feature)
	}
	return al, nil
}

// autoLayoutTarget is layoutTarget for properties that need layoutMode set.
func (h *Handlers) autoLayoutTarget(ctx context.Context, id, feature, label string) (document.AutoLayout, document.Layout, error) {
	al, err := h.layoutTarget(ctx, id, feature)
	if err != nil {
		return nil, document.Layout{}, err
	}
	l := al.Layout()
	if l.Mode == "NONE" {
		return nil, l, apperrors.Unsupported("%s can only be set on auto-layout frames (layoutMode must not be NONE)", label)
	}
	return al, l, nil
}

func applyLayout(al document.AutoLayout, l document.Layout) error {
	if err := al.SetLayout(l); err != nil {
		return apperrors.Invalid(err.Error())
	}
	return nil
}

type SetLayoutModeParams struct {
	NodeID     string `json:"nodeId"`
	LayoutMode string `json:"layoutMode"`
	LayoutWrap string `json:"layoutWrap"`
}

type LayoutModeResult struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	LayoutMode string `json:"layoutMode"`
	LayoutWrap string `json:"layoutWrap"`
}

// SetLayoutMode switches auto-layout on or off. The wrap setting is only
// written when a layout mode is active.
func (h *Handlers) SetLayoutMode(ctx context.Context, p SetLayoutModeParams) (*LayoutModeResult, error) {
	al, err := h.layoutTarget(ctx, p.NodeID, "layoutMode")
	if err != nil {
		return nil, err
	}
	l := al.Layout()
	l.Mode = stringOr(p.LayoutMode, "NONE")
	if l.Mode != "NONE" {
		l.Wrap = stringOr(p.LayoutWrap, "NO_WRAP")
	}
	if err := applyLayout(al, l); err != nil {
		return nil, err
	}
	l = al.Layout()
	return &LayoutModeResult{ID: al.ID(), Name: al.Name(), LayoutMode: l.Mode, LayoutWrap: l.Wrap}, nil
}

type SetPaddingParams struct {
	NodeID        string   `json:"nodeId"`
	PaddingTop    *float64 `json:"paddingTop"`
	PaddingRight  *float64 `json:"paddingRight"`
	PaddingBottom *float64 `json:"paddingBottom"`
	PaddingLeft   *float64 `json:"paddingLeft"`
}

type PaddingResult struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	PaddingTop    float64 `json:"paddingTop"`
	PaddingRight  float64 `json:"paddingRight"`
	PaddingBottom float64 `json:"paddingBottom"`
	PaddingLeft   float64 `json:"paddingLeft"`
}

func (h *Handlers) SetPadding(ctx context.Context, p SetPaddingParams) (*PaddingResult, error) {
	al, l, err := h.autoLayoutTarget(ctx, p.NodeID, "padding", "Padding")
	if err != nil {
		return nil, err
	}
	l.PaddingTop = orDefault(p.PaddingTop, l.PaddingTop)
	l.PaddingRight = orDefault(p.PaddingRight, l.PaddingRight)
	l.PaddingBottom = orDefault(p.PaddingBottom, l.PaddingBottom)
	l.PaddingLeft = orDefault(p.PaddingLeft, l.PaddingLeft)
	if err := applyLayout(al, l); err != nil {
		return nil, err
	}
	l = al.Layout()
	return &PaddingResult{
		ID:            al.ID(),
		Name:          al.Name(),
		PaddingTop:    l.PaddingTop,
		PaddingRight:  l.PaddingRight,
		PaddingBottom: l.PaddingBottom,
		PaddingLeft:   l.PaddingLeft,
	}, nil
}

type SetAxisAlignParams struct {
	NodeID                string  `json:"nodeId"`
	PrimaryAxisAlignItems *string `json:"primaryAxisAlignItems"`
	CounterAxisAlignItems *string `json:"counterAxisAlignItems"`
}

type AxisAlignResult struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	PrimaryAxisAlignItems string `json:"primaryAxisAlignItems"`
	CounterAxisAlignItems string `json:"counterAxisAlignItems"`
	LayoutMode            string `json:"layoutMode"`
}

// SetAxisAlign sets the alignment of children along both layout axes.
// BASELINE is only accepted on horizontal layouts.
func (h *Handlers) SetAxisAlign(ctx context.Context, p SetAxisAlignParams) (*AxisAlignResult, error) {
	al, l, err := h.autoLayoutTarget(ctx, p.NodeID, "axis alignment", "Axis alignment")
	if err != nil {
		return nil, err
	}
	if v := p.PrimaryAxisAlignItems; v != nil {
		if !slices.Contains(primaryAxisValues, *v) {
			return nil, apperrors.Invalid("Invalid primaryAxisAlignItems value. Must be one of: MIN, MAX, CENTER, SPACE_BETWEEN")
		}
		l.PrimaryAxisAlignItems = *v
	}
	if v := p.CounterAxisAlignItems; v != nil {
		if !slices.Contains(counterAxisValues, *v) {
			return nil, apperrors.Invalid("Invalid counterAxisAlignItems value. Must be one of: MIN, MAX, CENTER, BASELINE")
		}
		if *v == "BASELINE" && l.Mode != "HORIZONTAL" {
			return nil, apperrors.Invalid("BASELINE alignment is only valid for horizontal auto-layout frames")
		}
		l.CounterAxisAlignItems = *v
	}
	if err := applyLayout(al, l); err != nil {
		return nil, err
	}
	l = al.Layout()
	return &AxisAlignResult{
		ID:                    al.ID(),
		Name:                  al.Name(),
		PrimaryAxisAlignItems: l.PrimaryAxisAlignItems,
		CounterAxisAlignItems: l.CounterAxisAlignItems,
		LayoutMode:            l.Mode,
	}, nil
}

type SetLayoutSizingParams struct {
	NodeID                 string  `json:"nodeId"`
	LayoutSizingHorizontal *string `json:"layoutSizingHorizontal"`
	LayoutSizingVertical   *string `json:"layoutSizingVertical"`
}

type LayoutSizingResult struct {
	ID                     string `json:"id"`
	Name                   string `json:"name"`
	LayoutSizingHorizontal string `json:"layoutSizingHorizontal"`
	LayoutSizingVertical   string `json:"layoutSizingVertical"`
	LayoutMode             string `json:"layoutMode"`
}

// SetLayoutSizing sets the horizontal and vertical resizing behavior. HUG
// needs a frame or text node and FILL needs an auto-layout parent.
func (h *Handlers) SetLayoutSizing(ctx context.Context, p SetLayoutSizingParams) (*LayoutSizingResult, error) {
	al, l, err := h.autoLayoutTarget(ctx, p.NodeID, "layout sizing", "Layout sizing")
	if err != nil {
		return nil, err
	}
	check := func(axis, v string) error {
		if !slices.Contains(sizingValues, v) {
			return apperrors.Invalidf("Invalid layoutSizing%s value. Must be one of: FIXED, HUG, FILL", axis)
		}
		if v == "HUG" && al.Type() != document.TypeFrame && al.Type() != document.TypeText {
			return apperrors.Invalid("HUG sizing is only valid on auto-layout frames and text nodes")
		}
		if v == "FILL" && !hasAutoLayoutParent(al) {
			return apperrors.Invalid("FILL sizing is only valid on auto-layout children")
		}
		return nil
	}
	if v := p.LayoutSizingHorizontal; v != nil {
		if err := check("Horizontal", *v); err != nil {
			return nil, err
		}
		l.SizingHorizontal = *v
	}
	if v := p.LayoutSizingVertical; v != nil {
		if err := check("Vertical", *v); err != nil {
			return nil, err
		}
		l.SizingVertical = *v
	}
	if err := applyLayout(al, l); err != nil {
		return nil, err
	}
	l = al.Layout()
	return &LayoutSizingResult{
		ID:                     al.ID(),
		Name:                   al.Name(),
		LayoutSizingHorizontal: l.SizingHorizontal,
		LayoutSizingVertical:   l.SizingVertical,
		LayoutMode:             l.Mode,
	}, nil
}

func hasAutoLayoutParent(n document.Node) bool {
	parent, ok := n.Parent().(document.AutoLayout)
	return ok && parent.Layout().Mode != "NONE"
}

type SetItemSpacingParams struct {
	NodeID             string   `json:"nodeId"`
	ItemSpacing        *float64 `json:"itemSpacing"`
	CounterAxisSpacing *float64 `json:"counterAxisSpacing"`
}

type ItemSpacingResult struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	ItemSpacing        *float64 `json:"itemSpacing,omitempty"`
	CounterAxisSpacing *float64 `json:"counterAxisSpacing,omitempty"`
	LayoutMode         string   `json:"layoutMode"`
	LayoutWrap         string   `json:"layoutWrap"`
}

// SetItemSpacing sets the gap between children, and between wrapped rows
// when the layout wraps.
func (h *Handlers) SetItemSpacing(ctx context.Context, p SetItemSpacingParams) (*ItemSpacingResult, error) {
	if p.ItemSpacing == nil && p.CounterAxisSpacing == nil {
		return nil, apperrors.New(apperrors.CodeMissingParam, "At least one of itemSpacing or counterAxisSpacing must be provided")
	}
	al, l, err := h.autoLayoutTarget(ctx, p.NodeID, "item spacing", "Item spacing")
	if err != nil {
		return nil, err
	}
	if p.ItemSpacing != nil {
		l.ItemSpacing = *p.ItemSpacing
	}
	if p.CounterAxisSpacing != nil {
		if l.Wrap != "WRAP" {
			return nil, apperrors.Invalid("Counter axis spacing can only be set on frames with layoutWrap set to WRAP")
		}
		l.CounterAxisSpacing = ptr(*p.CounterAxisSpacing)
	}
	if err := applyLayout(al, l); err != nil {
		return nil, err
	}
	l = al.Layout()
	out := &ItemSpacingResult{ID: al.ID(), Name: al.Name(), LayoutMode: l.Mode, LayoutWrap: l.Wrap}
	if l.ItemSpacing != 0 {
		out.ItemSpacing = ptr(l.ItemSpacing)
	}
	if l.CounterAxisSpacing != nil && *l.CounterAxisSpacing != 0 {
		out.CounterAxisSpacing = l.CounterAxisSpacing
	}
	return out, nil
}
