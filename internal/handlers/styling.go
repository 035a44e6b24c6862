package handlers

import (
	"context"

	"github.com/ttfbridge/host/internal/document"
	apperrors "github.com/ttfbridge/host/internal/errors"
)

// Color is an RGBA color parameter with 0..1 channels. A missing alpha
// means opaque; an explicit 0 stays transparent.
type Color struct {
	R float64  `json:"r"`
	G float64  `json:"g"`
	B float64  `json:"b"`
	A *float64 `json:"a,omitempty"`
}

func (c Color) alpha() float64 {
	if c.A == nil {
		return 1
	}
	return *c.A
}

func (c Color) paint() document.Paint {
	return document.SolidPaint(c.R, c.G, c.B, c.alpha())
}

type SetFillColorParams struct {
	NodeID string `json:"nodeId"`
	Color  *Color `json:"color"`
}

type FillResult struct {
	ID    string           `json:"id"`
	Name  string           `json:"name"`
	Fills []document.Paint `json:"fills"`
}

// SetFillColor replaces the fills of a node with one solid paint.
func (h *Handlers) SetFillColor(ctx context.Context, p SetFillColorParams) (*FillResult, error) {
	if p.NodeID == "" {
		return nil, apperrors.MissingParam("nodeId")
	}
	if p.Color == nil {
		return nil, apperrors.MissingParam("color")
	}
	n, err := h.node(ctx, p.NodeID)
	if err != nil {
		return nil, err
	}
	f, ok := n.(document.Fillable)
	if !ok {
		return nil, apperrors.Unsupported("Node does not support fills: %s", p.NodeID)
	}
	if err := f.SetFills([]document.Paint{p.Color.paint()}); err != nil {
		return nil, apperrors.StoreFailed("Error setting fill color", err)
	}
	return &FillResult{ID: n.ID(), Name: n.Name(), Fills: f.Fills()}, nil
}

type SetStrokeColorParams struct {
	NodeID string   `json:"nodeId"`
	Color  *Color   `json:"color"`
	Weight *float64 `json:"weight"`
}

type StrokeResult struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Strokes      []document.Paint `json:"strokes"`
	StrokeWeight float64          `json:"strokeWeight"`
}

// SetStrokeColor replaces the strokes of a node. Missing channels default to
// black and the weight defaults to 1.
func (h *Handlers) SetStrokeColor(ctx context.Context, p SetStrokeColorParams) (*StrokeResult, error) {
	if p.NodeID == "" {
		return nil, apperrors.MissingParam("nodeId")
	}
	color := Color{}
	if p.Color != nil {
		color = *p.Color
	}
	n, err := h.node(ctx, p.NodeID)
	if err != nil {
		return nil, err
	}
	s, ok := n.(document.Strokable)
	if !ok {
		return nil, apperrors.Unsupported("Node does not support strokes: %s", p.NodeID)
	}
	if err := s.SetStrokes([]document.Paint{color.paint()}); err != nil {
		return nil, apperrors.StoreFailed("Error setting stroke color", err)
	}
	if err := s.SetStrokeWeight(orDefault(p.Weight, 1)); err != nil {
		return nil, apperrors.StoreFailed("Error setting stroke weight", err)
	}
	return &StrokeResult{ID: n.ID(), Name: n.Name(), Strokes: s.Strokes(), StrokeWeight: s.StrokeWeight()}, nil
}

type SetCornerRadiusParams struct {
	NodeID string   `json:"nodeId"`
	Radius *float64 `json:"radius"`
	// Corners masks topLeft, topRight, bottomRight, bottomLeft.
	Corners []bool `json:"corners"`
}

type CornerResult struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	CornerRadius *float64 `json:"cornerRadius,omitempty"`
	*document.Corners
}

// SetCornerRadius sets a uniform radius, or only the masked corners when a
// four-entry mask is given and the node supports per-corner radii.
func (h *Handlers) SetCornerRadius(ctx context.Context, p SetCornerRadiusParams) (*CornerResult, error) {
	if p.NodeID == "" {
		return nil, apperrors.MissingParam("nodeId")
	}
	if p.Radius == nil {
		return nil, apperrors.MissingParam("radius")
	}
	n, err := h.node(ctx, p.NodeID)
	if err != nil {
		return nil, err
	}
	cr, ok := n.(document.CornerRounded)
	if !ok {
		return nil, apperrors.Unsupported("Node does not support corner radius: %s", p.NodeID)
	}
	r := *p.Radius
	per, perOK := n.(document.PerCornerRounded)
	if len(p.Corners) == 4 && perOK {
		c := per.CornerRadii()
		if p.Corners[0] {
			c.TopLeft = r
		}
		if p.Corners[1] {
			c.TopRight = r
		}
		if p.Corners[2] {
			c.BottomRight = r
		}
		if p.Corners[3] {
			c.BottomLeft = r
		}
		err = per.SetCornerRadii(c)
	} else {
		err = cr.SetCornerRadius(r)
	}
	if err != nil {
		return nil, apperrors.StoreFailed("Error setting corner radius", err)
	}

	out := &CornerResult{ID: n.ID(), Name: n.Name()}
	if radius, mixed := cr.CornerRadius(); !mixed {
		out.CornerRadius = &radius
	}
	if perOK {
		c := per.CornerRadii()
		out.Corners = &c
	}
	return out, nil
}

type SetEffectsParams struct {
	NodeID  string            `json:"nodeId"`
	Effects []document.Effect `json:"effects"`
}

type EffectsResult struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Effects []document.Effect `json:"effects"`
}

// SetEffects replaces the effect list of a node. An empty list clears it.
func (h *Handlers) SetEffects(ctx context.Context, p SetEffectsParams) (*EffectsResult, error) {
	if p.NodeID == "" {
		return nil, apperrors.MissingParam("nodeId")
	}
	if p.Effects == nil {
		return nil, apperrors.MissingParam("effects")
	}
	n, err := h.node(ctx, p.NodeID)
	if err != nil {
		return nil, err
	}
	e, ok := n.(document.Effected)
	if !ok {
		return nil, apperrors.Unsupported("Node does not support effects: %s", p.NodeID)
	}
	if err := e.SetEffects(p.Effects); err != nil {
		return nil, apperrors.Invalidf("Error setting effects: %s", err.Error())
	}
	return &EffectsResult{ID: n.ID(), Name: n.Name(), Effects: e.Effects()}, nil
}
