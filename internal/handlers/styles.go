package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/ttfbridge/host/internal/document"
	apperrors "github.com/ttfbridge/host/internal/errors"
)

// StyleProperties are the type-specific fields of a new style. Only the
// fields matching the style type are used.
type StyleProperties struct {
	FontName         *document.FontName `json:"fontName"`
	FontSize         float64            `json:"fontSize"`
	LineHeight       any                `json:"lineHeight"`
	LetterSpacing    any                `json:"letterSpacing"`
	ParagraphIndent  float64            `json:"paragraphIndent"`
	ParagraphSpacing float64            `json:"paragraphSpacing"`
	TextCase         string             `json:"textCase"`
	TextDecoration   string             `json:"textDecoration"`
	Paints           []document.Paint   `json:"paints"`
	Effects          []document.Effect  `json:"effects"`
	LayoutGrids      []map[string]any   `json:"layoutGrids"`
}

type CreateStyleParams struct {
	Type        string           `json:"type"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Properties  *StyleProperties `json:"properties"`
}

type CreatedStyle struct {
	ID   string             `json:"id"`
	Name string             `json:"name"`
	Type document.StyleType `json:"type"`
}

// CreateStyle adds a local paint, text, effect or grid style.
func (h *Handlers) CreateStyle(ctx context.Context, p CreateStyleParams) (*CreatedStyle, error) {
	if p.Type == "" || p.Name == "" {
		return nil, apperrors.New(apperrors.CodeMissingParam, "Missing required parameters: type and name are required.")
	}
	st := document.Style{Name: p.Name, Description: p.Description}
	props := StyleProperties{}
	if p.Properties != nil {
		props = *p.Properties
	}
	switch document.StyleType(strings.ToUpper(p.Type)) {
	case document.StyleText:
		st.Type = document.StyleText
		if props.FontName != nil {
			if err := h.Store.LoadFont(ctx, *props.FontName); err != nil {
				return nil, apperrors.StoreFailed("Error loading font", err)
			}
		}
		st.FontName = props.FontName
		st.FontSize = props.FontSize
		st.LineHeight = props.LineHeight
		st.LetterSpacing = props.LetterSpacing
		st.ParagraphIndent = props.ParagraphIndent
		st.ParagraphSpacing = props.ParagraphSpacing
		st.TextCase = props.TextCase
		st.TextDecoration = props.TextDecoration
	case document.StylePaint:
		st.Type = document.StylePaint
		st.Paints = props.Paints
	case document.StyleEffect:
		st.Type = document.StyleEffect
		st.Effects = props.Effects
	case document.StyleGrid:
		st.Type = document.StyleGrid
		st.LayoutGrids = props.LayoutGrids
	default:
		return nil, apperrors.Invalidf("Unsupported style type: %s", p.Type)
	}
	created, err := h.Store.CreateStyle(ctx, st)
	if err != nil {
		return nil, apperrors.StoreFailed("Error creating style", err)
	}
	return &CreatedStyle{ID: created.ID, Name: created.Name, Type: created.Type}, nil
}

type ApplyStyleParams struct {
	NodeID    string `json:"nodeId"`
	StyleID   string `json:"styleId"`
	StyleType string `json:"styleType"`
}

// ApplyStyle links a node slot (FILL, STROKE, TEXT, EFFECT or GRID) to a
// shared style.
func (h *Handlers) ApplyStyle(ctx context.Context, p ApplyStyleParams) (*MessageResult, error) {
	if p.NodeID == "" || p.StyleID == "" || p.StyleType == "" {
		return nil, apperrors.New(apperrors.CodeMissingParam, "Missing required parameters: nodeId, styleId, and styleType are required.")
	}
	n, err := h.lookup(ctx, p.NodeID, "Node with ID %s not found.")
	if err != nil {
		return nil, err
	}
	kind := document.StyleKind(strings.ToUpper(p.StyleType))
	target, ok := n.(document.StyleTarget)
	switch kind {
	case document.StyleKindText:
		if n.Type() != document.TypeText || !ok {
			return nil, apperrors.Unsupported("Target node must be a Text node to apply specific text styles.")
		}
		if err := h.loadStyleFont(ctx, p.StyleID); err != nil {
			return nil, err
		}
	case document.StyleKindFill, document.StyleKindStroke, document.StyleKindEffect, document.StyleKindGrid:
		if !ok || !supportsStyleKind(n, kind) {
			return nil, apperrors.Unsupported("Target node does not support %s styles.", strings.ToLower(string(kind)))
		}
	default:
		return nil, apperrors.Invalidf("Unsupported style type target: %s", p.StyleType)
	}
	if err := target.SetStyleID(kind, p.StyleID); err != nil {
		return nil, apperrors.StoreFailed("Error applying style", err)
	}
	return &MessageResult{Success: true, Message: fmt.Sprintf("Style %s applied to node %s", p.StyleID, p.NodeID)}, nil
}

func supportsStyleKind(n document.Node, kind document.StyleKind) bool {
	switch kind {
	case document.StyleKindFill:
		_, ok := n.(document.Fillable)
		return ok
	case document.StyleKindStroke:
		_, ok := n.(document.Strokable)
		return ok
	case document.StyleKindEffect:
		_, ok := n.(document.Effected)
		return ok
	case document.StyleKindGrid:
		_, ok := n.(document.AutoLayout)
		return ok
	}
	return false
}

// loadStyleFont loads the font of a local text style so it can be applied.
func (h *Handlers) loadStyleFont(ctx context.Context, styleID string) error {
	styles, err := h.Store.LocalTextStyles(ctx)
	if err != nil {
		return apperrors.StoreFailed("Error getting text styles", err)
	}
	for _, s := range styles {
		if s.ID == styleID && s.FontName != nil {
			if err := h.Store.LoadFont(ctx, *s.FontName); err != nil {
				return apperrors.StoreFailed("Error loading style font", err)
			}
		}
	}
	return nil
}
