package handlers

import (
	"context"

	"github.com/ttfbridge/host/internal/document"
	apperrors "github.com/ttfbridge/host/internal/errors"
	"github.com/ttfbridge/host/internal/textutil"
)

// resolveParent looks up the container new nodes are appended to. A nil
// container with a nil error means the current page.
func (h *Handlers) resolveParent(ctx context.Context, parentID string) (document.Container, error) {
	if parentID == "" {
		return nil, nil
	}
	n, err := h.lookup(ctx, parentID, "Parent node not found with ID: %s")
	if err != nil {
		return nil, err
	}
	c, ok := n.(document.Container)
	if !ok {
		return nil, apperrors.Unsupported("Parent node does not support children: %s", parentID)
	}
	return c, nil
}

func appendTo(parent document.Container, n document.Node) error {
	if parent == nil {
		return nil
	}
	if err := parent.AppendChild(n); err != nil {
		return apperrors.StoreFailed("Error appending to parent", err)
	}
	return nil
}

// Geometry is the position and size echoed by creators. Fields are omitted
// for nodes without the capability.
type Geometry struct {
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
}

func geometryOf(n document.Node) Geometry {
	var g Geometry
	if p, ok := n.(document.Positioned); ok {
		g.X, g.Y = ptr(p.X()), ptr(p.Y())
	}
	if r, ok := n.(document.Resizable); ok {
		g.Width, g.Height = ptr(r.Width()), ptr(r.Height())
	}
	return g
}

type CreateRectangleParams struct {
	X        *float64 `json:"x"`
	Y        *float64 `json:"y"`
	Width    *float64 `json:"width"`
	Height   *float64 `json:"height"`
	Name     string   `json:"name"`
	ParentID string   `json:"parentId"`
}

type CreatedNode struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Geometry
	ParentID string `json:"parentId,omitempty"`
}

func (h *Handlers) CreateRectangle(ctx context.Context, p CreateRectangleParams) (*CreatedNode, error) {
	parent, err := h.resolveParent(ctx, p.ParentID)
	if err != nil {
		return nil, err
	}
	n, err := h.Store.CreateRectangle(ctx)
	if err != nil {
		return nil, apperrors.StoreFailed("Error creating rectangle", err)
	}
	rect := n.(document.Resizable)
	rect.(document.Positioned).SetPosition(orDefault(p.X, 0), orDefault(p.Y, 0))
	if err := rect.Resize(orDefault(p.Width, 100), orDefault(p.Height, 100)); err != nil {
		return nil, apperrors.StoreFailed("Error resizing rectangle", err)
	}
	name := p.Name
	if name == "" {
		name = "Rectangle"
	}
	n.SetName(name)
	if err := appendTo(parent, n); err != nil {
		return nil, err
	}
	return &CreatedNode{ID: n.ID(), Name: n.Name(), Geometry: geometryOf(n), ParentID: parentID(n)}, nil
}

type CreateFrameParams struct {
	X                      *float64 `json:"x"`
	Y                      *float64 `json:"y"`
	Width                  *float64 `json:"width"`
	Height                 *float64 `json:"height"`
	Name                   string   `json:"name"`
	ParentID               string   `json:"parentId"`
	FillColor              *Color   `json:"fillColor"`
	StrokeColor            *Color   `json:"strokeColor"`
	StrokeWeight           *float64 `json:"strokeWeight"`
	LayoutMode             string   `json:"layoutMode"`
	LayoutWrap             string   `json:"layoutWrap"`
	PaddingTop             *float64 `json:"paddingTop"`
	PaddingRight           *float64 `json:"paddingRight"`
	PaddingBottom          *float64 `json:"paddingBottom"`
	PaddingLeft            *float64 `json:"paddingLeft"`
	PrimaryAxisAlignItems  string   `json:"primaryAxisAlignItems"`
	CounterAxisAlignItems  string   `json:"counterAxisAlignItems"`
	LayoutSizingHorizontal string   `json:"layoutSizingHorizontal"`
	LayoutSizingVertical   string   `json:"layoutSizingVertical"`
	ItemSpacing            *float64 `json:"itemSpacing"`
}

type CreatedFrame struct {
	CreatedNode
	Fills        []document.Paint `json:"fills"`
	Strokes      []document.Paint `json:"strokes"`
	StrokeWeight float64          `json:"strokeWeight"`
	LayoutMode   string           `json:"layoutMode"`
	LayoutWrap   string           `json:"layoutWrap"`
}

// CreateFrame creates a frame. Auto-layout fields only apply when
// LayoutMode is not NONE.
func (h *Handlers) CreateFrame(ctx context.Context, p CreateFrameParams) (*CreatedFrame, error) {
	parent, err := h.resolveParent(ctx, p.ParentID)
	if err != nil {
		return nil, err
	}
	n, err := h.Store.CreateFrame(ctx)
	if err != nil {
		return nil, apperrors.StoreFailed("Error creating frame", err)
	}
	n.(document.Positioned).SetPosition(orDefault(p.X, 0), orDefault(p.Y, 0))
	if err := n.(document.Resizable).Resize(orDefault(p.Width, 100), orDefault(p.Height, 100)); err != nil {
		return nil, apperrors.StoreFailed("Error resizing frame", err)
	}
	name := p.Name
	if name == "" {
		name = "Frame"
	}
	n.SetName(name)

	layout := n.(document.AutoLayout)
	l := layout.Layout()
	l.Mode = p.LayoutMode
	if l.Mode == "" {
		l.Mode = "NONE"
	}
	if l.Mode != "NONE" {
		l.Wrap = p.LayoutWrap
		if l.Wrap == "" {
			l.Wrap = "NO_WRAP"
		}
		l.PaddingTop = orDefault(p.PaddingTop, 10)
		l.PaddingRight = orDefault(p.PaddingRight, 10)
		l.PaddingBottom = orDefault(p.PaddingBottom, 10)
		l.PaddingLeft = orDefault(p.PaddingLeft, 10)
		l.PrimaryAxisAlignItems = stringOr(p.PrimaryAxisAlignItems, "MIN")
		l.CounterAxisAlignItems = stringOr(p.CounterAxisAlignItems, "MIN")
		l.SizingHorizontal = stringOr(p.LayoutSizingHorizontal, "FIXED")
		l.SizingVertical = stringOr(p.LayoutSizingVertical, "FIXED")
		l.ItemSpacing = orDefault(p.ItemSpacing, 0)
	}
	if err := layout.SetLayout(l); err != nil {
		return nil, apperrors.Invalidf("Error setting layout: %s", err.Error())
	}

	if p.FillColor != nil {
		if err := n.(document.Fillable).SetFills([]document.Paint{p.FillColor.paint()}); err != nil {
			return nil, apperrors.StoreFailed("Error setting fill", err)
		}
	}
	strokes := n.(document.Strokable)
	if p.StrokeColor != nil {
		if err := strokes.SetStrokes([]document.Paint{p.StrokeColor.paint()}); err != nil {
			return nil, apperrors.StoreFailed("Error setting stroke", err)
		}
	}
	if p.StrokeWeight != nil {
		if err := strokes.SetStrokeWeight(*p.StrokeWeight); err != nil {
			return nil, apperrors.StoreFailed("Error setting stroke weight", err)
		}
	}
	if err := appendTo(parent, n); err != nil {
		return nil, err
	}

	final := layout.Layout()
	return &CreatedFrame{
		CreatedNode:  CreatedNode{ID: n.ID(), Name: n.Name(), Geometry: geometryOf(n), ParentID: parentID(n)},
		Fills:        n.(document.Fillable).Fills(),
		Strokes:      strokes.Strokes(),
		StrokeWeight: strokes.StrokeWeight(),
		LayoutMode:   final.Mode,
		LayoutWrap:   final.Wrap,
	}, nil
}

func stringOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

type CreateTextParams struct {
	X          *float64 `json:"x"`
	Y          *float64 `json:"y"`
	Text       *string  `json:"text"`
	FontSize   *float64 `json:"fontSize"`
	FontWeight *int     `json:"fontWeight"`
	FontColor  *Color   `json:"fontColor"`
	Name       string   `json:"name"`
	ParentID   string   `json:"parentId"`
}

type CreatedText struct {
	CreatedNode
	Characters string            `json:"characters"`
	FontSize   float64           `json:"fontSize"`
	FontWeight int               `json:"fontWeight"`
	FontColor  Color             `json:"fontColor"`
	FontName   document.FontName `json:"fontName"`
	Fills      []document.Paint  `json:"fills"`
}

// CreateText creates a text node in the Inter family. The font style is
// derived from FontWeight and the name falls back to the text itself.
func (h *Handlers) CreateText(ctx context.Context, p CreateTextParams) (*CreatedText, error) {
	parent, err := h.resolveParent(ctx, p.ParentID)
	if err != nil {
		return nil, err
	}
	text := orDefault(p.Text, "Text")
	size := orDefault(p.FontSize, 14)
	weight := orDefault(p.FontWeight, 400)
	color := Color{R: 0, G: 0, B: 0, A: ptr(1.0)}
	if p.FontColor != nil {
		color = *p.FontColor
	}
	font := document.FontName{Family: "Inter", Style: textutil.FontStyleForWeight(weight)}

	n, err := h.Store.CreateText(ctx)
	if err != nil {
		return nil, apperrors.StoreFailed("Error creating text", err)
	}
	n.(document.Positioned).SetPosition(orDefault(p.X, 0), orDefault(p.Y, 0))
	name := p.Name
	if name == "" {
		name = text
	}
	n.SetName(name)

	if err := h.Store.LoadFont(ctx, font); err != nil {
		return nil, apperrors.StoreFailed("Error loading font", err)
	}
	if err := n.SetFontName(font); err != nil {
		return nil, apperrors.StoreFailed("Error setting font", err)
	}
	if err := n.SetFontSize(size); err != nil {
		return nil, apperrors.StoreFailed("Error setting font size", err)
	}
	if _, err := textutil.SetCharacters(ctx, h.Store, n, text, textutil.Options{FallbackFont: &font}); err != nil {
		return nil, apperrors.StoreFailed("Error setting characters", err)
	}
	fills := []document.Paint{color.paint()}
	if err := n.(document.Fillable).SetFills(fills); err != nil {
		return nil, apperrors.StoreFailed("Error setting text color", err)
	}
	if err := appendTo(parent, n); err != nil {
		return nil, err
	}

	current, _ := n.FontName()
	return &CreatedText{
		CreatedNode: CreatedNode{ID: n.ID(), Name: n.Name(), Geometry: geometryOf(n), ParentID: parentID(n)},
		Characters:  n.Characters(),
		FontSize:    n.FontSize(),
		FontWeight:  weight,
		FontColor:   color,
		FontName:    current,
		Fills:       n.(document.Fillable).Fills(),
	}, nil
}

type CloneNodeParams struct {
	NodeID string   `json:"nodeId"`
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
}

type ClonedNode struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Geometry
}

// CloneNode duplicates a node next to the original. The clone is moved only
// when both X and Y are given.
func (h *Handlers) CloneNode(ctx context.Context, p CloneNodeParams) (*ClonedNode, error) {
	if p.NodeID == "" {
		return nil, apperrors.MissingParam("nodeId")
	}
	n, err := h.node(ctx, p.NodeID)
	if err != nil {
		return nil, err
	}
	clone, err := n.Clone()
	if err != nil {
		return nil, apperrors.StoreFailed("Error cloning node", err)
	}
	if parent, ok := n.Parent().(document.Container); ok && parent.Type() != document.TypePage {
		if err := parent.AppendChild(clone); err != nil {
			return nil, apperrors.StoreFailed("Error appending clone", err)
		}
	}
	if p.X != nil && p.Y != nil {
		pos, ok := clone.(document.Positioned)
		if !ok {
			return nil, apperrors.Unsupported("Cloned node does not support position: %s", p.NodeID)
		}
		pos.SetPosition(*p.X, *p.Y)
	}
	return &ClonedNode{ID: clone.ID(), Name: clone.Name(), Geometry: geometryOf(clone)}, nil
}

type CreateComponentInstanceParams struct {
	ComponentKey string   `json:"componentKey"`
	X            *float64 `json:"x"`
	Y            *float64 `json:"y"`
	ParentID     string   `json:"parentId"`
}

type CreatedInstance struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Geometry
	ComponentID string `json:"componentId"`
	ParentID    string `json:"parentId,omitempty"`
}

// CreateComponentInstance imports a component by library key and places an
// instance of it.
func (h *Handlers) CreateComponentInstance(ctx context.Context, p CreateComponentInstanceParams) (*CreatedInstance, error) {
	if p.ComponentKey == "" {
		return nil, apperrors.MissingParam("componentKey")
	}
	parent, err := h.resolveParent(ctx, p.ParentID)
	if err != nil {
		return nil, err
	}
	comp, err := h.Store.ImportComponentByKey(ctx, p.ComponentKey)
	if err != nil {
		return nil, apperrors.StoreFailed("Error creating component instance", err)
	}
	inst, err := comp.CreateInstance()
	if err != nil {
		return nil, apperrors.StoreFailed("Error creating component instance", err)
	}
	if pos, ok := inst.(document.Positioned); ok {
		pos.SetPosition(orDefault(p.X, 0), orDefault(p.Y, 0))
	}
	if err := appendTo(parent, inst); err != nil {
		return nil, err
	}
	return &CreatedInstance{
		ID:          inst.ID(),
		Name:        inst.Name(),
		Geometry:    geometryOf(inst),
		ComponentID: comp.ID(),
		ParentID:    parentID(inst),
	}, nil
}

type CreateNodeFromSVGParams struct {
	SVG      string   `json:"svg"`
	Name     string   `json:"name"`
	X        *float64 `json:"x"`
	Y        *float64 `json:"y"`
	ParentID string   `json:"parentId"`
}

// CreateNodeFromSVG imports SVG markup. An unknown parent leaves the node on
// the current page.
func (h *Handlers) CreateNodeFromSVG(ctx context.Context, p CreateNodeFromSVGParams) (*NodeRef, error) {
	if p.SVG == "" {
		return nil, apperrors.New(apperrors.CodeMissingParam, "Missing required parameter: svg string.")
	}
	var parent document.Container
	if p.ParentID != "" {
		if n, err := h.Store.NodeByID(ctx, p.ParentID); err == nil {
			parent, _ = n.(document.Container)
		}
	}
	n, err := h.Store.CreateNodeFromSVG(ctx, p.SVG)
	if err != nil {
		return nil, apperrors.StoreFailed("Error creating node from SVG", err)
	}
	if p.Name != "" {
		n.SetName(p.Name)
	}
	if err := appendTo(parent, n); err != nil {
		return nil, err
	}
	if pos, ok := n.(document.Positioned); ok {
		pos.SetPosition(orDefault(p.X, 0), orDefault(p.Y, 0))
	}
	ref := refOf(n)
	return &ref, nil
}
