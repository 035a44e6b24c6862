// Package document models the design document the bridge edits.
//
// The host application owns every node. Code in this repository only holds
// node ids between calls and re-resolves them through a Store on every
// operation, because a human may edit or delete nodes at any time.
//
// A node always implements Node. Optional features are expressed as
// capability interfaces (Container, Fillable, AutoLayout, ...). Handlers
// type-assert for the capability they need and report a capability
// mismatch when the assertion fails.
package document

import (
	"context"
	"errors"
)

// NodeType is the node variant tag.
type NodeType string

const (
	TypeDocument     NodeType = "DOCUMENT"
	TypePage         NodeType = "PAGE"
	TypeFrame        NodeType = "FRAME"
	TypeGroup        NodeType = "GROUP"
	TypeSection      NodeType = "SECTION"
	TypeRectangle    NodeType = "RECTANGLE"
	TypeEllipse      NodeType = "ELLIPSE"
	TypeText         NodeType = "TEXT"
	TypeVector       NodeType = "VECTOR"
	TypeComponent    NodeType = "COMPONENT"
	TypeComponentSet NodeType = "COMPONENT_SET"
	TypeInstance     NodeType = "INSTANCE"
	TypeConnector    NodeType = "CONNECTOR"
)

// ErrNotFound is returned by Store lookups when an id does not resolve.
var ErrNotFound = errors.New("node not found")

// Node is the capability every node has.
type Node interface {
	ID() string
	Name() string
	SetName(name string)
	Type() NodeType
	// Parent returns nil for the document root.
	Parent() Node
	Visible() bool
	SetVisible(visible bool)
	Remove() error
	// Clone duplicates the node and its subtree onto the current page.
	Clone() (Node, error)
}

// Container is a node that holds children.
type Container interface {
	Node
	Children() []Node
	AppendChild(child Node) error
	InsertChild(index int, child Node) error
}

// Positioned is a node with a position relative to its parent.
type Positioned interface {
	Node
	X() float64
	Y() float64
	SetPosition(x, y float64)
}

// Resizable is a node with a mutable size.
type Resizable interface {
	Node
	Width() float64
	Height() float64
	Resize(width, height float64) error
}

// Bounded is a node that knows its page-absolute bounding box.
type Bounded interface {
	Node
	AbsoluteBoundingBox() *Rect
}

type Fillable interface {
	Node
	Fills() []Paint
	SetFills(fills []Paint) error
}

type Strokable interface {
	Node
	Strokes() []Paint
	SetStrokes(strokes []Paint) error
	StrokeWeight() float64
	SetStrokeWeight(weight float64) error
	StrokeAlign() string
	SetStrokeAlign(align string) error
}

// CornerRounded exposes a uniform corner radius. CornerRadius reports
// mixed=true when individual corners differ.
type CornerRounded interface {
	Node
	CornerRadius() (radius float64, mixed bool)
	SetCornerRadius(radius float64) error
}

type PerCornerRounded interface {
	Node
	CornerRadii() Corners
	SetCornerRadii(c Corners) error
}

// AutoLayout is implemented by frame-like nodes that can lay out children.
type AutoLayout interface {
	Node
	Layout() Layout
	SetLayout(l Layout) error
}

// LayoutChild is a node that can opt out of its parent's auto-layout flow.
type LayoutChild interface {
	Node
	LayoutPositioning() string
	SetLayoutPositioning(p string) error
}

type Effected interface {
	Node
	Effects() []Effect
	SetEffects(effects []Effect) error
}

type Annotatable interface {
	Node
	Annotations() []Annotation
	SetAnnotations(a []Annotation) error
}

type VariableBindable interface {
	Node
	BoundVariables() map[string]VariableAlias
	// SetBoundVariable binds field to v, or unbinds it when v is nil.
	SetBoundVariable(field string, v *Variable) error
	ExplicitVariableModes() map[string]string
	SetExplicitVariableModeForCollection(collectionID, modeID string) error
}

type Exportable interface {
	Node
	Export(ctx context.Context, settings ExportSettings) ([]byte, error)
}

type Reactive interface {
	Node
	Reactions() []Reaction
}

// Text is a text node. Fonts must be loaded through Store.LoadFont before
// any call that writes characters or font names.
type Text interface {
	Node
	Characters() string
	SetCharacters(s string) error
	// FontName reports mixed=true when the characters carry several fonts.
	FontName() (font FontName, mixed bool)
	SetFontName(font FontName) error
	// RangeFontName works on rune offsets [start, end).
	RangeFontName(start, end int) (font FontName, mixed bool)
	SetRangeFontName(start, end int, font FontName) error
	FontSize() float64
	SetFontSize(size float64) error
}

// ComponentNode is a main component.
type ComponentNode interface {
	Node
	Key() string
	CreateInstance() (Instance, error)
}

// Instance is a component instance.
type Instance interface {
	Node
	MainComponent(ctx context.Context) (ComponentNode, error)
	SwapComponent(c ComponentNode) error
	Overrides() []Override
	ComponentProperties() map[string]ComponentProperty
	SetProperties(values map[string]any) error
}

// Connector is a line between two endpoint nodes with an optional label.
type Connector interface {
	Node
	ConnectorStart() ConnectorEndpoint
	SetConnectorStart(ep ConnectorEndpoint) error
	ConnectorEnd() ConnectorEndpoint
	SetConnectorEnd(ep ConnectorEndpoint) error
	// TextFontName returns ok=false when the connector carries no label font.
	TextFontName() (font FontName, ok bool)
	SetTextFontName(font FontName) error
	TextCharacters() string
	SetTextCharacters(s string) error
}

// StyleTarget is a node that can reference shared styles.
type StyleTarget interface {
	Node
	StyleID(kind StyleKind) string
	SetStyleID(kind StyleKind, id string) error
}
