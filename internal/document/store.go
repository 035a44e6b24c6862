package document

import "context"

// Store is the host document API. Every method may block on the host and
// takes a context.
type Store interface {
	// NodeByID returns ErrNotFound when id does not resolve.
	NodeByID(ctx context.Context, id string) (Node, error)
	Root(ctx context.Context) Container
	CurrentPage(ctx context.Context) Container
	Selection(ctx context.Context) []Node
	SetSelection(ctx context.Context, nodes []Node) error
	ScrollAndZoomIntoView(ctx context.Context, nodes []Node) error

	// Created nodes are appended to the current page.
	CreateRectangle(ctx context.Context) (Node, error)
	CreateFrame(ctx context.Context) (Node, error)
	CreateText(ctx context.Context) (Text, error)
	CreateComponent(ctx context.Context) (ComponentNode, error)
	CreateNodeFromSVG(ctx context.Context, svg string) (Node, error)

	LoadFont(ctx context.Context, font FontName) error
	ImportComponentByKey(ctx context.Context, key string) (ComponentNode, error)

	LocalPaintStyles(ctx context.Context) ([]Style, error)
	LocalTextStyles(ctx context.Context) ([]Style, error)
	LocalEffectStyles(ctx context.Context) ([]Style, error)
	LocalGridStyles(ctx context.Context) ([]Style, error)
	CreateStyle(ctx context.Context, style Style) (Style, error)

	LocalVariableCollections(ctx context.Context) ([]VariableCollection, error)
	LocalVariables(ctx context.Context) ([]Variable, error)
	// VariableByID returns nil, nil when the variable does not exist.
	VariableByID(ctx context.Context, id string) (*Variable, error)
	VariableCollectionByID(ctx context.Context, id string) (*VariableCollection, error)

	AnnotationCategories(ctx context.Context) ([]AnnotationCategory, error)
	Notify(ctx context.Context, message string)
}

// Ancestors returns the parent chain of n, nearest first.
func Ancestors(n Node) []Node {
	var out []Node
	for p := n.Parent(); p != nil; p = p.Parent() {
		out = append(out, p)
	}
	return out
}

// IsFrameLike reports whether t supports auto-layout properties.
func IsFrameLike(t NodeType) bool {
	switch t {
	case TypeFrame, TypeComponent, TypeComponentSet, TypeInstance:
		return true
	}
	return false
}
