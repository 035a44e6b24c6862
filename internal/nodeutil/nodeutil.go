// Package nodeutil walks and serializes node trees.
package nodeutil

import (
	"strings"

	"github.com/ttfbridge/host/internal/colorutil"
	"github.com/ttfbridge/host/internal/document"
	"github.com/ttfbridge/host/internal/textutil"
)

// Visit is one node reached by Collect.
type Visit struct {
	Node document.Node
	// Path holds the names from the walk root down to Node, inclusive.
	Path  []string
	Depth int
}

// DisplayName returns the node name, or "Unnamed <TYPE>" when it is empty.
func DisplayName(n document.Node) string {
	if name := n.Name(); name != "" {
		return name
	}
	return "Unnamed " + string(n.Type())
}

// Collect walks root depth-first in pre-order. Invisible nodes and their
// subtrees are skipped.
func Collect(root document.Node) []Visit {
	var out []Visit
	collect(root, nil, 0, &out)
	return out
}

func collect(n document.Node, parentPath []string, depth int, out *[]Visit) {
	if !n.Visible() {
		return
	}
	path := make([]string, len(parentPath), len(parentPath)+1)
	copy(path, parentPath)
	path = append(path, DisplayName(n))
	*out = append(*out, Visit{Node: n, Path: path, Depth: depth})
	if c, ok := n.(document.Container); ok {
		for _, child := range c.Children() {
			collect(child, path, depth+1, out)
		}
	}
}

// PathString joins the names from the top-most named ancestor down to n with
// " > ". The parentless document root is not part of the path.
func PathString(n document.Node) string {
	var names []string
	for cur := n; cur != nil && cur.Parent() != nil; cur = cur.Parent() {
		names = append(names, cur.Name())
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, " > ")
}

// FindAll returns every descendant of root, visible or not, for which match
// returns true. root itself is not considered.
func FindAll(root document.Node, match func(document.Node) bool) []document.Node {
	var out []document.Node
	var walk func(n document.Node)
	walk = func(n document.Node) {
		c, ok := n.(document.Container)
		if !ok {
			return
		}
		for _, child := range c.Children() {
			if match(child) {
				out = append(out, child)
			}
			walk(child)
		}
	}
	walk(root)
	return out
}

// OfTypes matches nodes whose type is one of types.
func OfTypes(types ...document.NodeType) func(document.Node) bool {
	return func(n document.Node) bool {
		for _, t := range types {
			if n.Type() == t {
				return true
			}
		}
		return false
	}
}

type SerializedStop struct {
	Position float64 `json:"position"`
	Color    string  `json:"color"`
}

// SerializedPaint is a paint with its color flattened to hex.
type SerializedPaint struct {
	Type          string           `json:"type"`
	Visible       *bool            `json:"visible,omitempty"`
	Opacity       *float64         `json:"opacity,omitempty"`
	BlendMode     string           `json:"blendMode,omitempty"`
	Color         string           `json:"color,omitempty"`
	GradientStops []SerializedStop `json:"gradientStops,omitempty"`
}

type TextStyle struct {
	FontFamily   string  `json:"fontFamily,omitempty"`
	FontStyle    string  `json:"fontStyle,omitempty"`
	FontWeight   int     `json:"fontWeight,omitempty"`
	FontSize     float64 `json:"fontSize,omitempty"`
	LineHeightPx float64 `json:"lineHeightPx,omitempty"`
}

// Serialized is the filtered record returned by node readers.
type Serialized struct {
	ID                  string             `json:"id"`
	Name                string             `json:"name"`
	Type                document.NodeType  `json:"type"`
	Fills               []SerializedPaint  `json:"fills,omitempty"`
	Strokes             []SerializedPaint  `json:"strokes,omitempty"`
	CornerRadius        *float64           `json:"cornerRadius,omitempty"`
	AbsoluteBoundingBox *document.Rect     `json:"absoluteBoundingBox,omitempty"`
	Characters          string             `json:"characters,omitempty"`
	Style               *TextStyle         `json:"style,omitempty"`
	Children            []*Serialized      `json:"children,omitempty"`
}

// Serialize converts n and its subtree. VECTOR nodes are dropped and yield
// nil.
func Serialize(n document.Node) *Serialized {
	if n.Type() == document.TypeVector {
		return nil
	}
	s := &Serialized{ID: n.ID(), Name: n.Name(), Type: n.Type()}
	if f, ok := n.(document.Fillable); ok {
		s.Fills = serializePaints(f.Fills())
	}
	if st, ok := n.(document.Strokable); ok {
		s.Strokes = serializePaints(st.Strokes())
	}
	if cr, ok := n.(document.CornerRounded); ok {
		if r, mixed := cr.CornerRadius(); !mixed {
			s.CornerRadius = &r
		}
	}
	if b, ok := n.(document.Bounded); ok {
		s.AbsoluteBoundingBox = b.AbsoluteBoundingBox()
	}
	if t, ok := n.(document.Text); ok {
		s.Characters = t.Characters()
		style := &TextStyle{FontSize: t.FontSize(), LineHeightPx: t.FontSize() * 1.2}
		if font, mixed := t.FontName(); !mixed {
			style.FontFamily = font.Family
			style.FontStyle = font.Style
			style.FontWeight = textutil.WeightForStyle(font.Style)
		}
		s.Style = style
	}
	if c, ok := n.(document.Container); ok {
		for _, child := range c.Children() {
			if cs := Serialize(child); cs != nil {
				s.Children = append(s.Children, cs)
			}
		}
	}
	return s
}

func serializePaints(paints []document.Paint) []SerializedPaint {
	if len(paints) == 0 {
		return nil
	}
	out := make([]SerializedPaint, len(paints))
	for i, p := range paints {
		sp := SerializedPaint{
			Type:      p.Type,
			Visible:   p.Visible,
			Opacity:   p.Opacity,
			BlendMode: p.BlendMode,
		}
		if p.Color != nil {
			sp.Color = colorutil.ToHex(*p.Color)
		}
		for _, stop := range p.GradientStops {
			sp.GradientStops = append(sp.GradientStops, SerializedStop{
				Position: stop.Position,
				Color:    colorutil.ToHex(stop.Color),
			})
		}
		out[i] = sp
	}
	return out
}
