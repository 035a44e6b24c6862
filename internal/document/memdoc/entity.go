package memdoc

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/ttfbridge/host/internal/document"
)

// entity is the single storage record behind every node variant. Which
// fields are meaningful depends on typ; the exported behavior of a node is
// decided by the view type wrap picks for it.
type entity struct {
	doc      *Document
	id       string
	name     string
	typ      document.NodeType
	parent   *entity
	children []*entity
	visible  bool
	removed  bool

	x, y, w, h  float64
	positioning string

	fills        []document.Paint
	strokes      []document.Paint
	strokeWeight float64
	strokeAlign  string
	corners      document.Corners
	layout       document.Layout
	effects      []document.Effect
	annotations  []document.Annotation
	bound        map[string]document.VariableAlias
	modes        map[string]string
	reactions    []document.Reaction
	styleIDs     map[document.StyleKind]string

	chars    []rune
	fonts    []document.FontName
	font     document.FontName
	fontSize float64

	key       string
	main      *entity
	overrides []document.Override
	props     map[string]document.ComponentProperty

	start, end document.ConnectorEndpoint
	connText   []rune
	connFont   *document.FontName

	view document.Node
}

func newEntity(d *Document, typ document.NodeType, id string) *entity {
	e := &entity{
		doc:         d,
		id:          id,
		typ:         typ,
		visible:     true,
		strokeAlign: "INSIDE",
		layout:      document.DefaultLayout(),
		positioning: "AUTO",
		bound:       map[string]document.VariableAlias{},
		modes:       map[string]string{},
		styleIDs:    map[document.StyleKind]string{},
		fontSize:    12,
		font:        document.FontName{Family: "Inter", Style: "Regular"},
	}
	e.view = wrap(e)
	return e
}

// index registers e and its subtree. Caller holds d.mu.
func (e *entity) index() {
	e.doc.nodes[e.id] = e
	for _, c := range e.children {
		c.index()
	}
}

func (e *entity) unindex() {
	e.removed = true
	delete(e.doc.nodes, e.id)
	for _, c := range e.children {
		c.unindex()
	}
}

func (e *entity) detach() {
	if e.parent == nil {
		return
	}
	p := e.parent
	if i := slices.Index(p.children, e); i >= 0 {
		p.children = slices.Delete(p.children, i, i+1)
	}
	e.parent = nil
}

func (e *entity) isAncestorOf(other *entity) bool {
	for p := other; p != nil; p = p.parent {
		if p == e {
			return true
		}
	}
	return false
}

func (e *entity) insert(index int, child *entity) error {
	if child == e || child.isAncestorOf(e) {
		return fmt.Errorf("Cannot move node %s inside itself", child.id)
	}
	if child.typ == document.TypeDocument || child.typ == document.TypePage {
		return fmt.Errorf("Cannot reparent a %s node", child.typ)
	}
	child.detach()
	if index < 0 || index > len(e.children) {
		index = len(e.children)
	}
	e.children = slices.Insert(e.children, index, child)
	child.parent = e
	if !child.removed && e.doc.nodes[child.id] == nil {
		child.index()
	}
	return nil
}

// absolute returns the page-relative origin of e.
func (e *entity) absolute() (float64, float64) {
	x, y := e.x, e.y
	for p := e.parent; p != nil; p = p.parent {
		if p.typ == document.TypePage || p.typ == document.TypeDocument {
			break
		}
		x += p.x
		y += p.y
	}
	return x, y
}

// owningInstance returns the instance whose override list records edits
// made to e, or nil when e is not inside an instance.
func (e *entity) owningInstance() *entity {
	if !strings.HasPrefix(e.id, "I") {
		return nil
	}
	for p := e.parent; p != nil; p = p.parent {
		if p.typ == document.TypeInstance {
			return p
		}
	}
	return nil
}

// touched records field as overridden when e lives inside an instance.
func (e *entity) touched(field string) {
	inst := e.owningInstance()
	if e.typ == document.TypeInstance && field == "componentProperties" {
		inst = e
	}
	if inst == nil {
		return
	}
	for i := range inst.overrides {
		if inst.overrides[i].ID == e.id {
			if !slices.Contains(inst.overrides[i].OverriddenFields, field) {
				inst.overrides[i].OverriddenFields = append(inst.overrides[i].OverriddenFields, field)
			}
			return
		}
	}
	inst.overrides = append(inst.overrides, document.Override{ID: e.id, OverriddenFields: []string{field}})
}

// copyTree deep-copies e. idFor maps the source id to the copy's id.
func (e *entity) copyTree(idFor func(src *entity) string) *entity {
	c := newEntity(e.doc, e.typ, idFor(e))
	c.name = e.name
	c.visible = e.visible
	c.x, c.y, c.w, c.h = e.x, e.y, e.w, e.h
	c.positioning = e.positioning
	c.fills = clonePaints(e.fills)
	c.strokes = clonePaints(e.strokes)
	c.strokeWeight = e.strokeWeight
	c.strokeAlign = e.strokeAlign
	c.corners = e.corners
	c.layout = e.layout
	c.effects = slices.Clone(e.effects)
	c.annotations = slices.Clone(e.annotations)
	for k, v := range e.bound {
		c.bound[k] = v
	}
	for k, v := range e.modes {
		c.modes[k] = v
	}
	c.reactions = slices.Clone(e.reactions)
	for k, v := range e.styleIDs {
		c.styleIDs[k] = v
	}
	c.chars = slices.Clone(e.chars)
	c.fonts = slices.Clone(e.fonts)
	c.font = e.font
	c.fontSize = e.fontSize
	c.key = e.key
	c.main = e.main
	if e.props != nil {
		c.props = make(map[string]document.ComponentProperty, len(e.props))
		for k, v := range e.props {
			c.props[k] = v
		}
	}
	c.start, c.end = e.start, e.end
	c.connText = slices.Clone(e.connText)
	if e.connFont != nil {
		f := *e.connFont
		c.connFont = &f
	}
	for _, child := range e.children {
		cc := child.copyTree(idFor)
		cc.parent = c
		c.children = append(c.children, cc)
	}
	return c
}

// instantiate builds the children of instance inst from component comp.
func (inst *entity) instantiate(comp *entity) {
	inst.children = nil
	inst.overrides = nil
	prefix := "I" + inst.id + ";"
	for _, child := range comp.children {
		cc := child.copyTree(func(src *entity) string {
			return prefix + strings.TrimPrefix(src.id, "I")
		})
		cc.parent = inst
		inst.children = append(inst.children, cc)
	}
	inst.props = make(map[string]document.ComponentProperty, len(comp.props))
	for k, v := range comp.props {
		inst.props[k] = v
	}
	inst.main = comp
}

// reflow resizes a text node to fit its characters.
func (e *entity) reflow() {
	if e.typ != document.TypeText {
		return
	}
	lines := strings.Split(string(e.chars), "\n")
	longest := 0
	for _, l := range lines {
		if n := len([]rune(l)); n > longest {
			longest = n
		}
	}
	e.w = math.Round(float64(longest)*e.fontSize*0.6*100) / 100
	e.h = math.Round(float64(len(lines))*e.fontSize*1.2*100) / 100
}

// fontAt returns the font of rune i.
func (e *entity) fontAt(i int) document.FontName {
	if i >= 0 && i < len(e.fonts) {
		return e.fonts[i]
	}
	return e.font
}

func (e *entity) requireLoaded(fonts ...document.FontName) error {
	for _, f := range fonts {
		if !e.doc.loaded[f] {
			return fmt.Errorf("Cannot write to node with unloaded font %q. Please call loadFontAsync first", f.String())
		}
	}
	return nil
}

// usedFonts returns the distinct fonts on the text node in order of first use.
func (e *entity) usedFonts() []document.FontName {
	if len(e.fonts) == 0 {
		return []document.FontName{e.font}
	}
	var out []document.FontName
	for _, f := range e.fonts {
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

func clonePaints(p []document.Paint) []document.Paint {
	if p == nil {
		return nil
	}
	out := make([]document.Paint, len(p))
	for i, paint := range p {
		out[i] = paint
		if paint.Color != nil {
			c := *paint.Color
			out[i].Color = &c
		}
		if paint.Opacity != nil {
			o := *paint.Opacity
			out[i].Opacity = &o
		}
		out[i].GradientStops = slices.Clone(paint.GradientStops)
	}
	return out
}
