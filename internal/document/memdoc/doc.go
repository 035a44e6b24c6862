// Package memdoc is an in-memory document.Store.
//
// It backs the offline host mode of the CLI and every handler test. Node
// behavior follows the host application closely enough for the handlers to
// be exercised end to end: fonts must be loaded before text is written,
// instance descendants record overrides, and removed nodes stop resolving.
package memdoc

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strconv"
	"sync"

	"github.com/ttfbridge/host/internal/document"
)

// DefaultFonts are the fonts a new Document can load.
var DefaultFonts = []document.FontName{
	{Family: "Inter", Style: "Regular"},
	{Family: "Inter", Style: "Medium"},
	{Family: "Inter", Style: "Semi Bold"},
	{Family: "Inter", Style: "Bold"},
	{Family: "Inter", Style: "Italic"},
}

// Options configures a new Document.
type Options struct {
	// Fonts overrides DefaultFonts when non-empty.
	Fonts []document.FontName
	// PageName names the initial page. Defaults to "Page 1".
	PageName string
}

// Document is a thread-safe in-memory design document with a single page.
type Document struct {
	mu sync.RWMutex

	nodes     map[string]*entity
	root      *entity
	page      *entity
	selection []*entity
	counter   int

	available map[document.FontName]bool
	loaded    map[document.FontName]bool

	styles      []document.Style
	collections map[string]*document.VariableCollection
	variables   map[string]*document.Variable
	categories  []document.AnnotationCategory
	components  map[string]*entity

	notifications []string
}

// New creates an empty document with one page.
func New(opts Options) *Document {
	d := &Document{
		nodes:       make(map[string]*entity),
		available:   make(map[document.FontName]bool),
		loaded:      make(map[document.FontName]bool),
		collections: make(map[string]*document.VariableCollection),
		variables:   make(map[string]*document.Variable),
		components:  make(map[string]*entity),
	}
	fonts := opts.Fonts
	if len(fonts) == 0 {
		fonts = DefaultFonts
	}
	for _, f := range fonts {
		d.available[f] = true
	}
	name := opts.PageName
	if name == "" {
		name = "Page 1"
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.root = newEntity(d, document.TypeDocument, "0:0")
	d.root.name = "Document"
	d.root.index()
	d.page = newEntity(d, document.TypePage, "0:1")
	d.page.name = name
	d.root.children = append(d.root.children, d.page)
	d.page.parent = d.root
	d.page.index()
	d.counter = 1
	return d
}

// nextID allocates a node id. Caller holds d.mu.
func (d *Document) nextID() string {
	for {
		d.counter++
		id := "1:" + strconv.Itoa(d.counter)
		if _, taken := d.nodes[id]; !taken {
			return id
		}
	}
}

func (d *Document) NodeByID(ctx context.Context, id string) (document.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.nodes[id]
	if !ok || e.removed {
		return nil, document.ErrNotFound
	}
	return e.view, nil
}

func (d *Document) Root(ctx context.Context) document.Container {
	return d.root.view.(document.Container)
}

func (d *Document) CurrentPage(ctx context.Context) document.Container {
	return d.page.view.(document.Container)
}

func (d *Document) Selection(ctx context.Context) []document.Node {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]document.Node, 0, len(d.selection))
	for _, e := range d.selection {
		out = append(out, e.view)
	}
	return out
}

func (d *Document) SetSelection(ctx context.Context, nodes []document.Node) error {
	sel := make([]*entity, 0, len(nodes))
	for _, n := range nodes {
		e, err := entityOf(n)
		if err != nil {
			return err
		}
		sel = append(sel, e)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, e := range sel {
		if e.removed {
			return fmt.Errorf("The node with id %q does not exist", e.id)
		}
		if e.typ == document.TypeDocument || e.typ == document.TypePage {
			return fmt.Errorf("Cannot select a %s node", e.typ)
		}
	}
	d.selection = sel
	return nil
}

func (d *Document) ScrollAndZoomIntoView(ctx context.Context, nodes []document.Node) error {
	for _, n := range nodes {
		if _, err := entityOf(n); err != nil {
			return err
		}
	}
	return ctx.Err()
}

func (d *Document) create(ctx context.Context, typ document.NodeType, name string, w, h float64, init func(e *entity)) (*entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	e := newEntity(d, typ, d.nextID())
	e.name = name
	e.w, e.h = w, h
	if init != nil {
		init(e)
	}
	if err := d.page.insert(-1, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (d *Document) CreateRectangle(ctx context.Context) (document.Node, error) {
	e, err := d.create(ctx, document.TypeRectangle, "Rectangle", 100, 100, func(e *entity) {
		e.fills = []document.Paint{document.SolidPaint(0.85, 0.85, 0.85, 1)}
	})
	if err != nil {
		return nil, err
	}
	return e.view, nil
}

func (d *Document) CreateFrame(ctx context.Context) (document.Node, error) {
	e, err := d.create(ctx, document.TypeFrame, "Frame", 100, 100, func(e *entity) {
		e.fills = []document.Paint{document.SolidPaint(1, 1, 1, 1)}
	})
	if err != nil {
		return nil, err
	}
	return e.view, nil
}

func (d *Document) CreateText(ctx context.Context) (document.Text, error) {
	e, err := d.create(ctx, document.TypeText, "Text", 0, 0, func(e *entity) {
		e.fills = []document.Paint{document.SolidPaint(0, 0, 0, 1)}
		e.reflow()
	})
	if err != nil {
		return nil, err
	}
	return e.view.(document.Text), nil
}

func (d *Document) CreateComponent(ctx context.Context) (document.ComponentNode, error) {
	e, err := d.create(ctx, document.TypeComponent, "Component", 100, 100, func(e *entity) {
		e.key = "key-" + e.id
		d.components[e.key] = e
	})
	if err != nil {
		return nil, err
	}
	return e.view.(document.ComponentNode), nil
}

func (d *Document) CreateNodeFromSVG(ctx context.Context, svg string) (document.Node, error) {
	parsed, err := parseSVG(svg)
	if err != nil {
		return nil, err
	}
	e, err := d.create(ctx, document.TypeFrame, "svg", parsed.width, parsed.height, nil)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, p := range parsed.paths {
		v := newEntity(d, document.TypeVector, d.nextID())
		v.name = "Vector"
		if i > 0 {
			v.name = "Vector " + strconv.Itoa(i+1)
		}
		v.w, v.h = parsed.width, parsed.height
		if p.fill != nil {
			v.fills = []document.Paint{document.SolidPaint(p.fill.R, p.fill.G, p.fill.B, 1)}
		}
		if err := e.insert(-1, v); err != nil {
			return nil, err
		}
	}
	return e.view, nil
}

func (d *Document) LoadFont(ctx context.Context, font document.FontName) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.available[font] {
		return fmt.Errorf("The font %q could not be loaded", font.String())
	}
	d.loaded[font] = true
	return nil
}

func (d *Document) ImportComponentByKey(ctx context.Context, key string) (document.ComponentNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.components[key]
	if !ok || e.removed {
		return nil, fmt.Errorf("Component with key %s not found", key)
	}
	return e.view.(document.ComponentNode), nil
}

func (d *Document) stylesOf(t document.StyleType) []document.Style {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []document.Style
	for _, s := range d.styles {
		if s.Type == t {
			out = append(out, s)
		}
	}
	return out
}

func (d *Document) LocalPaintStyles(ctx context.Context) ([]document.Style, error) {
	return d.stylesOf(document.StylePaint), ctx.Err()
}

func (d *Document) LocalTextStyles(ctx context.Context) ([]document.Style, error) {
	return d.stylesOf(document.StyleText), ctx.Err()
}

func (d *Document) LocalEffectStyles(ctx context.Context) ([]document.Style, error) {
	return d.stylesOf(document.StyleEffect), ctx.Err()
}

func (d *Document) LocalGridStyles(ctx context.Context) ([]document.Style, error) {
	return d.stylesOf(document.StyleGrid), ctx.Err()
}

func (d *Document) CreateStyle(ctx context.Context, s document.Style) (document.Style, error) {
	if err := ctx.Err(); err != nil {
		return document.Style{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	switch s.Type {
	case document.StylePaint, document.StyleText, document.StyleEffect, document.StyleGrid:
	default:
		return document.Style{}, fmt.Errorf("Unsupported style type: %s", s.Type)
	}
	if s.Type == document.StyleText && s.FontName != nil && !d.loaded[*s.FontName] {
		return document.Style{}, fmt.Errorf("Cannot write to node with unloaded font %q. Please call loadFontAsync first", s.FontName.String())
	}
	d.counter++
	s.ID = "S:" + strconv.Itoa(d.counter) + ","
	if s.Key == "" {
		s.Key = "style-" + strconv.Itoa(d.counter)
	}
	d.styles = append(d.styles, s)
	return s, nil
}

// styleByID looks up a style. Caller holds d.mu.
func (d *Document) styleByID(id string) (document.Style, bool) {
	i := slices.IndexFunc(d.styles, func(s document.Style) bool { return s.ID == id })
	if i < 0 {
		return document.Style{}, false
	}
	return d.styles[i], true
}

func (d *Document) LocalVariableCollections(ctx context.Context) ([]document.VariableCollection, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]document.VariableCollection, 0, len(d.collections))
	for _, c := range d.collections {
		out = append(out, *c)
	}
	slices.SortFunc(out, func(a, b document.VariableCollection) int { return compareIDs(a.ID, b.ID) })
	return out, ctx.Err()
}

func (d *Document) LocalVariables(ctx context.Context) ([]document.Variable, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]document.Variable, 0, len(d.variables))
	for _, v := range d.variables {
		out = append(out, *v)
	}
	slices.SortFunc(out, func(a, b document.Variable) int { return compareIDs(a.ID, b.ID) })
	return out, ctx.Err()
}

func (d *Document) VariableByID(ctx context.Context, id string) (*document.Variable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.variables[id]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (d *Document) VariableCollectionByID(ctx context.Context, id string) (*document.VariableCollection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.collections[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (d *Document) AnnotationCategories(ctx context.Context) ([]document.AnnotationCategory, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.categories), ctx.Err()
}

// hasCategory reports whether id names a known category. Caller holds d.mu.
func (d *Document) hasCategory(id string) bool {
	return slices.ContainsFunc(d.categories, func(c document.AnnotationCategory) bool { return c.ID == id })
}

func (d *Document) Notify(ctx context.Context, message string) {
	log.Printf("memdoc: notify: %s", message)
	d.mu.Lock()
	d.notifications = append(d.notifications, message)
	d.mu.Unlock()
}

// Notifications returns every message passed to Notify, oldest first.
func (d *Document) Notifications() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.notifications)
}

// checkEndpoint validates a connector endpoint. Caller holds d.mu.
func (d *Document) checkEndpoint(ep document.ConnectorEndpoint) error {
	if ep.EndpointNodeID == "" {
		if ep.Position == nil {
			return fmt.Errorf("Connector endpoint needs a node or a position")
		}
		return nil
	}
	e, ok := d.nodes[ep.EndpointNodeID]
	if !ok || e.removed {
		return fmt.Errorf("The node with id %q does not exist", ep.EndpointNodeID)
	}
	// Nodes inside an instance cannot carry connector endpoints.
	if e.owningInstance() != nil {
		return fmt.Errorf("Cannot connect to node %s: endpoints inside instances are not supported", e.id)
	}
	if e.typ == document.TypeDocument || e.typ == document.TypePage {
		return fmt.Errorf("Cannot connect to a %s node", e.typ)
	}
	return nil
}

// AddStyle registers a style as-is, keeping its id. Used when seeding.
func (d *Document) AddStyle(s document.Style) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.styles = append(d.styles, s)
}

// AddVariableCollection registers a collection and its variables.
func (d *Document) AddVariableCollection(c document.VariableCollection, vars ...document.Variable) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, v := range vars {
		v.CollectionID = c.ID
		cp := v
		d.variables[v.ID] = &cp
		if !slices.Contains(c.VariableIDs, v.ID) {
			c.VariableIDs = append(c.VariableIDs, v.ID)
		}
	}
	d.collections[c.ID] = &c
}

// AddAnnotationCategory registers an annotation category.
func (d *Document) AddAnnotationCategory(c document.AnnotationCategory) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.categories = append(d.categories, c)
}

// compareIDs orders "a:b" style ids numerically where possible.
func compareIDs(a, b string) int {
	ai, aerr := strconv.Atoi(lastSegment(a))
	bi, berr := strconv.Atoi(lastSegment(b))
	if aerr == nil && berr == nil && ai != bi {
		if ai < bi {
			return -1
		}
		return 1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func lastSegment(id string) string {
	for i := len(id) - 1; i >= 0; i-- {
		if id[i] == ':' || id[i] == '/' {
			return id[i+1:]
		}
	}
	return id
}
