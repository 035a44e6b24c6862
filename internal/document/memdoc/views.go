package memdoc

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/ttfbridge/host/internal/document"
)

// Each view exposes one capability over the shared entity. Node variants
// are assembled from the views they support so that capability probing
// through type assertions matches the variant.

type entityHolder interface {
	ent() *entity
}

func entityOf(n document.Node) (*entity, error) {
	h, ok := n.(entityHolder)
	if !ok || h.ent() == nil {
		return nil, fmt.Errorf("node %v does not belong to this document", n)
	}
	return h.ent(), nil
}

type nodeView struct{ e *entity }

func (v nodeView) ent() *entity { return v.e }

func (v nodeView) ID() string { return v.e.id }

func (v nodeView) Type() document.NodeType { return v.e.typ }

func (v nodeView) Name() string {
	v.e.doc.mu.RLock()
	defer v.e.doc.mu.RUnlock()
	return v.e.name
}

func (v nodeView) SetName(name string) {
	v.e.doc.mu.Lock()
	defer v.e.doc.mu.Unlock()
	v.e.name = name
	v.e.touched("name")
}

func (v nodeView) Parent() document.Node {
	v.e.doc.mu.RLock()
	defer v.e.doc.mu.RUnlock()
	if v.e.parent == nil {
		return nil
	}
	return v.e.parent.view
}

func (v nodeView) Visible() bool {
	v.e.doc.mu.RLock()
	defer v.e.doc.mu.RUnlock()
	return v.e.visible
}

func (v nodeView) SetVisible(visible bool) {
	v.e.doc.mu.Lock()
	defer v.e.doc.mu.Unlock()
	v.e.visible = visible
	v.e.touched("visible")
}

func (v nodeView) Remove() error {
	d := v.e.doc
	d.mu.Lock()
	defer d.mu.Unlock()
	if v.e.removed {
		return fmt.Errorf("The node with id %q does not exist", v.e.id)
	}
	switch v.e.typ {
	case document.TypeDocument, document.TypePage:
		return fmt.Errorf("Cannot remove a %s node", v.e.typ)
	}
	if v.e.owningInstance() != nil {
		return fmt.Errorf("Cannot remove node %s inside an instance", v.e.id)
	}
	v.e.detach()
	v.e.unindex()
	d.selection = slices.DeleteFunc(d.selection, func(s *entity) bool { return s.removed })
	return nil
}

func (v nodeView) Clone() (document.Node, error) {
	d := v.e.doc
	d.mu.Lock()
	defer d.mu.Unlock()
	switch v.e.typ {
	case document.TypeDocument, document.TypePage:
		return nil, fmt.Errorf("Cannot clone a %s node", v.e.typ)
	}
	c := v.e.copyTree(func(*entity) string { return d.nextID() })
	if c.typ == document.TypeInstance && v.e.main != nil {
		c.instantiate(v.e.main)
		c.overrides = slices.Clone(v.e.overrides)
	}
	if err := d.page.insert(-1, c); err != nil {
		return nil, err
	}
	return c.view, nil
}

func (v nodeView) String() string { return string(v.e.typ) + " " + v.e.id }

type containerView struct{ e *entity }

func (v containerView) Children() []document.Node {
	v.e.doc.mu.RLock()
	defer v.e.doc.mu.RUnlock()
	out := make([]document.Node, len(v.e.children))
	for i, c := range v.e.children {
		out[i] = c.view
	}
	return out
}

func (v containerView) AppendChild(child document.Node) error {
	return v.InsertChild(-1, child)
}

func (v containerView) InsertChild(index int, child document.Node) error {
	ce, err := entityOf(child)
	if err != nil {
		return err
	}
	v.e.doc.mu.Lock()
	defer v.e.doc.mu.Unlock()
	if ce.removed {
		return fmt.Errorf("The node with id %q does not exist", ce.id)
	}
	return v.e.insert(index, ce)
}

type geomView struct{ e *entity }

func (v geomView) X() float64 {
	v.e.doc.mu.RLock()
	defer v.e.doc.mu.RUnlock()
	return v.e.x
}

func (v geomView) Y() float64 {
	v.e.doc.mu.RLock()
	defer v.e.doc.mu.RUnlock()
	return v.e.y
}

func (v geomView) SetPosition(x, y float64) {
	v.e.doc.mu.Lock()
	defer v.e.doc.mu.Unlock()
	v.e.x, v.e.y = x, y
}

func (v geomView) Width() float64 {
	v.e.doc.mu.RLock()
	defer v.e.doc.mu.RUnlock()
	return v.e.w
}

func (v geomView) Height() float64 {
	v.e.doc.mu.RLock()
	defer v.e.doc.mu.RUnlock()
	return v.e.h
}

func (v geomView) Resize(width, height float64) error {
	if width < 0.01 || height < 0.01 {
		return fmt.Errorf("Invalid size %gx%g: dimensions must be at least 0.01", width, height)
	}
	v.e.doc.mu.Lock()
	defer v.e.doc.mu.Unlock()
	v.e.w, v.e.h = width, height
	return nil
}

func (v geomView) AbsoluteBoundingBox() *document.Rect {
	v.e.doc.mu.RLock()
	defer v.e.doc.mu.RUnlock()
	x, y := v.e.absolute()
	return &document.Rect{X: x, Y: y, Width: v.e.w, Height: v.e.h}
}

func (v geomView) LayoutPositioning() string {
	v.e.doc.mu.RLock()
	defer v.e.doc.mu.RUnlock()
	return v.e.positioning
}

func (v geomView) SetLayoutPositioning(p string) error {
	if p != "AUTO" && p != "ABSOLUTE" {
		return fmt.Errorf("Invalid layoutPositioning: %s", p)
	}
	v.e.doc.mu.Lock()
	defer v.e.doc.mu.Unlock()
	v.e.positioning = p
	return nil
}

type fillView struct{ e *entity }

func (v fillView) Fills() []document.Paint {
	v.e.doc.mu.RLock()
	defer v.e.doc.mu.RUnlock()
	return clonePaints(v.e.fills)
}

func (v fillView) SetFills(fills []document.Paint) error {
	v.e.doc.mu.Lock()
	defer v.e.doc.mu.Unlock()
	v.e.fills = clonePaints(fills)
	v.e.touched("fills")
	return nil
}

type strokeView struct{ e *entity }

func (v strokeView) Strokes() []document.Paint {
	v.e.doc.mu.RLock()
	defer v.e.doc.mu.RUnlock()
	return clonePaints(v.e.strokes)
}

func (v strokeView) SetStrokes(strokes []document.Paint) error {
	v.e.doc.mu.Lock()
	defer v.e.doc.mu.Unlock()
	v.e.strokes = clonePaints(strokes)
	v.e.touched("strokes")
	return nil
}

func (v strokeView) StrokeWeight() float64 {
	v.e.doc.mu.RLock()
	defer v.e.doc.mu.RUnlock()
	return v.e.strokeWeight
}

func (v strokeView) SetStrokeWeight(weight float64) error {
	if weight < 0 {
		return fmt.Errorf("Invalid strokeWeight: %g", weight)
	}
	v.e.doc.mu.Lock()
	defer v.e.doc.mu.Unlock()
	v.e.strokeWeight = weight
	v.e.touched("strokeWeight")
	return nil
}

func (v strokeView) StrokeAlign() string {
	v.e.doc.mu.RLock()
	defer v.e.doc.mu.RUnlock()
	return v.e.strokeAlign
}

func (v strokeView) SetStrokeAlign(align string) error {
	switch align {
	case "INSIDE", "OUTSIDE", "CENTER":
	default:
		return fmt.Errorf("Invalid strokeAlign: %s", align)
	}
	v.e.doc.mu.Lock()
	defer v.e.doc.mu.Unlock()
	v.e.strokeAlign = align
	return nil
}

type cornerView struct{ e *entity }

func (v cornerView) CornerRadius() (float64, bool) {
	v.e.doc.mu.RLock()
	defer v.e.doc.mu.RUnlock()
	c := v.e.corners
	if c.TopLeft == c.TopRight && c.TopLeft == c.BottomRight && c.TopLeft == c.BottomLeft {
		return c.TopLeft, false
	}
	return 0, true
}

func (v cornerView) SetCornerRadius(radius float64) error {
	if radius < 0 {
		return fmt.Errorf("Invalid cornerRadius: %g", radius)
	}
	v.e.doc.mu.Lock()
	defer v.e.doc.mu.Unlock()
	v.e.corners = document.Corners{TopLeft: radius, TopRight: radius, BottomRight: radius, BottomLeft: radius}
	v.e.touched("cornerRadius")
	return nil
}

func (v cornerView) CornerRadii() document.Corners {
	v.e.doc.mu.RLock()
	defer v.e.doc.mu.RUnlock()
	return v.e.corners
}

func (v cornerView) SetCornerRadii(c document.Corners) error {
	v.e.doc.mu.Lock()
	defer v.e.doc.mu.Unlock()
	v.e.corners = c
	v.e.touched("cornerRadius")
	return nil
}

type layoutView struct{ e *entity }

func (v layoutView) Layout() document.Layout {
	v.e.doc.mu.RLock()
	defer v.e.doc.mu.RUnlock()
	return v.e.layout
}

func (v layoutView) SetLayout(l document.Layout) error {
	switch l.Mode {
	case "NONE", "HORIZONTAL", "VERTICAL":
	default:
		return fmt.Errorf("Invalid layoutMode: %s", l.Mode)
	}
	switch l.Wrap {
	case "NO_WRAP", "WRAP":
	default:
		return fmt.Errorf("Invalid layoutWrap: %s", l.Wrap)
	}
	v.e.doc.mu.Lock()
	defer v.e.doc.mu.Unlock()
	v.e.layout = l
	return nil
}

type effectView struct{ e *entity }

func (v effectView) Effects() []document.Effect {
	v.e.doc.mu.RLock()
	defer v.e.doc.mu.RUnlock()
	return slices.Clone(v.e.effects)
}

func (v effectView) SetEffects(effects []document.Effect) error {
	for _, ef := range effects {
		switch ef.Type {
		case "DROP_SHADOW", "INNER_SHADOW", "LAYER_BLUR", "BACKGROUND_BLUR":
		default:
			return fmt.Errorf("Invalid effect type: %s", ef.Type)
		}
	}
	v.e.doc.mu.Lock()
	defer v.e.doc.mu.Unlock()
	v.e.effects = slices.Clone(effects)
	v.e.touched("effects")
	return nil
}

type annotView struct{ e *entity }

func (v annotView) Annotations() []document.Annotation {
	v.e.doc.mu.RLock()
	defer v.e.doc.mu.RUnlock()
	return slices.Clone(v.e.annotations)
}

func (v annotView) SetAnnotations(a []document.Annotation) error {
	v.e.doc.mu.Lock()
	defer v.e.doc.mu.Unlock()
	for _, an := range a {
		if an.CategoryID != "" && !v.e.doc.hasCategory(an.CategoryID) {
			return fmt.Errorf("Annotation category not found: %s", an.CategoryID)
		}
	}
	v.e.annotations = slices.Clone(a)
	return nil
}

type varView struct{ e *entity }

func (v varView) BoundVariables() map[string]document.VariableAlias {
	v.e.doc.mu.RLock()
	defer v.e.doc.mu.RUnlock()
	return maps.Clone(v.e.bound)
}

func (v varView) SetBoundVariable(field string, variable *document.Variable) error {
	v.e.doc.mu.Lock()
	defer v.e.doc.mu.Unlock()
	if variable == nil {
		delete(v.e.bound, field)
		return nil
	}
	if _, ok := v.e.doc.variables[variable.ID]; !ok {
		return fmt.Errorf("Variable %s not found", variable.ID)
	}
	v.e.bound[field] = document.VariableAlias{Type: "VARIABLE_ALIAS", ID: variable.ID}
	return nil
}

func (v varView) ExplicitVariableModes() map[string]string {
	v.e.doc.mu.RLock()
	defer v.e.doc.mu.RUnlock()
	return maps.Clone(v.e.modes)
}

func (v varView) SetExplicitVariableModeForCollection(collectionID, modeID string) error {
	v.e.doc.mu.Lock()
	defer v.e.doc.mu.Unlock()
	col, ok := v.e.doc.collections[collectionID]
	if !ok {
		return fmt.Errorf("Variable collection not found: %s", collectionID)
	}
	if !slices.ContainsFunc(col.Modes, func(m document.VariableMode) bool { return m.ModeID == modeID }) {
		return fmt.Errorf("Mode %s not found in collection %s", modeID, collectionID)
	}
	v.e.modes[collectionID] = modeID
	return nil
}

type exportView struct{ e *entity }

func (v exportView) Export(ctx context.Context, settings document.ExportSettings) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.e.doc.mu.RLock()
	w, h := v.e.w, v.e.h
	fills := clonePaints(v.e.fills)
	v.e.doc.mu.RUnlock()
	return renderPNG(w, h, fills, settings)
}

type reactView struct{ e *entity }

func (v reactView) Reactions() []document.Reaction {
	v.e.doc.mu.RLock()
	defer v.e.doc.mu.RUnlock()
	return slices.Clone(v.e.reactions)
}

type styleView struct{ e *entity }

func (v styleView) StyleID(kind document.StyleKind) string {
	v.e.doc.mu.RLock()
	defer v.e.doc.mu.RUnlock()
	return v.e.styleIDs[kind]
}

func (v styleView) SetStyleID(kind document.StyleKind, id string) error {
	v.e.doc.mu.Lock()
	defer v.e.doc.mu.Unlock()
	st, ok := v.e.doc.styleByID(id)
	if !ok {
		return fmt.Errorf("Style not found: %s", id)
	}
	want := map[document.StyleKind]document.StyleType{
		document.StyleKindFill:   document.StylePaint,
		document.StyleKindStroke: document.StylePaint,
		document.StyleKindText:   document.StyleText,
		document.StyleKindEffect: document.StyleEffect,
		document.StyleKindGrid:   document.StyleGrid,
	}[kind]
	if st.Type != want {
		return fmt.Errorf("Style %s is a %s style, not %s", id, st.Type, want)
	}
	v.e.styleIDs[kind] = id
	switch kind {
	case document.StyleKindFill:
		v.e.fills = clonePaints(st.Paints)
	case document.StyleKindStroke:
		v.e.strokes = clonePaints(st.Paints)
	case document.StyleKindEffect:
		v.e.effects = slices.Clone(st.Effects)
	case document.StyleKindText:
		if st.FontName != nil {
			if err := v.e.requireLoaded(*st.FontName); err != nil {
				return err
			}
			v.e.font = *st.FontName
			v.e.fonts = nil
		}
		if st.FontSize > 0 {
			v.e.fontSize = st.FontSize
		}
		v.e.reflow()
	}
	return nil
}

type textView struct{ e *entity }

func (v textView) Characters() string {
	v.e.doc.mu.RLock()
	defer v.e.doc.mu.RUnlock()
	return string(v.e.chars)
}

func (v textView) SetCharacters(s string) error {
	v.e.doc.mu.Lock()
	defer v.e.doc.mu.Unlock()
	if err := v.e.requireLoaded(v.e.usedFonts()...); err != nil {
		return err
	}
	// New characters take the font of the first existing character.
	f := v.e.fontAt(0)
	v.e.chars = []rune(s)
	v.e.font = f
	v.e.fonts = nil
	v.e.reflow()
	v.e.touched("characters")
	return nil
}

func (v textView) FontName() (document.FontName, bool) {
	v.e.doc.mu.RLock()
	defer v.e.doc.mu.RUnlock()
	used := v.e.usedFonts()
	if len(used) > 1 {
		return document.FontName{}, true
	}
	return used[0], false
}

func (v textView) SetFontName(font document.FontName) error {
	v.e.doc.mu.Lock()
	defer v.e.doc.mu.Unlock()
	if err := v.e.requireLoaded(font); err != nil {
		return err
	}
	v.e.font = font
	v.e.fonts = nil
	return nil
}

func (v textView) RangeFontName(start, end int) (document.FontName, bool) {
	v.e.doc.mu.RLock()
	defer v.e.doc.mu.RUnlock()
	if start < 0 {
		start = 0
	}
	if end > len(v.e.chars) {
		end = len(v.e.chars)
	}
	if start >= end {
		return v.e.fontAt(start), false
	}
	first := v.e.fontAt(start)
	for i := start + 1; i < end; i++ {
		if v.e.fontAt(i) != first {
			return document.FontName{}, true
		}
	}
	return first, false
}

func (v textView) SetRangeFontName(start, end int, font document.FontName) error {
	v.e.doc.mu.Lock()
	defer v.e.doc.mu.Unlock()
	if start < 0 || end > len(v.e.chars) || start >= end {
		return fmt.Errorf("Range [%d, %d) is outside the text of length %d", start, end, len(v.e.chars))
	}
	if err := v.e.requireLoaded(font); err != nil {
		return err
	}
	if len(v.e.fonts) != len(v.e.chars) {
		v.e.fonts = make([]document.FontName, len(v.e.chars))
		for i := range v.e.fonts {
			v.e.fonts[i] = v.e.font
		}
	}
	for i := start; i < end; i++ {
		v.e.fonts[i] = font
	}
	return nil
}

func (v textView) FontSize() float64 {
	v.e.doc.mu.RLock()
	defer v.e.doc.mu.RUnlock()
	return v.e.fontSize
}

func (v textView) SetFontSize(size float64) error {
	if size < 1 {
		return fmt.Errorf("Invalid fontSize: %g", size)
	}
	v.e.doc.mu.Lock()
	defer v.e.doc.mu.Unlock()
	if err := v.e.requireLoaded(v.e.usedFonts()...); err != nil {
		return err
	}
	v.e.fontSize = size
	v.e.reflow()
	return nil
}

type componentView struct{ e *entity }

func (v componentView) Key() string { return v.e.key }

func (v componentView) CreateInstance() (document.Instance, error) {
	d := v.e.doc
	d.mu.Lock()
	defer d.mu.Unlock()
	if v.e.removed {
		return nil, fmt.Errorf("Component %s has been removed", v.e.id)
	}
	inst := newEntity(d, document.TypeInstance, d.nextID())
	inst.name = v.e.name
	inst.w, inst.h = v.e.w, v.e.h
	inst.fills = clonePaints(v.e.fills)
	inst.layout = v.e.layout
	inst.instantiate(v.e)
	if err := d.page.insert(-1, inst); err != nil {
		return nil, err
	}
	return inst.view.(document.Instance), nil
}

type instanceView struct{ e *entity }

func (v instanceView) MainComponent(ctx context.Context) (document.ComponentNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.e.doc.mu.RLock()
	defer v.e.doc.mu.RUnlock()
	if v.e.main == nil || v.e.main.removed {
		return nil, nil
	}
	return v.e.main.view.(document.ComponentNode), nil
}

func (v instanceView) SwapComponent(c document.ComponentNode) error {
	ce, err := entityOf(c)
	if err != nil {
		return err
	}
	v.e.doc.mu.Lock()
	defer v.e.doc.mu.Unlock()
	if ce.typ != document.TypeComponent {
		return fmt.Errorf("Cannot swap to a %s node", ce.typ)
	}
	if v.e.main == ce {
		return nil
	}
	for _, child := range v.e.children {
		child.unindex()
	}
	v.e.instantiate(ce)
	for _, child := range v.e.children {
		child.index()
	}
	return nil
}

func (v instanceView) Overrides() []document.Override {
	v.e.doc.mu.RLock()
	defer v.e.doc.mu.RUnlock()
	out := make([]document.Override, len(v.e.overrides))
	for i, o := range v.e.overrides {
		out[i] = document.Override{ID: o.ID, OverriddenFields: slices.Clone(o.OverriddenFields)}
	}
	return out
}

func (v instanceView) ComponentProperties() map[string]document.ComponentProperty {
	v.e.doc.mu.RLock()
	defer v.e.doc.mu.RUnlock()
	return maps.Clone(v.e.props)
}

func (v instanceView) SetProperties(values map[string]any) error {
	v.e.doc.mu.Lock()
	defer v.e.doc.mu.Unlock()
	for k := range values {
		if _, ok := v.e.props[k]; !ok {
			return fmt.Errorf("Component property %q not found", k)
		}
	}
	for k, val := range values {
		p := v.e.props[k]
		p.Value = val
		v.e.props[k] = p
	}
	v.e.touched("componentProperties")
	return nil
}

type connectorView struct{ e *entity }

func (v connectorView) ConnectorStart() document.ConnectorEndpoint {
	v.e.doc.mu.RLock()
	defer v.e.doc.mu.RUnlock()
	return v.e.start
}

func (v connectorView) SetConnectorStart(ep document.ConnectorEndpoint) error {
	v.e.doc.mu.Lock()
	defer v.e.doc.mu.Unlock()
	if err := v.e.doc.checkEndpoint(ep); err != nil {
		return err
	}
	v.e.start = ep
	return nil
}

func (v connectorView) ConnectorEnd() document.ConnectorEndpoint {
	v.e.doc.mu.RLock()
	defer v.e.doc.mu.RUnlock()
	return v.e.end
}

func (v connectorView) SetConnectorEnd(ep document.ConnectorEndpoint) error {
	v.e.doc.mu.Lock()
	defer v.e.doc.mu.Unlock()
	if err := v.e.doc.checkEndpoint(ep); err != nil {
		return err
	}
	v.e.end = ep
	return nil
}

func (v connectorView) TextFontName() (document.FontName, bool) {
	v.e.doc.mu.RLock()
	defer v.e.doc.mu.RUnlock()
	if v.e.connFont == nil {
		return document.FontName{}, false
	}
	return *v.e.connFont, true
}

func (v connectorView) SetTextFontName(font document.FontName) error {
	v.e.doc.mu.Lock()
	defer v.e.doc.mu.Unlock()
	if err := v.e.requireLoaded(font); err != nil {
		return err
	}
	v.e.connFont = &font
	return nil
}

func (v connectorView) TextCharacters() string {
	v.e.doc.mu.RLock()
	defer v.e.doc.mu.RUnlock()
	return string(v.e.connText)
}

func (v connectorView) SetTextCharacters(s string) error {
	v.e.doc.mu.Lock()
	defer v.e.doc.mu.Unlock()
	font := v.e.font
	if v.e.connFont != nil {
		font = *v.e.connFont
	}
	if err := v.e.requireLoaded(font); err != nil {
		return err
	}
	v.e.connText = []rune(s)
	return nil
}

// Node variants.

type documentNode struct {
	nodeView
	containerView
}

type pageNode struct {
	nodeView
	containerView
}

type frameNode struct {
	nodeView
	containerView
	geomView
	fillView
	strokeView
	cornerView
	layoutView
	effectView
	annotView
	varView
	exportView
	reactView
	styleView
}

type componentNode struct {
	frameNode
	componentView
}

type instanceNode struct {
	frameNode
	instanceView
}

type groupNode struct {
	nodeView
	containerView
	geomView
	effectView
	varView
	exportView
	reactView
}

type sectionNode struct {
	nodeView
	containerView
	geomView
	fillView
	exportView
}

type rectangleNode struct {
	nodeView
	geomView
	fillView
	strokeView
	cornerView
	effectView
	annotView
	varView
	exportView
	reactView
	styleView
}

type shapeNode struct {
	nodeView
	geomView
	fillView
	strokeView
	effectView
	annotView
	varView
	exportView
	reactView
	styleView
}

type textNode struct {
	nodeView
	geomView
	fillView
	strokeView
	effectView
	annotView
	varView
	exportView
	reactView
	styleView
	textView
}

type connectorNode struct {
	nodeView
	strokeView
	connectorView
	exportView
	reactView
}

func wrap(e *entity) document.Node {
	switch e.typ {
	case document.TypeDocument:
		return documentNode{nodeView{e}, containerView{e}}
	case document.TypePage:
		return pageNode{nodeView{e}, containerView{e}}
	case document.TypeFrame, document.TypeComponentSet:
		return newFrame(e)
	case document.TypeComponent:
		return componentNode{newFrame(e), componentView{e}}
	case document.TypeInstance:
		return instanceNode{newFrame(e), instanceView{e}}
	case document.TypeGroup:
		return groupNode{nodeView{e}, containerView{e}, geomView{e}, effectView{e}, varView{e}, exportView{e}, reactView{e}}
	case document.TypeSection:
		return sectionNode{nodeView{e}, containerView{e}, geomView{e}, fillView{e}, exportView{e}}
	case document.TypeRectangle:
		return rectangleNode{nodeView{e}, geomView{e}, fillView{e}, strokeView{e}, cornerView{e}, effectView{e}, annotView{e}, varView{e}, exportView{e}, reactView{e}, styleView{e}}
	case document.TypeText:
		return textNode{nodeView{e}, geomView{e}, fillView{e}, strokeView{e}, effectView{e}, annotView{e}, varView{e}, exportView{e}, reactView{e}, styleView{e}, textView{e}}
	case document.TypeConnector:
		return connectorNode{nodeView{e}, strokeView{e}, connectorView{e}, exportView{e}, reactView{e}}
	default:
		return shapeNode{nodeView{e}, geomView{e}, fillView{e}, strokeView{e}, effectView{e}, annotView{e}, varView{e}, exportView{e}, reactView{e}, styleView{e}}
	}
}

func newFrame(e *entity) frameNode {
	return frameNode{nodeView{e}, containerView{e}, geomView{e}, fillView{e}, strokeView{e}, cornerView{e}, layoutView{e}, effectView{e}, annotView{e}, varView{e}, exportView{e}, reactView{e}, styleView{e}}
}
