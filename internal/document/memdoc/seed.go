package memdoc

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ttfbridge/host/internal/document"
)

// NodeSpec describes a node to seed into a Document.
type NodeSpec struct {
	ID           string                `json:"id,omitempty"`
	Type         document.NodeType     `json:"type"`
	Name         string                `json:"name,omitempty"`
	Visible      *bool                 `json:"visible,omitempty"`
	X            float64               `json:"x,omitempty"`
	Y            float64               `json:"y,omitempty"`
	Width        float64               `json:"width,omitempty"`
	Height       float64               `json:"height,omitempty"`
	Fills        []document.Paint      `json:"fills,omitempty"`
	Strokes      []document.Paint      `json:"strokes,omitempty"`
	StrokeWeight float64               `json:"strokeWeight,omitempty"`
	CornerRadius float64               `json:"cornerRadius,omitempty"`
	Layout       *document.Layout      `json:"layout,omitempty"`
	Effects      []document.Effect     `json:"effects,omitempty"`
	Reactions    []document.Reaction   `json:"reactions,omitempty"`
	Annotations  []document.Annotation `json:"annotations,omitempty"`

	Characters string             `json:"characters,omitempty"`
	FontName   *document.FontName `json:"fontName,omitempty"`
	FontSize   float64            `json:"fontSize,omitempty"`

	// Key is the library key of a COMPONENT.
	Key string `json:"key,omitempty"`
	// ComponentID names the main component of an INSTANCE. Instance
	// children are generated from it and Children is ignored.
	ComponentID         string                                `json:"componentId,omitempty"`
	ComponentProperties map[string]document.ComponentProperty `json:"componentProperties,omitempty"`

	ConnectorStart *document.ConnectorEndpoint `json:"connectorStart,omitempty"`
	ConnectorEnd   *document.ConnectorEndpoint `json:"connectorEnd,omitempty"`

	// BoundVariables maps a field name to a variable id.
	BoundVariables map[string]string `json:"boundVariables,omitempty"`

	Children []NodeSpec `json:"children,omitempty"`
}

// CollectionSpec is a variable collection with its variables.
type CollectionSpec struct {
	document.VariableCollection
	Variables []document.Variable `json:"variables,omitempty"`
}

// Snapshot is the JSON document format accepted by LoadJSON.
type Snapshot struct {
	PageName             string                        `json:"pageName,omitempty"`
	Fonts                []document.FontName           `json:"fonts,omitempty"`
	Styles               []document.Style              `json:"styles,omitempty"`
	Collections          []CollectionSpec              `json:"variableCollections,omitempty"`
	AnnotationCategories []document.AnnotationCategory `json:"annotationCategories,omitempty"`
	Nodes                []NodeSpec                    `json:"nodes"`
	Selection            []string                      `json:"selection,omitempty"`
}

// Seed adds spec and its subtree under the node parentID, or under the
// current page when parentID is empty.
func (d *Document) Seed(spec NodeSpec, parentID string) (document.Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	parent := d.page
	if parentID != "" {
		p, ok := d.nodes[parentID]
		if !ok {
			return nil, fmt.Errorf("seed: parent %s not found", parentID)
		}
		parent = p
	}
	e, err := d.build(spec)
	if err != nil {
		return nil, err
	}
	if err := parent.insert(-1, e); err != nil {
		return nil, err
	}
	return e.view, nil
}

// build creates the entity tree for spec. Caller holds d.mu.
func (d *Document) build(spec NodeSpec) (*entity, error) {
	if spec.Type == "" {
		return nil, fmt.Errorf("seed: node %q has no type", spec.Name)
	}
	if spec.Type == document.TypeDocument || spec.Type == document.TypePage {
		return nil, fmt.Errorf("seed: cannot seed a %s node", spec.Type)
	}
	id := spec.ID
	if id == "" {
		id = d.nextID()
	} else if _, taken := d.nodes[id]; taken {
		return nil, fmt.Errorf("seed: duplicate node id %s", id)
	}
	e := newEntity(d, spec.Type, id)
	e.name = spec.Name
	if spec.Visible != nil {
		e.visible = *spec.Visible
	}
	e.x, e.y, e.w, e.h = spec.X, spec.Y, spec.Width, spec.Height
	e.fills = clonePaints(spec.Fills)
	e.strokes = clonePaints(spec.Strokes)
	e.strokeWeight = spec.StrokeWeight
	r := spec.CornerRadius
	e.corners = document.Corners{TopLeft: r, TopRight: r, BottomRight: r, BottomLeft: r}
	if spec.Layout != nil {
		e.layout = *spec.Layout
	}
	e.effects = spec.Effects
	e.reactions = spec.Reactions
	e.annotations = spec.Annotations
	for field, varID := range spec.BoundVariables {
		e.bound[field] = document.VariableAlias{Type: "VARIABLE_ALIAS", ID: varID}
	}

	if spec.Type == document.TypeText {
		e.chars = []rune(spec.Characters)
		if spec.FontName != nil {
			e.font = *spec.FontName
		}
		if spec.FontSize > 0 {
			e.fontSize = spec.FontSize
		}
		if spec.Width == 0 && spec.Height == 0 {
			e.reflow()
		}
	}
	if spec.ConnectorStart != nil {
		e.start = *spec.ConnectorStart
	}
	if spec.ConnectorEnd != nil {
		e.end = *spec.ConnectorEnd
	}

	switch spec.Type {
	case document.TypeComponent:
		e.key = spec.Key
		if e.key == "" {
			e.key = "key-" + id
		}
		e.props = spec.ComponentProperties
		d.components[e.key] = e
	case document.TypeInstance:
		main, ok := d.nodes[spec.ComponentID]
		if !ok || main.typ != document.TypeComponent {
			return nil, fmt.Errorf("seed: instance %s references unknown component %q", id, spec.ComponentID)
		}
		e.instantiate(main)
		for k, v := range spec.ComponentProperties {
			e.props[k] = v
		}
		return e, nil
	}

	for _, cs := range spec.Children {
		c, err := d.build(cs)
		if err != nil {
			return nil, err
		}
		c.parent = e
		e.children = append(e.children, c)
		// Register children immediately so later siblings can reference
		// them as main components.
		c.index()
	}
	return e, nil
}

// LoadJSON builds a Document from a Snapshot.
func LoadJSON(r io.Reader) (*Document, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return FromSnapshot(snap)
}

// LoadFile reads a Snapshot from path.
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadJSON(f)
}

// FromSnapshot builds a Document from snap.
func FromSnapshot(snap Snapshot) (*Document, error) {
	d := New(Options{Fonts: snap.Fonts, PageName: snap.PageName})
	for _, s := range snap.Styles {
		d.AddStyle(s)
	}
	for _, c := range snap.Collections {
		d.AddVariableCollection(c.VariableCollection, c.Variables...)
	}
	for _, c := range snap.AnnotationCategories {
		d.AddAnnotationCategory(c)
	}
	for _, n := range snap.Nodes {
		if _, err := d.Seed(n, ""); err != nil {
			return nil, err
		}
	}
	if len(snap.Selection) > 0 {
		d.mu.Lock()
		defer d.mu.Unlock()
		for _, id := range snap.Selection {
			e, ok := d.nodes[id]
			if !ok {
				return nil, fmt.Errorf("seed: selected node %s not found", id)
			}
			d.selection = append(d.selection, e)
		}
	}
	return d, nil
}
