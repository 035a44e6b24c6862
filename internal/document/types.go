package document

import "github.com/ttfbridge/host/internal/colorutil"

// Color is a normalized 0..1 color. Solid paints leave A nil and carry
// opacity on the Paint instead.
type Color = colorutil.RGBA

// Paint is a fill or stroke layer.
type Paint struct {
	Type           string                   `json:"type"`
	Visible        *bool                    `json:"visible,omitempty"`
	Opacity        *float64                 `json:"opacity,omitempty"`
	BlendMode      string                   `json:"blendMode,omitempty"`
	Color          *Color                   `json:"color,omitempty"`
	GradientStops  []GradientStop           `json:"gradientStops,omitempty"`
	ImageRef       string                   `json:"imageRef,omitempty"`
	BoundVariables map[string]VariableAlias `json:"boundVariables,omitempty"`
}

// SolidPaint builds a SOLID paint with the given opacity.
func SolidPaint(r, g, b, opacity float64) Paint {
	return Paint{
		Type:    "SOLID",
		Color:   &Color{R: r, G: g, B: b},
		Opacity: &opacity,
	}
}

type GradientStop struct {
	Position       float64                  `json:"position"`
	Color          Color                    `json:"color"`
	BoundVariables map[string]VariableAlias `json:"boundVariables,omitempty"`
}

type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Effect struct {
	Type      string   `json:"type"`
	Color     *Color   `json:"color,omitempty"`
	Offset    *Vector  `json:"offset,omitempty"`
	Radius    float64  `json:"radius"`
	Spread    *float64 `json:"spread,omitempty"`
	Visible   bool     `json:"visible"`
	BlendMode string   `json:"blendMode,omitempty"`
}

type FontName struct {
	Family string `json:"family"`
	Style  string `json:"style"`
}

func (f FontName) String() string {
	return f.Family + " " + f.Style
}

type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Corners holds per-corner radii.
type Corners struct {
	TopLeft     float64 `json:"topLeftRadius"`
	TopRight    float64 `json:"topRightRadius"`
	BottomRight float64 `json:"bottomRightRadius"`
	BottomLeft  float64 `json:"bottomLeftRadius"`
}

// Layout is the auto-layout state of a frame-like node.
type Layout struct {
	Mode                  string   `json:"layoutMode"`
	Wrap                  string   `json:"layoutWrap"`
	PaddingTop            float64  `json:"paddingTop"`
	PaddingRight          float64  `json:"paddingRight"`
	PaddingBottom         float64  `json:"paddingBottom"`
	PaddingLeft           float64  `json:"paddingLeft"`
	PrimaryAxisAlignItems string   `json:"primaryAxisAlignItems"`
	CounterAxisAlignItems string   `json:"counterAxisAlignItems"`
	SizingHorizontal      string   `json:"layoutSizingHorizontal"`
	SizingVertical        string   `json:"layoutSizingVertical"`
	ItemSpacing           float64  `json:"itemSpacing"`
	CounterAxisSpacing    *float64 `json:"counterAxisSpacing,omitempty"`
}

// DefaultLayout is the layout of a freshly created frame.
func DefaultLayout() Layout {
	return Layout{
		Mode:                  "NONE",
		Wrap:                  "NO_WRAP",
		PrimaryAxisAlignItems: "MIN",
		CounterAxisAlignItems: "MIN",
		SizingHorizontal:      "FIXED",
		SizingVertical:        "FIXED",
	}
}

type AnnotationLabel struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type AnnotationProperty struct {
	Type string `json:"type"`
}

type Annotation struct {
	Label         *AnnotationLabel     `json:"label,omitempty"`
	LabelMarkdown string               `json:"labelMarkdown,omitempty"`
	CategoryID    string               `json:"categoryId,omitempty"`
	Properties    []AnnotationProperty `json:"properties,omitempty"`
}

type AnnotationCategory struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Color    string `json:"color"`
	IsPreset bool   `json:"isPreset"`
}

type Trigger struct {
	Type string `json:"type"`
}

type Action struct {
	Type          string `json:"type"`
	DestinationID string `json:"destinationId,omitempty"`
	Navigation    string `json:"navigation,omitempty"`
}

type Reaction struct {
	Trigger *Trigger `json:"trigger,omitempty"`
	Action  *Action  `json:"action,omitempty"`
	Actions []Action `json:"actions,omitempty"`
}

// Override records which fields of an instance descendant differ from the
// main component.
type Override struct {
	ID               string   `json:"id"`
	OverriddenFields []string `json:"overriddenFields"`
}

type ComponentProperty struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

type ConnectorEndpoint struct {
	EndpointNodeID string  `json:"endpointNodeId,omitempty"`
	Magnet         string  `json:"magnet,omitempty"`
	Position       *Vector `json:"position,omitempty"`
}

// StyleType is the kind of a shared style definition.
type StyleType string

const (
	StylePaint  StyleType = "PAINT"
	StyleText   StyleType = "TEXT"
	StyleEffect StyleType = "EFFECT"
	StyleGrid   StyleType = "GRID"
)

// StyleKind is the node slot a style is applied to.
type StyleKind string

const (
	StyleKindFill   StyleKind = "FILL"
	StyleKindStroke StyleKind = "STROKE"
	StyleKindText   StyleKind = "TEXT"
	StyleKindEffect StyleKind = "EFFECT"
	StyleKindGrid   StyleKind = "GRID"
)

type Style struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Key              string           `json:"key"`
	Type             StyleType        `json:"type"`
	Description      string           `json:"description,omitempty"`
	Paints           []Paint          `json:"paints,omitempty"`
	FontName         *FontName        `json:"fontName,omitempty"`
	FontSize         float64          `json:"fontSize,omitempty"`
	LineHeight       any              `json:"lineHeight,omitempty"`
	LetterSpacing    any              `json:"letterSpacing,omitempty"`
	ParagraphIndent  float64          `json:"paragraphIndent,omitempty"`
	ParagraphSpacing float64          `json:"paragraphSpacing,omitempty"`
	TextCase         string           `json:"textCase,omitempty"`
	TextDecoration   string           `json:"textDecoration,omitempty"`
	Effects          []Effect         `json:"effects,omitempty"`
	LayoutGrids      []map[string]any `json:"layoutGrids,omitempty"`
}

type VariableAlias struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type Variable struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Key          string         `json:"key"`
	ResolvedType string         `json:"resolvedType"`
	Description  string         `json:"description"`
	CollectionID string         `json:"variableCollectionId"`
	Remote       bool           `json:"remote"`
	Scopes       []string       `json:"scopes"`
	ValuesByMode map[string]any `json:"valuesByMode"`
}

type VariableMode struct {
	ModeID string `json:"modeId"`
	Name   string `json:"name"`
}

type VariableCollection struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Key           string         `json:"key"`
	Modes         []VariableMode `json:"modes"`
	DefaultModeID string         `json:"defaultModeId"`
	Remote        bool           `json:"remote"`
	VariableIDs   []string       `json:"variableIds"`
}

// ExportSettings controls node rasterization.
type ExportSettings struct {
	Format string  `json:"format"`
	Scale  float64 `json:"scale"`
}
