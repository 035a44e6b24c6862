package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"

	"github.com/ttfbridge/host/internal/colorutil"
	"github.com/ttfbridge/host/internal/document"
	apperrors "github.com/ttfbridge/host/internal/errors"
	"github.com/ttfbridge/host/internal/nodeutil"
	"github.com/ttfbridge/host/internal/textutil"
)

type StyleRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Key  string `json:"key"`
}

type ColorStyle struct {
	StyleRef
	Paint *document.Paint `json:"paint,omitempty"`
}

type TextStyle struct {
	StyleRef
	FontSize float64            `json:"fontSize"`
	FontName *document.FontName `json:"fontName,omitempty"`
}

type Styles struct {
	Colors  []ColorStyle `json:"colors"`
	Texts   []TextStyle  `json:"texts"`
	Effects []StyleRef   `json:"effects"`
	Grids   []StyleRef   `json:"grids"`
}

func styleRef(s document.Style) StyleRef {
	return StyleRef{ID: s.ID, Name: s.Name, Key: s.Key}
}

// GetStyles lists the local paint, text, effect and grid styles.
func (h *Handlers) GetStyles(ctx context.Context, _ struct{}) (*Styles, error) {
	paints, err := h.Store.LocalPaintStyles(ctx)
	if err != nil {
		return nil, apperrors.StoreFailed("Error getting styles", err)
	}
	texts, err := h.Store.LocalTextStyles(ctx)
	if err != nil {
		return nil, apperrors.StoreFailed("Error getting styles", err)
	}
	effects, err := h.Store.LocalEffectStyles(ctx)
	if err != nil {
		return nil, apperrors.StoreFailed("Error getting styles", err)
	}
	grids, err := h.Store.LocalGridStyles(ctx)
	if err != nil {
		return nil, apperrors.StoreFailed("Error getting styles", err)
	}

	out := &Styles{
		Colors:  make([]ColorStyle, 0, len(paints)),
		Texts:   make([]TextStyle, 0, len(texts)),
		Effects: make([]StyleRef, 0, len(effects)),
		Grids:   make([]StyleRef, 0, len(grids)),
	}
	for _, s := range paints {
		cs := ColorStyle{StyleRef: styleRef(s)}
		if len(s.Paints) > 0 {
			cs.Paint = &s.Paints[0]
		}
		out.Colors = append(out.Colors, cs)
	}
	for _, s := range texts {
		out.Texts = append(out.Texts, TextStyle{StyleRef: styleRef(s), FontSize: s.FontSize, FontName: s.FontName})
	}
	for _, s := range effects {
		out.Effects = append(out.Effects, styleRef(s))
	}
	for _, s := range grids {
		out.Grids = append(out.Grids, styleRef(s))
	}
	return out, nil
}

type LocalComponents struct {
	Count      int        `json:"count"`
	Components []StyleRef `json:"components"`
}

// GetLocalComponents lists every main component in the document.
func (h *Handlers) GetLocalComponents(ctx context.Context, _ struct{}) (*LocalComponents, error) {
	found := nodeutil.FindAll(h.Store.Root(ctx), nodeutil.OfTypes(document.TypeComponent))
	out := &LocalComponents{Components: make([]StyleRef, 0, len(found))}
	for _, n := range found {
		ref := StyleRef{ID: n.ID(), Name: n.Name()}
		if c, ok := n.(document.ComponentNode); ok {
			ref.Key = c.Key()
		}
		out.Components = append(out.Components, ref)
	}
	out.Count = len(out.Components)
	return out, ctx.Err()
}

type ExportNodeParams struct {
	NodeID string   `json:"nodeId"`
	Format string   `json:"format"`
	Scale  *float64 `json:"scale"`
}

type ExportedImage struct {
	NodeID    string  `json:"nodeId"`
	Format    string  `json:"format"`
	Scale     float64 `json:"scale"`
	MimeType  string  `json:"mimeType"`
	ImageData string  `json:"imageData"`
}

// ExportNodeAsImage rasterizes a node to PNG and returns it base64 encoded.
// The format parameter is accepted for compatibility; output is always PNG.
func (h *Handlers) ExportNodeAsImage(ctx context.Context, p ExportNodeParams) (*ExportedImage, error) {
	if p.NodeID == "" {
		return nil, apperrors.MissingParam("nodeId")
	}
	n, err := h.node(ctx, p.NodeID)
	if err != nil {
		return nil, err
	}
	ex, ok := n.(document.Exportable)
	if !ok {
		return nil, apperrors.Unsupported("Node does not support exporting")
	}
	scale := orDefault(p.Scale, 1)
	data, err := ex.Export(ctx, document.ExportSettings{Format: "PNG", Scale: scale})
	if err != nil {
		return nil, apperrors.StoreFailed("Error exporting node as image", err)
	}
	return &ExportedImage{
		NodeID:    p.NodeID,
		Format:    "PNG",
		Scale:     scale,
		MimeType:  "image/png",
		ImageData: colorutil.Base64(data),
	}, nil
}

type GetInstanceOverridesParams struct {
	InstanceNodeID string `json:"instanceNodeId"`
}

// OverridesResult reports a source-instance lookup. Failures that the UI
// should surface as a toast come back with Success false instead of an
// error.
type OverridesResult struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	SourceInstanceID string `json:"sourceInstanceId,omitempty"`
	MainComponentID  string `json:"mainComponentId,omitempty"`
	OverridesCount   int    `json:"overridesCount,omitempty"`
}

func (h *Handlers) failOverrides(ctx context.Context, msg string) *OverridesResult {
	h.Store.Notify(ctx, msg)
	return &OverridesResult{Message: msg}
}

// GetInstanceOverrides inspects an instance, or the first instance in the
// selection, and reports its main component and override count.
func (h *Handlers) GetInstanceOverrides(ctx context.Context, p GetInstanceOverridesParams) (*OverridesResult, error) {
	var inst document.Instance
	if p.InstanceNodeID != "" {
		n, err := h.lookup(ctx, p.InstanceNodeID, "Instance node not found with ID: %s")
		if err != nil {
			return nil, err
		}
		i, ok := n.(document.Instance)
		if !ok || n.Type() != document.TypeInstance {
			return h.failOverrides(ctx, "Provided node is not a component instance"), nil
		}
		inst = i
	} else {
		sel := h.Store.Selection(ctx)
		if len(sel) == 0 {
			return h.failOverrides(ctx, "No nodes selected"), nil
		}
		for _, n := range sel {
			if i, ok := n.(document.Instance); ok && n.Type() == document.TypeInstance {
				inst = i
				break
			}
		}
		if inst == nil {
			return h.failOverrides(ctx, "No instances found in selection"), nil
		}
	}

	main, err := inst.MainComponent(ctx)
	if err != nil {
		return nil, apperrors.StoreFailed("Error getting main component", err)
	}
	if main == nil {
		return h.failOverrides(ctx, "Failed to get main component"), nil
	}
	overrides := inst.Overrides()
	out := &OverridesResult{
		Success:          true,
		Message:          fmt.Sprintf("Got component information from %q for overrides.length: %d", inst.Name(), len(overrides)),
		SourceInstanceID: inst.ID(),
		MainComponentID:  main.ID(),
		OverridesCount:   len(overrides),
	}
	h.Store.Notify(ctx, fmt.Sprintf("Got component information from %q", inst.Name()))
	return out, nil
}

type SetInstanceOverridesParams struct {
	SourceInstanceID string   `json:"sourceInstanceId"`
	TargetNodeIDs    []string `json:"targetNodeIds"`
}

type InstanceOverrideResult struct {
	Success      bool   `json:"success"`
	InstanceID   string `json:"instanceId"`
	InstanceName string `json:"instanceName"`
	AppliedCount int    `json:"appliedCount,omitempty"`
	Message      string `json:"message,omitempty"`
}

type SetOverridesResult struct {
	Success    bool                     `json:"success"`
	Message    string                   `json:"message"`
	TotalCount int                      `json:"totalCount,omitempty"`
	Results    []InstanceOverrideResult `json:"results,omitempty"`
}

func (h *Handlers) failSetOverrides(ctx context.Context, msg string) *SetOverridesResult {
	h.Store.Notify(ctx, msg)
	return &SetOverridesResult{Message: msg}
}

// SetInstanceOverrides swaps every target instance to the source's main
// component and replays the source's overrides onto it.
func (h *Handlers) SetInstanceOverrides(ctx context.Context, p SetInstanceOverridesParams) (*SetOverridesResult, error) {
	if p.SourceInstanceID == "" {
		return nil, apperrors.Invalid(apperrors.MsgMissingSourceInstanceID)
	}
	if len(p.TargetNodeIDs) == 0 {
		return h.failSetOverrides(ctx, "No instances provided"), nil
	}
	var targets []document.Instance
	for _, id := range p.TargetNodeIDs {
		n, err := h.Store.NodeByID(ctx, id)
		if err != nil {
			continue
		}
		if inst, ok := n.(document.Instance); ok && n.Type() == document.TypeInstance {
			targets = append(targets, inst)
		}
	}
	if len(targets) == 0 {
		return h.failSetOverrides(ctx, "No valid instances provided"), nil
	}

	srcNode, err := h.Store.NodeByID(ctx, p.SourceInstanceID)
	if err != nil {
		return h.failSetOverrides(ctx, "Source instance not found. The original instance may have been deleted."), nil
	}
	source, ok := srcNode.(document.Instance)
	if !ok || srcNode.Type() != document.TypeInstance {
		return h.failSetOverrides(ctx, "Source node is not a component instance."), nil
	}
	main, err := source.MainComponent(ctx)
	if err != nil || main == nil {
		return h.failSetOverrides(ctx, "Failed to get main component from source instance."), nil
	}
	overrides := source.Overrides()

	var (
		results []InstanceOverrideResult
		total   int
	)
	for _, target := range targets {
		res := InstanceOverrideResult{InstanceID: target.ID(), InstanceName: target.Name()}
		if err := target.SwapComponent(main); err != nil {
			log.Printf("handlers: swapping %s to %s: %v", target.ID(), main.ID(), err)
			res.Message = "Error swapping component: " + err.Error()
			results = append(results, res)
			continue
		}
		applied := h.replayOverrides(ctx, source.ID(), target.ID(), overrides)
		if applied > 0 {
			res.Success = true
			res.AppliedCount = applied
			total += applied
		} else {
			res.Message = "No overrides were applied"
		}
		results = append(results, res)
	}

	if total == 0 {
		return h.failSetOverrides(ctx, "No overrides applied to any instance"), nil
	}
	msg := fmt.Sprintf("Applied %d overrides to %d instances", total, len(targets))
	h.Store.Notify(ctx, msg)
	return &SetOverridesResult{Success: true, Message: msg, TotalCount: total, Results: results}, nil
}

// replayOverrides copies each overridden field from the source instance's
// descendants to the matching descendants of the target. It returns how many
// fields were applied.
func (h *Handlers) replayOverrides(ctx context.Context, sourceID, targetID string, overrides []document.Override) int {
	applied := 0
	for _, ov := range overrides {
		src, err := h.Store.NodeByID(ctx, ov.ID)
		if err != nil {
			log.Printf("handlers: override source %s: %v", ov.ID, err)
			continue
		}
		dstID := strings.Replace(ov.ID, sourceID, targetID, 1)
		dst, err := h.Store.NodeByID(ctx, dstID)
		if err != nil {
			log.Printf("handlers: override target %s: %v", dstID, err)
			continue
		}
		for _, field := range ov.OverriddenFields {
			ok, err := h.copyField(ctx, src, dst, field)
			if err != nil {
				log.Printf("handlers: applying %s to %s: %v", field, dstID, err)
				continue
			}
			if ok {
				applied++
			}
		}
	}
	return applied
}

// copyField copies one override field. It reports false for fields it does
// not know how to copy or that the nodes do not share.
func (h *Handlers) copyField(ctx context.Context, src, dst document.Node, field string) (bool, error) {
	switch field {
	case "componentProperties":
		s, ok1 := src.(document.Instance)
		d, ok2 := dst.(document.Instance)
		if !ok1 || !ok2 {
			return false, nil
		}
		values := make(map[string]any)
		for k, v := range s.ComponentProperties() {
			values[k] = v.Value
		}
		return true, d.SetProperties(values)
	case "characters":
		s, ok1 := src.(document.Text)
		d, ok2 := dst.(document.Text)
		if !ok1 || !ok2 {
			return false, nil
		}
		return textutil.SetCharacters(ctx, h.Store, d, s.Characters(), textutil.Options{})
	case "name":
		dst.SetName(src.Name())
		return true, nil
	case "visible":
		dst.SetVisible(src.Visible())
		return true, nil
	case "fills":
		s, ok1 := src.(document.Fillable)
		d, ok2 := dst.(document.Fillable)
		if !ok1 || !ok2 {
			return false, nil
		}
		return true, d.SetFills(s.Fills())
	case "strokes":
		s, ok1 := src.(document.Strokable)
		d, ok2 := dst.(document.Strokable)
		if !ok1 || !ok2 {
			return false, nil
		}
		return true, d.SetStrokes(s.Strokes())
	case "strokeWeight":
		s, ok1 := src.(document.Strokable)
		d, ok2 := dst.(document.Strokable)
		if !ok1 || !ok2 {
			return false, nil
		}
		return true, d.SetStrokeWeight(s.StrokeWeight())
	case "effects":
		s, ok1 := src.(document.Effected)
		d, ok2 := dst.(document.Effected)
		if !ok1 || !ok2 {
			return false, nil
		}
		return true, d.SetEffects(s.Effects())
	case "cornerRadius":
		if s, ok := src.(document.PerCornerRounded); ok {
			if d, ok := dst.(document.PerCornerRounded); ok {
				return true, d.SetCornerRadii(s.CornerRadii())
			}
		}
		s, ok1 := src.(document.CornerRounded)
		d, ok2 := dst.(document.CornerRounded)
		if !ok1 || !ok2 {
			return false, nil
		}
		r, _ := s.CornerRadius()
		return true, d.SetCornerRadius(r)
	case "width", "height":
		s, ok1 := src.(document.Resizable)
		d, ok2 := dst.(document.Resizable)
		if !ok1 || !ok2 {
			return false, nil
		}
		return true, d.Resize(s.Width(), s.Height())
	case "fontSize", "fontName":
		s, ok1 := src.(document.Text)
		d, ok2 := dst.(document.Text)
		if !ok1 || !ok2 {
			return false, nil
		}
		font, mixed := d.FontName()
		if field == "fontName" {
			font, mixed = s.FontName()
		}
		if mixed {
			return false, nil
		}
		if err := h.Store.LoadFont(ctx, font); err != nil {
			return false, err
		}
		if field == "fontName" {
			return true, d.SetFontName(font)
		}
		return true, d.SetFontSize(s.FontSize())
	default:
		log.Printf("handlers: skipping unsupported override field %q", field)
		return false, nil
	}
}

type CreateComponentFromNodeParams struct {
	NodeID string `json:"nodeId"`
	Name   string `json:"name"`
}

type CreatedComponent struct {
	ID   string            `json:"id"`
	Name string            `json:"name"`
	Type document.NodeType `json:"type"`
	Key  string            `json:"key"`
}

// CreateComponentFromNode turns a frame into a main component in place. The
// frame's visual properties and children move to the new component, which
// takes the frame's slot in its parent; the frame is then removed.
func (h *Handlers) CreateComponentFromNode(ctx context.Context, p CreateComponentFromNodeParams) (*CreatedComponent, error) {
	if p.NodeID == "" {
		return nil, apperrors.MissingParam("nodeId")
	}
	n, err := h.node(ctx, p.NodeID)
	if err != nil {
		return nil, err
	}
	if n.Type() != document.TypeFrame {
		return nil, apperrors.Unsupported("Target node must be a FRAME, got %s", n.Type())
	}
	frame := n.(document.Container)

	comp, err := h.Store.CreateComponent(ctx)
	if err != nil {
		return nil, apperrors.StoreFailed("Error creating component", err)
	}
	comp.SetName(stringOr(p.Name, n.Name()))
	if err := copyFrameProps(n, comp); err != nil {
		return nil, apperrors.StoreFailed("Error copying frame properties", err)
	}
	for _, child := range frame.Children() {
		if err := comp.(document.Container).AppendChild(child); err != nil {
			return nil, apperrors.StoreFailed("Error moving children", err)
		}
	}
	if parent, ok := n.Parent().(document.Container); ok {
		idx := slices.IndexFunc(parent.Children(), func(c document.Node) bool { return c.ID() == n.ID() })
		if err := parent.InsertChild(idx, comp); err != nil {
			return nil, apperrors.StoreFailed("Error placing component", err)
		}
	}
	if err := n.Remove(); err != nil {
		return nil, apperrors.StoreFailed("Error removing source frame", err)
	}
	return &CreatedComponent{ID: comp.ID(), Name: comp.Name(), Type: comp.Type(), Key: comp.Key()}, nil
}

func copyFrameProps(src, dst document.Node) error {
	var errs []error
	if s, ok := src.(document.Positioned); ok {
		if d, ok := dst.(document.Positioned); ok {
			d.SetPosition(s.X(), s.Y())
		}
	}
	if s, ok := src.(document.Resizable); ok {
		if d, ok := dst.(document.Resizable); ok {
			errs = append(errs, d.Resize(s.Width(), s.Height()))
		}
	}
	if s, ok := src.(document.Fillable); ok {
		if d, ok := dst.(document.Fillable); ok {
			errs = append(errs, d.SetFills(s.Fills()))
		}
	}
	if s, ok := src.(document.Strokable); ok {
		if d, ok := dst.(document.Strokable); ok {
			errs = append(errs, d.SetStrokes(s.Strokes()), d.SetStrokeWeight(s.StrokeWeight()))
		}
	}
	if s, ok := src.(document.PerCornerRounded); ok {
		if d, ok := dst.(document.PerCornerRounded); ok {
			errs = append(errs, d.SetCornerRadii(s.CornerRadii()))
		}
	}
	if s, ok := src.(document.AutoLayout); ok {
		if d, ok := dst.(document.AutoLayout); ok {
			errs = append(errs, d.SetLayout(s.Layout()))
		}
	}
	if s, ok := src.(document.Effected); ok {
		if d, ok := dst.(document.Effected); ok {
			errs = append(errs, d.SetEffects(s.Effects()))
		}
	}
	return errors.Join(errs...)
}
