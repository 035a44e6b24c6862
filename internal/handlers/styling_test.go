package handlers

import (
	"context"
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/ttfbridge/host/internal/document"
	"github.com/ttfbridge/host/internal/document/memdoc"
	apperrors "github.com/ttfbridge/host/internal/errors"
	"github.com/ttfbridge/host/internal/nodeutil"
)

func TestSetFillColorIdempotent(t *testing.T) {
	h, _, _ := newTestHandlers(t, cardSnapshot())
	ctx := context.Background()
	p := SetFillColorParams{NodeID: "10:3", Color: &Color{R: 0.2, G: 0.4, B: 0.6, A: ptr(0.5)}}

	first, err := h.SetFillColor(ctx, p)
	if err != nil {
		t.Fatalf("SetFillColor: %v", err)
	}
	second, err := h.SetFillColor(ctx, p)
	if err != nil {
		t.Fatalf("SetFillColor: %v", err)
	}
	assert.Equal(t, second.Fills, first.Fills)
	assert.Equal(t, len(second.Fills), 1)
	assert.Equal(t, *second.Fills[0].Opacity, 0.5)
}

func TestColorAlphaDefaults(t *testing.T) {
	assert.Equal(t, Color{}.alpha(), 1.0)
	assert.Equal(t, Color{A: ptr(0.0)}.alpha(), 0.0)
}

func TestSafeAreaScenario(t *testing.T) {
	h, doc, _ := newTestHandlers(t, cardSnapshot())
	ctx := context.Background()

	frame, err := h.CreateFrame(ctx, CreateFrameParams{
		X: ptr(0.0), Y: ptr(0.0), Width: ptr(100.0), Height: ptr(100.0), Name: "Safe Area", ParentID: "10:1",
	})
	if err != nil {
		t.Fatalf("CreateFrame: %v", err)
	}
	if _, err := h.MoveNode(ctx, MoveNodeParams{NodeID: frame.ID, X: ptr(112.0), Y: ptr(96.0)}); err != nil {
		t.Fatalf("MoveNode: %v", err)
	}
	if _, err := h.SetFillColor(ctx, SetFillColorParams{NodeID: frame.ID, Color: &Color{A: ptr(0.0)}}); err != nil {
		t.Fatalf("SetFillColor: %v", err)
	}
	if _, err := h.SetStrokeColor(ctx, SetStrokeColorParams{NodeID: frame.ID, Color: &Color{R: 1, G: 1, B: 1, A: ptr(1.0)}, Weight: ptr(1.0)}); err != nil {
		t.Fatalf("SetStrokeColor: %v", err)
	}

	n := mustNode(t, doc, frame.ID)
	pos := n.(document.Positioned)
	assert.Equal(t, pos.X(), 112.0)
	assert.Equal(t, pos.Y(), 96.0)
	fills := n.(document.Fillable).Fills()
	assert.Equal(t, *fills[0].Color, document.Color{R: 0, G: 0, B: 0})
	assert.Equal(t, *fills[0].Opacity, 0.0)
	s := n.(document.Strokable)
	assert.Equal(t, *s.Strokes()[0].Color, document.Color{R: 1, G: 1, B: 1})
	assert.Equal(t, *s.Strokes()[0].Opacity, 1.0)
	assert.Equal(t, s.StrokeWeight(), 1.0)

	ser := nodeutil.Serialize(n)
	assert.Equal(t, *ser.Fills[0].Opacity, 0.0)
}

func TestSetStrokeColorDefaults(t *testing.T) {
	h, _, _ := newTestHandlers(t, cardSnapshot())

	got, err := h.SetStrokeColor(context.Background(), SetStrokeColorParams{NodeID: "10:3"})
	if err != nil {
		t.Fatalf("SetStrokeColor: %v", err)
	}
	assert.Equal(t, got.StrokeWeight, 1.0)
	assert.Equal(t, *got.Strokes[0].Color, document.Color{})
	assert.Equal(t, *got.Strokes[0].Opacity, 1.0)
}

func TestSetCornerRadiusMask(t *testing.T) {
	h, _, _ := newTestHandlers(t, cardSnapshot())
	ctx := context.Background()

	got, err := h.SetCornerRadius(ctx, SetCornerRadiusParams{NodeID: "10:3", Radius: ptr(8.0)})
	if err != nil {
		t.Fatalf("SetCornerRadius: %v", err)
	}
	assert.Equal(t, *got.CornerRadius, 8.0)

	got, err = h.SetCornerRadius(ctx, SetCornerRadiusParams{NodeID: "10:3", Radius: ptr(2.0), Corners: []bool{true, false, false, true}})
	if err != nil {
		t.Fatalf("SetCornerRadius: %v", err)
	}
	if got.CornerRadius != nil {
		t.Errorf("CornerRadius = %v, want nil for mixed corners", *got.CornerRadius)
	}
	assert.Equal(t, got.Corners.TopLeft, 2.0)
	assert.Equal(t, got.Corners.TopRight, 8.0)
	assert.Equal(t, got.Corners.BottomLeft, 2.0)
}

func TestSetCornerRadiusUnsupported(t *testing.T) {
	h, _, _ := newTestHandlers(t, cardSnapshot())

	_, err := h.SetCornerRadius(context.Background(), SetCornerRadiusParams{NodeID: "10:2", Radius: ptr(4.0)})
	assert.Equal(t, apperrors.KindOf(err), apperrors.KindCapabilityMismatch)
}

func TestSetEffects(t *testing.T) {
	h, _, _ := newTestHandlers(t, memdoc.Snapshot{Nodes: []memdoc.NodeSpec{
		{ID: "10:1", Type: document.TypeFrame, Name: "Card", Width: 10, Height: 10},
	}})
	ctx := context.Background()
	shadow := document.Effect{
		Type:    "DROP_SHADOW",
		Color:   &document.Color{A: ptr(0.25)},
		Offset:  &document.Vector{X: 0, Y: 2},
		Radius:  4,
		Visible: true,
	}

	got, err := h.SetEffects(ctx, SetEffectsParams{NodeID: "10:1", Effects: []document.Effect{shadow}})
	if err != nil {
		t.Fatalf("SetEffects: %v", err)
	}
	assert.Equal(t, len(got.Effects), 1)
	assert.Equal(t, got.Effects[0].Type, "DROP_SHADOW")

	got, err = h.SetEffects(ctx, SetEffectsParams{NodeID: "10:1", Effects: []document.Effect{}})
	if err != nil {
		t.Fatalf("SetEffects(clear): %v", err)
	}
	assert.Equal(t, len(got.Effects), 0)

	_, err = h.SetEffects(ctx, SetEffectsParams{NodeID: "10:1"})
	assert.Equal(t, apperrors.GetMessage(err), "Missing effects parameter")
}
