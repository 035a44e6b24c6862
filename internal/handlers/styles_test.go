package handlers

import (
	"context"
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/ttfbridge/host/internal/document"
	apperrors "github.com/ttfbridge/host/internal/errors"
)

func TestCreateAndApplyPaintStyle(t *testing.T) {
	h, doc, _ := newTestHandlers(t, cardSnapshot())
	ctx := context.Background()

	st, err := h.CreateStyle(ctx, CreateStyleParams{
		Type:       "paint",
		Name:       "Brand/Primary",
		Properties: &StyleProperties{Paints: []document.Paint{document.SolidPaint(0.1, 0.2, 0.9, 1)}},
	})
	if err != nil {
		t.Fatalf("CreateStyle: %v", err)
	}
	assert.Equal(t, st.Type, document.StylePaint)

	got, err := h.ApplyStyle(ctx, ApplyStyleParams{NodeID: "10:3", StyleID: st.ID, StyleType: "fill"})
	if err != nil {
		t.Fatalf("ApplyStyle: %v", err)
	}
	assert.Equal(t, got.Success, true)
	fills := mustNode(t, doc, "10:3").(document.Fillable).Fills()
	assert.Equal(t, fills[0].Color.B, 0.9)

	styles, err := h.GetStyles(ctx, struct{}{})
	if err != nil {
		t.Fatalf("GetStyles: %v", err)
	}
	assert.Equal(t, len(styles.Colors), 1)
	assert.Equal(t, styles.Colors[0].Name, "Brand/Primary")
	assert.Equal(t, len(styles.Texts), 0)
}

func TestCreateAndApplyTextStyle(t *testing.T) {
	h, doc, _ := newTestHandlers(t, cardSnapshot())
	ctx := context.Background()
	bold := document.FontName{Family: "Inter", Style: "Bold"}

	st, err := h.CreateStyle(ctx, CreateStyleParams{
		Type:       "TEXT",
		Name:       "Heading",
		Properties: &StyleProperties{FontName: &bold, FontSize: 24},
	})
	if err != nil {
		t.Fatalf("CreateStyle: %v", err)
	}

	if _, err := h.ApplyStyle(ctx, ApplyStyleParams{NodeID: "10:2", StyleID: st.ID, StyleType: "TEXT"}); err != nil {
		t.Fatalf("ApplyStyle: %v", err)
	}
	text := mustNode(t, doc, "10:2").(document.Text)
	font, mixed := text.FontName()
	assert.Equal(t, mixed, false)
	assert.Equal(t, font, bold)
	assert.Equal(t, text.FontSize(), 24.0)

	_, err = h.ApplyStyle(ctx, ApplyStyleParams{NodeID: "10:3", StyleID: st.ID, StyleType: "TEXT"})
	assert.Equal(t, apperrors.GetMessage(err), "Target node must be a Text node to apply specific text styles.")
}

func TestCreateStyleValidation(t *testing.T) {
	h, _, _ := newTestHandlers(t, cardSnapshot())
	ctx := context.Background()

	_, err := h.CreateStyle(ctx, CreateStyleParams{Type: "PAINT"})
	assert.Equal(t, apperrors.KindOf(err), apperrors.KindValidation)

	_, err = h.CreateStyle(ctx, CreateStyleParams{Type: "GRADIENT", Name: "x"})
	assert.Equal(t, apperrors.GetMessage(err), "Unsupported style type: GRADIENT")
}

func TestApplyStyleErrors(t *testing.T) {
	h, _, _ := newTestHandlers(t, cardSnapshot())
	ctx := context.Background()

	_, err := h.ApplyStyle(ctx, ApplyStyleParams{NodeID: "10:3", StyleID: "S:1,"})
	assert.Equal(t, apperrors.KindOf(err), apperrors.KindValidation)

	_, err = h.ApplyStyle(ctx, ApplyStyleParams{NodeID: "10:3", StyleID: "S:1,", StyleType: "BACKGROUND"})
	assert.Equal(t, apperrors.GetMessage(err), "Unsupported style type target: BACKGROUND")

	_, err = h.ApplyStyle(ctx, ApplyStyleParams{NodeID: "10:3", StyleID: "S:404,", StyleType: "FILL"})
	assert.Equal(t, apperrors.KindOf(err), apperrors.KindExternalStore)

	_, err = h.ApplyStyle(ctx, ApplyStyleParams{NodeID: "10:3", StyleID: "S:1,", StyleType: "GRID"})
	assert.Equal(t, apperrors.GetMessage(err), "Target node does not support grid styles.")
}
