package handlers

import (
	"context"
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/ttfbridge/host/internal/document"
	"github.com/ttfbridge/host/internal/document/memdoc"
	apperrors "github.com/ttfbridge/host/internal/errors"
)

func layoutSnapshot() memdoc.Snapshot {
	row := document.DefaultLayout()
	row.Mode = "HORIZONTAL"
	return memdoc.Snapshot{Nodes: []memdoc.NodeSpec{
		{ID: "90:1", Type: document.TypeFrame, Name: "Row", Width: 300, Height: 40, Layout: &row, Children: []memdoc.NodeSpec{
			{ID: "90:2", Type: document.TypeFrame, Name: "Cell", Width: 100, Height: 40, Layout: &row},
			{ID: "90:3", Type: document.TypeRectangle, Name: "Swatch", Width: 20, Height: 20},
		}},
		{ID: "91:1", Type: document.TypeFrame, Name: "Static", Width: 100, Height: 100, Children: []memdoc.NodeSpec{
			{ID: "91:2", Type: document.TypeFrame, Name: "Inner", Width: 50, Height: 50, Layout: &row},
		}},
	}}
}

func TestSetLayoutMode(t *testing.T) {
	h, _, _ := newTestHandlers(t, layoutSnapshot())
	ctx := context.Background()

	got, err := h.SetLayoutMode(ctx, SetLayoutModeParams{NodeID: "91:1", LayoutMode: "VERTICAL", LayoutWrap: "WRAP"})
	if err != nil {
		t.Fatalf("SetLayoutMode: %v", err)
	}
	assert.Equal(t, got.LayoutMode, "VERTICAL")
	assert.Equal(t, got.LayoutWrap, "WRAP")

	_, err = h.SetLayoutMode(ctx, SetLayoutModeParams{NodeID: "90:3", LayoutMode: "VERTICAL"})
	assert.Equal(t, apperrors.GetMessage(err), "Node type RECTANGLE does not support layoutMode")

	_, err = h.SetLayoutMode(ctx, SetLayoutModeParams{NodeID: "91:1", LayoutMode: "GRID"})
	assert.Equal(t, apperrors.KindOf(err), apperrors.KindValidation)
}

func TestSetPaddingKeepsUnsetSides(t *testing.T) {
	h, _, _ := newTestHandlers(t, layoutSnapshot())
	ctx := context.Background()

	got, err := h.SetPadding(ctx, SetPaddingParams{NodeID: "90:1", PaddingTop: ptr(4.0), PaddingLeft: ptr(12.0)})
	if err != nil {
		t.Fatalf("SetPadding: %v", err)
	}
	assert.Equal(t, got.PaddingTop, 4.0)
	assert.Equal(t, got.PaddingLeft, 12.0)
	assert.Equal(t, got.PaddingRight, document.DefaultLayout().PaddingRight)

	_, err = h.SetPadding(ctx, SetPaddingParams{NodeID: "91:1", PaddingTop: ptr(4.0)})
	assert.Equal(t, apperrors.GetMessage(err), "Padding can only be set on auto-layout frames (layoutMode must not be NONE)")
}

func TestSetAxisAlign(t *testing.T) {
	h, _, _ := newTestHandlers(t, layoutSnapshot())
	ctx := context.Background()

	got, err := h.SetAxisAlign(ctx, SetAxisAlignParams{NodeID: "90:1", PrimaryAxisAlignItems: ptr("SPACE_BETWEEN"), CounterAxisAlignItems: ptr("BASELINE")})
	if err != nil {
		t.Fatalf("SetAxisAlign: %v", err)
	}
	assert.Equal(t, got.PrimaryAxisAlignItems, "SPACE_BETWEEN")
	assert.Equal(t, got.CounterAxisAlignItems, "BASELINE")

	if _, err := h.SetLayoutMode(ctx, SetLayoutModeParams{NodeID: "90:2", LayoutMode: "VERTICAL"}); err != nil {
		t.Fatalf("SetLayoutMode: %v", err)
	}
	_, err = h.SetAxisAlign(ctx, SetAxisAlignParams{NodeID: "90:2", CounterAxisAlignItems: ptr("BASELINE")})
	assert.Equal(t, apperrors.GetMessage(err), "BASELINE alignment is only valid for horizontal auto-layout frames")

	_, err = h.SetAxisAlign(ctx, SetAxisAlignParams{NodeID: "90:1", PrimaryAxisAlignItems: ptr("STRETCH")})
	assert.Equal(t, apperrors.KindOf(err), apperrors.KindValidation)
}

func TestSetLayoutSizing(t *testing.T) {
	h, _, _ := newTestHandlers(t, layoutSnapshot())
	ctx := context.Background()

	got, err := h.SetLayoutSizing(ctx, SetLayoutSizingParams{NodeID: "90:2", LayoutSizingHorizontal: ptr("FILL"), LayoutSizingVertical: ptr("HUG")})
	if err != nil {
		t.Fatalf("SetLayoutSizing: %v", err)
	}
	assert.Equal(t, got.LayoutSizingHorizontal, "FILL")
	assert.Equal(t, got.LayoutSizingVertical, "HUG")

	_, err = h.SetLayoutSizing(ctx, SetLayoutSizingParams{NodeID: "91:2", LayoutSizingHorizontal: ptr("FILL")})
	assert.Equal(t, apperrors.GetMessage(err), "FILL sizing is only valid on auto-layout children")

	_, err = h.SetLayoutSizing(ctx, SetLayoutSizingParams{NodeID: "90:2", LayoutSizingVertical: ptr("STRETCH")})
	assert.Equal(t, apperrors.GetMessage(err), "Invalid layoutSizingVertical value. Must be one of: FIXED, HUG, FILL")
}

func TestSetItemSpacing(t *testing.T) {
	h, _, _ := newTestHandlers(t, layoutSnapshot())
	ctx := context.Background()

	got, err := h.SetItemSpacing(ctx, SetItemSpacingParams{NodeID: "90:1", ItemSpacing: ptr(16.0)})
	if err != nil {
		t.Fatalf("SetItemSpacing: %v", err)
	}
	assert.Equal(t, *got.ItemSpacing, 16.0)
	if got.CounterAxisSpacing != nil {
		t.Errorf("CounterAxisSpacing = %v, want nil", *got.CounterAxisSpacing)
	}

	_, err = h.SetItemSpacing(ctx, SetItemSpacingParams{NodeID: "90:1", CounterAxisSpacing: ptr(8.0)})
	assert.Equal(t, apperrors.GetMessage(err), "Counter axis spacing can only be set on frames with layoutWrap set to WRAP")

	if _, err := h.SetLayoutMode(ctx, SetLayoutModeParams{NodeID: "90:1", LayoutMode: "HORIZONTAL", LayoutWrap: "WRAP"}); err != nil {
		t.Fatalf("SetLayoutMode: %v", err)
	}
	got, err = h.SetItemSpacing(ctx, SetItemSpacingParams{NodeID: "90:1", CounterAxisSpacing: ptr(8.0)})
	if err != nil {
		t.Fatalf("SetItemSpacing: %v", err)
	}
	assert.Equal(t, *got.CounterAxisSpacing, 8.0)
	assert.Equal(t, *got.ItemSpacing, 16.0)

	_, err = h.SetItemSpacing(ctx, SetItemSpacingParams{NodeID: "90:1"})
	assert.Equal(t, apperrors.KindOf(err), apperrors.KindValidation)
}
