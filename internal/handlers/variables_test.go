package handlers

import (
	"context"
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/ttfbridge/host/internal/document"
	"github.com/ttfbridge/host/internal/document/memdoc"
	apperrors "github.com/ttfbridge/host/internal/errors"
)

func variablesSnapshot() memdoc.Snapshot {
	snap := cardSnapshot()
	snap.Collections = []memdoc.CollectionSpec{{
		VariableCollection: document.VariableCollection{
			ID:            "VariableCollectionId:1",
			Name:          "Theme",
			Modes:         []document.VariableMode{{ModeID: "m-light", Name: "Light"}, {ModeID: "m-dark", Name: "Dark"}},
			DefaultModeID: "m-light",
		},
		Variables: []document.Variable{{
			ID:           "VariableID:1",
			Name:         "color/primary",
			ResolvedType: "COLOR",
			CollectionID: "VariableCollectionId:1",
			ValuesByMode: map[string]any{"m-light": "#ffffff"},
		}},
	}}
	snap.Nodes[0].Children[1].BoundVariables = map[string]string{"fills": "VariableID:1", "opacity": "VariableID:404"}
	return snap
}

func TestGetVariables(t *testing.T) {
	h, _, _ := newTestHandlers(t, variablesSnapshot())
	ctx := context.Background()

	got, err := h.GetVariables(ctx, GetVariablesParams{})
	if err != nil {
		t.Fatalf("GetVariables: %v", err)
	}
	list := got.(*VariablesList)
	assert.Equal(t, len(list.Collections), 1)
	assert.Equal(t, len(list.Variables), 1)
	assert.Equal(t, list.Variables[0].Type, "COLOR")

	got, err = h.GetVariables(ctx, GetVariablesParams{VariableID: "VariableID:1"})
	if err != nil {
		t.Fatalf("GetVariables: %v", err)
	}
	assert.Equal(t, got.(*VariableDetail).CollectionName, "Theme")

	got, err = h.GetVariables(ctx, GetVariablesParams{VariableID: "VariableID:404"})
	if err != nil || got != nil {
		t.Fatalf("GetVariables(missing) = %v, %v, want nil, nil", got, err)
	}
}

func TestGetNodeVariables(t *testing.T) {
	h, _, _ := newTestHandlers(t, variablesSnapshot())
	ctx := context.Background()
	if _, err := h.SetBoundVariable(ctx, SetBoundVariableParams{
		NodeID: "10:3", CollectionID: ptr("VariableCollectionId:1"), ModeID: ptr("m-dark"),
	}); err != nil {
		t.Fatalf("SetBoundVariable(mode): %v", err)
	}

	got, err := h.GetNodeVariables(ctx, NodeVariablesParams{NodeID: "10:3"})
	if err != nil {
		t.Fatalf("GetNodeVariables: %v", err)
	}
	assert.Equal(t, got.BoundVariables["fills"].VariableName, "color/primary")
	assert.Equal(t, got.BoundVariables["opacity"].VariableName, "Unknown Variable")
	assert.Equal(t, got.RawBoundVariables["fills"].Type, "VARIABLE_ALIAS")
	assert.Equal(t, got.ExplicitVariableModes["VariableCollectionId:1"], "m-dark")
	assert.Equal(t, got.ResolvedExplicitModes["VariableCollectionId:1"].ModeName, "Dark")
}

func TestSetBoundVariable(t *testing.T) {
	h, doc, _ := newTestHandlers(t, variablesSnapshot())
	ctx := context.Background()

	got, err := h.SetBoundVariable(ctx, SetBoundVariableParams{NodeID: "10:2", Field: "fills", VariableID: "VariableID:1"})
	if err != nil {
		t.Fatalf("SetBoundVariable: %v", err)
	}
	assert.Equal(t, got.Message, "Bound fills to variable color/primary")
	bound := mustNode(t, doc, "10:2").(document.VariableBindable).BoundVariables()
	assert.Equal(t, bound["fills"].ID, "VariableID:1")

	got, err = h.SetBoundVariable(ctx, SetBoundVariableParams{NodeID: "10:2", Field: "fills"})
	if err != nil {
		t.Fatalf("SetBoundVariable(unbind): %v", err)
	}
	assert.Equal(t, got.Message, "Unbound variable from fills")
	bound = mustNode(t, doc, "10:2").(document.VariableBindable).BoundVariables()
	assert.Equal(t, len(bound), 0)
}

func TestSetBoundVariableErrors(t *testing.T) {
	h, _, _ := newTestHandlers(t, variablesSnapshot())
	ctx := context.Background()

	_, err := h.SetBoundVariable(ctx, SetBoundVariableParams{NodeID: "10:2", Field: "fills", VariableID: "VariableID:404"})
	assert.Equal(t, apperrors.GetMessage(err), "Failed to set bound variable: Variable VariableID:404 not found")

	_, err = h.SetBoundVariable(ctx, SetBoundVariableParams{NodeID: "10:2", CollectionID: ptr("VariableCollectionId:1")})
	assert.Equal(t, apperrors.GetMessage(err), "Missing modeId when setting collection mode")

	_, err = h.SetBoundVariable(ctx, SetBoundVariableParams{NodeID: "10:2"})
	assert.Equal(t, apperrors.GetMessage(err), "Must provide either (field + variableId) or (collectionId + modeId)")

	_, err = h.SetBoundVariable(ctx, SetBoundVariableParams{NodeID: "10:2", CollectionID: ptr("VariableCollectionId:1"), ModeID: ptr("m-sepia")})
	assert.Equal(t, apperrors.KindOf(err), apperrors.KindExternalStore)
}
