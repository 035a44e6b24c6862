package handlers

import (
	"context"
	"fmt"

	"github.com/ttfbridge/host/internal/document"
	apperrors "github.com/ttfbridge/host/internal/errors"
)

type GetVariablesParams struct {
	VariableID string `json:"variableId"`
}

type VariableDetail struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Key            string         `json:"key"`
	Type           string         `json:"type"`
	Description    string         `json:"description"`
	CollectionID   string         `json:"collectionId"`
	CollectionName string         `json:"collectionName"`
	Remote         bool           `json:"remote"`
	Scopes         []string       `json:"scopes"`
	ValuesByMode   map[string]any `json:"valuesByMode"`
}

type VariableSummary struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Key          string         `json:"key"`
	Type         string         `json:"type"`
	CollectionID string         `json:"collectionId"`
	ValuesByMode map[string]any `json:"valuesByMode"`
	Description  string         `json:"description"`
}

type VariablesList struct {
	Collections []document.VariableCollection `json:"collections"`
	Variables   []VariableSummary             `json:"variables"`
}

// GetVariables looks up one variable when an id is given and returns nil
// when it does not exist. Without an id it lists every local collection and
// variable.
func (h *Handlers) GetVariables(ctx context.Context, p GetVariablesParams) (any, error) {
	if p.VariableID != "" {
		v, err := h.Store.VariableByID(ctx, p.VariableID)
		if err != nil {
			return nil, apperrors.StoreFailed("Error getting variables", err)
		}
		if v == nil {
			return nil, nil
		}
		detail := &VariableDetail{
			ID:             v.ID,
			Name:           v.Name,
			Key:            v.Key,
			Type:           v.ResolvedType,
			Description:    v.Description,
			CollectionID:   v.CollectionID,
			CollectionName: "Unknown",
			Remote:         v.Remote,
			Scopes:         v.Scopes,
			ValuesByMode:   v.ValuesByMode,
		}
		if c, err := h.Store.VariableCollectionByID(ctx, v.CollectionID); err == nil && c != nil {
			detail.CollectionName = c.Name
		}
		return detail, nil
	}

	cols, err := h.Store.LocalVariableCollections(ctx)
	if err != nil {
		return nil, apperrors.StoreFailed("Error getting variables", err)
	}
	vars, err := h.Store.LocalVariables(ctx)
	if err != nil {
		return nil, apperrors.StoreFailed("Error getting variables", err)
	}
	out := &VariablesList{Collections: cols, Variables: make([]VariableSummary, 0, len(vars))}
	if out.Collections == nil {
		out.Collections = []document.VariableCollection{}
	}
	for _, v := range vars {
		out.Variables = append(out.Variables, VariableSummary{
			ID:           v.ID,
			Name:         v.Name,
			Key:          v.Key,
			Type:         v.ResolvedType,
			CollectionID: v.CollectionID,
			ValuesByMode: v.ValuesByMode,
			Description:  v.Description,
		})
	}
	return out, nil
}

type NodeVariablesParams struct {
	NodeID string `json:"nodeId"`
}

type BoundVariableInfo struct {
	VariableID   string `json:"variableId"`
	VariableName string `json:"variableName"`
}

type ResolvedMode struct {
	CollectionName string `json:"collectionName"`
	ModeID         string `json:"modeId"`
	ModeName       string `json:"modeName"`
}

type NodeVariables struct {
	NodeID                string                            `json:"nodeId"`
	Name                  string                            `json:"name"`
	BoundVariables        map[string]BoundVariableInfo      `json:"boundVariables"`
	RawBoundVariables     map[string]document.VariableAlias `json:"rawBoundVariables"`
	ExplicitVariableModes map[string]string                 `json:"explicitVariableModes"`
	ResolvedExplicitModes map[string]ResolvedMode           `json:"resolvedExplicitModes"`
}

// GetNodeVariables reports the variables bound to a node's fields and the
// explicit modes it sets, with names resolved where possible.
func (h *Handlers) GetNodeVariables(ctx context.Context, p NodeVariablesParams) (*NodeVariables, error) {
	if p.NodeID == "" {
		return nil, apperrors.MissingParam("nodeId")
	}
	n, err := h.node(ctx, p.NodeID)
	if err != nil {
		return nil, err
	}
	out := &NodeVariables{
		NodeID:                n.ID(),
		Name:                  n.Name(),
		BoundVariables:        map[string]BoundVariableInfo{},
		RawBoundVariables:     map[string]document.VariableAlias{},
		ExplicitVariableModes: map[string]string{},
		ResolvedExplicitModes: map[string]ResolvedMode{},
	}
	vb, ok := n.(document.VariableBindable)
	if !ok {
		return out, nil
	}
	if raw := vb.BoundVariables(); raw != nil {
		out.RawBoundVariables = raw
	}
	for field, alias := range out.RawBoundVariables {
		info := BoundVariableInfo{VariableID: alias.ID, VariableName: "Unknown Variable"}
		if v, err := h.Store.VariableByID(ctx, alias.ID); err == nil && v != nil {
			info.VariableName = v.Name
		}
		out.BoundVariables[field] = info
	}
	if modes := vb.ExplicitVariableModes(); modes != nil {
		out.ExplicitVariableModes = modes
	}
	for colID, modeID := range out.ExplicitVariableModes {
		c, err := h.Store.VariableCollectionByID(ctx, colID)
		if err != nil || c == nil {
			continue
		}
		rm := ResolvedMode{CollectionName: c.Name, ModeID: modeID, ModeName: "Unknown Mode"}
		for _, m := range c.Modes {
			if m.ModeID == modeID {
				rm.ModeName = m.Name
				break
			}
		}
		out.ResolvedExplicitModes[colID] = rm
	}
	return out, nil
}

type SetBoundVariableParams struct {
	NodeID       string  `json:"nodeId"`
	Field        string  `json:"field"`
	VariableID   string  `json:"variableId"`
	CollectionID *string `json:"collectionId"`
	ModeID       *string `json:"modeId"`
}

type MessageResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SetBoundVariable either sets the explicit mode of a collection on a node,
// or binds (or with no variable id unbinds) a field to a variable.
func (h *Handlers) SetBoundVariable(ctx context.Context, p SetBoundVariableParams) (*MessageResult, error) {
	if p.NodeID == "" {
		return nil, apperrors.MissingParam("nodeId")
	}
	n, err := h.node(ctx, p.NodeID)
	if err != nil {
		return nil, err
	}
	vb, ok := n.(document.VariableBindable)

	if p.CollectionID != nil {
		if p.ModeID == nil {
			return nil, apperrors.New(apperrors.CodeMissingParam, "Missing modeId when setting collection mode")
		}
		if !ok {
			return nil, apperrors.Unsupported("Failed to set explicit variable mode: node %s does not support variable modes", p.NodeID)
		}
		if err := vb.SetExplicitVariableModeForCollection(*p.CollectionID, *p.ModeID); err != nil {
			return nil, apperrors.StoreFailed("Failed to set explicit variable mode", err)
		}
		return &MessageResult{Success: true, Message: fmt.Sprintf("Set mode %s for collection %s", *p.ModeID, *p.CollectionID)}, nil
	}

	if p.Field != "" {
		if !ok {
			return nil, apperrors.Unsupported("Failed to set bound variable: node %s does not support variables", p.NodeID)
		}
		if p.VariableID == "" {
			if err := vb.SetBoundVariable(p.Field, nil); err != nil {
				return nil, apperrors.StoreFailed("Failed to set bound variable", err)
			}
			return &MessageResult{Success: true, Message: "Unbound variable from " + p.Field}, nil
		}
		v, err := h.Store.VariableByID(ctx, p.VariableID)
		if err != nil {
			return nil, apperrors.StoreFailed("Failed to set bound variable", err)
		}
		if v == nil {
			return nil, apperrors.NotFoundf("Failed to set bound variable: Variable %s not found", p.VariableID)
		}
		if err := vb.SetBoundVariable(p.Field, v); err != nil {
			return nil, apperrors.StoreFailed("Failed to set bound variable", err)
		}
		return &MessageResult{Success: true, Message: fmt.Sprintf("Bound %s to variable %s", p.Field, v.Name)}, nil
	}

	return nil, apperrors.Invalid("Must provide either (field + variableId) or (collectionId + modeId)")
}
