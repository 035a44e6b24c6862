package router

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "github.com/ttfbridge/host/internal/errors"
	"github.com/ttfbridge/host/internal/session"
)

// guard admits or rejects a mutating command from its raw params. It runs
// after the read-only check.
type guard func(ctx context.Context, r *Router, raw json.RawMessage) error

// target is one {nodeId, expectedName} entry of a multi-target command.
type target struct {
	NodeID       string  `json:"nodeId"`
	ExpectedName *string `json:"expectedName"`
}

func targetIDs(ts []target) []string {
	ids := make([]string, 0, len(ts))
	for _, t := range ts {
		ids = append(ids, t.NodeID)
	}
	return ids
}

func (r *Router) inScope(ctx context.Context, id string) bool {
	return r.session.CheckScopeAccess(ctx, r.handlers.Store, id)
}

// nodeTarget guards commands addressing params.nodeId. denial is the text
// returned when the node is outside the scope.
func nodeTarget(denial string) guard {
	return func(ctx context.Context, r *Router, raw json.RawMessage) error {
		var t target
		if err := decodeParams(raw, &t); err != nil {
			return err
		}
		return r.checkTarget(ctx, t, denial)
	}
}

func (r *Router) checkTarget(ctx context.Context, t target, denial string) error {
	if t.NodeID == "" {
		return apperrors.MissingParam("nodeId")
	}
	if !r.inScope(ctx, t.NodeID) {
		return apperrors.OutsideScope(denial)
	}
	if !session.VerifyNodeName(ctx, r.handlers.Store, t.NodeID, t.ExpectedName) {
		return apperrors.NameMismatch(apperrors.MsgNameMismatch)
	}
	return nil
}

type parentParams struct {
	ParentID           string  `json:"parentId"`
	ExpectedParentName *string `json:"expectedParentName"`
}

// parentTarget guards creation under params.parentId. The page itself is
// never inside a scope, so a missing parent is rejected as out of scope.
func parentTarget(ctx context.Context, r *Router, raw json.RawMessage) error {
	var p parentParams
	if err := decodeParams(raw, &p); err != nil {
		return err
	}
	return r.checkParent(ctx, p)
}

func (r *Router) checkParent(ctx context.Context, p parentParams) error {
	if !r.inScope(ctx, p.ParentID) {
		return apperrors.OutsideScope(apperrors.MsgParentOutsideScope)
	}
	if !session.VerifyParentName(ctx, r.handlers.Store, p.ParentID, p.ExpectedParentName) {
		return apperrors.NameMismatch(apperrors.MsgParentNameMismatch)
	}
	return nil
}

// optionalParentTarget is parentTarget for commands that may place the new
// node on the page. Placing it there is refused while a scope is set.
func optionalParentTarget(ctx context.Context, r *Router, raw json.RawMessage) error {
	var p parentParams
	if err := decodeParams(raw, &p); err != nil {
		return err
	}
	if p.ParentID == "" {
		if r.session.ScopeRootID() != "" {
			return apperrors.RootInstanceDisallowed()
		}
		return nil
	}
	return r.checkParent(ctx, p)
}

// targetList guards commands carrying an array of {nodeId, expectedName}
// entries under field. Every entry is checked before the command runs.
// missing is returned when the field is absent or not an array; denial is
// formatted with the rejected node id.
func targetList(field, missing, denial string) guard {
	return func(ctx context.Context, r *Router, raw json.RawMessage) error {
		var fields map[string]json.RawMessage
		if err := decodeParams(raw, &fields); err != nil {
			return err
		}
		list, ok := fields[field]
		if !ok {
			return apperrors.Invalid(missing)
		}
		var targets []target
		if err := json.Unmarshal(list, &targets); err != nil || targets == nil {
			return apperrors.Invalid(missing)
		}
		for _, t := range targets {
			if err := r.checkTarget(ctx, t, fmt.Sprintf(denial, t.NodeID)); err != nil {
				return err
			}
		}
		return nil
	}
}

type connectionTarget struct {
	StartNodeID           string  `json:"startNodeId"`
	EndNodeID             string  `json:"endNodeId"`
	ExpectedStartNodeName *string `json:"expectedStartNodeName"`
	ExpectedEndNodeName   *string `json:"expectedEndNodeName"`
}

// connectionTargets checks both endpoints of every connection. A missing
// connections array is left to the handler to report.
func connectionTargets(ctx context.Context, r *Router, raw json.RawMessage) error {
	var p struct {
		Connections []connectionTarget `json:"connections"`
	}
	if err := decodeParams(raw, &p); err != nil {
		return err
	}
	for _, c := range p.Connections {
		if c.StartNodeID == "" {
			return apperrors.MissingParam("startNodeId")
		}
		if c.EndNodeID == "" {
			return apperrors.MissingParam("endNodeId")
		}
		start := target{NodeID: c.StartNodeID, ExpectedName: c.ExpectedStartNodeName}
		if err := r.checkTarget(ctx, start, fmt.Sprintf("Operation denied: Start node %s outside editable scope", c.StartNodeID)); err != nil {
			return err
		}
		end := target{NodeID: c.EndNodeID, ExpectedName: c.ExpectedEndNodeName}
		if err := r.checkTarget(ctx, end, fmt.Sprintf("Operation denied: End node %s outside editable scope", c.EndNodeID)); err != nil {
			return err
		}
	}
	return nil
}
