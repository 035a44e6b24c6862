// Package router maps command names onto handlers and enforces the
// per-command access guards of a session.
//
// Every mutating command is checked in a fixed order before its handler
// runs: read-only mode, presence of the target ids, scope of every target,
// and finally the caller's expected names. The first failing guard rejects
// the command and the handler is never invoked. Commands that address many
// targets are admitted only if every target passes.
package router

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"maps"
	"slices"

	apperrors "github.com/ttfbridge/host/internal/errors"
	"github.com/ttfbridge/host/internal/handlers"
	"github.com/ttfbridge/host/internal/session"
)

// handlerFunc decodes params and runs one handler.
type handlerFunc func(ctx context.Context, h *handlers.Handlers, raw json.RawMessage) (any, error)

type route struct {
	mutating bool
	guard    guard
	call     handlerFunc
}

// CommandInfo describes one routed command.
type CommandInfo struct {
	Name     string `json:"name"`
	Mutating bool   `json:"mutating"`
}

// Router dispatches commands for a single session.
type Router struct {
	handlers *handlers.Handlers
	session  *session.Context
}

// New returns a Router executing commands with h under the access state of
// sess.
func New(h *handlers.Handlers, sess *session.Context) *Router {
	return &Router{handlers: h, session: sess}
}

// Session returns the access state the router checks against.
func (r *Router) Session() *session.Context {
	return r.session
}

// Handle runs command with the JSON params. Guard failures and handler
// failures are returned as *errors.CodedError.
func (r *Router) Handle(ctx context.Context, command string, params json.RawMessage) (any, error) {
	rt, ok := routes[command]
	if !ok {
		return nil, apperrors.UnknownCommand(command)
	}
	if rt.mutating {
		if r.session.ReadOnly() {
			return nil, apperrors.ReadOnly()
		}
		if rt.guard != nil {
			if err := rt.guard(ctx, r, params); err != nil {
				code, _ := apperrors.ToCodeAndMessage(err)
				log.Printf("router: %s rejected: %s", command, code)
				return nil, err
			}
		}
	}
	return rt.call(ctx, r.handlers, params)
}

// Commands lists every routed command sorted by name.
func Commands() []CommandInfo {
	names := slices.Sorted(maps.Keys(routes))
	out := make([]CommandInfo, 0, len(names))
	for _, name := range names {
		out = append(out, CommandInfo{Name: name, Mutating: routes[name].mutating})
	}
	return out
}

// IsMutating reports whether command is a known mutating command.
func IsMutating(command string) bool {
	return routes[command].mutating
}

// decodeParams unmarshals raw into dest. Missing or null params leave dest
// at its zero value.
func decodeParams(raw json.RawMessage, dest any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return apperrors.Invalidf("Invalid params: %v", err)
	}
	return nil
}

// bind adapts a handler method expression to a handlerFunc.
func bind[P, R any](fn func(*handlers.Handlers, context.Context, P) (R, error)) handlerFunc {
	return func(ctx context.Context, h *handlers.Handlers, raw json.RawMessage) (any, error) {
		var p P
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		return fn(h, ctx, p)
	}
}

func read(call handlerFunc) route {
	return route{call: call}
}

func write(g guard, call handlerFunc) route {
	return route{mutating: true, guard: g, call: call}
}

type cmds = handlers.Handlers

var routes = map[string]route{
	// Reads.
	"get_document_info":      read(bind((*cmds).GetDocumentInfo)),
	"get_selection":          read(bind((*cmds).GetSelection)),
	"get_nodes_info":         read(bind((*cmds).GetNodesInfo)),
	"read_my_design":         read(bind((*cmds).ReadMyDesign)),
	"get_styles":             read(bind((*cmds).GetStyles)),
	"get_local_components":   read(bind((*cmds).GetLocalComponents)),
	"export_node_as_image":   read(bind((*cmds).ExportNodeAsImage)),
	"get_instance_overrides": read(bind((*cmds).GetInstanceOverrides)),
	"scan_text_nodes":        read(bind((*cmds).ScanTextNodes)),
	"get_annotations":        read(bind((*cmds).GetAnnotations)),
	"scan_nodes_by_types":    read(bind((*cmds).ScanNodesByTypes)),
	"get_reactions":          read(bind((*cmds).GetReactions)),
	"get_variables":          read(bind((*cmds).GetVariables)),
	"get_node_variables":     read(bind((*cmds).GetNodeVariables)),

	// Selection and client storage change no document content.
	"set_selections":        read(bind((*cmds).SetSelections)),
	"set_default_connector": read(bind((*cmds).SetDefaultConnector)),

	// Single node edits.
	"set_fill_color":             write(nodeTarget(apperrors.MsgOutsideScope), bind((*cmds).SetFillColor)),
	"set_stroke_color":           write(nodeTarget(apperrors.MsgOutsideScope), bind((*cmds).SetStrokeColor)),
	"set_corner_radius":          write(nodeTarget(apperrors.MsgOutsideScope), bind((*cmds).SetCornerRadius)),
	"set_effects":                write(nodeTarget(apperrors.MsgOutsideScope), bind((*cmds).SetEffects)),
	"set_layout_mode":            write(nodeTarget(apperrors.MsgOutsideScope), bind((*cmds).SetLayoutMode)),
	"set_padding":                write(nodeTarget(apperrors.MsgOutsideScope), bind((*cmds).SetPadding)),
	"set_axis_align":             write(nodeTarget(apperrors.MsgOutsideScope), bind((*cmds).SetAxisAlign)),
	"set_layout_sizing":          write(nodeTarget(apperrors.MsgOutsideScope), bind((*cmds).SetLayoutSizing)),
	"set_item_spacing":           write(nodeTarget(apperrors.MsgOutsideScope), bind((*cmds).SetItemSpacing)),
	"set_bound_variable":         write(nodeTarget(apperrors.MsgOutsideScope), bind((*cmds).SetBoundVariable)),
	"set_node_name":              write(nodeTarget(apperrors.MsgOutsideScope), bind((*cmds).SetNodeName)),
	"move_node":                  write(nodeTarget(apperrors.MsgOutsideScope), bind((*cmds).MoveNode)),
	"resize_node":                write(nodeTarget(apperrors.MsgOutsideScope), bind((*cmds).ResizeNode)),
	"apply_style":                write(nodeTarget(apperrors.MsgOutsideScope), bind((*cmds).ApplyStyle)),
	"create_component_from_node": write(nodeTarget(apperrors.MsgOutsideScope), bind((*cmds).CreateComponentFromNode)),
	"clone_node":                 write(nodeTarget(apperrors.MsgCloningSourceNodeOutsideScope), bind((*cmds).CloneNode)),

	// Creation under a parent.
	"create_rectangle":          write(parentTarget, bind((*cmds).CreateRectangle)),
	"create_frame":              write(parentTarget, bind((*cmds).CreateFrame)),
	"create_text":               write(parentTarget, bind((*cmds).CreateText)),
	"create_node_from_svg":      write(parentTarget, bind((*cmds).CreateNodeFromSVG)),
	"create_component_instance": write(optionalParentTarget, bind((*cmds).CreateComponentInstance)),
	"create_style":              write(nil, bind((*cmds).CreateStyle)),

	// Multi-target edits.
	"delete_multiple_nodes": write(
		targetList("nodes", "Missing or Invalid nodes parameter", "Operation denied: Node %s outside editable scope"),
		deleteNodes),
	"set_multiple_text_contents": write(
		targetList("text", "Missing or Invalid text parameter", "Operation denied: Node %s outside editable scope"),
		bind((*cmds).SetMultipleTextContents)),
	"set_multiple_annotations": write(
		targetList("annotations", "Missing or Invalid annotations parameter", "Operation denied: Node %s outside editable scope"),
		bind((*cmds).SetMultipleAnnotations)),
	"set_instance_overrides": write(
		targetList("targetNodes", apperrors.MsgMissingTargetNodeIDs, "Operation denied: Target instance %s outside editable scope"),
		setInstanceOverrides),
	"create_connections": write(connectionTargets, bind((*cmds).CreateConnections)),
}

// deleteNodes takes the {nodeId, expectedName} list admitted by the guard
// and deletes the listed ids.
func deleteNodes(ctx context.Context, h *handlers.Handlers, raw json.RawMessage) (any, error) {
	var p struct {
		Nodes []target `json:"nodes"`
	}
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	return h.DeleteMultipleNodes(ctx, handlers.DeleteMultipleNodesParams{NodeIDs: targetIDs(p.Nodes)})
}

func setInstanceOverrides(ctx context.Context, h *handlers.Handlers, raw json.RawMessage) (any, error) {
	var p struct {
		SourceInstanceID string   `json:"sourceInstanceId"`
		TargetNodes      []target `json:"targetNodes"`
	}
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	return h.SetInstanceOverrides(ctx, handlers.SetInstanceOverridesParams{
		SourceInstanceID: p.SourceInstanceID,
		TargetNodeIDs:    targetIDs(p.TargetNodes),
	})
}
