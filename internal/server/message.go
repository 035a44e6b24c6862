// Package server provides the WebSocket bridge between the design-tool UI
// and the command router. Each connection owns one access-control session
// and receives the replies and progress events of its own commands.
package server

import (
	"encoding/json"
	"fmt"

	"github.com/ttfbridge/host/internal/progress"
)

// MessageType identifies the kind of message being sent over WebSocket.
type MessageType string

const (
	// Inbound (UI to bridge).

	// MessageTypeUpdateSettings persists UI settings.
	// Fields: serverPort
	MessageTypeUpdateSettings MessageType = "update-settings"

	// MessageTypeNotify shows a message on the host notification surface.
	// Fields: message
	MessageTypeNotify MessageType = "notify"

	// MessageTypeClosePlugin ends the session and closes the connection.
	MessageTypeClosePlugin MessageType = "close-plugin"

	// MessageTypeValidateScopeLink checks that a design link names a live node.
	// Fields: link. Answered with scope-validation-result.
	MessageTypeValidateScopeLink MessageType = "validate-scope-link"

	// MessageTypeSetScope locks editing to a node, or switches the session
	// to read-only when scopeNodeId is empty.
	// Fields: scopeNodeId
	MessageTypeSetScope MessageType = "set-scope"

	// MessageTypeExecuteCommand runs a router command.
	// Fields: id, command, params. Answered with exactly one
	// command-result or command-error carrying the same id.
	MessageTypeExecuteCommand MessageType = "execute-command"

	// Outbound (bridge to UI).

	// MessageTypeCommandResult carries a successful command result.
	// Fields: id, result
	MessageTypeCommandResult MessageType = "command-result"

	// MessageTypeCommandError carries a failed command's message.
	// Fields: id, error
	MessageTypeCommandError MessageType = "command-error"

	// MessageTypeCommandProgress reports batch progress.
	// Fields: those of progress.Event
	MessageTypeCommandProgress MessageType = "command_progress"

	// MessageTypeScopeValidationResult answers validate-scope-link.
	// Fields: valid, nodeName, nodeId, reason
	MessageTypeScopeValidationResult MessageType = "scope-validation-result"

	// MessageTypeAutoConnect asks the UI to connect without waiting for the
	// user. Sent on connect when enabled.
	MessageTypeAutoConnect MessageType = "auto-connect"
)

// Message is an outbound envelope. The payload's fields are written next to
// type and id in a single flat JSON object, which is the shape the UI reads.
type Message struct {
	Type MessageType
	ID   string
	// Payload must marshal to a JSON object or null.
	Payload any
}

// MarshalJSON flattens the payload into the envelope.
func (m Message) MarshalJSON() ([]byte, error) {
	fields := map[string]json.RawMessage{}
	if m.Payload != nil {
		raw, err := json.Marshal(m.Payload)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("payload of %s is not an object: %w", m.Type, err)
		}
		if fields == nil {
			fields = map[string]json.RawMessage{}
		}
	}
	typ, err := json.Marshal(m.Type)
	if err != nil {
		return nil, err
	}
	fields["type"] = typ
	if m.ID != "" {
		id, err := json.Marshal(m.ID)
		if err != nil {
			return nil, err
		}
		fields["id"] = id
	}
	return json.Marshal(fields)
}

// Inbound is any message the UI sends. Only the fields of the given type
// are set.
type Inbound struct {
	Type MessageType `json:"type"`

	// execute-command
	ID      string          `json:"id,omitempty"`
	Command string          `json:"command,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`

	// notify
	Message string `json:"message,omitempty"`

	// validate-scope-link
	Link string `json:"link,omitempty"`

	// set-scope
	ScopeNodeID string `json:"scopeNodeId,omitempty"`

	// update-settings
	ServerPort int `json:"serverPort,omitempty"`
}

// NewExecuteCommand builds an execute-command message.
func NewExecuteCommand(id, command string, params json.RawMessage) Inbound {
	return Inbound{Type: MessageTypeExecuteCommand, ID: id, Command: command, Params: params}
}

// Reply is any message the bridge sends, decoded on the client side.
type Reply struct {
	Type MessageType `json:"type"`
	ID   string      `json:"id,omitempty"`

	// command-result / command-error
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`

	// command_progress
	progress.Event

	// scope-validation-result
	Valid    bool   `json:"valid,omitempty"`
	NodeName string `json:"nodeName,omitempty"`
	NodeID   string `json:"nodeId,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// CommandResultPayload carries a handler's result.
type CommandResultPayload struct {
	Result any `json:"result"`
}

// CommandErrorPayload carries the human-readable failure text. The wire
// format has no error codes.
type CommandErrorPayload struct {
	Error string `json:"error"`
}

// ScopeValidationPayload answers validate-scope-link.
type ScopeValidationPayload struct {
	Valid    bool   `json:"valid"`
	NodeName string `json:"nodeName,omitempty"`
	NodeID   string `json:"nodeId,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// NewCommandResultMessage creates the success reply to an execute-command.
func NewCommandResultMessage(id string, result any) Message {
	return Message{
		Type:    MessageTypeCommandResult,
		ID:      id,
		Payload: CommandResultPayload{Result: result},
	}
}

// NewCommandErrorMessage creates the failure reply to an execute-command.
// An empty message is replaced with a generic one.
func NewCommandErrorMessage(id, message string) Message {
	if message == "" {
		message = "Error executing command"
	}
	return Message{
		Type:    MessageTypeCommandError,
		ID:      id,
		Payload: CommandErrorPayload{Error: message},
	}
}

// NewProgressMessage wraps a progress event. The event's commandId links
// it to its command; the envelope has no id.
func NewProgressMessage(ev progress.Event) Message {
	return Message{
		Type:    MessageTypeCommandProgress,
		Payload: ev,
	}
}

// NewScopeValidationMessage creates a scope-validation-result.
func NewScopeValidationMessage(p ScopeValidationPayload) Message {
	return Message{
		Type:    MessageTypeScopeValidationResult,
		Payload: p,
	}
}

// NewAutoConnectMessage creates the auto-connect hint.
func NewAutoConnectMessage() Message {
	return Message{Type: MessageTypeAutoConnect}
}
