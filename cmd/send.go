package main

// send.go implements `ttfbridge send`, a one-shot agent-side client.

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ttfbridge/host/internal/config"
	"github.com/ttfbridge/host/internal/progress"
	"github.com/ttfbridge/host/internal/server"
)

// commandError is a command-error reply from the bridge.
type commandError struct {
	message string
}

func (e *commandError) Error() string { return e.message }

func runSend(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	fs.SetOutput(stderr)

	addr := fs.String("addr", fmt.Sprintf("%s:%d", config.DefaultHost, config.DefaultServerPort), "Bridge address")
	scope := fs.String("scope", "", "Node id to scope the session to before sending (default: read-only)")
	timeout := fs.Duration("timeout", 60*time.Second, "Maximum time to wait for the reply")
	quiet := fs.Bool("quiet", false, "Do not print progress events")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: ttfbridge send [options] <command> [params-json]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	if fs.NArg() < 1 || fs.NArg() > 2 {
		fs.Usage()
		return 1
	}
	command := fs.Arg(0)
	params := json.RawMessage("{}")
	if fs.NArg() == 2 {
		params = json.RawMessage(fs.Arg(1))
		if !json.Valid(params) {
			fmt.Fprintf(stderr, "Error: params must be valid JSON\n")
			return 1
		}
	}

	var onProgress func(progress.Event)
	if !*quiet {
		onProgress = func(ev progress.Event) {
			fmt.Fprintf(stderr, "[%s] %3.0f%% %s\n", ev.Status, ev.Progress, ev.Message)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := sendCommand(ctx, "ws://"+*addr+"/ws", *scope, command, params, onProgress)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	var pretty any
	if err := json.Unmarshal(result, &pretty); err != nil {
		fmt.Fprintf(stdout, "%s\n", result)
		return 0
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	enc.Encode(pretty)
	return 0
}

// sendCommand connects to the bridge, optionally scopes the session, runs
// one command and returns its result. Progress events are passed to
// onProgress when it is non-nil.
func sendCommand(ctx context.Context, url, scope, command string, params json.RawMessage, onProgress func(progress.Event)) (json.RawMessage, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
		conn.SetWriteDeadline(deadline)
	}

	if scope != "" {
		if err := conn.WriteJSON(server.Inbound{Type: server.MessageTypeSetScope, ScopeNodeID: scope}); err != nil {
			return nil, fmt.Errorf("failed to set scope: %w", err)
		}
	}

	id := uuid.NewString()
	if err := conn.WriteJSON(server.NewExecuteCommand(id, command, params)); err != nil {
		return nil, fmt.Errorf("failed to send command: %w", err)
	}

	for {
		var reply server.Reply
		if err := conn.ReadJSON(&reply); err != nil {
			return nil, fmt.Errorf("no reply to %s: %w", command, err)
		}
		switch reply.Type {
		case server.MessageTypeCommandProgress:
			if onProgress != nil {
				onProgress(reply.Event)
			}
		case server.MessageTypeCommandResult:
			if reply.ID == id {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return reply.Result, nil
			}
		case server.MessageTypeCommandError:
			if reply.ID == id {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return nil, &commandError{message: reply.Error}
			}
		}
	}
}
