// Command wsclient is a simple WebSocket test client for ttfbridge. It
// plays the agent side: each line typed on stdin is sent as a command.
//
// Usage: go run ./cmd/wsclient [ws://127.0.0.1:3055/ws]
//
// Input lines:
//
//	<command> [params-json]   execute a command
//	:scope <nodeId>           scope the session (empty id for read-only)
//	:link <url>               validate a design link
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ttfbridge/host/internal/server"
)

func main() {
	url := "ws://127.0.0.1:3055/ws"
	if len(os.Args) > 1 {
		url = os.Args[1]
	}

	fmt.Printf("Connecting to %s...\n", url)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	fmt.Println("Connected! Type a command, e.g. get_document_info")

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan struct{})
	messageCount := 0

	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					fmt.Printf("Read error: %v\n", err)
				}
				return
			}

			messageCount++

			var msg server.Reply
			if err := json.Unmarshal(data, &msg); err != nil {
				fmt.Printf("[%d] Raw: %s\n", messageCount, string(data))
				continue
			}

			fmt.Printf("[%d] type=%s", messageCount, msg.Type)
			switch msg.Type {
			case server.MessageTypeCommandResult:
				fmt.Printf(" id=%s result=%s", msg.ID, msg.Result)
			case server.MessageTypeCommandError:
				fmt.Printf(" id=%s error=%q", msg.ID, msg.Error)
			case server.MessageTypeCommandProgress:
				fmt.Printf(" %s status=%s progress=%.0f%% %q", msg.CommandType, msg.Status, msg.Progress, msg.Message)
			case server.MessageTypeScopeValidationResult:
				fmt.Printf(" valid=%v node=%s %s", msg.Valid, msg.NodeID, msg.Reason)
			}
			fmt.Println()
		}
	}()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-done:
			fmt.Println("Connection closed")
			fmt.Printf("Total messages received: %d\n", messageCount)
			return
		case <-interrupt:
			fmt.Println("Interrupted")
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			fmt.Printf("Total messages received: %d\n", messageCount)
			return
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			msg, ok := parseLine(strings.TrimSpace(line))
			if !ok {
				continue
			}
			if err := conn.WriteJSON(msg); err != nil {
				fmt.Fprintf(os.Stderr, "Write error: %v\n", err)
				return
			}
		}
	}
}

// parseLine turns one input line into an inbound message.
func parseLine(line string) (server.Inbound, bool) {
	if line == "" {
		return server.Inbound{}, false
	}
	head, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	switch head {
	case ":scope":
		return server.Inbound{Type: server.MessageTypeSetScope, ScopeNodeID: rest}, true
	case ":link":
		return server.Inbound{Type: server.MessageTypeValidateScopeLink, Link: rest}, true
	}
	params := json.RawMessage("{}")
	if rest != "" {
		if !json.Valid([]byte(rest)) {
			fmt.Fprintln(os.Stderr, "params must be valid JSON")
			return server.Inbound{}, false
		}
		params = json.RawMessage(rest)
	}
	return server.NewExecuteCommand(uuid.NewString(), head, params), true
}
