package server

import (
	"fmt"
	"log"
	"time"

	apperrors "github.com/ttfbridge/host/internal/errors"
	"github.com/ttfbridge/host/internal/session"
	"github.com/ttfbridge/host/internal/storage"
)

// handleExecuteCommand runs the command on its own goroutine so long
// batches do not block the read loop. Exactly one reply is sent.
func (c *Client) handleExecuteCommand(msg Inbound) {
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		c.runCommand(msg)
	}()
}

func (c *Client) runCommand(msg Inbound) {
	start := time.Now()
	snap := c.session.Snapshot()

	result, err := c.execute(msg)
	if err != nil {
		c.reply(NewCommandErrorMessage(msg.ID, apperrors.GetMessage(err)))
	} else {
		c.reply(NewCommandResultMessage(msg.ID, result))
	}

	event := CommandAuditEvent{
		RequestID:    msg.ID,
		ConnectionID: c.id,
		Command:      msg.Command,
		ScopeRootID:  snap.ScopeRootID,
		ReadOnly:     snap.ReadOnly,
		Duration:     time.Since(start),
		At:           start,
	}
	if err != nil {
		event.ErrorCode, event.ErrorMessage = apperrors.ToCodeAndMessage(err)
	}
	c.recordAudit(event)
}

// execute routes the command, turning a handler panic into an error reply.
func (c *Client) execute(msg Inbound) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("server: command %s panicked: %v", msg.Command, r)
			result, err = nil, apperrors.Internal("Error executing command", fmt.Errorf("%v", r))
		}
	}()
	return c.router.Handle(c.ctx, msg.Command, msg.Params)
}

func (c *Client) recordAudit(event CommandAuditEvent) {
	c.server.mu.RLock()
	audit := c.server.audit
	c.server.mu.RUnlock()
	if audit == nil {
		return
	}
	if err := audit.WriteCommandAudit(event); err != nil {
		log.Printf("server: command audit failed for %s: %v", event.Command, err)
	}
}

// handleRateLimited answers a throttled execute-command with an error so
// the caller still gets its one reply.
func (c *Client) handleRateLimited(msg Inbound) {
	log.Printf("server: rate limited %s id=%s from %s", msg.Command, msg.ID, c.id)
	err := apperrors.New(apperrors.CodeServerRateLimited, "Rate limit exceeded, retry the command later")
	c.reply(NewCommandErrorMessage(msg.ID, apperrors.GetMessage(err)))
}

// handleUpdateSettings stores the UI settings for the next session.
func (c *Client) handleUpdateSettings(msg Inbound) {
	if msg.ServerPort > 0 {
		c.session.SetServerPort(msg.ServerPort)
	}

	c.server.mu.RLock()
	cs := c.server.clientStorage
	c.server.mu.RUnlock()
	if cs == nil {
		log.Printf("server: no client storage, settings not saved")
		return
	}
	settings := storage.Settings{ServerPort: c.session.Snapshot().ServerPort}
	if err := cs.SetValue(storage.KeySettings, settings); err != nil {
		log.Printf("server: failed to save settings: %v", err)
	}
}

func (c *Client) handleNotify(msg Inbound) {
	c.server.store.Notify(c.ctx, msg.Message)
}

func (c *Client) handleClosePlugin() {
	log.Printf("server: client %s closed the session", c.id)
}

// handleValidateScopeLink resolves the node named by a design link.
// Failures are reported in the result, never as errors.
func (c *Client) handleValidateScopeLink(msg Inbound) {
	id := session.ParseNodeIDFromURL(msg.Link)
	if id == "" {
		c.reply(NewScopeValidationMessage(ScopeValidationPayload{Reason: "Invalid Figma URL"}))
		return
	}
	node, err := c.server.store.NodeByID(c.ctx, id)
	if err != nil || node == nil {
		c.reply(NewScopeValidationMessage(ScopeValidationPayload{Reason: "Node not found in current document"}))
		return
	}
	c.reply(NewScopeValidationMessage(ScopeValidationPayload{
		Valid:    true,
		NodeName: node.Name(),
		NodeID:   node.ID(),
	}))
}

// handleSetScope switches the session between scoped editing and
// read-only. It only affects commands that have not passed their guards.
func (c *Client) handleSetScope(msg Inbound) {
	c.session.SetScope(msg.ScopeNodeID)
	if msg.ScopeNodeID != "" {
		log.Printf("server: client %s scoped to %s", c.id, msg.ScopeNodeID)
		c.server.store.Notify(c.ctx, "Scope locked to node: "+msg.ScopeNodeID)
		return
	}
	log.Printf("server: client %s is read-only", c.id)
	c.server.store.Notify(c.ctx, "Connected in Read-Only Mode")
}
