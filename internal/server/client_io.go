package server

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// closeSend signals the client to shut down exactly once. Only done is
// closed, never send, so concurrent senders cannot panic.
func (c *Client) closeSend() {
	c.sendOnce.Do(func() {
		close(c.done)
	})
}

// writePump sends messages from the send channel to the WebSocket and pings
// the UI periodically.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			data, err := json.Marshal(msg)
			if err != nil {
				log.Printf("server: failed to marshal %s: %v", msg.Type, err)
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("server: write error: %v", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads messages from the WebSocket and dispatches them until the
// connection closes.
func (c *Client) readPump() {
	defer func() {
		c.server.mu.Lock()
		delete(c.server.clients, c)
		c.server.mu.Unlock()

		c.cancel()
		c.closeSend()

		log.Printf("server: client %s disconnected (%d remaining)", c.id, c.server.ClientCount())
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure) {
				log.Printf("server: read error: %v", err)
			}
			return
		}
		// Any traffic proves the UI is alive.
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg Inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("server: failed to parse message: %v", err)
			continue
		}

		switch msg.Type {
		case MessageTypeUpdateSettings:
			c.handleUpdateSettings(msg)
		case MessageTypeNotify:
			c.handleNotify(msg)
		case MessageTypeClosePlugin:
			c.handleClosePlugin()
			return
		case MessageTypeValidateScopeLink:
			c.handleValidateScopeLink(msg)
		case MessageTypeSetScope:
			c.handleSetScope(msg)
		case MessageTypeExecuteCommand:
			// Only commands are throttled; control messages such as a
			// scope revocation must always apply.
			if !c.inboundLimiter.Allow() {
				c.handleRateLimited(msg)
				continue
			}
			c.handleExecuteCommand(msg)
		default:
			log.Printf("server: ignoring message type=%s", msg.Type)
		}
	}
}
