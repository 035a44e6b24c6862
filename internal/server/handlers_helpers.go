package server

import (
	"log"
	"net"
	"net/http"

	"github.com/ttfbridge/host/internal/progress"
)

// reply queues a message the UI is waiting for. It blocks until there is
// room in the send buffer or the connection is gone.
func (c *Client) reply(msg Message) {
	select {
	case c.send <- msg:
	case <-c.done:
		log.Printf("server: client %s gone, dropping %s id=%s", c.id, msg.Type, msg.ID)
	}
}

// trySend queues a message without blocking. It is dropped when the buffer
// is full or the client is shutting down.
func (c *Client) trySend(msg Message) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- msg:
	default:
		log.Printf("server: client %s send buffer full, dropping %s", c.id, msg.Type)
	}
}

// sendProgress is the progress sink of this client's handlers. Intermediate
// updates may be dropped under backpressure; the events that open and close
// a batch are always delivered.
func (c *Client) sendProgress(ev progress.Event) {
	if ev.Status == progress.StatusInProgress {
		c.trySend(NewProgressMessage(ev))
		return
	}
	c.reply(NewProgressMessage(ev))
}

// isLoopbackRequest checks if the request originates from a loopback address.
func isLoopbackRequest(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		log.Printf("server: failed to parse RemoteAddr %q: %v", r.RemoteAddr, err)
		return false
	}
	ip := net.ParseIP(host)
	if ip == nil {
		log.Printf("server: failed to parse IP from host %q", host)
		return false
	}
	return ip.IsLoopback()
}
