// Package session holds the per-connection access-control state.
//
// A session starts read-only. The controller unlocks editing by sending a
// scope node id; from then on mutating commands are admitted only for that
// node and its descendants. There is no unscoped editable mode.
package session

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/ttfbridge/host/internal/document"
)

// DefaultServerPort is the relay port the UI connects to unless configured.
const DefaultServerPort = 3055

// Snapshot is a point-in-time copy of a Context.
type Snapshot struct {
	ServerPort  int    `json:"serverPort"`
	ScopeRootID string `json:"scopeRootId,omitempty"`
	ReadOnly    bool   `json:"readOnly"`
}

// Context is the access-control state of one connection. Guards read it;
// only SetScope and SetServerPort write it.
type Context struct {
	mu          sync.RWMutex
	serverPort  int
	scopeRootID string
	readOnly    bool
}

// New returns a read-only session.
func New(serverPort int) *Context {
	if serverPort <= 0 {
		serverPort = DefaultServerPort
	}
	return &Context{serverPort: serverPort, readOnly: true}
}

// SetScope locks editing to the subtree rooted at id. An empty id switches
// the session to read-only.
func (c *Context) SetScope(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scopeRootID = id
	c.readOnly = id == ""
}

func (c *Context) SetServerPort(port int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.serverPort = port
}

func (c *Context) ReadOnly() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.readOnly
}

func (c *Context) ScopeRootID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.scopeRootID
}

func (c *Context) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{ServerPort: c.serverPort, ScopeRootID: c.scopeRootID, ReadOnly: c.readOnly}
}

// NodeResolver resolves node ids. document.Store implements it.
type NodeResolver interface {
	NodeByID(ctx context.Context, id string) (document.Node, error)
}

// CheckScopeAccess reports whether nodeID is the scope root or one of its
// descendants. It is false in read-only mode, without a scope, and for ids
// that do not resolve.
func (c *Context) CheckScopeAccess(ctx context.Context, store NodeResolver, nodeID string) bool {
	snap := c.Snapshot()
	if snap.ReadOnly || snap.ScopeRootID == "" || nodeID == "" {
		return false
	}
	node, err := store.NodeByID(ctx, nodeID)
	if err != nil || node == nil {
		return false
	}
	for n := node; n != nil; n = n.Parent() {
		if n.ID() == snap.ScopeRootID {
			return true
		}
	}
	return false
}

// VerifyNodeName reports whether the node's current name equals expected.
// A nil expectation always fails.
func VerifyNodeName(ctx context.Context, store NodeResolver, nodeID string, expected *string) bool {
	if nodeID == "" {
		return false
	}
	node, err := store.NodeByID(ctx, nodeID)
	if err != nil || node == nil {
		return false
	}
	if expected == nil {
		return false
	}
	return node.Name() == *expected
}

// VerifyParentName is VerifyNodeName for parents, except that a nil
// expectation is compared as the empty string.
func VerifyParentName(ctx context.Context, store NodeResolver, parentID string, expected *string) bool {
	if parentID == "" {
		return false
	}
	node, err := store.NodeByID(ctx, parentID)
	if err != nil || node == nil {
		return false
	}
	want := ""
	if expected != nil {
		want = *expected
	}
	return node.Name() == want
}

var nodeIDParam = regexp.MustCompile(`node-id=([^&]+)`)

// ParseNodeIDFromURL extracts the node-id query parameter of a design link,
// converting "12-34" to "12:34". It returns "" when there is none.
func ParseNodeIDFromURL(link string) string {
	if u, err := url.Parse(link); err == nil && u.Scheme != "" && u.Host != "" {
		id := u.Query().Get("node-id")
		return strings.ReplaceAll(id, "-", ":")
	}
	if m := nodeIDParam.FindStringSubmatch(link); m != nil {
		return strings.ReplaceAll(m[1], "-", ":")
	}
	return ""
}
