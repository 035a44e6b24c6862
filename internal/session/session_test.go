package session

import (
	"context"
	"testing"

	"github.com/ttfbridge/host/internal/document"
	"github.com/ttfbridge/host/internal/document/memdoc"
)

func strPtr(s string) *string { return &s }

func newDoc(t *testing.T) *memdoc.Document {
	t.Helper()
	d := memdoc.New(memdoc.Options{})
	_, err := d.Seed(memdoc.NodeSpec{ID: "1:1", Type: document.TypeFrame, Name: "Scope", Children: []memdoc.NodeSpec{
		{ID: "1:2", Type: document.TypeFrame, Name: "Inner", Children: []memdoc.NodeSpec{
			{ID: "1:3", Type: document.TypeRectangle, Name: "Leaf"},
		}},
	}}, "")
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if _, err := d.Seed(memdoc.NodeSpec{ID: "2:1", Type: document.TypeFrame, Name: "Elsewhere"}, ""); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return d
}

func TestNewIsReadOnly(t *testing.T) {
	s := New(0)
	snap := s.Snapshot()
	if !snap.ReadOnly {
		t.Error("new session is not read-only")
	}
	if snap.ServerPort != DefaultServerPort {
		t.Errorf("ServerPort = %d, want %d", snap.ServerPort, DefaultServerPort)
	}
}

func TestSetScopeTransitions(t *testing.T) {
	s := New(3055)
	s.SetScope("1:1")
	if s.ReadOnly() || s.ScopeRootID() != "1:1" {
		t.Fatalf("after SetScope(1:1): readOnly=%v scope=%q", s.ReadOnly(), s.ScopeRootID())
	}
	s.SetScope("")
	if !s.ReadOnly() || s.ScopeRootID() != "" {
		t.Fatalf("after SetScope(\"\"): readOnly=%v scope=%q", s.ReadOnly(), s.ScopeRootID())
	}
}

func TestCheckScopeAccess(t *testing.T) {
	ctx := context.Background()
	d := newDoc(t)
	s := New(3055)

	if s.CheckScopeAccess(ctx, d, "1:3") {
		t.Error("read-only session admitted a node")
	}

	s.SetScope("1:1")
	tests := []struct {
		id   string
		want bool
	}{
		{"1:1", true},
		{"1:2", true},
		{"1:3", true},
		{"2:1", false},
		{"0:1", false},
		{"9:9", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := s.CheckScopeAccess(ctx, d, tt.id); got != tt.want {
			t.Errorf("CheckScopeAccess(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestVerifyNodeName(t *testing.T) {
	ctx := context.Background()
	d := newDoc(t)

	if VerifyNodeName(ctx, d, "1:3", nil) {
		t.Error("nil expectation accepted")
	}
	if !VerifyNodeName(ctx, d, "1:3", strPtr("Leaf")) {
		t.Error("matching name rejected")
	}
	if VerifyNodeName(ctx, d, "1:3", strPtr("leaf")) {
		t.Error("case-different name accepted")
	}
	if VerifyNodeName(ctx, d, "9:9", strPtr("Leaf")) {
		t.Error("missing node accepted")
	}
}

func TestVerifyParentName(t *testing.T) {
	ctx := context.Background()
	d := newDoc(t)
	if VerifyParentName(ctx, d, "1:1", nil) {
		t.Error("nil expectation matched a named parent")
	}
	if !VerifyParentName(ctx, d, "1:1", strPtr("Scope")) {
		t.Error("matching parent name rejected")
	}
}

func TestParseNodeIDFromURL(t *testing.T) {
	tests := []struct {
		link string
		want string
	}{
		{"https://www.figma.com/design/abc/File?node-id=12-34&t=x", "12:34"},
		{"https://www.figma.com/design/abc/File", ""},
		{"node-id=5-6&foo", "5:6"},
		{"not a link", ""},
	}
	for _, tt := range tests {
		if got := ParseNodeIDFromURL(tt.link); got != tt.want {
			t.Errorf("ParseNodeIDFromURL(%q) = %q, want %q", tt.link, got, tt.want)
		}
	}
}
