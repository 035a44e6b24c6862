package nodeutil

import (
	"context"
	"testing"

	"github.com/ttfbridge/host/internal/document"
	"github.com/ttfbridge/host/internal/document/memdoc"
)

func boolPtr(b bool) *bool { return &b }

func seedTree(t *testing.T) *memdoc.Document {
	t.Helper()
	d := memdoc.New(memdoc.Options{})
	red := document.SolidPaint(1, 0, 0, 1)
	_, err := d.Seed(memdoc.NodeSpec{
		ID:    "1:10", Type: document.TypeFrame, Name: "Screen", Width: 300, Height: 200,
		Fills: []document.Paint{red},
		Children: []memdoc.NodeSpec{
			{ID: "1:11", Type: document.TypeText, Name: "Title", Characters: "Hi"},
			{ID: "1:12", Type: document.TypeGroup, Name: "", Children: []memdoc.NodeSpec{
				{ID: "1:13", Type: document.TypeText, Name: "Nested", Characters: "Deep"},
			}},
			{ID: "1:14", Type: document.TypeFrame, Name: "Hidden", Visible: boolPtr(false), Children: []memdoc.NodeSpec{
				{ID: "1:15", Type: document.TypeText, Name: "Ghost", Characters: "Boo"},
			}},
			{ID: "1:16", Type: document.TypeVector, Name: "Icon"},
		},
	}, "")
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return d
}

func TestCollectSkipsInvisibleSubtrees(t *testing.T) {
	d := seedTree(t)
	root, _ := d.NodeByID(context.Background(), "1:10")
	visits := Collect(root)

	var ids []string
	for _, v := range visits {
		ids = append(ids, v.Node.ID())
	}
	want := []string{"1:10", "1:11", "1:12", "1:13", "1:16"}
	if len(ids) != len(want) {
		t.Fatalf("Collect ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("Collect[%d] = %q, want %q", i, ids[i], want[i])
		}
	}

	nested := visits[3]
	if nested.Depth != 2 {
		t.Errorf("nested depth = %d, want 2", nested.Depth)
	}
	gotPath := nested.Path
	wantPath := []string{"Screen", "Unnamed GROUP", "Nested"}
	for i := range wantPath {
		if gotPath[i] != wantPath[i] {
			t.Errorf("path[%d] = %q, want %q", i, gotPath[i], wantPath[i])
		}
	}
}

func TestPathString(t *testing.T) {
	d := seedTree(t)
	n, _ := d.NodeByID(context.Background(), "1:13")
	if got, want := PathString(n), "Page 1 > Screen >  > Nested"; got != want {
		t.Errorf("PathString = %q, want %q", got, want)
	}
}

func TestFindAllIncludesHidden(t *testing.T) {
	d := seedTree(t)
	root, _ := d.NodeByID(context.Background(), "1:10")
	texts := FindAll(root, OfTypes(document.TypeText))
	if len(texts) != 3 {
		t.Fatalf("FindAll(TEXT) = %d nodes, want 3", len(texts))
	}
}

func TestSerialize(t *testing.T) {
	d := seedTree(t)
	root, _ := d.NodeByID(context.Background(), "1:10")
	s := Serialize(root)

	if s.Fills[0].Color != "#ff0000" {
		t.Errorf("fill color = %q, want %q", s.Fills[0].Color, "#ff0000")
	}
	if s.AbsoluteBoundingBox == nil || s.AbsoluteBoundingBox.Width != 300 {
		t.Errorf("absoluteBoundingBox = %+v, want width 300", s.AbsoluteBoundingBox)
	}
	if len(s.Children) != 3 {
		t.Fatalf("children = %d, want 3 (vector dropped)", len(s.Children))
	}
	title := s.Children[0]
	if title.Characters != "Hi" {
		t.Errorf("characters = %q, want %q", title.Characters, "Hi")
	}
	if title.Style == nil || title.Style.FontFamily != "Inter" || title.Style.FontWeight != 400 {
		t.Errorf("style = %+v, want Inter 400", title.Style)
	}

	vec, _ := d.NodeByID(context.Background(), "1:16")
	if Serialize(vec) != nil {
		t.Error("Serialize(VECTOR) != nil")
	}
}
