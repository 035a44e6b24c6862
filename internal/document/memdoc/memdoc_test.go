package memdoc

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/ttfbridge/host/internal/document"
)

func seedDoc(t *testing.T) *Document {
	t.Helper()
	snap := Snapshot{
		Nodes: []NodeSpec{
			{ID: "10:1", Type: document.TypeFrame, Name: "Card", X: 10, Y: 20, Width: 200, Height: 100, Children: []NodeSpec{
				{ID: "10:2", Type: document.TypeText, Name: "Title", X: 5, Y: 5, Characters: "Hello"},
				{ID: "10:3", Type: document.TypeRectangle, Name: "Bg", Width: 50, Height: 50},
			}},
			{ID: "20:1", Type: document.TypeComponent, Name: "Button", Key: "btn", Width: 80, Height: 30, Children: []NodeSpec{
				{ID: "20:2", Type: document.TypeText, Name: "Label", Characters: "OK"},
			}},
			{ID: "30:1", Type: document.TypeInstance, Name: "Button", ComponentID: "20:1"},
		},
	}
	d, err := FromSnapshot(snap)
	if err != nil {
		t.Fatalf("FromSnapshot: %v", err)
	}
	return d
}

func TestNodeByIDAndHierarchy(t *testing.T) {
	ctx := context.Background()
	d := seedDoc(t)

	n, err := d.NodeByID(ctx, "10:2")
	if err != nil {
		t.Fatalf("NodeByID: %v", err)
	}
	assert.Equal(t, n.Name(), "Title")
	assert.Equal(t, n.Parent().ID(), "10:1")
	assert.Equal(t, n.Parent().Parent().Type(), document.TypePage)
	assert.Equal(t, len(document.Ancestors(n)), 3)

	_, err = d.NodeByID(ctx, "99:99")
	if !errors.Is(err, document.ErrNotFound) {
		t.Fatalf("NodeByID(missing) error = %v, want ErrNotFound", err)
	}
}

func TestAbsoluteBoundingBox(t *testing.T) {
	d := seedDoc(t)
	n, _ := d.NodeByID(context.Background(), "10:2")
	box := n.(document.Bounded).AbsoluteBoundingBox()
	assert.Equal(t, box.X, 15.0)
	assert.Equal(t, box.Y, 25.0)
}

func TestCapabilities(t *testing.T) {
	d := seedDoc(t)
	ctx := context.Background()
	text, _ := d.NodeByID(ctx, "10:2")
	frame, _ := d.NodeByID(ctx, "10:1")

	_, ok := text.(document.AutoLayout)
	assert.Equal(t, ok, false)
	_, ok = frame.(document.AutoLayout)
	assert.Equal(t, ok, true)
	_, ok = text.(document.Text)
	assert.Equal(t, ok, true)
	_, ok = d.Root(ctx).(document.Fillable)
	assert.Equal(t, ok, false)
}

func TestSetCharactersRequiresLoadedFont(t *testing.T) {
	ctx := context.Background()
	d := seedDoc(t)
	n, _ := d.NodeByID(ctx, "10:2")
	text := n.(document.Text)

	err := text.SetCharacters("Bye")
	if err == nil || !strings.Contains(err.Error(), "unloaded font") {
		t.Fatalf("SetCharacters before LoadFont error = %v, want unloaded font", err)
	}
	if err := d.LoadFont(ctx, document.FontName{Family: "Inter", Style: "Regular"}); err != nil {
		t.Fatalf("LoadFont: %v", err)
	}
	if err := text.SetCharacters("Bye"); err != nil {
		t.Fatalf("SetCharacters: %v", err)
	}
	assert.Equal(t, text.Characters(), "Bye")
}

func TestLoadFontUnavailable(t *testing.T) {
	d := New(Options{})
	err := d.LoadFont(context.Background(), document.FontName{Family: "Comic", Style: "Regular"})
	assert.NotEqual(t, err, nil)
}

func TestRangeFonts(t *testing.T) {
	ctx := context.Background()
	d := seedDoc(t)
	bold := document.FontName{Family: "Inter", Style: "Bold"}
	_ = d.LoadFont(ctx, bold)
	n, _ := d.NodeByID(ctx, "10:2")
	text := n.(document.Text)

	if err := text.SetRangeFontName(0, 2, bold); err != nil {
		t.Fatalf("SetRangeFontName: %v", err)
	}
	_, mixed := text.FontName()
	assert.Equal(t, mixed, true)
	f, mixed := text.RangeFontName(0, 2)
	assert.Equal(t, mixed, false)
	assert.Equal(t, f, bold)
	_, mixed = text.RangeFontName(1, 4)
	assert.Equal(t, mixed, true)
}

func TestInstanceOverrides(t *testing.T) {
	ctx := context.Background()
	d := seedDoc(t)
	n, _ := d.NodeByID(ctx, "30:1")
	inst := n.(document.Instance)

	children := n.(document.Container).Children()
	if len(children) != 1 {
		t.Fatalf("instance children = %d, want 1", len(children))
	}
	assert.Equal(t, children[0].ID(), "I30:1;20:2")

	children[0].(document.Fillable).SetFills([]document.Paint{document.SolidPaint(1, 0, 0, 1)})
	children[0].SetName("Renamed")

	ov := inst.Overrides()
	if len(ov) != 1 {
		t.Fatalf("Overrides = %d, want 1", len(ov))
	}
	assert.Equal(t, ov[0].ID, "I30:1;20:2")
	assert.Equal(t, ov[0].OverriddenFields, []string{"fills", "name"})

	main, err := inst.MainComponent(ctx)
	if err != nil || main == nil {
		t.Fatalf("MainComponent = %v, %v", main, err)
	}
	assert.Equal(t, main.ID(), "20:1")
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	d := seedDoc(t)
	n, _ := d.NodeByID(ctx, "10:1")
	if err := n.Remove(); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := d.NodeByID(ctx, "10:2"); !errors.Is(err, document.ErrNotFound) {
		t.Fatalf("child still resolves after parent removal: %v", err)
	}
	if err := n.Remove(); err == nil {
		t.Fatal("second Remove succeeded, want error")
	}
	if err := d.CurrentPage(ctx).Remove(); err == nil {
		t.Fatal("removing the page succeeded, want error")
	}
}

func TestCloneGoesToCurrentPage(t *testing.T) {
	ctx := context.Background()
	d := seedDoc(t)
	n, _ := d.NodeByID(ctx, "10:3")
	c, err := n.Clone()
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	assert.NotEqual(t, c.ID(), n.ID())
	assert.Equal(t, c.Parent().ID(), d.CurrentPage(ctx).ID())
	assert.Equal(t, c.Name(), "Bg")
}

func TestInsertIntoSelfFails(t *testing.T) {
	ctx := context.Background()
	d := seedDoc(t)
	frame, _ := d.NodeByID(ctx, "10:1")
	err := frame.(document.Container).AppendChild(frame)
	assert.NotEqual(t, err, nil)
}

func TestExportPNG(t *testing.T) {
	ctx := context.Background()
	d := seedDoc(t)
	n, _ := d.NodeByID(ctx, "10:3")
	data, err := n.(document.Exportable).Export(ctx, document.ExportSettings{Format: "PNG", Scale: 2})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	assert.Equal(t, img.Bounds().Dx(), 100)
	assert.Equal(t, img.Bounds().Dy(), 100)
}

func TestCreateNodeFromSVG(t *testing.T) {
	ctx := context.Background()
	d := New(Options{})
	svg := `<svg width="24" height="16" xmlns="http://www.w3.org/2000/svg"><g fill="#ff0000"><path d="M0 0h10v10z"/><rect width="4" height="4"/></g></svg>`
	n, err := d.CreateNodeFromSVG(ctx, svg)
	if err != nil {
		t.Fatalf("CreateNodeFromSVG: %v", err)
	}
	assert.Equal(t, n.Type(), document.TypeFrame)
	assert.Equal(t, n.(document.Resizable).Width(), 24.0)
	children := n.(document.Container).Children()
	assert.Equal(t, len(children), 2)
	fills := children[0].(document.Fillable).Fills()
	assert.Equal(t, fills[0].Color.R, 1.0)

	if _, err := d.CreateNodeFromSVG(ctx, "<div/>"); err == nil {
		t.Fatal("CreateNodeFromSVG(<div/>) succeeded, want error")
	}
}

func TestImportComponentByKey(t *testing.T) {
	ctx := context.Background()
	d := seedDoc(t)
	c, err := d.ImportComponentByKey(ctx, "btn")
	if err != nil {
		t.Fatalf("ImportComponentByKey: %v", err)
	}
	assert.Equal(t, c.ID(), "20:1")
	_, err = d.ImportComponentByKey(ctx, "nope")
	assert.Equal(t, err.Error(), "Component with key nope not found")
}

func TestVariables(t *testing.T) {
	ctx := context.Background()
	d := seedDoc(t)
	d.AddVariableCollection(
		document.VariableCollection{ID: "VC:1", Name: "Colors", Modes: []document.VariableMode{{ModeID: "m1", Name: "Light"}}, DefaultModeID: "m1"},
		document.Variable{ID: "V:1", Name: "primary", ResolvedType: "COLOR"},
	)
	v, err := d.VariableByID(ctx, "V:1")
	if err != nil || v == nil {
		t.Fatalf("VariableByID = %v, %v", v, err)
	}
	assert.Equal(t, v.CollectionID, "VC:1")

	missing, err := d.VariableByID(ctx, "V:404")
	assert.Equal(t, err, nil)
	assert.Equal(t, missing == nil, true)

	n, _ := d.NodeByID(ctx, "10:3")
	vb := n.(document.VariableBindable)
	if err := vb.SetBoundVariable("width", v); err != nil {
		t.Fatalf("SetBoundVariable: %v", err)
	}
	assert.Equal(t, vb.BoundVariables()["width"].ID, "V:1")
	if err := vb.SetExplicitVariableModeForCollection("VC:1", "m2"); err == nil {
		t.Fatal("unknown mode accepted")
	}
}

func TestNotify(t *testing.T) {
	d := New(Options{})
	d.Notify(context.Background(), "hello")
	assert.Equal(t, d.Notifications(), []string{"hello"})
}

func TestLoadJSON(t *testing.T) {
	src := `{"pageName":"Home","nodes":[{"id":"1:5","type":"RECTANGLE","name":"Box","width":10,"height":10}],"selection":["1:5"]}`
	d, err := LoadJSON(strings.NewReader(src))
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	ctx := context.Background()
	assert.Equal(t, d.CurrentPage(ctx).Name(), "Home")
	sel := d.Selection(ctx)
	assert.Equal(t, len(sel), 1)
	assert.Equal(t, sel[0].ID(), "1:5")

	r, err := d.CreateRectangle(ctx)
	if err != nil {
		t.Fatalf("CreateRectangle: %v", err)
	}
	assert.NotEqual(t, r.ID(), "1:5")
}
