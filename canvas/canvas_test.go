package canvas

import (
	"context"
	"sync"
	"testing"

	"motion-director/core"
)

func TestCreateObject_AssignsID(t *testing.T) {
	c := New()
	ctx := context.Background()

	id, err := c.CreateObject(ctx, &core.VisualObject{Name: "obj"})
	if err != nil {
		t.Fatalf("CreateObject() failed: %v", err)
	}
	if len(id) != 26 {
		t.Errorf("expected ULID-length ID, got %q", id)
	}
}

func TestCreateObject_RequiresName(t *testing.T) {
	c := New()
	ctx := context.Background()

	if _, err := c.CreateObject(ctx, &core.VisualObject{}); err == nil {
		t.Error("CreateObject() should fail without a name")
	}
	if _, err := c.CreateObject(ctx, nil); err == nil {
		t.Error("CreateObject() should fail for nil object")
	}
}

func TestFindByName(t *testing.T) {
	c := New()
	ctx := context.Background()

	if _, err := c.CreateObject(ctx, &core.VisualObject{Name: "a", Position: core.Point{X: 1, Y: 2}}); err != nil {
		t.Fatalf("CreateObject() failed: %v", err)
	}

	obj, ok := c.FindByName(ctx, "a")
	if !ok {
		t.Fatal("FindByName() did not find object")
	}
	if obj.Position != (core.Point{X: 1, Y: 2}) {
		t.Errorf("position = %+v", obj.Position)
	}

	if _, ok := c.FindByName(ctx, "missing"); ok {
		t.Error("FindByName() found nonexistent object")
	}
}

func TestRemoveByName(t *testing.T) {
	c := New()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := c.CreateObject(ctx, &core.VisualObject{Name: "dup"}); err != nil {
			t.Fatalf("CreateObject() failed: %v", err)
		}
	}

	if removed := c.RemoveByName(ctx, "dup"); removed != 2 {
		t.Errorf("RemoveByName() = %d, want 2", removed)
	}
	if removed := c.RemoveByName(ctx, "dup"); removed != 0 {
		t.Errorf("RemoveByName() on empty = %d, want 0", removed)
	}
}

func TestRemoveByPrefix(t *testing.T) {
	c := New()
	ctx := context.Background()

	names := []string{"Path_1", "Path_2", "Marker_1", "Other"}
	for _, name := range names {
		if _, err := c.CreateObject(ctx, &core.VisualObject{Name: name}); err != nil {
			t.Fatalf("CreateObject() failed: %v", err)
		}
	}

	if removed := c.RemoveByPrefix(ctx, "Path_"); removed != 2 {
		t.Errorf("RemoveByPrefix() = %d, want 2", removed)
	}
	if got := c.ObjectCount(); got != 2 {
		t.Errorf("object count = %d, want 2", got)
	}
}

func TestMoveObject(t *testing.T) {
	c := New()
	ctx := context.Background()

	if _, err := c.CreateObject(ctx, &core.VisualObject{Name: "marker"}); err != nil {
		t.Fatalf("CreateObject() failed: %v", err)
	}

	pos := core.Point{X: 5, Y: -3}
	if err := c.MoveObject(ctx, "marker", pos); err != nil {
		t.Fatalf("MoveObject() failed: %v", err)
	}

	obj, _ := c.FindByName(ctx, "marker")
	if obj.Position != pos {
		t.Errorf("position = %+v, want %+v", obj.Position, pos)
	}
}

func TestMoveObject_LockedFails(t *testing.T) {
	c := New()
	ctx := context.Background()

	if _, err := c.CreateObject(ctx, &core.VisualObject{Name: "line", Locked: true}); err != nil {
		t.Fatalf("CreateObject() failed: %v", err)
	}

	if err := c.MoveObject(ctx, "line", core.Point{X: 1}); err == nil {
		t.Error("MoveObject() should fail for locked object")
	}
}

func TestMoveObject_MissingFails(t *testing.T) {
	c := New()
	if err := c.MoveObject(context.Background(), "ghost", core.Point{}); err == nil {
		t.Error("MoveObject() should fail for missing object")
	}
}

func TestSelection_PrunedOnRemoval(t *testing.T) {
	c := New()
	ctx := context.Background()

	keep, err := c.CreateObject(ctx, &core.VisualObject{Name: "keep"})
	if err != nil {
		t.Fatalf("CreateObject() failed: %v", err)
	}
	gone, err := c.CreateObject(ctx, &core.VisualObject{Name: "gone"})
	if err != nil {
		t.Fatalf("CreateObject() failed: %v", err)
	}
	c.SetSelection(ctx, []string{keep, gone})

	c.RemoveByName(ctx, "gone")

	sel := c.Selection(ctx)
	if len(sel) != 1 || sel[0] != keep {
		t.Errorf("selection = %v, want [%s]", sel, keep)
	}
}

func TestSetViewport_ClampsZoom(t *testing.T) {
	c := New()
	ctx := context.Background()

	cases := []struct {
		name string
		in   float64
		want float64
	}{
		{"below minimum", 0.001, MinZoom},
		{"above maximum", 1000, MaxZoom},
		{"in range", 1.5, 1.5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c.SetViewport(ctx, core.Viewport{X: 10, Y: 20, Zoom: tc.in})
			got := c.Viewport(ctx)
			if got.Zoom != tc.want {
				t.Errorf("zoom = %v, want %v", got.Zoom, tc.want)
			}
			if got.X != 10 || got.Y != 20 {
				t.Errorf("center = (%v, %v), want (10, 20)", got.X, got.Y)
			}
		})
	}
}

func TestViewport_DefaultZoom(t *testing.T) {
	c := New()
	if got := c.Viewport(context.Background()).Zoom; got != 1 {
		t.Errorf("default zoom = %v, want 1", got)
	}
}

func TestResize(t *testing.T) {
	c := New()
	c.Resize(core.PanelSize{Width: 320, Height: 480})

	got := c.PanelSize()
	if got.Width != 320 || got.Height != 480 {
		t.Errorf("panel = %+v", got)
	}
}

func TestConcurrentObjectChurn(t *testing.T) {
	c := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := c.CreateObject(ctx, &core.VisualObject{Name: "churn"}); err != nil {
					t.Errorf("CreateObject() failed: %v", err)
					return
				}
				c.FindByName(ctx, "churn")
				c.RemoveByName(ctx, "churn")
			}
		}()
	}
	wg.Wait()
}

func TestHub_GetCreatesOnDemand(t *testing.T) {
	h := NewHub()

	a := h.Get("doc-a")
	if a == nil {
		t.Fatal("Get() returned nil")
	}
	if h.Get("doc-a") != a {
		t.Error("Get() did not return the same canvas for the same document")
	}
	if h.Get("doc-b") == a {
		t.Error("distinct documents share a canvas")
	}
	if h.Len() != 2 {
		t.Errorf("Len() = %d, want 2", h.Len())
	}

	h.Close("doc-a")
	if h.Len() != 1 {
		t.Errorf("Len() after close = %d, want 1", h.Len())
	}
}

func TestHub_ConcurrentGet(t *testing.T) {
	h := NewHub()

	var wg sync.WaitGroup
	results := make([]*Canvas, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = h.Get("shared")
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(results); i++ {
		if results[i] != results[0] {
			t.Fatal("concurrent Get() returned different canvases")
		}
	}
}
