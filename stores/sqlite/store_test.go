package sqlite

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"motion-director/core"
)

func newTestStore(t *testing.T) *sqliteStore {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "test.db"))
}

func TestSaveGet_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	data := []byte(`{"scenes":[{"x":1,"y":2,"zoom":0.5}]}`)
	if err := store.Save(ctx, &core.Project{Name: "flythrough", OwnerID: "doc-1", Data: data}); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	got, err := store.Get(ctx, "doc-1", "flythrough")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if !bytes.Equal(got.Data, data) {
		t.Errorf("Get() data = %q, want %q", got.Data, data)
	}
}

func TestSave_Overwrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, &core.Project{Name: "p", OwnerID: "o", Data: []byte("v1")}); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	first, err := store.Get(ctx, "o", "p")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}

	if err := store.Save(ctx, &core.Project{Name: "p", OwnerID: "o", Data: []byte("v2")}); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	got, err := store.Get(ctx, "o", "p")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if string(got.Data) != "v2" {
		t.Errorf("overwrite not applied, data = %q", got.Data)
	}
	if !got.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt changed on overwrite: %v != %v", got.CreatedAt, first.CreatedAt)
	}
}

func TestGet_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "o", "missing")
	if !errors.Is(err, core.ErrProjectNotFound) {
		t.Errorf("Get() error = %v, want ErrProjectNotFound", err)
	}
}

func TestList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		if err := store.Save(ctx, &core.Project{Name: name, OwnerID: "o", Data: []byte("blob")}); err != nil {
			t.Fatalf("Save() failed: %v", err)
		}
	}
	if err := store.Save(ctx, &core.Project{Name: "other", OwnerID: "someone-else", Data: []byte("x")}); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	projects, err := store.List(ctx, "o")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(projects) != 3 {
		t.Fatalf("List() returned %d projects, want 3", len(projects))
	}
	for _, p := range projects {
		if p.Data != nil {
			t.Errorf("List() leaked data blob for %s", p.Name)
		}
	}
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, &core.Project{Name: "p", OwnerID: "o", Data: []byte("x")}); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if err := store.Delete(ctx, "o", "p"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := store.Get(ctx, "o", "p"); !errors.Is(err, core.ErrProjectNotFound) {
		t.Errorf("Get() after delete = %v, want ErrProjectNotFound", err)
	}

	// Deleting nothing is not an error.
	if err := store.Delete(ctx, "o", "p"); err != nil {
		t.Errorf("Delete() of missing project = %v", err)
	}
}

func TestExport_CreateAndFind(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	export := &core.Export{Data: *bytes.NewBufferString("shared motion setup")}
	id, err := store.Create(ctx, export)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if len(id) != 26 {
		t.Errorf("Create() returned invalid ID length: got %d, want 26", len(id))
	}

	got, err := store.FindID(ctx, id)
	if err != nil {
		t.Fatalf("FindID() failed: %v", err)
	}
	if got.Data.String() != "shared motion setup" {
		t.Errorf("FindID() data = %q", got.Data.String())
	}

	if _, err := store.FindID(ctx, "unknown"); err == nil {
		t.Error("FindID() should fail for unknown ID")
	}
}
