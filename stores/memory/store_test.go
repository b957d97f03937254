package memory

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"motion-director/core"
)

func TestNewStore(t *testing.T) {
	if NewStore() == nil {
		t.Fatal("NewStore() returned nil")
	}
}

func TestSaveGet_RoundTrip(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	data := []byte(`{"scenes":[{"x":10,"y":20,"zoom":1.5}],"paths":[]}`)
	project := &core.Project{
		Name:    "launch-sequence",
		OwnerID: "doc-1",
		Data:    data,
	}

	if err := store.Save(ctx, project); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	got, err := store.Get(ctx, "doc-1", "launch-sequence")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if !bytes.Equal(got.Data, data) {
		t.Errorf("Get() data = %q, want %q", got.Data, data)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps not set on save")
	}
}

func TestSave_OverwritePreservesCreatedAt(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	first := &core.Project{Name: "p", OwnerID: "o", Data: []byte("v1")}
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	created := first.CreatedAt

	second := &core.Project{Name: "p", OwnerID: "o", Data: []byte("v2")}
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	got, err := store.Get(ctx, "o", "p")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if string(got.Data) != "v2" {
		t.Errorf("overwrite not applied, data = %q", got.Data)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt changed on overwrite: %v != %v", got.CreatedAt, created)
	}
}

func TestSave_Validation(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := store.Save(ctx, &core.Project{Name: "p"}); err == nil {
		t.Error("Save() should fail without owner ID")
	}
	if err := store.Save(ctx, &core.Project{OwnerID: "o"}); err == nil {
		t.Error("Save() should fail without name")
	}
}

func TestGet_NotFound(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "nobody", "nothing")
	if !errors.Is(err, core.ErrProjectNotFound) {
		t.Errorf("Get() error = %v, want ErrProjectNotFound", err)
	}

	// Known owner, unknown name.
	if err := store.Save(ctx, &core.Project{Name: "a", OwnerID: "o", Data: []byte("x")}); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	_, err = store.Get(ctx, "o", "b")
	if !errors.Is(err, core.ErrProjectNotFound) {
		t.Errorf("Get() error = %v, want ErrProjectNotFound", err)
	}
}

func TestList_OmitsData(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		project := &core.Project{Name: name, OwnerID: "o", Data: []byte("blob")}
		if err := store.Save(ctx, project); err != nil {
			t.Fatalf("Save() failed: %v", err)
		}
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

func TestList_EmptyOwner(t *testing.T) {
	store := NewStore()

	projects, err := store.List(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if projects == nil || len(projects) != 0 {
		t.Errorf("List() = %v, want empty slice", projects)
	}
}

func TestDelete(t *testing.T) {
	store := NewStore()
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

	if err := store.Delete(ctx, "o", "p"); err == nil {
		t.Error("Delete() of missing project should fail")
	}
}

func TestOwnerIsolation(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := store.Save(ctx, &core.Project{Name: "p", OwnerID: "alice", Data: []byte("a")}); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if err := store.Save(ctx, &core.Project{Name: "p", OwnerID: "bob", Data: []byte("b")}); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	got, err := store.Get(ctx, "alice", "p")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if string(got.Data) != "a" {
		t.Errorf("owner isolation broken, got %q", got.Data)
	}
}

func TestExport_CreateAndFind(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	export := &core.Export{Data: *bytes.NewBufferString(`{"paths":[{"start":{"x":0,"y":0}}]}`)}
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
	if got.Data.String() != export.Data.String() {
		t.Errorf("FindID() data mismatch: got %q", got.Data.String())
	}
}

func TestExport_FindMissing(t *testing.T) {
	store := NewStore()

	if _, err := store.FindID(context.Background(), "nonexistent-id"); err == nil {
		t.Error("FindID() should return error for nonexistent ID")
	}
}

func TestConcurrentSave(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			project := &core.Project{
				Name:    "shared",
				OwnerID: "o",
				Data:    []byte{byte('0' + i)},
			}
			if err := store.Save(ctx, project); err != nil {
				t.Errorf("concurrent Save() failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if _, err := store.Get(ctx, "o", "shared"); err != nil {
		t.Fatalf("Get() after concurrent saves failed: %v", err)
	}
}
