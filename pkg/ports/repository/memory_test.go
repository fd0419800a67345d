package repository

import (
	"context"
	"testing"

	"github.com/dipeo/execengine/pkg/types"
)

func TestMemory_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	d := types.Diagram{Name: "greet", Nodes: []types.Node{{ID: "start", Kind: types.KindStart}}}

	if err := m.Save(ctx, "greet", d); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := m.Load(ctx, "greet")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Nodes) != 1 || got.Nodes[0].ID != "start" {
		t.Fatalf("unexpected diagram: %+v", got)
	}
}

func TestMemory_LoadMissing(t *testing.T) {
	m := NewMemory()
	if _, err := m.Load(context.Background(), "missing"); err == nil {
		t.Fatalf("expected error for missing diagram")
	}
}

func TestMemory_List(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Save(ctx, "b", types.Diagram{})
	m.Save(ctx, "a", types.Diagram{})

	names, err := m.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("expected sorted [a b], got %v", names)
	}
}

func TestMemory_Delete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Save(ctx, "a", types.Diagram{})

	if err := m.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := m.Load(ctx, "a"); err == nil {
		t.Fatalf("expected load to fail after delete")
	}
}

func TestMemory_DeleteMissing(t *testing.T) {
	m := NewMemory()
	if err := m.Delete(context.Background(), "missing"); err == nil {
		t.Fatalf("expected error deleting missing diagram")
	}
}

func TestMemory_Overwrite(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Save(ctx, "a", types.Diagram{Name: "v1"})
	m.Save(ctx, "a", types.Diagram{Name: "v2"})

	got, err := m.Load(ctx, "a")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Name != "v2" {
		t.Fatalf("expected v2, got %s", got.Name)
	}
}
