package world

import "testing"

func TestObjectTypeRegistry_RegisterGet(t *testing.T) {
	var r ObjectTypeRegistry

	a := r.Register(ObjectTypeSpec{Name: "tree", HoverRadius: 1})
	b := r.Register(ObjectTypeSpec{Name: "cabin", HoverRadius: 2.5})
	if a == b {
		t.Fatalf("distinct registrations share an id")
	}
	if r.Len() != 2 {
		t.Fatalf("len = %d", r.Len())
	}

	spec, ok := r.Get(a)
	if !ok || spec.Name != "tree" {
		t.Fatalf("get(a) = %+v, %v", spec, ok)
	}
	if _, ok := r.Get(ObjectTypeID(99)); ok {
		t.Fatalf("get of unregistered id succeeded")
	}
}

func TestObjectTypeRegistry_RemoveAndReuse(t *testing.T) {
	var r ObjectTypeRegistry

	a := r.Register(ObjectTypeSpec{Name: "tree"})
	if !r.Remove(a) {
		t.Fatalf("remove failed")
	}
	if r.Remove(a) {
		t.Fatalf("double remove succeeded")
	}
	if _, ok := r.Get(a); ok {
		t.Fatalf("removed id still resolves")
	}

	// Freed ids are reused as-is; the catalog is a closed table.
	b := r.Register(ObjectTypeSpec{Name: "boulder"})
	if b != a {
		t.Fatalf("freed id not reused: a=%d b=%d", a, b)
	}
	spec, ok := r.Get(b)
	if !ok || spec.Name != "boulder" {
		t.Fatalf("reused slot spec = %+v", spec)
	}
}

func TestTileTypeRegistry_Basics(t *testing.T) {
	var r TileTypeRegistry
	id := r.Register(TileTypeSpec{Name: "grass", HeightLT: 3})
	spec, ok := r.Get(id)
	if !ok || spec.HeightLT != 3 {
		t.Fatalf("get = %+v, %v", spec, ok)
	}
	if r.Len() != 1 {
		t.Fatalf("len = %d", r.Len())
	}
}

func TestClampRadius(t *testing.T) {
	if got := clampRadius(0); got != minHoverRadius {
		t.Fatalf("clampRadius(0) = %v", got)
	}
	if got := clampRadius(-5); got != minHoverRadius {
		t.Fatalf("clampRadius(-5) = %v", got)
	}
	if got := clampRadius(2); got != 2 {
		t.Fatalf("clampRadius(2) = %v", got)
	}
}
