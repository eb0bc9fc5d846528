package world

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func handleAt(i uint32) ObjectHandle {
	return ObjectHandle{Index: i, Generation: 1}
}

func TestSpatialGrid_InsertQueryRemove(t *testing.T) {
	g := NewSpatialGrid(8)

	g.InsertOrMove(handleAt(0), mgl32.Vec3{1, 0, 1})
	g.InsertOrMove(handleAt(1), mgl32.Vec3{100, 0, 100})

	near := g.QueryCandidates(mgl32.Vec2{0, 0}, 4)
	if len(near) != 1 || near[0] != handleAt(0) {
		t.Fatalf("near query = %v", near)
	}

	g.Remove(handleAt(0))
	if got := g.QueryCandidates(mgl32.Vec2{0, 0}, 4); len(got) != 0 {
		t.Fatalf("removed handle still returned: %v", got)
	}
	if g.Len() != 1 {
		t.Fatalf("len = %d, want 1", g.Len())
	}
}

func TestSpatialGrid_MoveBetweenCells(t *testing.T) {
	g := NewSpatialGrid(8)
	h := handleAt(7)

	g.InsertOrMove(h, mgl32.Vec3{1, 0, 1})
	g.InsertOrMove(h, mgl32.Vec3{100, 0, 100})

	// The handle must appear only at its new location.
	if got := g.QueryCandidates(mgl32.Vec2{0, 0}, 4); len(got) != 0 {
		t.Fatalf("stale cell still lists handle: %v", got)
	}
	got := g.QueryCandidates(mgl32.Vec2{100, 100}, 4)
	if len(got) != 1 || got[0] != h {
		t.Fatalf("new cell query = %v", got)
	}
	if g.Len() != 1 {
		t.Fatalf("len = %d after move, want 1", g.Len())
	}
}

func TestSpatialGrid_MoveWithinCellNoop(t *testing.T) {
	g := NewSpatialGrid(8)
	h := handleAt(3)

	g.InsertOrMove(h, mgl32.Vec3{1, 0, 1})
	g.InsertOrMove(h, mgl32.Vec3{2, 0, 2}) // same cell

	got := g.QueryCandidates(mgl32.Vec2{0, 0}, 4)
	if len(got) != 1 {
		t.Fatalf("handle duplicated within its cell: %v", got)
	}
}

func TestSpatialGrid_QueryCoversRadius(t *testing.T) {
	g := NewSpatialGrid(8)

	// Just inside and just outside the cell block for radius 10 (reach 2).
	g.InsertOrMove(handleAt(0), mgl32.Vec3{15, 0, 0})
	g.InsertOrMove(handleAt(1), mgl32.Vec3{60, 0, 0})

	got := g.QueryCandidates(mgl32.Vec2{0, 0}, 10)
	if len(got) != 1 || got[0] != handleAt(0) {
		t.Fatalf("radius query = %v", got)
	}
}

func TestSpatialGrid_NegativeCoordinates(t *testing.T) {
	g := NewSpatialGrid(8)
	h := handleAt(9)
	g.InsertOrMove(h, mgl32.Vec3{-3, 0, -3})

	got := g.QueryCandidates(mgl32.Vec2{-1, -1}, 4)
	if len(got) != 1 || got[0] != h {
		t.Fatalf("negative-coordinate query = %v", got)
	}
}
