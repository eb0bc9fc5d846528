package worldtest

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	world "terrascape.dev/internal/sim/world"
)

func TestPlaceHoverRemoveRoundtrip(t *testing.T) {
	h := NewHarness(t, DefaultConfig(), DefaultCatalogs())
	tree := h.W.ObjectTypeIDs()[0]

	handle := h.PlaceGrounded(tree, 10, 10, 0.5)

	_, hovered, hit := h.HoverAt(10, 10)
	if !hit {
		t.Fatalf("cursor over the object reported no hover")
	}
	if hovered != handle {
		t.Fatalf("hovered %+v, want %+v", hovered, handle)
	}

	if !h.W.Remove(handle) {
		t.Fatalf("remove failed")
	}
	if _, _, hit := h.HoverAt(10, 10); hit {
		t.Fatalf("removed object still hovered")
	}
	if h.W.Remove(handle) {
		t.Fatalf("second remove succeeded")
	}
}

func TestOverlapRefusedThenFreedByRemove(t *testing.T) {
	h := NewHarness(t, DefaultConfig(), DefaultCatalogs())
	tree := h.W.ObjectTypeIDs()[0] // hover radius 1.2

	first := h.PlaceGrounded(tree, 0, 0, 0)

	if h.W.CanPlace(tree, h.W.GroundedPos(mgl32.Vec3{1.0, 0, 0})) {
		t.Fatalf("overlapping placement allowed")
	}

	if !h.W.Remove(first) {
		t.Fatalf("remove failed")
	}
	if !h.W.CanPlace(tree, h.W.GroundedPos(mgl32.Vec3{1.0, 0, 0})) {
		t.Fatalf("placement still refused after removal")
	}
}

func TestHoverPrefersNearestObject(t *testing.T) {
	h := NewHarness(t, DefaultConfig(), DefaultCatalogs())
	cabin := h.W.ObjectTypeIDs()[2] // hover radius 2.5

	a := h.PlaceGrounded(cabin, 0, 0, 0)
	b := h.PlaceGrounded(cabin, 6, 0, 0)

	_, hovered, hit := h.HoverAt(2, 0)
	if !hit || hovered != a {
		t.Fatalf("hover near first cabin = %+v hit=%v", hovered, hit)
	}
	_, hovered, hit = h.HoverAt(4.5, 0)
	if !hit || hovered != b {
		t.Fatalf("hover near second cabin = %+v hit=%v", hovered, hit)
	}
}

func TestStaleHandleAfterSlotReuse(t *testing.T) {
	h := NewHarness(t, DefaultConfig(), DefaultCatalogs())
	boulder := h.W.ObjectTypeIDs()[1]

	old := h.PlaceGrounded(boulder, 20, 20, 0)
	if !h.W.Remove(old) {
		t.Fatalf("remove failed")
	}
	fresh := h.PlaceGrounded(boulder, 40, 40, 0)

	if old.Index == fresh.Index && old.Generation == fresh.Generation {
		t.Fatalf("stale handle equals fresh handle")
	}
	if h.W.Get(old) != nil {
		t.Fatalf("stale handle resolves")
	}
	if got := h.W.Get(fresh); got == nil || got.TypeID != boulder {
		t.Fatalf("fresh handle broken: %+v", got)
	}
}

func TestObjectsTrackChunkMembership(t *testing.T) {
	cfg := DefaultConfig()
	h := NewHarness(t, cfg, DefaultCatalogs())
	tree := h.W.ObjectTypeIDs()[0]

	handle := h.PlaceGrounded(tree, 3, 3, 0)
	chunk := world.ChunkCoord{CX: 0, CZ: 0}

	if !h.W.ObjectChunkDirty(chunk) {
		t.Fatalf("chunk not marked dirty by placement")
	}
	members := h.W.ObjectsInChunk(chunk)
	if len(members) != 1 || members[0] != handle {
		t.Fatalf("chunk members = %v", members)
	}
	h.W.MarkObjectChunkClean(chunk)
	if h.W.ObjectChunkDirty(chunk) {
		t.Fatalf("chunk still dirty after acknowledge")
	}
}
