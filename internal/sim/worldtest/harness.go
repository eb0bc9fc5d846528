package worldtest

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"terrascape.dev/internal/sim/catalogs"
	"terrascape.dev/internal/sim/world"
)

// Harness drives a world through exported APIs only, so scenario tests stay
// black-box and live outside the world package.
type Harness struct {
	T    *testing.T
	Cats *catalogs.Catalogs
	W    *world.World
}

func DefaultConfig() world.Config {
	return world.Config{
		ID:                 "test",
		Seed:               1337,
		ChunkSize:          8,
		TileSize:           1.0,
		ViewDistanceChunks: 2,
		SpawnBudgetPerTick: 4,
		NoiseBaseFrequency: 0.03,
		NoiseOctaves:       4,
		NoisePersistence:   0.5,
		HeightScale:        8.0,
		SpatialCellSize:    8.0,
	}
}

func DefaultCatalogs() *catalogs.Catalogs {
	return &catalogs.Catalogs{
		Tiles: catalogs.TileCatalog{Defs: []catalogs.TileDef{
			{Name: "water", HeightLT: -3},
			{Name: "sand", HeightLT: -1},
			{Name: "grass", HeightLT: 3},
			{Name: "rock", HeightLT: 6},
			{Name: "snow", HeightLT: 100},
		}},
		Objects: catalogs.ObjectCatalog{Defs: []catalogs.ObjectDef{
			{Name: "tree", Scale: [3]float32{1, 1, 1}, HoverRadius: 1.2},
			{Name: "boulder", Scale: [3]float32{0.8, 0.8, 0.8}, HoverRadius: 0.9},
			{Name: "cabin", Scale: [3]float32{1.5, 1.5, 1.5}, HoverRadius: 2.5},
		}},
	}
}

func NewHarness(t *testing.T, cfg world.Config, cats *catalogs.Catalogs) *Harness {
	t.Helper()

	w, err := world.New(cfg, cats)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	return &Harness{T: t, Cats: cats, W: w}
}

// MoveViewer places the viewer and returns the actions of one tick.
func (h *Harness) MoveViewer(x, z float32) []world.Action {
	h.W.SetViewer(mgl32.Vec2{x, z})
	return h.W.Tick()
}

// StepUntilIdle ticks until a tick produces no actions, returning everything
// emitted on the way. Fails the test if the stream does not settle.
func (h *Harness) StepUntilIdle(maxTicks int) []world.Action {
	h.T.Helper()
	var all []world.Action
	for i := 0; i < maxTicks; i++ {
		actions := h.W.Tick()
		if len(actions) == 0 {
			return all
		}
		all = append(all, actions...)
	}
	h.T.Fatalf("stream still busy after %d ticks", maxTicks)
	return nil
}

// PlaceGrounded places an object with its Y snapped to the terrain.
func (h *Harness) PlaceGrounded(typeID world.ObjectTypeID, x, z float32, yaw float32) world.ObjectHandle {
	h.T.Helper()
	pos := h.W.GroundedPos(mgl32.Vec3{x, 0, z})
	handle, ok := h.W.Place(typeID, pos, yaw)
	if !ok {
		h.T.Fatalf("place type=%d at (%v,%v) refused", typeID, x, z)
	}
	return handle
}

// HoverAt drops a vertical cursor ray over a world XZ position and resolves
// what it hits.
func (h *Harness) HoverAt(x, z float32) (mgl32.Vec3, world.ObjectHandle, bool) {
	h.T.Helper()
	point, ok := h.W.Raycast(world.Ray{
		Origin: mgl32.Vec3{x, 100, z},
		Dir:    mgl32.Vec3{0, -1, 0},
	})
	if !ok {
		h.T.Fatalf("cursor ray at (%v,%v) missed the terrain", x, z)
	}
	handle, hit := h.W.PickHovered(point)
	return point, handle, hit
}
