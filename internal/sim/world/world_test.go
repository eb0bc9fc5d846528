package world

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"terrascape.dev/internal/sim/catalogs"
)

func testConfig() Config {
	return Config{
		ID:                 "test",
		Seed:               42,
		ChunkSize:          4,
		TileSize:           1.0,
		ViewDistanceChunks: 1,
		SpawnBudgetPerTick: 100,
		NoiseBaseFrequency: 0.05,
		NoiseOctaves:       3,
		NoisePersistence:   0.5,
		HeightScale:        8.0,
		SpatialCellSize:    8.0,
	}
}

func testCatalogs() *catalogs.Catalogs {
	return &catalogs.Catalogs{
		Tiles: catalogs.TileCatalog{Defs: []catalogs.TileDef{
			{Name: "water", HeightLT: -3},
			{Name: "sand", HeightLT: -1},
			{Name: "grass", HeightLT: 3},
			{Name: "rock", HeightLT: 6},
			{Name: "snow", HeightLT: 100},
		}},
		Objects: catalogs.ObjectCatalog{Defs: []catalogs.ObjectDef{
			{Name: "tree", Scale: [3]float32{1, 1, 1}, HoverRadius: 1.0},
			{Name: "cabin", Scale: [3]float32{1.5, 1.5, 1.5}, HoverRadius: 2.5},
		}},
	}
}

func newTestWorld(t *testing.T, cfg Config) *World {
	t.Helper()
	w, err := New(cfg, testCatalogs())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w
}

func TestNew_RejectsBadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.ChunkSize = 0
	if _, err := New(cfg, testCatalogs()); err == nil {
		t.Fatalf("expected error for chunk_size=0")
	}

	cfg = testConfig()
	cfg.TileSize = 0
	if _, err := New(cfg, testCatalogs()); err == nil {
		t.Fatalf("expected error for tile_size=0")
	}

	cfg = testConfig()
	cfg.SpawnBudgetPerTick = 0
	if _, err := New(cfg, testCatalogs()); err == nil {
		t.Fatalf("expected error for spawn_budget_per_tick=0")
	}
}

func TestNew_RejectsBadTileTable(t *testing.T) {
	cats := testCatalogs()
	cats.Tiles.Defs = nil
	if _, err := New(testConfig(), cats); err == nil {
		t.Fatalf("expected error for empty tile table")
	}

	cats = testCatalogs()
	cats.Tiles.Defs[2].HeightLT = -10 // breaks strict ordering
	if _, err := New(testConfig(), cats); err == nil {
		t.Fatalf("expected error for non-increasing thresholds")
	}
}

func TestNew_MaxHoverRadius(t *testing.T) {
	w := newTestWorld(t, testConfig())
	if got := w.MaxHoverRadius(); got != 2.5 {
		t.Fatalf("max hover radius = %v, want 2.5", got)
	}
}

func TestWorld_PlaceUnknownTypeRefused(t *testing.T) {
	w := newTestWorld(t, testConfig())
	if _, ok := w.Place(ObjectTypeID(99), mgl32.Vec3{}, 0); ok {
		t.Fatalf("expected refusal for unknown type id")
	}
	if w.CanPlace(ObjectTypeID(99), mgl32.Vec3{}) {
		t.Fatalf("CanPlace should refuse unknown type id")
	}
}

func TestWorld_TickAdvances(t *testing.T) {
	w := newTestWorld(t, testConfig())
	if w.CurrentTick() != 0 {
		t.Fatalf("fresh world tick = %d", w.CurrentTick())
	}
	w.SetViewer(mgl32.Vec2{0, 0})
	w.Tick()
	w.Tick()
	if w.CurrentTick() != 2 {
		t.Fatalf("tick = %d, want 2", w.CurrentTick())
	}
}

func TestWorld_GroundedPosTracksSampler(t *testing.T) {
	w := newTestWorld(t, testConfig())
	p := w.GroundedPos(mgl32.Vec3{10, 99, -7})
	if p.X() != 10 || p.Z() != -7 {
		t.Fatalf("XZ must pass through, got %v", p)
	}
	if p.Y() != w.SampleHeight(10, -7) {
		t.Fatalf("Y = %v, want sampled %v", p.Y(), w.SampleHeight(10, -7))
	}
}

func TestWrapYaw(t *testing.T) {
	const tau = 6.283185307179586
	cases := []struct {
		in   float32
		want float32
	}{
		{0, 0},
		{1.5, 1.5},
		{tau, 0},
		{-1, tau - 1},
		{2 * tau, 0},
	}
	for _, c := range cases {
		got := wrapYaw(c.in)
		if diff := float64(got - c.want); diff > 1e-5 || diff < -1e-5 {
			t.Fatalf("wrapYaw(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
