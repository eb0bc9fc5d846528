package world

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"terrascape.dev/internal/sim/catalogs"
)

// World owns every mutable simulation structure: the chunk streaming state,
// the object slot table, the spatial grid, and the type registries. All
// mutation happens from the single goroutine driving the tick; read-only
// queries may be issued by multiple consumers between mutations.
type World struct {
	cfg     Config
	sampler HeightSampler

	tiles     TileTypeRegistry
	tileOrder []TileTypeID

	objTypes       ObjectTypeRegistry
	objTypeOrder   []ObjectTypeID
	maxHoverRadius float32

	stream  *streamer
	grid    *SpatialGrid
	objects *ObjectWorld

	tick uint64
}

// New builds a world from an immutable config and fully-parsed catalogs.
// Catalog defects (empty tile table, non-finite or non-increasing
// thresholds) are configuration errors: they fail here, once, instead of
// surfacing per tick.
func New(cfg Config, cats *catalogs.Catalogs) (*World, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cats == nil {
		return nil, fmt.Errorf("world %s: nil catalogs", cfg.ID)
	}
	if err := cats.Tiles.Validate(); err != nil {
		return nil, fmt.Errorf("world %s: %w", cfg.ID, err)
	}

	w := &World{
		cfg:     cfg,
		sampler: NewHeightSampler(cfg),
		stream:  newStreamer(cfg),
	}
	w.grid = NewSpatialGrid(cfg.SpatialCellSize)
	w.objects = NewObjectWorld(cfg, w.grid)

	for _, def := range cats.Tiles.Defs {
		id := w.tiles.Register(TileTypeSpec{
			Name:     def.Name,
			Color:    def.Color,
			HeightLT: def.HeightLT,
		})
		w.tileOrder = append(w.tileOrder, id)
	}

	for _, def := range cats.Objects.Defs {
		id := w.objTypes.Register(ObjectTypeSpec{
			Name:         def.Name,
			Model:        def.Model,
			RenderScale:  mgl32.Vec3{def.Scale[0], def.Scale[1], def.Scale[2]},
			RenderOffset: mgl32.Vec3{def.RenderOffset[0], def.RenderOffset[1], def.RenderOffset[2]},
			HoverRadius:  def.HoverRadius,
		})
		w.objTypeOrder = append(w.objTypeOrder, id)
		if r := clampRadius(def.HoverRadius); r > w.maxHoverRadius {
			w.maxHoverRadius = r
		}
	}

	return w, nil
}

func (w *World) Config() Config { return w.cfg }

// CurrentTick is the number of completed Tick calls.
func (w *World) CurrentTick() uint64 { return w.tick }

// SetViewer updates the viewer's world XZ position used by chunk streaming.
func (w *World) SetViewer(xz mgl32.Vec2) {
	w.stream.setViewer(xz)
}

// Tick advances chunk streaming one step and returns the actions the host
// must apply, despawns first, each capped at SpawnBudgetPerTick.
func (w *World) Tick() []Action {
	actions := w.stream.tick()
	w.tick++
	return actions
}

// SampleHeight evaluates the heightfield at a world XZ position.
func (w *World) SampleHeight(x, z float32) float32 {
	return w.sampler.Sample(x, z)
}

// GroundedPos re-samples the current terrain height under an instance
// position. Heights are never cached at placement, so visuals always agree
// with the heightfield in force at render time.
func (w *World) GroundedPos(pos mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{pos.X(), w.sampler.Sample(pos.X(), pos.Z()), pos.Z()}
}

func (w *World) IsChunkLoaded(c ChunkCoord) bool { return w.stream.isLoaded(c) }

// LoadedChunks returns the loaded chunk set in deterministic order.
func (w *World) LoadedChunks() []ChunkCoord { return w.stream.loadedChunks() }

// TileTypes exposes the tile registry for read-only host lookups.
func (w *World) TileTypes() *TileTypeRegistry { return &w.tiles }

// ObjectTypes exposes the object-type registry for read-only host lookups.
func (w *World) ObjectTypes() *ObjectTypeRegistry { return &w.objTypes }

// ObjectTypeIDs lists registered object types in catalog order.
func (w *World) ObjectTypeIDs() []ObjectTypeID { return w.objTypeOrder }

// MaxHoverRadius is the largest clamped hover radius across the catalog; it
// bounds hover queries.
func (w *World) MaxHoverRadius() float32 { return w.maxHoverRadius }

// CanPlace applies the non-overlap rule for a prospective placement.
func (w *World) CanPlace(typeID ObjectTypeID, pos mgl32.Vec3) bool {
	return w.objects.CanPlaceNonOverlapping(&w.objTypes, typeID, pos, w.maxHoverRadius)
}

// Place stores a new object instance. Unknown type ids are refused.
func (w *World) Place(typeID ObjectTypeID, pos mgl32.Vec3, yaw float32) (ObjectHandle, bool) {
	if _, ok := w.objTypes.Get(typeID); !ok {
		return ObjectHandle{}, false
	}
	return w.objects.Place(typeID, pos, yaw), true
}

// Remove frees the object behind the handle; stale handles are a no-op.
func (w *World) Remove(h ObjectHandle) bool { return w.objects.Remove(h) }

// Get resolves a handle, or nil if it is stale.
func (w *World) Get(h ObjectHandle) *ObjectInstance { return w.objects.Get(h) }

// PickHovered finds the nearest object whose hover circle contains the
// cursor's world position.
func (w *World) PickHovered(cursor mgl32.Vec3) (ObjectHandle, bool) {
	return w.objects.PickHovered(&w.objTypes, cursor, w.maxHoverRadius)
}

// ObjectCount is the number of live placed objects.
func (w *World) ObjectCount() int { return w.objects.Count() }

// ObjectsInChunk lists live objects grouped under a chunk.
func (w *World) ObjectsInChunk(c ChunkCoord) []ObjectHandle { return w.objects.ObjectsInChunk(c) }

// ObjectChunkDirty reports pending object-visual rebuild work for a chunk.
func (w *World) ObjectChunkDirty(c ChunkCoord) bool { return w.objects.ChunkDirty(c) }

// MarkObjectChunkClean acknowledges a rebuilt chunk.
func (w *World) MarkObjectChunkClean(c ChunkCoord) { w.objects.MarkChunkClean(c) }
