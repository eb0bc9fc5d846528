package world

import "github.com/go-gl/mathgl/mgl32"

// TileTypeID and ObjectTypeID index their respective registries. IDs are
// reused after Remove via the free list without a generation bump: type
// catalogs are closed, application-lifetime tables, so callers must not
// retain an id across a removal.
type TileTypeID uint16

type ObjectTypeID uint16

// TileTypeSpec colors and classifies one terrain band. HeightLT thresholds
// across the table must be strictly increasing; the catalog loader enforces
// that before a registry is ever populated.
type TileTypeSpec struct {
	Name     string
	Color    [3]float32
	HeightLT float32
}

// ObjectTypeSpec describes a placeable object type. RenderOffset applies only
// to the visual, never to the logical position.
type ObjectTypeSpec struct {
	Name         string
	Model        string // opaque asset path; empty means "no visual"
	RenderScale  mgl32.Vec3
	RenderOffset mgl32.Vec3
	HoverRadius  float32
}

// minHoverRadius guards every geometric test against degenerate zero-radius
// objects.
const minHoverRadius = 0.1

func clampRadius(r float32) float32 {
	if r < minHoverRadius {
		return minHoverRadius
	}
	return r
}

// registry is a slot table mapping small integer ids to immutable specs,
// shared by the tile and object type tables.
type registry[S any] struct {
	slots []regSlot[S]
	free  []uint16
}

type regSlot[S any] struct {
	spec S
	live bool
}

func (r *registry[S]) register(spec S) uint16 {
	if n := len(r.free); n > 0 {
		id := r.free[n-1]
		r.free = r.free[:n-1]
		r.slots[id] = regSlot[S]{spec: spec, live: true}
		return id
	}
	id := uint16(len(r.slots))
	r.slots = append(r.slots, regSlot[S]{spec: spec, live: true})
	return id
}

func (r *registry[S]) get(id uint16) (*S, bool) {
	if int(id) >= len(r.slots) || !r.slots[id].live {
		return nil, false
	}
	return &r.slots[id].spec, true
}

func (r *registry[S]) remove(id uint16) bool {
	if int(id) >= len(r.slots) || !r.slots[id].live {
		return false
	}
	var zero S
	r.slots[id] = regSlot[S]{spec: zero}
	r.free = append(r.free, id)
	return true
}

func (r *registry[S]) length() int {
	return len(r.slots) - len(r.free)
}

// TileTypeRegistry maps TileTypeIDs to specs.
type TileTypeRegistry struct {
	reg registry[TileTypeSpec]
}

func (r *TileTypeRegistry) Register(spec TileTypeSpec) TileTypeID {
	return TileTypeID(r.reg.register(spec))
}

func (r *TileTypeRegistry) Get(id TileTypeID) (*TileTypeSpec, bool) {
	return r.reg.get(uint16(id))
}

func (r *TileTypeRegistry) Remove(id TileTypeID) bool {
	return r.reg.remove(uint16(id))
}

func (r *TileTypeRegistry) Len() int { return r.reg.length() }

// ObjectTypeRegistry maps ObjectTypeIDs to specs.
type ObjectTypeRegistry struct {
	reg registry[ObjectTypeSpec]
}

func (r *ObjectTypeRegistry) Register(spec ObjectTypeSpec) ObjectTypeID {
	return ObjectTypeID(r.reg.register(spec))
}

func (r *ObjectTypeRegistry) Get(id ObjectTypeID) (*ObjectTypeSpec, bool) {
	return r.reg.get(uint16(id))
}

func (r *ObjectTypeRegistry) Remove(id ObjectTypeID) bool {
	return r.reg.remove(uint16(id))
}

func (r *ObjectTypeRegistry) Len() int { return r.reg.length() }
