package world

import "github.com/go-gl/mathgl/mgl32"

type objectSlot struct {
	generation uint32
	instance   *ObjectInstance
	chunk      ChunkCoord
}

// ObjectWorld stores placed object instances in a generation-indexed slot
// table and keeps two secondary indexes in sync: the spatial grid (proximity
// queries) and a per-chunk membership map (hosts rebuild per-chunk visuals
// from it, driven by the dirty flags).
type ObjectWorld struct {
	chunkWorldSize float32

	slots    []objectSlot
	freeList []uint32

	grid        *SpatialGrid
	byChunk     map[ChunkCoord][]uint32
	dirtyChunks map[ChunkCoord]struct{}
}

func NewObjectWorld(cfg Config, grid *SpatialGrid) *ObjectWorld {
	return &ObjectWorld{
		chunkWorldSize: cfg.ChunkWorldSize(),
		grid:           grid,
		byChunk:        make(map[ChunkCoord][]uint32),
		dirtyChunks:    make(map[ChunkCoord]struct{}),
	}
}

// Place stores an instance, indexes it, and returns its handle. Yaw is
// wrapped to [0, 2pi). Overlap rules are not applied here; call CanPlace
// first when placement must not overlap.
func (o *ObjectWorld) Place(typeID ObjectTypeID, pos mgl32.Vec3, yaw float32) ObjectHandle {
	chunk := o.chunkOf(pos)
	h := o.alloc(ObjectInstance{TypeID: typeID, Pos: pos, Yaw: wrapYaw(yaw)}, chunk)

	o.byChunk[chunk] = append(o.byChunk[chunk], h.Index)
	o.dirtyChunks[chunk] = struct{}{}
	o.grid.InsertOrMove(h, pos)
	return h
}

// Remove frees the instance behind a still-valid handle, returning false for
// stale or unknown handles. Removing twice is a safe no-op.
func (o *ObjectWorld) Remove(h ObjectHandle) bool {
	if int(h.Index) >= len(o.slots) {
		return false
	}
	slot := &o.slots[h.Index]
	if slot.generation != h.Generation || slot.instance == nil {
		return false
	}
	slot.instance = nil
	chunk := slot.chunk

	if list, ok := o.byChunk[chunk]; ok {
		for i, idx := range list {
			if idx == h.Index {
				list = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(list) == 0 {
			delete(o.byChunk, chunk)
		} else {
			o.byChunk[chunk] = list
		}
	}
	o.dirtyChunks[chunk] = struct{}{}

	// Bump so stale handles never match the next occupant; wraps with floor 1.
	slot.generation++
	if slot.generation == 0 {
		slot.generation = 1
	}
	o.freeList = append(o.freeList, h.Index)
	o.grid.Remove(h)
	return true
}

// Get resolves a handle to its instance, or nil for stale/unknown handles.
func (o *ObjectWorld) Get(h ObjectHandle) *ObjectInstance {
	if int(h.Index) >= len(o.slots) {
		return nil
	}
	slot := &o.slots[h.Index]
	if slot.generation != h.Generation {
		return nil
	}
	return slot.instance
}

// Count is the number of live instances.
func (o *ObjectWorld) Count() int {
	n := 0
	for i := range o.slots {
		if o.slots[i].instance != nil {
			n++
		}
	}
	return n
}

// ObjectsInChunk lists handles of live objects whose position falls in the
// given chunk.
func (o *ObjectWorld) ObjectsInChunk(chunk ChunkCoord) []ObjectHandle {
	indices, ok := o.byChunk[chunk]
	if !ok {
		return nil
	}
	out := make([]ObjectHandle, 0, len(indices))
	for _, idx := range indices {
		slot := &o.slots[idx]
		if slot.instance == nil {
			continue
		}
		out = append(out, ObjectHandle{Index: idx, Generation: slot.generation})
	}
	return out
}

// ChunkDirty reports whether object membership in a chunk changed since the
// host last called MarkChunkClean.
func (o *ObjectWorld) ChunkDirty(chunk ChunkCoord) bool {
	_, ok := o.dirtyChunks[chunk]
	return ok
}

func (o *ObjectWorld) MarkChunkClean(chunk ChunkCoord) {
	delete(o.dirtyChunks, chunk)
}

// CanPlaceNonOverlapping reports whether a new object of the given type fits
// at a position without its hover circle touching any existing object's.
// Touching circles count as overlapping. Unknown type ids refuse placement.
// maxOtherRadius must be at least the largest clamped hover radius across
// registered types; it widens the candidate query so large neighbors outside
// the new circle's cell block are still checked.
func (o *ObjectWorld) CanPlaceNonOverlapping(types *ObjectTypeRegistry, typeID ObjectTypeID, pos mgl32.Vec3, maxOtherRadius float32) bool {
	newSpec, ok := types.Get(typeID)
	if !ok {
		return false
	}
	newR := clampRadius(newSpec.HoverRadius)

	for _, h := range o.grid.QueryCandidates(mgl32.Vec2{pos.X(), pos.Z()}, newR+clampRadius(maxOtherRadius)) {
		inst := o.Get(h)
		if inst == nil {
			continue
		}
		spec, ok := types.Get(inst.TypeID)
		if !ok {
			continue
		}
		otherR := clampRadius(spec.HoverRadius)
		dx := inst.Pos.X() - pos.X()
		dz := inst.Pos.Z() - pos.Z()
		r := newR + otherR
		if dx*dx+dz*dz <= r*r {
			return false
		}
	}
	return true
}

// PickHovered returns the nearest object whose own hover circle contains the
// cursor point. maxHoverRadius bounds the candidate query; it must be at
// least the largest clamped hover radius across registered types.
func (o *ObjectWorld) PickHovered(types *ObjectTypeRegistry, cursor mgl32.Vec3, maxHoverRadius float32) (ObjectHandle, bool) {
	var best ObjectHandle
	bestD2 := float32(0)
	found := false

	for _, h := range o.grid.QueryCandidates(mgl32.Vec2{cursor.X(), cursor.Z()}, clampRadius(maxHoverRadius)) {
		inst := o.Get(h)
		if inst == nil {
			continue
		}
		spec, ok := types.Get(inst.TypeID)
		if !ok {
			continue
		}
		r := clampRadius(spec.HoverRadius)

		dx := inst.Pos.X() - cursor.X()
		dz := inst.Pos.Z() - cursor.Z()
		d2 := dx*dx + dz*dz
		if d2 > r*r {
			continue
		}
		if !found || d2 < bestD2 {
			best = h
			bestD2 = d2
			found = true
		}
	}

	return best, found
}

func (o *ObjectWorld) alloc(inst ObjectInstance, chunk ChunkCoord) ObjectHandle {
	if n := len(o.freeList); n > 0 {
		index := o.freeList[n-1]
		o.freeList = o.freeList[:n-1]
		slot := &o.slots[index]
		if slot.generation == 0 {
			slot.generation = 1
		}
		slot.instance = &inst
		slot.chunk = chunk
		return ObjectHandle{Index: index, Generation: slot.generation}
	}

	index := uint32(len(o.slots))
	o.slots = append(o.slots, objectSlot{generation: 1, instance: &inst, chunk: chunk})
	return ObjectHandle{Index: index, Generation: 1}
}

func (o *ObjectWorld) chunkOf(pos mgl32.Vec3) ChunkCoord {
	return chunkOfWorld(mgl32.Vec2{pos.X(), pos.Z()}, o.chunkWorldSize)
}
