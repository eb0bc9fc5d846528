package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type cellCoord struct {
	X int
	Z int
}

// SpatialGrid is a uniform XZ grid over placed objects, used to bound
// proximity queries (hover picking, overlap checks). It indexes handles only;
// the precise geometric test is the caller's job.
//
// Invariant: a handle present in byHandle appears in exactly the cell list it
// maps to, and nowhere else.
type SpatialGrid struct {
	cellSize float32
	cells    map[cellCoord][]ObjectHandle
	byHandle map[ObjectHandle]cellCoord
}

// DefaultSpatialCellSize keeps buckets small while staying local to a query.
const DefaultSpatialCellSize = 8.0

func NewSpatialGrid(cellSize float32) *SpatialGrid {
	if !(cellSize > 0) {
		cellSize = DefaultSpatialCellSize
	}
	return &SpatialGrid{
		cellSize: cellSize,
		cells:    make(map[cellCoord][]ObjectHandle),
		byHandle: make(map[ObjectHandle]cellCoord),
	}
}

func (g *SpatialGrid) cellOf(xz mgl32.Vec2) cellCoord {
	cs := float64(g.cellSize)
	return cellCoord{
		X: int(math.Floor(float64(xz.X()) / cs)),
		Z: int(math.Floor(float64(xz.Y()) / cs)),
	}
}

// InsertOrMove indexes the handle at a world position, moving it between
// cells as needed. Re-inserting at the same cell is a no-op.
func (g *SpatialGrid) InsertOrMove(h ObjectHandle, pos mgl32.Vec3) {
	cell := g.cellOf(mgl32.Vec2{pos.X(), pos.Z()})

	if old, ok := g.byHandle[h]; ok {
		if old == cell {
			return
		}
		g.dropFromCell(h, old)
	}

	g.byHandle[h] = cell
	g.cells[cell] = append(g.cells[cell], h)
}

func (g *SpatialGrid) Remove(h ObjectHandle) {
	cell, ok := g.byHandle[h]
	if !ok {
		return
	}
	delete(g.byHandle, h)
	g.dropFromCell(h, cell)
}

func (g *SpatialGrid) dropFromCell(h ObjectHandle, cell cellCoord) {
	list := g.cells[cell]
	for i, other := range list {
		if other == h {
			list[i] = list[len(list)-1]
			list = list[:len(list)-1]
			break
		}
	}
	if len(list) == 0 {
		delete(g.cells, cell)
	} else {
		g.cells[cell] = list
	}
}

// QueryCandidates returns every indexed handle within the cell block covering
// a circle, de-duplicated. Callers must still apply the precise test.
func (g *SpatialGrid) QueryCandidates(centerXZ mgl32.Vec2, radius float32) []ObjectHandle {
	if radius < 0 {
		radius = 0
	}
	center := g.cellOf(centerXZ)
	reach := int(math.Ceil(float64(radius) / float64(g.cellSize)))

	var out []ObjectHandle
	seen := make(map[ObjectHandle]struct{})

	for dz := -reach; dz <= reach; dz++ {
		for dx := -reach; dx <= reach; dx++ {
			c := cellCoord{X: center.X + dx, Z: center.Z + dz}
			for _, h := range g.cells[c] {
				if _, dup := seen[h]; dup {
					continue
				}
				seen[h] = struct{}{}
				out = append(out, h)
			}
		}
	}

	return out
}

// Len is the number of indexed handles.
func (g *SpatialGrid) Len() int {
	return len(g.byHandle)
}
