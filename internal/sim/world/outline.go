package world

import "github.com/go-gl/mathgl/mgl32"

const (
	outlineLift        = 0.25
	outlineSegsPerEdge = 8
)

// BuildTileOutlineMesh builds a thin ribbon hugging the terrain around one
// tile, used by hosts to highlight the hovered tile. Positions are
// tile-center relative in XZ; Y values are absolute heights lifted slightly
// above the surface so the ribbon never z-fights with the terrain.
func (w *World) BuildTileOutlineMesh(tile TileCoord) MeshData {
	tileSize := w.cfg.TileSize
	half := tileSize * 0.5
	thickness := clampF(tileSize*0.08, 0.08, 0.25)

	center := w.cfg.TileCenter(tile)

	var mesh MeshData

	addEdge := func(start, end, inward mgl32.Vec2) {
		base := uint32(len(mesh.Positions))

		for i := 0; i <= outlineSegsPerEdge; i++ {
			u := float32(i) / outlineSegsPerEdge
			outer := start.Add(end.Sub(start).Mul(u))
			inner := outer.Add(inward.Mul(thickness))

			ho := w.sampler.Sample(center.X()+outer.X(), center.Y()+outer.Y()) + outlineLift
			hi := w.sampler.Sample(center.X()+inner.X(), center.Y()+inner.Y()) + outlineLift

			mesh.Positions = append(mesh.Positions,
				[3]float32{outer.X(), ho, outer.Y()},
				[3]float32{inner.X(), hi, inner.Y()},
			)
			mesh.Normals = append(mesh.Normals, [3]float32{0, 1, 0}, [3]float32{0, 1, 0})
			mesh.UVs = append(mesh.UVs, [2]float32{0, 0}, [2]float32{0, 0})
		}

		for i := 0; i < outlineSegsPerEdge; i++ {
			o0 := base + uint32(i*2)
			i0 := o0 + 1
			o1 := o0 + 2
			i1 := o0 + 3
			mesh.Indices = append(mesh.Indices, o0, i0, o1, i0, i1, o1)
		}
	}

	// Four edges walked clockwise, inward normal pointing into the tile.
	addEdge(mgl32.Vec2{-half, -half}, mgl32.Vec2{half, -half}, mgl32.Vec2{0, 1})
	addEdge(mgl32.Vec2{half, -half}, mgl32.Vec2{half, half}, mgl32.Vec2{-1, 0})
	addEdge(mgl32.Vec2{half, half}, mgl32.Vec2{-half, half}, mgl32.Vec2{0, -1})
	addEdge(mgl32.Vec2{-half, half}, mgl32.Vec2{-half, -half}, mgl32.Vec2{1, 0})

	return mesh
}
