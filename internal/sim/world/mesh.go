package world

import "github.com/go-gl/mathgl/mgl32"

// MeshData is a triangle mesh buffer for one chunk, positioned relative to
// the chunk origin (ChunkOriginWorld). UVs address a horizontal 1xN tile
// atlas.
type MeshData struct {
	Positions [][3]float32
	Normals   [][3]float32
	UVs       [][2]float32
	Indices   []uint32
}

// BuildChunkMeshData samples the heightfield once per grid vertex and derives
// positions, smoothed normals, tile-atlas UVs and indices from that grid.
// Four vertices and six indices are emitted per tile so each tile can carry
// its own UV.
func (w *World) BuildChunkMeshData(coord ChunkCoord) MeshData {
	cfg := w.cfg
	n := cfg.ChunkSize
	stride := n + 1
	tileSize := cfg.TileSize

	origin := cfg.ChunkOriginWorld(coord)

	heights := make([]float32, stride*stride)
	for gz := 0; gz <= n; gz++ {
		for gx := 0; gx <= n; gx++ {
			wx := origin.X() + float32(gx)*tileSize
			wz := origin.Z() + float32(gz)*tileSize
			heights[gz*stride+gx] = w.sampler.Sample(wx, wz)
		}
	}

	// Central-difference normals from the height grid, clamped to the nearest
	// interior neighbor at chunk edges. No extra noise samples.
	normalsGrid := make([][3]float32, stride*stride)
	for gz := 0; gz <= n; gz++ {
		for gx := 0; gx <= n; gx++ {
			gxl := maxInt(gx-1, 0)
			gxr := minInt(gx+1, n)
			gzd := maxInt(gz-1, 0)
			gzu := minInt(gz+1, n)

			hl := heights[gz*stride+gxl]
			hr := heights[gz*stride+gxr]
			hd := heights[gzd*stride+gx]
			hu := heights[gzu*stride+gx]

			dx := float32(maxInt(gxr-gxl, 1)) * tileSize
			dz := float32(maxInt(gzu-gzd, 1)) * tileSize

			normal := mgl32.Vec3{-(hr - hl) / dx, 1, -(hu - hd) / dz}
			if l := normal.Len(); l > 0 {
				normal = normal.Mul(1 / l)
			} else {
				normal = mgl32.Vec3{0, 1, 0}
			}
			normalsGrid[gz*stride+gx] = [3]float32{normal.X(), normal.Y(), normal.Z()}
		}
	}

	tileCount := n * n
	mesh := MeshData{
		Positions: make([][3]float32, 0, tileCount*4),
		Normals:   make([][3]float32, 0, tileCount*4),
		UVs:       make([][2]float32, 0, tileCount*4),
		Indices:   make([]uint32, 0, tileCount*6),
	}

	atlasTiles := float32(len(w.tileOrder))

	for z := 0; z < n; z++ {
		for x := 0; x < n; x++ {
			x0 := float32(x) * tileSize
			z0 := float32(z) * tileSize
			x1 := x0 + tileSize
			z1 := z0 + tileSize

			h00 := heights[z*stride+x]
			h10 := heights[z*stride+x+1]
			h01 := heights[(z+1)*stride+x]
			h11 := heights[(z+1)*stride+x+1]

			avg := (h00 + h10 + h01 + h11) * 0.25
			tileIndex := w.pickTileIndex(avg)
			uvU := (float32(tileIndex) + 0.5) / atlasTiles
			uv := [2]float32{uvU, 0.5}

			base := uint32(len(mesh.Positions))
			mesh.Positions = append(mesh.Positions,
				[3]float32{x0, h00, z0},
				[3]float32{x1, h10, z0},
				[3]float32{x0, h01, z1},
				[3]float32{x1, h11, z1},
			)
			mesh.Normals = append(mesh.Normals,
				normalsGrid[z*stride+x],
				normalsGrid[z*stride+x+1],
				normalsGrid[(z+1)*stride+x],
				normalsGrid[(z+1)*stride+x+1],
			)
			mesh.UVs = append(mesh.UVs, uv, uv, uv, uv)

			// CCW when viewed from above, so the top face normal points up.
			mesh.Indices = append(mesh.Indices,
				base, base+2, base+1,
				base+1, base+2, base+3,
			)
		}
	}

	return mesh
}

// pickTileIndex selects the first tile whose HeightLT threshold exceeds the
// height, falling back to the last tile. The loader guarantees a non-empty,
// strictly increasing table.
func (w *World) pickTileIndex(height float32) int {
	for i, id := range w.tileOrder {
		spec, ok := w.tiles.Get(id)
		if !ok {
			continue
		}
		if height < spec.HeightLT {
			return i
		}
	}
	return len(w.tileOrder) - 1
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
