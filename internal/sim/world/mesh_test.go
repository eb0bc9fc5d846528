package world

import "testing"

func TestBuildChunkMeshData_Counts(t *testing.T) {
	cfg := testConfig()
	w := newTestWorld(t, cfg)

	mesh := w.BuildChunkMeshData(ChunkCoord{CX: 0, CZ: 0})

	tiles := cfg.ChunkSize * cfg.ChunkSize
	if got := len(mesh.Positions); got != tiles*4 {
		t.Fatalf("positions = %d, want %d", got, tiles*4)
	}
	if got := len(mesh.Normals); got != tiles*4 {
		t.Fatalf("normals = %d, want %d", got, tiles*4)
	}
	if got := len(mesh.UVs); got != tiles*4 {
		t.Fatalf("uvs = %d, want %d", got, tiles*4)
	}
	if got := len(mesh.Indices); got != tiles*6 {
		t.Fatalf("indices = %d, want %d", got, tiles*6)
	}
	for _, idx := range mesh.Indices {
		if int(idx) >= len(mesh.Positions) {
			t.Fatalf("index %d out of range (%d vertices)", idx, len(mesh.Positions))
		}
	}
}

func TestBuildChunkMeshData_WindingUpward(t *testing.T) {
	cfg := testConfig()
	cfg.HeightScale = 0 // flat terrain makes the winding test exact
	w := newTestWorld(t, cfg)

	mesh := w.BuildChunkMeshData(ChunkCoord{CX: 0, CZ: 0})

	for i := 0; i+2 < len(mesh.Indices); i += 3 {
		a := mesh.Positions[mesh.Indices[i]]
		b := mesh.Positions[mesh.Indices[i+1]]
		c := mesh.Positions[mesh.Indices[i+2]]

		// Cross product Y of (b-a) x (c-a): positive means counter-clockwise
		// seen from above.
		abx, abz := b[0]-a[0], b[2]-a[2]
		acx, acz := c[0]-a[0], c[2]-a[2]
		crossY := abz*acx - abx*acz
		if crossY <= 0 {
			t.Fatalf("triangle %d wound clockwise from above", i/3)
		}
	}
}

func TestBuildChunkMeshData_UVsAddressAtlas(t *testing.T) {
	cfg := testConfig()
	w := newTestWorld(t, cfg)

	mesh := w.BuildChunkMeshData(ChunkCoord{CX: -2, CZ: 3})

	n := float32(len(w.tileOrder))
	for i, uv := range mesh.UVs {
		if uv[1] != 0.5 {
			t.Fatalf("uv[%d].v = %v, want 0.5", i, uv[1])
		}
		if uv[0] <= 0 || uv[0] >= 1 {
			t.Fatalf("uv[%d].u = %v outside (0,1)", i, uv[0])
		}
		// Every u must be a tile-slot center.
		slot := uv[0]*n - 0.5
		if diff := slot - float32(int(slot+0.5)); diff > 1e-4 || diff < -1e-4 {
			t.Fatalf("uv[%d].u = %v is not an atlas slot center", i, uv[0])
		}
	}

	// All four vertices of a tile share the same UV.
	for tile := 0; tile+3 < len(mesh.UVs); tile += 4 {
		for k := 1; k < 4; k++ {
			if mesh.UVs[tile] != mesh.UVs[tile+k] {
				t.Fatalf("tile at vertex %d has mixed UVs", tile)
			}
		}
	}
}

func TestPickTileIndex_Thresholds(t *testing.T) {
	w := newTestWorld(t, testConfig())

	// Table: water<-3, sand<-1, grass<3, rock<6, snow<100.
	cases := []struct {
		h    float32
		want int
	}{
		{-10, 0},
		{-3, 1}, // boundary belongs to the next band
		{-2, 1},
		{0, 2},
		{4.5, 3},
		{50, 4},
		{1000, 4}, // above the last threshold falls back to the last tile
	}
	for _, c := range cases {
		if got := w.pickTileIndex(c.h); got != c.want {
			t.Fatalf("pickTileIndex(%v) = %d, want %d", c.h, got, c.want)
		}
	}
}

func TestBuildChunkMeshData_SeamlessBorders(t *testing.T) {
	cfg := testConfig()
	w := newTestWorld(t, cfg)

	// The east edge of chunk (0,0) and the west edge of chunk (1,0) must have
	// identical world heights at the shared corners.
	left := w.BuildChunkMeshData(ChunkCoord{CX: 0, CZ: 0})
	right := w.BuildChunkMeshData(ChunkCoord{CX: 1, CZ: 0})

	cs := cfg.ChunkWorldSize()
	n := cfg.ChunkSize
	for z := 0; z < n; z++ {
		// Right edge vertex of left chunk's tile (n-1, z): local x == cs.
		li := (z*n + (n - 1)) * 4
		lv := left.Positions[li+1] // vertex (x1, z0)
		// Left edge vertex of right chunk's tile (0, z): local x == 0.
		ri := (z * n) * 4
		rv := right.Positions[ri] // vertex (x0, z0)

		if lv[0] != cs || rv[0] != 0 {
			t.Fatalf("edge vertex selection wrong: lv.x=%v rv.x=%v", lv[0], rv[0])
		}
		if lv[1] != rv[1] {
			t.Fatalf("seam at z=%d: left h=%v right h=%v", z, lv[1], rv[1])
		}
	}
}
