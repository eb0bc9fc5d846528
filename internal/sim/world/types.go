package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"terrascape.dev/internal/sim/world/logic/mathx"
)

// ChunkCoord identifies a chunk by floor division of world position by the
// chunk's world-unit edge length.
type ChunkCoord struct {
	CX int
	CZ int
}

// TileCoord identifies a single terrain tile in world tile space.
type TileCoord struct {
	TX int
	TZ int
}

// ObjectHandle is a stable reference to a placed object. The generation is
// bumped whenever the slot is freed, so handles from before a removal compare
// unequal to the slot's next occupant.
type ObjectHandle struct {
	Index      uint32
	Generation uint32
}

// ObjectInstance is the logical state of a placed object. Position Y is
// ground-relative; the current ground height is re-sampled from the
// heightfield on demand (GroundedPos) rather than cached at placement, so
// objects stay glued to the terrain the sampler currently produces.
type ObjectInstance struct {
	TypeID ObjectTypeID
	Pos    mgl32.Vec3
	Yaw    float32
}

func chunkOfWorld(xz mgl32.Vec2, chunkWorldSize float32) ChunkCoord {
	cs := float64(chunkWorldSize)
	return ChunkCoord{
		CX: int(math.Floor(float64(xz.X()) / cs)),
		CZ: int(math.Floor(float64(xz.Y()) / cs)),
	}
}

// WorldToTileCoord maps a world XZ position to its containing tile.
func (c Config) WorldToTileCoord(x, z float32) TileCoord {
	ts := float64(c.TileSize)
	return TileCoord{
		TX: int(math.Floor(float64(x) / ts)),
		TZ: int(math.Floor(float64(z) / ts)),
	}
}

// TileCenter is the world XZ center of a tile.
func (c Config) TileCenter(t TileCoord) mgl32.Vec2 {
	return mgl32.Vec2{
		(float32(t.TX) + 0.5) * c.TileSize,
		(float32(t.TZ) + 0.5) * c.TileSize,
	}
}

// ChunkOriginWorld is the world position of a chunk's (0,0) corner.
func (c Config) ChunkOriginWorld(coord ChunkCoord) mgl32.Vec3 {
	cs := c.ChunkWorldSize()
	return mgl32.Vec3{float32(coord.CX) * cs, 0, float32(coord.CZ) * cs}
}

// TileToChunk maps a tile to the chunk containing it.
func (c Config) TileToChunk(t TileCoord) ChunkCoord {
	return ChunkCoord{
		CX: mathx.FloorDiv(t.TX, c.ChunkSize),
		CZ: mathx.FloorDiv(t.TZ, c.ChunkSize),
	}
}

func wrapYaw(yaw float32) float32 {
	const tau = 2 * math.Pi
	y := math.Mod(float64(yaw), tau)
	if y < 0 {
		y += tau
	}
	return float32(y)
}
