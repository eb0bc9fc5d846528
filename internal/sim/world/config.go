package world

import "fmt"

// Config is immutable after New. The streaming engine owns the chunk grid it
// implies; everything else reads it.
type Config struct {
	ID   string
	Seed int64

	ChunkSize          int     // tiles per chunk edge
	TileSize           float32 // world units per tile
	ViewDistanceChunks int
	SpawnBudgetPerTick int

	NoiseBaseFrequency float64
	NoiseOctaves       int
	NoisePersistence   float64
	HeightScale        float32

	// Cell size of the object spatial index, independent of TileSize.
	SpatialCellSize float32
}

func (c Config) validate() error {
	if c.ChunkSize < 1 {
		return fmt.Errorf("config: chunk_size=%d, want >= 1", c.ChunkSize)
	}
	if !(c.TileSize > 0) {
		return fmt.Errorf("config: tile_size=%v, want > 0", c.TileSize)
	}
	if c.ViewDistanceChunks < 0 {
		return fmt.Errorf("config: view_distance_chunks=%d, want >= 0", c.ViewDistanceChunks)
	}
	if c.SpawnBudgetPerTick < 1 {
		return fmt.Errorf("config: spawn_budget_per_tick=%d, want >= 1", c.SpawnBudgetPerTick)
	}
	if c.NoiseOctaves < 1 {
		return fmt.Errorf("config: noise_octaves=%d, want >= 1", c.NoiseOctaves)
	}
	return nil
}

// ChunkWorldSize is the edge length of one chunk in world units.
func (c Config) ChunkWorldSize() float32 {
	return float32(c.ChunkSize) * c.TileSize
}
