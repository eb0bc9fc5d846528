package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz int   `yaml:"tick_rate_hz"`
	Seed       int64 `yaml:"seed"`

	ChunkSize          int     `yaml:"chunk_size"`
	TileSize           float32 `yaml:"tile_size"`
	ViewDistanceChunks int     `yaml:"view_distance_chunks"`
	SpawnBudgetPerTick int     `yaml:"spawn_budget_per_tick"`

	NoiseBaseFrequency float64 `yaml:"noise_base_frequency"`
	NoiseOctaves       int     `yaml:"noise_octaves"`
	NoisePersistence   float64 `yaml:"noise_persistence"`
	HeightScale        float32 `yaml:"height_scale"`

	SpatialCellSize float32 `yaml:"spatial_cell_size"`
}

// Defaults mirrors configs/tuning.yaml so tests and tools can run without a
// config tree on disk.
func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:    "1.0",
		TickRateHz:         10,
		Seed:               1337,
		ChunkSize:          16,
		TileSize:           1.0,
		ViewDistanceChunks: 4,
		SpawnBudgetPerTick: 2,
		NoiseBaseFrequency: 0.02,
		NoiseOctaves:       4,
		NoisePersistence:   0.5,
		HeightScale:        8.0,
		SpatialCellSize:    8.0,
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}
