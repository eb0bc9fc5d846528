package world

import (
	"math"

	"terrascape.dev/internal/sim/world/logic/mathx"
)

// HeightSampler produces the terrain heightfield: a pure function of
// (seed, config, x, z). It carries no mutable state, so callers may sample
// from any goroutine in any order.
type HeightSampler struct {
	seed        int64
	baseFreq    float64
	octaves     int
	persistence float64
	heightScale float32
}

func NewHeightSampler(cfg Config) HeightSampler {
	return HeightSampler{
		seed:        cfg.Seed,
		baseFreq:    cfg.NoiseBaseFrequency,
		octaves:     cfg.NoiseOctaves,
		persistence: cfg.NoisePersistence,
		heightScale: cfg.HeightScale,
	}
}

// Sample returns the terrain height at a world XZ position. Octaves of value
// noise are accumulated and normalized by the amplitude sum, which keeps the
// result within [-HeightScale, HeightScale] for any octave count.
func (s HeightSampler) Sample(x, z float32) float32 {
	amplitude := 1.0
	frequency := s.baseFreq
	sum := 0.0
	norm := 0.0

	for i := 0; i < s.octaves; i++ {
		n := valueNoise2(s.seed, float64(x)*frequency, float64(z)*frequency)
		sum += n * amplitude
		norm += amplitude
		amplitude *= s.persistence
		frequency *= 2.0
	}

	if norm <= 0 {
		return 0
	}
	return float32(sum/norm) * s.heightScale
}

// valueNoise2 is smooth 2D value noise in [-1, 1]: lattice values from the
// integer hash, blended with a smoothstep fade. Evaluated per world
// coordinate, never per chunk, so chunk borders cannot introduce seams.
func valueNoise2(seed int64, x, z float64) float64 {
	x0 := math.Floor(x)
	z0 := math.Floor(z)
	ix := int(x0)
	iz := int(z0)

	fx := fade(x - x0)
	fz := fade(z - z0)

	v00 := lattice(seed, ix, iz)
	v10 := lattice(seed, ix+1, iz)
	v01 := lattice(seed, ix, iz+1)
	v11 := lattice(seed, ix+1, iz+1)

	return lerp(lerp(v00, v10, fx), lerp(v01, v11, fx), fz)
}

func lattice(seed int64, x, z int) float64 {
	return float64(mathx.Hash2(seed, x, z)&0xFFFF)/0x8000 - 1.0
}

func fade(t float64) float64 {
	return t * t * (3 - 2*t)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}
