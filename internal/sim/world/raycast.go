package world

import "github.com/go-gl/mathgl/mgl32"

// Ray is a world-space ray, typically from the host's camera through the
// cursor. Dir need not be normalized but must point meaningfully downward.
type Ray struct {
	Origin mgl32.Vec3
	Dir    mgl32.Vec3
}

const (
	rayFloorY      = -200.0
	rayMaxT        = 10000.0
	bisectionIters = 12
)

// Raycast intersects the ray with the heightfield surface: march along the
// ray until a sample dips below the surface, then bisect the bracketing
// interval. The heightfield has no overhangs, so horizontal and upward rays
// never hit and return false.
func (w *World) Raycast(ray Ray) (mgl32.Vec3, bool) {
	if ray.Dir.Y() >= -1e-4 {
		return mgl32.Vec3{}, false
	}

	// The origin may already be under the surface, even below the march
	// floor; return its projection without marching.
	if h := w.sampler.Sample(ray.Origin.X(), ray.Origin.Z()); ray.Origin.Y() <= h {
		return mgl32.Vec3{ray.Origin.X(), h, ray.Origin.Z()}, true
	}

	tMax := float64(ray.Origin.Y()-rayFloorY) / float64(-ray.Dir.Y())
	if tMax > rayMaxT {
		tMax = rayMaxT
	}
	if tMax <= 0 {
		return mgl32.Vec3{}, false
	}

	stepY := clampF(w.cfg.TileSize*0.5, 0.25, 2.0)
	stepT := clampF(stepY/-ray.Dir.Y(), 0.01, 5.0)

	at := func(t float32) mgl32.Vec3 {
		return ray.Origin.Add(ray.Dir.Mul(t))
	}

	prevT := float32(0)

	for t := stepT; float64(t) <= tMax; t += stepT {
		p := at(t)
		h := w.sampler.Sample(p.X(), p.Z())

		if p.Y() <= h {
			// Bracketed: prev is above, current is below.
			lo, hi := prevT, t
			for i := 0; i < bisectionIters; i++ {
				mid := 0.5 * (lo + hi)
				mp := at(mid)
				if mp.Y() <= w.sampler.Sample(mp.X(), mp.Z()) {
					hi = mid
				} else {
					lo = mid
				}
			}
			hp := at(hi)
			return mgl32.Vec3{hp.X(), w.sampler.Sample(hp.X(), hp.Z()), hp.Z()}, true
		}

		prevT = t
	}

	return mgl32.Vec3{}, false
}

func clampF(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
