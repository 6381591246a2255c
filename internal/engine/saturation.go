package engine

import (
	"math"

	"hrrnet/internal/hrr"
)

// SaturationWithSpread clamps value to the symmetric range [-spread, spread].
func SaturationWithSpread(value, spread float64) float64 {
	if spread < 0 {
		spread = -spread
	}
	if value > spread {
		return spread
	}
	if value < -spread {
		return -spread
	}
	return value
}

// Saturate pulls v back onto the ball of the given radius. One-dimensional
// values are clamped.
func Saturate(v hrr.Vector, radius float64) hrr.Vector {
	if len(v) == 1 {
		return hrr.Vector{SaturationWithSpread(v[0], radius)}
	}
	length := hrr.Length(v)
	if length <= radius || length == 0 {
		return v.Clone()
	}
	return hrr.Scale(v, radius/length)
}

// noiseStdDev is the per-component noise of a population of the given size.
func noiseStdDev(scale float64, capacity int) float64 {
	if capacity <= 0 {
		return scale
	}
	return scale / math.Sqrt(float64(capacity))
}
