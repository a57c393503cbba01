// Package physics provides clamping, span and polar-conversion helpers.
package physics

import "math"

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Polar converts a velocity vector to its magnitude and direction in degrees.
// The angle is measured with atan2(vy, vx) and normalised to [0, 360).
func Polar(vx, vy float64) (magnitude, degrees float64) {
	magnitude = math.Hypot(vx, vy)
	degrees = math.Atan2(vy, vx) * 180 / math.Pi
	if degrees < 0 {
		degrees += 360
	}
	if degrees == 0 {
		degrees = 0 // Drop the sign of -0 so it never formats as "-0.0"
	}
	return magnitude, degrees
}

// WithinSpan reports whether x lies in the closed interval [start, start+width].
func WithinSpan(x, start, width float64) bool {
	return x >= start && x <= start+width
}
