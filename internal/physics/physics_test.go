package physics

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		v, lo, hi, want float64
	}{
		{5, -20, 20, 5},
		{25, -20, 20, 20},
		{-25, -20, 20, -20},
		{-20, -20, 20, -20},
	}
	for _, tt := range tests {
		if got := Clamp(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("Clamp(%g, %g, %g) = %g, want %g", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestPolar(t *testing.T) {
	tests := []struct {
		name     string
		vx, vy   float64
		mag, deg float64
	}{
		{"right", 1, 0, 1, 0},
		{"down", 0, 3, 3, 90},
		{"left", -2, 0, 2, 180},
		{"up", 0, -4, 4, 270},
		{"serve default", 4, -3, 5, 323.1301},
		{"five minus four", 5, -4, math.Sqrt(41), 321.3402},
		{"negative zero y", 4, math.Copysign(0, -1), 4, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mag, deg := Polar(tt.vx, tt.vy)
			if math.Abs(mag-tt.mag) > 1e-4 {
				t.Errorf("magnitude = %g, want %g", mag, tt.mag)
			}
			if math.Abs(deg-tt.deg) > 1e-3 {
				t.Errorf("degrees = %g, want %g", deg, tt.deg)
			}
			if deg < 0 || deg >= 360 || math.Signbit(deg) {
				t.Errorf("degrees %g outside [0, 360)", deg)
			}
		})
	}
}

func TestWithinSpan(t *testing.T) {
	if !WithinSpan(250, 250, 100) || !WithinSpan(350, 250, 100) {
		t.Error("span edges should be inclusive")
	}
	if WithinSpan(249.9, 250, 100) || WithinSpan(350.1, 250, 100) {
		t.Error("points outside span reported inside")
	}
}
