package game

import (
	"math"
	"strconv"
	"strings"

	"github.com/tomz197/bounce/internal/config"
	"github.com/tomz197/bounce/internal/physics"
)

// Velocity is a per-tick displacement in surface units.
type Velocity struct {
	X, Y float64
}

// DefaultVelocity is substituted for velocity input that does not parse.
var DefaultVelocity = Velocity{X: config.DefaultSpeedX, Y: config.DefaultSpeedY}

// Polar returns the magnitude and direction (degrees in [0, 360)) of v.
func (v Velocity) Polar() (magnitude, degrees float64) {
	return physics.Polar(v.X, v.Y)
}

// Clamp limits each component to [-limit, limit].
func (v Velocity) Clamp(limit float64) Velocity {
	return Velocity{
		X: physics.Clamp(v.X, -limit, limit),
		Y: physics.Clamp(v.Y, -limit, limit),
	}
}

// IngestVelocity parses the two velocity input strings. A value that does not
// parse takes the default for its axis; both results are clamped to
// [-config.MaxSpeed, config.MaxSpeed].
func IngestVelocity(xs, ys string) Velocity {
	return IngestVelocityWith(xs, ys, DefaultVelocity, config.MaxSpeed)
}

// IngestVelocityWith is IngestVelocity with explicit defaults and limit.
func IngestVelocityWith(xs, ys string, def Velocity, limit float64) Velocity {
	x, ok := parseSpeed(xs)
	if !ok {
		x = def.X
	}
	y, ok := parseSpeed(ys)
	if !ok {
		y = def.Y
	}
	return Velocity{X: x, Y: y}.Clamp(limit)
}

// ServeBase reads the velocity inputs at serve time. Unlike ingestion, a zero
// component also falls back to the default so a serve always moves on both
// axes. The result is clamped like ingested input.
func ServeBase(xs, ys string, def Velocity, limit float64) Velocity {
	x, ok := parseSpeed(xs)
	if !ok || x == 0 {
		x = def.X
	}
	y, ok := parseSpeed(ys)
	if !ok || y == 0 {
		y = def.Y
	}
	return Velocity{X: x, Y: y}.Clamp(limit)
}

// parseSpeed accepts the leading numeric prefix of s, so "5px" reads as 5.
func parseSpeed(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	for end := len(s); end > 0; end-- {
		v, err := strconv.ParseFloat(s[:end], 64)
		if err == nil && !math.IsNaN(v) {
			return v, true
		}
	}
	return 0, false
}
