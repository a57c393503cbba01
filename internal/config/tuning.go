package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Surface - the logical play field in surface coordinates.
// Terminal and browser front ends scale it to whatever they render on.
const (
	SurfaceWidth  = 600
	SurfaceHeight = 400
)

// Ball
const (
	BallRadius    = 12
	DefaultSpeedX = 4.0
	DefaultSpeedY = -3.0
	MaxSpeed      = 20.0 // Per-axis velocity limit
)

// Paddle
const (
	PaddleWidth        = 100
	PaddleHeight       = 15
	PaddleSpeed        = 7
	PaddleBottomOffset = 30 // Distance from the floor to the paddle's top edge
)

// Session
const (
	SessionSeconds = 30
)

// Frame pacing
const (
	TargetFPS       = 60
	TargetFrameTime = time.Second / TargetFPS
)

// Shutdown
const (
	ShutdownDisplaySeconds = 10.0 // Seconds to show shutdown message before auto-disconnect
)

// Inactivity
const (
	InactivityWarnUser       = 90  // Seconds
	InactivityDisconnectUser = 120 // Seconds
)

// Max terminal render size; larger terminals get a centred, bordered play area.
const (
	MaxTermWidth  = 150
	MaxTermHeight = 50
)

// Tuning holds every adjustable game parameter. Zero values in a tuning file
// keep the defaults.
type Tuning struct {
	SurfaceWidth  float64 `toml:"surface_width"`
	SurfaceHeight float64 `toml:"surface_height"`

	BallRadius    float64 `toml:"ball_radius"`
	DefaultSpeedX float64 `toml:"default_speed_x"`
	DefaultSpeedY float64 `toml:"default_speed_y"`
	MaxSpeed      float64 `toml:"max_speed"`

	PaddleWidth        float64 `toml:"paddle_width"`
	PaddleHeight       float64 `toml:"paddle_height"`
	PaddleSpeed        float64 `toml:"paddle_speed"`
	PaddleBottomOffset float64 `toml:"paddle_bottom_offset"`

	SessionSeconds int `toml:"session_seconds"`
	FPS            int `toml:"fps"`
}

// Default returns the built-in tuning.
func Default() Tuning {
	return Tuning{
		SurfaceWidth:       SurfaceWidth,
		SurfaceHeight:      SurfaceHeight,
		BallRadius:         BallRadius,
		DefaultSpeedX:      DefaultSpeedX,
		DefaultSpeedY:      DefaultSpeedY,
		MaxSpeed:           MaxSpeed,
		PaddleWidth:        PaddleWidth,
		PaddleHeight:       PaddleHeight,
		PaddleSpeed:        PaddleSpeed,
		PaddleBottomOffset: PaddleBottomOffset,
		SessionSeconds:     SessionSeconds,
		FPS:                TargetFPS,
	}
}

// FrameTime returns the frame interval for the configured FPS.
func (t Tuning) FrameTime() time.Duration {
	if t.FPS <= 0 {
		return TargetFrameTime
	}
	return time.Second / time.Duration(t.FPS)
}

// Validate reports tunings the simulation cannot run with.
func (t Tuning) Validate() error {
	var errs []error
	if t.SurfaceWidth <= 0 || t.SurfaceHeight <= 0 {
		errs = append(errs, fmt.Errorf("surface must be positive, got %gx%g", t.SurfaceWidth, t.SurfaceHeight))
	}
	if t.BallRadius <= 0 || 2*t.BallRadius > t.SurfaceWidth || 2*t.BallRadius > t.SurfaceHeight {
		errs = append(errs, fmt.Errorf("ball radius %g does not fit the surface", t.BallRadius))
	}
	if t.PaddleWidth <= 0 || t.PaddleWidth > t.SurfaceWidth {
		errs = append(errs, fmt.Errorf("paddle width %g does not fit the surface", t.PaddleWidth))
	}
	if t.PaddleHeight <= 0 || t.PaddleBottomOffset < t.PaddleHeight || t.PaddleBottomOffset > t.SurfaceHeight {
		errs = append(errs, fmt.Errorf("paddle height %g / bottom offset %g out of range", t.PaddleHeight, t.PaddleBottomOffset))
	}
	if t.PaddleSpeed <= 0 {
		errs = append(errs, fmt.Errorf("paddle speed must be positive, got %g", t.PaddleSpeed))
	}
	if t.MaxSpeed <= 0 {
		errs = append(errs, fmt.Errorf("max speed must be positive, got %g", t.MaxSpeed))
	}
	if t.SessionSeconds <= 0 {
		errs = append(errs, fmt.Errorf("session seconds must be positive, got %d", t.SessionSeconds))
	}
	if t.FPS <= 0 {
		errs = append(errs, fmt.Errorf("fps must be positive, got %d", t.FPS))
	}
	return errors.Join(errs...)
}

// LoadTuning reads a TOML tuning file over the defaults. An empty path
// returns the defaults.
func LoadTuning(path string) (Tuning, error) {
	t := Default()
	if path == "" {
		return t, nil
	}

	var file Tuning
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return Tuning{}, fmt.Errorf("decode tuning %s: %w", path, err)
	}
	t.merge(file)

	if err := t.Validate(); err != nil {
		return Tuning{}, fmt.Errorf("tuning %s: %w", path, err)
	}
	return t, nil
}

// merge copies every non-zero field of o into t.
func (t *Tuning) merge(o Tuning) {
	setF := func(dst *float64, v float64) {
		if v != 0 {
			*dst = v
		}
	}
	setF(&t.SurfaceWidth, o.SurfaceWidth)
	setF(&t.SurfaceHeight, o.SurfaceHeight)
	setF(&t.BallRadius, o.BallRadius)
	setF(&t.DefaultSpeedX, o.DefaultSpeedX)
	setF(&t.DefaultSpeedY, o.DefaultSpeedY)
	setF(&t.MaxSpeed, o.MaxSpeed)
	setF(&t.PaddleWidth, o.PaddleWidth)
	setF(&t.PaddleHeight, o.PaddleHeight)
	setF(&t.PaddleSpeed, o.PaddleSpeed)
	setF(&t.PaddleBottomOffset, o.PaddleBottomOffset)
	if o.SessionSeconds != 0 {
		t.SessionSeconds = o.SessionSeconds
	}
	if o.FPS != 0 {
		t.FPS = o.FPS
	}
}
