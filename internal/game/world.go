// Package game holds the ball-and-paddle world and its per-tick simulation.
package game

import (
	"math"
	"math/rand"

	"github.com/tomz197/bounce/internal/config"
)

// Ball is the bouncing ball. Speeds are per-tick displacements.
type Ball struct {
	X, Y           float64
	Radius         float64
	SpeedX, SpeedY float64
}

// Velocity returns the ball's current velocity.
func (b *Ball) Velocity() Velocity {
	return Velocity{X: b.SpeedX, Y: b.SpeedY}
}

// Paddle is the keyboard-controlled paddle near the floor.
type Paddle struct {
	X, Y          float64 // Top-left corner
	Width, Height float64
	Speed         float64 // Horizontal displacement per tick while a direction is held

	MovingLeft  bool
	MovingRight bool
}

// World is the complete simulation state of one game instance.
type World struct {
	Width, Height float64
	Ball          Ball
	Paddle        Paddle
	Score         int
	MaxSpeed      float64

	rng *rand.Rand
}

// NewWorld creates a world sized and tuned by t with the ball and paddle centred.
// src drives the serve direction; nil seeds from the global source.
func NewWorld(t config.Tuning, src rand.Source) *World {
	if src == nil {
		src = rand.NewSource(rand.Int63())
	}
	w := &World{
		Width:    t.SurfaceWidth,
		Height:   t.SurfaceHeight,
		MaxSpeed: t.MaxSpeed,
		Ball: Ball{
			X:      t.SurfaceWidth / 2,
			Y:      t.SurfaceHeight / 2,
			Radius: t.BallRadius,
		},
		Paddle: Paddle{
			Width:  t.PaddleWidth,
			Height: t.PaddleHeight,
			Speed:  t.PaddleSpeed,
			Y:      t.SurfaceHeight - t.PaddleBottomOffset,
		},
		rng: rand.New(src),
	}
	w.CenterPaddle()
	return w
}

// CenterPaddle moves the paddle to the horizontal centre.
func (w *World) CenterPaddle() {
	w.Paddle.X = w.Width/2 - w.Paddle.Width/2
}

// ResetScore zeroes the score.
func (w *World) ResetScore() {
	w.Score = 0
}

// ClearMovement drops both movement-intent flags.
func (w *World) ClearMovement() {
	w.Paddle.MovingLeft = false
	w.Paddle.MovingRight = false
}

// SetVelocity sets the ball velocity, clamped to the world's speed limit.
func (w *World) SetVelocity(v Velocity) {
	v = v.Clamp(w.MaxSpeed)
	w.Ball.SpeedX = v.X
	w.Ball.SpeedY = v.Y
}

// Serve puts the ball back in the centre moving upward, with the horizontal
// direction picked at random and both magnitudes taken from base.
func (w *World) Serve(base Velocity) StepResult {
	w.Ball.X = w.Width / 2
	w.Ball.Y = w.Height / 2

	base = base.Clamp(w.MaxSpeed)
	w.Ball.SpeedY = -math.Abs(base.Y)
	if w.rng.Float64() < 0.5 {
		w.Ball.SpeedX = -math.Abs(base.X)
	} else {
		w.Ball.SpeedX = math.Abs(base.X)
	}

	return StepResult{
		Events:   []Event{EventServe},
		Score:    w.Score,
		Velocity: w.Ball.Velocity(),
	}
}
