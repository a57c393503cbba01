package game

import "github.com/tomz197/bounce/internal/physics"

// Event is something that happened during a tick that the presentation layer
// may need to reflect.
type Event int

const (
	EventBounceX   Event = iota // Side wall flipped SpeedX
	EventBounceY                // Ceiling flipped SpeedY
	EventMiss                   // Ball passed the floor; score decremented
	EventServe                  // Ball re-served from the centre
	EventPaddleHit              // Paddle flipped SpeedY; score incremented
)

func (e Event) String() string {
	switch e {
	case EventBounceX:
		return "bounce-x"
	case EventBounceY:
		return "bounce-y"
	case EventMiss:
		return "miss"
	case EventServe:
		return "serve"
	case EventPaddleHit:
		return "paddle-hit"
	default:
		return "unknown"
	}
}

// StepResult reports what a tick (or a serve) changed. Velocity and Score are
// the values after all events were applied.
type StepResult struct {
	Events   []Event
	Score    int
	Velocity Velocity
}

// Has reports whether e occurred.
func (r StepResult) Has(e Event) bool {
	for _, got := range r.Events {
		if got == e {
			return true
		}
	}
	return false
}

// VelocityXChanged reports whether the horizontal speed was rewritten.
func (r StepResult) VelocityXChanged() bool {
	return r.Has(EventBounceX) || r.Has(EventServe)
}

// VelocityYChanged reports whether the vertical speed was rewritten.
func (r StepResult) VelocityYChanged() bool {
	return r.Has(EventBounceY) || r.Has(EventPaddleHit) || r.Has(EventServe)
}

// ScoreChanged reports whether the score moved.
func (r StepResult) ScoreChanged() bool {
	return r.Has(EventMiss) || r.Has(EventPaddleHit)
}

// Step advances the world by one tick: paddle, then ball, then collisions in
// a fixed order (right wall, left wall, ceiling, floor, paddle). base is read
// only when a floor miss re-serves the ball.
//
// The floor and paddle checks are independent, so a ball sitting on both can
// score a miss and a hit in the same tick.
func (w *World) Step(base func() Velocity) StepResult {
	var res StepResult

	w.movePaddle()

	b := &w.Ball
	b.X += b.SpeedX
	b.Y += b.SpeedY

	if b.X+b.Radius > w.Width {
		b.X = w.Width - b.Radius
		b.SpeedX = -b.SpeedX
		res.Events = append(res.Events, EventBounceX)
	}
	if b.X-b.Radius < 0 {
		b.X = b.Radius
		b.SpeedX = -b.SpeedX
		res.Events = append(res.Events, EventBounceX)
	}

	if b.Y-b.Radius < 0 {
		b.Y = b.Radius
		b.SpeedY = -b.SpeedY
		res.Events = append(res.Events, EventBounceY)
	}

	if b.Y+b.Radius > w.Height {
		w.Score--
		res.Events = append(res.Events, EventMiss)
		served := w.Serve(base())
		res.Events = append(res.Events, served.Events...)
	}

	p := &w.Paddle
	if b.Y+b.Radius >= p.Y && physics.WithinSpan(b.X, p.X, p.Width) && b.SpeedY > 0 {
		b.SpeedY = -b.SpeedY
		w.Score++
		res.Events = append(res.Events, EventPaddleHit)
	}

	res.Score = w.Score
	res.Velocity = b.Velocity()
	return res
}

// movePaddle applies held directions; left is resolved before right.
func (w *World) movePaddle() {
	p := &w.Paddle
	if p.MovingLeft {
		p.X -= p.Speed
		if p.X < 0 {
			p.X = 0
		}
	}
	if p.MovingRight {
		p.X += p.Speed
		if p.X+p.Width > w.Width {
			p.X = w.Width - p.Width
		}
	}
}
