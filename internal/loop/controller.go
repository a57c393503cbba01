package loop

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/tomz197/bounce/internal/config"
	"github.com/tomz197/bounce/internal/game"
	"github.com/tomz197/bounce/internal/logging"
)

// State is the session phase.
type State int

const (
	StateIdle    State = iota // Initial and terminal phase
	StateRunning              // Frame cycle and countdown active
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Key is a directional key whose press and release a front end reports.
type Key int

const (
	KeyLeft Key = iota
	KeyRight
)

// Axis selects one of the two velocity input fields.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

// Notifier receives the end-of-session message.
type Notifier interface {
	// SessionEnded is called once per countdown expiry, never on reset.
	SessionEnded(finalScore int)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(finalScore int)

// SessionEnded implements Notifier.
func (f NotifierFunc) SessionEnded(finalScore int) {
	f(finalScore)
}

// FinalScoreMessage is the text shown when the countdown runs out.
func FinalScoreMessage(finalScore int) string {
	return fmt.Sprintf("Time's up! Final score: %d", finalScore)
}

// ControllerOptions configures a Controller.
type ControllerOptions struct {
	Tuning    config.Tuning // Zero value uses config.Default()
	Scheduler Scheduler
	Surface   game.Surface
	Notifier  Notifier
	Rand      rand.Source // Serve direction; nil seeds randomly
	Logger    *zap.SugaredLogger
}

// Controller owns one game instance: the world, the session state machine and
// the panel it is presented through. All methods must run on the scheduler's
// goroutine.
type Controller struct {
	tuning   config.Tuning
	sched    Scheduler
	surface  game.Surface
	notifier Notifier
	log      *zap.SugaredLogger

	world    *game.World
	panel    Panel
	state    State
	timeLeft int

	cancelFrame     Cancel
	cancelCountdown Cancel
}

// NewController creates an idle controller. The velocity fields start at the
// default speeds and are ingested once, so the polar display is populated
// before the first session.
func NewController(opts ControllerOptions) *Controller {
	t := opts.Tuning
	if t == (config.Tuning{}) {
		t = config.Default()
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = NotifierFunc(func(int) {})
	}

	c := &Controller{
		tuning:   t,
		sched:    opts.Scheduler,
		surface:  opts.Surface,
		notifier: notifier,
		log:      log,
		world:    game.NewWorld(t, opts.Rand),
		timeLeft: t.SessionSeconds,
	}

	c.panel.SetScore(0)
	c.panel.SetTimeLeft(c.timeLeft)
	c.panel.SetVelocityText(
		strconv.FormatFloat(t.DefaultSpeedX, 'f', -1, 64),
		strconv.FormatFloat(t.DefaultSpeedY, 'f', -1, 64),
	)
	c.panel.SetControls(true, false)
	c.IngestVelocity()
	return c
}

func (c *Controller) defaultVelocity() game.Velocity {
	return game.Velocity{X: c.tuning.DefaultSpeedX, Y: c.tuning.DefaultSpeedY}
}

// serveBase reads the velocity fields as a serve sees them.
func (c *Controller) serveBase() game.Velocity {
	return game.ServeBase(c.panel.VelocityX.Text, c.panel.VelocityY.Text, c.defaultVelocity(), c.tuning.MaxSpeed)
}

// State returns the session phase.
func (c *Controller) State() State {
	return c.state
}

// TimeLeft returns the remaining session seconds.
func (c *Controller) TimeLeft() int {
	return c.timeLeft
}

// World returns the simulation state. Callers must not mutate it.
func (c *Controller) World() *game.World {
	return c.world
}

// Panel returns the presentation state.
func (c *Controller) Panel() *Panel {
	return &c.panel
}

// Start begins a session. No-op while running.
func (c *Controller) Start() {
	if c.state == StateRunning {
		return
	}
	c.state = StateRunning

	c.world.ResetScore()
	c.timeLeft = c.tuning.SessionSeconds
	c.panel.SetScore(0)
	c.panel.SetTimeLeft(c.timeLeft)
	c.serve()
	c.world.CenterPaddle()

	c.panel.SetControls(false, true)
	c.panel.SetInputsDisabled(true)

	c.cancelCountdown = c.sched.Every(time.Second, c.countdown)
	c.log.Infow("session started", "seconds", c.timeLeft)

	c.frame()
}

// Reset stops any session and returns to a fresh idle state. Never notifies.
func (c *Controller) Reset() {
	wasRunning := c.state == StateRunning
	c.stop()

	c.world.ResetScore()
	c.timeLeft = c.tuning.SessionSeconds
	c.panel.SetScore(0)
	c.panel.SetTimeLeft(c.timeLeft)
	c.serve()
	c.world.CenterPaddle()
	c.Redraw()

	c.log.Infow("session reset", "was_running", wasRunning)
}

// KeyDown records a held direction. Ignored while idle.
func (c *Controller) KeyDown(k Key) {
	c.setMoving(k, true)
}

// KeyUp releases a held direction. Ignored while idle.
func (c *Controller) KeyUp(k Key) {
	c.setMoving(k, false)
}

func (c *Controller) setMoving(k Key, moving bool) {
	if c.state != StateRunning {
		return
	}
	switch k {
	case KeyLeft:
		c.world.Paddle.MovingLeft = moving
	case KeyRight:
		c.world.Paddle.MovingRight = moving
	}
}

// IngestVelocity parses both velocity fields into the ball's speed and
// publishes the polar display.
func (c *Controller) IngestVelocity() game.Velocity {
	v := game.IngestVelocityWith(c.panel.VelocityX.Text, c.panel.VelocityY.Text, c.defaultVelocity(), c.tuning.MaxSpeed)
	c.world.SetVelocity(v)
	c.panel.SetPolar(v)
	return v
}

// EditVelocity replaces the text of one velocity field and ingests both.
// Fields are locked while running; it then reports false and changes nothing.
func (c *Controller) EditVelocity(axis Axis, text string) bool {
	if c.state == StateRunning {
		return false
	}
	switch axis {
	case AxisX:
		c.panel.SetVelocityText(text, c.panel.VelocityY.Text)
	case AxisY:
		c.panel.SetVelocityText(c.panel.VelocityX.Text, text)
	default:
		return false
	}
	c.IngestVelocity()
	return true
}

// Redraw renders the world without stepping it, e.g. after the surface was
// resized.
func (c *Controller) Redraw() {
	if c.surface != nil {
		game.Render(c.surface, c.world)
	}
}

func (c *Controller) serve() {
	c.panel.Apply(c.world.Serve(c.serveBase()))
}

// frame is one tick of the per-frame cycle: simulate, present, render, and
// ask for the next frame.
func (c *Controller) frame() {
	if c.state != StateRunning {
		return
	}

	res := c.world.Step(c.serveBase)
	c.panel.Apply(res)
	if res.Has(game.EventMiss) {
		c.log.Debugw("ball missed", "score", res.Score)
	}
	if res.Has(game.EventPaddleHit) {
		c.log.Debugw("paddle hit", "score", res.Score)
	}

	c.Redraw()
	c.cancelFrame = c.sched.RequestFrame(c.frame)
}

// countdown runs once a second while the session is running.
func (c *Controller) countdown() {
	if c.state != StateRunning {
		return
	}
	if c.timeLeft > 0 {
		c.timeLeft--
		c.panel.SetTimeLeft(c.timeLeft)
	}
	if c.timeLeft > 0 {
		return
	}

	c.stop()
	score := c.world.Score
	c.log.Infow("session expired", "score", score)
	c.notifier.SessionEnded(score)
}

// stop cancels both scheduled callbacks and unlocks the controls.
func (c *Controller) stop() {
	if c.cancelFrame != nil {
		c.cancelFrame()
		c.cancelFrame = nil
	}
	if c.cancelCountdown != nil {
		c.cancelCountdown()
		c.cancelCountdown = nil
	}
	if c.state == StateRunning {
		c.log.Infow("session stopped", "score", c.world.Score, "time_left", c.timeLeft)
	}
	c.state = StateIdle

	c.world.ClearMovement()
	c.panel.SetControls(true, false)
	c.panel.SetInputsDisabled(false)
}
