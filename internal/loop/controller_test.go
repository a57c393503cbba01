package loop

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/tomz197/bounce/internal/config"
	"github.com/tomz197/bounce/internal/game"
)

// fakeTask is a scheduled callback in fakeScheduler.
type fakeTask struct {
	fn        func()
	interval  time.Duration
	cancelled bool
}

// fakeScheduler runs callbacks only when the test advances it.
type fakeScheduler struct {
	frames []*fakeTask
	timers []*fakeTask
	posted []func()
}

func (s *fakeScheduler) RequestFrame(fn func()) Cancel {
	t := &fakeTask{fn: fn}
	s.frames = append(s.frames, t)
	return func() { t.cancelled = true }
}

func (s *fakeScheduler) Every(interval time.Duration, fn func()) Cancel {
	t := &fakeTask{fn: fn, interval: interval}
	s.timers = append(s.timers, t)
	return func() { t.cancelled = true }
}

func (s *fakeScheduler) Post(fn func()) {
	s.posted = append(s.posted, fn)
}

// runFrame dispatches the frame callbacks pending since the last frame.
func (s *fakeScheduler) runFrame() {
	pending := s.frames
	s.frames = nil
	for _, t := range pending {
		if !t.cancelled {
			t.fn()
		}
	}
}

// tick fires every live timer once.
func (s *fakeScheduler) tick() {
	timers := append([]*fakeTask(nil), s.timers...)
	for _, t := range timers {
		if !t.cancelled {
			t.fn()
		}
	}
}

func (s *fakeScheduler) liveFrames() int {
	n := 0
	for _, t := range s.frames {
		if !t.cancelled {
			n++
		}
	}
	return n
}

func (s *fakeScheduler) liveTimers() int {
	n := 0
	for _, t := range s.timers {
		if !t.cancelled {
			n++
		}
	}
	return n
}

type countingSurface struct {
	clears, circles, rects int
}

func (s *countingSurface) Clear()                               { s.clears++ }
func (s *countingSurface) FillCircle(x, y, radius float64)      { s.circles++ }
func (s *countingSurface) FillRect(x, y, width, height float64) { s.rects++ }

type notifications struct {
	scores []int
}

func (n *notifications) SessionEnded(finalScore int) {
	n.scores = append(n.scores, finalScore)
}

func newTestController(t *testing.T) (*Controller, *fakeScheduler, *countingSurface, *notifications) {
	t.Helper()
	sched := &fakeScheduler{}
	surf := &countingSurface{}
	notes := &notifications{}
	c := NewController(ControllerOptions{
		Tuning:    config.Default(),
		Scheduler: sched,
		Surface:   surf,
		Notifier:  notes,
		Rand:      rand.NewSource(1),
	})
	return c, sched, surf, notes
}

func TestNewControllerInitialPanel(t *testing.T) {
	c, sched, _, _ := newTestController(t)
	p := c.Panel()

	if c.State() != StateIdle {
		t.Fatalf("state = %v, want idle", c.State())
	}
	if p.VelocityX.Text != "4" || p.VelocityY.Text != "-3" {
		t.Errorf("fields = %q, %q, want 4, -3", p.VelocityX.Text, p.VelocityY.Text)
	}
	if p.Magnitude != "5.00" || p.Angle != "323.1" {
		t.Errorf("polar = %s, %s, want 5.00, 323.1", p.Magnitude, p.Angle)
	}
	if p.Score != "0" || p.TimeLeft != "30" {
		t.Errorf("score/time = %s/%s, want 0/30", p.Score, p.TimeLeft)
	}
	if !p.StartEnabled || p.ResetEnabled {
		t.Errorf("controls = start %v reset %v, want start only", p.StartEnabled, p.ResetEnabled)
	}
	if p.VelocityX.Disabled || p.VelocityY.Disabled {
		t.Error("velocity fields disabled while idle")
	}
	if sched.liveFrames() != 0 || sched.liveTimers() != 0 {
		t.Error("idle controller scheduled callbacks")
	}
}

func TestControllerIngestScenario(t *testing.T) {
	c, _, _, _ := newTestController(t)

	if !c.EditVelocity(AxisX, "5") || !c.EditVelocity(AxisY, "-4") {
		t.Fatal("EditVelocity rejected while idle")
	}

	b := c.World().Ball
	if b.SpeedX != 5 || b.SpeedY != -4 {
		t.Errorf("ball speed = %v, %v, want 5, -4", b.SpeedX, b.SpeedY)
	}
	p := c.Panel()
	if p.Magnitude != "6.40" {
		t.Errorf("magnitude = %s, want 6.40", p.Magnitude)
	}
	if p.Angle != "321.3" {
		t.Errorf("angle = %s, want 321.3", p.Angle)
	}
}

func TestControllerIngestGarbageUsesDefaults(t *testing.T) {
	c, _, _, _ := newTestController(t)

	c.EditVelocity(AxisX, "abc")
	c.EditVelocity(AxisY, "")

	b := c.World().Ball
	if b.SpeedX != 4 || b.SpeedY != -3 {
		t.Errorf("ball speed = %v, %v, want 4, -3", b.SpeedX, b.SpeedY)
	}
}

func TestControllerStartFromIdle(t *testing.T) {
	c, sched, surf, _ := newTestController(t)
	w := c.World()
	w.Paddle.X = 0
	w.Score = 12

	c.Start()

	if c.State() != StateRunning {
		t.Fatalf("state = %v, want running", c.State())
	}
	if w.Score != 0 || c.TimeLeft() != 30 {
		t.Errorf("score/time = %d/%d, want 0/30", w.Score, c.TimeLeft())
	}
	if want := (w.Width - w.Paddle.Width) / 2; w.Paddle.X != want {
		t.Errorf("paddle x = %v, want %v", w.Paddle.X, want)
	}
	// Start runs the first frame immediately, so the ball is one tick off centre.
	if math.Abs(w.Ball.X-w.Width/2) != 4 || w.Ball.Y != w.Height/2-3 {
		t.Errorf("ball at (%v, %v), want one tick from centre", w.Ball.X, w.Ball.Y)
	}
	if w.Ball.SpeedY >= 0 {
		t.Errorf("ball speedY = %v, want upward", w.Ball.SpeedY)
	}

	p := c.Panel()
	if !p.VelocityX.Disabled || !p.VelocityY.Disabled {
		t.Error("velocity fields editable while running")
	}
	if p.StartEnabled || !p.ResetEnabled {
		t.Errorf("controls = start %v reset %v, want reset only", p.StartEnabled, p.ResetEnabled)
	}
	if sched.liveFrames() != 1 {
		t.Errorf("pending frames = %d, want 1", sched.liveFrames())
	}
	if sched.liveTimers() != 1 || sched.timers[0].interval != time.Second {
		t.Error("countdown not scheduled every second")
	}
	if surf.clears != 1 || surf.circles != 1 || surf.rects != 1 {
		t.Errorf("render calls = %+v, want one of each", *surf)
	}
}

func TestControllerStartWhileRunningIsNoop(t *testing.T) {
	c, sched, _, _ := newTestController(t)

	c.Start()
	sched.runFrame()
	c.Start()

	if len(sched.timers) != 1 {
		t.Errorf("timers = %d, want 1", len(sched.timers))
	}
	if sched.liveFrames() != 1 {
		t.Errorf("pending frames = %d, want 1", sched.liveFrames())
	}
}

func TestControllerFramesKeepScheduling(t *testing.T) {
	c, sched, surf, _ := newTestController(t)
	c.Start()

	for i := 0; i < 10; i++ {
		sched.runFrame()
	}

	if sched.liveFrames() != 1 {
		t.Errorf("pending frames = %d, want 1", sched.liveFrames())
	}
	if surf.clears != 11 {
		t.Errorf("renders = %d, want 11", surf.clears)
	}
}

func TestControllerCountdownExpiry(t *testing.T) {
	c, sched, _, notes := newTestController(t)
	c.Start()

	for i := 0; i < 29; i++ {
		sched.tick()
		sched.runFrame()
	}
	if c.State() != StateRunning || c.TimeLeft() != 1 {
		t.Fatalf("after 29s: state %v, time %d", c.State(), c.TimeLeft())
	}
	if c.Panel().TimeLeft != "1" {
		t.Errorf("time display = %s, want 1", c.Panel().TimeLeft)
	}

	sched.tick()

	if c.State() != StateIdle {
		t.Fatalf("state = %v, want idle", c.State())
	}
	if c.TimeLeft() != 0 || c.Panel().TimeLeft != "0" {
		t.Errorf("time = %d (%s), want 0", c.TimeLeft(), c.Panel().TimeLeft)
	}
	if len(notes.scores) != 1 || notes.scores[0] != c.World().Score {
		t.Fatalf("notifications = %v, want exactly [%d]", notes.scores, c.World().Score)
	}
	if sched.liveFrames() != 0 || sched.liveTimers() != 0 {
		t.Errorf("still scheduled: frames %d timers %d", sched.liveFrames(), sched.liveTimers())
	}

	ball := c.World().Ball
	for i := 0; i < 5; i++ {
		sched.tick()
		sched.runFrame()
	}
	if c.World().Ball != ball {
		t.Error("world changed after the session ended")
	}
	if len(notes.scores) != 1 {
		t.Errorf("notified %d times, want 1", len(notes.scores))
	}

	p := c.Panel()
	if !p.StartEnabled || p.ResetEnabled || p.VelocityX.Disabled {
		t.Error("controls not restored after expiry")
	}
}

func TestControllerResetMidRun(t *testing.T) {
	c, sched, _, notes := newTestController(t)
	c.Start()
	for i := 0; i < 5; i++ {
		sched.tick()
		sched.runFrame()
	}
	c.World().Score = 3

	c.Reset()

	w := c.World()
	if c.State() != StateIdle {
		t.Fatalf("state = %v, want idle", c.State())
	}
	if w.Score != 0 || c.TimeLeft() != 30 {
		t.Errorf("score/time = %d/%d, want 0/30", w.Score, c.TimeLeft())
	}
	if w.Ball.X != w.Width/2 || w.Ball.Y != w.Height/2 || w.Ball.SpeedY >= 0 {
		t.Errorf("ball not re-served: %+v", w.Ball)
	}
	if want := (w.Width - w.Paddle.Width) / 2; w.Paddle.X != want {
		t.Errorf("paddle x = %v, want %v", w.Paddle.X, want)
	}
	if sched.liveFrames() != 0 || sched.liveTimers() != 0 {
		t.Errorf("still scheduled: frames %d timers %d", sched.liveFrames(), sched.liveTimers())
	}
	if len(notes.scores) != 0 {
		t.Errorf("reset notified: %v", notes.scores)
	}
	p := c.Panel()
	if p.VelocityX.Disabled || p.VelocityY.Disabled {
		t.Error("velocity fields still locked after reset")
	}
	if p.Score != "0" || p.TimeLeft != "30" {
		t.Errorf("display = %s/%s, want 0/30", p.Score, p.TimeLeft)
	}
}

func TestControllerResetFromIdle(t *testing.T) {
	c, sched, _, notes := newTestController(t)

	c.Reset()

	if c.State() != StateIdle || sched.liveFrames() != 0 || sched.liveTimers() != 0 {
		t.Error("reset from idle scheduled work")
	}
	if len(notes.scores) != 0 {
		t.Error("reset from idle notified")
	}
}

func TestControllerKeysIgnoredWhileIdle(t *testing.T) {
	c, sched, _, _ := newTestController(t)

	c.KeyDown(KeyLeft)
	c.KeyDown(KeyRight)
	if p := c.World().Paddle; p.MovingLeft || p.MovingRight {
		t.Fatal("idle key press set movement")
	}

	c.Start()
	x := c.World().Paddle.X
	c.KeyDown(KeyLeft)
	sched.runFrame()
	if got := c.World().Paddle.X; got != x-config.PaddleSpeed {
		t.Errorf("paddle x = %v, want %v", got, x-config.PaddleSpeed)
	}

	c.KeyUp(KeyLeft)
	x = c.World().Paddle.X
	sched.runFrame()
	if got := c.World().Paddle.X; got != x {
		t.Errorf("paddle moved after release: %v -> %v", x, got)
	}
}

func TestControllerStopClearsMovement(t *testing.T) {
	c, _, _, _ := newTestController(t)
	c.Start()
	c.KeyDown(KeyRight)

	c.Reset()

	if c.World().Paddle.MovingRight {
		t.Error("movement survived reset")
	}
}

func TestControllerEditVelocityLockedWhileRunning(t *testing.T) {
	c, _, _, _ := newTestController(t)
	c.Start()
	before := c.Panel().VelocityX.Text

	if c.EditVelocity(AxisX, "9") {
		t.Error("EditVelocity accepted while running")
	}
	if c.Panel().VelocityX.Text != before {
		t.Errorf("field changed to %q", c.Panel().VelocityX.Text)
	}
}

func TestControllerNegativeZeroAngle(t *testing.T) {
	c, _, _, _ := newTestController(t)

	c.EditVelocity(AxisY, "-0")

	p := c.Panel()
	if p.Magnitude != "4.00" || p.Angle != "0.0" {
		t.Errorf("polar = %s, %s, want 4.00, 0.0", p.Magnitude, p.Angle)
	}
}

func TestControllerServeWritesBackFields(t *testing.T) {
	c, _, _, _ := newTestController(t)
	c.EditVelocity(AxisX, "5")
	c.EditVelocity(AxisY, "4")

	c.Reset()

	p := c.Panel()
	if p.VelocityX.Text != "5.00" && p.VelocityX.Text != "-5.00" {
		t.Errorf("x field = %q, want ±5.00", p.VelocityX.Text)
	}
	if p.VelocityY.Text != "-4.00" {
		t.Errorf("y field = %q, want -4.00", p.VelocityY.Text)
	}
	if p.Magnitude != "6.40" {
		t.Errorf("magnitude = %s, want 6.40", p.Magnitude)
	}
}

func TestControllerZeroFieldServesWithDefault(t *testing.T) {
	c, _, _, _ := newTestController(t)
	c.EditVelocity(AxisX, "0")
	c.EditVelocity(AxisY, "0")

	c.Start()

	v := c.World().Ball.Velocity()
	if math.Abs(v.X) != 4 || v.Y != -3 {
		t.Errorf("serve velocity = %+v, want ±4, -3", v)
	}
}

func TestControllerPanelTracksBounce(t *testing.T) {
	c, sched, _, _ := newTestController(t)
	c.Start()
	w := c.World()

	// Put the ball just short of the right wall moving right.
	w.Ball.X = w.Width - w.Ball.Radius - 1
	w.Ball.Y = w.Height / 2
	w.Ball.SpeedX = 4
	sched.runFrame()

	if got := c.Panel().VelocityX.Text; got != "-4.00" {
		t.Errorf("x field = %q, want -4.00", got)
	}
}

func TestFinalScoreMessage(t *testing.T) {
	if got := FinalScoreMessage(-2); got != "Time's up! Final score: -2" {
		t.Errorf("got %q", got)
	}
}

func TestStateString(t *testing.T) {
	if StateIdle.String() != "idle" || StateRunning.String() != "running" || State(9).String() != "unknown" {
		t.Error("unexpected state names")
	}
}

// Compile-time check that the fakes satisfy the interfaces they stand in for.
var (
	_ Scheduler    = (*fakeScheduler)(nil)
	_ game.Surface = (*countingSurface)(nil)
	_ Notifier     = (*notifications)(nil)
)
