package loop

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/tomz197/bounce/internal/config"
	"github.com/tomz197/bounce/internal/draw"
	"github.com/tomz197/bounce/internal/input"
	"github.com/tomz197/bounce/internal/logging"
)

// screen is what the terminal front end is currently showing.
type screen int

const (
	screenPlay     screen = iota // Canvas and HUD
	screenNotice                 // Session-end message over the canvas
	screenInactive               // Inactivity warning
	screenShutdown               // Server is shutting down
	screenTooSmall               // Terminal cannot fit the play area
)

// Terminal plays one game on an ANSI terminal: local stdin/stdout or an SSH
// session. It owns a Host; input is read at the start of each frame and the
// screen is drawn at the end of it.
type Terminal struct {
	host *Host
	ctrl *Controller
	log  *zap.SugaredLogger

	canvas       *draw.Canvas
	chunkWriter  *draw.ChunkWriter // Accumulates frame output for chunked writes
	writer       io.Writer
	inputStream  *input.Stream
	termSizeFunc draw.TermSizeFunc
	layout       layout

	hub      *Hub
	handle   *Handle
	username string

	in        input.Input
	heldLeft  bool // Direction last reported down to the controller
	heldRight bool

	focus Axis // Velocity field receiving typed characters
	fresh bool // Next typed character replaces the focused field

	notice           string // Session-end message; empty when dismissed
	lastInput        time.Time
	isInactive       bool
	shutdownDeadline time.Time // Zero unless the server is shutting down

	prevScreen  screen
	hudRevision uint64
	hudDirty    bool

	err error // First write error; ends Run
}

// TerminalOptions configures a Terminal.
type TerminalOptions struct {
	TermSizeFunc draw.TermSizeFunc
	Tuning       config.Tuning // Zero value uses config.Default()
	Logger       *zap.SugaredLogger
	Hub          *Hub // Optional; receives the session's registration
	Username     string
	Rand         rand.Source
}

// NewTerminal creates a terminal front end reading keys from r and drawing to w.
func NewTerminal(r *bufio.Reader, w io.Writer, opts TerminalOptions) *Terminal {
	termSizeFunc := opts.TermSizeFunc
	if termSizeFunc == nil {
		termSizeFunc = draw.DefaultTermSizeFunc
	}
	tuning := opts.Tuning
	if tuning == (config.Tuning{}) {
		tuning = config.Default()
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	if opts.Username != "" {
		log = log.With("user", opts.Username)
	}

	t := &Terminal{
		log:          log,
		writer:       w,
		inputStream:  input.StartStream(r),
		termSizeFunc: termSizeFunc,
		hub:          opts.Hub,
		username:     opts.Username,
		focus:        AxisX,
		fresh:        true,
		lastInput:    time.Now(),
		hudDirty:     true,
	}

	termWidth, termHeight, _ := termSizeFunc()
	t.layout = computeLayout(termWidth, termHeight)
	t.canvas = draw.NewScaledCanvas(t.layout.canvasWidth, t.layout.canvasHeight, tuning.SurfaceWidth, tuning.SurfaceHeight)
	t.canvas.SetOffset(t.layout.canvasOffsetCol(), t.layout.canvasOffsetRow())
	t.chunkWriter = draw.NewChunkWriter(w, t.layout.left, t.layout.top)

	t.host = NewHost(HostOptions{
		FrameTime:   tuning.FrameTime(),
		BeforeFrame: t.beforeFrame,
		AfterFrame:  t.afterFrame,
	})
	t.ctrl = NewController(ControllerOptions{
		Tuning:    tuning,
		Scheduler: t.host,
		Surface:   canvasSurface{t.canvas},
		Notifier:  NotifierFunc(t.sessionEnded),
		Rand:      opts.Rand,
		Logger:    log,
	})
	t.ctrl.Redraw()

	if t.hub != nil {
		t.handle = t.hub.Register(opts.Username)
	}
	return t
}

// Controller returns the game controller driven by this terminal.
func (t *Terminal) Controller() *Controller {
	return t.ctrl
}

// Run plays until the user quits, the input ends, the session idles out, the
// server shuts down or ctx is cancelled. A cancelled ctx is a normal exit.
func (t *Terminal) Run(ctx context.Context) error {
	draw.HideCursor(t.writer)
	defer draw.ShowCursor(t.writer)
	draw.ClearScreen(t.writer)

	if t.handle != nil {
		defer t.hub.Unregister(t.handle.ID)
	}

	t.log.Infow("terminal session started", "cols", t.layout.termWidth, "rows", t.layout.termHeight)
	err := t.host.Run(ctx)
	t.ctrl.Reset()
	t.log.Infow("terminal session ended")

	if t.err != nil {
		return t.err
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	draw.ClearScreen(t.writer)
	return nil
}

// beforeFrame reads this frame's input and applies it.
func (t *Terminal) beforeFrame() {
	t.processHubEvents()
	t.updateScreen()
	t.handleInput(input.ReadInput(t.inputStream), time.Now())
}

// afterFrame draws the frame and flushes it.
func (t *Terminal) afterFrame() {
	t.drawFrame()
	if err := t.chunkWriter.Flush(); err != nil && t.err == nil {
		t.err = fmt.Errorf("write frame: %w", err)
		t.host.Stop()
	}
}

// handleInput applies one frame's input at time now.
func (t *Terminal) handleInput(in input.Input, now time.Time) {
	t.in = in

	if len(in.Events) > 0 {
		t.lastInput = now
		t.isInactive = false
	} else if now.Sub(t.lastInput).Seconds() > config.InactivityDisconnectUser {
		t.log.Infow("disconnecting inactive session")
		t.host.Stop()
		return
	} else if now.Sub(t.lastInput).Seconds() > config.InactivityWarnUser {
		t.isInactive = true
	}

	if in.Quit {
		t.host.Stop()
		return
	}

	if !t.shutdownDeadline.IsZero() {
		if !now.Before(t.shutdownDeadline) {
			t.host.Stop()
		}
		return
	}

	t.syncDirection(KeyLeft, &t.heldLeft, in.Left)
	t.syncDirection(KeyRight, &t.heldRight, in.Right)

	for _, e := range in.Events {
		if t.notice != "" {
			// Any key dismisses the message and is consumed by it.
			t.notice = ""
			continue
		}
		t.handleKey(e)
	}
}

// syncDirection turns the held state of a direction into controller key
// edges. A held key is reported down every frame, like keyboard auto-repeat.
func (t *Terminal) syncDirection(k Key, held *bool, down bool) {
	if down {
		t.ctrl.KeyDown(k)
	} else if *held {
		t.ctrl.KeyUp(k)
	}
	*held = down
}

func (t *Terminal) handleKey(e input.Event) {
	panel := t.ctrl.Panel()

	switch e.Key {
	case input.KeyStart, input.KeyEnter:
		if panel.StartEnabled {
			t.inputStream.Reset()
			t.ctrl.Start()
		}
	case input.KeyReset:
		if panel.ResetEnabled {
			t.ctrl.Reset()
			t.fresh = true
		}
	case input.KeyTab, input.KeyUp, input.KeyDown:
		if t.focus == AxisX {
			t.focus = AxisY
		} else {
			t.focus = AxisX
		}
		t.fresh = true
		t.hudDirty = true
	case input.KeyChar:
		t.editFocused(func(text string) string { return text + string(e.Char) })
	case input.KeyBackspace:
		t.editFocused(func(text string) string {
			if len(text) == 0 {
				return text
			}
			return text[:len(text)-1]
		})
	}
}

// editFocused rewrites the focused velocity field. Locked while running.
func (t *Terminal) editFocused(edit func(string) string) {
	if t.ctrl.State() == StateRunning {
		return
	}
	panel := t.ctrl.Panel()
	text := panel.VelocityX.Text
	if t.focus == AxisY {
		text = panel.VelocityY.Text
	}
	if t.fresh {
		text = ""
		t.fresh = false
	}
	t.ctrl.EditVelocity(t.focus, edit(text))
}

// sessionEnded shows the final score until a key is pressed.
func (t *Terminal) sessionEnded(finalScore int) {
	t.notice = FinalScoreMessage(finalScore)
	t.fresh = true
}

// processHubEvents handles events from the hub.
func (t *Terminal) processHubEvents() {
	if t.handle == nil {
		return
	}
	for {
		select {
		case event, ok := <-t.handle.EventsCh:
			if !ok {
				t.host.Stop()
				return
			}
			if event.Type == EventServerShutdown && t.shutdownDeadline.IsZero() {
				t.ctrl.Reset()
				t.notice = ""
				t.shutdownDeadline = time.Now().Add(time.Duration(config.ShutdownDisplaySeconds * float64(time.Second)))
			}
		default:
			return
		}
	}
}

// updateScreen follows terminal resizes. On actual size changes, clears the
// terminal to remove residual output outside the new play area.
func (t *Terminal) updateScreen() {
	termWidth, termHeight, err := t.termSizeFunc()
	if err != nil {
		return
	}
	l := computeLayout(termWidth, termHeight)
	if l == t.layout {
		return
	}
	t.layout = l

	t.chunkWriter.ClearScreen()
	t.canvas.Resize(l.canvasWidth, l.canvasHeight)
	t.canvas.SetOffset(l.canvasOffsetCol(), l.canvasOffsetRow())
	t.canvas.ForceRedraw()
	t.chunkWriter.SetOffset(l.left, l.top)
	t.hudDirty = true

	// Resize drops the pixels; paint the current world again.
	t.ctrl.Redraw()
}

// currentScreen picks what to draw this frame.
func (t *Terminal) currentScreen() screen {
	switch {
	case t.layout.tooSmall:
		return screenTooSmall
	case !t.shutdownDeadline.IsZero():
		return screenShutdown
	case t.isInactive:
		return screenInactive
	case t.notice != "":
		return screenNotice
	default:
		return screenPlay
	}
}
