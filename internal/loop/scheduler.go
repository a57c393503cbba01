package loop

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomz197/bounce/internal/config"
)

// Cancel revokes a scheduled callback. It is safe to call more than once.
type Cancel func()

// Scheduler runs callbacks on a single goroutine. Callbacks never run
// concurrently with each other, so the state they share needs no locking.
type Scheduler interface {
	// RequestFrame runs fn once at the next frame boundary.
	RequestFrame(fn func()) Cancel
	// Every runs fn every interval until cancelled.
	Every(interval time.Duration, fn func()) Cancel
	// Post runs fn on the scheduler goroutine as soon as possible.
	// Safe to call from any goroutine.
	Post(fn func())
}

// HostOptions configures a Host.
type HostOptions struct {
	FrameTime   time.Duration
	BeforeFrame func() // Runs at each frame boundary before frame callbacks
	AfterFrame  func() // Runs at each frame boundary after frame callbacks
}

// registration is one scheduled callback. cancelled is checked at every
// dispatch, so a cancelled callback never runs even if its tick was queued.
type registration struct {
	fn        func()
	cancelled atomic.Bool
	done      chan struct{}
	once      sync.Once
}

func (r *registration) cancel() {
	r.cancelled.Store(true)
	r.once.Do(func() {
		if r.done != nil {
			close(r.done)
		}
	})
}

// Host is the event loop behind one game instance: a frame ticker, interval
// timers and posted tasks, all dispatched on the goroutine running Run.
type Host struct {
	opts   HostOptions
	tasks  chan func()
	frames []*registration // Only touched on the loop goroutine
	stop   chan struct{}
	once   sync.Once
}

// Compile-time check that Host implements Scheduler.
var _ Scheduler = (*Host)(nil)

// NewHost creates a host. A zero FrameTime uses config.TargetFrameTime.
func NewHost(opts HostOptions) *Host {
	if opts.FrameTime <= 0 {
		opts.FrameTime = config.TargetFrameTime
	}
	return &Host{
		opts:  opts,
		tasks: make(chan func(), 64),
		stop:  make(chan struct{}),
	}
}

// RequestFrame implements Scheduler. Must be called on the loop goroutine.
func (h *Host) RequestFrame(fn func()) Cancel {
	reg := &registration{fn: fn}
	h.frames = append(h.frames, reg)
	return reg.cancel
}

// Every implements Scheduler. The timer goroutine only posts ticks; fn itself
// runs on the loop goroutine.
func (h *Host) Every(interval time.Duration, fn func()) Cancel {
	reg := &registration{fn: fn, done: make(chan struct{})}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-reg.done:
				return
			case <-h.stop:
				return
			case <-ticker.C:
				h.Post(func() {
					if !reg.cancelled.Load() {
						reg.fn()
					}
				})
			}
		}
	}()

	return reg.cancel
}

// Post implements Scheduler. Tasks posted after Stop are dropped.
func (h *Host) Post(fn func()) {
	select {
	case h.tasks <- fn:
	case <-h.stop:
	}
}

// Stop ends Run. Safe to call from any goroutine, more than once.
func (h *Host) Stop() {
	h.once.Do(func() { close(h.stop) })
}

// Done is closed once Stop has been called.
func (h *Host) Done() <-chan struct{} {
	return h.stop
}

// Run dispatches frames, timers and tasks until ctx ends or Stop is called.
// Returns nil after Stop and ctx.Err() after cancellation.
func (h *Host) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.opts.FrameTime)
	defer ticker.Stop()
	defer h.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.stop:
			return nil
		case fn := <-h.tasks:
			fn()
		case <-ticker.C:
			h.runFrame()
		}
	}
}

// runFrame runs one frame boundary: before hook, the callbacks requested
// since the previous frame in request order, after hook.
func (h *Host) runFrame() {
	// Frames requested by the before hook belong to the next boundary.
	pending := h.frames
	h.frames = nil

	if h.opts.BeforeFrame != nil {
		h.opts.BeforeFrame()
	}

	for _, reg := range pending {
		if !reg.cancelled.Load() {
			reg.fn()
		}
	}

	if h.opts.AfterFrame != nil {
		h.opts.AfterFrame()
	}
}
