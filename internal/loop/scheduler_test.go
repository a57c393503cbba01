package loop

import (
	"context"
	"errors"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/tomz197/bounce/internal/config"
)

func TestHostFrameOrder(t *testing.T) {
	var log []string
	h := NewHost(HostOptions{
		BeforeFrame: func() { log = append(log, "before") },
		AfterFrame:  func() { log = append(log, "after") },
	})

	h.RequestFrame(func() { log = append(log, "a") })
	h.RequestFrame(func() { log = append(log, "b") })
	h.runFrame()

	want := []string{"before", "a", "b", "after"}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("frame order = %v, want %v", log, want)
	}
}

func TestHostFrameCallbacksRunOnce(t *testing.T) {
	h := NewHost(HostOptions{})
	n := 0
	h.RequestFrame(func() { n++ })

	h.runFrame()
	h.runFrame()

	if n != 1 {
		t.Errorf("callback ran %d times, want 1", n)
	}
}

func TestHostRequestFromFrameRunsNextFrame(t *testing.T) {
	h := NewHost(HostOptions{})
	n := 0
	var tick func()
	tick = func() {
		n++
		h.RequestFrame(tick)
	}
	h.RequestFrame(tick)

	for i := 0; i < 3; i++ {
		h.runFrame()
	}

	if n != 3 {
		t.Errorf("ticks = %d, want 3", n)
	}
}

func TestHostCancelledFrameDoesNotRun(t *testing.T) {
	h := NewHost(HostOptions{})
	ran := false
	cancel := h.RequestFrame(func() { ran = true })

	cancel()
	cancel()
	h.runFrame()

	if ran {
		t.Error("cancelled frame callback ran")
	}
}

func TestHostRunPostAndStop(t *testing.T) {
	h := NewHost(HostOptions{FrameTime: time.Millisecond})
	done := make(chan error, 1)
	go func() { done <- h.Run(context.Background()) }()

	ran := make(chan struct{})
	h.Post(func() {
		close(ran)
		h.Stop()
	})

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("posted task never ran")
	}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run after Stop = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}

	// Posting after Stop must not block.
	h.Post(func() {})
}

func TestHostRunContextCancel(t *testing.T) {
	h := NewHost(HostOptions{FrameTime: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	select {
	case <-h.Done():
	default:
		t.Error("Done not closed after Run returned")
	}
}

func TestHostEveryRunsOnLoopUntilCancelled(t *testing.T) {
	h := NewHost(HostOptions{FrameTime: time.Millisecond})
	done := make(chan error, 1)
	go func() { done <- h.Run(context.Background()) }()

	// count is only touched on the loop goroutine.
	count := 0
	var cancel Cancel
	reached := make(chan struct{})
	h.Post(func() {
		cancel = h.Every(2*time.Millisecond, func() {
			count++
			if count == 3 {
				cancel()
				close(reached)
				// Leave time for any tick queued before the cancel.
				go func() {
					time.Sleep(20 * time.Millisecond)
					h.Post(h.Stop)
				}()
			}
		})
	})

	select {
	case <-reached:
	case <-time.After(2 * time.Second):
		t.Fatal("interval callback did not reach 3 runs")
	}
	if err := <-done; err != nil {
		t.Fatalf("Run = %v", err)
	}
	if count != 3 {
		t.Errorf("interval ran %d times, want 3", count)
	}
}

func TestHostFramesTick(t *testing.T) {
	ticks := make(chan struct{}, 8)
	h := NewHost(HostOptions{
		FrameTime: time.Millisecond,
		AfterFrame: func() {
			select {
			case ticks <- struct{}{}:
			default:
			}
		},
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	for i := 0; i < 3; i++ {
		select {
		case <-ticks:
		case <-time.After(2 * time.Second):
			t.Fatal("frame boundary never reached")
		}
	}
}

func TestHostFrameRequestedByBeforeHookWaitsForNextBoundary(t *testing.T) {
	var h *Host
	n := 0
	requested := false
	h = NewHost(HostOptions{
		BeforeFrame: func() {
			if !requested {
				requested = true
				h.RequestFrame(func() { n++ })
			}
		},
	})

	h.runFrame()
	if n != 0 {
		t.Fatalf("frame requested by the before hook ran in the same boundary")
	}
	h.runFrame()
	if n != 1 {
		t.Errorf("frame ran %d times after the next boundary, want 1", n)
	}
}

func TestStartFromBeforeHookStepsOncePerBoundary(t *testing.T) {
	tuning := config.Default()
	var ctrl *Controller
	started := false
	h := NewHost(HostOptions{
		BeforeFrame: func() {
			if !started {
				started = true
				ctrl.Start()
			}
		},
	})
	ctrl = NewController(ControllerOptions{
		Tuning:    tuning,
		Scheduler: h,
		Rand:      rand.NewSource(1),
	})
	defer ctrl.Reset()

	h.runFrame()
	if y := ctrl.World().Ball.Y; y != tuning.SurfaceHeight/2-3 {
		t.Fatalf("ball y after first boundary = %g, want %g", y, tuning.SurfaceHeight/2-3)
	}

	h.runFrame()
	if y := ctrl.World().Ball.Y; y != tuning.SurfaceHeight/2-6 {
		t.Errorf("ball y after second boundary = %g, want %g", y, tuning.SurfaceHeight/2-6)
	}
}
