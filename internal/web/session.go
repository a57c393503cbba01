package web

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tomz197/bounce/internal/config"
	"github.com/tomz197/bounce/internal/logging"
	"github.com/tomz197/bounce/internal/loop"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
	sendQueueSize  = 64
)

// SessionOptions configures a Session.
type SessionOptions struct {
	Tuning   config.Tuning // Zero value uses config.Default()
	Hub      *loop.Hub     // Optional
	Username string
	Rand     rand.Source
	Logger   *zap.SugaredLogger
}

// Session is one browser connection playing its own game. The game runs on
// the session's Host; the read pump posts decoded messages onto it and the
// write pump drains the send queue.
type Session struct {
	ws      *websocket.Conn
	send    chan []byte
	host    *loop.Host
	ctrl    *loop.Controller
	surface *frameSurface
	log     *zap.SugaredLogger

	hub    *loop.Hub
	handle *loop.Handle

	panelRevision    uint64
	shutdownDeadline time.Time

	dropped atomic.Int64 // Messages discarded because the send queue was full
}

// NewSession wraps an upgraded connection.
func NewSession(ws *websocket.Conn, opts SessionOptions) *Session {
	tuning := opts.Tuning
	if tuning == (config.Tuning{}) {
		tuning = config.Default()
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	log = log.With("remote", ws.RemoteAddr().String())
	if opts.Username != "" {
		log = log.With("user", opts.Username)
	}

	s := &Session{
		ws:      ws,
		send:    make(chan []byte, sendQueueSize),
		surface: &frameSurface{width: tuning.SurfaceWidth, height: tuning.SurfaceHeight},
		log:     log,
		hub:     opts.Hub,
	}
	s.host = loop.NewHost(loop.HostOptions{
		FrameTime:   tuning.FrameTime(),
		BeforeFrame: s.beforeFrame,
		AfterFrame:  s.afterFrame,
	})
	s.ctrl = loop.NewController(loop.ControllerOptions{
		Tuning:    tuning,
		Scheduler: s.host,
		Surface:   s.surface,
		Notifier:  loop.NotifierFunc(s.sessionEnded),
		Rand:      opts.Rand,
		Logger:    log,
	})
	s.ctrl.Redraw()

	if s.hub != nil {
		s.handle = s.hub.Register(opts.Username)
	}
	return s
}

// Run serves the connection until the browser goes away, the server shuts
// down or ctx is cancelled. The connection is closed on return.
func (s *Session) Run(ctx context.Context) error {
	if s.handle != nil {
		defer s.hub.Unregister(s.handle.ID)
	}

	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		s.writePump()
	}()
	go s.readPump()

	s.log.Infow("web session started")
	err := s.host.Run(ctx)
	s.ctrl.Reset()

	// The loop goroutine is the only sender, so closing here is safe.
	close(s.send)
	<-writeDone
	_ = s.ws.Close()

	s.log.Infow("web session ended", "dropped", s.dropped.Load())
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// enqueue queues v for the browser. Drops the message when the queue is full
// so a slow client can't stall the game loop.
func (s *Session) enqueue(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Errorw("encode message", "error", err)
		return
	}
	select {
	case s.send <- b:
	default:
		s.dropped.Add(1)
	}
}

// handleMessage applies one browser message. Runs on the loop goroutine.
func (s *Session) handleMessage(msg Inbound) {
	if !s.shutdownDeadline.IsZero() {
		return
	}
	switch msg.Type {
	case TypeKey:
		k, ok := directionKey(msg.Key)
		if !ok {
			return
		}
		if msg.Down {
			s.ctrl.KeyDown(k)
		} else {
			s.ctrl.KeyUp(k)
		}
	case TypeStart:
		s.ctrl.Start()
	case TypeReset:
		s.ctrl.Reset()
	case TypeVelocity:
		if s.ctrl.EditVelocity(loop.AxisX, msg.X) {
			s.ctrl.EditVelocity(loop.AxisY, msg.Y)
		}
	default:
		s.log.Debugw("unknown message type", "type", msg.Type)
	}
}

func (s *Session) sessionEnded(finalScore int) {
	s.enqueue(NoticeMessage{Type: TypeNotice, Text: loop.FinalScoreMessage(finalScore)})
}

func (s *Session) beforeFrame() {
	s.processHubEvents()
	if !s.shutdownDeadline.IsZero() && !time.Now().Before(s.shutdownDeadline) {
		s.host.Stop()
	}
}

// afterFrame sends whatever changed during the frame.
func (s *Session) afterFrame() {
	if s.surface.dirty {
		s.enqueue(s.surface.take())
	}
	if panel := s.ctrl.Panel(); panel.Revision != s.panelRevision {
		s.panelRevision = panel.Revision
		s.enqueue(newPanelMessage(panel))
	}
}

// processHubEvents handles events from the hub.
func (s *Session) processHubEvents() {
	if s.handle == nil {
		return
	}
	for {
		select {
		case event, ok := <-s.handle.EventsCh:
			if !ok {
				s.host.Stop()
				return
			}
			if event.Type == loop.EventServerShutdown && s.shutdownDeadline.IsZero() {
				s.ctrl.Reset()
				seconds := int(config.ShutdownDisplaySeconds)
				s.shutdownDeadline = time.Now().Add(time.Duration(seconds) * time.Second)
				s.enqueue(ShutdownMessage{Type: TypeShutdown, Seconds: seconds})
			}
		default:
			return
		}
	}
}

// writePump writes queued messages and keepalive pings until the send queue
// is closed or a write fails.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer s.ws.Close()

	for {
		select {
		case msg, ok := <-s.send:
			s.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.log.Debugw("write failed", "error", err)
				s.host.Stop()
				return
			}
		case <-ticker.C:
			s.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.host.Stop()
				return
			}
		}
	}
}

// readPump decodes browser messages and posts them onto the game loop. When
// the browser goes away it stops the loop.
func (s *Session) readPump() {
	defer s.host.Stop()

	s.ws.SetReadLimit(maxMessageSize)
	s.ws.SetReadDeadline(time.Now().Add(pongWait))
	s.ws.SetPongHandler(func(string) error {
		s.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := s.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debugw("read failed", "error", err)
			}
			return
		}
		msg, err := decodeInbound(payload)
		if err != nil {
			s.log.Debugw("bad message", "error", err)
			continue
		}
		s.host.Post(func() { s.handleMessage(msg) })
	}
}
