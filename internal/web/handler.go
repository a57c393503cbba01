package web

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tomz197/bounce/internal/config"
	"github.com/tomz197/bounce/internal/logging"
	"github.com/tomz197/bounce/internal/loop"
)

// HandlerOptions configures a Handler.
type HandlerOptions struct {
	Tuning config.Tuning
	Hub    *loop.Hub
	Logger *zap.SugaredLogger
	// Context bounds every session started by the handler. Defaults to
	// context.Background().
	Context context.Context
	// CheckOrigin is passed to the upgrader. Nil allows every origin.
	CheckOrigin func(r *http.Request) bool
}

// Handler upgrades requests to WebSocket connections and runs one game
// session per connection.
type Handler struct {
	opts     HandlerOptions
	upgrader websocket.Upgrader
}

// NewHandler creates a WebSocket game handler.
func NewHandler(opts HandlerOptions) *Handler {
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	checkOrigin := opts.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Handler{
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// ServeHTTP implements http.Handler. The optional "name" query parameter
// labels the session in logs.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.opts.Logger.Warnw("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	sess := NewSession(ws, SessionOptions{
		Tuning:   h.opts.Tuning,
		Hub:      h.opts.Hub,
		Username: r.URL.Query().Get("name"),
		Logger:   h.opts.Logger,
	})
	go func() {
		if err := sess.Run(h.opts.Context); err != nil {
			h.opts.Logger.Errorw("web session failed", "remote", r.RemoteAddr, "error", err)
		}
	}()
}
