package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tomz197/bounce/internal/config"
	"github.com/tomz197/bounce/internal/logging"
	"github.com/tomz197/bounce/internal/loop"
	"github.com/tomz197/bounce/internal/web"
)

const (
	defaultHost = "0.0.0.0"
	defaultPort = "8080"
)

//go:embed index.html
var htmlPage string

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(logging.Options{
		Path:    config.GetEnv("BOUNCE_LOG_FILE", "bounce-web.log"),
		Level:   config.GetEnv("BOUNCE_LOG_LEVEL", "info"),
		Console: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "log error: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync(log)

	tuning, err := config.LoadTuning(config.GetEnv("BOUNCE_TUNING", ""))
	if err != nil {
		log.Fatalw("load tuning", "error", err)
	}

	host := config.GetEnv("WEB_HOST", defaultHost)
	port := config.GetEnv("WEB_PORT", defaultPort)
	sshHost := config.GetEnv("SSH_DISPLAY_HOST", "your-server.com")

	page := strings.ReplaceAll(htmlPage, "{{.SSHHost}}", sshHost)
	page = strings.ReplaceAll(page, "{{.Width}}", fmt.Sprint(tuning.SurfaceWidth))
	page = strings.ReplaceAll(page, "{{.Height}}", fmt.Sprint(tuning.SurfaceHeight))

	ctx, cancelSessions := context.WithCancel(context.Background())
	defer cancelSessions()
	hub := loop.NewHub()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, page)
	})
	mux.Handle("/ws", web.NewHandler(web.HandlerOptions{
		Tuning:  tuning,
		Hub:     hub,
		Logger:  log,
		Context: ctx,
	}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "ok sessions=%d\n", hub.Len())
	})

	addr := net.JoinHostPort(host, port)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		log.Infow("starting web server", "url", "http://"+addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server error", "error", err)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-done
	log.Infow("shutting down server", "sessions", hub.Len())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("shutdown error", "error", err)
	}

	// Hijacked WebSocket connections outlive srv.Shutdown; close them via the hub.
	grace := time.Duration(config.GetEnvInt("SHUTDOWN_GRACE_SECONDS", 15)) * time.Second
	if !hub.Shutdown(grace) {
		log.Warnw("sessions still connected after shutdown grace period", "sessions", hub.Len())
	}
	cancelSessions()
}
