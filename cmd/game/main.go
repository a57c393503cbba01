package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/tomz197/bounce/internal/config"
	"github.com/tomz197/bounce/internal/logging"
	"github.com/tomz197/bounce/internal/loop"
	"golang.org/x/term"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	tuning, err := config.LoadTuning(config.GetEnv("BOUNCE_TUNING", ""))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the game, so logs only go to the file.
	log, err := logging.New(logging.Options{
		Path:  config.GetEnv("BOUNCE_LOG_FILE", "bounce.log"),
		Level: config.GetEnv("BOUNCE_LOG_LEVEL", "info"),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "log error: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync(log)

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to enable raw mode: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	reader := bufio.NewReader(os.Stdin)
	t := loop.NewTerminal(reader, os.Stdout, loop.TerminalOptions{
		Tuning: tuning,
		Logger: log,
	})
	if err := t.Run(context.Background()); err != nil {
		_ = term.Restore(fd, oldState)
		fmt.Fprintf(os.Stderr, "game error: %v\n", err)
		os.Exit(1)
	}
}
