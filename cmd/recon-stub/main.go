package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"reconagent/internal/observability"
	"reconagent/internal/stub"
)

type stubConfig struct {
	addr     string
	delay    time.Duration
	logLevel string
}

func parseFlags(args []string) (stubConfig, error) {
	fs := flag.NewFlagSet("recon-stub", flag.ContinueOnError)
	cfg := stubConfig{}
	delayMS := envOrInt("RECON_STUB_DELAY_MS", 400)
	fs.StringVar(&cfg.addr, "addr", envOr("RECON_STUB_ADDR", ":8000"), "Listen address")
	fs.IntVar(&delayMS, "delay", delayMS, "Pause between streamed events in milliseconds")
	fs.StringVar(&cfg.logLevel, "log-level", envOr("RECON_LOG_LEVEL", "info"), "Log level (debug|info|warn|error)")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if delayMS < 0 {
		return cfg, fmt.Errorf("--delay must be >= 0, got %d", delayMS)
	}
	cfg.delay = time.Duration(delayMS) * time.Millisecond
	return cfg, nil
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return parsed
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "recon-stub: %v\n", err)
		os.Exit(2)
	}
	logger := observability.Setup(os.Stderr, observability.ParseLevel(cfg.logLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := stub.New(stub.WithDelay(cfg.delay)).Echo()
	errCh := make(chan error, 1)
	go func() {
		logger.Info("stub backend listening", "addr", cfg.addr, "delay", cfg.delay)
		errCh <- e.Start(cfg.addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("stub backend failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
		logger.Info("stub backend stopped")
	}
}
