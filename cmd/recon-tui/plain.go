package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"reconagent/internal/observability"
	"reconagent/internal/research"
	"reconagent/internal/session"
)

// runPlain streams cfg.topic without the interactive UI, printing one line
// per trace event and the raw report markdown once the run finishes.
func runPlain(ctx context.Context, cfg appConfig, client *research.Client, out io.Writer) error {
	theme := newTheme()
	sess := session.New()
	runner := session.NewRunner(client.Stream)
	defer runner.Cancel()

	id := sess.Begin(cfg.topic)
	logger := observability.WithFields("topic", cfg.topic, "base_url", client.BaseURL())
	logger.Info("plain run started")

	// done ends the run even when the backend keeps the body open.
run:
	for msg := range runner.Start(ctx, id, cfg.topic) {
		switch rm := msg.(type) {
		case session.EventMsg:
			eff := sess.Deliver(rm.Run, rm.Event)
			if eff.TraceAppended && sess.Err() == "" {
				fmt.Fprintf(out, "%s %s\n", theme.traceFor(rm.Event.Kind()).icon, rm.Event.Content)
			}
			if eff.Finished {
				runner.Cancel()
				break run
			}
		case session.EndMsg:
			sess.End(rm.Run, rm.Err)
		}
	}

	if ctx.Err() != nil {
		logger.Info("plain run interrupted")
		return ctx.Err()
	}
	if errText := sess.Err(); errText != "" {
		logger.Warn("plain run failed", "error", errText)
		return errors.New(errText)
	}
	if report := sess.Report(); report != "" {
		fmt.Fprintf(out, "\n%s\n", report)
	}
	logger.Info("plain run finished", "trace_events", sess.TraceLen())
	return nil
}
