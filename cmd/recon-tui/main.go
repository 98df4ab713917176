package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"reconagent/internal/observability"
	"reconagent/internal/research"
)

const (
	defaultBaseURL     = "http://127.0.0.1:8000"
	defaultTitle       = "ReconAgent"
	defaultGlamourDark = "dark"
)

type appConfig struct {
	baseURL      string
	historyLimit int
	topic        string
	plain        bool
	altScreen    bool
	logFile      string
	logLevel     slog.Level
	glamourStyle string
}

func parseFlags(args []string) (appConfig, error) {
	fs := flag.NewFlagSet("recon-tui", flag.ContinueOnError)
	cfg := appConfig{}
	logLevel := envOr("RECON_LOG_LEVEL", "info")
	fs.StringVar(&cfg.baseURL, "base-url", envOr("RECON_BASE_URL", defaultBaseURL), "Research backend base URL")
	fs.IntVar(&cfg.historyLimit, "history-limit", envOrInt("RECON_HISTORY_LIMIT", research.DefaultHistoryLimit), "Recent searches to fetch")
	fs.StringVar(&cfg.topic, "topic", "", "Topic to research (prefills the input; required in plain mode)")
	fs.BoolVar(&cfg.plain, "plain", envOrBool("RECON_PLAIN", false), "Print the run as plain lines instead of the interactive UI")
	fs.BoolVar(&cfg.altScreen, "alt-screen", true, "Use alternate screen buffer")
	fs.StringVar(&cfg.logFile, "log-file", envOr("RECON_LOG_FILE", ""), "Append structured logs to this file")
	fs.StringVar(&logLevel, "log-level", logLevel, "Log level (debug|info|warn|error)")
	fs.StringVar(&cfg.glamourStyle, "report-style", envOr("RECON_REPORT_STYLE", defaultGlamourDark), "Markdown style for the report (dark|light|notty|ascii|dracula)")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	cfg.baseURL = strings.TrimSuffix(strings.TrimSpace(cfg.baseURL), "/")
	if cfg.baseURL == "" {
		cfg.baseURL = defaultBaseURL
	}
	cfg.historyLimit = clampInt(cfg.historyLimit, 1, 100)
	cfg.topic = strings.TrimSpace(cfg.topic)
	cfg.logLevel = observability.ParseLevel(logLevel)
	cfg.glamourStyle = nullCoalesce(strings.TrimSpace(cfg.glamourStyle), defaultGlamourDark)
	if cfg.plain && cfg.topic == "" {
		return cfg, fmt.Errorf("--plain requires --topic")
	}
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
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if value == "" {
		return fallback
	}
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "recon-tui: %v\n", err)
		os.Exit(2)
	}

	closeLog, err := observability.SetupFile(cfg.logFile, cfg.logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "recon-tui: open log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := research.NewClient(cfg.baseURL, nil)

	if !cfg.plain && !term.IsTerminal(int(os.Stdout.Fd())) {
		if cfg.topic == "" {
			fmt.Fprintln(os.Stderr, "recon-tui: stdout is not a TTY; pass --topic to run in plain mode")
			os.Exit(2)
		}
		cfg.plain = true
	}

	if cfg.plain {
		if err := runPlain(ctx, cfg, client, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "recon-tui: %v\n", err)
			os.Exit(1)
		}
		return
	}

	opts := []tea.ProgramOption{tea.WithMouseCellMotion(), tea.WithContext(ctx)}
	if cfg.altScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	m := newModel(ctx, cfg, client)
	defer m.runner.Cancel()
	p := tea.NewProgram(m, opts...)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "recon-tui fatal error: %v\n", err)
		os.Exit(1)
	}
}
