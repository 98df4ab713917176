// Package stub serves the research backend's HTTP contract with scripted
// events, for running the client without the real agent.
package stub

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"reconagent/internal/observability"
	"reconagent/internal/research"
	"reconagent/internal/stream"
)

const (
	maxHistoryLimit = 100
	sqliteLayout    = "2006-01-02 15:04:05"
)

// Script produces the events for one run. The server appends the trailing
// done event itself.
type Script func(topic string) []stream.Event

type streamRequest struct {
	Topic string `json:"topic"`
}

// Server is an in-memory stand-in for the research backend.
type Server struct {
	script Script
	delay  time.Duration
	now    func() time.Time

	mu      sync.Mutex
	nextID  int64
	history []research.HistoryEntry
}

type Option func(*Server)

// WithScript replaces DefaultScript.
func WithScript(script Script) Option {
	return func(s *Server) { s.script = script }
}

// WithDelay pauses between events.
func WithDelay(delay time.Duration) Option {
	return func(s *Server) { s.delay = delay }
}

// WithClock overrides the timestamp source for history entries.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func New(opts ...Option) *Server {
	s := &Server{
		script: DefaultScript,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Echo builds the HTTP server.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	s.RegisterRoutes(e)
	return e
}

func (s *Server) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/research")
	g.GET("/history", s.GetHistory)
	g.POST("/stream", s.StreamResearch)
}

// GetHistory lists recorded runs, newest first.
// GET /research/history?limit=N
func (s *Server) GetHistory(c echo.Context) error {
	limit := 20
	if l := c.QueryParam("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 {
			limit = val
		}
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	s.mu.Lock()
	out := make([]research.HistoryEntry, 0, limit)
	for i := len(s.history) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.history[i])
	}
	s.mu.Unlock()

	return c.JSON(http.StatusOK, map[string]any{"history": out})
}

// StreamResearch replays the script for the requested topic.
// POST /research/stream
func (s *Server) StreamResearch(c echo.Context) error {
	var req streamRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "topic is required"})
	}

	ctx := c.Request().Context()
	log := observability.WithFields(
		"request_id", c.Request().Header.Get(echo.HeaderXRequestID),
		"topic", topic,
	)

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)

	write := func(ev stream.Event) error {
		frame, err := stream.Encode(ev)
		if err != nil {
			return err
		}
		if _, err := res.Write(frame); err != nil {
			return err
		}
		res.Flush()
		return nil
	}

	var report string
	for _, ev := range s.script(topic) {
		if s.delay > 0 {
			select {
			case <-ctx.Done():
				log.Info("client disconnected during stream")
				return nil
			case <-time.After(s.delay):
			}
		}
		if ctx.Err() != nil {
			log.Info("client disconnected during stream")
			return nil
		}
		if err := write(ev); err != nil {
			log.Info("stream write failed", "error", err)
			return nil
		}
		if ev.Kind() == stream.KindReport {
			report = ev.Content
		}
	}
	if report != "" {
		s.record(topic)
	}
	if err := write(stream.Event{Type: "done"}); err != nil {
		log.Info("stream write failed", "error", err)
	}
	return nil
}

func (s *Server) record(topic string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.history = append(s.history, research.HistoryEntry{
		ID:        research.EntryID(strconv.FormatInt(s.nextID, 10)),
		Topic:     topic,
		CreatedAt: s.now().UTC().Format(sqliteLayout),
	})
}

// Seed adds a history entry directly.
func (s *Server) Seed(topic string, createdAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.history = append(s.history, research.HistoryEntry{
		ID:        research.EntryID(strconv.FormatInt(s.nextID, 10)),
		Topic:     topic,
		CreatedAt: createdAt.UTC().Format(sqliteLayout),
	})
}

// DefaultScript walks through each reasoning phase and ends with a report.
func DefaultScript(topic string) []stream.Event {
	queries := []string{
		topic + " overview",
		topic + " recent developments",
		topic + " open problems",
	}
	events := []stream.Event{
		{Type: "planning", Content: "Planning research strategy for: " + topic},
		{Type: "planning", Content: fmt.Sprintf("Generated %d search queries:", len(queries))},
	}
	for _, q := range queries {
		events = append(events, stream.Event{Type: "planning", Content: fmt.Sprintf("  → %q", q)})
	}
	events = append(events, stream.Event{Type: "searching", Content: fmt.Sprintf("Executing %d web searches...", len(queries))})
	for _, q := range queries {
		events = append(events,
			stream.Event{Type: "searching", Content: fmt.Sprintf("Searching: %q", q)},
			stream.Event{Type: "searching", Content: "  → Found 5 results"},
		)
	}
	events = append(events,
		stream.Event{Type: "searching", Content: fmt.Sprintf("Total results gathered: %d", 5*len(queries))},
		stream.Event{Type: "reflecting", Content: fmt.Sprintf("Evaluating %d search results for adequacy...", 5*len(queries))},
		stream.Event{Type: "reflecting", Content: "Results are sufficient: stub data covers the topic"},
		stream.Event{Type: "synthesizing", Content: fmt.Sprintf("Synthesizing report from %d unique sources...", 5*len(queries))},
		stream.Event{Type: "synthesizing", Content: "Report complete."},
		stream.Event{Type: "report", Content: stubReport(topic, queries)},
	)
	return events
}

func stubReport(topic string, queries []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", topic)
	b.WriteString("## Summary\n\nThis report was produced by the stub backend.\n\n")
	b.WriteString("## Queries\n\n")
	for _, q := range queries {
		fmt.Fprintf(&b, "- `%s`\n", q)
	}
	b.WriteString("\n| phase | events |\n|---|---|\n| planning | 5 |\n| searching | 8 |\n")
	return b.String()
}
