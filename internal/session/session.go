// Package session owns the client's view state and the lifecycle of the
// single active research run.
package session

import (
	"context"
	"errors"
	"strings"

	"reconagent/internal/research"
	"reconagent/internal/stream"
)

// RunID identifies one run. The zero value never names an active run.
type RunID uint64

// Phase is the run lifecycle state. A finished run is Idle again.
type Phase int

const (
	Idle Phase = iota
	Running
)

func (p Phase) String() string {
	if p == Running {
		return "running"
	}
	return "idle"
}

// Effect tells the caller what a delivered event changed.
type Effect struct {
	// Stale is set when the event belonged to a run that is no longer active
	// and was dropped.
	Stale          bool
	TraceAppended  bool
	ReportChanged  bool
	ErrorChanged   bool
	Finished       bool
	RefreshHistory bool
}

// Session is the single state container behind the UI. It is not safe for
// concurrent use; the UI loop is its only writer.
type Session struct {
	topic   string
	phase   Phase
	active  RunID
	lastID  RunID
	trace   []stream.Event
	report  string
	errText string
	history []research.HistoryEntry
}

func New() *Session {
	return &Session{}
}

// Begin resets run state for topic and makes a fresh run active. Any earlier
// run becomes stale.
func (s *Session) Begin(topic string) RunID {
	s.lastID++
	s.active = s.lastID
	s.topic = strings.TrimSpace(topic)
	s.phase = Running
	s.trace = nil
	s.report = ""
	s.errText = ""
	return s.active
}

// Deliver applies one event from run id.
func (s *Session) Deliver(id RunID, ev stream.Event) Effect {
	if id == 0 || id != s.active {
		return Effect{Stale: true}
	}
	switch ev.Kind() {
	case stream.KindDone:
		s.phase = Idle
		return Effect{Finished: true, RefreshHistory: true}
	case stream.KindReport:
		s.report = ev.Content
		return Effect{ReportChanged: true}
	case stream.KindError:
		s.errText = ev.Content
		return Effect{ErrorChanged: true}
	case stream.KindPlanning, stream.KindSearching, stream.KindReflecting, stream.KindSynthesizing, stream.KindUnknown:
		s.trace = append(s.trace, ev)
		return Effect{TraceAppended: true}
	default:
		return Effect{}
	}
}

// End closes run id after its stream stopped. Cancellation is not an error.
func (s *Session) End(id RunID, err error) Effect {
	if id == 0 || id != s.active {
		return Effect{Stale: true}
	}
	eff := Effect{Finished: s.phase == Running}
	s.phase = Idle
	if err != nil && !IsCanceled(err) {
		s.errText = err.Error()
		eff.ErrorChanged = true
	}
	return eff
}

// Cancel stops tracking the active run. Events still in flight for it will be
// reported as stale.
func (s *Session) Cancel() RunID {
	id := s.active
	s.active = 0
	s.phase = Idle
	return id
}

func (s *Session) SetHistory(entries []research.HistoryEntry) {
	s.history = entries
}

func (s *Session) Topic() string { return s.topic }
func (s *Session) Phase() Phase { return s.phase }
func (s *Session) Running() bool { return s.phase == Running }
func (s *Session) ActiveRun() RunID { return s.active }
func (s *Session) Report() string { return s.report }
func (s *Session) Err() string { return s.errText }
func (s *Session) TraceLen() int { return len(s.trace) }
func (s *Session) HistoryLen() int { return len(s.history) }
func (s *Session) HasHistory() bool { return len(s.history) > 0 }

// Trace returns a copy of every event appended this run, including events
// that arrived after an error.
func (s *Session) Trace() []stream.Event {
	return append([]stream.Event(nil), s.trace...)
}

// History returns a copy of the last fetched history.
func (s *Session) History() []research.HistoryEntry {
	return append([]research.HistoryEntry(nil), s.history...)
}

// ShowTrace reports whether the trace panel is rendered: something to show
// and no error.
func (s *Session) ShowTrace() bool {
	return (len(s.trace) > 0 || s.phase == Running) && s.errText == ""
}

// VisibleTrace is the trace as displayed; empty while an error is set.
func (s *Session) VisibleTrace() []stream.Event {
	if s.errText != "" {
		return nil
	}
	return s.Trace()
}

// IsCanceled reports whether err comes from a user cancellation.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
