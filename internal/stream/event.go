package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DataPrefix marks a record that carries an event.
const DataPrefix = "data: "

var (
	ErrNotData   = errors.New("record is not a data record")
	ErrMalformed = errors.New("malformed event payload")
)

// Kind is the closed set of event kinds the client understands.
type Kind int

const (
	KindUnknown Kind = iota
	KindPlanning
	KindSearching
	KindReflecting
	KindSynthesizing
	KindReport
	KindError
	KindDone
)

var kindNames = map[string]Kind{
	"planning":     KindPlanning,
	"searching":    KindSearching,
	"reflecting":   KindReflecting,
	"synthesizing": KindSynthesizing,
	"report":       KindReport,
	"error":        KindError,
	"done":         KindDone,
}

func (k Kind) String() string {
	switch k {
	case KindPlanning:
		return "planning"
	case KindSearching:
		return "searching"
	case KindReflecting:
		return "reflecting"
	case KindSynthesizing:
		return "synthesizing"
	case KindReport:
		return "report"
	case KindError:
		return "error"
	case KindDone:
		return "done"
	default:
		return "unknown"
	}
}

// Event is one unit of agent progress as sent by the backend.
type Event struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// Kind classifies e. Types the client does not know map to KindUnknown; the
// raw Type is kept on the event.
func (e Event) Kind() Kind {
	if k, ok := kindNames[e.Type]; ok {
		return k
	}
	return KindUnknown
}

// IsTrace reports whether e belongs in the reasoning trace.
func (e Event) IsTrace() bool {
	switch e.Kind() {
	case KindReport, KindError, KindDone:
		return false
	default:
		return true
	}
}

// ParseRecord extracts the event from one framed record.
func ParseRecord(record string) (Event, error) {
	if !strings.HasPrefix(record, DataPrefix) {
		return Event{}, ErrNotData
	}
	var ev *Event
	if err := json.Unmarshal([]byte(record[len(DataPrefix):]), &ev); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if ev == nil {
		return Event{}, fmt.Errorf("%w: null event", ErrMalformed)
	}
	return *ev, nil
}

// Encode renders ev as a framed record, delimiter included.
func Encode(ev Event) ([]byte, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(DataPrefix)+len(payload)+len(Delimiter))
	out = append(out, DataPrefix...)
	out = append(out, payload...)
	out = append(out, Delimiter...)
	return out, nil
}
