package stub

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reconagent/internal/research"
	"reconagent/internal/stream"
)

func TestStreamResearchWritesFramedEvents(t *testing.T) {
	srv := New(WithScript(func(topic string) []stream.Event {
		return []stream.Event{
			{Type: "planning", Content: "plan " + topic},
			{Type: "report", Content: "# " + topic},
		}
	}))
	e := srv.Echo()

	req := httptest.NewRequest(http.MethodPost, "/research/stream", strings.NewReader(`{"topic":"tides"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	var f stream.Framer
	records := f.Feed(rec.Body.Bytes())
	require.Len(t, records, 3)
	var kinds []stream.Kind
	for _, record := range records {
		ev, err := stream.ParseRecord(record)
		require.NoError(t, err)
		kinds = append(kinds, ev.Kind())
	}
	assert.Equal(t, []stream.Kind{stream.KindPlanning, stream.KindReport, stream.KindDone}, kinds)
}

func TestStreamResearchRejectsEmptyTopic(t *testing.T) {
	e := New().Echo()
	req := httptest.NewRequest(http.MethodPost, "/research/stream", strings.NewReader(`{"topic":"  "}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHistoryNewestFirstAndLimited(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	srv := New()
	srv.Seed("first", base)
	srv.Seed("second", base.Add(time.Minute))
	srv.Seed("third", base.Add(2*time.Minute))
	e := srv.Echo()

	req := httptest.NewRequest(http.MethodGet, "/research/history?limit=2", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		History []research.HistoryEntry `json:"history"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.History, 2)
	assert.Equal(t, "third", resp.History[0].Topic)
	assert.Equal(t, "second", resp.History[1].Topic)
	assert.Equal(t, "2026-03-01 12:02:00", resp.History[0].CreatedAt)
	assert.Equal(t, research.EntryID("3"), resp.History[0].ID)
}

func TestCompletedRunIsRecorded(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	srv := New(WithClock(func() time.Time { return now }))
	e := srv.Echo()

	req := httptest.NewRequest(http.MethodPost, "/research/stream", strings.NewReader(`{"topic":"coral reefs"}`))
	req.Header.Set("Content-Type", "application/json")
	e.ServeHTTP(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/research/history", nil))
	assert.Contains(t, rec.Body.String(), `"topic":"coral reefs"`)
	assert.Contains(t, rec.Body.String(), `"created_at":"2026-03-01 09:30:00"`)
}

func TestDefaultScriptEndsWithReport(t *testing.T) {
	events := DefaultScript("solar sails")
	require.NotEmpty(t, events)
	assert.Equal(t, stream.KindPlanning, events[0].Kind())
	assert.Equal(t, stream.KindReport, events[len(events)-1].Kind())
	assert.Contains(t, events[len(events)-1].Content, "# solar sails")
}
