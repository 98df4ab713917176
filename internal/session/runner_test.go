package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reconagent/internal/research"
	"reconagent/internal/stream"
)

func drain(t *testing.T, ch <-chan Msg) []Msg {
	t.Helper()
	var msgs []Msg
	timeout := time.After(5 * time.Second)
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return msgs
			}
			msgs = append(msgs, msg)
		case <-timeout:
			t.Fatalf("run channel was not closed")
		}
	}
}

func TestRunnerDeliversEventsThenEnd(t *testing.T) {
	r := NewRunner(func(ctx context.Context, topic string, handler research.EventHandler) error {
		for _, typ := range []string{"planning", "report", "done"} {
			if err := handler(stream.Event{Type: typ, Content: topic}); err != nil {
				return err
			}
		}
		return nil
	})

	msgs := drain(t, r.Start(context.Background(), 7, "bees"))
	require.Len(t, msgs, 4)
	for i, typ := range []string{"planning", "report", "done"} {
		got, ok := msgs[i].(EventMsg)
		require.True(t, ok)
		assert.Equal(t, RunID(7), got.RunID())
		assert.Equal(t, typ, got.Event.Type)
		assert.Equal(t, "bees", got.Event.Content)
	}
	end, ok := msgs[3].(EndMsg)
	require.True(t, ok)
	assert.NoError(t, end.Err)
	assert.False(t, r.Active())
}

func TestRunnerReportsStreamErrors(t *testing.T) {
	boom := errors.New("HTTP 500: Internal Server Error")
	r := NewRunner(func(ctx context.Context, topic string, handler research.EventHandler) error {
		return boom
	})
	msgs := drain(t, r.Start(context.Background(), 1, "t"))
	require.Len(t, msgs, 1)
	assert.Equal(t, EndMsg{Run: 1, Err: boom}, msgs[0])
}

func TestRunnerCancelStopsDelivery(t *testing.T) {
	gate := make(chan struct{})
	r := NewRunner(func(ctx context.Context, topic string, handler research.EventHandler) error {
		for i := 1; i <= 5; i++ {
			if i == 3 {
				select {
				case <-gate:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if err := handler(stream.Event{Type: "searching", Content: fmt.Sprint(i)}); err != nil {
				return err
			}
		}
		return nil
	})

	s := New()
	id := s.Begin("t")
	ch := r.Start(context.Background(), id, "t")
	for i := 0; i < 2; i++ {
		msg := <-ch
		s.Deliver(id, msg.(EventMsg).Event)
	}

	r.Cancel()
	s.Cancel()
	close(gate)
	assert.False(t, r.Active())

	// Anything still buffered is stale to the session.
	for msg := range ch {
		if em, ok := msg.(EventMsg); ok {
			assert.True(t, s.Deliver(em.Run, em.Event).Stale)
		}
	}
	assert.False(t, s.Running())
	assert.Equal(t, []stream.Event{
		{Type: "searching", Content: "1"},
		{Type: "searching", Content: "2"},
	}, s.Trace())
}

func TestRunnerStartTearsDownPreviousRunFirst(t *testing.T) {
	var mu sync.Mutex
	var log []string
	record := func(line string) {
		mu.Lock()
		defer mu.Unlock()
		log = append(log, line)
	}

	started := make(chan struct{})
	r := NewRunner(func(ctx context.Context, topic string, handler research.EventHandler) error {
		record("start " + topic)
		if topic == "first" {
			_ = handler(stream.Event{Type: "planning", Content: "first-a"})
			close(started)
			<-ctx.Done()
			record("stop first")
			return ctx.Err()
		}
		return handler(stream.Event{Type: "planning", Content: topic + "-a"})
	})

	s := New()
	firstID := s.Begin("first")
	firstCh := r.Start(context.Background(), firstID, "first")
	<-started

	secondID := s.Begin("second")
	secondCh := r.Start(context.Background(), secondID, "second")

	for msg := range firstCh {
		if em, ok := msg.(EventMsg); ok {
			s.Deliver(em.Run, em.Event)
		}
	}
	for _, msg := range drain(t, secondCh) {
		switch m := msg.(type) {
		case EventMsg:
			s.Deliver(m.Run, m.Event)
		case EndMsg:
			s.End(m.Run, m.Err)
		}
	}

	mu.Lock()
	assert.Equal(t, []string{"start first", "stop first", "start second"}, log)
	mu.Unlock()
	assert.Equal(t, []stream.Event{{Type: "planning", Content: "second-a"}}, s.Trace())
}

func TestRunnerCancelWithoutRunIsNoop(t *testing.T) {
	r := NewRunner(func(context.Context, string, research.EventHandler) error { return nil })
	r.Cancel()
	assert.False(t, r.Active())
}
