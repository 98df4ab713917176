package session

import (
	"context"
	"sync"

	"reconagent/internal/research"
	"reconagent/internal/stream"
)

const runBufferSize = 64

// StreamFunc performs one streaming request. research.Client.Stream
// satisfies it.
type StreamFunc func(ctx context.Context, topic string, handler research.EventHandler) error

// Msg is what a run reports back to the UI loop.
type Msg interface {
	RunID() RunID
}

// EventMsg carries one event of a run, in arrival order.
type EventMsg struct {
	Run   RunID
	Event stream.Event
}

// EndMsg is the last message of a run that was not cancelled.
type EndMsg struct {
	Run RunID
	Err error
}

func (m EventMsg) RunID() RunID { return m.Run }
func (m EndMsg) RunID() RunID { return m.Run }

// Runner keeps at most one stream in flight. Starting a run tears the
// previous one down first.
type Runner struct {
	stream StreamFunc

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRunner(fn StreamFunc) *Runner {
	return &Runner{stream: fn}
}

// Start cancels any run in flight, waits for its goroutine to exit, and then
// streams topic as run id. The returned channel yields the run's messages and
// is closed when the run is over.
func (r *Runner) Start(parent context.Context, id RunID, topic string) <-chan Msg {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()

	ctx, cancel := context.WithCancel(parent)
	out := make(chan Msg, runBufferSize)
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done

	go func() {
		defer close(out)
		defer close(done)
		defer cancel()
		err := r.stream(ctx, topic, func(ev stream.Event) error {
			select {
			case out <- EventMsg{Run: id, Event: ev}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if ctx.Err() != nil {
			return
		}
		select {
		case out <- EndMsg{Run: id, Err: err}:
		case <-ctx.Done():
		}
	}()
	return out
}

// Cancel aborts the run in flight, if any, and waits for it to stop.
// Buffered messages of that run are abandoned with its channel.
func (r *Runner) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

// Active reports whether a run goroutine is still alive.
func (r *Runner) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done == nil {
		return false
	}
	select {
	case <-r.done:
		return false
	default:
		return true
	}
}

func (r *Runner) stopLocked() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.cancel = nil
	r.done = nil
}
