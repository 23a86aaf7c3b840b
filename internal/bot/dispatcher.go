package bot

import (
	"context"
	"log/slog"
	"sync"

	"github.com/yomasupply/supplierbot/internal/models"
)

// DefaultQueueSize is the per-user event queue depth. Conversations move at
// human pace, so a small buffer is plenty.
const DefaultQueueSize = 16

// Handler processes one inbound event to completion.
type Handler interface {
	HandleEvent(ctx context.Context, ev models.Event) error
}

// Dispatcher fans inbound events out to per-user workers. Events for the same
// user are processed in order, one at a time, because the conversation state
// machine is not reentrant within a session; different users run concurrently.
type Dispatcher struct {
	handler Handler
	events  <-chan models.Event

	mu     sync.Mutex
	queues map[int64]chan models.Event
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher feeding the given handler.
func NewDispatcher(handler Handler, events <-chan models.Event) *Dispatcher {
	return &Dispatcher{
		handler: handler,
		events:  events,
		queues:  make(map[int64]chan models.Event),
	}
}

// Run consumes events until the context is cancelled or the event channel
// closes, then waits for in-flight handlers to finish.
func (d *Dispatcher) Run(ctx context.Context) {
	slog.Info("dispatcher running")
	for {
		select {
		case <-ctx.Done():
			slog.Debug("dispatcher stopping on context cancellation")
			d.wg.Wait()
			return
		case ev, ok := <-d.events:
			if !ok {
				slog.Debug("dispatcher stopping on closed event channel")
				d.closeQueues()
				d.wg.Wait()
				return
			}
			d.dispatch(ctx, ev)
		}
	}
}

// dispatch enqueues the event on its user's queue, creating the worker lazily.
func (d *Dispatcher) dispatch(ctx context.Context, ev models.Event) {
	d.mu.Lock()
	q, ok := d.queues[ev.UserID]
	if !ok {
		q = make(chan models.Event, DefaultQueueSize)
		d.queues[ev.UserID] = q
		d.wg.Add(1)
		go d.worker(ctx, ev.UserID, q)
	}
	d.mu.Unlock()

	select {
	case q <- ev:
	default:
		slog.Warn("user event queue full, dropping event", "user_id", ev.UserID, "kind", ev.Kind)
	}
}

// closeQueues signals every worker to drain its remaining events and exit.
func (d *Dispatcher) closeQueues() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, q := range d.queues {
		close(q)
	}
	d.queues = make(map[int64]chan models.Event)
}

// worker drains one user's queue serially.
func (d *Dispatcher) worker(ctx context.Context, userID int64, q <-chan models.Event) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-q:
			if !ok {
				return
			}
			if err := d.handler.HandleEvent(ctx, ev); err != nil {
				slog.Error("event handler failed", "error", err, "user_id", userID, "kind", ev.Kind)
			}
		}
	}
}
