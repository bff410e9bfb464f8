package broker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"powerbroker/internal/performance"
)

// ErrStopped is returned when the agent no longer accepts messages.
var ErrStopped = errors.New("agent stopped")

type message struct {
	event Event
	query func(*Broker)
	done  chan struct{}
}

// Agent owns a Broker and processes events and queries one at a time on a
// single goroutine.
type Agent struct {
	broker         *Broker
	inbox          chan message
	stopped        chan struct{}
	reportInterval time.Duration
}

// NewAgent creates an agent with a buffered queue. A zero reportInterval
// disables periodic performance reports.
func NewAgent(b *Broker, queueSize int, reportInterval time.Duration) *Agent {
	return &Agent{
		broker:         b,
		inbox:          make(chan message, queueSize),
		stopped:        make(chan struct{}),
		reportInterval: reportInterval,
	}
}

// Submit queues an event, blocking while the queue is full.
func (a *Agent) Submit(ctx context.Context, ev Event) error {
	select {
	case a.inbox <- message{event: ev}:
		return nil
	case <-a.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Query runs fn on the agent goroutine after every previously submitted
// message and waits for it to finish.
func (a *Agent) Query(ctx context.Context, fn func(*Broker)) error {
	done := make(chan struct{})
	select {
	case a.inbox <- message{query: fn, done: done}:
	case <-a.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-a.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot queries the broker state.
func (a *Agent) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := a.Query(ctx, func(b *Broker) { snap = b.Snapshot() })
	return snap, err
}

// Run processes messages until ctx is cancelled.
func (a *Agent) Run(ctx context.Context) error {
	defer close(a.stopped)
	slog.Info("agent starting", "queue_size", cap(a.inbox), "report_interval", a.reportInterval)

	var reports <-chan time.Time
	if a.reportInterval > 0 {
		ticker := time.NewTicker(a.reportInterval)
		defer ticker.Stop()
		reports = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("agent shutting down", "pending", len(a.inbox))
			return ctx.Err()
		case msg := <-a.inbox:
			a.broker.metrics.QueueDepth.Set(float64(len(a.inbox)))
			a.dispatch(ctx, msg)
		case <-reports:
			a.report()
		}
	}
}

func (a *Agent) dispatch(ctx context.Context, msg message) {
	if msg.query != nil {
		msg.query(a.broker)
		close(msg.done)
		return
	}

	if err := a.broker.Handle(ctx, msg.event); err != nil {
		slog.Error("event handling failed", "kind", msg.event.Kind(), "error", err)
	}
}

func (a *Agent) report() {
	tracker := a.broker.Tracker()
	if tracker == nil {
		return
	}
	r, err := tracker.Generate()
	if err != nil {
		slog.Error("performance report failed", "error", err)
		return
	}
	performance.LogReport(r)
}
