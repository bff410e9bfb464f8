package execution

import (
	"context"
	"log/slog"
	"sync"

	"powerbroker/internal/strategy"
)

// Sink delivers orders to the wholesale market.
type Sink interface {
	Send(ctx context.Context, o strategy.Order) error
}

// LogSink writes every order to the log and accepts it.
type LogSink struct{}

func (LogSink) Send(_ context.Context, o strategy.Order) error {
	attrs := []any{
		"id", o.ID,
		"timeslot", o.Timeslot,
		"mwh", o.MWh,
		"strategy", o.Strategy,
	}
	if o.LimitPrice != nil {
		attrs = append(attrs, "limit", *o.LimitPrice)
	} else {
		attrs = append(attrs, "limit", "market")
	}
	slog.Info("order out", attrs...)
	return nil
}

// MemorySink keeps every order it receives.
type MemorySink struct {
	mu     sync.Mutex
	orders []strategy.Order
}

func (s *MemorySink) Send(_ context.Context, o strategy.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, o)
	return nil
}

// Orders returns a copy of everything sent so far.
func (s *MemorySink) Orders() []strategy.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]strategy.Order, len(s.orders))
	copy(out, s.orders)
	return out
}
