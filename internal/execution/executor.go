package execution

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"powerbroker/internal/metrics"
	"powerbroker/internal/strategy"
)

// Executor sends orders, remembering each as the last order for its
// timeslot, and records them in the diagnostics store.
type Executor struct {
	sink    Sink
	db      *sql.DB
	last    *strategy.LastOrders
	metrics *metrics.Metrics
}

// NewExecutor creates an executor. db may be nil.
func NewExecutor(sink Sink, db *sql.DB, last *strategy.LastOrders, m *metrics.Metrics) *Executor {
	return &Executor{sink: sink, db: db, last: last, metrics: m}
}

// ExecutionResult records what happened when an order was sent.
type ExecutionResult struct {
	Order   strategy.Order
	Success bool
	Error   error
}

// Execute sends orders placed during round current.
func (e *Executor) Execute(ctx context.Context, current int, orders []strategy.Order) []ExecutionResult {
	results := make([]ExecutionResult, 0, len(orders))
	for _, o := range orders {
		results = append(results, e.executeSingle(ctx, current, o))
	}
	return results
}

func (e *Executor) executeSingle(ctx context.Context, current int, o strategy.Order) ExecutionResult {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}

	// Stored before sending so a transaction arriving right after the send
	// finds it.
	e.last.Set(o)

	if err := e.sink.Send(ctx, o); err != nil {
		e.metrics.SendFailures.Inc()
		slog.Error("order send failed",
			"id", o.ID,
			"timeslot", o.Timeslot,
			"mwh", o.MWh,
			"error", err,
		)
		return ExecutionResult{Order: o, Success: false, Error: err}
	}
	e.metrics.ObserveOrder(o.Strategy, o.MWh)

	if e.db != nil {
		if err := e.recordOrder(current, o); err != nil {
			slog.Error("failed to record order in db", "id", o.ID, "error", err)
		}
	}

	return ExecutionResult{Order: o, Success: true}
}

func (e *Executor) recordOrder(current int, o strategy.Order) error {
	_, err := e.db.Exec(`
		INSERT INTO orders (id, timeslot, placed_timeslot, mwh, limit_price, strategy)
		VALUES (?, ?, ?, ?, ?, ?)`,
		o.ID.String(),
		o.Timeslot,
		current,
		o.MWh,
		o.LimitPrice,
		o.Strategy,
	)
	if err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}
	return nil
}
