// Package backtest replays a recorded game, one JSON event per line,
// through the broker agent.
package backtest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"

	"powerbroker/internal/broker"
	"powerbroker/internal/usage"
)

const maxLineBytes = 4 << 20

// Runner feeds replay events to an agent and forecasts to the usage table
// the agent's broker predicts from.
type Runner struct {
	agent *broker.Agent
	table *usage.Table
}

func NewRunner(agent *broker.Agent, table *usage.Table) *Runner {
	return &Runner{agent: agent, table: table}
}

// Result summarizes a replay.
type Result struct {
	Lines     int
	Events    int
	Rounds    int
	Forecasts int
	Skipped   int
	Final     broker.Snapshot
}

// Run replays r until EOF. Malformed lines are logged and skipped.
func (rn *Runner) Run(ctx context.Context, r io.Reader) (*Result, error) {
	res := &Result{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		line := scanner.Bytes()
		res.Lines++
		if len(line) == 0 {
			continue
		}

		ev, forecast, err := Decode(line)
		if err != nil {
			res.Skipped++
			slog.Warn("skipping replay line", "line", res.Lines, "error", err)
			continue
		}

		if forecast != nil {
			// Forecasts reach the table through the agent so they are ordered
			// with the rounds that read them.
			f := *forecast
			if err := rn.agent.Query(ctx, func(*broker.Broker) { rn.table.Set(f.Timeslot, f.KWh) }); err != nil {
				return res, fmt.Errorf("applying forecast at line %d: %w", res.Lines, err)
			}
			res.Forecasts++
			continue
		}

		if err := rn.agent.Submit(ctx, ev); err != nil {
			return res, fmt.Errorf("submitting event at line %d: %w", res.Lines, err)
		}
		res.Events++
		if _, ok := ev.(broker.Round); ok {
			res.Rounds++
		}
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("reading replay: %w", err)
	}

	snap, err := rn.agent.Snapshot(ctx)
	if err != nil {
		return res, fmt.Errorf("final snapshot: %w", err)
	}
	res.Final = snap

	slog.Info("=== REPLAY RESULTS ===",
		"lines", res.Lines,
		"events", res.Events,
		"rounds", res.Rounds,
		"forecasts", res.Forecasts,
		"skipped", res.Skipped,
		"solver_runs", snap.SolverRuns,
		"mean_price", snap.MeanPrice,
	)
	return res, nil
}
