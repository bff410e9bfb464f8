package broker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"powerbroker/internal/performance"
	"powerbroker/internal/strategy"
)

// Activate runs one round: prune stale books, report the previous
// timeslot's forecast error, then size, price and send orders for every
// enabled timeslot. A failure in one target never blocks the others.
func (b *Broker) Activate(ctx context.Context, r Round) {
	start := time.Now()
	b.current = r.Current
	slog.Info("activate", "timeslot", r.Current, "enabled", len(r.Enabled))

	if n := b.market.Books.Prune(r.Enabled); n > 0 {
		slog.Debug("orderbooks pruned", "count", n)
	}
	b.positions.Prune(r.Current)

	b.logForecastErrors(r.Current - 1)

	solver := b.builder.Solver()
	runs := solver.Runs()

	for _, target := range r.Enabled {
		if err := b.activateTarget(ctx, r, target); err != nil {
			b.metrics.TargetFailures.Inc()
			slog.Error("failed to submit market orders",
				"timeslot", target,
				"current", r.Current,
				"error", err,
			)
		}
	}

	if solver.Runs() > runs {
		b.recordSolution(r.Current)
	}

	b.forecasts.Forget(r.Current - 1)
	b.metrics.ObserveRound(start)
	slog.Info("done activate", "timeslot", r.Current, "duration", time.Since(start))
}

func (b *Broker) activateTarget(ctx context.Context, r Round, target int) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic while bidding: %v", p)
		}
	}()

	need := b.need(target, r.Current)

	if b.cfg.Market.UseFudge && b.corrector != nil {
		if target == r.Current+1 {
			b.corrector.UpdateFinalPrediction(target, -need)
		}
		need += b.corrector.FudgeCorrection(r.Current)
	}

	if err := b.submit(ctx, need, target, r); err != nil {
		return err
	}

	lead := target - r.Current
	b.forecasts.Predict(target, lead, -need)
	if b.tracker != nil {
		if err := b.tracker.RecordPrediction(target, lead, -need); err != nil {
			slog.Error("failed to record prediction", "timeslot", target, "lead", lead, "error", err)
		}
	}
	return nil
}

// need returns the energy to buy for target in kWh.
func (b *Broker) need(target, current int) float64 {
	if b.cfg.Market.UseShiftPred {
		return b.predictor.ShiftedUsage(target, current)
	}
	return b.predictor.Usage(target % b.cfg.Market.RecordLength)
}

func (b *Broker) submit(ctx context.Context, needKWh float64, target int, r Round) error {
	mwh, ok := b.sizer.Size(target, r.Current, needKWh/1000.0)
	if !ok {
		slog.Info("no power required", "timeslot", target)
		return nil
	}

	req := strategy.Request{
		Target:  target,
		Current: r.Current,
		Enabled: r.Enabled,
		MWh:     mwh,
	}
	orders, err := b.builder.Orders(b.market, req)
	if err != nil {
		return fmt.Errorf("building orders for timeslot %d: %w", target, err)
	}
	if len(orders) == 0 {
		return nil
	}

	results := b.executor.Execute(ctx, r.Current, orders)
	var failed int
	for _, res := range results {
		if !res.Success {
			failed++
		}
	}
	slog.Debug("orders sent",
		"timeslot", target,
		"mwh", mwh,
		"orders", len(results),
		"failed", failed,
	)
	return nil
}

func (b *Broker) logForecastErrors(timeslot int) {
	errs := b.forecasts.Errors(timeslot)
	if len(errs) == 0 {
		return
	}

	leads := make([]int, 0, len(errs))
	for lead := range errs {
		leads = append(leads, lead)
	}
	sort.Ints(leads)

	attrs := []any{"timeslot", timeslot, "actual", b.forecasts.Actual(timeslot)}
	for _, lead := range leads {
		attrs = append(attrs, fmt.Sprintf("lead_%d", lead), errs[lead])
		b.metrics.SetForecastError(lead, errs[lead])
	}
	slog.Info("forecast error", attrs...)
}

func (b *Broker) recordSolution(current int) {
	solver := b.builder.Solver()
	b.metrics.DPRuns.Inc()
	b.metrics.DPStages.Set(float64(solver.Stages()))

	if b.tracker == nil {
		return
	}
	stages := make([]performance.SolverStage, 0, solver.Stages()+1)
	for k := 0; k <= solver.Stages(); k++ {
		v, err := solver.Value(k)
		if err != nil {
			break
		}
		a, err := solver.Action(k)
		if err != nil {
			break
		}
		stages = append(stages, performance.SolverStage{
			Stage:  k,
			Value:  v,
			Action: a.Kind.String(),
			Price:  a.Price,
		})
	}
	if err := b.tracker.RecordSolution(current, stages); err != nil {
		slog.Error("failed to record dp solution", "timeslot", current, "error", err)
	}
}
