package strategy

import (
	"log/slog"

	"powerbroker/internal/config"
	"powerbroker/internal/market"
)

// Dynamic prices buy orders from the lead-time DP solution once enough
// clearing history exists, and explores until then.
type Dynamic struct {
	cfg     config.MarketConfig
	solver  *Solver
	explore Strategy
}

func NewDynamic(cfg config.MarketConfig, solver *Solver, explore Strategy) *Dynamic {
	return &Dynamic{cfg: cfg, solver: solver, explore: explore}
}

func (d *Dynamic) Name() string { return "dp13" }

func (d *Dynamic) Orders(m *Market, req Request) ([]Order, error) {
	if !m.Groups.Ready(req.Current, req.Enabled, d.cfg.MinSampleSize, m.Stats.ShortSamples()) {
		slog.Debug("dp not ready, exploring", "timeslot", req.Target, "strategy", d.explore.Name())
		return d.explore.Orders(m, req)
	}

	d.solver.Solve(m, req.Current)
	stage := market.GroupIndex(req.Current+1, req.Target)

	orders, err := d.tiers(m, req, stage)
	if err != nil {
		return nil, err
	}
	return tag(withMargin(orders, d.cfg.BidMargin), d.Name()), nil
}

func (d *Dynamic) tiers(m *Market, req Request, stage int) ([]Order, error) {
	switch {
	case d.cfg.NumStairs > 2:
		orders, err := d.stairs(m, req, stage)
		if err == nil {
			return orders, nil
		}
		slog.Error("dp cannot build staircase, trying two tiers", "timeslot", req.Target, "error", err)
		return d.twoTiers(m, req, stage)
	case d.cfg.NumStairs == 2:
		return d.twoTiers(m, req, stage)
	default:
		lower, err := d.solver.BestActionWithMargin(stage)
		if err != nil {
			return nil, err
		}
		return []Order{limitOrder(req.Target, req.MWh, lower)}, nil
	}
}

// stairs uses the stage's best action first and then the state values of
// every later stage down to balancing.
func (d *Dynamic) stairs(m *Market, req Request, stage int) ([]Order, error) {
	first, err := d.solver.BestActionWithMargin(stage)
	if err != nil {
		return nil, err
	}
	limits := []float64{first}
	for i := stage - 1; i >= 0; i-- {
		v, err := d.solver.Value(i)
		if err != nil {
			return nil, err
		}
		limits = append(limits, v)
	}
	return staircase(req.Target, req.MWh, m.MinMWh, limits)
}

func (d *Dynamic) twoTiers(m *Market, req Request, stage int) ([]Order, error) {
	lower, err := d.solver.BestActionWithMargin(stage)
	if err != nil {
		return nil, err
	}
	upper, err := d.solver.Value(stage - 1)
	if err != nil {
		return nil, err
	}
	return twoTier(req.Target, req.MWh, m.MinMWh, lower, upper), nil
}

// withMargin shifts every limit order's price down by margin. Market
// orders are kept as they are.
func withMargin(orders []Order, margin float64) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if o.LimitPrice != nil {
			o = limitOrder(o.Timeslot, o.MWh, *o.LimitPrice-margin)
		}
		out = append(out, o)
	}
	return out
}

func tag(orders []Order, name string) []Order {
	for i := range orders {
		orders[i].Strategy = name
	}
	return orders
}
