package strategy

import (
	"log/slog"
	"math"

	"powerbroker/internal/config"
)

// BalancingSell prices surplus between what balancing would pay us and what
// a short opponent would pay balancing, walking down to the former as the
// auction closes.
type BalancingSell struct {
	cfg config.PolicyConfig
}

func NewBalancingSell(cfg config.PolicyConfig) *BalancingSell {
	return &BalancingSell{cfg: cfg}
}

func (s *BalancingSell) Name() string { return "balancing-sell" }

func (s *BalancingSell) Orders(m *Market, req Request) ([]Order, error) {
	if req.MWh > 0 {
		slog.Error("balancing sell called with a positive need", "timeslot", req.Target, "mwh", req.MWh)
		return nil, nil
	}

	buyBalancing := m.Stats.MeanShortBalancingPrice()
	sellBalancing := m.Stats.MeanSurplusBalancingPrice()

	floor := math.Max(0, sellBalancing)
	// An opponent's short price is assumed to match ours.
	ceiling := -buyBalancing

	var limit float64
	if ceiling > floor {
		remaining := (req.Target - 1) - req.Current
		step := (ceiling - floor) / float64(s.cfg.SellPriceSteps)
		limit = floor + step*float64(remaining)
	} else {
		limit = floor
	}

	slog.Info("balancing sell",
		"timeslot", req.Target,
		"mwh", req.MWh,
		"floor", floor,
		"ceiling", ceiling,
		"limit", limit,
	)
	return tag([]Order{limitOrder(req.Target, req.MWh, limit)}, s.Name()), nil
}
