package strategy

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"powerbroker/internal/config"
)

// ExploreStairs probes the market with min-size bids spread between a
// cheap price and a balancing-anchored ceiling, and places the full need
// at that ceiling.
type ExploreStairs struct {
	cfg config.PolicyConfig
	rng *rand.Rand
}

func NewExploreStairs(cfg config.PolicyConfig, rng *rand.Rand) *ExploreStairs {
	return &ExploreStairs{cfg: cfg, rng: rng}
}

func (e *ExploreStairs) Name() string { return "explore-stairs" }

func (e *ExploreStairs) Orders(m *Market, req Request) ([]Order, error) {
	if req.MWh <= 0 {
		slog.Error("exploration stairs called for a sale", "timeslot", req.Target, "mwh", req.MWh)
		return nil, nil
	}

	balancing := math.Abs(m.Stats.MeanShortBalancingPrice())
	avg := math.Abs(m.Stats.MeanPricePerMWh())
	// The more expensive of 2x market and short balancing.
	upper := math.Min(-2*avg, -balancing)
	lower := e.cfg.ExplorationLowerBid

	slog.Debug("exploration stairs",
		"timeslot", req.Target,
		"balancing", balancing,
		"avg_market", avg,
		"upper", upper,
	)

	var orders []Order
	steps := e.cfg.ExplorationSteps
	if steps > 0 && upper < lower {
		delta := (upper - lower) / float64(steps)
		for limit, n := lower, 0; limit > upper && n <= steps; limit, n = limit+delta, n+1 {
			jittered := limit + 0.5*delta*e.rng.Float64()
			orders = append(orders, limitOrder(req.Target, m.MinMWh, jittered))
		}
	}
	orders = append(orders, limitOrder(req.Target, req.MWh, upper))

	return tag(orders, e.Name()), nil
}

// ExploreBalancing bids the mean short-balancing price for the next
// timeslot and keeps a single min-size market order on later ones.
type ExploreBalancing struct{}

func NewExploreBalancing() *ExploreBalancing { return &ExploreBalancing{} }

func (e *ExploreBalancing) Name() string { return "explore-balancing" }

func (e *ExploreBalancing) Orders(m *Market, req Request) ([]Order, error) {
	if req.Target == req.Current+1 {
		return tag(balancingOrders(m, req), e.Name()), nil
	}
	return tag([]Order{marketOrder(req.Target, m.MinMWh)}, e.Name()), nil
}

func balancingOrders(m *Market, req Request) []Order {
	var limit float64
	if req.MWh > 0 {
		limit = m.Stats.MeanShortBalancingPrice()
	} else {
		limit = m.Stats.MeanSurplusBalancingPrice()
	}
	slog.Info("balancing-based bid", "timeslot", req.Target, "mwh", req.MWh, "limit", limit)
	return []Order{limitOrder(req.Target, req.MWh, limit)}
}

// MarketOnly places the need as one market order.
type MarketOnly struct{}

func NewMarketOnly() *MarketOnly { return &MarketOnly{} }

func (s *MarketOnly) Name() string { return "mkt" }

func (s *MarketOnly) Orders(_ *Market, req Request) ([]Order, error) {
	if req.MWh == 0 {
		return nil, fmt.Errorf("market order for timeslot %d with zero volume", req.Target)
	}
	return tag([]Order{marketOrder(req.Target, req.MWh)}, s.Name()), nil
}
