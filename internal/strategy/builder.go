package strategy

import (
	"math/rand/v2"

	"powerbroker/internal/config"
)

// Builder routes a sized request to the configured buy strategy or to the
// sell strategy.
type Builder struct {
	solver *Solver
	buy    Strategy
	sell   Strategy
}

func NewBuilder(cfg *config.Config, rng *rand.Rand) *Builder {
	solver := NewSolver(cfg.Policy, cfg.Market.UseStairExplore)

	var explore Strategy = NewExploreBalancing()
	if cfg.Market.UseStairExplore {
		explore = NewExploreStairs(cfg.Policy, rng)
	}

	var buy Strategy
	switch cfg.Market.BidStrategy {
	case config.BidStrategyBase:
		buy = NewBaseline(cfg.Policy, rng)
	case config.BidStrategyMarket:
		buy = NewMarketOnly()
	default:
		buy = NewDynamic(cfg.Market, solver, explore)
	}

	return &Builder{
		solver: solver,
		buy:    buy,
		sell:   NewBalancingSell(cfg.Policy),
	}
}

func (b *Builder) Solver() *Solver { return b.solver }

// BuyStrategy names the strategy used for purchases.
func (b *Builder) BuyStrategy() string { return b.buy.Name() }

func (b *Builder) Orders(m *Market, req Request) ([]Order, error) {
	if req.MWh > 0 {
		return b.buy.Orders(m, req)
	}
	return b.sell.Orders(m, req)
}
