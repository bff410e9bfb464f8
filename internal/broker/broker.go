// Package broker holds the per-game wholesale state, applies inbound
// market events to it, and runs the per-round activation.
package broker

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/prometheus/client_golang/prometheus"

	"powerbroker/internal/config"
	"powerbroker/internal/execution"
	"powerbroker/internal/market"
	"powerbroker/internal/metrics"
	"powerbroker/internal/performance"
	"powerbroker/internal/risk"
	"powerbroker/internal/strategy"
)

// Predictor yields the energy need per target timeslot in kWh, positive
// meaning energy must be bought.
type Predictor interface {
	Usage(slot int) float64
	ShiftedUsage(target, current int) float64
}

// Corrector adjusts the need for balancing imbalance.
type Corrector interface {
	FudgeCorrection(current int) float64
	UpdateFinalPrediction(target int, kwh float64)
}

// UsageObserver is implemented by correctors that learn from realized usage.
type UsageObserver interface {
	ObserveUsage(timeslot int, kwh float64)
}

// Deps are the broker's collaborators. DB and Corrector may be nil.
type Deps struct {
	Predictor Predictor
	Corrector Corrector
	Sink      execution.Sink
	DB        *sql.DB
	Metrics   *metrics.Metrics
	Rand      *rand.Rand
}

// Broker is the wholesale state of one game. It is not safe for concurrent
// use; Agent serializes access.
type Broker struct {
	cfg *config.Config

	market    *strategy.Market
	positions *risk.Positions
	sizer     *risk.Sizer
	builder   *strategy.Builder
	executor  *execution.Executor
	forecasts *performance.Forecasts
	tracker   *performance.Tracker

	predictor Predictor
	corrector Corrector
	metrics   *metrics.Metrics

	current   int
	discarded int
}

func New(cfg *config.Config, deps Deps) *Broker {
	rng := deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New(prometheus.NewRegistry())
	}

	m := &strategy.Market{
		Stats:      market.NewStats(cfg.Market.RecordLength),
		Groups:     market.NewBidGroups(),
		Books:      market.NewOrderbooks(),
		LastOrders: strategy.NewLastOrders(),
		Bounds: strategy.Bounds{
			BuyMax:  cfg.Policy.BuyLimitMax,
			BuyMin:  cfg.Policy.BuyLimitMin,
			SellMax: cfg.Policy.SellLimitMax,
			SellMin: cfg.Policy.SellLimitMin,
		},
		MinMWh: cfg.Market.MinOrderMWh,
	}
	positions := risk.NewPositions()

	b := &Broker{
		cfg:       cfg,
		market:    m,
		positions: positions,
		sizer:     risk.NewSizer(cfg.Policy, cfg.Market.MinOrderMWh, positions),
		builder:   strategy.NewBuilder(cfg, rng),
		executor:  execution.NewExecutor(deps.Sink, deps.DB, m.LastOrders, deps.Metrics),
		forecasts: performance.NewForecasts(cfg.Policy.MaxLead),
		predictor: deps.Predictor,
		corrector: deps.Corrector,
		metrics:   deps.Metrics,
	}
	if deps.DB != nil {
		b.tracker = performance.NewTracker(deps.DB)
	}
	return b
}

// Handle applies one inbound event. Round events run an activation.
func (b *Broker) Handle(ctx context.Context, ev Event) error {
	b.metrics.EventsTotal.WithLabelValues(ev.Kind()).Inc()

	switch e := ev.(type) {
	case CompetitionSetup:
		b.handleCompetition(e)
	case BootstrapMarketData:
		b.handleBootstrap(e)
	case BalancingSettlement:
		b.handleBalancing(e)
	case ClearedTrade:
		b.handleClearedTrade(e)
	case MarketTransaction:
		b.handleMarketTransaction(e)
	case OrderbookUpdate:
		b.market.Books.Set(market.Orderbook{Timeslot: e.Timeslot, Bids: e.Bids, Asks: e.Asks})
	case TariffTransaction:
		b.handleTariffTransaction(e)
	case MarketPosition:
		b.positions.Update(e.Timeslot, e.OverallBalance)
	case Round:
		b.Activate(ctx, e)
	default:
		return fmt.Errorf("unsupported event %T", ev)
	}
	return nil
}

func (b *Broker) handleCompetition(e CompetitionSetup) {
	minMWh := math.Max(b.market.MinMWh, e.MinimumOrderQuantity)
	b.market.MinMWh = minMWh
	b.sizer.SetMinOrder(minMWh)
	b.market.DeactivateAhead = e.DeactivateTimeslotsAhead
	b.market.Stats.SetOffset(e.BootstrapDiscardedTimeslots)
	b.discarded = e.BootstrapDiscardedTimeslots

	slog.Info("competition setup",
		"min_mwh", minMWh,
		"deactivate_ahead", e.DeactivateTimeslotsAhead,
		"bootstrap_discarded", e.BootstrapDiscardedTimeslots,
	)
}

func (b *Broker) handleBootstrap(e BootstrapMarketData) {
	n := len(e.MWh)
	if len(e.MarketPrice) < n {
		slog.Error("bootstrap data length mismatch", "mwh", len(e.MWh), "prices", len(e.MarketPrice))
		n = len(e.MarketPrice)
	}
	for i := 0; i < n; i++ {
		// Market prices are recorded as positive magnitudes.
		b.market.Stats.RecordTrade(i+b.discarded, e.MWh[i], math.Abs(e.MarketPrice[i]))
	}

	avg := math.Abs(b.market.Stats.MeanPricePerMWh())
	k := b.cfg.Policy.BootstrapLimitMultiplier
	b.market.Bounds.BuyMin = -k * avg
	b.market.Bounds.SellMax = k * avg
	b.metrics.MeanPrice.Set(avg)

	b.market.Stats.SeedBalancing(b.cfg.Policy.BalancingSeedSigmas, b.cfg.Policy.BalancingSeedMWh)

	slog.Info("bootstrap applied",
		"timeslots", n,
		"mean_price", avg,
		"buy_limit_min", b.market.Bounds.BuyMin,
		"sell_limit_max", b.market.Bounds.SellMax,
	)
}

func (b *Broker) handleBalancing(e BalancingSettlement) {
	// Positive mwh: the balancing market supplied energy to us.
	mwh := -e.KWh / 1000.0
	b.market.Stats.RecordBalancing(e.Charge, mwh)
	slog.Info("balancing settlement", "timeslot", e.Timeslot, "charge", e.Charge, "mwh", mwh)

	if b.cfg.Market.UseBal && mwh != 0 {
		price := e.Charge / math.Abs(mwh)
		b.market.Stats.RecordTrade(e.Timeslot, mwh, price)
	}
}

func (b *Broker) handleClearedTrade(e ClearedTrade) {
	if !b.cfg.Market.UseMtx {
		b.market.Stats.RecordTrade(e.Timeslot, e.ExecutionMWh, e.ExecutionPrice)
	}
	b.market.Stats.RecordTradePrice(e.ExecutionPrice)
	b.market.Groups.Record(e.CreationTimeslot, e.Timeslot, e.ExecutionPrice, e.ExecutionMWh)
}

func (b *Broker) handleMarketTransaction(e MarketTransaction) {
	if b.market.LastOrders.ClearIfFilled(e.Timeslot, e.MWh) {
		slog.Debug("last order fully cleared", "timeslot", e.Timeslot, "mwh", e.MWh)
	}
	if b.cfg.Market.UseMtx {
		b.market.Stats.RecordTrade(e.Timeslot, math.Abs(e.MWh), math.Abs(e.Price))
	}
}

func (b *Broker) handleTariffTransaction(e TariffTransaction) {
	if e.Type != TariffConsume && e.Type != TariffProduce {
		return
	}
	b.forecasts.AddActual(e.PostedTimeslot, e.KWh)
	if obs, ok := b.corrector.(UsageObserver); ok {
		obs.ObserveUsage(e.PostedTimeslot, e.KWh)
	}
	if b.tracker != nil {
		if err := b.tracker.RecordActual(e.PostedTimeslot, b.forecasts.Actual(e.PostedTimeslot)); err != nil {
			slog.Error("failed to record actual usage", "timeslot", e.PostedTimeslot, "error", err)
		}
	}
}

// Snapshot is a read-only summary of the broker state.
type Snapshot struct {
	Current         int
	MeanPrice       float64
	ShortSamples    int
	SurplusSamples  int
	BidGroups       int
	Orderbooks      int
	LastOrders      int
	Positions       int
	MinMWh          float64
	Bounds          strategy.Bounds
	SolverRuns      int
	SolverStages    int
	BuyStrategyName string
}

func (b *Broker) Snapshot() Snapshot {
	st := b.market.Stats
	solver := b.builder.Solver()
	snap := Snapshot{
		Current:         b.current,
		ShortSamples:    st.ShortSamples(),
		SurplusSamples:  st.SurplusSamples(),
		BidGroups:       b.market.Groups.Len(),
		Orderbooks:      b.market.Books.Len(),
		LastOrders:      b.market.LastOrders.Len(),
		Positions:       b.positions.Len(),
		MinMWh:          b.market.MinMWh,
		Bounds:          b.market.Bounds,
		SolverRuns:      solver.Runs(),
		SolverStages:    solver.Stages(),
		BuyStrategyName: b.builder.BuyStrategy(),
	}
	if st.TotalMWh() != 0 {
		snap.MeanPrice = st.MeanPricePerMWh()
	}
	return snap
}

// Tracker returns the diagnostics tracker, nil without a store.
func (b *Broker) Tracker() *performance.Tracker { return b.tracker }
