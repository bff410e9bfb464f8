package strategy

import (
	"log/slog"
	"math"
	"math/rand/v2"

	"powerbroker/internal/config"
	"powerbroker/internal/market"
)

// Baseline escalates a single order per round from a conservative price
// towards the market-feasible limit. A bid that has not cleared anchors
// the next round's starting price.
type Baseline struct {
	cfg config.PolicyConfig
	rng *rand.Rand
}

func NewBaseline(cfg config.PolicyConfig, rng *rand.Rand) *Baseline {
	return &Baseline{cfg: cfg, rng: rng}
}

func (b *Baseline) Name() string { return "base" }

func (b *Baseline) Orders(m *Market, req Request) ([]Order, error) {
	buying := req.MWh > 0

	var upper float64
	if book, ok := m.Books.Opposing(req.Target, buying); ok {
		upper = b.bestPossiblePrice(req.MWh, book)
	} else {
		upper = b.orderIndependentLimit(m, buying)
	}

	limit := b.limitPrice(m, req, upper)
	if limit == nil {
		return tag([]Order{marketOrder(req.Target, req.MWh)}, b.Name()), nil
	}
	slog.Info("baseline limit", "timeslot", req.Target, "mwh", req.MWh, "limit", *limit, "upper", upper)
	return tag([]Order{limitOrder(req.Target, req.MWh, *limit)}, b.Name()), nil
}

// limitPrice returns nil when no rounds are left, meaning a market order.
func (b *Baseline) limitPrice(m *Market, req Request, upper float64) *float64 {
	var maxPrice, minPrice float64
	if req.MWh > 0 {
		maxPrice, minPrice = m.Bounds.BuyMax, m.Bounds.BuyMin
	} else {
		maxPrice, minPrice = m.Bounds.SellMax, m.Bounds.SellMin
	}

	if last, ok := m.LastOrders.Get(req.Target); ok &&
		math.Signbit(last.MWh) == math.Signbit(req.MWh) && last.LimitPrice != nil {
		maxPrice = *last.LimitPrice
		slog.Debug("escalating from last order", "timeslot", req.Target, "last_limit", maxPrice)
	}

	remaining := req.Target - req.Current - m.DeactivateAhead
	if remaining <= 0 {
		return nil
	}

	span := (minPrice - maxPrice) * 2.0 / float64(remaining)
	price := maxPrice + b.rng.Float64()*span
	price = math.Min(math.Max(minPrice, price), upper)
	return &price
}

// bestPossiblePrice walks the opposing side until it covers the need and
// returns the highest limit seen, negated to our side and shaded by a
// small epsilon so the order could have cleared against it.
func (b *Baseline) bestPossiblePrice(mwh float64, book []market.BookOrder) float64 {
	var total float64
	best := -math.MaxFloat64
	for _, o := range book {
		total += -o.MWh
		best = math.Max(best, o.LimitPrice)
		if math.Abs(total) > math.Abs(mwh) {
			break
		}
	}
	if best == -math.MaxFloat64 {
		return math.MaxFloat64
	}
	return -best - b.cfg.OrderbookEpsilon*math.Abs(best)
}

// orderIndependentLimit prefers the extreme observed clearing price when it
// lies strictly inside the global bounds.
func (b *Baseline) orderIndependentLimit(m *Market, buying bool) float64 {
	global := m.Bounds.SellMax
	if buying {
		global = m.Bounds.BuyMax
	}

	low, high, ok := m.Stats.TradePriceRange()
	if !ok {
		return global
	}

	if buying {
		limit := -math.Abs(low)
		if m.Bounds.BuyMin < limit && limit < m.Bounds.BuyMax {
			return limit
		}
		return global
	}
	limit := math.Abs(high)
	if m.Bounds.SellMin < limit && limit < m.Bounds.SellMax {
		return limit
	}
	return global
}
