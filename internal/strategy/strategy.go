package strategy

import (
	"github.com/google/uuid"

	"powerbroker/internal/market"
)

// Order is a wholesale order for one target timeslot. Positive MWh buys,
// negative sells. A nil LimitPrice is a market order.
type Order struct {
	ID         uuid.UUID
	Timeslot   int
	MWh        float64
	LimitPrice *float64
	Strategy   string
}

func limitOrder(timeslot int, mwh, limit float64) Order {
	return Order{Timeslot: timeslot, MWh: mwh, LimitPrice: &limit}
}

func marketOrder(timeslot int, mwh float64) Order {
	return Order{Timeslot: timeslot, MWh: mwh}
}

// IsMarket reports whether the order carries no limit price.
func (o Order) IsMarket() bool { return o.LimitPrice == nil }

// Limit returns the limit price, or 0 for a market order.
func (o Order) Limit() float64 {
	if o.LimitPrice == nil {
		return 0
	}
	return *o.LimitPrice
}

// Bounds are the global price limits for escalation. Buy prices are
// negative (we pay), sell prices positive.
type Bounds struct {
	BuyMax  float64
	BuyMin  float64
	SellMax float64
	SellMin float64
}

// Market bundles the per-game state a strategy reads when pricing orders.
type Market struct {
	Stats      *market.Stats
	Groups     *market.BidGroups
	Books      *market.Orderbooks
	LastOrders *LastOrders
	Bounds     Bounds

	MinMWh          float64
	DeactivateAhead int
}

// Request asks for orders covering MWh in Target, evaluated at Current.
type Request struct {
	Target  int
	Current int
	Enabled []int
	MWh     float64
}

// Lead is the number of timeslots between now and the target.
func (r Request) Lead() int { return r.Target - r.Current }

// Strategy turns a sized request into priced orders.
type Strategy interface {
	Name() string
	Orders(m *Market, req Request) ([]Order, error)
}
