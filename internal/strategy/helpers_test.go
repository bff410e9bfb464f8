package strategy

import (
	"math/rand/v2"
	"testing"

	"powerbroker/internal/config"
	"powerbroker/internal/market"
)

func newTestMarket() *Market {
	p := config.DefaultConfig().Policy
	return &Market{
		Stats:      market.NewStats(168),
		Groups:     market.NewBidGroups(),
		Books:      market.NewOrderbooks(),
		LastOrders: NewLastOrders(),
		Bounds: Bounds{
			BuyMax:  p.BuyLimitMax,
			BuyMin:  p.BuyLimitMin,
			SellMax: p.SellLimitMax,
			SellMin: p.SellLimitMin,
		},
		MinMWh: 0.001,
	}
}

func newTestRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func enabled(current, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = current + 1 + i
	}
	return out
}

func totalMWh(orders []Order) float64 {
	var sum float64
	for _, o := range orders {
		sum += o.MWh
	}
	return sum
}

func mustLimit(t *testing.T, o Order) float64 {
	t.Helper()
	if o.LimitPrice == nil {
		t.Fatalf("expected a limit order, got market order %+v", o)
	}
	return *o.LimitPrice
}

func askBook(timeslot int, lowestAsk float64) market.Orderbook {
	return market.Orderbook{
		Timeslot: timeslot,
		Asks: []market.BookOrder{
			{MWh: -5, LimitPrice: lowestAsk + 10},
			{MWh: -1, LimitPrice: lowestAsk},
		},
	}
}
