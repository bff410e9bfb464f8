package market

import "sort"

// BookOrder is one outstanding order in an exchange orderbook. Asks carry
// negative MWh (they sell), bids positive.
type BookOrder struct {
	MWh        float64 `json:"mwh"`
	LimitPrice float64 `json:"limit_price"`
}

// Orderbook is the exchange's view of uncleared orders for one timeslot.
type Orderbook struct {
	Timeslot int
	Bids     []BookOrder
	Asks     []BookOrder
}

// Orderbooks caches the latest orderbook snapshot per timeslot.
type Orderbooks struct {
	books map[int]Orderbook
}

func NewOrderbooks() *Orderbooks {
	return &Orderbooks{books: make(map[int]Orderbook)}
}

// Set replaces the snapshot for the orderbook's timeslot. Both sides are
// stored sorted ascending by limit price.
func (o *Orderbooks) Set(book Orderbook) {
	book.Bids = sortedCopy(book.Bids)
	book.Asks = sortedCopy(book.Asks)
	o.books[book.Timeslot] = book
}

func sortedCopy(orders []BookOrder) []BookOrder {
	out := make([]BookOrder, len(orders))
	copy(out, orders)
	sort.SliceStable(out, func(i, j int) bool { return out[i].LimitPrice < out[j].LimitPrice })
	return out
}

// Get returns the snapshot for a timeslot.
func (o *Orderbooks) Get(timeslot int) (Orderbook, bool) {
	book, ok := o.books[timeslot]
	return book, ok
}

// Opposing returns the side a new order trades against: asks when buying,
// bids when selling.
func (o *Orderbooks) Opposing(timeslot int, buying bool) ([]BookOrder, bool) {
	book, ok := o.books[timeslot]
	if !ok {
		return nil, false
	}
	if buying {
		return book.Asks, true
	}
	return book.Bids, true
}

// LowestAsk returns the cheapest outstanding ask for a timeslot, 0 when
// there is no book or no asks.
func (o *Orderbooks) LowestAsk(timeslot int) float64 {
	book, ok := o.books[timeslot]
	if !ok || len(book.Asks) == 0 {
		return 0
	}
	return book.Asks[0].LimitPrice
}

// Prune drops snapshots for timeslots that are no longer enabled and
// returns how many were removed.
func (o *Orderbooks) Prune(enabled []int) int {
	keep := make(map[int]struct{}, len(enabled))
	for _, ts := range enabled {
		keep[ts] = struct{}{}
	}
	removed := 0
	for ts := range o.books {
		if _, ok := keep[ts]; !ok {
			delete(o.books, ts)
			removed++
		}
	}
	return removed
}

func (o *Orderbooks) Len() int { return len(o.books) }
