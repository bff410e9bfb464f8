package strategy

import "math"

// LastOrders remembers the most recent order sent for each target timeslot
// so a stuck bid can be escalated next round.
type LastOrders struct {
	orders map[int]Order
}

func NewLastOrders() *LastOrders {
	return &LastOrders{orders: make(map[int]Order)}
}

func (l *LastOrders) Set(o Order) { l.orders[o.Timeslot] = o }

func (l *LastOrders) Get(timeslot int) (Order, bool) {
	o, ok := l.orders[timeslot]
	return o, ok
}

// ClearIfFilled drops the record when a transaction for the timeslot
// matches the last order's volume, i.e. the order cleared in full.
func (l *LastOrders) ClearIfFilled(timeslot int, mwh float64) bool {
	o, ok := l.orders[timeslot]
	if !ok {
		return false
	}
	if math.Abs(o.MWh-mwh) > 1e-12 {
		return false
	}
	delete(l.orders, timeslot)
	return true
}

func (l *LastOrders) Len() int { return len(l.orders) }
