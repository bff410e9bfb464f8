package risk

// Positions tracks the net energy held per timeslot as reported by the
// market.
type Positions struct {
	balances map[int]float64
}

func NewPositions() *Positions {
	return &Positions{balances: make(map[int]float64)}
}

// Update replaces the held balance for a timeslot.
func (p *Positions) Update(timeslot int, mwh float64) {
	p.balances[timeslot] = mwh
}

// Position returns the held balance, 0 when the market has reported none.
func (p *Positions) Position(timeslot int) float64 {
	return p.balances[timeslot]
}

// Prune drops positions for timeslots before current.
func (p *Positions) Prune(current int) int {
	var n int
	for ts := range p.balances {
		if ts < current {
			delete(p.balances, ts)
			n++
		}
	}
	return n
}

func (p *Positions) Len() int { return len(p.balances) }
