package market

import (
	"log/slog"
	"sort"
)

// PricePoint is cleared volume at one exact clearing price.
type PricePoint struct {
	Price float64
	MWh   float64
}

// BidGroups keeps the clearing history bucketed by lead time: the number of
// timeslots between the round a winning bid was submitted and the
// timeslot it was for. Each bucket is sorted ascending by price.
type BidGroups struct {
	groups map[int][]PricePoint
}

func NewBidGroups() *BidGroups {
	return &BidGroups{groups: make(map[int][]PricePoint)}
}

// GroupIndex returns the lead of a trade. Auctions clear in the timeslot
// after bids are submitted, so the submission timeslot is creation-1.
func GroupIndex(creationTimeslot, targetTimeslot int) int {
	return targetTimeslot - (creationTimeslot - 1)
}

// Record adds a cleared trade. Prices are stored as positive magnitudes.
func (b *BidGroups) Record(creationTimeslot, targetTimeslot int, price, mwh float64) {
	idx := GroupIndex(creationTimeslot, targetTimeslot)
	b.add(idx, price, mwh)
	slog.Debug("trade recorded in bid group",
		"group", idx,
		"created", creationTimeslot,
		"timeslot", targetTimeslot,
		"price", price,
		"mwh", mwh,
	)
}

func (b *BidGroups) add(idx int, price, mwh float64) {
	group := b.groups[idx]
	pos := sort.Search(len(group), func(i int) bool { return group[i].Price >= price })
	if pos < len(group) && group[pos].Price == price {
		group[pos].MWh += mwh
		return
	}
	group = append(group, PricePoint{})
	copy(group[pos+1:], group[pos:])
	group[pos] = PricePoint{Price: price, MWh: mwh}
	b.groups[idx] = group
}

// Group returns a copy of the bucket for a lead, nil if nothing was recorded.
func (b *BidGroups) Group(idx int) []PricePoint {
	group, ok := b.groups[idx]
	if !ok {
		return nil
	}
	out := make([]PricePoint, len(group))
	copy(out, group)
	return out
}

// Has reports whether any trade was recorded for the lead.
func (b *BidGroups) Has(idx int) bool {
	_, ok := b.groups[idx]
	return ok
}

// Len returns the number of leads with at least one recorded trade.
func (b *BidGroups) Len() int { return len(b.groups) }

// Ready reports whether the history is rich enough to drive the solver:
// every lead up to the number of enabled timeslots has data, the short
// balancing sample is large enough, and each enabled target's lead (as seen
// from a trade created next timeslot) has at least minSamples prices.
func (b *BidGroups) Ready(current int, enabled []int, minSamples, shortSamples int) bool {
	for lead := 1; lead <= len(enabled); lead++ {
		if !b.Has(lead) {
			return false
		}
	}

	if shortSamples < minSamples {
		return false
	}

	nextCreation := current + 1
	for _, target := range enabled {
		if len(b.groups[GroupIndex(nextCreation, target)]) < minSamples {
			return false
		}
	}
	return true
}
