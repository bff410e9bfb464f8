package market

import (
	"log/slog"
	"math"
)

// slotEpsilon seeds every per-slot MWh cell so slot averages never divide by zero.
const slotEpsilon = 1e-9

// BalancingSample is one balancing settlement: the charge paid or received
// and the energy it covered, in MWh.
type BalancingSample struct {
	Charge float64
	MWh    float64
}

// Stats accumulates cleared-trade volumes and payments per slot of a
// repeating cycle and for the whole game, plus balancing samples.
type Stats struct {
	recordLength int
	offset       int

	slotMWh      []float64
	slotPayments []float64

	totalMWh      float64
	totalPayments float64

	minTradePrice float64
	maxTradePrice float64

	short   []BalancingSample
	surplus []BalancingSample
}

func NewStats(recordLength int) *Stats {
	s := &Stats{
		recordLength:  recordLength,
		slotMWh:       make([]float64, recordLength),
		slotPayments:  make([]float64, recordLength),
		minTradePrice: math.MaxFloat64,
		maxTradePrice: -math.MaxFloat64,
	}
	for i := range s.slotMWh {
		s.slotMWh[i] = slotEpsilon
	}
	return s
}

// SetOffset sets the timeslot that maps to the first slot of the cycle
// (the number of bootstrap timeslots the server discarded).
func (s *Stats) SetOffset(offset int) { s.offset = offset }

func (s *Stats) slotIndex(timeslot int) int {
	idx := (timeslot - s.offset) % s.recordLength
	if idx < 0 {
		idx += s.recordLength
	}
	return idx
}

// RecordTrade adds a cleared trade to its slot and to the game totals.
// Negative mwh is a net sale and is accumulated as is.
func (s *Stats) RecordTrade(timeslot int, mwh, price float64) {
	idx := s.slotIndex(timeslot)
	s.slotMWh[idx] += mwh
	s.slotPayments[idx] += price * mwh

	s.totalMWh += mwh
	s.totalPayments += price * mwh
}

// RecordTradePrice widens the observed clearing price range.
func (s *Stats) RecordTradePrice(price float64) {
	if price > s.maxTradePrice {
		s.maxTradePrice = price
	}
	if price < s.minTradePrice {
		s.minTradePrice = price
	}
}

// TradePriceRange returns the lowest and highest clearing price seen so far.
// ok is false before the first trade.
func (s *Stats) TradePriceRange() (low, high float64, ok bool) {
	if s.minTradePrice > s.maxTradePrice {
		return 0, 0, false
	}
	return s.minTradePrice, s.maxTradePrice, true
}

// RecordBalancing files a balancing sample. Positive mwh is energy the
// balancing market supplied to us (we were short).
func (s *Stats) RecordBalancing(charge, mwh float64) {
	if mwh > 0 {
		s.short = append(s.short, BalancingSample{Charge: charge, MWh: mwh})
		return
	}
	s.surplus = append(s.surplus, BalancingSample{Charge: charge, MWh: mwh})
}

func (s *Stats) ShortSamples() int   { return len(s.short) }
func (s *Stats) SurplusSamples() int { return len(s.surplus) }

// TotalMWh is the net traded volume recorded so far.
func (s *Stats) TotalMWh() float64 { return s.totalMWh }

// MeanPricePerMWh is the volume-weighted mean clearing price of the game.
func (s *Stats) MeanPricePerMWh() float64 {
	if s.totalMWh == 0 {
		slog.Error("total market mwh should not be 0")
		return 0
	}
	return s.totalPayments / s.totalMWh
}

// MeanShortBalancingPrice is typically negative: what we pay per MWh when short.
func (s *Stats) MeanShortBalancingPrice() float64 {
	return MeanBalancingPrice(s.short)
}

// MeanSurplusBalancingPrice is typically positive: what we get per MWh of surplus.
func (s *Stats) MeanSurplusBalancingPrice() float64 {
	return MeanBalancingPrice(s.surplus)
}

// MeanBalancingPrice returns sum(charge)/sum(|mwh|).
func MeanBalancingPrice(samples []BalancingSample) float64 {
	if len(samples) == 0 {
		slog.Error("mean balancing price requested for an empty sample")
		return 0
	}
	var charge, mwh float64
	for _, c := range samples {
		charge += c.Charge
		mwh += math.Abs(c.MWh)
	}
	if mwh == 0 {
		slog.Error("balancing sample has zero total mwh", "samples", len(samples))
		return 0
	}
	return charge / mwh
}

// SlotAveragePrice is the mean clearing price of the cycle slot the timeslot falls in.
func (s *Stats) SlotAveragePrice(timeslot int) float64 {
	idx := s.slotIndex(timeslot)
	mwh := s.slotMWh[idx]
	if mwh == 0 {
		mwh = slotEpsilon
	}
	return s.slotPayments[idx] / mwh
}

// SlotAveragePrices returns the mean clearing price of every cycle slot.
func (s *Stats) SlotAveragePrices() []float64 {
	out := make([]float64, s.recordLength)
	for i := range out {
		mwh := s.slotMWh[i]
		if mwh == 0 {
			mwh = slotEpsilon
		}
		out[i] = s.slotPayments[i] / mwh
	}
	return out
}

// PerSlotPriceStdDev is the population standard deviation of the slot averages.
func (s *Stats) PerSlotPriceStdDev() float64 {
	prices := s.SlotAveragePrices()
	var mean float64
	for _, p := range prices {
		mean += p
	}
	mean /= float64(len(prices))

	var sq float64
	for _, p := range prices {
		d := p - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(prices)))
}

// SeedBalancing adds one low-weight synthetic sample to each balancing list,
// priced sigmas standard deviations above (short) and below (surplus) the
// mean market price.
func (s *Stats) SeedBalancing(sigmas, mwh float64) {
	mean := s.MeanPricePerMWh()
	sigma := s.PerSlotPriceStdDev()
	high := mean + sigmas*sigma
	low := mean - sigmas*sigma

	s.short = append(s.short, BalancingSample{Charge: -high * mwh, MWh: mwh})
	s.surplus = append(s.surplus, BalancingSample{Charge: low * mwh, MWh: -mwh})

	slog.Info("seeded balancing samples", "high", high, "low", low, "sigma", sigma)
}
