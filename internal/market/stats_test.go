package market

import (
	"math"
	"testing"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestMeanPricePerMWh_WeightedByVolume(t *testing.T) {
	s := NewStats(168)
	s.RecordTrade(1, 2, 30)
	s.RecordTrade(2, 6, 50)

	// (2*30 + 6*50) / 8 = 45
	if got := s.MeanPricePerMWh(); !approx(got, 45) {
		t.Errorf("expected mean 45, got %f", got)
	}
}

func TestMeanPricePerMWh_OrderIndependent(t *testing.T) {
	trades := []struct {
		ts         int
		mwh, price float64
	}{
		{3, 1.5, 42}, {7, -0.5, 38}, {200, 4, 61}, {11, 2.25, 19},
	}

	forward := NewStats(168)
	for _, tr := range trades {
		forward.RecordTrade(tr.ts, tr.mwh, tr.price)
	}
	backward := NewStats(168)
	for i := len(trades) - 1; i >= 0; i-- {
		backward.RecordTrade(trades[i].ts, trades[i].mwh, trades[i].price)
	}

	if !approx(forward.MeanPricePerMWh(), backward.MeanPricePerMWh()) {
		t.Errorf("mean depends on order: %f vs %f", forward.MeanPricePerMWh(), backward.MeanPricePerMWh())
	}
}

func TestMeanPricePerMWh_ZeroVolume(t *testing.T) {
	s := NewStats(168)
	if got := s.MeanPricePerMWh(); got != 0 {
		t.Errorf("expected 0 with no trades, got %f", got)
	}
}

func TestPerSlotPriceStdDev_UniformPrices(t *testing.T) {
	s := NewStats(24)
	for ts := 0; ts < 24; ts++ {
		s.RecordTrade(ts, 3, 40)
	}
	if got := s.PerSlotPriceStdDev(); got > 1e-6 {
		t.Errorf("expected 0 std dev for identical slot prices, got %f", got)
	}
}

func TestPerSlotPriceStdDev_TwoLevels(t *testing.T) {
	s := NewStats(2)
	s.RecordTrade(0, 1, 10)
	s.RecordTrade(1, 1, 30)
	// Population std dev of {10, 30} is 10.
	if got := s.PerSlotPriceStdDev(); math.Abs(got-10) > 1e-6 {
		t.Errorf("expected std dev 10, got %f", got)
	}
}

func TestRecordTrade_RingBufferWraps(t *testing.T) {
	s := NewStats(168)
	s.RecordTrade(5, 1, 20)
	s.RecordTrade(5+168, 1, 40)
	if got := s.SlotAveragePrice(5); math.Abs(got-30) > 1e-6 {
		t.Errorf("expected slot average 30, got %f", got)
	}
}

func TestRecordTrade_Offset(t *testing.T) {
	s := NewStats(168)
	s.SetOffset(360)
	s.RecordTrade(360, 1, 25)
	if got := s.SlotAveragePrices()[0]; math.Abs(got-25) > 1e-6 {
		t.Errorf("expected timeslot 360 in slot 0, got slot price %f", got)
	}
}

func TestRecordBalancing_SplitsBySign(t *testing.T) {
	s := NewStats(168)
	s.RecordBalancing(-100, 2)  // supplied to us: short
	s.RecordBalancing(-50, 0.5) // short
	s.RecordBalancing(30, -1)   // surplus

	if s.ShortSamples() != 2 || s.SurplusSamples() != 1 {
		t.Fatalf("expected 2 short and 1 surplus, got %d and %d", s.ShortSamples(), s.SurplusSamples())
	}
	if got := s.MeanShortBalancingPrice(); !approx(got, -60) {
		t.Errorf("expected short mean -60, got %f", got)
	}
	if got := s.MeanSurplusBalancingPrice(); !approx(got, 30) {
		t.Errorf("expected surplus mean 30, got %f", got)
	}
}

func TestMeanBalancingPrice_Empty(t *testing.T) {
	if got := MeanBalancingPrice(nil); got != 0 {
		t.Errorf("expected 0 for empty sample, got %f", got)
	}
}

func TestTradePriceRange(t *testing.T) {
	s := NewStats(168)
	if _, _, ok := s.TradePriceRange(); ok {
		t.Error("expected no range before trades")
	}
	s.RecordTradePrice(33)
	s.RecordTradePrice(12)
	s.RecordTradePrice(48)
	low, high, ok := s.TradePriceRange()
	if !ok || low != 12 || high != 48 {
		t.Errorf("expected range [12, 48], got [%f, %f] ok=%v", low, high, ok)
	}
}

func TestSeedBalancing(t *testing.T) {
	s := NewStats(2)
	s.RecordTrade(0, 1, 10)
	s.RecordTrade(1, 1, 30)
	// mean 20, sigma 10 => high 40, low 0
	s.SeedBalancing(2, 0.001)

	if got := s.MeanShortBalancingPrice(); math.Abs(got+40) > 1e-6 {
		t.Errorf("expected seeded short price -40, got %f", got)
	}
	if got := s.MeanSurplusBalancingPrice(); math.Abs(got) > 1e-6 {
		t.Errorf("expected seeded surplus price 0, got %f", got)
	}
}
