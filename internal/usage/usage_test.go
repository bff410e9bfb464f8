package usage

import "testing"

func TestTable_ShiftedFallsBackToSlot(t *testing.T) {
	tb := NewTable(168)
	tb.Set(200, 1500)

	if got := tb.ShiftedUsage(200, 190); got != 1500 {
		t.Errorf("expected explicit forecast 1500, got %f", got)
	}
	// 368 is the same weekly slot as 200.
	if got := tb.ShiftedUsage(368, 360); got != 1500 {
		t.Errorf("expected slot estimate 1500, got %f", got)
	}
	if got := tb.Usage(368 % 168); got != 1500 {
		t.Errorf("expected flat estimate 1500, got %f", got)
	}
	if got := tb.ShiftedUsage(201, 190); got != 0 {
		t.Errorf("expected 0 for an unknown slot, got %f", got)
	}
}

func TestTable_LatestWins(t *testing.T) {
	tb := NewTable(168)
	tb.Set(200, 1500)
	tb.Set(368, 900)

	if got := tb.Usage(32); got != 900 {
		t.Errorf("expected latest slot value 900, got %f", got)
	}
	if got := tb.ShiftedUsage(200, 190); got != 1500 {
		t.Errorf("explicit forecast should not change, got %f", got)
	}
}

func TestCorrector_FeedsBackMiss(t *testing.T) {
	c := NewCorrector(1)
	c.UpdateFinalPrediction(100, -1000)
	c.ObserveUsage(100, -700)
	c.ObserveUsage(100, -500)

	// Consumed 200 kWh more than predicted.
	if got := c.FudgeCorrection(101); got != 200 {
		t.Errorf("expected 200, got %f", got)
	}
}

func TestCorrector_NoDataNoCorrection(t *testing.T) {
	c := NewCorrector(1)
	if got := c.FudgeCorrection(101); got != 0 {
		t.Errorf("expected 0 without a prediction, got %f", got)
	}

	c.UpdateFinalPrediction(100, -1000)
	if got := c.FudgeCorrection(101); got != 0 {
		t.Errorf("expected 0 without observed usage, got %f", got)
	}
}

func TestCorrector_Gain(t *testing.T) {
	c := NewCorrector(0.5)
	c.UpdateFinalPrediction(100, -1000)
	c.ObserveUsage(100, -1100)
	if got := c.FudgeCorrection(101); got != 50 {
		t.Errorf("expected 50, got %f", got)
	}
}
