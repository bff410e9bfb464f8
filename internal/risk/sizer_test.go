package risk

import (
	"math"
	"testing"

	"powerbroker/internal/config"
)

func newTestSizer(positions *Positions) *Sizer {
	return NewSizer(config.DefaultConfig().Policy, 0.001, positions)
}

func TestSize_SubtractsPosition(t *testing.T) {
	p := NewPositions()
	p.Update(105, 1.5)
	s := newTestSizer(p)

	mwh, ok := s.Size(105, 100, 4)
	if !ok {
		t.Fatal("expected an order")
	}
	if math.Abs(mwh-2.5) > 1e-9 {
		t.Errorf("expected 2.5, got %f", mwh)
	}
}

func TestSize_BelowMinimum(t *testing.T) {
	p := NewPositions()
	p.Update(105, 3.9995)
	s := newTestSizer(p)

	if _, ok := s.Size(105, 100, 4); ok {
		t.Error("expected no order when remaining need is below min size")
	}
	if _, ok := s.Size(106, 100, -0.001); ok {
		t.Error("expected no order at exactly min size")
	}
}

func TestSize_ReducesFarAheadPurchases(t *testing.T) {
	s := newTestSizer(NewPositions())

	mwh, ok := s.Size(110, 100, 10)
	if !ok || math.Abs(mwh-8) > 1e-9 {
		t.Errorf("expected 8 at lead 10, got %f (ok=%v)", mwh, ok)
	}

	mwh, ok = s.Size(106, 100, 10)
	if !ok || mwh != 10 {
		t.Errorf("expected 10 at lead 6, got %f (ok=%v)", mwh, ok)
	}
}

func TestSize_SalesNotReduced(t *testing.T) {
	s := newTestSizer(NewPositions())

	mwh, ok := s.Size(120, 100, -5)
	if !ok || mwh != -5 {
		t.Errorf("expected -5, got %f (ok=%v)", mwh, ok)
	}
}

func TestSize_OverBoughtBecomesSale(t *testing.T) {
	p := NewPositions()
	p.Update(103, 6)
	s := newTestSizer(p)

	mwh, ok := s.Size(103, 100, 4)
	if !ok || mwh != -2 {
		t.Errorf("expected -2, got %f (ok=%v)", mwh, ok)
	}
}

func TestPositions_Prune(t *testing.T) {
	p := NewPositions()
	p.Update(98, 1)
	p.Update(99, 1)
	p.Update(100, 1)

	if n := p.Prune(100); n != 2 {
		t.Errorf("expected 2 pruned, got %d", n)
	}
	if p.Len() != 1 || p.Position(100) != 1 {
		t.Errorf("expected only timeslot 100 to remain")
	}
	if p.Position(42) != 0 {
		t.Error("unknown timeslot should report 0")
	}
}
