package market

import "testing"

func TestGroupIndex(t *testing.T) {
	// A bid submitted in timeslot 10 clears in 11; its lead to 15 is 5.
	if got := GroupIndex(11, 15); got != 5 {
		t.Errorf("expected group 5, got %d", got)
	}
}

func TestRecord_MergesSamePrice(t *testing.T) {
	b := NewBidGroups()
	// creation 8, target 10 => group 3
	b.Record(8, 10, 50, 2)
	b.Record(8, 10, 50, 3)

	group := b.Group(3)
	if len(group) != 1 {
		t.Fatalf("expected 1 merged entry, got %d", len(group))
	}
	if group[0].Price != 50 || group[0].MWh != 5 {
		t.Errorf("expected (50, 5), got (%f, %f)", group[0].Price, group[0].MWh)
	}
}

func TestRecord_KeepsSortedOrder(t *testing.T) {
	b := NewBidGroups()
	for _, p := range []float64{40, 20, 60, 30, 50} {
		b.Record(1, 1, p, 1)
	}
	group := b.Group(1)
	if len(group) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(group))
	}
	for i := 1; i < len(group); i++ {
		if group[i-1].Price >= group[i].Price {
			t.Fatalf("group not sorted at %d: %v", i, group)
		}
	}
}

func TestGroup_ReturnsCopy(t *testing.T) {
	b := NewBidGroups()
	b.Record(1, 1, 40, 1)
	g := b.Group(1)
	g[0].MWh = 100
	if b.Group(1)[0].MWh != 1 {
		t.Error("mutating the returned group changed the history")
	}
}

func fillGroups(b *BidGroups, leads, samples int) {
	for lead := 1; lead <= leads; lead++ {
		for i := 0; i < samples; i++ {
			// creation 1 => group == target
			b.Record(1, lead, float64(20+i), 1)
		}
	}
}

func enabledFrom(current, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = current + 1 + i
	}
	return out
}

func TestReady_MissingSamplesInOneBucket(t *testing.T) {
	b := NewBidGroups()
	fillGroups(b, 23, 5)
	// Lead 24 exists but is one short of the threshold.
	for i := 0; i < 4; i++ {
		b.Record(1, 24, float64(20+i), 1)
	}
	if b.Ready(100, enabledFrom(100, 24), 5, 10) {
		t.Error("expected not ready with 23/24 buckets satisfied")
	}

	b.Record(1, 24, 99, 1)
	if !b.Ready(100, enabledFrom(100, 24), 5, 10) {
		t.Error("expected ready with all 24 buckets satisfied")
	}
}

func TestReady_NeedsBalancingSample(t *testing.T) {
	b := NewBidGroups()
	fillGroups(b, 24, 5)
	if b.Ready(100, enabledFrom(100, 24), 5, 4) {
		t.Error("expected not ready with a small balancing sample")
	}
}

func TestReady_MissingBucket(t *testing.T) {
	b := NewBidGroups()
	fillGroups(b, 24, 5)
	nb := NewBidGroups()
	for lead := 2; lead <= 24; lead++ {
		for i := 0; i < 5; i++ {
			nb.Record(1, lead, float64(20+i), 1)
		}
	}
	if nb.Ready(100, enabledFrom(100, 24), 5, 10) {
		t.Error("expected not ready without lead 1")
	}
}
