package strategy

import (
	"math"
	"testing"
)

func TestTwoTier_SplitsProbeAndRest(t *testing.T) {
	orders := twoTier(10, 5, 0.001, -45, -30)
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}

	var probe, rest Order
	for _, o := range orders {
		if mustLimit(t, o) == -45 {
			probe = o
		} else {
			rest = o
		}
	}
	if probe.MWh != 0.001 {
		t.Errorf("expected probe of 0.001 at -45, got %f", probe.MWh)
	}
	if mustLimit(t, rest) != -30 || math.Abs(rest.MWh-4.999) > 1e-9 {
		t.Errorf("expected 4.999 at -30, got %f at %f", rest.MWh, rest.Limit())
	}
}

func TestTwoTier_TinyNeedStillMinSize(t *testing.T) {
	orders := twoTier(10, 0.0015, 0.001, -45, -30)
	for _, o := range orders {
		if o.MWh < 0.001 {
			t.Errorf("order below min size: %f", o.MWh)
		}
	}
}

func TestStaircase_OneStepPerLimit(t *testing.T) {
	limits := []float64{-20, -25, -30, -40}
	orders, err := staircase(7, 1, 0.001, limits)
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 4 {
		t.Fatalf("expected 4 orders, got %d", len(orders))
	}
	for i := 0; i < 3; i++ {
		if orders[i].MWh != 0.001 || mustLimit(t, orders[i]) != limits[i] {
			t.Errorf("step %d: expected 0.001 at %f, got %f at %f", i, limits[i], orders[i].MWh, orders[i].Limit())
		}
	}
	last := orders[3]
	if mustLimit(t, last) != -40 || math.Abs(last.MWh-0.997) > 1e-9 {
		t.Errorf("expected remainder 0.997 at -40, got %f at %f", last.MWh, last.Limit())
	}
	if math.Abs(totalMWh(orders)-1) > 1e-9 {
		t.Errorf("expected total 1, got %f", totalMWh(orders))
	}
}

func TestStaircase_DropsRemainderBelowMinSize(t *testing.T) {
	orders, err := staircase(7, 0.0015, 0.001, []float64{-20, -40})
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 1 || mustLimit(t, orders[0]) != -20 {
		t.Fatalf("expected a single probe at -20, got %+v", orders)
	}
}

func TestStaircase_NoLimits(t *testing.T) {
	if _, err := staircase(7, 1, 0.001, nil); err == nil {
		t.Fatal("expected error without limits")
	}
}
