package performance

import (
	"database/sql"
	"math"
	"testing"

	"powerbroker/internal/db"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })
	if err := db.Migrate(database); err != nil {
		t.Fatal(err)
	}
	return database
}

func TestGenerate_LeadStats(t *testing.T) {
	tr := NewTracker(openTestDB(t))

	// Lead 1 misses by +10 and -10, lead 2 by +20 once.
	must(t, tr.RecordPrediction(200, 1, -100))
	must(t, tr.RecordPrediction(201, 1, -100))
	must(t, tr.RecordPrediction(201, 2, -110))
	must(t, tr.RecordPrediction(201, 2, -120)) // replaces
	must(t, tr.RecordActual(200, -90))
	must(t, tr.RecordActual(201, -110))
	must(t, tr.RecordPrediction(500, 1, -1)) // no actual yet

	r, err := tr.Generate()
	if err != nil {
		t.Fatal(err)
	}

	one := r.LeadStats[1]
	if one.Samples != 2 || math.Abs(one.MAE-10) > 1e-9 || math.Abs(one.Bias) > 1e-9 {
		t.Errorf("unexpected lead 1 stats: %+v", one)
	}
	two := r.LeadStats[2]
	if two.Samples != 1 || math.Abs(two.Bias-10) > 1e-9 || math.Abs(two.RMSE-10) > 1e-9 {
		t.Errorf("unexpected lead 2 stats: %+v", two)
	}
}

func TestGenerate_OrderStats(t *testing.T) {
	database := openTestDB(t)
	tr := NewTracker(database)

	_, err := database.Exec(`
		INSERT INTO orders (id, timeslot, placed_timeslot, mwh, limit_price, strategy) VALUES
		('a', 400, 390, 2, -30, 'dp13'),
		('b', 400, 391, 1, NULL, 'explore-balancing'),
		('c', 401, 391, -3, 25, 'balancing-sell')`)
	if err != nil {
		t.Fatal(err)
	}

	r, err := tr.Generate()
	if err != nil {
		t.Fatal(err)
	}
	if r.TotalOrders != 3 || r.MarketOrders != 1 {
		t.Errorf("expected 3 orders with 1 market order, got %d and %d", r.TotalOrders, r.MarketOrders)
	}
	if r.BoughtMWh != 3 || r.SoldMWh != 3 {
		t.Errorf("expected 3 bought and 3 sold, got %f and %f", r.BoughtMWh, r.SoldMWh)
	}
	if r.StrategyStats["balancing-sell"].MWh != 3 {
		t.Errorf("expected 3 MWh sold by balancing-sell, got %+v", r.StrategyStats["balancing-sell"])
	}
}

func TestRecordSolution_Replaces(t *testing.T) {
	database := openTestDB(t)
	tr := NewTracker(database)

	must(t, tr.RecordSolution(300, []SolverStage{{Stage: 0, Value: -50, Action: "defer"}, {Stage: 1, Value: -40, Action: "bid", Price: -40}}))
	must(t, tr.RecordSolution(300, []SolverStage{{Stage: 0, Value: -45, Action: "defer"}}))

	var count int
	if err := database.QueryRow(`SELECT COUNT(*) FROM dp_solutions WHERE timeslot = 300`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 stage after replace, got %d", count)
	}
}

func TestForecasts_Errors(t *testing.T) {
	f := NewForecasts(24)
	f.Predict(150, 1, -100)
	f.Predict(150, 3, -80)
	if f.Predict(150, 25, -1) {
		t.Error("lead 25 should be rejected")
	}
	f.AddActual(150, -60)
	f.AddActual(150, -40)

	errs := f.Errors(150)
	if len(errs) != 2 || errs[1] != 0 || errs[3] != -20 {
		t.Errorf("unexpected errors: %v", errs)
	}

	f.Forget(151)
	if _, ok := f.Prediction(150, 1); ok || f.Actual(150) != 0 {
		t.Error("expected timeslot 150 to be forgotten")
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
