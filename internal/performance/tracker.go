package performance

import (
	"database/sql"
	"fmt"
	"math"
)

// Tracker persists forecast diagnostics and computes reports from the
// database.
type Tracker struct {
	db *sql.DB
}

func NewTracker(db *sql.DB) *Tracker {
	return &Tracker{db: db}
}

// RecordPrediction upserts the prediction made lead timeslots ahead.
func (t *Tracker) RecordPrediction(timeslot, lead int, kwh float64) error {
	_, err := t.db.Exec(`
		INSERT INTO usage_predictions (timeslot, lead, kwh) VALUES (?, ?, ?)
		ON CONFLICT (timeslot, lead) DO UPDATE SET kwh = excluded.kwh, recorded_at = datetime('now')`,
		timeslot, lead, kwh)
	if err != nil {
		return fmt.Errorf("recording prediction: %w", err)
	}
	return nil
}

// RecordActual stores the realized usage for a timeslot.
func (t *Tracker) RecordActual(timeslot int, kwh float64) error {
	_, err := t.db.Exec(`
		INSERT INTO actual_usage (timeslot, kwh) VALUES (?, ?)
		ON CONFLICT (timeslot) DO UPDATE SET kwh = excluded.kwh`,
		timeslot, kwh)
	if err != nil {
		return fmt.Errorf("recording actual usage: %w", err)
	}
	return nil
}

// SolverStage is one solved stage of the limit-price solver.
type SolverStage struct {
	Stage  int
	Value  float64
	Action string
	Price  float64
}

// RecordSolution replaces the stored solver output for a timeslot.
func (t *Tracker) RecordSolution(timeslot int, stages []SolverStage) error {
	tx, err := t.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning solution tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM dp_solutions WHERE timeslot = ?`, timeslot); err != nil {
		return fmt.Errorf("clearing solution: %w", err)
	}
	for _, s := range stages {
		if _, err := tx.Exec(`
			INSERT INTO dp_solutions (timeslot, stage, value, action, price) VALUES (?, ?, ?, ?, ?)`,
			timeslot, s.Stage, s.Value, s.Action, s.Price); err != nil {
			return fmt.Errorf("inserting stage %d: %w", s.Stage, err)
		}
	}
	return tx.Commit()
}

// Report contains forecast and order statistics for the game so far.
type Report struct {
	TotalOrders   int
	MarketOrders  int
	BoughtMWh     float64
	SoldMWh       float64
	StrategyStats map[string]StrategyStats
	LeadStats     map[int]LeadStats
}

// StrategyStats contains per-strategy order counts.
type StrategyStats struct {
	Orders int
	MWh    float64
}

// LeadStats summarizes prediction error at one lead time.
type LeadStats struct {
	Samples int
	MAE     float64
	Bias    float64
	RMSE    float64
}

// Generate computes the full report.
func (t *Tracker) Generate() (*Report, error) {
	r := &Report{
		StrategyStats: make(map[string]StrategyStats),
		LeadStats:     make(map[int]LeadStats),
	}

	if err := t.computeOrders(r); err != nil {
		return nil, fmt.Errorf("computing order stats: %w", err)
	}
	if err := t.computeStrategyStats(r); err != nil {
		return nil, fmt.Errorf("computing strategy stats: %w", err)
	}
	if err := t.computeLeadStats(r); err != nil {
		return nil, fmt.Errorf("computing forecast stats: %w", err)
	}

	return r, nil
}

func (t *Tracker) computeOrders(r *Report) error {
	row := t.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN limit_price IS NULL THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN mwh > 0 THEN mwh ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN mwh < 0 THEN -mwh ELSE 0 END), 0)
		FROM orders`)
	return row.Scan(&r.TotalOrders, &r.MarketOrders, &r.BoughtMWh, &r.SoldMWh)
}

func (t *Tracker) computeStrategyStats(r *Report) error {
	rows, err := t.db.Query(`
		SELECT strategy, COUNT(*), COALESCE(SUM(ABS(mwh)), 0)
		FROM orders GROUP BY strategy`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var stats StrategyStats
		if err := rows.Scan(&name, &stats.Orders, &stats.MWh); err != nil {
			return err
		}
		r.StrategyStats[name] = stats
	}
	return rows.Err()
}

func (t *Tracker) computeLeadStats(r *Report) error {
	rows, err := t.db.Query(`
		SELECT p.lead, COUNT(*),
		       AVG(ABS(a.kwh - p.kwh)),
		       AVG(a.kwh - p.kwh),
		       AVG((a.kwh - p.kwh) * (a.kwh - p.kwh))
		FROM usage_predictions p
		JOIN actual_usage a ON a.timeslot = p.timeslot
		GROUP BY p.lead`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var lead int
		var stats LeadStats
		var mse float64
		if err := rows.Scan(&lead, &stats.Samples, &stats.MAE, &stats.Bias, &mse); err != nil {
			return err
		}
		stats.RMSE = math.Sqrt(mse)
		r.LeadStats[lead] = stats
	}
	return rows.Err()
}
