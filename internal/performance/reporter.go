package performance

import (
	"log/slog"
	"sort"
)

// LogReport logs the report as structured JSON.
func LogReport(r *Report) {
	slog.Info("=== PERFORMANCE REPORT ===",
		"total_orders", r.TotalOrders,
		"market_orders", r.MarketOrders,
		"bought_mwh", r.BoughtMWh,
		"sold_mwh", r.SoldMWh,
	)

	for name, stats := range r.StrategyStats {
		slog.Info("strategy orders",
			"strategy", name,
			"orders", stats.Orders,
			"mwh", stats.MWh,
		)
	}

	leads := make([]int, 0, len(r.LeadStats))
	for lead := range r.LeadStats {
		leads = append(leads, lead)
	}
	sort.Ints(leads)
	for _, lead := range leads {
		stats := r.LeadStats[lead]
		slog.Info("forecast accuracy",
			"lead", lead,
			"samples", stats.Samples,
			"mae_kwh", stats.MAE,
			"bias_kwh", stats.Bias,
			"rmse_kwh", stats.RMSE,
		)
	}
}
