package broker

import "powerbroker/internal/market"

// Event is an inbound message from the simulation server.
type Event interface {
	Kind() string
}

// CompetitionSetup arrives once at the start of a game.
type CompetitionSetup struct {
	MinimumOrderQuantity        float64 `json:"minimum_order_quantity"`
	DeactivateTimeslotsAhead    int     `json:"deactivate_timeslots_ahead"`
	BootstrapDiscardedTimeslots int     `json:"bootstrap_discarded_timeslots"`
}

// BootstrapMarketData reports per-timeslot traded volume and price for the
// bootstrap period, starting right after the discarded timeslots.
type BootstrapMarketData struct {
	MWh         []float64 `json:"mwh"`
	MarketPrice []float64 `json:"market_price"`
}

// BalancingSettlement is our balancing charge for one timeslot. Negative
// KWh means the balancing market supplied energy to us.
type BalancingSettlement struct {
	Timeslot int     `json:"timeslot"`
	KWh      float64 `json:"kwh"`
	Charge   float64 `json:"charge"`
}

// ClearedTrade is a public clearing result.
type ClearedTrade struct {
	Timeslot         int     `json:"timeslot"`
	ExecutionMWh     float64 `json:"execution_mwh"`
	ExecutionPrice   float64 `json:"execution_price"`
	CreationTimeslot int     `json:"creation_timeslot"`
}

// MarketTransaction is a fill of one of our orders.
type MarketTransaction struct {
	Timeslot int     `json:"timeslot"`
	MWh      float64 `json:"mwh"`
	Price    float64 `json:"price"`
}

// OrderbookUpdate replaces the uncleared book of a timeslot.
type OrderbookUpdate struct {
	Timeslot int                `json:"timeslot"`
	Bids     []market.BookOrder `json:"bids"`
	Asks     []market.BookOrder `json:"asks"`
}

// TariffTxType classifies a tariff transaction.
type TariffTxType string

const (
	TariffConsume TariffTxType = "CONSUME"
	TariffProduce TariffTxType = "PRODUCE"
)

// TariffTransaction is realized customer usage under one of our tariffs.
type TariffTransaction struct {
	Type           TariffTxType `json:"tx_type"`
	KWh            float64      `json:"kwh"`
	PostedTimeslot int          `json:"posted_timeslot"`
}

// MarketPosition is our net wholesale holding for a timeslot.
type MarketPosition struct {
	Timeslot       int     `json:"timeslot"`
	OverallBalance float64 `json:"overall_balance"`
}

// Round triggers one activation: current timeslot and the timeslots still
// open for trading, ascending.
type Round struct {
	Current int   `json:"current"`
	Enabled []int `json:"enabled"`
}

func (CompetitionSetup) Kind() string    { return "competition" }
func (BootstrapMarketData) Kind() string { return "bootstrap" }
func (BalancingSettlement) Kind() string { return "balancing" }
func (ClearedTrade) Kind() string        { return "cleared_trade" }
func (MarketTransaction) Kind() string   { return "market_tx" }
func (OrderbookUpdate) Kind() string     { return "orderbook" }
func (TariffTransaction) Kind() string   { return "tariff_tx" }
func (MarketPosition) Kind() string      { return "position" }
func (Round) Kind() string               { return "round" }
