package backtest

import (
	"encoding/json"
	"fmt"

	"powerbroker/internal/broker"
)

// Forecast is a recorded usage forecast for one timeslot, in kWh to buy.
type Forecast struct {
	Timeslot int     `json:"timeslot"`
	KWh      float64 `json:"kwh"`
}

type envelope struct {
	Type string `json:"type"`
}

// Decode parses one replay line. Exactly one of the returned event and
// forecast is set on success.
func Decode(line []byte) (broker.Event, *Forecast, error) {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, nil, fmt.Errorf("decoding envelope: %w", err)
	}

	var (
		ev  broker.Event
		err error
	)
	switch env.Type {
	case "forecast":
		var f Forecast
		if err := json.Unmarshal(line, &f); err != nil {
			return nil, nil, fmt.Errorf("decoding forecast: %w", err)
		}
		return nil, &f, nil
	case "competition":
		ev, err = decodeAs[broker.CompetitionSetup](line)
	case "bootstrap":
		ev, err = decodeAs[broker.BootstrapMarketData](line)
	case "cleared_trade":
		ev, err = decodeAs[broker.ClearedTrade](line)
	case "balancing":
		ev, err = decodeAs[broker.BalancingSettlement](line)
	case "market_tx":
		ev, err = decodeAs[broker.MarketTransaction](line)
	case "orderbook":
		ev, err = decodeAs[broker.OrderbookUpdate](line)
	case "position":
		ev, err = decodeAs[broker.MarketPosition](line)
	case "tariff_tx":
		ev, err = decodeAs[broker.TariffTransaction](line)
	case "round":
		ev, err = decodeAs[broker.Round](line)
	default:
		return nil, nil, fmt.Errorf("unknown event type %q", env.Type)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("decoding %s: %w", env.Type, err)
	}
	return ev, nil, nil
}

func decodeAs[T broker.Event](line []byte) (broker.Event, error) {
	var ev T
	if err := json.Unmarshal(line, &ev); err != nil {
		return nil, err
	}
	return ev, nil
}
