package backtest

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"

	"powerbroker/internal/broker"
	"powerbroker/internal/config"
	"powerbroker/internal/execution"
	"powerbroker/internal/usage"
)

const replay = `{"type":"competition","minimum_order_quantity":0.001,"deactivate_timeslots_ahead":1,"bootstrap_discarded_timeslots":0}
{"type":"bootstrap","mwh":[10,10,10],"market_price":[-40,-50,-60]}
{"type":"balancing","timeslot":99,"kwh":-1000,"charge":-70}

{"type":"forecast","timeslot":101,"kwh":2000}
{"type":"forecast","timeslot":102,"kwh":-1500}
{"type":"orderbook","timeslot":101,"asks":[{"mwh":-5,"limit_price":45}]}
not json
{"type":"weather","temperature":12}
{"type":"round","current":100,"enabled":[101,102]}
{"type":"market_tx","timeslot":101,"mwh":2,"price":-45}
{"type":"tariff_tx","tx_type":"CONSUME","kwh":-2100,"posted_timeslot":101}
{"type":"round","current":101,"enabled":[102]}
`

func TestRun_EndToEnd(t *testing.T) {
	cfg := config.DefaultConfig()
	table := usage.NewTable(cfg.Market.RecordLength)
	sink := &execution.MemorySink{}
	b := broker.New(cfg, broker.Deps{
		Predictor: table,
		Sink:      sink,
		Rand:      rand.New(rand.NewPCG(3, 4)),
	})
	agent := broker.NewAgent(b, 8, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go agent.Run(ctx)

	res, err := NewRunner(agent, table).Run(ctx, strings.NewReader(replay))
	if err != nil {
		t.Fatal(err)
	}

	if res.Forecasts != 2 || res.Rounds != 2 || res.Skipped != 2 {
		t.Errorf("unexpected result: %+v", res)
	}
	if res.Final.Current != 101 {
		t.Errorf("expected final timeslot 101, got %d", res.Final.Current)
	}

	var buys, sells int
	for _, o := range sink.Orders() {
		if o.MWh > 0 {
			buys++
		} else {
			sells++
		}
	}
	if buys == 0 || sells == 0 {
		t.Errorf("expected buy and sell orders, got %d buys and %d sells", buys, sells)
	}
}

func TestDecode(t *testing.T) {
	ev, f, err := Decode([]byte(`{"type":"cleared_trade","timeslot":120,"execution_mwh":4.5,"execution_price":38,"creation_timeslot":110}`))
	if err != nil {
		t.Fatal(err)
	}
	if f != nil {
		t.Fatal("expected an event, got a forecast")
	}
	ct, ok := ev.(broker.ClearedTrade)
	if !ok {
		t.Fatalf("expected ClearedTrade, got %T", ev)
	}
	if ct.Timeslot != 120 || ct.ExecutionMWh != 4.5 || ct.ExecutionPrice != 38 || ct.CreationTimeslot != 110 {
		t.Errorf("unexpected trade: %+v", ct)
	}

	if _, _, err := Decode([]byte(`{"type":"round","current":"soon"}`)); err == nil {
		t.Error("expected error for a malformed round")
	}
}
