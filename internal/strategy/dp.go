package strategy

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"powerbroker/internal/config"
)

// ErrStage is returned when a stage outside the solved range is requested.
var ErrStage = errors.New("stage out of range")

// ActionKind tags a solver decision.
type ActionKind int

const (
	// Defer means no historical price beats waiting another round.
	Defer ActionKind = iota
	// Bid means bidding Price is worth more than waiting.
	Bid
)

func (k ActionKind) String() string {
	if k == Bid {
		return "bid"
	}
	return "defer"
}

// Action is the solver's best move at one stage. Price is a signed bid
// price (negative when buying) and is zero for Defer.
type Action struct {
	Kind  ActionKind
	Price float64
}

// Solver runs a backward sweep over lead-time stages. Stage 0 is "leave it
// to balancing"; stage k is k rounds of bidding left. Each stage's value is
// the expected price per MWh of an unfilled need, estimated from the
// empirical distribution of clearing prices at that lead.
//
// Results are cached for one current timeslot and reused by every target
// priced in the same round.
type Solver struct {
	cfg      config.PolicyConfig
	useFloor bool

	valid    bool
	validFor int
	runs     int
	values   []float64
	actions  []Action
}

// NewSolver creates a solver. With useFloor set, the stage-0 value is
// clamped to at most -2x mean market price until ProtectUntilTimeslot.
func NewSolver(cfg config.PolicyConfig, useFloor bool) *Solver {
	return &Solver{cfg: cfg, useFloor: useFloor}
}

// ValidFor reports whether the cached solution belongs to current.
func (s *Solver) ValidFor(current int) bool {
	return s.valid && s.validFor == current
}

// Solve recomputes the stages unless the cache already holds current.
// It returns true when a recompute happened.
func (s *Solver) Solve(m *Market, current int) bool {
	if s.ValidFor(current) {
		return false
	}
	s.run(m, current)
	return true
}

func (s *Solver) run(m *Market, current int) {
	s.values = s.values[:0]
	s.actions = s.actions[:0]

	v0 := m.Stats.MeanShortBalancingPrice()
	if s.useFloor && current < s.cfg.ProtectUntilTimeslot {
		avg := math.Abs(m.Stats.MeanPricePerMWh())
		floored := math.Min(-2*avg, v0)
		slog.Debug("dp stage-0 floor applied", "balancing", v0, "avg_market", avg, "value", floored)
		v0 = floored
	}
	s.values = append(s.values, v0)
	s.actions = append(s.actions, Action{Kind: Defer})

	stages := m.Groups.Len()
	if stages > s.cfg.MaxLead {
		stages = s.cfg.MaxLead
	}

	for k := 1; k <= stages; k++ {
		group := m.Groups.Group(k)
		lowestAsk := m.Books.LowestAsk(current + k)
		next := s.values[k-1]

		// Volume that cleared below the cheapest live ask could not clear now.
		var eligible float64
		for _, c := range group {
			if c.Price >= lowestAsk {
				eligible += c.MWh
			}
		}

		bestValue := next
		best := Action{Kind: Defer}
		var cum float64
		for _, c := range group {
			if c.Price < lowestAsk {
				continue
			}
			cum += c.MWh
			if eligible <= 0 {
				continue
			}
			pSuccess := cum / eligible
			bid := -c.Price
			value := pSuccess*bid + (1-pSuccess)*next
			if value > bestValue {
				bestValue = value
				best = Action{Kind: Bid, Price: bid}
			}
		}

		s.values = append(s.values, bestValue)
		s.actions = append(s.actions, best)
	}

	s.valid = true
	s.validFor = current
	s.runs++

	slog.Info("dp solved", "timeslot", current, "stages", stages, "balancing_value", v0)
}

// Runs counts full recomputes since the solver was created.
func (s *Solver) Runs() int { return s.runs }

// Stages returns the highest solved stage.
func (s *Solver) Stages() int { return len(s.values) - 1 }

// Value returns the state value of a stage.
func (s *Solver) Value(stage int) (float64, error) {
	if stage < 0 || stage >= len(s.values) {
		return 0, fmt.Errorf("value of stage %d (solved %d): %w", stage, s.Stages(), ErrStage)
	}
	return s.values[stage], nil
}

// Action returns the best action of a stage.
func (s *Solver) Action(stage int) (Action, error) {
	if stage < 0 || stage >= len(s.actions) {
		return Action{}, fmt.Errorf("action of stage %d (solved %d): %w", stage, s.Stages(), ErrStage)
	}
	return s.actions[stage], nil
}

// BestActionWithMargin shades the stage's best price by BidEpsilon so the
// bid lands just above the historical clearing price.
func (s *Solver) BestActionWithMargin(stage int) (float64, error) {
	a, err := s.Action(stage)
	if err != nil {
		return 0, err
	}
	return a.Price - s.cfg.BidEpsilon, nil
}
