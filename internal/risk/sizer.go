package risk

import (
	"log/slog"
	"math"

	"powerbroker/internal/config"
)

// PositionLookup reports the energy already held for a timeslot, in MWh.
type PositionLookup interface {
	Position(timeslot int) float64
}

// Sizer turns a predicted need into the volume worth sending to the
// wholesale market.
type Sizer struct {
	cfg       config.PolicyConfig
	minMWh    float64
	positions PositionLookup
}

func NewSizer(cfg config.PolicyConfig, minMWh float64, positions PositionLookup) *Sizer {
	return &Sizer{cfg: cfg, minMWh: minMWh, positions: positions}
}

// SetMinOrder updates the minimum order volume, e.g. from the competition
// setup.
func (s *Sizer) SetMinOrder(mwh float64) { s.minMWh = mwh }

func (s *Sizer) MinOrder() float64 { return s.minMWh }

// Size returns the volume to trade for target given a need in MWh.
// ok is false when nothing should be sent.
func (s *Sizer) Size(target, current int, need float64) (mwh float64, ok bool) {
	held := s.positions.Position(target)
	mwh = need - held

	if math.Abs(mwh) <= s.minMWh {
		slog.Debug("need below minimum order, skipping",
			"timeslot", target,
			"need", need,
			"held", held,
			"min_mwh", s.minMWh,
		)
		return 0, false
	}

	// Far-ahead purchases are scaled down; later rounds can top up.
	if mwh > 0 && target-current > s.cfg.ReductionLead {
		mwh *= s.cfg.ReductionFactor
	}
	return mwh, true
}
