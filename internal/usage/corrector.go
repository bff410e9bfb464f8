package usage

import "log/slog"

// Corrector feeds the miss of the most recent settled timeslot back into
// the next need. Predictions and observed usage are in usage sign: kWh
// consumed is negative.
type Corrector struct {
	gain   float64
	final  map[int]float64
	actual map[int]float64
}

func NewCorrector(gain float64) *Corrector {
	return &Corrector{
		gain:   gain,
		final:  make(map[int]float64),
		actual: make(map[int]float64),
	}
}

// UpdateFinalPrediction stores the last prediction made for target.
func (c *Corrector) UpdateFinalPrediction(target int, kwh float64) {
	c.final[target] = kwh
}

// ObserveUsage accumulates realized usage for a timeslot.
func (c *Corrector) ObserveUsage(timeslot int, kwh float64) {
	c.actual[timeslot] += kwh
}

// FudgeCorrection returns the extra kWh to buy at current: the amount by
// which usage of the previous timeslot exceeded its final prediction.
func (c *Corrector) FudgeCorrection(current int) float64 {
	prev := current - 1
	predicted, ok := c.final[prev]
	if !ok {
		return 0
	}
	actual, ok := c.actual[prev]
	if !ok {
		return 0
	}

	correction := c.gain * (predicted - actual)
	slog.Debug("fudge correction",
		"timeslot", current,
		"predicted", predicted,
		"actual", actual,
		"correction", correction,
	)

	for ts := range c.final {
		if ts < prev {
			delete(c.final, ts)
		}
	}
	for ts := range c.actual {
		if ts < prev {
			delete(c.actual, ts)
		}
	}
	return correction
}
