package performance

// Forecasts keeps usage predictions by lead and realized usage per
// timeslot for the running game. Usage is in kWh, consumption negative.
type Forecasts struct {
	maxLead   int
	predicted map[int]map[int]float64 // timeslot -> lead -> kWh
	actual    map[int]float64
}

func NewForecasts(maxLead int) *Forecasts {
	return &Forecasts{
		maxLead:   maxLead,
		predicted: make(map[int]map[int]float64),
		actual:    make(map[int]float64),
	}
}

// Predict stores the prediction made lead timeslots ahead of timeslot.
// Leads outside [1, maxLead] are ignored.
func (f *Forecasts) Predict(timeslot, lead int, kwh float64) bool {
	if lead < 1 || lead > f.maxLead {
		return false
	}
	byLead, ok := f.predicted[timeslot]
	if !ok {
		byLead = make(map[int]float64)
		f.predicted[timeslot] = byLead
	}
	byLead[lead] = kwh
	return true
}

// AddActual accumulates realized usage for a timeslot.
func (f *Forecasts) AddActual(timeslot int, kwh float64) {
	f.actual[timeslot] += kwh
}

func (f *Forecasts) Actual(timeslot int) float64 { return f.actual[timeslot] }

// Prediction returns the kWh predicted lead timeslots ahead.
func (f *Forecasts) Prediction(timeslot, lead int) (float64, bool) {
	kwh, ok := f.predicted[timeslot][lead]
	return kwh, ok
}

// Errors returns actual minus predicted usage for every lead that made a
// prediction for timeslot.
func (f *Forecasts) Errors(timeslot int) map[int]float64 {
	out := make(map[int]float64, len(f.predicted[timeslot]))
	actual := f.actual[timeslot]
	for lead, kwh := range f.predicted[timeslot] {
		out[lead] = actual - kwh
	}
	return out
}

// Forget drops everything recorded for timeslots before ts.
func (f *Forecasts) Forget(ts int) {
	for t := range f.predicted {
		if t < ts {
			delete(f.predicted, t)
		}
	}
	for t := range f.actual {
		if t < ts {
			delete(f.actual, t)
		}
	}
}
