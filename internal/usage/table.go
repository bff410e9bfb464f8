// Package usage provides table-backed stand-ins for the customer usage
// predictor and the balancing corrector, fed from recorded forecasts.
package usage

// Table answers usage queries from explicit per-timeslot forecasts. Needs
// are in kWh, positive meaning energy must be bought.
type Table struct {
	recordLength int
	byTimeslot   map[int]float64
	bySlot       []float64
}

func NewTable(recordLength int) *Table {
	return &Table{
		recordLength: recordLength,
		byTimeslot:   make(map[int]float64),
		bySlot:       make([]float64, recordLength),
	}
}

// Set records the forecast need for a timeslot. It also becomes the flat
// estimate for that slot of the weekly cycle.
func (t *Table) Set(timeslot int, kwh float64) {
	t.byTimeslot[timeslot] = kwh
	t.bySlot[t.slot(timeslot)] = kwh
}

// Usage returns the flat estimate for a slot of the weekly cycle.
func (t *Table) Usage(slot int) float64 {
	return t.bySlot[t.slot(slot)]
}

// ShiftedUsage returns the forecast for target as seen at current, falling
// back to the flat estimate when target has no explicit forecast.
func (t *Table) ShiftedUsage(target, current int) float64 {
	if kwh, ok := t.byTimeslot[target]; ok {
		return kwh
	}
	return t.Usage(target)
}

func (t *Table) slot(timeslot int) int {
	idx := timeslot % t.recordLength
	if idx < 0 {
		idx += t.recordLength
	}
	return idx
}
