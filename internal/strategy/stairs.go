package strategy

import "fmt"

// twoTier splits a need into a min-size probe at lower and the rest at
// upper. The rest is never below min size.
func twoTier(target int, mwh, minMWh, lower, upper float64) []Order {
	rest := mwh - minMWh
	if rest < minMWh {
		rest = minMWh
	}
	return []Order{
		limitOrder(target, rest, upper),
		limitOrder(target, minMWh, lower),
	}
}

// staircase places one min-size order per limit, best first, while volume
// is left, and the remainder at the last limit reached.
func staircase(target int, mwh, minMWh float64, limits []float64) ([]Order, error) {
	if len(limits) == 0 {
		return nil, fmt.Errorf("staircase for timeslot %d: no limits", target)
	}

	var orders []Order
	left := mwh
	i := 0
	for ; left > 0 && i < len(limits)-1; i++ {
		orders = append(orders, limitOrder(target, minMWh, limits[i]))
		left -= minMWh
	}

	if left >= minMWh {
		orders = append(orders, limitOrder(target, left, limits[i]))
	}
	return orders, nil
}
