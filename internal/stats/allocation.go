package stats

import "github.com/ukpack/ukstats/internal/event"

// Allocation reports per-category mean amounts from a
// string→number payload field. Categories appearing in only
// some events average over the events that mention them; absent
// categories are not zero-filled.
type Allocation struct {
	Events   int                `json:"events"`
	Averages map[string]float64 `json:"averages"`
}

// Allocate accumulates per-category sums and counts across all
// events named name, then emits Round1 means.
func Allocate(events []event.Event, name, field string) Allocation {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	a := Allocation{Averages: make(map[string]float64)}

	for _, e := range events {
		if e.Name != name {
			continue
		}
		a.Events++
		for category, amount := range event.NumberMapField(e.Payload, field) {
			sums[category] += amount
			counts[category]++
		}
	}
	for category, sum := range sums {
		a.Averages[category] = Round1(sum / float64(counts[category]))
	}
	return a
}
