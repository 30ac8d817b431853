package stats

import (
	"sort"

	"github.com/ukpack/ukstats/internal/event"
)

// ValueCount pairs one observed categorical value with its
// occurrence count.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Distribution is the result of counting categorical values.
// Counts maps value to occurrences; Top is the same data sorted
// descending by count, ties broken by first encounter. Total is
// the number of events carrying the target name, whether or not
// the field contributed a value.
type Distribution struct {
	Total  int            `json:"total"`
	Counts map[string]int `json:"counts"`
	Top    []ValueCount   `json:"top"`
}

// Distribute counts the single categorical payload field of
// every event named name. Events with a missing or non-string
// field contribute to Total but to no bucket.
func Distribute(events []event.Event, name, field string) Distribution {
	d := Distribution{Counts: make(map[string]int)}
	var order []string
	for _, e := range events {
		if e.Name != name {
			continue
		}
		d.Total++
		v := event.StringField(e.Payload, field)
		if v == "" {
			continue
		}
		if _, seen := d.Counts[v]; !seen {
			order = append(order, v)
		}
		d.Counts[v]++
	}
	d.Top = topCounts(d.Counts, order)
	return d
}

// MultiSelect counts each element of a string-array payload
// field independently; one event can contribute several
// increments.
func MultiSelect(events []event.Event, name, field string) Distribution {
	d := Distribution{Counts: make(map[string]int)}
	var order []string
	for _, e := range events {
		if e.Name != name {
			continue
		}
		d.Total++
		for _, v := range event.StringSliceField(e.Payload, field) {
			if v == "" {
				continue
			}
			if _, seen := d.Counts[v]; !seen {
				order = append(order, v)
			}
			d.Counts[v]++
		}
	}
	d.Top = topCounts(d.Counts, order)
	return d
}

// topCounts renders counts as a descending list. order carries
// first-encounter positions so the stable sort breaks ties the
// way the values arrived.
func topCounts(counts map[string]int, order []string) []ValueCount {
	top := make([]ValueCount, 0, len(order))
	for _, v := range order {
		top = append(top, ValueCount{Value: v, Count: counts[v]})
	}
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Count > top[j].Count
	})
	return top
}
