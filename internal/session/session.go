// Package session derives per-session views from the flat event
// log. A session is the time-ordered sequence of events sharing
// one sessionId; there is no lifecycle marker, so completeness
// is inferred downstream from which event types are present.
package session

import (
	"sort"

	"github.com/ukpack/ukstats/internal/event"
)

// Group maps sessionId to that session's events sorted
// ascending by timestamp. Events with unparseable timestamps
// sort first (earliest possible time) so one malformed record
// never aborts the pass. The sort is stable, preserving append
// order between equal timestamps.
func Group(events []event.Event) map[string][]event.Event {
	groups := make(map[string][]event.Event)
	for _, e := range events {
		groups[e.SessionID] = append(groups[e.SessionID], e)
	}
	for _, g := range groups {
		sort.SliceStable(g, func(i, j int) bool {
			return g[i].Time().Before(g[j].Time())
		})
	}
	return groups
}

// Duration returns the span between the earliest and latest
// parseable timestamps in seconds. Sessions with fewer than two
// parseable timestamps have duration 0; the result is never
// negative.
func Duration(events []event.Event) int64 {
	var first, last int64 = -1, -1
	for _, e := range events {
		t := e.Time()
		if t.IsZero() {
			continue
		}
		u := t.Unix()
		if first == -1 || u < first {
			first = u
		}
		if last == -1 || u > last {
			last = u
		}
	}
	if first == -1 || last <= first {
		return 0
	}
	return last - first
}
