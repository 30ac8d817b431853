package stats

import (
	"sort"
	"time"

	"github.com/ukpack/ukstats/internal/event"
)

// DayCount is one calendar day's occurrence count.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// ActivityByDay buckets events named name by calendar date in
// loc, ascending by date. All date bucketing in the reports
// uses the same reporting location to avoid off-by-one-day
// drift at midnight boundaries. Events with unparseable
// timestamps are not bucketed.
func ActivityByDay(
	events []event.Event, name string, loc *time.Location,
) []DayCount {
	if loc == nil {
		loc = time.UTC
	}
	days := make(map[string]int)
	for _, e := range events {
		if e.Name != name {
			continue
		}
		t := e.Time()
		if t.IsZero() {
			continue
		}
		days[t.In(loc).Format("2006-01-02")]++
	}

	out := make([]DayCount, 0, len(days))
	for date, count := range days {
		out = append(out, DayCount{Date: date, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date < out[j].Date
	})
	return out
}
