// Package report assembles the named dashboard reports by
// binding the metric extractors to the UK PACK event
// vocabulary. Reports are computed fresh per request from a
// full scan of the event source; nothing here caches or
// persists.
package report

import (
	"fmt"
	"time"

	"github.com/ukpack/ukstats/internal/event"
	"github.com/ukpack/ukstats/internal/eventlog"
	"github.com/ukpack/ukstats/internal/session"
)

// Source provides the events a report computes over. The JSONL
// store satisfies it; tests substitute an in-memory one.
type Source interface {
	Scan(eventlog.Filter) ([]event.Event, error)
}

// Reporter computes dashboard reports from a Source. The
// reporting location fixes day bucketing and date-range
// interpretation; requests may override it per call.
type Reporter struct {
	source Source
	loc    *time.Location
}

// New creates a Reporter. A nil location defaults to UTC.
func New(source Source, loc *time.Location) *Reporter {
	if loc == nil {
		loc = time.UTC
	}
	return &Reporter{source: source, loc: loc}
}

// Range restricts a report to local calendar dates, inclusive.
// Empty bounds are unbounded. Timezone optionally overrides the
// reporter's location for both bounds and day bucketing.
type Range struct {
	From     string // YYYY-MM-DD
	To       string // YYYY-MM-DD
	Timezone string // IANA name
}

// location resolves the effective reporting location.
func (r *Reporter) location(rng Range) *time.Location {
	if rng.Timezone != "" {
		if loc, err := time.LoadLocation(rng.Timezone); err == nil {
			return loc
		}
	}
	return r.loc
}

// filter converts a date range to store time bounds: local
// midnight through the last instant of the To date.
func filter(rng Range, loc *time.Location) eventlog.Filter {
	var f eventlog.Filter
	if rng.From != "" {
		if t, err := time.ParseInLocation("2006-01-02", rng.From, loc); err == nil {
			f.From = t
		}
	}
	if rng.To != "" {
		if t, err := time.ParseInLocation("2006-01-02", rng.To, loc); err == nil {
			f.To = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
	}
	return f
}

// scan loads the range's events once; every report starts here.
func (r *Reporter) scan(rng Range) ([]event.Event, *time.Location, error) {
	loc := r.location(rng)
	events, err := r.source.Scan(filter(rng, loc))
	if err != nil {
		return nil, nil, fmt.Errorf("scanning events: %w", err)
	}
	return events, loc, nil
}

// sessionsWith counts sessions containing at least one event
// with the given name.
func sessionsWith(groups map[string][]event.Event, name string) int {
	count := 0
	for _, events := range groups {
		for _, e := range events {
			if e.Name == name {
				count++
				break
			}
		}
	}
	return count
}

// groupDurations returns each session's duration in seconds.
func groupDurations(groups map[string][]event.Event) []int64 {
	out := make([]int64, 0, len(groups))
	for _, events := range groups {
		out = append(out, session.Duration(events))
	}
	return out
}
