package report

import (
	"sort"

	"github.com/ukpack/ukstats/internal/event"
	"github.com/ukpack/ukstats/internal/session"
	"github.com/ukpack/ukstats/internal/stats"
)

// Suggestions returns the paginated free-text suggestion feed.
func (r *Reporter) Suggestions(
	rng Range, page, size int,
) (stats.TextPage, error) {
	events, _, err := r.scan(rng)
	if err != nil {
		return stats.TextPage{}, err
	}
	return stats.FreeText(
		events, event.Suggestion, event.FieldSuggestion, page, size,
	), nil
}

// CustomReasons returns the paginated feed of participant-typed
// reasons.
func (r *Reporter) CustomReasons(
	rng Range, page, size int,
) (stats.TextPage, error) {
	events, _, err := r.scan(rng)
	if err != nil {
		return stats.TextPage{}, err
	}
	return stats.FreeText(
		events, event.CustomReason, event.FieldCustomReason, page, size,
	), nil
}

// SessionSummary is one session's journey rollup.
type SessionSummary struct {
	SessionID       string `json:"sessionId"`
	StartedAt       string `json:"startedAt"`
	EndedAt         string `json:"endedAt"`
	DurationSeconds int64  `json:"durationSeconds"`
	Events          int    `json:"events"`
	ReachedReward   bool   `json:"reachedReward"`
}

// SessionSummariesReport is a newest-first page of session
// rollups plus aggregate duration statistics over the whole
// range (not just the page).
type SessionSummariesReport struct {
	Data                  []SessionSummary `json:"data"`
	Page                  int              `json:"page"`
	PageSize              int              `json:"pageSize"`
	TotalItems            int              `json:"totalItems"`
	TotalPages            int              `json:"totalPages"`
	AvgDurationSeconds    float64          `json:"avgDurationSeconds"`
	MedianDurationSeconds int64            `json:"medianDurationSeconds"`
}

// SessionSummaries computes per-session rollups for the range.
func (r *Reporter) SessionSummaries(
	rng Range, page, size int,
) (SessionSummariesReport, error) {
	events, _, err := r.scan(rng)
	if err != nil {
		return SessionSummariesReport{}, err
	}
	if size < 1 {
		size = stats.DefaultPageSize
	}
	if size > stats.MaxPageSize {
		size = stats.MaxPageSize
	}

	groups := session.Group(events)
	summaries := make([]SessionSummary, 0, len(groups))
	durations := make([]int64, 0, len(groups))
	for id, g := range groups {
		duration := session.Duration(g)
		durations = append(durations, duration)
		reached := false
		for _, e := range g {
			if e.Name == event.RewardDecision {
				reached = true
				break
			}
		}
		summaries = append(summaries, SessionSummary{
			SessionID:       id,
			StartedAt:       g[0].Timestamp,
			EndedAt:         g[len(g)-1].Timestamp,
			DurationSeconds: duration,
			Events:          len(g),
			ReachedReward:   reached,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		ti := event.ParseTime(summaries[i].StartedAt)
		tj := event.ParseTime(summaries[j].StartedAt)
		if ti.Equal(tj) {
			return summaries[i].SessionID < summaries[j].SessionID
		}
		return ti.After(tj)
	})

	total := len(summaries)
	out := SessionSummariesReport{
		Data:                  []SessionSummary{},
		Page:                  page,
		PageSize:              size,
		TotalItems:            total,
		TotalPages:            (total + size - 1) / size,
		AvgDurationSeconds:    stats.Mean(durations),
		MedianDurationSeconds: stats.Median(durations),
	}
	if page < 1 {
		return out, nil
	}
	start := (page - 1) * size
	if start >= total {
		return out, nil
	}
	end := min(start+size, total)
	out.Data = summaries[start:end]
	return out, nil
}
