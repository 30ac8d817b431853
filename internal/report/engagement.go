package report

import (
	"github.com/ukpack/ukstats/internal/event"
	"github.com/ukpack/ukstats/internal/session"
	"github.com/ukpack/ukstats/internal/stats"
)

// EngagementSummary is the dashboard's headline report.
// CompletionRate is the share of sessions that reached the
// reward decision.
type EngagementSummary struct {
	TotalSessions         int                `json:"totalSessions"`
	TotalEvents           int                `json:"totalEvents"`
	CompletionRate        float64            `json:"completionRate"`
	AvgDurationSeconds    float64            `json:"avgDurationSeconds"`
	MedianDurationSeconds int64              `json:"medianDurationSeconds"`
	Stance                stats.Distribution `json:"stance"`
	ActivityByDay         []stats.DayCount   `json:"activityByDay"`
}

// Engagement computes the engagement summary for the range.
func (r *Reporter) Engagement(rng Range) (EngagementSummary, error) {
	events, loc, err := r.scan(rng)
	if err != nil {
		return EngagementSummary{}, err
	}
	groups := session.Group(events)
	durations := groupDurations(groups)

	s := EngagementSummary{
		TotalSessions:         len(groups),
		TotalEvents:           len(events),
		AvgDurationSeconds:    stats.Mean(durations),
		MedianDurationSeconds: stats.Median(durations),
		Stance:                stats.Distribute(events, event.Stance, event.FieldChoice),
		ActivityByDay:         stats.ActivityByDay(events, event.Stance, loc),
	}
	if len(groups) > 0 {
		reached := sessionsWith(groups, event.RewardDecision)
		s.CompletionRate = stats.Round1(
			float64(reached) / float64(len(groups)) * 100,
		)
	}
	return s, nil
}

// ReasoningBreakdown covers the reasoning screen: the canned
// choice distribution plus how many participants typed their
// own reason.
type ReasoningBreakdown struct {
	Reason        stats.Distribution `json:"reason"`
	CustomReasons int                `json:"customReasons"`
}

// Reasoning computes the reasoning breakdown for the range.
func (r *Reporter) Reasoning(rng Range) (ReasoningBreakdown, error) {
	events, _, err := r.scan(rng)
	if err != nil {
		return ReasoningBreakdown{}, err
	}
	b := ReasoningBreakdown{
		Reason: stats.Distribute(events, event.Reason, event.FieldChoice),
	}
	for _, e := range events {
		if e.Name == event.CustomReason &&
			event.StringField(e.Payload, event.FieldCustomReason) != "" {
			b.CustomReasons++
		}
	}
	return b, nil
}

// JourneyFunnel traces how far sessions progress through the
// main screen sequence. Stages are not forced monotonic; the
// client is free to emit events in any order.
func (r *Reporter) JourneyFunnel(rng Range) ([]stats.FunnelStage, error) {
	events, _, err := r.scan(rng)
	if err != nil {
		return nil, err
	}
	groups := session.Group(events)
	return stats.Funnel(groups, []stats.Stage{
		{Label: "stance", Name: event.Stance},
		{Label: "reason", Name: event.Reason},
		{Label: "priority-game", Name: event.PriorityGame},
		{Label: "beneficiary-game", Name: event.BeneficiaryGame},
		{Label: "budget-game", Name: event.BudgetGame},
		{Label: "satisfaction", Name: event.Satisfaction},
		{Label: "fakenews", Name: event.FakeNews},
		{Label: "reward-decision", Name: event.RewardDecision},
	}), nil
}

// RewardFunnel is the claim funnel: decision shown, participate
// chosen, contact form submitted.
func (r *Reporter) RewardFunnel(rng Range) ([]stats.FunnelStage, error) {
	events, _, err := r.scan(rng)
	if err != nil {
		return nil, err
	}
	groups := session.Group(events)
	return stats.Funnel(groups, []stats.Stage{
		{Label: "reward-decision", Name: event.RewardDecision},
		{
			Label: "participate",
			Name:  event.RewardDecision,
			Field: event.FieldChoice,
			Value: event.ChoiceParticipate,
		},
		{Label: "form-submitted", Name: event.RewardForm},
	}), nil
}
