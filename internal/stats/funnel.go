package stats

import "github.com/ukpack/ukstats/internal/event"

// Stage is one step of a funnel: an event name plus an optional
// field=value predicate narrowing which occurrences qualify.
type Stage struct {
	Label string
	Name  string
	Field string // "" = any payload
	Value string
}

// matches reports whether a single event satisfies the stage.
func (st Stage) matches(e event.Event) bool {
	if e.Name != st.Name {
		return false
	}
	if st.Field == "" {
		return true
	}
	return event.StringField(e.Payload, st.Field) == st.Value
}

// FunnelStage is one computed funnel step.
type FunnelStage struct {
	Label      string  `json:"label"`
	Sessions   int     `json:"sessions"`
	Conversion float64 `json:"conversion"`
}

// Funnel counts, per stage, the sessions containing at least
// one qualifying event, and the stage-to-stage conversion
// percent. The first stage converts at 100 when non-empty.
// Later stages are not assumed monotonic: a rate above 100 is
// reported as-is rather than clamped, since a session can in
// principle carry only the later event.
func Funnel(
	groups map[string][]event.Event, stages []Stage,
) []FunnelStage {
	out := make([]FunnelStage, len(stages))
	for i, st := range stages {
		count := 0
		for _, events := range groups {
			for _, e := range events {
				if st.matches(e) {
					count++
					break
				}
			}
		}
		conv := 0.0
		if i == 0 {
			if count > 0 {
				conv = 100
			}
		} else if prev := out[i-1].Sessions; prev > 0 {
			conv = Round1(float64(count) / float64(prev) * 100)
		}
		out[i] = FunnelStage{
			Label:      st.Label,
			Sessions:   count,
			Conversion: conv,
		}
	}
	return out
}
