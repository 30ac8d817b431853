// Package testevents provides shared fixture builders for UK
// PACK event test data. Used by the eventlog, ingest, report,
// and server test packages.
package testevents

import (
	"encoding/json"
	"strings"

	"github.com/ukpack/ukstats/internal/event"
)

// EventJSON returns one tracked event as a JSON string.
func EventJSON(
	sessionID, name, timestamp string, payload map[string]any,
) string {
	m := map[string]any{
		"sessionId": sessionID,
		"eventName": name,
		"timestamp": timestamp,
	}
	if payload != nil {
		m["payload"] = payload
	}
	return mustMarshal(m)
}

// StanceJSON returns a stance-selected event line.
func StanceJSON(sessionID, timestamp, choice string) string {
	return EventJSON(sessionID, event.Stance, timestamp,
		map[string]any{event.FieldChoice: choice})
}

// ReasonJSON returns a reason-selected event line.
func ReasonJSON(sessionID, timestamp, choice string) string {
	return EventJSON(sessionID, event.Reason, timestamp,
		map[string]any{event.FieldChoice: choice})
}

// SatisfactionJSON returns a satisfaction-selected event line.
func SatisfactionJSON(sessionID, timestamp, choice string) string {
	return EventJSON(sessionID, event.Satisfaction, timestamp,
		map[string]any{event.FieldChoice: choice})
}

// FakeNewsJSON returns a fakenews-selected event line for the
// given scenario.
func FakeNewsJSON(
	sessionID, timestamp, scenario, choice string,
) string {
	return EventJSON(sessionID, event.FakeNews, timestamp,
		map[string]any{
			event.FieldScenario: scenario,
			event.FieldChoice:   choice,
		})
}

// PriorityJSON returns a priority-game-completed event line.
func PriorityJSON(
	sessionID, timestamp string, policies []string,
) string {
	return EventJSON(sessionID, event.PriorityGame, timestamp,
		map[string]any{event.FieldSelectedPolicies: policies})
}

// BeneficiaryJSON returns a beneficiary-game-completed event
// line.
func BeneficiaryJSON(
	sessionID, timestamp string, groups []string,
) string {
	return EventJSON(sessionID, event.BeneficiaryGame, timestamp,
		map[string]any{event.FieldSelectedGroups: groups})
}

// BudgetJSON returns a budget-game-completed event line.
func BudgetJSON(
	sessionID, timestamp string,
	top3 []string, allocation map[string]any,
) string {
	return EventJSON(sessionID, event.BudgetGame, timestamp,
		map[string]any{
			event.FieldTop3Choices:      top3,
			event.FieldBudgetAllocation: allocation,
		})
}

// RewardDecisionJSON returns a reward-decision event line.
func RewardDecisionJSON(
	sessionID, timestamp, choice string,
) string {
	return EventJSON(sessionID, event.RewardDecision, timestamp,
		map[string]any{event.FieldChoice: choice})
}

// SuggestionJSON returns a suggestion-submitted event line.
func SuggestionJSON(sessionID, timestamp, text string) string {
	return EventJSON(sessionID, event.Suggestion, timestamp,
		map[string]any{event.FieldSuggestion: text})
}

// CustomReasonJSON returns a custom-reason-submitted event line.
func CustomReasonJSON(sessionID, timestamp, text string) string {
	return EventJSON(sessionID, event.CustomReason, timestamp,
		map[string]any{event.FieldCustomReason: text})
}

// JoinJSONL joins JSON lines with newlines and appends a
// trailing newline.
func JoinJSONL(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

// JourneyBuilder constructs one session's JSONL journey using a
// fluent API.
type JourneyBuilder struct {
	sessionID string
	lines     []string
}

// NewJourney returns a builder for the given session.
func NewJourney(sessionID string) *JourneyBuilder {
	return &JourneyBuilder{sessionID: sessionID}
}

// Stance appends a stance-selected line.
func (b *JourneyBuilder) Stance(
	timestamp, choice string,
) *JourneyBuilder {
	b.lines = append(b.lines,
		StanceJSON(b.sessionID, timestamp, choice))
	return b
}

// Reason appends a reason-selected line.
func (b *JourneyBuilder) Reason(
	timestamp, choice string,
) *JourneyBuilder {
	b.lines = append(b.lines,
		ReasonJSON(b.sessionID, timestamp, choice))
	return b
}

// Satisfaction appends a satisfaction-selected line.
func (b *JourneyBuilder) Satisfaction(
	timestamp, choice string,
) *JourneyBuilder {
	b.lines = append(b.lines,
		SatisfactionJSON(b.sessionID, timestamp, choice))
	return b
}

// FakeNews appends a fakenews-selected line.
func (b *JourneyBuilder) FakeNews(
	timestamp, scenario, choice string,
) *JourneyBuilder {
	b.lines = append(b.lines,
		FakeNewsJSON(b.sessionID, timestamp, scenario, choice))
	return b
}

// RewardDecision appends a reward-decision line.
func (b *JourneyBuilder) RewardDecision(
	timestamp, choice string,
) *JourneyBuilder {
	b.lines = append(b.lines,
		RewardDecisionJSON(b.sessionID, timestamp, choice))
	return b
}

// Event appends an arbitrary event line for this session.
func (b *JourneyBuilder) Event(
	timestamp, name string, payload map[string]any,
) *JourneyBuilder {
	b.lines = append(b.lines,
		EventJSON(b.sessionID, name, timestamp, payload))
	return b
}

// Raw appends an arbitrary raw line.
func (b *JourneyBuilder) Raw(line string) *JourneyBuilder {
	b.lines = append(b.lines, line)
	return b
}

// Lines returns the accumulated JSON lines.
func (b *JourneyBuilder) Lines() []string {
	return b.lines
}

// String returns the JSONL content with a trailing newline.
func (b *JourneyBuilder) String() string {
	return strings.Join(b.lines, "\n") + "\n"
}

// StringNoTrailingNewline returns the JSONL content without a
// trailing newline.
func (b *JourneyBuilder) StringNoTrailingNewline() string {
	return strings.Join(b.lines, "\n")
}

// Events parses the builder's lines back into event values, for
// feeding stores and extractors directly.
func (b *JourneyBuilder) Events() []event.Event {
	out := make([]event.Event, 0, len(b.lines))
	for _, line := range b.lines {
		var e event.Event
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			panic(err)
		}
		out = append(out, e)
	}
	return out
}

func mustMarshal(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
