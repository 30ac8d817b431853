package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{
			name: "rfc3339",
			in:   "2025-03-01T10:00:00Z",
			want: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name: "rfc3339 with millis",
			in:   "2025-03-01T10:00:00.250Z",
			want: time.Date(2025, 3, 1, 10, 0, 0, 250_000_000, time.UTC),
		},
		{
			name: "rfc3339 with offset",
			in:   "2025-03-01T17:00:00+07:00",
			want: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name: "no zone suffix",
			in:   "2025-03-01T10:00:00",
			want: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		},
		{name: "empty", in: "", want: time.Time{}},
		{name: "garbage", in: "yesterday-ish", want: time.Time{}},
		{name: "date only", in: "2025-03-01", want: time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTime(tt.in)
			assert.True(t, got.Equal(tt.want),
				"got %v, want %v", got, tt.want)
		})
	}
}

func TestValidate(t *testing.T) {
	valid := Event{SessionID: "s1", Name: Stance}
	require.NoError(t, valid.Validate())

	err := Event{Name: Stance}.Validate()
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "sessionId", verr.Field)

	err = Event{SessionID: "s1"}.Validate()
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "eventName", verr.Field)
}

func TestValidateAllowsMissingTimestamp(t *testing.T) {
	e := Event{SessionID: "s1", Name: Suggestion}
	assert.NoError(t, e.Validate())
}

func TestStringField(t *testing.T) {
	p := map[string]any{
		FieldChoice: "satisfied",
		"count":     float64(3),
	}
	assert.Equal(t, "satisfied", StringField(p, FieldChoice))
	assert.Equal(t, "", StringField(p, "count"))
	assert.Equal(t, "", StringField(p, "missing"))
	assert.Equal(t, "", StringField(nil, FieldChoice))
}

func TestStringSliceField(t *testing.T) {
	// JSON decoding yields []any.
	p := map[string]any{
		FieldSelectedPolicies: []any{"transit", 7, "parks"},
	}
	assert.Equal(t, []string{"transit", "parks"},
		StringSliceField(p, FieldSelectedPolicies))

	// Builders may hand over []string directly.
	p = map[string]any{FieldSelectedGroups: []string{"students"}}
	assert.Equal(t, []string{"students"},
		StringSliceField(p, FieldSelectedGroups))

	assert.Nil(t, StringSliceField(p, "missing"))
	assert.Nil(t, StringSliceField(
		map[string]any{"x": "not-a-slice"}, "x"))
}

func TestNumberMapField(t *testing.T) {
	p := map[string]any{
		FieldBudgetAllocation: map[string]any{
			"transit": float64(40),
			"parks":   30,
			"label":   "not a number",
		},
	}
	got := NumberMapField(p, FieldBudgetAllocation)
	assert.Equal(t, map[string]float64{
		"transit": 40,
		"parks":   30,
	}, got)

	assert.Nil(t, NumberMapField(p, "missing"))
	assert.Nil(t, NumberMapField(
		map[string]any{"x": []any{1, 2}}, "x"))
}

func TestEventTime(t *testing.T) {
	e := Event{Timestamp: "2025-03-01T10:00:00Z"}
	assert.Equal(t,
		time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), e.Time())
	assert.True(t, Event{Timestamp: "bad"}.Time().IsZero())
}
