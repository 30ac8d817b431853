// Package event defines the survey event record, the event-name
// vocabulary emitted by the UK PACK client, and the safe payload
// accessors shared by every aggregation.
package event

import "time"

// Event is the atomic record of the survey log. SessionID is an
// opaque grouping key supplied by the client; it is never
// validated for uniqueness. Payload is an open mapping whose
// documented keys depend on Name (see vocab.go).
type Event struct {
	ID        string         `json:"eventId,omitempty"`
	SessionID string         `json:"sessionId"`
	Name      string         `json:"eventName"`
	Timestamp string         `json:"timestamp"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// timestampFormats lists accepted timestamp layouts, most
// common first.
var timestampFormats = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
}

// ParseTime parses an ISO-8601 timestamp string leniently.
// Returns the zero time when the string is empty or malformed;
// callers treat the zero time as "earliest possible" so one bad
// record never aborts an aggregation pass.
func ParseTime(ts string) time.Time {
	if ts == "" {
		return time.Time{}
	}
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, ts); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Time returns the parsed event timestamp, zero if malformed.
func (e Event) Time() time.Time {
	return ParseTime(e.Timestamp)
}

// Validate checks the required ingest fields. The timestamp is
// not required here; the store backfills it on append.
func (e Event) Validate() error {
	if e.SessionID == "" {
		return &ValidationError{Field: "sessionId", Reason: "must not be empty"}
	}
	if e.Name == "" {
		return &ValidationError{Field: "eventName", Reason: "must not be empty"}
	}
	return nil
}
