package stats

import (
	"sort"

	"github.com/ukpack/ukstats/internal/event"
)

const (
	// DefaultPageSize applies when a caller passes a
	// non-positive page size.
	DefaultPageSize = 20
	// MaxPageSize caps a single page.
	MaxPageSize = 100
)

// TextEntry is one free-text submission.
type TextEntry struct {
	SessionID string `json:"sessionId"`
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
}

// TextPage is a 1-based page of free-text entries. An
// out-of-range page has empty Data but intact totals.
type TextPage struct {
	Data       []TextEntry `json:"data"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalItems int         `json:"totalItems"`
	TotalPages int         `json:"totalPages"`
}

// FreeText collects the non-empty text field of every event
// named name, newest first, and slices out the requested page.
func FreeText(
	events []event.Event, name, field string, page, size int,
) TextPage {
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	var entries []TextEntry
	for _, e := range events {
		if e.Name != name {
			continue
		}
		text := event.StringField(e.Payload, field)
		if text == "" {
			continue
		}
		entries = append(entries, TextEntry{
			SessionID: e.SessionID,
			Timestamp: e.Timestamp,
			Text:      text,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return event.ParseTime(entries[i].Timestamp).
			After(event.ParseTime(entries[j].Timestamp))
	})

	total := len(entries)
	p := TextPage{
		Data:       []TextEntry{},
		Page:       page,
		PageSize:   size,
		TotalItems: total,
		TotalPages: (total + size - 1) / size,
	}
	if page < 1 {
		return p
	}
	start := (page - 1) * size
	if start >= total {
		return p
	}
	end := min(start+size, total)
	p.Data = entries[start:end]
	return p
}
