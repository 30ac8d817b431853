package index

import (
	"context"
	"fmt"
)

// Stats holds O(1) counters from the trigger-maintained stats
// table, plus the completed-session count.
type Stats struct {
	SessionCount   int `json:"session_count"`
	EventCount     int `json:"event_count"`
	CompletedCount int `json:"completed_count"`
}

// GetStats returns the index counters.
func (db *DB) GetStats(ctx context.Context) (Stats, error) {
	const query = `
		SELECT
			(SELECT value FROM stats WHERE key = 'session_count'),
			(SELECT value FROM stats WHERE key = 'event_count'),
			(SELECT COUNT(*) FROM sessions WHERE completed = 1)`

	var s Stats
	err := db.reader.QueryRowContext(ctx, query).Scan(
		&s.SessionCount, &s.EventCount, &s.CompletedCount,
	)
	if err != nil {
		return Stats{}, fmt.Errorf("fetching stats: %w", err)
	}
	return s, nil
}
