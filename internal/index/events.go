package index

import (
	"context"
	"encoding/json"
	"fmt"

	"database/sql"

	"github.com/ukpack/ukstats/internal/event"
)

// upsertSessionSQL folds one event into its session rollup.
// Timestamps are RFC3339 UTC strings, so lexicographic MIN/MAX
// matches chronological order.
const upsertSessionSQL = `
	INSERT INTO sessions (id, started_at, ended_at, event_count, completed)
	VALUES (?, ?, ?, 1, ?)
	ON CONFLICT(id) DO UPDATE SET
		started_at = CASE
			WHEN excluded.started_at IS NULL THEN started_at
			WHEN started_at IS NULL
				OR excluded.started_at < started_at THEN excluded.started_at
			ELSE started_at END,
		ended_at = CASE
			WHEN excluded.ended_at IS NULL THEN ended_at
			WHEN ended_at IS NULL
				OR excluded.ended_at > ended_at THEN excluded.ended_at
			ELSE ended_at END,
		event_count = event_count + 1,
		completed = MAX(completed, excluded.completed)`

const insertEventSQL = `
	INSERT INTO events (event_id, session_id, name, timestamp, payload)
	VALUES (?, ?, ?, ?, ?)`

// IndexEvent folds one event into the read-model.
func (db *DB) IndexEvent(e event.Event) error {
	return db.IndexEvents([]event.Event{e})
}

// IndexEvents folds a batch of events into the read-model in a
// single transaction.
func (db *DB) IndexEvents(events []event.Event) error {
	if len(events) == 0 {
		return nil
	}
	return db.Update(func(tx *sql.Tx) error {
		upsert, err := tx.Prepare(upsertSessionSQL)
		if err != nil {
			return fmt.Errorf("preparing session upsert: %w", err)
		}
		defer upsert.Close()

		insert, err := tx.Prepare(insertEventSQL)
		if err != nil {
			return fmt.Errorf("preparing event insert: %w", err)
		}
		defer insert.Close()

		for _, e := range events {
			ts := nullString(e.Timestamp)
			completed := e.Name == event.RewardDecision
			if _, err := upsert.Exec(e.SessionID, ts, ts, completed); err != nil {
				return fmt.Errorf("upserting session %s: %w", e.SessionID, err)
			}

			var payload any
			if e.Payload != nil {
				data, err := json.Marshal(e.Payload)
				if err != nil {
					return fmt.Errorf("encoding payload: %w", err)
				}
				payload = string(data)
			}
			if _, err := insert.Exec(
				nullString(e.ID), e.SessionID, e.Name, ts, payload,
			); err != nil {
				return fmt.Errorf("inserting event: %w", err)
			}
		}
		return nil
	})
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// EventRow is one indexed event as served to the dashboard.
type EventRow struct {
	EventID   *string         `json:"event_id"`
	SessionID string          `json:"session_id"`
	Name      string          `json:"name"`
	Timestamp *string         `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// SessionEvents returns one session's events ordered by
// timestamp, then insertion order.
func (db *DB) SessionEvents(
	ctx context.Context, sessionID string,
) ([]EventRow, error) {
	rows, err := db.reader.QueryContext(ctx, `
		SELECT event_id, session_id, name, timestamp, payload
		FROM events
		WHERE session_id = ?
		ORDER BY COALESCE(timestamp, ''), id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying session events: %w", err)
	}
	defer rows.Close()

	var events []EventRow
	for rows.Next() {
		var r EventRow
		var payload sql.NullString
		if err := rows.Scan(
			&r.EventID, &r.SessionID, &r.Name, &r.Timestamp, &payload,
		); err != nil {
			return nil, fmt.Errorf("scanning event row: %w", err)
		}
		if payload.Valid {
			r.Payload = json.RawMessage(payload.String)
		}
		events = append(events, r)
	}
	return events, rows.Err()
}
