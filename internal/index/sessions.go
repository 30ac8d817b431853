package index

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"database/sql"
)

// ErrInvalidCursor is returned when a pagination cursor cannot
// be decoded.
var ErrInvalidCursor = errors.New("invalid cursor")

const (
	// DefaultSessionLimit is the default page size for session
	// listings.
	DefaultSessionLimit = 50
	// MaxSessionLimit caps a single page.
	MaxSessionLimit = 200
)

// Session is one row of the derived sessions table.
type Session struct {
	ID         string  `json:"id"`
	StartedAt  *string `json:"started_at"`
	EndedAt    *string `json:"ended_at"`
	EventCount int     `json:"event_count"`
	Completed  bool    `json:"completed"`
	CreatedAt  string  `json:"created_at"`
}

const sessionCols = `id, started_at, ended_at,
	event_count, completed, created_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(rs rowScanner) (Session, error) {
	var s Session
	err := rs.Scan(
		&s.ID, &s.StartedAt, &s.EndedAt,
		&s.EventCount, &s.Completed, &s.CreatedAt,
	)
	return s, err
}

// sessionCursor is the decoded pagination token: the sort key
// of the last row on the previous page.
type sessionCursor struct {
	StartedAt string `json:"s"`
	ID        string `json:"i"`
}

func encodeCursor(startedAt, id string) string {
	data, _ := json.Marshal(sessionCursor{StartedAt: startedAt, ID: id})
	return base64.RawURLEncoding.EncodeToString(data)
}

func decodeCursor(s string) (sessionCursor, error) {
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return sessionCursor{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var c sessionCursor
	if err := json.Unmarshal(data, &c); err != nil {
		return sessionCursor{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	return c, nil
}

// SessionFilter restricts a session listing.
type SessionFilter struct {
	DateFrom  string // started_at date >= (YYYY-MM-DD)
	DateTo    string // started_at date <= (YYYY-MM-DD)
	Completed *bool  // nil = all
	Cursor    string
	Limit     int
}

// SessionPage is one keyset-paginated page of sessions, newest
// first.
type SessionPage struct {
	Sessions   []Session `json:"sessions"`
	NextCursor string    `json:"next_cursor,omitempty"`
	Total      int       `json:"total"`
}

func buildSessionWhere(f SessionFilter) (string, []any) {
	preds := []string{"event_count > 0"}
	var args []any

	if f.DateFrom != "" {
		preds = append(preds, "date(COALESCE(started_at, created_at)) >= ?")
		args = append(args, f.DateFrom)
	}
	if f.DateTo != "" {
		preds = append(preds, "date(COALESCE(started_at, created_at)) <= ?")
		args = append(args, f.DateTo)
	}
	if f.Completed != nil {
		preds = append(preds, "completed = ?")
		args = append(args, *f.Completed)
	}
	return strings.Join(preds, " AND "), args
}

// ListSessions returns a page of sessions ordered newest first
// by started_at.
func (db *DB) ListSessions(
	ctx context.Context, f SessionFilter,
) (SessionPage, error) {
	if f.Limit <= 0 || f.Limit > MaxSessionLimit {
		f.Limit = DefaultSessionLimit
	}

	where, args := buildSessionWhere(f)

	var total int
	countQuery := "SELECT COUNT(*) FROM sessions WHERE " + where
	if err := db.reader.QueryRowContext(
		ctx, countQuery, args...,
	).Scan(&total); err != nil {
		return SessionPage{}, fmt.Errorf("counting sessions: %w", err)
	}

	cursorWhere := where
	cursorArgs := append([]any{}, args...)
	if f.Cursor != "" {
		cur, err := decodeCursor(f.Cursor)
		if err != nil {
			return SessionPage{}, err
		}
		cursorWhere += ` AND (
				COALESCE(started_at, created_at), id
			) < (?, ?)`
		cursorArgs = append(cursorArgs, cur.StartedAt, cur.ID)
	}

	query := "SELECT " + sessionCols +
		" FROM sessions WHERE " + cursorWhere + `
		ORDER BY COALESCE(started_at, created_at) DESC, id DESC
		LIMIT ?`
	cursorArgs = append(cursorArgs, f.Limit+1)

	rows, err := db.reader.QueryContext(ctx, query, cursorArgs...)
	if err != nil {
		return SessionPage{}, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return SessionPage{}, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return SessionPage{}, fmt.Errorf("iterating sessions: %w", err)
	}

	page := SessionPage{Sessions: sessions, Total: total}
	if len(sessions) > f.Limit {
		page.Sessions = sessions[:f.Limit]
		last := page.Sessions[f.Limit-1]
		key := last.CreatedAt
		if last.StartedAt != nil {
			key = *last.StartedAt
		}
		page.NextCursor = encodeCursor(key, last.ID)
	}
	return page, nil
}

// GetSession returns one session, nil when absent.
func (db *DB) GetSession(
	ctx context.Context, id string,
) (*Session, error) {
	row := db.reader.QueryRowContext(
		ctx,
		"SELECT "+sessionCols+" FROM sessions WHERE id = ?",
		id,
	)
	s, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting session %s: %w", id, err)
	}
	return &s, nil
}
