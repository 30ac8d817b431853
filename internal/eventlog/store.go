// Package eventlog implements the append-only JSONL event store.
// One event object per line; appends are serialized by a mutex
// and written with O_APPEND so readers never observe torn lines
// from this process. Scans are lenient: blank, oversized, or
// non-JSON lines are skipped rather than failing the pass.
package eventlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/ukpack/ukstats/internal/event"
)

const (
	// logFileName is the segment this process appends to.
	// External writers may place additional *.jsonl segments
	// in the same directory.
	logFileName = "events.jsonl"

	initialBufSize = 64 * 1024
	maxLineLen     = 1024 * 1024
)

// Store is a directory of JSONL event segments.
type Store struct {
	dir string

	mu      sync.Mutex // serializes appends
	appendF *os.File

	now func() time.Time // test hook
}

// Open creates the log directory if needed and opens the
// write segment for appending.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &event.StorageError{Op: "open", Err: err}
	}
	f, err := os.OpenFile(
		filepath.Join(dir, logFileName),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644,
	)
	if err != nil {
		return nil, &event.StorageError{Op: "open", Err: err}
	}
	return &Store{dir: dir, appendF: f, now: time.Now}, nil
}

// Dir returns the log directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Close closes the write segment.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendF.Close()
}

// Append validates e, backfills a missing timestamp with the
// current UTC time, stamps a server-side event ID, and appends
// the record. The returned event carries the stored ID and
// timestamp.
func (s *Store) Append(e event.Event) (event.Event, error) {
	if err := e.Validate(); err != nil {
		return event.Event{}, err
	}
	if e.Timestamp == "" {
		e.Timestamp = s.now().UTC().Format(time.RFC3339Nano)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	line, err := json.Marshal(e)
	if err != nil {
		return event.Event{}, &event.StorageError{Op: "encode", Err: err}
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.appendF.Write(line); err != nil {
		return event.Event{}, &event.StorageError{Op: "append", Err: err}
	}
	return e, nil
}

// Filter restricts a scan. Zero time bounds are unbounded; an
// empty SessionID matches every session. Bounds are inclusive.
type Filter struct {
	From      time.Time
	To        time.Time
	SessionID string
}

// timeBounded reports whether a timestamp filter is active.
func (f Filter) timeBounded() bool {
	return !f.From.IsZero() || !f.To.IsZero()
}

// matches applies the filter to one event. Events with
// unparseable timestamps only match when no time bound is set.
func (f Filter) matches(e event.Event) bool {
	if f.SessionID != "" && e.SessionID != f.SessionID {
		return false
	}
	if !f.timeBounded() {
		return true
	}
	t := e.Time()
	if t.IsZero() {
		return false
	}
	if !f.From.IsZero() && t.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && t.After(f.To) {
		return false
	}
	return true
}

// Scan returns all matching events across every segment in
// storage order: segments in name order, lines in append order.
// A missing directory or empty log yields a nil slice, not an
// error.
func (s *Store) Scan(f Filter) ([]event.Event, error) {
	segs, err := s.Segments()
	if err != nil {
		return nil, err
	}

	var out []event.Event
	for _, seg := range segs {
		events, _, err := s.ReadSegment(seg.Path, 0)
		if err != nil {
			return nil, err
		}
		for _, e := range events {
			if f.matches(e) {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

// Segment describes one JSONL file in the log directory.
type Segment struct {
	Path string
	Size int64
}

// Segments lists the *.jsonl files in the log directory in
// name order.
func (s *Store) Segments() ([]Segment, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &event.StorageError{Op: "list", Err: err}
	}

	var segs []Segment
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jsonl") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue // raced with deletion
		}
		segs = append(segs, Segment{
			Path: filepath.Join(s.dir, entry.Name()),
			Size: info.Size(),
		})
	}
	sort.Slice(segs, func(i, j int) bool {
		return segs[i].Path < segs[j].Path
	})
	return segs, nil
}

// ReadSegment parses complete lines of one segment starting at
// byte offset from, returning the decoded events and the offset
// just past the last complete line. A trailing partial line (a
// write in flight) is left for the next read. Undecodable lines
// advance the offset but contribute no event.
func (s *Store) ReadSegment(
	path string, from int64,
) ([]event.Event, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, from, nil
		}
		return nil, from, &event.StorageError{Op: "read", Err: err}
	}
	defer f.Close()

	if from > 0 {
		if _, err := f.Seek(from, 0); err != nil {
			return nil, from, &event.StorageError{Op: "seek", Err: err}
		}
	}

	lr := newLineReader(f, maxLineLen)
	offset := from
	var events []event.Event
	for {
		line, n, ok := lr.next()
		if !ok {
			break
		}
		offset += n
		if e, ok := decodeLine(line); ok {
			events = append(events, e)
		}
	}
	if err := lr.err(); err != nil {
		return nil, from, &event.StorageError{Op: "read", Err: err}
	}
	return events, offset, nil
}

// decodeLine extracts an event from one JSONL line. Lines that
// are not JSON objects or lack the required grouping fields are
// rejected.
func decodeLine(line string) (event.Event, bool) {
	if !gjson.Valid(line) {
		return event.Event{}, false
	}
	e := event.Event{
		ID:        gjson.Get(line, "eventId").Str,
		SessionID: gjson.Get(line, "sessionId").Str,
		Name:      gjson.Get(line, "eventName").Str,
		Timestamp: gjson.Get(line, "timestamp").Str,
	}
	if e.SessionID == "" || e.Name == "" {
		return event.Event{}, false
	}
	if payload := gjson.Get(line, "payload"); payload.IsObject() {
		if m, ok := payload.Value().(map[string]any); ok {
			e.Payload = m
		}
	}
	return e, true
}

// String implements fmt.Stringer for diagnostics.
func (s *Store) String() string {
	return fmt.Sprintf("eventlog(%s)", s.dir)
}
