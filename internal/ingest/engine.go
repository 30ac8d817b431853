// Package ingest moves events from the API and from externally
// appended log segments into the append-only log and the SQLite
// read-model. The log append is the durability boundary; the
// index is derived and catches up from persisted byte offsets.
package ingest

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ukpack/ukstats/internal/event"
	"github.com/ukpack/ukstats/internal/eventlog"
	"github.com/ukpack/ukstats/internal/index"
)

// Stats summarizes one catch-up run.
type Stats struct {
	Segments int   `json:"segments"`
	Indexed  int   `json:"indexed"`
	Bytes    int64 `json:"bytes"`
}

// Engine coordinates appends and incremental indexing.
type Engine struct {
	store *eventlog.Store
	db    *index.DB

	runMu sync.Mutex // serializes catch-up runs

	mu        sync.RWMutex
	offsets   map[string]int64
	lastRun   time.Time
	lastStats Stats
}

// NewEngine creates an Engine, pre-loading segment offsets from
// the index so a restart resumes where the last run stopped.
func NewEngine(store *eventlog.Store, db *index.DB) *Engine {
	offsets, err := db.LoadOffsets()
	if err != nil {
		log.Printf("loading log offsets: %v", err)
		offsets = make(map[string]int64)
	}
	return &Engine{store: store, db: db, offsets: offsets}
}

// LastRun returns the time of the last completed catch-up.
func (e *Engine) LastRun() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastRun
}

// LastStats returns statistics from the last catch-up.
func (e *Engine) LastStats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastStats
}

// Ingest validates and appends one event, then folds the new
// log bytes into the index. Indexing failure is logged, not
// returned: the event is durable once appended.
func (e *Engine) Ingest(ev event.Event) (event.Event, error) {
	stored, err := e.store.Append(ev)
	if err != nil {
		return event.Event{}, err
	}
	if _, err := e.CatchUp(); err != nil {
		log.Printf("indexing after ingest: %v", err)
	}
	return stored, nil
}

// CatchUp indexes the log bytes appended since the previous
// run, segment by segment.
func (e *Engine) CatchUp() (Stats, error) {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	segs, err := e.store.Segments()
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	for _, seg := range segs {
		e.mu.RLock()
		offset := e.offsets[seg.Path]
		e.mu.RUnlock()
		if seg.Size <= offset {
			continue
		}

		events, newOffset, err := e.store.ReadSegment(seg.Path, offset)
		if err != nil {
			return stats, fmt.Errorf("reading %s: %w", seg.Path, err)
		}
		if err := e.db.IndexEvents(events); err != nil {
			return stats, fmt.Errorf("indexing %s: %w", seg.Path, err)
		}
		if err := e.db.SetOffset(seg.Path, newOffset); err != nil {
			return stats, err
		}

		e.mu.Lock()
		e.offsets[seg.Path] = newOffset
		e.mu.Unlock()

		stats.Segments++
		stats.Indexed += len(events)
		stats.Bytes += newOffset - offset
	}

	e.mu.Lock()
	e.lastRun = time.Now()
	e.lastStats = stats
	e.mu.Unlock()
	return stats, nil
}

// Rebuild clears the read-model and re-indexes every segment
// from the beginning.
func (e *Engine) Rebuild() (Stats, error) {
	e.runMu.Lock()
	if err := e.db.Reset(); err != nil {
		e.runMu.Unlock()
		return Stats{}, err
	}
	e.mu.Lock()
	e.offsets = make(map[string]int64)
	e.mu.Unlock()
	e.runMu.Unlock()

	return e.CatchUp()
}
