package server_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ukpack/ukstats/internal/config"
	"github.com/ukpack/ukstats/internal/eventlog"
	"github.com/ukpack/ukstats/internal/index"
	"github.com/ukpack/ukstats/internal/ingest"
	"github.com/ukpack/ukstats/internal/report"
	"github.com/ukpack/ukstats/internal/server"
	"github.com/ukpack/ukstats/internal/testevents"
)

// testEnv wires a server over a temporary log and index.
type testEnv struct {
	srv     *server.Server
	handler http.Handler
	store   *eventlog.Store
	db      *index.DB
	engine  *ingest.Engine
}

func setup(t *testing.T, srvOpts ...server.Option) *testEnv {
	t.Helper()
	dir := t.TempDir()

	store, err := eventlog.Open(filepath.Join(dir, "events"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	db, err := index.Open(filepath.Join(dir, "index.db"))
	if err != nil {
		t.Fatalf("opening index: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.Config{
		Host:           "127.0.0.1",
		Port:           0,
		DataDir:        dir,
		EventsDir:      filepath.Join(dir, "events"),
		DBPath:         filepath.Join(dir, "index.db"),
		ReportTimezone: "UTC",
		WriteTimeout:   30 * time.Second,
	}
	engine := ingest.NewEngine(store, db)
	reporter := report.New(store, time.UTC)
	srv := server.New(cfg, db, engine, reporter, srvOpts...)

	return &testEnv{
		srv:     srv,
		handler: srv.Handler(),
		store:   store,
		db:      db,
		engine:  engine,
	}
}

func (te *testEnv) get(
	t *testing.T, path string,
) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	te.handler.ServeHTTP(w, req)
	return w
}

func (te *testEnv) post(
	t *testing.T, path, body string,
) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path,
		strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	te.handler.ServeHTTP(w, req)
	return w
}

func decodeBody(
	t *testing.T, w *httptest.ResponseRecorder, v any,
) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding %q: %v", w.Body.String(), err)
	}
}

func requireStatus(
	t *testing.T, w *httptest.ResponseRecorder, want int,
) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d (body: %s)",
			w.Code, want, w.Body.String())
	}
}

// listenAndServe starts the server on a real port and returns the
// base URL. The server is shut down when the test finishes.
func (te *testEnv) listenAndServe(t *testing.T) string {
	t.Helper()
	port := server.FindAvailablePort("127.0.0.1", 40000)
	te.srv.SetPort(port)

	var serveErr error
	done := make(chan struct{})
	go func() {
		serveErr = te.srv.ListenAndServe()
		close(done)
	}()

	// Wait for the port to accept connections.
	deadline := time.Now().Add(2 * time.Second)
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	ready := false
	var lastDialErr error
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout(
			"tcp", addr, 50*time.Millisecond,
		)
		if err == nil {
			conn.Close()
			ready = true
			break
		}
		lastDialErr = err
		time.Sleep(10 * time.Millisecond)
	}
	if !ready {
		select {
		case <-done:
			t.Fatalf("server failed to start: %v", serveErr)
		default:
		}
		t.Fatalf(
			"server not ready after 2s: last dial error: %v",
			lastDialErr,
		)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(
			context.Background(), 5*time.Second,
		)
		defer cancel()
		if err := te.srv.Shutdown(ctx); err != nil &&
			err != http.ErrServerClosed {
			t.Errorf("server shutdown error: %v", err)
		}
		select {
		case <-done:
			if serveErr != nil &&
				serveErr != http.ErrServerClosed {
				t.Errorf("server exited with error: %v", serveErr)
			}
		case <-time.After(5 * time.Second):
			t.Error("timed out waiting for server goroutine")
		}
	})

	return fmt.Sprintf("http://127.0.0.1:%d", port)
}

// ingestJourney posts each event of a built journey.
func (te *testEnv) ingestJourney(
	t *testing.T, b *testevents.JourneyBuilder,
) {
	t.Helper()
	for _, line := range b.Lines() {
		w := te.post(t, "/api/v1/events", line)
		requireStatus(t, w, http.StatusCreated)
	}
}

func TestIngestEvent(t *testing.T) {
	te := setup(t)

	w := te.post(t, "/api/v1/events", testevents.StanceJSON(
		"s1", "2025-03-01T10:00:00Z", "agree"))
	requireStatus(t, w, http.StatusCreated)

	var resp map[string]string
	decodeBody(t, w, &resp)
	if resp["eventId"] == "" {
		t.Error("response missing eventId")
	}
	if resp["timestamp"] != "2025-03-01T10:00:00Z" {
		t.Errorf("timestamp = %q", resp["timestamp"])
	}
}

func TestIngestEventBackfillsTimestamp(t *testing.T) {
	te := setup(t)

	w := te.post(t, "/api/v1/events",
		`{"sessionId":"s1","eventName":"stance-selected"}`)
	requireStatus(t, w, http.StatusCreated)

	var resp map[string]string
	decodeBody(t, w, &resp)
	if resp["timestamp"] == "" {
		t.Error("expected backfilled timestamp")
	}
}

func TestIngestEventValidation(t *testing.T) {
	te := setup(t)

	tests := []struct {
		name string
		body string
	}{
		{"not json", "not json"},
		{"missing session", `{"eventName":"stance-selected"}`},
		{"missing name", `{"sessionId":"s1"}`},
		{"trailing data", `{"sessionId":"s1","eventName":"x"} extra`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := te.post(t, "/api/v1/events", tt.body)
			requireStatus(t, w, http.StatusBadRequest)
		})
	}
}

func TestIngestEventTooLarge(t *testing.T) {
	te := setup(t)

	body := `{"sessionId":"s1","eventName":"x","payload":{"pad":"` +
		strings.Repeat("a", 2*1024*1024) + `"}}`
	w := te.post(t, "/api/v1/events", body)
	requireStatus(t, w, http.StatusRequestEntityTooLarge)
}

func TestIngestEventMethodNotAllowed(t *testing.T) {
	te := setup(t)
	w := te.get(t, "/api/v1/events")
	requireStatus(t, w, http.StatusMethodNotAllowed)
}

func TestEngagementReport(t *testing.T) {
	te := setup(t)
	te.ingestJourney(t, testevents.NewJourney("s1").
		Stance("2025-03-01T10:00:00Z", "agree").
		RewardDecision("2025-03-01T10:07:00Z", "participate"))
	te.ingestJourney(t, testevents.NewJourney("s2").
		Stance("2025-03-01T12:00:00Z", "disagree"))

	w := te.get(t, "/api/v1/reports/summary")
	requireStatus(t, w, http.StatusOK)

	var got report.EngagementSummary
	decodeBody(t, w, &got)
	if got.TotalSessions != 2 {
		t.Errorf("totalSessions = %d, want 2", got.TotalSessions)
	}
	if got.TotalEvents != 3 {
		t.Errorf("totalEvents = %d, want 3", got.TotalEvents)
	}
	if got.CompletionRate != 50.0 {
		t.Errorf("completionRate = %v, want 50", got.CompletionRate)
	}
}

func TestReportParamValidation(t *testing.T) {
	te := setup(t)

	tests := []struct {
		name string
		path string
	}{
		{"bad from", "/api/v1/reports/summary?from=yesterday"},
		{"bad to", "/api/v1/reports/summary?to=03-01-2025"},
		{"inverted range", "/api/v1/reports/summary?from=2025-03-05&to=2025-03-01"},
		{"bad timezone", "/api/v1/reports/summary?timezone=Mars%2FOlympus"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := te.get(t, tt.path)
			requireStatus(t, w, http.StatusBadRequest)
		})
	}
}

func TestSatisfactionReport(t *testing.T) {
	te := setup(t)
	te.ingestJourney(t, testevents.NewJourney("s1").
		Satisfaction("2025-03-01T10:00:00Z", "satisfied"))
	te.ingestJourney(t, testevents.NewJourney("s2").
		Satisfaction("2025-03-01T11:00:00Z", "unsatisfied"))

	w := te.get(t, "/api/v1/reports/satisfaction")
	requireStatus(t, w, http.StatusOK)

	var got report.SatisfactionReport
	decodeBody(t, w, &got)
	want := report.SatisfactionReport{
		Satisfied: 1, Unsatisfied: 1, Total: 2, Rate: 50.0,
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestJourneyReport(t *testing.T) {
	te := setup(t)
	te.ingestJourney(t, testevents.NewJourney("s1").
		Stance("2025-03-01T10:00:00Z", "agree").
		Reason("2025-03-01T10:01:00Z", "cost"))

	w := te.get(t, "/api/v1/reports/journey")
	requireStatus(t, w, http.StatusOK)

	var got struct {
		Stages []struct {
			Label    string `json:"label"`
			Sessions int    `json:"sessions"`
		} `json:"stages"`
	}
	decodeBody(t, w, &got)
	if len(got.Stages) != 8 {
		t.Fatalf("got %d stages, want 8", len(got.Stages))
	}
	if got.Stages[0].Label != "stance" || got.Stages[0].Sessions != 1 {
		t.Errorf("first stage = %+v", got.Stages[0])
	}
}

func TestEmptyReportsAreZeroShaped(t *testing.T) {
	te := setup(t)

	paths := []string{
		"/api/v1/reports/summary",
		"/api/v1/reports/reasoning",
		"/api/v1/reports/journey",
		"/api/v1/reports/reward-funnel",
		"/api/v1/reports/minigames/priority",
		"/api/v1/reports/minigames/beneficiary",
		"/api/v1/reports/minigames/budget",
		"/api/v1/reports/satisfaction",
		"/api/v1/reports/fakenews",
		"/api/v1/reports/sessions",
		"/api/v1/feedback/suggestions",
		"/api/v1/feedback/custom-reasons",
	}
	for _, path := range paths {
		w := te.get(t, path)
		requireStatus(t, w, http.StatusOK)
		if strings.TrimSpace(w.Body.String()) == "" {
			t.Errorf("%s returned empty body", path)
		}
	}
}

func TestSuggestionsFeed(t *testing.T) {
	te := setup(t)
	te.ingestJourney(t, testevents.NewJourney("s1").
		Raw(testevents.SuggestionJSON("s1", "2025-03-01T10:00:00Z", "more buses")))
	te.ingestJourney(t, testevents.NewJourney("s2").
		Raw(testevents.SuggestionJSON("s2", "2025-03-02T10:00:00Z", "bike lanes")))

	w := te.get(t, "/api/v1/feedback/suggestions?page=1&page_size=1")
	requireStatus(t, w, http.StatusOK)

	var got struct {
		Data []struct {
			Text string `json:"text"`
		} `json:"data"`
		TotalItems int `json:"totalItems"`
		TotalPages int `json:"totalPages"`
	}
	decodeBody(t, w, &got)
	if got.TotalItems != 2 || got.TotalPages != 2 {
		t.Errorf("totals = %d items, %d pages", got.TotalItems, got.TotalPages)
	}
	if len(got.Data) != 1 || got.Data[0].Text != "bike lanes" {
		t.Errorf("data = %+v, want newest first", got.Data)
	}
}

func TestFeedbackParamValidation(t *testing.T) {
	te := setup(t)

	for _, path := range []string{
		"/api/v1/feedback/suggestions?page=0",
		"/api/v1/feedback/suggestions?page=abc",
		"/api/v1/feedback/suggestions?page_size=-5",
	} {
		w := te.get(t, path)
		requireStatus(t, w, http.StatusBadRequest)
	}
}

func TestSessionBrowsing(t *testing.T) {
	te := setup(t)
	te.ingestJourney(t, testevents.NewJourney("s1").
		Stance("2025-03-01T10:00:00Z", "agree").
		RewardDecision("2025-03-01T10:05:00Z", "participate"))
	te.ingestJourney(t, testevents.NewJourney("s2").
		Stance("2025-03-02T10:00:00Z", "disagree"))

	w := te.get(t, "/api/v1/sessions")
	requireStatus(t, w, http.StatusOK)
	var page index.SessionPage
	decodeBody(t, w, &page)
	if page.Total != 2 {
		t.Errorf("total = %d, want 2", page.Total)
	}
	if len(page.Sessions) != 2 || page.Sessions[0].ID != "s2" {
		t.Errorf("sessions = %+v, want s2 first", page.Sessions)
	}

	w = te.get(t, "/api/v1/sessions?completed=true")
	requireStatus(t, w, http.StatusOK)
	decodeBody(t, w, &page)
	if len(page.Sessions) != 1 || page.Sessions[0].ID != "s1" {
		t.Errorf("completed sessions = %+v, want just s1", page.Sessions)
	}

	w = te.get(t, "/api/v1/sessions/s1")
	requireStatus(t, w, http.StatusOK)
	var sess index.Session
	decodeBody(t, w, &sess)
	if sess.EventCount != 2 || !sess.Completed {
		t.Errorf("session = %+v", sess)
	}

	w = te.get(t, "/api/v1/sessions/s1/events")
	requireStatus(t, w, http.StatusOK)
	var detail struct {
		Events []index.EventRow `json:"events"`
	}
	decodeBody(t, w, &detail)
	if len(detail.Events) != 2 {
		t.Errorf("got %d events, want 2", len(detail.Events))
	}

	w = te.get(t, "/api/v1/sessions/nope")
	requireStatus(t, w, http.StatusNotFound)

	w = te.get(t, "/api/v1/sessions/nope/events")
	requireStatus(t, w, http.StatusNotFound)
}

func TestSessionParamValidation(t *testing.T) {
	te := setup(t)

	for _, path := range []string{
		"/api/v1/sessions?from=notadate",
		"/api/v1/sessions?completed=perhaps",
		"/api/v1/sessions?limit=0",
		"/api/v1/sessions?cursor=%25%25%25",
	} {
		w := te.get(t, path)
		requireStatus(t, w, http.StatusBadRequest)
	}
}

func TestStatsEndpoint(t *testing.T) {
	te := setup(t)
	te.ingestJourney(t, testevents.NewJourney("s1").
		Stance("2025-03-01T10:00:00Z", "agree"))

	w := te.get(t, "/api/v1/stats")
	requireStatus(t, w, http.StatusOK)

	var got index.Stats
	decodeBody(t, w, &got)
	if got.SessionCount != 1 || got.EventCount != 1 {
		t.Errorf("stats = %+v", got)
	}
}

func TestVersionEndpoint(t *testing.T) {
	te := setup(t, server.WithVersion(server.VersionInfo{
		Version: "1.2.3", Commit: "abc123", BuildDate: "2026-01-01",
	}))

	w := te.get(t, "/api/v1/version")
	requireStatus(t, w, http.StatusOK)

	var got server.VersionInfo
	decodeBody(t, w, &got)
	if got.Version != "1.2.3" || got.Commit != "abc123" {
		t.Errorf("version = %+v", got)
	}
}

func TestReindexEndpoint(t *testing.T) {
	te := setup(t)
	te.ingestJourney(t, testevents.NewJourney("s1").
		Stance("2025-03-01T10:00:00Z", "agree").
		Reason("2025-03-01T10:01:00Z", "cost"))

	w := te.post(t, "/api/v1/reindex", "")
	requireStatus(t, w, http.StatusOK)

	var got ingest.Stats
	decodeBody(t, w, &got)
	if got.Indexed != 2 {
		t.Errorf("indexed = %d, want 2", got.Indexed)
	}
}

func TestIngestStatusEndpoint(t *testing.T) {
	te := setup(t)
	te.ingestJourney(t, testevents.NewJourney("s1").
		Stance("2025-03-01T10:00:00Z", "agree"))

	w := te.get(t, "/api/v1/ingest/status")
	requireStatus(t, w, http.StatusOK)

	var got struct {
		LastRun   time.Time    `json:"last_run"`
		LastStats ingest.Stats `json:"last_stats"`
	}
	decodeBody(t, w, &got)
	if got.LastRun.IsZero() {
		t.Error("last_run not recorded")
	}
}

func TestCORSPreflight(t *testing.T) {
	te := setup(t)

	req := httptest.NewRequest("OPTIONS", "/api/v1/reports/summary", nil)
	w := httptest.NewRecorder()
	te.handler.ServeHTTP(w, req)

	requireStatus(t, w, http.StatusNoContent)
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS headers")
	}
}

// TestServerLifecycle serves over a real socket: the overridden
// port must accept connections, requests must round-trip, and
// Shutdown must stop the listener cleanly.
func TestServerLifecycle(t *testing.T) {
	te := setup(t)
	te.ingestJourney(t, testevents.NewJourney("s1").
		Stance("2025-03-01T10:00:00Z", "agree"))

	baseURL := te.listenAndServe(t)

	resp, err := http.Get(baseURL + "/api/v1/stats")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var got index.Stats
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.SessionCount != 1 || got.EventCount != 1 {
		t.Errorf("stats = %+v", got)
	}
}

func TestTimezoneOverride(t *testing.T) {
	te := setup(t)
	// 23:30 UTC March 1 falls on March 2 in Bangkok.
	te.ingestJourney(t, testevents.NewJourney("s1").
		Stance("2025-03-01T23:30:00Z", "agree"))

	w := te.get(t,
		"/api/v1/reports/summary?from=2025-03-02&to=2025-03-02&timezone=Asia/Bangkok")
	requireStatus(t, w, http.StatusOK)

	var got report.EngagementSummary
	decodeBody(t, w, &got)
	if got.TotalSessions != 1 {
		t.Errorf("totalSessions = %d, want 1", got.TotalSessions)
	}

	w = te.get(t,
		"/api/v1/reports/summary?from=2025-03-02&to=2025-03-02")
	requireStatus(t, w, http.StatusOK)
	decodeBody(t, w, &got)
	if got.TotalSessions != 0 {
		t.Errorf("UTC range should exclude the event, got %d sessions",
			got.TotalSessions)
	}
}
