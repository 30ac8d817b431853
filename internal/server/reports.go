package server

import (
	"log"
	"net/http"
	"time"

	"github.com/ukpack/ukstats/internal/report"
)

// parseRange extracts and validates the shared report query
// parameters. A false return means an error response has
// already been written.
func parseRange(w http.ResponseWriter, r *http.Request) (report.Range, bool) {
	q := r.URL.Query()
	rng := report.Range{
		From:     q.Get("from"),
		To:       q.Get("to"),
		Timezone: q.Get("timezone"),
	}
	if rng.From != "" && !isValidDate(rng.From) {
		writeError(w, http.StatusBadRequest,
			"invalid from date, expected YYYY-MM-DD")
		return report.Range{}, false
	}
	if rng.To != "" && !isValidDate(rng.To) {
		writeError(w, http.StatusBadRequest,
			"invalid to date, expected YYYY-MM-DD")
		return report.Range{}, false
	}
	if rng.From != "" && rng.To != "" && rng.From > rng.To {
		writeError(w, http.StatusBadRequest,
			"from date must not be after to date")
		return report.Range{}, false
	}
	if rng.Timezone != "" {
		if _, err := time.LoadLocation(rng.Timezone); err != nil {
			writeError(w, http.StatusBadRequest, "unknown timezone")
			return report.Range{}, false
		}
	}
	return rng, true
}

func isValidDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// reportError logs err and writes the standard 500 response.
func reportError(w http.ResponseWriter, name string, err error) {
	log.Printf("%s report error: %v", name, err)
	writeError(w, http.StatusInternalServerError,
		"internal server error")
}

func (s *Server) handleEngagement(
	w http.ResponseWriter, r *http.Request,
) {
	rng, ok := parseRange(w, r)
	if !ok {
		return
	}
	out, err := s.reporter.Engagement(rng)
	if err != nil {
		reportError(w, "engagement", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReasoning(
	w http.ResponseWriter, r *http.Request,
) {
	rng, ok := parseRange(w, r)
	if !ok {
		return
	}
	out, err := s.reporter.Reasoning(rng)
	if err != nil {
		reportError(w, "reasoning", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleJourneyFunnel(
	w http.ResponseWriter, r *http.Request,
) {
	rng, ok := parseRange(w, r)
	if !ok {
		return
	}
	out, err := s.reporter.JourneyFunnel(rng)
	if err != nil {
		reportError(w, "journey", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stages": out})
}

func (s *Server) handleRewardFunnel(
	w http.ResponseWriter, r *http.Request,
) {
	rng, ok := parseRange(w, r)
	if !ok {
		return
	}
	out, err := s.reporter.RewardFunnel(rng)
	if err != nil {
		reportError(w, "reward-funnel", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stages": out})
}

func (s *Server) handlePriorityMinigame(
	w http.ResponseWriter, r *http.Request,
) {
	rng, ok := parseRange(w, r)
	if !ok {
		return
	}
	out, err := s.reporter.PriorityMinigame(rng)
	if err != nil {
		reportError(w, "priority", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBeneficiaryMinigame(
	w http.ResponseWriter, r *http.Request,
) {
	rng, ok := parseRange(w, r)
	if !ok {
		return
	}
	out, err := s.reporter.BeneficiaryMinigame(rng)
	if err != nil {
		reportError(w, "beneficiary", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBudgetMinigame(
	w http.ResponseWriter, r *http.Request,
) {
	rng, ok := parseRange(w, r)
	if !ok {
		return
	}
	out, err := s.reporter.BudgetMinigame(rng)
	if err != nil {
		reportError(w, "budget", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSatisfaction(
	w http.ResponseWriter, r *http.Request,
) {
	rng, ok := parseRange(w, r)
	if !ok {
		return
	}
	out, err := s.reporter.Satisfaction(rng)
	if err != nil {
		reportError(w, "satisfaction", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleFakeNews(
	w http.ResponseWriter, r *http.Request,
) {
	rng, ok := parseRange(w, r)
	if !ok {
		return
	}
	out, err := s.reporter.FakeNews(rng)
	if err != nil {
		reportError(w, "fakenews", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSessionSummaries(
	w http.ResponseWriter, r *http.Request,
) {
	rng, ok := parseRange(w, r)
	if !ok {
		return
	}
	page, size, ok := parsePage(w, r)
	if !ok {
		return
	}
	out, err := s.reporter.SessionSummaries(rng, page, size)
	if err != nil {
		reportError(w, "sessions", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
