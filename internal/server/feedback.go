package server

import (
	"net/http"
	"strconv"

	"github.com/ukpack/ukstats/internal/stats"
)

// parsePage extracts page and page_size, defaulting to the
// first page at the standard size. A false return means an
// error response has already been written.
func parsePage(w http.ResponseWriter, r *http.Request) (page, size int, ok bool) {
	q := r.URL.Query()
	page = 1
	size = stats.DefaultPageSize
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid page")
			return 0, 0, false
		}
		page = n
	}
	if v := q.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid page_size")
			return 0, 0, false
		}
		if n > stats.MaxPageSize {
			n = stats.MaxPageSize
		}
		size = n
	}
	return page, size, true
}

func (s *Server) handleSuggestions(
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
	out, err := s.reporter.Suggestions(rng, page, size)
	if err != nil {
		reportError(w, "suggestions", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCustomReasons(
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
	out, err := s.reporter.CustomReasons(rng, page, size)
	if err != nil {
		reportError(w, "custom-reasons", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
