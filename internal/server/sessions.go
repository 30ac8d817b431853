package server

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/ukpack/ukstats/internal/index"
)

func (s *Server) handleListSessions(
	w http.ResponseWriter, r *http.Request,
) {
	q := r.URL.Query()
	f := index.SessionFilter{
		DateFrom: q.Get("from"),
		DateTo:   q.Get("to"),
		Cursor:   q.Get("cursor"),
	}
	if f.DateFrom != "" && !isValidDate(f.DateFrom) {
		writeError(w, http.StatusBadRequest,
			"invalid from date, expected YYYY-MM-DD")
		return
	}
	if f.DateTo != "" && !isValidDate(f.DateTo) {
		writeError(w, http.StatusBadRequest,
			"invalid to date, expected YYYY-MM-DD")
		return
	}
	if v := q.Get("completed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid completed")
			return
		}
		f.Completed = &b
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		f.Limit = n
	}

	page, err := s.db.ListSessions(r.Context(), f)
	if err != nil {
		if errors.Is(err, index.ErrInvalidCursor) {
			writeError(w, http.StatusBadRequest, "invalid cursor")
			return
		}
		if handleContextError(w, err) {
			return
		}
		log.Printf("list sessions error: %v", err)
		writeError(w, http.StatusInternalServerError,
			"internal server error")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetSession(
	w http.ResponseWriter, r *http.Request,
) {
	id := r.PathValue("id")
	sess, err := s.db.GetSession(r.Context(), id)
	if err != nil {
		if handleContextError(w, err) {
			return
		}
		log.Printf("get session error: %v", err)
		writeError(w, http.StatusInternalServerError,
			"internal server error")
		return
	}
	if sess == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSessionEvents(
	w http.ResponseWriter, r *http.Request,
) {
	id := r.PathValue("id")
	sess, err := s.db.GetSession(r.Context(), id)
	if err != nil {
		if handleContextError(w, err) {
			return
		}
		log.Printf("get session error: %v", err)
		writeError(w, http.StatusInternalServerError,
			"internal server error")
		return
	}
	if sess == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	events, err := s.db.SessionEvents(r.Context(), id)
	if err != nil {
		if handleContextError(w, err) {
			return
		}
		log.Printf("session events error: %v", err)
		writeError(w, http.StatusInternalServerError,
			"internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session": sess,
		"events":  events,
	})
}
