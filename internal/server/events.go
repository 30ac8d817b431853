package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/ukpack/ukstats/internal/event"
)

// maxEventBody bounds an ingest request body. Matches the
// store's per-line limit.
const maxEventBody = 1 << 20

// ingestRequest is the client wire shape for a tracked event.
type ingestRequest struct {
	SessionID string         `json:"sessionId"`
	EventName string         `json:"eventName"`
	Timestamp string         `json:"timestamp"`
	Payload   map[string]any `json:"payload"`
}

func (s *Server) handleIngestEvent(
	w http.ResponseWriter, r *http.Request,
) {
	body := http.MaxBytesReader(w, r.Body, maxEventBody)
	var req ingestRequest
	dec := json.NewDecoder(body)
	if err := dec.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge,
				"event too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if dec.More() {
		writeError(w, http.StatusBadRequest,
			"unexpected data after JSON body")
		return
	}
	_, _ = io.Copy(io.Discard, body)

	stored, err := s.engine.Ingest(event.Event{
		SessionID: req.SessionID,
		Name:      req.EventName,
		Timestamp: req.Timestamp,
		Payload:   req.Payload,
	})
	if err != nil {
		var verr *event.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		log.Printf("ingest error: %v", err)
		writeError(w, http.StatusInternalServerError,
			"internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"eventId":   stored.ID,
		"timestamp": stored.Timestamp,
	})
}
