package server

import (
	"net/http"
	"time"
)

// withTimeout wraps a handler with http.TimeoutHandler so slow
// log scans cannot hold a connection past the configured write
// timeout. The timeout response is JSON to match the rest of
// the API.
func (s *Server) withTimeout(h http.HandlerFunc) http.Handler {
	timeout := s.cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.handlerDelay > 0 {
			select {
			case <-time.After(s.handlerDelay):
			case <-r.Context().Done():
				return
			}
		}
		h(w, r)
	})
	msg := `{"error":"request timed out"}`
	return contentTypeWrapper{
		http.TimeoutHandler(inner, timeout, msg),
	}
}

// contentTypeWrapper forces the JSON content type before the
// wrapped handler writes, since http.TimeoutHandler writes its
// body with text/plain headers otherwise.
type contentTypeWrapper struct {
	h http.Handler
}

func (c contentTypeWrapper) ServeHTTP(
	w http.ResponseWriter, r *http.Request,
) {
	w.Header().Set("Content-Type", "application/json")
	c.h.ServeHTTP(w, r)
}
