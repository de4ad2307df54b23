package server

import (
	"encoding/json"
	"net/http"

	"github.com/jpalmerr/fearboard/internal/store"
)

// maxMutationBodyBytes caps the size of a POST /state body.
const maxMutationBodyBytes = 4 << 10

type errorResponse struct {
	Error string `json:"error"`
}

// handleSnapshot returns the current state without mutating it.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, store.State{Value: s.store.Get(), Max: s.store.Max()})
}

// handleMutate applies an inc, dec or set action and returns the resulting state.
//
// Unknown or missing actions read the state instead of failing. Only a body
// that is not valid JSON is rejected, and then nothing is mutated.
func (s *Server) handleMutate(w http.ResponseWriter, r *http.Request) {
	if s.limiter != nil && !s.limiter.Allow() {
		s.metrics.Mutations.WithLabelValues(actionRejected).Inc()
		s.writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
		return
	}

	m, err := decodeMutation(http.MaxBytesReader(w, r.Body, maxMutationBodyBytes))
	if err != nil {
		s.logger.Debug("rejected mutation body", "error", err)
		s.metrics.Mutations.WithLabelValues(actionInvalid).Inc()
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Bad request"})
		return
	}

	action := m.Action
	var value int
	switch action {
	case actionInc:
		value = s.store.Increment(1)
	case actionDec:
		value = s.store.Decrement(1)
	case actionSet:
		value = s.store.Set(m.Value)
	default:
		action = actionRead
		value = s.store.Get()
	}
	s.metrics.Mutations.WithLabelValues(action).Inc()

	s.logger.Debug("mutation applied", "action", action, "value", value)
	s.writeJSON(w, http.StatusOK, store.State{Value: value, Max: s.store.Max()})
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes v as an uncacheable JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}
