package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"evaltrack/internal/gateway/entity"
	"evaltrack/internal/gateway/repository/artifact"
	"evaltrack/internal/gateway/repository/runs"
	"evaltrack/internal/gateway/service/events"
	"evaltrack/internal/gateway/service/issues"
	"evaltrack/internal/gateway/service/lifecycle"
	"evaltrack/internal/gateway/service/tracker"
)

// Service holds the gateway handlers' dependencies. Handlers validate input
// shape, call into the services, and map results to response codes; they do
// no business logic of their own.
type Service struct {
	runs      runs.Repository
	lifecycle *lifecycle.Service
	tracker   *tracker.Service
	issues    *issues.Service
	artifacts artifact.Store
	hub       *events.Hub
	log       zerolog.Logger
}

func NewService(
	runStore runs.Repository,
	lifecycleSvc *lifecycle.Service,
	trackerSvc *tracker.Service,
	issuesSvc *issues.Service,
	artifactStore artifact.Store,
	hub *events.Hub,
	log zerolog.Logger,
) *Service {
	return &Service{
		runs:      runStore,
		lifecycle: lifecycleSvc,
		tracker:   trackerSvc,
		issues:    issuesSvc,
		artifacts: artifactStore,
		hub:       hub,
		log:       log,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the domain error taxonomy onto response codes. Backend
// faults are logged but never detailed to the caller.
func (s *Service) writeError(w http.ResponseWriter, err error) {
	var ve *entity.ValidationError
	switch {
	case errors.Is(err, entity.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
	case errors.Is(err, entity.ErrInvalidState):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "invalid_state"})
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": ve.Error()})
	default:
		s.log.Error().Err(err).Msg("backend error")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal_error"})
	}
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return entity.Invalidf("body", "invalid json: %v", err)
	}
	return nil
}
