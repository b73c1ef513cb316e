package handler

import (
	"net/http"
	"strings"

	"evaltrack/internal/gateway/entity"
)

func (s *Service) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	list, err := s.runs.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": list})
}

// HandleUpsertRun accepts a full run document. Unlike the capture flow this
// path requires the caller to supply id, format, and timestamp; it exists
// for imports and corrections.
func (s *Service) HandleUpsertRun(w http.ResponseWriter, r *http.Request) {
	var in entity.Run
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	if strings.TrimSpace(in.ID) == "" {
		s.writeError(w, entity.Invalidf("id", "must not be empty"))
		return
	}
	if strings.TrimSpace(in.Format) == "" {
		s.writeError(w, entity.Invalidf("format", "must not be empty"))
		return
	}
	if in.Timestamp.IsZero() {
		s.writeError(w, entity.Invalidf("timestamp", "must not be empty"))
		return
	}
	if !in.State.Valid() {
		s.writeError(w, entity.Invalidf("state", "unknown state %q", in.State))
		return
	}
	if err := s.runs.Put(r.Context(), in); err != nil {
		s.writeError(w, err)
		return
	}
	stored, err := s.runs.Get(r.Context(), in.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Service) HandleDeleteRun(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimSpace(r.PathValue("id"))
	if runID == "" {
		s.writeError(w, entity.Invalidf("id", "must not be empty"))
		return
	}
	if err := s.lifecycle.Delete(r.Context(), runID); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.artifacts.DeleteRun(r.Context(), runID); err != nil {
		// artifact cleanup is best effort; the entity delete already
		// succeeded
		s.log.Warn().Err(err).Str("run_id", runID).Msg("artifact cleanup failed")
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": runID})
}

// HandlePendingRuns returns the captured set (ready to score) and the
// capturing set (still in progress), separately.
func (s *Service) HandlePendingRuns(w http.ResponseWriter, r *http.Request) {
	captured, capturing, err := s.lifecycle.Pending(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"captured":  captured,
		"capturing": capturing,
	})
}
