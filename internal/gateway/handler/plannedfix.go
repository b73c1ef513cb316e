package handler

import (
	"net/http"
	"strings"

	"evaltrack/internal/gateway/entity"
)

func (s *Service) HandleListPlannedFixes(w http.ResponseWriter, r *http.Request) {
	list, err := s.tracker.PlannedFixes(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plannedFixes": list})
}

func (s *Service) HandleGetPlannedFix(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		s.writeError(w, entity.Invalidf("id", "must not be empty"))
		return
	}
	fix, err := s.tracker.PlannedFix(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fix)
}

func (s *Service) HandleUpsertPlannedFix(w http.ResponseWriter, r *http.Request) {
	var in entity.PlannedFix
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	stored, err := s.tracker.UpsertPlannedFix(r.Context(), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Service) HandleDeletePlannedFix(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		s.writeError(w, entity.Invalidf("id", "must not be empty"))
		return
	}
	if err := s.tracker.DeletePlannedFix(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}
