package handler

import (
	"net/http"
	"strconv"
	"strings"

	"evaltrack/internal/gateway/entity"
)

func (s *Service) HandleListAnnotations(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimSpace(r.URL.Query().Get("runId"))
	messageID, err := optionalInt(r.URL.Query().Get("messageId"))
	if err != nil {
		s.writeError(w, entity.Invalidf("messageId", "must be an integer"))
		return
	}
	list, err := s.tracker.Annotations(r.Context(), runID, messageID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"annotations": list})
}

func (s *Service) HandleUpsertAnnotation(w http.ResponseWriter, r *http.Request) {
	var in entity.Annotation
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	stored, err := s.tracker.UpsertAnnotation(r.Context(), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Service) HandleDeleteAnnotation(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		s.writeError(w, entity.Invalidf("id", "must not be empty"))
		return
	}
	if err := s.tracker.DeleteAnnotation(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// HandleDeleteAnnotationsByMessage serves legacy callers that address
// annotations by (runId, messageId) instead of id.
func (s *Service) HandleDeleteAnnotationsByMessage(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimSpace(r.URL.Query().Get("runId"))
	messageID, err := optionalInt(r.URL.Query().Get("messageId"))
	if err != nil || messageID < 1 {
		s.writeError(w, entity.Invalidf("messageId", "must be a positive integer"))
		return
	}
	if runID == "" {
		s.writeError(w, entity.Invalidf("runId", "must not be empty"))
		return
	}
	if err := s.tracker.DeleteAnnotationsByMessage(r.Context(), runID, messageID); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": runID + "/" + strconv.Itoa(messageID)})
}

func optionalInt(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
