package handler

import (
	"net/http"
)

func (s *Service) HandleIssues(w http.ResponseWriter, r *http.Request) {
	list, err := s.issues.Enrich(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Service) HandleIssueThemes(w http.ResponseWriter, r *http.Request) {
	themes, err := s.issues.Themes(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"themes": themes})
}
