package handler

import (
	"net/http"
	"strings"

	"evaltrack/internal/gateway/entity"
	"evaltrack/internal/gateway/service/lifecycle"
)

func (s *Service) HandleCaptureStart(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Format   string `json:"format"`
		TestType string `json:"testType"`
	}
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	run, err := s.lifecycle.StartCapture(r.Context(), in.Format, in.TestType)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Service) HandleCapturePrompt(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RunID       string `json:"runId"`
		Number      int    `json:"number"`
		Title       string `json:"title"`
		Text        string `json:"text"`
		Artifact    string `json:"artifact"`
		Observation string `json:"observation"`
	}
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	if strings.TrimSpace(in.RunID) == "" {
		s.writeError(w, entity.Invalidf("runId", "must not be empty"))
		return
	}
	run, err := s.lifecycle.SaveCapturePrompt(r.Context(), lifecycle.SavePromptInput{
		RunID:       in.RunID,
		Number:      in.Number,
		Title:       in.Title,
		Text:        in.Text,
		Artifact:    in.Artifact,
		Observation: in.Observation,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Service) HandleCaptureComplete(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RunID string `json:"runId"`
	}
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	if strings.TrimSpace(in.RunID) == "" {
		s.writeError(w, entity.Invalidf("runId", "must not be empty"))
		return
	}
	run, err := s.lifecycle.CompleteCapture(r.Context(), in.RunID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// HandleImportPrompts bulk-appends prompts to a run, skipping numbers that
// already exist. The response reports both counts so partial imports are
// never silently collapsed into a bare ok.
func (s *Service) HandleImportPrompts(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RunID   string          `json:"runId"`
		Prompts []entity.Prompt `json:"prompts"`
	}
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	if strings.TrimSpace(in.RunID) == "" {
		s.writeError(w, entity.Invalidf("runId", "must not be empty"))
		return
	}
	run, imported, skipped, err := s.lifecycle.ImportPrompts(r.Context(), in.RunID, in.Prompts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run":      run,
		"imported": imported,
		"skipped":  skipped,
	})
}

// scoresInput mirrors entity.Scores with pointer fields so an absent
// sub-score is distinguishable from an explicit zero. All three are required.
type scoresInput struct {
	Overall          *float64 `json:"overall"`
	PromptAdherence  *float64 `json:"promptAdherence"`
	IterationQuality *float64 `json:"iterationQuality"`
}

func (in *scoresInput) toScores() (entity.Scores, error) {
	if in == nil {
		return entity.Scores{}, entity.Invalidf("scores", "overall, promptAdherence, and iterationQuality are required")
	}
	for field, v := range map[string]*float64{
		"scores.overall":          in.Overall,
		"scores.promptAdherence":  in.PromptAdherence,
		"scores.iterationQuality": in.IterationQuality,
	} {
		if v == nil {
			return entity.Scores{}, entity.Invalidf(field, "is required")
		}
	}
	return entity.Scores{
		Overall:          *in.Overall,
		PromptAdherence:  *in.PromptAdherence,
		IterationQuality: *in.IterationQuality,
	}, nil
}

func (s *Service) HandleScore(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RunID             string                    `json:"runId"`
		Scores            *scoresInput              `json:"scores"`
		Rating            entity.Rating             `json:"rating"`
		Good              []string                  `json:"good"`
		Bad               []string                  `json:"bad"`
		PromptEvaluations []entity.PromptEvaluation `json:"promptEvaluations"`
		IterationAnalysis *entity.IterationAnalysis `json:"iterationAnalysis"`
	}
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	if strings.TrimSpace(in.RunID) == "" {
		s.writeError(w, entity.Invalidf("runId", "must not be empty"))
		return
	}
	scores, err := in.Scores.toScores()
	if err != nil {
		s.writeError(w, err)
		return
	}
	run, err := s.lifecycle.Score(r.Context(), lifecycle.ScoreInput{
		RunID:             in.RunID,
		Scores:            scores,
		Rating:            in.Rating,
		Good:              in.Good,
		Bad:               in.Bad,
		PromptEvaluations: in.PromptEvaluations,
		IterationAnalysis: in.IterationAnalysis,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}
