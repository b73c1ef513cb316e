package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"evaltrack/internal/gateway/entity"
	"evaltrack/internal/gateway/repository/annotations"
	"evaltrack/internal/gateway/repository/runs"
	"evaltrack/internal/gateway/service/events"
)

// Service owns the capture -> captured -> scored state machine. All
// transitions validate the current state before writing; wrong-state calls
// fail with entity.ErrInvalidState, absent runs with entity.ErrNotFound.
type Service struct {
	runs        runs.Repository
	annotations annotations.Repository
	hub         *events.Hub
	log         zerolog.Logger

	now   func() time.Time
	newID func() string
}

func New(runStore runs.Repository, annStore annotations.Repository, hub *events.Hub, log zerolog.Logger) *Service {
	return &Service{
		runs:        runStore,
		annotations: annStore,
		hub:         hub,
		log:         log,
		now:         time.Now,
		newID: func() string {
			return "run-" + uuid.New().String()
		},
	}
}

// StartCapture creates a run in state capturing with an empty prompt list.
func (s *Service) StartCapture(ctx context.Context, format, testType string) (entity.Run, error) {
	format = strings.TrimSpace(format)
	if format == "" {
		return entity.Run{}, entity.Invalidf("format", "must not be empty")
	}
	run := entity.Run{
		ID:        s.newID(),
		Format:    format,
		TestType:  strings.TrimSpace(testType),
		Timestamp: s.now(),
		State:     entity.StateCapturing,
		Prompts:   []entity.Prompt{},
	}
	if err := s.runs.Put(ctx, run); err != nil {
		return entity.Run{}, err
	}
	s.log.Debug().Str("run_id", run.ID).Str("format", format).Msg("capture started")
	s.publish(events.TypeRunUpdated, run)
	return run, nil
}

// SavePromptInput is one prompt step captured against a run.
type SavePromptInput struct {
	RunID       string
	Number      int
	Title       string
	Text        string
	Artifact    string
	Observation string
}

// SaveCapturePrompt upserts the prompt by number. The run must still be in a
// capture state; scoring freezes the prompt list.
func (s *Service) SaveCapturePrompt(ctx context.Context, in SavePromptInput) (entity.Run, error) {
	if in.Number < 1 {
		return entity.Run{}, entity.Invalidf("number", "must be >= 1, got %d", in.Number)
	}
	updated, err := s.runs.Update(ctx, in.RunID, func(run *entity.Run) error {
		switch run.State.Effective() {
		case entity.StateCapturing, entity.StateCaptured:
		default:
			return entity.ErrInvalidState
		}
		prompt := entity.Prompt{
			Number:      in.Number,
			Title:       strings.TrimSpace(in.Title),
			Text:        in.Text,
			Artifact:    strings.TrimSpace(in.Artifact),
			Observation: in.Observation,
		}
		replaced := false
		for i, p := range run.Prompts {
			if p.Number == in.Number {
				run.Prompts[i] = prompt
				replaced = true
				break
			}
		}
		if !replaced {
			run.Prompts = append(run.Prompts, prompt)
		}
		return nil
	})
	if err != nil {
		return entity.Run{}, err
	}
	s.publish(events.TypeRunUpdated, updated)
	return updated, nil
}

// CompleteCapture transitions capturing -> captured. Completing an
// already-captured run is an error on purpose: it catches double submission,
// which rescoring (a documented correction flow) does not.
func (s *Service) CompleteCapture(ctx context.Context, runID string) (entity.Run, error) {
	updated, err := s.runs.Update(ctx, runID, func(run *entity.Run) error {
		if run.State.Effective() != entity.StateCapturing {
			return entity.ErrInvalidState
		}
		run.State = entity.StateCaptured
		return nil
	})
	if err != nil {
		return entity.Run{}, err
	}
	s.log.Debug().Str("run_id", updated.ID).Msg("capture complete")
	s.publish(events.TypeRunUpdated, updated)
	return updated, nil
}

// ScoreInput carries the full scoring payload for one run.
type ScoreInput struct {
	RunID             string
	Scores            entity.Scores
	Rating            entity.Rating
	Good              []string
	Bad               []string
	PromptEvaluations []entity.PromptEvaluation
	IterationAnalysis *entity.IterationAnalysis
}

// Score transitions captured -> scored, or rescores an already-scored run.
// Scoring a run that is still capturing is rejected.
func (s *Service) Score(ctx context.Context, in ScoreInput) (entity.Run, error) {
	if in.Rating != "" {
		switch in.Rating {
		case entity.RatingGreat, entity.RatingGood, entity.RatingBad:
		default:
			return entity.Run{}, entity.Invalidf("rating", "unknown rating %q", in.Rating)
		}
	}
	updated, err := s.runs.Update(ctx, in.RunID, func(run *entity.Run) error {
		switch run.State.Effective() {
		case entity.StateCaptured, entity.StateScored:
		default:
			return entity.ErrInvalidState
		}
		run.Scores = in.Scores
		run.Good = in.Good
		run.Bad = in.Bad
		run.IterationAnalysis = in.IterationAnalysis
		for _, ev := range in.PromptEvaluations {
			for i, p := range run.Prompts {
				if p.Number == ev.Number {
					run.Prompts[i].Evaluation = ev.Evaluation
					run.Prompts[i].Status = ev.Status
					run.Prompts[i].Observation = ""
				}
			}
		}
		run.Rating = in.Rating
		if run.Rating == "" {
			run.Rating = entity.DeriveRating(in.Scores.Overall)
		}
		run.State = entity.StateScored
		return nil
	})
	if err != nil {
		return entity.Run{}, err
	}
	s.log.Debug().Str("run_id", updated.ID).Str("rating", string(updated.Rating)).Msg("run scored")
	s.publish(events.TypeRunUpdated, updated)
	return updated, nil
}

// Delete removes the run and cascades to its annotations on both backends.
func (s *Service) Delete(ctx context.Context, runID string) error {
	if err := s.runs.Delete(ctx, runID); err != nil {
		return err
	}
	if err := s.annotations.DeleteByRun(ctx, runID); err != nil {
		return fmt.Errorf("cascade annotations: %w", err)
	}
	s.hub.Publish(events.Event{Type: events.TypeRunDeleted, RunID: strings.TrimSpace(runID)})
	return nil
}

// Pending returns the captured set (ready to score) and the capturing set.
func (s *Service) Pending(ctx context.Context) (captured, capturing []entity.Run, err error) {
	return s.runs.ListPending(ctx)
}

// ImportPrompts appends prompts that are not already present on the run.
// Existing numbers are skipped, never overwritten, and the caller gets both
// counts back so a partial import is visible.
func (s *Service) ImportPrompts(ctx context.Context, runID string, prompts []entity.Prompt) (run entity.Run, imported, skipped int, err error) {
	updated, err := s.runs.Update(ctx, runID, func(run *entity.Run) error {
		for _, incoming := range prompts {
			if incoming.Number < 1 {
				skipped++
				continue
			}
			if _, exists := run.PromptByNumber(incoming.Number); exists {
				skipped++
				continue
			}
			run.Prompts = append(run.Prompts, incoming)
			imported++
		}
		return nil
	})
	if err != nil {
		return entity.Run{}, 0, 0, err
	}
	if imported > 0 {
		s.publish(events.TypeRunUpdated, updated)
	}
	return updated, imported, skipped, nil
}

func (s *Service) publish(eventType string, run entity.Run) {
	s.hub.Publish(events.Event{
		Type:  eventType,
		RunID: run.ID,
		State: string(run.State.Effective()),
	})
}
