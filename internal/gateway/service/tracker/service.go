package tracker

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"evaltrack/internal/gateway/entity"
	"evaltrack/internal/gateway/repository/annotations"
	"evaltrack/internal/gateway/repository/plannedfix"
	"evaltrack/internal/gateway/repository/runs"
	"evaltrack/internal/gateway/service/events"
)

// Service coordinates annotations and planned fixes across stores. The
// cross-entity rules live here so both storage backends observe them: an
// annotation must reference an existing run, and deleting a fix clears the
// link on its annotations without touching the annotations themselves.
type Service struct {
	runs        runs.Repository
	annotations annotations.Repository
	fixes       plannedfix.Repository
	hub         *events.Hub
	log         zerolog.Logger
}

func New(runStore runs.Repository, annStore annotations.Repository, fixStore plannedfix.Repository, hub *events.Hub, log zerolog.Logger) *Service {
	return &Service{
		runs:        runStore,
		annotations: annStore,
		fixes:       fixStore,
		hub:         hub,
		log:         log,
	}
}

func (s *Service) Annotations(ctx context.Context, runID string, messageID int) ([]entity.Annotation, error) {
	runID = strings.TrimSpace(runID)
	switch {
	case runID == "":
		return s.annotations.List(ctx)
	case messageID > 0:
		return s.annotations.ListByRunMessage(ctx, runID, messageID)
	default:
		return s.annotations.ListByRun(ctx, runID)
	}
}

// UpsertAnnotation validates the payload and its run reference, then defers
// to the store's upsert semantics.
func (s *Service) UpsertAnnotation(ctx context.Context, a entity.Annotation) (entity.Annotation, error) {
	a = entity.NormalizeAnnotation(a)
	if a.RunID == "" {
		return entity.Annotation{}, entity.Invalidf("runId", "must not be empty")
	}
	if a.MessageID < 1 {
		return entity.Annotation{}, entity.Invalidf("messageId", "must be >= 1, got %d", a.MessageID)
	}
	if !a.Author.Valid() {
		return entity.Annotation{}, entity.Invalidf("author", "unknown author tag %q", a.Author)
	}
	if !a.IssueType.Valid() {
		return entity.Annotation{}, entity.Invalidf("issueType", "unknown issue type %q", a.IssueType)
	}
	if !a.Severity.Valid() {
		return entity.Annotation{}, entity.Invalidf("severity", "unknown severity %q", a.Severity)
	}

	run, err := s.runs.Get(ctx, a.RunID)
	if err != nil {
		return entity.Annotation{}, err
	}
	// The prompt collection bounds valid targets once prompts exist; legacy
	// runs without prompt rows accept any message number.
	if len(run.Prompts) > 0 {
		if _, ok := run.PromptByNumber(a.MessageID); !ok {
			return entity.Annotation{}, entity.Invalidf("messageId", "run %s has no prompt %d", a.RunID, a.MessageID)
		}
	}
	if a.PlannedFixID != nil {
		if _, err := s.fixes.Get(ctx, *a.PlannedFixID); err != nil {
			if errors.Is(err, entity.ErrNotFound) {
				return entity.Annotation{}, entity.Invalidf("plannedFixId", "planned fix %s does not exist", *a.PlannedFixID)
			}
			return entity.Annotation{}, err
		}
	}

	stored, err := s.annotations.Upsert(ctx, a)
	if err != nil {
		return entity.Annotation{}, err
	}
	s.hub.Publish(events.Event{Type: events.TypeAnnotationChanged, RunID: stored.RunID})
	return stored, nil
}

func (s *Service) DeleteAnnotation(ctx context.Context, id string) error {
	if err := s.annotations.Delete(ctx, id); err != nil {
		return err
	}
	s.hub.Publish(events.Event{Type: events.TypeAnnotationChanged})
	return nil
}

// DeleteAnnotationsByMessage removes every annotation for one prompt of one
// run. Kept for callers that predate annotation ids.
func (s *Service) DeleteAnnotationsByMessage(ctx context.Context, runID string, messageID int) error {
	if err := s.annotations.DeleteByRunMessage(ctx, runID, messageID); err != nil {
		return err
	}
	s.hub.Publish(events.Event{Type: events.TypeAnnotationChanged, RunID: strings.TrimSpace(runID)})
	return nil
}

func (s *Service) PlannedFixes(ctx context.Context) ([]entity.PlannedFix, error) {
	return s.fixes.List(ctx)
}

func (s *Service) PlannedFix(ctx context.Context, id string) (entity.PlannedFix, error) {
	return s.fixes.Get(ctx, id)
}

func (s *Service) UpsertPlannedFix(ctx context.Context, fix entity.PlannedFix) (entity.PlannedFix, error) {
	stored, err := s.fixes.Upsert(ctx, fix)
	if err != nil {
		return entity.PlannedFix{}, err
	}
	s.hub.Publish(events.Event{Type: events.TypeFixChanged})
	return stored, nil
}

// DeletePlannedFix removes the fix and nulls the link on every annotation
// that referenced it.
func (s *Service) DeletePlannedFix(ctx context.Context, id string) error {
	if err := s.fixes.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.annotations.ClearPlannedFix(ctx, id); err != nil {
		s.log.Error().Err(err).Str("fix_id", id).Msg("clearing planned fix links failed")
		return err
	}
	s.hub.Publish(events.Event{Type: events.TypeFixChanged})
	return nil
}
