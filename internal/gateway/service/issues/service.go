package issues

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"evaltrack/internal/gateway/entity"
	"evaltrack/internal/gateway/repository/annotations"
	"evaltrack/internal/gateway/repository/plannedfix"
	"evaltrack/internal/gateway/repository/runs"
)

// Service computes the enriched issue list and the cross-run theme view.
// Both reads are pure recomputations over the stores; nothing is cached.
type Service struct {
	runs        runs.Repository
	annotations annotations.Repository
	fixes       plannedfix.Repository
}

func New(runStore runs.Repository, annStore annotations.Repository, fixStore plannedfix.Repository) *Service {
	return &Service{runs: runStore, annotations: annStore, fixes: fixStore}
}

// Issue is one annotation joined to its owning run and decorated with the
// derived fields the dashboard renders.
type Issue struct {
	entity.Annotation
	Format         string `json:"format"`
	TestCategory   string `json:"testCategory"`
	ArtifactPath   string `json:"artifactPath"`
	Anchor         string `json:"anchor"`
	PlannedFixName string `json:"plannedFixName,omitempty"`
}

// IssueList is the flat report: enriched annotations plus the run count the
// dashboard uses as its denominator.
type IssueList struct {
	Issues    []Issue `json:"issues"`
	TotalRuns int     `json:"totalRuns"`
}

// Enrich left-joins annotations to runs, drops orphans whose run is gone,
// and sorts by severity rank then creation time descending.
func (s *Service) Enrich(ctx context.Context) (IssueList, error) {
	allRuns, err := s.runs.List(ctx)
	if err != nil {
		return IssueList{}, err
	}
	runByID := make(map[string]entity.Run, len(allRuns))
	for _, run := range allRuns {
		runByID[run.ID] = run
	}
	anns, err := s.annotations.List(ctx)
	if err != nil {
		return IssueList{}, err
	}
	fixNames, err := s.fixNames(ctx)
	if err != nil {
		return IssueList{}, err
	}

	out := make([]Issue, 0, len(anns))
	for _, a := range anns {
		run, ok := runByID[a.RunID]
		if !ok {
			// cascade deletes should make this impossible, but legacy data
			// may still hold orphans
			continue
		}
		issue := Issue{
			Annotation:   a,
			Format:       run.Format,
			TestCategory: testCategory(run.TestType),
			ArtifactPath: artifactPath(run, a.MessageID),
			Anchor:       fmt.Sprintf("run-%s-v%d", a.RunID, a.MessageID),
		}
		if a.PlannedFixID != nil {
			issue.PlannedFixName = fixNames[*a.PlannedFixID]
		}
		out = append(out, issue)
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Severity.Rank(), out[j].Severity.Rank()
		if ri != rj {
			return ri < rj
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return IssueList{Issues: out, TotalRuns: len(allRuns)}, nil
}

func (s *Service) fixNames(ctx context.Context) (map[string]string, error) {
	fixes, err := s.fixes.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(fixes))
	for _, fix := range fixes {
		names[fix.ID] = fix.Name
	}
	return names, nil
}

// artifactPath prefers the prompt's own artifact reference and falls back to
// the artifacts/{runId}/v{n}.{ext} convention.
func artifactPath(run entity.Run, messageID int) string {
	if messageID < 1 {
		return ""
	}
	if p, ok := run.PromptByNumber(messageID); ok && p.Artifact != "" {
		return p.Artifact
	}
	return fmt.Sprintf("artifacts/%s/v%d.png", run.ID, messageID)
}

// testCategory collapses the run's test type into the coarse bucket the
// report groups by.
func testCategory(testType string) string {
	t := strings.ToLower(strings.TrimSpace(testType))
	switch {
	case t == "":
		return "general"
	case strings.Contains(t, "iter"):
		return "iteration"
	default:
		return t
	}
}
