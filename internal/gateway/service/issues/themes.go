package issues

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"evaltrack/internal/gateway/entity"
)

// Theme is a derived, cross-run cluster of similar defect annotations. It is
// recomputed per request and never persisted.
type Theme struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Manifestations []string        `json:"manifestations,omitempty"`
	Severity       entity.Severity `json:"severity"`
	Formats        []string        `json:"formats"`
	Occurrences    []Occurrence    `json:"occurrences"`
}

// Occurrence links a theme back to one run for evidence.
type Occurrence struct {
	RunID  string `json:"runId"`
	Format string `json:"format"`
}

// keywordGroup refines an issue-type bucket by note text. Groups are matched
// in order; the first hit wins, which keeps clustering deterministic.
type keywordGroup struct {
	slug     string
	title    string
	keywords []string
}

var keywordGroups = []keywordGroup{
	{"overlap", "Overlapping or colliding elements", []string{"overlap", "collide", "on top of"}},
	{"spacing", "Spacing and margin problems", []string{"spacing", "margin", "padding", "cramped", "whitespace"}},
	{"truncation", "Truncated or clipped content", []string{"truncat", "clipped", "cut off", "overflow"}},
	{"contrast", "Color and contrast issues", []string{"contrast", "color", "colour", "unreadable text"}},
	{"fidelity", "Prompt not followed", []string{"ignored", "not follow", "missing request", "didn't", "did not"}},
	{"regression", "Iteration regressions", []string{"regress", "lost", "broke", "worse than"}},
}

// Themes clusters non-praise annotations by issue type plus a textual
// signal. Dominant severity is the worst member severity; formats and
// occurrences aggregate across members. Output is stable for unchanged input.
func (s *Service) Themes(ctx context.Context) ([]Theme, error) {
	list, err := s.Enrich(ctx)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		issueType entity.IssueType
		group     *keywordGroup
		members   []Issue
	}
	buckets := make(map[string]*bucket)
	for _, issue := range list.Issues {
		if issue.Severity == entity.SeverityGood {
			continue
		}
		group := matchKeywordGroup(issue.Note)
		key := string(issue.IssueType)
		if group != nil {
			key += "/" + group.slug
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{issueType: issue.IssueType, group: group}
			buckets[key] = b
		}
		b.members = append(b.members, issue)
	}

	out := make([]Theme, 0, len(buckets))
	for key, b := range buckets {
		theme := Theme{
			ID:       key,
			Severity: dominantSeverity(b.members),
		}
		if b.group != nil {
			theme.Title = b.group.title
			theme.Description = fmt.Sprintf("%s reported across %s annotations.", b.group.title, b.issueType)
		} else {
			theme.Title = fallbackTitle(b.issueType)
			theme.Description = fmt.Sprintf("Uncategorized %s findings.", b.issueType)
		}
		formats := make(map[string]struct{})
		for _, m := range b.members {
			formats[m.Format] = struct{}{}
			theme.Occurrences = append(theme.Occurrences, Occurrence{RunID: m.RunID, Format: m.Format})
			if note := strings.TrimSpace(m.Note); note != "" && len(theme.Manifestations) < 8 {
				theme.Manifestations = append(theme.Manifestations, note)
			}
		}
		theme.Formats = sortedKeys(formats)
		out = append(out, theme)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Severity.Rank() != out[j].Severity.Rank() {
			return out[i].Severity.Rank() < out[j].Severity.Rank()
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func matchKeywordGroup(note string) *keywordGroup {
	lower := strings.ToLower(note)
	for i := range keywordGroups {
		for _, kw := range keywordGroups[i].keywords {
			if strings.Contains(lower, kw) {
				return &keywordGroups[i]
			}
		}
	}
	return nil
}

func dominantSeverity(members []Issue) entity.Severity {
	worst := entity.SeverityLow
	for _, m := range members {
		if m.Severity.Rank() < worst.Rank() {
			worst = m.Severity
		}
	}
	return worst
}

func fallbackTitle(t entity.IssueType) string {
	name := strings.TrimSpace(string(t))
	if name == "" {
		return "Other findings"
	}
	return strings.ToUpper(name[:1]) + name[1:] + " issues"
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
