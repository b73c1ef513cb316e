package entity

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Severity ranks annotations for display. "good" marks praise, not a defect.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
	SeverityGood   Severity = "good"
)

// Rank orders severities for sorting: high first, praise last.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	case SeverityLow:
		return 2
	case SeverityGood:
		return 3
	}
	return 4
}

func (s Severity) Valid() bool {
	return s.Rank() < 4
}

type AuthorTag string

const (
	AuthorTester   AuthorTag = "tester"
	AuthorReviewer AuthorTag = "reviewer"
)

func (a AuthorTag) Valid() bool {
	return a == AuthorTester || a == AuthorReviewer
}

type IssueType string

const (
	IssueLayout    IssueType = "layout"
	IssueContent   IssueType = "content"
	IssueStyle     IssueType = "style"
	IssueIteration IssueType = "iteration"
	IssueLatency   IssueType = "latency"
	IssueOther     IssueType = "other"
)

func (t IssueType) Valid() bool {
	switch t {
	case IssueLayout, IssueContent, IssueStyle, IssueIteration, IssueLatency, IssueOther:
		return true
	}
	return false
}

const (
	TargetMessage    = "message"
	TargetImagePoint = "image_point"
)

// Target pins an annotation either to a whole message or to a point on the
// artifact image, expressed as percentages of its width and height.
type Target struct {
	Kind  string
	X     float64
	Y     float64
	Label string
}

type targetJSON struct {
	Kind  string  `json:"kind"`
	X     float64 `json:"x,omitempty"`
	Y     float64 `json:"y,omitempty"`
	Label string  `json:"label,omitempty"`
}

func (t Target) MarshalJSON() ([]byte, error) {
	switch t.Kind {
	case TargetMessage:
		return json.Marshal(targetJSON{Kind: TargetMessage})
	case TargetImagePoint:
		return json.Marshal(targetJSON{Kind: TargetImagePoint, X: t.X, Y: t.Y, Label: t.Label})
	}
	return nil, fmt.Errorf("unknown target kind %q", t.Kind)
}

func (t *Target) UnmarshalJSON(data []byte) error {
	var raw targetJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Kind {
	case TargetMessage:
		*t = Target{Kind: TargetMessage}
	case TargetImagePoint:
		if raw.X < 0 || raw.X > 100 || raw.Y < 0 || raw.Y > 100 {
			return fmt.Errorf("image point out of range: (%v, %v)", raw.X, raw.Y)
		}
		*t = Target{Kind: TargetImagePoint, X: raw.X, Y: raw.Y, Label: strings.TrimSpace(raw.Label)}
	default:
		return fmt.Errorf("unknown target kind %q", raw.Kind)
	}
	return nil
}

// Annotation is one tester note about one run, optionally scoped to a single
// message and, within that, optionally pinned to an image point.
type Annotation struct {
	ID           string    `json:"id"`
	RunID        string    `json:"runId"`
	MessageID    int       `json:"messageId"`
	Author       AuthorTag `json:"author"`
	IssueType    IssueType `json:"issueType"`
	Severity     Severity  `json:"severity"`
	Note         string    `json:"note,omitempty"`
	PlannedFixID *string   `json:"plannedFixId"`
	Owner        string    `json:"owner,omitempty"`
	Target       *Target   `json:"target,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NormalizeAnnotation trims reference fields and clears an empty fix link.
func NormalizeAnnotation(a Annotation) Annotation {
	a.ID = strings.TrimSpace(a.ID)
	a.RunID = strings.TrimSpace(a.RunID)
	a.Owner = strings.TrimSpace(a.Owner)
	if a.PlannedFixID != nil && strings.TrimSpace(*a.PlannedFixID) == "" {
		a.PlannedFixID = nil
	}
	return a
}
