package entity

import (
	"sort"
	"strings"
	"time"
)

// CaptureState is the run lifecycle state. The zero value marks legacy rows
// written before the state column existed; those are treated as scored.
type CaptureState string

const (
	StateLegacy    CaptureState = ""
	StateCapturing CaptureState = "capturing"
	StateCaptured  CaptureState = "captured"
	StateScored    CaptureState = "scored"
)

// Effective maps the legacy zero value to StateScored. All read paths go
// through this; business logic never branches on StateLegacy directly.
func (s CaptureState) Effective() CaptureState {
	if s == StateLegacy {
		return StateScored
	}
	return s
}

func (s CaptureState) Valid() bool {
	switch s {
	case StateLegacy, StateCapturing, StateCaptured, StateScored:
		return true
	}
	return false
}

type Rating string

const (
	RatingGreat Rating = "great"
	RatingGood  Rating = "good"
	RatingBad   Rating = "bad"
)

// DeriveRating thresholds the overall score into a rating. The cut points are
// shared with the reporting dashboards and must not drift.
func DeriveRating(overall float64) Rating {
	switch {
	case overall >= 8:
		return RatingGreat
	case overall >= 5:
		return RatingGood
	default:
		return RatingBad
	}
}

type Scores struct {
	Overall          float64 `json:"overall"`
	PromptAdherence  float64 `json:"promptAdherence"`
	IterationQuality float64 `json:"iterationQuality"`
}

type PromptStatus string

const (
	PromptStatusPass    PromptStatus = "pass"
	PromptStatusFail    PromptStatus = "fail"
	PromptStatusWarning PromptStatus = "warning"
)

// Prompt is one numbered step within a run. Observation is filled during
// capture; Evaluation and Status are filled by scoring.
type Prompt struct {
	Number      int          `json:"number"`
	Title       string       `json:"title"`
	Text        string       `json:"text"`
	Artifact    string       `json:"artifact,omitempty"`
	Observation string       `json:"observation,omitempty"`
	Evaluation  string       `json:"evaluation,omitempty"`
	Status      PromptStatus `json:"status,omitempty"`
}

// PromptEvaluation is the scoring payload for one prompt, keyed by number.
type PromptEvaluation struct {
	Number     int          `json:"number"`
	Evaluation string       `json:"evaluation"`
	Status     PromptStatus `json:"status"`
}

type IterationAnalysis struct {
	Regressions []string `json:"regressions"`
}

// Run is one evaluation session against one output format.
type Run struct {
	ID        string       `json:"id"`
	Format    string       `json:"format"`
	TestType  string       `json:"testType"`
	Timestamp time.Time    `json:"timestamp"`
	State     CaptureState `json:"state,omitempty"`
	Rating    Rating       `json:"rating,omitempty"`

	Scores Scores   `json:"scores"`
	Good   []string `json:"good,omitempty"`
	Bad    []string `json:"bad,omitempty"`

	Prompts           []Prompt           `json:"prompts"`
	IterationAnalysis *IterationAnalysis `json:"iterationAnalysis,omitempty"`
}

// EffectiveRating returns the explicit rating when present, else derives one
// from the overall score.
func (r Run) EffectiveRating() Rating {
	if r.Rating != "" {
		return r.Rating
	}
	return DeriveRating(r.Scores.Overall)
}

// PromptByNumber returns the prompt with the given number, if present.
func (r Run) PromptByNumber(n int) (Prompt, bool) {
	for _, p := range r.Prompts {
		if p.Number == n {
			return p, true
		}
	}
	return Prompt{}, false
}

// NormalizeRun trims identifying fields and sorts prompts by number.
func NormalizeRun(run Run) Run {
	run.ID = strings.TrimSpace(run.ID)
	run.Format = strings.TrimSpace(run.Format)
	run.TestType = strings.TrimSpace(run.TestType)
	sortPrompts(run.Prompts)
	return run
}

func sortPrompts(prompts []Prompt) {
	sort.Slice(prompts, func(i, j int) bool {
		return prompts[i].Number < prompts[j].Number
	})
}
