package entity

import (
	"testing"
)

func TestDeriveRating(t *testing.T) {
	cases := []struct {
		overall float64
		want    Rating
	}{
		{10, RatingGreat},
		{8, RatingGreat},
		{7.99, RatingGood},
		{5, RatingGood},
		{4.99, RatingBad},
		{0, RatingBad},
	}
	for _, tc := range cases {
		if got := DeriveRating(tc.overall); got != tc.want {
			t.Fatalf("DeriveRating(%v) = %q, want %q", tc.overall, got, tc.want)
		}
	}
}

func TestDeriveRatingIdempotent(t *testing.T) {
	run := Run{Scores: Scores{Overall: 6.5}}
	first := run.EffectiveRating()
	run.Rating = first
	if got := run.EffectiveRating(); got != first {
		t.Fatalf("EffectiveRating() changed on rederivation: %q then %q", first, got)
	}
}

func TestCaptureStateEffective(t *testing.T) {
	if got := StateLegacy.Effective(); got != StateScored {
		t.Fatalf("legacy state maps to %q, want %q", got, StateScored)
	}
	for _, s := range []CaptureState{StateCapturing, StateCaptured, StateScored} {
		if got := s.Effective(); got != s {
			t.Fatalf("state %q maps to %q, want itself", s, got)
		}
	}
	if StateLegacy.Effective() == StateCapturing {
		t.Fatal("legacy state must never read as capturing")
	}
}

func TestCaptureStateValid(t *testing.T) {
	if !StateLegacy.Valid() {
		t.Fatal("absent state must be valid (legacy scored)")
	}
	if CaptureState("paused").Valid() {
		t.Fatal("unknown state must be invalid")
	}
}

func TestNormalizeRunSortsPrompts(t *testing.T) {
	run := NormalizeRun(Run{
		ID: " run-1 ",
		Prompts: []Prompt{
			{Number: 3, Title: "V3"},
			{Number: 1, Title: "V1"},
			{Number: 2, Title: "V2"},
		},
	})
	if run.ID != "run-1" {
		t.Fatalf("NormalizeRun() id = %q, want %q", run.ID, "run-1")
	}
	for i, p := range run.Prompts {
		if p.Number != i+1 {
			t.Fatalf("prompt[%d].Number = %d, want %d", i, p.Number, i+1)
		}
	}
}

func TestPromptByNumber(t *testing.T) {
	run := Run{Prompts: []Prompt{{Number: 1, Title: "V1"}, {Number: 2, Title: "V2"}}}
	p, ok := run.PromptByNumber(2)
	if !ok || p.Title != "V2" {
		t.Fatalf("PromptByNumber(2) = %+v, %v", p, ok)
	}
	if _, ok := run.PromptByNumber(9); ok {
		t.Fatal("PromptByNumber(9) found a prompt that does not exist")
	}
}

func TestSeverityRankOrder(t *testing.T) {
	order := []Severity{SeverityHigh, SeverityMedium, SeverityLow, SeverityGood}
	for i := 1; i < len(order); i++ {
		if order[i-1].Rank() >= order[i].Rank() {
			t.Fatalf("severity %q must rank before %q", order[i-1], order[i])
		}
	}
}
