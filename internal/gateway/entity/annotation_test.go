package entity

import (
	"encoding/json"
	"testing"
)

func TestTargetJSONMessage(t *testing.T) {
	in := Target{Kind: TargetMessage}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var out Target
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if out != in {
		t.Fatalf("round trip = %+v, want %+v", out, in)
	}
}

func TestTargetJSONImagePoint(t *testing.T) {
	in := Target{Kind: TargetImagePoint, X: 12.5, Y: 80, Label: "header"}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var out Target
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if out != in {
		t.Fatalf("round trip = %+v, want %+v", out, in)
	}
}

func TestTargetJSONRejectsUnknownKind(t *testing.T) {
	var out Target
	if err := json.Unmarshal([]byte(`{"kind":"region"}`), &out); err == nil {
		t.Fatal("Unmarshal() accepted unknown target kind")
	}
	if _, err := json.Marshal(Target{Kind: "region"}); err == nil {
		t.Fatal("Marshal() accepted unknown target kind")
	}
}

func TestTargetJSONRejectsOutOfRangePoint(t *testing.T) {
	var out Target
	if err := json.Unmarshal([]byte(`{"kind":"image_point","x":120,"y":50}`), &out); err == nil {
		t.Fatal("Unmarshal() accepted an x coordinate above 100%")
	}
}

func TestNormalizeAnnotationClearsEmptyFixLink(t *testing.T) {
	empty := "  "
	a := NormalizeAnnotation(Annotation{ID: " a1 ", RunID: " r1 ", PlannedFixID: &empty})
	if a.ID != "a1" || a.RunID != "r1" {
		t.Fatalf("NormalizeAnnotation() = %+v", a)
	}
	if a.PlannedFixID != nil {
		t.Fatal("blank plannedFixId must normalize to nil")
	}
}

func TestEnumValidation(t *testing.T) {
	if !SeverityGood.Valid() || Severity("critical").Valid() {
		t.Fatal("severity validation is wrong")
	}
	if !IssueLayout.Valid() || IssueType("misc").Valid() {
		t.Fatal("issue type validation is wrong")
	}
	if !AuthorTester.Valid() || AuthorTag("bot").Valid() {
		t.Fatal("author validation is wrong")
	}
}
