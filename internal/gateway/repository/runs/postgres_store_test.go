package runs

import (
	"strings"
	"testing"
	"time"

	"evaltrack/internal/gateway/entity"
)

// stubRunRow feeds scanRun a fixed row so the jsonb decode paths can be
// exercised without a database.
type stubRunRow struct {
	good, bad, iteration []byte
}

func (r stubRunRow) Scan(dest ...any) error {
	*(dest[0].(*string)) = "run-1"
	*(dest[1].(*string)) = "table"
	*(dest[2].(*string)) = "iteration-v2"
	*(dest[3].(*time.Time)) = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	*(dest[4].(*entity.CaptureState)) = entity.StateScored
	*(dest[5].(*entity.Rating)) = entity.RatingGood
	*(dest[6].(*float64)) = 7
	*(dest[7].(*float64)) = 6
	*(dest[8].(*float64)) = 6
	*(dest[9].(*[]byte)) = r.good
	*(dest[10].(*[]byte)) = r.bad
	*(dest[11].(*[]byte)) = r.iteration
	return nil
}

func TestScanRunDecodesJSONColumns(t *testing.T) {
	run, err := scanRun(stubRunRow{
		good:      []byte(`["clean layout"]`),
		bad:       []byte(`["slow"]`),
		iteration: []byte(`{"regressions":["lost legend"]}`),
	})
	if err != nil {
		t.Fatalf("scanRun() error = %v", err)
	}
	if len(run.Good) != 1 || run.Good[0] != "clean layout" {
		t.Fatalf("Good = %v", run.Good)
	}
	if len(run.Bad) != 1 || run.Bad[0] != "slow" {
		t.Fatalf("Bad = %v", run.Bad)
	}
	if run.IterationAnalysis == nil || len(run.IterationAnalysis.Regressions) != 1 {
		t.Fatalf("IterationAnalysis = %+v", run.IterationAnalysis)
	}
}

func TestScanRunRejectsCorruptJSONColumns(t *testing.T) {
	cases := []struct {
		name string
		row  stubRunRow
		want string
	}{
		{"corrupt good", stubRunRow{good: []byte(`{not json`)}, "decode good list"},
		{"corrupt bad", stubRunRow{bad: []byte(`[truncated`)}, "decode bad list"},
		{"corrupt iteration", stubRunRow{iteration: []byte(`"wrong shape`)}, "decode iteration analysis"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := scanRun(tc.row)
			if err == nil {
				t.Fatal("scanRun() error = nil, want decode failure")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("scanRun() error = %v, want mention of %q", err, tc.want)
			}
		})
	}
}
