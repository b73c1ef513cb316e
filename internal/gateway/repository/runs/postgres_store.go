package runs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"evaltrack/internal/gateway/entity"
	"evaltrack/internal/gateway/storage"
)

const runColumns = `id, format, test_type, ts, state, rating,
score_overall, score_prompt_adherence, score_iteration_quality,
good, bad, iteration_analysis`

// PostgresStore persists runs in the normalized runs + run_prompts tables.
type PostgresStore struct {
	gw *storage.Gateway
}

func NewPostgresStore(gw *storage.Gateway) *PostgresStore {
	return &PostgresStore{gw: gw}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (entity.Run, error) {
	var (
		run       entity.Run
		good      []byte
		bad       []byte
		iteration []byte
	)
	err := row.Scan(
		&run.ID, &run.Format, &run.TestType, &run.Timestamp, &run.State, &run.Rating,
		&run.Scores.Overall, &run.Scores.PromptAdherence, &run.Scores.IterationQuality,
		&good, &bad, &iteration,
	)
	if err != nil {
		return entity.Run{}, err
	}
	if len(good) > 0 {
		if err := json.Unmarshal(good, &run.Good); err != nil {
			return entity.Run{}, fmt.Errorf("decode good list: %w", err)
		}
	}
	if len(bad) > 0 {
		if err := json.Unmarshal(bad, &run.Bad); err != nil {
			return entity.Run{}, fmt.Errorf("decode bad list: %w", err)
		}
	}
	if len(iteration) > 0 {
		var ia entity.IterationAnalysis
		if err := json.Unmarshal(iteration, &ia); err != nil {
			return entity.Run{}, fmt.Errorf("decode iteration analysis: %w", err)
		}
		run.IterationAnalysis = &ia
	}
	return run, nil
}

func (s *PostgresStore) loadPrompts(ctx context.Context, runID string) ([]entity.Prompt, error) {
	rows, err := s.gw.Query(ctx, `
SELECT number, title, prompt_text, artifact, observation, evaluation, status
FROM run_prompts WHERE run_id = $1 ORDER BY number`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []entity.Prompt
	for rows.Next() {
		var p entity.Prompt
		if err := rows.Scan(&p.Number, &p.Title, &p.Text, &p.Artifact, &p.Observation, &p.Evaluation, &p.Status); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) List(ctx context.Context) ([]entity.Run, error) {
	if err := s.gw.EnsureSchema(ctx); err != nil {
		return nil, entity.Backendf("ensure schema", err)
	}
	rows, err := s.gw.Query(ctx, `SELECT `+runColumns+` FROM runs ORDER BY ts DESC`)
	if err != nil {
		return nil, entity.Backendf("list runs", err)
	}
	defer rows.Close()
	out := make([]entity.Run, 0, 32)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, entity.Backendf("scan run", err)
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, entity.Backendf("list runs", err)
	}
	for i := range out {
		prompts, err := s.loadPrompts(ctx, out[i].ID)
		if err != nil {
			return nil, entity.Backendf("load prompts", err)
		}
		out[i].Prompts = prompts
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, runID string) (entity.Run, error) {
	if err := s.gw.EnsureSchema(ctx); err != nil {
		return entity.Run{}, entity.Backendf("ensure schema", err)
	}
	id := strings.TrimSpace(runID)
	row := s.gw.QueryRow(ctx, `SELECT `+runColumns+` FROM runs WHERE id = $1`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Run{}, entity.ErrNotFound
	}
	if err != nil {
		return entity.Run{}, entity.Backendf("get run", err)
	}
	prompts, err := s.loadPrompts(ctx, id)
	if err != nil {
		return entity.Run{}, entity.Backendf("load prompts", err)
	}
	run.Prompts = prompts
	return run, nil
}

func (s *PostgresStore) Put(ctx context.Context, run entity.Run) error {
	if err := s.gw.EnsureSchema(ctx); err != nil {
		return entity.Backendf("ensure schema", err)
	}
	normalized := entity.NormalizeRun(run)
	if normalized.ID == "" {
		return entity.Invalidf("id", "must not be empty")
	}
	err := s.gw.WithTx(ctx, func(tx *sql.Tx) error {
		return putRunTx(tx, normalized)
	})
	if err != nil {
		return entity.Backendf("put run", err)
	}
	return nil
}

// putRunTx writes the run row and replaces its prompt rows inside tx so a
// run plus all of its prompts lands atomically.
func putRunTx(tx *sql.Tx, run entity.Run) error {
	good, err := json.Marshal(orEmpty(run.Good))
	if err != nil {
		return err
	}
	bad, err := json.Marshal(orEmpty(run.Bad))
	if err != nil {
		return err
	}
	var iteration any
	if run.IterationAnalysis != nil {
		b, err := json.Marshal(run.IterationAnalysis)
		if err != nil {
			return err
		}
		iteration = b
	}
	_, err = tx.Exec(`
INSERT INTO runs (`+runColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (id) DO UPDATE SET
  format=EXCLUDED.format,
  test_type=EXCLUDED.test_type,
  ts=EXCLUDED.ts,
  state=EXCLUDED.state,
  rating=EXCLUDED.rating,
  score_overall=EXCLUDED.score_overall,
  score_prompt_adherence=EXCLUDED.score_prompt_adherence,
  score_iteration_quality=EXCLUDED.score_iteration_quality,
  good=EXCLUDED.good,
  bad=EXCLUDED.bad,
  iteration_analysis=EXCLUDED.iteration_analysis`,
		run.ID, run.Format, run.TestType, run.Timestamp, string(run.State), string(run.Rating),
		run.Scores.Overall, run.Scores.PromptAdherence, run.Scores.IterationQuality,
		good, bad, iteration)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM run_prompts WHERE run_id = $1`, run.ID); err != nil {
		return err
	}
	for _, p := range run.Prompts {
		_, err := tx.Exec(`
INSERT INTO run_prompts (run_id, number, title, prompt_text, artifact, observation, evaluation, status)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			run.ID, p.Number, p.Title, p.Text, p.Artifact, p.Observation, p.Evaluation, string(p.Status))
		if err != nil {
			return err
		}
	}
	return nil
}

func orEmpty(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func (s *PostgresStore) Update(ctx context.Context, runID string, fn func(*entity.Run) error) (entity.Run, error) {
	if err := s.gw.EnsureSchema(ctx); err != nil {
		return entity.Run{}, entity.Backendf("ensure schema", err)
	}
	id := strings.TrimSpace(runID)
	var updated entity.Run
	var fnErr error
	err := s.gw.WithTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = $1 FOR UPDATE`, id)
		cur, err := scanRun(row)
		if err != nil {
			return err
		}
		rows, err := tx.Query(`
SELECT number, title, prompt_text, artifact, observation, evaluation, status
FROM run_prompts WHERE run_id = $1 ORDER BY number`, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var p entity.Prompt
			if err := rows.Scan(&p.Number, &p.Title, &p.Text, &p.Artifact, &p.Observation, &p.Evaluation, &p.Status); err != nil {
				return err
			}
			cur.Prompts = append(cur.Prompts, p)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		if fnErr = fn(&cur); fnErr != nil {
			return fnErr
		}
		cur.ID = id
		updated = entity.NormalizeRun(cur)
		return putRunTx(tx, updated)
	})
	if fnErr != nil {
		return entity.Run{}, fnErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Run{}, entity.ErrNotFound
	}
	if err != nil {
		return entity.Run{}, entity.Backendf("update run", err)
	}
	return updated, nil
}

func (s *PostgresStore) Delete(ctx context.Context, runID string) error {
	if err := s.gw.EnsureSchema(ctx); err != nil {
		return entity.Backendf("ensure schema", err)
	}
	res, err := s.gw.Exec(ctx, `DELETE FROM runs WHERE id = $1`, strings.TrimSpace(runID))
	if err != nil {
		return entity.Backendf("delete run", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListPending(ctx context.Context) (captured, capturing []entity.Run, err error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	return splitPending(all)
}
