package annotations

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"evaltrack/internal/gateway/entity"
	"evaltrack/internal/gateway/storage"
)

const annotationColumns = `id, run_id, message_id, author, issue_type, severity,
note, planned_fix_id, owner, target, created_at, updated_at`

// PostgresStore persists annotations in the annotations table. Run and fix
// references are declared as foreign keys; the service layer still drives
// cascades explicitly so both backends behave identically.
type PostgresStore struct {
	gw *storage.Gateway
}

func NewPostgresStore(gw *storage.Gateway) *PostgresStore {
	return &PostgresStore{gw: gw}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnnotation(row rowScanner) (entity.Annotation, error) {
	var (
		a      entity.Annotation
		fixID  sql.NullString
		target []byte
	)
	err := row.Scan(
		&a.ID, &a.RunID, &a.MessageID, &a.Author, &a.IssueType, &a.Severity,
		&a.Note, &fixID, &a.Owner, &target, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return entity.Annotation{}, err
	}
	if fixID.Valid {
		v := fixID.String
		a.PlannedFixID = &v
	}
	if len(target) > 0 {
		var t entity.Target
		if err := json.Unmarshal(target, &t); err != nil {
			return entity.Annotation{}, fmt.Errorf("decode target: %w", err)
		}
		a.Target = &t
	}
	return a, nil
}

func (s *PostgresStore) query(ctx context.Context, where string, args ...any) ([]entity.Annotation, error) {
	if err := s.gw.EnsureSchema(ctx); err != nil {
		return nil, entity.Backendf("ensure schema", err)
	}
	q := `SELECT ` + annotationColumns + ` FROM annotations`
	if where != "" {
		q += ` WHERE ` + where
	}
	q += ` ORDER BY created_at DESC`
	rows, err := s.gw.Query(ctx, q, args...)
	if err != nil {
		return nil, entity.Backendf("list annotations", err)
	}
	defer rows.Close()
	out := make([]entity.Annotation, 0, 32)
	for rows.Next() {
		a, err := scanAnnotation(rows)
		if err != nil {
			return nil, entity.Backendf("scan annotation", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, entity.Backendf("list annotations", err)
	}
	return out, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]entity.Annotation, error) {
	return s.query(ctx, "")
}

func (s *PostgresStore) ListByRun(ctx context.Context, runID string) ([]entity.Annotation, error) {
	return s.query(ctx, `run_id = $1`, strings.TrimSpace(runID))
}

func (s *PostgresStore) ListByRunMessage(ctx context.Context, runID string, messageID int) ([]entity.Annotation, error) {
	return s.query(ctx, `run_id = $1 AND message_id = $2`, strings.TrimSpace(runID), messageID)
}

func (s *PostgresStore) Get(ctx context.Context, id string) (entity.Annotation, error) {
	if err := s.gw.EnsureSchema(ctx); err != nil {
		return entity.Annotation{}, entity.Backendf("ensure schema", err)
	}
	row := s.gw.QueryRow(ctx, `SELECT `+annotationColumns+` FROM annotations WHERE id = $1`, strings.TrimSpace(id))
	a, err := scanAnnotation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Annotation{}, entity.ErrNotFound
	}
	if err != nil {
		return entity.Annotation{}, entity.Backendf("get annotation", err)
	}
	return a, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, a entity.Annotation) (entity.Annotation, error) {
	if err := s.gw.EnsureSchema(ctx); err != nil {
		return entity.Annotation{}, entity.Backendf("ensure schema", err)
	}
	normalized := entity.NormalizeAnnotation(a)
	if normalized.ID == "" {
		normalized.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	var fixID any
	if normalized.PlannedFixID != nil {
		fixID = *normalized.PlannedFixID
	}
	var target any
	if normalized.Target != nil {
		b, err := json.Marshal(normalized.Target)
		if err != nil {
			return entity.Annotation{}, entity.Backendf("encode target", err)
		}
		target = b
	}
	row := s.gw.QueryRow(ctx, `
INSERT INTO annotations (`+annotationColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$11)
ON CONFLICT (id) DO UPDATE SET
  run_id=EXCLUDED.run_id,
  message_id=EXCLUDED.message_id,
  author=EXCLUDED.author,
  issue_type=EXCLUDED.issue_type,
  severity=EXCLUDED.severity,
  note=EXCLUDED.note,
  planned_fix_id=EXCLUDED.planned_fix_id,
  owner=EXCLUDED.owner,
  target=EXCLUDED.target,
  updated_at=EXCLUDED.updated_at
RETURNING `+annotationColumns,
		normalized.ID, normalized.RunID, normalized.MessageID, string(normalized.Author),
		string(normalized.IssueType), string(normalized.Severity), normalized.Note,
		fixID, normalized.Owner, target, now)
	stored, err := scanAnnotation(row)
	if err != nil {
		return entity.Annotation{}, entity.Backendf("upsert annotation", err)
	}
	return stored, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if err := s.gw.EnsureSchema(ctx); err != nil {
		return entity.Backendf("ensure schema", err)
	}
	res, err := s.gw.Exec(ctx, `DELETE FROM annotations WHERE id = $1`, strings.TrimSpace(id))
	if err != nil {
		return entity.Backendf("delete annotation", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteByRunMessage(ctx context.Context, runID string, messageID int) error {
	if err := s.gw.EnsureSchema(ctx); err != nil {
		return entity.Backendf("ensure schema", err)
	}
	res, err := s.gw.Exec(ctx, `DELETE FROM annotations WHERE run_id = $1 AND message_id = $2`,
		strings.TrimSpace(runID), messageID)
	if err != nil {
		return entity.Backendf("delete annotations by message", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteByRun(ctx context.Context, runID string) error {
	if err := s.gw.EnsureSchema(ctx); err != nil {
		return entity.Backendf("ensure schema", err)
	}
	_, err := s.gw.Exec(ctx, `DELETE FROM annotations WHERE run_id = $1`, strings.TrimSpace(runID))
	if err != nil {
		return entity.Backendf("delete annotations by run", err)
	}
	return nil
}

func (s *PostgresStore) ClearPlannedFix(ctx context.Context, fixID string) error {
	if err := s.gw.EnsureSchema(ctx); err != nil {
		return entity.Backendf("ensure schema", err)
	}
	_, err := s.gw.Exec(ctx, `UPDATE annotations SET planned_fix_id = NULL, updated_at = NOW() WHERE planned_fix_id = $1`,
		strings.TrimSpace(fixID))
	if err != nil {
		return entity.Backendf("clear planned fix", err)
	}
	return nil
}
