package plannedfix

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"evaltrack/internal/gateway/entity"
	"evaltrack/internal/gateway/storage"
)

const fixColumns = `id, name, jira_ticket, owner, resolved, created_at, updated_at`

// PostgresStore persists planned fixes in the planned_fixes table.
type PostgresStore struct {
	gw *storage.Gateway
}

func NewPostgresStore(gw *storage.Gateway) *PostgresStore {
	return &PostgresStore{gw: gw}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFix(row rowScanner) (entity.PlannedFix, error) {
	var fix entity.PlannedFix
	err := row.Scan(&fix.ID, &fix.Name, &fix.JiraTicket, &fix.Owner, &fix.Resolved, &fix.CreatedAt, &fix.UpdatedAt)
	if err != nil {
		return entity.PlannedFix{}, err
	}
	return fix, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]entity.PlannedFix, error) {
	if err := s.gw.EnsureSchema(ctx); err != nil {
		return nil, entity.Backendf("ensure schema", err)
	}
	rows, err := s.gw.Query(ctx, `SELECT `+fixColumns+` FROM planned_fixes ORDER BY created_at DESC`)
	if err != nil {
		return nil, entity.Backendf("list planned fixes", err)
	}
	defer rows.Close()
	out := make([]entity.PlannedFix, 0, 16)
	for rows.Next() {
		fix, err := scanFix(rows)
		if err != nil {
			return nil, entity.Backendf("scan planned fix", err)
		}
		out = append(out, fix)
	}
	if err := rows.Err(); err != nil {
		return nil, entity.Backendf("list planned fixes", err)
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (entity.PlannedFix, error) {
	if err := s.gw.EnsureSchema(ctx); err != nil {
		return entity.PlannedFix{}, entity.Backendf("ensure schema", err)
	}
	row := s.gw.QueryRow(ctx, `SELECT `+fixColumns+` FROM planned_fixes WHERE id = $1`, strings.TrimSpace(id))
	fix, err := scanFix(row)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.PlannedFix{}, entity.ErrNotFound
	}
	if err != nil {
		return entity.PlannedFix{}, entity.Backendf("get planned fix", err)
	}
	return fix, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, fix entity.PlannedFix) (entity.PlannedFix, error) {
	if err := s.gw.EnsureSchema(ctx); err != nil {
		return entity.PlannedFix{}, entity.Backendf("ensure schema", err)
	}
	normalized := entity.NormalizePlannedFix(fix)
	if normalized.Name == "" {
		return entity.PlannedFix{}, entity.Invalidf("name", "must not be empty")
	}
	if normalized.ID == "" {
		normalized.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	row := s.gw.QueryRow(ctx, `
INSERT INTO planned_fixes (`+fixColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$6)
ON CONFLICT (id) DO UPDATE SET
  name=EXCLUDED.name,
  jira_ticket=EXCLUDED.jira_ticket,
  owner=EXCLUDED.owner,
  resolved=EXCLUDED.resolved,
  updated_at=EXCLUDED.updated_at
RETURNING `+fixColumns,
		normalized.ID, normalized.Name, normalized.JiraTicket, normalized.Owner, normalized.Resolved, now)
	stored, err := scanFix(row)
	if err != nil {
		return entity.PlannedFix{}, entity.Backendf("upsert planned fix", err)
	}
	return stored, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if err := s.gw.EnsureSchema(ctx); err != nil {
		return entity.Backendf("ensure schema", err)
	}
	res, err := s.gw.Exec(ctx, `DELETE FROM planned_fixes WHERE id = $1`, strings.TrimSpace(id))
	if err != nil {
		return entity.Backendf("delete planned fix", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return entity.ErrNotFound
	}
	return nil
}
