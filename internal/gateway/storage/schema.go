package storage

import (
	"context"
)

// EnsureSchema creates the normalized tables on first use. All DDL lives here
// so the foreign keys between entities are declared in dependency order.
// ON DELETE CASCADE / SET NULL back up the cascade rules the service layer
// applies itself, keeping direct SQL unable to break referential integrity.
func (g *Gateway) EnsureSchema(ctx context.Context) error {
	if !g.Configured() {
		return nil
	}
	g.schemaOnce.Do(func() {
		_, g.schemaErr = g.Exec(ctx, `
CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  format TEXT NOT NULL,
  test_type TEXT NOT NULL DEFAULT '',
  ts TIMESTAMP WITH TIME ZONE NOT NULL,
  state TEXT NOT NULL DEFAULT '',
  rating TEXT NOT NULL DEFAULT '',
  score_overall DOUBLE PRECISION NOT NULL DEFAULT 0,
  score_prompt_adherence DOUBLE PRECISION NOT NULL DEFAULT 0,
  score_iteration_quality DOUBLE PRECISION NOT NULL DEFAULT 0,
  good JSONB NOT NULL DEFAULT '[]',
  bad JSONB NOT NULL DEFAULT '[]',
  iteration_analysis JSONB
);

CREATE TABLE IF NOT EXISTS run_prompts (
  run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
  number INTEGER NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  prompt_text TEXT NOT NULL DEFAULT '',
  artifact TEXT NOT NULL DEFAULT '',
  observation TEXT NOT NULL DEFAULT '',
  evaluation TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (run_id, number)
);

CREATE TABLE IF NOT EXISTS planned_fixes (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  jira_ticket TEXT NOT NULL DEFAULT '',
  owner TEXT NOT NULL DEFAULT '',
  resolved BOOLEAN NOT NULL DEFAULT FALSE,
  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS annotations (
  id TEXT PRIMARY KEY,
  run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
  message_id INTEGER NOT NULL,
  author TEXT NOT NULL,
  issue_type TEXT NOT NULL,
  severity TEXT NOT NULL,
  note TEXT NOT NULL DEFAULT '',
  planned_fix_id TEXT REFERENCES planned_fixes(id) ON DELETE SET NULL,
  owner TEXT NOT NULL DEFAULT '',
  target JSONB,
  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_annotations_run_id ON annotations (run_id);
CREATE INDEX IF NOT EXISTS idx_annotations_planned_fix_id ON annotations (planned_fix_id);
`)
	})
	return g.schemaErr
}
