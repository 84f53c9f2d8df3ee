package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// migration is one schema step. Versions are ordered strings; applied
// versions are tracked in gangway_schema_migrations.
type migration struct {
	version string
	up      string
}

var migrations = []migration{
	{
		version: "20250301000001_create_grants",
		up: `
CREATE TABLE IF NOT EXISTS gangway_grants (
    id          TEXT PRIMARY KEY,
    owner_id    TEXT NOT NULL,
    subject_id  TEXT NOT NULL,
    task_id     TEXT NOT NULL,
    granted_by  TEXT NOT NULL DEFAULT '',
    created_at  DATETIME NOT NULL,
    revoked_at  DATETIME
);

CREATE INDEX IF NOT EXISTS idx_gangway_grants_pair
    ON gangway_grants (owner_id, subject_id, revoked_at);
CREATE INDEX IF NOT EXISTS idx_gangway_grants_task
    ON gangway_grants (task_id);
`,
	},
	{
		version: "20250301000002_create_decisions",
		up: `
CREATE TABLE IF NOT EXISTS gangway_decisions (
    id           TEXT PRIMARY KEY,
    session_id   TEXT NOT NULL DEFAULT '',
    peer_id      TEXT NOT NULL,
    channel      TEXT NOT NULL,
    op           TEXT NOT NULL,
    document_id  TEXT NOT NULL,
    role         TEXT NOT NULL DEFAULT '',
    allowed      INTEGER NOT NULL,
    decision     TEXT NOT NULL,
    reason       TEXT NOT NULL DEFAULT '',
    eval_time_ns INTEGER NOT NULL DEFAULT 0,
    created_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_gangway_decisions_session
    ON gangway_decisions (session_id);
CREATE INDEX IF NOT EXISTS idx_gangway_decisions_doc
    ON gangway_decisions (document_id);
CREATE INDEX IF NOT EXISTS idx_gangway_decisions_created
    ON gangway_decisions (created_at);
`,
	},
}

func migrate(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS gangway_schema_migrations (
    version    TEXT PRIMARY KEY,
    applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
)`)
	if err != nil {
		return fmt.Errorf("gangway/sqlite: create migrations table: %w", err)
	}

	applied := make(map[string]struct{})
	var versions []string
	if err := db.SelectContext(ctx, &versions,
		`SELECT version FROM gangway_schema_migrations`); err != nil {
		return fmt.Errorf("gangway/sqlite: read applied migrations: %w", err)
	}
	for _, v := range versions {
		applied[v] = struct{}{}
	}

	for _, m := range migrations {
		if _, done := applied[m.version]; done {
			continue
		}
		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("gangway/sqlite: begin migration %s: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, m.up); err != nil {
			tx.Rollback()
			return fmt.Errorf("gangway/sqlite: apply migration %s: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO gangway_schema_migrations (version) VALUES (?)`, m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("gangway/sqlite: record migration %s: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("gangway/sqlite: commit migration %s: %w", m.version, err)
		}
	}
	return nil
}
