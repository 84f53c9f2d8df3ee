// Package postgres provides a PostgreSQL implementation of the gangway
// composite store using pgx. Server-side relays that fan out many owner
// stores audit into one shared database.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shipyard-dev/gangway"
	"github.com/shipyard-dev/gangway/decisionlog"
	"github.com/shipyard-dev/gangway/id"
	"github.com/shipyard-dev/gangway/share"
	"github.com/shipyard-dev/gangway/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a PostgreSQL implementation of the composite gangway store.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a new PostgreSQL store around an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Connect creates a pool from a connection string and returns a store
// around it.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("gangway/postgres: connect: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Migrate applies the schema. Statements are idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("gangway/postgres: migrate: %w", err)
		}
	}
	return nil
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

var schema = []string{
	`
CREATE TABLE IF NOT EXISTS gangway_grants (
    id          TEXT PRIMARY KEY,
    owner_id    TEXT NOT NULL,
    subject_id  TEXT NOT NULL,
    task_id     TEXT NOT NULL,
    granted_by  TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL,
    revoked_at  TIMESTAMPTZ
)`,
	`CREATE INDEX IF NOT EXISTS idx_gangway_grants_pair
    ON gangway_grants (owner_id, subject_id, revoked_at)`,
	`CREATE INDEX IF NOT EXISTS idx_gangway_grants_task
    ON gangway_grants (task_id)`,
	`
CREATE TABLE IF NOT EXISTS gangway_decisions (
    id           TEXT PRIMARY KEY,
    session_id   TEXT NOT NULL DEFAULT '',
    peer_id      TEXT NOT NULL,
    channel      TEXT NOT NULL,
    op           TEXT NOT NULL,
    document_id  TEXT NOT NULL,
    role         TEXT NOT NULL DEFAULT '',
    allowed      BOOLEAN NOT NULL,
    decision     TEXT NOT NULL,
    reason       TEXT NOT NULL DEFAULT '',
    eval_time_ns BIGINT NOT NULL DEFAULT 0,
    created_at   TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_gangway_decisions_session
    ON gangway_decisions (session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_gangway_decisions_doc
    ON gangway_decisions (document_id)`,
	`CREATE INDEX IF NOT EXISTS idx_gangway_decisions_created
    ON gangway_decisions (created_at)`,
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// ──────────────────────────────────────────────────
// Share grant store
// ──────────────────────────────────────────────────

func (s *Store) CreateGrant(ctx context.Context, g *share.Grant) error {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
INSERT INTO gangway_grants (id, owner_id, subject_id, task_id, granted_by, created_at, revoked_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		g.ID.String(), g.OwnerID, g.SubjectID, g.TaskID, g.GrantedBy, g.CreatedAt, g.RevokedAt)
	if err != nil {
		return fmt.Errorf("gangway/postgres: create grant %s: %w", g.ID, err)
	}
	return nil
}

func (s *Store) GetGrant(ctx context.Context, grantID id.GrantID) (*share.Grant, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, owner_id, subject_id, task_id, granted_by, created_at, revoked_at
FROM gangway_grants WHERE id = $1`, grantID.String())

	g, err := scanGrant(row)
	if isNoRows(err) {
		return nil, gangway.ErrGrantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("gangway/postgres: get grant %s: %w", grantID, err)
	}
	return g, nil
}

func (s *Store) RevokeGrant(ctx context.Context, grantID id.GrantID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE gangway_grants SET revoked_at = $1 WHERE id = $2 AND revoked_at IS NULL`,
		time.Now().UTC(), grantID.String())
	if err != nil {
		return fmt.Errorf("gangway/postgres: revoke grant %s: %w", grantID, err)
	}
	if tag.RowsAffected() == 0 {
		if _, getErr := s.GetGrant(ctx, grantID); getErr != nil {
			return getErr
		}
		return gangway.ErrGrantRevoked
	}
	return nil
}

func (s *Store) ListGrants(ctx context.Context, filter *share.ListFilter) ([]*share.Grant, error) {
	query, args := buildGrantQuery(
		"SELECT id, owner_id, subject_id, task_id, granted_by, created_at, revoked_at", filter, true)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("gangway/postgres: list grants: %w", err)
	}
	defer rows.Close()

	var grants []*share.Grant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, fmt.Errorf("gangway/postgres: list grants: %w", err)
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

func (s *Store) CountGrants(ctx context.Context, filter *share.ListFilter) (int64, error) {
	query, args := buildGrantQuery("SELECT COUNT(*)", filter, false)

	var n int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("gangway/postgres: count grants: %w", err)
	}
	return n, nil
}

func (s *Store) ListActiveTaskIDs(ctx context.Context, ownerID, subjectID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
SELECT DISTINCT task_id FROM gangway_grants
WHERE owner_id = $1 AND subject_id = $2 AND revoked_at IS NULL
ORDER BY task_id`, ownerID, subjectID)
	if err != nil {
		return nil, fmt.Errorf("gangway/postgres: list active task ids: %w", err)
	}
	defer rows.Close()

	var taskIDs []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("gangway/postgres: list active task ids: %w", err)
		}
		taskIDs = append(taskIDs, t)
	}
	return taskIDs, rows.Err()
}

func scanGrant(row pgx.Row) (*share.Grant, error) {
	var (
		rawID string
		g     share.Grant
	)
	err := row.Scan(&rawID, &g.OwnerID, &g.SubjectID, &g.TaskID, &g.GrantedBy, &g.CreatedAt, &g.RevokedAt)
	if err != nil {
		return nil, err
	}
	g.ID, err = id.ParseGrantID(rawID)
	if err != nil {
		return nil, fmt.Errorf("bad grant id %q: %w", rawID, err)
	}
	return &g, nil
}

func buildGrantQuery(sel string, filter *share.ListFilter, paginate bool) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.OwnerID != "" {
			conds = append(conds, "owner_id = "+arg(filter.OwnerID))
		}
		if filter.SubjectID != "" {
			conds = append(conds, "subject_id = "+arg(filter.SubjectID))
		}
		if filter.TaskID != "" {
			conds = append(conds, "task_id = "+arg(filter.TaskID))
		}
		if !filter.IncludeRevoked {
			conds = append(conds, "revoked_at IS NULL")
		}
	} else {
		conds = append(conds, "revoked_at IS NULL")
	}

	query := sel + " FROM gangway_grants"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	if paginate {
		query += " ORDER BY id"
		if filter != nil && filter.Limit > 0 {
			query += " LIMIT " + arg(filter.Limit)
			if filter.Offset > 0 {
				query += " OFFSET " + arg(filter.Offset)
			}
		}
	}
	return query, args
}

// ──────────────────────────────────────────────────
// Decision log store
// ──────────────────────────────────────────────────

func (s *Store) CreateEntry(ctx context.Context, e *decisionlog.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
INSERT INTO gangway_decisions
  (id, session_id, peer_id, channel, op, document_id, role, allowed, decision, reason, eval_time_ns, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		e.ID.String(), e.SessionID, e.PeerID, e.Channel, e.Op, e.DocumentID,
		e.Role, e.Allowed, e.Decision, e.Reason, e.EvalTimeNs, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("gangway/postgres: create decision entry %s: %w", e.ID, err)
	}
	return nil
}

func (s *Store) GetEntry(ctx context.Context, entryID id.DecisionID) (*decisionlog.Entry, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, session_id, peer_id, channel, op, document_id, role, allowed, decision, reason, eval_time_ns, created_at
FROM gangway_decisions WHERE id = $1`, entryID.String())

	e, err := scanEntry(row)
	if isNoRows(err) {
		return nil, gangway.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("gangway/postgres: get decision entry %s: %w", entryID, err)
	}
	return e, nil
}

func (s *Store) ListEntries(ctx context.Context, filter *decisionlog.QueryFilter) ([]*decisionlog.Entry, error) {
	query, args := buildEntryQuery(
		"SELECT id, session_id, peer_id, channel, op, document_id, role, allowed, decision, reason, eval_time_ns, created_at",
		filter, true)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("gangway/postgres: list decision entries: %w", err)
	}
	defer rows.Close()

	var entries []*decisionlog.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("gangway/postgres: list decision entries: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) CountEntries(ctx context.Context, filter *decisionlog.QueryFilter) (int64, error) {
	query, args := buildEntryQuery("SELECT COUNT(*)", filter, false)

	var n int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("gangway/postgres: count decision entries: %w", err)
	}
	return n, nil
}

func (s *Store) PurgeEntries(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM gangway_decisions WHERE created_at < $1`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("gangway/postgres: purge decision entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanEntry(row pgx.Row) (*decisionlog.Entry, error) {
	var (
		rawID string
		e     decisionlog.Entry
	)
	err := row.Scan(&rawID, &e.SessionID, &e.PeerID, &e.Channel, &e.Op, &e.DocumentID,
		&e.Role, &e.Allowed, &e.Decision, &e.Reason, &e.EvalTimeNs, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.ID, err = id.ParseDecisionID(rawID)
	if err != nil {
		return nil, fmt.Errorf("bad decision id %q: %w", rawID, err)
	}
	return &e, nil
}

func buildEntryQuery(sel string, filter *decisionlog.QueryFilter, paginate bool) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.SessionID != "" {
			conds = append(conds, "session_id = "+arg(filter.SessionID))
		}
		if filter.PeerID != "" {
			conds = append(conds, "peer_id = "+arg(filter.PeerID))
		}
		if filter.Channel != "" {
			conds = append(conds, "channel = "+arg(filter.Channel))
		}
		if filter.Op != "" {
			conds = append(conds, "op = "+arg(filter.Op))
		}
		if filter.DocumentID != "" {
			conds = append(conds, "document_id = "+arg(filter.DocumentID))
		}
		if filter.Allowed != nil {
			conds = append(conds, "allowed = "+arg(*filter.Allowed))
		}
		if filter.After != nil {
			conds = append(conds, "created_at > "+arg(filter.After.UTC()))
		}
		if filter.Before != nil {
			conds = append(conds, "created_at < "+arg(filter.Before.UTC()))
		}
	}

	query := sel + " FROM gangway_decisions"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	if paginate {
		query += " ORDER BY created_at DESC, id DESC"
		if filter != nil && filter.Limit > 0 {
			query += " LIMIT " + arg(filter.Limit)
			if filter.Offset > 0 {
				query += " OFFSET " + arg(filter.Offset)
			}
		}
	}
	return query, args
}
