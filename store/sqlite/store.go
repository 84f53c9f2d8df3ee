// Package sqlite provides a SQLite implementation of the gangway
// composite store via sqlx. This is the deployment reality for owner
// daemons: one embedded file next to the document store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/shipyard-dev/gangway"
	"github.com/shipyard-dev/gangway/decisionlog"
	"github.com/shipyard-dev/gangway/id"
	"github.com/shipyard-dev/gangway/share"
	"github.com/shipyard-dev/gangway/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a SQLite implementation of the composite gangway store.
type Store struct {
	db *sqlx.DB
}

// New creates a new SQLite store around an existing connection.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Open opens (or creates) the SQLite database at path and returns a
// store around it. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite3", path+"?_fk=1&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("gangway/sqlite: open %s: %w", path, err)
	}
	// A single writer; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)
	return &Store{db: db}, nil
}

// Migrate applies all pending schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	return migrate(ctx, s.db)
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// ──────────────────────────────────────────────────
// Share grant store
// ──────────────────────────────────────────────────

func (s *Store) CreateGrant(ctx context.Context, g *share.Grant) error {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.NamedExecContext(ctx, `
INSERT INTO gangway_grants (id, owner_id, subject_id, task_id, granted_by, created_at, revoked_at)
VALUES (:id, :owner_id, :subject_id, :task_id, :granted_by, :created_at, :revoked_at)`,
		grantToRow(g))
	if err != nil {
		return fmt.Errorf("gangway/sqlite: create grant %s: %w", g.ID, err)
	}
	return nil
}

func (s *Store) GetGrant(ctx context.Context, grantID id.GrantID) (*share.Grant, error) {
	var row grantRow
	err := s.db.GetContext(ctx, &row,
		`SELECT * FROM gangway_grants WHERE id = ?`, grantID.String())
	if isNoRows(err) {
		return nil, gangway.ErrGrantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("gangway/sqlite: get grant %s: %w", grantID, err)
	}
	return row.toGrant()
}

func (s *Store) RevokeGrant(ctx context.Context, grantID id.GrantID) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE gangway_grants SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL`,
		time.Now().UTC(), grantID.String())
	if err != nil {
		return fmt.Errorf("gangway/sqlite: revoke grant %s: %w", grantID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("gangway/sqlite: revoke grant %s: %w", grantID, err)
	}
	if n == 0 {
		// Either missing or already revoked; distinguish for the caller.
		if _, getErr := s.GetGrant(ctx, grantID); getErr != nil {
			return getErr
		}
		return gangway.ErrGrantRevoked
	}
	return nil
}

func (s *Store) ListGrants(ctx context.Context, filter *share.ListFilter) ([]*share.Grant, error) {
	query, args := buildGrantQuery("SELECT *", filter, true)

	var rows []grantRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("gangway/sqlite: list grants: %w", err)
	}

	grants := make([]*share.Grant, 0, len(rows))
	for i := range rows {
		g, err := rows[i].toGrant()
		if err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, nil
}

func (s *Store) CountGrants(ctx context.Context, filter *share.ListFilter) (int64, error) {
	query, args := buildGrantQuery("SELECT COUNT(*)", filter, false)

	var n int64
	if err := s.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("gangway/sqlite: count grants: %w", err)
	}
	return n, nil
}

func (s *Store) ListActiveTaskIDs(ctx context.Context, ownerID, subjectID string) ([]string, error) {
	var taskIDs []string
	err := s.db.SelectContext(ctx, &taskIDs, `
SELECT DISTINCT task_id FROM gangway_grants
WHERE owner_id = ? AND subject_id = ? AND revoked_at IS NULL
ORDER BY task_id`, ownerID, subjectID)
	if err != nil {
		return nil, fmt.Errorf("gangway/sqlite: list active task ids: %w", err)
	}
	return taskIDs, nil
}

func buildGrantQuery(sel string, filter *share.ListFilter, paginate bool) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter != nil {
		if filter.OwnerID != "" {
			conds = append(conds, "owner_id = ?")
			args = append(args, filter.OwnerID)
		}
		if filter.SubjectID != "" {
			conds = append(conds, "subject_id = ?")
			args = append(args, filter.SubjectID)
		}
		if filter.TaskID != "" {
			conds = append(conds, "task_id = ?")
			args = append(args, filter.TaskID)
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
			query += fmt.Sprintf(" LIMIT %d", filter.Limit)
			if filter.Offset > 0 {
				query += fmt.Sprintf(" OFFSET %d", filter.Offset)
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
	_, err := s.db.NamedExecContext(ctx, `
INSERT INTO gangway_decisions
  (id, session_id, peer_id, channel, op, document_id, role, allowed, decision, reason, eval_time_ns, created_at)
VALUES
  (:id, :session_id, :peer_id, :channel, :op, :document_id, :role, :allowed, :decision, :reason, :eval_time_ns, :created_at)`,
		entryToRow(e))
	if err != nil {
		return fmt.Errorf("gangway/sqlite: create decision entry %s: %w", e.ID, err)
	}
	return nil
}

func (s *Store) GetEntry(ctx context.Context, entryID id.DecisionID) (*decisionlog.Entry, error) {
	var row entryRow
	err := s.db.GetContext(ctx, &row,
		`SELECT * FROM gangway_decisions WHERE id = ?`, entryID.String())
	if isNoRows(err) {
		return nil, gangway.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("gangway/sqlite: get decision entry %s: %w", entryID, err)
	}
	return row.toEntry()
}

func (s *Store) ListEntries(ctx context.Context, filter *decisionlog.QueryFilter) ([]*decisionlog.Entry, error) {
	query, args := buildEntryQuery("SELECT *", filter, true)

	var rows []entryRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("gangway/sqlite: list decision entries: %w", err)
	}

	entries := make([]*decisionlog.Entry, 0, len(rows))
	for i := range rows {
		e, err := rows[i].toEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *Store) CountEntries(ctx context.Context, filter *decisionlog.QueryFilter) (int64, error) {
	query, args := buildEntryQuery("SELECT COUNT(*)", filter, false)

	var n int64
	if err := s.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("gangway/sqlite: count decision entries: %w", err)
	}
	return n, nil
}

func (s *Store) PurgeEntries(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM gangway_decisions WHERE created_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("gangway/sqlite: purge decision entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("gangway/sqlite: purge decision entries: %w", err)
	}
	return n, nil
}

func buildEntryQuery(sel string, filter *decisionlog.QueryFilter, paginate bool) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter != nil {
		if filter.SessionID != "" {
			conds = append(conds, "session_id = ?")
			args = append(args, filter.SessionID)
		}
		if filter.PeerID != "" {
			conds = append(conds, "peer_id = ?")
			args = append(args, filter.PeerID)
		}
		if filter.Channel != "" {
			conds = append(conds, "channel = ?")
			args = append(args, filter.Channel)
		}
		if filter.Op != "" {
			conds = append(conds, "op = ?")
			args = append(args, filter.Op)
		}
		if filter.DocumentID != "" {
			conds = append(conds, "document_id = ?")
			args = append(args, filter.DocumentID)
		}
		if filter.Allowed != nil {
			conds = append(conds, "allowed = ?")
			args = append(args, *filter.Allowed)
		}
		if filter.After != nil {
			conds = append(conds, "created_at > ?")
			args = append(args, filter.After.UTC())
		}
		if filter.Before != nil {
			conds = append(conds, "created_at < ?")
			args = append(args, filter.Before.UTC())
		}
	}

	query := sel + " FROM gangway_decisions"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	if paginate {
		query += " ORDER BY created_at DESC, id DESC"
		if filter != nil && filter.Limit > 0 {
			query += fmt.Sprintf(" LIMIT %d", filter.Limit)
			if filter.Offset > 0 {
				query += fmt.Sprintf(" OFFSET %d", filter.Offset)
			}
		}
	}
	return query, args
}
