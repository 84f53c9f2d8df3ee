package sqlite

import (
	"fmt"
	"time"

	"github.com/shipyard-dev/gangway/decisionlog"
	"github.com/shipyard-dev/gangway/id"
	"github.com/shipyard-dev/gangway/share"
)

type grantRow struct {
	ID        string     `db:"id"`
	OwnerID   string     `db:"owner_id"`
	SubjectID string     `db:"subject_id"`
	TaskID    string     `db:"task_id"`
	GrantedBy string     `db:"granted_by"`
	CreatedAt time.Time  `db:"created_at"`
	RevokedAt *time.Time `db:"revoked_at"`
}

func grantToRow(g *share.Grant) *grantRow {
	return &grantRow{
		ID:        g.ID.String(),
		OwnerID:   g.OwnerID,
		SubjectID: g.SubjectID,
		TaskID:    g.TaskID,
		GrantedBy: g.GrantedBy,
		CreatedAt: g.CreatedAt.UTC(),
		RevokedAt: g.RevokedAt,
	}
}

func (r *grantRow) toGrant() (*share.Grant, error) {
	grantID, err := id.ParseGrantID(r.ID)
	if err != nil {
		return nil, fmt.Errorf("gangway/sqlite: bad grant id %q: %w", r.ID, err)
	}
	return &share.Grant{
		ID:        grantID,
		OwnerID:   r.OwnerID,
		SubjectID: r.SubjectID,
		TaskID:    r.TaskID,
		GrantedBy: r.GrantedBy,
		CreatedAt: r.CreatedAt,
		RevokedAt: r.RevokedAt,
	}, nil
}

type entryRow struct {
	ID         string    `db:"id"`
	SessionID  string    `db:"session_id"`
	PeerID     string    `db:"peer_id"`
	Channel    string    `db:"channel"`
	Op         string    `db:"op"`
	DocumentID string    `db:"document_id"`
	Role       string    `db:"role"`
	Allowed    bool      `db:"allowed"`
	Decision   string    `db:"decision"`
	Reason     string    `db:"reason"`
	EvalTimeNs int64     `db:"eval_time_ns"`
	CreatedAt  time.Time `db:"created_at"`
}

func entryToRow(e *decisionlog.Entry) *entryRow {
	return &entryRow{
		ID:         e.ID.String(),
		SessionID:  e.SessionID,
		PeerID:     e.PeerID,
		Channel:    e.Channel,
		Op:         e.Op,
		DocumentID: e.DocumentID,
		Role:       e.Role,
		Allowed:    e.Allowed,
		Decision:   e.Decision,
		Reason:     e.Reason,
		EvalTimeNs: e.EvalTimeNs,
		CreatedAt:  e.CreatedAt.UTC(),
	}
}

func (r *entryRow) toEntry() (*decisionlog.Entry, error) {
	entryID, err := id.ParseDecisionID(r.ID)
	if err != nil {
		return nil, fmt.Errorf("gangway/sqlite: bad decision id %q: %w", r.ID, err)
	}
	return &decisionlog.Entry{
		ID:         entryID,
		SessionID:  r.SessionID,
		PeerID:     r.PeerID,
		Channel:    r.Channel,
		Op:         r.Op,
		DocumentID: r.DocumentID,
		Role:       r.Role,
		Allowed:    r.Allowed,
		Decision:   r.Decision,
		Reason:     r.Reason,
		EvalTimeNs: r.EvalTimeNs,
		CreatedAt:  r.CreatedAt,
	}, nil
}
