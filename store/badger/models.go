package badger

import (
	"fmt"
	"time"

	"github.com/shipyard-dev/gangway/decisionlog"
	"github.com/shipyard-dev/gangway/id"
	"github.com/shipyard-dev/gangway/share"
)

// grantModel is the CBOR persistence shape of a share grant. IDs are
// stored as strings so the encoding stays independent of the TypeID
// internals.
type grantModel struct {
	ID        string     `cbor:"id"`
	OwnerID   string     `cbor:"owner_id"`
	SubjectID string     `cbor:"subject_id"`
	TaskID    string     `cbor:"task_id"`
	GrantedBy string     `cbor:"granted_by"`
	CreatedAt time.Time  `cbor:"created_at"`
	RevokedAt *time.Time `cbor:"revoked_at,omitempty"`
}

func grantToModel(g *share.Grant) *grantModel {
	return &grantModel{
		ID:        g.ID.String(),
		OwnerID:   g.OwnerID,
		SubjectID: g.SubjectID,
		TaskID:    g.TaskID,
		GrantedBy: g.GrantedBy,
		CreatedAt: g.CreatedAt,
		RevokedAt: g.RevokedAt,
	}
}

func (m *grantModel) toGrant() (*share.Grant, error) {
	grantID, err := id.ParseGrantID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse grant id %q: %w", m.ID, err)
	}
	return &share.Grant{
		ID:        grantID,
		OwnerID:   m.OwnerID,
		SubjectID: m.SubjectID,
		TaskID:    m.TaskID,
		GrantedBy: m.GrantedBy,
		CreatedAt: m.CreatedAt,
		RevokedAt: m.RevokedAt,
	}, nil
}

// entryModel is the CBOR persistence shape of a decision log entry.
type entryModel struct {
	ID         string    `cbor:"id"`
	SessionID  string    `cbor:"session_id,omitempty"`
	PeerID     string    `cbor:"peer_id"`
	Channel    string    `cbor:"channel"`
	Op         string    `cbor:"op"`
	DocumentID string    `cbor:"document_id"`
	Role       string    `cbor:"role"`
	Allowed    bool      `cbor:"allowed"`
	Decision   string    `cbor:"decision"`
	Reason     string    `cbor:"reason,omitempty"`
	EvalTimeNs int64     `cbor:"eval_time_ns"`
	CreatedAt  time.Time `cbor:"created_at"`
}

func entryToModel(e *decisionlog.Entry) *entryModel {
	return &entryModel{
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
		CreatedAt:  e.CreatedAt,
	}
}

func (m *entryModel) toEntry() (*decisionlog.Entry, error) {
	entryID, err := id.ParseDecisionID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse decision id %q: %w", m.ID, err)
	}
	return &decisionlog.Entry{
		ID:         entryID,
		SessionID:  m.SessionID,
		PeerID:     m.PeerID,
		Channel:    m.Channel,
		Op:         m.Op,
		DocumentID: m.DocumentID,
		Role:       m.Role,
		Allowed:    m.Allowed,
		Decision:   m.Decision,
		Reason:     m.Reason,
		EvalTimeNs: m.EvalTimeNs,
		CreatedAt:  m.CreatedAt,
	}, nil
}
