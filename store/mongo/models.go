package mongo

import (
	"fmt"
	"time"

	"github.com/shipyard-dev/gangway/decisionlog"
	"github.com/shipyard-dev/gangway/id"
	"github.com/shipyard-dev/gangway/share"
)

type grantModel struct {
	ID        string     `bson:"_id"`
	OwnerID   string     `bson:"owner_id"`
	SubjectID string     `bson:"subject_id"`
	TaskID    string     `bson:"task_id"`
	GrantedBy string     `bson:"granted_by"`
	CreatedAt time.Time  `bson:"created_at"`
	RevokedAt *time.Time `bson:"revoked_at"`
}

func grantToModel(g *share.Grant) *grantModel {
	return &grantModel{
		ID:        g.ID.String(),
		OwnerID:   g.OwnerID,
		SubjectID: g.SubjectID,
		TaskID:    g.TaskID,
		GrantedBy: g.GrantedBy,
		CreatedAt: g.CreatedAt.UTC(),
		RevokedAt: g.RevokedAt,
	}
}

func (m *grantModel) toGrant() (*share.Grant, error) {
	grantID, err := id.ParseGrantID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("gangway/mongo: bad grant id %q: %w", m.ID, err)
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

type entryModel struct {
	ID         string    `bson:"_id"`
	SessionID  string    `bson:"session_id"`
	PeerID     string    `bson:"peer_id"`
	Channel    string    `bson:"channel"`
	Op         string    `bson:"op"`
	DocumentID string    `bson:"document_id"`
	Role       string    `bson:"role"`
	Allowed    bool      `bson:"allowed"`
	Decision   string    `bson:"decision"`
	Reason     string    `bson:"reason"`
	EvalTimeNs int64     `bson:"eval_time_ns"`
	CreatedAt  time.Time `bson:"created_at"`
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
		CreatedAt:  e.CreatedAt.UTC(),
	}
}

func (m *entryModel) toEntry() (*decisionlog.Entry, error) {
	entryID, err := id.ParseDecisionID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("gangway/mongo: bad decision id %q: %w", m.ID, err)
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
