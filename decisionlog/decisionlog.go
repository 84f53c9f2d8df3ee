// Package decisionlog defines the decision audit Entry entity.
//
// Every instrumented engine check can be recorded as one entry: which
// peer attempted which operation on which document, under which session
// role, and what the engine decided. Entries are written server-side
// only; peers never see them — a denied operation surfaces upstream as a
// generic rejection.
package decisionlog

import (
	"time"

	"github.com/shipyard-dev/gangway/id"
)

// Entry is a single access decision audit record.
type Entry struct {
	ID         id.DecisionID `json:"id" db:"id"`
	SessionID  string        `json:"session_id,omitempty" db:"session_id"`
	PeerID     string        `json:"peer_id" db:"peer_id"`
	Channel    string        `json:"channel" db:"channel"`
	Op         string        `json:"op" db:"op"`
	DocumentID string        `json:"document_id" db:"document_id"`
	Role       string        `json:"role,omitempty" db:"role"`
	Allowed    bool          `json:"allowed" db:"allowed"`
	Decision   string        `json:"decision" db:"decision"`
	Reason     string        `json:"reason,omitempty" db:"reason"`
	EvalTimeNs int64         `json:"eval_time_ns" db:"eval_time_ns"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
}

// QueryFilter contains filters for querying decision log entries.
type QueryFilter struct {
	SessionID  string     `json:"session_id,omitempty"`
	PeerID     string     `json:"peer_id,omitempty"`
	Channel    string     `json:"channel,omitempty"`
	Op         string     `json:"op,omitempty"`
	DocumentID string     `json:"document_id,omitempty"`
	Allowed    *bool      `json:"allowed,omitempty"`
	After      *time.Time `json:"after,omitempty"`
	Before     *time.Time `json:"before,omitempty"`
	Limit      int        `json:"limit,omitempty"`
	Offset     int        `json:"offset,omitempty"`
}
