// Package share defines the Grant entity: one task shared by an owner
// with one collaborator.
//
// Grants are the durable record behind the live TaskSet the dual
// permission composer consults. The permission engine itself never reads
// a grant store — the session layer materializes active grants into a
// TaskSet handle at engine construction and keeps that handle in sync as
// grants are created and revoked.
package share

import (
	"time"

	"github.com/shipyard-dev/gangway/id"
)

// Grant records that an owner shared one task with one collaborator.
// Revocation is soft: a revoked grant stays in the store with RevokedAt
// set, so share history survives for auditing.
type Grant struct {
	ID        id.GrantID `json:"id" db:"id"`
	OwnerID   string     `json:"owner_id" db:"owner_id"`
	SubjectID string     `json:"subject_id" db:"subject_id"`
	TaskID    string     `json:"task_id" db:"task_id"`
	GrantedBy string     `json:"granted_by,omitempty" db:"granted_by"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
}

// Active reports whether the grant has not been revoked.
func (g *Grant) Active() bool { return g.RevokedAt == nil }

// ListFilter contains filters for listing grants.
type ListFilter struct {
	OwnerID        string `json:"owner_id,omitempty"`
	SubjectID      string `json:"subject_id,omitempty"`
	TaskID         string `json:"task_id,omitempty"`
	IncludeRevoked bool   `json:"include_revoked,omitempty"`
	Limit          int    `json:"limit,omitempty"`
	Offset         int    `json:"offset,omitempty"`
}
