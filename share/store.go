package share

import (
	"context"

	"github.com/shipyard-dev/gangway/id"
)

// Store defines persistence operations for share grants.
type Store interface {
	// CreateGrant persists a new grant.
	CreateGrant(ctx context.Context, g *Grant) error

	// GetGrant retrieves a grant by ID.
	GetGrant(ctx context.Context, grantID id.GrantID) (*Grant, error)

	// RevokeGrant marks a grant revoked. Revoking an already-revoked
	// grant is an error.
	RevokeGrant(ctx context.Context, grantID id.GrantID) error

	// ListGrants returns grants matching the filter.
	ListGrants(ctx context.Context, filter *ListFilter) ([]*Grant, error)

	// CountGrants returns the number of grants matching the filter.
	CountGrants(ctx context.Context, filter *ListFilter) (int64, error)

	// ListActiveTaskIDs returns the task ids of all active grants from
	// ownerID to subjectID.
	ListActiveTaskIDs(ctx context.Context, ownerID, subjectID string) ([]string, error)
}
