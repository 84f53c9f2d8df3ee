package decisionlog

import (
	"context"
	"time"

	"github.com/shipyard-dev/gangway/id"
)

// Store defines persistence operations for decision audit logs.
type Store interface {
	// CreateEntry persists a new decision log entry.
	CreateEntry(ctx context.Context, e *Entry) error

	// GetEntry retrieves a decision log entry by ID.
	GetEntry(ctx context.Context, entryID id.DecisionID) (*Entry, error)

	// ListEntries returns decision log entries matching the filter,
	// newest first.
	ListEntries(ctx context.Context, filter *QueryFilter) ([]*Entry, error)

	// CountEntries returns the number of entries matching the filter.
	CountEntries(ctx context.Context, filter *QueryFilter) (int64, error)

	// PurgeEntries removes entries older than the given time and returns
	// how many were removed.
	PurgeEntries(ctx context.Context, before time.Time) (int64, error)
}
