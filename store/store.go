// Package store defines the aggregate persistence interface. Each
// subsystem (share, decisionlog) defines its own store interface; the
// composite Store composes them. Backends: Memory, SQLite, Postgres,
// Mongo, and Badger.
package store

import (
	"context"

	"github.com/shipyard-dev/gangway/decisionlog"
	"github.com/shipyard-dev/gangway/share"
)

// Store is the aggregate persistence interface. A single backend
// implements all subsystem stores.
type Store interface {
	share.Store
	decisionlog.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
