// Package hook defines the lifecycle hook system for gangway.
// Hooks are notified of engine events (check performed, grant created,
// grant revoked) and can react — audit mirroring, metrics, tracing.
//
// Each lifecycle event is a separate interface so hooks opt in only to
// the events they care about.
package hook

import (
	"context"

	"github.com/shipyard-dev/gangway/id"
	"github.com/shipyard-dev/gangway/share"
)

// Hook is the base interface all hooks must implement.
type Hook interface {
	// Name returns a unique human-readable name for the hook.
	Name() string
}

// BeforeCheck is called before an access check is evaluated.
// The req parameter is *gangway.CheckRequest (passed as any to avoid an
// import cycle).
type BeforeCheck interface {
	OnBeforeCheck(ctx context.Context, req any) error
}

// AfterCheck is called after an access check completes.
// The req parameter is *gangway.CheckRequest; result is
// *gangway.CheckResult.
type AfterCheck interface {
	OnAfterCheck(ctx context.Context, req, result any) error
}

// GrantCreated is called after a share grant is created.
type GrantCreated interface {
	OnGrantCreated(ctx context.Context, g *share.Grant) error
}

// GrantRevoked is called after a share grant is revoked.
type GrantRevoked interface {
	OnGrantRevoked(ctx context.Context, grantID id.GrantID) error
}

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
