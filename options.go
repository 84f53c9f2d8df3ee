package gangway

import (
	"log/slog"

	"github.com/shipyard-dev/gangway/decisionlog"
	"github.com/shipyard-dev/gangway/hook"
)

// Option is a functional option for the Engine.
type Option func(*Engine)

// WithStore sets the decision log store for auditing.
func WithStore(s decisionlog.Store) Option { return func(e *Engine) { e.audit = s } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithConfig sets the engine configuration.
func WithConfig(c Config) Option { return func(e *Engine) { e.config = c } }

// WithRole records the session role on decision log entries. It has no
// effect on decisions — the role used for evaluation lives inside the
// PermissionSet the engine was built with.
func WithRole(r Role) Option { return func(e *Engine) { e.role = r } }

// WithHook registers a lifecycle hook with the engine.
func WithHook(h hook.Hook) Option {
	return func(e *Engine) {
		if e.hooks == nil {
			e.hooks = hook.NewRegistry(e.logger)
		}
		e.hooks.Register(h)
	}
}
