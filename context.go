package gangway

import "context"

type contextKey int

const ctxKeySessionID contextKey = iota

// WithSession returns a context carrying the logical session id the
// current sync connection belongs to. Decision log entries written while
// this context is active are tagged with it.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ctxKeySessionID, sessionID)
}

// SessionFromContext returns the session id set by WithSession, or "".
func SessionFromContext(ctx context.Context) string {
	v, ok := ctx.Value(ctxKeySessionID).(string)
	if !ok {
		return ""
	}
	return v
}
