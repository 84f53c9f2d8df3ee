package gangway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shipyard-dev/gangway/decisionlog"
	"github.com/shipyard-dev/gangway/hook"
	"github.com/shipyard-dev/gangway/id"
)

// Engine wraps a pure PermissionSet with the ambient concerns a deployed
// decision layer carries: decision audit records, lifecycle hooks, and
// structured logging. The decision itself is untouched — Check returns
// exactly what the wrapped PermissionSet returns, and an engine with no
// store, no hooks, and no logging is just a slower way to call it.
type Engine struct {
	perms  PermissionSet
	role   Role
	audit  decisionlog.Store
	hooks  *hook.Registry
	logger *slog.Logger
	config Config
}

// NewEngine creates an instrumented engine around perms.
func NewEngine(perms PermissionSet, opts ...Option) (*Engine, error) {
	if perms == nil {
		return nil, errors.New("gangway: permission set is required")
	}
	e := &Engine{
		perms:  perms,
		logger: slog.Default(),
		config: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Permissions returns the wrapped pure permission set. Transports that
// want zero instrumentation overhead can call it directly.
func (e *Engine) Permissions() PermissionSet { return e.perms }

// Hooks returns the hook registry (may be nil).
func (e *Engine) Hooks() *hook.Registry { return e.hooks }

// Stop performs graceful shutdown, notifying Shutdown hooks.
func (e *Engine) Stop(ctx context.Context) error {
	if e.hooks != nil {
		e.hooks.EmitShutdown(ctx)
	}
	return nil
}

// Check evaluates one inbound sync operation. This is the hot path: one
// call per replicated operation. The returned error is reserved for
// malformed requests; a denied operation is not an error.
func (e *Engine) Check(ctx context.Context, req *CheckRequest) (*CheckResult, error) {
	start := time.Now()

	if e.hooks != nil {
		e.hooks.EmitBeforeCheck(ctx, req)
	}

	allowed, known := e.decide(req)

	result := &CheckResult{
		Allowed:    allowed,
		Decision:   DecisionAllow,
		EvalTimeNs: time.Since(start).Nanoseconds(),
	}
	if !allowed {
		result.Decision = DecisionDeny
		result.Reason = denyReason(req, known)
	}

	e.record(ctx, req, result)

	if e.config.LogDecisions {
		e.logger.Debug("access decision",
			slog.String("op", string(req.Op)),
			slog.String("channel", string(req.Peer.Channel)),
			slog.String("document", req.Document.ID),
			slog.Bool("allowed", allowed),
		)
	}

	if e.hooks != nil {
		e.hooks.EmitAfterCheck(ctx, req, result)
	}

	return result, nil
}

// Enforce returns an error if the check is denied. Unknown operation
// kinds are reported as ErrUnknownOp; they are denied by Check either way.
func (e *Engine) Enforce(ctx context.Context, req *CheckRequest) error {
	switch req.Op {
	case OpMutate, OpRead, OpCreate, OpDelete:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, req.Op)
	}

	result, err := e.Check(ctx, req)
	if err != nil {
		return fmt.Errorf("gangway check: %w", err)
	}
	if !result.Allowed {
		return fmt.Errorf("%w: %s %s", ErrAccessDenied, req.Op, req.Peer.Channel)
	}
	return nil
}

// Admit is a shorthand for a single boolean check.
func (e *Engine) Admit(ctx context.Context, doc DocumentRef, peer Peer, op OpKind) bool {
	result, _ := e.Check(ctx, &CheckRequest{Document: doc, Peer: peer, Op: op})
	return result.Allowed
}

// decide dispatches the operation kind to the matching predicate.
// The second return reports whether the operation kind was recognized;
// unrecognized kinds are denied.
func (e *Engine) decide(req *CheckRequest) (allowed, known bool) {
	switch req.Op {
	case OpMutate:
		return e.perms.Mutability(req.Document, req.Peer), true
	case OpRead:
		return e.perms.Visibility(req.Document, req.Peer), true
	case OpCreate:
		return e.perms.Creation(req.Document.ID, req.Peer), true
	case OpDelete:
		return e.perms.Deletion(req.Document, req.Peer), true
	}
	return false, false
}

// denyReason builds the server-side audit reason. It never reaches the
// denied peer: the transport surfaces denials as generic rejections only.
func denyReason(req *CheckRequest, known bool) string {
	if !known {
		return fmt.Sprintf("unknown operation kind %q", req.Op)
	}
	return fmt.Sprintf("%s denied over %s channel", req.Op, req.Peer.Channel)
}

// record writes a decision log entry when auditing is configured.
// Audit failures never fail the decision; they are logged and dropped.
func (e *Engine) record(ctx context.Context, req *CheckRequest, result *CheckResult) {
	if e.audit == nil || !e.config.Audit {
		return
	}
	if e.config.AuditDeniedOnly && result.Allowed {
		return
	}

	entry := &decisionlog.Entry{
		ID:         id.NewDecisionID(),
		SessionID:  SessionFromContext(ctx),
		PeerID:     req.Peer.PeerID,
		Channel:    string(req.Peer.Channel),
		Op:         string(req.Op),
		DocumentID: req.Document.ID,
		Role:       string(e.role),
		Allowed:    result.Allowed,
		Decision:   string(result.Decision),
		Reason:     result.Reason,
		EvalTimeNs: result.EvalTimeNs,
		CreatedAt:  time.Now().UTC(),
	}
	if err := e.audit.CreateEntry(ctx, entry); err != nil {
		e.logger.Warn("decision audit write failed",
			slog.String("entry", entry.ID.String()),
			slog.String("error", err.Error()),
		)
	}
}
