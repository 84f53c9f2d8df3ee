// Package guard is the replication-transport side of the access-control
// engine: a Gate wraps one engine and answers, per inbound sync
// operation, whether the transport may apply and forward it.
//
// A false answer is a hard rejection. The operation must be dropped
// without being merged and without being acknowledged to the sender as
// applied, and any error surfaced to the peer must be generic — never a
// diagnostic that leaks document naming internals.
package guard

import (
	"context"

	"github.com/google/uuid"

	"github.com/shipyard-dev/gangway"
)

// SyncOp is one inbound operation as supplied by the replication
// transport.
type SyncOp struct {
	Document gangway.DocumentRef `json:"document"`
	Peer     gangway.Peer        `json:"peer"`
	Op       gangway.OpKind      `json:"op"`
}

// Gate admits or rejects sync operations for one transport connection.
type Gate struct {
	eng *gangway.Engine

	// anonID substitutes for an empty transport-supplied peer id so
	// audit entries from the same connection group together. It is an
	// audit label only; peer ids never influence decisions.
	anonID string
}

// New creates a Gate over the given engine. One Gate per transport
// connection.
func New(eng *gangway.Engine) *Gate {
	return &Gate{
		eng:    eng,
		anonID: "anon-" + uuid.NewString(),
	}
}

// Admit evaluates one inbound operation.
func (g *Gate) Admit(ctx context.Context, op SyncOp) bool {
	if op.Peer.PeerID == "" {
		op.Peer.PeerID = g.anonID
	}
	return g.eng.Admit(ctx, op.Document, op.Peer, op.Op)
}

// AdmitAll reports whether every operation in the batch is admitted.
// Evaluation stops at the first rejection.
func (g *Gate) AdmitAll(ctx context.Context, ops []SyncOp) bool {
	for _, op := range ops {
		if !g.Admit(ctx, op) {
			return false
		}
	}
	return true
}

// Filter returns the admitted subset of ops, preserving order. Rejected
// operations are dropped silently, matching the transport contract.
func (g *Gate) Filter(ctx context.Context, ops []SyncOp) []SyncOp {
	admitted := make([]SyncOp, 0, len(ops))
	for _, op := range ops {
		if g.Admit(ctx, op) {
			admitted = append(admitted, op)
		}
	}
	return admitted
}
