// Package gangway is the document access-control engine for the Shipyard
// collaborative platform.
//
// Every read, write, create, and delete a peer attempts against a shared,
// epoch-versioned document store passes through a gangway PermissionSet
// before the replication layer applies or forwards it. The decision layer
// is pure: it combines the document's identity, the peer's trust channel,
// the session role, and an optional live set of shared task ids into a
// single boolean per operation.
//
//	perms := gangway.NewDualPermissions(gangway.RoleCollaboratorFull, shared)
//	eng, err := gangway.NewEngine(perms,
//	    gangway.WithStore(memStore),
//	)
//	result, err := eng.Check(ctx, &gangway.CheckRequest{
//	    Document: gangway.DocumentRef{ID: "task-conv:t1:2"},
//	    Peer:     gangway.Peer{PeerID: "p1", Channel: gangway.ChannelCollab},
//	    Op:       gangway.OpMutate,
//	})
package gangway

// ChannelKind classifies how a peer connected. It is assigned by the
// transport layer from the connection itself (local storage replay, an
// authenticated socket, the owner's own adapter, a collaboration invite)
// and is the sole trust anchor for every decision.
type ChannelKind string

const (
	// ChannelStorage is the durable storage backend replaying its own
	// state. Always trusted.
	ChannelStorage ChannelKind = "storage"

	// ChannelNetwork is an authenticated network peer.
	ChannelNetwork ChannelKind = "network"

	// ChannelPersonal is the document owner's own daemon or browser,
	// connected through the personal adapter.
	ChannelPersonal ChannelKind = "personal-adapter"

	// ChannelCollab is an invited collaborator's connection, established
	// through a collaboration adapter.
	ChannelCollab ChannelKind = "collab-adapter"

	// ChannelOther is an unclassified connection.
	ChannelOther ChannelKind = "other"
)

// Peer describes a connecting peer. PeerID is an opaque identifier that
// carries no trust weight by itself: it is never validated here and must
// never be compared as an authorization key. Only Channel matters.
type Peer struct {
	PeerID  string      `json:"peer_id"`
	Channel ChannelKind `json:"channel"`
}

// DocumentRef is the transport-supplied reference to one replicated
// document. ID is the raw identity string; parsing it is the engine's
// responsibility and an unparseable ID is a valid, permission-denying
// state for untrusted paths.
type DocumentRef struct {
	ID string `json:"id"`
}

// Role is the collaboration role assigned to a session when the document
// store is opened. It is fixed per engine instance, not per message.
type Role string

const (
	// RoleOwner is the document owner's own session. Owners are the
	// authoritative writer for all of their documents.
	RoleOwner Role = "owner"

	// RoleCollaboratorFull may write conversation and review documents.
	RoleCollaboratorFull Role = "collaborator-full"

	// RoleCollaboratorReview may write review documents only.
	RoleCollaboratorReview Role = "collaborator-review"

	// RoleViewer may never write.
	RoleViewer Role = "viewer"
)

// OpKind identifies which gate an inbound sync operation must pass.
type OpKind string

const (
	// OpMutate is a write to an existing document.
	OpMutate OpKind = "mutate"

	// OpRead is a read/open of a document.
	OpRead OpKind = "read"

	// OpCreate introduces a new document identity.
	OpCreate OpKind = "create"

	// OpDelete removes a document identity. Always denied: removal is
	// modeled as a content-level tombstone inside the CRDT.
	OpDelete OpKind = "delete"
)

// CheckRequest is the input to an instrumented engine check: one inbound
// sync operation as supplied by the replication transport.
type CheckRequest struct {
	Document DocumentRef `json:"document"`
	Peer     Peer        `json:"peer"`
	Op       OpKind      `json:"op"`
}

// CheckResult is the outcome of an engine check.
type CheckResult struct {
	Allowed    bool     `json:"allowed"`
	Decision   Decision `json:"decision"`
	Reason     string   `json:"reason,omitempty"`
	EvalTimeNs int64    `json:"eval_time_ns"`
}

// Decision is the authorization outcome.
type Decision string

const (
	// DecisionAllow means the operation is permitted.
	DecisionAllow Decision = "allow"

	// DecisionDeny means the operation is rejected. The transport must
	// drop it without acknowledging it as applied, and must surface it
	// to the sender only as a generic rejection — never with document
	// naming diagnostics.
	DecisionDeny Decision = "deny"
)
