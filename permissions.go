package gangway

import "github.com/shipyard-dev/gangway/docid"

// PermissionSet gates every replicated operation against one document
// store. All four predicates are pure, synchronous, and side-effect-free
// over their inputs plus (for the dual composer) the current contents of
// the shared TaskSet. They never block, never perform I/O, and never fail
// for well-formed inputs: an unparseable document id is not an error, it
// is a deny on every untrusted path.
type PermissionSet interface {
	// Mutability reports whether peer may write doc.
	Mutability(doc DocumentRef, peer Peer) bool

	// Visibility reports whether peer may read doc.
	Visibility(doc DocumentRef, peer Peer) bool

	// Creation reports whether peer may introduce a document named docName.
	Creation(docName string, peer Peer) bool

	// Deletion reports whether peer may delete doc's identity. Always
	// false: removal is a content-level tombstone inside the CRDT.
	Deletion(doc DocumentRef, peer Peer) bool
}

// baseMutability is the single-role write rule shared by the composers.
//
// Decision order matters: the storage channel and the owner role are
// trusted before the document id is parsed, so neither can be locked out
// by naming-scheme drift. Every other path parses first and fails closed.
func baseMutability(role Role, doc DocumentRef, peer Peer) bool {
	if peer.Channel == ChannelStorage {
		return true
	}
	if role == RoleOwner {
		return true
	}

	parsed, err := docid.Parse(doc.ID)
	if err != nil {
		return false
	}
	return roleCanMutate(role, parsed.Kind())
}

// ──────────────────────────────────────────────────
// Single-role composer
// ──────────────────────────────────────────────────

// NewShipyardPermissions builds the standard single-role permission set
// for a session with the given collaboration role.
//
// Reads are a pass-through here: which documents a peer can open at all is
// scoped upstream by room/session membership, so this layer's read gate
// stays permissive and the write gate carries the policy. Read scoping
// only becomes meaningful in NewDualPermissions. Whether the single-role
// pass-through is intentional or merely never needed tightening is an open
// product question; the behavior is load-bearing and must not change here.
func NewShipyardPermissions(role Role) PermissionSet {
	return &shipyardSet{role: role}
}

type shipyardSet struct {
	role Role
}

func (s *shipyardSet) Mutability(doc DocumentRef, peer Peer) bool {
	return baseMutability(s.role, doc, peer)
}

func (s *shipyardSet) Visibility(DocumentRef, Peer) bool { return true }

func (s *shipyardSet) Creation(string, Peer) bool { return true }

func (s *shipyardSet) Deletion(DocumentRef, Peer) bool { return false }

// ──────────────────────────────────────────────────
// Dual-trust composer
// ──────────────────────────────────────────────────

// NewDualPermissions builds a permission set serving one physical document
// store to two trust domains at once: peers on the personal adapter (the
// owner's own daemon or browser) act as full owners for every operation,
// while peers on a collaboration adapter are evaluated under role and
// additionally restricted to the documents whose task key is currently in
// shared.
//
// The engine keeps the caller's shared handle, not a copy. shared is read
// live on every call: sharing one more task takes effect on the next
// permission call with no re-construction. A nil shared behaves as the
// empty set — collab peers see and write nothing.
func NewDualPermissions(role Role, shared *TaskSet) PermissionSet {
	return &dualSet{role: role, shared: shared}
}

type dualSet struct {
	role   Role
	shared *TaskSet
}

func (d *dualSet) sharedContains(taskID string) bool {
	if d.shared == nil {
		return false
	}
	return d.shared.Contains(taskID)
}

func (d *dualSet) Mutability(doc DocumentRef, peer Peer) bool {
	switch peer.Channel {
	case ChannelStorage, ChannelPersonal:
		return true
	case ChannelCollab:
		// Role evaluation AND share scoping, as a conjunction: an
		// allowing role is still forced false when the task is not
		// shared, and an unparseable id has no key to be shared.
		parsed, err := docid.Parse(doc.ID)
		if err != nil {
			return false
		}
		if !d.sharedContains(parsed.Key) {
			return false
		}
		return roleCanMutate(d.role, parsed.Kind())
	case ChannelNetwork, ChannelOther:
		return baseMutability(d.role, doc, peer)
	}
	return false
}

func (d *dualSet) Visibility(doc DocumentRef, peer Peer) bool {
	switch peer.Channel {
	case ChannelStorage, ChannelPersonal:
		return true
	case ChannelCollab:
		parsed, err := docid.Parse(doc.ID)
		if err != nil {
			return false
		}
		return d.sharedContains(parsed.Key)
	case ChannelNetwork, ChannelOther:
		return true
	}
	return false
}

func (d *dualSet) Creation(string, Peer) bool { return true }

func (d *dualSet) Deletion(DocumentRef, Peer) bool { return false }

// ──────────────────────────────────────────────────
// Unscoped collaborator composer
// ──────────────────────────────────────────────────

// NewCollaboratorPermissions builds the maximally permissive set used for
// genuinely open collaboration surfaces: network peers may mutate every
// document kind, including unrecognized prefixes and unparseable ids.
//
// This is a distinct named policy, not a role. Its allowance comes from
// absence of denial (a document kind added later defaults to allowed here),
// whereas an owner's allowance is derived from the role itself. Do not
// substitute one for the other.
func NewCollaboratorPermissions() PermissionSet {
	return &collaboratorSet{}
}

type collaboratorSet struct{}

func (c *collaboratorSet) Mutability(DocumentRef, Peer) bool { return true }

func (c *collaboratorSet) Visibility(DocumentRef, Peer) bool { return true }

func (c *collaboratorSet) Creation(string, Peer) bool { return true }

func (c *collaboratorSet) Deletion(DocumentRef, Peer) bool { return false }
