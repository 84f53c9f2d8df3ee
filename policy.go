package gangway

import "github.com/shipyard-dev/gangway/docid"

// roleCanMutate is the static policy table mapping a collaboration role to
// the document kinds it may write. The switches are exhaustive over the
// closed Kind enum so that adding a document kind forces this table to be
// revisited instead of silently falling through to a default.
//
// Owner never reaches this table: owner sessions short-circuit before the
// document id is even parsed.
func roleCanMutate(role Role, kind docid.Kind) bool {
	switch role {
	case RoleOwner:
		return true

	case RoleCollaboratorFull:
		switch kind {
		case docid.KindTaskConv, docid.KindTaskReview:
			return true
		case docid.KindTaskMeta, docid.KindRoom, docid.KindUnknown:
			return false
		}
		return false

	case RoleCollaboratorReview:
		switch kind {
		case docid.KindTaskReview:
			return true
		case docid.KindTaskMeta, docid.KindTaskConv, docid.KindRoom, docid.KindUnknown:
			return false
		}
		return false

	case RoleViewer:
		return false
	}

	// Unknown role: fail closed.
	return false
}
