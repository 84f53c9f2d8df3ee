// Package docid encodes and decodes Shipyard document identities.
//
// A document identity is "{prefix}:{key}:{epoch}": a kind prefix naming
// what the document is (task metadata, conversation, review, room), a
// resource key (usually a task id), and an epoch — a generation counter
// bumped to invalidate an old document lineage after a breaking change
// without ever reusing the same identity.
//
// Parsing fails closed: anything that is not exactly three non-empty
// colon-delimited segments with a bare positive decimal epoch is
// malformed, and malformed identities deny access on every untrusted
// path of the permission engine.
package docid

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformed is returned when a string is not a valid document identity.
var ErrMalformed = errors.New("docid: malformed document id")

// Kind is the closed set of document kinds the policy tables dispatch on.
// Adding a kind here forces every exhaustive switch over Kind to be
// revisited; an unrecognized prefix maps to KindUnknown, which denies for
// every non-owner role.
type Kind int

const (
	// KindUnknown is any prefix not recognized below.
	KindUnknown Kind = iota

	// KindTaskMeta is task metadata: status, ownership, approval state.
	// Mutable only by the owner — metadata must not be forgeable by
	// collaborators.
	KindTaskMeta

	// KindTaskConv is a task's conversation document.
	KindTaskConv

	// KindTaskReview is a task's review document.
	KindTaskReview

	// KindRoom is a collaboration room document.
	KindRoom
)

// Recognized prefix spellings.
const (
	PrefixTaskMeta   = "task-meta"
	PrefixTaskConv   = "task-conv"
	PrefixTaskReview = "task-review"
	PrefixRoom       = "room"
)

// KindOf maps a prefix string to its Kind.
func KindOf(prefix string) Kind {
	switch prefix {
	case PrefixTaskMeta:
		return KindTaskMeta
	case PrefixTaskConv:
		return KindTaskConv
	case PrefixTaskReview:
		return KindTaskReview
	case PrefixRoom:
		return KindRoom
	default:
		return KindUnknown
	}
}

// String returns the canonical prefix spelling for recognized kinds and
// "unknown" otherwise.
func (k Kind) String() string {
	switch k {
	case KindTaskMeta:
		return PrefixTaskMeta
	case KindTaskConv:
		return PrefixTaskConv
	case KindTaskReview:
		return PrefixTaskReview
	case KindRoom:
		return PrefixRoom
	case KindUnknown:
		return "unknown"
	default:
		return "unknown"
	}
}

// DocID is a parsed document identity.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type DocID struct {
	Prefix string
	Key    string
	Epoch  int64
}

// Format encodes a document identity. The caller is responsible for
// keeping prefix and key colon-free; epoch is formatted as a decimal
// integer. Format performs no validation.
func Format(prefix, key string, epoch int64) string {
	return prefix + ":" + key + ":" + strconv.FormatInt(epoch, 10)
}

// Parse decodes a document identity string. It succeeds only when the
// input has exactly three non-empty colon-delimited segments and the
// last is a positive decimal integer with no sign and no extraneous
// characters. Everything else returns ErrMalformed.
func Parse(s string) (DocID, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return DocID{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	if parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return DocID{}, fmt.Errorf("%w: %q: empty segment", ErrMalformed, s)
	}

	// ParseUint rejects signs and non-digits; epoch zero is rejected
	// explicitly. Generation counters start at one.
	epoch, err := strconv.ParseUint(parts[2], 10, 63)
	if err != nil || epoch == 0 {
		return DocID{}, fmt.Errorf("%w: %q: bad epoch", ErrMalformed, s)
	}

	return DocID{Prefix: parts[0], Key: parts[1], Epoch: int64(epoch)}, nil
}

// MustParse is like Parse but panics on error. Use for hardcoded values.
func MustParse(s string) DocID {
	d, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("docid: must parse %q: %v", s, err))
	}
	return d
}

// Kind returns the document kind for this identity's prefix.
func (d DocID) Kind() Kind { return KindOf(d.Prefix) }

// IsZero reports whether this is the zero DocID.
func (d DocID) IsZero() bool {
	return d.Prefix == "" && d.Key == "" && d.Epoch == 0
}

// String re-encodes the identity in canonical form.
func (d DocID) String() string {
	return Format(d.Prefix, d.Key, d.Epoch)
}

// MarshalText implements encoding.TextMarshaler.
func (d DocID) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DocID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*d = DocID{}
		return nil
	}
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer for database storage.
// Returns nil for the zero DocID so optional columns store NULL.
func (d DocID) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil //nolint:nilnil // nil is the canonical NULL for driver.Valuer
	}
	return d.String(), nil
}

// Scan implements sql.Scanner for database retrieval.
func (d *DocID) Scan(src any) error {
	if src == nil {
		*d = DocID{}
		return nil
	}
	switch v := src.(type) {
	case string:
		if v == "" {
			*d = DocID{}
			return nil
		}
		return d.UnmarshalText([]byte(v))
	case []byte:
		if len(v) == 0 {
			*d = DocID{}
			return nil
		}
		return d.UnmarshalText(v)
	default:
		return fmt.Errorf("docid: cannot scan %T into DocID", src)
	}
}
