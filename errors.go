package gangway

import "errors"

var (
	// ErrAccessDenied is returned by Enforce when a check is denied.
	ErrAccessDenied = errors.New("gangway: access denied")

	// ErrGrantNotFound is returned when a share grant cannot be found.
	ErrGrantNotFound = errors.New("gangway: grant not found")

	// ErrGrantRevoked is returned when revoking an already-revoked grant.
	ErrGrantRevoked = errors.New("gangway: grant already revoked")

	// ErrEntryNotFound is returned when a decision log entry cannot be found.
	ErrEntryNotFound = errors.New("gangway: decision log entry not found")

	// ErrUnknownOp is returned by Enforce when a check request carries an
	// operation kind the engine does not recognize. The check itself
	// denies unknown operations before this error is surfaced.
	ErrUnknownOp = errors.New("gangway: unknown operation kind")
)
