package services

import "errors"

var (
	// ErrAlreadyAwarded means the ledger's uniqueness constraint absorbed a
	// duplicate insert. The automatic sweep treats it as a successful no-op.
	ErrAlreadyAwarded = errors.New("trophy already awarded")

	// ErrManualGrantConflict is the admin-visible form of a duplicate grant:
	// unlike the sweep no-op it is surfaced, since it usually means the
	// administrator picked the wrong participant or trophy.
	ErrManualGrantConflict = errors.New("participant already holds this trophy")

	// ErrTrophyMisconfigured marks a catalog entry that cannot be evaluated
	// (unknown condition type, non-positive threshold, missing window). The
	// entry is excluded and logged; it never fails a whole pass.
	ErrTrophyMisconfigured = errors.New("trophy definition misconfigured")

	ErrTrophyNotFound      = errors.New("trophy definition not found")
	ErrParticipantNotFound = errors.New("participant not found")
)
