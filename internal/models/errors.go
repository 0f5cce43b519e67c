package models

import "errors"

// Error taxonomy for the planner. NotReachable and NoBoardingCandidate are
// recoverable conditions the caller handles by falling back or returning an
// empty result; InvalidInput is a programmer/caller error surfaced as a
// typed failure; DataConsistency never aborts a query, it only marks the
// affected hop as unknown.
var (
	// ErrNotReachable means the destination has no path from any boarding
	// candidate under the current forbidden-line set.
	ErrNotReachable = errors.New("destination not reachable")

	// ErrNoBoardingCandidate means no boarding stop could be resolved for
	// the origin. The Planner already falls back to the nearest stop when
	// none is within the walking threshold, so this is returned only when
	// the network has no stops at all.
	ErrNoBoardingCandidate = errors.New("no boarding candidate within walking threshold")

	// ErrInvalidInput means the request itself is malformed: coordinates
	// outside the service area, an unknown stop id, or a negative walk
	// time.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDataConsistency flags a referenced line or stop missing from the
	// tables, or a trimmed segment whose stops are not adjacent in the
	// line. Callers degrade gracefully rather than aborting.
	ErrDataConsistency = errors.New("data consistency error")
)
