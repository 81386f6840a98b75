package model

import "github.com/cockroachdb/errors"

// Error taxonomy (spec.md §7). Configuration and data-integrity errors are
// sentinels checked with errors.Is at call boundaries. Infeasibility is not
// an error — it is reported in the result. Cancellation is returned as
// ErrCancelled, with no result.
var (
	// ErrConfigInvalid marks a configuration error: malformed weighting,
	// non-monotone breakpoints, k <= 0, empty category set. Fatal, reported
	// before any work begins.
	ErrConfigInvalid = errors.New("configuration invalid")

	// ErrDataIntegrity marks a residential or candidate referencing an
	// absent or unsnapped node. Fatal, caught during Allocator preparation.
	ErrDataIntegrity = errors.New("data integrity violation")

	// ErrEmptyCandidateSet marks a fatal Allocator precondition: no
	// candidate sites at all.
	ErrEmptyCandidateSet = errors.New("empty candidate set")

	// ErrUnknownCategory marks a category referenced by the optimization
	// request with no entry in the weighting table.
	ErrUnknownCategory = errors.New("category has no weighting table entry")

	// ErrCancelled marks cooperative cancellation. No partial results are
	// emitted when this is returned.
	ErrCancelled = errors.New("optimization cancelled")
)

// InvariantViolation panics on an internal invariant failure (e.g. the
// running average regressing below a previous commit). These are never
// swallowed — spec.md §7 requires they terminate the run as a fatal
// diagnostic, not be converted into a returned error.
func InvariantViolation(format string, args ...any) {
	panic(errors.Newf("invariant violation: "+format, args...))
}
