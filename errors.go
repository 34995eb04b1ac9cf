package batch

import "errors"

// Errors returned by Batch operations. All mutation operations are atomic:
// when one of these is returned, the batch is in the exact state it was in
// before the call.
var (
	// ErrCycle is returned by Reparent when the new parent is the group
	// itself or one of its descendants. The forest is left unchanged.
	ErrCycle = errors.New("batch: reparent would create a cycle")

	// ErrUnknownGroup is returned when a GroupID does not name a live group.
	ErrUnknownGroup = errors.New("batch: unknown or destroyed group")

	// ErrRootGroup is returned by operations that may not target the
	// implicit root group (destroy, reparent, reorder).
	ErrRootGroup = errors.New("batch: operation not permitted on the root group")

	// ErrStaleHandle is returned when a handle refers to a drawable that
	// was removed, or to a domain that no longer exists. The handle should
	// be dropped by the caller.
	ErrStaleHandle = errors.New("batch: stale drawable handle")

	// ErrEmptyData is returned by Add when no vertex data is supplied.
	ErrEmptyData = errors.New("batch: vertex data must not be empty")

	// ErrBadLength is returned when vertex data length is not a multiple
	// of the render state's vertex stride.
	ErrBadLength = errors.New("batch: vertex data length not a multiple of the vertex stride")

	// ErrSizeMismatch is returned by Update when the new data does not
	// match the drawable's registered length.
	ErrSizeMismatch = errors.New("batch: vertex data length mismatch")

	// ErrZeroLength is returned by store reservations of zero or negative
	// length.
	ErrZeroLength = errors.New("batch: zero-length reservation")

	// ErrCapacity wraps backend allocation failures: the vertex store
	// could not grow. Prior state is unchanged, no partial writes occur.
	ErrCapacity = errors.New("batch: vertex store cannot grow")

	// ErrCorruption indicates a release of a vertex range the store does
	// not own. It signals a broken invariant (a caller or handle bug), not
	// a condition expected in correct operation.
	ErrCorruption = errors.New("batch: release of unowned vertex range")
)
