package batch

// Handle identifies a drawable added to a Batch. Handles are small value
// types, cheap to copy and compare. A handle goes stale when its drawable
// is removed or its domain is destroyed; stale handles are detected by a
// generation check and reported as ErrStaleHandle, never reused silently.
//
// The zero Handle is never valid.
type Handle struct {
	domain uint32
	slot   uint32
	gen    uint32
}

// Valid reports whether h could have been produced by Add. It does not
// check staleness; a valid-looking handle may still be rejected with
// ErrStaleHandle by the batch that issued it.
func (h Handle) Valid() bool { return h.domain != 0 }
