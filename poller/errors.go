package poller

import "errors"

var (
	ErrAlreadyMounted = errors.New("scheduler already polling")
	ErrCycleInFlight  = errors.New("poll cycle already in flight")
	// ErrStopped is returned by PollOnce after ClearAll or Unmount.
	ErrStopped = errors.New("scheduler stopped, reload to poll again")
	// ErrStaleResult is returned by a cycle whose results arrived after an
	// unmount or clear. Nothing was applied.
	ErrStaleResult = errors.New("stale poll result dropped")
	// ErrResetFailed means a batch was merged but the external buffer could
	// not be cleared. The same events will be counted again on the next poll.
	ErrResetFailed = errors.New("external buffer reset failed")
)
