package poolcore

import "context"

// handle pool
type Pool interface {
	// Acquire gets a Handle from the pool, creating one if necessary.
	// The handle stays checked out until passed back through Release.
	Acquire(ctx context.Context) (Handle, error)

	// Release returns a checked-out handle to the pool.
	// The handle returned by Acquire should be passed to Release once and
	// only once; releasing an unknown handle reports ErrNotCheckedOut and
	// changes nothing.
	Release(h Handle) error

	// Shutdown closes every handle, idle and checked out alike, and marks
	// the pool closed. Idempotent; close failures are collected in the
	// report, never aborting the drain.
	Shutdown() CloseReport

	// Size returns idle+checked-out handle count.
	Size() int
	// InUse returns the checked-out handle count.
	InUse() int
	// Idle returns the idle handle count.
	Idle() int
	// Stat returns one consistent snapshot of the counters.
	Stat() Stat
}

// CloseReport is the outcome of a Shutdown drain.
type CloseReport struct {
	ClosedCount int
	Failures    []error
}

type Stat struct {
	Idle     int
	InUse    int
	Capacity int
}

func (s Stat) Size() int {
	return s.Idle + s.InUse
}
