package limiter

type Limiter interface {
	// Allow takes one slot, reporting false when none is free.
	Allow() bool
	// Revert gives a taken slot back.
	Revert()
}
