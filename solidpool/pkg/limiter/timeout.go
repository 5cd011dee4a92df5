package limiter

import (
	"time"
)

type timeoutLimiter struct {
	c       chan struct{}
	timeout time.Duration
}

// NewTimeoutLimiter waits up to timeout for a free slot before giving up.
// A zero timeout behaves like the default limiter.
func NewTimeoutLimiter(n uint32, timeout time.Duration) Limiter {
	return &timeoutLimiter{
		c:       make(chan struct{}, n),
		timeout: timeout,
	}
}

func (l *timeoutLimiter) Allow() bool {
	select {
	case l.c <- struct{}{}:
		return true
	default:
	}
	if l.timeout <= 0 {
		return false
	}
	t := time.NewTimer(l.timeout)
	defer t.Stop()
	select {
	case l.c <- struct{}{}:
		return true
	case <-t.C:
		return false
	}
}

func (l *timeoutLimiter) Revert() {
	<-l.c
}
