package poolcore

import (
	"context"
	"time"
)

// Handle is an opaque reference to one live backend resource. The pool never
// interprets its contents, only its identity and liveness.
type Handle interface {
	// ID identifies the handle for lease bookkeeping. It must be stable
	// for the handle's lifetime and unique within the pool.
	ID() string
	// Close releases the underlying resource. Safe to call more than once.
	Close() error
}

// Factory produces one live handle from the pool's connection params.
// No retries happen inside a Factory; retry policy belongs to the caller.
type Factory interface {
	Create(ctx context.Context, params ConnectionParams) (Handle, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(ctx context.Context, params ConnectionParams) (Handle, error)

func (f FactoryFunc) Create(ctx context.Context, params ConnectionParams) (Handle, error) {
	return f(ctx, params)
}

// Validator cheaply tests handle liveness. It must never block past timeout
// and never fails the caller: a timeout, a closed handle, or a check that
// cannot even be attempted all report false.
type Validator interface {
	IsValid(h Handle, timeout time.Duration) bool
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(h Handle, timeout time.Duration) bool

func (f ValidatorFunc) IsValid(h Handle, timeout time.Duration) bool {
	return f(h, timeout)
}
