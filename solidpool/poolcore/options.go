package poolcore

import (
	"context"
	"time"
)

// ConnectionParams is supplied once at pool construction and never mutated.
type ConnectionParams struct {
	Endpoint   string
	Principal  string
	Credential string
}

type Options struct {
	Params ConnectionParams

	// MinSize handles are created eagerly at construction.
	MinSize uint32
	// MaxSize bounds idle+checked-out handles at all times.
	MaxSize uint32

	// AcquireTimeout bounds a blocking acquire. Zero means wait forever
	// (the caller's context still applies).
	AcquireTimeout time.Duration
	// ValidateTimeout is the budget handed to the Validator per probe.
	ValidateTimeout time.Duration
	// ValidateOnRelease re-probes a handle when it comes back; invalid
	// handles are destroyed and replaced lazily on a later acquire.
	ValidateOnRelease bool
	// BlockOnExhaustion makes acquire wait for a free slot instead of
	// failing with ErrPoolExhausted.
	BlockOnExhaustion bool
	// MaxIdleTime discards idle handles older than this at acquire time.
	// Zero disables the check.
	MaxIdleTime time.Duration
	// DialLimit caps concurrent factory creates. Zero means no cap.
	DialLimit uint32
	// RetiredHistory sizes the recently-destroyed diagnostics cache.
	RetiredHistory int

	Ctx context.Context
}

type Option func(*Options)

func DefaultOptions() Options {
	return Options{
		MaxSize:           16,
		ValidateTimeout:   time.Second,
		BlockOnExhaustion: true,
		RetiredHistory:    128,
		Ctx:               context.Background(),
	}
}

func WithParams(params ConnectionParams) Option {
	return func(o *Options) {
		o.Params = params
	}
}

func WithMinSize(n uint32) Option {
	return func(o *Options) {
		o.MinSize = n
	}
}

func WithMaxSize(n uint32) Option {
	return func(o *Options) {
		o.MaxSize = n
	}
}

func WithAcquireTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.AcquireTimeout = d
	}
}

func WithValidateTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.ValidateTimeout = d
	}
}

func WithValidateOnRelease(v bool) Option {
	return func(o *Options) {
		o.ValidateOnRelease = v
	}
}

func WithBlockOnExhaustion(v bool) Option {
	return func(o *Options) {
		o.BlockOnExhaustion = v
	}
}

func WithMaxIdleTime(d time.Duration) Option {
	return func(o *Options) {
		o.MaxIdleTime = d
	}
}

func WithDialLimit(n uint32) Option {
	return func(o *Options) {
		o.DialLimit = n
	}
}

func WithContext(ctx context.Context) Option {
	return func(o *Options) {
		o.Ctx = ctx
	}
}
