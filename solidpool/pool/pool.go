package pool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sjy-dv/solidpool/solidpool/pkg/limiter"
	"github.com/sjy-dv/solidpool/solidpool/pkg/log"
	"github.com/sjy-dv/solidpool/solidpool/pkg/retired"
	"github.com/sjy-dv/solidpool/solidpool/poolcore"
	"github.com/sjy-dv/solidpool/solidpool/registry"
)

var _ poolcore.Pool = &Pool{}

// fallback wait for a dial slot when no acquire timeout is configured
const defaultDialWait = 30 * time.Second

type idleHandle struct {
	h          poolcore.Handle
	returnedAt time.Time
}

// Pool owns two disjoint collections: the idle list (LIFO, newest reused
// first) and the lease registry of checked-out handles. p.mu serializes
// every move between them and the closed flag; factory dials and validator
// probes run outside it.
type Pool struct {
	opts      poolcore.Options
	factory   poolcore.Factory
	validator poolcore.Validator

	mu     sync.Mutex
	cond   *sync.Cond
	idle   []idleHandle
	leases registry.Accessor
	closed bool

	retired *retired.Tracker
	dial    limiter.Limiter
}

// New builds a pool and eagerly creates MinSize handles. If any eager
// creation fails the whole construction fails and every handle created so
// far is closed.
func New(factory poolcore.Factory, validator poolcore.Validator, opts ...poolcore.Option) (*Pool, error) {
	o := poolcore.DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if factory == nil {
		return nil, fmt.Errorf("%w: nil factory", poolcore.ErrInvalidOptions)
	}
	if o.MaxSize == 0 {
		return nil, fmt.Errorf("%w: max size must be larger than 0", poolcore.ErrInvalidOptions)
	}
	if o.MinSize > o.MaxSize {
		return nil, fmt.Errorf("%w: min size %d exceeds max size %d",
			poolcore.ErrInvalidOptions, o.MinSize, o.MaxSize)
	}
	if o.Ctx == nil {
		o.Ctx = context.Background()
	}

	p := &Pool{
		opts:      o,
		factory:   factory,
		validator: validator,
		leases:    registry.NewAccessor(),
		retired:   retired.New(o.RetiredHistory),
	}
	p.cond = sync.NewCond(&p.mu)
	if o.DialLimit > 0 {
		wait := o.AcquireTimeout
		if wait <= 0 {
			wait = defaultDialWait
		}
		p.dial = limiter.NewTimeoutLimiter(o.DialLimit, wait)
	}

	for i := uint32(0); i < o.MinSize; i++ {
		h, err := p.create(o.Ctx)
		if err != nil {
			p.Shutdown()
			return nil, err
		}
		p.idle = append(p.idle, idleHandle{h: h, returnedAt: time.Now()})
	}
	return p, nil
}

// Acquire returns a checked-out handle. Idle handles are reused newest
// first; an empty idle list grows the pool up to MaxSize; at capacity the
// call blocks for a freed slot (unless BlockOnExhaustion is off) until the
// acquire timeout or ctx expires.
func (p *Pool) Acquire(ctx context.Context) (poolcore.Handle, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var deadline time.Time
	if p.opts.AcquireTimeout > 0 {
		deadline = time.Now().Add(p.opts.AcquireTimeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	stop := context.AfterFunc(ctx, p.cond.Broadcast)
	defer stop()

	for {
		h, err := p.selectIdle()
		if err != nil {
			return nil, err
		}
		if h != nil {
			return h, nil
		}

		h, denied, err := p.grow(ctx)
		if err != nil {
			return nil, err
		}
		if h != nil {
			return h, nil
		}

		if !p.opts.BlockOnExhaustion {
			return nil, poolcore.ErrPoolExhausted
		}
		if denied {
			// the dial limiter refused a slot while the pool is still under
			// MaxSize, so the capacity wait below would return at once;
			// check the budget here before dialing again
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", poolcore.ErrAcquireTimeout, ctx.Err())
			}
			if !deadline.IsZero() && !time.Now().Before(deadline) {
				return nil, poolcore.ErrAcquireTimeout
			}
			continue
		}
		if err := p.waitForSlot(ctx, deadline); err != nil {
			return nil, err
		}
	}
}

// selectIdle pops the most-recently-returned handle and probes it outside
// the lock. An invalid handle is destroyed and (nil, nil) is returned so the
// caller moves on to growth instead of rescanning a suspect idle list; the
// handle is parked in the lease registry during the probe so it never sits
// in both collections and keeps counting against MaxSize. The park carries
// the Probing mark, so a stray release of the same handle mid-probe stays
// ErrNotCheckedOut instead of re-idling it; the mark is cleared under the
// lock once the probe passes.
func (p *Pool) selectIdle() (poolcore.Handle, error) {
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, poolcore.ErrPoolClosed
		}
		n := len(p.idle)
		if n == 0 {
			p.mu.Unlock()
			return nil, nil
		}
		ih := p.idle[n-1]
		p.idle = p.idle[:n-1]

		if p.opts.MaxIdleTime > 0 && time.Since(ih.returnedAt) > p.opts.MaxIdleTime {
			p.mu.Unlock()
			p.destroy(ih.h)
			continue
		}
		key := []byte(ih.h.ID())
		p.leases.Save(key, &registry.Lease{Handle: ih.h, AcquiredAt: time.Now(), Probing: true})
		p.mu.Unlock()

		valid := p.validator == nil || p.validator.IsValid(ih.h, p.opts.ValidateTimeout)

		p.mu.Lock()
		if p.closed {
			// shutdown drained the probing lease and closed the handle
			p.mu.Unlock()
			return nil, poolcore.ErrPoolClosed
		}
		if valid {
			if l := p.leases.Get(key); l != nil {
				l.Probing = false
			}
			p.mu.Unlock()
			return ih.h, nil
		}
		p.leases.Del(key)
		p.mu.Unlock()
		p.destroy(ih.h)
		return nil, nil
	}
}

// grow dials a new handle when the pool is under MaxSize. The dial runs
// outside the lock, so the bound is re-checked before insertion; a handle
// that lost the growth race is closed as surplus. A nil handle with no error
// means the pool is at capacity and the caller should wait for a slot;
// denied reports that the dial limiter refused instead, which the caller
// must not treat as free capacity.
func (p *Pool) grow(ctx context.Context) (h poolcore.Handle, denied bool, err error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, false, poolcore.ErrPoolClosed
	}
	if p.total() >= int(p.opts.MaxSize) {
		p.mu.Unlock()
		return nil, false, nil
	}
	p.mu.Unlock()

	if p.dial != nil {
		if !p.dial.Allow() {
			return nil, true, nil
		}
		defer p.dial.Revert()
	}
	h, err = p.create(ctx)
	if err != nil {
		return nil, false, err
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		_ = h.Close()
		return nil, false, poolcore.ErrPoolClosed
	}
	if p.total() >= int(p.opts.MaxSize) {
		p.mu.Unlock()
		log.Debug("pool: growth race lost, discarding surplus handle ", h.ID())
		_ = h.Close()
		return nil, false, nil
	}
	p.leases.Save([]byte(h.ID()), &registry.Lease{Handle: h, AcquiredAt: time.Now()})
	p.mu.Unlock()
	return h, false, nil
}

// waitForSlot blocks until a handle is parked back, the pool shrinks under
// MaxSize, the deadline passes, or the pool closes. Spurious wakeups re-check
// the condition.
func (p *Pool) waitForSlot(ctx context.Context, deadline time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		if p.closed {
			return poolcore.ErrPoolClosed
		}
		if len(p.idle) > 0 || p.total() < int(p.opts.MaxSize) {
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", poolcore.ErrAcquireTimeout, ctx.Err())
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return poolcore.ErrAcquireTimeout
		}
		var t *time.Timer
		if !deadline.IsZero() {
			t = time.AfterFunc(time.Until(deadline), p.cond.Broadcast)
		}
		p.cond.Wait()
		if t != nil {
			t.Stop()
		}
	}
}

// Release parks a checked-out handle back in the idle list. A handle the
// pool does not recognize reports ErrNotCheckedOut and changes nothing; an
// invalid handle (ValidateOnRelease) is destroyed and replaced lazily by a
// later acquire.
func (p *Pool) Release(h poolcore.Handle) error {
	if h == nil {
		return poolcore.ErrNotCheckedOut
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return poolcore.ErrPoolClosed
	}
	key := []byte(h.ID())
	if l := p.leases.Get(key); l == nil || l.Probing {
		seen := p.retired.Seen(h.ID())
		p.mu.Unlock()
		if seen {
			log.Debug("pool: release of already-retired handle ", h.ID())
		}
		return poolcore.ErrNotCheckedOut
	}
	p.leases.Del(key)
	p.mu.Unlock()

	if p.opts.ValidateOnRelease && p.validator != nil &&
		!p.validator.IsValid(h, p.opts.ValidateTimeout) {
		p.destroy(h)
		return nil
	}

	p.mu.Lock()
	if p.closed {
		// shutdown drained while the probe ran; the handle must not come back
		p.mu.Unlock()
		p.destroy(h)
		return poolcore.ErrPoolClosed
	}
	p.idle = append(p.idle, idleHandle{h: h, returnedAt: time.Now()})
	p.mu.Unlock()
	p.cond.Broadcast()
	return nil
}

// Shutdown closes every handle in both collections under the lock, so no
// concurrent release can resurrect one mid-drain. Close failures are
// aggregated, never fatal. A second call returns an empty report.
func (p *Pool) Shutdown() poolcore.CloseReport {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return poolcore.CloseReport{}
	}
	p.closed = true

	var report poolcore.CloseReport
	for _, ih := range p.idle {
		p.closeInto(&report, ih.h)
	}
	p.idle = nil

	handles := make([]poolcore.Handle, 0, p.leases.Size())
	p.leases.FindKeyAsc(func(_ []byte, l *registry.Lease) (bool, error) {
		handles = append(handles, l.Handle)
		return true, nil
	})
	for _, h := range handles {
		p.closeInto(&report, h)
	}
	p.leases = registry.NewAccessor()

	p.cond.Broadcast()
	return report
}

func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total()
}

func (p *Pool) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.leases.Size()
}

func (p *Pool) Idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}

func (p *Pool) Stat() poolcore.Stat {
	p.mu.Lock()
	defer p.mu.Unlock()
	return poolcore.Stat{
		Idle:     len(p.idle),
		InUse:    p.leases.Size(),
		Capacity: int(p.opts.MaxSize),
	}
}

// total must be called with p.mu held.
func (p *Pool) total() int {
	return len(p.idle) + p.leases.Size()
}

func (p *Pool) create(ctx context.Context) (poolcore.Handle, error) {
	h, err := p.factory.Create(ctx, p.opts.Params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", poolcore.ErrCreationFailed, err)
	}
	if h == nil {
		return nil, fmt.Errorf("%w: factory returned no handle", poolcore.ErrCreationFailed)
	}
	return h, nil
}

// destroy closes a handle that is in neither collection and wakes waiters,
// since the total size just decreased.
func (p *Pool) destroy(h poolcore.Handle) {
	if err := h.Close(); err != nil {
		log.Debug("pool: close discarded handle ", h.ID(), ": ", err)
	}
	p.retired.Record(h.ID())
	p.cond.Broadcast()
}

func (p *Pool) closeInto(report *poolcore.CloseReport, h poolcore.Handle) {
	p.retired.Record(h.ID())
	if err := h.Close(); err != nil {
		report.Failures = append(report.Failures, fmt.Errorf("handle %s: %w", h.ID(), err))
		return
	}
	report.ClosedCount++
}
