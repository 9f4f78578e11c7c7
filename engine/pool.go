package engine

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("pool: closed")

// Retirement thresholds for pooled instances.
const (
	retireErrScore = 3.0
	retireUseCount = 50
	retireAge      = 50 * time.Minute
)

// Handle wraps a pooled value with health tracking metadata.
//
// Scoring: success lowers errScore by 0.5 (min 0), failure raises it by 1.0.
type Handle[T any] struct {
	ID    int64
	Value T

	mu       sync.Mutex
	errScore float64
	useCount int
	created  time.Time
	lastUsed time.Time
}

func (h *Handle[T]) recordSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.useCount++
	h.errScore = math.Max(0, h.errScore-0.5)
	h.lastUsed = time.Now()
}

func (h *Handle[T]) recordFailure() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.useCount++
	h.errScore += 1.0
	h.lastUsed = time.Now()
}

func (h *Handle[T]) shouldRetire() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.errScore >= retireErrScore ||
		h.useCount >= retireUseCount ||
		time.Since(h.created) >= retireAge
}

func (h *Handle[T]) idleFor() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return time.Since(h.lastUsed)
}

// Factory creates a new pooled value.
type Factory[T any] func(ctx context.Context) (T, error)

// Destroyer releases a pooled value for good.
type Destroyer[T any] func(T) error

// PoolOptions holds the pool limits.
type PoolOptions struct {
	// MaxSize bounds the number of live values.
	MaxSize int

	// IdleTimeout closes values unused for this long. Zero disables reaping.
	IdleTimeout time.Duration
}

// Pool is a checkout/checkin pool. Values are created lazily up to
// MaxSize; Acquire blocks until a value is idle, capacity frees up, or the
// context expires. Unhealthy values are destroyed on Release.
type Pool[T any] struct {
	opts      PoolOptions
	factory   Factory[T]
	destroyer Destroyer[T]

	slots  chan struct{} // one token per live value
	idle   chan *Handle[T]
	nextID atomic.Int64
	active atomic.Int32

	mu      sync.Mutex // guards closed and sends on idle
	closed  bool
	stopped chan struct{}
}

// NewPool creates a pool and starts its idle reaper.
func NewPool[T any](opts PoolOptions, factory Factory[T], destroyer Destroyer[T]) *Pool[T] {
	if opts.MaxSize < 1 {
		opts.MaxSize = 1
	}
	p := &Pool[T]{
		opts:      opts,
		factory:   factory,
		destroyer: destroyer,
		slots:     make(chan struct{}, opts.MaxSize),
		idle:      make(chan *Handle[T], opts.MaxSize),
		stopped:   make(chan struct{}),
	}
	if opts.IdleTimeout > 0 {
		go p.reapLoop()
	}
	return p
}

// Acquire checks a value out of the pool.
func (p *Pool[T]) Acquire(ctx context.Context) (*Handle[T], error) {
	for {
		if p.isClosed() {
			return nil, ErrPoolClosed
		}

		// Prefer an idle value over launching a new one.
		select {
		case h := <-p.idle:
			if h = p.checkout(h); h != nil {
				return h, nil
			}
			continue
		default:
		}

		select {
		case <-p.stopped:
			return nil, ErrPoolClosed
		case <-ctx.Done():
			return nil, ctx.Err()
		case h := <-p.idle:
			if h = p.checkout(h); h != nil {
				return h, nil
			}
		case p.slots <- struct{}{}:
			return p.create(ctx)
		}
	}
}

// Release checks a value back in. success feeds the health score.
func (p *Pool[T]) Release(h *Handle[T], success bool) {
	p.active.Add(-1)

	if success {
		h.recordSuccess()
	} else {
		h.recordFailure()
	}

	if h.shouldRetire() {
		slog.Debug("pool: retiring instance", "id", h.ID)
		p.destroy(h)
		return
	}

	p.checkin(h)
}

// checkin parks h on the idle set, or destroys it after Close.
func (p *Pool[T]) checkin(h *Handle[T]) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.destroy(h)
		return
	}
	p.idle <- h
	p.mu.Unlock()
}

// Size returns the number of live values.
func (p *Pool[T]) Size() int {
	return len(p.slots)
}

// MaxSize returns the configured capacity.
func (p *Pool[T]) MaxSize() int {
	return p.opts.MaxSize
}

// ActiveCount returns the number of checked-out values.
func (p *Pool[T]) ActiveCount() int {
	return int(p.active.Load())
}

// Close stops the reaper and destroys every idle value. Values still
// checked out are destroyed when they are released.
func (p *Pool[T]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.stopped)
	p.mu.Unlock()

	for {
		select {
		case h := <-p.idle:
			p.destroy(h)
		default:
			return
		}
	}
}

func (p *Pool[T]) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// checkout marks an idle handle active, or destroys it and returns nil
// when it has aged out while idle.
func (p *Pool[T]) checkout(h *Handle[T]) *Handle[T] {
	if h.shouldRetire() {
		p.destroy(h)
		return nil
	}
	p.active.Add(1)
	return h
}

type created[T any] struct {
	h   *Handle[T]
	err error
}

// create runs the factory without blocking past ctx. Caller must hold a
// slot token. The factory gets a context that is never canceled by the
// acquire deadline, since canceling it could kill a launched browser; a
// value that finishes after the caller gave up is parked on the idle set.
func (p *Pool[T]) create(ctx context.Context) (*Handle[T], error) {
	done := make(chan created[T], 1)
	go func() {
		h, err := p.launch(context.WithoutCancel(ctx))
		done <- created[T]{h: h, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		if p.isClosed() {
			p.destroy(r.h)
			return nil, ErrPoolClosed
		}
		p.active.Add(1)
		return r.h, nil
	case <-ctx.Done():
		go p.adopt(done)
		return nil, ctx.Err()
	}
}

// launch runs the factory, releasing the slot token on failure.
func (p *Pool[T]) launch(ctx context.Context) (*Handle[T], error) {
	v, err := p.factory(ctx)
	if err != nil {
		<-p.slots
		return nil, err
	}
	now := time.Now()
	return &Handle[T]{
		ID:       p.nextID.Add(1),
		Value:    v,
		created:  now,
		lastUsed: now,
	}, nil
}

// adopt waits for an abandoned launch and keeps its value for the next
// Acquire.
func (p *Pool[T]) adopt(done <-chan created[T]) {
	r := <-done
	if r.err != nil {
		slog.Debug("pool: abandoned launch failed", "error", r.err)
		return
	}
	slog.Debug("pool: adopting instance launched after acquire deadline", "id", r.h.ID)
	p.checkin(r.h)
}

// destroy releases the value and its slot token.
func (p *Pool[T]) destroy(h *Handle[T]) {
	if err := p.destroyer(h.Value); err != nil {
		slog.Warn("pool: failed to destroy instance", "id", h.ID, "error", err)
	}
	<-p.slots
}

func (p *Pool[T]) reapLoop() {
	interval := p.opts.IdleTimeout / 2
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopped:
			return
		case <-ticker.C:
			p.reapIdle()
		}
	}
}

// reapIdle destroys idle values unused for longer than IdleTimeout.
func (p *Pool[T]) reapIdle() {
	var keep []*Handle[T]
drain:
	for {
		select {
		case h := <-p.idle:
			if h.idleFor() >= p.opts.IdleTimeout {
				slog.Debug("pool: closing idle instance", "id", h.ID)
				p.destroy(h)
				continue
			}
			keep = append(keep, h)
		default:
			break drain
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, h := range keep {
		if p.closed {
			p.destroy(h)
			continue
		}
		p.idle <- h
	}
}
