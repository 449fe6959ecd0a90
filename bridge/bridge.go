package bridge

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/skystor/uplink-bridge/errs"
	"github.com/skystor/uplink-bridge/ffi"
	"github.com/skystor/uplink-bridge/handle"
	"github.com/skystor/uplink-bridge/pin"
)

// State is the lifecycle position of one work item.
type State int32

const (
	StateCreated State = iota
	StateSubmitted
	StateExecuting
	StateCompleted
	StateCancelled
)

// Config sizes the worker pool.
type Config struct {
	// Workers is the number of worker goroutines, one blocking native
	// call in flight per worker. Defaults to 4.
	Workers int

	// QueueDepth bounds how many submitted items may wait for a
	// worker. Defaults to 64.
	QueueDepth int

	// Logger receives this bridge's submit/fail/cancel events. Nil
	// falls back to the package logger.
	Logger *zap.Logger
}

// Bridge owns the worker pool and the submit/execute/complete state
// machine. One Bridge serves any number of handles and domains.
type Bridge struct {
	queue    chan *workItem
	shutdown chan struct{}
	wg       sync.WaitGroup
	guard    *pin.Guard
	log      *zap.Logger

	mu       sync.Mutex
	closed   bool
	inflight map[*workItem]struct{}
	busy     map[handle.Handle]struct{}

	dispatched atomic.Uint64
	executed   atomic.Uint64
	completed  atomic.Uint64
	cancelled  atomic.Uint64
}

type workItem struct {
	name    string
	state   atomic.Int32
	perform func()
	abort   func()
}

// New starts a bridge with cfg's pool sizing.
func New(cfg Config) *Bridge {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = 64
	}
	if cfg.Logger == nil {
		cfg.Logger = Logger()
	}

	b := &Bridge{
		queue:    make(chan *workItem, cfg.QueueDepth),
		shutdown: make(chan struct{}),
		guard:    pin.NewGuard(),
		log:      cfg.Logger,
		inflight: make(map[*workItem]struct{}),
		busy:     make(map[handle.Handle]struct{}),
	}

	b.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go b.worker()
	}
	return b
}

// Guard exposes the bridge's buffer guard for pin-balance assertions.
func (b *Bridge) Guard() *pin.Guard { return b.guard }

// Stats is a point-in-time snapshot of bridge activity.
type Stats struct {
	Dispatched uint64
	Executed   uint64
	Completed  uint64
	Cancelled  uint64
	Inflight   int
}

// Stats snapshots the bridge counters.
func (b *Bridge) Stats() Stats {
	b.mu.Lock()
	inflight := len(b.inflight)
	b.mu.Unlock()

	return Stats{
		Dispatched: b.dispatched.Load(),
		Executed:   b.executed.Load(),
		Completed:  b.completed.Load(),
		Cancelled:  b.cancelled.Load(),
		Inflight:   inflight,
	}
}

// Submit runs op's validate phase on the calling goroutine and, on
// success, queues its execute phase on the worker pool. Validation
// failures, exclusivity conflicts and submits after Close return a
// synchronous error and dispatch nothing; every later failure arrives
// through the returned future.
func Submit[T any](b *Bridge, op Operation[T]) (*Future[T], error) {
	if op.Execute == nil {
		return nil, errs.Validation("operation %q has no execute step", op.Name)
	}

	if err := b.admit(); err != nil {
		return nil, err
	}
	if op.Validate != nil {
		if err := op.Validate(); err != nil {
			return nil, err
		}
	}
	if err := b.acquire(op.Exclusive, op.Name); err != nil {
		return nil, err
	}

	var tok *pin.Token
	if op.Buffer != nil {
		tok = b.guard.Pin(op.Buffer)
	}

	fut := newFuture[T]()
	it := &workItem{name: op.Name}
	it.state.Store(int32(StateSubmitted))

	// finish is the single completion path. It runs exactly once per
	// work item, on every outcome, and releases everything submit
	// acquired: the pin, the exclusivity claims and the inflight slot.
	// The exclusivity claims are held until the Complete or Discard
	// step has run, so a same-handle submit stays rejected while this
	// call is still mutating the registry; they are dropped just before
	// the future settles, so a caller awoken by the settle can submit
	// the next call on the handle without a spurious conflict.
	finish := func(res T, ferr *ffi.Error, cancelled, executed bool) {
		if tok != nil {
			tok.Unpin()
		}

		var settle func()
		switch {
		case cancelled:
			if executed && ferr == nil && op.Discard != nil {
				op.Discard(res)
			}
			b.cancelled.Add(1)
			b.log.Debug("bridge call cancelled", zap.String("op", op.Name))
			settle = func() { fut.reject(errs.Canceled(op.Name)) }

		case ferr != nil:
			var e *errs.Error
			if op.Translate != nil {
				e = op.Translate(ferr, res)
			} else {
				e = errs.Translate(ferr.Code, ferr.Message)
			}
			b.completed.Add(1)
			b.log.Debug("bridge call failed",
				zap.String("op", op.Name),
				zap.Int32("code", ferr.Code))
			settle = func() { fut.reject(e) }

		default:
			out := res
			var cerr error
			if op.Complete != nil {
				out, cerr = op.Complete(res)
			}
			b.completed.Add(1)
			if cerr != nil {
				settle = func() { fut.reject(cerr) }
			} else {
				settle = func() { fut.resolve(out) }
			}
		}

		b.releaseBusy(op.Exclusive)
		b.forget(it)
		settle()
	}

	it.perform = func() {
		if !it.state.CompareAndSwap(int32(StateSubmitted), int32(StateExecuting)) {
			// Lost the race against teardown; abort already settled it.
			return
		}
		b.executed.Add(1)
		res, ferr := op.Execute()

		if b.isClosed() {
			it.state.Store(int32(StateCancelled))
			finish(res, ferr, true, true)
			return
		}
		it.state.Store(int32(StateCompleted))
		finish(res, ferr, false, true)
	}

	it.abort = func() {
		if !it.state.CompareAndSwap(int32(StateSubmitted), int32(StateCancelled)) {
			return
		}
		var zero T
		finish(zero, nil, true, false)
	}

	b.remember(it)

	select {
	case b.queue <- it:
		b.dispatched.Add(1)
		// Close may have snapshotted inflight before this item was
		// remembered; settle it ourselves so no future hangs.
		if b.isClosed() {
			it.abort()
		}
		return fut, nil
	case <-b.shutdown:
		it.abort()
		return fut, nil
	}
}

func (b *Bridge) worker() {
	defer b.wg.Done()
	for {
		select {
		case it := <-b.queue:
			it.perform()
		case <-b.shutdown:
			return
		}
	}
}

// Close tears the bridge down. Work items still waiting for a worker
// are settled as Cancelled immediately; items already executing finish
// their native call on the worker and then settle as Cancelled instead
// of completing. Close blocks until the workers exit.
func (b *Bridge) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	pending := make([]*workItem, 0, len(b.inflight))
	for it := range b.inflight {
		pending = append(pending, it)
	}
	b.mu.Unlock()

	close(b.shutdown)
	for _, it := range pending {
		it.abort()
	}
	b.wg.Wait()

	b.log.Debug("bridge closed",
		zap.Uint64("completed", b.completed.Load()),
		zap.Uint64("cancelled", b.cancelled.Load()))
	return nil
}

func (b *Bridge) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errs.Canceled("bridge closed")
	}
	return nil
}

func (b *Bridge) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// acquire claims exclusivity for hs or fails without claiming any.
func (b *Bridge) acquire(hs []handle.Handle, op string) error {
	if len(hs) == 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, h := range hs {
		if _, taken := b.busy[h]; taken {
			return errs.ConcurrentAccess(h.String() + " during " + op)
		}
	}
	for _, h := range hs {
		b.busy[h] = struct{}{}
	}
	return nil
}

func (b *Bridge) releaseBusy(hs []handle.Handle) {
	if len(hs) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, h := range hs {
		delete(b.busy, h)
	}
}

func (b *Bridge) remember(it *workItem) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inflight[it] = struct{}{}
}

func (b *Bridge) forget(it *workItem) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.inflight, it)
}
