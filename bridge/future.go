package bridge

import (
	"context"
	"sync"
)

// Future is the pending result of one bridged operation. It settles
// exactly once: either resolved with a value or rejected with a typed
// error from the errs hierarchy.
type Future[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
	err  error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) resolve(v T) {
	f.once.Do(func() {
		f.val = v
		close(f.done)
	})
}

func (f *Future[T]) reject(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Done is closed when the future settles.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Await blocks until the future settles or ctx ends. A ctx error
// abandons the wait only; the underlying native call still runs to
// completion on its worker.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
