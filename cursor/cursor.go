// Package cursor bridges native streaming iterators as five minimal
// operations the caller drives in a loop: Create, Next, Item, Err,
// Free. Each primitive performs exactly one native call on a worker,
// so no worker ever sits in a loop holding a cursor open; backpressure
// and cancellation stay entirely with the caller, who decides whether
// to issue the next Next.
//
// The required driving pattern, with Free last in a guaranteed cleanup
// path:
//
//	h, _ := await(cursor.Create(br, reg, kind, "listBuckets", open))
//	defer func() { await(cursor.Free(br, reg, h)) }()
//
//	for {
//	    more, err := await(cursor.Next(br, reg, h))
//	    if err != nil || !more {
//	        break
//	    }
//	    item, _ := await(cursor.Item(br, reg, h, clone))
//	    // accumulate item
//	}
//	iterErr, _ := await(cursor.Err(br, reg, h))
//	// iterErr == nil means plain exhaustion
//
// Next, Item, Err and Free are exclusive on the iterator handle: at
// most one of them may be in flight per cursor at a time.
package cursor

import (
	"github.com/skystor/uplink-bridge/bridge"
	"github.com/skystor/uplink-bridge/errs"
	"github.com/skystor/uplink-bridge/ffi"
	"github.com/skystor/uplink-bridge/handle"
)

// Create opens a native cursor via open and registers it under kind.
// The future resolves with the new iterator handle.
func Create(b *bridge.Bridge, reg *handle.Registry, kind handle.Kind, name string, open func() (ffi.Cursor, *ffi.Error)) (*bridge.Future[handle.Handle], error) {
	// The raw cursor crosses from execute to complete through the
	// closure; both run on the same worker goroutine in order.
	var cur ffi.Cursor

	return bridge.Submit(b, bridge.Operation[handle.Handle]{
		Name: name,
		Execute: func() (handle.Handle, *ffi.Error) {
			c, ferr := open()
			if ferr != nil {
				return handle.Handle{}, ferr
			}
			cur = c
			return handle.Handle{}, nil
		},
		Complete: func(handle.Handle) (handle.Handle, error) {
			h, err := reg.Allocate(kind, cur)
			if err != nil {
				cur.Free()
				return handle.Handle{}, err
			}
			return h, nil
		},
		Discard: func(handle.Handle) {
			if cur != nil {
				cur.Free()
			}
		},
	})
}

// Next advances the cursor. The future resolves false on exhaustion or
// after a mid-stream failure; it rejects only for bridge-level reasons
// (bad handle, cancellation), never for ordinary exhaustion.
func Next(b *bridge.Bridge, reg *handle.Registry, h handle.Handle) (*bridge.Future[bool], error) {
	cur, err := resolve(reg, h)
	if err != nil {
		return nil, err
	}
	return bridge.Submit(b, bridge.Operation[bool]{
		Name:      h.Kind().String() + ".next",
		Exclusive: []handle.Handle{h},
		Execute: func() (bool, *ffi.Error) {
			return cur.Next(), nil
		},
	})
}

// Item returns the cursor's current element, deep-copied via clone on
// the worker before the borrowed native view can be invalidated by the
// following Next. Only meaningful immediately after a Next that
// resolved true.
func Item[T any](b *bridge.Bridge, reg *handle.Registry, h handle.Handle, clone func(T) T) (*bridge.Future[T], error) {
	raw, err := resolve(reg, h)
	if err != nil {
		return nil, err
	}
	it, ok := raw.(ffi.Iterator[T])
	if !ok {
		return nil, errs.InvalidHandle("cursor item type mismatch for " + h.String())
	}
	return bridge.Submit(b, bridge.Operation[T]{
		Name:      h.Kind().String() + ".item",
		Exclusive: []handle.Handle{h},
		Execute: func() (T, *ffi.Error) {
			// clone while the borrowed view is still valid.
			return clone(it.Item()), nil
		},
	})
}

// Err reports the error that terminated iteration, translated into the
// typed hierarchy, or nil when the cursor was simply exhausted. The
// future always resolves; this is how callers distinguish "ended" from
// "failed".
func Err(b *bridge.Bridge, reg *handle.Registry, h handle.Handle) (*bridge.Future[*errs.Error], error) {
	cur, err := resolve(reg, h)
	if err != nil {
		return nil, err
	}
	return bridge.Submit(b, bridge.Operation[*errs.Error]{
		Name:      h.Kind().String() + ".err",
		Exclusive: []handle.Handle{h},
		Execute: func() (*errs.Error, *ffi.Error) {
			if ferr := cur.Err(); ferr != nil {
				return errs.Translate(ferr.Code, ferr.Message), nil
			}
			return nil, nil
		},
	})
}

// Free releases the native cursor and forgets its handle. It is
// terminal: safe after exhaustion, after an error, or after a partial
// walk. A second Free fails with InvalidHandle like any released
// handle.
func Free(b *bridge.Bridge, reg *handle.Registry, h handle.Handle) (*bridge.Future[struct{}], error) {
	cur, err := resolve(reg, h)
	if err != nil {
		return nil, err
	}
	return bridge.Submit(b, bridge.Operation[struct{}]{
		Name:      h.Kind().String() + ".free",
		Exclusive: []handle.Handle{h},
		Execute: func() (struct{}, *ffi.Error) {
			cur.Free()
			return struct{}{}, nil
		},
		Complete: func(struct{}) (struct{}, error) {
			// The native resource is gone either way; the mapping
			// must not outlive it.
			if _, err := reg.Release(h); err != nil {
				return struct{}{}, err
			}
			return struct{}{}, nil
		},
		Discard: func(struct{}) {
			// Cancelled after the cursor was already freed; drop the
			// mapping so teardown does not free it a second time.
			_, _ = reg.Release(h)
		},
	})
}

// resolve fetches the cursor behind an iterator handle of any cursor
// kind.
func resolve(reg *handle.Registry, h handle.Handle) (ffi.Cursor, error) {
	switch h.Kind() {
	case handle.KindBucketIterator, handle.KindObjectIterator,
		handle.KindPartIterator, handle.KindUploadIterator:
	default:
		return nil, errs.InvalidHandle("not an iterator handle: " + h.String())
	}
	raw, err := reg.Resolve(h, h.Kind())
	if err != nil {
		return nil, err
	}
	cur, ok := raw.(ffi.Cursor)
	if !ok {
		return nil, errs.InvalidHandle("handle does not hold a cursor: " + h.String())
	}
	return cur, nil
}
