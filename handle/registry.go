package handle

import (
	"math"
	"sync"

	"github.com/skystor/uplink-bridge/errs"
)

// Registry maps opaque handles to live native resources. It is
// instance-scoped: embedders create as many isolated registries as they
// need instead of sharing process-global state.
//
// The registry never calls into the native library. Freeing the
// underlying resource belongs to whichever operation is semantically
// close/abort/free for that handle kind; the registry only forgets the
// mapping.
type Registry struct {
	mu       sync.RWMutex
	entries  []entry
	freeList []uint32
	closed   bool
}

type entry struct {
	value any
	gen   uint32
	kind  Kind
	valid bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries:  make([]entry, 0, 64),
		freeList: make([]uint32, 0, 16),
	}
}

// Allocate inserts a new mapping and returns its handle. It fails only
// when the registry is closed or the slot space is exhausted.
func (r *Registry) Allocate(kind Kind, value any) (Handle, error) {
	if kind == 0 {
		return Handle{}, errs.Validation("allocate with zero kind")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return Handle{}, errs.Canceled("registry closed")
	}

	if n := len(r.freeList); n > 0 {
		idx := r.freeList[n-1]
		r.freeList = r.freeList[:n-1]
		e := &r.entries[idx-1]
		e.value = value
		e.kind = kind
		e.valid = true
		return Handle{id: idx, gen: e.gen, kind: kind}, nil
	}

	if len(r.entries) >= math.MaxUint32-1 {
		return Handle{}, errs.OutOfMemory("handle slots exhausted")
	}

	r.entries = append(r.entries, entry{value: value, gen: 1, kind: kind, valid: true})
	return Handle{id: uint32(len(r.entries)), gen: 1, kind: kind}, nil
}

// Resolve returns the native resource for h. It fails with
// InvalidHandle when the id is unknown, the generation is stale, or the
// handle was allocated for a different kind.
func (r *Registry) Resolve(h Handle, kind Kind) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, err := r.lookup(h)
	if err != nil {
		return nil, err
	}
	if e.kind != kind {
		return nil, errs.InvalidHandle("expected " + kind.String() + ", got " + e.kind.String())
	}
	return e.value, nil
}

// Release forgets the mapping for h and returns the value it held so
// the caller can free the native resource. Releasing an unknown or
// already-released handle fails with InvalidHandle rather than
// silently succeeding, so double-free bugs surface immediately.
func (r *Registry) Release(h Handle) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.lookup(h)
	if err != nil {
		return nil, err
	}

	value := e.value
	e.value = nil
	e.valid = false
	e.gen++ // a reused id never resolves for the old (id, gen) pair
	r.freeList = append(r.freeList, h.id)
	return value, nil
}

// lookup validates id, liveness and generation. Callers hold r.mu.
func (r *Registry) lookup(h Handle) (*entry, error) {
	if h.IsZero() || h.id == 0 || int(h.id) > len(r.entries) {
		return nil, errs.InvalidHandle("unknown id")
	}
	e := &r.entries[h.id-1]
	if !e.valid {
		return nil, errs.InvalidHandle("released handle")
	}
	if e.gen != h.gen {
		return nil, errs.InvalidHandle("stale generation")
	}
	return e, nil
}

// Len reports the number of live handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for i := range r.entries {
		if r.entries[i].valid {
			n++
		}
	}
	return n
}

// LenByKind reports live handle counts per kind.
func (r *Registry) LenByKind() map[Kind]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[Kind]int)
	for i := range r.entries {
		if r.entries[i].valid {
			out[r.entries[i].kind]++
		}
	}
	return out
}

// Each visits every live handle. The callback must not mutate the
// registry; collect handles first if releases are needed.
func (r *Registry) Each(fn func(Handle, any) bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.entries {
		e := &r.entries[i]
		if !e.valid {
			continue
		}
		h := Handle{id: uint32(i + 1), gen: e.gen, kind: e.kind}
		if !fn(h, e.value) {
			return
		}
	}
}

// Close drops every mapping and rejects further operations. It does not
// free native resources; callers walk Each and free before closing.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	for i := range r.entries {
		r.entries[i].value = nil
		r.entries[i].valid = false
	}
	r.entries = nil
	r.freeList = nil
	return nil
}
