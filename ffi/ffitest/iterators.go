package ffitest

import "github.com/skystor/uplink-bridge/ffi"

var _ ffi.Iterator[*ffi.BucketInfo] = (*bucketIterator)(nil)

// mockIterator walks a snapshot taken when the cursor was opened. The
// item slot is reused across Next calls, matching the native cursors:
// a pointer held past the following Next observes the next item, which
// is exactly the aliasing bug callers must copy to avoid.
type mockIterator[T any] struct {
	m     *Mock
	op    string
	infos []T
	idx   int
	item  T
	err   *ffi.Error
	freed bool
}

func (it *mockIterator[T]) Free() { it.m.untrack(&it.freed) }

func (it *mockIterator[T]) Next() bool {
	if it.err != nil {
		return false
	}
	if err := it.m.step(it.op + ".next"); err != nil {
		it.err = err
		return false
	}
	if it.idx >= len(it.infos) {
		return false
	}
	it.item = it.infos[it.idx]
	it.idx++
	return true
}

func (it *mockIterator[T]) Item() *T { return &it.item }

func (it *mockIterator[T]) Err() *ffi.Error { return it.err }

type (
	bucketIterator = mockIterator[ffi.BucketInfo]
	objectIterator = mockIterator[ffi.ObjectInfo]
	partIterator   = mockIterator[ffi.PartInfo]
	uploadIterator = mockIterator[ffi.UploadInfo]
)
