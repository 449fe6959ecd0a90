package cursor

import (
	"context"
	"testing"

	"github.com/skystor/uplink-bridge/bridge"
	"github.com/skystor/uplink-bridge/errs"
	"github.com/skystor/uplink-bridge/ffi"
	"github.com/skystor/uplink-bridge/handle"
)

// fakeCursor yields the given names, then exhausts or fails. It reuses
// one backing item between Next calls the way the native library does,
// so a missing deep copy shows up as corrupted results.
type fakeCursor struct {
	names   []string
	pos     int
	failAt  int // 1-based advance index that fails; 0 means never
	failErr *ffi.Error
	current ffi.BucketInfo
	freed   int
}

func (c *fakeCursor) Next() bool {
	if c.failAt > 0 && c.pos+1 >= c.failAt {
		c.failErr = &ffi.Error{Code: ffi.ErrInternal, Message: "satellite hiccup"}
		return false
	}
	if c.pos >= len(c.names) {
		return false
	}
	// Overwrite the single backing struct, invalidating prior views.
	c.current = ffi.BucketInfo{Name: c.names[c.pos], Created: int64(c.pos)}
	c.pos++
	return true
}

func (c *fakeCursor) Item() *ffi.BucketInfo { return &c.current }
func (c *fakeCursor) Err() *ffi.Error       { return c.failErr }
func (c *fakeCursor) Free()                 { c.freed++ }

type env struct {
	b   *bridge.Bridge
	reg *handle.Registry
}

func newEnv(t *testing.T) *env {
	t.Helper()
	b := bridge.New(bridge.Config{Workers: 2})
	t.Cleanup(func() { b.Close() })
	return &env{b: b, reg: handle.NewRegistry()}
}

func await[T any](t *testing.T, fut *bridge.Future[T], err error) T {
	t.Helper()
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	v, err := fut.Await(context.Background())
	if err != nil {
		t.Fatalf("await failed: %v", err)
	}
	return v
}

func (e *env) create(t *testing.T, fc *fakeCursor) handle.Handle {
	t.Helper()
	fut, err := Create(e.b, e.reg, handle.KindBucketIterator, "listBuckets",
		func() (ffi.Cursor, *ffi.Error) { return fc, nil })
	return await(t, fut, err)
}

func TestCursor_DrivingLoopCollectsAll(t *testing.T) {
	e := newEnv(t)
	fc := &fakeCursor{names: []string{"alpha", "beta", "gamma", "delta"}}
	h := e.create(t, fc)

	var got []*ffi.BucketInfo
	falses := 0
	for {
		nextFut, nextErr := Next(e.b, e.reg, h)
		more := await(t, nextFut, nextErr)
		if !more {
			falses++
			break
		}
		itemFut, itemErr := Item(e.b, e.reg, h, (*ffi.BucketInfo).Clone)
		item := await(t, itemFut, itemErr)
		got = append(got, item)
	}

	errFut, errErr := Err(e.b, e.reg, h)
	iterErr := await(t, errFut, errErr)
	if iterErr != nil {
		t.Fatalf("Err = %v, want nil on plain exhaustion", iterErr)
	}
	if falses != 1 {
		t.Fatalf("Next returned false %d times", falses)
	}
	if len(got) != 4 {
		t.Fatalf("collected %d items", len(got))
	}
	// Deep copies survive the backing struct being overwritten.
	for i, want := range []string{"alpha", "beta", "gamma", "delta"} {
		if got[i].Name != want {
			t.Fatalf("item %d = %q, want %q", i, got[i].Name, want)
		}
	}

	freeFut, freeErr := Free(e.b, e.reg, h)
	await(t, freeFut, freeErr)
	if fc.freed != 1 {
		t.Fatalf("cursor freed %d times", fc.freed)
	}
	if e.reg.Len() != 0 {
		t.Fatalf("registry still holds %d handles", e.reg.Len())
	}
}

func TestCursor_MidStreamError(t *testing.T) {
	e := newEnv(t)
	fc := &fakeCursor{names: []string{"a", "b", "c", "d", "e"}, failAt: 4}
	h := e.create(t, fc)

	var collected int
	for {
		nextFut, nextErr := Next(e.b, e.reg, h)
		if !await(t, nextFut, nextErr) {
			break
		}
		itemFut, itemErr := Item(e.b, e.reg, h, (*ffi.BucketInfo).Clone)
		await(t, itemFut, itemErr)
		collected++
	}

	errFut, errErr := Err(e.b, e.reg, h)
	iterErr := await(t, errFut, errErr)
	if iterErr == nil {
		t.Fatal("Err = nil, want the injected failure")
	}
	if iterErr.Code != errs.CodeInternal {
		t.Fatalf("Err code = %#x", iterErr.Code)
	}
	if collected != 3 {
		t.Fatalf("collected %d items before the failure, want 3", collected)
	}

	// Free is safe after a mid-stream error.
	freeFut, freeErr := Free(e.b, e.reg, h)
	await(t, freeFut, freeErr)
	if fc.freed != 1 {
		t.Fatalf("cursor freed %d times", fc.freed)
	}
}

func TestCursor_FreeAfterPartialWalk(t *testing.T) {
	e := newEnv(t)
	fc := &fakeCursor{names: []string{"a", "b", "c"}}
	h := e.create(t, fc)

	nextFut, nextErr := Next(e.b, e.reg, h)
	await(t, nextFut, nextErr)
	freeFut, freeErr := Free(e.b, e.reg, h)
	await(t, freeFut, freeErr)

	if fc.freed != 1 {
		t.Fatalf("cursor freed %d times", fc.freed)
	}
	// The handle is gone; further primitives fail synchronously.
	if _, err := Next(e.b, e.reg, h); !errs.Is(err, errs.CodeInvalidHandle) {
		t.Fatalf("Next after Free: err = %v", err)
	}
	if _, err := Free(e.b, e.reg, h); !errs.Is(err, errs.CodeInvalidHandle) {
		t.Fatalf("second Free: err = %v", err)
	}
}

func TestCursor_CreateFailure(t *testing.T) {
	e := newEnv(t)

	fut, err := Create(e.b, e.reg, handle.KindBucketIterator, "listBuckets",
		func() (ffi.Cursor, *ffi.Error) {
			return nil, &ffi.Error{Code: ffi.ErrPermissionDenied}
		})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := fut.Await(context.Background()); !errs.Is(err, errs.CodePermissionDenied) {
		t.Fatalf("err = %v", err)
	}
	if e.reg.Len() != 0 {
		t.Fatal("failed create must not register a handle")
	}
}

func TestCursor_NonIteratorHandle(t *testing.T) {
	e := newEnv(t)
	h, _ := e.reg.Allocate(handle.KindProject, "proj")

	if _, err := Next(e.b, e.reg, h); !errs.Is(err, errs.CodeInvalidHandle) {
		t.Fatalf("err = %v, want InvalidHandle", err)
	}
}

func TestCursor_ItemTypeMismatch(t *testing.T) {
	e := newEnv(t)
	fc := &fakeCursor{names: []string{"a"}}
	h := e.create(t, fc)

	nextFut, nextErr := Next(e.b, e.reg, h)
	await(t, nextFut, nextErr)
	// Asking for the wrong element type is an InvalidHandle, not a
	// panic.
	if _, err := Item(e.b, e.reg, h, (*ffi.ObjectInfo).Clone); !errs.Is(err, errs.CodeInvalidHandle) {
		t.Fatalf("err = %v, want InvalidHandle", err)
	}
	freeFut, freeErr := Free(e.b, e.reg, h)
	await(t, freeFut, freeErr)
}
