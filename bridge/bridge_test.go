package bridge

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/skystor/uplink-bridge/errs"
	"github.com/skystor/uplink-bridge/ffi"
	"github.com/skystor/uplink-bridge/handle"
)

func newTestBridge(t *testing.T) *Bridge {
	t.Helper()
	b := New(Config{Workers: 2, QueueDepth: 8})
	t.Cleanup(func() { b.Close() })
	return b
}

func TestSubmit_Success(t *testing.T) {
	b := newTestBridge(t)

	fut, err := Submit(b, Operation[int]{
		Name:    "add",
		Execute: func() (int, *ffi.Error) { return 41, nil },
		Complete: func(v int) (int, error) {
			return v + 1, nil
		},
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	v, err := fut.Await(context.Background())
	if err != nil {
		t.Fatalf("Await failed: %v", err)
	}
	if v != 42 {
		t.Fatalf("v = %d", v)
	}

	st := b.Stats()
	if st.Executed != 1 || st.Completed != 1 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestSubmit_NativeErrorRejectsFuture(t *testing.T) {
	b := newTestBridge(t)

	fut, err := Submit(b, Operation[int]{
		Name: "fail",
		Execute: func() (int, *ffi.Error) {
			return 0, &ffi.Error{Code: ffi.ErrBucketNotFound, Message: "no such bucket"}
		},
	})
	if err != nil {
		t.Fatalf("native failure must not surface synchronously: %v", err)
	}

	_, err = fut.Await(context.Background())
	if !errs.Is(err, errs.CodeBucketNotFound) {
		t.Fatalf("err = %v, want BucketNotFound", err)
	}
}

func TestSubmit_ValidationNeverDispatches(t *testing.T) {
	b := newTestBridge(t)

	before := b.Stats().Dispatched
	_, err := Submit(b, Operation[int]{
		Name:     "bad",
		Validate: func() error { return errs.Validation("key must not be empty") },
		Execute:  func() (int, *ffi.Error) { t.Error("execute ran"); return 0, nil },
	})
	if !errs.Is(err, errs.CodeValidation) {
		t.Fatalf("err = %v, want Validation", err)
	}
	if b.Stats().Dispatched != before {
		t.Fatal("validation failure dispatched a worker")
	}
}

func TestSubmit_TranslateAttachesPartialProgress(t *testing.T) {
	b := newTestBridge(t)

	fut, err := Submit(b, Operation[int64]{
		Name: "write",
		Execute: func() (int64, *ffi.Error) {
			return 512, &ffi.Error{Code: ffi.ErrStorageLimitExceeded}
		},
		Translate: func(ferr *ffi.Error, partial int64) *errs.Error {
			e := errs.Translate(ferr.Code, ferr.Message)
			e.BytesTransferred = partial
			return e
		},
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	_, err = fut.Await(context.Background())
	var typed *errs.Error
	if !errsAs(err, &typed) {
		t.Fatalf("err = %T", err)
	}
	if typed.BytesTransferred != 512 {
		t.Fatalf("BytesTransferred = %d", typed.BytesTransferred)
	}
}

func errsAs(err error, target **errs.Error) bool {
	e, ok := err.(*errs.Error)
	if ok {
		*target = e
	}
	return ok
}

func TestSubmit_ExclusiveHandleRejectsOverlap(t *testing.T) {
	b := newTestBridge(t)
	reg := handle.NewRegistry()
	h, _ := reg.Allocate(handle.KindUpload, "up")

	gate := make(chan struct{})
	started := make(chan struct{})

	fut, err := Submit(b, Operation[int]{
		Name:      "write",
		Exclusive: []handle.Handle{h},
		Execute: func() (int, *ffi.Error) {
			close(started)
			<-gate
			return 1, nil
		},
	})
	if err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}
	<-started

	dispatchedBefore := b.Stats().Dispatched
	_, err = Submit(b, Operation[int]{
		Name:      "write",
		Exclusive: []handle.Handle{h},
		Execute:   func() (int, *ffi.Error) { return 2, nil },
	})
	if !errs.Is(err, errs.CodeConcurrentAccess) {
		t.Fatalf("err = %v, want ConcurrentAccess", err)
	}
	if b.Stats().Dispatched != dispatchedBefore {
		t.Fatal("conflicting submit dispatched a worker")
	}

	close(gate)
	if _, err := fut.Await(context.Background()); err != nil {
		t.Fatalf("first op failed: %v", err)
	}

	// The handle is free again once the first call settles.
	fut2, err := Submit(b, Operation[int]{
		Name:      "write",
		Exclusive: []handle.Handle{h},
		Execute:   func() (int, *ffi.Error) { return 3, nil },
	})
	if err != nil {
		t.Fatalf("Submit after settle failed: %v", err)
	}
	if v, err := fut2.Await(context.Background()); err != nil || v != 3 {
		t.Fatalf("v=%d err=%v", v, err)
	}
}

func TestSubmit_ExclusiveHeldThroughComplete(t *testing.T) {
	b := newTestBridge(t)
	reg := handle.NewRegistry()
	h, _ := reg.Allocate(handle.KindAccess, "acc")

	gate := make(chan struct{})
	completing := make(chan struct{})

	// The first op frees its resource in Execute and drops the mapping
	// in Complete. The handle must stay claimed across that gap.
	fut, err := Submit(b, Operation[int]{
		Name:      "free",
		Exclusive: []handle.Handle{h},
		Execute:   func() (int, *ffi.Error) { return 1, nil },
		Complete: func(v int) (int, error) {
			close(completing)
			<-gate
			return v, nil
		},
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	<-completing

	_, err = Submit(b, Operation[int]{
		Name:      "overlap",
		Exclusive: []handle.Handle{h},
		Execute: func() (int, *ffi.Error) {
			t.Error("overlapping execute ran mid-completion")
			return 0, nil
		},
	})
	if !errs.Is(err, errs.CodeConcurrentAccess) {
		t.Fatalf("err = %v, want ConcurrentAccess while completion is running", err)
	}

	close(gate)
	if v, err := fut.Await(context.Background()); err != nil || v != 1 {
		t.Fatalf("v=%d err=%v", v, err)
	}

	// Once the future settles the claim is gone.
	fut2, err := Submit(b, Operation[int]{
		Name:      "next",
		Exclusive: []handle.Handle{h},
		Execute:   func() (int, *ffi.Error) { return 2, nil },
	})
	if err != nil {
		t.Fatalf("Submit after settle failed: %v", err)
	}
	if v, err := fut2.Await(context.Background()); err != nil || v != 2 {
		t.Fatalf("v=%d err=%v", v, err)
	}
}

func TestSubmit_PinBalance(t *testing.T) {
	b := newTestBridge(t)

	buf := make([]byte, 1024)

	// Success path.
	fut, err := Submit(b, Operation[int]{
		Name:    "ok",
		Buffer:  buf,
		Execute: func() (int, *ffi.Error) { return len(buf), nil },
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	fut.Await(context.Background())

	// Native error path.
	fut, _ = Submit(b, Operation[int]{
		Name:    "err",
		Buffer:  buf,
		Execute: func() (int, *ffi.Error) { return 0, &ffi.Error{Code: ffi.ErrInternal} },
	})
	fut.Await(context.Background())

	if got := b.Guard().Outstanding(); got != 0 {
		t.Fatalf("outstanding pins = %d", got)
	}
	if b.Guard().Pins() != 2 || b.Guard().Unpins() != 2 {
		t.Fatalf("pins=%d unpins=%d", b.Guard().Pins(), b.Guard().Unpins())
	}
}

func TestClose_CancelsExecutingItem(t *testing.T) {
	b := New(Config{Workers: 1, QueueDepth: 4})

	buf := make([]byte, 1<<20)
	gate := make(chan struct{})
	started := make(chan struct{})
	var discarded atomic.Int32

	fut, err := Submit(b, Operation[string]{
		Name:   "bigWrite",
		Buffer: buf,
		Execute: func() (string, *ffi.Error) {
			close(started)
			<-gate
			return "native-resource", nil
		},
		Discard: func(string) { discarded.Add(1) },
		Complete: func(string) (string, error) {
			t.Error("complete ran after teardown")
			return "", nil
		},
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	<-started

	// Close while the worker is inside the native call. Close blocks
	// until the workers exit, so release the gate once closing begins.
	clsDone := make(chan struct{})
	go func() {
		b.Close()
		close(clsDone)
	}()
	for !b.isClosed() {
		time.Sleep(time.Millisecond)
	}
	close(gate)

	_, err = fut.Await(context.Background())
	if !errs.Is(err, errs.CodeCanceled) {
		t.Fatalf("err = %v, want Canceled", err)
	}
	<-clsDone

	if b.Guard().Outstanding() != 0 {
		t.Fatalf("outstanding pins = %d", b.Guard().Outstanding())
	}
	if discarded.Load() != 1 {
		t.Fatalf("discard ran %d times", discarded.Load())
	}
	if st := b.Stats(); st.Cancelled != 1 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestClose_CancelsQueuedItems(t *testing.T) {
	b := New(Config{Workers: 1, QueueDepth: 8})

	gate := make(chan struct{})
	started := make(chan struct{})

	// Occupy the only worker.
	blocker, _ := Submit(b, Operation[int]{
		Name: "blocker",
		Execute: func() (int, *ffi.Error) {
			close(started)
			<-gate
			return 0, nil
		},
	})
	<-started

	// This one sits in the queue.
	queued, err := Submit(b, Operation[int]{
		Name:    "queued",
		Execute: func() (int, *ffi.Error) { return 7, nil },
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		b.Close()
		close(done)
	}()

	if _, err := queued.Await(context.Background()); !errs.Is(err, errs.CodeCanceled) {
		t.Fatalf("queued err = %v, want Canceled", err)
	}

	close(gate)
	if _, err := blocker.Await(context.Background()); !errs.Is(err, errs.CodeCanceled) {
		t.Fatalf("blocker err = %v, want Canceled", err)
	}
	<-done
}

func TestSubmit_AfterCloseFailsSynchronously(t *testing.T) {
	b := New(Config{Workers: 1})
	b.Close()

	_, err := Submit(b, Operation[int]{
		Name:    "late",
		Execute: func() (int, *ffi.Error) { return 0, nil },
	})
	if !errs.Is(err, errs.CodeCanceled) {
		t.Fatalf("err = %v, want Canceled", err)
	}
}

func TestFuture_AwaitContext(t *testing.T) {
	b := newTestBridge(t)

	gate := make(chan struct{})
	fut, _ := Submit(b, Operation[int]{
		Name: "slow",
		Execute: func() (int, *ffi.Error) {
			<-gate
			return 1, nil
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := fut.Await(ctx); err != context.DeadlineExceeded {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}

	close(gate)
	if v, err := fut.Await(context.Background()); err != nil || v != 1 {
		t.Fatalf("v=%d err=%v", v, err)
	}
}

func TestSubmit_ExactlyOnceExecuteAndComplete(t *testing.T) {
	b := newTestBridge(t)

	var executes, completes atomic.Int32
	const n = 32

	futs := make([]*Future[int], 0, n)
	for i := 0; i < n; i++ {
		fut, err := Submit(b, Operation[int]{
			Name: "counted",
			Execute: func() (int, *ffi.Error) {
				executes.Add(1)
				return 0, nil
			},
			Complete: func(v int) (int, error) {
				completes.Add(1)
				return v, nil
			},
		})
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		futs = append(futs, fut)
	}
	for _, fut := range futs {
		fut.Await(context.Background())
	}

	if executes.Load() != n || completes.Load() != n {
		t.Fatalf("executes=%d completes=%d, want %d each", executes.Load(), completes.Load(), n)
	}
}
