package bridge

import (
	"github.com/skystor/uplink-bridge/errs"
	"github.com/skystor/uplink-bridge/ffi"
	"github.com/skystor/uplink-bridge/handle"
)

// Operation describes one bridged native call as three strategies plus
// declarative resource needs. T is the raw value produced by Execute
// and, after Complete, the value the future resolves with.
type Operation[T any] struct {
	// Name identifies the operation in logs and cancellation errors.
	Name string

	// Validate runs on the caller goroutine before anything is pinned
	// or dispatched. It resolves handles and checks argument shapes;
	// a non-nil error is returned synchronously from Submit and no
	// worker ever sees the call. Optional.
	Validate func() error

	// Exclusive lists handles that must not have another bridged call
	// in flight. Submit fails synchronously with ConcurrentAccess when
	// one already does. The claim lasts until the Complete or Discard
	// step has run, so registry mutations never overlap on a handle.
	Exclusive []handle.Handle

	// Buffer is the caller buffer the native call reads or writes, or
	// nil. It is pinned for the lifetime of the work item and unpinned
	// exactly once at completion, on every outcome.
	Buffer []byte

	// Execute runs the single blocking native call on a worker
	// goroutine. It must not touch the registry and reports native
	// failure as a *ffi.Error rather than panicking.
	Execute func() (T, *ffi.Error)

	// Translate overrides the default error mapping, letting transfer
	// operations attach partial byte counts to the typed error.
	// Optional; the default is errs.Translate on code and message.
	Translate func(ferr *ffi.Error, partial T) *errs.Error

	// Complete runs after a successful Execute. It deep-copies or
	// registers what Execute produced and returns the caller-facing
	// value; its error rejects the future. Optional.
	Complete func(res T) (T, error)

	// Discard releases a native resource produced by Execute when
	// teardown cancels the work item before completion, so cancelled
	// calls leak nothing. Optional.
	Discard func(res T)
}
