// Package bridge hands blocking native calls to a bounded worker pool
// and settles futures, so a single native call never blocks the
// caller's goroutine.
//
// Every bridged operation moves through the same three phases:
//
//	submit   - caller goroutine: validate arguments, resolve handles,
//	           pin buffers. Failures return synchronously; malformed
//	           calls never dispatch work.
//	execute  - worker goroutine: exactly one blocking native call,
//	           touching only raw resources and pinned buffers captured
//	           at submit time. Never the registry.
//	complete - translate native errors through the errs registry,
//	           register newly produced resources as handles, unpin
//	           buffers, settle the future.
//
// A native failure never surfaces synchronously; it always arrives as
// a rejected future, keeping every call site's error handling uniform.
// Teardown (Close) settles anything still in flight as Canceled instead
// of leaving futures pending.
//
// Operations are described declaratively by Operation[T], so each
// resource domain supplies only its three strategies instead of
// duplicating the submit/execute/complete machinery.
package bridge
