// Package ffitest provides an in-memory fake of the native storage
// client for tests and demos.
//
// The Mock keeps buckets and objects in plain maps and implements the
// full ffi.Library contract with the native library's observable
// behaviors: blocking calls, typed error codes, EOF on exhausted
// downloads, and iterator items whose backing memory is reused between
// Next calls (so a missing deep copy corrupts results instead of
// passing silently).
//
// Test hooks:
//
//   - FailNext(op, err) makes the next call of op fail with err.
//   - GateOp(op) blocks calls of op until the returned release func
//     runs, for exercising teardown while a call is executing.
//   - Allocs, Frees, DoubleFrees and UniverseIsEmpty assert the
//     resource lifecycle: every allocation freed exactly once.
//
// Op names are the lowercase dotted forms used throughout, e.g.
// "project.statBucket", "upload.write", "download.read",
// "bucketIterator.next".
package ffitest
