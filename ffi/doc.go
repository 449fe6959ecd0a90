// Package ffi declares the contract of the native storage client this
// module bridges. The native library itself is an external collaborator:
// every method here stands in for one blocking C-ABI call that is safe
// to invoke from exactly one goroutine at a time per resource.
//
// Nothing in this package performs network or crypto work. The real
// binding plugs in an implementation of Library; tests use the
// in-memory fake in ffi/ffitest.
//
// # Ownership rules
//
// Values returned by Library and resource methods follow the native
// library's ownership model:
//
//   - Resources (Access, Project, Upload, Download, PartUpload,
//     EncryptionKey, iterators) must be released via Free exactly once.
//   - Iterator Item values are borrowed views. The backing memory is
//     invalidated by the following Next call, so an item must be
//     deep-copied (Clone) before it outlives the cursor position.
//   - Plain value results (BucketInfo, ObjectInfo, ...) returned by
//     non-iterator calls are copied into Go-owned memory at this
//     boundary and need no explicit free.
package ffi
