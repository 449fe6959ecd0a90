// Package uplinkbridge exposes a blocking, pointer-returning native
// storage client to concurrent Go callers.
//
// The native library hands out raw resources (access grants, project
// sessions, uploads, downloads, iterators), blocks the calling thread
// for every operation and expects every resource to be freed exactly
// once. This module keeps all of that behind three small mechanisms:
// opaque generation-checked handles, a worker-pool bridge settling
// futures, and buffer pinning for zero-copy transfers.
//
// # Architecture Overview
//
// The module is organized into several packages with distinct
// responsibilities:
//
//	uplink-bridge/       Root package documentation
//	├── uplink/          High-level client API over the native library
//	├── bridge/          Worker pool: submit/execute/complete, futures
//	├── handle/          Handle registry with generation counters
//	├── cursor/          Iterator bridge: Create/Next/Item/Err/Free
//	├── pin/             Buffer pinning for in-flight transfers
//	├── errs/            Typed errors and the native code registry
//	└── ffi/             Native library contract and its test double
//
// # Quick Start
//
// Open a session and upload an object:
//
//	c := uplink.NewClient(lib, uplink.Options{})
//	defer c.Close()
//
//	fut, err := c.ParseAccess(serialized)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	access, err := fut.Await(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	proj, _ := c.OpenProject(access)
//	// every operation returns a future; Await honors the context.
//
// Every operation validates its arguments synchronously, runs its one
// native call on a worker goroutine and settles a future. Handles stay
// valid until the operation that semantically finishes them (commit,
// abort, close, free) resolves, and Client.Close releases whatever is
// left.
package uplinkbridge
