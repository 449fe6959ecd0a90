// Package pin keeps caller-supplied byte buffers alive while a worker
// goroutine holds them across a blocking native call.
//
// Pinning is zero-copy: the worker reads from or writes into the
// caller's buffer directly. The guard holds the only extra reference
// and keeps pin/unpin accounting so tests can assert that every pin is
// balanced by exactly one unpin across success, native-error and
// cancellation paths.
//
// Native-owned transient memory (such as an iterator's current item) is
// never pinned; it must be deep-copied into Go-owned memory before it
// crosses back to the caller.
package pin

import (
	"runtime"
	"sync/atomic"
)

// Guard issues pin tokens and tracks their balance.
type Guard struct {
	pins   atomic.Int64
	unpins atomic.Int64
}

// NewGuard creates a guard with zero outstanding pins.
func NewGuard() *Guard {
	return &Guard{}
}

// Token holds one pinned buffer for the duration of one in-flight
// operation. Tokens are created by Pin and retired by Unpin.
type Token struct {
	buf      []byte
	guard    *Guard
	released atomic.Bool
}

// Pin takes a reference to buf so it stays reachable until Unpin. A nil
// or empty buffer yields a token all the same, keeping the pin/unpin
// pairing uniform for every buffer-carrying operation.
func (g *Guard) Pin(buf []byte) *Token {
	g.pins.Add(1)
	return &Token{buf: buf, guard: g}
}

// Bytes returns the pinned buffer for the worker to read or write.
func (t *Token) Bytes() []byte { return t.buf }

// Unpin releases the buffer. Only the first call counts; the bridge
// completion path guarantees exactly one, and the counters expose any
// violation.
func (t *Token) Unpin() {
	if !t.released.CompareAndSwap(false, true) {
		return
	}
	// The buffer must stay reachable up to this point even if the
	// caller dropped its own reference mid-flight.
	runtime.KeepAlive(t.buf)
	t.buf = nil
	t.guard.unpins.Add(1)
}

// Outstanding reports pins minus unpins. Zero after all operations
// settle means no leak and no double-unpin.
func (g *Guard) Outstanding() int64 {
	return g.pins.Load() - g.unpins.Load()
}

// Pins reports the total number of Pin calls.
func (g *Guard) Pins() int64 { return g.pins.Load() }

// Unpins reports the total number of effective Unpin calls.
func (g *Guard) Unpins() int64 { return g.unpins.Load() }
