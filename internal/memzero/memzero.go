// Package memzero implements the destruction-time wipe for secret memory.
package memzero

import (
	"runtime"
	"sync/atomic"
)

// fence receives a sequentially consistent read-modify-write after every wipe.
// On all supported architectures this compiles to a full memory barrier,
// ordering the zeroing stores before any later release or reuse of the region.
var fence uint32

// Wipe overwrites b with zeroes.
//
// The memory is typically about to be freed, so from the optimizer's point of
// view the stores are dead. Wipe guarantees they happen anyway: b is kept
// reachable across the stores (see https://github.com/golang/go/issues/33325)
// and the trailing atomic acts as the ordering barrier between "zeroed" and
// "released". A zero-length or nil slice is a no-op.
func Wipe(b []byte) {
	if len(b) == 0 {
		return
	}

	for i := range b {
		b[i] = 0
	}

	atomic.AddUint32(&fence, 1)

	runtime.KeepAlive(b)
}
