// Package memcall wraps the raw page allocator behind small, mockable
// interfaces. Allocations come from mmap'd pages outside the Go heap, so the
// runtime never moves or duplicates the region, the deallocation path is
// fixed at allocation time, and an out-of-memory condition surfaces as an
// error instead of an abort.
//
// The lock and protect surfaces of the underlying package are intentionally
// not wrapped: page locking and memory protection are OS-level concerns left
// to the caller.
package memcall

import "github.com/awnumar/memcall"

type Allocator interface {
	Alloc(size int) ([]byte, error)
}

type Freer interface {
	Free([]byte) error
}

// Interface provides an interface for wrapping memcall functions.
type Interface interface {
	Allocator
	Freer
}

// wrapper implements Interface
type wrapper struct {
}

// Default is a default implementation of Interface that directly wraps
// functions exported by the memcall package.
var Default Interface = &wrapper{}

func (*wrapper) Alloc(size int) ([]byte, error) {
	return memcall.Alloc(size)
}

func (*wrapper) Free(b []byte) error {
	return memcall.Free(b)
}
