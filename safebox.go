package safebox

import (
	"io"

	"github.com/rcrowley/go-metrics"
)

var (
	// AllocCounter is used to track cumulative secret allocations.
	//
	// AllocCounter increases as secret objects are allocated, but unlike
	// InUseCounter, it does not decrease as secrets are released.
	AllocCounter = metrics.GetOrRegisterCounter("secret.allocated", nil)

	// InUseCounter is used to track the number of secret objects currently in use.
	//
	// InUseCounter increases as secret objects are allocated and decreases
	// as secrets are released.
	InUseCounter = metrics.GetOrRegisterCounter("secret.inuse", nil)
)

// Secret contains sensitive memory and owns its backing byte region for the
// lifetime of the value. Always call Close after use to ensure the bytes are
// wiped and the memory is released.
type Secret interface {
	// WithBytes makes the underlying bytes readable and passes them to the function action.
	// It returns the error returned by action.
	//
	// Calling WithBytes on a closed secret is an error.
	//
	// A reference MUST not be kept to the bytes passed to the function, and the
	// contents MUST not be copied into longer-lived storage. Calling this entry
	// point is the caller's acknowledgment of that obligation.
	WithBytes(action func([]byte) error) error

	// WithBytesMut makes the underlying bytes writable and passes them to the
	// function action. It returns the error returned by action.
	//
	// The contract of WithBytes applies, and additionally the action MUST write
	// in place: swapping in a different backing array or moving the current
	// contents elsewhere leaves secret material behind that will never be wiped.
	WithBytesMut(action func([]byte) error) error

	// WithBytesFunc makes the underlying bytes readable and passes them to the function action. It
	// returns the byte slice returned by action.
	//
	// The byte slice returned by action is a deliberate export, e.g. an encoding
	// derived from the secret. The WithBytes aliasing contract applies to the
	// slice passed in.
	WithBytesFunc(action func([]byte) ([]byte, error)) ([]byte, error)

	// Len returns the byte count of the secret, fixed at construction. It
	// carries no aliasing obligation.
	Len() int

	// IsClosed returns true if the underlying data container has already been closed.
	IsClosed() bool

	// Close wipes the underlying bytes and frees the associated memory. The
	// wipe always completes before the memory is released. Close is idempotent.
	Close() error

	// NewReader returns a new io.Reader reading from the underlying Secret.
	NewReader() io.Reader
}

// SecretFactory is the interface for creating specific implementations of a Secret.
type SecretFactory interface {
	// New takes in a byte slice and returns a Secret containing an independent
	// copy of that data. The source slice is neither modified nor aliased.
	New(b []byte) (Secret, error)

	// NewFilled returns a Secret of the specified size with every byte set to v.
	NewFilled(size int, v byte) (Secret, error)

	// NewGenerated returns a Secret of the specified size populated by fill,
	// which receives the backing region and writes its content in place.
	NewGenerated(size int, fill func([]byte) (int, error)) (Secret, error)

	// CreateRandom returns a Secret that contains a random byte slice of the specified size.
	CreateRandom(size int) (Secret, error)
}
