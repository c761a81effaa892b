// Package heapmemory implements heap backed secrets that are wiped on close.
package heapmemory

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"

	"github.com/bombela/safebox"
	"github.com/bombela/safebox/internal/memcall"
	"github.com/bombela/safebox/internal/memzero"
	"github.com/bombela/safebox/internal/secrets"
	"github.com/bombela/safebox/log"
)

// AllocTimer is used to record the time taken to allocate a secret.
var AllocTimer = metrics.GetOrRegisterTimer("secret.heapmemory.alloctimer", nil)

type secretError string

func (e secretError) Error() string {
	return string(e)
}

const (
	secretClosedErr    secretError = "secret has already been destroyed"
	secretGeneratorErr secretError = "nil secret generator"
)

// secret owns a fixed-size byte region for the lifetime of the value and
// wipes it on close. Always call Close after use to avoid the secret
// lingering in memory.
type secret struct {
	*secretInternal
	// dummy is used for attaching a finalizer since attaching one to the secret itself results in it always having a reference.
	dummy *bool
}

// secretInternal is an abstraction needed to allow us to close the secret without referencing it directly in a finalizer.
type secretInternal struct {
	bytes   []byte
	size    int
	mc      memcall.Interface
	rw      *sync.RWMutex
	c       *sync.Cond
	closing bool
	closed  bool

	// stack contains a formatted stack trace collected when the secret was created, only set if DebugEnabled.
	stack        []byte
	externalAddr string

	accessCounter int
}

// WithBytes makes the underlying bytes readable and passes them to the function provided.
// A reference MUST not be kept to the bytes passed to the function, and the contents
// MUST not be copied into longer-lived storage.
func (s *secret) WithBytes(action func([]byte) error) error {
	if err := s.access(); err != nil {
		return err
	}

	defer s.release()

	return action(s.bytes)
}

// WithBytesMut makes the underlying bytes writable and passes them to the function provided.
// The WithBytes contract applies; additionally the action must write in place and must not
// swap in a different backing array, which would leave the old content un-wiped.
func (s *secret) WithBytesMut(action func([]byte) error) error {
	if err := s.access(); err != nil {
		return err
	}

	defer s.release()

	return action(s.bytes)
}

// WithBytesFunc makes the underlying bytes readable and passes them to the function provided.
// The returned byte slice is a deliberate export derived from the secret. The WithBytes
// aliasing contract applies to the slice passed to action.
func (s *secret) WithBytesFunc(action func([]byte) ([]byte, error)) ([]byte, error) {
	if err := s.access(); err != nil {
		return nil, err
	}

	defer s.release()

	return action(s.bytes)
}

// Len returns the byte count of the secret, fixed at construction.
func (s *secret) Len() int {
	return s.size
}

// IsClosed returns true if the underlying data container has already been closed
func (s *secret) IsClosed() bool {
	return s.isClosed()
}

// NewReader returns a new io.Reader capable of reading from s.
func (s *secret) NewReader() io.Reader {
	return secrets.NewReader(s)
}

// access registers a gated access, failing if the secret is closed or closing.
func (s *secretInternal) access() error {
	s.rw.Lock()
	defer s.rw.Unlock()

	if s.closing || s.closed {
		return errors.WithStack(secretClosedErr)
	}

	s.accessCounter++

	return nil
}

// release unregisters a gated access and wakes any pending Close.
func (s *secretInternal) release() {
	s.rw.Lock()
	defer s.rw.Unlock()

	s.accessCounter--
	s.c.Broadcast()
}

// isClosed is the actual implementation of secret.IsClosed. It needs to be implemented at this level in order
// to unit test the finalizer (to avoid a reference to the secret).
func (s *secretInternal) isClosed() bool {
	s.rw.RLock()
	defer s.rw.RUnlock()

	return s.closed
}

func (s *secretInternal) Finalize() {
	s.rw.Lock()
	if !s.closing {
		log.Debugf("finalized before closed: secret(%s){inner(%p)}\n%s\n", s.externalAddr, s, s.stack)
	}
	s.rw.Unlock()

	s.Close()
}

// Close wipes the secret and frees any associated memory. It waits for
// in-flight gated accesses to drain, so the wipe never overlaps a live view.
func (s *secretInternal) Close() error {
	s.rw.Lock()
	defer s.rw.Unlock()

	s.closing = true

	for {
		if s.closed {
			return nil
		}

		if s.accessCounter == 0 {
			return s.close()
		}

		s.c.Wait()
	}
}

// close is the actual implementation of secret.Close. It needs to be implemented at this level in order for
// the finalizer to work properly (to avoid a reference to the secret).
func (s *secretInternal) close() error {
	// Wipe the memory. The wipe is ordered before the free.
	memzero.Wipe(s.bytes)

	// Free all related memory. Empty secrets never allocated.
	if len(s.bytes) > 0 {
		if err := s.mc.Free(s.bytes); err != nil {
			return err
		}
	}

	s.bytes = nil
	s.closed = true

	safebox.InUseCounter.Dec(1)

	return nil
}

// SecretFactory is used to create heap memory backed Secret implementations.
type SecretFactory struct {
	mc memcall.Interface
}

func (f *SecretFactory) memcall() memcall.Interface {
	if f.mc == nil {
		f.mc = memcall.Default
	}

	return f.mc
}

// New takes in a byte slice and returns a heap memory backed Secret containing an
// independent copy of that data. The source slice is neither modified nor aliased;
// wiping it remains the caller's responsibility.
func (f *SecretFactory) New(b []byte) (safebox.Secret, error) {
	defer AllocTimer.UpdateSince(time.Now())

	secret, err := newSecret(len(b), f.memcall())
	if err != nil {
		return nil, err
	}

	subtle.ConstantTimeCopy(1, secret.bytes, b)

	registerAllocation()

	return secret, nil
}

// NewFilled returns a heap memory backed Secret of the specified size with every
// byte set to v.
func (f *SecretFactory) NewFilled(size int, v byte) (safebox.Secret, error) {
	defer AllocTimer.UpdateSince(time.Now())

	secret, err := newSecret(size, f.memcall())
	if err != nil {
		return nil, err
	}

	for i := range secret.bytes {
		secret.bytes[i] = v
	}

	registerAllocation()

	return secret, nil
}

// NewGenerated returns a heap memory backed Secret of the specified size whose
// content is produced by fill, which receives the backing region and writes it in
// place. fill may be non-deterministic, e.g. a random source. If fill returns an
// error the partially written region is wiped and freed, and no Secret is returned.
func (f *SecretFactory) NewGenerated(size int, fill func([]byte) (int, error)) (safebox.Secret, error) {
	defer AllocTimer.UpdateSince(time.Now())

	if fill == nil {
		return nil, errors.WithStack(secretGeneratorErr)
	}

	secret, err := newSecret(size, f.memcall())
	if err != nil {
		return nil, err
	}

	if _, err := fill(secret.bytes); err != nil {
		// Free up the resources, wiping whatever the generator managed to write.
		// We intentionally return the reason why we got here, annotated with any
		// cleanup error.
		if err2 := memcall.Clean(f.memcall(), secret.bytes); err2 != nil {
			err = errors.Wrap(err, err2.Error())
		}

		return nil, err
	}

	registerAllocation()

	return secret, nil
}

// CreateRandom returns a heap memory backed Secret that contains a random byte
// slice of the specified size.
func (f *SecretFactory) CreateRandom(size int) (safebox.Secret, error) {
	return f.NewGenerated(size, rand.Read)
}

func registerAllocation() {
	safebox.AllocCounter.Inc(1)
	safebox.InUseCounter.Inc(1)
}

// newSecret handles the core allocation/setup of a new secret of the given size.
func newSecret(size int, mc memcall.Interface) (*secret, error) {
	if size < 0 {
		return nil, errors.New("invalid secret length")
	}

	// A zero-length secret is valid and owns no allocation.
	bytes := []byte{}

	if size > 0 {
		// allocate memory via mmap (will round up to next page size)
		b, err := mc.Alloc(size)
		if err != nil {
			return nil, err
		}

		bytes = b
	}

	// We have to use a wrapper structure with a dummy reference for the finalizer to trigger properly
	rw := new(sync.RWMutex)
	internal := &secretInternal{
		rw:    rw,
		c:     sync.NewCond(rw),
		mc:    mc,
		bytes: bytes,
		size:  size,
	}

	secret := &secret{
		secretInternal: internal,
		dummy:          new(bool),
	}

	if log.DebugEnabled() {
		internal.externalAddr = fmt.Sprintf("%p", secret)
		internal.stack = debug.Stack()
	}

	// Finalizer attaches to dummy reference so we can cleanup secret when it goes out of scope. We have to use
	// secretInternal to call close to avoid keeping the secret in scope by virtue of the finalizer setup.
	runtime.SetFinalizer(secret.dummy, func(_ *bool) {
		go internal.Finalize()
	})

	return secret, nil
}
