package memcall

import (
	"github.com/pkg/errors"

	"github.com/bombela/safebox/internal/memzero"
)

// Clean wipes b and releases it using c. It is used on construction error
// paths where secret material may already have been written into a region
// that is about to be abandoned: the wipe always runs before the free.
func Clean(c Freer, b []byte) error {
	memzero.Wipe(b)

	// A zero-length region was never allocated and has nothing to free.
	if len(b) == 0 {
		return nil
	}

	if err := c.Free(b); err != nil {
		return errors.WithStack(err)
	}

	return nil
}
