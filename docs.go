/*
Package safebox provides a container for sensitive byte data (cryptographic keys,
passwords, tokens) that lowers the risk of the secret lingering in memory after it
is no longer needed.

The backing region is wiped with zeroes when a secret is closed, using a write
sequence the compiler cannot eliminate and an ordering barrier so the wipe is not
reordered past the release of the memory. All access to the bytes goes through
gated accessors that scope the view to a callback, keeping every access site
conspicuous and making it harder to leave stray copies behind.

Operating-system level protections (page locking, memory protection, swap and
hibernation handling) are deliberately not attempted here; callers needing them
must layer OS mechanisms externally.

	package main

	import (
		"github.com/bombela/safebox/heapmemory"
	)

	func main() {
		factory := new(heapmemory.SecretFactory)

		secret, err := factory.New(getSecretFromStore())
		if err != nil {
			panic("unexpected error!")
		}
		defer secret.Close()

		err = secret.WithBytes(func(b []byte) error {
			doSomethingWithSecretBytes(b)
			return nil
		})
		if err != nil {
			panic("unexpected error!")
		}
	}
*/
package safebox
