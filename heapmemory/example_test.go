package heapmemory_test

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"github.com/bombela/safebox/heapmemory"
)

func ExampleSecretFactory_New() {
	factory := new(heapmemory.SecretFactory)

	secret, err := factory.New([]byte("some really secret value"))
	if err != nil {
		panic("unexpected error!")
	}

	defer secret.Close()

	// do something with the secret...
	fmt.Println(secret.IsClosed())
	// Output: false
}

func ExampleSecretFactory_NewFilled() {
	factory := new(heapmemory.SecretFactory)

	secret, err := factory.NewFilled(8, 0x41)
	if err != nil {
		panic("unexpected error!")
	}

	defer secret.Close()

	err = secret.WithBytes(func(bytes []byte) error {
		// You obviously shouldn't ever print a secret but this is just an example
		fmt.Printf("%s", bytes)
		return nil
	})
	if err != nil {
		panic("unexpected error!")
	}

	// Output: AAAAAAAA
}

func ExampleSecretFactory_NewGenerated() {
	factory := new(heapmemory.SecretFactory)

	// the generator fills the backing region in place, e.g. from a random
	// source; here it is deterministic for the sake of the example
	secret, err := factory.NewGenerated(4, func(b []byte) (int, error) {
		for i := range b {
			b[i] = byte('0' + i)
		}
		return len(b), nil
	})
	if err != nil {
		panic("unexpected error!")
	}

	defer secret.Close()

	err = secret.WithBytes(func(bytes []byte) error {
		fmt.Printf("%s", bytes)
		return nil
	})
	if err != nil {
		panic("unexpected error!")
	}

	// Output: 0123
}

func ExampleSecretFactory_CreateRandom() {
	factory := new(heapmemory.SecretFactory)

	secret, err := factory.CreateRandom(32)
	if err != nil {
		panic("unexpected error!")
	}

	defer secret.Close()

	// do something with the secret...
	fmt.Println(secret.IsClosed())
	// Output: false
}

// ExampleSecretFactory_withBytesMut demonstrates in-place initialization of a
// secret through the write gate.
func ExampleSecretFactory_withBytesMut() {
	factory := new(heapmemory.SecretFactory)

	secret, err := factory.NewFilled(8, 0)
	if err != nil {
		panic("unexpected error!")
	}

	defer secret.Close()

	err = secret.WithBytesMut(func(bytes []byte) error {
		// write the secret material in place, without intermediate copies
		copy(bytes, "8 chars!")
		return nil
	})
	if err != nil {
		panic("unexpected error!")
	}

	fmt.Println(secret.Len())
	// Output: 8
}

// ExampleSecretFactory_withBytesFunc demonstrates the use of WithBytesFunc to
// derive an exportable value from a secret's protected byte slice.
func ExampleSecretFactory_withBytesFunc() {
	factory := new(heapmemory.SecretFactory)

	secret, err := factory.CreateRandom(32)
	if err != nil {
		panic("unexpected error!")
	}

	defer secret.Close()

	// In this example we're encoding our underlying secret data using base64
	encodedBytes, err := secret.WithBytesFunc(func(bytes []byte) ([]byte, error) {
		return []byte(base64.StdEncoding.EncodeToString(bytes)), nil
	})
	if err != nil {
		panic("unexpected error!")
	}

	decodedBytes, err := base64.StdEncoding.DecodeString(string(encodedBytes))
	if err != nil {
		panic("unexpected error!")
	}

	fmt.Printf("my decoded payload is %d bytes long", len(decodedBytes))
	// Output:
	// my decoded payload is 32 bytes long
}

// ExampleSecretFactory_newReader demonstrates working with a secret using the standard io.Reader interface.
func ExampleSecretFactory_newReader() {
	factory := new(heapmemory.SecretFactory)

	// ignoring errors for simplicity
	s1, _ := factory.New([]byte("first "))
	s2, _ := factory.New([]byte("second "))
	s3, _ := factory.New([]byte("third"))

	defer s1.Close()
	defer s2.Close()
	defer s3.Close()

	r := io.MultiReader(s1.NewReader(), s2.NewReader(), s3.NewReader())

	if _, err := io.Copy(os.Stdout, r); err != nil {
		fmt.Println(err)
	}

	// Output: first second third
}
