// Package keycrypto holds the cryptographic primitives behind the vault:
// entropy, locked memory for secrets, and the two password envelopes.
package keycrypto

import (
	"crypto/rand"
	"io"
)

// source returns r, or the operating system CSPRNG when r is nil.
func source(r io.Reader) io.Reader {
	if r == nil {
		return rand.Reader
	}
	return r
}

// RandomBytes reads n bytes from r (crypto/rand when nil).
func RandomBytes(r io.Reader, n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(source(r), b); err != nil {
		return nil, err
	}
	return b, nil
}
