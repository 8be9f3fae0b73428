package keycrypto

import (
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// SaltSize is the Argon2id salt length in bytes.
const SaltSize = 16

// KDFParams configures Argon2id hardness values.
type KDFParams struct {
	MemoryKiB uint32 `json:"memory_kib"`
	Time      uint32 `json:"time"`
	Threads   uint8  `json:"threads"`
	KeyLen    uint32 `json:"key_len"`
}

// DefaultKDFParams returns the cost used when the config does not set one.
func DefaultKDFParams() KDFParams {
	return KDFParams{
		MemoryKiB: 64 * 1024,
		Time:      3,
		Threads:   4,
		KeyLen:    chacha20poly1305.KeySize,
	}
}

// Validate reports whether the parameters can drive argon2.IDKey.
func (p KDFParams) Validate() error {
	if p.Time == 0 || p.Threads == 0 || p.MemoryKiB < 8*uint32(p.Threads) {
		return fmt.Errorf("%w: argon2id cost out of range", ErrMalformed)
	}
	if p.KeyLen != chacha20poly1305.KeySize {
		return fmt.Errorf("%w: key length %d", ErrMalformed, p.KeyLen)
	}
	return nil
}

// DeriveKey stretches password with Argon2id. The caller zeroes the result.
func DeriveKey(password string, salt []byte, p KDFParams) []byte {
	return argon2.IDKey([]byte(password), salt, p.Time, p.MemoryKiB, p.Threads, p.KeyLen)
}

// SealXChaCha encrypts plaintext with XChaCha20-Poly1305 under key, binding aad.
// The nonce is read from r (crypto/rand when nil).
func SealXChaCha(r io.Reader, key, plaintext, aad []byte) (nonce, ciphertext []byte, err error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, nil, fmt.Errorf("creating cipher: %w", err)
	}
	nonce, err = RandomBytes(r, chacha20poly1305.NonceSizeX)
	if err != nil {
		return nil, nil, fmt.Errorf("generating nonce: %w", err)
	}
	return nonce, aead.Seal(nil, nonce, plaintext, aad), nil
}

// OpenXChaCha reverses SealXChaCha into locked memory.
// The Poly1305 tag comparison is constant time.
func OpenXChaCha(key, nonce, ciphertext, aad []byte) (*SecureBytes, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if len(nonce) != chacha20poly1305.NonceSizeX {
		return nil, fmt.Errorf("%w: invalid nonce size", ErrMalformed)
	}
	if len(ciphertext) < aead.Overhead() {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrMalformed)
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, ErrAuthFailed
	}
	defer Zero(plaintext)

	return SecureBytesFromSlice(plaintext)
}
