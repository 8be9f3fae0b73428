package keycrypto

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"filippo.io/age"
)

var (
	// ErrAuthFailed means the ciphertext did not authenticate under the
	// supplied password.
	ErrAuthFailed = errors.New("ciphertext authentication failed")

	// ErrMalformed means the ciphertext could not be parsed at all.
	ErrMalformed = errors.New("malformed ciphertext")
)

// AgeEncrypt encrypts plaintext to an age scrypt recipient. A workFactor of
// zero keeps age's default (log2 N = 18).
func AgeEncrypt(plaintext []byte, password string, workFactor int) ([]byte, error) {
	recipient, err := age.NewScryptRecipient(password)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt recipient: %w", err)
	}
	if workFactor > 0 {
		recipient.SetWorkFactor(workFactor)
	}

	buf := &bytes.Buffer{}
	w, err := age.Encrypt(buf, recipient)
	if err != nil {
		return nil, fmt.Errorf("initializing encryption: %w", err)
	}

	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("writing encrypted data: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encryption: %w", err)
	}

	return buf.Bytes(), nil
}

// AgeDecrypt reverses AgeEncrypt into locked memory. A wrong password yields
// ErrAuthFailed; anything else that prevents decryption yields ErrMalformed.
func AgeDecrypt(ciphertext []byte, password string, maxWorkFactor int) (*SecureBytes, error) {
	identity, err := age.NewScryptIdentity(password)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}
	if maxWorkFactor > 0 {
		identity.SetMaxWorkFactor(maxWorkFactor)
	}

	r, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		var noMatch *age.NoIdentityMatchError
		if errors.As(err, &noMatch) || errors.Is(err, age.ErrIncorrectIdentity) {
			return nil, ErrAuthFailed
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	plaintext, err := io.ReadAll(r)
	defer Zero(plaintext)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	return SecureBytesFromSlice(plaintext)
}
