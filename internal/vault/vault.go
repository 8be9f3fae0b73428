// Package vault seals the wallet secret under a password and persists the
// resulting record. There is at most one record per installation.
package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/verox-wallet/verox/internal/keycrypto"
	"github.com/verox-wallet/verox/internal/kvstore"
	veroxerr "github.com/verox-wallet/verox/pkg/errors"
)

// RecordKey is the storage key of the vault record.
const RecordKey = "vault"

// RecordVersion is the current record layout.
const RecordVersion = 1

// Encryption methods.
const (
	MethodArgon2id = "argon2id" // Argon2id + XChaCha20-Poly1305
	MethodAge      = "age"      // age scrypt recipient
)

// KDF describes how the encryption key was stretched from the password.
type KDF struct {
	Name       string               `json:"name"`
	Salt       []byte               `json:"salt,omitempty"`
	Argon2     *keycrypto.KDFParams `json:"argon2,omitempty"`
	ScryptLogN int                  `json:"scrypt_log_n,omitempty"`
}

// Record is the persisted, encrypted form of the wallet secret.
// Address is plaintext metadata so the wallet can be identified while locked.
type Record struct {
	Version   int       `json:"version"`
	Method    string    `json:"method"`
	KDF       KDF       `json:"kdf"`
	Nonce     []byte    `json:"nonce,omitempty"`
	Cipher    []byte    `json:"cipher"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// Ceilings applied to the cost a stored record may ask Open to pay.
const (
	DefaultMaxArgon2MemoryKiB  = 1024 * 1024 // 1 GiB
	DefaultMaxArgon2Time       = 64
	DefaultMaxScryptWorkFactor = 22
)

// Options fixes the cost parameters used by Seal and the ceilings enforced
// by Open. A ceiling is never below the matching Seal cost.
type Options struct {
	Method           string
	Argon2           keycrypto.KDFParams
	ScryptWorkFactor int

	MaxArgon2MemoryKiB  uint32
	MaxArgon2Time       uint32
	MaxScryptWorkFactor int

	// Entropy supplies salts and nonces; nil means crypto/rand.
	Entropy io.Reader
	Now     func() time.Time
}

// Store reads and writes the vault record.
type Store struct {
	kv   kvstore.Store
	opts Options
}

// New returns a Store persisting through kv.
func New(kv kvstore.Store, opts Options) *Store {
	if opts.Method == "" {
		opts.Method = MethodArgon2id
	}
	if opts.Argon2 == (keycrypto.KDFParams{}) {
		opts.Argon2 = keycrypto.DefaultKDFParams()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MaxArgon2MemoryKiB == 0 {
		opts.MaxArgon2MemoryKiB = DefaultMaxArgon2MemoryKiB
	}
	if opts.MaxArgon2Time == 0 {
		opts.MaxArgon2Time = DefaultMaxArgon2Time
	}
	if opts.MaxScryptWorkFactor == 0 {
		opts.MaxScryptWorkFactor = DefaultMaxScryptWorkFactor
	}
	opts.MaxArgon2MemoryKiB = max(opts.MaxArgon2MemoryKiB, opts.Argon2.MemoryKiB)
	opts.MaxArgon2Time = max(opts.MaxArgon2Time, opts.Argon2.Time)
	opts.MaxScryptWorkFactor = max(opts.MaxScryptWorkFactor, opts.ScryptWorkFactor)
	return &Store{kv: kv, opts: opts}
}

// Seal encrypts secret under password and replaces any existing record.
// The caller keeps ownership of secret.
func (s *Store) Seal(ctx context.Context, secret []byte, password, address string) (*Record, error) {
	rec := &Record{
		Version:   RecordVersion,
		Method:    s.opts.Method,
		Address:   address,
		CreatedAt: s.opts.Now().UTC(),
	}

	switch s.opts.Method {
	case MethodArgon2id:
		if err := s.sealArgon2id(rec, secret, password); err != nil {
			return nil, err
		}
	case MethodAge:
		ct, err := keycrypto.AgeEncrypt(secret, password, s.opts.ScryptWorkFactor)
		if err != nil {
			return nil, fmt.Errorf("sealing with age: %w", err)
		}
		rec.KDF = KDF{Name: "scrypt", ScryptLogN: s.opts.ScryptWorkFactor}
		rec.Cipher = ct
	default:
		return nil, veroxerr.WithDetails(veroxerr.ErrConfigInvalid, map[string]string{"vault.method": s.opts.Method})
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encoding vault record: %w", err)
	}
	if err := s.kv.Put(ctx, RecordKey, data); err != nil {
		return nil, veroxerr.Storage(err)
	}
	return rec, nil
}

func (s *Store) sealArgon2id(rec *Record, secret []byte, password string) error {
	params := s.opts.Argon2
	salt, err := keycrypto.RandomBytes(s.opts.Entropy, keycrypto.SaltSize)
	if err != nil {
		return veroxerr.WrapWith(veroxerr.ErrEntropyUnavailable, err)
	}

	key := keycrypto.DeriveKey(password, salt, params)
	defer keycrypto.Zero(key)

	rec.KDF = KDF{Name: MethodArgon2id, Salt: salt, Argon2: &params}
	nonce, ct, err := keycrypto.SealXChaCha(s.opts.Entropy, key, secret, rec.aad())
	if err != nil {
		return veroxerr.WrapWith(veroxerr.ErrEntropyUnavailable, err)
	}
	rec.Nonce = nonce
	rec.Cipher = ct
	return nil
}

// aad binds the record header to the ciphertext.
func (r *Record) aad() []byte {
	return []byte(fmt.Sprintf("verox:vault:v%d:%s:%s", r.Version, r.Method, strings.ToLower(r.Address)))
}

// Open decrypts rec. It performs no I/O.
func (s *Store) Open(rec *Record, password string) (*keycrypto.SecureBytes, error) {
	if rec == nil || len(rec.Cipher) == 0 {
		return nil, veroxerr.ErrVaultCorrupted
	}
	if rec.Version != RecordVersion {
		return nil, veroxerr.WithDetails(veroxerr.ErrVaultCorrupted, map[string]string{"version": fmt.Sprint(rec.Version)})
	}

	var (
		sb  *keycrypto.SecureBytes
		err error
	)
	switch rec.Method {
	case MethodArgon2id:
		sb, err = s.openArgon2id(rec, password)
	case MethodAge:
		if rec.KDF.ScryptLogN > s.opts.MaxScryptWorkFactor {
			return nil, costExceeded("scrypt_log_n", rec.KDF.ScryptLogN)
		}
		sb, err = keycrypto.AgeDecrypt(rec.Cipher, password, s.opts.MaxScryptWorkFactor)
	default:
		return nil, veroxerr.WithDetails(veroxerr.ErrVaultCorrupted, map[string]string{"method": rec.Method})
	}

	var ve *veroxerr.VeroxError
	switch {
	case err == nil:
		return sb, nil
	case errors.Is(err, keycrypto.ErrAuthFailed):
		return nil, veroxerr.ErrWrongPassword
	case errors.As(err, &ve):
		return nil, err
	default:
		return nil, veroxerr.WrapWith(veroxerr.ErrVaultCorrupted, err)
	}
}

func (s *Store) openArgon2id(rec *Record, password string) (*keycrypto.SecureBytes, error) {
	params := rec.KDF.Argon2
	if params == nil || len(rec.KDF.Salt) != keycrypto.SaltSize {
		return nil, fmt.Errorf("%w: missing kdf parameters", keycrypto.ErrMalformed)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.MemoryKiB > s.opts.MaxArgon2MemoryKiB {
		return nil, costExceeded("memory_kib", params.MemoryKiB)
	}
	if params.Time > s.opts.MaxArgon2Time {
		return nil, costExceeded("time", params.Time)
	}
	key := keycrypto.DeriveKey(password, rec.KDF.Salt, *params)
	defer keycrypto.Zero(key)
	return keycrypto.OpenXChaCha(key, rec.Nonce, rec.Cipher, rec.aad())
}

// costExceeded rejects a record whose stored KDF cost is above the ceiling.
func costExceeded(param string, value any) error {
	return veroxerr.WithDetails(veroxerr.ErrVaultCorrupted, map[string]string{
		"reason": "kdf cost above ceiling",
		param:    fmt.Sprint(value),
	})
}

// Load reads and parses the stored record.
func (s *Store) Load(ctx context.Context) (*Record, error) {
	data, err := s.kv.Get(ctx, RecordKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, veroxerr.ErrNoWalletFound
	}
	if err != nil {
		return nil, veroxerr.Storage(err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, veroxerr.WrapWith(veroxerr.ErrVaultCorrupted, err)
	}
	return &rec, nil
}

// Exists reports whether a record is stored. It does not decrypt.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	ok, err := s.kv.Has(ctx, RecordKey)
	if err != nil {
		return false, veroxerr.Storage(err)
	}
	return ok, nil
}

// Erase removes the record. Erasing an absent record succeeds.
func (s *Store) Erase(ctx context.Context) error {
	if err := s.kv.Delete(ctx, RecordKey); err != nil {
		return veroxerr.Storage(err)
	}
	return nil
}
