package vault_test

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verox-wallet/verox/internal/keycrypto"
	"github.com/verox-wallet/verox/internal/kvstore"
	"github.com/verox-wallet/verox/internal/vault"
	veroxerr "github.com/verox-wallet/verox/pkg/errors"
)

const (
	testAddress  = "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"
	testPassword = "correct horse battery"
)

var (
	testSecret = []byte{
		0x1a, 0xb4, 0x2c, 0xc4, 0x12, 0xb6, 0x18, 0xbd, 0xea, 0x3a, 0x59, 0x9e, 0x3c, 0x9b, 0xae, 0x19,
		0x9e, 0xbf, 0x03, 0x08, 0x95, 0xb0, 0x39, 0xe9, 0xdb, 0x1e, 0x30, 0xda, 0xfb, 0x12, 0xb7, 0x27,
	} // gitleaks:allow

	errEntropy = errors.New("entropy source closed")
)

// readOnlyStore refuses writes the way a read-only home directory does.
type readOnlyStore struct{ kvstore.Store }

func (readOnlyStore) Put(context.Context, string, []byte) error {
	return &fs.PathError{Op: "open", Path: "vault.tmp", Err: fs.ErrPermission}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errEntropy }

func newStore(t *testing.T, method string) (*vault.Store, kvstore.Store) {
	t.Helper()
	kv := kvstore.NewMemoryStore()
	return vault.New(kv, vault.Options{
		Method:           method,
		Argon2:           keycrypto.KDFParams{MemoryKiB: 64, Time: 1, Threads: 1, KeyLen: 32},
		ScryptWorkFactor: 10,
	}), kv
}

func TestSealOpen_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for _, method := range []string{vault.MethodArgon2id, vault.MethodAge} {
		t.Run(method, func(t *testing.T) {
			t.Parallel()
			store, _ := newStore(t, method)

			rec, err := store.Seal(ctx, testSecret, testPassword, testAddress)
			require.NoError(t, err)
			assert.Equal(t, vault.RecordVersion, rec.Version)
			assert.Equal(t, method, rec.Method)

			loaded, err := store.Load(ctx)
			require.NoError(t, err)
			sb, err := store.Open(loaded, testPassword)
			require.NoError(t, err)
			defer sb.Destroy()
			assert.Equal(t, testSecret, sb.Bytes())
			assert.Equal(t, testAddress, loaded.Address)
		})
	}
}

func TestOpen_WrongPassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for _, method := range []string{vault.MethodArgon2id, vault.MethodAge} {
		t.Run(method, func(t *testing.T) {
			t.Parallel()
			store, _ := newStore(t, method)
			_, err := store.Seal(ctx, testSecret, testPassword, testAddress)
			require.NoError(t, err)

			rec, err := store.Load(ctx)
			require.NoError(t, err)
			_, err = store.Open(rec, "correct horse battery!")
			require.ErrorIs(t, err, veroxerr.ErrWrongPassword)
		})
	}
}

func TestSeal_FreshSaltEachTime(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _ := newStore(t, vault.MethodArgon2id)

	first, err := store.Seal(ctx, testSecret, testPassword, testAddress)
	require.NoError(t, err)
	second, err := store.Seal(ctx, testSecret, testPassword, testAddress)
	require.NoError(t, err)

	assert.NotEqual(t, first.KDF.Salt, second.KDF.Salt)
	assert.NotEqual(t, first.Cipher, second.Cipher)
}

func TestSeal_EntropyUnavailable(t *testing.T) {
	t.Parallel()
	kv := kvstore.NewMemoryStore()
	store := vault.New(kv, vault.Options{
		Argon2:  keycrypto.KDFParams{MemoryKiB: 64, Time: 1, Threads: 1, KeyLen: 32},
		Entropy: failingReader{},
	})

	_, err := store.Seal(context.Background(), testSecret, testPassword, testAddress)
	require.ErrorIs(t, err, veroxerr.ErrEntropyUnavailable)

	ok, err := store.Exists(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "nothing may be persisted when sealing fails")
}

func TestSeal_AgeSetupFailure(t *testing.T) {
	t.Parallel()
	store, _ := newStore(t, vault.MethodAge)

	_, err := store.Seal(context.Background(), testSecret, "", testAddress)
	require.Error(t, err)
	assert.NotErrorIs(t, err, veroxerr.ErrEntropyUnavailable)
	assert.Contains(t, err.Error(), "sealing with age")
}

func TestOpen_KDFCostCeiling(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name   string
		method string
		mutate func(*vault.Record)
		detail string
	}{
		{"argon2 memory", vault.MethodArgon2id, func(r *vault.Record) { r.KDF.Argon2.MemoryKiB = 1 << 31 }, "memory_kib"},
		{"argon2 time", vault.MethodArgon2id, func(r *vault.Record) { r.KDF.Argon2.Time = 1 << 20 }, "time"},
		{"scrypt work factor", vault.MethodAge, func(r *vault.Record) { r.KDF.ScryptLogN = 40 }, "scrypt_log_n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store, _ := newStore(t, tt.method)
			rec, err := store.Seal(ctx, testSecret, testPassword, testAddress)
			require.NoError(t, err)

			tt.mutate(rec)
			_, err = store.Open(rec, testPassword)
			require.ErrorIs(t, err, veroxerr.ErrVaultCorrupted)

			var ve *veroxerr.VeroxError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Details, tt.detail)
		})
	}

	t.Run("ceiling follows seal cost", func(t *testing.T) {
		t.Parallel()
		store := vault.New(kvstore.NewMemoryStore(), vault.Options{
			Argon2:             keycrypto.KDFParams{MemoryKiB: 256, Time: 2, Threads: 1, KeyLen: 32},
			MaxArgon2MemoryKiB: 128,
			MaxArgon2Time:      1,
		})
		rec, err := store.Seal(ctx, testSecret, testPassword, testAddress)
		require.NoError(t, err)

		sb, err := store.Open(rec, testPassword)
		require.NoError(t, err)
		sb.Destroy()
	})
}

func TestOpen_TamperedRecord(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("address swapped", func(t *testing.T) {
		t.Parallel()
		store, _ := newStore(t, vault.MethodArgon2id)
		rec, err := store.Seal(ctx, testSecret, testPassword, testAddress)
		require.NoError(t, err)

		rec.Address = "0x0000000000000000000000000000000000000001"
		_, err = store.Open(rec, testPassword)
		require.ErrorIs(t, err, veroxerr.ErrWrongPassword, "header tampering fails authentication")
	})

	t.Run("unknown version", func(t *testing.T) {
		t.Parallel()
		store, _ := newStore(t, vault.MethodArgon2id)
		rec, err := store.Seal(ctx, testSecret, testPassword, testAddress)
		require.NoError(t, err)

		rec.Version = 99
		_, err = store.Open(rec, testPassword)
		require.ErrorIs(t, err, veroxerr.ErrVaultCorrupted)
	})

	t.Run("missing kdf", func(t *testing.T) {
		t.Parallel()
		store, _ := newStore(t, vault.MethodArgon2id)
		rec, err := store.Seal(ctx, testSecret, testPassword, testAddress)
		require.NoError(t, err)

		rec.KDF.Argon2 = nil
		_, err = store.Open(rec, testPassword)
		require.ErrorIs(t, err, veroxerr.ErrVaultCorrupted)
	})

	t.Run("unparsable bytes", func(t *testing.T) {
		t.Parallel()
		store, kv := newStore(t, vault.MethodArgon2id)
		require.NoError(t, kv.Put(ctx, vault.RecordKey, []byte("{not json")))

		_, err := store.Load(ctx)
		require.ErrorIs(t, err, veroxerr.ErrVaultCorrupted)
		assert.Equal(t, veroxerr.KindFatal, veroxerr.KindOf(err))
	})
}

func TestRecord_NoPlaintextSecret(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, kv := newStore(t, vault.MethodArgon2id)
	_, err := store.Seal(ctx, testSecret, testPassword, testAddress)
	require.NoError(t, err)

	raw, err := kv.Get(ctx, vault.RecordKey)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), string(testSecret))
	assert.NotContains(t, string(raw), testPassword)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "kdf")
	assert.Contains(t, decoded, "cipher")
}

func TestExistsErase(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _ := newStore(t, vault.MethodArgon2id)

	ok, err := store.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Load(ctx)
	require.ErrorIs(t, err, veroxerr.ErrNoWalletFound)

	_, err = store.Seal(ctx, testSecret, testPassword, testAddress)
	require.NoError(t, err)

	ok, err = store.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Erase(ctx))
	require.NoError(t, store.Erase(ctx), "erase is idempotent")

	ok, err = store.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSeal_PermissionDenied(t *testing.T) {
	t.Parallel()
	store := vault.New(readOnlyStore{kvstore.NewMemoryStore()}, vault.Options{
		Argon2: keycrypto.KDFParams{MemoryKiB: 64, Time: 1, Threads: 1, KeyLen: 32},
	})

	_, err := store.Seal(context.Background(), testSecret, testPassword, testAddress)
	require.ErrorIs(t, err, veroxerr.ErrPermission)
	assert.Equal(t, veroxerr.ExitPermission, veroxerr.ExitCode(err))
}

func TestSeal_UnknownMethod(t *testing.T) {
	t.Parallel()
	store := vault.New(kvstore.NewMemoryStore(), vault.Options{Method: "rot13"})
	_, err := store.Seal(context.Background(), testSecret, testPassword, testAddress)
	require.ErrorIs(t, err, veroxerr.ErrConfigInvalid)
}
