package wallet

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	veroxerr "github.com/verox-wallet/verox/pkg/errors"
)

const hardhatMnemonic = "test test test test test test test test test test test junk"

func TestFromMnemonic_KnownVectors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		mnemonic string
		address  string
		key      string
	}{
		{
			mnemonic: abandonMnemonic,
			address:  "0x9858EfFD232B4033E47d90003D41EC34EcaEda94",
			key:      "1ab42cc412b618bdea3a599e3c9bae199ebf030895b039e9db1e30dafb12b727", // gitleaks:allow
		},
		{
			mnemonic: hardhatMnemonic,
			address:  "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
			key:      "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80", // gitleaks:allow
		},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			t.Parallel()
			kp, err := FromMnemonic(tt.mnemonic)
			require.NoError(t, err)
			defer kp.Zero()

			assert.Equal(t, tt.address, kp.Address)
			assert.Equal(t, tt.key, hex.EncodeToString(kp.PrivateKey))
		})
	}
}

func TestFromMnemonic_FullWidthKeysSurvive(t *testing.T) {
	t.Parallel()
	for _, v := range bip39TestVectors {
		t.Run(v.entropy, func(t *testing.T) {
			t.Parallel()
			kp, err := FromMnemonic(v.mnemonic)
			require.NoError(t, err)
			defer kp.Zero()

			require.Len(t, kp.PrivateKey, 32)
			assert.NotEqual(t, make([]byte, 32), kp.PrivateKey)

			addr, err := AddressFromPrivateKey(kp.PrivateKey)
			require.NoError(t, err)
			assert.Equal(t, kp.Address, addr)
		})
	}
}

func TestDeriveFromSeed_DoesNotWipeResult(t *testing.T) {
	t.Parallel()
	seed, err := MnemonicToSeed(hardhatMnemonic)
	require.NoError(t, err)

	kp, err := DeriveFromSeed(seed)
	require.NoError(t, err)
	assert.Equal(t, "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80", hex.EncodeToString(kp.PrivateKey)) // gitleaks:allow
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", kp.Address)
}

func TestFromMnemonic_Deterministic(t *testing.T) {
	t.Parallel()
	first, err := FromMnemonic(hardhatMnemonic)
	require.NoError(t, err)
	second, err := FromMnemonic("  TEST test test test test test test test test test test junk\n")
	require.NoError(t, err)

	assert.Equal(t, first.Address, second.Address)
	assert.Equal(t, first.PrivateKey, second.PrivateKey)
}

func TestFromMnemonic_Invalid(t *testing.T) {
	t.Parallel()
	_, err := FromMnemonic("abandon abandon abandon")
	require.ErrorIs(t, err, veroxerr.ErrInvalidMnemonic)
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	t.Run("deterministic entropy", func(t *testing.T) {
		t.Parallel()
		mnemonic, kp, err := Generate(bytes.NewReader(make([]byte, 16)), 12)
		require.NoError(t, err)
		assert.Equal(t, abandonMnemonic, mnemonic)
		assert.Equal(t, "0x9858EfFD232B4033E47d90003D41EC34EcaEda94", kp.Address)
	})

	t.Run("round trips through FromMnemonic", func(t *testing.T) {
		t.Parallel()
		mnemonic, kp, err := Generate(nil, DefaultWordCount)
		require.NoError(t, err)

		again, err := FromMnemonic(mnemonic)
		require.NoError(t, err)
		assert.Equal(t, kp.Address, again.Address)
		assert.Len(t, kp.PrivateKey, 32)
	})

	t.Run("entropy unavailable", func(t *testing.T) {
		t.Parallel()
		_, _, err := Generate(bytes.NewReader(nil), 12)
		require.ErrorIs(t, err, veroxerr.ErrEntropyUnavailable)
	})
}

func TestKeypair_Zero(t *testing.T) {
	t.Parallel()
	kp, err := FromMnemonic(abandonMnemonic)
	require.NoError(t, err)

	view := kp.PrivateKey
	kp.Zero()
	assert.Nil(t, kp.PrivateKey)
	assert.Equal(t, make([]byte, 32), view)

	var nilKP *Keypair
	nilKP.Zero()
}

func TestAddressFromPrivateKey(t *testing.T) {
	t.Parallel()
	key, err := hex.DecodeString("ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80") // gitleaks:allow
	require.NoError(t, err)

	addr, err := AddressFromPrivateKey(key)
	require.NoError(t, err)
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", addr)

	_, err = AddressFromPrivateKey([]byte{1, 2, 3})
	require.ErrorIs(t, err, veroxerr.ErrGeneral)
	assert.NotErrorIs(t, err, veroxerr.ErrVaultCorrupted)

	_, err = AddressFromPrivateKey(make([]byte, 32))
	require.ErrorIs(t, err, veroxerr.ErrGeneral)
}
