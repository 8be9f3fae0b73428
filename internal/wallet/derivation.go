package wallet

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"

	"github.com/verox-wallet/verox/internal/keycrypto"
	veroxerr "github.com/verox-wallet/verox/pkg/errors"
)

// DerivationPath is the BIP-44 path of the wallet's only account.
const DerivationPath = "m/44'/60'/0'/0/0"

// Hardened child indexes and the final index of DerivationPath.
var accountPath = []uint32{
	bip32.FirstHardenedChild + 44,
	bip32.FirstHardenedChild + 60,
	bip32.FirstHardenedChild + 0,
	0,
	0,
}

// Keypair is the account key and its EIP-55 address.
// PrivateKey is raw secret material; call Zero when done with it.
type Keypair struct {
	Address    string
	PrivateKey []byte
}

// Zero wipes the private key.
func (k *Keypair) Zero() {
	if k == nil {
		return
	}
	keycrypto.Zero(k.PrivateKey)
	k.PrivateKey = nil
}

// Generate creates a new mnemonic and its keypair. Entropy is read from r
// (crypto/rand when nil); a failing source yields ENTROPY_UNAVAILABLE.
func Generate(r io.Reader, wordCount int) (string, *Keypair, error) {
	mnemonic, err := GenerateMnemonic(r, wordCount)
	if err != nil {
		return "", nil, err
	}
	kp, err := FromMnemonic(mnemonic)
	if err != nil {
		return "", nil, err
	}
	return mnemonic, kp, nil
}

// FromMnemonic validates phrase and derives the keypair at DerivationPath.
// The same phrase always yields the same keypair.
func FromMnemonic(phrase string) (*Keypair, error) {
	seed, err := MnemonicToSeed(phrase)
	if err != nil {
		return nil, err
	}
	defer keycrypto.Zero(seed)

	return DeriveFromSeed(seed)
}

// DeriveFromSeed walks DerivationPath from a BIP-39 seed.
func DeriveFromSeed(seed []byte) (*Keypair, error) {
	key, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("deriving master key: %w", err)
	}

	for _, idx := range accountPath {
		child, err := key.NewChildKey(idx)
		if err != nil {
			return nil, fmt.Errorf("deriving child %d: %w", idx, err)
		}
		keycrypto.Zero(key.Key)
		key = child
	}

	// A fresh buffer: padding helpers hand back key.Key itself when it is
	// already full width, and key.Key is wiped below.
	priv := make([]byte, 32)
	copy(priv[32-len(key.Key):], key.Key)
	keycrypto.Zero(key.Key)

	return KeypairFromPrivateKey(priv)
}

// KeypairFromPrivateKey computes the address for a 32-byte secp256k1 key.
// The returned Keypair takes ownership of priv.
func KeypairFromPrivateKey(priv []byte) (*Keypair, error) {
	addr, err := AddressFromPrivateKey(priv)
	if err != nil {
		return nil, err
	}
	return &Keypair{Address: addr, PrivateKey: priv}, nil
}

// AddressFromPrivateKey returns the EIP-55 address of priv.
func AddressFromPrivateKey(priv []byte) (string, error) {
	ecdsaKey, err := crypto.ToECDSA(priv)
	if err != nil {
		return "", veroxerr.WrapWith(veroxerr.ErrGeneral, fmt.Errorf("invalid private key: %w", err))
	}
	defer keycrypto.ZeroBigInt(ecdsaKey.D)
	return crypto.PubkeyToAddress(ecdsaKey.PublicKey).Hex(), nil
}
