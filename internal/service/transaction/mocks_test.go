package transaction

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/verox-wallet/verox/internal/chain"
	"github.com/verox-wallet/verox/internal/kvstore"
	"github.com/verox-wallet/verox/internal/ledger"
	veroxerr "github.com/verox-wallet/verox/pkg/errors"
)

const (
	testKeyHex    = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testFrom      = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	testRecipient = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
	testToken     = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
)

// fakeChain records calls and returns canned answers.
type fakeChain struct {
	mu sync.Mutex

	chainID    *big.Int
	gasPrice   *big.Int
	nonce      uint64
	tokens     map[string]chain.Token
	statuses   map[string]chain.TxStatus
	submitErr  error
	statusErr  error
	networkErr error // returned by every read when set
	onSubmit   func()

	calls     []string
	submitted [][]byte
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		chainID:  big.NewInt(1),
		gasPrice: big.NewInt(2_000_000_000),
		tokens: map[string]chain.Token{
			testToken: {Address: testToken, Symbol: "USDC", Decimals: 6},
		},
		statuses: make(map[string]chain.TxStatus),
	}
}

func (f *fakeChain) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.networkErr
}

func (f *fakeChain) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeChain) GetNativeBalance(context.Context, string) (*big.Int, error) {
	if err := f.record("balance"); err != nil {
		return nil, err
	}
	return big.NewInt(0), nil
}

func (f *fakeChain) GetTokenBalance(_ context.Context, token, _ string) (*chain.Amount, error) {
	if err := f.record("tokenBalance"); err != nil {
		return nil, err
	}
	return &chain.Amount{Value: big.NewInt(0), Decimals: f.tokens[token].Decimals}, nil
}

func (f *fakeChain) TokenInfo(_ context.Context, token string) (*chain.Token, error) {
	if err := f.record("tokenInfo"); err != nil {
		return nil, err
	}
	info, ok := f.tokens[token]
	if !ok {
		return nil, veroxerr.ErrTokenNotFound
	}
	return &info, nil
}

func (f *fakeChain) Submit(_ context.Context, raw []byte) (string, error) {
	if err := f.record("submit"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onSubmit != nil {
		f.onSubmit()
	}
	if f.submitErr != nil {
		return "", f.submitErr
	}
	f.submitted = append(f.submitted, raw)
	return fmt.Sprintf("0x%064x", len(f.submitted)), nil
}

func (f *fakeChain) ChainID(context.Context) (*big.Int, error) {
	if err := f.record("chainId"); err != nil {
		return nil, err
	}
	return f.chainID, nil
}

func (f *fakeChain) PendingNonce(context.Context, string) (uint64, error) {
	if err := f.record("nonce"); err != nil {
		return 0, err
	}
	return f.nonce, nil
}

func (f *fakeChain) SuggestGasPrice(context.Context) (*big.Int, error) {
	if err := f.record("gasPrice"); err != nil {
		return nil, err
	}
	return f.gasPrice, nil
}

func (f *fakeChain) TransactionStatus(_ context.Context, hash string) (chain.TxStatus, error) {
	if err := f.record("status"); err != nil {
		return chain.TxUnknown, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return chain.TxUnknown, f.statusErr
	}
	return f.statuses[strings.ToLower(hash)], nil
}

// lastTx decodes the most recently submitted transaction.
func (f *fakeChain) lastTx(t *testing.T) *types.Transaction {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.submitted)
	tx := new(types.Transaction)
	require.NoError(t, tx.UnmarshalBinary(f.submitted[len(f.submitted)-1]))
	return tx
}

// fakeKeys lends a fixed key while unlocked.
type fakeKeys struct {
	mu     sync.Mutex
	key    *ecdsa.PrivateKey
	locked bool
	loans  int
}

func newFakeKeys(t *testing.T) *fakeKeys {
	t.Helper()
	key, err := crypto.HexToECDSA(testKeyHex)
	require.NoError(t, err)
	return &fakeKeys{key: key}
}

func (k *fakeKeys) UnlockedAddress() (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.locked {
		return "", veroxerr.ErrWalletLocked
	}
	return crypto.PubkeyToAddress(k.key.PublicKey).Hex(), nil
}

func (k *fakeKeys) WithSigningKey(fn func(key *ecdsa.PrivateKey) error) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.locked {
		return veroxerr.ErrWalletLocked
	}
	k.loans++
	return fn(k.key)
}

type mockLogWriter struct {
	mu   sync.Mutex
	msgs []string
}

func (m *mockLogWriter) log(format string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, fmt.Sprintf(format, args...))
}

func (m *mockLogWriter) Debug(format string, args ...any) { m.log(format, args...) }
func (m *mockLogWriter) Info(format string, args ...any)  { m.log(format, args...) }
func (m *mockLogWriter) Error(format string, args ...any) { m.log(format, args...) }

func (m *mockLogWriter) contains(sub string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.msgs {
		if strings.Contains(msg, sub) {
			return true
		}
	}
	return false
}

type engineFixture struct {
	engine *Engine
	chain  *fakeChain
	keys   *fakeKeys
	ledger *ledger.Ledger
	logger *mockLogWriter
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	l, err := ledger.Open(context.Background(), kvstore.NewMemoryStore(), 5)
	require.NoError(t, err)

	f := &engineFixture{
		chain:  newFakeChain(),
		keys:   newFakeKeys(t),
		ledger: l,
		logger: &mockLogWriter{},
	}
	f.engine, err = NewEngine(&Config{
		Chain:  f.chain,
		Keys:   f.keys,
		Ledger: l,
		Logger: f.logger,
	})
	require.NoError(t, err)
	return f
}
