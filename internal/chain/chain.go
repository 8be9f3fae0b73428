// Package chain defines what the wallet needs from an EVM chain node and the
// amount helpers shared by the balance and transaction services.
package chain

import (
	"context"
	"math/big"
)

// NativeDecimals is the decimal precision of the chain's native asset.
const NativeDecimals = 18

// Token identifies an ERC-20 contract.
type Token struct {
	Address  string `json:"address" yaml:"address" toml:"address"`
	Symbol   string `json:"symbol" yaml:"symbol" toml:"symbol"`
	Decimals int    `json:"decimals" yaml:"decimals" toml:"decimals"`
}

// Amount is an integer quantity in an asset's smallest unit.
type Amount struct {
	Value    *big.Int
	Decimals int
	Symbol   string
}

// String renders the amount as a decimal, without the symbol.
func (a Amount) String() string {
	return FormatDecimalAmount(a.Value, a.Decimals)
}

// TxStatus is the on-chain outcome of a submitted transaction.
type TxStatus int

// Receipt outcomes.
const (
	TxUnknown   TxStatus = iota // no receipt yet
	TxConfirmed                 // receipt status 1
	TxFailed                    // receipt status 0
)

// Client is the chain node collaborator. Implementations classify failures
// as NETWORK_UNAVAILABLE or TX_REJECTED and never retry on their own.
type Client interface {
	// GetNativeBalance returns the balance in wei; 0 for unfunded addresses.
	GetNativeBalance(ctx context.Context, address string) (*big.Int, error)

	// GetTokenBalance returns address's balance of token using the contract's
	// declared decimals.
	GetTokenBalance(ctx context.Context, token, address string) (*Amount, error)

	// TokenInfo reads a contract's symbol and decimals.
	TokenInfo(ctx context.Context, token string) (*Token, error)

	// Submit broadcasts a signed, encoded transaction and returns its hash.
	Submit(ctx context.Context, signedTx []byte) (string, error)

	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonce(ctx context.Context, address string) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)

	// TransactionStatus looks up the receipt of hash.
	TransactionStatus(ctx context.Context, hash string) (TxStatus, error)
}
