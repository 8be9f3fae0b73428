// Package eth implements the chain client for Ethereum-compatible nodes.
package eth

import (
	"context"
	"math/big"
	"strings"
	"sync"

	"github.com/verox-wallet/verox/internal/chain"
	"github.com/verox-wallet/verox/internal/chain/eth/rpc"
	veroxerr "github.com/verox-wallet/verox/pkg/errors"
)

// maxTokenDecimals bounds what a contract may declare; uint8 in the ERC-20
// interface, but anything past 77 overflows a uint256 amount of 1 unit.
const maxTokenDecimals = 77

// Compile-time interface check.
var _ chain.Client = (*Client)(nil)

// ClientOptions configures a Client.
type ClientOptions struct {
	// ChainID pins the chain ID; when nil it is read from the node once.
	ChainID *big.Int
	RPC     rpc.Options
}

// Client talks to one EVM JSON-RPC endpoint.
type Client struct {
	rpc *rpc.Client

	mu      sync.Mutex
	chainID *big.Int
	tokens  map[string]chain.Token // contract metadata, keyed by checksum address
}

// NewClient creates a client for rpcURL.
func NewClient(rpcURL string, opts *ClientOptions) (*Client, error) {
	if rpcURL == "" {
		return nil, veroxerr.WithDetails(veroxerr.ErrConfigInvalid, map[string]string{
			"field": "rpc_url",
		})
	}
	if opts == nil {
		opts = &ClientOptions{}
	}

	c := &Client{
		rpc:    rpc.NewClientWithOptions(rpcURL, opts.RPC),
		tokens: make(map[string]chain.Token),
	}
	if opts.ChainID != nil {
		c.chainID = new(big.Int).Set(opts.ChainID)
	}
	return c, nil
}

// GetNativeBalance returns the balance of address in wei.
func (c *Client) GetNativeBalance(ctx context.Context, address string) (*big.Int, error) {
	if err := ValidateAddress(address); err != nil {
		return nil, err
	}
	return c.rpc.GetBalance(ctx, address, "latest")
}

// GetTokenBalance returns address's balance of token, scaled by the
// contract's declared decimals.
func (c *Client) GetTokenBalance(ctx context.Context, token, address string) (*chain.Amount, error) {
	if err := ValidateAddress(address); err != nil {
		return nil, err
	}
	info, err := c.TokenInfo(ctx, token)
	if err != nil {
		return nil, err
	}

	result, err := c.rpc.EthCall(ctx, rpc.CallMsg{To: info.Address, Data: buildBalanceOfData(address)}, "latest")
	if err != nil {
		return nil, err
	}

	value := big.NewInt(0)
	if len(result) >= 32 {
		value.SetBytes(result[:32])
	}
	return &chain.Amount{Value: value, Decimals: info.Decimals, Symbol: info.Symbol}, nil
}

// TokenInfo reads decimals() and symbol() from the contract. A contract that
// returns nothing for decimals() is reported as TOKEN_NOT_FOUND.
func (c *Client) TokenInfo(ctx context.Context, token string) (*chain.Token, error) {
	addr, err := NormalizeAddress(token)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	cached, ok := c.tokens[addr]
	c.mu.Unlock()
	if ok {
		return &cached, nil
	}

	notFound := veroxerr.WithDetails(veroxerr.ErrTokenNotFound, map[string]string{"token": addr})

	raw, err := c.rpc.EthCall(ctx, rpc.CallMsg{To: addr, Data: erc20DecimalsSelector}, "latest")
	if err != nil {
		if veroxerr.Is(err, veroxerr.ErrTxRejected) {
			return nil, notFound
		}
		return nil, err
	}
	if len(raw) < 32 {
		return nil, notFound
	}
	decimals := new(big.Int).SetBytes(raw[:32])
	if !decimals.IsInt64() || decimals.Int64() > maxTokenDecimals {
		return nil, notFound
	}

	info := chain.Token{Address: addr, Decimals: int(decimals.Int64())}

	// symbol() is optional in ERC-20; a revert leaves it blank.
	raw, err = c.rpc.EthCall(ctx, rpc.CallMsg{To: addr, Data: erc20SymbolSelector}, "latest")
	switch {
	case err == nil:
		info.Symbol = decodeABIString(raw)
	case !veroxerr.Is(err, veroxerr.ErrTxRejected):
		return nil, err
	}

	c.mu.Lock()
	c.tokens[addr] = info
	c.mu.Unlock()
	return &info, nil
}

// Submit broadcasts a signed transaction and returns its hash.
func (c *Client) Submit(ctx context.Context, signedTx []byte) (string, error) {
	if len(signedTx) == 0 {
		return "", veroxerr.WithDetails(veroxerr.ErrInvalidInput, map[string]string{
			"field": "signed_tx",
		})
	}
	return c.rpc.SendRawTransaction(ctx, signedTx)
}

// ChainID returns the configured chain ID, reading it from the node the
// first time when none was configured.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	c.mu.Lock()
	if c.chainID != nil {
		id := new(big.Int).Set(c.chainID)
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	id, err := c.rpc.ChainID(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.chainID = new(big.Int).Set(id)
	c.mu.Unlock()
	return id, nil
}

// PendingNonce returns the node's pending transaction count for address.
func (c *Client) PendingNonce(ctx context.Context, address string) (uint64, error) {
	if err := ValidateAddress(address); err != nil {
		return 0, err
	}
	return c.rpc.GetTransactionCount(ctx, address, "pending")
}

// SuggestGasPrice returns the node's current gas price in wei.
func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return c.rpc.GasPrice(ctx)
}

// TransactionStatus maps the receipt of hash onto a TxStatus.
func (c *Client) TransactionStatus(ctx context.Context, hash string) (chain.TxStatus, error) {
	if !isTxHash(hash) {
		return chain.TxUnknown, veroxerr.WithDetails(veroxerr.ErrInvalidInput, map[string]string{
			"hash": hash,
		})
	}

	receipt, err := c.rpc.GetTransactionReceipt(ctx, hash)
	if err != nil {
		return chain.TxUnknown, err
	}
	switch {
	case receipt == nil || receipt.BlockNumber == "":
		return chain.TxUnknown, nil
	case receipt.Succeeded():
		return chain.TxConfirmed, nil
	default:
		return chain.TxFailed, nil
	}
}

func isTxHash(s string) bool {
	if len(s) != 66 || !strings.HasPrefix(s, "0x") {
		return false
	}
	for _, c := range s[2:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}

// decodeABIString decodes a string return value. Older tokens return a
// bytes32 instead, which is accepted with its trailing zeros stripped.
func decodeABIString(data []byte) string {
	if len(data) == 32 {
		return strings.TrimRight(string(data), "\x00")
	}
	if len(data) < 64 {
		return ""
	}

	offset := new(big.Int).SetBytes(data[:32])
	if !offset.IsInt64() || offset.Int64() > int64(len(data)-32) {
		return ""
	}
	start := int(offset.Int64())
	length := new(big.Int).SetBytes(data[start : start+32])
	if !length.IsInt64() || length.Int64() > int64(len(data)-start-32) {
		return ""
	}
	return string(data[start+32 : start+32+int(length.Int64())])
}
