// Package rpc provides a minimal JSON-RPC 2.0 client for Ethereum nodes.
//
// Failures are classified once, here: anything that prevents a readable
// answer (transport, timeout, HTTP 5xx/429, undecodable body) is
// NETWORK_UNAVAILABLE, and a JSON-RPC error object is TX_REJECTED carrying the
// node's message. The client never retries.
package rpc

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/verox-wallet/verox/internal/chain"
	veroxerr "github.com/verox-wallet/verox/pkg/errors"
)

var (
	// ErrRPCResponse indicates a response that could not be decoded.
	ErrRPCResponse = errors.New("invalid RPC response")

	// ErrInvalidHexNumber indicates an invalid hex quantity.
	ErrInvalidHexNumber = errors.New("invalid hex number")
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 8 << 20

// Recorder receives one observation per call.
type Recorder interface {
	RecordRPCCall(method string, duration time.Duration, err error)
}

// Options configures a Client.
type Options struct {
	// HTTPClient defaults to a client with Timeout.
	HTTPClient *http.Client
	// Timeout bounds each call; zero means 30 seconds.
	Timeout time.Duration
	// Limiter throttles calls per endpoint host; nil disables throttling.
	Limiter  *chain.RateLimiter
	Recorder Recorder
}

// Client is a minimal Ethereum JSON-RPC client.
type Client struct {
	url        string
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
	limiter    *chain.RateLimiter
	recorder   Recorder
	idCounter  atomic.Uint64
}

// NewClient creates a new RPC client with default options.
func NewClient(rawURL string) *Client {
	return NewClientWithOptions(rawURL, Options{})
}

// NewClientWithOptions creates a new RPC client.
func NewClientWithOptions(rawURL string, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	endpoint := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		endpoint = u.Host
	}
	return &Client{
		url:        rawURL,
		endpoint:   endpoint,
		httpClient: httpClient,
		timeout:    timeout,
		limiter:    opts.Limiter,
		recorder:   opts.Recorder,
	}
}

// request represents a JSON-RPC 2.0 request.
type request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      uint64 `json:"id"`
}

// response represents a JSON-RPC 2.0 response.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func unavailable(format string, args ...any) error {
	return veroxerr.WrapWith(veroxerr.ErrNetworkUnavailable, fmt.Errorf(format, args...))
}

// Call performs a JSON-RPC call.
func (c *Client) Call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	start := time.Now()
	result, err := c.call(ctx, method, params)
	if c.recorder != nil {
		c.recorder.RecordRPCCall(method, time.Since(start), err)
	}
	return result, err
}

func (c *Client) call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, c.endpoint); err != nil {
			return nil, unavailable("rate limiter: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.idCounter.Add(1),
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, unavailable("creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, unavailable("sending %s: %w", method, err)
	}
	// Body.Close error is intentionally ignored as it only fails if the
	// connection is already broken, and there's no recovery action.
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, unavailable("reading %s response: %w", method, err)
	}

	if httpResp.StatusCode >= http.StatusInternalServerError || httpResp.StatusCode == http.StatusTooManyRequests {
		return nil, unavailable("%s: HTTP %d", method, httpResp.StatusCode)
	}

	var resp response
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, unavailable("%s: HTTP %d: %w: %w", method, httpResp.StatusCode, ErrRPCResponse, err)
	}

	if resp.Error != nil {
		return nil, veroxerr.Rejected(resp.Error.Message, resp.Error.Code)
	}

	return resp.Result, nil
}

// callQuantity performs a call whose result is a hex quantity.
func (c *Client) callQuantity(ctx context.Context, method string, params ...any) (*big.Int, error) {
	result, err := c.Call(ctx, method, params...)
	if err != nil {
		return nil, err
	}

	var hexVal string
	if err := json.Unmarshal(result, &hexVal); err != nil {
		return nil, unavailable("parsing %s result: %w: %w", method, ErrRPCResponse, err)
	}

	n, err := parseHexBigInt(hexVal)
	if err != nil {
		return nil, unavailable("parsing %s result: %w", method, err)
	}
	return n, nil
}

// ChainID returns the chain ID.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return c.callQuantity(ctx, "eth_chainId")
}

// GetBalance returns the balance of an address in wei.
func (c *Client) GetBalance(ctx context.Context, address, block string) (*big.Int, error) {
	if block == "" {
		block = "latest"
	}
	return c.callQuantity(ctx, "eth_getBalance", address, block)
}

// GetTransactionCount returns the nonce for an address.
func (c *Client) GetTransactionCount(ctx context.Context, address, block string) (uint64, error) {
	if block == "" {
		block = "pending"
	}
	n, err := c.callQuantity(ctx, "eth_getTransactionCount", address, block)
	if err != nil {
		return 0, err
	}
	if !n.IsUint64() {
		return 0, unavailable("nonce out of range: %w", ErrInvalidHexNumber)
	}
	return n.Uint64(), nil
}

// GasPrice returns the current gas price in wei.
func (c *Client) GasPrice(ctx context.Context) (*big.Int, error) {
	return c.callQuantity(ctx, "eth_gasPrice")
}

// CallMsg represents the parameters for eth_call.
type CallMsg struct {
	From string
	To   string
	Data []byte
}

// MarshalJSON encodes the message with hex data.
func (m CallMsg) MarshalJSON() ([]byte, error) {
	type callMsgJSON struct {
		From string `json:"from,omitempty"`
		To   string `json:"to"`
		Data string `json:"data,omitempty"`
	}

	msg := callMsgJSON{From: m.From, To: m.To}
	if len(m.Data) > 0 {
		msg.Data = "0x" + hex.EncodeToString(m.Data)
	}
	return json.Marshal(msg)
}

// EthCall performs an eth_call.
func (c *Client) EthCall(ctx context.Context, msg CallMsg, block string) ([]byte, error) {
	if block == "" {
		block = "latest"
	}

	result, err := c.Call(ctx, "eth_call", msg, block)
	if err != nil {
		return nil, err
	}

	var hexVal string
	if err := json.Unmarshal(result, &hexVal); err != nil {
		return nil, unavailable("parsing call result: %w: %w", ErrRPCResponse, err)
	}

	data, err := parseHexBytes(hexVal)
	if err != nil {
		return nil, unavailable("parsing call result: %w", err)
	}
	return data, nil
}

// SendRawTransaction sends a signed transaction and returns its hash.
func (c *Client) SendRawTransaction(ctx context.Context, signedTx []byte) (string, error) {
	result, err := c.Call(ctx, "eth_sendRawTransaction", "0x"+hex.EncodeToString(signedTx))
	if err != nil {
		return "", err
	}

	var txHash string
	if err := json.Unmarshal(result, &txHash); err != nil || txHash == "" {
		return "", unavailable("parsing tx hash: %w", ErrRPCResponse)
	}
	return txHash, nil
}

// Receipt is the subset of a transaction receipt the wallet reads.
type Receipt struct {
	TransactionHash string `json:"transactionHash"`
	BlockNumber     string `json:"blockNumber"`
	Status          string `json:"status"`
}

// Succeeded reports whether the receipt status is 1.
func (r *Receipt) Succeeded() bool {
	n, err := parseHexBigInt(r.Status)
	return err == nil && n.Sign() > 0
}

// GetTransactionReceipt returns the receipt, or nil while the transaction
// is not yet mined.
func (c *Client) GetTransactionReceipt(ctx context.Context, hash string) (*Receipt, error) {
	result, err := c.Call(ctx, "eth_getTransactionReceipt", hash)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 || string(result) == "null" {
		return nil, nil //nolint:nilnil // nil receipt means pending
	}

	var receipt Receipt
	if err := json.Unmarshal(result, &receipt); err != nil {
		return nil, unavailable("parsing receipt: %w: %w", ErrRPCResponse, err)
	}
	return &receipt, nil
}

// parseHexBigInt parses a hex string (with or without 0x prefix) to big.Int.
func parseHexBigInt(s string) (*big.Int, error) {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return big.NewInt(0), nil
	}

	n := new(big.Int)
	if _, ok := n.SetString(s, 16); !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHexNumber, strconv.Quote(s))
	}
	return n, nil
}

// parseHexBytes parses a hex string to bytes.
func parseHexBytes(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return []byte{}, nil
	}
	return hex.DecodeString(s)
}
