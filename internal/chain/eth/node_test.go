package eth

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeNode is a JSON-RPC endpoint that answers by method name.
type fakeNode struct {
	t *testing.T

	mu       sync.Mutex
	handlers map[string]func(params []json.RawMessage) (any, map[string]any)
	calls    map[string]int
}

func newFakeNode(t *testing.T) (*fakeNode, *httptest.Server) {
	t.Helper()
	n := &fakeNode{
		t:        t,
		handlers: make(map[string]func([]json.RawMessage) (any, map[string]any)),
		calls:    make(map[string]int),
	}
	server := httptest.NewServer(http.HandlerFunc(n.serve))
	t.Cleanup(server.Close)
	return n, server
}

// on registers a fixed result for method.
func (n *fakeNode) on(method string, result any) {
	n.handle(method, func([]json.RawMessage) (any, map[string]any) { return result, nil })
}

// reject makes method answer with a JSON-RPC error object.
func (n *fakeNode) reject(method, message string) {
	n.handle(method, func([]json.RawMessage) (any, map[string]any) {
		return nil, map[string]any{"code": -32000, "message": message}
	})
}

func (n *fakeNode) handle(method string, fn func([]json.RawMessage) (any, map[string]any)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[method] = fn
}

func (n *fakeNode) count(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

func (n *fakeNode) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     uint64            `json:"id"`
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	if !assert.NoError(n.t, json.NewDecoder(r.Body).Decode(&req)) {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	n.calls[req.Method]++
	fn, ok := n.handlers[req.Method]
	n.mu.Unlock()

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if !ok {
		resp["error"] = map[string]any{"code": -32601, "message": "method not found: " + req.Method}
	} else if result, rpcErr := fn(req.Params); rpcErr != nil {
		resp["error"] = rpcErr
	} else {
		resp["result"] = result
	}
	assert.NoError(n.t, json.NewEncoder(w).Encode(resp))
}

// callData extracts the data field of an eth_call request.
func callData(params []json.RawMessage) []byte {
	if len(params) == 0 {
		return nil
	}
	var msg struct {
		Data string `json:"data"`
	}
	if err := json.Unmarshal(params[0], &msg); err != nil {
		return nil
	}
	b, _ := hex.DecodeString(strings.TrimPrefix(msg.Data, "0x"))
	return b
}

// word left-pads hex digits to one 32-byte ABI word.
func word(hexDigits string) string {
	return strings.Repeat("0", 64-len(hexDigits)) + hexDigits
}

// abiString encodes s as a dynamic ABI string return value.
func abiString(s string) string {
	data := hex.EncodeToString([]byte(s))
	padded := data + strings.Repeat("0", (64-len(data)%64)%64)
	return "0x" + word("20") + word(hex.EncodeToString([]byte{byte(len(s))})) + padded
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}
