package eth

import "sync"

// NonceManager tracks the next nonce per address so back-to-back sends do
// not reuse a nonce before the first transaction reaches the node's pool.
type NonceManager struct {
	mu     sync.Mutex
	nonces map[string]uint64 // address -> next nonce (one past the highest used)
}

// NewNonceManager creates a new NonceManager.
func NewNonceManager() *NonceManager {
	return &NonceManager{
		nonces: make(map[string]uint64),
	}
}

// Next returns max(pending nonce reported by the node, local next nonce)
// and advances the local counter past it.
func (nm *NonceManager) Next(address string, rpcNonce uint64) uint64 {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	key := normalizeKey(address)
	nonce := rpcNonce
	if local, ok := nm.nonces[key]; ok && local > rpcNonce {
		nonce = local
	}
	nm.nonces[key] = nonce + 1
	return nonce
}

// Release gives back nonce after a failed submission, provided no later
// nonce has been handed out since.
func (nm *NonceManager) Release(address string, nonce uint64) {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	key := normalizeKey(address)
	if next, ok := nm.nonces[key]; ok && next == nonce+1 {
		nm.nonces[key] = nonce
	}
}

// Reset clears the local nonce tracking for an address.
func (nm *NonceManager) Reset(address string) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	delete(nm.nonces, normalizeKey(address))
}

func normalizeKey(address string) string {
	return ToChecksumAddress(address)
}
