// Package session holds the decrypted account key while the wallet is
// unlocked. Nothing here touches disk: a new process always starts empty.
package session

import (
	"crypto/ecdsa"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/verox-wallet/verox/internal/keycrypto"
	veroxerr "github.com/verox-wallet/verox/pkg/errors"
)

// Session describes the current unlock.
type Session struct {
	Address     string
	UnlockedAt  time.Time
	LastUsed    time.Time
	IdleTimeout time.Duration // zero disables the idle check
}

// Expired reports whether the session sat idle longer than IdleTimeout.
func (s Session) Expired(now time.Time) bool {
	return s.IdleTimeout > 0 && now.Sub(s.LastUsed) >= s.IdleTimeout
}

// Container is the only place the decrypted key lives.
// Signing holds a read lock, so Clear waits for in-flight signatures.
type Container struct {
	mu       sync.RWMutex
	key      *keycrypto.SecureBytes
	session  Session
	lastUsed atomic.Int64 // unix nanoseconds, updated under the read lock
	now      func() time.Time
}

// NewContainer returns an empty container. A nil clock means time.Now.
func NewContainer(now func() time.Time) *Container {
	if now == nil {
		now = time.Now
	}
	return &Container{now: now}
}

// Populate stores a copy of privateKey for address, replacing any previous
// key. The caller keeps ownership of privateKey.
func (c *Container) Populate(address string, privateKey []byte, idle time.Duration) error {
	sb, err := keycrypto.SecureBytesFromSlice(privateKey)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.key != nil {
		c.key.Destroy()
	}
	c.start(address, sb, idle)
	return nil
}

// Adopt takes ownership of sb instead of copying it.
func (c *Container) Adopt(address string, sb *keycrypto.SecureBytes, idle time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.key != nil && c.key != sb {
		c.key.Destroy()
	}
	c.start(address, sb, idle)
}

func (c *Container) start(address string, sb *keycrypto.SecureBytes, idle time.Duration) {
	now := c.now()
	c.key = sb
	c.session = Session{Address: address, UnlockedAt: now, IdleTimeout: idle}
	c.lastUsed.Store(now.UnixNano())
}

func (c *Container) snapshot() Session {
	s := c.session
	if c.key != nil {
		s.LastUsed = time.Unix(0, c.lastUsed.Load())
	}
	return s
}

// Clear wipes the key. It is safe to call on an empty container.
func (c *Container) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.key != nil {
		c.key.Destroy()
		c.key = nil
	}
	c.session = Session{}
}

// Populated reports whether a key is held.
func (c *Container) Populated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.key != nil
}

// Current returns the session and whether a key is held.
func (c *Container) Current() (Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot(), c.key != nil
}

// Expired reports whether a held session passed its idle timeout.
func (c *Container) Expired() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.key != nil && c.snapshot().Expired(c.now())
}

// WithKey calls fn with the key as an ecdsa.PrivateKey. The scalar is wiped
// when fn returns. An empty container yields WALLET_LOCKED without calling fn.
func (c *Container) WithKey(fn func(key *ecdsa.PrivateKey) error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.key == nil {
		return veroxerr.ErrWalletLocked
	}

	priv, err := crypto.ToECDSA(c.key.Bytes())
	if err != nil {
		return veroxerr.WrapWith(veroxerr.ErrVaultCorrupted, err)
	}
	defer keycrypto.ZeroBigInt(priv.D)

	c.lastUsed.Store(c.now().UnixNano())
	return fn(priv)
}
