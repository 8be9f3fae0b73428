package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/verox-wallet/verox/internal/session"
	"github.com/verox-wallet/verox/internal/wallet"
	veroxerr "github.com/verox-wallet/verox/pkg/errors"
)

// DefaultMinPasswordLength applies when Settings leaves it unset.
const DefaultMinPasswordLength = 8

// State is the wallet lock state.
type State int

// Lock states.
const (
	StateNoWallet State = iota
	StateLocked
	StateUnlocked
)

func (s State) String() string {
	switch s {
	case StateLocked:
		return "locked"
	case StateUnlocked:
		return "unlocked"
	default:
		return "no_wallet"
	}
}

// Settings are the product-level policies of the manager.
type Settings struct {
	MinPasswordLength int
	WordCount         int // 12 or 24
	RequireBiometric  bool
	AutoLock          time.Duration // idle time before an implicit lock; 0 disables
}

// Config contains dependencies for creating a Manager.
type Config struct {
	Vault     VaultStore
	Ledger    HistoryStore
	Container *session.Container
	Gate      BiometricGate
	Logger    LogWriter
	Metrics   MetricsRecorder
	Entropy   io.Reader // nil means crypto/rand
	Settings  Settings
}

// CreateResult is returned once by CreateWallet. The mnemonic is never
// stored and cannot be shown again.
type CreateResult struct {
	Address  string
	Mnemonic string
}

// ImportResult is returned by ImportWallet.
type ImportResult struct {
	Address string
}

// Manager owns the lock state and the session container. Lifecycle
// transitions are serialized.
type Manager struct {
	mu        sync.Mutex
	state     State
	vault     VaultStore
	ledger    HistoryStore
	container *session.Container
	gate      BiometricGate
	logger    LogWriter
	metrics   MetricsRecorder
	entropy   io.Reader
	settings  Settings
}

// NewManager creates a manager. The initial state is Locked when a vault is
// stored and NoWallet otherwise; a new process is never Unlocked.
func NewManager(ctx context.Context, cfg *Config) (*Manager, error) {
	if cfg == nil || cfg.Vault == nil {
		return nil, veroxerr.WithDetails(veroxerr.ErrConfigInvalid, map[string]string{"wallet": "vault store required"})
	}

	m := &Manager{
		vault:     cfg.Vault,
		ledger:    cfg.Ledger,
		container: cfg.Container,
		gate:      cfg.Gate,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		entropy:   cfg.Entropy,
		settings:  cfg.Settings,
	}
	if m.container == nil {
		m.container = session.NewContainer(nil)
	}
	if m.logger == nil {
		m.logger = nopLogger{}
	}
	if m.metrics == nil {
		m.metrics = nopMetrics{}
	}
	if m.settings.MinPasswordLength <= 0 {
		m.settings.MinPasswordLength = DefaultMinPasswordLength
	}
	if m.settings.WordCount == 0 {
		m.settings.WordCount = wallet.DefaultWordCount
	}

	exists, err := m.vault.Exists(ctx)
	if err != nil {
		return nil, err
	}
	m.container.Clear()
	if exists {
		m.state = StateLocked
	}
	return m, nil
}

// State returns the current lock state, applying the idle auto-lock first.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expireIdle()
	return m.state
}

// CreateWallet generates a new mnemonic and key, seals the key under
// password and unlocks. An existing wallet is WALLET_EXISTS unless overwrite
// is set; overwriting orphans the old address, so callers must have the
// user's explicit confirmation.
func (m *Manager) CreateWallet(ctx context.Context, password string, overwrite bool) (res *CreateResult, err error) {
	defer func() { m.metrics.RecordWalletOp(err) }()

	if err = m.checkPassword(password); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err = m.checkOverwrite(ctx, overwrite); err != nil {
		return nil, err
	}

	mnemonic, kp, err := wallet.Generate(m.entropy, m.settings.WordCount)
	if err != nil {
		return nil, err
	}
	defer kp.Zero()

	if err = m.install(ctx, kp, password); err != nil {
		return nil, err
	}
	m.logger.Info("wallet created: %s", kp.Address)
	return &CreateResult{Address: kp.Address, Mnemonic: mnemonic}, nil
}

// ImportWallet restores the key from mnemonic, seals it under password and
// unlocks. Validation happens before anything is written.
func (m *Manager) ImportWallet(ctx context.Context, mnemonic, password string, overwrite bool) (res *ImportResult, err error) {
	defer func() { m.metrics.RecordWalletOp(err) }()

	if err = m.checkPassword(password); err != nil {
		return nil, err
	}
	kp, err := wallet.FromMnemonic(mnemonic)
	if err != nil {
		return nil, err
	}
	defer kp.Zero()

	m.mu.Lock()
	defer m.mu.Unlock()

	if err = m.checkOverwrite(ctx, overwrite); err != nil {
		return nil, err
	}
	if err = m.install(ctx, kp, password); err != nil {
		return nil, err
	}
	m.logger.Info("wallet imported: %s", kp.Address)
	return &ImportResult{Address: kp.Address}, nil
}

// checkOverwrite consults storage rather than the in-memory state so a vault
// written by another process is not silently replaced. Callers hold m.mu.
func (m *Manager) checkOverwrite(ctx context.Context, overwrite bool) error {
	exists, err := m.vault.Exists(ctx)
	if err != nil {
		return err
	}
	if exists && !overwrite {
		return veroxerr.WithSuggestion(veroxerr.ErrWalletExists,
			"creating or importing again replaces the current key; back up its mnemonic and confirm the overwrite")
	}
	return nil
}

// install seals kp and makes it the unlocked session. History belonging to
// a replaced address is cleared. Callers hold m.mu.
func (m *Manager) install(ctx context.Context, kp *wallet.Keypair, password string) error {
	var previous string
	if old, err := m.vault.Load(ctx); err == nil {
		previous = old.Address
	}

	if _, err := m.vault.Seal(ctx, kp.PrivateKey, password, kp.Address); err != nil {
		return err
	}

	if previous != "" && !strings.EqualFold(previous, kp.Address) && m.ledger != nil {
		if err := m.ledger.Clear(ctx); err != nil {
			m.logger.Error("clearing history of replaced wallet %s: %v", previous, err)
		}
	}

	if err := m.container.Populate(kp.Address, kp.PrivateKey, m.settings.AutoLock); err != nil {
		// The vault is written; the wallet is usable after an unlock.
		m.state = StateLocked
		return fmt.Errorf("holding unlocked key: %w", err)
	}
	m.state = StateUnlocked
	return nil
}

// Unlock decrypts the vault with password. A configured biometric gate is
// consulted first and a denial skips the password check entirely. A wrong
// password leaves the state, including an existing unlock, untouched.
//
// Calling Unlock while already Unlocked re-authenticates: the password is
// checked against the vault again and, on success, the session is replaced
// and its idle timer restarts.
func (m *Manager) Unlock(ctx context.Context, password string) (address string, err error) {
	defer func() { m.metrics.RecordUnlock(err) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.vault.Load(ctx)
	if err != nil {
		if errors.Is(err, veroxerr.ErrNoWalletFound) {
			m.container.Clear()
			m.state = StateNoWallet
		}
		return "", err
	}
	if m.state == StateNoWallet {
		m.state = StateLocked
	}

	if err = m.verifyBiometric(ctx); err != nil {
		m.logger.Info("unlock denied by biometric gate")
		return "", err
	}

	sb, err := m.vault.Open(rec, password)
	if err != nil {
		if errors.Is(err, veroxerr.ErrWrongPassword) {
			m.logger.Info("unlock failed: wrong password")
		} else {
			m.logger.Error("unlock failed: %v", err)
		}
		return "", err
	}

	derived, err := wallet.AddressFromPrivateKey(sb.Bytes())
	if err != nil || !strings.EqualFold(derived, rec.Address) {
		sb.Destroy()
		return "", veroxerr.WithDetails(veroxerr.ErrVaultCorrupted, map[string]string{
			"reason": "decrypted key does not match the stored address",
		})
	}

	reauth := m.state == StateUnlocked
	m.container.Adopt(derived, sb, m.settings.AutoLock)
	m.state = StateUnlocked
	if reauth {
		m.logger.Debug("wallet re-authenticated: %s", derived)
	} else {
		m.logger.Debug("wallet unlocked: %s", derived)
	}
	return derived, nil
}

func (m *Manager) verifyBiometric(ctx context.Context) error {
	if !m.settings.RequireBiometric {
		return nil
	}
	if m.gate == nil || !m.gate.IsAvailable(ctx) {
		return veroxerr.WithDetails(veroxerr.ErrBiometricDenied, map[string]string{"reason": "authenticator unavailable"})
	}
	v, err := m.gate.Verify(ctx)
	if err != nil {
		return veroxerr.WrapWith(veroxerr.ErrBiometricDenied, err)
	}
	if !v.Verified {
		return veroxerr.WithDetails(veroxerr.ErrBiometricDenied, map[string]string{"method": v.Method})
	}
	return nil
}

// Lock wipes the decrypted key. It always succeeds.
func (m *Manager) Lock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lockLocked()
}

func (m *Manager) lockLocked() {
	m.container.Clear()
	if m.state == StateUnlocked {
		m.state = StateLocked
	}
}

// Reset erases the vault and the ledger and forgets the key. The manager is
// in NoWallet afterwards even when a storage step fails; such failures are
// returned so the caller can tell the user data may remain on disk.
func (m *Manager) Reset(ctx context.Context) (err error) {
	defer func() { m.metrics.RecordWalletOp(err) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.container.Clear()
	m.state = StateNoWallet

	var errs []error
	if err := m.vault.Erase(ctx); err != nil {
		errs = append(errs, err)
	}
	if m.ledger != nil {
		if err := m.ledger.Clear(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		m.logger.Error("reset incomplete: %v", errors.Join(errs...))
		return errors.Join(errs...)
	}
	m.logger.Info("wallet reset")
	return nil
}

// ChangePassword re-seals the key under newPassword. It works in any state
// that has a vault and does not change the lock state.
func (m *Manager) ChangePassword(ctx context.Context, oldPassword, newPassword string) (err error) {
	defer func() { m.metrics.RecordWalletOp(err) }()

	if err = m.checkPassword(newPassword); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.vault.Load(ctx)
	if err != nil {
		return err
	}
	sb, err := m.vault.Open(rec, oldPassword)
	if err != nil {
		return err
	}
	defer sb.Destroy()

	if _, err = m.vault.Seal(ctx, sb.Bytes(), newPassword, rec.Address); err != nil {
		return err
	}
	m.logger.Info("vault password changed")
	return nil
}

// Address returns the wallet address. It is readable while Locked from the
// vault's plaintext metadata.
func (m *Manager) Address(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.expireIdle()
	if s, ok := m.container.Current(); ok && m.state == StateUnlocked {
		return s.Address, nil
	}
	rec, err := m.vault.Load(ctx)
	if err != nil {
		return "", err
	}
	return rec.Address, nil
}

// UnlockedAddress returns the session address, or WALLET_LOCKED.
func (m *Manager) UnlockedAddress() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.expireIdle()
	s, ok := m.container.Current()
	if !ok || m.state != StateUnlocked {
		return "", veroxerr.ErrWalletLocked
	}
	return s.Address, nil
}

// WithSigningKey lends the unlocked key to fn for the duration of the call.
// It fails with WALLET_LOCKED, without calling fn, unless Unlocked. A Lock
// issued meanwhile waits for fn to return.
func (m *Manager) WithSigningKey(fn func(key *ecdsa.PrivateKey) error) error {
	m.mu.Lock()
	m.expireIdle()
	unlocked := m.state == StateUnlocked
	m.mu.Unlock()

	if !unlocked {
		return veroxerr.ErrWalletLocked
	}
	return m.container.WithKey(fn)
}

// expireIdle applies the auto-lock. Callers hold m.mu.
func (m *Manager) expireIdle() {
	if m.state != StateUnlocked {
		return
	}
	if !m.container.Populated() || m.container.Expired() {
		m.lockLocked()
		m.logger.Info("wallet locked after %s idle", m.settings.AutoLock)
	}
}

func (m *Manager) checkPassword(password string) error {
	if len([]rune(password)) < m.settings.MinPasswordLength {
		return veroxerr.WithDetails(veroxerr.ErrWeakPassword, map[string]string{
			"min_length": fmt.Sprint(m.settings.MinPasswordLength),
		})
	}
	return nil
}
