package cli

import (
	"context"
	"errors"
	"io"
	"math/big"
	"time"

	"github.com/spf13/cobra"

	"github.com/verox-wallet/verox/internal/chain"
	"github.com/verox-wallet/verox/internal/chain/eth"
	"github.com/verox-wallet/verox/internal/chain/eth/rpc"
	"github.com/verox-wallet/verox/internal/config"
	"github.com/verox-wallet/verox/internal/keycrypto"
	"github.com/verox-wallet/verox/internal/kvstore"
	"github.com/verox-wallet/verox/internal/ledger"
	"github.com/verox-wallet/verox/internal/metrics"
	"github.com/verox-wallet/verox/internal/output"
	"github.com/verox-wallet/verox/internal/service/balance"
	"github.com/verox-wallet/verox/internal/service/transaction"
	walletsvc "github.com/verox-wallet/verox/internal/service/wallet"
	"github.com/verox-wallet/verox/internal/vault"
	veroxerr "github.com/verox-wallet/verox/pkg/errors"
)

// ChainFactory builds the chain client for a configuration.
type ChainFactory func(cfg *config.Config, rec rpc.Recorder) (chain.Client, error)

// CommandContext holds the dependencies of one CLI invocation. Services are
// built on first use so commands that never touch the node or the vault do
// not open them.
type CommandContext struct {
	Cfg     *config.Config
	Log     *config.Logger
	Fmt     *output.Formatter
	Metrics *metrics.Metrics
	Stderr  io.Writer
	Prompt  Prompter

	newChain ChainFactory
	gate     walletsvc.BiometricGate
	prices   balance.PriceProvider

	store   kvstore.Store
	ledger  *ledger.Ledger
	manager *walletsvc.Manager
	client  chain.Client
	closed  bool
}

// vaultKeyLen is the XChaCha20-Poly1305 key size.
const vaultKeyLen = 32

type cmdContextKey struct{}

// SetCmdContext attaches cc to cmd's context.
func SetCmdContext(cmd *cobra.Command, cc *CommandContext) {
	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	cmd.SetContext(context.WithValue(base, cmdContextKey{}, cc))
}

// GetCmdContext returns the context attached by SetCmdContext, or nil.
func GetCmdContext(cmd *cobra.Command) *CommandContext {
	ctx := cmd.Context()
	if ctx == nil {
		return nil
	}
	cc, _ := ctx.Value(cmdContextKey{}).(*CommandContext)
	return cc
}

// DefaultChainFactory connects to the configured JSON-RPC endpoint.
func DefaultChainFactory(cfg *config.Config, rec rpc.Recorder) (chain.Client, error) {
	var chainID *big.Int
	if cfg.Network.ChainID > 0 {
		chainID = big.NewInt(cfg.Network.ChainID)
	}
	c, err := eth.NewClient(cfg.Network.RPC, &eth.ClientOptions{
		ChainID: chainID,
		RPC: rpc.Options{
			Timeout:  cfg.RPCTimeout(),
			Limiter:  chain.NewRateLimiter(cfg.Network.RateLimit, cfg.Network.RateBurst),
			Recorder: rec,
		},
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Store opens the configured key/value backend.
func (c *CommandContext) Store() (kvstore.Store, error) {
	if c.store != nil {
		return c.store, nil
	}
	s, err := kvstore.Open(c.Cfg.Storage.Backend, c.Cfg.StoragePath())
	if err != nil {
		return nil, veroxerr.Storage(err)
	}
	c.store = s
	return s, nil
}

// Ledger opens the transaction ledger.
func (c *CommandContext) Ledger(ctx context.Context) (*ledger.Ledger, error) {
	if c.ledger != nil {
		return c.ledger, nil
	}
	s, err := c.Store()
	if err != nil {
		return nil, err
	}
	l, err := ledger.Open(ctx, s, c.Cfg.Ledger.MaxRecords)
	if err != nil {
		return nil, err
	}
	c.ledger = l
	return l, nil
}

// Manager returns the wallet lifecycle manager. A fresh process starts
// Locked or NoWallet.
func (c *CommandContext) Manager(ctx context.Context) (*walletsvc.Manager, error) {
	if c.manager != nil {
		return c.manager, nil
	}
	s, err := c.Store()
	if err != nil {
		return nil, err
	}
	l, err := c.Ledger(ctx)
	if err != nil {
		return nil, err
	}

	vc := c.Cfg.Vault
	m, err := walletsvc.NewManager(ctx, &walletsvc.Config{
		Vault: vault.New(s, vault.Options{
			Method: vc.Method,
			Argon2: keycrypto.KDFParams{
				MemoryKiB: vc.Argon2MemoryKiB,
				Time:      vc.Argon2Time,
				Threads:   vc.Argon2Threads,
				KeyLen:    vaultKeyLen,
			},
			ScryptWorkFactor: vc.ScryptWorkFactor,
		}),
		Ledger:  l,
		Gate:    c.gate,
		Logger:  c.Log,
		Metrics: c.Metrics,
		Settings: walletsvc.Settings{
			MinPasswordLength: c.Cfg.Security.MinPasswordLength,
			WordCount:         c.Cfg.Security.MnemonicWords,
			RequireBiometric:  c.Cfg.Security.RequireBiometric,
			AutoLock:          c.Cfg.AutoLock(),
		},
	})
	if err != nil {
		return nil, err
	}
	c.manager = m
	return m, nil
}

// Chain returns the chain client.
func (c *CommandContext) Chain() (chain.Client, error) {
	if c.client != nil {
		return c.client, nil
	}
	factory := c.newChain
	if factory == nil {
		factory = DefaultChainFactory
	}
	cl, err := factory(c.Cfg, c.Metrics)
	if err != nil {
		return nil, err
	}
	c.client = cl
	return cl, nil
}

// Engine returns a transaction engine over the wallet manager.
func (c *CommandContext) Engine(ctx context.Context) (*transaction.Engine, error) {
	m, err := c.Manager(ctx)
	if err != nil {
		return nil, err
	}
	l, err := c.Ledger(ctx)
	if err != nil {
		return nil, err
	}
	cl, err := c.Chain()
	if err != nil {
		return nil, err
	}
	return transaction.NewEngine(&transaction.Config{
		Chain:        cl,
		Keys:         m,
		Ledger:       l,
		NativeSymbol: c.Cfg.Network.NativeSymbol,
		Logger:       c.Log,
		Metrics:      c.Metrics,
	})
}

// Balances returns the balance service.
func (c *CommandContext) Balances() (*balance.Service, error) {
	cl, err := c.Chain()
	if err != nil {
		return nil, err
	}
	return balance.NewService(&balance.Config{
		Chain:        cl,
		Tokens:       c.Cfg.Network.Tokens,
		NativeSymbol: c.Cfg.Network.NativeSymbol,
		Prices:       c.prices,
		Logger:       c.Log,
		Timeout:      c.Cfg.RPCTimeout(),
	})
}

// Close locks the wallet and releases the store and the log file.
func (c *CommandContext) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.manager != nil {
		c.manager.Lock()
	}
	var errs []error
	if c.store != nil {
		errs = append(errs, c.store.Close())
	}
	if c.Log != nil {
		c.Log.Debug("metrics: %+v", c.Metrics.Snapshot())
		errs = append(errs, c.Log.Close())
	}
	return errors.Join(errs...)
}

// withTimeout bounds a network-facing command by the configured RPC timeout
// plus slack for the local work around it.
func withTimeout(cmd *cobra.Command, cfg *config.Config) (context.Context, context.CancelFunc) {
	base := commandContext(cmd)
	d := cfg.RPCTimeout()
	if d <= 0 {
		d = 30 * time.Second
	}
	return context.WithTimeout(base, 2*d)
}

// commandContext is the command's context without a deadline.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
