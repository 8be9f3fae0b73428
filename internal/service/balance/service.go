// Package balance reads the native and token balances of the wallet address.
package balance

import (
	"context"
	"math"
	"math/big"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/verox-wallet/verox/internal/chain"
	"github.com/verox-wallet/verox/internal/chain/eth"
	veroxerr "github.com/verox-wallet/verox/pkg/errors"
)

// DefaultNativeSymbol labels the native holding when Config leaves it unset.
const DefaultNativeSymbol = "ETH"

// maxConcurrent bounds parallel node reads per snapshot.
const maxConcurrent = 8

// Config holds the configuration for the balance service.
type Config struct {
	Chain        Reader
	Tokens       []chain.Token
	NativeSymbol string
	Prices       PriceProvider // optional
	Logger       LogWriter
	Timeout      time.Duration // per snapshot; 0 means the caller's context only
	Now          func() time.Time
}

// Service fetches balance snapshots. Nothing is cached; every snapshot asks
// the node.
type Service struct {
	chain        Reader
	tokens       []chain.Token
	nativeSymbol string
	prices       PriceProvider
	logger       LogWriter
	timeout      time.Duration
	now          func() time.Time
}

// NewService creates a new balance service.
func NewService(cfg *Config) (*Service, error) {
	if cfg == nil || cfg.Chain == nil {
		return nil, veroxerr.WithDetails(veroxerr.ErrConfigInvalid, map[string]string{"balance": "chain client required"})
	}
	for _, t := range cfg.Tokens {
		if !eth.IsValidAddress(t.Address) {
			return nil, veroxerr.WithDetails(veroxerr.ErrConfigInvalid, map[string]string{
				"token":   t.Symbol,
				"address": t.Address,
			})
		}
	}

	s := &Service{
		chain:        cfg.Chain,
		tokens:       append([]chain.Token(nil), cfg.Tokens...),
		nativeSymbol: cfg.NativeSymbol,
		prices:       cfg.Prices,
		logger:       cfg.Logger,
		timeout:      cfg.Timeout,
		now:          cfg.Now,
	}
	if s.nativeSymbol == "" {
		s.nativeSymbol = DefaultNativeSymbol
	}
	if s.logger == nil {
		s.logger = nopLogger{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Snapshot reads the native balance and every configured token balance of
// address concurrently. Any failed read fails the snapshot; there is no
// cached or partial result. USD values are filled when a PriceProvider is
// configured and answers, and a failed quote only leaves them empty.
func (s *Service) Snapshot(ctx context.Context, address string) (*Snapshot, error) {
	if err := eth.ValidateAddress(address); err != nil {
		return nil, err
	}
	address = eth.ToChecksumAddress(address)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	snap := &Snapshot{
		Address: address,
		Tokens:  make([]Holding, len(s.tokens)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	g.Go(func() error {
		wei, err := s.chain.GetNativeBalance(gctx, address)
		if err != nil {
			return err
		}
		snap.Native = Holding{
			Symbol:   s.nativeSymbol,
			Decimals: chain.NativeDecimals,
			Balance:  chain.FormatDecimalAmount(wei, chain.NativeDecimals),
			Raw:      wei,
		}
		return nil
	})

	for i, tok := range s.tokens {
		g.Go(func() error {
			amt, err := s.chain.GetTokenBalance(gctx, tok.Address, address)
			if err != nil {
				return err
			}
			symbol := tok.Symbol
			if symbol == "" {
				symbol = amt.Symbol
			}
			snap.Tokens[i] = Holding{
				Symbol:   symbol,
				Token:    eth.ToChecksumAddress(tok.Address),
				Decimals: amt.Decimals,
				Balance:  amt.String(),
				Raw:      amt.Value,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Error("balance snapshot for %s: %v", address, err)
		return nil, err
	}
	snap.FetchedAt = s.now().UTC()

	s.quote(ctx, snap)
	return snap, nil
}

// quote attaches USD values. Errors are logged and otherwise ignored.
func (s *Service) quote(ctx context.Context, snap *Snapshot) {
	if s.prices == nil {
		return
	}

	symbols := make(map[string]struct{})
	for _, h := range snap.Holdings() {
		if h.Symbol != "" {
			symbols[strings.ToUpper(h.Symbol)] = struct{}{}
		}
	}

	var (
		mu     sync.Mutex
		quotes = make(map[string]float64, len(symbols))
		g      errgroup.Group
	)
	g.SetLimit(maxConcurrent)
	for sym := range symbols {
		g.Go(func() error {
			price, err := s.prices.CurrentPrice(ctx, sym)
			if err != nil {
				s.logger.Debug("no %s price: %v", sym, err)
				return nil
			}
			if price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
				return nil
			}
			mu.Lock()
			quotes[sym] = price
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	apply := func(h *Holding) {
		price, ok := quotes[strings.ToUpper(h.Symbol)]
		if !ok {
			return
		}
		value := usdValue(h.Raw, h.Decimals, price)
		h.USDPrice = &price
		h.USDValue = &value
	}
	apply(&snap.Native)
	for i := range snap.Tokens {
		apply(&snap.Tokens[i])
	}
}

func usdValue(raw *big.Int, decimals int, price float64) float64 {
	if raw == nil {
		return 0
	}
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	units := new(big.Float).Quo(new(big.Float).SetInt(raw), scale)
	v, _ := new(big.Float).Mul(units, big.NewFloat(price)).Float64()
	return v
}
