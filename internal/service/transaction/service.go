// Package transaction builds, signs and submits native and ERC-20 transfers
// and records them in the local ledger.
package transaction

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/verox-wallet/verox/internal/chain"
	"github.com/verox-wallet/verox/internal/chain/eth"
	"github.com/verox-wallet/verox/internal/ledger"
	veroxerr "github.com/verox-wallet/verox/pkg/errors"
)

// DefaultNativeSymbol is recorded for native sends when Config leaves it unset.
const DefaultNativeSymbol = "ETH"

// refreshConcurrency bounds parallel receipt lookups.
const refreshConcurrency = 4

// Config holds dependencies for the transaction engine.
type Config struct {
	Chain        chain.Client
	Keys         KeyProvider
	Ledger       History
	Nonces       *eth.NonceManager // nil creates a private one
	NativeSymbol string
	Logger       LogWriter
	Metrics      MetricsRecorder
}

// Engine sends transactions. Sends are serialized so nonces are handed out
// in submission order.
type Engine struct {
	sendMu       sync.Mutex
	chain        chain.Client
	keys         KeyProvider
	ledger       History
	nonces       *eth.NonceManager
	nativeSymbol string
	logger       LogWriter
	metrics      MetricsRecorder
}

// NewEngine creates a transaction engine.
func NewEngine(cfg *Config) (*Engine, error) {
	if cfg == nil || cfg.Chain == nil || cfg.Keys == nil || cfg.Ledger == nil {
		return nil, veroxerr.WithDetails(veroxerr.ErrConfigInvalid, map[string]string{
			"transaction": "chain client, key provider and ledger are required",
		})
	}

	e := &Engine{
		chain:        cfg.Chain,
		keys:         cfg.Keys,
		ledger:       cfg.Ledger,
		nonces:       cfg.Nonces,
		nativeSymbol: cfg.NativeSymbol,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
	}
	if e.nonces == nil {
		e.nonces = eth.NewNonceManager()
	}
	if e.nativeSymbol == "" {
		e.nativeSymbol = DefaultNativeSymbol
	}
	if e.logger == nil {
		e.logger = nopLogger{}
	}
	if e.metrics == nil {
		e.metrics = nopMetrics{}
	}
	return e, nil
}

// outgoing is a validated transfer waiting for nonce, fee and signature.
type outgoing struct {
	from   string
	params *eth.TxParams
	record ledger.Record
}

// SendNative transfers req.Amount of the native asset to req.To.
//
// Checks run in order: lock state (no network), recipient, amount, then the
// node is asked for nonce, fee and chain id. Nothing is retried. On success
// the returned record is the pending ledger entry. If the broadcast succeeded
// but the ledger write failed, the record is returned together with the
// STORAGE_FAILURE so the hash is not lost.
func (e *Engine) SendNative(ctx context.Context, req *SendRequest) (rec *ledger.Record, err error) {
	defer func() { e.metrics.RecordSend(err) }()

	from, err := e.keys.UnlockedAddress()
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, veroxerr.ErrInvalidInput
	}
	to, err := validateRecipient("to", req.To)
	if err != nil {
		return nil, err
	}
	value, err := parseAmount(req.Amount, chain.NativeDecimals)
	if err != nil {
		return nil, err
	}
	if err = checkFeeOverrides(req); err != nil {
		return nil, err
	}

	return e.send(ctx, req, &outgoing{
		from:   from,
		params: eth.NativeTransferParams(to, value),
		record: ledger.Record{
			From:        from,
			Recipient:   to,
			Amount:      chain.FormatDecimalAmount(value, chain.NativeDecimals),
			AssetSymbol: e.nativeSymbol,
		},
	})
}

// SendToken transfers req.Amount of the ERC-20 contract req.Token to req.To.
// The amount is scaled by the decimals the contract reports; a contract that
// does not answer decimals() is TOKEN_NOT_FOUND. Otherwise it behaves like
// SendNative.
func (e *Engine) SendToken(ctx context.Context, req *SendRequest) (rec *ledger.Record, err error) {
	defer func() { e.metrics.RecordSend(err) }()

	from, err := e.keys.UnlockedAddress()
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, veroxerr.ErrInvalidInput
	}
	token, err := validateRecipient("token", req.Token)
	if err != nil {
		return nil, err
	}
	to, err := validateRecipient("to", req.To)
	if err != nil {
		return nil, err
	}
	if err = checkAmountSyntax(req.Amount); err != nil {
		return nil, err
	}
	if err = checkFeeOverrides(req); err != nil {
		return nil, err
	}

	info, err := e.chain.TokenInfo(ctx, token)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(req.Amount, info.Decimals)
	if err != nil {
		return nil, err
	}
	params, err := eth.TokenTransferParams(token, to, amount)
	if err != nil {
		return nil, err
	}

	return e.send(ctx, req, &outgoing{
		from:   from,
		params: params,
		record: ledger.Record{
			From:        from,
			Recipient:   to,
			Amount:      chain.FormatDecimalAmount(amount, info.Decimals),
			AssetSymbol: info.Symbol,
			Token:       token,
		},
	})
}

// send assigns nonce and fee, signs, submits and records out.
func (e *Engine) send(ctx context.Context, req *SendRequest, out *outgoing) (*ledger.Record, error) {
	e.sendMu.Lock()
	defer e.sendMu.Unlock()

	p := out.params
	if err := e.fillFee(ctx, req, p); err != nil {
		return nil, err
	}
	chainID, err := e.chain.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	p.ChainID = chainID

	pending, err := e.chain.PendingNonce(ctx, out.from)
	if err != nil {
		return nil, err
	}
	p.Nonce = e.nonces.Next(out.from, pending)

	raw, err := e.sign(p)
	if err != nil {
		e.nonces.Release(out.from, p.Nonce)
		return nil, err
	}

	hash, err := e.chain.Submit(ctx, raw)
	if err != nil {
		// The node's view of the nonce is authoritative again next time.
		e.nonces.Reset(out.from)
		if reason := veroxerr.RejectionReason(err); reason != "" {
			e.logger.Info("transaction rejected: %s", reason)
		} else {
			e.logger.Error("submitting transaction: %v", err)
		}
		return nil, err
	}
	e.logger.Info("transaction submitted: %s nonce=%d", hash, p.Nonce)

	out.record.Hash = hash
	// The broadcast happened; record it even if the caller gave up waiting.
	rec, err := e.ledger.Append(context.WithoutCancel(ctx), out.record)
	if err != nil {
		e.logger.Error("recording transaction %s: %v", hash, err)
		return &out.record, err
	}
	return &rec, nil
}

func (e *Engine) fillFee(ctx context.Context, req *SendRequest, p *eth.TxParams) error {
	if req.GasLimit > 0 {
		p.GasLimit = req.GasLimit
	}
	if req.GasPrice != nil {
		p.GasPrice = new(big.Int).Set(req.GasPrice)
		return nil
	}
	price, err := e.chain.SuggestGasPrice(ctx)
	if err != nil {
		return err
	}
	p.GasPrice = price
	return nil
}

// sign builds and signs p inside the key loan and returns the raw encoding.
func (e *Engine) sign(p *eth.TxParams) ([]byte, error) {
	tx, err := eth.BuildTransaction(p)
	if err != nil {
		return nil, err
	}

	var raw []byte
	err = e.keys.WithSigningKey(func(key *ecdsa.PrivateKey) error {
		signed, err := eth.SignTransaction(tx, key, p.ChainID)
		if err != nil {
			return err
		}
		raw, err = eth.EncodeTransaction(signed)
		return err
	})
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// History returns the ledger, most recent first.
func (e *Engine) History() []ledger.Record {
	return e.ledger.List()
}

// RefreshStatuses asks the node for the receipt of every pending record and
// moves mined ones to confirmed or failed. Lookups run concurrently; the
// first lookup error aborts the refresh and nothing is updated.
func (e *Engine) RefreshStatuses(ctx context.Context) (RefreshResult, error) {
	pending := e.ledger.Pending()
	res := RefreshResult{Checked: len(pending)}
	if len(pending) == 0 {
		return res, nil
	}

	statuses := make([]chain.TxStatus, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshConcurrency)
	for i, rec := range pending {
		g.Go(func() error {
			st, err := e.chain.TransactionStatus(gctx, rec.Hash)
			if err != nil {
				return err
			}
			statuses[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	for i, rec := range pending {
		var next ledger.Status
		switch statuses[i] {
		case chain.TxConfirmed:
			next = ledger.StatusConfirmed
		case chain.TxFailed:
			next = ledger.StatusFailed
		default:
			continue
		}
		if err := e.ledger.UpdateStatus(ctx, rec.Hash, next); err != nil {
			return res, err
		}
		if next == ledger.StatusConfirmed {
			res.Confirmed++
		} else {
			res.Failed++
		}
		e.logger.Debug("transaction %s is %s", shortHash(rec.Hash), next)
	}
	return res, nil
}

func shortHash(hash string) string {
	if len(hash) <= 14 {
		return hash
	}
	return hash[:10] + "..." + hash[len(hash)-4:]
}
