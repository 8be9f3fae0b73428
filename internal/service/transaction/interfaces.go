package transaction

import (
	"context"
	"crypto/ecdsa"

	"github.com/verox-wallet/verox/internal/ledger"
)

// KeyProvider lends the unlocked signing key. It is implemented by the
// wallet Manager.
type KeyProvider interface {
	// UnlockedAddress returns the session address or WALLET_LOCKED.
	UnlockedAddress() (string, error)
	// WithSigningKey calls fn with the key, or returns WALLET_LOCKED without
	// calling it.
	WithSigningKey(fn func(key *ecdsa.PrivateKey) error) error
}

// History is the ledger as seen by the engine.
type History interface {
	Append(ctx context.Context, rec ledger.Record) (ledger.Record, error)
	List() []ledger.Record
	Pending() []ledger.Record
	UpdateStatus(ctx context.Context, hash string, status ledger.Status) error
}

// LogWriter provides logging operations.
type LogWriter interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// MetricsRecorder receives send outcomes.
type MetricsRecorder interface {
	RecordSend(err error)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

type nopMetrics struct{}

func (nopMetrics) RecordSend(error) {}
