// Package wallet provides the wallet lifecycle: create, import, unlock, lock
// and reset over a single encrypted vault.
package wallet

import (
	"context"

	"github.com/verox-wallet/verox/internal/keycrypto"
	"github.com/verox-wallet/verox/internal/vault"
)

// VaultStore persists the encrypted wallet secret.
type VaultStore interface {
	Seal(ctx context.Context, secret []byte, password, address string) (*vault.Record, error)
	Open(rec *vault.Record, password string) (*keycrypto.SecureBytes, error)
	Load(ctx context.Context) (*vault.Record, error)
	Exists(ctx context.Context) (bool, error)
	Erase(ctx context.Context) error
}

// HistoryStore is the part of the transaction ledger a reset touches.
type HistoryStore interface {
	Clear(ctx context.Context) error
}

// Verification is the outcome of a biometric check.
type Verification struct {
	Verified bool
	Method   string // e.g. "touch-id", "windows-hello"
}

// BiometricGate is an optional second unlock factor. Only its pass/fail
// result is used.
type BiometricGate interface {
	IsAvailable(ctx context.Context) bool
	Verify(ctx context.Context) (Verification, error)
}

// LogWriter provides logging capabilities.
type LogWriter interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// MetricsRecorder receives lifecycle observations.
type MetricsRecorder interface {
	RecordWalletOp(err error)
	RecordUnlock(err error)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

type nopMetrics struct{}

func (nopMetrics) RecordWalletOp(error) {}
func (nopMetrics) RecordUnlock(error)   {}
