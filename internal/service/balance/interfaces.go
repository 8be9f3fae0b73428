package balance

import (
	"context"
	"math/big"

	"github.com/verox-wallet/verox/internal/chain"
)

// Reader is the read-only part of the chain client the service needs.
type Reader interface {
	GetNativeBalance(ctx context.Context, address string) (*big.Int, error)
	GetTokenBalance(ctx context.Context, token, address string) (*chain.Amount, error)
}

// PriceProvider quotes an asset in USD. Quotes are for display only.
type PriceProvider interface {
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
}

// LogWriter provides logging capabilities.
type LogWriter interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}
