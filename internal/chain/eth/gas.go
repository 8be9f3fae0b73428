package eth

import (
	"math/big"

	"github.com/verox-wallet/verox/internal/chain"
	veroxerr "github.com/verox-wallet/verox/pkg/errors"
)

const (
	// GasLimitETHTransfer is the gas limit for standard ETH transfers.
	GasLimitETHTransfer uint64 = 21000
	// GasLimitERC20Transfer is the typical gas limit for ERC-20 transfers.
	GasLimitERC20Transfer uint64 = 65000

	gweiDecimals = 9
)

// Fee is the gas price and limit attached to a legacy transaction.
type Fee struct {
	GasPrice *big.Int // wei per gas
	GasLimit uint64
}

// Total returns GasPrice * GasLimit in wei.
func (f Fee) Total() *big.Int {
	if f.GasPrice == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Mul(f.GasPrice, new(big.Int).SetUint64(f.GasLimit))
}

// DefaultGasLimit returns the fixed limit for a native or token transfer.
func DefaultGasLimit(token bool) uint64 {
	if token {
		return GasLimitERC20Transfer
	}
	return GasLimitETHTransfer
}

// ParseGwei converts a decimal gwei string ("1.5") into wei.
func ParseGwei(s string) (*big.Int, error) {
	return chain.ParsePositiveAmount(s, gweiDecimals, veroxerr.WithDetails(veroxerr.ErrInvalidInput,
		map[string]string{"gas_price": s}))
}

// FormatGwei renders wei as gwei.
func FormatGwei(wei *big.Int) string {
	return chain.FormatDecimalAmount(wei, gweiDecimals)
}
