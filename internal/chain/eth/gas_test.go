package eth

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	veroxerr "github.com/verox-wallet/verox/pkg/errors"
)

func TestParseGwei(t *testing.T) {
	t.Parallel()

	wei, err := ParseGwei("1.5")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_500_000_000), wei)

	for _, bad := range []string{"", "0", "-1", "abc", "0.0000000001"} {
		_, err := ParseGwei(bad)
		require.ErrorIs(t, err, veroxerr.ErrInvalidInput, bad)
	}
}

func TestFee(t *testing.T) {
	t.Parallel()

	fee := Fee{GasPrice: big.NewInt(2_000_000_000), GasLimit: GasLimitETHTransfer}
	assert.Equal(t, big.NewInt(42_000_000_000_000), fee.Total())
	assert.Equal(t, 0, Fee{GasLimit: 1}.Total().Sign())

	assert.Equal(t, GasLimitETHTransfer, DefaultGasLimit(false))
	assert.Equal(t, GasLimitERC20Transfer, DefaultGasLimit(true))
	assert.Equal(t, "2", FormatGwei(fee.GasPrice))
}
