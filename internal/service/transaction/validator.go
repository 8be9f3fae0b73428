package transaction

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/verox-wallet/verox/internal/chain"
	"github.com/verox-wallet/verox/internal/chain/eth"
	veroxerr "github.com/verox-wallet/verox/pkg/errors"
)

// maxDecimals bounds the syntactic amount check done before a token's
// decimals are known. It matches the largest uint256 exponent.
const maxDecimals = 77

// validateRecipient checks field and returns it in checksum form.
func validateRecipient(field, address string) (string, error) {
	address = strings.TrimSpace(address)
	if err := eth.ValidateAddress(address); err != nil {
		var ve *veroxerr.VeroxError
		details := map[string]string{"field": field, "address": address}
		if veroxerr.As(err, &ve) {
			for k, v := range ve.Details {
				details[k] = v
			}
		}
		return "", veroxerr.WithDetails(veroxerr.ErrInvalidAddress, details)
	}
	return eth.ToChecksumAddress(address), nil
}

// parseAmount converts a positive decimal string into smallest units.
// Zero, negative, malformed, over-precise and wider than uint256 amounts are
// INVALID_AMOUNT.
func parseAmount(amount string, decimals int) (*big.Int, error) {
	return chain.ParsePositiveAmount(amount, decimals, veroxerr.WithDetails(veroxerr.ErrInvalidAmount,
		map[string]string{"amount": strings.TrimSpace(amount), "decimals": strconv.Itoa(decimals)}))
}

// checkAmountSyntax rejects amounts that no decimals value could accept.
// The uint256 bound depends on the decimals and is left to parseAmount.
func checkAmountSyntax(amount string) error {
	invalid := veroxerr.WithDetails(veroxerr.ErrInvalidAmount, map[string]string{"amount": strings.TrimSpace(amount)})
	v, err := chain.ParseDecimalAmount(amount, maxDecimals, invalid)
	if err != nil {
		return err
	}
	if v.Sign() <= 0 {
		return invalid
	}
	return nil
}

func checkFeeOverrides(req *SendRequest) error {
	if req.GasPrice != nil && req.GasPrice.Sign() <= 0 {
		return veroxerr.WithDetails(veroxerr.ErrInvalidInput, map[string]string{"field": "gas_price"})
	}
	return nil
}
