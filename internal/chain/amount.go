package chain

import (
	"math/big"
	"strings"
)

// ParseDecimalAmount parses a non-negative decimal string into smallest units.
// "1.5" with 18 decimals is 1500000000000000000. More fractional digits than
// decimalPlaces is an error rather than a silent truncation.
//
//nolint:gocognit,gocyclo // Decimal parsing requires sequential validation steps
func ParseDecimalAmount(amount string, decimalPlaces int, invalidAmountErr error) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" || strings.HasPrefix(amount, "-") || strings.HasPrefix(amount, "+") {
		return nil, invalidAmountErr
	}

	parts := strings.Split(amount, ".")
	if len(parts) > 2 {
		return nil, invalidAmountErr
	}

	intPart := parts[0]
	decPart := ""
	if len(parts) == 2 {
		decPart = parts[1]
		if intPart == "" && decPart == "" {
			return nil, invalidAmountErr
		}
	}
	if intPart == "" {
		intPart = "0"
	}

	for _, part := range []string{intPart, decPart} {
		for _, c := range part {
			if c < '0' || c > '9' {
				return nil, invalidAmountErr
			}
		}
	}

	if trimmed := strings.TrimRight(decPart, "0"); len(trimmed) > decimalPlaces {
		return nil, invalidAmountErr
	}
	if len(decPart) > decimalPlaces {
		decPart = decPart[:decimalPlaces]
	}

	intVal, ok := new(big.Int).SetString(intPart, 10)
	if !ok {
		return nil, invalidAmountErr
	}

	multiplier := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimalPlaces)), nil)
	result := new(big.Int).Mul(intVal, multiplier)

	if decPart != "" {
		decPart += strings.Repeat("0", decimalPlaces-len(decPart))
		decVal, ok := new(big.Int).SetString(decPart, 10)
		if !ok {
			return nil, invalidAmountErr
		}
		result.Add(result, decVal)
	}

	return result, nil
}

// MaxAmountBits is the width of an on-chain amount (uint256).
const MaxAmountBits = 256

// ParsePositiveAmount is ParseDecimalAmount that also rejects zero and
// anything that does not fit in a uint256 once scaled.
func ParsePositiveAmount(amount string, decimalPlaces int, invalidAmountErr error) (*big.Int, error) {
	v, err := ParseDecimalAmount(amount, decimalPlaces, invalidAmountErr)
	if err != nil {
		return nil, err
	}
	if v.Sign() <= 0 || v.BitLen() > MaxAmountBits {
		return nil, invalidAmountErr
	}
	return v, nil
}

// FormatDecimalAmount converts a big.Int to a human-readable string with the given decimal places.
// Trailing zeros after the decimal point are removed.
// For example, 1500000000000000000 with 18 decimals returns "1.5".
func FormatDecimalAmount(amount *big.Int, decimalPlaces int) string {
	if amount == nil {
		return "0"
	}
	if amount.Sign() < 0 {
		return "-" + FormatDecimalAmount(new(big.Int).Abs(amount), decimalPlaces)
	}
	if decimalPlaces <= 0 {
		return amount.String()
	}

	str := amount.String()
	if len(str) <= decimalPlaces {
		str = strings.Repeat("0", decimalPlaces-len(str)+1) + str
	}

	decimalPos := len(str) - decimalPlaces
	frac := strings.TrimRight(str[decimalPos:], "0")
	if frac == "" {
		return str[:decimalPos]
	}
	return str[:decimalPos] + "." + frac
}
