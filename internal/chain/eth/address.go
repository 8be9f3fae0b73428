package eth

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	veroxerr "github.com/verox-wallet/verox/pkg/errors"
)

// IsValidAddress checks for 0x followed by 40 hex characters.
// It does not look at the checksum.
func IsValidAddress(address string) bool {
	return len(address) == 42 && strings.HasPrefix(address, "0x") && common.IsHexAddress(address)
}

// ToChecksumAddress converts an address to EIP-55 form.
// Invalid input is returned unchanged.
func ToChecksumAddress(address string) string {
	if !IsValidAddress(address) {
		return address
	}
	return common.HexToAddress(address).Hex()
}

// ValidateAddress accepts all-lowercase, all-uppercase, or correctly
// checksummed mixed-case addresses. Everything else is INVALID_ADDRESS.
func ValidateAddress(address string) error {
	if !IsValidAddress(address) {
		return veroxerr.WithDetails(veroxerr.ErrInvalidAddress, map[string]string{
			"address": address,
		})
	}

	addrPart := address[2:]
	if addrPart == strings.ToLower(addrPart) || addrPart == strings.ToUpper(addrPart) {
		return nil
	}

	if expected := ToChecksumAddress(address); address != expected {
		return veroxerr.WithDetails(veroxerr.ErrInvalidAddress, map[string]string{
			"address":  address,
			"reason":   "checksum mismatch",
			"expected": expected,
		})
	}
	return nil
}

// NormalizeAddress validates address and returns its EIP-55 form.
func NormalizeAddress(address string) (string, error) {
	if err := ValidateAddress(address); err != nil {
		return "", err
	}
	return ToChecksumAddress(address), nil
}
