package transaction

import "math/big"

// SendRequest describes a native or ERC-20 transfer.
type SendRequest struct {
	// Token is the ERC-20 contract address. Ignored by SendNative.
	Token string

	// To is the recipient. For token sends this is the token holder to
	// credit, not the contract.
	To string

	// Amount is a positive decimal in whole units ("0.05"), scaled by the
	// asset's decimals.
	Amount string

	// Optional fee overrides. A nil GasPrice asks the node; a zero GasLimit
	// uses the fixed limit for the transfer kind.
	GasPrice *big.Int
	GasLimit uint64
}

// RefreshResult summarizes a status refresh.
type RefreshResult struct {
	Checked   int
	Confirmed int
	Failed    int
}

// Updated is the number of records that left pending.
func (r RefreshResult) Updated() int {
	return r.Confirmed + r.Failed
}
