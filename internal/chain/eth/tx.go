package eth

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/verox-wallet/verox/internal/chain"
	veroxerr "github.com/verox-wallet/verox/pkg/errors"
)

// ERC-20 function selectors, keccak256(signature)[0:4].
//
//nolint:gochecknoglobals // ERC-20 constants
var (
	erc20TransferSelector  = []byte{0xa9, 0x05, 0x9c, 0xbb} // transfer(address,uint256)
	erc20BalanceOfSelector = []byte{0x70, 0xa0, 0x82, 0x31} // balanceOf(address)
	erc20DecimalsSelector  = []byte{0x31, 0x3c, 0xe5, 0x67} // decimals()
	erc20SymbolSelector    = []byte{0x95, 0xd8, 0x9b, 0x41} // symbol()
)

// TxParams contains parameters for building a legacy transaction.
type TxParams struct {
	To       string   // Recipient address (or contract for ERC-20)
	Value    *big.Int // Value in wei (0 for ERC-20 transfers)
	GasLimit uint64
	GasPrice *big.Int // wei per gas
	Nonce    uint64
	ChainID  *big.Int
	Data     []byte // Contract call data
}

// Validate checks that the transaction parameters are complete.
func (p *TxParams) Validate() error {
	if !IsValidAddress(p.To) {
		return veroxerr.WithDetails(veroxerr.ErrInvalidAddress, map[string]string{
			"field":   "to",
			"address": p.To,
		})
	}
	if p.Value == nil || p.Value.Sign() < 0 {
		return veroxerr.WithDetails(veroxerr.ErrInvalidAmount, map[string]string{
			"reason": "value must be non-negative",
		})
	}
	if p.Value.BitLen() > chain.MaxAmountBits {
		return veroxerr.WithDetails(veroxerr.ErrInvalidAmount, map[string]string{
			"reason": "value exceeds uint256",
		})
	}
	if p.GasPrice == nil || p.GasPrice.Sign() <= 0 {
		return veroxerr.WithDetails(veroxerr.ErrInvalidInput, map[string]string{"field": "gas_price"})
	}
	if p.GasLimit == 0 {
		return veroxerr.WithDetails(veroxerr.ErrInvalidInput, map[string]string{"field": "gas_limit"})
	}
	if p.ChainID == nil || p.ChainID.Sign() <= 0 {
		return veroxerr.WithDetails(veroxerr.ErrInvalidInput, map[string]string{"field": "chain_id"})
	}
	return nil
}

// NativeTransferParams creates parameters for a native transfer.
// Fee, nonce, and chain ID are filled in by the caller.
func NativeTransferParams(to string, value *big.Int) *TxParams {
	return &TxParams{
		To:       to,
		Value:    value,
		GasLimit: GasLimitETHTransfer,
	}
}

// TokenTransferParams creates parameters for an ERC-20 transfer of amount to
// recipient. The transaction itself is addressed to the token contract.
func TokenTransferParams(token, recipient string, amount *big.Int) (*TxParams, error) {
	data, err := BuildERC20TransferData(recipient, amount)
	if err != nil {
		return nil, err
	}
	return &TxParams{
		To:       token,
		Value:    big.NewInt(0),
		GasLimit: GasLimitERC20Transfer,
		Data:     data,
	}, nil
}

// BuildERC20TransferData builds the call data for transfer(address,uint256).
// amount must fit the uint256 word.
func BuildERC20TransferData(to string, amount *big.Int) ([]byte, error) {
	if amount == nil || amount.Sign() < 0 || amount.BitLen() > chain.MaxAmountBits {
		return nil, veroxerr.WithDetails(veroxerr.ErrInvalidAmount, map[string]string{
			"reason": "token amount must be a uint256",
		})
	}
	data := make([]byte, 4+32+32)
	copy(data[:4], erc20TransferSelector)
	copy(data[16:36], common.HexToAddress(to).Bytes())
	amount.FillBytes(data[36:68])
	return data, nil
}

// buildBalanceOfData builds the call data for balanceOf(address).
func buildBalanceOfData(owner string) []byte {
	data := make([]byte, 4+32)
	copy(data[:4], erc20BalanceOfSelector)
	copy(data[16:36], common.HexToAddress(owner).Bytes())
	return data
}

// BuildTransaction creates an unsigned legacy transaction.
func BuildTransaction(p *TxParams) (*types.Transaction, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	to := common.HexToAddress(p.To)
	return types.NewTx(&types.LegacyTx{
		Nonce:    p.Nonce,
		To:       &to,
		Value:    p.Value,
		Gas:      p.GasLimit,
		GasPrice: p.GasPrice,
		Data:     p.Data,
	}), nil
}

// SignTransaction signs tx with EIP-155 replay protection. The key is not
// retained; zeroing it is the caller's responsibility.
func SignTransaction(tx *types.Transaction, key *ecdsa.PrivateKey, chainID *big.Int) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, types.NewEIP155Signer(chainID), key)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}
	return signed, nil
}

// EncodeTransaction returns the raw bytes expected by eth_sendRawTransaction.
func EncodeTransaction(tx *types.Transaction) ([]byte, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encoding transaction: %w", err)
	}
	return raw, nil
}
