package tx_input

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	ck "github.com/shiftwave/chainkit"
	"github.com/shiftwave/chainkit/chain/evm/tx"
	"github.com/shiftwave/chainkit/errors"
)

// TxInput carries everything needed to assemble an unsigned EVM
// transaction: account state, gas budget, and exactly one pricing model.
type TxInput struct {
	Nonce    uint64
	GasLimit uint64
	Pricing  ck.GasPricing
	ChainID  *big.Int
}

// BuildTx assembles the unsigned transaction.  The pricing model decides
// between a legacy and a dynamic-fee (EIP-1559) envelope.
func (input *TxInput) BuildTx(to common.Address, value *big.Int, data []byte) (*tx.Tx, error) {
	if input.GasLimit == 0 {
		return nil, errors.Validationf("gas limit is required")
	}
	if input.ChainID == nil || input.ChainID.Sign() <= 0 {
		return nil, errors.Validationf("chain id is required")
	}
	var ethTx *types.Transaction
	switch pricing := input.Pricing.(type) {
	case ck.LegacyGasPricing:
		ethTx = types.NewTx(&types.LegacyTx{
			Nonce:    input.Nonce,
			GasPrice: pricing.GasPrice.Int(),
			Gas:      input.GasLimit,
			To:       &to,
			Value:    value,
			Data:     data,
		})
	case ck.DynamicGasPricing:
		ethTx = types.NewTx(&types.DynamicFeeTx{
			ChainID:   input.ChainID,
			Nonce:     input.Nonce,
			GasTipCap: pricing.MaxPriorityFeePerGas.Int(),
			GasFeeCap: pricing.MaxFeePerGas.Int(),
			Gas:       input.GasLimit,
			To:        &to,
			Value:     value,
			Data:      data,
		})
	default:
		return nil, errors.Validationf("gas pricing is required")
	}
	return &tx.Tx{
		EthTx:  ethTx,
		Signer: types.LatestSignerForChainID(input.ChainID),
	}, nil
}
