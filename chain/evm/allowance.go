package evm

import (
	"context"
	"math/big"

	ck "github.com/shiftwave/chainkit"
	"github.com/shiftwave/chainkit/adapter"
	"github.com/shiftwave/chainkit/chain/evm/address"
	"github.com/shiftwave/chainkit/chain/evm/erc20"
	"github.com/shiftwave/chainkit/chain/evm/tx_input"
	"github.com/shiftwave/chainkit/errors"
)

// InfiniteApprovalAmount is the max uint256 sentinel granted by infinite
// approvals.
var InfiniteApprovalAmount = ck.AmountBlockchain(*new(big.Int).Sub(
	new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1)))

// ApproveTxInput describes an ERC-20 approval to build.
type ApproveTxInput struct {
	Signer        ck.Signer
	AccountNumber uint32
	Contract      ck.ContractAddress
	Spender       ck.Address
	Amount        ck.AmountBlockchain
	Pricing       ck.GasPricing
	GasLimit      uint64
}

// GetAllowance reads the allowance the owner has granted the spender on an
// ERC-20 contract.
func (a *Adapter) GetAllowance(ctx context.Context, owner ck.Address, contract ck.ContractAddress, spender ck.Address) (ck.AmountBlockchain, error) {
	ownerAddr, err := address.FromHex(owner)
	if err != nil {
		return ck.AmountBlockchain{}, err
	}
	spenderAddr, err := address.FromHex(spender)
	if err != nil {
		return ck.AmountBlockchain{}, err
	}
	data, err := erc20.Allowance(ownerAddr, spenderAddr)
	if err != nil {
		return ck.AmountBlockchain{}, err
	}
	raw, err := a.client.Call(ctx, ck.Address(contract), data)
	if err != nil {
		return ck.AmountBlockchain{}, err
	}
	allowance, err := erc20.UnpackUint256(raw)
	if err != nil {
		return ck.AmountBlockchain{}, err
	}
	return ck.AmountBlockchain(*allowance), nil
}

// BuildApproveTransaction assembles an unsigned approve(spender, amount)
// call against the token contract.
func (a *Adapter) BuildApproveTransaction(ctx context.Context, input ApproveTxInput) (ck.Tx, error) {
	if input.Contract == "" {
		return nil, errors.Validationf("contract is required")
	}
	if input.Spender == "" {
		return nil, errors.Validationf("spender is required")
	}
	contract, err := address.FromHex(ck.Address(input.Contract))
	if err != nil {
		return nil, err
	}
	spender, err := address.FromHex(input.Spender)
	if err != nil {
		return nil, err
	}
	data, err := erc20.Approve(spender, input.Amount.Int())
	if err != nil {
		return nil, err
	}
	from, err := a.GetAddress(adapter.GetAddressInput{
		Signer:        input.Signer,
		AccountNumber: input.AccountNumber,
	})
	if err != nil {
		return nil, err
	}
	account, err := a.GetAccount(ctx, from)
	if err != nil {
		return nil, err
	}

	pricing, gasLimit, err := a.settleGas(ctx, adapter.GetFeeDataInput{
		From:            from,
		ContractAddress: input.Contract,
		ContractData:    data,
	}, input.Pricing, input.GasLimit)
	if err != nil {
		return nil, err
	}

	txIn := &tx_input.TxInput{
		Nonce:    account.Evm.Nonce,
		GasLimit: gasLimit,
		Pricing:  pricing,
		ChainID:  a.chainID,
	}
	return txIn.BuildTx(contract, big.NewInt(0), data)
}
