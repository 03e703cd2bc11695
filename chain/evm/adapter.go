// Package evm implements the account-family adapter shared by Ethereum and
// Avalanche.  Chain specifics (chain id, coin type, provider URL) come in
// through configuration; the behavior is identical.
package evm

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	ck "github.com/shiftwave/chainkit"
	"github.com/shiftwave/chainkit/adapter"
	"github.com/shiftwave/chainkit/chain/evm/address"
	"github.com/shiftwave/chainkit/chain/evm/client"
	"github.com/shiftwave/chainkit/chain/evm/erc20"
	"github.com/shiftwave/chainkit/chain/evm/tx_input"
	"github.com/shiftwave/chainkit/errors"
)

// Gas used by a plain value transfer.
const NativeTransferGasLimit = 21_000

// Fee tier multipliers applied to the provider's base estimate.
const (
	fastMultiplier = 1.2
	slowMultiplier = 0.8
)

type Adapter struct {
	cfg     *ck.ChainConfig
	chainID *big.Int
	client  *client.Client
}

var _ adapter.ChainAdapter = &Adapter{}

// NewAdapter constructs an EVM adapter for any configured EVM chain.
func NewAdapter(cfg *ck.ChainConfig) (*Adapter, error) {
	if cfg.Chain.Family() != ck.FamilyEvm {
		return nil, errors.Errorf(errors.Configuration, "evm adapter cannot serve chain %q", cfg.Chain)
	}
	if cfg.ChainID == 0 {
		return nil, errors.Errorf(errors.Configuration, "chain id is required for %s", cfg.Chain)
	}
	return &Adapter{
		cfg:     cfg,
		chainID: new(big.Int).SetUint64(cfg.ChainID),
		client:  client.NewClient(cfg),
	}, nil
}

func (a *Adapter) GetType() ck.ChainIdentifier {
	return a.cfg.Chain
}

func (a *Adapter) BuildBIP44Params(accountNumber uint32) ck.BIP44Params {
	return ck.BIP44Params{
		Purpose:       ck.PurposeLegacy,
		CoinType:      a.cfg.CoinType,
		AccountNumber: accountNumber,
	}
}

// GetAddress derives the account address.  EVM chains use a single account
// per BIP44 account number; change and index are always zero.
func (a *Adapter) GetAddress(input adapter.GetAddressInput) (ck.Address, error) {
	if input.Signer == nil {
		return "", errors.Validationf("signer is required")
	}
	if input.Purpose != 0 && input.Purpose != ck.PurposeLegacy {
		return "", errors.Validationf("purpose %d is not valid for %s", input.Purpose, a.cfg.Chain)
	}
	if input.ScriptType != "" {
		return "", errors.Validationf("script type does not apply to %s", a.cfg.Chain)
	}
	publicKey, err := input.Signer.PublicKey(a.BuildBIP44Params(input.AccountNumber))
	if err != nil {
		return "", errors.Wrap(errors.Signing, err, "signer could not derive public key")
	}
	return address.FromPublicKey(publicKey)
}

// GetAccount returns the native balance, nonce, and ERC-20 sub-balances.
func (a *Adapter) GetAccount(ctx context.Context, addr ck.Address) (*ck.Account, error) {
	if err := a.checkAddress(addr); err != nil {
		return nil, err
	}
	resp, err := a.client.GetAccount(ctx, addr)
	if err != nil {
		return nil, err
	}
	account := &ck.Account{
		Address: addr,
		Balance: ck.NewAmountBlockchainFromStr(resp.Balance),
		Evm:     &ck.EvmAccount{Nonce: resp.Nonce},
	}
	for _, token := range resp.Tokens {
		account.Evm.Tokens = append(account.Evm.Tokens, ck.TokenBalance{
			AssetId: ck.AssetId{
				ChainId:   a.cfg.Chain,
				Namespace: ck.NamespaceErc20,
				Reference: strings.ToLower(token.Contract),
			},
			Symbol:   token.Symbol,
			Decimals: token.Decimals,
			Balance:  ck.NewAmountBlockchainFromStr(token.Balance),
		})
	}
	return account, nil
}

// GetTxHistory lists transfers touching the address.
func (a *Adapter) GetTxHistory(ctx context.Context, addr ck.Address) (*ck.TxHistory, error) {
	if err := a.checkAddress(addr); err != nil {
		return nil, err
	}
	resp, err := a.client.GetTxHistory(ctx, addr)
	if err != nil {
		return nil, err
	}
	history := &ck.TxHistory{Address: addr}
	for _, t := range resp.Transactions {
		history.Transactions = append(history.Transactions, ck.TxHistoryItem{
			TxHash:        ck.TxHash(t.Txid),
			From:          ck.Address(strings.ToLower(t.From)),
			To:            ck.Address(strings.ToLower(t.To)),
			Value:         ck.NewAmountBlockchainFromStr(t.Value),
			Fee:           ck.NewAmountBlockchainFromStr(t.Fee),
			BlockHeight:   t.BlockHeight,
			BlockTime:     t.BlockTime,
			Confirmations: t.Confirmations,
		})
	}
	return history, nil
}

// GetFeeData estimates the three fee tiers.  The provider's base estimate is
// scaled per tier; gas usage is simulated when the send carries call data.
func (a *Adapter) GetFeeData(ctx context.Context, input adapter.GetFeeDataInput) (ck.FeeDataEstimate, error) {
	fees, err := a.client.GasFees(ctx)
	if err != nil {
		return ck.FeeDataEstimate{}, err
	}
	gasLimit, err := a.feeGasLimit(ctx, input)
	if err != nil {
		return ck.FeeDataEstimate{}, err
	}
	base := ck.EvmFeeData{
		GasPrice:             ck.NewAmountBlockchainFromStr(fees.GasPrice),
		MaxFeePerGas:         ck.NewAmountBlockchainFromStr(fees.MaxFeePerGas),
		MaxPriorityFeePerGas: ck.NewAmountBlockchainFromStr(fees.MaxPriorityFeePerGas),
		GasLimit:             ck.NewAmountBlockchainFromUint64(gasLimit),
	}
	return ck.FeeDataEstimate{
		Fast:    evmTier(base, fastMultiplier),
		Average: evmTier(base, 1.0),
		Slow:    evmTier(base, slowMultiplier),
	}, nil
}

func (a *Adapter) feeGasLimit(ctx context.Context, input adapter.GetFeeDataInput) (uint64, error) {
	if input.ContractAddress == "" {
		if len(input.ContractData) > 0 && input.To != "" {
			return a.client.EstimateGas(ctx, input.From, input.To, input.Value, input.ContractData)
		}
		return NativeTransferGasLimit, nil
	}
	data := input.ContractData
	if len(data) == 0 {
		value := input.Value
		if input.SendMax {
			// Simulate with the exact token balance so the call data
			// matches the eventual max-value send.
			account, err := a.GetAccount(ctx, input.From)
			if err != nil {
				return 0, err
			}
			token, ok := account.TokenBalanceOf(input.ContractAddress)
			if !ok {
				return 0, errors.Validationf("no %s balance for %s", input.ContractAddress, input.From)
			}
			value = token.Balance
		}
		to, err := address.FromHex(input.To)
		if err != nil {
			return 0, err
		}
		data, err = erc20.Transfer(to, value.Int())
		if err != nil {
			return 0, err
		}
	}
	return a.client.EstimateGas(ctx, input.From, ck.Address(input.ContractAddress), ck.AmountBlockchain{}, data)
}

// evmTier scales every per-gas component by the tier multiplier, rounding up.
func evmTier(base ck.EvmFeeData, multiplier float64) ck.FeeData {
	scaled := ck.EvmFeeData{
		GasPrice:             ck.MultiplyByFloat(base.GasPrice, multiplier),
		MaxFeePerGas:         ck.MultiplyByFloat(base.MaxFeePerGas, multiplier),
		MaxPriorityFeePerGas: ck.MultiplyByFloat(base.MaxPriorityFeePerGas, multiplier),
		GasLimit:             base.GasLimit,
	}
	perGas := scaled.MaxFeePerGas
	if perGas.IsZero() {
		perGas = scaled.GasPrice
	}
	return ck.FeeData{
		TxFee: perGas.Mul(&scaled.GasLimit),
		Evm:   &scaled,
	}
}

// BuildSendTransaction assembles an unsigned native or ERC-20 transfer.
func (a *Adapter) BuildSendTransaction(ctx context.Context, input adapter.BuildSendTxInput) (ck.Tx, error) {
	if input.To == "" {
		return nil, errors.Validationf("to is required")
	}
	if input.Value.IsZero() && !input.SendMax {
		return nil, errors.Validationf("value is required")
	}
	if err := a.checkAddress(input.To); err != nil {
		return nil, err
	}
	var opts adapter.EvmTxOptions
	if input.Evm != nil {
		opts = *input.Evm
	}
	if opts.Erc20ContractAddress != "" {
		if err := a.checkAddress(ck.Address(opts.Erc20ContractAddress)); err != nil {
			return nil, err
		}
	}
	from, err := a.GetAddress(adapter.GetAddressInput{
		Signer:        input.Signer,
		Purpose:       input.Purpose,
		AccountNumber: input.AccountNumber,
	})
	if err != nil {
		return nil, err
	}
	account, err := a.GetAccount(ctx, from)
	if err != nil {
		return nil, err
	}

	pricing, gasLimit, err := a.settleGas(ctx, a.feeInputFor(from, input, opts), opts.Pricing, opts.GasLimit)
	if err != nil {
		return nil, err
	}

	value := input.Value
	if input.SendMax {
		value, err = a.sendMaxValue(account, opts.Erc20ContractAddress, pricing, gasLimit)
		if err != nil {
			return nil, err
		}
	}

	to, callValue, data, err := a.transferPayload(input.To, value, opts)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"chain": a.cfg.Chain,
		"from":  from,
		"to":    input.To,
		"value": value.String(),
		"nonce": account.Evm.Nonce,
	}).Debug("building evm transfer")

	txIn := &tx_input.TxInput{
		Nonce:    account.Evm.Nonce,
		GasLimit: gasLimit,
		Pricing:  pricing,
		ChainID:  a.chainID,
	}
	return txIn.BuildTx(to, callValue, data)
}

// settleGas fills in whichever of pricing and gas limit the caller left
// open, using the average tier of a fresh estimate.
func (a *Adapter) settleGas(ctx context.Context, feeInput adapter.GetFeeDataInput, pricing ck.GasPricing, gasLimit uint64) (ck.GasPricing, uint64, error) {
	if pricing != nil && gasLimit != 0 {
		return pricing, gasLimit, nil
	}
	estimate, err := a.GetFeeData(ctx, feeInput)
	if err != nil {
		return nil, 0, err
	}
	average := estimate.Average.Evm
	if pricing == nil {
		if average.MaxFeePerGas.IsZero() {
			pricing = ck.LegacyGasPricing{GasPrice: average.GasPrice}
		} else {
			pricing = ck.DynamicGasPricing{
				MaxFeePerGas:         average.MaxFeePerGas,
				MaxPriorityFeePerGas: average.MaxPriorityFeePerGas,
			}
		}
	}
	if gasLimit == 0 {
		gasLimit = average.GasLimit.Uint64()
	}
	return pricing, gasLimit, nil
}

func (a *Adapter) feeInputFor(from ck.Address, input adapter.BuildSendTxInput, opts adapter.EvmTxOptions) adapter.GetFeeDataInput {
	feeInput := adapter.GetFeeDataInput{
		To:    input.To,
		Value: input.Value,
		From:  from,
	}
	if opts.Erc20ContractAddress != "" {
		// Simulate with a transfer of one base unit; sendMax amounts are
		// not known until pricing is settled.
		recipient, err := address.FromHex(input.To)
		if err == nil {
			data, err := erc20.Transfer(recipient, big.NewInt(1))
			if err == nil {
				feeInput.ContractAddress = opts.Erc20ContractAddress
				feeInput.ContractData = data
			}
		}
	} else if len(opts.Data) > 0 {
		feeInput.ContractData = opts.Data
	}
	return feeInput
}

// sendMaxValue computes the spendable maximum: the full token balance for
// ERC-20 sends, or the native balance minus the worst-case fee.
func (a *Adapter) sendMaxValue(account *ck.Account, contract ck.ContractAddress, pricing ck.GasPricing, gasLimit uint64) (ck.AmountBlockchain, error) {
	if contract != "" {
		token, ok := account.TokenBalanceOf(contract)
		if !ok {
			return ck.AmountBlockchain{}, errors.Responsef("account holds no balance for token %s", contract)
		}
		return token.Balance, nil
	}
	unitPrice := ck.MaxUnitPrice(pricing)
	gas := ck.NewAmountBlockchainFromUint64(gasLimit)
	fee := unitPrice.Mul(&gas)
	if account.Balance.Cmp(&fee) <= 0 {
		return ck.AmountBlockchain{}, errors.Errorf(errors.InsufficientFunds,
			"balance %s cannot cover fee %s", account.Balance.String(), fee.String())
	}
	return account.Balance.Sub(&fee), nil
}

func (a *Adapter) transferPayload(recipient ck.Address, value ck.AmountBlockchain, opts adapter.EvmTxOptions) (to common.Address, callValue *big.Int, data []byte, err error) {
	if opts.Erc20ContractAddress != "" {
		to, err = address.FromHex(ck.Address(opts.Erc20ContractAddress))
		if err != nil {
			return
		}
		var dest common.Address
		dest, err = address.FromHex(recipient)
		if err != nil {
			return
		}
		data, err = erc20.Transfer(dest, value.Int())
		callValue = big.NewInt(0)
		return
	}
	to, err = address.FromHex(recipient)
	callValue = value.Int()
	data = opts.Data
	return
}

// SignTransaction requests the single detached signature and finalizes the
// transaction envelope.
func (a *Adapter) SignTransaction(_ context.Context, input adapter.SignTxInput) (*ck.SignedTx, error) {
	if input.Signer == nil {
		return nil, errors.Validationf("signer is required")
	}
	if !input.Signer.SupportsOfflineSigning() {
		return nil, errors.Signingf("signer does not support offline signing")
	}
	path := a.BuildBIP44Params(input.AccountNumber)
	sighashes, err := input.Tx.Sighashes()
	if err != nil {
		return nil, errors.Wrap(errors.Signing, err, "computing sighash")
	}
	signatures := make([]ck.TxSignature, len(sighashes))
	for i, sighash := range sighashes {
		signature, err := input.Signer.Sign(path, sighash)
		if err != nil {
			return nil, errors.Wrap(errors.Signing, err, "signer rejected transaction")
		}
		signatures[i] = signature
	}
	if err := input.Tx.AddSignatures(signatures...); err != nil {
		return nil, errors.Wrap(errors.Signing, err, "attaching signature")
	}
	raw, err := input.Tx.Serialize()
	if err != nil {
		return nil, errors.Wrap(errors.Signing, err, "serializing signed transaction")
	}
	return &ck.SignedTx{Hash: input.Tx.Hash(), Raw: raw}, nil
}

// BroadcastTransaction submits the signed transaction to the provider.
func (a *Adapter) BroadcastTransaction(ctx context.Context, signedTx *ck.SignedTx) (ck.TxHash, error) {
	if signedTx == nil || len(signedTx.Raw) == 0 {
		return "", errors.Validationf("signed transaction is required")
	}
	return a.client.SendTx(ctx, signedTx.Raw)
}

// SignAndBroadcastTransaction composes signing and broadcast, preferring the
// signer's combined capability when it cannot export raw signatures.
func (a *Adapter) SignAndBroadcastTransaction(ctx context.Context, input adapter.SignTxInput) (ck.TxHash, error) {
	if input.Signer == nil {
		return "", errors.Validationf("signer is required")
	}
	if input.Signer.SupportsOfflineSigning() {
		signed, err := a.SignTransaction(ctx, input)
		if err != nil {
			return "", err
		}
		return a.BroadcastTransaction(ctx, signed)
	}
	if broadcaster, ok := input.Signer.(ck.SignAndBroadcaster); ok && input.Signer.SupportsBroadcast() {
		return broadcaster.SignAndBroadcastTransaction(a.BuildBIP44Params(input.AccountNumber), input.Tx)
	}
	return "", errors.Errorf(errors.SignAndBroadcastFailed,
		"signer supports neither offline signing nor combined sign-and-broadcast")
}

// ValidateAddress is pure syntactic validation of a 20-byte hex address.
func (a *Adapter) ValidateAddress(addr ck.Address) adapter.ValidateAddressResult {
	if !address.Valid(addr) {
		return adapter.ValidateAddressResult{Valid: false, Result: adapter.ResultInvalid}
	}
	return adapter.ValidateAddressResult{Valid: true, Result: adapter.ResultValid}
}

func (a *Adapter) checkAddress(addr ck.Address) error {
	if addr == "" {
		return errors.Validationf("address is required")
	}
	if !address.Valid(addr) {
		return errors.Validationf("invalid evm address %s", addr)
	}
	return nil
}
