package bitcoin

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/sirupsen/logrus"

	ck "github.com/shiftwave/chainkit"
	"github.com/shiftwave/chainkit/adapter"
	"github.com/shiftwave/chainkit/chain/bitcoin/address"
	"github.com/shiftwave/chainkit/chain/bitcoin/client"
	"github.com/shiftwave/chainkit/chain/bitcoin/tx_input"
	"github.com/shiftwave/chainkit/errors"
)

// Byte size of a typical one-input two-output spend, used when estimating
// fees without a concrete UTXO selection.
const typicalTxBytes = 226

// Confirmation targets (in blocks) backing the three fee tiers.
const (
	fastBlocks    = 2
	averageBlocks = 6
	slowBlocks    = 24
)

// Adapter is the UTXO-family ChainAdapter for Bitcoin.
type Adapter struct {
	cfg     *ck.ChainConfig
	params  *chaincfg.Params
	client  *client.Client
	builder TxBuilder
	addrs   address.Builder
}

var _ adapter.ChainAdapter = &Adapter{}

// NewAdapter constructs the Bitcoin adapter against a data provider URL.
func NewAdapter(cfg *ck.ChainConfig) (*Adapter, error) {
	if cfg.Chain != ck.Bitcoin {
		return nil, errors.Errorf(errors.Configuration, "bitcoin adapter cannot serve chain %q", cfg.Chain)
	}
	params := &chaincfg.MainNetParams
	return &Adapter{
		cfg:     cfg,
		params:  params,
		client:  client.NewClient(cfg),
		builder: NewTxBuilder(params),
		addrs:   address.NewBuilder(params),
	}, nil
}

func (a *Adapter) GetType() ck.ChainIdentifier {
	return ck.Bitcoin
}

func (a *Adapter) BuildBIP44Params(accountNumber uint32) ck.BIP44Params {
	return ck.BIP44Params{
		Purpose:       ck.PurposeLegacy,
		CoinType:      a.cfg.CoinType,
		AccountNumber: accountNumber,
	}
}

func (a *Adapter) bip44(purpose ck.Purpose, accountNumber uint32, isChange bool, index uint32) ck.BIP44Params {
	return ck.BIP44Params{
		Purpose:       purpose,
		CoinType:      a.cfg.CoinType,
		AccountNumber: accountNumber,
		IsChange:      isChange,
		AddressIndex:  index,
	}
}

// GetAddress derives the address for the requested path.  The purpose code
// selects the script type; a conflicting explicit script type is rejected.
func (a *Adapter) GetAddress(input adapter.GetAddressInput) (ck.Address, error) {
	if input.Signer == nil {
		return "", errors.Validationf("signer is required")
	}
	if input.Purpose == 0 {
		return "", errors.Validationf("purpose is required")
	}
	path := a.bip44(input.Purpose, input.AccountNumber, input.IsChange, input.AddressIndex)
	if err := path.Validate(input.ScriptType); err != nil {
		return "", err
	}
	publicKey, err := input.Signer.PublicKey(path)
	if err != nil {
		return "", errors.Wrap(errors.Signing, err, "signer could not derive public key")
	}
	return a.addrs.FromPublicKey(publicKey, input.Purpose)
}

// GetAccount returns the balance and UTXO set for an address.
func (a *Adapter) GetAccount(ctx context.Context, addr ck.Address) (*ck.Account, error) {
	if err := a.checkAddress(addr); err != nil {
		return nil, err
	}
	resp, err := a.client.GetAddress(ctx, addr)
	if err != nil {
		return nil, err
	}
	utxos, err := a.client.UnspentOutputs(ctx, addr)
	if err != nil {
		return nil, err
	}
	account := &ck.Account{
		Address: addr,
		Balance: ck.NewAmountBlockchainFromStr(resp.Balance),
		Utxo:    &ck.UtxoAccount{},
	}
	for _, utxo := range utxos {
		account.Utxo.Utxos = append(account.Utxo.Utxos, ck.Utxo{
			TxHash:        utxo.Txid,
			Index:         utxo.Vout,
			Value:         ck.NewAmountBlockchainFromStr(utxo.Value),
			Confirmations: utxo.Confirmations,
		})
	}
	return account, nil
}

// GetTxHistory lists transfers touching the address.
func (a *Adapter) GetTxHistory(ctx context.Context, addr ck.Address) (*ck.TxHistory, error) {
	if err := a.checkAddress(addr); err != nil {
		return nil, err
	}
	resp, err := a.client.GetAddress(ctx, addr)
	if err != nil {
		return nil, err
	}
	history := &ck.TxHistory{Address: addr}
	for _, t := range resp.Transactions {
		item := ck.TxHistoryItem{
			TxHash:        ck.TxHash(t.Txid),
			Value:         ck.NewAmountBlockchainFromStr(t.Value),
			Fee:           ck.NewAmountBlockchainFromStr(t.Fees),
			BlockHeight:   t.BlockHeight,
			BlockTime:     t.BlockTime,
			Confirmations: t.Confirmations,
		}
		if len(t.Vin) > 0 && len(t.Vin[0].Addresses) > 0 {
			item.From = ck.Address(t.Vin[0].Addresses[0])
		}
		if len(t.Vout) > 0 && len(t.Vout[0].Addresses) > 0 {
			item.To = ck.Address(t.Vout[0].Addresses[0])
		}
		history.Transactions = append(history.Transactions, item)
	}
	return history, nil
}

// GetFeeData estimates fee-rate tiers from network-wide confirmation
// targets.  Tiers are clamped so fast >= average >= slow always holds even
// if the provider reports otherwise.
func (a *Adapter) GetFeeData(ctx context.Context, _ adapter.GetFeeDataInput) (ck.FeeDataEstimate, error) {
	fast, err := a.client.EstimateFee(ctx, fastBlocks, a.cfg.Decimals)
	if err != nil {
		return ck.FeeDataEstimate{}, err
	}
	average, err := a.client.EstimateFee(ctx, averageBlocks, a.cfg.Decimals)
	if err != nil {
		return ck.FeeDataEstimate{}, err
	}
	slow, err := a.client.EstimateFee(ctx, slowBlocks, a.cfg.Decimals)
	if err != nil {
		return ck.FeeDataEstimate{}, err
	}
	if average.Cmp(&fast) > 0 {
		average = fast
	}
	if slow.Cmp(&average) > 0 {
		slow = average
	}
	return ck.FeeDataEstimate{
		Fast:    utxoTier(fast, 0, 35, 5),
		Average: utxoTier(average, 0, 60, 3),
		Slow:    utxoTier(slow, 30, 240, 1),
	}, nil
}

func utxoTier(rate ck.AmountBlockchain, minMinutes, maxMinutes, effort int) ck.FeeData {
	size := ck.NewAmountBlockchainFromUint64(typicalTxBytes)
	return ck.FeeData{
		TxFee: rate.Mul(&size),
		Utxo: &ck.UtxoFeeData{
			SatsPerByte: rate,
			MinMinutes:  minMinutes,
			MaxMinutes:  maxMinutes,
			Effort:      effort,
		},
	}
}

// BuildSendTransaction selects UTXOs for the requested value and assembles
// an unsigned transfer.
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
	purpose := input.Purpose
	if purpose == 0 {
		purpose = ck.PurposeLegacy
	}
	var scriptType ck.ScriptType
	var opReturnData []byte
	if input.Utxo != nil {
		scriptType = input.Utxo.ScriptType
		opReturnData = input.Utxo.OpReturnData
	}
	from, err := a.GetAddress(adapter.GetAddressInput{
		Signer:        input.Signer,
		Purpose:       purpose,
		AccountNumber: input.AccountNumber,
		ScriptType:    scriptType,
	})
	if err != nil {
		return nil, err
	}
	path := a.bip44(purpose, input.AccountNumber, false, 0)
	publicKey, err := input.Signer.PublicKey(path)
	if err != nil {
		return nil, errors.Wrap(errors.Signing, err, "signer could not derive public key")
	}

	txInput, err := a.fetchTxInput(ctx, from, publicKey)
	if err != nil {
		return nil, err
	}
	if input.Utxo != nil && !input.Utxo.SatsPerByte.IsZero() {
		txInput.SatsPerByte = input.Utxo.SatsPerByte
	} else {
		estimate, err := a.GetFeeData(ctx, adapter.GetFeeDataInput{})
		if err != nil {
			return nil, err
		}
		txInput.SatsPerByte = estimate.Average.Utxo.SatsPerByte
	}

	value := input.Value
	if input.SendMax {
		// Spend the complete UTXO set; the recipient gets total minus fee.
		total := txInput.SumUtxo()
		fee := txInput.EstimatedFee()
		if total.Cmp(&fee) <= 0 {
			return nil, errors.Errorf(errors.InsufficientFunds,
				"balance %s cannot cover fee %s", total.String(), fee.String())
		}
		value = total.Sub(&fee)
	} else {
		feeBudget := txInput.EstimatedFee()
		target := value.Add(&feeBudget)
		txInput.SetAmount(target)
	}

	logrus.WithFields(logrus.Fields{
		"from":  from,
		"to":    input.To,
		"value": value.String(),
		"utxos": len(txInput.UnspentOutputs),
	}).Debug("building bitcoin transfer")

	return a.builder.NewNativeTransfer(from, input.To, value, txInput, opReturnData)
}

func (a *Adapter) fetchTxInput(ctx context.Context, from ck.Address, publicKey []byte) (*tx_input.TxInput, error) {
	utxos, err := a.client.UnspentOutputs(ctx, from)
	if err != nil {
		return nil, err
	}
	script, err := address.PayToAddrScript(from, a.params)
	if err != nil {
		return nil, err
	}
	input := &tx_input.TxInput{
		Address:                   from,
		FromPublicKey:             publicKey,
		EstimatedSizePerSpentUtxo: tx_input.DefaultSizePerSpentUtxo,
	}
	for _, utxo := range utxos {
		hash, err := decodeReversedHash(utxo.Txid)
		if err != nil {
			return nil, errors.Responsef("provider returned bad utxo hash %q: %v", utxo.Txid, err)
		}
		input.UnspentOutputs = append(input.UnspentOutputs, tx_input.Output{
			Outpoint: tx_input.Outpoint{
				Hash:  hash,
				Index: utxo.Vout,
			},
			Value:        ck.NewAmountBlockchainFromStr(utxo.Value),
			PubKeyScript: script,
		})
	}
	confirmations := make(map[string]int64, len(utxos))
	for _, utxo := range utxos {
		confirmations[utxo.Txid] = utxo.Confirmations
	}
	input.UnspentOutputs = tx_input.FilterUnconfirmedHeuristic(input.UnspentOutputs, func(o tx_input.Output) int64 {
		return confirmations[reverseHexHash(o.Hash)]
	})
	return input, nil
}

// SignTransaction requests a detached signature per input and assembles the
// final scripts.
func (a *Adapter) SignTransaction(_ context.Context, input adapter.SignTxInput) (*ck.SignedTx, error) {
	if input.Signer == nil {
		return nil, errors.Validationf("signer is required")
	}
	if !input.Signer.SupportsOfflineSigning() {
		return nil, errors.Signingf("signer does not support offline signing")
	}
	purpose := input.Purpose
	if purpose == 0 {
		purpose = ck.PurposeLegacy
	}
	path := a.bip44(purpose, input.AccountNumber, false, 0)

	sighashes, err := input.Tx.Sighashes()
	if err != nil {
		return nil, errors.Wrap(errors.Signing, err, "computing sighashes")
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
		return nil, errors.Wrap(errors.Signing, err, "attaching signatures")
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
		purpose := input.Purpose
		if purpose == 0 {
			purpose = ck.PurposeLegacy
		}
		return broadcaster.SignAndBroadcastTransaction(a.bip44(purpose, input.AccountNumber, false, 0), input.Tx)
	}
	return "", errors.Errorf(errors.SignAndBroadcastFailed,
		"signer supports neither offline signing nor combined sign-and-broadcast")
}

// ValidateAddress is pure syntactic and checksum validation.
func (a *Adapter) ValidateAddress(addr ck.Address) adapter.ValidateAddressResult {
	if a.checkAddress(addr) != nil {
		return adapter.ValidateAddressResult{Valid: false, Result: adapter.ResultInvalid}
	}
	return adapter.ValidateAddressResult{Valid: true, Result: adapter.ResultValid}
}

func (a *Adapter) checkAddress(addr ck.Address) error {
	if addr == "" {
		return errors.Validationf("address is required")
	}
	_, err := address.Decode(addr, a.params)
	return err
}

// Providers report txids in display order; wire outpoints use the reverse.
func decodeReversedHash(txid string) ([]byte, error) {
	raw, err := hex.DecodeString(txid)
	if err != nil {
		return nil, err
	}
	if len(raw) != chainhash.HashSize {
		return nil, fmt.Errorf("expected %d byte hash, got %d", chainhash.HashSize, len(raw))
	}
	for i := 0; i < len(raw)/2; i++ {
		raw[i], raw[len(raw)-1-i] = raw[len(raw)-1-i], raw[i]
	}
	return raw, nil
}

func reverseHexHash(wireHash []byte) string {
	reversed := make([]byte, len(wireHash))
	for i, b := range wireHash {
		reversed[len(wireHash)-1-i] = b
	}
	return hex.EncodeToString(reversed)
}
