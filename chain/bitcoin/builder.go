package bitcoin

import (
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/sirupsen/logrus"

	ck "github.com/shiftwave/chainkit"
	"github.com/shiftwave/chainkit/chain/bitcoin/address"
	"github.com/shiftwave/chainkit/chain/bitcoin/tx"
	"github.com/shiftwave/chainkit/chain/bitcoin/tx_input"
	"github.com/shiftwave/chainkit/errors"
)

const TxVersion int32 = 2

// Outputs below this are treated as dust and folded into the fee.
const DustLimit = 546

// TxBuilder assembles Bitcoin transactions.
type TxBuilder struct {
	Params *chaincfg.Params
}

func NewTxBuilder(params *chaincfg.Params) TxBuilder {
	return TxBuilder{Params: params}
}

// NewNativeTransfer builds an unsigned transfer spending the input's UTXO
// set.  Change returns to the sender; an optional OP_RETURN output carries
// opReturnData.
func (b TxBuilder) NewNativeTransfer(
	from ck.Address,
	to ck.Address,
	amount ck.AmountBlockchain,
	input *tx_input.TxInput,
	opReturnData []byte,
) (ck.Tx, error) {
	totalSpend := input.SumUtxo()
	fee := input.EstimatedFee()

	transferAmountAndFee := amount.Add(&fee)
	if totalSpend.Cmp(&transferAmountAndFee) < 0 {
		return nil, errors.Errorf(errors.InsufficientFunds,
			"insufficient funds: have %s, need %s including fee", totalSpend.String(), transferAmountAndFee.String())
	}
	change := totalSpend.Sub(&transferAmountAndFee)

	recipients := []tx.Recipient{
		{To: to, Value: amount},
	}
	dust := ck.NewAmountBlockchainFromUint64(DustLimit)
	if change.Cmp(&dust) > 0 {
		recipients = append(recipients, tx.Recipient{To: from, Value: change})
	} else if !change.IsZero() {
		logrus.WithField("change", change.String()).Debug("folding dust change into fee")
	}

	msgTx := wire.NewMsgTx(TxVersion)
	for _, utxo := range input.UnspentOutputs {
		hash := chainhash.Hash{}
		copy(hash[:], utxo.Hash)
		msgTx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&hash, utxo.Index), nil, nil))
	}

	for _, recipient := range recipients {
		script, err := address.PayToAddrScript(recipient.To, b.Params)
		if err != nil {
			return nil, err
		}
		msgTx.AddTxOut(wire.NewTxOut(int64(recipient.Value.Uint64()), script))
	}

	if len(opReturnData) > 0 {
		script, err := txscript.NullDataScript(opReturnData)
		if err != nil {
			return nil, errors.Validationf("invalid op_return payload: %v", err)
		}
		msgTx.AddTxOut(wire.NewTxOut(0, script))
	}

	return &tx.Tx{
		MsgTx:      msgTx,
		Input:      input,
		Recipients: recipients,
	}, nil
}
