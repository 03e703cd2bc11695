package tx

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	btcec "github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	log "github.com/sirupsen/logrus"

	ck "github.com/shiftwave/chainkit"
	"github.com/shiftwave/chainkit/chain/bitcoin/address"
	"github.com/shiftwave/chainkit/chain/bitcoin/tx_input"
)

type Recipient struct {
	To    ck.Address          `json:"to"`
	Value ck.AmountBlockchain `json:"value"`
}

// Tx is an unsigned-then-signed Bitcoin transaction.
type Tx struct {
	MsgTx      *wire.MsgTx
	Input      *tx_input.TxInput
	Recipients []Recipient
	Signed     bool
}

var _ ck.Tx = &Tx{}

// Hash returns the display (reversed) tx hash.
func (tx *Tx) Hash() ck.TxHash {
	txHash := tx.MsgTx.TxHash()
	size := len(txHash)
	reversed := make([]byte, size)
	copy(reversed, txHash[:])
	for i := 0; i < size/2; i++ {
		reversed[i], reversed[size-1-i] = reversed[size-1-i], reversed[i]
	}
	return ck.TxHash(hex.EncodeToString(reversed))
}

// Sighashes returns one digest to sign per spent output.
func (tx *Tx) Sighashes() ([]ck.TxDataToSign, error) {
	sighashes := make([]ck.TxDataToSign, len(tx.Input.UnspentOutputs))

	for i, utxo := range tx.Input.UnspentOutputs {
		pubKeyScript := utxo.PubKeyScript
		value := utxo.Value.Uint64()
		fetcher := txscript.NewCannedPrevOutputFetcher(pubKeyScript, int64(value))

		var hash []byte
		var err error
		switch {
		case txscript.IsPayToWitnessPubKeyHash(pubKeyScript):
			hash, err = txscript.CalcWitnessSigHash(pubKeyScript,
				txscript.NewTxSigHashes(tx.MsgTx, fetcher), txscript.SigHashAll, tx.MsgTx, i, int64(value))
		case txscript.IsPayToScriptHash(pubKeyScript):
			// Nested segwit: the digest commits to the witness program.
			var redeem []byte
			redeem, err = address.RedeemScript(tx.Input.FromPublicKey)
			if err == nil {
				hash, err = txscript.CalcWitnessSigHash(redeem,
					txscript.NewTxSigHashes(tx.MsgTx, fetcher), txscript.SigHashAll, tx.MsgTx, i, int64(value))
			}
		default:
			hash, err = txscript.CalcSignatureHash(pubKeyScript, txscript.SigHashAll, tx.MsgTx, i)
		}
		if err != nil {
			return []ck.TxDataToSign{}, err
		}
		sighashes[i] = hash
	}

	return sighashes, nil
}

// DecodeEcdsaSignature splits a 64/65-byte [R || S || V] signature.
func DecodeEcdsaSignature(signature ck.TxSignature) (btcec.ModNScalar, btcec.ModNScalar, error) {
	var r btcec.ModNScalar
	var s btcec.ModNScalar
	if len(signature) != 65 && len(signature) != 64 {
		return r, s, errors.New("signature must be 64 or 65 length serialized bytestring of r, s, and recovery byte")
	}
	rsv := [65]byte{}
	copy(rsv[:], signature)

	rInt := new(big.Int).SetBytes(rsv[:32])
	sInt := new(big.Int).SetBytes(rsv[32:64])

	rBz := r.Bytes()
	sBz := s.Bytes()
	rInt.FillBytes(rBz[:])
	sInt.FillBytes(sBz[:])
	r.SetBytes(&rBz)
	s.SetBytes(&sBz)
	return r, s, nil
}

// AddSignatures attaches one signature per input, building the script or
// witness appropriate to the spent output type.
func (tx *Tx) AddSignatures(signatures ...ck.TxSignature) error {
	if tx.Signed {
		return fmt.Errorf("already signed")
	}
	if len(signatures) != len(tx.MsgTx.TxIn) {
		return fmt.Errorf("expected %v signatures, got %v signatures", len(tx.MsgTx.TxIn), len(signatures))
	}

	for i, rsvBytes := range signatures {
		r, s, err := DecodeEcdsaSignature(rsvBytes)
		if err != nil {
			return err
		}

		signature := ecdsa.NewSignature(&r, &s)
		pubKeyScript := tx.Input.UnspentOutputs[i].PubKeyScript
		signatureWithSuffix := append(signature.Serialize(), byte(txscript.SigHashAll))

		switch {
		case txscript.IsPayToWitnessPubKeyHash(pubKeyScript):
			log.Debug("append signature (segwit)")
			tx.MsgTx.TxIn[i].Witness = wire.TxWitness([][]byte{signatureWithSuffix, tx.Input.FromPublicKey})
		case txscript.IsPayToScriptHash(pubKeyScript):
			log.Debug("append signature (nested segwit)")
			redeem, err := address.RedeemScript(tx.Input.FromPublicKey)
			if err != nil {
				return err
			}
			sigScript, err := txscript.NewScriptBuilder().AddData(redeem).Script()
			if err != nil {
				return err
			}
			tx.MsgTx.TxIn[i].SignatureScript = sigScript
			tx.MsgTx.TxIn[i].Witness = wire.TxWitness([][]byte{signatureWithSuffix, tx.Input.FromPublicKey})
		default:
			log.Debug("append signature (legacy)")
			builder := txscript.NewScriptBuilder()
			builder.AddData(signatureWithSuffix)
			builder.AddData(tx.Input.FromPublicKey)
			tx.MsgTx.TxIn[i].SignatureScript, err = builder.Script()
			if err != nil {
				return err
			}
		}
	}
	tx.Signed = true
	return nil
}

// Serialize returns the wire encoding.
func (tx *Tx) Serialize() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := tx.MsgTx.Serialize(buf); err != nil {
		return []byte{}, err
	}
	return buf.Bytes(), nil
}
