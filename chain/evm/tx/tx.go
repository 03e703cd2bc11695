package tx

import (
	"github.com/ethereum/go-ethereum/core/types"

	ck "github.com/shiftwave/chainkit"
	"github.com/shiftwave/chainkit/errors"
)

// Tx wraps an unsigned go-ethereum transaction together with the signer
// that binds it to a chain id.
type Tx struct {
	EthTx  *types.Transaction
	Signer types.Signer
	signed bool
}

var _ ck.Tx = &Tx{}

func (tx *Tx) Hash() ck.TxHash {
	if tx.EthTx == nil {
		return ""
	}
	return ck.TxHash(tx.EthTx.Hash().Hex())
}

// Sighashes returns the single digest an EVM transaction is signed over.
func (tx *Tx) Sighashes() ([]ck.TxDataToSign, error) {
	if tx.EthTx == nil {
		return nil, errors.Signingf("transaction not initialized")
	}
	sighash := tx.Signer.Hash(tx.EthTx).Bytes()
	return []ck.TxDataToSign{sighash}, nil
}

// AddSignatures applies the recoverable [R || S || V] signature.
func (tx *Tx) AddSignatures(signatures ...ck.TxSignature) error {
	if tx.EthTx == nil {
		return errors.Signingf("transaction not initialized")
	}
	if len(signatures) != 1 {
		return errors.Signingf("expected exactly one signature, got %d", len(signatures))
	}
	signedTx, err := tx.EthTx.WithSignature(tx.Signer, signatures[0])
	if err != nil {
		return errors.Wrap(errors.Signing, err, "applying signature")
	}
	tx.EthTx = signedTx
	tx.signed = true
	return nil
}

func (tx *Tx) Serialize() ([]byte, error) {
	if tx.EthTx == nil {
		return nil, errors.Signingf("transaction not initialized")
	}
	if !tx.signed {
		return nil, errors.Signingf("transaction not signed")
	}
	return tx.EthTx.MarshalBinary()
}
