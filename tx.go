package chainkit

import "encoding/base64"

// TxHash is a tx hash or id
type TxHash string

// TxDataToSign is the payload a signer needs to sign.  Sometimes called a
// sighash.
type TxDataToSign []byte

func (data TxDataToSign) String() string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// TxSignature is a detached 64 or 65 byte [R || S || V] signature.
type TxSignature []byte

// Tx is an unsigned chain-family-specific transaction.  It is produced once
// per build call; attaching signatures yields the broadcastable form without
// altering the recorded build parameters.
type Tx interface {
	Hash() TxHash
	Sighashes() ([]TxDataToSign, error)
	AddSignatures(...TxSignature) error
	Serialize() ([]byte, error)
}

// SignedTx is a fully signed, serialized transaction ready for broadcast.
type SignedTx struct {
	Hash TxHash `json:"hash"`
	Raw  []byte `json:"raw"`
}
