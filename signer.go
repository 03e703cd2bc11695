package chainkit

// Signer is the opaque key-holding capability the adapters delegate to.
// Which backend implements it (hardware, software, custodial) is irrelevant
// to adapter logic; adapters only derive addresses from its public keys and
// request detached signatures.
type Signer interface {
	// PublicKey returns the compressed secp256k1 public key at the path.
	PublicKey(path BIP44Params) ([]byte, error)
	// Sign produces a detached [R || S || V] signature over a 32-byte digest.
	Sign(path BIP44Params, payload TxDataToSign) (TxSignature, error)
	// SupportsOfflineSigning reports whether the signer can return raw
	// signatures for the caller to assemble and broadcast.
	SupportsOfflineSigning() bool
	// SupportsBroadcast reports whether the signer can submit transactions
	// itself, for backends that never export signed bytes.
	SupportsBroadcast() bool
}

// SignAndBroadcaster is the optional combined capability used when a signer
// supports broadcast but not offline signing.
type SignAndBroadcaster interface {
	SignAndBroadcastTransaction(path BIP44Params, tx Tx) (TxHash, error)
}
