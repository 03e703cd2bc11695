package address

import (
	"crypto/ecdsa"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	ck "github.com/shiftwave/chainkit"
	"github.com/shiftwave/chainkit/errors"
)

// FromPublicKey derives the EVM account address for a secp256k1 public key.
// Lowercase hex is the normalized form used throughout.
func FromPublicKey(publicKeyBytes []byte) (ck.Address, error) {
	var publicKey *ecdsa.PublicKey
	var err error
	if len(publicKeyBytes) == 33 {
		publicKey, err = crypto.DecompressPubkey(publicKeyBytes)
	} else {
		publicKey, err = crypto.UnmarshalPubkey(publicKeyBytes)
	}
	if err != nil {
		return "", errors.Validationf("invalid secp256k1 public key: %v", err)
	}
	return ck.Address(strings.ToLower(crypto.PubkeyToAddress(*publicKey).Hex())), nil
}

// FromHex parses a 20-byte hex address.
func FromHex(address ck.Address) (common.Address, error) {
	if !common.IsHexAddress(string(address)) {
		return common.Address{}, errors.Validationf("invalid evm address %s", address)
	}
	return common.HexToAddress(string(address)), nil
}

// Valid reports whether the string is a well-formed 20-byte hex address.
func Valid(address ck.Address) bool {
	return common.IsHexAddress(string(address))
}
