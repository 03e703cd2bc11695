package address

import (
	btcec "github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"

	ck "github.com/shiftwave/chainkit"
	"github.com/shiftwave/chainkit/errors"
)

// Builder derives Bitcoin addresses from public keys.  The script type is
// selected by the BIP44 purpose code, which is authoritative.
type Builder struct {
	params *chaincfg.Params
}

func NewBuilder(params *chaincfg.Params) Builder {
	return Builder{params: params}
}

// FromPublicKey derives the address for a purpose code.  The public key is
// normalized to compressed form first; segwit programs require it.
func (b Builder) FromPublicKey(publicKeyBytes []byte, purpose ck.Purpose) (ck.Address, error) {
	pubkey, err := btcec.ParsePubKey(publicKeyBytes)
	if err != nil {
		return "", errors.Validationf("invalid secp256k1 public key: %v", err)
	}
	compressed := pubkey.SerializeCompressed()

	switch purpose {
	case ck.PurposeLegacy:
		return b.legacyAddress(compressed)
	case ck.PurposeSegwitNested:
		return b.nestedSegwitAddress(compressed)
	case ck.PurposeSegwitNative:
		return b.segwitAddress(compressed)
	}
	return "", errors.Validationf("unsupported purpose %d for bitcoin address derivation", purpose)
}

func (b Builder) legacyAddress(compressed []byte) (ck.Address, error) {
	addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(compressed), b.params)
	if err != nil {
		return "", err
	}
	return ck.Address(addr.EncodeAddress()), nil
}

func (b Builder) segwitAddress(compressed []byte) (ck.Address, error) {
	addr, err := btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160(compressed), b.params)
	if err != nil {
		return "", err
	}
	return ck.Address(addr.EncodeAddress()), nil
}

// BIP49: the P2WPKH witness program is wrapped in a P2SH redeem script.
func (b Builder) nestedSegwitAddress(compressed []byte) (ck.Address, error) {
	redeem, err := RedeemScript(compressed)
	if err != nil {
		return "", err
	}
	addr, err := btcutil.NewAddressScriptHash(redeem, b.params)
	if err != nil {
		return "", err
	}
	return ck.Address(addr.EncodeAddress()), nil
}

// RedeemScript builds the 0 <20-byte-pubkey-hash> witness program used as
// the P2SH redeem script for nested segwit.
func RedeemScript(compressedPubKey []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_0).
		AddData(btcutil.Hash160(compressedPubKey)).
		Script()
}

// Decode parses an address string into its btcutil form.
func Decode(address ck.Address, params *chaincfg.Params) (btcutil.Address, error) {
	decoded, err := btcutil.DecodeAddress(string(address), params)
	if err != nil {
		return nil, errors.Validationf("invalid bitcoin address %s: %v", address, err)
	}
	if !decoded.IsForNet(params) {
		return nil, errors.Validationf("address %s is not for network %s", address, params.Name)
	}
	return decoded, nil
}

// PayToAddrScript builds the output script paying to an address.
func PayToAddrScript(address ck.Address, params *chaincfg.Params) ([]byte, error) {
	decoded, err := Decode(address, params)
	if err != nil {
		return nil, err
	}
	return txscript.PayToAddrScript(decoded)
}
