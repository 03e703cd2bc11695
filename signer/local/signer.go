// Package local implements a software signer backed by a BIP39 mnemonic.
// It derives keys on demand and never leaves secrets in returned values.
// Intended for development and tests; production deployments should plug
// in a hardware or remote signer instead.
package local

import (
	"crypto/sha512"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/pbkdf2"

	ck "github.com/shiftwave/chainkit"
	"github.com/shiftwave/chainkit/errors"
)

const seedIterations = 2048

type Signer struct {
	master *hdkeychain.ExtendedKey
}

var _ ck.Signer = &Signer{}

// NewSigner builds a signer from a BIP39 mnemonic and optional passphrase.
func NewSigner(mnemonic string, passphrase string) (*Signer, error) {
	mnemonic = strings.TrimSpace(mnemonic)
	if mnemonic == "" {
		return nil, errors.Validationf("mnemonic is required")
	}
	seed := pbkdf2.Key([]byte(mnemonic), []byte("mnemonic"+passphrase), seedIterations, 64, sha512.New)
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, errors.Wrap(errors.Signing, err, "deriving master key")
	}
	return &Signer{master: master}, nil
}

func (s *Signer) derive(path ck.BIP44Params) (*hdkeychain.ExtendedKey, error) {
	indices := []uint32{
		hdkeychain.HardenedKeyStart + uint32(path.Purpose),
		hdkeychain.HardenedKeyStart + path.CoinType,
		hdkeychain.HardenedKeyStart + path.AccountNumber,
		path.Change(),
		path.AddressIndex,
	}
	key := s.master
	for _, index := range indices {
		child, err := key.Derive(index)
		if err != nil {
			return nil, errors.Wrap(errors.Signing, err, "deriving child key for "+path.Path())
		}
		key = child
	}
	return key, nil
}

// PublicKey returns the compressed secp256k1 public key at the path.
func (s *Signer) PublicKey(path ck.BIP44Params) ([]byte, error) {
	key, err := s.derive(path)
	if err != nil {
		return nil, err
	}
	pubkey, err := key.ECPubKey()
	if err != nil {
		return nil, errors.Wrap(errors.Signing, err, "extracting public key")
	}
	return pubkey.SerializeCompressed(), nil
}

// Sign produces a recoverable 65-byte [R || S || V] signature over a
// 32-byte digest.
func (s *Signer) Sign(path ck.BIP44Params, payload ck.TxDataToSign) (ck.TxSignature, error) {
	if len(payload) != 32 {
		return nil, errors.Signingf("expected 32 byte digest, got %d bytes", len(payload))
	}
	key, err := s.derive(path)
	if err != nil {
		return nil, err
	}
	privkey, err := key.ECPrivKey()
	if err != nil {
		return nil, errors.Wrap(errors.Signing, err, "extracting private key")
	}
	defer privkey.Zero()
	signature, err := crypto.Sign(payload, privkey.ToECDSA())
	if err != nil {
		return nil, errors.Wrap(errors.Signing, err, "signing digest")
	}
	return ck.TxSignature(signature), nil
}

func (s *Signer) SupportsOfflineSigning() bool {
	return true
}

func (s *Signer) SupportsBroadcast() bool {
	return false
}
