package chainkit

import (
	"fmt"

	"github.com/shiftwave/chainkit/errors"
)

// Purpose is the BIP43 purpose field of a derivation path.  For UTXO chains
// it also selects the script/address type.
type Purpose uint32

const (
	PurposeLegacy       = Purpose(44) // P2PKH
	PurposeSegwitNested = Purpose(49) // P2SH-wrapped P2WPKH
	PurposeSegwitNative = Purpose(84) // P2WPKH
)

// ScriptType names the output script used by a UTXO address.
type ScriptType string

const (
	ScriptTypeP2PKH     = ScriptType("p2pkh")
	ScriptTypeP2SHP2WPK = ScriptType("p2sh-p2wpkh")
	ScriptTypeP2WPKH    = ScriptType("p2wpkh")
)

// ScriptType returns the script type implied by the purpose.  The purpose
// code is authoritative over script selection.
func (p Purpose) ScriptType() (ScriptType, error) {
	switch p {
	case PurposeLegacy:
		return ScriptTypeP2PKH, nil
	case PurposeSegwitNested:
		return ScriptTypeP2SHP2WPK, nil
	case PurposeSegwitNative:
		return ScriptTypeP2WPKH, nil
	}
	return "", errors.Validationf("unsupported purpose %d", p)
}

// BIP44Params describes a hierarchical-deterministic derivation path
// purpose'/coinType'/account'/change/index.
type BIP44Params struct {
	Purpose       Purpose `json:"purpose"`
	CoinType      uint32  `json:"coinType"`
	AccountNumber uint32  `json:"accountNumber"`
	IsChange      bool    `json:"isChange"`
	AddressIndex  uint32  `json:"addressIndex"`
}

func (p BIP44Params) Change() uint32 {
	if p.IsChange {
		return 1
	}
	return 0
}

// Path formats the params in the conventional m/44'/0'/0'/0/0 notation.
func (p BIP44Params) Path() string {
	return fmt.Sprintf("m/%d'/%d'/%d'/%d/%d", p.Purpose, p.CoinType, p.AccountNumber, p.Change(), p.AddressIndex)
}

func (p BIP44Params) String() string {
	return p.Path()
}

// Validate checks the derivation fields and, when a script type is supplied,
// its consistency with the purpose code.
func (p BIP44Params) Validate(scriptType ScriptType) error {
	implied, err := p.Purpose.ScriptType()
	if err != nil {
		return err
	}
	if scriptType != "" && scriptType != implied {
		return errors.Validationf("script type %s is inconsistent with purpose %d (expected %s)",
			scriptType, p.Purpose, implied)
	}
	return nil
}
