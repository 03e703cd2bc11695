// Package testutil holds helpers shared by the adapter and swapper tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	ck "github.com/shiftwave/chainkit"
	"github.com/shiftwave/chainkit/signer/local"
)

// Mnemonic is the well-known BIP39 test vector seed phrase.  It derives
// the pinned addresses the address tests assert against.
const Mnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// Signer builds an offline signer from the test mnemonic.
func Signer(t *testing.T) ck.Signer {
	t.Helper()
	signer, err := local.NewSigner(Mnemonic, "")
	require.NoError(t, err)
	return signer
}

// HumanToBlockchain converts a decimal amount string at the given precision,
// panicking on malformed input.
func HumanToBlockchain(amount string, decimals int32) ck.AmountBlockchain {
	h, err := ck.NewAmountHumanReadableFromStr(amount)
	if err != nil {
		panic(err)
	}
	return h.ToBlockchain(decimals)
}
