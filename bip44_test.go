package chainkit_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	ck "github.com/shiftwave/chainkit"
	"github.com/shiftwave/chainkit/errors"
)

func TestBIP44Path(t *testing.T) {
	require.Equal(t, "m/44'/0'/0'/0/0", ck.BIP44Params{Purpose: ck.PurposeLegacy}.Path())
	require.Equal(t, "m/84'/0'/2'/1/7", ck.BIP44Params{
		Purpose:       ck.PurposeSegwitNative,
		AccountNumber: 2,
		IsChange:      true,
		AddressIndex:  7,
	}.Path())
	require.Equal(t, "m/44'/60'/0'/0/0", ck.BIP44Params{
		Purpose:  ck.PurposeLegacy,
		CoinType: 60,
	}.String())
}

func TestPurposeScriptType(t *testing.T) {
	st, err := ck.PurposeLegacy.ScriptType()
	require.NoError(t, err)
	require.Equal(t, ck.ScriptTypeP2PKH, st)

	st, err = ck.PurposeSegwitNested.ScriptType()
	require.NoError(t, err)
	require.Equal(t, ck.ScriptTypeP2SHP2WPK, st)

	st, err = ck.PurposeSegwitNative.ScriptType()
	require.NoError(t, err)
	require.Equal(t, ck.ScriptTypeP2WPKH, st)

	_, err = ck.Purpose(45).ScriptType()
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.Validation))
}

func TestBIP44Validate(t *testing.T) {
	path := ck.BIP44Params{Purpose: ck.PurposeSegwitNative}
	require.NoError(t, path.Validate(""))
	require.NoError(t, path.Validate(ck.ScriptTypeP2WPKH))

	err := path.Validate(ck.ScriptTypeP2PKH)
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.Validation))

	err = ck.BIP44Params{Purpose: ck.Purpose(13)}.Validate("")
	require.Error(t, err)
}

func TestBIP44Change(t *testing.T) {
	require.Equal(t, uint32(0), ck.BIP44Params{}.Change())
	require.Equal(t, uint32(1), ck.BIP44Params{IsChange: true}.Change())
}
