package chainkit_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	ck "github.com/shiftwave/chainkit"
)

func TestAmountConversions(t *testing.T) {
	human, err := ck.NewAmountHumanReadableFromStr("1.5")
	require.NoError(t, err)
	require.Equal(t, "1500000000", human.ToBlockchain(9).String())

	base := ck.NewAmountBlockchainFromStr("1500000000")
	require.Equal(t, "1.5", base.ToHuman(9).String())

	require.Equal(t, "0", ck.NewAmountBlockchainFromStr("garbage").String())
}

func TestAmountArithmetic(t *testing.T) {
	a := ck.NewAmountBlockchainFromUint64(300)
	b := ck.NewAmountBlockchainFromUint64(200)

	sum := a.Add(&b)
	require.Equal(t, "500", sum.String())

	diff := a.Sub(&b)
	require.Equal(t, "100", diff.String())

	product := a.Mul(&b)
	require.Equal(t, "60000", product.String())

	require.Equal(t, 1, a.Cmp(&b))
	require.False(t, a.IsZero())

	zero := ck.NewAmountBlockchainFromUint64(0)
	require.True(t, zero.IsZero())
}

func TestMultiplyByFloat(t *testing.T) {
	base := ck.NewAmountBlockchainFromUint64(100)

	require.Equal(t, "120", ck.MultiplyByFloat(base, 1.2).String())
	require.Equal(t, "80", ck.MultiplyByFloat(base, 0.8).String())

	// Fractional results round up.
	odd := ck.NewAmountBlockchainFromUint64(101)
	require.Equal(t, "122", ck.MultiplyByFloat(odd, 1.2).String())
	require.Equal(t, "81", ck.MultiplyByFloat(odd, 0.8).String())

	zero := ck.NewAmountBlockchainFromUint64(0)
	require.Equal(t, "0", ck.MultiplyByFloat(zero, 1.2).String())
}

func TestNormalizeIntegerAmount(t *testing.T) {
	for _, tc := range []struct {
		in  string
		out string
	}{
		{"100", "100"},
		{"100.7", "101"},
		{"100.0000001", "100"},
		{" 42 ", "42"},
		{"0.9", "1"},
		{"0.5", "1"},
		{"0.4", "0"},
	} {
		got, err := ck.NormalizeIntegerAmount(tc.in)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.out, got, tc.in)
	}

	_, err := ck.NormalizeIntegerAmount("not-a-number")
	require.Error(t, err)
}

func TestAmountJSON(t *testing.T) {
	base := ck.NewAmountBlockchainFromStr("123456789012345678901234567890")
	raw, err := json.Marshal(base)
	require.NoError(t, err)
	require.Equal(t, `"123456789012345678901234567890"`, string(raw))

	var decoded ck.AmountBlockchain
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, base.String(), decoded.String())
}
