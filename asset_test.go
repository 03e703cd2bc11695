package chainkit_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	ck "github.com/shiftwave/chainkit"
)

func TestChainFamily(t *testing.T) {
	require.Equal(t, ck.FamilyUtxo, ck.Bitcoin.Family())
	require.Equal(t, ck.FamilyEvm, ck.Ethereum.Family())
	require.Equal(t, ck.FamilyEvm, ck.Avalanche.Family())
}

func TestCAIP2(t *testing.T) {
	require.Equal(t, "bip122:000000000019d6689c085ae165831e93", ck.Bitcoin.CAIP2())
	require.Equal(t, "eip155:1", ck.Ethereum.CAIP2())
	require.Equal(t, "eip155:43114", ck.Avalanche.CAIP2())
}

func TestAssetIdRoundTrip(t *testing.T) {
	ids := []ck.AssetId{
		{ChainId: ck.Bitcoin, Namespace: ck.NamespaceSlip44, Reference: "0"},
		{ChainId: ck.Ethereum, Namespace: ck.NamespaceSlip44, Reference: "60"},
		{ChainId: ck.Ethereum, Namespace: ck.NamespaceErc20, Reference: "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"},
	}
	for _, id := range ids {
		parsed, err := ck.ParseAssetId(id.String())
		require.NoError(t, err, id.String())
		require.Equal(t, id, parsed)
	}
}

func TestParseAssetIdErrors(t *testing.T) {
	for _, raw := range []string{
		"",
		"ethereum",
		"ethereum/erc20",
		"/erc20:0xabc",
		"ethereum/:0xabc",
		"ethereum/erc20:",
	} {
		_, err := ck.ParseAssetId(raw)
		require.Error(t, err, raw)
	}
}

func TestEqualFoldAddress(t *testing.T) {
	require.True(t, ck.EqualFoldAddress(
		"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"))
	require.False(t, ck.EqualFoldAddress("0xabc", "0xabd"))
}

func TestNewChainConfigDefaults(t *testing.T) {
	btc := ck.NewChainConfig(ck.Bitcoin)
	require.Equal(t, uint32(0), btc.CoinType)
	require.Equal(t, int32(8), btc.Decimals)

	eth := ck.NewChainConfig(ck.Ethereum)
	require.Equal(t, uint32(60), eth.CoinType)
	require.Equal(t, int32(18), eth.Decimals)
	require.Equal(t, uint64(1), eth.ChainID)

	avax := ck.NewChainConfig(ck.Avalanche)
	require.Equal(t, uint32(9000), avax.CoinType)
	require.Equal(t, uint64(43114), avax.ChainID)

	require.Equal(t, "https://rpc.example", ck.NewChainConfig(ck.Ethereum).WithURL("https://rpc.example").URL)
}

func TestNativeAssetId(t *testing.T) {
	id := ck.NewChainConfig(ck.Ethereum).NativeAssetId()
	require.Equal(t, "ethereum/slip44:60", id.String())
}
