package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	ck "github.com/shiftwave/chainkit"
	"github.com/shiftwave/chainkit/config"
	"github.com/shiftwave/chainkit/errors"
)

func writeConfig(t *testing.T, contents string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chainkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	t.Setenv(config.ConfigEnv, path)
}

func TestLoadFromFile(t *testing.T) {
	writeConfig(t, `
chains:
  bitcoin:
    url: https://btc.example
  ethereum:
    url: https://eth.example
    rate_limit: 5
swap:
  cow_url: https://cow.example
  oracle_url: https://oracle.example
`)
	cfg, err := config.Load(nil)
	require.NoError(t, err)
	require.Equal(t, "https://btc.example", cfg.Chains[ck.Bitcoin].URL)
	require.Equal(t, float64(5), cfg.Chains[ck.Ethereum].RateLimit)
	require.Equal(t, "https://cow.example", cfg.Swap.CowURL)
	require.Equal(t, "https://oracle.example", cfg.Swap.OracleURL)
}

func TestLoadFallsBackToDefaults(t *testing.T) {
	t.Setenv(config.ConfigEnv, filepath.Join(t.TempDir(), "does-not-exist.yaml"))

	defaults := &config.Config{
		Chains: map[ck.ChainIdentifier]config.ChainSettings{
			ck.Ethereum: {URL: "https://eth.example"},
		},
	}
	cfg, err := config.Load(defaults)
	require.NoError(t, err)
	require.Equal(t, "https://eth.example", cfg.Chains[ck.Ethereum].URL)

	// The returned config does not alias the defaults.
	cfg.Chains[ck.Ethereum] = config.ChainSettings{URL: "mutated"}
	require.Equal(t, "https://eth.example", defaults.Chains[ck.Ethereum].URL)
}

func TestLoadMissingWithoutDefaults(t *testing.T) {
	t.Setenv(config.ConfigEnv, filepath.Join(t.TempDir(), "does-not-exist.yaml"))

	_, err := config.Load(nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.Configuration))
}

func TestChainConfigResolution(t *testing.T) {
	cfg := &config.Config{
		Chains: map[ck.ChainIdentifier]config.ChainSettings{
			ck.Ethereum: {URL: "https://eth.example/", RateLimit: 2},
			ck.Bitcoin:  {},
		},
	}

	eth, err := cfg.ChainConfig(ck.Ethereum)
	require.NoError(t, err)
	require.Equal(t, "https://eth.example", eth.URL)
	require.Equal(t, uint32(60), eth.CoinType)
	require.Equal(t, uint64(1), eth.ChainID)
	require.Equal(t, float64(2), eth.RateLimit)

	_, err = cfg.ChainConfig(ck.Avalanche)
	require.True(t, errors.Is(err, errors.Configuration))

	_, err = cfg.ChainConfig(ck.Bitcoin)
	require.True(t, errors.Is(err, errors.Configuration))
}
