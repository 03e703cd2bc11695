// Package factory constructs adapters and swappers from configuration.
package factory

import (
	ck "github.com/shiftwave/chainkit"
	"github.com/shiftwave/chainkit/adapter"
	"github.com/shiftwave/chainkit/chain/bitcoin"
	"github.com/shiftwave/chainkit/chain/evm"
	"github.com/shiftwave/chainkit/config"
	"github.com/shiftwave/chainkit/errors"
	"github.com/shiftwave/chainkit/swap"
	"github.com/shiftwave/chainkit/swap/cowswap"
)

// NewChainAdapter constructs the adapter for one configured chain.
func NewChainAdapter(cfg *ck.ChainConfig) (adapter.ChainAdapter, error) {
	switch cfg.Chain.Family() {
	case ck.FamilyUtxo:
		return bitcoin.NewAdapter(cfg)
	case ck.FamilyEvm:
		return evm.NewAdapter(cfg)
	}
	return nil, errors.Errorf(errors.Configuration, "no adapter for chain %q", cfg.Chain)
}

// NewChainAdapterManager builds adapters for every configured chain.
func NewChainAdapterManager(cfg *config.Config) (*adapter.Manager, error) {
	var adapters []adapter.ChainAdapter
	for _, chain := range ck.ChainIdentifierList {
		if _, ok := cfg.Chains[chain]; !ok {
			continue
		}
		chainCfg, err := cfg.ChainConfig(chain)
		if err != nil {
			return nil, err
		}
		a, err := NewChainAdapter(chainCfg)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}
	return adapter.NewManager(adapters...), nil
}

// NewSwapManager builds the swapper registry.  The relayer swapper needs
// the Ethereum adapter; it is skipped when Ethereum is not configured or no
// relayer URL is set.
func NewSwapManager(cfg *config.Config, adapters *adapter.Manager, oracle swap.UsdRateOracle) (*swap.Manager, error) {
	if cfg.Swap.CowURL == "" {
		return swap.NewManager(), nil
	}
	chainAdapter, err := adapters.ByChain(ck.Ethereum)
	if err != nil {
		return nil, err
	}
	evmAdapter, ok := chainAdapter.(*evm.Adapter)
	if !ok {
		return nil, errors.Errorf(errors.Configuration, "relayer swapper requires the evm adapter")
	}
	cowSwapper, err := cowswap.NewSwapper(cfg.Swap.CowURL, evmAdapter, oracle)
	if err != nil {
		return nil, err
	}
	return swap.NewManager(cowSwapper), nil
}
