package chainkit

import (
	"fmt"
	"strings"
)

// ChainIdentifier distinguishes the chains supported by the adapters.
type ChainIdentifier string

const (
	Bitcoin   = ChainIdentifier("bitcoin")
	Ethereum  = ChainIdentifier("ethereum")
	Avalanche = ChainIdentifier("avalanche")
)

var ChainIdentifierList = []ChainIdentifier{
	Bitcoin,
	Ethereum,
	Avalanche,
}

// ChainFamily selects the family-specific build/sign/fee algorithms.
type ChainFamily string

const (
	FamilyUtxo = ChainFamily("utxo")
	FamilyEvm  = ChainFamily("evm")
)

func (c ChainIdentifier) Family() ChainFamily {
	switch c {
	case Bitcoin:
		return FamilyUtxo
	case Ethereum, Avalanche:
		return FamilyEvm
	}
	return ""
}

// CAIP-2 chain reference, e.g. "eip155:1".
func (c ChainIdentifier) CAIP2() string {
	switch c {
	case Bitcoin:
		return "bip122:000000000019d6689c085ae165831e93"
	case Ethereum:
		return "eip155:1"
	case Avalanche:
		return "eip155:43114"
	}
	return ""
}

// AssetNamespace classifies the reference part of an AssetId.
type AssetNamespace string

const (
	NamespaceSlip44 = AssetNamespace("slip44")
	NamespaceErc20  = AssetNamespace("erc20")
)

// AssetId identifies an asset on a chain, serialized in the canonical form
// "<chain>/<namespace>:<reference>", e.g.
// "ethereum/erc20:0xc770eefad204b5180df6a14ee197d99d808ee52d".
type AssetId struct {
	ChainId   ChainIdentifier `json:"chainId"`
	Namespace AssetNamespace  `json:"namespace"`
	Reference string          `json:"reference"`
}

func (a AssetId) String() string {
	return fmt.Sprintf("%s/%s:%s", a.ChainId, a.Namespace, a.Reference)
}

// ParseAssetId parses the canonical string form.  The round-trip invariant
// holds for all well-formed identifiers: ParseAssetId(x.String()) == x.
func ParseAssetId(raw string) (AssetId, error) {
	chainPart, assetPart, found := strings.Cut(raw, "/")
	if !found {
		return AssetId{}, fmt.Errorf("invalid asset id %q: missing '/'", raw)
	}
	if chainPart == "" {
		return AssetId{}, fmt.Errorf("invalid asset id %q: empty chain", raw)
	}
	namespace, reference, found := strings.Cut(assetPart, ":")
	if !found {
		return AssetId{}, fmt.Errorf("invalid asset id %q: missing namespace separator", raw)
	}
	if namespace == "" || reference == "" {
		return AssetId{}, fmt.Errorf("invalid asset id %q: empty namespace or reference", raw)
	}
	return AssetId{
		ChainId:   ChainIdentifier(chainPart),
		Namespace: AssetNamespace(namespace),
		Reference: reference,
	}, nil
}

// Asset carries the market-facing metadata needed for quoting.
type Asset struct {
	AssetId   AssetId `json:"assetId"`
	Symbol    string  `json:"symbol"`
	Precision int32   `json:"precision"`
}

// ContractAddress is a smart contract address
type ContractAddress string

// Address is an address on the blockchain, either sender or recipient
type Address string

// EqualFoldAddress compares two addresses ignoring hex casing.
func EqualFoldAddress(a, b Address) bool {
	return strings.EqualFold(string(a), string(b))
}

// ChainConfig holds the immutable per-adapter configuration: the chain
// identity and the data provider serving it.
type ChainConfig struct {
	Chain ChainIdentifier `yaml:"chain"`
	// Base URL of the external data provider for this chain.
	URL string `yaml:"url"`
	// SLIP-44 coin type used in default derivation paths.
	CoinType uint32 `yaml:"coin_type"`
	// Decimals of the chain's native asset.
	Decimals int32 `yaml:"decimals"`
	// EVM only: the numeric chain id encoded into transactions.
	ChainID uint64 `yaml:"chain_id,omitempty"`
	// Rate limit for provider requests, in requests/second.  Zero means no limit.
	RateLimit float64 `yaml:"rate_limit,omitempty"`
}

func (cfg *ChainConfig) NativeAssetId() AssetId {
	return AssetId{
		ChainId:   cfg.Chain,
		Namespace: NamespaceSlip44,
		Reference: fmt.Sprintf("%d", cfg.CoinType),
	}
}

// NewChainConfig returns the built-in defaults for a supported chain.
// The provider URL still has to be set by the caller.
func NewChainConfig(chain ChainIdentifier) *ChainConfig {
	cfg := &ChainConfig{Chain: chain}
	switch chain {
	case Bitcoin:
		cfg.CoinType = 0
		cfg.Decimals = 8
	case Ethereum:
		cfg.CoinType = 60
		cfg.Decimals = 18
		cfg.ChainID = 1
	case Avalanche:
		cfg.CoinType = 9000
		cfg.Decimals = 18
		cfg.ChainID = 43114
	}
	return cfg
}

func (cfg *ChainConfig) WithURL(url string) *ChainConfig {
	cfg.URL = strings.TrimSuffix(url, "/")
	return cfg
}

func (cfg *ChainConfig) String() string {
	return fmt.Sprintf("ChainConfig(chain=%s coinType=%d url=%s)", cfg.Chain, cfg.CoinType, cfg.URL)
}
