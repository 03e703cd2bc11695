// Package swap defines the swapper capability contract: quoting a trade
// between two assets, managing the ERC-20 allowance it needs, and building
// the transaction that executes it.
package swap

import (
	"context"

	ck "github.com/shiftwave/chainkit"
)

// SwapperIdentifier names a swapper implementation.
type SwapperIdentifier string

const (
	SwapperCow = SwapperIdentifier("cowswap")
)

// SwapSource attributes a portion of a quote to a liquidity source.
type SwapSource struct {
	Name       string `json:"name"`
	Proportion string `json:"proportion"`
}

// QuoteFeeData aggregates every fee a quoted trade can incur.
type QuoteFeeData struct {
	// Network fee estimate for the funding transaction, average tier.
	Network ck.FeeData `json:"network"`
	// Cost of the approval transaction, if one turns out to be needed.
	ApprovalFee ck.AmountBlockchain `json:"approvalFee"`
	// Relayer protocol fee, denominated in the sell asset.
	ProtocolFee ck.AmountBlockchain `json:"protocolFee"`
	// Protocol fee converted through the USD oracle.
	ProtocolFeeUsd ck.AmountHumanReadable `json:"protocolFeeUsd"`
}

// TradeQuote is a point-in-time quote.  It carries no expiry; callers must
// re-quote when market conditions may have moved.
type TradeQuote struct {
	Rate                  ck.AmountHumanReadable `json:"rate"`
	Minimum               ck.AmountHumanReadable `json:"minimum"`
	Maximum               ck.AmountHumanReadable `json:"maximum"`
	FeeData               QuoteFeeData           `json:"feeData"`
	SellAmount            ck.AmountBlockchain    `json:"sellAmount"`
	BuyAmount             ck.AmountBlockchain    `json:"buyAmount"`
	SellAsset             ck.Asset               `json:"sellAsset"`
	BuyAsset              ck.Asset               `json:"buyAsset"`
	AllowanceContract     ck.ContractAddress     `json:"allowanceContract"`
	SellAssetAccountNumber uint32                `json:"sellAssetAccountNumber"`
	Sources               []SwapSource           `json:"sources"`
}

// GetTradeQuoteInput describes the trade to quote.  SellAmount is a decimal
// base-unit string; fractional base units are truncated before quoting.
type GetTradeQuoteInput struct {
	SellAsset     ck.Asset
	BuyAsset      ck.Asset
	SellAmount    string
	Signer        ck.Signer
	AccountNumber uint32
}

// BuildTradeInput describes the trade to assemble.
type BuildTradeInput struct {
	Quote  *TradeQuote
	Signer ck.Signer
}

// ApprovalNeededInput pairs a quote with the signer that will fund it.
type ApprovalNeededInput struct {
	Quote  *TradeQuote
	Signer ck.Signer
}

// ApprovalNeededOutput reports the allowance check outcome.  Deficit is
// clamped to zero: it is how much more must be approved, never negative.
type ApprovalNeededOutput struct {
	ApprovalNeeded bool                `json:"approvalNeeded"`
	Allowance      ck.AmountBlockchain `json:"allowance"`
	Required       ck.AmountBlockchain `json:"required"`
	Deficit        ck.AmountBlockchain `json:"deficit"`
}

// ApproveInfiniteInput requests an unlimited allowance grant.
type ApproveInfiniteInput struct {
	Quote  *TradeQuote
	Signer ck.Signer
}

// UsdRateOracle prices an asset in US dollars.  No caching is implied;
// every call may hit the external price service.
type UsdRateOracle interface {
	UsdRate(ctx context.Context, asset ck.Asset) (ck.AmountHumanReadable, error)
}

// Swapper is the capability contract a swap venue implements.
type Swapper interface {
	GetType() SwapperIdentifier

	// FilterAssetIdsBySellable keeps only the asset ids this swapper can
	// sell, preserving input order.  Pure; no network access.
	FilterAssetIdsBySellable(assetIds []ck.AssetId) []ck.AssetId

	// FilterBuyAssetsBySellAssetId returns the sellable ids excluding the
	// sell asset itself, or nothing when the sell asset is not sellable.
	FilterBuyAssetsBySellAssetId(assetIds []ck.AssetId, sellAssetId ck.AssetId) []ck.AssetId

	GetUsdRate(ctx context.Context, asset ck.Asset) (ck.AmountHumanReadable, error)

	GetTradeQuote(ctx context.Context, input GetTradeQuoteInput) (*TradeQuote, error)

	// BuildTrade assembles the unsigned funding transaction for a quoted
	// trade.
	BuildTrade(ctx context.Context, input BuildTradeInput) (ck.Tx, error)

	ApprovalNeeded(ctx context.Context, input ApprovalNeededInput) (*ApprovalNeededOutput, error)

	// ApproveInfinite grants the allowance contract an unlimited allowance
	// and returns the broadcast transaction id.
	ApproveInfinite(ctx context.Context, input ApproveInfiniteInput) (ck.TxHash, error)
}
