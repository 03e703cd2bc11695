// Package cowswap implements the swapper contract against the CoW protocol
// order relayer.  Trades settle off-chain through signed orders; the
// on-chain footprint is the ERC-20 allowance granted to the vault relayer
// and the funding of the settlement contract.
package cowswap

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	ck "github.com/shiftwave/chainkit"
	"github.com/shiftwave/chainkit/adapter"
	"github.com/shiftwave/chainkit/chain/evm"
	"github.com/shiftwave/chainkit/errors"
	"github.com/shiftwave/chainkit/swap"
)

// Mainnet CoW protocol contracts.
const (
	VaultRelayer = ck.ContractAddress("0xc92e8bdf79f0507f65a392b0ab4667716bfe0110")
	Settlement   = ck.ContractAddress("0x9008d19f58aabd9ed0d60971565aa8510560ab41")
)

// Quote placeholders.  The relayer requires these fields but the quote is
// informational until an order is actually signed.
const (
	placeholderReceiver = "0x0000000000000000000000000000000000000000"
	placeholderAppData  = "0x0000000000000000000000000000000000000000000000000000000000000000"
	placeholderValidTo  = uint32(4294967295)
	orderKindSell       = "sell"
)

// Trade bounds and approval gas ceiling.
const (
	minimumTradeUsd  = 20
	maxSellAmount    = "100000000000000000000000000"
	approvalGasLimit = 100_000
)

type Swapper struct {
	client  *Client
	adapter *evm.Adapter
	oracle  swap.UsdRateOracle
}

var _ swap.Swapper = &Swapper{}

// NewSwapper builds the relayer swapper on top of an EVM adapter and a USD
// price oracle.
func NewSwapper(relayerURL string, evmAdapter *evm.Adapter, oracle swap.UsdRateOracle) (*Swapper, error) {
	if evmAdapter == nil {
		return nil, errors.Errorf(errors.Configuration, "evm adapter is required")
	}
	if oracle == nil {
		return nil, errors.Errorf(errors.Configuration, "usd rate oracle is required")
	}
	return &Swapper{
		client:  NewClient(relayerURL),
		adapter: evmAdapter,
		oracle:  oracle,
	}, nil
}

func (s *Swapper) GetType() swap.SwapperIdentifier {
	return swap.SwapperCow
}

func (s *Swapper) sellable(assetId ck.AssetId) bool {
	return assetId.ChainId == s.adapter.GetType() && assetId.Namespace == ck.NamespaceErc20
}

// FilterAssetIdsBySellable keeps ERC-20 assets on the swapper's chain,
// preserving input order.
func (s *Swapper) FilterAssetIdsBySellable(assetIds []ck.AssetId) []ck.AssetId {
	var sellable []ck.AssetId
	for _, assetId := range assetIds {
		if s.sellable(assetId) {
			sellable = append(sellable, assetId)
		}
	}
	return sellable
}

// FilterBuyAssetsBySellAssetId returns the sellable ids excluding the sell
// asset itself; nothing if the sell asset is not sellable.
func (s *Swapper) FilterBuyAssetsBySellAssetId(assetIds []ck.AssetId, sellAssetId ck.AssetId) []ck.AssetId {
	if !s.sellable(sellAssetId) {
		return nil
	}
	var buyable []ck.AssetId
	for _, assetId := range assetIds {
		if s.sellable(assetId) && assetId != sellAssetId {
			buyable = append(buyable, assetId)
		}
	}
	return buyable
}

func (s *Swapper) GetUsdRate(ctx context.Context, asset ck.Asset) (ck.AmountHumanReadable, error) {
	return s.oracle.UsdRate(ctx, asset)
}

// GetTradeQuote runs the full quote pipeline.  Failures are tagged
// TradeQuoteFailed unless they already carry a taxonomy kind.
func (s *Swapper) GetTradeQuote(ctx context.Context, input swap.GetTradeQuoteInput) (*swap.TradeQuote, error) {
	quote, err := s.getTradeQuote(ctx, input)
	if err != nil {
		return nil, errors.Wrap(errors.TradeQuoteFailed, err, "getting trade quote")
	}
	return quote, nil
}

func (s *Swapper) getTradeQuote(ctx context.Context, input swap.GetTradeQuoteInput) (*swap.TradeQuote, error) {
	if !s.sellable(input.SellAsset.AssetId) || !s.sellable(input.BuyAsset.AssetId) {
		return nil, errors.Errorf(errors.UnsupportedPair,
			"cannot trade %s for %s", input.SellAsset.AssetId, input.BuyAsset.AssetId)
	}
	if input.Signer == nil {
		return nil, errors.Validationf("signer is required")
	}

	minimum, maximum, err := s.tradeBounds(ctx, input.SellAsset)
	if err != nil {
		return nil, err
	}

	normalized, err := ck.NormalizeIntegerAmount(input.SellAmount)
	if err != nil {
		return nil, errors.Validationf("invalid sell amount: %v", err)
	}

	from, err := s.adapter.GetAddress(adapter.GetAddressInput{
		Signer:        input.Signer,
		AccountNumber: input.AccountNumber,
	})
	if err != nil {
		return nil, err
	}

	relayerQuote, err := s.client.GetQuote(ctx, QuoteRequest{
		SellToken:           input.SellAsset.AssetId.Reference,
		BuyToken:            input.BuyAsset.AssetId.Reference,
		Receiver:            placeholderReceiver,
		ValidTo:             placeholderValidTo,
		AppData:             placeholderAppData,
		PartiallyFillable:   false,
		From:                string(from),
		Kind:                orderKindSell,
		SellAmountBeforeFee: normalized,
	})
	if err != nil {
		return nil, err
	}

	sellAmount := ck.NewAmountBlockchainFromStr(relayerQuote.Quote.SellAmount)
	buyAmount := ck.NewAmountBlockchainFromStr(relayerQuote.Quote.BuyAmount)
	protocolFee := ck.NewAmountBlockchainFromStr(relayerQuote.Quote.FeeAmount)
	if sellAmount.IsZero() {
		return nil, errors.Responsef("relayer quoted a zero sell amount")
	}

	rate := tradeRate(sellAmount, buyAmount, input.SellAsset.Precision, input.BuyAsset.Precision)

	feeData, err := s.quoteFeeData(ctx, from, input.SellAsset, sellAmount, protocolFee)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"sell": input.SellAsset.Symbol,
		"buy":  input.BuyAsset.Symbol,
		"rate": rate.String(),
	}).Debug("relayer quote assembled")

	return &swap.TradeQuote{
		Rate:                   rate,
		Minimum:                minimum,
		Maximum:                maximum,
		FeeData:                *feeData,
		SellAmount:             sellAmount,
		BuyAmount:              buyAmount,
		SellAsset:              input.SellAsset,
		BuyAsset:               input.BuyAsset,
		AllowanceContract:      VaultRelayer,
		SellAssetAccountNumber: input.AccountNumber,
		Sources:                []swap.SwapSource{{Name: "CoW Protocol", Proportion: "1"}},
	}, nil
}

// tradeBounds computes the minimum sellable amount (20 USD worth of the
// sell asset) and the fixed protocol maximum, in human units.
func (s *Swapper) tradeBounds(ctx context.Context, sellAsset ck.Asset) (ck.AmountHumanReadable, ck.AmountHumanReadable, error) {
	usdRate, err := s.oracle.UsdRate(ctx, sellAsset)
	if err != nil {
		return ck.AmountHumanReadable{}, ck.AmountHumanReadable{}, err
	}
	if usdRate.IsZero() {
		return ck.AmountHumanReadable{}, ck.AmountHumanReadable{},
			errors.Responsef("oracle returned a zero usd rate for %s", sellAsset.Symbol)
	}
	minimum := ck.AmountHumanReadable(decimal.NewFromInt(minimumTradeUsd)).Div(usdRate)
	maximum, err := ck.NewAmountHumanReadableFromStr(maxSellAmount)
	if err != nil {
		return ck.AmountHumanReadable{}, ck.AmountHumanReadable{}, err
	}
	return minimum, maximum, nil
}

// tradeRate is buyAmount/sellAmount scaled by the precision difference, so
// equal-value assets with different decimals still quote near 1.
func tradeRate(sellAmount, buyAmount ck.AmountBlockchain, sellPrecision, buyPrecision int32) ck.AmountHumanReadable {
	ratio := decimal.NewFromBigInt(buyAmount.Int(), 0).
		Div(decimal.NewFromBigInt(sellAmount.Int(), 0))
	scale := decimal.NewFromInt32(10).Pow(decimal.NewFromInt32(sellPrecision - buyPrecision))
	return ck.AmountHumanReadable(ratio.Mul(scale))
}

// quoteFeeData estimates the network fee for the trade, the worst-case
// approval fee, and the USD value of the relayer's protocol fee.
func (s *Swapper) quoteFeeData(ctx context.Context, from ck.Address, sellAsset ck.Asset, sellAmount, protocolFee ck.AmountBlockchain) (*swap.QuoteFeeData, error) {
	// Gas is simulated as a max-value token transfer to the vault relayer,
	// the worst case for the eventual funding transaction.
	estimate, err := s.adapter.GetFeeData(ctx, adapter.GetFeeDataInput{
		From:            from,
		To:              ck.Address(VaultRelayer),
		Value:           sellAmount,
		ContractAddress: ck.ContractAddress(sellAsset.AssetId.Reference),
		SendMax:         true,
	})
	if err != nil {
		return nil, err
	}
	fast := estimate.Fast

	unitPrice := fast.Evm.MaxFeePerGas
	if unitPrice.IsZero() {
		unitPrice = fast.Evm.GasPrice
	}
	approvalGas := ck.NewAmountBlockchainFromUint64(approvalGasLimit)
	approvalFee := unitPrice.Mul(&approvalGas)

	usdRate, err := s.oracle.UsdRate(ctx, sellAsset)
	if err != nil {
		return nil, err
	}
	protocolFeeUsd := ck.AmountHumanReadable(
		protocolFee.ToHuman(sellAsset.Precision).Decimal().Mul(usdRate.Decimal()))

	return &swap.QuoteFeeData{
		Network:        fast,
		ApprovalFee:    approvalFee,
		ProtocolFee:    protocolFee,
		ProtocolFeeUsd: protocolFeeUsd,
	}, nil
}

// BuildTrade assembles the unsigned transaction funding the settlement
// contract with the quoted sell amount.
func (s *Swapper) BuildTrade(ctx context.Context, input swap.BuildTradeInput) (ck.Tx, error) {
	tx, err := s.buildTrade(ctx, input)
	if err != nil {
		return nil, errors.Wrap(errors.BuildTradeFailed, err, "building trade")
	}
	return tx, nil
}

func (s *Swapper) buildTrade(ctx context.Context, input swap.BuildTradeInput) (ck.Tx, error) {
	if input.Quote == nil {
		return nil, errors.Validationf("quote is required")
	}
	if input.Signer == nil {
		return nil, errors.Validationf("signer is required")
	}
	return s.adapter.BuildSendTransaction(ctx, adapter.BuildSendTxInput{
		To:            ck.Address(Settlement),
		Value:         input.Quote.SellAmount,
		Signer:        input.Signer,
		AccountNumber: input.Quote.SellAssetAccountNumber,
		Evm: &adapter.EvmTxOptions{
			Erc20ContractAddress: ck.ContractAddress(input.Quote.SellAsset.AssetId.Reference),
		},
	})
}

// ApprovalNeeded checks the on-chain allowance against the quote's sell
// amount.  The deficit is clamped to zero.
func (s *Swapper) ApprovalNeeded(ctx context.Context, input swap.ApprovalNeededInput) (*swap.ApprovalNeededOutput, error) {
	output, err := s.approvalNeeded(ctx, input)
	if err != nil {
		return nil, errors.Wrap(errors.AllowanceFailed, err, "checking allowance")
	}
	return output, nil
}

func (s *Swapper) approvalNeeded(ctx context.Context, input swap.ApprovalNeededInput) (*swap.ApprovalNeededOutput, error) {
	if input.Quote == nil {
		return nil, errors.Validationf("quote is required")
	}
	if input.Signer == nil {
		return nil, errors.Validationf("signer is required")
	}
	owner, err := s.adapter.GetAddress(adapter.GetAddressInput{
		Signer:        input.Signer,
		AccountNumber: input.Quote.SellAssetAccountNumber,
	})
	if err != nil {
		return nil, err
	}
	allowance, err := s.adapter.GetAllowance(ctx, owner,
		ck.ContractAddress(input.Quote.SellAsset.AssetId.Reference),
		ck.Address(input.Quote.AllowanceContract))
	if err != nil {
		return nil, err
	}

	required := input.Quote.SellAmount
	deficit := required.Sub(&allowance)
	if deficit.Sign() < 0 {
		deficit = ck.NewAmountBlockchainFromUint64(0)
	}
	return &swap.ApprovalNeededOutput{
		ApprovalNeeded: !deficit.IsZero(),
		Allowance:      allowance,
		Required:       required,
		Deficit:        deficit,
	}, nil
}

// ApproveInfinite grants the vault relayer an unlimited allowance on the
// sell asset, signing and broadcasting through the adapter.
func (s *Swapper) ApproveInfinite(ctx context.Context, input swap.ApproveInfiniteInput) (ck.TxHash, error) {
	hash, err := s.approveInfinite(ctx, input)
	if err != nil {
		return "", errors.Wrap(errors.GrantAllowanceFailed, err, "granting allowance")
	}
	return hash, nil
}

func (s *Swapper) approveInfinite(ctx context.Context, input swap.ApproveInfiniteInput) (ck.TxHash, error) {
	if input.Quote == nil {
		return "", errors.Validationf("quote is required")
	}
	if input.Signer == nil {
		return "", errors.Validationf("signer is required")
	}
	tx, err := s.adapter.BuildApproveTransaction(ctx, evm.ApproveTxInput{
		Signer:        input.Signer,
		AccountNumber: input.Quote.SellAssetAccountNumber,
		Contract:      ck.ContractAddress(input.Quote.SellAsset.AssetId.Reference),
		Spender:       ck.Address(input.Quote.AllowanceContract),
		Amount:        evm.InfiniteApprovalAmount,
		GasLimit:      approvalGasLimit,
	})
	if err != nil {
		return "", err
	}
	return s.adapter.SignAndBroadcastTransaction(ctx, adapter.SignTxInput{
		Tx:            tx,
		Signer:        input.Signer,
		AccountNumber: input.Quote.SellAssetAccountNumber,
	})
}
