package chainkit

// FeeTier labels the three estimate speeds.  Fee magnitude orders
// fast >= average >= slow; expected confirmation latency orders inversely.
type FeeTier string

const (
	TierFast    = FeeTier("fast")
	TierAverage = FeeTier("average")
	TierSlow    = FeeTier("slow")
)

// UtxoFeeData is the UTXO-family payload of a fee tier: a sats-per-byte rate
// plus confirmation-time expectations.
type UtxoFeeData struct {
	// Fee rate in base units per byte.
	SatsPerByte AmountBlockchain `json:"satsPerByte"`
	MinMinutes  int              `json:"minMinutes"`
	MaxMinutes  int              `json:"maxMinutes"`
	// Relative urgency score, higher is faster.
	Effort int `json:"effort"`
}

// EvmFeeData is the EVM-family payload of a fee tier.  The estimate carries
// both the legacy gas price and the EIP-1559 caps; the transaction builder
// later commits to exactly one pricing model.
type EvmFeeData struct {
	GasPrice             AmountBlockchain `json:"gasPrice"`
	MaxFeePerGas         AmountBlockchain `json:"maxFeePerGas"`
	MaxPriorityFeePerGas AmountBlockchain `json:"maxPriorityFeePerGas"`
	GasLimit             AmountBlockchain `json:"gasLimit"`
}

// FeeData is one tier of a fee estimate.  Exactly one family payload is set,
// matching the adapter family that produced it.
type FeeData struct {
	// Total fee for the transaction under estimation: gasPrice*gasLimit for
	// EVM, rate*estimated-size for UTXO.
	TxFee AmountBlockchain `json:"txFee"`
	Utxo  *UtxoFeeData     `json:"utxo,omitempty"`
	Evm   *EvmFeeData      `json:"evm,omitempty"`
}

// FeeDataEstimate is a three-tier fee estimate.  It is a value object owned
// by the caller; adapters never retain or refresh it.
type FeeDataEstimate struct {
	Fast    FeeData `json:"fast"`
	Average FeeData `json:"average"`
	Slow    FeeData `json:"slow"`
}

func (e *FeeDataEstimate) Tier(tier FeeTier) FeeData {
	switch tier {
	case TierFast:
		return e.Fast
	case TierSlow:
		return e.Slow
	default:
		return e.Average
	}
}

// GasPricing is the fee commitment of a built EVM transaction: either a
// legacy gas price, or the EIP-1559 fee caps, never both.
type GasPricing interface {
	isGasPricing()
}

type LegacyGasPricing struct {
	GasPrice AmountBlockchain `json:"gasPrice"`
}

type DynamicGasPricing struct {
	MaxFeePerGas         AmountBlockchain `json:"maxFeePerGas"`
	MaxPriorityFeePerGas AmountBlockchain `json:"maxPriorityFeePerGas"`
}

func (LegacyGasPricing) isGasPricing()  {}
func (DynamicGasPricing) isGasPricing() {}

// MaxUnitPrice returns the most the pricing can spend per unit of gas.
func MaxUnitPrice(pricing GasPricing) AmountBlockchain {
	switch p := pricing.(type) {
	case LegacyGasPricing:
		return p.GasPrice
	case DynamicGasPricing:
		return p.MaxFeePerGas
	}
	return NewAmountBlockchainFromUint64(0)
}
