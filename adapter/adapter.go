package adapter

import (
	"context"

	ck "github.com/shiftwave/chainkit"
)

// GetAddressInput selects a derivation path and the signer capability that
// holds the keys.  Derivation never touches the network.
type GetAddressInput struct {
	Signer        ck.Signer
	Purpose       ck.Purpose
	AccountNumber uint32
	IsChange      bool
	AddressIndex  uint32
	// UTXO only.  Must be consistent with Purpose when set.
	ScriptType ck.ScriptType
}

// UtxoTxOptions is the UTXO-family section of a build request.
type UtxoTxOptions struct {
	// Fee rate in base units per byte.
	SatsPerByte ck.AmountBlockchain
	// Optional OP_RETURN payload.
	OpReturnData []byte
	ScriptType   ck.ScriptType
}

// EvmTxOptions is the EVM-family section of a build request.
type EvmTxOptions struct {
	// ERC-20 contract for token sends; empty for native sends.
	Erc20ContractAddress ck.ContractAddress
	// Exactly one pricing model, enforced by the GasPricing sum type.
	Pricing  ck.GasPricing
	GasLimit uint64
	// Raw call data overriding the generated transfer data.
	Data []byte
}

// BuildSendTxInput describes a send to assemble.  To and Value are required;
// SendMax recomputes Value from the live balance.
type BuildSendTxInput struct {
	To      ck.Address
	Value   ck.AmountBlockchain
	Signer  ck.Signer
	SendMax bool

	Purpose       ck.Purpose
	AccountNumber uint32

	Utxo *UtxoTxOptions
	Evm  *EvmTxOptions
}

// GetFeeDataInput scopes a fee estimate to a prospective send, so gas usage
// can be simulated with the correct call data.  UTXO estimation ignores it.
type GetFeeDataInput struct {
	To              ck.Address
	Value           ck.AmountBlockchain
	From            ck.Address
	ContractAddress ck.ContractAddress
	ContractData    []byte
	SendMax         bool
}

// SignTxInput pairs a built transaction with the signer that will
// authorize it.
type SignTxInput struct {
	Tx            ck.Tx
	Signer        ck.Signer
	Purpose       ck.Purpose
	AccountNumber uint32
}

// ValidateAddressResult is the outcome of pure syntactic validation.
type ValidateAddressResult struct {
	Valid  bool   `json:"valid"`
	Result string `json:"result"`
}

const (
	ResultValid   = "valid"
	ResultInvalid = "invalid"
)

// ChainAdapter is the uniform capability contract over heterogeneous chains.
// Implementations are stateless beyond their immutable configuration and are
// safe for concurrent use; callers needing nonce ordering between their own
// sends must serialize those calls themselves.
type ChainAdapter interface {
	// GetType returns the static chain identity.
	GetType() ck.ChainIdentifier

	// GetAddress derives a chain-appropriate address from the signer.
	// No network access.  ValidationError if derivation fields are missing
	// or inconsistent.
	GetAddress(input GetAddressInput) (ck.Address, error)

	// BuildBIP44Params returns the adapter's default derivation path with
	// the account number applied.
	BuildBIP44Params(accountNumber uint32) ck.BIP44Params

	// GetAccount queries the data provider and normalizes the response.
	// ValidationError on an empty or malformed address, before any network
	// call; ProviderError if the provider fails.
	GetAccount(ctx context.Context, address ck.Address) (*ck.Account, error)

	// GetTxHistory lists transfers touching the address, with the same
	// address-validation contract as GetAccount.
	GetTxHistory(ctx context.Context, address ck.Address) (*ck.TxHistory, error)

	// GetFeeData estimates the three fee tiers.  A provider failure for any
	// part of the estimate fails the whole call; no partial results.
	GetFeeData(ctx context.Context, input GetFeeDataInput) (ck.FeeDataEstimate, error)

	// BuildSendTransaction assembles the chain-appropriate unsigned payload.
	BuildSendTransaction(ctx context.Context, input BuildSendTxInput) (ck.Tx, error)

	// SignTransaction delegates to the signer capability.  SigningError if
	// the signer rejects or cannot support the transaction shape.
	SignTransaction(ctx context.Context, input SignTxInput) (*ck.SignedTx, error)

	// BroadcastTransaction submits to the external broadcaster.
	// ProviderError on rejection.
	BroadcastTransaction(ctx context.Context, signedTx *ck.SignedTx) (ck.TxHash, error)

	// SignAndBroadcastTransaction signs and submits in one call, using the
	// signer's combined capability when offline signing is unavailable.
	SignAndBroadcastTransaction(ctx context.Context, input SignTxInput) (ck.TxHash, error)

	// ValidateAddress is pure, chain-family-specific syntactic validation.
	// It is total: any input yields a result, never an error.
	ValidateAddress(address ck.Address) ValidateAddressResult
}
