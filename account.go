package chainkit

// TokenBalance is an ERC-20 sub-balance on an EVM account.
type TokenBalance struct {
	AssetId  AssetId          `json:"assetId"`
	Symbol   string           `json:"symbol"`
	Decimals int32            `json:"decimals"`
	Balance  AmountBlockchain `json:"balance"`
}

// EvmAccount is the EVM-family portion of an account snapshot.
type EvmAccount struct {
	Nonce  uint64         `json:"nonce"`
	Tokens []TokenBalance `json:"tokens,omitempty"`
}

// Utxo is one unspent output attributed to an address.
type Utxo struct {
	TxHash        string           `json:"txHash"`
	Index         uint32           `json:"index"`
	Value         AmountBlockchain `json:"value"`
	Confirmations int64            `json:"confirmations"`
}

// UtxoAccount is the UTXO-family portion of an account snapshot.
type UtxoAccount struct {
	Utxos []Utxo `json:"utxos,omitempty"`
}

// Account is a point-in-time snapshot of chain state for one address.
// Exactly one family section is populated.  Accounts are value objects: they
// are refreshed from the data provider on demand and never cached by an
// adapter.
type Account struct {
	Address Address          `json:"address"`
	Balance AmountBlockchain `json:"balance"`
	Evm     *EvmAccount      `json:"evm,omitempty"`
	Utxo    *UtxoAccount     `json:"utxo,omitempty"`
}

// TokenBalanceOf finds the sub-balance for an ERC-20 contract, if present.
func (a *Account) TokenBalanceOf(contract ContractAddress) (TokenBalance, bool) {
	if a.Evm == nil {
		return TokenBalance{}, false
	}
	for _, token := range a.Evm.Tokens {
		if EqualFoldAddress(Address(token.AssetId.Reference), Address(contract)) {
			return token, true
		}
	}
	return TokenBalance{}, false
}

// TxHistoryItem is one transfer touching the queried address.
type TxHistoryItem struct {
	TxHash        TxHash           `json:"txid"`
	From          Address          `json:"from"`
	To            Address          `json:"to"`
	Value         AmountBlockchain `json:"value"`
	Fee           AmountBlockchain `json:"fee"`
	BlockHeight   int64            `json:"blockHeight"`
	BlockTime     int64            `json:"blockTime"`
	Confirmations int64            `json:"confirmations"`
}

// TxHistory is the account-scoped transaction list for one address.
type TxHistory struct {
	Address      Address         `json:"address"`
	Transactions []TxHistoryItem `json:"transactions"`
}
