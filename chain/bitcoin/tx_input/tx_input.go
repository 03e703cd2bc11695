package tx_input

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sort"

	ck "github.com/shiftwave/chainkit"
)

// Outpoint references a specific output of a prior transaction.
type Outpoint struct {
	Hash  []byte `json:"hash"`
	Index uint32 `json:"index"`
}

func (o *Outpoint) String() string {
	return fmt.Sprintf("%s:%d", hex.EncodeToString(o.Hash), o.Index)
}

func (o *Outpoint) Equals(other *Outpoint) bool {
	return bytes.Equal(o.Hash, other.Hash) && o.Index == other.Index
}

// Output is a spendable UTXO with the script needed to sign it.
type Output struct {
	Outpoint     `json:"outpoint"`
	Value        ck.AmountBlockchain `json:"value"`
	PubKeyScript []byte              `json:"pubkey_script"`
}

// TxInput carries everything needed to assemble a Bitcoin transaction:
// the selected UTXO set, the sender's key material for script building,
// and the fee rate.
type TxInput struct {
	Address        ck.Address `json:"address"`
	UnspentOutputs []Output   `json:"unspent_outputs"`
	FromPublicKey  []byte     `json:"from_public_key"`
	// Base units (satoshi) per byte.
	SatsPerByte ck.AmountBlockchain `json:"sats_per_byte"`
	// Estimated size in bytes, per utxo that gets spent.
	EstimatedSizePerSpentUtxo uint64 `json:"estimated_size_per_spent_utxo"`
}

// Conservative default covering a signed input plus its share of outputs
// and overhead.
const DefaultSizePerSpentUtxo = 255

func (input *TxInput) GetEstimatedSizePerSpentUtxo() uint64 {
	if input.EstimatedSizePerSpentUtxo == 0 {
		return DefaultSizePerSpentUtxo
	}
	return input.EstimatedSizePerSpentUtxo
}

// EstimatedFee is rate times estimated size of the spending transaction.
func (input *TxInput) EstimatedFee() ck.AmountBlockchain {
	size := ck.NewAmountBlockchainFromUint64(
		input.GetEstimatedSizePerSpentUtxo() * uint64(len(input.UnspentOutputs)),
	)
	return input.SatsPerByte.Mul(&size)
}

// SumUtxo totals the selected outputs.
func (input *TxInput) SumUtxo() *ck.AmountBlockchain {
	balance := ck.NewAmountBlockchainFromUint64(0)
	for _, utxo := range input.UnspentOutputs {
		balance = balance.Add(&utxo.Value)
	}
	return &balance
}

// SetAmount reselects the UTXO set for a target amount.
func (input *TxInput) SetAmount(amount ck.AmountBlockchain) {
	input.UnspentOutputs = FilterForMinUtxoSet(input.UnspentOutputs, amount, 10)
}

// FilterForMinUtxoSet picks the smallest set of UTXO that satisfies the
// target amount, then tacks on smaller outputs until minUtxo is reached.
// This keeps transactions small while still consolidating dust over time.
func FilterForMinUtxoSet(unspentOutputs []Output, targetAmount ck.AmountBlockchain, minUtxo int) []Output {
	filtered := []Output{}
	balance := ck.NewAmountBlockchainFromUint64(0)
	if len(unspentOutputs) > 1 {
		sort.Slice(unspentOutputs, func(i, j int) bool {
			return unspentOutputs[i].Value.Cmp(&unspentOutputs[j].Value) > 0
		})
	}

	index := 0
	for _, utxo := range unspentOutputs {
		if balance.Cmp(&targetAmount) >= 0 {
			break
		}
		filtered = append(filtered, utxo)
		balance = balance.Add(&utxo.Value)
		index += 1
	}
	if len(unspentOutputs) > index {
		for _, utxo := range unspentOutputs[index:] {
			if len(filtered) >= minUtxo {
				break
			}
			filtered = append(filtered, utxo)
		}
	}
	return filtered
}

// FilterUnconfirmedHeuristic drops unconfirmed outputs unless they make up
// the whole set, in which case spending them is the only option.
func FilterUnconfirmedHeuristic(unspentOutputs []Output, confirmations func(Output) int64) []Output {
	confirmed := []Output{}
	for _, utxo := range unspentOutputs {
		if confirmations(utxo) > 0 {
			confirmed = append(confirmed, utxo)
		}
	}
	if len(confirmed) == 0 {
		return unspentOutputs
	}
	return confirmed
}
