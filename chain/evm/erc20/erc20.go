// Package erc20 packs and unpacks the ERC-20 calls the adapters need.
package erc20

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/shiftwave/chainkit/errors"
)

const abiJSON = `[
	{"name":"transfer","type":"function","inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"name":"approve","type":"function","inputs":[{"name":"spender","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"name":"allowance","type":"function","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
	{"name":"balanceOf","type":"function","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"}
]`

var parsed abi.ABI

func init() {
	var err error
	parsed, err = abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		panic(err)
	}
}

// Transfer packs transfer(to, value) call data.
func Transfer(to common.Address, value *big.Int) ([]byte, error) {
	data, err := parsed.Pack("transfer", to, value)
	if err != nil {
		return nil, errors.Validationf("packing erc20 transfer: %v", err)
	}
	return data, nil
}

// Approve packs approve(spender, value) call data.
func Approve(spender common.Address, value *big.Int) ([]byte, error) {
	data, err := parsed.Pack("approve", spender, value)
	if err != nil {
		return nil, errors.Validationf("packing erc20 approve: %v", err)
	}
	return data, nil
}

// Allowance packs allowance(owner, spender) call data.
func Allowance(owner common.Address, spender common.Address) ([]byte, error) {
	data, err := parsed.Pack("allowance", owner, spender)
	if err != nil {
		return nil, errors.Validationf("packing erc20 allowance: %v", err)
	}
	return data, nil
}

// BalanceOf packs balanceOf(owner) call data.
func BalanceOf(owner common.Address) ([]byte, error) {
	data, err := parsed.Pack("balanceOf", owner)
	if err != nil {
		return nil, errors.Validationf("packing erc20 balanceOf: %v", err)
	}
	return data, nil
}

// UnpackUint256 decodes a single uint256 return value, as produced by the
// allowance and balanceOf views.
func UnpackUint256(data []byte) (*big.Int, error) {
	values, err := parsed.Unpack("allowance", data)
	if err != nil {
		return nil, errors.Responsef("decoding erc20 uint256 result: %v", err)
	}
	if len(values) != 1 {
		return nil, errors.Responsef("expected single erc20 return value, got %d", len(values))
	}
	value, ok := values[0].(*big.Int)
	if !ok {
		return nil, errors.Responsef("erc20 result is not an integer")
	}
	return value, nil
}
