package evm_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	ck "github.com/shiftwave/chainkit"
	"github.com/shiftwave/chainkit/adapter"
	"github.com/shiftwave/chainkit/chain/evm"
	"github.com/shiftwave/chainkit/errors"
	"github.com/shiftwave/chainkit/testutil"
)

const (
	testAddress  = "0x9858effd232b4033e47d90003d41ec34ecaeda94"
	usdcContract = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
)

func newTestAdapter(t *testing.T, url string) *evm.Adapter {
	t.Helper()
	cfg := ck.NewChainConfig(ck.Ethereum).WithURL(url)
	a, err := evm.NewAdapter(cfg)
	require.NoError(t, err)
	return a
}

// evmServer speaks just enough of the provider protocol for one account.
func evmServer(t *testing.T, account string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/v1/account/"):
			fmt.Fprint(w, account)
		case r.URL.Path == "/api/v1/gas/fees":
			fmt.Fprint(w, `{"gasPrice":"10000000000","maxFeePerGas":"12000000000","maxPriorityFeePerGas":"1000000000"}`)
		case r.URL.Path == "/api/v1/gas/estimate":
			fmt.Fprint(w, `{"gasLimit":60000}`)
		case r.URL.Path == "/api/v1/send":
			fmt.Fprint(w, `{"txid":"0x`+strings.Repeat("ab", 32)+`"}`)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestGetAddress(t *testing.T) {
	a := newTestAdapter(t, "")
	signer := testutil.Signer(t)

	addr, err := a.GetAddress(adapter.GetAddressInput{Signer: signer})
	require.NoError(t, err)
	require.Equal(t, ck.Address(testAddress), addr)

	// The legacy purpose code is the only one EVM chains accept.
	_, err = a.GetAddress(adapter.GetAddressInput{Signer: signer, Purpose: ck.PurposeSegwitNative})
	require.True(t, errors.Is(err, errors.Validation))

	_, err = a.GetAddress(adapter.GetAddressInput{Signer: signer, ScriptType: ck.ScriptTypeP2WPKH})
	require.True(t, errors.Is(err, errors.Validation))

	_, err = a.GetAddress(adapter.GetAddressInput{})
	require.True(t, errors.Is(err, errors.Validation))
}

func TestNewAdapterAvalanche(t *testing.T) {
	cfg := ck.NewChainConfig(ck.Avalanche)
	require.Equal(t, uint64(43114), cfg.ChainID)

	a, err := evm.NewAdapter(cfg)
	require.NoError(t, err)
	require.Equal(t, ck.Avalanche, a.GetType())
	require.Equal(t, uint32(9000), a.BuildBIP44Params(0).CoinType)

	addr, err := a.GetAddress(adapter.GetAddressInput{Signer: testutil.Signer(t)})
	require.NoError(t, err)
	require.True(t, a.ValidateAddress(addr).Valid)
	// Coin type 9000 derives a different account than the Ethereum path.
	require.NotEqual(t, ck.Address(testAddress), addr)
}

func TestBuildBIP44Params(t *testing.T) {
	a := newTestAdapter(t, "")
	params := a.BuildBIP44Params(1)
	require.Equal(t, "m/44'/60'/1'/0/0", params.Path())
}

func TestValidateAddress(t *testing.T) {
	a := newTestAdapter(t, "")

	require.True(t, a.ValidateAddress(testAddress).Valid)
	require.True(t, a.ValidateAddress("0x9858EFFD232B4033E47d90003D41EC34EcaEda94").Valid)

	for _, addr := range []ck.Address{"", "0x123", "1LqBGSKuX5yYUonjxT5qGfpUsXKYYWeabA", "0x9858effd232b4033e47d90003d41ec34ecaeda9g"} {
		result := a.ValidateAddress(addr)
		require.False(t, result.Valid, string(addr))
		require.Equal(t, adapter.ResultInvalid, result.Result)
	}
}

func TestGetAccount(t *testing.T) {
	server := evmServer(t, `{
		"address":"`+testAddress+`",
		"balance":"2000000000000000000",
		"nonce":7,
		"tokens":[{"contract":"`+usdcContract+`","symbol":"USDC","decimals":6,"balance":"5000000"}]
	}`)
	defer server.Close()

	a := newTestAdapter(t, server.URL)
	account, err := a.GetAccount(context.Background(), testAddress)
	require.NoError(t, err)
	require.Equal(t, "2000000000000000000", account.Balance.String())
	require.Equal(t, uint64(7), account.Evm.Nonce)
	require.Len(t, account.Evm.Tokens, 1)

	token, ok := account.TokenBalanceOf(usdcContract)
	require.True(t, ok)
	require.Equal(t, "USDC", token.Symbol)
	require.Equal(t, "5000000", token.Balance.String())
	require.Equal(t, "ethereum/erc20:"+usdcContract, token.AssetId.String())

	_, err = a.GetAccount(context.Background(), "")
	require.True(t, errors.Is(err, errors.Validation))
}

func TestGetFeeData(t *testing.T) {
	server := evmServer(t, `{}`)
	defer server.Close()

	a := newTestAdapter(t, server.URL)
	estimate, err := a.GetFeeData(context.Background(), adapter.GetFeeDataInput{})
	require.NoError(t, err)

	// Tier multipliers 1.2 / 1.0 / 0.8 applied to the provider's estimate.
	require.Equal(t, "14400000000", estimate.Fast.Evm.MaxFeePerGas.String())
	require.Equal(t, "12000000000", estimate.Average.Evm.MaxFeePerGas.String())
	require.Equal(t, "9600000000", estimate.Slow.Evm.MaxFeePerGas.String())
	require.Equal(t, "1200000000", estimate.Fast.Evm.MaxPriorityFeePerGas.String())

	// Native transfers use the fixed 21000 gas budget.
	require.Equal(t, "21000", estimate.Average.Evm.GasLimit.String())
	require.Equal(t, "252000000000000", estimate.Average.TxFee.String())
}

func TestGetFeeDataSimulatesContractCalls(t *testing.T) {
	server := evmServer(t, `{}`)
	defer server.Close()

	a := newTestAdapter(t, server.URL)
	estimate, err := a.GetFeeData(context.Background(), adapter.GetFeeDataInput{
		From:            testAddress,
		ContractAddress: usdcContract,
		ContractData:    []byte{0xa9, 0x05, 0x9c, 0xbb},
	})
	require.NoError(t, err)
	require.Equal(t, "60000", estimate.Average.Evm.GasLimit.String())
}

func TestGetFeeDataSendMaxErc20(t *testing.T) {
	const recipient = "0x6b175474e89094c44da98b954eedeac495271d0f"

	var estimateReq struct {
		From  string `json:"from"`
		To    string `json:"to"`
		Value string `json:"value"`
		Data  string `json:"data"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/v1/account/"):
			fmt.Fprint(w, `{"address":"`+testAddress+`","balance":"0","nonce":1,
				"tokens":[{"contract":"`+usdcContract+`","symbol":"USDC","decimals":6,"balance":"5000000"}]}`)
		case r.URL.Path == "/api/v1/gas/fees":
			fmt.Fprint(w, `{"gasPrice":"10000000000","maxFeePerGas":"12000000000","maxPriorityFeePerGas":"1000000000"}`)
		case r.URL.Path == "/api/v1/gas/estimate":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&estimateReq))
			fmt.Fprint(w, `{"gasLimit":60000}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	a := newTestAdapter(t, server.URL)
	estimate, err := a.GetFeeData(context.Background(), adapter.GetFeeDataInput{
		From:            testAddress,
		To:              recipient,
		ContractAddress: usdcContract,
		SendMax:         true,
	})
	require.NoError(t, err)
	require.Equal(t, "60000", estimate.Average.Evm.GasLimit.String())

	// The simulated transfer spends the full token balance.
	require.Equal(t, usdcContract, estimateReq.To)
	require.Empty(t, estimateReq.Value)
	require.Equal(t,
		"0x"+"a9059cbb"+
			strings.Repeat("0", 24)+strings.TrimPrefix(recipient, "0x")+
			strings.Repeat("0", 58)+"4c4b40",
		estimateReq.Data)
}

func TestGetFeeDataSendMaxWithoutBalance(t *testing.T) {
	server := evmServer(t, `{"address":"`+testAddress+`","balance":"0","nonce":1}`)
	defer server.Close()

	a := newTestAdapter(t, server.URL)
	_, err := a.GetFeeData(context.Background(), adapter.GetFeeDataInput{
		From:            testAddress,
		To:              testAddress,
		ContractAddress: usdcContract,
		SendMax:         true,
	})
	require.True(t, errors.Is(err, errors.Validation))
}

func TestBuildAndSignNativeTransfer(t *testing.T) {
	server := evmServer(t, `{"address":"`+testAddress+`","balance":"2000000000000000000","nonce":7}`)
	defer server.Close()

	a := newTestAdapter(t, server.URL)
	signer := testutil.Signer(t)

	tx, err := a.BuildSendTransaction(context.Background(), adapter.BuildSendTxInput{
		To:     "0x6b175474e89094c44da98b954eedeac495271d0f",
		Value:  ck.NewAmountBlockchainFromStr("1000000000000000000"),
		Signer: signer,
	})
	require.NoError(t, err)

	signed, err := a.SignTransaction(context.Background(), adapter.SignTxInput{
		Tx:     tx,
		Signer: signer,
	})
	require.NoError(t, err)
	require.NotEmpty(t, signed.Raw)
	require.Equal(t, tx.Hash(), signed.Hash)

	hash, err := a.BroadcastTransaction(context.Background(), signed)
	require.NoError(t, err)
	require.Equal(t, ck.TxHash("0x"+strings.Repeat("ab", 32)), hash)
}

func TestBuildSendTransactionValidation(t *testing.T) {
	a := newTestAdapter(t, "http://unreachable.invalid")
	signer := testutil.Signer(t)

	_, err := a.BuildSendTransaction(context.Background(), adapter.BuildSendTxInput{Signer: signer})
	require.True(t, errors.Is(err, errors.Validation))

	_, err = a.BuildSendTransaction(context.Background(), adapter.BuildSendTxInput{
		To:     "0x6b175474e89094c44da98b954eedeac495271d0f",
		Signer: signer,
	})
	require.True(t, errors.Is(err, errors.Validation))

	_, err = a.BuildSendTransaction(context.Background(), adapter.BuildSendTxInput{
		To:     "not-an-address",
		Value:  ck.NewAmountBlockchainFromUint64(1),
		Signer: signer,
	})
	require.True(t, errors.Is(err, errors.Validation))
}

func TestSendMaxNative(t *testing.T) {
	server := evmServer(t, `{"address":"`+testAddress+`","balance":"1000000000000000000","nonce":0}`)
	defer server.Close()

	a := newTestAdapter(t, server.URL)
	signer := testutil.Signer(t)

	tx, err := a.BuildSendTransaction(context.Background(), adapter.BuildSendTxInput{
		To:      "0x6b175474e89094c44da98b954eedeac495271d0f",
		SendMax: true,
		Signer:  signer,
	})
	require.NoError(t, err)

	signed, err := a.SignTransaction(context.Background(), adapter.SignTxInput{Tx: tx, Signer: signer})
	require.NoError(t, err)

	// balance minus maxFeePerGas * gasLimit at the average tier.
	decoded := decodeTx(t, signed.Raw)
	require.Equal(t, "999748000000000000", decoded.Value)
	require.Equal(t, uint64(21000), decoded.Gas)
}

func TestSendMaxNativeInsufficientFunds(t *testing.T) {
	server := evmServer(t, `{"address":"`+testAddress+`","balance":"1000","nonce":0}`)
	defer server.Close()

	a := newTestAdapter(t, server.URL)
	signer := testutil.Signer(t)

	_, err := a.BuildSendTransaction(context.Background(), adapter.BuildSendTxInput{
		To:      "0x6b175474e89094c44da98b954eedeac495271d0f",
		SendMax: true,
		Signer:  signer,
	})
	require.True(t, errors.Is(err, errors.InsufficientFunds))
}

func TestBuildTokenTransfer(t *testing.T) {
	server := evmServer(t, `{
		"address":"`+testAddress+`",
		"balance":"2000000000000000000",
		"nonce":3,
		"tokens":[{"contract":"`+usdcContract+`","symbol":"USDC","decimals":6,"balance":"5000000"}]
	}`)
	defer server.Close()

	a := newTestAdapter(t, server.URL)
	signer := testutil.Signer(t)

	tx, err := a.BuildSendTransaction(context.Background(), adapter.BuildSendTxInput{
		To:      "0x6b175474e89094c44da98b954eedeac495271d0f",
		SendMax: true,
		Signer:  signer,
		Evm: &adapter.EvmTxOptions{
			Erc20ContractAddress: usdcContract,
		},
	})
	require.NoError(t, err)

	signed, err := a.SignTransaction(context.Background(), adapter.SignTxInput{Tx: tx, Signer: signer})
	require.NoError(t, err)

	decoded := decodeTx(t, signed.Raw)
	// Token sends call the contract with zero native value.
	require.Equal(t, usdcContract, decoded.To)
	require.Equal(t, "0", decoded.Value)
	require.Equal(t, uint64(60000), decoded.Gas)
	require.NotEmpty(t, decoded.Data)
}

func TestGetTxHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"transactions":[{
			"txid":"0x`+strings.Repeat("cd", 32)+`",
			"from":"`+testAddress+`",
			"to":"0x6b175474e89094c44da98b954eedeac495271d0f",
			"value":"1000","fee":"21","blockHeight":19000000,"blockTime":1700000000,"confirmations":4
		}]}`)
	}))
	defer server.Close()

	a := newTestAdapter(t, server.URL)
	history, err := a.GetTxHistory(context.Background(), testAddress)
	require.NoError(t, err)
	require.Len(t, history.Transactions, 1)
	require.Equal(t, ck.Address(testAddress), history.Transactions[0].From)
	require.Equal(t, int64(4), history.Transactions[0].Confirmations)
}

func TestGetTxHistoryRejectsBadAddress(t *testing.T) {
	a := newTestAdapter(t, "http://unreachable.invalid")

	_, err := a.GetTxHistory(context.Background(), "")
	require.True(t, errors.Is(err, errors.Validation))

	_, err = a.GetTxHistory(context.Background(), "0x123")
	require.True(t, errors.Is(err, errors.Validation))
}

// decodedTx is the subset of transaction fields the tests assert on.
type decodedTx struct {
	To    string
	Value string
	Gas   uint64
	Data  []byte
}

func decodeTx(t *testing.T, raw []byte) decodedTx {
	t.Helper()
	var tx types.Transaction
	require.NoError(t, tx.UnmarshalBinary(raw))
	require.NotNil(t, tx.To())
	return decodedTx{
		To:    strings.ToLower(tx.To().Hex()),
		Value: tx.Value().String(),
		Gas:   tx.Gas(),
		Data:  tx.Data(),
	}
}
