package evm_test

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shiftwave/chainkit/adapter"
	"github.com/shiftwave/chainkit/chain/evm"
	"github.com/shiftwave/chainkit/testutil"
)

const spenderAddress = "0xc92e8bdf79f0507f65a392b0ab4667716bfe0110"

func TestGetAllowance(t *testing.T) {
	var calledWith struct {
		To   string `json:"to"`
		Data string `json:"data"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/call", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&calledWith))
		// uint256 5000000
		fmt.Fprint(w, `{"result":"0x`+strings.Repeat("0", 58)+`4c4b40"}`)
	}))
	defer server.Close()

	a := newTestAdapter(t, server.URL)
	allowance, err := a.GetAllowance(context.Background(), testAddress, usdcContract, spenderAddress)
	require.NoError(t, err)
	require.Equal(t, "5000000", allowance.String())

	require.Equal(t, usdcContract, calledWith.To)
	// allowance(owner, spender) selector.
	require.True(t, strings.HasPrefix(calledWith.Data, "0xdd62ed3e"))
}

func TestGetAllowanceRejectsBadAddresses(t *testing.T) {
	a := newTestAdapter(t, "http://unreachable.invalid")

	_, err := a.GetAllowance(context.Background(), "bogus", usdcContract, spenderAddress)
	require.Error(t, err)

	_, err = a.GetAllowance(context.Background(), testAddress, usdcContract, "bogus")
	require.Error(t, err)
}

func TestBuildApproveTransaction(t *testing.T) {
	server := evmServer(t, `{"address":"`+testAddress+`","balance":"2000000000000000000","nonce":5}`)
	defer server.Close()

	a := newTestAdapter(t, server.URL)
	signer := testutil.Signer(t)

	tx, err := a.BuildApproveTransaction(context.Background(), evm.ApproveTxInput{
		Signer:   signer,
		Contract: usdcContract,
		Spender:  spenderAddress,
		Amount:   evm.InfiniteApprovalAmount,
	})
	require.NoError(t, err)

	signed, err := a.SignTransaction(context.Background(), adapter.SignTxInput{Tx: tx, Signer: signer})
	require.NoError(t, err)

	decoded := decodeTx(t, signed.Raw)
	require.Equal(t, usdcContract, decoded.To)
	require.Equal(t, "0", decoded.Value)
	require.Equal(t, uint64(60000), decoded.Gas)

	// approve(spender, value) with the max uint256 amount.
	callData := hex.EncodeToString(decoded.Data)
	require.True(t, strings.HasPrefix(callData, "095ea7b3"))
	require.True(t, strings.HasSuffix(callData, strings.Repeat("f", 64)))
}

func TestBuildApproveTransactionValidation(t *testing.T) {
	a := newTestAdapter(t, "http://unreachable.invalid")
	signer := testutil.Signer(t)

	_, err := a.BuildApproveTransaction(context.Background(), evm.ApproveTxInput{
		Signer:  signer,
		Spender: spenderAddress,
	})
	require.Error(t, err)

	_, err = a.BuildApproveTransaction(context.Background(), evm.ApproveTxInput{
		Signer:   signer,
		Contract: usdcContract,
	})
	require.Error(t, err)
}
