// Package client talks to an EVM data provider over its REST API.  The
// provider fronts archive nodes and token indexers behind one surface, so
// the adapter never speaks raw JSON-RPC.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	ck "github.com/shiftwave/chainkit"
	"github.com/shiftwave/chainkit/errors"
	"github.com/shiftwave/chainkit/pkg/hex"
)

type Client struct {
	httpClient http.Client
	url        string
	limiter    *rate.Limiter
}

func NewClient(cfg *ck.ChainConfig) *Client {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	return &Client{
		httpClient: http.Client{Timeout: 30 * time.Second},
		url:        strings.TrimSuffix(cfg.URL, "/"),
		limiter:    rate.NewLimiter(limit, 1),
	}
}

type AccountResponse struct {
	Address string          `json:"address"`
	Balance string          `json:"balance"`
	Nonce   uint64          `json:"nonce"`
	Tokens  []TokenResponse `json:"tokens,omitempty"`
}

type TokenResponse struct {
	Contract string `json:"contract"`
	Symbol   string `json:"symbol"`
	Decimals int32  `json:"decimals"`
	Balance  string `json:"balance"`
}

type GasFeesResponse struct {
	GasPrice             string `json:"gasPrice"`
	MaxFeePerGas         string `json:"maxFeePerGas"`
	MaxPriorityFeePerGas string `json:"maxPriorityFeePerGas"`
}

type estimateGasRequest struct {
	From  string `json:"from,omitempty"`
	To    string `json:"to"`
	Value string `json:"value,omitempty"`
	Data  string `json:"data,omitempty"`
}

type estimateGasResponse struct {
	GasLimit uint64 `json:"gasLimit"`
}

type callRequest struct {
	To   string `json:"to"`
	Data string `json:"data"`
}

type callResponse struct {
	Result string `json:"result"`
}

type sendRequest struct {
	Hex string `json:"hex"`
}

type sendResponse struct {
	Txid  string `json:"txid"`
	Error string `json:"error,omitempty"`
}

type TxHistoryResponse struct {
	Transactions []TxHistoryEntry `json:"transactions"`
}

type TxHistoryEntry struct {
	Txid          string `json:"txid"`
	From          string `json:"from"`
	To            string `json:"to"`
	Value         string `json:"value"`
	Fee           string `json:"fee"`
	BlockHeight   int64  `json:"blockHeight"`
	BlockTime     int64  `json:"blockTime"`
	Confirmations int64  `json:"confirmations"`
}

// GetAccount fetches the native balance, nonce, and token sub-balances.
func (c *Client) GetAccount(ctx context.Context, addr ck.Address) (*AccountResponse, error) {
	var data AccountResponse
	if err := c.get(ctx, fmt.Sprintf("/api/v1/account/%s", addr), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetTxHistory lists transfers touching the address.
func (c *Client) GetTxHistory(ctx context.Context, addr ck.Address) (*TxHistoryResponse, error) {
	var data TxHistoryResponse
	if err := c.get(ctx, fmt.Sprintf("/api/v1/txs/%s", addr), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GasFees returns the provider's current base fee view.
func (c *Client) GasFees(ctx context.Context) (*GasFeesResponse, error) {
	var data GasFeesResponse
	if err := c.get(ctx, "/api/v1/gas/fees", &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// EstimateGas simulates a call and returns its gas limit.
func (c *Client) EstimateGas(ctx context.Context, from, to ck.Address, value ck.AmountBlockchain, data []byte) (uint64, error) {
	request := estimateGasRequest{
		From: string(from),
		To:   string(to),
	}
	if !value.IsZero() {
		request.Value = value.String()
	}
	if len(data) > 0 {
		request.Data = hex.Encode(data)
	}
	var response estimateGasResponse
	if err := c.post(ctx, "/api/v1/gas/estimate", request, &response); err != nil {
		return 0, err
	}
	if response.GasLimit == 0 {
		return 0, errors.Responsef("provider returned zero gas limit")
	}
	return response.GasLimit, nil
}

// Call executes a read-only contract call and returns the raw result bytes.
func (c *Client) Call(ctx context.Context, to ck.Address, data []byte) ([]byte, error) {
	request := callRequest{
		To:   string(to),
		Data: hex.Encode(data),
	}
	var response callResponse
	if err := c.post(ctx, "/api/v1/call", request, &response); err != nil {
		return nil, err
	}
	raw, err := hex.Decode(response.Result)
	if err != nil {
		return nil, errors.Responsef("provider returned non-hex call result %q", response.Result)
	}
	return raw.Bytes(), nil
}

// SendTx broadcasts a serialized transaction and returns the provider's
// transaction id.
func (c *Client) SendTx(ctx context.Context, serialized []byte) (ck.TxHash, error) {
	request := sendRequest{Hex: hex.Encode(serialized)}
	var response sendResponse
	if err := c.post(ctx, "/api/v1/send", request, &response); err != nil {
		return "", err
	}
	if response.Error != "" {
		return "", errors.Providerf("broadcast rejected: %s", response.Error)
	}
	if response.Txid == "" {
		return "", errors.Responsef("broadcast response missing transaction id")
	}
	return ck.TxHash(response.Txid), nil
}

func (c *Client) get(ctx context.Context, path string, target interface{}) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+path, nil)
	if err != nil {
		return errors.Providerf("building request: %v", err)
	}
	return c.do(request, target)
}

func (c *Client) post(ctx context.Context, path string, body interface{}, target interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Providerf("encoding request: %v", err)
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Providerf("building request: %v", err)
	}
	request.Header.Set("Content-Type", "application/json")
	return c.do(request, target)
}

func (c *Client) do(request *http.Request, target interface{}) error {
	if err := c.limiter.Wait(request.Context()); err != nil {
		return errors.Providerf("rate limiter: %v", err)
	}
	logrus.WithFields(logrus.Fields{
		"method": request.Method,
		"url":    request.URL.String(),
	}).Debug("evm provider request")
	response, err := c.httpClient.Do(request)
	if err != nil {
		return errors.Providerf("provider unreachable: %v", err)
	}
	defer response.Body.Close()
	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return errors.Providerf("reading provider response: %v", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return errors.Providerf("provider returned status %d: %s", response.StatusCode, strings.TrimSpace(string(raw)))
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return errors.Responsef("decoding provider response: %v", err)
	}
	return nil
}
