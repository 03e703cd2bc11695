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

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	ck "github.com/shiftwave/chainkit"
	"github.com/shiftwave/chainkit/errors"
)

// Client is a blockbook-style HTTP data provider client for UTXO chains.
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

type AddressResponse struct {
	Address      string        `json:"address"`
	Balance      string        `json:"balance"`
	Txs          int64         `json:"txs"`
	Transactions []TxResponse  `json:"transactions,omitempty"`
	TxIds        []string      `json:"txids,omitempty"`
	Tokens       []interface{} `json:"tokens,omitempty"`
}

type TxResponse struct {
	Txid          string       `json:"txid"`
	Vin           []VinVout    `json:"vin"`
	Vout          []VinVout    `json:"vout"`
	BlockHeight   int64        `json:"blockHeight"`
	BlockTime     int64        `json:"blockTime"`
	Confirmations int64        `json:"confirmations"`
	Value         string       `json:"value"`
	Fees          string       `json:"fees"`
}

type VinVout struct {
	Value     string   `json:"value"`
	Addresses []string `json:"addresses"`
}

type UtxoResponse struct {
	Txid          string `json:"txid"`
	Vout          uint32 `json:"vout"`
	Value         string `json:"value"`
	Confirmations int64  `json:"confirmations"`
}

type estimateFeeResponse struct {
	Result string `json:"result"`
}

type sendTxResponse struct {
	Result string `json:"result"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// GetAddress fetches the balance and transaction list for an address.
func (c *Client) GetAddress(ctx context.Context, addr ck.Address) (*AddressResponse, error) {
	var data AddressResponse
	if err := c.get(ctx, fmt.Sprintf("/api/v2/address/%s?details=txs", addr), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// UnspentOutputs lists the spendable outputs for an address.
func (c *Client) UnspentOutputs(ctx context.Context, addr ck.Address) ([]UtxoResponse, error) {
	var data []UtxoResponse
	if err := c.get(ctx, fmt.Sprintf("/api/v2/utxo/%s", addr), &data); err != nil {
		return nil, err
	}
	return data, nil
}

// EstimateFee returns the estimated fee rate in base units (satoshi) per
// byte for confirmation within the target number of blocks.  The provider
// reports whole-coin per kilobyte; a non-positive report is a ResponseError.
func (c *Client) EstimateFee(ctx context.Context, blocks int, decimals int32) (ck.AmountBlockchain, error) {
	var data estimateFeeResponse
	if err := c.get(ctx, fmt.Sprintf("/api/v2/estimatefee/%d", blocks), &data); err != nil {
		return ck.AmountBlockchain{}, err
	}
	perKb, err := decimal.NewFromString(data.Result)
	if err != nil || !perKb.IsPositive() {
		return ck.AmountBlockchain{}, errors.Responsef("provider returned unusable fee estimate %q", data.Result)
	}
	perByte := ck.AmountHumanReadable(perKb.Div(decimal.NewFromInt(1000))).ToBlockchain(decimals)
	one := ck.NewAmountBlockchainFromUint64(1)
	if perByte.Cmp(&one) < 0 {
		perByte = one
	}
	return perByte, nil
}

// SendTx broadcasts a serialized transaction, returning the provider's
// transaction id.
func (c *Client) SendTx(ctx context.Context, serialized []byte) (ck.TxHash, error) {
	payload := make([]byte, len(serialized)*2)
	writeHex(payload, serialized)
	var data sendTxResponse
	if err := c.post(ctx, "/api/v2/sendtx/", "text/plain", payload, &data); err != nil {
		return "", err
	}
	if data.Error != nil {
		return "", errors.Providerf("broadcast rejected: %s", data.Error.Message)
	}
	if data.Result == "" {
		return "", errors.Responsef("broadcast response missing transaction id")
	}
	return ck.TxHash(data.Result), nil
}

const hexdigits = "0123456789abcdef"

func writeHex(dst, src []byte) {
	for i, b := range src {
		dst[i*2] = hexdigits[b>>4]
		dst[i*2+1] = hexdigits[b&0xf]
	}
}

func (c *Client) get(ctx context.Context, path string, resp interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(errors.Provider, err, "rate limiter")
	}
	url := c.url + "/" + strings.TrimPrefix(path, "/")
	logrus.WithField("url", url).Debug("GET")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(errors.Provider, err, "building request")
	}
	return c.do(req, resp)
}

func (c *Client) post(ctx context.Context, path string, contentType string, body []byte, resp interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(errors.Provider, err, "rate limiter")
	}
	url := c.url + "/" + strings.TrimPrefix(path, "/")
	logrus.WithField("url", url).Debug("POST")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(errors.Provider, err, "building request")
	}
	req.Header.Set("Content-Type", contentType)
	return c.do(req, resp)
}

func (c *Client) do(req *http.Request, resp interface{}) error {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(errors.Provider, err, "provider request failed")
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrap(errors.Provider, err, "reading provider response")
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return errors.Providerf("provider returned status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	if resp == nil {
		return nil
	}
	if err := json.Unmarshal(body, resp); err != nil {
		return errors.Responsef("malformed provider response: %v", err)
	}
	return nil
}
