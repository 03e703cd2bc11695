package cowswap

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/shiftwave/chainkit/errors"
)

// Client talks to the order relayer's quote API.
type Client struct {
	httpClient http.Client
	url        string
}

func NewClient(url string) *Client {
	return &Client{
		httpClient: http.Client{Timeout: 30 * time.Second},
		url:        strings.TrimSuffix(url, "/"),
	}
}

// QuoteRequest is the relayer's quote payload.  Amounts are integer
// base-unit strings.
type QuoteRequest struct {
	SellToken           string `json:"sellToken"`
	BuyToken            string `json:"buyToken"`
	Receiver            string `json:"receiver"`
	ValidTo             uint32 `json:"validTo"`
	AppData             string `json:"appData"`
	PartiallyFillable   bool   `json:"partiallyFillable"`
	From                string `json:"from"`
	Kind                string `json:"kind"`
	SellAmountBeforeFee string `json:"sellAmountBeforeFee"`
}

type QuoteResponse struct {
	Quote struct {
		SellAmount string `json:"sellAmount"`
		BuyAmount  string `json:"buyAmount"`
		FeeAmount  string `json:"feeAmount"`
	} `json:"quote"`
}

type errorResponse struct {
	ErrorType   string `json:"errorType"`
	Description string `json:"description"`
}

// GetQuote requests a sell-order quote.
func (c *Client) GetQuote(ctx context.Context, quoteRequest QuoteRequest) (*QuoteResponse, error) {
	payload, err := json.Marshal(quoteRequest)
	if err != nil {
		return nil, errors.Providerf("encoding quote request: %v", err)
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/api/v1/quote", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Providerf("building quote request: %v", err)
	}
	request.Header.Set("Content-Type", "application/json")

	logrus.WithFields(logrus.Fields{
		"sellToken": quoteRequest.SellToken,
		"buyToken":  quoteRequest.BuyToken,
		"amount":    quoteRequest.SellAmountBeforeFee,
	}).Debug("requesting relayer quote")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, errors.Providerf("relayer unreachable: %v", err)
	}
	defer response.Body.Close()
	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, errors.Providerf("reading relayer response: %v", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		var relayerErr errorResponse
		if json.Unmarshal(raw, &relayerErr) == nil && relayerErr.ErrorType != "" {
			return nil, errors.Providerf("relayer rejected quote: %s: %s", relayerErr.ErrorType, relayerErr.Description)
		}
		return nil, errors.Providerf("relayer returned status %d", response.StatusCode)
	}
	var data QuoteResponse
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, errors.Responsef("decoding relayer quote: %v", err)
	}
	if data.Quote.SellAmount == "" || data.Quote.BuyAmount == "" {
		return nil, errors.Responsef("relayer quote missing amounts")
	}
	return &data, nil
}
