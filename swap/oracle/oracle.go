// Package oracle implements the USD price oracle against a market-data
// HTTP service.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	ck "github.com/shiftwave/chainkit"
	"github.com/shiftwave/chainkit/errors"
	"github.com/shiftwave/chainkit/swap"
)

type Client struct {
	httpClient http.Client
	url        string
}

var _ swap.UsdRateOracle = &Client{}

func NewClient(url string) *Client {
	return &Client{
		httpClient: http.Client{Timeout: 15 * time.Second},
		url:        strings.TrimSuffix(url, "/"),
	}
}

type priceResponse struct {
	Usd string `json:"usd"`
}

// UsdRate fetches the asset's USD price, keyed by its asset id.
func (c *Client) UsdRate(ctx context.Context, asset ck.Asset) (ck.AmountHumanReadable, error) {
	url := fmt.Sprintf("%s/api/v1/price/%s", c.url, neturl.PathEscape(asset.AssetId.String()))
	logrus.WithField("url", url).Debug("oracle price request")
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ck.AmountHumanReadable{}, errors.Providerf("building price request: %v", err)
	}
	response, err := c.httpClient.Do(request)
	if err != nil {
		return ck.AmountHumanReadable{}, errors.Providerf("price oracle unreachable: %v", err)
	}
	defer response.Body.Close()
	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return ck.AmountHumanReadable{}, errors.Providerf("reading price response: %v", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return ck.AmountHumanReadable{}, errors.Providerf("price oracle returned status %d", response.StatusCode)
	}
	var data priceResponse
	if err := json.Unmarshal(raw, &data); err != nil {
		return ck.AmountHumanReadable{}, errors.Responsef("decoding price response: %v", err)
	}
	rate, err := ck.NewAmountHumanReadableFromStr(data.Usd)
	if err != nil {
		return ck.AmountHumanReadable{}, errors.Responsef("oracle returned non-decimal price %q", data.Usd)
	}
	return rate, nil
}
