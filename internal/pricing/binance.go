package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	DefaultFeedURL       = "https://api.binance.com"
	DefaultQuoteCurrency = "USDT"
)

type tickerPrice struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
}

// BinanceFeed reads spot prices from the Binance ticker endpoint.
type BinanceFeed struct {
	client  *http.Client
	baseURL string
	quote   string
}

func NewBinanceFeed(client *http.Client, baseURL, quote string) *BinanceFeed {
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}
	if baseURL == "" {
		baseURL = DefaultFeedURL
	}
	if quote == "" {
		quote = DefaultQuoteCurrency
	}

	return &BinanceFeed{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		quote:   strings.ToUpper(quote),
	}
}

func (f *BinanceFeed) FetchPrice(ctx context.Context, ticker string) (decimal.Decimal, error) {
	symbol := strings.ToUpper(ticker) + f.quote
	endpoint := f.baseURL + "/api/v3/ticker/price?symbol=" + url.QueryEscape(symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, err
	}

	res, err := f.client.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("upstream returned %d for %s", res.StatusCode, symbol)
	}

	var body tickerPrice
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("decode %s price: %w", symbol, err)
	}

	if !body.Price.IsPositive() {
		return decimal.Zero, fmt.Errorf("upstream returned non-positive price for %s", symbol)
	}

	return body.Price, nil
}
