// Package swyftx is a read-only client for the public Swyftx charts API. The
// API has no streaming quotes, so the feed layer polls GetLatestQuote.
package swyftx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/calweir/triarb/internal/domain"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://api.swyftx.com.au"

// Client is the REST client for the Swyftx charts API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Swyftx client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// latestBar is the response of charts/getLatestBar. Prices arrive as strings.
type latestBar struct {
	Time   int64           `json:"time"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume float64         `json:"volume"`
}

// BarSide selects which side of the book a chart bar reflects.
type BarSide string

const (
	BarSideBid BarSide = "bid"
	BarSideAsk BarSide = "ask"
)

// GetLatestRate returns the close price of the latest one-minute bar for the
// pair on the given book side.
func (c *Client) GetLatestRate(ctx context.Context, base, quote domain.CurrencyCode, side BarSide) (decimal.Decimal, error) {
	path := fmt.Sprintf("/charts/getLatestBar/%s/%s/%s",
		url.PathEscape(string(base)),
		url.PathEscape(string(quote)),
		url.PathEscape(string(side)),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?resolution=1m", nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("swyftx: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("swyftx: latest bar %s/%s: %w", base, quote, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, fmt.Errorf("swyftx: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decimal.Zero, fmt.Errorf("swyftx: latest bar %s/%s: HTTP %d: %s",
			base, quote, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var bar latestBar
	if err := json.Unmarshal(body, &bar); err != nil {
		return decimal.Zero, fmt.Errorf("swyftx: decode latest bar %s/%s: %w", base, quote, err)
	}
	return bar.Close, nil
}

// GetLatestQuote fetches both sides of the latest bar and assembles a domain
// quote for the pair.
func (c *Client) GetLatestQuote(ctx context.Context, base, quote domain.CurrencyCode) (domain.Quote, error) {
	bid, err := c.GetLatestRate(ctx, base, quote, BarSideBid)
	if err != nil {
		return domain.Quote{}, err
	}
	ask, err := c.GetLatestRate(ctx, base, quote, BarSideAsk)
	if err != nil {
		return domain.Quote{}, err
	}
	return domain.Quote{
		Symbol:    domain.NewSymbolID(base, quote),
		Venue:     domain.VenueSwyftx,
		BidPrice:  bid,
		AskPrice:  ask,
		UpdatedAt: time.Now().UTC(),
	}, nil
}
