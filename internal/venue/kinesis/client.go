// Package kinesis is the client for the Kinesis exchange: a REST client for
// pair discovery and order-book depth, and a WebSocket client for the
// top-of-book ticker feed.
package kinesis

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the production REST API root.
const DefaultBaseURL = "https://client-api.kinesis.money"

// Client is the REST client for the Kinesis exchange API.
type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
}

// NewClient creates a Kinesis REST client. An empty baseURL selects
// DefaultBaseURL.
func NewClient(baseURL, apiKey, apiSecret string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		apiSecret: apiSecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetExchangePairs returns every tradable pair on the exchange.
func (c *Client) GetExchangePairs(ctx context.Context) ([]ExchangePair, error) {
	body, err := c.doSignedRequest(ctx, http.MethodGet, "/v1/exchange/pairs", nil)
	if err != nil {
		return nil, fmt.Errorf("kinesis: get pairs: %w", err)
	}

	var pairs []ExchangePair
	if err := json.Unmarshal(body, &pairs); err != nil {
		return nil, fmt.Errorf("kinesis: decode pairs: %w", err)
	}
	return pairs, nil
}

// GetDepth returns the current order book for the given pair id.
func (c *Client) GetDepth(ctx context.Context, symbolID string) (DepthResponse, error) {
	path := "/v1/exchange/depth/" + url.PathEscape(symbolID)

	body, err := c.doSignedRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return DepthResponse{}, fmt.Errorf("kinesis: get depth %s: %w", symbolID, err)
	}

	var depth DepthResponse
	if err := json.Unmarshal(body, &depth); err != nil {
		return DepthResponse{}, fmt.Errorf("kinesis: decode depth %s: %w", symbolID, err)
	}
	if depth.CurrencyPairID == "" {
		depth.CurrencyPairID = symbolID
	}
	return depth, nil
}

// doSignedRequest builds, signs, sends, and reads an HTTP request against the
// Kinesis API.
func (c *Client) doSignedRequest(ctx context.Context, method, path string, reqBody any) ([]byte, error) {
	var jsonBody []byte
	if reqBody != nil {
		var err error
		jsonBody, err = json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	var bodyReader io.Reader
	if jsonBody != nil {
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	c.signRequest(req, method, path, jsonBody)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return respBody, nil
}

// signRequest adds the exchange's HMAC headers. The signed message is
// nonce + method + path + body and the signature is uppercase hex of its
// HMAC-SHA256 digest under the API secret.
func (c *Client) signRequest(req *http.Request, method, path string, body []byte) {
	nonce := strconv.FormatInt(time.Now().UnixMilli(), 10)

	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(nonce))
	mac.Write([]byte(method))
	mac.Write([]byte(path))
	mac.Write(body)
	signature := strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))

	req.Header.Set("X-Nonce", nonce)
	req.Header.Set("X-API-key", c.apiKey)
	req.Header.Set("X-Signature", signature)
}
