package kinesis

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/calweir/triarb/internal/domain"
)

func TestGetDepthSignsRequest(t *testing.T) {
	const secret = "test-secret"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/exchange/depth/BTC_USD" {
			t.Errorf("path = %q", r.URL.Path)
		}
		nonce := r.Header.Get("X-Nonce")
		if nonce == "" {
			t.Error("missing X-Nonce header")
		}
		if got := r.Header.Get("X-API-key"); got != "test-key" {
			t.Errorf("X-API-key = %q", got)
		}

		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write([]byte(nonce + r.Method + r.URL.Path))
		want := strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
		if got := r.Header.Get("X-Signature"); got != want {
			t.Errorf("X-Signature = %q, want %q", got, want)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"currencyPairId": "BTC_USD",
			"depthItems": {
				"bid": [{"price": "99", "amount": "1"}],
				"ask": [{"price": "100", "amount": "2"}]
			}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", secret)
	depth, err := c.GetDepth(context.Background(), "BTC_USD")
	if err != nil {
		t.Fatalf("GetDepth: %v", err)
	}
	if len(depth.DepthItems.Bid) != 1 || len(depth.DepthItems.Ask) != 1 {
		t.Fatalf("unexpected depth: %+v", depth)
	}
	if !depth.DepthItems.Ask[0].Price.Equal(decimal.RequireFromString("100")) {
		t.Errorf("ask price = %s", depth.DepthItems.Ask[0].Price)
	}
}

func TestGetDepthBackfillsPairID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"depthItems": {"bid": [], "ask": []}}`))
	}))
	defer srv.Close()

	depth, err := NewClient(srv.URL, "k", "s").GetDepth(context.Background(), "ETH_AUD")
	if err != nil {
		t.Fatalf("GetDepth: %v", err)
	}
	if depth.CurrencyPairID != "ETH_AUD" {
		t.Errorf("currencyPairId = %q, want ETH_AUD", depth.CurrencyPairID)
	}
}

func TestGetExchangePairs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/exchange/pairs" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`[
			{"currencyPairId": "BTC_USD", "baseCurrency": "BTC", "quoteCurrency": "USD"},
			{"currencyPairId": "KAU_USD", "baseCurrency": "KAU", "quoteCurrency": "USD"}
		]`))
	}))
	defer srv.Close()

	pairs, err := NewClient(srv.URL, "k", "s").GetExchangePairs(context.Background())
	if err != nil {
		t.Fatalf("GetExchangePairs: %v", err)
	}
	if len(pairs) != 2 || pairs[1].CurrencyPairID != "KAU_USD" {
		t.Errorf("pairs = %+v", pairs)
	}
}

func TestGetDepthHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "k", "s").GetDepth(context.Background(), "BTC_USD")
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("error = %v, want HTTP 401", err)
	}
}

func TestDepthResponseToOrderBook(t *testing.T) {
	depth := DepthResponse{CurrencyPairID: "BTC_USD"}
	depth.DepthItems.Bid = []DepthLevel{{Price: decimal.RequireFromString("99"), Amount: decimal.RequireFromString("1")}}
	depth.DepthItems.Ask = []DepthLevel{{Price: decimal.RequireFromString("100"), Amount: decimal.RequireFromString("2")}}

	book := depth.ToOrderBook()
	if book.Symbol != "BTC_USD" || book.Venue != domain.VenueKinesis {
		t.Errorf("book identity = %s/%s", book.Symbol, book.Venue)
	}
	if len(book.Bids) != 1 || !book.Bids[0].Price.Equal(decimal.RequireFromString("99")) {
		t.Errorf("bids = %+v", book.Bids)
	}
	if book.UpdatedAt.IsZero() {
		t.Error("book has no timestamp")
	}
}
