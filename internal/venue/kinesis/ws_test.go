package kinesis

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/calweir/triarb/internal/domain"
)

func TestHandleMessageTickerInit(t *testing.T) {
	c := NewWSClient("")
	var got []Ticker
	c.OnTicker(func(tk Ticker) { got = append(got, tk) })

	c.handleMessage([]byte(`{
		"event": "tickerInit",
		"data": {
			"BTC_USD": {"bidPrice": "99", "askPrice": "100"},
			"ETH_USD": {"symbolId": "ETH_USD", "bidPrice": "9", "askPrice": "10"}
		}
	}`))

	if len(got) != 2 {
		t.Fatalf("got %d tickers, want 2", len(got))
	}
	// Snapshot entries without an embedded symbolId take it from the map key.
	for _, tk := range got {
		if tk.SymbolID == "" {
			t.Errorf("ticker without symbol id: %+v", tk)
		}
	}
}

func TestHandleMessageTickerChange(t *testing.T) {
	c := NewWSClient("")
	var got []Ticker
	c.OnTicker(func(tk Ticker) { got = append(got, tk) })

	c.handleMessage([]byte(`{
		"event": "tickerChange",
		"data": {"symbolId": "BTC_USD", "bidPrice": "99.5", "askPrice": "100.5"}
	}`))

	if len(got) != 1 {
		t.Fatalf("got %d tickers, want 1", len(got))
	}
	if got[0].SymbolID != "BTC_USD" || !got[0].BidPrice.Equal(decimal.RequireFromString("99.5")) {
		t.Errorf("ticker = %+v", got[0])
	}
}

func TestHandleMessageDropsUnknownAndMalformed(t *testing.T) {
	c := NewWSClient("")
	calls := 0
	c.OnTicker(func(Ticker) { calls++ })

	c.handleMessage([]byte(`{"event": "heartbeat"}`))
	c.handleMessage([]byte(`not json`))
	c.handleMessage([]byte(`{"event": "tickerChange", "data": "not an object"}`))

	if calls != 0 {
		t.Errorf("handler called %d times, want 0", calls)
	}
}

func TestTickerToQuote(t *testing.T) {
	tk := Ticker{
		SymbolID: "KAU_USD",
		BidPrice: decimal.RequireFromString("85.1"),
		AskPrice: decimal.RequireFromString("85.4"),
	}
	q := tk.ToQuote()
	if q.Symbol != "KAU_USD" || q.Venue != domain.VenueKinesis {
		t.Errorf("quote identity = %s/%s", q.Symbol, q.Venue)
	}
	if !q.AskPrice.Equal(tk.AskPrice) || !q.BidPrice.Equal(tk.BidPrice) {
		t.Errorf("quote = %+v", q)
	}
	if q.UpdatedAt.IsZero() {
		t.Error("quote has no timestamp")
	}
}
