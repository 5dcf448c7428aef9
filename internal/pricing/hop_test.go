package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/calweir/triarb/internal/domain"
)

func newTestPricer(t *testing.T, feeRate string) *Pricer {
	t.Helper()
	return NewPricer(
		NewStaticFeeTable(nil),
		d(t, feeRate),
		d(t, "1000000"),
	)
}

func TestHopBuyFeeOnReceiveLeg(t *testing.T) {
	// Buying BTC with USD on the BTC_USD book. The fee currency defaults to
	// the base (BTC), which is the received currency, so the fee comes off
	// the receive leg.
	snap := snapWithQuotes(domain.Quote{
		Symbol:   "BTC_USD",
		Venue:    domain.VenueKinesis,
		BidPrice: d(t, "99"),
		AskPrice: d(t, "100"),
	})
	p := newTestPricer(t, "0.01")

	hop, err := p.Hop(snap, "USD", "BTC", d(t, "100"))
	if err != nil {
		t.Fatalf("Hop: %v", err)
	}
	if hop.Side != domain.SideBuy {
		t.Errorf("side = %s, want buy", hop.Side)
	}
	if hop.FeeCurrency != "BTC" {
		t.Errorf("fee currency = %s, want BTC", hop.FeeCurrency)
	}
	// 100 USD at ask 100 buys 1 BTC, minus the 1% fee.
	if want := d(t, "0.99"); !hop.Receive.Equal(want) {
		t.Errorf("receive = %s, want %s", hop.Receive, want)
	}
	if want := d(t, "0.01"); !hop.Fee.Equal(want) {
		t.Errorf("fee = %s, want %s", hop.Fee, want)
	}
	if want := d(t, "0.0099"); !hop.Rate.Equal(want) {
		t.Errorf("rate = %s, want %s", hop.Rate, want)
	}
}

func TestHopSellFeeOnPayLeg(t *testing.T) {
	// Selling BTC for USD on the same book. The fee currency (BTC) is now
	// the currency being spent, so the fee comes off the pay leg before
	// execution.
	snap := snapWithQuotes(domain.Quote{
		Symbol:   "BTC_USD",
		Venue:    domain.VenueKinesis,
		BidPrice: d(t, "100"),
		AskPrice: d(t, "101"),
	})
	p := newTestPricer(t, "0.01")

	hop, err := p.Hop(snap, "BTC", "USD", d(t, "1"))
	if err != nil {
		t.Fatalf("Hop: %v", err)
	}
	if hop.Side != domain.SideSell {
		t.Errorf("side = %s, want sell", hop.Side)
	}
	if want := d(t, "0.01"); !hop.Fee.Equal(want) {
		t.Errorf("fee = %s, want %s", hop.Fee, want)
	}
	// 0.99 BTC hits the 100 bid.
	if want := d(t, "99"); !hop.Receive.Equal(want) {
		t.Errorf("receive = %s, want %s", hop.Receive, want)
	}
	if want := d(t, "99"); !hop.Rate.Equal(want) {
		t.Errorf("rate = %s, want %s", hop.Rate, want)
	}
}

func TestHopUsesDepthLadder(t *testing.T) {
	snap := snapWithQuotes(domain.Quote{
		Symbol:   "BTC_USD",
		Venue:    domain.VenueKinesis,
		BidPrice: d(t, "99"),
		AskPrice: d(t, "100"),
	})
	snap.Depths["BTC_USD"] = map[domain.Venue]domain.OrderBook{
		domain.VenueKinesis: {
			Symbol: "BTC_USD",
			Venue:  domain.VenueKinesis,
			Asks: []domain.OrderBookLevel{
				{Price: d(t, "100"), Amount: d(t, "1")},
				{Price: d(t, "105"), Amount: d(t, "2")},
			},
		},
	}
	p := newTestPricer(t, "0")

	// 200 USD requests 2 BTC at the top of book; the walk fills 1 at 100
	// and 1 at 105, average 102.5, so the pay converts at that price.
	hop, err := p.Hop(snap, "USD", "BTC", d(t, "200"))
	if err != nil {
		t.Fatalf("Hop: %v", err)
	}
	if want := d(t, "102.5"); !hop.Price.Equal(want) {
		t.Errorf("price = %s, want %s", hop.Price, want)
	}
	want := d(t, "200").Div(d(t, "102.5"))
	if !hop.Receive.Equal(want) {
		t.Errorf("receive = %s, want %s", hop.Receive, want)
	}
	if !hop.Filled {
		t.Error("expected filled hop")
	}
}

func TestHopUnfilledAtDepth(t *testing.T) {
	snap := snapWithQuotes(domain.Quote{
		Symbol:   "BTC_USD",
		Venue:    domain.VenueKinesis,
		BidPrice: d(t, "100"),
		AskPrice: d(t, "101"),
	})
	snap.Depths["BTC_USD"] = map[domain.Venue]domain.OrderBook{
		domain.VenueKinesis: {
			Symbol: "BTC_USD",
			Venue:  domain.VenueKinesis,
			Bids: []domain.OrderBookLevel{
				{Price: d(t, "100"), Amount: d(t, "0.5")},
			},
		},
	}
	p := newTestPricer(t, "0")

	hop, err := p.Hop(snap, "BTC", "USD", d(t, "2"))
	if err != nil {
		t.Fatalf("Hop: %v", err)
	}
	if hop.Filled {
		t.Error("expected unfilled hop at exhausted depth")
	}
	// Only the available 0.5 executes.
	if want := d(t, "50"); !hop.Receive.Equal(want) {
		t.Errorf("receive = %s, want %s", hop.Receive, want)
	}
}

func TestHopInvalidAmount(t *testing.T) {
	p := newTestPricer(t, "0")
	_, err := p.Hop(snapWithQuotes(), "USD", "BTC", decimal.Zero)
	if !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("error = %v, want ErrInvalidAmount", err)
	}
}

func TestFeeCurrencyDefaultsToBase(t *testing.T) {
	table := NewStaticFeeTable(map[domain.SymbolID]domain.CurrencyCode{
		"ETH_BTC": "BTC",
	})
	if got := table.FeeCurrency("ETH_BTC"); got != "BTC" {
		t.Errorf("configured pair fee currency = %s, want BTC", got)
	}
	if got := table.FeeCurrency("BTC_USD"); got != "BTC" {
		t.Errorf("default fee currency = %s, want base BTC", got)
	}
}
