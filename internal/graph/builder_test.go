package graph

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/calweir/triarb/internal/domain"
	"github.com/calweir/triarb/internal/pricing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSnapshot(quotes ...domain.Quote) *domain.QuoteSnapshot {
	snap := &domain.QuoteSnapshot{
		Quotes:  make(map[domain.SymbolID]map[domain.Venue]domain.Quote),
		Depths:  make(map[domain.SymbolID]map[domain.Venue]domain.OrderBook),
		TakenAt: time.Now(),
	}
	for _, q := range quotes {
		byVenue, ok := snap.Quotes[q.Symbol]
		if !ok {
			byVenue = make(map[domain.Venue]domain.Quote)
			snap.Quotes[q.Symbol] = byVenue
		}
		byVenue[q.Venue] = q
	}
	return snap
}

func newTestBuilder(universe domain.Universe) *Builder {
	pricer := pricing.NewPricer(
		pricing.NewStaticFeeTable(nil),
		decimal.Zero,
		decimal.RequireFromString("1000000"),
	)
	return NewBuilder(pricer, universe, decimal.New(1, 0), discardLogger())
}

func TestBuildBothDirections(t *testing.T) {
	universe := domain.Universe{
		Bases:  []domain.CurrencyCode{"BTC"},
		Quotes: []domain.CurrencyCode{"USD"},
	}
	snap := testSnapshot(domain.Quote{
		Symbol:   "BTC_USD",
		Venue:    domain.VenueKinesis,
		BidPrice: decimal.RequireFromString("99"),
		AskPrice: decimal.RequireFromString("100"),
	})

	g, err := newTestBuilder(universe).Build(snap)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(g.Edges) != 2 {
		t.Fatalf("got %d edges, want 2", len(g.Edges))
	}

	// USD -> BTC buys at the ask: rate 1/100.
	usdToBtc, ok := g.EdgeBetween("USD", "BTC")
	if !ok {
		t.Fatal("missing USD -> BTC edge")
	}
	if want := decimal.RequireFromString("0.01"); !usdToBtc.Rate.Equal(want) {
		t.Errorf("USD -> BTC rate = %s, want %s", usdToBtc.Rate, want)
	}

	// BTC -> USD sells at the bid: rate 99.
	btcToUsd, ok := g.EdgeBetween("BTC", "USD")
	if !ok {
		t.Fatal("missing BTC -> USD edge")
	}
	if want := decimal.RequireFromString("99"); !btcToUsd.Rate.Equal(want) {
		t.Errorf("BTC -> USD rate = %s, want %s", btcToUsd.Rate, want)
	}

	// Weight is the negated natural log of the rate.
	ln, err := btcToUsd.Rate.Ln(lnPrecision)
	if err != nil {
		t.Fatalf("Ln: %v", err)
	}
	if !btcToUsd.Weight.Equal(ln.Neg()) {
		t.Errorf("weight = %s, want %s", btcToUsd.Weight, ln.Neg())
	}
}

func TestBuildSkipsUnquotedPairs(t *testing.T) {
	universe := domain.Universe{
		Bases:  []domain.CurrencyCode{"BTC", "ETH"},
		Quotes: []domain.CurrencyCode{"USD"},
	}
	snap := testSnapshot(domain.Quote{
		Symbol:   "BTC_USD",
		Venue:    domain.VenueKinesis,
		BidPrice: decimal.RequireFromString("99"),
		AskPrice: decimal.RequireFromString("100"),
	})

	g, err := newTestBuilder(universe).Build(snap)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// ETH_USD has no quote in either orientation: skipped, not an error.
	if len(g.Edges) != 2 {
		t.Errorf("got %d edges, want 2", len(g.Edges))
	}
	// Vertices still cover the whole universe.
	want := []domain.CurrencyCode{"BTC", "ETH", "USD"}
	if len(g.Vertices) != len(want) {
		t.Fatalf("got vertices %v, want %v", g.Vertices, want)
	}
	for i, v := range want {
		if g.Vertices[i] != v {
			t.Errorf("vertex[%d] = %s, want %s", i, g.Vertices[i], v)
		}
	}
}

func TestBuildEmptySnapshot(t *testing.T) {
	universe := domain.Universe{
		Bases:  []domain.CurrencyCode{"BTC"},
		Quotes: []domain.CurrencyCode{"USD"},
	}

	g, err := newTestBuilder(universe).Build(testSnapshot())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(g.Edges) != 0 {
		t.Errorf("got %d edges from empty snapshot, want 0", len(g.Edges))
	}
	if len(g.Vertices) != 2 {
		t.Errorf("got %d vertices, want 2", len(g.Vertices))
	}
}
