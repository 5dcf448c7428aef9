package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/calweir/triarb/internal/domain"
)

func testQuote(sym domain.SymbolID, venue domain.Venue, bid, ask string) domain.Quote {
	return domain.Quote{
		Symbol:   sym,
		Venue:    venue,
		BidPrice: decimal.RequireFromString(bid),
		AskPrice: decimal.RequireFromString(ask),
	}
}

func TestQuoteStorePutGet(t *testing.T) {
	ctx := context.Background()
	s := NewQuoteStore()

	if _, err := s.GetQuote(ctx, "BTC_USD", domain.VenueKinesis); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("empty store error = %v, want ErrNotFound", err)
	}

	q := testQuote("BTC_USD", domain.VenueKinesis, "99", "100")
	if err := s.PutQuote(ctx, q); err != nil {
		t.Fatalf("PutQuote: %v", err)
	}
	got, err := s.GetQuote(ctx, "BTC_USD", domain.VenueKinesis)
	if err != nil {
		t.Fatalf("GetQuote: %v", err)
	}
	if !got.AskPrice.Equal(q.AskPrice) || !got.BidPrice.Equal(q.BidPrice) {
		t.Errorf("got %+v, want %+v", got, q)
	}

	// Same symbol on another venue is a separate slot.
	if _, err := s.GetQuote(ctx, "BTC_USD", domain.VenueSwyftx); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("other venue error = %v, want ErrNotFound", err)
	}
}

func TestQuoteStoreLastWriteWins(t *testing.T) {
	ctx := context.Background()
	s := NewQuoteStore()

	if err := s.PutQuote(ctx, testQuote("BTC_USD", domain.VenueKinesis, "99", "100")); err != nil {
		t.Fatalf("PutQuote: %v", err)
	}
	if err := s.PutQuote(ctx, testQuote("BTC_USD", domain.VenueKinesis, "101", "102")); err != nil {
		t.Fatalf("PutQuote: %v", err)
	}

	got, err := s.GetQuote(ctx, "BTC_USD", domain.VenueKinesis)
	if err != nil {
		t.Fatalf("GetQuote: %v", err)
	}
	if want := decimal.RequireFromString("102"); !got.AskPrice.Equal(want) {
		t.Errorf("ask = %s, want %s", got.AskPrice, want)
	}
}

func TestQuoteStoreDepth(t *testing.T) {
	ctx := context.Background()
	s := NewQuoteStore()

	if _, err := s.GetDepth(ctx, "BTC_USD", domain.VenueKinesis); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("empty store error = %v, want ErrNotFound", err)
	}

	book := domain.OrderBook{
		Symbol: "BTC_USD",
		Venue:  domain.VenueKinesis,
		Asks: []domain.OrderBookLevel{
			{Price: decimal.RequireFromString("100"), Amount: decimal.RequireFromString("1")},
		},
	}
	if err := s.PutDepth(ctx, book); err != nil {
		t.Fatalf("PutDepth: %v", err)
	}
	got, err := s.GetDepth(ctx, "BTC_USD", domain.VenueKinesis)
	if err != nil {
		t.Fatalf("GetDepth: %v", err)
	}
	if len(got.Asks) != 1 || !got.Asks[0].Price.Equal(book.Asks[0].Price) {
		t.Errorf("got %+v, want %+v", got, book)
	}
}

func TestQuoteStoreSnapshotIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewQuoteStore()

	if err := s.PutQuote(ctx, testQuote("BTC_USD", domain.VenueKinesis, "99", "100")); err != nil {
		t.Fatalf("PutQuote: %v", err)
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.TakenAt.IsZero() {
		t.Error("snapshot has no timestamp")
	}

	// Writes after the snapshot must not leak into it.
	if err := s.PutQuote(ctx, testQuote("BTC_USD", domain.VenueKinesis, "101", "102")); err != nil {
		t.Fatalf("PutQuote: %v", err)
	}
	if err := s.PutQuote(ctx, testQuote("ETH_USD", domain.VenueKinesis, "9", "10")); err != nil {
		t.Fatalf("PutQuote: %v", err)
	}

	if want := decimal.RequireFromString("100"); !snap.Quotes["BTC_USD"][domain.VenueKinesis].AskPrice.Equal(want) {
		t.Errorf("snapshot ask = %s, want %s", snap.Quotes["BTC_USD"][domain.VenueKinesis].AskPrice, want)
	}
	if _, ok := snap.Quotes["ETH_USD"]; ok {
		t.Error("snapshot contains a symbol written after it was taken")
	}
}

func TestQuoteStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := NewQuoteStore()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			sym := domain.SymbolID(fmt.Sprintf("C%d_USD", w))
			for i := 0; i < 100; i++ {
				_ = s.PutQuote(ctx, testQuote(sym, domain.VenueKinesis, "1", "2"))
				if _, err := s.Snapshot(ctx); err != nil {
					t.Errorf("Snapshot: %v", err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	snap, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.Quotes) != 8 {
		t.Errorf("got %d symbols, want 8", len(snap.Quotes))
	}
}
