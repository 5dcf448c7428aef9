// Package memory implements domain.QuoteStore with in-process maps. It is
// the store used when ingestion and detection run in the same process.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/calweir/triarb/internal/domain"
)

// QuoteStore is a thread-safe, last-write-wins store of the latest quote and
// depth per (symbol, venue). Concurrent readers and writers need no external
// synchronization.
type QuoteStore struct {
	mu     sync.RWMutex
	quotes map[domain.SymbolID]map[domain.Venue]domain.Quote
	depths map[domain.SymbolID]map[domain.Venue]domain.OrderBook
}

// NewQuoteStore creates an empty QuoteStore.
func NewQuoteStore() *QuoteStore {
	return &QuoteStore{
		quotes: make(map[domain.SymbolID]map[domain.Venue]domain.Quote),
		depths: make(map[domain.SymbolID]map[domain.Venue]domain.OrderBook),
	}
}

// PutQuote overwrites the quote for (symbol, venue).
func (s *QuoteStore) PutQuote(_ context.Context, q domain.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byVenue, ok := s.quotes[q.Symbol]
	if !ok {
		byVenue = make(map[domain.Venue]domain.Quote)
		s.quotes[q.Symbol] = byVenue
	}
	byVenue[q.Venue] = q
	return nil
}

// GetQuote returns the latest quote for (symbol, venue), or ErrNotFound.
func (s *QuoteStore) GetQuote(_ context.Context, sym domain.SymbolID, venue domain.Venue) (domain.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quotes[sym][venue]
	if !ok {
		return domain.Quote{}, domain.ErrNotFound
	}
	return q, nil
}

// PutDepth overwrites the depth snapshot for (symbol, venue).
func (s *QuoteStore) PutDepth(_ context.Context, book domain.OrderBook) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byVenue, ok := s.depths[book.Symbol]
	if !ok {
		byVenue = make(map[domain.Venue]domain.OrderBook)
		s.depths[book.Symbol] = byVenue
	}
	byVenue[book.Venue] = book
	return nil
}

// GetDepth returns the latest depth for (symbol, venue), or ErrNotFound.
func (s *QuoteStore) GetDepth(_ context.Context, sym domain.SymbolID, venue domain.Venue) (domain.OrderBook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	book, ok := s.depths[sym][venue]
	if !ok {
		return domain.OrderBook{}, domain.ErrNotFound
	}
	return book, nil
}

// Snapshot copies the current contents into a point-in-time view owned by
// the caller. Writers that race with Snapshot land in the next pass.
func (s *QuoteStore) Snapshot(_ context.Context) (*domain.QuoteSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &domain.QuoteSnapshot{
		Quotes:  make(map[domain.SymbolID]map[domain.Venue]domain.Quote, len(s.quotes)),
		Depths:  make(map[domain.SymbolID]map[domain.Venue]domain.OrderBook, len(s.depths)),
		TakenAt: time.Now().UTC(),
	}
	for sym, byVenue := range s.quotes {
		copied := make(map[domain.Venue]domain.Quote, len(byVenue))
		for v, q := range byVenue {
			copied[v] = q
		}
		snap.Quotes[sym] = copied
	}
	for sym, byVenue := range s.depths {
		copied := make(map[domain.Venue]domain.OrderBook, len(byVenue))
		for v, b := range byVenue {
			copied[v] = b
		}
		snap.Depths[sym] = copied
	}
	return snap, nil
}

// Compile-time interface check.
var _ domain.QuoteStore = (*QuoteStore)(nil)
