package domain

import "context"

// QuoteStore is the single shared mutable resource in the pipeline. Writers
// overwrite per-key values (last-write-wins, no cross-venue ordering
// guarantee); readers take point-in-time snapshots. Implementations provide
// their own synchronization.
type QuoteStore interface {
	// PutQuote overwrites the stored quote for (symbol, venue).
	PutQuote(ctx context.Context, q Quote) error
	// GetQuote returns the latest quote for (symbol, venue), or ErrNotFound.
	// Absence is a valid, expected state for pairs a venue has not quoted.
	GetQuote(ctx context.Context, sym SymbolID, venue Venue) (Quote, error)
	// PutDepth overwrites the stored depth snapshot for (symbol, venue).
	PutDepth(ctx context.Context, book OrderBook) error
	// GetDepth returns the latest depth for (symbol, venue), or ErrNotFound.
	GetDepth(ctx context.Context, sym SymbolID, venue Venue) (OrderBook, error)
	// Snapshot returns a consistent point-in-time view of all stored quotes
	// and depth. The returned snapshot is owned by the caller.
	Snapshot(ctx context.Context) (*QuoteSnapshot, error)
}

// OpportunitySink consumes opportunities produced by a detection pass.
// Downstream handling (logging, persistence, alerting, execution) is the
// sink's concern.
type OpportunitySink interface {
	Emit(ctx context.Context, opp ArbitrageOpportunity) error
	Name() string
}

// OpportunityStore persists opportunity history.
type OpportunityStore interface {
	Insert(ctx context.Context, opp ArbitrageOpportunity) error
	ListRecent(ctx context.Context, limit int) ([]ArbitrageOpportunity, error)
}

// SignalBus publishes raw payloads for out-of-process consumers.
type SignalBus interface {
	// Publish sends a payload on an ephemeral pub/sub channel.
	Publish(ctx context.Context, channel string, payload []byte) error
	// StreamAppend appends a payload to a durable, bounded stream.
	StreamAppend(ctx context.Context, stream string, payload []byte) error
}

// FeeTable maps a symbol to the currency its trading fee is denominated in.
type FeeTable interface {
	FeeCurrency(sym SymbolID) CurrencyCode
}
