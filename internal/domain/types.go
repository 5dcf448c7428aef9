// Package domain defines the core types, sentinel errors, and interfaces
// shared by the triarb detection pipeline: quotes, order books, the currency
// graph, discovered cycles, and the stores/sinks they flow through.
package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyCode is a supported asset or fiat symbol, e.g. "BTC" or "AUD".
type CurrencyCode string

// SymbolID identifies a tradable pair as "{base}_{quote}". Direction matters:
// prices on a BTC_AUD book are quoted in AUD per BTC.
type SymbolID string

// NewSymbolID builds a SymbolID from base and quote currencies.
func NewSymbolID(base, quote CurrencyCode) SymbolID {
	return SymbolID(string(base) + "_" + string(quote))
}

// Split returns the base and quote currencies of a symbol. ok is false when
// the symbol is not of the form "{base}_{quote}".
func (s SymbolID) Split() (base, quote CurrencyCode, ok bool) {
	parts := strings.SplitN(string(s), "_", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return CurrencyCode(parts[0]), CurrencyCode(parts[1]), true
}

// Base returns the base currency of the symbol, or "" when malformed.
func (s SymbolID) Base() CurrencyCode {
	base, _, _ := s.Split()
	return base
}

// Venue identifies an external exchange supplying quotes.
type Venue string

// Known venues. The merger treats venues as interchangeable data sources.
const (
	VenueKinesis Venue = "kinesis"
	VenueSwyftx  Venue = "swyftx"
)

// Side is the direction of an execution against an order book.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Quote is the best bid/ask view of one symbol on one venue. It is the
// simplified one-level picture used when full depth is unavailable.
type Quote struct {
	Symbol    SymbolID        `json:"symbol"`
	Venue     Venue           `json:"venue"`
	BidPrice  decimal.Decimal `json:"bid_price"`
	AskPrice  decimal.Decimal `json:"ask_price"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// OrderBookLevel is a single price+amount entry in an order book ladder.
// Amount is denominated in the symbol's base currency.
type OrderBookLevel struct {
	Price  decimal.Decimal `json:"price"`
	Amount decimal.Decimal `json:"amount"`
}

// OrderBook is a depth snapshot for a symbol on a venue. Bids are ordered by
// descending price, asks by ascending price.
type OrderBook struct {
	Symbol    SymbolID         `json:"symbol"`
	Venue     Venue            `json:"venue"`
	Bids      []OrderBookLevel `json:"bids"`
	Asks      []OrderBookLevel `json:"asks"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Pair is an ordered base/quote currency pair the graph builder must attempt.
type Pair struct {
	Base  CurrencyCode
	Quote CurrencyCode
}

// Symbol returns the pair's SymbolID.
func (p Pair) Symbol() SymbolID {
	return NewSymbolID(p.Base, p.Quote)
}

// QuoteSnapshot is a point-in-time, read-only view of the quote store. A
// detection pass takes one snapshot at pass start and owns it exclusively;
// it is never mutated after construction.
type QuoteSnapshot struct {
	Quotes  map[SymbolID]map[Venue]Quote
	Depths  map[SymbolID]map[Venue]OrderBook
	TakenAt time.Time
}

// VenueQuotes returns the per-venue quotes for a symbol, or nil when no venue
// has quoted it.
func (s *QuoteSnapshot) VenueQuotes(sym SymbolID) map[Venue]Quote {
	if s == nil {
		return nil
	}
	return s.Quotes[sym]
}

// Depth returns the depth snapshot for a symbol on a venue, if one exists.
func (s *QuoteSnapshot) Depth(sym SymbolID, venue Venue) (OrderBook, bool) {
	if s == nil {
		return OrderBook{}, false
	}
	book, ok := s.Depths[sym][venue]
	return book, ok
}

// Universe is the configured set of base and quote currencies. It defines the
// graph vertices and, unless explicit pairs are given, the cross product of
// pairs the graph builder attempts.
type Universe struct {
	Bases         []CurrencyCode
	Quotes        []CurrencyCode
	ExplicitPairs []Pair
}

// Pairs returns the pairs the graph builder must attempt: the explicit list
// when configured, otherwise every base/quote combination with distinct
// currencies.
func (u Universe) Pairs() []Pair {
	if len(u.ExplicitPairs) > 0 {
		return u.ExplicitPairs
	}
	pairs := make([]Pair, 0, len(u.Bases)*len(u.Quotes))
	for _, q := range u.Quotes {
		for _, b := range u.Bases {
			if b == q {
				continue
			}
			pairs = append(pairs, Pair{Base: b, Quote: q})
		}
	}
	return pairs
}

// Vertices returns the sorted union of all configured currencies, independent
// of which pairs have quotes. Sorting keeps graph construction and detection
// order stable across passes.
func (u Universe) Vertices() []CurrencyCode {
	seen := make(map[CurrencyCode]struct{})
	for _, c := range u.Bases {
		seen[c] = struct{}{}
	}
	for _, c := range u.Quotes {
		seen[c] = struct{}{}
	}
	for _, p := range u.ExplicitPairs {
		seen[p.Base] = struct{}{}
		seen[p.Quote] = struct{}{}
	}
	out := make([]CurrencyCode, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
