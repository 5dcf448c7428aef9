package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/calweir/triarb/internal/domain"
)

// QuoteStore implements domain.QuoteStore on Redis. Quotes are stored as
// hashes at "quote:{symbol}:{venue}" with fields "bid", "ask" and "ts" (Unix
// nanoseconds); depth snapshots are JSON blobs at "depth:{symbol}:{venue}".
// Two index sets track which (symbol, venue) keys exist so Snapshot can
// enumerate them without SCAN.
type QuoteStore struct {
	rdb *redis.Client
}

// NewQuoteStore creates a QuoteStore backed by the given Client.
func NewQuoteStore(c *Client) *QuoteStore {
	return &QuoteStore{rdb: c.Underlying()}
}

const (
	quoteIndexKey = "quotes:index"
	depthIndexKey = "depths:index"
)

func quoteKey(sym domain.SymbolID, venue domain.Venue) string {
	return "quote:" + string(sym) + ":" + string(venue)
}

func depthKey(sym domain.SymbolID, venue domain.Venue) string {
	return "depth:" + string(sym) + ":" + string(venue)
}

func indexMember(sym domain.SymbolID, venue domain.Venue) string {
	return string(sym) + "|" + string(venue)
}

func splitIndexMember(member string) (domain.SymbolID, domain.Venue, bool) {
	sym, venue, ok := strings.Cut(member, "|")
	if !ok || sym == "" || venue == "" {
		return "", "", false
	}
	return domain.SymbolID(sym), domain.Venue(venue), true
}

// PutQuote overwrites the quote for (symbol, venue) and records the key in
// the quote index.
func (s *QuoteStore) PutQuote(ctx context.Context, q domain.Quote) error {
	fields := map[string]interface{}{
		"bid": q.BidPrice.String(),
		"ask": q.AskPrice.String(),
		"ts":  strconv.FormatInt(q.UpdatedAt.UnixNano(), 10),
	}
	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, quoteKey(q.Symbol, q.Venue), fields)
	pipe.SAdd(ctx, quoteIndexKey, indexMember(q.Symbol, q.Venue))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: put quote %s %s: %w", q.Symbol, q.Venue, err)
	}
	return nil
}

// GetQuote returns the latest quote for (symbol, venue), or ErrNotFound.
func (s *QuoteStore) GetQuote(ctx context.Context, sym domain.SymbolID, venue domain.Venue) (domain.Quote, error) {
	vals, err := s.rdb.HGetAll(ctx, quoteKey(sym, venue)).Result()
	if err != nil {
		return domain.Quote{}, fmt.Errorf("redis: get quote %s %s: %w", sym, venue, err)
	}
	if len(vals) == 0 {
		return domain.Quote{}, domain.ErrNotFound
	}
	return parseQuote(sym, venue, vals)
}

func parseQuote(sym domain.SymbolID, venue domain.Venue, vals map[string]string) (domain.Quote, error) {
	bid, err := decimal.NewFromString(vals["bid"])
	if err != nil {
		return domain.Quote{}, fmt.Errorf("redis: quote %s %s: parse bid %q: %w", sym, venue, vals["bid"], err)
	}
	ask, err := decimal.NewFromString(vals["ask"])
	if err != nil {
		return domain.Quote{}, fmt.Errorf("redis: quote %s %s: parse ask %q: %w", sym, venue, vals["ask"], err)
	}
	tsNano, err := strconv.ParseInt(vals["ts"], 10, 64)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("redis: quote %s %s: parse ts %q: %w", sym, venue, vals["ts"], err)
	}
	return domain.Quote{
		Symbol:    sym,
		Venue:     venue,
		BidPrice:  bid,
		AskPrice:  ask,
		UpdatedAt: time.Unix(0, tsNano).UTC(),
	}, nil
}

// PutDepth overwrites the depth snapshot for (symbol, venue) and records the
// key in the depth index.
func (s *QuoteStore) PutDepth(ctx context.Context, book domain.OrderBook) error {
	blob, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("redis: marshal depth %s %s: %w", book.Symbol, book.Venue, err)
	}
	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, depthKey(book.Symbol, book.Venue), blob, 0)
	pipe.SAdd(ctx, depthIndexKey, indexMember(book.Symbol, book.Venue))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: put depth %s %s: %w", book.Symbol, book.Venue, err)
	}
	return nil
}

// GetDepth returns the latest depth for (symbol, venue), or ErrNotFound.
func (s *QuoteStore) GetDepth(ctx context.Context, sym domain.SymbolID, venue domain.Venue) (domain.OrderBook, error) {
	blob, err := s.rdb.Get(ctx, depthKey(sym, venue)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.OrderBook{}, domain.ErrNotFound
		}
		return domain.OrderBook{}, fmt.Errorf("redis: get depth %s %s: %w", sym, venue, err)
	}
	var book domain.OrderBook
	if err := json.Unmarshal(blob, &book); err != nil {
		return domain.OrderBook{}, fmt.Errorf("redis: unmarshal depth %s %s: %w", sym, venue, err)
	}
	return book, nil
}

// Snapshot reads every indexed quote and depth through pipelines and
// assembles a point-in-time view. Keys that vanish between the index read and
// the pipeline (or fail to parse) are omitted rather than failing the pass.
func (s *QuoteStore) Snapshot(ctx context.Context) (*domain.QuoteSnapshot, error) {
	quoteMembers, err := s.rdb.SMembers(ctx, quoteIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: snapshot quote index: %w", err)
	}
	depthMembers, err := s.rdb.SMembers(ctx, depthIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: snapshot depth index: %w", err)
	}

	snap := &domain.QuoteSnapshot{
		Quotes:  make(map[domain.SymbolID]map[domain.Venue]domain.Quote, len(quoteMembers)),
		Depths:  make(map[domain.SymbolID]map[domain.Venue]domain.OrderBook, len(depthMembers)),
		TakenAt: time.Now().UTC(),
	}

	pipe := s.rdb.Pipeline()
	type quoteCmd struct {
		sym   domain.SymbolID
		venue domain.Venue
		cmd   *redis.MapStringStringCmd
	}
	quoteCmds := make([]quoteCmd, 0, len(quoteMembers))
	for _, m := range quoteMembers {
		sym, venue, ok := splitIndexMember(m)
		if !ok {
			continue
		}
		quoteCmds = append(quoteCmds, quoteCmd{sym, venue, pipe.HGetAll(ctx, quoteKey(sym, venue))})
	}
	type depthCmd struct {
		sym   domain.SymbolID
		venue domain.Venue
		cmd   *redis.StringCmd
	}
	depthCmds := make([]depthCmd, 0, len(depthMembers))
	for _, m := range depthMembers {
		sym, venue, ok := splitIndexMember(m)
		if !ok {
			continue
		}
		depthCmds = append(depthCmds, depthCmd{sym, venue, pipe.Get(ctx, depthKey(sym, venue))})
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis: snapshot pipeline: %w", err)
	}

	for _, qc := range quoteCmds {
		vals, err := qc.cmd.Result()
		if err != nil || len(vals) == 0 {
			continue
		}
		q, err := parseQuote(qc.sym, qc.venue, vals)
		if err != nil {
			continue
		}
		byVenue, ok := snap.Quotes[qc.sym]
		if !ok {
			byVenue = make(map[domain.Venue]domain.Quote)
			snap.Quotes[qc.sym] = byVenue
		}
		byVenue[qc.venue] = q
	}
	for _, dc := range depthCmds {
		blob, err := dc.cmd.Bytes()
		if err != nil {
			continue
		}
		var book domain.OrderBook
		if err := json.Unmarshal(blob, &book); err != nil {
			continue
		}
		byVenue, ok := snap.Depths[dc.sym]
		if !ok {
			byVenue = make(map[domain.Venue]domain.OrderBook)
			snap.Depths[dc.sym] = byVenue
		}
		byVenue[dc.venue] = book
	}
	return snap, nil
}

// Compile-time interface check.
var _ domain.QuoteStore = (*QuoteStore)(nil)
