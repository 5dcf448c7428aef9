package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/calweir/triarb/internal/domain"
	"github.com/calweir/triarb/internal/venue/swyftx"
)

// pairSpacing is the pause between per-pair requests within one polling
// round, keeping the public API well under its rate limit.
const pairSpacing = 100 * time.Millisecond

// SwyftxPollFeed polls the Swyftx charts API for each configured pair and
// writes the latest quotes into the store. Swyftx has no streaming feed, so
// the cadence is whatever interval the config allows.
type SwyftxPollFeed struct {
	client   *swyftx.Client
	pairs    []domain.Pair
	store    domain.QuoteStore
	interval time.Duration
	logger   *slog.Logger
}

// NewSwyftxPollFeed creates a polling feed for the given pairs.
func NewSwyftxPollFeed(client *swyftx.Client, pairs []domain.Pair, store domain.QuoteStore, interval time.Duration, logger *slog.Logger) *SwyftxPollFeed {
	return &SwyftxPollFeed{
		client:   client,
		pairs:    pairs,
		store:    store,
		interval: interval,
		logger:   logger.With(slog.String("component", "swyftx_poll_feed")),
	}
}

// Run polls until ctx is cancelled. A failing pair is logged and skipped so
// one delisted or misconfigured symbol cannot starve the rest of the round.
func (f *SwyftxPollFeed) Run(ctx context.Context) error {
	if len(f.pairs) == 0 {
		f.logger.Info("no pairs to poll, exiting")
		return nil
	}

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	f.pollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			f.pollOnce(ctx)
		}
	}
}

func (f *SwyftxPollFeed) pollOnce(ctx context.Context) {
	for i, pair := range f.pairs {
		if ctx.Err() != nil {
			return
		}
		if i > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(pairSpacing):
			}
		}

		quote, err := f.client.GetLatestQuote(ctx, pair.Base, pair.Quote)
		if err != nil {
			f.logger.Warn("poll pair",
				slog.String("symbol", string(pair.Symbol())),
				slog.String("error", err.Error()),
			)
			continue
		}
		if err := f.store.PutQuote(ctx, quote); err != nil {
			f.logger.Error("store quote",
				slog.String("symbol", string(quote.Symbol)),
				slog.String("error", err.Error()),
			)
		}
	}
}
