package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/calweir/triarb/internal/domain"
	"github.com/calweir/triarb/internal/venue/kinesis"
)

// KinesisDepthFeed polls the Kinesis REST depth endpoint for each configured
// pair and writes full order books into the store. The ticker socket only
// carries top-of-book, so depth rides on REST.
type KinesisDepthFeed struct {
	client    *kinesis.Client
	symbolIDs []string
	store     domain.QuoteStore
	interval  time.Duration
	logger    *slog.Logger
}

// NewKinesisDepthFeed creates a depth poller for the given pair ids.
func NewKinesisDepthFeed(client *kinesis.Client, symbolIDs []string, store domain.QuoteStore, interval time.Duration, logger *slog.Logger) *KinesisDepthFeed {
	return &KinesisDepthFeed{
		client:    client,
		symbolIDs: symbolIDs,
		store:     store,
		interval:  interval,
		logger:    logger.With(slog.String("component", "kinesis_depth_feed")),
	}
}

// Run polls until ctx is cancelled. Failing symbols are logged and skipped.
func (f *KinesisDepthFeed) Run(ctx context.Context) error {
	if len(f.symbolIDs) == 0 {
		f.logger.Info("no symbols to poll, exiting")
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

func (f *KinesisDepthFeed) pollOnce(ctx context.Context) {
	for i, symbolID := range f.symbolIDs {
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

		depth, err := f.client.GetDepth(ctx, symbolID)
		if err != nil {
			f.logger.Warn("poll depth",
				slog.String("symbol", symbolID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if err := f.store.PutDepth(ctx, depth.ToOrderBook()); err != nil {
			f.logger.Error("store depth",
				slog.String("symbol", symbolID),
				slog.String("error", err.Error()),
			)
		}
	}
}
