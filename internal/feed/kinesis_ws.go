// Package feed contains the ingestion loops that keep the quote store
// current: the Kinesis ticker WebSocket, the Kinesis depth poller, and the
// Swyftx rate poller. Feeds write; the detector only reads snapshots.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/calweir/triarb/internal/domain"
	"github.com/calweir/triarb/internal/venue/kinesis"
)

const (
	// reconnectDelay is the base delay before re-dialing a dropped socket.
	reconnectDelay = 2 * time.Second

	// maxReconnectDelay caps the exponential backoff between re-dials.
	maxReconnectDelay = 60 * time.Second

	// DefaultReconnectBudget is how many consecutive failed connections are
	// tolerated before the feed gives up.
	DefaultReconnectBudget = 10
)

// KinesisWSFeed streams top-of-book tickers from the Kinesis pricing socket
// into the quote store. A successful connection resets the reconnect budget;
// exhausting it is fatal, since running detection on a permanently stale
// store would only produce phantom opportunities.
type KinesisWSFeed struct {
	wsURL     string
	symbolIDs []string
	store     domain.QuoteStore
	budget    int
	logger    *slog.Logger
}

// NewKinesisWSFeed creates a feed subscribing to the given pair ids. budget
// <= 0 selects DefaultReconnectBudget.
func NewKinesisWSFeed(wsURL string, symbolIDs []string, store domain.QuoteStore, budget int, logger *slog.Logger) *KinesisWSFeed {
	if budget <= 0 {
		budget = DefaultReconnectBudget
	}
	return &KinesisWSFeed{
		wsURL:     wsURL,
		symbolIDs: symbolIDs,
		store:     store,
		budget:    budget,
		logger:    logger.With(slog.String("component", "kinesis_ws_feed")),
	}
}

// Run connects, subscribes, and pumps tickers into the store until ctx is
// cancelled or the reconnect budget is exhausted.
func (f *KinesisWSFeed) Run(ctx context.Context) error {
	if len(f.symbolIDs) == 0 {
		f.logger.Info("no symbols to subscribe, exiting")
		return nil
	}

	failures := 0
	delay := reconnectDelay
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		subscribed, err := f.runConnection(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if subscribed {
			// The venue was reachable; only consecutive failures count
			// against the budget.
			failures = 0
			delay = reconnectDelay
		}

		failures++
		if failures >= f.budget {
			return fmt.Errorf(
				"feed: kinesis ws: %d consecutive connection failures, check API credentials and server health: %w",
				failures, err,
			)
		}
		f.logger.Warn("kinesis ws disconnected, reconnecting",
			slog.String("error", err.Error()),
			slog.Int("failures", failures),
			slog.Int("budget", f.budget),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

// runConnection owns one dial-subscribe-listen round. subscribed reports
// whether the subscription was established before the connection dropped.
func (f *KinesisWSFeed) runConnection(ctx context.Context) (subscribed bool, err error) {
	client := kinesis.NewWSClient(f.wsURL)
	defer client.Close()

	client.OnTicker(func(t kinesis.Ticker) {
		q := t.ToQuote()
		if err := f.store.PutQuote(ctx, q); err != nil {
			f.logger.Error("store ticker",
				slog.String("symbol", string(q.Symbol)),
				slog.String("error", err.Error()),
			)
		}
	})

	if err := client.Connect(ctx); err != nil {
		return false, err
	}
	if err := client.SubscribeTickers(f.symbolIDs); err != nil {
		return false, err
	}
	f.logger.Info("kinesis ws subscribed", slog.Int("symbols", len(f.symbolIDs)))

	return true, client.Listen(ctx)
}
