package app

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/calweir/triarb/internal/detector"
	"github.com/calweir/triarb/internal/domain"
	"github.com/calweir/triarb/internal/feed"
	"github.com/calweir/triarb/internal/graph"
	"github.com/calweir/triarb/internal/pricing"
	"github.com/calweir/triarb/internal/replay"
)

// FullMode runs feeds and detection in one process over the in-memory store.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startFeeds(ctx, g, deps)

	det := a.buildDetector(deps)
	g.Go(func() error {
		return det.Run(ctx, a.cfg.Detector.Interval.Duration)
	})

	return g.Wait()
}

// IngestMode runs only the venue feeds, writing into the Redis-backed store
// for a separate detect process to consume.
func (a *App) IngestMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting ingest mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startFeeds(ctx, g, deps)
	return g.Wait()
}

// DetectMode runs only the detection loop against the Redis-backed store
// kept current by a separate ingest process.
func (a *App) DetectMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting detect mode")

	det := a.buildDetector(deps)
	return det.Run(ctx, a.cfg.Detector.Interval.Duration)
}

// ScanMode primes the in-memory store with one polling round from the
// enabled venues and runs a single detection pass.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scan mode")

	if err := a.primeStore(ctx, deps); err != nil {
		return err
	}

	det := a.buildDetector(deps)
	opps, err := det.RunOnce(ctx)
	if err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "scan complete", slog.Int("opportunities", len(opps)))
	return nil
}

// startFeeds launches the ingestion goroutines for every enabled venue.
func (a *App) startFeeds(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	universe := a.cfg.Universe.ToDomain()

	if deps.Kinesis != nil {
		symbolIDs := a.kinesisSymbols(ctx, deps)
		wsFeed := feed.NewKinesisWSFeed(
			a.cfg.Kinesis.WSURL,
			symbolIDs,
			deps.Store,
			a.cfg.Kinesis.ReconnectBudget,
			a.logger,
		)
		g.Go(func() error {
			return wsFeed.Run(ctx)
		})

		depthFeed := feed.NewKinesisDepthFeed(
			deps.Kinesis,
			symbolIDs,
			deps.Store,
			a.cfg.Kinesis.DepthInterval.Duration,
			a.logger,
		)
		g.Go(func() error {
			return depthFeed.Run(ctx)
		})
	}

	if deps.Swyftx != nil {
		pollFeed := feed.NewSwyftxPollFeed(
			deps.Swyftx,
			universe.Pairs(),
			deps.Store,
			a.cfg.Swyftx.PollInterval.Duration,
			a.logger,
		)
		g.Go(func() error {
			return pollFeed.Run(ctx)
		})
	}
}

// kinesisSymbols intersects the exchange's listed pairs with the configured
// universe so the subscription only carries pairs both sides know about. On
// discovery failure the configured pairs are used as-is.
func (a *App) kinesisSymbols(ctx context.Context, deps *Dependencies) []string {
	universe := a.cfg.Universe.ToDomain()
	configured := make([]string, 0, len(universe.Pairs()))
	for _, p := range universe.Pairs() {
		configured = append(configured, string(p.Symbol()))
	}

	listed, err := deps.Kinesis.GetExchangePairs(ctx)
	if err != nil {
		a.logger.WarnContext(ctx, "pair discovery failed, using configured pairs",
			slog.String("error", err.Error()),
		)
		return configured
	}

	listedSet := make(map[string]struct{}, len(listed))
	for _, p := range listed {
		listedSet[p.CurrencyPairID] = struct{}{}
	}
	symbols := make([]string, 0, len(configured))
	for _, s := range configured {
		if _, ok := listedSet[s]; ok {
			symbols = append(symbols, s)
		}
	}
	if len(symbols) == 0 {
		a.logger.WarnContext(ctx, "no configured pair is listed on the exchange, using configured pairs")
		return configured
	}
	return symbols
}

// primeStore fills the store with one synchronous polling round so a
// one-shot scan has data to work with.
func (a *App) primeStore(ctx context.Context, deps *Dependencies) error {
	universe := a.cfg.Universe.ToDomain()

	if deps.Kinesis != nil {
		for _, symbolID := range a.kinesisSymbols(ctx, deps) {
			depth, err := deps.Kinesis.GetDepth(ctx, symbolID)
			if err != nil {
				a.logger.WarnContext(ctx, "prime depth failed",
					slog.String("symbol", symbolID),
					slog.String("error", err.Error()),
				)
				continue
			}
			book := depth.ToOrderBook()
			if err := deps.Store.PutDepth(ctx, book); err != nil {
				return err
			}
			// Derive a top-of-book quote from the depth snapshot.
			quote := domain.Quote{
				Symbol:    book.Symbol,
				Venue:     book.Venue,
				UpdatedAt: book.UpdatedAt,
			}
			if len(book.Bids) > 0 {
				quote.BidPrice = book.Bids[0].Price
			}
			if len(book.Asks) > 0 {
				quote.AskPrice = book.Asks[0].Price
			}
			if err := deps.Store.PutQuote(ctx, quote); err != nil {
				return err
			}
		}
	}

	if deps.Swyftx != nil {
		for _, pair := range universe.Pairs() {
			quote, err := deps.Swyftx.GetLatestQuote(ctx, pair.Base, pair.Quote)
			if err != nil {
				a.logger.WarnContext(ctx, "prime quote failed",
					slog.String("symbol", string(pair.Symbol())),
					slog.String("error", err.Error()),
				)
				continue
			}
			if err := deps.Store.PutQuote(ctx, quote); err != nil {
				return err
			}
		}
	}
	return nil
}

// buildDetector assembles the detection pipeline: fee table, hop pricer,
// graph builder, cycle replay, and the sink fan-out.
func (a *App) buildDetector(deps *Dependencies) *detector.Detector {
	feeCurrencies := make(map[domain.SymbolID]domain.CurrencyCode, len(a.cfg.Detector.FeeCurrencies))
	for sym, cur := range a.cfg.Detector.FeeCurrencies {
		feeCurrencies[domain.SymbolID(sym)] = domain.CurrencyCode(cur)
	}
	fees := pricing.NewStaticFeeTable(feeCurrencies)

	pricer := pricing.NewPricer(
		fees,
		decimal.NewFromFloat(a.cfg.Detector.FeeRate),
		decimal.NewFromFloat(a.cfg.Detector.NominalLiquidity),
	)
	builder := graph.NewBuilder(
		pricer,
		a.cfg.Universe.ToDomain(),
		decimal.NewFromFloat(a.cfg.Detector.ProbePay),
		a.logger,
	)
	evaluator := replay.NewEvaluator(pricer, a.logger)

	sinks := []domain.OpportunitySink{
		detector.NewLogSink(a.logger),
		detector.NewNotifySink(deps.Notifier),
	}
	if deps.OpportunityStore != nil {
		sinks = append(sinks, detector.NewStoreSink(deps.OpportunityStore))
	}
	if deps.SignalBus != nil {
		sinks = append(sinks, detector.NewBusSink(deps.SignalBus))
	}

	return detector.New(
		deps.Store,
		builder,
		evaluator,
		sinks,
		decimal.NewFromFloat(a.cfg.Detector.ReplayPay),
		a.logger,
	)
}
