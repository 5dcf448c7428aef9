// Package detector runs the detection loop: snapshot the quote store, build
// the exchange-rate graph, find negative cycles, replay each one against the
// snapshot, and fan the resulting opportunities out to the configured sinks.
package detector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/calweir/triarb/internal/domain"
	"github.com/calweir/triarb/internal/graph"
	"github.com/calweir/triarb/internal/replay"
)

// Detector owns one detection pipeline instance.
type Detector struct {
	store     domain.QuoteStore
	builder   *graph.Builder
	evaluator *replay.Evaluator
	sinks     []domain.OpportunitySink
	replayPay decimal.Decimal
	logger    *slog.Logger
}

// New creates a Detector. replayPay is the starting amount used when
// replaying a discovered cycle.
func New(
	store domain.QuoteStore,
	builder *graph.Builder,
	evaluator *replay.Evaluator,
	sinks []domain.OpportunitySink,
	replayPay decimal.Decimal,
	logger *slog.Logger,
) *Detector {
	return &Detector{
		store:     store,
		builder:   builder,
		evaluator: evaluator,
		sinks:     sinks,
		replayPay: replayPay,
		logger:    logger.With(slog.String("component", "detector")),
	}
}

// Run executes detection passes at the given interval until ctx is
// cancelled. A failing pass is logged and the loop continues; transient
// store or feed trouble should not kill detection.
func (d *Detector) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	d.logger.Info("detector started", slog.Duration("interval", interval))
	// First pass runs immediately; the ticker governs the passes after it.
	if _, err := d.RunOnce(ctx); err != nil {
		d.logger.Error("detection pass failed", slog.String("error", err.Error()))
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := d.RunOnce(ctx); err != nil {
				d.logger.Error("detection pass failed", slog.String("error", err.Error()))
			}
		}
	}
}

// RunOnce executes a single detection pass and returns the opportunities it
// emitted.
func (d *Detector) RunOnce(ctx context.Context) ([]domain.ArbitrageOpportunity, error) {
	started := time.Now()

	snap, err := d.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("detector: snapshot: %w", err)
	}

	g, err := d.builder.Build(snap)
	if err != nil {
		return nil, fmt.Errorf("detector: build graph: %w", err)
	}

	cycles := graph.FindNegativeCycles(g)
	if len(cycles) == 0 {
		d.logger.Info("no arbitrage opportunity",
			slog.Int("vertices", len(g.Vertices)),
			slog.Int("edges", len(g.Edges)),
			slog.Duration("elapsed", time.Since(started)),
		)
		return nil, nil
	}

	var opps []domain.ArbitrageOpportunity
	for _, c := range cycles {
		res, err := d.evaluator.Replay(ctx, snap, c.Cycle, d.replayPay)
		if err != nil {
			d.logger.Warn("cycle replay failed",
				slog.String("cycle", c.Cycle.String()),
				slog.String("error", err.Error()),
			)
			continue
		}

		opp := domain.ArbitrageOpportunity{
			ID:             uuid.NewString(),
			CycleID:        c.ID,
			Cycle:          c.Cycle,
			Edges:          c.Edges,
			Profit:         c.Profit,
			RealizedProfit: res.Profit,
			Realizable:     res.Realizable,
			Legs:           res.Legs,
			DetectedAt:     time.Now().UTC(),
		}
		d.logger.Info("arbitrage opportunity detected",
			slog.String("id", opp.ID),
			slog.String("cycle", opp.Cycle.String()),
			slog.String("profit", opp.Profit.String()),
			slog.String("realized_profit", opp.RealizedProfit.String()),
			slog.Bool("realizable", opp.Realizable),
		)

		d.emit(ctx, opp)
		opps = append(opps, opp)
	}

	d.logger.Debug("detection pass complete",
		slog.Int("cycles", len(cycles)),
		slog.Int("emitted", len(opps)),
		slog.Duration("elapsed", time.Since(started)),
	)
	return opps, nil
}

// emit fans an opportunity out to every sink. Sink failures are logged and
// never abort the pass or the remaining sinks.
func (d *Detector) emit(ctx context.Context, opp domain.ArbitrageOpportunity) {
	for _, sink := range d.sinks {
		if err := sink.Emit(ctx, opp); err != nil {
			d.logger.Error("sink emit failed",
				slog.String("sink", sink.Name()),
				slog.String("id", opp.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}
