package detector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/calweir/triarb/internal/domain"
	"github.com/calweir/triarb/internal/notify"
)

// opportunityChannel is the pub/sub channel and stream name opportunities are
// published on for out-of-process consumers.
const opportunityChannel = "opportunities"

// LogSink writes each opportunity to the structured log. It is always wired,
// so an otherwise unconfigured deployment still surfaces findings.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger.With(slog.String("component", "log_sink"))}
}

func (s *LogSink) Emit(_ context.Context, opp domain.ArbitrageOpportunity) error {
	s.logger.Info("opportunity",
		slog.String("id", opp.ID),
		slog.String("cycle_id", opp.CycleID),
		slog.String("cycle", opp.Cycle.String()),
		slog.String("profit_pct", opp.ProfitPct().StringFixed(4)),
		slog.String("realized_profit", opp.RealizedProfit.String()),
		slog.Bool("realizable", opp.Realizable),
		slog.Int("legs", len(opp.Legs)),
	)
	return nil
}

func (s *LogSink) Name() string { return "log" }

// NotifySink forwards opportunities to the operator notifier as
// "arb_detected" events.
type NotifySink struct {
	notifier *notify.Notifier
}

// NewNotifySink creates a NotifySink.
func NewNotifySink(notifier *notify.Notifier) *NotifySink {
	return &NotifySink{notifier: notifier}
}

func (s *NotifySink) Emit(ctx context.Context, opp domain.ArbitrageOpportunity) error {
	title := fmt.Sprintf("Arbitrage cycle %s", opp.Cycle)

	var b strings.Builder
	fmt.Fprintf(&b, "Profit: %s%%\n", opp.ProfitPct().StringFixed(4))
	fmt.Fprintf(&b, "Replayed: %s (realizable: %t)\n", opp.RealizedProfit.String(), opp.Realizable)
	for _, leg := range opp.Legs {
		fmt.Fprintf(&b, "%d. %s %s on %s @ %s: pay %s %s, receive %s %s\n",
			leg.Seq+1, leg.Side, leg.Symbol, leg.Venue, leg.Price,
			leg.Pay, leg.From, leg.Receive, leg.To,
		)
	}

	return s.notifier.Notify(ctx, "arb_detected", title, b.String())
}

func (s *NotifySink) Name() string { return "notify" }

// StoreSink persists opportunities to the history store.
type StoreSink struct {
	store domain.OpportunityStore
}

// NewStoreSink creates a StoreSink.
func NewStoreSink(store domain.OpportunityStore) *StoreSink {
	return &StoreSink{store: store}
}

func (s *StoreSink) Emit(ctx context.Context, opp domain.ArbitrageOpportunity) error {
	return s.store.Insert(ctx, opp)
}

func (s *StoreSink) Name() string { return "store" }

// BusSink publishes opportunities as JSON on the signal bus, both as an
// ephemeral pub/sub message and as a durable stream entry.
type BusSink struct {
	bus domain.SignalBus
}

// NewBusSink creates a BusSink.
func NewBusSink(bus domain.SignalBus) *BusSink {
	return &BusSink{bus: bus}
}

func (s *BusSink) Emit(ctx context.Context, opp domain.ArbitrageOpportunity) error {
	payload, err := json.Marshal(opp)
	if err != nil {
		return fmt.Errorf("detector: marshal opportunity %s: %w", opp.ID, err)
	}
	if err := s.bus.Publish(ctx, opportunityChannel, payload); err != nil {
		return err
	}
	return s.bus.StreamAppend(ctx, opportunityChannel, payload)
}

func (s *BusSink) Name() string { return "bus" }

// Compile-time interface checks.
var (
	_ domain.OpportunitySink = (*LogSink)(nil)
	_ domain.OpportunitySink = (*NotifySink)(nil)
	_ domain.OpportunitySink = (*StoreSink)(nil)
	_ domain.OpportunitySink = (*BusSink)(nil)
)
