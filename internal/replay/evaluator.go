// Package replay simulates executing a discovered cycle leg by leg, using the
// freshest quotes and depth rather than the possibly-stale graph edges, and
// produces the realizable profit factor together with a per-leg audit ledger.
package replay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/calweir/triarb/internal/domain"
	"github.com/calweir/triarb/internal/pricing"
)

// Result is the outcome of replaying one cycle.
type Result struct {
	// Profit is the ratio of the final balance (back in the starting
	// currency) to the initial pay amount.
	Profit decimal.Decimal
	// Realizable is false when any leg could not be fully filled at the
	// assumed liquidity; the ledger still covers the whole walk.
	Realizable bool
	// Legs is the per-leg trade ledger, for inspection and audit only.
	Legs []domain.TradeLeg
}

// Evaluator replays cycles through the shared hop pricer.
type Evaluator struct {
	pricer *pricing.Pricer
	logger *slog.Logger
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(pricer *pricing.Pricer, logger *slog.Logger) *Evaluator {
	return &Evaluator{
		pricer: pricer,
		logger: logger.With(slog.String("component", "replay")),
	}
}

// Replay walks the closed cycle starting with pay units of its first
// currency, re-quoting every hop against snap, deducting the fee on the
// fee-denominated leg, and carrying each receive forward as the next pay.
// A leg that has lost its quote entirely surfaces ErrNoExecutablePrice; a leg
// that quotes but cannot fill marks the result non-realizable instead.
func (e *Evaluator) Replay(ctx context.Context, snap *domain.QuoteSnapshot, cycle domain.Cycle, pay decimal.Decimal) (Result, error) {
	if !pay.IsPositive() {
		return Result{}, fmt.Errorf("replay: pay %s: %w", pay, domain.ErrInvalidAmount)
	}
	if !cycle.Closed() {
		return Result{}, fmt.Errorf("replay: cycle %s is not closed", cycle)
	}

	res := Result{Realizable: true}
	balance := pay
	for i := 0; i < len(cycle)-1; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("replay: cycle %s: %w", cycle, err)
		}
		from, to := cycle[i], cycle[i+1]

		hop, err := e.pricer.Hop(snap, from, to, balance)
		if err != nil {
			if errors.Is(err, domain.ErrNoQuote) {
				return Result{}, fmt.Errorf("replay: leg %d %s -> %s: %w", i, from, to, domain.ErrNoExecutablePrice)
			}
			return Result{}, fmt.Errorf("replay: leg %d %s -> %s: %w", i, from, to, err)
		}

		res.Legs = append(res.Legs, domain.TradeLeg{
			Seq:         i,
			From:        from,
			To:          to,
			Symbol:      hop.Symbol,
			Side:        hop.Side,
			Venue:       hop.Venue,
			Price:       hop.Price,
			Pay:         hop.Pay,
			Receive:     hop.Receive,
			Fee:         hop.Fee,
			FeeCurrency: hop.FeeCurrency,
			Balance:     hop.Receive,
			Filled:      hop.Filled,
			Timestamp:   time.Now().UTC(),
		})

		if !hop.Filled {
			e.logger.Debug("replay leg not fully fillable",
				slog.Int("leg", i),
				slog.String("from", string(from)),
				slog.String("to", string(to)),
				slog.String("pay", balance.String()),
			)
			res.Realizable = false
		}
		if !hop.Receive.IsPositive() {
			// Nothing left to carry forward; the remaining legs would all be
			// zero. The walk cannot continue.
			res.Profit = decimal.Zero
			res.Realizable = false
			return res, nil
		}
		balance = hop.Receive
	}

	res.Profit = balance.Div(pay)
	return res, nil
}
