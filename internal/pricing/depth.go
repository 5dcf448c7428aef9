// Package pricing implements the price-formation half of the pipeline: the
// depth-weighted execution estimator, the multi-venue best-price merger, the
// pair fee table, and the hop quoter that combines all three into a single
// fee-adjusted conversion.
//
// All arithmetic is decimal. Errors from binary floating point compound
// multiplicatively across a cycle, so no float64 is ever accumulated here.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/calweir/triarb/internal/domain"
)

// fillEpsilon absorbs rounding residue when deciding whether a ladder walk
// consumed the full requested amount.
var fillEpsilon = decimal.New(1, -8)

// Execution is the result of walking an order-book ladder.
type Execution struct {
	// AveragePrice is the quantity-weighted mean price of the consumed
	// levels: TotalValue / AmountFilled. Zero when nothing was consumed.
	AveragePrice decimal.Decimal
	// TotalValue is the notional exchanged, in the book's quote currency.
	TotalValue decimal.Decimal
	// AmountFilled is the base amount actually consumed.
	AmountFilled decimal.Decimal
	// Filled reports whether the requested amount was (within fillEpsilon)
	// fully consumed.
	Filled bool
}

// Estimate walks a ladder in priority order, consuming min(remaining, level)
// at each level until the requested base amount is filled or levels run out.
// For buys the ladder must be ask levels in ascending price order; for sells,
// bid levels in descending order. A zero amount is a vacuous fill; a negative
// amount is a caller error.
func Estimate(levels []domain.OrderBookLevel, amount decimal.Decimal) (Execution, error) {
	if amount.IsNegative() {
		return Execution{}, fmt.Errorf("pricing: estimate amount %s: %w", amount, domain.ErrInvalidAmount)
	}
	if amount.IsZero() {
		return Execution{Filled: true}, nil
	}

	remaining := amount
	total := decimal.Zero
	for _, lvl := range levels {
		fill := remaining
		if lvl.Amount.LessThan(fill) {
			fill = lvl.Amount
		}
		total = total.Add(fill.Mul(lvl.Price))
		remaining = remaining.Sub(fill)
		if remaining.LessThanOrEqual(fillEpsilon) {
			break
		}
	}

	filled := remaining.LessThanOrEqual(fillEpsilon)
	consumed := amount.Sub(remaining)
	avg := decimal.Zero
	if consumed.IsPositive() {
		avg = total.Div(consumed)
	}
	return Execution{
		AveragePrice: avg,
		TotalValue:   total,
		AmountFilled: consumed,
		Filled:       filled,
	}, nil
}
