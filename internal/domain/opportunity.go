package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeLeg is one simulated conversion in a cycle replay. Legs form the audit
// ledger of an opportunity; they are informational and never fed back into
// further computation.
type TradeLeg struct {
	Seq         int             `json:"seq"`
	From        CurrencyCode    `json:"from"`
	To          CurrencyCode    `json:"to"`
	Symbol      SymbolID        `json:"symbol"`
	Side        Side            `json:"side"`
	Venue       Venue           `json:"venue"`
	Price       decimal.Decimal `json:"price"`
	Pay         decimal.Decimal `json:"pay"`
	Receive     decimal.Decimal `json:"receive"`
	Fee         decimal.Decimal `json:"fee"`
	FeeCurrency CurrencyCode    `json:"fee_currency"`
	Balance     decimal.Decimal `json:"balance"`
	Filled      bool            `json:"filled"`
	Timestamp   time.Time       `json:"timestamp"`
}

// ArbitrageOpportunity is a discovered negative cycle together with its
// evaluation. Profit is the multiplicative factor implied by the graph edges
// (1.05 = 5% gain); RealizedProfit comes from replaying the cycle against the
// freshest prices and assumed liquidity. Realizable is false when any replay
// leg could not be filled, distinguishing a theoretically negative cycle from
// a realizably profitable one.
type ArbitrageOpportunity struct {
	ID             string          `json:"id"`
	CycleID        string          `json:"cycle_id"`
	Cycle          Cycle           `json:"cycle"`
	Edges          []Edge          `json:"edges"`
	Profit         decimal.Decimal `json:"profit"`
	RealizedProfit decimal.Decimal `json:"realized_profit"`
	Realizable     bool            `json:"realizable"`
	Legs           []TradeLeg      `json:"legs"`
	DetectedAt     time.Time       `json:"detected_at"`
}

// ProfitPct returns the profit as a percentage gain, e.g. 5.0 for a factor of
// 1.05.
func (o ArbitrageOpportunity) ProfitPct() decimal.Decimal {
	return o.Profit.Sub(decimal.New(1, 0)).Mul(decimal.New(100, 0))
}
