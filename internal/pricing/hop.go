package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/calweir/triarb/internal/domain"
)

// Pricer quotes single conversion hops against a snapshot: merged best price,
// depth-weighted execution, and fee deduction on the correct leg. It is the
// shared price engine of the graph builder and the cycle replay.
type Pricer struct {
	fees             domain.FeeTable
	feeRate          decimal.Decimal
	nominalLiquidity decimal.Decimal
}

// NewPricer creates a Pricer. nominalLiquidity is the one-level ladder depth
// assumed when only a ticker (no depth snapshot) is available for the chosen
// book.
func NewPricer(fees domain.FeeTable, feeRate, nominalLiquidity decimal.Decimal) *Pricer {
	return &Pricer{
		fees:             fees,
		feeRate:          feeRate,
		nominalLiquidity: nominalLiquidity,
	}
}

// HopQuote is a fully evaluated conversion of a pay amount from one currency
// into another: the book and venue used, the average execution price, the
// fee, and the resulting fee-adjusted receive amount and rate.
type HopQuote struct {
	From        domain.CurrencyCode
	To          domain.CurrencyCode
	Symbol      domain.SymbolID
	Side        domain.Side
	Venue       domain.Venue
	Price       decimal.Decimal
	Pay         decimal.Decimal
	Receive     decimal.Decimal
	Fee         decimal.Decimal
	FeeCurrency domain.CurrencyCode
	Rate        decimal.Decimal
	Filled      bool
}

// Hop converts pay units of from into to against the snapshot. The fee is
// deducted from the pay leg when the pair's fee currency is the currency
// being spent, otherwise from the receive leg. Returns ErrInvalidAmount for a
// non-positive pay amount and ErrNoQuote when the hop has no executable book.
func (p *Pricer) Hop(snap *domain.QuoteSnapshot, from, to domain.CurrencyCode, pay decimal.Decimal) (HopQuote, error) {
	if !pay.IsPositive() {
		return HopQuote{}, fmt.Errorf("pricing: hop %s -> %s pay %s: %w", from, to, pay, domain.ErrInvalidAmount)
	}

	bp, err := BestQuote(snap, from, to)
	if err != nil {
		return HopQuote{}, err
	}

	feeCur := p.fees.FeeCurrency(bp.Symbol)
	feeOnPay := feeCur == from

	fee := decimal.Zero
	payAfterFee := pay
	if feeOnPay {
		fee = pay.Mul(p.feeRate)
		payAfterFee = pay.Sub(fee)
	}

	var (
		exec    Execution
		receive decimal.Decimal
		venue   domain.Venue
	)
	switch bp.Side {
	case domain.SideSell:
		// Selling the book's base (= from) into bids; proceeds are in to.
		if bp.BidVenue == "" {
			return HopQuote{}, fmt.Errorf("pricing: %s -> %s no usable bid: %w", from, to, domain.ErrNoQuote)
		}
		venue = bp.BidVenue
		exec, err = Estimate(p.ladder(snap, bp.Symbol, venue, domain.SideSell, bp.Bid), payAfterFee)
		if err != nil {
			return HopQuote{}, err
		}
		receive = exec.TotalValue
	default:
		// Buying the book's base (= to) with from; requested base quantity is
		// derived from the pay amount at the top of the ladder.
		if bp.AskVenue == "" {
			return HopQuote{}, fmt.Errorf("pricing: %s -> %s no usable ask: %w", from, to, domain.ErrNoQuote)
		}
		venue = bp.AskVenue
		ladder := p.ladder(snap, bp.Symbol, venue, domain.SideBuy, bp.Ask)
		if len(ladder) == 0 || !ladder[0].Price.IsPositive() {
			return HopQuote{}, fmt.Errorf("pricing: %s -> %s empty ask ladder: %w", from, to, domain.ErrNoQuote)
		}
		exec, err = Estimate(ladder, payAfterFee.Div(ladder[0].Price))
		if err != nil {
			return HopQuote{}, err
		}
		if exec.AveragePrice.IsPositive() {
			receive = payAfterFee.Div(exec.AveragePrice)
		}
	}

	if !feeOnPay {
		fee = receive.Mul(p.feeRate)
		receive = receive.Sub(fee)
	}

	return HopQuote{
		From:        from,
		To:          to,
		Symbol:      bp.Symbol,
		Side:        bp.Side,
		Venue:       venue,
		Price:       exec.AveragePrice,
		Pay:         pay,
		Receive:     receive,
		Fee:         fee,
		FeeCurrency: feeCur,
		Rate:        receive.Div(pay),
		Filled:      exec.Filled && receive.IsPositive(),
	}, nil
}

// ladder returns the depth levels to execute against: the stored depth
// snapshot for (symbol, venue) when one exists, otherwise a single level at
// the merged best price with the assumed nominal liquidity.
func (p *Pricer) ladder(snap *domain.QuoteSnapshot, sym domain.SymbolID, venue domain.Venue, side domain.Side, price decimal.Decimal) []domain.OrderBookLevel {
	if book, ok := snap.Depth(sym, venue); ok {
		if side == domain.SideSell && len(book.Bids) > 0 {
			return book.Bids
		}
		if side == domain.SideBuy && len(book.Asks) > 0 {
			return book.Asks
		}
	}
	if !price.IsPositive() {
		return nil
	}
	return []domain.OrderBookLevel{{Price: price, Amount: p.nominalLiquidity}}
}
