package pricing

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/calweir/triarb/internal/domain"
)

// BestPrice is the merged best bid and ask for a conversion hop, in the
// native orientation of the book that quoted it. Side records how the hop
// executes against that book: buy means the book's base is the currency being
// acquired, sell means the base is the currency being spent. Bid and ask are
// selected independently across venues, each tagged with its source.
type BestPrice struct {
	Symbol   domain.SymbolID
	Side     domain.Side
	Bid      decimal.Decimal
	Ask      decimal.Decimal
	BidVenue domain.Venue
	AskVenue domain.Venue
}

// BestQuote resolves the best price for converting from -> to out of a
// snapshot. The direct orientation (a "to_from" book, priced in from per to)
// is preferred; when no venue quotes it, the inverse "from_to" book is used
// instead, which flips the executable side from buy to sell (the reciprocal
// with bid/ask roles swapped). Returns ErrNoQuote when no venue has usable
// data for either orientation.
func BestQuote(snap *domain.QuoteSnapshot, from, to domain.CurrencyCode) (BestPrice, error) {
	direct := domain.NewSymbolID(to, from)
	if bp, ok := mergeVenues(snap.VenueQuotes(direct)); ok {
		bp.Symbol = direct
		bp.Side = domain.SideBuy
		return bp, nil
	}

	inverse := domain.NewSymbolID(from, to)
	if bp, ok := mergeVenues(snap.VenueQuotes(inverse)); ok {
		bp.Symbol = inverse
		bp.Side = domain.SideSell
		return bp, nil
	}

	return BestPrice{}, fmt.Errorf("pricing: %s -> %s: %w", from, to, domain.ErrNoQuote)
}

// mergeVenues picks the lowest ask and highest bid across all venues quoting
// one orientation. Non-positive prices are not usable. Venues are visited in
// sorted order so ties resolve deterministically.
func mergeVenues(quotes map[domain.Venue]domain.Quote) (BestPrice, bool) {
	if len(quotes) == 0 {
		return BestPrice{}, false
	}

	venues := make([]domain.Venue, 0, len(quotes))
	for v := range quotes {
		venues = append(venues, v)
	}
	sort.Slice(venues, func(i, j int) bool { return venues[i] < venues[j] })

	var bp BestPrice
	for _, v := range venues {
		q := quotes[v]
		if q.AskPrice.IsPositive() {
			if bp.AskVenue == "" || q.AskPrice.LessThan(bp.Ask) {
				bp.Ask = q.AskPrice
				bp.AskVenue = v
			}
		}
		if q.BidPrice.IsPositive() {
			if bp.BidVenue == "" || q.BidPrice.GreaterThan(bp.Bid) {
				bp.Bid = q.BidPrice
				bp.BidVenue = v
			}
		}
	}
	if bp.AskVenue == "" && bp.BidVenue == "" {
		return BestPrice{}, false
	}
	return bp, true
}
