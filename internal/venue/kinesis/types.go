package kinesis

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/calweir/triarb/internal/domain"
)

// ExchangePair describes one tradable pair as returned by /v1/exchange/pairs.
type ExchangePair struct {
	CurrencyPairID string `json:"currencyPairId"`
	BaseCurrency   string `json:"baseCurrency"`
	QuoteCurrency  string `json:"quoteCurrency"`
	BaseDecimals   int    `json:"baseDecimals"`
	QuoteDecimals  int    `json:"quoteDecimals"`
}

// DepthLevel is one price level of the exchange order book.
type DepthLevel struct {
	Amount decimal.Decimal `json:"amount"`
	Price  decimal.Decimal `json:"price"`
}

// DepthResponse is the order book for one pair as returned by
// /v1/exchange/depth/{symbolId}. Bids descend and asks ascend by price.
type DepthResponse struct {
	CurrencyPairID string `json:"currencyPairId"`
	DepthItems     struct {
		Bid []DepthLevel `json:"bid"`
		Ask []DepthLevel `json:"ask"`
	} `json:"depthItems"`
}

// ToOrderBook converts the API depth into the domain order book.
func (d DepthResponse) ToOrderBook() domain.OrderBook {
	book := domain.OrderBook{
		Symbol:    domain.SymbolID(d.CurrencyPairID),
		Venue:     domain.VenueKinesis,
		Bids:      make([]domain.OrderBookLevel, 0, len(d.DepthItems.Bid)),
		Asks:      make([]domain.OrderBookLevel, 0, len(d.DepthItems.Ask)),
		UpdatedAt: time.Now().UTC(),
	}
	for _, lvl := range d.DepthItems.Bid {
		book.Bids = append(book.Bids, domain.OrderBookLevel{Price: lvl.Price, Amount: lvl.Amount})
	}
	for _, lvl := range d.DepthItems.Ask {
		book.Asks = append(book.Asks, domain.OrderBookLevel{Price: lvl.Price, Amount: lvl.Amount})
	}
	return book
}

// Ticker is a top-of-book update from the pricing socket.
type Ticker struct {
	SymbolID string          `json:"symbolId"`
	BidPrice decimal.Decimal `json:"bidPrice"`
	AskPrice decimal.Decimal `json:"askPrice"`
}

// ToQuote converts the ticker into a domain quote stamped now.
func (t Ticker) ToQuote() domain.Quote {
	return domain.Quote{
		Symbol:    domain.SymbolID(t.SymbolID),
		Venue:     domain.VenueKinesis,
		BidPrice:  t.BidPrice,
		AskPrice:  t.AskPrice,
		UpdatedAt: time.Now().UTC(),
	}
}
