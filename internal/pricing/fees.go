package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/calweir/triarb/internal/domain"
)

// DefaultFeeRate is the flat exchange fee ratio deducted from every
// conversion leg (0.22%).
var DefaultFeeRate = decimal.New(22, -4)

// StaticFeeTable maps symbols to the currency their trading fee is charged
// in. Pairs absent from the table default to the symbol's base currency.
type StaticFeeTable struct {
	byPair map[domain.SymbolID]domain.CurrencyCode
}

// NewStaticFeeTable builds a fee table from a symbol -> fee currency map.
func NewStaticFeeTable(entries map[domain.SymbolID]domain.CurrencyCode) *StaticFeeTable {
	byPair := make(map[domain.SymbolID]domain.CurrencyCode, len(entries))
	for sym, cur := range entries {
		byPair[sym] = cur
	}
	return &StaticFeeTable{byPair: byPair}
}

// FeeCurrency returns the currency the fee for sym is denominated in.
func (t *StaticFeeTable) FeeCurrency(sym domain.SymbolID) domain.CurrencyCode {
	if cur, ok := t.byPair[sym]; ok {
		return cur
	}
	return sym.Base()
}

var _ domain.FeeTable = (*StaticFeeTable)(nil)
