package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Edge is a directed conversion between two currencies. Rate is the effective
// conversion rate (units of To received per unit of From paid) with the
// exchange fee already deducted, and Weight = -ln(Rate), so a cycle is
// profitable iff the sum of its edge weights is strictly negative.
type Edge struct {
	From   CurrencyCode    `json:"from"`
	To     CurrencyCode    `json:"to"`
	Side   Side            `json:"side"`
	Venue  Venue           `json:"venue"`
	Price  decimal.Decimal `json:"price"`
	Rate   decimal.Decimal `json:"rate"`
	Weight decimal.Decimal `json:"weight"`
}

// Graph is the exchange-rate graph for one detection pass. Vertices are the
// full configured universe in sorted order, independent of which edges could
// be quoted; iteration over the explicit slices keeps detection deterministic.
// A Graph is built fresh per pass and never mutated afterwards.
type Graph struct {
	Vertices []CurrencyCode
	Edges    []Edge
}

// EdgeBetween returns the edge from one currency to another, if the graph has
// one. The builder produces at most one edge per ordered currency pair.
func (g Graph) EdgeBetween(from, to CurrencyCode) (Edge, bool) {
	for _, e := range g.Edges {
		if e.From == from && e.To == to {
			return e, true
		}
	}
	return Edge{}, false
}

// Cycle is an ordered currency sequence starting and ending at the same
// vertex, e.g. [AUD BTC USD AUD].
type Cycle []CurrencyCode

// Closed reports whether the cycle has at least one hop and ends where it
// started.
func (c Cycle) Closed() bool {
	return len(c) >= 3 && c[0] == c[len(c)-1]
}

// Distinct returns the number of distinct currencies in the cycle.
func (c Cycle) Distinct() int {
	seen := make(map[CurrencyCode]struct{}, len(c))
	for _, cur := range c {
		seen[cur] = struct{}{}
	}
	return len(seen)
}

// CanonicalID returns the deduplication key for the cycle. The closing vertex
// is dropped and the sequence is rotated so the lexicographically smallest
// currency leads, making the id independent of which vertex the detector
// happened to start reconstruction from. Direction is preserved: A->B->C and
// A->C->B remain distinct opportunities.
func (c Cycle) CanonicalID() string {
	open := []CurrencyCode(c)
	if c.Closed() {
		open = open[:len(open)-1]
	}
	if len(open) == 0 {
		return ""
	}
	min := 0
	for i := 1; i < len(open); i++ {
		if open[i] < open[min] {
			min = i
		}
	}
	rotated := make([]string, 0, len(open))
	for i := 0; i < len(open); i++ {
		rotated = append(rotated, string(open[(min+i)%len(open)]))
	}
	return strings.Join(rotated, "->")
}

// String renders the cycle as "AUD -> BTC -> USD -> AUD".
func (c Cycle) String() string {
	parts := make([]string, len(c))
	for i, cur := range c {
		parts[i] = string(cur)
	}
	return strings.Join(parts, " -> ")
}
