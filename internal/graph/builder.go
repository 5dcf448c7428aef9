// Package graph builds the fee-adjusted exchange-rate graph and finds
// negative-weight cycles in it with Bellman-Ford.
package graph

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/calweir/triarb/internal/domain"
	"github.com/calweir/triarb/internal/pricing"
)

// lnPrecision is the decimal digit count used when taking the natural log of
// an effective rate.
const lnPrecision = 32

// Builder turns a quote snapshot into a directed weighted currency graph.
// Both directions of every configured pair are probed, so the graph carries
// an edge for each orientation that could be quoted.
type Builder struct {
	pricer   *pricing.Pricer
	universe domain.Universe
	probePay decimal.Decimal
	logger   *slog.Logger
}

// NewBuilder creates a Builder. probePay is the nominal pay amount used to
// quote each hop while building edges.
func NewBuilder(pricer *pricing.Pricer, universe domain.Universe, probePay decimal.Decimal, logger *slog.Logger) *Builder {
	return &Builder{
		pricer:   pricer,
		universe: universe,
		probePay: probePay,
		logger:   logger.With(slog.String("component", "graph_builder")),
	}
}

// Build constructs a fresh graph from the snapshot. Vertices are the full
// configured universe regardless of which edges succeed; pairs with no quote
// in either orientation are skipped, never failed. An edge referencing a
// currency outside the universe aborts the build (ErrUnknownCurrency).
func (b *Builder) Build(snap *domain.QuoteSnapshot) (domain.Graph, error) {
	vertices := b.universe.Vertices()
	known := make(map[domain.CurrencyCode]struct{}, len(vertices))
	for _, v := range vertices {
		known[v] = struct{}{}
	}

	g := domain.Graph{Vertices: vertices}
	for _, pair := range b.universe.Pairs() {
		for _, hop := range [][2]domain.CurrencyCode{
			{pair.Base, pair.Quote},
			{pair.Quote, pair.Base},
		} {
			edge, err := b.buildEdge(snap, known, hop[0], hop[1])
			if err != nil {
				if errors.Is(err, domain.ErrNoQuote) {
					continue
				}
				return domain.Graph{}, err
			}
			g.Edges = append(g.Edges, edge)
		}
	}
	return g, nil
}

func (b *Builder) buildEdge(snap *domain.QuoteSnapshot, known map[domain.CurrencyCode]struct{}, from, to domain.CurrencyCode) (domain.Edge, error) {
	if _, ok := known[from]; !ok {
		return domain.Edge{}, fmt.Errorf("graph: edge %s -> %s: %s: %w", from, to, from, domain.ErrUnknownCurrency)
	}
	if _, ok := known[to]; !ok {
		return domain.Edge{}, fmt.Errorf("graph: edge %s -> %s: %s: %w", from, to, to, domain.ErrUnknownCurrency)
	}

	hop, err := b.pricer.Hop(snap, from, to, b.probePay)
	if err != nil {
		return domain.Edge{}, err
	}
	if !hop.Rate.IsPositive() {
		// A quoted book with no executable price at probe size carries no
		// information for the graph; treat it like a missing quote.
		b.logger.Debug("skipping edge with non-positive rate",
			slog.String("from", string(from)),
			slog.String("to", string(to)),
		)
		return domain.Edge{}, fmt.Errorf("graph: edge %s -> %s rate %s: %w", from, to, hop.Rate, domain.ErrNoQuote)
	}

	ln, err := hop.Rate.Ln(lnPrecision)
	if err != nil {
		return domain.Edge{}, fmt.Errorf("graph: edge %s -> %s ln(%s): %w", from, to, hop.Rate, err)
	}

	return domain.Edge{
		From:   from,
		To:     to,
		Side:   hop.Side,
		Venue:  hop.Venue,
		Price:  hop.Price,
		Rate:   hop.Rate,
		Weight: ln.Neg(),
	}, nil
}
