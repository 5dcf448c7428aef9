package graph

import (
	"github.com/shopspring/decimal"

	"github.com/calweir/triarb/internal/domain"
)

// relaxTolerance is the minimum improvement required for a relaxation.
// Weights come from Ln with finite precision, so a cycle whose rate product
// is exactly 1 can sum to a residual on the order of 1e-30; without the
// tolerance that residual would flip detection at the zero-weight boundary.
var relaxTolerance = decimal.New(1, -12)

// DetectedCycle is a negative cycle found in a graph, with its matching
// edges and the profit factor implied by their rate product.
type DetectedCycle struct {
	Cycle  domain.Cycle
	ID     string
	Edges  []domain.Edge
	Profit decimal.Decimal
}

// FindNegativeCycles runs Bellman-Ford from every vertex not already claimed
// by a previous discovery, deduplicates by canonical cycle id, and returns
// the distinct negative cycles. Sources are visited in the graph's sorted
// vertex order, so identical snapshots yield identical results.
func FindNegativeCycles(g domain.Graph) []DetectedCycle {
	if len(g.Vertices) < 2 || len(g.Edges) == 0 {
		return nil
	}

	var found []DetectedCycle
	claimed := make(map[domain.CurrencyCode]struct{})
	seen := make(map[string]struct{})

	for _, source := range g.Vertices {
		if _, ok := claimed[source]; ok {
			continue
		}
		cycle := negativeCycleFrom(g, source)
		if cycle == nil {
			continue
		}
		// A 2-hop loop (A -> B -> A) is a crossed spread, not a triangular
		// opportunity.
		if cycle.Distinct() < 3 {
			continue
		}
		id := cycle.CanonicalID()
		if _, dup := seen[id]; dup {
			continue
		}
		edges, ok := cycleEdges(g, cycle)
		if !ok {
			continue
		}
		profit := decimal.New(1, 0)
		for _, e := range edges {
			profit = profit.Mul(e.Rate)
		}
		found = append(found, DetectedCycle{Cycle: cycle, ID: id, Edges: edges, Profit: profit})
		seen[id] = struct{}{}
		for _, cur := range cycle {
			claimed[cur] = struct{}{}
		}
	}
	return found
}

// negativeCycleFrom runs single-source Bellman-Ford and, if an edge is still
// relaxable after |V|-1 rounds, reconstructs the negative cycle it proves.
// Returns nil when no cycle is reachable from source.
func negativeCycleFrom(g domain.Graph, source domain.CurrencyCode) domain.Cycle {
	dist := make(map[domain.CurrencyCode]decimal.Decimal, len(g.Vertices))
	pred := make(map[domain.CurrencyCode]domain.CurrencyCode, len(g.Vertices))
	dist[source] = decimal.Zero

	// Relax all edges |V|-1 times. Absence from dist is the +infinity state.
	for i := 0; i < len(g.Vertices)-1; i++ {
		for _, e := range g.Edges {
			du, ok := dist[e.From]
			if !ok {
				continue
			}
			cand := du.Add(e.Weight)
			if dv, ok := dist[e.To]; !ok || cand.LessThan(dv.Sub(relaxTolerance)) {
				dist[e.To] = cand
				pred[e.To] = e.From
			}
		}
	}

	// One extra scan: any still-relaxable edge proves a negative cycle
	// reachable from source.
	for _, e := range g.Edges {
		du, ok := dist[e.From]
		if !ok {
			continue
		}
		dv, ok := dist[e.To]
		if !ok || du.Add(e.Weight).LessThan(dv.Sub(relaxTolerance)) {
			if cycle := reconstruct(g, pred, e.To); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// reconstruct follows predecessor pointers |V| steps from the endpoint of a
// relaxable edge so the walk lands on a vertex inside the cycle rather than
// on a path leading into it, then collects vertices until the landing vertex
// recurs and reverses the result into chronological order, closed by
// repeating the start. Both walks are bounded; a chain that fails to close
// within |V| hops yields nil.
func reconstruct(g domain.Graph, pred map[domain.CurrencyCode]domain.CurrencyCode, v domain.CurrencyCode) domain.Cycle {
	n := len(g.Vertices)

	curr := v
	for i := 0; i < n; i++ {
		p, ok := pred[curr]
		if !ok {
			return nil
		}
		curr = p
	}

	start := curr
	path := domain.Cycle{}
	for i := 0; i <= n; i++ {
		path = append(path, curr)
		p, ok := pred[curr]
		if !ok {
			return nil
		}
		curr = p
		if curr == start {
			break
		}
		if i == n {
			return nil
		}
	}
	path = append(path, start)

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// cycleEdges collects the graph edge for each consecutive hop of the cycle.
// ok is false when any hop has no matching edge, which means the
// reconstruction walked outside the built graph.
func cycleEdges(g domain.Graph, cycle domain.Cycle) ([]domain.Edge, bool) {
	edges := make([]domain.Edge, 0, len(cycle)-1)
	for i := 0; i < len(cycle)-1; i++ {
		e, ok := g.EdgeBetween(cycle[i], cycle[i+1])
		if !ok {
			return nil, false
		}
		edges = append(edges, e)
	}
	return edges, true
}
