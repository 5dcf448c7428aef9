package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/calweir/triarb/internal/domain"
)

// OpportunityStore implements domain.OpportunityStore using PostgreSQL.
// Profit columns are NUMERIC and cross the wire as strings so no precision is
// lost to binary floats; cycles are TEXT[] and the edge/leg details are jsonb.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

// NewOpportunityStore creates an OpportunityStore backed by the given pool.
func NewOpportunityStore(pool *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

// Insert stores a detected opportunity.
func (s *OpportunityStore) Insert(ctx context.Context, opp domain.ArbitrageOpportunity) error {
	const query = `
		INSERT INTO opportunities (
			id, cycle_id, cycle, edges,
			profit, realized_profit, realizable, legs, detected_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, $9
		)`

	cycle := make([]string, len(opp.Cycle))
	for i, c := range opp.Cycle {
		cycle[i] = string(c)
	}
	edges, err := json.Marshal(opp.Edges)
	if err != nil {
		return fmt.Errorf("postgres: marshal edges %s: %w", opp.ID, err)
	}
	legs, err := json.Marshal(opp.Legs)
	if err != nil {
		return fmt.Errorf("postgres: marshal legs %s: %w", opp.ID, err)
	}

	_, err = s.pool.Exec(ctx, query,
		opp.ID, opp.CycleID, cycle, edges,
		opp.Profit.String(), opp.RealizedProfit.String(), opp.Realizable, legs, opp.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert opportunity %s: %w", opp.ID, err)
	}
	return nil
}

// ListRecent returns the most recent opportunities ordered by detection time.
func (s *OpportunityStore) ListRecent(ctx context.Context, limit int) ([]domain.ArbitrageOpportunity, error) {
	query := `
		SELECT id, cycle_id, cycle, edges,
			profit::text, realized_profit::text, realizable, legs, detected_at
		FROM opportunities ORDER BY detected_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent opportunities: %w", err)
	}
	defer rows.Close()

	var opps []domain.ArbitrageOpportunity
	for rows.Next() {
		var (
			opp            domain.ArbitrageOpportunity
			cycle          []string
			edges, legs    []byte
			profit         string
			realizedProfit string
		)
		if err := rows.Scan(
			&opp.ID, &opp.CycleID, &cycle, &edges,
			&profit, &realizedProfit, &opp.Realizable, &legs, &opp.DetectedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan opportunity: %w", err)
		}

		opp.Cycle = make(domain.Cycle, len(cycle))
		for i, c := range cycle {
			opp.Cycle[i] = domain.CurrencyCode(c)
		}
		if err := json.Unmarshal(edges, &opp.Edges); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal edges %s: %w", opp.ID, err)
		}
		if err := json.Unmarshal(legs, &opp.Legs); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal legs %s: %w", opp.ID, err)
		}
		if opp.Profit, err = decimal.NewFromString(profit); err != nil {
			return nil, fmt.Errorf("postgres: parse profit %s: %w", opp.ID, err)
		}
		if opp.RealizedProfit, err = decimal.NewFromString(realizedProfit); err != nil {
			return nil, fmt.Errorf("postgres: parse realized profit %s: %w", opp.ID, err)
		}
		opps = append(opps, opp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list recent opportunities rows: %w", err)
	}
	return opps, nil
}

// Compile-time interface check.
var _ domain.OpportunityStore = (*OpportunityStore)(nil)
