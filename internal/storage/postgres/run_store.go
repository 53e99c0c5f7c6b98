package postgres

import (
	"context"
	"fmt"

	"tradesim-lab/internal/domain"
	"tradesim-lab/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

// Insert adds a run record. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, r *domain.RunRecord) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO runs (
			run_id, strategy, symbol, created_at,
			start_balance, final_balance,
			trade_count, win_count, lose_count,
			max_drawdown_pct, profit_factor
		) VALUES (
			$1, $2, $3, $4,
			$5, $6,
			$7, $8, $9,
			$10, $11
		)
	`
	_, err := s.pool.Exec(ctx, query,
		r.RunID, r.Strategy, r.Symbol, r.CreatedAt,
		r.StartBalance, r.FinalBalance,
		r.TradeCount, r.WinCount, r.LoseCount,
		r.MaxDrawdownPct, r.ProfitFactor,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.RunRecord, error) {
	query := `
		SELECT run_id, strategy, symbol, created_at,
		       start_balance, final_balance,
		       trade_count, win_count, lose_count,
		       max_drawdown_pct, profit_factor
		FROM runs
		WHERE run_id = $1
	`
	var r domain.RunRecord
	err := s.pool.QueryRow(ctx, query, runID).Scan(
		&r.RunID, &r.Strategy, &r.Symbol, &r.CreatedAt,
		&r.StartBalance, &r.FinalBalance,
		&r.TradeCount, &r.WinCount, &r.LoseCount,
		&r.MaxDrawdownPct, &r.ProfitFactor,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &r, nil
}

// List retrieves all runs, most recent first.
func (s *RunStore) List(ctx context.Context) ([]*domain.RunRecord, error) {
	query := `
		SELECT run_id, strategy, symbol, created_at,
		       start_balance, final_balance,
		       trade_count, win_count, lose_count,
		       max_drawdown_pct, profit_factor
		FROM runs
		ORDER BY created_at DESC
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var result []*domain.RunRecord
	for rows.Next() {
		var r domain.RunRecord
		err := rows.Scan(
			&r.RunID, &r.Strategy, &r.Symbol, &r.CreatedAt,
			&r.StartBalance, &r.FinalBalance,
			&r.TradeCount, &r.WinCount, &r.LoseCount,
			&r.MaxDrawdownPct, &r.ProfitFactor,
		)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return result, nil
}
