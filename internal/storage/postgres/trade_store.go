package postgres

import (
	"context"
	"fmt"

	"tradesim-lab/internal/domain"
	"tradesim-lab/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// InsertBulk appends trade rows for a run atomically. Row order
// within the run is preserved via a sequence column.
func (s *TradeStore) InsertBulk(ctx context.Context, runID string, rows []domain.TradeLogRow) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var next int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(seq), -1) + 1 FROM trade_log WHERE run_id = $1`, runID,
	).Scan(&next)
	if err != nil {
		return fmt.Errorf("next seq: %w", err)
	}

	query := `
		INSERT INTO trade_log (
			run_id, seq, trade_time, side, order_id,
			price, qty, position, realized_pnl, balance, drawdown
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10, $11
		)
	`
	for i, r := range rows {
		_, err := tx.Exec(ctx, query,
			runID, next+i, r.Time, r.Side.String(), r.OrderID,
			r.Price, r.Qty, r.Position, r.RealizedPnL, r.Balance, r.Drawdown,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade row: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByRunID retrieves all trade rows for a run in insertion order.
func (s *TradeStore) GetByRunID(ctx context.Context, runID string) ([]domain.TradeLogRow, error) {
	query := `
		SELECT trade_time, side, order_id, price, qty, position, realized_pnl, balance, drawdown
		FROM trade_log
		WHERE run_id = $1
		ORDER BY seq ASC
	`
	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query trade log: %w", err)
	}
	defer rows.Close()

	var result []domain.TradeLogRow
	for rows.Next() {
		var r domain.TradeLogRow
		var side string
		err := rows.Scan(&r.Time, &side, &r.OrderID, &r.Price, &r.Qty, &r.Position, &r.RealizedPnL, &r.Balance, &r.Drawdown)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}
		if side == domain.SideLong.String() {
			r.Side = domain.SideLong
		} else {
			r.Side = domain.SideShort
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}
	return result, nil
}
