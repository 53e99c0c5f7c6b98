package storage

import (
	"context"
	"time"

	"tradesim-lab/internal/domain"
)

// CandleStore provides access to OHLCV candle storage, keyed by
// (symbol, timeframe, timestamp).
type CandleStore interface {
	// InsertBulk adds multiple candles atomically. Fails the entire
	// batch on any duplicate (symbol, timeframe, timestamp).
	InsertBulk(ctx context.Context, symbol, timeframe string, candles []domain.Candle) error

	// GetRange retrieves candles within [start, end] (inclusive),
	// ordered by timestamp ASC. A limit of 0 means no limit.
	GetRange(ctx context.Context, symbol, timeframe string, start, end time.Time, limit int) ([]domain.Candle, error)

	// LatestTimestamp returns the most recent stored candle time.
	// Returns ErrNotFound when no candles exist for the key.
	LatestTimestamp(ctx context.Context, symbol, timeframe string) (time.Time, error)
}

// TradeStore persists the per-run trade log.
type TradeStore interface {
	// InsertBulk appends trade rows for a run. Rows within a run are
	// keyed by insertion order.
	InsertBulk(ctx context.Context, runID string, rows []domain.TradeLogRow) error

	// GetByRunID retrieves all trade rows for a run in insertion
	// order. Returns an empty slice for an unknown run.
	GetByRunID(ctx context.Context, runID string) ([]domain.TradeLogRow, error)
}

// RunStore persists run summaries.
type RunStore interface {
	// Insert adds a run record. Returns ErrDuplicateKey if the run
	// ID exists.
	Insert(ctx context.Context, r *domain.RunRecord) error

	// GetByID retrieves a run by ID. Returns ErrNotFound if not
	// exists.
	GetByID(ctx context.Context, runID string) (*domain.RunRecord, error)

	// List retrieves all runs, most recent first.
	List(ctx context.Context) ([]*domain.RunRecord, error)
}
