package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"tradesim-lab/internal/domain"
	"tradesim-lab/internal/storage"
)

// CandleStore implements storage.CandleStore using ClickHouse.
type CandleStore struct {
	conn *Conn
}

// NewCandleStore creates a new CandleStore.
func NewCandleStore(conn *Conn) *CandleStore {
	return &CandleStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CandleStore = (*CandleStore)(nil)

// InsertBulk adds multiple candles. Fails entire batch on duplicate
// (symbol, timeframe, timestamp).
func (s *CandleStore) InsertBulk(ctx context.Context, symbol, timeframe string, candles []domain.Candle) error {
	if symbol == "" || timeframe == "" {
		return storage.ErrInvalidInput
	}
	if len(candles) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[int64]struct{}, len(candles))
	for _, c := range candles {
		ms := c.Timestamp.UnixMilli()
		if _, exists := seen[ms]; exists {
			return storage.ErrDuplicateKey
		}
		seen[ms] = struct{}{}
	}

	// Check for duplicates against existing rows. ClickHouse
	// MergeTree does not enforce uniqueness at insert time.
	stamps := make([]uint64, 0, len(candles))
	for ms := range seen {
		stamps = append(stamps, uint64(ms))
	}
	count, err := s.countStamps(ctx, symbol, timeframe, stamps)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if count > 0 {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO candles (
			symbol, timeframe, timestamp_ms, open, high, low, close, volume
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, c := range candles {
		err = batch.Append(
			symbol, timeframe, uint64(c.Timestamp.UnixMilli()),
			c.Open, c.High, c.Low, c.Close, c.Volume,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetRange retrieves candles within [start, end], ordered by timestamp ASC.
func (s *CandleStore) GetRange(ctx context.Context, symbol, timeframe string, start, end time.Time, limit int) ([]domain.Candle, error) {
	query := `
		SELECT timestamp_ms, open, high, low, close, volume
		FROM candles
		WHERE symbol = ? AND timeframe = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`
	args := []any{symbol, timeframe, uint64(start.UnixMilli()), uint64(end.UnixMilli())}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, uint64(limit))
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query candle range: %w", err)
	}
	defer rows.Close()

	return scanCandles(rows)
}

// LatestTimestamp returns the most recent stored candle time.
func (s *CandleStore) LatestTimestamp(ctx context.Context, symbol, timeframe string) (time.Time, error) {
	query := `
		SELECT max(timestamp_ms), count(*)
		FROM candles
		WHERE symbol = ? AND timeframe = ?
	`
	var maxMs uint64
	var count uint64
	if err := s.conn.QueryRow(ctx, query, symbol, timeframe).Scan(&maxMs, &count); err != nil {
		return time.Time{}, fmt.Errorf("query latest timestamp: %w", err)
	}
	if count == 0 {
		return time.Time{}, storage.ErrNotFound
	}
	return time.UnixMilli(int64(maxMs)).UTC(), nil
}

func (s *CandleStore) countStamps(ctx context.Context, symbol, timeframe string, stamps []uint64) (uint64, error) {
	query := `
		SELECT count(*)
		FROM candles
		WHERE symbol = ? AND timeframe = ? AND timestamp_ms IN (?)
	`
	var count uint64
	err := s.conn.QueryRow(ctx, query, symbol, timeframe, stamps).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func scanCandles(rows driver.Rows) ([]domain.Candle, error) {
	var result []domain.Candle
	for rows.Next() {
		var ms uint64
		var c domain.Candle
		if err := rows.Scan(&ms, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		c.Timestamp = time.UnixMilli(int64(ms)).UTC()
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candles: %w", err)
	}
	return result, nil
}
