// Package memory provides in-memory store implementations for tests
// and single-process runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tradesim-lab/internal/domain"
	"tradesim-lab/internal/storage"
)

// CandleStore is an in-memory implementation of storage.CandleStore.
type CandleStore struct {
	mu   sync.RWMutex
	data map[string]domain.Candle // keyed by (symbol, timeframe, timestamp)
}

// NewCandleStore creates a new in-memory candle store.
func NewCandleStore() *CandleStore {
	return &CandleStore{data: make(map[string]domain.Candle)}
}

// Compile-time interface check.
var _ storage.CandleStore = (*CandleStore)(nil)

func candleKey(symbol, timeframe string, ts time.Time) string {
	return fmt.Sprintf("%s|%s|%d", symbol, timeframe, ts.UnixMilli())
}

// InsertBulk adds multiple candles. Fails entire batch on duplicate.
func (s *CandleStore) InsertBulk(_ context.Context, symbol, timeframe string, candles []domain.Candle) error {
	if symbol == "" || timeframe == "" {
		return storage.ErrInvalidInput
	}
	if len(candles) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(candles))
	for _, c := range candles {
		if c.Timestamp.IsZero() {
			return storage.ErrInvalidInput
		}
		key := candleKey(symbol, timeframe, c.Timestamp)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, c := range candles {
		s.data[candleKey(symbol, timeframe, c.Timestamp)] = c
	}
	return nil
}

// GetRange retrieves candles within [start, end], ordered by timestamp ASC.
func (s *CandleStore) GetRange(_ context.Context, symbol, timeframe string, start, end time.Time, limit int) ([]domain.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := symbol + "|" + timeframe + "|"
	var result []domain.Candle
	for key, c := range s.data {
		if len(key) < len(prefix) || key[:len(prefix)] != prefix {
			continue
		}
		if c.Timestamp.Before(start) || c.Timestamp.After(end) {
			continue
		}
		result = append(result, c)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// LatestTimestamp returns the most recent stored candle time for the key.
func (s *CandleStore) LatestTimestamp(_ context.Context, symbol, timeframe string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := symbol + "|" + timeframe + "|"
	var latest time.Time
	found := false
	for key, c := range s.data {
		if len(key) < len(prefix) || key[:len(prefix)] != prefix {
			continue
		}
		if !found || c.Timestamp.After(latest) {
			latest = c.Timestamp
			found = true
		}
	}
	if !found {
		return time.Time{}, storage.ErrNotFound
	}
	return latest, nil
}
