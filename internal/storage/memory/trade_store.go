package memory

import (
	"context"
	"sync"

	"tradesim-lab/internal/domain"
	"tradesim-lab/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu   sync.RWMutex
	data map[string][]domain.TradeLogRow // keyed by run_id, insertion order
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{data: make(map[string][]domain.TradeLogRow)}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// InsertBulk appends trade rows for a run.
func (s *TradeStore) InsertBulk(_ context.Context, runID string, rows []domain.TradeLogRow) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[runID] = append(s.data[runID], rows...)
	return nil
}

// GetByRunID retrieves all trade rows for a run in insertion order.
func (s *TradeStore) GetByRunID(_ context.Context, runID string) ([]domain.TradeLogRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.data[runID]
	result := make([]domain.TradeLogRow, len(rows))
	copy(result, rows)
	return result, nil
}
