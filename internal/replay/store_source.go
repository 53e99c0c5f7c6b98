package replay

import (
	"context"
	"time"

	"tradesim-lab/internal/domain"
	"tradesim-lab/internal/storage"
)

// storeSourcePageSize bounds each range query against the store.
const storeSourcePageSize = 5000

// StoreSource streams candles for one symbol and timeframe from a
// CandleStore in pages, keeping memory flat regardless of range size.
type StoreSource struct {
	store     storage.CandleStore
	symbol    string
	timeframe string
	start     time.Time
	end       time.Time

	page []domain.Candle
	pos  int
	next time.Time
	done bool
}

// NewStoreSource creates a source over [start, end] for the key.
func NewStoreSource(store storage.CandleStore, symbol, timeframe string, start, end time.Time) *StoreSource {
	return &StoreSource{
		store:     store,
		symbol:    symbol,
		timeframe: timeframe,
		start:     start,
		end:       end,
		next:      start,
	}
}

// Next returns the next stored candle, fetching a new page on demand.
func (s *StoreSource) Next(ctx context.Context) (domain.Candle, error) {
	if s.pos >= len(s.page) {
		if err := s.fetch(ctx); err != nil {
			return domain.Candle{}, err
		}
	}
	if s.pos >= len(s.page) {
		return domain.Candle{}, ErrEndOfData
	}
	c := s.page[s.pos]
	s.pos++
	return c, nil
}

// Reset rewinds the source to the range start.
func (s *StoreSource) Reset() error {
	s.page = nil
	s.pos = 0
	s.next = s.start
	s.done = false
	return nil
}

func (s *StoreSource) fetch(ctx context.Context) error {
	if s.done {
		return nil
	}
	page, err := s.store.GetRange(ctx, s.symbol, s.timeframe, s.next, s.end, storeSourcePageSize)
	if err != nil {
		return err
	}
	s.page = page
	s.pos = 0
	if len(page) < storeSourcePageSize {
		s.done = true
		return nil
	}
	// Next page starts just past the last candle of this one.
	s.next = page[len(page)-1].Timestamp.Add(time.Millisecond)
	return nil
}

var _ CandleSource = (*StoreSource)(nil)
