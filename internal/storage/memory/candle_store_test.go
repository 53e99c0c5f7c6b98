package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"tradesim-lab/internal/domain"
	"tradesim-lab/internal/storage"
)

func minuteCandles(t0 time.Time, n int) []domain.Candle {
	out := make([]domain.Candle, n)
	for i := range out {
		out[i] = domain.Candle{
			Timestamp: t0.Add(time.Duration(i) * time.Minute),
			Open:      100,
			High:      101,
			Low:       99,
			Close:     100,
			Volume:    1,
		}
	}
	return out
}

func TestCandleStore_InsertAndGetRange(t *testing.T) {
	store := NewCandleStore()
	ctx := context.Background()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := store.InsertBulk(ctx, "BTCUSDT", "1m", minuteCandles(t0, 5)); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetRange(ctx, "BTCUSDT", "1m", t0, t0.Add(10*time.Minute), 0)
	if err != nil {
		t.Fatalf("GetRange failed: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("Candles: got %d, want 5", len(got))
	}
	for i := 1; i < len(got); i++ {
		if !got[i].Timestamp.After(got[i-1].Timestamp) {
			t.Fatalf("Not sorted at %d", i)
		}
	}
}

func TestCandleStore_GetRangeBoundsAndLimit(t *testing.T) {
	store := NewCandleStore()
	ctx := context.Background()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := store.InsertBulk(ctx, "BTCUSDT", "1m", minuteCandles(t0, 10)); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	// Inclusive bounds.
	got, err := store.GetRange(ctx, "BTCUSDT", "1m", t0.Add(2*time.Minute), t0.Add(4*time.Minute), 0)
	if err != nil {
		t.Fatalf("GetRange failed: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("Bounded range: got %d, want 3", len(got))
	}

	// Limit truncates from the front.
	got, err = store.GetRange(ctx, "BTCUSDT", "1m", t0, t0.Add(time.Hour), 4)
	if err != nil {
		t.Fatalf("GetRange failed: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("Limited range: got %d, want 4", len(got))
	}
	if !got[0].Timestamp.Equal(t0) {
		t.Errorf("Limit must keep the earliest rows, first %s", got[0].Timestamp)
	}
}

func TestCandleStore_DuplicateRejected(t *testing.T) {
	store := NewCandleStore()
	ctx := context.Background()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := minuteCandles(t0, 3)

	if err := store.InsertBulk(ctx, "BTCUSDT", "1m", candles); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	// Overlap with stored rows fails the whole batch.
	err := store.InsertBulk(ctx, "BTCUSDT", "1m", minuteCandles(t0.Add(2*time.Minute), 3))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}
	got, _ := store.GetRange(ctx, "BTCUSDT", "1m", t0, t0.Add(time.Hour), 0)
	if len(got) != 3 {
		t.Errorf("Failed batch must not partially insert, got %d rows", len(got))
	}

	// Intra-batch duplicate also fails.
	dup := []domain.Candle{candles[0], candles[0]}
	if err := store.InsertBulk(ctx, "ETHUSDT", "1m", dup); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey for intra-batch duplicate, got %v", err)
	}

	// Same timestamps under another key are fine.
	if err := store.InsertBulk(ctx, "BTCUSDT", "5m", candles); err != nil {
		t.Errorf("Different timeframe rejected: %v", err)
	}
}

func TestCandleStore_InvalidInput(t *testing.T) {
	store := NewCandleStore()
	ctx := context.Background()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := store.InsertBulk(ctx, "", "1m", minuteCandles(t0, 1)); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Empty symbol: got %v", err)
	}
	if err := store.InsertBulk(ctx, "BTCUSDT", "", minuteCandles(t0, 1)); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Empty timeframe: got %v", err)
	}
	if err := store.InsertBulk(ctx, "BTCUSDT", "1m", []domain.Candle{{}}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Zero timestamp: got %v", err)
	}
	if err := store.InsertBulk(ctx, "BTCUSDT", "1m", nil); err != nil {
		t.Errorf("Empty batch should be a no-op: %v", err)
	}
}

func TestCandleStore_LatestTimestamp(t *testing.T) {
	store := NewCandleStore()
	ctx := context.Background()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, err := store.LatestTimestamp(ctx, "BTCUSDT", "1m"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound on empty store, got %v", err)
	}

	if err := store.InsertBulk(ctx, "BTCUSDT", "1m", minuteCandles(t0, 7)); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	got, err := store.LatestTimestamp(ctx, "BTCUSDT", "1m")
	if err != nil {
		t.Fatalf("LatestTimestamp failed: %v", err)
	}
	if !got.Equal(t0.Add(6 * time.Minute)) {
		t.Errorf("LatestTimestamp: got %s, want %s", got, t0.Add(6*time.Minute))
	}
}
