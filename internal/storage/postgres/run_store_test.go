package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradesim-lab/internal/domain"
	"tradesim-lab/internal/storage"
)

func createTestRun(id string, createdAt time.Time) *domain.RunRecord {
	return &domain.RunRecord{
		RunID:          id,
		Strategy:       "doten_20",
		Symbol:         "BTCUSDT",
		CreatedAt:      createdAt,
		StartBalance:   1000,
		FinalBalance:   1085.5,
		TradeCount:     12,
		WinCount:       7,
		LoseCount:      5,
		MaxDrawdownPct: 4.2,
		ProfitFactor:   1.6,
	}
}

func TestRunStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunStore(pool)

	run := createTestRun("run-001", time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, store.Insert(ctx, run))

	retrieved, err := store.GetByID(ctx, "run-001")
	require.NoError(t, err)

	assert.Equal(t, run.RunID, retrieved.RunID)
	assert.Equal(t, run.Strategy, retrieved.Strategy)
	assert.Equal(t, run.Symbol, retrieved.Symbol)
	assert.True(t, run.CreatedAt.Equal(retrieved.CreatedAt))
	assert.InDelta(t, run.StartBalance, retrieved.StartBalance, 0.0001)
	assert.InDelta(t, run.FinalBalance, retrieved.FinalBalance, 0.0001)
	assert.Equal(t, run.TradeCount, retrieved.TradeCount)
	assert.Equal(t, run.WinCount, retrieved.WinCount)
	assert.Equal(t, run.LoseCount, retrieved.LoseCount)
	assert.InDelta(t, run.MaxDrawdownPct, retrieved.MaxDrawdownPct, 0.0001)
	assert.InDelta(t, run.ProfitFactor, retrieved.ProfitFactor, 0.0001)
}

func TestRunStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunStore(pool)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Insert(ctx, createTestRun("run-001", now)))

	err := store.Insert(ctx, createTestRun("run-001", now))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestRunStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := NewRunStore(pool).GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRunStore_ListMostRecentFirst(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunStore(pool)
	t0 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, store.Insert(ctx, createTestRun(id, t0.Add(time.Duration(i)*time.Hour))))
	}

	runs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)

	assert.Equal(t, "new", runs[0].RunID)
	assert.Equal(t, "mid", runs[1].RunID)
	assert.Equal(t, "old", runs[2].RunID)
}

func TestRunStore_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunStore(pool)

	assert.ErrorIs(t, store.Insert(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Insert(ctx, &domain.RunRecord{}), storage.ErrInvalidInput)
}
