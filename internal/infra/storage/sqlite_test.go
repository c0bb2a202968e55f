package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"stock_sim/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *Storage {
	t.Helper()

	s, err := NewStorage(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndListTransactions(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC)

	txs := []domain.Transaction{
		{ID: "01A", Symbol: "AAPL", Shares: 10, Price: decimal.RequireFromString("150.50"), Side: domain.SideBuy, Timestamp: base},
		{ID: "01B", Symbol: "MSFT", Shares: 3, Price: decimal.RequireFromString("285.75"), Side: domain.SideBuy, Timestamp: base.Add(time.Second)},
		{ID: "01C", Symbol: "AAPL", Shares: 4, Price: decimal.RequireFromString("151.05"), Side: domain.SideSell, Timestamp: base.Add(2 * time.Second)},
	}
	for _, tx := range txs {
		require.NoError(t, s.RecordTransaction(ctx, tx))
	}

	all, err := s.ListTransactions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "01C", all[0].ID, "newest first")
	assert.Equal(t, domain.SideSell, all[0].Side)
	assert.True(t, all[0].Price.Equal(decimal.RequireFromString("151.05")), "price round trip: %s", all[0].Price)
	assert.True(t, all[0].Timestamp.Equal(txs[2].Timestamp))

	latest, err := s.ListTransactions(ctx, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "01B", latest[1].ID)

	n, err := s.CountTransactions(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestRecordTransaction_DuplicateID(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	tx := domain.Transaction{ID: "DUP", Symbol: "AAPL", Shares: 1, Price: decimal.NewFromInt(1), Side: domain.SideBuy, Timestamp: time.Now()}

	require.NoError(t, s.RecordTransaction(ctx, tx))
	assert.Error(t, s.RecordTransaction(ctx, tx))
}

func TestUpsertAndGetInstrument(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	info := &InstrumentInfo{Symbol: "NVDA", InitialPrice: decimal.RequireFromString("420.25")}
	require.NoError(t, s.UpsertInstrument(ctx, info))

	fetched, err := s.GetInstrument(ctx, "NVDA")
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.True(t, fetched.InitialPrice.Equal(decimal.RequireFromString("420.25")))

	// Update
	info.InitialPrice = decimal.RequireFromString("421")
	require.NoError(t, s.UpsertInstrument(ctx, info))
	fetched, _ = s.GetInstrument(ctx, "NVDA")
	assert.True(t, fetched.InitialPrice.Equal(decimal.NewFromInt(421)))

	missing, err := s.GetInstrument(ctx, "NOPE")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGetAllInstruments_Sorted(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	for _, sym := range []string{"TSLA", "AAPL", "META"} {
		require.NoError(t, s.UpsertInstrument(ctx, &InstrumentInfo{Symbol: sym, InitialPrice: decimal.NewFromInt(1)}))
	}

	all, err := s.GetAllInstruments(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"AAPL", "META", "TSLA"}, []string{all[0].Symbol, all[1].Symbol, all[2].Symbol})
}

func TestToggleFavorite(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertInstrument(ctx, &InstrumentInfo{Symbol: "FAV", InitialPrice: decimal.NewFromInt(1)}))

	isFav, err := s.ToggleFavorite(ctx, "FAV")
	require.NoError(t, err)
	assert.True(t, isFav)

	isFav, _ = s.ToggleFavorite(ctx, "FAV")
	assert.False(t, isFav)

	_, err = s.ToggleFavorite(ctx, "NOPE")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestNewStorage_EmptyPath(t *testing.T) {
	_, err := NewStorage("")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
