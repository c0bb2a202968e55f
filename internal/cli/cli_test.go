package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"stock_sim/internal/domain"
	"stock_sim/internal/infra/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "stocksim "+Version)
}

func TestConfigInitAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stocksim.yaml")

	out, err := execute(t, "config", "init", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)
	assert.FileExists(t, path)

	out, err = execute(t, "config", "validate", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Instruments: 8")
	assert.Contains(t, out, "$10000.00")
}

func TestConfigValidate_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("market:\n  tick_interval_ms: -1\n"), 0644))

	_, err := execute(t, "config", "validate", "-f", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "market.tick_interval_ms")
}

func TestConfigValidate_RequiresFile(t *testing.T) {
	_, err := execute(t, "config", "validate")
	assert.Error(t, err)
}

func TestJournal(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	store, err := storage.NewStorage(dbPath)
	require.NoError(t, err)

	ctx := context.Background()
	base := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordTransaction(ctx, domain.Transaction{
		ID: "01AAA", Symbol: "AAPL", Shares: 10, Price: decimal.RequireFromString("150.5"), Side: domain.SideBuy, Timestamp: base,
	}))
	require.NoError(t, store.RecordTransaction(ctx, domain.Transaction{
		ID: "01BBB", Symbol: "TSLA", Shares: 2, Price: decimal.RequireFromString("850.25"), Side: domain.SideSell, Timestamp: base.Add(time.Minute),
	}))
	require.NoError(t, store.Close())

	out, err := execute(t, "journal", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "01AAA")
	assert.Contains(t, out, "1505.00")
	assert.Contains(t, out, "1700.50")

	assert.Contains(t, out, "Showing 2 of 2 transactions.")

	out, err = execute(t, "journal", "--db", dbPath, "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "01BBB")
	assert.NotContains(t, out, "01AAA")
	assert.Contains(t, out, "Showing 1 of 2 transactions.")
}

func TestWatch(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "watch.db")

	out, err := execute(t, "watch", "list", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Watchlist is empty.")

	out, err = execute(t, "watch", "add", "nvda", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "NVDA added to watchlist")

	// adding twice keeps it watched
	_, err = execute(t, "watch", "add", "NVDA", "--db", dbPath)
	require.NoError(t, err)
	_, err = execute(t, "watch", "add", "AAPL", "--db", dbPath)
	require.NoError(t, err)

	out, err = execute(t, "watch", "list", "--db", dbPath)
	require.NoError(t, err)
	assert.Equal(t, "AAPL\nNVDA\n", out)

	_, err = execute(t, "watch", "remove", "AAPL", "--db", dbPath)
	require.NoError(t, err)

	store, err := storage.NewStorage(dbPath)
	require.NoError(t, err)
	defer store.Close()

	info, err := store.GetInstrument(context.Background(), "AAPL")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.False(t, info.IsFavorite)
	assert.True(t, info.InitialPrice.Equal(decimal.RequireFromString("150.50")))

	info, err = store.GetInstrument(context.Background(), "NVDA")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.True(t, info.IsFavorite)
}

func TestWatch_UnknownSymbol(t *testing.T) {
	_, err := execute(t, "watch", "add", "IBM", "--db", filepath.Join(t.TempDir(), "watch.db"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestJournal_Empty(t *testing.T) {
	out, err := execute(t, "journal", "--db", filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "No transactions recorded.")
}

func TestRun_StopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stocksim.yaml")
	cfg := []byte(`
market:
  tick_interval_ms: 10
server:
  enabled: false
storage:
  enabled: true
  path: ` + filepath.Join(dir, "run.db") + `
logging:
  dir: ` + filepath.Join(dir, "logs") + `
`)
	require.NoError(t, os.WriteFile(path, cfg, 0644))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- runSimulation(ctx, path, "") }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after context cancel")
	}
}
