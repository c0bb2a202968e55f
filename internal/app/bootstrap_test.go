package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"stock_sim/internal/infra"
)

func writeTestConfig(t *testing.T, mutate func(*infra.Config)) string {
	t.Helper()

	dir := t.TempDir()
	cfg := infra.DefaultConfig()
	cfg.Server.Enabled = false
	cfg.Storage.Path = filepath.Join(dir, "data", "test.db")
	cfg.Logging.Dir = filepath.Join(dir, "logs")
	cfg.Market.TickIntervalMS = 5
	if mutate != nil {
		mutate(cfg)
	}

	path := filepath.Join(dir, "config.yaml")
	if err := infra.SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	return path
}

func TestBootstrap_Initialize(t *testing.T) {
	b := NewBootstrap()
	if err := b.Initialize(writeTestConfig(t, nil)); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer b.Close()

	if got := len(b.Market.GetAllInstruments()); got != 8 {
		t.Errorf("Expected 8 instruments, got %d", got)
	}
	if got := len(b.Prices.GetAllData()); got != 8 {
		t.Errorf("Price board should be seeded with 8 quotes, got %d", got)
	}
	if !b.Session.Cash().Equal(b.Config.Account.StartingCash) {
		t.Errorf("Expected starting cash %s, got %s", b.Config.Account.StartingCash, b.Session.Cash())
	}
	if b.Storage == nil {
		t.Error("Storage should be open")
	}
}

func TestBootstrap_InitializeInvalidConfig(t *testing.T) {
	path := writeTestConfig(t, func(c *infra.Config) { c.Market.Instruments = nil })

	if err := NewBootstrap().Initialize(path); err == nil {
		t.Error("Expected error for config without instruments")
	}
}

func TestBootstrap_SyncInstruments(t *testing.T) {
	b := NewBootstrap()
	if err := b.Initialize(writeTestConfig(t, nil)); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer b.Close()
	ctx := context.Background()

	b.SyncInstruments(ctx)

	infos, err := b.Storage.GetAllInstruments(ctx)
	if err != nil {
		t.Fatalf("GetAllInstruments failed: %v", err)
	}
	if len(infos) != 8 {
		t.Fatalf("Expected 8 catalogue entries, got %d", len(infos))
	}

	// favourites survive a resync
	if _, err := b.Storage.ToggleFavorite(ctx, "NVDA"); err != nil {
		t.Fatalf("ToggleFavorite failed: %v", err)
	}
	b.SyncInstruments(ctx)

	nvda, _ := b.Storage.GetInstrument(ctx, "NVDA")
	if nvda == nil || !nvda.IsFavorite {
		t.Error("Expected NVDA to stay favorite after resync")
	}
	if favs := b.Prices.Favorites(); len(favs) != 1 || favs[0] != "NVDA" {
		t.Errorf("Expected watchlist [NVDA], got %v", favs)
	}
}

func TestBootstrap_RunTicksAndStops(t *testing.T) {
	b := NewBootstrap()
	if err := b.Initialize(writeTestConfig(t, nil)); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- b.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for b.Prices.Latest().Seq() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if b.Prices.Latest().Seq() == 0 {
		t.Error("Price board never received a tick")
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run returned error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if b.Market.Running() {
		t.Error("Market should be stopped after Run returns")
	}
}

func TestBootstrap_StorageDisabled(t *testing.T) {
	path := writeTestConfig(t, func(c *infra.Config) { c.Storage.Enabled = false })

	b := NewBootstrap()
	if err := b.Initialize(path); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if b.Storage != nil {
		t.Error("Storage should stay closed when disabled")
	}
	b.SyncInstruments(context.Background())

	if _, err := os.Stat(filepath.Join(filepath.Dir(path), "data")); !os.IsNotExist(err) {
		t.Error("No database directory should be created")
	}
}

func TestBootstrap_StrategyWiring(t *testing.T) {
	path := writeTestConfig(t, func(c *infra.Config) {
		c.Strategy.Enabled = true
		c.Strategy.Symbols = []string{"AAPL"}
		c.Strategy.ShortPeriod = 2
		c.Strategy.LongPeriod = 3
	})

	b := NewBootstrap()
	if err := b.Initialize(path); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer b.Close()

	if b.Signals == nil {
		t.Fatal("Expected strategy runner to be built")
	}

	// ticking with the runner subscribed must not disturb the session
	for i := 0; i < 10; i++ {
		b.Market.Tick()
	}
	if !b.Session.Cash().Equal(b.Config.Account.StartingCash) {
		t.Errorf("Signals-only mode must not trade, cash is %s", b.Session.Cash())
	}
}
