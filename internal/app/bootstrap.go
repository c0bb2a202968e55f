package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"stock_sim/internal/api"
	"stock_sim/internal/domain"
	"stock_sim/internal/engine"
	"stock_sim/internal/execution"
	"stock_sim/internal/infra"
	"stock_sim/internal/infra/storage"
	"stock_sim/internal/service"
	"stock_sim/internal/strategy"

	"github.com/shopspring/decimal"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config  *infra.Config
	Storage *storage.Storage // nil when storage is disabled

	Market  *engine.Market
	Session *execution.Session
	Prices  *service.PriceService
	Alerts  *service.AlertService
	Hub     *api.Hub
	Server  *api.Server
	Signals *strategy.Runner // nil when the strategy is disabled

	// Rand overrides the market's random source when set before Initialize.
	Rand engine.Rand
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads configPath (defaults when empty) and builds every component.
func (b *Bootstrap) Initialize(configPath string) error {
	// 1. Load Config
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	slog.SetDefault(infra.NewLogger(cfg))
	slog.Info("🚀 Bootstrapping stock simulator...", slog.String("version", cfg.App.Version))

	// 3. Initialize Storage (DB)
	var journal domain.TransactionJournal
	if cfg.Storage.Enabled {
		store, err := storage.NewStorage(cfg.Storage.Path)
		if err != nil {
			return err
		}
		b.Storage = store
		journal = store
		slog.Info("✅ Database initialized", slog.String("path", cfg.Storage.Path))
	}

	// 4. Market
	b.Market = engine.NewMarket(EngineConfig(cfg), b.Rand)
	for _, inst := range cfg.Market.Instruments {
		if err := b.Market.AddInstrument(inst.Symbol, inst.Price); err != nil {
			return fmt.Errorf("list %s: %w", inst.Symbol, err)
		}
	}
	slog.Info("✅ Market ready", slog.Int("instruments", len(cfg.Market.Instruments)))

	// 5. Session
	b.Session, err = execution.NewSession(b.Market, cfg.Account.StartingCash, journal)
	if err != nil {
		return err
	}

	// 6. Observers: quote board, alerts, websocket feed
	b.Prices = service.NewPriceService()
	b.Prices.ProcessSnapshot(b.Market.Snapshot())
	b.Alerts = service.NewAlertService(b.Market)
	b.Hub = api.NewHub()

	b.Market.Subscribe(b.Prices.OnSnapshot)
	b.Market.Subscribe(b.Alerts.OnSnapshot)
	b.Market.Subscribe(b.Hub.OnSnapshot)
	b.Alerts.OnAlert(b.Hub.OnAlert)

	// 7. Strategy signals
	if cfg.Strategy.Enabled {
		if b.Signals, err = NewStrategyRunner(cfg, b.Session); err != nil {
			return err
		}
		b.Signals.OnAction(b.Hub.OnSignal)
		b.Market.Subscribe(b.Signals.OnSnapshot)
		slog.Info("✅ Strategy enabled",
			slog.Int("symbols", len(cfg.Strategy.Symbols)),
			slog.Bool("auto_trade", cfg.Strategy.AutoTrade),
		)
	}

	b.Server = api.NewServer(b.Hub, b.Prices, b.Session, b.Alerts)
	return nil
}

// EngineConfig maps the market section onto the engine's walk parameters
func EngineConfig(cfg *infra.Config) engine.Config {
	return engine.Config{
		Volatility:    cfg.Market.Volatility,
		SentimentBand: cfg.Market.SentimentBand,
		MinPrice:      cfg.Market.MinPrice,
		Interval:      time.Duration(cfg.Market.TickIntervalMS) * time.Millisecond,
		Precision:     domain.PricePrecision,
	}
}

// NewStrategyRunner builds one SMA crossover per configured symbol.
// Orders go through session only when auto_trade is set.
func NewStrategyRunner(cfg *infra.Config, session *execution.Session) (*strategy.Runner, error) {
	strategies := make([]strategy.Strategy, 0, len(cfg.Strategy.Symbols))
	for _, sym := range cfg.Strategy.Symbols {
		s, err := strategy.NewSMACrossStrategy(sym, cfg.Strategy.ShortPeriod, cfg.Strategy.LongPeriod, cfg.Strategy.Quantity)
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", sym, err)
		}
		strategies = append(strategies, s)
	}

	var executor strategy.OrderExecutor
	if cfg.Strategy.AutoTrade {
		executor = session
	}
	return strategy.NewRunner(executor, strategies...), nil
}

// SyncInstruments writes the instrument catalogue to storage and restores
// the watchlist flags saved there.
func (b *Bootstrap) SyncInstruments(ctx context.Context) {
	if b.Storage == nil {
		return
	}
	slog.Info("🔄 Syncing instrument catalogue...")

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 4) // Limit concurrent writes

	for _, inst := range b.Config.Market.Instruments {
		wg.Add(1)
		go func(sym string, price decimal.Decimal) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}: // Acquire
			}
			defer func() { <-semaphore }() // Release

			info := &storage.InstrumentInfo{
				Symbol:       sym,
				InitialPrice: price,
				UpdatedAt:    time.Now(),
			}

			// Check if exists to preserve IsFavorite
			existing, err := b.Storage.GetInstrument(ctx, sym)
			if err != nil {
				slog.Warn("Failed to read instrument", slog.String("symbol", sym), slog.Any("error", err))
			} else if existing != nil {
				info.IsFavorite = existing.IsFavorite
			}

			if err := b.Storage.UpsertInstrument(ctx, info); err != nil {
				slog.Error("Failed to upsert instrument", slog.String("symbol", sym), slog.Any("error", err))
				return
			}
			if info.IsFavorite {
				b.Prices.SetFavorite(sym, true)
			}
		}(inst.Symbol, inst.Price)
	}

	wg.Wait()
	slog.Info("✨ Instrument catalogue synced", slog.Any("watchlist", b.Prices.Favorites()))
}

// Run starts the simulation and, when enabled, the API server.
// It blocks until ctx is done and then stops everything except storage; call Close after.
func (b *Bootstrap) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	b.Prices.StartSnapshotProcessor(ctx)

	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		b.Hub.Run(ctx)
	}()

	b.Market.Start(ctx, 0)

	var serverErr error
	serverDone := make(chan struct{})
	if b.Config.Server.Enabled {
		go func() {
			defer close(serverDone)
			if err := b.Server.Run(ctx, b.Config.Server.Addr); err != nil {
				serverErr = err
				slog.Error("API server failed", slog.Any("error", err))
				cancel()
			}
		}()
	} else {
		close(serverDone)
	}

	slog.Info("✨ Simulation running. Press Ctrl+C to exit.")
	<-ctx.Done()

	slog.Info("👋 Shutting down gracefully...")
	b.Market.Stop()
	<-serverDone
	<-hubDone

	return serverErr
}

// Close releases storage. Safe to call more than once.
func (b *Bootstrap) Close() error {
	if b.Storage == nil {
		return nil
	}
	err := b.Storage.Close()
	b.Storage = nil
	return err
}
