package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"sync"
	"time"

	"stock_sim/internal/domain"
	"stock_sim/internal/infra"

	"github.com/shopspring/decimal"
)

// Rand is the randomness the tick draws from. *rand.Rand satisfies it.
type Rand interface {
	NormFloat64() float64
	Float64() float64
}

// Config holds the random walk parameters.
type Config struct {
	Volatility    float64         // standard deviation of the per-tick gaussian move
	SentimentBand float64         // half-width of the uniform sentiment drift
	MinPrice      decimal.Decimal // floor applied after rounding
	Interval      time.Duration   // default tick period for Start
	Precision     int32           // decimal places prices are rounded to
}

// DefaultConfig returns a 2% volatility walk ticking every 2 seconds.
func DefaultConfig() Config {
	return Config{
		Volatility:    0.02,
		SentimentBand: 0.005,
		MinPrice:      decimal.NewFromFloat(0.01),
		Interval:      2 * time.Second,
		Precision:     domain.PricePrecision,
	}
}

// SubscriptionID identifies a registered observer.
type SubscriptionID uint64

type subscription struct {
	id SubscriptionID
	fn domain.Observer
}

type runState struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Market owns every instrument and reprices them on each tick.
//
// Repricing and snapshot construction happen under a single write lock so readers
// never see a half-updated market. Observers run after the lock is released.
type Market struct {
	cfg Config

	mu          sync.RWMutex
	instruments map[string]*domain.Instrument
	rng         Rand // guarded by mu
	seq         uint64

	// tickMu serializes whole ticks so observers see snapshots in seq order.
	tickMu sync.Mutex

	obsMu     sync.Mutex
	observers []subscription
	nextSubID SubscriptionID

	runMu sync.Mutex
	run   *runState

	metrics *infra.Metrics
	now     func() time.Time
}

// NewMarket creates an empty market. A nil rng uses a time-seeded source.
func NewMarket(cfg Config, rng Rand) *Market {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if !cfg.MinPrice.IsPositive() {
		cfg.MinPrice = def.MinPrice
	}
	if cfg.Precision <= 0 {
		cfg.Precision = def.Precision
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Market{
		cfg:         cfg,
		instruments: make(map[string]*domain.Instrument),
		rng:         rng,
		metrics:     infra.GlobalMetrics,
		now:         time.Now,
	}
}

// Config returns the walk parameters in use
func (m *Market) Config() Config { return m.cfg }

// AddInstrument lists a new symbol. Registering a symbol twice fails with
// ErrDuplicateSymbol and leaves the existing instrument untouched.
func (m *Market) AddInstrument(symbol string, initialPrice decimal.Decimal) error {
	inst, err := domain.NewInstrument(symbol, initialPrice)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.instruments[symbol]; exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateSymbol, symbol)
	}
	m.instruments[symbol] = inst
	return nil
}

// Tick reprices every instrument once and notifies observers with the result.
func (m *Market) Tick() domain.Snapshot {
	m.tickMu.Lock()
	defer m.tickMu.Unlock()

	start := time.Now()
	snap := m.reprice()
	m.metrics.RecordTick(time.Since(start))

	for _, sub := range m.subscribers() {
		sub.fn(snap)
	}
	return snap
}

func (m *Market) reprice() domain.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, inst := range m.instruments {
		next := m.nextPrice(inst.Price())
		if err := inst.SetPrice(next); err != nil {
			// nextPrice never returns below MinPrice
			slog.Error("Reprice rejected",
				slog.String("symbol", inst.Symbol()),
				slog.String("price", next.String()),
				slog.Any("error", err),
			)
		}
	}
	m.seq++
	return m.snapshotLocked()
}

// nextPrice applies price * (1 + vol + sentiment), rounded and floored.
// Must be called with mu held.
func (m *Market) nextPrice(price decimal.Decimal) decimal.Decimal {
	vol := m.rng.NormFloat64() * m.cfg.Volatility
	sentiment := (m.rng.Float64() - 0.5) * 2 * m.cfg.SentimentBand

	factor := decimal.NewFromFloat(1 + vol + sentiment)
	next := price.Mul(factor).Round(m.cfg.Precision)
	if next.LessThan(m.cfg.MinPrice) {
		return m.cfg.MinPrice
	}
	return next
}

func (m *Market) snapshotLocked() domain.Snapshot {
	list := make([]domain.InstrumentSnapshot, 0, len(m.instruments))
	for _, inst := range m.instruments {
		list = append(list, inst.Snapshot())
	}
	return domain.NewSnapshot(m.seq, m.now(), list)
}

// Subscribe registers an observer. Observers are called in registration order.
// They run on the ticking goroutine and must not call Tick or Stop.
func (m *Market) Subscribe(fn domain.Observer) SubscriptionID {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()

	m.nextSubID++
	m.observers = append(m.observers, subscription{id: m.nextSubID, fn: fn})
	m.metrics.SetSubscribers(len(m.observers))
	return m.nextSubID
}

// Unsubscribe removes an observer. Unknown ids report false.
func (m *Market) Unsubscribe(id SubscriptionID) bool {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()

	for i, sub := range m.observers {
		if sub.id == id {
			m.observers = append(m.observers[:i:i], m.observers[i+1:]...)
			m.metrics.SetSubscribers(len(m.observers))
			return true
		}
	}
	return false
}

func (m *Market) subscribers() []subscription {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()

	result := make([]subscription, len(m.observers))
	copy(result, m.observers)
	return result
}

// Start begins ticking every interval until Stop is called or ctx is done.
// interval <= 0 uses the configured default. Starting a running market is a no-op.
func (m *Market) Start(ctx context.Context, interval time.Duration) {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if m.runningLocked() {
		slog.Debug("Start ignored", slog.Any("reason", domain.ErrAlreadyStarted))
		return
	}
	if interval <= 0 {
		interval = m.cfg.Interval
	}

	runCtx, cancel := context.WithCancel(ctx)
	state := &runState{cancel: cancel, done: make(chan struct{})}
	m.run = state
	m.metrics.SetRunning(true)

	go m.loop(runCtx, interval, state.done)
	slog.Info("Market simulation started", slog.Duration("interval", interval))
}

// Stop halts ticking and waits for the loop to exit. Stopping a stopped market is a no-op.
func (m *Market) Stop() {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if m.run == nil {
		slog.Debug("Stop ignored", slog.Any("reason", domain.ErrNotStarted))
		return
	}

	m.run.cancel()
	<-m.run.done
	m.run = nil
	m.metrics.SetRunning(false)
	slog.Info("Market simulation stopped")
}

// Running reports whether the tick loop is active.
func (m *Market) Running() bool {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	return m.runningLocked()
}

func (m *Market) runningLocked() bool {
	if m.run == nil {
		return false
	}
	select {
	case <-m.run.done:
		return false
	default:
		return true
	}
}

func (m *Market) loop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("CRITICAL_PANIC_DETECTED", slog.Any("panic", r))
			if err := m.DumpState("panic_dump.json"); err != nil {
				slog.Error("Failed to dump state", slog.Any("error", err))
			}
			m.metrics.SetRunning(false)
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Tick()
		}
	}
}

// GetInstrument returns a copy of one instrument.
func (m *Market) GetInstrument(symbol string) (domain.InstrumentSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	inst, ok := m.instruments[symbol]
	if !ok {
		return domain.InstrumentSnapshot{}, fmt.Errorf("%w: %s", domain.ErrNotFound, symbol)
	}
	return inst.Snapshot(), nil
}

// GetAllInstruments returns copies of every instrument keyed by symbol.
func (m *Market) GetAllInstruments() map[string]domain.InstrumentSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]domain.InstrumentSnapshot, len(m.instruments))
	for symbol, inst := range m.instruments {
		result[symbol] = inst.Snapshot()
	}
	return result
}

// GetPrice returns the current price. Unknown symbols fail with ErrNotFound.
func (m *Market) GetPrice(symbol string) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	inst, ok := m.instruments[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", domain.ErrNotFound, symbol)
	}
	return inst.Price(), nil
}

// Snapshot returns the current market stamped with the last tick number.
func (m *Market) Snapshot() domain.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

// RecordTrade adds executed shares to the symbol's volume.
func (m *Market) RecordTrade(symbol string, shares int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst, ok := m.instruments[symbol]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, symbol)
	}
	return inst.IncrementVolume(shares)
}

// RolloverDay closes the trading day: current prices become the new reference.
func (m *Market) RolloverDay() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, inst := range m.instruments {
		inst.ResetPreviousClose()
	}
	slog.Info("Trading day rolled over", slog.Int("instruments", len(m.instruments)))
}

// DumpState writes the current market to a file (for post-mortem).
func (m *Market) DumpState(filename string) error {
	slog.Info("Dumping market state...", slog.String("file", filename))

	b, err := json.MarshalIndent(m.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := os.WriteFile(filename, b, 0644); err != nil {
		return fmt.Errorf("write state dump: %w", err)
	}
	return nil
}
var _ domain.PriceSource = (*Market)(nil)
