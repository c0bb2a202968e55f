package strategy

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"stock_sim/internal/domain"
)

// Runner feeds every snapshot to its strategies and, with auto-trade on,
// turns their actions into orders.
type Runner struct {
	mu         sync.Mutex
	strategies []Strategy
	executor   OrderExecutor // nil = signals only
	listeners  []func(Action)

	orderTimeout time.Duration
}

// NewRunner creates a runner. executor may be nil to only emit signals.
func NewRunner(executor OrderExecutor, strategies ...Strategy) *Runner {
	return &Runner{
		strategies:   strategies,
		executor:     executor,
		orderTimeout: 5 * time.Second,
	}
}

// OnAction registers a listener for emitted signals
func (r *Runner) OnAction(fn func(Action)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// OnSnapshot is the market observer. Strategies hold state, so calls are serialized.
func (r *Runner) OnSnapshot(snap domain.Snapshot) {
	r.mu.Lock()
	var actions []Action
	for _, quote := range snap.All() {
		for _, strat := range r.strategies {
			for _, a := range strat.OnQuote(quote) {
				a.Seq = snap.Seq()
				actions = append(actions, a)
			}
		}
	}
	listeners := make([]func(Action), len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.Unlock()

	for _, action := range actions {
		slog.Info("STRATEGY_ACTION",
			slog.String("type", action.Type.String()),
			slog.String("symbol", action.Symbol),
			slog.String("price", action.Price.String()),
			slog.Uint64("seq", action.Seq),
		)
		for _, fn := range listeners {
			fn(action)
		}
		r.execute(action)
	}
}

func (r *Runner) execute(action Action) {
	if r.executor == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.orderTimeout)
	defer cancel()

	req := domain.TradeRequest{Symbol: action.Symbol, Quantity: action.Qty, Side: action.Type.Side()}
	if _, err := r.executor.ExecuteOrder(ctx, req); err != nil {
		// rejections are expected, e.g. a dead cross with nothing held
		slog.Debug("Strategy order not filled", slog.String("symbol", action.Symbol), slog.Any("error", err))
	}
}
