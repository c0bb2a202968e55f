package strategy_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"stock_sim/internal/domain"
	"stock_sim/internal/strategy"
)

type recordingExecutor struct {
	mu   sync.Mutex
	reqs []domain.TradeRequest
}

func (e *recordingExecutor) ExecuteOrder(_ context.Context, req domain.TradeRequest) (domain.Transaction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reqs = append(e.reqs, req)
	return domain.Transaction{Symbol: req.Symbol, Shares: req.Quantity, Side: req.Side}, nil
}

func snapshotAt(seq uint64, prices map[string]int64) domain.Snapshot {
	list := make([]domain.InstrumentSnapshot, 0, len(prices))
	for symbol, p := range prices {
		list = append(list, quote(symbol, p))
	}
	return domain.NewSnapshot(seq, time.Now(), list)
}

func TestRunner_EmitsAndExecutes(t *testing.T) {
	strat, _ := strategy.NewSMACrossStrategy("AAPL", 2, 3, 5)
	exec := &recordingExecutor{}
	runner := strategy.NewRunner(exec, strat)

	var signals []strategy.Action
	runner.OnAction(func(a strategy.Action) { signals = append(signals, a) })

	// flat, flat, flat, jump: short (100+200)/2=150 > long 133.33
	for i, p := range []int64{100, 100, 100, 200} {
		runner.OnSnapshot(snapshotAt(uint64(i+1), map[string]int64{"AAPL": p, "MSFT": 50}))
	}

	if len(signals) != 1 {
		t.Fatalf("Expected 1 signal, got %d", len(signals))
	}
	if signals[0].Seq != 4 || signals[0].Type != strategy.ActionBuy {
		t.Errorf("Unexpected signal %+v", signals[0])
	}

	if len(exec.reqs) != 1 {
		t.Fatalf("Expected 1 order, got %d", len(exec.reqs))
	}
	want := domain.TradeRequest{Symbol: "AAPL", Quantity: 5, Side: domain.SideBuy}
	if exec.reqs[0] != want {
		t.Errorf("Expected %+v, got %+v", want, exec.reqs[0])
	}
}

func TestRunner_SignalsOnly(t *testing.T) {
	strat, _ := strategy.NewSMACrossStrategy("AAPL", 2, 3, 5)
	runner := strategy.NewRunner(nil, strat)

	count := 0
	runner.OnAction(func(strategy.Action) { count++ })

	for i, p := range []int64{100, 100, 100, 200, 10, 10} {
		runner.OnSnapshot(snapshotAt(uint64(i+1), map[string]int64{"AAPL": p}))
	}

	// golden cross at 200, dead cross on the second 10
	if count != 2 {
		t.Errorf("Expected 2 signals, got %d", count)
	}
}
