package service

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"stock_sim/internal/domain"
	"stock_sim/pkg/id"

	"github.com/shopspring/decimal"
)

// PriceLookup resolves the current price of a symbol
type PriceLookup interface {
	GetPrice(symbol string) (decimal.Decimal, error)
}

// AlertService evaluates price alerts against every snapshot.
//
// One-shot alerts deactivate after firing. Persistent alerts stay active but
// fire once per crossing: they re-arm when the price is back on the far side
// of the target.
type AlertService struct {
	mu        sync.Mutex
	prices    PriceLookup
	alerts    map[string]*domain.AlertConfig
	triggered map[string]bool
	listeners []func(domain.AlertEvent)
}

// NewAlertService creates an empty alert book
func NewAlertService(prices PriceLookup) *AlertService {
	return &AlertService{
		prices:    prices,
		alerts:    make(map[string]*domain.AlertConfig),
		triggered: make(map[string]bool),
	}
}

// AddAlert registers an alert. The direction comes from the current price:
// a target above it waits for a rise, below it for a fall.
func (s *AlertService) AddAlert(symbol string, target decimal.Decimal, persistent bool) (domain.AlertConfig, error) {
	if !target.IsPositive() {
		return domain.AlertConfig{}, fmt.Errorf("%w: alert target must be positive, got %s", domain.ErrInvalidArgument, target)
	}
	current, err := s.prices.GetPrice(symbol)
	if err != nil {
		return domain.AlertConfig{}, fmt.Errorf("add alert: %w", err)
	}

	alert := domain.NewAlertConfig(symbol, target, current, persistent)
	alert.ID = id.New()

	s.mu.Lock()
	s.alerts[alert.ID] = alert
	s.mu.Unlock()

	slog.Info("Alert added",
		slog.String("id", alert.ID),
		slog.String("symbol", symbol),
		slog.String("target", target.String()),
		slog.String("direction", alert.Direction),
	)
	return *alert, nil
}

// RemoveAlert deletes an alert. Unknown ids report false.
func (s *AlertService) RemoveAlert(alertID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.alerts[alertID]; !ok {
		return false
	}
	delete(s.alerts, alertID)
	delete(s.triggered, alertID)
	return true
}

// Alerts returns copies of all alerts ordered by symbol then id
func (s *AlertService) Alerts() []domain.AlertConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]domain.AlertConfig, 0, len(s.alerts))
	for _, a := range s.alerts {
		result = append(result, *a)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Symbol != result[j].Symbol {
			return result[i].Symbol < result[j].Symbol
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// OnAlert registers a listener for fired alerts
func (s *AlertService) OnAlert(fn func(domain.AlertEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// OnSnapshot is the market observer: it checks every active alert against snap.
func (s *AlertService) OnSnapshot(snap domain.Snapshot) {
	events, listeners := s.evaluate(snap)

	for _, ev := range events {
		slog.Info("ALERT_TRIGGERED",
			slog.String("id", ev.Alert.ID),
			slog.String("symbol", ev.Alert.Symbol),
			slog.String("direction", ev.Alert.Direction),
			slog.String("price", ev.Quote.Price.String()),
		)
		for _, fn := range listeners {
			fn(ev)
		}
	}
}

func (s *AlertService) evaluate(snap domain.Snapshot) ([]domain.AlertEvent, []func(domain.AlertEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var events []domain.AlertEvent
	for alertID, alert := range s.alerts {
		quote, ok := snap.Get(alert.Symbol)
		if !ok {
			continue
		}

		if !alert.CheckCondition(quote.Price) {
			delete(s.triggered, alertID)
			continue
		}
		if s.triggered[alertID] {
			continue
		}

		events = append(events, domain.AlertEvent{Alert: *alert, Quote: quote, Seq: snap.Seq()})
		if alert.IsPersistent {
			s.triggered[alertID] = true
		} else {
			alert.SetActive(false)
		}
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Alert.ID < events[j].Alert.ID
	})

	listeners := make([]func(domain.AlertEvent), len(s.listeners))
	copy(listeners, s.listeners)
	return events, listeners
}
