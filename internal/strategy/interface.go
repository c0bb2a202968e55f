package strategy

import (
	"context"

	"stock_sim/internal/domain"

	"github.com/shopspring/decimal"
)

// ActionType defines the type of trading action
type ActionType int

const (
	ActionBuy  ActionType = iota + 1
	ActionSell // Sell
)

// String returns the string representation of ActionType
func (a ActionType) String() string {
	switch a {
	case ActionBuy:
		return "BUY"
	case ActionSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Side maps the action onto an order side
func (a ActionType) Side() domain.Side {
	if a == ActionSell {
		return domain.SideSell
	}
	return domain.SideBuy
}

// MarshalText renders the action as BUY/SELL in JSON
func (a ActionType) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Action represents a decision made by the strategy
type Action struct {
	Type     ActionType      `json:"type"`
	Symbol   string          `json:"symbol"`
	Price    decimal.Decimal `json:"price"`
	Qty      int64           `json:"qty"`
	ShortSMA decimal.Decimal `json:"short_sma"`
	LongSMA  decimal.Decimal `json:"long_sma"`
	Seq      uint64          `json:"seq"`
}

// Strategy is the interface that all trading strategies must implement.
// It is called synchronously once per instrument per tick.
type Strategy interface {
	// OnQuote is called with the latest state of one instrument.
	// It returns a list of Actions to be executed.
	OnQuote(quote domain.InstrumentSnapshot) []Action
}

// OrderExecutor is what the runner needs to act on signals
type OrderExecutor interface {
	ExecuteOrder(ctx context.Context, req domain.TradeRequest) (domain.Transaction, error)
}
