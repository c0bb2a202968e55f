package domain

import (
	"fmt"
	"strings"
	"time"

	"stock_sim/pkg/id"

	"github.com/shopspring/decimal"
)

// Side is the direction of a trade
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ParseSide accepts "buy"/"sell" in any case
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToUpper(strings.TrimSpace(s))) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	default:
		return "", fmt.Errorf("%w: unknown side %q", ErrInvalidArgument, s)
	}
}

// Valid reports whether the side is BUY or SELL
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// TradeRequest is an order issued by the session layer against the current price.
type TradeRequest struct {
	Symbol   string
	Quantity int64
	Side     Side
}

// Validate checks the request shape (not funds or holdings)
func (r TradeRequest) Validate() error {
	if r.Symbol == "" {
		return fmt.Errorf("%w: empty symbol", ErrInvalidArgument)
	}
	if r.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidArgument, r.Quantity)
	}
	if !r.Side.Valid() {
		return fmt.Errorf("%w: unknown side %q", ErrInvalidArgument, r.Side)
	}
	return nil
}

// Transaction is an immutable record of an executed buy or sell.
type Transaction struct {
	ID        string          `json:"id"`
	Symbol    string          `json:"symbol"`
	Shares    int64           `json:"shares"`
	Price     decimal.Decimal `json:"price"`
	Side      Side            `json:"side"`
	Timestamp time.Time       `json:"timestamp"`
}

func newTransaction(symbol string, shares int64, price decimal.Decimal, side Side, at time.Time) Transaction {
	return Transaction{
		ID:        id.NewAt(at),
		Symbol:    symbol,
		Shares:    shares,
		Price:     price,
		Side:      side,
		Timestamp: at,
	}
}

// Total returns shares x price
func (t Transaction) Total() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Shares))
}

func (t Transaction) String() string {
	return fmt.Sprintf("%s: %s %d shares of %s at $%s",
		t.Timestamp.Format(time.RFC3339), t.Side, t.Shares, t.Symbol, t.Price.StringFixed(PricePrecision))
}
