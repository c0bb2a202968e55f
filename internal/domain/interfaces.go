package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Observer receives one snapshot per tick. It is called synchronously from the
// tick that produced the snapshot and must not block for long.
type Observer func(Snapshot)

// PriceSource is what the trading session needs from the market
type PriceSource interface {
	GetPrice(symbol string) (decimal.Decimal, error)
	RecordTrade(symbol string, shares int64) error
	Snapshot() Snapshot
}

// TransactionJournal records executed transactions for audit
type TransactionJournal interface {
	RecordTransaction(ctx context.Context, tx Transaction) error
}
