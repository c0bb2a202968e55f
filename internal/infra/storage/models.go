package storage

import (
	"time"

	"stock_sim/internal/domain"

	"github.com/shopspring/decimal"
)

// TransactionRecord is the journal row for one executed trade.
// Prices are stored as text so no precision is lost to REAL affinity.
type TransactionRecord struct {
	ID        string          `gorm:"primaryKey;size:26"`
	Symbol    string          `gorm:"index;not null"`
	Side      string          `gorm:"size:4;not null"`
	Shares    int64           `gorm:"not null"`
	Price     decimal.Decimal `gorm:"type:text;not null"`
	Timestamp time.Time       `gorm:"index;not null"`
}

func (TransactionRecord) TableName() string { return "transactions" }

func newTransactionRecord(tx domain.Transaction) *TransactionRecord {
	return &TransactionRecord{
		ID:        tx.ID,
		Symbol:    tx.Symbol,
		Side:      string(tx.Side),
		Shares:    tx.Shares,
		Price:     tx.Price,
		Timestamp: tx.Timestamp,
	}
}

// Transaction converts the row back to the domain type
func (r TransactionRecord) Transaction() domain.Transaction {
	return domain.Transaction{
		ID:        r.ID,
		Symbol:    r.Symbol,
		Shares:    r.Shares,
		Price:     r.Price,
		Side:      domain.Side(r.Side),
		Timestamp: r.Timestamp,
	}
}

// InstrumentInfo is the catalogue entry written for every listed symbol at startup.
type InstrumentInfo struct {
	Symbol       string          `gorm:"primaryKey"`
	InitialPrice decimal.Decimal `gorm:"type:text;not null"`
	IsFavorite   bool            `gorm:"default:false"`
	UpdatedAt    time.Time
}

func (InstrumentInfo) TableName() string { return "instruments" }
