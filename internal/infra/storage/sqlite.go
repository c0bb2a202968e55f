package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"stock_sim/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage is the SQLite journal and instrument catalogue
type Storage struct {
	db *gorm.DB
}

// NewStorage opens (or creates) the database at dbPath
func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("%w: empty database path", domain.ErrInvalidArgument)
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return newStorage(db)
}

func newStorage(db *gorm.DB) (*Storage, error) {
	if err := db.AutoMigrate(&TransactionRecord{}, &InstrumentInfo{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close releases the underlying connection pool
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ======================================================================================
// Transaction Journal
// ======================================================================================

// RecordTransaction appends an executed trade to the journal
func (s *Storage) RecordTransaction(ctx context.Context, tx domain.Transaction) error {
	if err := s.db.WithContext(ctx).Create(newTransactionRecord(tx)).Error; err != nil {
		return fmt.Errorf("record transaction %s: %w", tx.ID, err)
	}
	return nil
}

// ListTransactions returns the most recent trades, newest first.
// limit <= 0 returns everything.
func (s *Storage) ListTransactions(ctx context.Context, limit int) ([]domain.Transaction, error) {
	q := s.db.WithContext(ctx).Order("timestamp DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var records []TransactionRecord
	if err := q.Find(&records).Error; err != nil {
		return nil, err
	}

	result := make([]domain.Transaction, 0, len(records))
	for _, r := range records {
		result = append(result, r.Transaction())
	}
	return result, nil
}

// CountTransactions returns the number of journaled trades
func (s *Storage) CountTransactions(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&TransactionRecord{}).Count(&n).Error
	return n, err
}

// ======================================================================================
// Instrument Catalogue
// ======================================================================================

// UpsertInstrument creates or updates instrument metadata
func (s *Storage) UpsertInstrument(ctx context.Context, info *InstrumentInfo) error {
	return s.db.WithContext(ctx).Save(info).Error
}

// GetInstrument retrieves instrument metadata by symbol
func (s *Storage) GetInstrument(ctx context.Context, symbol string) (*InstrumentInfo, error) {
	var info InstrumentInfo
	err := s.db.WithContext(ctx).First(&info, "symbol = ?", symbol).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// GetAllInstruments retrieves the whole catalogue ordered by symbol
func (s *Storage) GetAllInstruments(ctx context.Context) ([]InstrumentInfo, error) {
	var infos []InstrumentInfo
	err := s.db.WithContext(ctx).Order("symbol").Find(&infos).Error
	return infos, err
}

// ToggleFavorite flips the favorite flag of a catalogued instrument
func (s *Storage) ToggleFavorite(ctx context.Context, symbol string) (bool, error) {
	var info InstrumentInfo
	if err := s.db.WithContext(ctx).First(&info, "symbol = ?", symbol).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("%w: %s", domain.ErrNotFound, symbol)
		}
		return false, err
	}

	info.IsFavorite = !info.IsFavorite
	err := s.db.WithContext(ctx).Save(&info).Error
	return info.IsFavorite, err
}

var _ domain.TransactionJournal = (*Storage)(nil)
