package domain

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// CashAccount holds the session's money. The balance never goes negative:
// Debit refuses instead of overdrawing.
type CashAccount struct {
	mu       sync.RWMutex
	currency string
	amount   decimal.Decimal
}

// NewCashAccount opens an account with a starting deposit.
func NewCashAccount(currency string, initial decimal.Decimal) (*CashAccount, error) {
	if initial.IsNegative() {
		return nil, fmt.Errorf("%w: starting cash must not be negative, got %s", ErrInvalidArgument, initial)
	}
	return &CashAccount{currency: currency, amount: initial}, nil
}

// Currency returns the account currency code
func (a *CashAccount) Currency() string { return a.currency }

// Available returns the current balance.
func (a *CashAccount) Available() decimal.Decimal {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.amount
}

// CanAfford reports whether amount could be debited right now.
func (a *CashAccount) CanAfford(amount decimal.Decimal) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return amount.LessThanOrEqual(a.amount)
}

// Credit adds funds to the balance.
func (a *CashAccount) Credit(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: credit must not be negative, got %s", ErrInvalidArgument, amount)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.amount = a.amount.Add(amount)
	return nil
}

// Debit removes funds from the balance.
func (a *CashAccount) Debit(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: debit must not be negative, got %s", ErrInvalidArgument, amount)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if amount.GreaterThan(a.amount) {
		return fmt.Errorf("%w: need %s %s, available %s",
			ErrInsufficientFunds, amount.StringFixed(PricePrecision), a.currency, a.amount.StringFixed(PricePrecision))
	}
	a.amount = a.amount.Sub(amount)
	return nil
}

// VerifyInvariant checks that the balance is non-negative.
func (a *CashAccount) VerifyInvariant() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.amount.IsNegative() {
		return fmt.Errorf("CASH_INVARIANT_NEGATIVE_AMOUNT: %s = %s", a.currency, a.amount)
	}
	return nil
}
