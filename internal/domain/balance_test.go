package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCashAccount_CreditDebit(t *testing.T) {
	acct, err := NewCashAccount("USD", decimal.NewFromInt(10000))
	if err != nil {
		t.Fatalf("NewCashAccount failed: %v", err)
	}

	if err := acct.Debit(decimal.NewFromFloat(1505.00)); err != nil {
		t.Fatalf("Debit failed: %v", err)
	}
	if err := acct.Credit(decimal.NewFromFloat(5.25)); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}

	expected := decimal.RequireFromString("8500.25")
	if !acct.Available().Equal(expected) {
		t.Errorf("Expected %s, got %s", expected, acct.Available())
	}
	if err := acct.VerifyInvariant(); err != nil {
		t.Errorf("Invariant violated: %v", err)
	}
}

func TestCashAccount_Overdraft(t *testing.T) {
	acct, _ := NewCashAccount("USD", decimal.NewFromInt(100))

	err := acct.Debit(decimal.NewFromFloat(100.01))
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("Expected ErrInsufficientFunds, got %v", err)
	}
	if !acct.Available().Equal(decimal.NewFromInt(100)) {
		t.Errorf("Balance changed on failed debit: %s", acct.Available())
	}

	if !acct.CanAfford(decimal.NewFromInt(100)) {
		t.Error("Should afford exactly the full balance")
	}
	if err := acct.Debit(decimal.NewFromInt(100)); err != nil {
		t.Errorf("Debit of full balance failed: %v", err)
	}
	if !acct.Available().IsZero() {
		t.Errorf("Expected zero balance, got %s", acct.Available())
	}
}

func TestCashAccount_InvalidAmounts(t *testing.T) {
	if _, err := NewCashAccount("USD", decimal.NewFromInt(-1)); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for negative start, got %v", err)
	}

	acct, _ := NewCashAccount("USD", decimal.Zero)
	if err := acct.Credit(decimal.NewFromInt(-5)); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for negative credit, got %v", err)
	}
	if err := acct.Debit(decimal.NewFromInt(-5)); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for negative debit, got %v", err)
	}
}
