package domain

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Portfolio is the share ledger: holdings per symbol plus an append-only
// transaction log. It knows nothing about cash; the funds check belongs to
// the trading session that calls Buy.
type Portfolio struct {
	mu           sync.Mutex
	holdings     map[string]int64
	transactions []Transaction

	now func() time.Time
}

// NewPortfolio creates an empty portfolio.
func NewPortfolio() *Portfolio {
	return &Portfolio{
		holdings:     make(map[string]int64),
		transactions: make([]Transaction, 0),
		now:          time.Now,
	}
}

// Buy adds shares to the holding and appends a BUY transaction.
func (p *Portfolio) Buy(symbol string, shares int64, price decimal.Decimal) (Transaction, error) {
	if err := validateOrder(symbol, shares, price); err != nil {
		return Transaction{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.holdings[symbol] += shares
	tx := newTransaction(symbol, shares, price, SideBuy, p.now())
	p.transactions = append(p.transactions, tx)
	return tx, nil
}

// Sell removes shares from the holding and appends a SELL transaction.
// Nothing changes when the holding is smaller than shares.
func (p *Portfolio) Sell(symbol string, shares int64, price decimal.Decimal) (Transaction, error) {
	if err := validateOrder(symbol, shares, price); err != nil {
		return Transaction{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	held := p.holdings[symbol]
	if held < shares {
		return Transaction{}, fmt.Errorf("%w: %s need %d, held %d",
			ErrInsufficientShares, symbol, shares, held)
	}

	if remaining := held - shares; remaining == 0 {
		delete(p.holdings, symbol)
	} else {
		p.holdings[symbol] = remaining
	}

	tx := newTransaction(symbol, shares, price, SideSell, p.now())
	p.transactions = append(p.transactions, tx)
	return tx, nil
}

// CurrentHolding returns the share count, 0 for symbols never held.
func (p *Portfolio) CurrentHolding(symbol string) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.holdings[symbol]
}

// HoldingsSnapshot returns a copy of all non-zero holdings.
func (p *Portfolio) HoldingsSnapshot() map[string]int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	result := make(map[string]int64, len(p.holdings))
	for k, v := range p.holdings {
		result[k] = v
	}
	return result
}

// TransactionHistory returns the log oldest first.
func (p *Portfolio) TransactionHistory() []Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()

	result := make([]Transaction, len(p.transactions))
	copy(result, p.transactions)
	return result
}

// Valuate computes the market value of all holdings.
// prices: map of symbol -> current price.
// Symbols without a price are skipped rather than valued at zero.
func (p *Portfolio) Valuate(prices map[string]decimal.Decimal) decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()

	total := decimal.Zero
	for symbol, shares := range p.holdings {
		price, ok := prices[symbol]
		if !ok {
			continue
		}
		total = total.Add(price.Mul(decimal.NewFromInt(shares)))
	}
	return total
}

func validateOrder(symbol string, shares int64, price decimal.Decimal) error {
	if symbol == "" {
		return fmt.Errorf("%w: empty symbol", ErrInvalidArgument)
	}
	if shares <= 0 {
		return fmt.Errorf("%w: shares must be positive, got %d", ErrInvalidArgument, shares)
	}
	if !price.IsPositive() {
		return fmt.Errorf("%w: price must be positive, got %s", ErrInvalidArgument, price)
	}
	return nil
}
