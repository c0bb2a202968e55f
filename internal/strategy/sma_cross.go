package strategy

import (
	"fmt"

	"stock_sim/internal/domain"

	"github.com/shopspring/decimal"
)

// SMACrossStrategy implements a simple SMA Crossover strategy.
// It is stateful and deterministic. Price history lives in a fixed ring buffer.
type SMACrossStrategy struct {
	symbol      string
	shortPeriod int
	longPeriod  int
	qty         int64

	// State (Ring Buffer)
	prices []decimal.Decimal
	head   int             // Current write position
	count  int             // Number of elements filled
	sum    decimal.Decimal // Running sum over the long window

	primed       bool
	prevShortSMA decimal.Decimal
	prevLongSMA  decimal.Decimal
}

// NewSMACrossStrategy creates a new instance trading qty shares per signal.
func NewSMACrossStrategy(symbol string, shortPeriod, longPeriod int, qty int64) (*SMACrossStrategy, error) {
	if shortPeriod <= 0 || shortPeriod >= longPeriod {
		return nil, fmt.Errorf("%w: need 0 < short (%d) < long (%d)", domain.ErrInvalidArgument, shortPeriod, longPeriod)
	}
	if qty <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive, got %d", domain.ErrInvalidArgument, qty)
	}
	return &SMACrossStrategy{
		symbol:      symbol,
		shortPeriod: shortPeriod,
		longPeriod:  longPeriod,
		qty:         qty,
		prices:      make([]decimal.Decimal, longPeriod), // Fixed size allocation
		sum:         decimal.Zero,
	}, nil
}

// Symbol returns the instrument this strategy watches
func (s *SMACrossStrategy) Symbol() string { return s.symbol }

// OnQuote processes a quote and generates cross signals.
func (s *SMACrossStrategy) OnQuote(quote domain.InstrumentSnapshot) []Action {
	// 1. Filter by symbol
	if quote.Symbol != s.symbol {
		return nil
	}

	// 2. Update Price History (Ring Buffer)
	// If full, subtract the oldest value from sum before overwriting
	if s.count == s.longPeriod {
		s.sum = s.sum.Sub(s.prices[s.head]) // s.head points to the oldest value when full
	}

	s.prices[s.head] = quote.Price
	s.sum = s.sum.Add(quote.Price)
	s.head = (s.head + 1) % s.longPeriod

	if s.count < s.longPeriod {
		s.count++
	}

	// 3. Check if we have enough data
	if s.count < s.longPeriod {
		return nil
	}

	// 4. Calculate SMAs
	currLongSMA := s.sum.Div(decimal.NewFromInt(int64(s.longPeriod)))
	currShortSMA := s.calculateShortSMA()

	var actions []Action

	// 5. Check for Cross
	if s.primed {
		action := Action{
			Symbol:   s.symbol,
			Price:    quote.Price,
			Qty:      s.qty,
			ShortSMA: currShortSMA,
			LongSMA:  currLongSMA,
		}

		// Golden Cross: Short goes above Long
		if s.prevShortSMA.LessThanOrEqual(s.prevLongSMA) && currShortSMA.GreaterThan(currLongSMA) {
			action.Type = ActionBuy
			actions = append(actions, action)
		}

		// Dead Cross: Short goes below Long
		if s.prevShortSMA.GreaterThanOrEqual(s.prevLongSMA) && currShortSMA.LessThan(currLongSMA) {
			action.Type = ActionSell
			actions = append(actions, action)
		}
	}

	// 6. Update State
	s.prevShortSMA = currShortSMA
	s.prevLongSMA = currLongSMA
	s.primed = true

	return actions
}

// calculateShortSMA averages the newest shortPeriod prices in the ring buffer.
func (s *SMACrossStrategy) calculateShortSMA() decimal.Decimal {
	sum := decimal.Zero
	// Walk backwards from current head (which points to next write slot, so head-1 is latest)
	idx := s.head
	for i := 0; i < s.shortPeriod; i++ {
		idx--
		if idx < 0 {
			idx = s.longPeriod - 1
		}
		sum = sum.Add(s.prices[idx])
	}
	return sum.Div(decimal.NewFromInt(int64(s.shortPeriod)))
}
