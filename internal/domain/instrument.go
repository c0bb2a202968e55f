package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PricePrecision is the number of decimal places instrument prices are quoted in.
const PricePrecision int32 = 2

var hundred = decimal.NewFromInt(100)

// Instrument holds the live price statistics for a single symbol.
// It is not safe for concurrent use; the market engine owns every Instrument
// and guards it with its own lock. Everyone else works on InstrumentSnapshot.
type Instrument struct {
	symbol        string
	price         decimal.Decimal
	previousClose decimal.Decimal
	high          decimal.Decimal
	low           decimal.Decimal
	changePercent decimal.Decimal
	volume        int64
}

// NewInstrument creates an instrument whose reference, high and low prices
// all start at initialPrice rounded to PricePrecision.
func NewInstrument(symbol string, initialPrice decimal.Decimal) (*Instrument, error) {
	initialPrice = initialPrice.Round(PricePrecision)
	if symbol == "" {
		return nil, fmt.Errorf("%w: empty symbol", ErrInvalidArgument)
	}
	if !initialPrice.IsPositive() {
		return nil, fmt.Errorf("%w: initial price for %s must be positive, got %s",
			ErrInvalidArgument, symbol, initialPrice)
	}
	return &Instrument{
		symbol:        symbol,
		price:         initialPrice,
		previousClose: initialPrice,
		high:          initialPrice,
		low:           initialPrice,
		changePercent: decimal.Zero,
	}, nil
}

// Symbol returns the immutable identifier
func (i *Instrument) Symbol() string { return i.symbol }

// Price returns the current trade price
func (i *Instrument) Price() decimal.Decimal { return i.price }

// SetPrice is the only way the price moves. The extrema and change percent
// are recomputed before the new price is committed so they never lag behind it.
func (i *Instrument) SetPrice(newPrice decimal.Decimal) error {
	if !newPrice.IsPositive() {
		return fmt.Errorf("%w: price for %s must be positive, got %s",
			ErrInvalidArgument, i.symbol, newPrice)
	}

	if newPrice.GreaterThan(i.high) {
		i.high = newPrice
	}
	if newPrice.LessThan(i.low) {
		i.low = newPrice
	}
	i.changePercent = changePercent(newPrice, i.previousClose)
	i.price = newPrice
	return nil
}

// IncrementVolume adds executed trade quantity to the cumulative volume.
func (i *Instrument) IncrementVolume(shares int64) error {
	if shares < 0 {
		return fmt.Errorf("%w: volume increment for %s must not be negative, got %d",
			ErrInvalidArgument, i.symbol, shares)
	}
	i.volume += shares
	return nil
}

// ResetPreviousClose rolls the reference price over to the current price
// (end of trading day). High and low restart from the current price.
func (i *Instrument) ResetPreviousClose() {
	i.previousClose = i.price
	i.high = i.price
	i.low = i.price
	i.changePercent = decimal.Zero
}

// Snapshot returns an immutable copy of the current state
func (i *Instrument) Snapshot() InstrumentSnapshot {
	return InstrumentSnapshot{
		Symbol:        i.symbol,
		Price:         i.price,
		PreviousClose: i.previousClose,
		High:          i.high,
		Low:           i.low,
		Volume:        i.volume,
		ChangePercent: i.changePercent,
	}
}

func changePercent(price, reference decimal.Decimal) decimal.Decimal {
	if reference.IsZero() {
		return decimal.Zero
	}
	return price.Sub(reference).Div(reference).Mul(hundred)
}

// InstrumentSnapshot is a point-in-time copy of an instrument.
// decimal.Decimal values are immutable, so copies never alias engine state.
type InstrumentSnapshot struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	PreviousClose decimal.Decimal `json:"previous_close"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
	Volume        int64           `json:"volume"`
	ChangePercent decimal.Decimal `json:"change_percent"` // vs PreviousClose (%)
}

// ChangeDirection returns "positive", "negative", or "neutral"
func (s InstrumentSnapshot) ChangeDirection() string {
	if s.ChangePercent.IsPositive() {
		return "positive"
	}
	if s.ChangePercent.IsNegative() {
		return "negative"
	}
	return "neutral"
}

// String formats the snapshot like "AAPL: $150.50 (+0.25%)"
func (s InstrumentSnapshot) String() string {
	sign := ""
	if !s.ChangePercent.IsNegative() {
		sign = "+"
	}
	return fmt.Sprintf("%s: $%s (%s%s%%)", s.Symbol,
		s.Price.StringFixed(PricePrecision), sign, s.ChangePercent.StringFixed(2))
}
