package domain

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is an immutable copy of every instrument taken at the end of one tick.
// The instrument map is built once and never written again, so a Snapshot can be
// handed to any number of observers and goroutines.
type Snapshot struct {
	seq         uint64
	at          time.Time
	instruments map[string]InstrumentSnapshot
}

// NewSnapshot builds a snapshot from instrument copies.
func NewSnapshot(seq uint64, at time.Time, instruments []InstrumentSnapshot) Snapshot {
	m := make(map[string]InstrumentSnapshot, len(instruments))
	for _, inst := range instruments {
		m[inst.Symbol] = inst
	}
	return Snapshot{seq: seq, at: at, instruments: m}
}

// Seq returns the tick number that produced the snapshot (0 = before the first tick)
func (s Snapshot) Seq() uint64 { return s.seq }

// Time returns when the snapshot was taken
func (s Snapshot) Time() time.Time { return s.at }

// Len returns the number of instruments
func (s Snapshot) Len() int { return len(s.instruments) }

// Get returns the instrument state for a symbol
func (s Snapshot) Get(symbol string) (InstrumentSnapshot, bool) {
	inst, ok := s.instruments[symbol]
	return inst, ok
}

// All returns every instrument sorted by symbol.
func (s Snapshot) All() []InstrumentSnapshot {
	result := make([]InstrumentSnapshot, 0, len(s.instruments))
	for _, inst := range s.instruments {
		result = append(result, inst)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Symbol < result[j].Symbol
	})
	return result
}

// Map returns a copy of the symbol -> instrument mapping
func (s Snapshot) Map() map[string]InstrumentSnapshot {
	result := make(map[string]InstrumentSnapshot, len(s.instruments))
	for k, v := range s.instruments {
		result[k] = v
	}
	return result
}

// Prices returns symbol -> current price, suitable for Portfolio.Valuate.
func (s Snapshot) Prices() map[string]decimal.Decimal {
	result := make(map[string]decimal.Decimal, len(s.instruments))
	for k, v := range s.instruments {
		result[k] = v.Price
	}
	return result
}

// Trends returns symbol -> change percent
func (s Snapshot) Trends() map[string]decimal.Decimal {
	result := make(map[string]decimal.Decimal, len(s.instruments))
	for k, v := range s.instruments {
		result[k] = v.ChangePercent
	}
	return result
}

// MarketSummary aggregates a snapshot into gainers/losers counts
type MarketSummary struct {
	Gainers    int             `json:"gainers"`
	Losers     int             `json:"losers"`
	Unchanged  int             `json:"unchanged"`
	TotalValue decimal.Decimal `json:"total_value"` // sum of one share of every instrument
}

// Summary counts gainers and losers against previous close.
func (s Snapshot) Summary() MarketSummary {
	summary := MarketSummary{TotalValue: decimal.Zero}
	for _, inst := range s.instruments {
		summary.TotalValue = summary.TotalValue.Add(inst.Price)
		switch inst.ChangeDirection() {
		case "positive":
			summary.Gainers++
		case "negative":
			summary.Losers++
		default:
			summary.Unchanged++
		}
	}
	return summary
}

type snapshotJSON struct {
	Seq         uint64               `json:"seq"`
	Time        time.Time            `json:"time"`
	Instruments []InstrumentSnapshot `json:"instruments"`
}

// MarshalJSON encodes the snapshot with instruments sorted by symbol
func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshotJSON{
		Seq:         s.seq,
		Time:        s.at,
		Instruments: s.All(),
	})
}
