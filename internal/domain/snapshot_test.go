package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func testSnapshot(t *testing.T) Snapshot {
	t.Helper()

	up, _ := NewInstrument("MSFT", d("100"))
	_ = up.SetPrice(d("110"))
	down, _ := NewInstrument("AAPL", d("200"))
	_ = down.SetPrice(d("190"))
	flat, _ := NewInstrument("NVDA", d("50"))

	return NewSnapshot(7, time.Unix(1700000000, 0).UTC(),
		[]InstrumentSnapshot{up.Snapshot(), down.Snapshot(), flat.Snapshot()})
}

func TestSnapshot_Accessors(t *testing.T) {
	snap := testSnapshot(t)

	if snap.Len() != 3 {
		t.Fatalf("Expected 3 instruments, got %d", snap.Len())
	}
	if snap.Seq() != 7 {
		t.Errorf("Expected seq 7, got %d", snap.Seq())
	}

	all := snap.All()
	if all[0].Symbol != "AAPL" || all[1].Symbol != "MSFT" || all[2].Symbol != "NVDA" {
		t.Errorf("Not sorted: %s, %s, %s", all[0].Symbol, all[1].Symbol, all[2].Symbol)
	}

	if _, ok := snap.Get("GOOGL"); ok {
		t.Error("Unknown symbol should not be found")
	}

	prices := snap.Prices()
	if !prices["MSFT"].Equal(d("110")) {
		t.Errorf("Expected MSFT 110, got %s", prices["MSFT"])
	}
}

func TestSnapshot_CopiesDoNotLeak(t *testing.T) {
	snap := testSnapshot(t)

	m := snap.Map()
	delete(m, "AAPL")
	prices := snap.Prices()
	prices["MSFT"] = d("1")

	if _, ok := snap.Get("AAPL"); !ok {
		t.Error("Deleting from Map() copy removed the instrument from the snapshot")
	}
	if got, _ := snap.Get("MSFT"); !got.Price.Equal(d("110")) {
		t.Errorf("Mutating Prices() copy changed the snapshot: %s", got.Price)
	}
}

func TestSnapshot_Summary(t *testing.T) {
	summary := testSnapshot(t).Summary()

	if summary.Gainers != 1 || summary.Losers != 1 || summary.Unchanged != 1 {
		t.Errorf("Expected 1/1/1, got %d/%d/%d", summary.Gainers, summary.Losers, summary.Unchanged)
	}
	if !summary.TotalValue.Equal(d("350")) {
		t.Errorf("Expected total 350, got %s", summary.TotalValue)
	}
}

func TestSnapshot_Trends(t *testing.T) {
	trends := testSnapshot(t).Trends()

	if !trends["MSFT"].Equal(d("10")) {
		t.Errorf("Expected MSFT +10%%, got %s", trends["MSFT"])
	}
	if !trends["AAPL"].Equal(d("-5")) {
		t.Errorf("Expected AAPL -5%%, got %s", trends["AAPL"])
	}
}

func TestSnapshot_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(testSnapshot(t))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded struct {
		Seq         uint64 `json:"seq"`
		Instruments []struct {
			Symbol string `json:"symbol"`
			Price  string `json:"price"`
		} `json:"instruments"`
	}
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.Seq != 7 || len(decoded.Instruments) != 3 {
		t.Fatalf("Unexpected payload: %s", b)
	}
	if decoded.Instruments[0].Symbol != "AAPL" || decoded.Instruments[0].Price != "190" {
		t.Errorf("Unexpected first instrument: %+v", decoded.Instruments[0])
	}
}
