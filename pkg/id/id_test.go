package id

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
)

func TestNew_Monotonic(t *testing.T) {
	prev := New()
	for i := 0; i < 1000; i++ {
		next := New()
		if next <= prev {
			t.Fatalf("Expected %s > %s", next, prev)
		}
		prev = next
	}
}

func TestNewAt_Timestamp(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	parsed, err := ulid.Parse(NewAt(at))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if parsed.Time() != ulid.Timestamp(at) {
		t.Errorf("Expected timestamp %d, got %d", ulid.Timestamp(at), parsed.Time())
	}
}
