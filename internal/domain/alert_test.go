package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewAlertConfig_Direction(t *testing.T) {
	t.Run("UP direction when target > current", func(t *testing.T) {
		alert := NewAlertConfig("AAPL", decimal.NewFromInt(160), decimal.NewFromInt(150), false)
		if alert.Direction != AlertUp {
			t.Errorf("Expected UP, got %s", alert.Direction)
		}
	})

	t.Run("DOWN direction when target < current", func(t *testing.T) {
		alert := NewAlertConfig("AAPL", decimal.NewFromInt(140), decimal.NewFromInt(150), false)
		if alert.Direction != AlertDown {
			t.Errorf("Expected DOWN, got %s", alert.Direction)
		}
	})

	t.Run("UP direction when target = current", func(t *testing.T) {
		alert := NewAlertConfig("AAPL", decimal.NewFromInt(150), decimal.NewFromInt(150), false)
		if alert.Direction != AlertUp {
			t.Errorf("Expected UP for equal prices, got %s", alert.Direction)
		}
	})
}

func TestAlertConfig_CheckCondition(t *testing.T) {
	t.Run("UP alert triggers at target", func(t *testing.T) {
		alert := NewAlertConfig("AAPL", decimal.NewFromInt(160), decimal.NewFromInt(150), false)
		if !alert.CheckCondition(decimal.NewFromInt(160)) {
			t.Error("Should trigger at target price")
		}
	})

	t.Run("UP alert does not trigger below target", func(t *testing.T) {
		alert := NewAlertConfig("AAPL", decimal.NewFromInt(160), decimal.NewFromInt(150), false)
		if alert.CheckCondition(decimal.NewFromFloat(159.99)) {
			t.Error("Should not trigger below target price")
		}
	})

	t.Run("DOWN alert triggers below target", func(t *testing.T) {
		alert := NewAlertConfig("AAPL", decimal.NewFromInt(140), decimal.NewFromInt(150), false)
		if !alert.CheckCondition(decimal.NewFromFloat(139.5)) {
			t.Error("Should trigger below target price")
		}
	})

	t.Run("Inactive alert does not trigger", func(t *testing.T) {
		alert := NewAlertConfig("AAPL", decimal.NewFromInt(160), decimal.NewFromInt(150), false)
		alert.SetActive(false)
		if alert.CheckCondition(decimal.NewFromInt(200)) {
			t.Error("Inactive alert should not trigger")
		}
	})
}
