// ABOUTME: Tests for lead ledger data models
// ABOUTME: Validates pointer helpers, refund detection, and import log durations
package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestStringHelper(t *testing.T) {
	if String("") != nil {
		t.Error("expected nil for empty string")
	}
	s := String("jo")
	if s == nil || *s != "jo" {
		t.Errorf("expected pointer to jo, got %v", s)
	}
	if Deref(nil) != "" {
		t.Error("expected empty string for nil pointer")
	}
	if Deref(s) != "jo" {
		t.Errorf("expected jo, got %s", Deref(s))
	}
}

func TestTimeHelper(t *testing.T) {
	if Time(time.Time{}) != nil {
		t.Error("expected nil for zero time")
	}
	now := time.Now()
	if got := Time(now); got == nil || !got.Equal(now) {
		t.Errorf("expected %v, got %v", now, got)
	}
}

func TestPaymentIsRefund(t *testing.T) {
	refund := &Payment{PaymentType: PaymentRefund, Amount: decimal.NewFromInt(-50)}
	if !refund.IsRefund() {
		t.Error("expected refund to be detected")
	}

	sale := &Payment{PaymentType: PaymentBuyInFull, Amount: decimal.NewFromInt(50)}
	if sale.IsRefund() {
		t.Error("expected buy_in_full not to be a refund")
	}
}

func TestImportLogDuration(t *testing.T) {
	start := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	log := &ImportLog{
		ID:        uuid.New(),
		StartedAt: start,
	}
	if log.Duration() != 0 {
		t.Errorf("expected zero duration for incomplete import, got %v", log.Duration())
	}

	log.CompletedAt = start.Add(90 * time.Second)
	if log.Duration() != 90*time.Second {
		t.Errorf("expected 90s, got %v", log.Duration())
	}
}

func TestFunnelStagesOrder(t *testing.T) {
	if FunnelStages[0] != StageContacted {
		t.Errorf("expected funnel to start at contacted, got %s", FunnelStages[0])
	}
	if FunnelStages[len(FunnelStages)-1] != StagePurchased {
		t.Errorf("expected funnel to end at purchased, got %s", FunnelStages[len(FunnelStages)-1])
	}
}
