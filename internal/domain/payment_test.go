package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPaymentStatusMutable(t *testing.T) {
	cases := []struct {
		from PaymentStatus
		to   PaymentStatus
		want bool
	}{
		{PaymentStatusPending, PaymentStatusCompleted, true},
		{PaymentStatusPending, PaymentStatusFailed, true},
		{PaymentStatusPending, PaymentStatusCancelled, true},
		{PaymentStatusPending, PaymentStatusRefunded, true},
		{PaymentStatusFailed, PaymentStatusPending, true},
		{PaymentStatusCancelled, PaymentStatusCompleted, true},
		{PaymentStatusCompleted, PaymentStatusRefunded, true},
		{PaymentStatusCompleted, PaymentStatusPending, false},
		{PaymentStatusCompleted, PaymentStatusCancelled, false},
		{PaymentStatusRefunded, PaymentStatusPending, false},
		{PaymentStatusRefunded, PaymentStatusRefunded, false},
	}
	for _, tc := range cases {
		if got := tc.from.Mutable(tc.to); got != tc.want {
			t.Errorf("Mutable(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestPaymentStatusTerminal(t *testing.T) {
	for _, s := range []PaymentStatus{PaymentStatusCompleted, PaymentStatusRefunded} {
		if !s.Terminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}
	for _, s := range []PaymentStatus{PaymentStatusPending, PaymentStatusFailed, PaymentStatusCancelled} {
		if s.Terminal() {
			t.Errorf("expected %s to be non-terminal", s)
		}
	}
}

func TestPaymentMinorUnits(t *testing.T) {
	cases := []struct {
		amount string
		want   int64
	}{
		{"500", 50000},
		{"1200.50", 120050},
		{"0.01", 1},
		{"99.999", 10000},
	}
	for _, tc := range cases {
		amt, err := decimal.NewFromString(tc.amount)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.amount, err)
		}
		p := &Payment{Amount: amt}
		if got := p.MinorUnits(); got != tc.want {
			t.Errorf("MinorUnits(%s) = %d, want %d", tc.amount, got, tc.want)
		}
	}
}

func TestEnumValidity(t *testing.T) {
	if PaymentType("squatting").Valid() {
		t.Error("unexpected valid payment type")
	}
	if !PaymentTypeLateFee.Valid() {
		t.Error("late_fee should be valid")
	}
	if PaymentMethod("iou").Valid() {
		t.Error("unexpected valid payment method")
	}
	if PaymentStatus("lost").Valid() {
		t.Error("unexpected valid payment status")
	}
}
