package layaway_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/till/inventory"
	"github.com/xraph/till/layaway"
	"github.com/xraph/till/types"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newHold(price int64) layaway.Hold {
	return layaway.NewHold(
		inventory.NewKey("Shoes", "Nike", "Air 9"),
		"NK-AIR-9",
		types.USD(price),
		true,
		layaway.Customer{Name: "Dana", Phone: "555-0101"},
		now,
	)
}

func TestDownPayment(t *testing.T) {
	tests := []struct {
		name  string
		price types.Money
		rate  decimal.Decimal
		want  types.Money
	}{
		{"default rate on 100.00", types.USD(10000), layaway.DefaultDownPaymentRate, types.USD(3000)},
		{"default rate on 59.99", types.USD(5999), layaway.DefaultDownPaymentRate, types.USD(1800)},
		{"half", types.USD(10000), decimal.RequireFromString("0.5"), types.USD(5000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := layaway.DownPayment(tt.price, tt.rate); !got.Equal(tt.want) {
				t.Errorf("DownPayment = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewHold(t *testing.T) {
	h := newHold(10000)

	if h.ID.IsNil() {
		t.Fatal("expected hold ID")
	}
	if !h.AmountPaid.IsZero() || !h.RemainingBalance.Equal(types.USD(10000)) {
		t.Errorf("unexpected balances paid=%v remaining=%v", h.AmountPaid, h.RemainingBalance)
	}
	if !h.Balanced() {
		t.Error("new hold should be balanced")
	}
	if h.Completed() {
		t.Error("new hold should not be complete")
	}
	if h.Key() != inventory.NewKey("Shoes", "Nike", "Air 9") {
		t.Errorf("unexpected key %v", h.Key())
	}
}

func TestApplyPayment(t *testing.T) {
	h := newHold(10000)

	h = h.ApplyPayment(types.USD(3000), now)
	if !h.RemainingBalance.Equal(types.USD(7000)) {
		t.Errorf("remaining = %v, want $70.00", h.RemainingBalance)
	}
	if !h.Balanced() || h.Completed() {
		t.Fatalf("unexpected state %+v", h)
	}

	h = h.ApplyPayment(types.USD(7000), now.Add(time.Hour))
	if !h.RemainingBalance.IsZero() {
		t.Errorf("remaining = %v, want zero", h.RemainingBalance)
	}
	if !h.Completed() {
		t.Error("paid-off hold should be complete")
	}
	if !h.UpdatedAt.Equal(now.Add(time.Hour)) {
		t.Errorf("UpdatedAt = %v", h.UpdatedAt)
	}
}

func TestWithRemaining(t *testing.T) {
	h := newHold(10000).WithRemaining(types.USD(2500), now)
	if !h.AmountPaid.Equal(types.USD(7500)) {
		t.Errorf("paid = %v, want $75.00", h.AmountPaid)
	}
	if !h.Balanced() {
		t.Error("rebalanced hold should keep the invariant")
	}
}

func TestListOperations(t *testing.T) {
	a, b := newHold(10000), newHold(5000)

	empty := layaway.NewList()
	one := empty.With(a)
	two := one.With(b)

	if empty.Len() != 0 || one.Len() != 1 || two.Len() != 2 {
		t.Fatalf("lengths: %d %d %d", empty.Len(), one.Len(), two.Len())
	}

	paid := a.ApplyPayment(types.USD(3000), now)
	replaced := two.With(paid)
	if replaced.Len() != 2 {
		t.Fatalf("replace should not grow the list, got %d", replaced.Len())
	}
	got, ok := replaced.Find(a.ID)
	if !ok || !got.AmountPaid.Equal(types.USD(3000)) {
		t.Errorf("replaced hold = %+v", got)
	}
	if orig, _ := two.Find(a.ID); !orig.AmountPaid.IsZero() {
		t.Error("With must not mutate the receiver")
	}

	removed := replaced.Without(a.ID)
	if _, ok := removed.Find(a.ID); ok {
		t.Error("hold should be removed")
	}
	if removed.Len() != 1 || replaced.Len() != 2 {
		t.Errorf("lengths after remove: %d %d", removed.Len(), replaced.Len())
	}

	if !two.Equal(layaway.NewList(a, b)) {
		t.Error("lists with the same holds should be equal")
	}
	if two.Equal(layaway.NewList(b, a)) {
		t.Error("order matters for equality")
	}
}
