// Package layaway models partial-payment holds on items and the immutable
// hold list that the layaway store replaces wholesale.
package layaway

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/till/id"
	"github.com/xraph/till/inventory"
	"github.com/xraph/till/types"
)

// DefaultDownPaymentRate is the share of the original price taken when a
// hold is opened.
var DefaultDownPaymentRate = decimal.RequireFromString("0.30")

// DownPayment returns the down payment due on originalPrice at rate.
func DownPayment(originalPrice types.Money, rate decimal.Decimal) types.Money {
	return originalPrice.MulRate(rate)
}

// Customer identifies who a hold is for. Both fields are optional.
type Customer struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Hold is a layaway reservation. AmountPaid + RemainingBalance always equals
// OriginalPrice; a hold whose RemainingBalance reaches zero is complete and
// must be removed from the list.
type Hold struct {
	types.Entity

	ID               id.LayawayID `json:"id"`
	ItemCode         string       `json:"item_code"`
	Category         string       `json:"category"`
	Brand            string       `json:"brand"`
	Item             string       `json:"item"`
	OriginalPrice    types.Money  `json:"original_price"`
	AmountPaid       types.Money  `json:"amount_paid"`
	RemainingBalance types.Money  `json:"remaining_balance"`
	InventoryTracked bool         `json:"inventory_tracked"`
	Customer         Customer     `json:"customer"`
}

// NewHold opens a hold with nothing paid yet.
func NewHold(key inventory.Key, itemCode string, originalPrice types.Money, tracked bool, customer Customer, now time.Time) Hold {
	return Hold{
		Entity:           types.NewEntity(now),
		ID:               id.NewLayawayID(),
		ItemCode:         itemCode,
		Category:         key.Category,
		Brand:            key.Brand,
		Item:             key.Item,
		OriginalPrice:    originalPrice,
		AmountPaid:       types.Zero(originalPrice.Currency),
		RemainingBalance: originalPrice,
		InventoryTracked: tracked,
		Customer:         customer,
	}
}

// Key returns the inventory key of the held item.
func (h Hold) Key() inventory.Key {
	return inventory.Key{Category: h.Category, Brand: h.Brand, Item: h.Item}
}

// ApplyPayment returns the hold with amount added to AmountPaid and the
// remaining balance recomputed from the original price.
func (h Hold) ApplyPayment(amount types.Money, now time.Time) Hold {
	h.AmountPaid = h.AmountPaid.Add(amount)
	h.RemainingBalance = h.OriginalPrice.Subtract(h.AmountPaid)
	h.Entity = h.Entity.Touched(now)
	return h
}

// WithRemaining returns the hold rebalanced so that RemainingBalance equals
// remaining. Callers validate the range.
func (h Hold) WithRemaining(remaining types.Money, now time.Time) Hold {
	h.RemainingBalance = remaining
	h.AmountPaid = h.OriginalPrice.Subtract(remaining)
	h.Entity = h.Entity.Touched(now)
	return h
}

// Completed reports whether the hold is paid off.
func (h Hold) Completed() bool {
	return !h.RemainingBalance.IsPositive()
}

// Balanced reports whether AmountPaid + RemainingBalance == OriginalPrice.
func (h Hold) Balanced() bool {
	return h.AmountPaid.Add(h.RemainingBalance).Amount == h.OriginalPrice.Amount
}
