// Package sale defines the lines a pending sale is built from.
//
// A Line is one of three variants:
//
//   - Item: a sold item, inventory-tracked or not
//   - LayawayDownPayment: the payment that opened a new hold
//   - LayawayPayment: a payment against an existing hold
//
// Lines are values. The pending sale owns them until it is completed or
// canceled.
package sale

import (
	"github.com/xraph/till/id"
	"github.com/xraph/till/inventory"
	"github.com/xraph/till/layaway"
	"github.com/xraph/till/types"
)

// Kind names a line variant.
type Kind string

const (
	KindItem               Kind = "item"
	KindLayawayDownPayment Kind = "layaway_down_payment"
	KindLayawayPayment     Kind = "layaway_payment"
)

// Line is a pending sale line.
type Line interface {
	LineID() id.SaleLineID
	Kind() Kind
	// Amount is the price charged on this line.
	Amount() types.Money
	ItemKey() inventory.Key

	isLine()
}

// Item is a sold item. QuantityChange is -1 for tracked items and 0
// otherwise; QuantityAfter is the on-hand count once the change was applied.
type Item struct {
	ID             id.SaleLineID `json:"id"`
	Key            inventory.Key `json:"key"`
	ItemCode       string        `json:"item_code"`
	Price          types.Money   `json:"price"`
	Discount       string        `json:"discount"`
	Tracked        bool          `json:"tracked"`
	QuantityChange int           `json:"quantity_change"`
	QuantityAfter  int           `json:"quantity_after"`
}

// LayawayDownPayment opened HoldID. Duplicating it opens another hold.
type LayawayDownPayment struct {
	ID            id.SaleLineID    `json:"id"`
	HoldID        id.LayawayID     `json:"hold_id"`
	Key           inventory.Key    `json:"key"`
	ItemCode      string           `json:"item_code"`
	Price         types.Money      `json:"price"`
	OriginalPrice types.Money      `json:"original_price"`
	Tracked       bool             `json:"tracked"`
	Customer      layaway.Customer `json:"customer"`
}

// LayawayPayment pays Price into an existing hold.
type LayawayPayment struct {
	ID       id.SaleLineID `json:"id"`
	HoldID   id.LayawayID  `json:"hold_id"`
	Key      inventory.Key `json:"key"`
	ItemCode string        `json:"item_code"`
	Price    types.Money   `json:"price"`
	Tracked  bool          `json:"tracked"`
}

func (l Item) LineID() id.SaleLineID  { return l.ID }
func (l Item) Kind() Kind             { return KindItem }
func (l Item) Amount() types.Money    { return l.Price }
func (l Item) ItemKey() inventory.Key { return l.Key }
func (Item) isLine()                  {}

func (l LayawayDownPayment) LineID() id.SaleLineID  { return l.ID }
func (l LayawayDownPayment) Kind() Kind             { return KindLayawayDownPayment }
func (l LayawayDownPayment) Amount() types.Money    { return l.Price }
func (l LayawayDownPayment) ItemKey() inventory.Key { return l.Key }
func (LayawayDownPayment) isLine()                  {}

func (l LayawayPayment) LineID() id.SaleLineID  { return l.ID }
func (l LayawayPayment) Kind() Kind             { return KindLayawayPayment }
func (l LayawayPayment) Amount() types.Money    { return l.Price }
func (l LayawayPayment) ItemKey() inventory.Key { return l.Key }
func (LayawayPayment) isLine()                  {}

// HoldOf returns the hold a layaway line refers to.
func HoldOf(l Line) (id.LayawayID, bool) {
	switch v := l.(type) {
	case LayawayDownPayment:
		return v.HoldID, true
	case LayawayPayment:
		return v.HoldID, true
	default:
		return id.Nil, false
	}
}

// Total sums the amounts of lines.
func Total(lines []Line) types.Money {
	if len(lines) == 0 {
		return types.Money{}
	}
	total := types.Zero(lines[0].Amount().Currency)
	for _, l := range lines {
		total = total.Add(l.Amount())
	}
	return total
}
