// Package inventory holds stock records keyed by (category, brand, item) and
// the immutable snapshot the sale engine reads and replaces.
package inventory

import (
	"strings"
	"time"

	"github.com/xraph/till/types"
)

// Categories priced from the menu catalog and never tracked in inventory.
const (
	CategoryClips = "Clips"
	CategoryOther = "Other"
)

// Change annotations written to Record.LastChange.
const (
	ChangeSold             = "Sold Item"
	ChangeLayawayCompleted = "Layaway Completed"
	ChangeManualAdjustment = "Manual Adjustment"
)

// IsTracked reports whether items in category carry an inventory record.
func IsTracked(category string) bool {
	return !strings.EqualFold(category, CategoryClips) && !strings.EqualFold(category, CategoryOther)
}

// Key identifies a record.
type Key struct {
	Category string `json:"category"`
	Brand    string `json:"brand"`
	Item     string `json:"item"`
}

// NewKey builds a Key.
func NewKey(category, brand, item string) Key {
	return Key{Category: category, Brand: brand, Item: item}
}

// String renders the key as "category/brand/item".
func (k Key) String() string {
	return k.Category + "/" + k.Brand + "/" + k.Item
}

// Valid reports whether every component is non-empty.
func (k Key) Valid() bool {
	return k.Category != "" && k.Brand != "" && k.Item != ""
}

// Record is the stock state of one item. Quantity may go negative when an
// out-of-stock item is sold after confirmation.
type Record struct {
	ItemCode       string      `json:"item_code"`
	Category       string      `json:"category"`
	Brand          string      `json:"brand"`
	Item           string      `json:"item"`
	Quantity       int         `json:"quantity"`
	Price          types.Money `json:"price"`
	LastChange     string      `json:"last_change,omitempty"`
	LastChangeDate time.Time   `json:"last_change_date,omitempty"`
}

// Key returns the record's key.
func (r Record) Key() Key {
	return Key{Category: r.Category, Brand: r.Brand, Item: r.Item}
}

// InStock reports whether at least one unit is on hand.
func (r Record) InStock() bool { return r.Quantity > 0 }

// Equal compares two records field by field.
func (r Record) Equal(o Record) bool {
	return r.ItemCode == o.ItemCode &&
		r.Key() == o.Key() &&
		r.Quantity == o.Quantity &&
		r.Price.Equal(o.Price) &&
		r.LastChange == o.LastChange &&
		r.LastChangeDate.Equal(o.LastChangeDate)
}

// Annotated returns a copy with the change annotation set.
func (r Record) Annotated(change string, at time.Time) Record {
	r.LastChange = change
	r.LastChangeDate = at.UTC()
	return r
}
