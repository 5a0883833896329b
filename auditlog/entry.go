// Package auditlog defines the append-only business event log: one entry
// per committed sale line, layaway event, inventory adjustment or menu
// change, grouped into one log per calendar day.
package auditlog

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/xraph/till/id"
	"github.com/xraph/till/types"
)

// NotApplicable fills quantity columns for untracked items.
const NotApplicable = "N/A"

// DayLayout names a day's log.
const DayLayout = "2006-01-02"

// Action names written to the log.
const (
	ActionSoldItem             = "Sold Item"
	ActionSoldUntracked        = "Sold Item (No Inv. Track)"
	ActionLayawayDownPayment   = "Layaway Down Payment"
	ActionLayawayPayment       = "Layaway Payment"
	ActionLayawayCompleted     = "Layaway Completed"
	ActionLayawayCanceled      = "Layaway Cancelled"
	ActionLayawayBalanceEdited = "Layaway Balance Edited"
	ActionInventoryAdjusted    = "Inventory Adjusted"
	ActionMenuItemAdded        = "Menu Item Added"
	ActionMenuItemUpdated      = "Menu Item Updated"
	ActionMenuItemRemoved      = "Menu Item Removed"
)

// Entry is one log line. QuantityChange and NewQuantity are nil when the
// event does not touch inventory.
type Entry struct {
	ID              id.LogEntryID `json:"id"`
	Timestamp       time.Time     `json:"timestamp"`
	Action          string        `json:"action"`
	ItemCode        string        `json:"item_code"`
	Category        string        `json:"category"`
	Brand           string        `json:"brand"`
	Item            string        `json:"item"`
	QuantityChange  *int          `json:"quantity_change,omitempty"`
	NewQuantity     *int          `json:"new_quantity,omitempty"`
	PriceSold       types.Money   `json:"price_sold"`
	DiscountApplied string        `json:"discount_applied"`
}

// Int returns a pointer to n, for the optional quantity fields.
func Int(n int) *int { return &n }

// Missing lists the required fields that are empty.
func (e Entry) Missing() []string {
	var missing []string
	if e.Timestamp.IsZero() {
		missing = append(missing, "timestamp")
	}
	if e.Action == "" {
		missing = append(missing, "action")
	}
	if e.ItemCode == "" {
		missing = append(missing, "itemCode")
	}
	if e.Category == "" {
		missing = append(missing, "category")
	}
	if e.Brand == "" {
		missing = append(missing, "brand")
	}
	if e.Item == "" {
		missing = append(missing, "item")
	}
	return missing
}

// Day returns the calendar day the entry belongs to, in the entry's location.
func (e Entry) Day() string {
	return e.Timestamp.Format(DayLayout)
}

// Header is the column order used by row-oriented stores.
var Header = []string{
	"Timestamp", "Action", "Item Code", "Category", "Brand", "Item",
	"Quantity Change", "New Quantity", "Price Sold", "Discount Applied", "ID",
}

// Row renders the entry in Header order.
func (e Entry) Row() []string {
	return []string{
		e.Timestamp.Format(time.RFC3339Nano),
		e.Action,
		e.ItemCode,
		e.Category,
		e.Brand,
		e.Item,
		formatQuantity(e.QuantityChange),
		formatQuantity(e.NewQuantity),
		e.PriceSold.FormatMajor(),
		e.DiscountApplied,
		e.ID.String(),
	}
}

// ParseRow is the inverse of Row. currency is applied to the price column.
func ParseRow(row []string, currency string) (Entry, error) {
	if len(row) < len(Header)-1 {
		return Entry{}, fmt.Errorf("auditlog: row has %d columns, want %d", len(row), len(Header))
	}

	ts, err := time.Parse(time.RFC3339Nano, row[0])
	if err != nil {
		return Entry{}, fmt.Errorf("auditlog: parse timestamp: %w", err)
	}
	change, err := parseQuantity(row[6])
	if err != nil {
		return Entry{}, fmt.Errorf("auditlog: parse quantity change: %w", err)
	}
	newQty, err := parseQuantity(row[7])
	if err != nil {
		return Entry{}, fmt.Errorf("auditlog: parse new quantity: %w", err)
	}
	price, err := types.ParseMoney(row[8], currency)
	if err != nil {
		return Entry{}, fmt.Errorf("auditlog: parse price: %w", err)
	}

	e := Entry{
		Timestamp:       ts,
		Action:          row[1],
		ItemCode:        row[2],
		Category:        row[3],
		Brand:           row[4],
		Item:            row[5],
		QuantityChange:  change,
		NewQuantity:     newQty,
		PriceSold:       price,
		DiscountApplied: row[9],
	}
	if len(row) > 10 && row[10] != "" {
		if e.ID, err = id.ParseLogEntryID(row[10]); err != nil {
			return Entry{}, err
		}
	}
	return e, nil
}

func formatQuantity(q *int) string {
	if q == nil {
		return NotApplicable
	}
	return strconv.Itoa(*q)
}

func parseQuantity(s string) (*int, error) {
	if s == NotApplicable || s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Store appends entries and reads back a single day in insertion order.
type Store interface {
	AppendLog(ctx context.Context, entry Entry) error
	ReadLog(ctx context.Context, day time.Time) ([]Entry, error)
}
