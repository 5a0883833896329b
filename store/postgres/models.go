package postgres

import (
	"database/sql"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/till/auditlog"
	"github.com/xraph/till/catalog"
	"github.com/xraph/till/id"
	"github.com/xraph/till/inventory"
	"github.com/xraph/till/layaway"
	"github.com/xraph/till/payroll"
	"github.com/xraph/till/types"
)

// ==================== Inventory models ====================

type inventoryModel struct {
	grove.BaseModel `grove:"table:till_inventory"`

	Category       string       `grove:"category,pk"`
	Brand          string       `grove:"brand,pk"`
	Item           string       `grove:"item,pk"`
	ItemCode       string       `grove:"item_code"`
	Quantity       int          `grove:"quantity"`
	PriceAmount    int64        `grove:"price_amount"`
	Currency       string       `grove:"currency"`
	LastChange     string       `grove:"last_change"`
	LastChangeDate sql.NullTime `grove:"last_change_date"`
}

func toInventoryModel(r inventory.Record) inventoryModel {
	return inventoryModel{
		Category:       r.Category,
		Brand:          r.Brand,
		Item:           r.Item,
		ItemCode:       r.ItemCode,
		Quantity:       r.Quantity,
		PriceAmount:    r.Price.Amount,
		Currency:       r.Price.Currency,
		LastChange:     r.LastChange,
		LastChangeDate: nullTime(r.LastChangeDate),
	}
}

func fromInventoryModel(m *inventoryModel) inventory.Record {
	return inventory.Record{
		ItemCode:       m.ItemCode,
		Category:       m.Category,
		Brand:          m.Brand,
		Item:           m.Item,
		Quantity:       m.Quantity,
		Price:          types.New(m.PriceAmount, m.Currency),
		LastChange:     m.LastChange,
		LastChangeDate: fromNullTime(m.LastChangeDate),
	}
}

// ==================== Layaway models ====================

type holdModel struct {
	grove.BaseModel `grove:"table:till_layaways"`

	ID               string    `grove:"id,pk"`
	Position         int       `grove:"position"`
	ItemCode         string    `grove:"item_code"`
	Category         string    `grove:"category"`
	Brand            string    `grove:"brand"`
	Item             string    `grove:"item"`
	OriginalAmount   int64     `grove:"original_amount"`
	AmountPaid       int64     `grove:"amount_paid"`
	RemainingBalance int64     `grove:"remaining_balance"`
	Currency         string    `grove:"currency"`
	InventoryTracked bool      `grove:"inventory_tracked"`
	CustomerName     string    `grove:"customer_name"`
	CustomerPhone    string    `grove:"customer_phone"`
	CreatedAt        time.Time `grove:"created_at"`
	UpdatedAt        time.Time `grove:"updated_at"`
}

func toHoldModel(h layaway.Hold, position int) holdModel {
	return holdModel{
		ID:               h.ID.String(),
		Position:         position,
		ItemCode:         h.ItemCode,
		Category:         h.Category,
		Brand:            h.Brand,
		Item:             h.Item,
		OriginalAmount:   h.OriginalPrice.Amount,
		AmountPaid:       h.AmountPaid.Amount,
		RemainingBalance: h.RemainingBalance.Amount,
		Currency:         h.OriginalPrice.Currency,
		InventoryTracked: h.InventoryTracked,
		CustomerName:     h.Customer.Name,
		CustomerPhone:    h.Customer.Phone,
		CreatedAt:        h.CreatedAt.UTC(),
		UpdatedAt:        h.UpdatedAt.UTC(),
	}
}

func fromHoldModel(m *holdModel) (layaway.Hold, error) {
	holdID, err := id.ParseLayawayID(m.ID)
	if err != nil {
		return layaway.Hold{}, err
	}
	return layaway.Hold{
		Entity:           types.Entity{CreatedAt: m.CreatedAt.UTC(), UpdatedAt: m.UpdatedAt.UTC()},
		ID:               holdID,
		ItemCode:         m.ItemCode,
		Category:         m.Category,
		Brand:            m.Brand,
		Item:             m.Item,
		OriginalPrice:    types.New(m.OriginalAmount, m.Currency),
		AmountPaid:       types.New(m.AmountPaid, m.Currency),
		RemainingBalance: types.New(m.RemainingBalance, m.Currency),
		InventoryTracked: m.InventoryTracked,
		Customer:         layaway.Customer{Name: m.CustomerName, Phone: m.CustomerPhone},
	}, nil
}

// ==================== Audit log models ====================

type logEntryModel struct {
	grove.BaseModel `grove:"table:till_log"`

	Seq             int64         `grove:"seq,pk,autoincrement"`
	ID              string        `grove:"id"`
	Day             string        `grove:"day"`
	Timestamp       time.Time     `grove:"timestamp"`
	Action          string        `grove:"action"`
	ItemCode        string        `grove:"item_code"`
	Category        string        `grove:"category"`
	Brand           string        `grove:"brand"`
	Item            string        `grove:"item"`
	QuantityChange  sql.NullInt64 `grove:"quantity_change"`
	NewQuantity     sql.NullInt64 `grove:"new_quantity"`
	PriceAmount     int64         `grove:"price_amount"`
	Currency        string        `grove:"currency"`
	DiscountApplied string        `grove:"discount_applied"`
}

func toLogEntryModel(e auditlog.Entry) *logEntryModel {
	return &logEntryModel{
		ID:              idString(e.ID),
		Day:             e.Day(),
		Timestamp:       e.Timestamp.UTC(),
		Action:          e.Action,
		ItemCode:        e.ItemCode,
		Category:        e.Category,
		Brand:           e.Brand,
		Item:            e.Item,
		QuantityChange:  nullInt(e.QuantityChange),
		NewQuantity:     nullInt(e.NewQuantity),
		PriceAmount:     e.PriceSold.Amount,
		Currency:        e.PriceSold.Currency,
		DiscountApplied: e.DiscountApplied,
	}
}

func fromLogEntryModel(m *logEntryModel) (auditlog.Entry, error) {
	e := auditlog.Entry{
		Timestamp:       m.Timestamp.UTC(),
		Action:          m.Action,
		ItemCode:        m.ItemCode,
		Category:        m.Category,
		Brand:           m.Brand,
		Item:            m.Item,
		QuantityChange:  intPtr(m.QuantityChange),
		NewQuantity:     intPtr(m.NewQuantity),
		PriceSold:       types.New(m.PriceAmount, m.Currency),
		DiscountApplied: m.DiscountApplied,
	}
	if m.ID != "" {
		var err error
		if e.ID, err = id.ParseLogEntryID(m.ID); err != nil {
			return auditlog.Entry{}, err
		}
	}
	return e, nil
}

// ==================== Catalog models ====================

type menuModel struct {
	grove.BaseModel `grove:"table:till_menu"`

	Category    string `grove:"category,pk"`
	Brand       string `grove:"brand,pk"`
	Item        string `grove:"item,pk"`
	ItemCode    string `grove:"item_code"`
	PriceAmount int64  `grove:"price_amount"`
	Currency    string `grove:"currency"`
}

func toMenuModel(it catalog.Item) menuModel {
	return menuModel{
		Category:    it.Category,
		Brand:       it.Brand,
		Item:        it.Item,
		ItemCode:    it.ItemCode,
		PriceAmount: it.Price.Amount,
		Currency:    it.Price.Currency,
	}
}

func fromMenuModel(m *menuModel) catalog.Item {
	return catalog.Item{
		Category: m.Category,
		Brand:    m.Brand,
		Item:     m.Item,
		ItemCode: m.ItemCode,
		Price:    types.New(m.PriceAmount, m.Currency),
	}
}

// ==================== Time clock models ====================

type punchModel struct {
	grove.BaseModel `grove:"table:till_punches"`

	ID        string    `grove:"id,pk"`
	Worker    string    `grove:"worker"`
	Direction string    `grove:"direction"`
	At        time.Time `grove:"at"`
}

func toPunchModel(p payroll.Punch) *punchModel {
	return &punchModel{
		ID:        p.ID.String(),
		Worker:    p.Worker,
		Direction: string(p.Direction),
		At:        p.At.UTC(),
	}
}

func fromPunchModel(m *punchModel) (payroll.Punch, error) {
	punchID, err := id.ParsePunchID(m.ID)
	if err != nil {
		return payroll.Punch{}, err
	}
	return payroll.Punch{
		ID:        punchID,
		Worker:    m.Worker,
		Direction: payroll.Direction(m.Direction),
		At:        m.At.UTC(),
	}, nil
}

// ==================== Helpers ====================

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func fromNullTime(t sql.NullTime) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time.UTC()
}

func idString(i id.ID) string {
	if i.IsNil() {
		return ""
	}
	return i.String()
}

func nullInt(q *int) sql.NullInt64 {
	if q == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*q), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
