package mongo

import (
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

// ==================== Snapshot models ====================

// snapshotModel is the single document holding one snapshot. Exactly one
// of the slices is used, selected by _id.
type snapshotModel struct {
	grove.BaseModel `grove:"table:till_snapshots"`

	ID        string          `grove:"id,pk"      bson:"_id"`
	Records   []recordModel   `grove:"records"    bson:"records,omitempty"`
	Holds     []holdModel     `grove:"holds"      bson:"holds,omitempty"`
	Items     []menuItemModel `grove:"items"      bson:"items,omitempty"`
	UpdatedAt time.Time       `grove:"updated_at" bson:"updated_at"`
}

type moneyModel struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func toMoneyModel(m types.Money) moneyModel { return moneyModel{Amount: m.Amount, Currency: m.Currency} }

func (m moneyModel) money() types.Money { return types.New(m.Amount, m.Currency) }

type recordModel struct {
	ItemCode       string     `bson:"item_code"`
	Category       string     `bson:"category"`
	Brand          string     `bson:"brand"`
	Item           string     `bson:"item"`
	Quantity       int        `bson:"quantity"`
	Price          moneyModel `bson:"price"`
	LastChange     string     `bson:"last_change,omitempty"`
	LastChangeDate *time.Time `bson:"last_change_date,omitempty"`
}

func toRecordModel(r inventory.Record) recordModel {
	m := recordModel{
		ItemCode:   r.ItemCode,
		Category:   r.Category,
		Brand:      r.Brand,
		Item:       r.Item,
		Quantity:   r.Quantity,
		Price:      toMoneyModel(r.Price),
		LastChange: r.LastChange,
	}
	if !r.LastChangeDate.IsZero() {
		t := r.LastChangeDate.UTC()
		m.LastChangeDate = &t
	}
	return m
}

func fromRecordModel(m recordModel) inventory.Record {
	r := inventory.Record{
		ItemCode:   m.ItemCode,
		Category:   m.Category,
		Brand:      m.Brand,
		Item:       m.Item,
		Quantity:   m.Quantity,
		Price:      m.Price.money(),
		LastChange: m.LastChange,
	}
	if m.LastChangeDate != nil {
		r.LastChangeDate = m.LastChangeDate.UTC()
	}
	return r
}

type holdModel struct {
	ID               string     `bson:"id"`
	ItemCode         string     `bson:"item_code"`
	Category         string     `bson:"category"`
	Brand            string     `bson:"brand"`
	Item             string     `bson:"item"`
	OriginalPrice    moneyModel `bson:"original_price"`
	AmountPaid       moneyModel `bson:"amount_paid"`
	RemainingBalance moneyModel `bson:"remaining_balance"`
	InventoryTracked bool       `bson:"inventory_tracked"`
	CustomerName     string     `bson:"customer_name,omitempty"`
	CustomerPhone    string     `bson:"customer_phone,omitempty"`
	CreatedAt        time.Time  `bson:"created_at"`
	UpdatedAt        time.Time  `bson:"updated_at"`
}

func toHoldModel(h layaway.Hold) holdModel {
	return holdModel{
		ID:               h.ID.String(),
		ItemCode:         h.ItemCode,
		Category:         h.Category,
		Brand:            h.Brand,
		Item:             h.Item,
		OriginalPrice:    toMoneyModel(h.OriginalPrice),
		AmountPaid:       toMoneyModel(h.AmountPaid),
		RemainingBalance: toMoneyModel(h.RemainingBalance),
		InventoryTracked: h.InventoryTracked,
		CustomerName:     h.Customer.Name,
		CustomerPhone:    h.Customer.Phone,
		CreatedAt:        h.CreatedAt,
		UpdatedAt:        h.UpdatedAt,
	}
}

func fromHoldModel(m holdModel) (layaway.Hold, error) {
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
		OriginalPrice:    m.OriginalPrice.money(),
		AmountPaid:       m.AmountPaid.money(),
		RemainingBalance: m.RemainingBalance.money(),
		InventoryTracked: m.InventoryTracked,
		Customer:         layaway.Customer{Name: m.CustomerName, Phone: m.CustomerPhone},
	}, nil
}

type menuItemModel struct {
	Category string     `bson:"category"`
	Brand    string     `bson:"brand"`
	Item     string     `bson:"item"`
	ItemCode string     `bson:"item_code"`
	Price    moneyModel `bson:"price"`
}

// ==================== Log models ====================

type logEntryModel struct {
	grove.BaseModel `grove:"table:till_log"`

	ID              string     `grove:"id,pk"            bson:"_id"`
	Seq             int64      `grove:"seq"              bson:"seq"`
	Day             string     `grove:"day"              bson:"day"`
	Timestamp       time.Time  `grove:"timestamp"        bson:"timestamp"`
	Action          string     `grove:"action"           bson:"action"`
	ItemCode        string     `grove:"item_code"        bson:"item_code"`
	Category        string     `grove:"category"         bson:"category"`
	Brand           string     `grove:"brand"            bson:"brand"`
	Item            string     `grove:"item"             bson:"item"`
	QuantityChange  *int       `grove:"quantity_change"  bson:"quantity_change,omitempty"`
	NewQuantity     *int       `grove:"new_quantity"     bson:"new_quantity,omitempty"`
	PriceSold       moneyModel `grove:"price_sold"       bson:"price_sold"`
	DiscountApplied string     `grove:"discount_applied" bson:"discount_applied"`
}

func toLogEntryModel(e auditlog.Entry, seq int64) *logEntryModel {
	return &logEntryModel{
		ID:              e.ID.String(),
		Seq:             seq,
		Day:             e.Day(),
		Timestamp:       e.Timestamp.UTC(),
		Action:          e.Action,
		ItemCode:        e.ItemCode,
		Category:        e.Category,
		Brand:           e.Brand,
		Item:            e.Item,
		QuantityChange:  e.QuantityChange,
		NewQuantity:     e.NewQuantity,
		PriceSold:       toMoneyModel(e.PriceSold),
		DiscountApplied: e.DiscountApplied,
	}
}

func fromLogEntryModel(m *logEntryModel) (auditlog.Entry, error) {
	entryID, err := id.ParseLogEntryID(m.ID)
	if err != nil {
		return auditlog.Entry{}, err
	}
	return auditlog.Entry{
		ID:              entryID,
		Timestamp:       m.Timestamp.UTC(),
		Action:          m.Action,
		ItemCode:        m.ItemCode,
		Category:        m.Category,
		Brand:           m.Brand,
		Item:            m.Item,
		QuantityChange:  m.QuantityChange,
		NewQuantity:     m.NewQuantity,
		PriceSold:       m.PriceSold.money(),
		DiscountApplied: m.DiscountApplied,
	}, nil
}

// ==================== Punch models ====================

type punchModel struct {
	grove.BaseModel `grove:"table:till_punches"`

	ID        string    `grove:"id,pk"     bson:"_id"`
	Worker    string    `grove:"worker"    bson:"worker"`
	Direction string    `grove:"direction" bson:"direction"`
	At        time.Time `grove:"at"        bson:"at"`
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

func toMenuItemModel(it catalog.Item) menuItemModel {
	return menuItemModel{
		Category: it.Category,
		Brand:    it.Brand,
		Item:     it.Item,
		ItemCode: it.ItemCode,
		Price:    toMoneyModel(it.Price),
	}
}

func fromMenuItemModel(m menuItemModel) catalog.Item {
	return catalog.Item{
		Category: m.Category,
		Brand:    m.Brand,
		Item:     m.Item,
		ItemCode: m.ItemCode,
		Price:    m.Price.money(),
	}
}
