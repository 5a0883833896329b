package till_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/till"
	"github.com/xraph/till/auditlog"
	"github.com/xraph/till/catalog"
	"github.com/xraph/till/inventory"
	"github.com/xraph/till/layaway"
	"github.com/xraph/till/payroll"
	"github.com/xraph/till/sale"
	"github.com/xraph/till/store/memory"
	"github.com/xraph/till/types"
)

var (
	testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	redBow   = inventory.NewKey("Bows", "Acme", "Red Bow")
	blueBow  = inventory.NewKey("Bows", "Acme", "Blue Bow")
	snapClip = inventory.NewKey(inventory.CategoryClips, "Acme", "Snap Clip")

	errDiskFull = errors.New("disk full")
)

// countingStore counts snapshot saves and can be told to fail them.
type countingStore struct {
	*memory.Store

	mu             sync.Mutex
	inventorySaves int
	layawaySaves   int
	failSaves      bool
}

func (c *countingStore) SaveInventory(ctx context.Context, snap inventory.Snapshot) error {
	c.mu.Lock()
	c.inventorySaves++
	fail := c.failSaves
	c.mu.Unlock()
	if fail {
		return errDiskFull
	}
	return c.Store.SaveInventory(ctx, snap)
}

func (c *countingStore) SaveLayaways(ctx context.Context, holds layaway.List) error {
	c.mu.Lock()
	c.layawaySaves++
	fail := c.failSaves
	c.mu.Unlock()
	if fail {
		return errDiskFull
	}
	return c.Store.SaveLayaways(ctx, holds)
}

func (c *countingStore) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inventorySaves, c.layawaySaves = 0, 0
}

func (c *countingStore) setFail(fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failSaves = fail
}

func (c *countingStore) saves() (inv, lay int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inventorySaves, c.layawaySaves
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seededStore(t *testing.T) *countingStore {
	t.Helper()
	ctx := context.Background()

	ms := memory.New()
	if err := ms.SaveInventory(ctx, inventory.NewSnapshot(
		inventory.Record{ItemCode: "B-001", Category: "Bows", Brand: "Acme", Item: "Red Bow", Quantity: 10, Price: types.USD(2500)},
		inventory.Record{ItemCode: "B-002", Category: "Bows", Brand: "Acme", Item: "Blue Bow", Quantity: 0, Price: types.USD(1500)},
	)); err != nil {
		t.Fatal(err)
	}
	if err := ms.SaveCatalog(ctx, catalog.New(
		catalog.Item{Category: inventory.CategoryClips, Brand: "Acme", Item: "Snap Clip", ItemCode: "C-001", Price: types.USD(500)},
	)); err != nil {
		t.Fatal(err)
	}
	return &countingStore{Store: ms}
}

func startEngine(t *testing.T, cs *countingStore, opts ...till.Option) (*till.Engine, *till.Session) {
	t.Helper()

	base := []till.Option{
		till.WithClock(func() time.Time { return testNow }),
		till.WithLogger(quietLogger()),
	}
	e := till.New(cs, append(base, opts...)...)
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = e.Stop() })

	sess, err := e.Session()
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	cs.reset()
	return e, sess
}

func quantity(t *testing.T, snap inventory.Snapshot, k inventory.Key) int {
	t.Helper()
	rec, ok := snap.Get(k)
	if !ok {
		t.Fatalf("no inventory record for %s", k)
	}
	return rec.Quantity
}

func storedQuantity(t *testing.T, cs *countingStore, k inventory.Key) int {
	t.Helper()
	snap, err := cs.LoadInventory(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return quantity(t, snap, k)
}

func actions(entries []auditlog.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Action
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSessionBeforeStart(t *testing.T) {
	e := till.New(memory.New())
	if _, err := e.Session(); !errors.Is(err, till.ErrNotStarted) {
		t.Errorf("Session() error = %v, want ErrNotStarted", err)
	}
	if err := e.Flush(context.Background()); !errors.Is(err, till.ErrNotStarted) {
		t.Errorf("Flush() error = %v, want ErrNotStarted", err)
	}
}

func TestAddSaleLineThenUndo(t *testing.T) {
	ctx := context.Background()
	cs := seededStore(t)
	_, sess := startEngine(t, cs)

	line, err := sess.AddSaleLine(ctx, till.SaleLineRequest{
		Key:            redBow,
		Price:          types.USD(2500),
		TrackInventory: true,
	})
	if err != nil {
		t.Fatalf("AddSaleLine() error = %v", err)
	}
	if line.ItemCode != "B-001" {
		t.Errorf("ItemCode = %q, want B-001", line.ItemCode)
	}
	if line.QuantityChange != -1 || line.QuantityAfter != 9 {
		t.Errorf("quantity change/after = %d/%d, want -1/9", line.QuantityChange, line.QuantityAfter)
	}
	if got := sess.Total(); got.Amount != 2500 {
		t.Errorf("Total() = %v, want $25.00", got)
	}
	if got := quantity(t, sess.Inventory(), redBow); got != 9 {
		t.Errorf("quantity after add = %d, want 9", got)
	}
	if got := storedQuantity(t, cs, redBow); got != 10 {
		t.Errorf("stored quantity after add = %d, want 10", got)
	}

	undone, err := sess.UndoLast(ctx)
	if err != nil {
		t.Fatalf("UndoLast() error = %v", err)
	}
	if undone.LineID() != line.ID {
		t.Errorf("UndoLast() removed %s, want %s", undone.LineID(), line.ID)
	}
	if got := sess.Total(); !got.IsZero() {
		t.Errorf("Total() after undo = %v, want zero", got)
	}
	if got := quantity(t, sess.Inventory(), redBow); got != 10 {
		t.Errorf("quantity after undo = %d, want 10", got)
	}
}

func TestLayawayPaidOffInOneSale(t *testing.T) {
	ctx := context.Background()
	cs := seededStore(t)
	e, sess := startEngine(t, cs)

	down, hold, err := sess.AddLayawayDownPayment(ctx, till.LayawayRequest{
		Key:           redBow,
		OriginalPrice: types.USD(10000),
		Customer:      layaway.Customer{Name: "Dana", Phone: "555-0100"},
	})
	if err != nil {
		t.Fatalf("AddLayawayDownPayment() error = %v", err)
	}
	if down.Price.Amount != 3000 {
		t.Errorf("down payment = %v, want $30.00", down.Price)
	}
	if !hold.InventoryTracked {
		t.Error("hold on a tracked item should be inventory tracked")
	}
	if _, lay := cs.saves(); lay != 1 {
		t.Errorf("layaway saves after down payment = %d, want 1", lay)
	}

	projected, ok := sess.Hold(hold.ID)
	if !ok {
		t.Fatal("Hold() did not find the new hold")
	}
	if projected.RemainingBalance.Amount != 7000 {
		t.Errorf("projected remaining = %v, want $70.00", projected.RemainingBalance)
	}
	if got := sess.Total(); got.Amount != 3000 {
		t.Errorf("Total() = %v, want $30.00", got)
	}

	if _, err := sess.AddLayawayPayment(ctx, hold.ID, types.USD(7000)); err != nil {
		t.Fatalf("AddLayawayPayment() error = %v", err)
	}

	receipt, err := sess.CompleteSale(ctx)
	if err != nil {
		t.Fatalf("CompleteSale() error = %v", err)
	}
	if len(receipt.Finalized) != 1 || receipt.Finalized[0].ID != hold.ID {
		t.Errorf("Finalized = %v, want the paid-off hold", receipt.Finalized)
	}
	if len(receipt.FinalizedNotices()) != 1 {
		t.Errorf("FinalizedNotices() = %v, want one notice", receipt.FinalizedNotices())
	}
	if len(sess.Layaways()) != 0 {
		t.Errorf("Layaways() = %d holds, want 0", len(sess.Layaways()))
	}
	if !sess.Total().IsZero() {
		t.Errorf("Total() after completion = %v, want zero", sess.Total())
	}
	if got := sess.LastCompletedTotal(); got.Amount != 10000 {
		t.Errorf("LastCompletedTotal() = %v, want $100.00", got)
	}
	if got := storedQuantity(t, cs, redBow); got != 9 {
		t.Errorf("stored quantity = %d, want 9", got)
	}

	entries, err := e.ReadLog(ctx, testNow)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		auditlog.ActionLayawayDownPayment,
		auditlog.ActionLayawayPayment,
		auditlog.ActionLayawayCompleted,
	}
	if got := actions(entries); !equalStrings(got, want) {
		t.Errorf("log actions = %v, want %v", got, want)
	}
	done := entries[2]
	if done.QuantityChange == nil || *done.QuantityChange != -1 {
		t.Errorf("completion quantity change = %v, want -1", done.QuantityChange)
	}
	if done.NewQuantity == nil || *done.NewQuantity != 9 {
		t.Errorf("completion new quantity = %v, want 9", done.NewQuantity)
	}
}

func TestLayawayPaymentValidation(t *testing.T) {
	ctx := context.Background()
	cs := seededStore(t)
	_, sess := startEngine(t, cs)

	_, hold, err := sess.AddLayawayDownPayment(ctx, till.LayawayRequest{
		Key:           redBow,
		OriginalPrice: types.USD(10000),
	})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		amount types.Money
	}{
		{name: "exceeds remaining", amount: types.USD(7001)},
		{name: "zero", amount: types.USD(0)},
		{name: "negative", amount: types.USD(-100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sess.AddLayawayPayment(ctx, hold.ID, tt.amount)
			if !errors.Is(err, till.ErrInvalidAmount) {
				t.Fatalf("AddLayawayPayment() error = %v, want ErrInvalidAmount", err)
			}
			if !till.IsRejected(err) {
				t.Error("IsRejected() = false, want true")
			}
			if sess.Len() != 1 {
				t.Errorf("Len() = %d, want 1", sess.Len())
			}
			if got := sess.Total(); got.Amount != 3000 {
				t.Errorf("Total() = %v, want $30.00", got)
			}
			h, _ := sess.Hold(hold.ID)
			if h.RemainingBalance.Amount != 7000 {
				t.Errorf("remaining = %v, want $70.00", h.RemainingBalance)
			}
		})
	}

	t.Run("pending payments count against the balance", func(t *testing.T) {
		if _, err := sess.AddLayawayPayment(ctx, hold.ID, types.USD(5000)); err != nil {
			t.Fatal(err)
		}
		if _, err := sess.AddLayawayPayment(ctx, hold.ID, types.USD(2500)); !errors.Is(err, till.ErrInvalidAmount) {
			t.Errorf("second payment error = %v, want ErrInvalidAmount", err)
		}
	})

	t.Run("unknown hold", func(t *testing.T) {
		other := layaway.NewHold(redBow, "B-001", types.USD(100), true, layaway.Customer{}, testNow)
		if _, err := sess.AddLayawayPayment(ctx, other.ID, types.USD(50)); !errors.Is(err, till.ErrHoldNotFound) {
			t.Errorf("error = %v, want ErrHoldNotFound", err)
		}
	})
}

func TestCancelSaleRestoresSnapshots(t *testing.T) {
	ctx := context.Background()
	cs := seededStore(t)
	_, sess := startEngine(t, cs)

	before := sess.Inventory()

	if _, err := sess.AddItem(ctx, redBow, sale.Discount{}); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.AddItem(ctx, redBow, sale.PercentOff(decimal.NewFromInt(10))); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.AddItem(ctx, snapClip, sale.Discount{}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := sess.AddLayawayDownPayment(ctx, till.LayawayRequest{Key: redBow, OriginalPrice: types.USD(4000)}); err != nil {
		t.Fatal(err)
	}
	if got := quantity(t, sess.Inventory(), redBow); got != 8 {
		t.Fatalf("quantity mid-sale = %d, want 8", got)
	}
	cs.reset()

	if err := sess.CancelSale(ctx); err != nil {
		t.Fatalf("CancelSale() error = %v", err)
	}
	if !sess.Inventory().Equal(before) {
		t.Error("inventory after cancel differs from before the sale")
	}
	if n := len(sess.Layaways()); n != 0 {
		t.Errorf("Layaways() = %d, want 0", n)
	}
	if sess.Len() != 0 || !sess.Total().IsZero() {
		t.Errorf("ledger not cleared: len=%d total=%v", sess.Len(), sess.Total())
	}
	if inv, lay := cs.saves(); inv != 1 || lay != 1 {
		t.Errorf("saves = %d inventory, %d layaway; want 1 and 1", inv, lay)
	}

	stored, err := cs.LoadLayaways(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Len() != 0 {
		t.Errorf("stored holds = %d, want 0", stored.Len())
	}

	if err := sess.CancelSale(ctx); err != nil {
		t.Errorf("CancelSale() on empty ledger error = %v, want nil", err)
	}
}

func TestCompleteSaleCommitsOnce(t *testing.T) {
	ctx := context.Background()
	cs := seededStore(t)
	e, sess := startEngine(t, cs)

	if _, err := sess.AddItem(ctx, redBow, sale.Discount{}); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.AddItem(ctx, redBow, sale.AmountOff(types.USD(500))); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.AddItem(ctx, snapClip, sale.Discount{}); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.AddCustomItem(ctx, "Gift wrap", types.USD(300)); err != nil {
		t.Fatal(err)
	}
	cs.reset()

	wantTotal := sale.Total(sess.Lines())
	receipt, err := sess.CompleteSale(ctx)
	if err != nil {
		t.Fatalf("CompleteSale() error = %v", err)
	}
	if !receipt.Total.Equal(wantTotal) || receipt.Total.Amount != 2500+2000+500+300 {
		t.Errorf("receipt total = %v, want %v", receipt.Total, wantTotal)
	}
	if inv, lay := cs.saves(); inv != 1 || lay != 1 {
		t.Errorf("saves = %d inventory, %d layaway; want 1 and 1", inv, lay)
	}
	if got := storedQuantity(t, cs, redBow); got != 8 {
		t.Errorf("stored quantity = %d, want 8", got)
	}

	snap, _ := cs.LoadInventory(ctx)
	rec, _ := snap.Get(redBow)
	if rec.LastChange != inventory.ChangeSold {
		t.Errorf("LastChange = %q, want %q", rec.LastChange, inventory.ChangeSold)
	}

	entries, err := e.ReadLog(ctx, testNow)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		auditlog.ActionSoldItem,
		auditlog.ActionSoldItem,
		auditlog.ActionSoldUntracked,
		auditlog.ActionSoldUntracked,
	}
	if got := actions(entries); !equalStrings(got, want) {
		t.Fatalf("log actions = %v, want %v", got, want)
	}
	if entries[1].DiscountApplied != "$5.00" {
		t.Errorf("discount label = %q, want $5.00", entries[1].DiscountApplied)
	}
	if *entries[1].NewQuantity != 8 {
		t.Errorf("second sale new quantity = %d, want 8", *entries[1].NewQuantity)
	}
	if entries[2].QuantityChange != nil || entries[2].NewQuantity != nil {
		t.Error("untracked entry should have N/A quantities")
	}
	if entries[3].ItemCode != till.CustomItemCode {
		t.Errorf("custom item code = %q, want %q", entries[3].ItemCode, till.CustomItemCode)
	}
}

func TestEmptyLedger(t *testing.T) {
	ctx := context.Background()
	cs := seededStore(t)
	_, sess := startEngine(t, cs)

	if _, err := sess.AddItem(ctx, redBow, sale.Discount{}); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.UndoLast(ctx); err != nil {
		t.Fatal(err)
	}
	cs.reset()

	tests := []struct {
		name string
		fn   func() error
	}{
		{"undo", func() error { _, err := sess.UndoLast(ctx); return err }},
		{"duplicate", func() error { _, err := sess.DuplicateLast(ctx); return err }},
		{"complete", func() error { _, err := sess.CompleteSale(ctx); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, till.ErrEmptyLedger) {
				t.Errorf("error = %v, want ErrEmptyLedger", err)
			}
		})
	}

	if inv, lay := cs.saves(); inv != 0 || lay != 0 {
		t.Errorf("saves = %d inventory, %d layaway; want none", inv, lay)
	}
}

func TestDuplicateLast(t *testing.T) {
	ctx := context.Background()

	t.Run("down payment opens an independent hold", func(t *testing.T) {
		cs := seededStore(t)
		_, sess := startEngine(t, cs)

		_, first, err := sess.AddLayawayDownPayment(ctx, till.LayawayRequest{
			Key:           redBow,
			OriginalPrice: types.USD(10000),
			Customer:      layaway.Customer{Name: "Dana"},
		})
		if err != nil {
			t.Fatal(err)
		}

		line, err := sess.DuplicateLast(ctx)
		if err != nil {
			t.Fatalf("DuplicateLast() error = %v", err)
		}
		dup, ok := line.(sale.LayawayDownPayment)
		if !ok {
			t.Fatalf("DuplicateLast() returned %T, want sale.LayawayDownPayment", line)
		}
		if dup.HoldID == first.ID {
			t.Error("duplicate reused the first hold")
		}

		holds := sess.Layaways()
		if len(holds) != 2 {
			t.Fatalf("Layaways() = %d, want 2", len(holds))
		}
		for _, h := range holds {
			if h.RemainingBalance.Amount != 7000 || h.Customer.Name != "Dana" {
				t.Errorf("hold %s = remaining %v customer %q", h.ID, h.RemainingBalance, h.Customer.Name)
			}
		}
		if got := sess.Total(); got.Amount != 6000 {
			t.Errorf("Total() = %v, want $60.00", got)
		}
	})

	t.Run("payment is validated again", func(t *testing.T) {
		cs := seededStore(t)
		_, sess := startEngine(t, cs)

		_, hold, err := sess.AddLayawayDownPayment(ctx, till.LayawayRequest{Key: redBow, OriginalPrice: types.USD(10000)})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := sess.AddLayawayPayment(ctx, hold.ID, types.USD(4000)); err != nil {
			t.Fatal(err)
		}
		if _, err := sess.DuplicateLast(ctx); !errors.Is(err, till.ErrInvalidAmount) {
			t.Errorf("DuplicateLast() error = %v, want ErrInvalidAmount", err)
		}
		if sess.Len() != 2 {
			t.Errorf("Len() = %d, want 2", sess.Len())
		}
	})

	t.Run("out of stock item asks again", func(t *testing.T) {
		asked := 0
		cs := seededStore(t)
		_, sess := startEngine(t, cs, till.WithStockConfirmer(func(context.Context, inventory.Record) bool {
			asked++
			return true
		}))

		if _, err := sess.AddItem(ctx, blueBow, sale.Discount{}); err != nil {
			t.Fatal(err)
		}
		if _, err := sess.DuplicateLast(ctx); err != nil {
			t.Fatal(err)
		}
		if asked != 2 {
			t.Errorf("confirmer asked %d times, want 2", asked)
		}
		if got := quantity(t, sess.Inventory(), blueBow); got != -2 {
			t.Errorf("quantity = %d, want -2", got)
		}
	})
}

func TestOutOfStockDeclined(t *testing.T) {
	ctx := context.Background()
	cs := seededStore(t)
	_, sess := startEngine(t, cs, till.WithStockConfirmer(func(context.Context, inventory.Record) bool {
		return false
	}))

	if _, err := sess.AddItem(ctx, blueBow, sale.Discount{}); !errors.Is(err, till.ErrOutOfStockDeclined) {
		t.Fatalf("AddItem() error = %v, want ErrOutOfStockDeclined", err)
	}
	if sess.Len() != 0 {
		t.Errorf("Len() = %d, want 0", sess.Len())
	}
	if got := quantity(t, sess.Inventory(), blueBow); got != 0 {
		t.Errorf("quantity = %d, want 0", got)
	}
}

func TestMissingItemData(t *testing.T) {
	ctx := context.Background()
	cs := seededStore(t)
	_, sess := startEngine(t, cs)

	tests := []struct {
		name string
		fn   func() error
	}{
		{"tracked item without record", func() error {
			_, err := sess.AddItem(ctx, inventory.NewKey("Bows", "Acme", "Gold Bow"), sale.Discount{})
			return err
		}},
		{"menu item without entry", func() error {
			_, err := sess.AddItem(ctx, inventory.NewKey(inventory.CategoryOther, "Acme", "Mystery"), sale.Discount{})
			return err
		}},
		{"incomplete key", func() error {
			_, err := sess.AddSaleLine(ctx, till.SaleLineRequest{Key: inventory.NewKey("Bows", "", "Red Bow")})
			return err
		}},
		{"layaway with no item code", func() error {
			_, _, err := sess.AddLayawayDownPayment(ctx, till.LayawayRequest{
				Key:           inventory.NewKey(inventory.CategoryOther, "Acme", "Mystery"),
				OriginalPrice: types.USD(1000),
			})
			return err
		}},
		{"tracked layaway without record", func() error {
			_, _, err := sess.AddLayawayDownPayment(ctx, till.LayawayRequest{
				Key:           inventory.NewKey("Bows", "Acme", "Gold Bow"),
				ItemCode:      "B-999",
				OriginalPrice: types.USD(1000),
			})
			return err
		}},
		{"custom item without description", func() error {
			_, err := sess.AddCustomItem(ctx, "  ", types.USD(100))
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, till.ErrMissingItemData) {
				t.Errorf("error = %v, want ErrMissingItemData", err)
			}
			if sess.Len() != 0 {
				t.Errorf("Len() = %d, want 0", sess.Len())
			}
		})
	}
}

func TestPersistenceFailureAndFlush(t *testing.T) {
	ctx := context.Background()
	cs := seededStore(t)
	e, sess := startEngine(t, cs)

	if _, err := sess.AddItem(ctx, redBow, sale.Discount{}); err != nil {
		t.Fatal(err)
	}
	cs.setFail(true)

	receipt, err := sess.CompleteSale(ctx)
	if !errors.Is(err, till.ErrPersistence) || !errors.Is(err, errDiskFull) {
		t.Fatalf("CompleteSale() error = %v, want ErrPersistence wrapping the cause", err)
	}
	if !till.IsRetryable(err) {
		t.Error("IsRetryable() = false, want true")
	}
	if receipt == nil || receipt.Total.Amount != 2500 {
		t.Fatalf("receipt = %+v, want a $25.00 receipt", receipt)
	}
	if sess.Len() != 0 {
		t.Errorf("ledger not cleared after commit, len=%d", sess.Len())
	}
	if got := storedQuantity(t, cs, redBow); got != 10 {
		t.Errorf("stored quantity = %d, want 10 before flush", got)
	}

	cs.setFail(false)
	if err := e.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if got := storedQuantity(t, cs, redBow); got != 9 {
		t.Errorf("stored quantity after flush = %d, want 9", got)
	}
}

func TestFlushKeepsPendingDecrementsOut(t *testing.T) {
	ctx := context.Background()
	cs := seededStore(t)
	e, sess := startEngine(t, cs)

	if _, err := sess.AddItem(ctx, redBow, sale.Discount{}); err != nil {
		t.Fatal(err)
	}
	if err := e.Flush(ctx); err != nil {
		t.Fatal(err)
	}
	if got := storedQuantity(t, cs, redBow); got != 10 {
		t.Errorf("stored quantity = %d, want 10", got)
	}
}

func TestAdjustInventory(t *testing.T) {
	ctx := context.Background()
	cs := seededStore(t)
	e, sess := startEngine(t, cs)

	if _, err := sess.AddItem(ctx, redBow, sale.Discount{}); err != nil {
		t.Fatal(err)
	}

	rec, err := sess.AdjustInventory(ctx, redBow, 20)
	if err != nil {
		t.Fatalf("AdjustInventory() error = %v", err)
	}
	if rec.Quantity != 20 || rec.LastChange != inventory.ChangeManualAdjustment {
		t.Errorf("record = %+v", rec)
	}
	if got := storedQuantity(t, cs, redBow); got != 20 {
		t.Errorf("stored quantity = %d, want 20", got)
	}
	if got := quantity(t, sess.Inventory(), redBow); got != 19 {
		t.Errorf("live quantity = %d, want 19", got)
	}

	if err := sess.CancelSale(ctx); err != nil {
		t.Fatal(err)
	}
	if got := quantity(t, sess.Inventory(), redBow); got != 20 {
		t.Errorf("quantity after cancel = %d, want 20", got)
	}

	entries, _ := e.ReadLog(ctx, testNow)
	if len(entries) != 1 || entries[0].Action != auditlog.ActionInventoryAdjusted {
		t.Fatalf("log = %v, want one adjustment", actions(entries))
	}
	if *entries[0].QuantityChange != 10 || *entries[0].NewQuantity != 20 {
		t.Errorf("adjustment = %d -> %d, want +10 -> 20", *entries[0].QuantityChange, *entries[0].NewQuantity)
	}

	if _, err := sess.AdjustInventory(ctx, inventory.NewKey("Bows", "Acme", "Gold Bow"), 1); !errors.Is(err, till.ErrItemNotFound) {
		t.Errorf("unknown item error = %v, want ErrItemNotFound", err)
	}
	var ve till.ValidationError
	if _, err := sess.AdjustInventory(ctx, redBow, -1); !errors.As(err, &ve) {
		t.Errorf("negative quantity error = %v, want ValidationError", err)
	}
}

func openHold(t *testing.T, sess *till.Session, key inventory.Key, price types.Money) layaway.Hold {
	t.Helper()
	ctx := context.Background()

	_, hold, err := sess.AddLayawayDownPayment(ctx, till.LayawayRequest{Key: key, OriginalPrice: price})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sess.CompleteSale(ctx); err != nil {
		t.Fatal(err)
	}
	h, ok := sess.Hold(hold.ID)
	if !ok {
		t.Fatal("hold missing after down payment sale")
	}
	return h
}

func TestEditLayawayBalance(t *testing.T) {
	ctx := context.Background()
	cs := seededStore(t)
	e, sess := startEngine(t, cs)

	hold := openHold(t, sess, redBow, types.USD(10000))
	if hold.AmountPaid.Amount != 3000 || hold.RemainingBalance.Amount != 7000 {
		t.Fatalf("hold after down payment = paid %v remaining %v", hold.AmountPaid, hold.RemainingBalance)
	}

	for _, bad := range []types.Money{types.USD(-1), types.USD(10001)} {
		if _, err := sess.EditLayawayBalance(ctx, hold.ID, bad); !errors.Is(err, till.ErrInvalidBalance) {
			t.Errorf("EditLayawayBalance(%v) error = %v, want ErrInvalidBalance", bad, err)
		}
	}

	edited, err := sess.EditLayawayBalance(ctx, hold.ID, types.USD(2000))
	if err != nil {
		t.Fatal(err)
	}
	if edited.AmountPaid.Amount != 8000 || !edited.Balanced() {
		t.Errorf("edited hold = paid %v remaining %v", edited.AmountPaid, edited.RemainingBalance)
	}

	if _, err := sess.AddLayawayPayment(ctx, hold.ID, types.USD(500)); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.EditLayawayBalance(ctx, hold.ID, types.USD(0)); !errors.Is(err, till.ErrHoldPending) {
		t.Errorf("edit with pending payment error = %v, want ErrHoldPending", err)
	}
	if err := sess.CancelSale(ctx); err != nil {
		t.Fatal(err)
	}

	if _, err := sess.EditLayawayBalance(ctx, hold.ID, types.USD(0)); err != nil {
		t.Fatal(err)
	}
	if _, ok := sess.Hold(hold.ID); ok {
		t.Error("hold edited to zero should be finalized")
	}
	if got := storedQuantity(t, cs, redBow); got != 9 {
		t.Errorf("stored quantity = %d, want 9", got)
	}

	entries, _ := e.ReadLog(ctx, testNow)
	want := []string{
		auditlog.ActionLayawayDownPayment,
		auditlog.ActionLayawayBalanceEdited,
		auditlog.ActionLayawayBalanceEdited,
		auditlog.ActionLayawayCompleted,
	}
	if got := actions(entries); !equalStrings(got, want) {
		t.Errorf("log actions = %v, want %v", got, want)
	}
}

func TestCancelLayaway(t *testing.T) {
	ctx := context.Background()
	cs := seededStore(t)
	e, sess := startEngine(t, cs)

	hold := openHold(t, sess, redBow, types.USD(10000))

	canceled, err := sess.CancelLayaway(ctx, hold.ID)
	if err != nil {
		t.Fatalf("CancelLayaway() error = %v", err)
	}
	if canceled.ID != hold.ID {
		t.Errorf("canceled %s, want %s", canceled.ID, hold.ID)
	}
	if got := storedQuantity(t, cs, redBow); got != 10 {
		t.Errorf("stored quantity = %d, want 10", got)
	}
	if _, err := sess.CancelLayaway(ctx, hold.ID); !errors.Is(err, till.ErrHoldNotFound) {
		t.Errorf("second cancel error = %v, want ErrHoldNotFound", err)
	}

	entries, _ := e.ReadLog(ctx, testNow)
	if got := actions(entries); got[len(got)-1] != auditlog.ActionLayawayCanceled {
		t.Errorf("last log action = %q, want %q", got[len(got)-1], auditlog.ActionLayawayCanceled)
	}
}

type dropRecorder struct {
	mu      sync.Mutex
	missing [][]string
}

func (d *dropRecorder) Name() string { return "drop-recorder" }

func (d *dropRecorder) OnLogEntryDropped(_ context.Context, _ auditlog.Entry, missing []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.missing = append(d.missing, missing)
	return nil
}

func TestMalformedLogEntryIsDropped(t *testing.T) {
	ctx := context.Background()
	cs := seededStore(t)

	legacy := layaway.NewHold(inventory.NewKey(inventory.CategoryOther, "Acme", "Scarf"), "", types.USD(2000), false, layaway.Customer{}, testNow)
	if err := cs.Store.SaveLayaways(ctx, layaway.NewList(legacy)); err != nil {
		t.Fatal(err)
	}

	rec := &dropRecorder{}
	e, sess := startEngine(t, cs, till.WithPlugin(rec))

	if _, err := sess.CancelLayaway(ctx, legacy.ID); err != nil {
		t.Fatalf("CancelLayaway() error = %v, want nil", err)
	}

	entries, _ := e.ReadLog(ctx, testNow)
	if len(entries) != 0 {
		t.Errorf("log = %v, want nothing written", actions(entries))
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.missing) != 1 || !equalStrings(rec.missing[0], []string{"itemCode"}) {
		t.Errorf("dropped = %v, want one entry missing itemCode", rec.missing)
	}
}

func TestApplyMenuChange(t *testing.T) {
	ctx := context.Background()
	cs := seededStore(t)
	e, sess := startEngine(t, cs)

	wrap := catalog.Item{Category: inventory.CategoryOther, Brand: "House", Item: "Gift Wrap", ItemCode: "O-100", Price: types.USD(250)}
	if err := sess.ApplyMenuChange(ctx, till.MenuAdded, wrap); err != nil {
		t.Fatal(err)
	}

	line, err := sess.AddItem(ctx, wrap.Key(), sale.Discount{})
	if err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	if line.Price.Amount != 250 || line.Tracked {
		t.Errorf("line = %+v, want untracked $2.50", line)
	}

	if err := sess.ApplyMenuChange(ctx, till.MenuRemoved, wrap); err != nil {
		t.Fatal(err)
	}
	if err := sess.ApplyMenuChange(ctx, till.MenuRemoved, wrap); !errors.Is(err, till.ErrNotFound) {
		t.Errorf("second remove error = %v, want ErrNotFound", err)
	}

	stored, _ := cs.LoadCatalog(ctx)
	if stored.Len() != 1 {
		t.Errorf("stored menu = %d items, want 1", stored.Len())
	}

	entries, _ := e.ReadLog(ctx, testNow)
	want := []string{auditlog.ActionMenuItemAdded, auditlog.ActionMenuItemRemoved}
	if got := actions(entries); !equalStrings(got, want) {
		t.Errorf("log actions = %v, want %v", got, want)
	}
}

func TestStopCancelsPendingSale(t *testing.T) {
	ctx := context.Background()
	cs := seededStore(t)
	e := till.New(cs, till.WithLogger(quietLogger()))
	if err := e.Start(ctx); err != nil {
		t.Fatal(err)
	}
	sess, _ := e.Session()

	if _, _, err := sess.AddLayawayDownPayment(ctx, till.LayawayRequest{Key: redBow, OriginalPrice: types.USD(1000)}); err != nil {
		t.Fatal(err)
	}
	if err := e.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if sess.Len() != 0 {
		t.Errorf("Len() after Stop = %d, want 0", sess.Len())
	}
	if n := len(sess.Layaways()); n != 0 {
		t.Errorf("holds after Stop = %d, want 0", n)
	}
}

func TestPayroll(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	e := till.New(memory.New(), till.WithLogger(quietLogger()), till.WithClock(func() time.Time { return now }))

	punch := func(worker string, dir payroll.Direction, at time.Time) {
		t.Helper()
		now = at
		if _, err := e.RecordPunch(ctx, worker, dir); err != nil {
			t.Fatalf("RecordPunch() error = %v", err)
		}
	}
	punch("ana", payroll.In, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	punch("ana", payroll.Out, time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC))
	punch("ana", payroll.In, time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC))
	punch("bo", payroll.In, time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC))
	punch("bo", payroll.Out, time.Date(2026, 2, 20, 14, 30, 0, 0, time.UTC))

	now = time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	report, err := e.PayrollReport(ctx)
	if err != nil {
		t.Fatalf("PayrollReport() error = %v", err)
	}

	ana, ok := report.Current.Worker("ana")
	if !ok {
		t.Fatal("ana missing from current period")
	}
	if got := ana.Hours().StringFixed(2); got != "8.00" {
		t.Errorf("ana hours = %s, want 8.00", got)
	}
	if ana.Unmatched != 1 {
		t.Errorf("ana unmatched = %d, want 1", ana.Unmatched)
	}

	bo, ok := report.Previous.Worker("bo")
	if !ok {
		t.Fatal("bo missing from previous period")
	}
	if got := bo.Hours().StringFixed(2); got != "4.50" {
		t.Errorf("bo hours = %s, want 4.50", got)
	}

	var ve till.ValidationError
	if _, err := e.RecordPunch(ctx, " ", payroll.In); !errors.As(err, &ve) {
		t.Errorf("blank worker error = %v, want ValidationError", err)
	}
	if _, err := e.RecordPunch(ctx, "ana", payroll.Direction("LUNCH")); !errors.As(err, &ve) {
		t.Errorf("bad direction error = %v, want ValidationError", err)
	}
}

func TestTrackedLayawayWithoutRecordOpensNoHold(t *testing.T) {
	ctx := context.Background()
	cs := seededStore(t)
	_, sess := startEngine(t, cs)

	_, _, err := sess.AddLayawayDownPayment(ctx, till.LayawayRequest{
		Key:           inventory.NewKey("Bows", "Acme", "Gold Bow"),
		ItemCode:      "B-999",
		OriginalPrice: types.USD(1000),
	})
	if !errors.Is(err, till.ErrMissingItemData) {
		t.Fatalf("AddLayawayDownPayment() error = %v, want ErrMissingItemData", err)
	}
	if n := len(sess.Layaways()); n != 0 {
		t.Errorf("Layaways() = %d, want 0", n)
	}
	if _, lay := cs.saves(); lay != 0 {
		t.Errorf("layaway saves = %d, want 0", lay)
	}
}

// lockCheck fails the test if fn does not return promptly.
func lockCheck(t *testing.T, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("session still locked after a rejected call")
	}
}

func TestForeignCurrencyRejected(t *testing.T) {
	ctx := context.Background()
	cs := seededStore(t)
	_, sess := startEngine(t, cs)

	hold := openHold(t, sess, redBow, types.USD(10000))

	tests := []struct {
		name string
		fn   func() error
		want error
	}{
		{"sale line", func() error {
			_, err := sess.AddSaleLine(ctx, till.SaleLineRequest{Key: snapClip, Price: types.CAD(500)})
			return err
		}, till.ErrInvalidAmount},
		{"custom item", func() error {
			_, err := sess.AddCustomItem(ctx, "Gift wrap", types.CAD(100))
			return err
		}, till.ErrInvalidAmount},
		{"fixed discount", func() error {
			_, err := sess.AddItem(ctx, redBow, sale.AmountOff(types.CAD(100)))
			return err
		}, till.ErrInvalidAmount},
		{"layaway down payment", func() error {
			_, _, err := sess.AddLayawayDownPayment(ctx, till.LayawayRequest{Key: redBow, OriginalPrice: types.CAD(4000)})
			return err
		}, till.ErrInvalidAmount},
		{"layaway payment", func() error {
			_, err := sess.AddLayawayPayment(ctx, hold.ID, types.CAD(1000))
			return err
		}, till.ErrInvalidAmount},
		{"balance edit", func() error {
			_, err := sess.EditLayawayBalance(ctx, hold.ID, types.CAD(1000))
			return err
		}, till.ErrInvalidBalance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			if sess.Len() != 0 || !sess.Total().IsZero() {
				t.Errorf("ledger changed: len=%d total=%v", sess.Len(), sess.Total())
			}

			lockCheck(t, func() {
				if _, err := sess.AddItem(ctx, snapClip, sale.Discount{}); err != nil {
					t.Errorf("AddItem() after rejection error = %v", err)
				}
				if _, err := sess.UndoLast(ctx); err != nil {
					t.Errorf("UndoLast() error = %v", err)
				}
			})
		})
	}

	h, ok := sess.Hold(hold.ID)
	if !ok || h.RemainingBalance.Amount != 7000 {
		t.Errorf("hold after rejections = %+v, %v; want $70.00 remaining", h, ok)
	}
}

// cancelRecorder collects holds reported through OnLayawayCanceled.
type cancelRecorder struct {
	mu       sync.Mutex
	canceled []layaway.Hold
}

func (c *cancelRecorder) Name() string { return "cancel-recorder" }

func (c *cancelRecorder) OnLayawayCanceled(_ context.Context, h layaway.Hold) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.canceled = append(c.canceled, h)
	return nil
}

func (c *cancelRecorder) holds() []layaway.Hold {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]layaway.Hold(nil), c.canceled...)
}

func TestUndoDownPaymentDeletesHold(t *testing.T) {
	ctx := context.Background()
	cs := seededStore(t)
	rec := &cancelRecorder{}
	_, sess := startEngine(t, cs, till.WithPlugin(rec))

	_, hold, err := sess.AddLayawayDownPayment(ctx, till.LayawayRequest{Key: redBow, OriginalPrice: types.USD(4000)})
	if err != nil {
		t.Fatal(err)
	}
	stored, err := cs.LoadLayaways(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := stored.Find(hold.ID); !ok {
		t.Fatal("down payment did not write the hold")
	}
	cs.reset()

	undone, err := sess.UndoLast(ctx)
	if err != nil {
		t.Fatalf("UndoLast() error = %v", err)
	}
	if undone.Kind() != sale.KindLayawayDownPayment {
		t.Errorf("undone kind = %s, want %s", undone.Kind(), sale.KindLayawayDownPayment)
	}
	if _, ok := sess.Hold(hold.ID); ok {
		t.Error("hold still in memory after undo")
	}
	if sess.Len() != 0 || !sess.Total().IsZero() {
		t.Errorf("ledger not cleared: len=%d total=%v", sess.Len(), sess.Total())
	}

	stored, err = cs.LoadLayaways(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Len() != 0 {
		t.Errorf("stored holds = %d, want 0", stored.Len())
	}
	if inv, lay := cs.saves(); inv != 0 || lay != 1 {
		t.Errorf("saves = %d inventory, %d layaway; want 0 and 1", inv, lay)
	}

	got := rec.holds()
	if len(got) != 1 || got[0].ID != hold.ID {
		t.Errorf("canceled holds = %v, want %s", got, hold.ID)
	}
}

func TestCancelSaleKeepsCommittedHold(t *testing.T) {
	ctx := context.Background()
	cs := seededStore(t)
	rec := &cancelRecorder{}
	_, sess := startEngine(t, cs, till.WithPlugin(rec))

	hold := openHold(t, sess, redBow, types.USD(10000))
	cs.reset()

	if _, err := sess.AddLayawayPayment(ctx, hold.ID, types.USD(2000)); err != nil {
		t.Fatal(err)
	}
	if h, _ := sess.Hold(hold.ID); h.RemainingBalance.Amount != 5000 {
		t.Fatalf("projected remaining = %v, want $50.00", h.RemainingBalance)
	}

	if err := sess.CancelSale(ctx); err != nil {
		t.Fatalf("CancelSale() error = %v", err)
	}

	h, ok := sess.Hold(hold.ID)
	if !ok {
		t.Fatal("committed hold removed by cancel")
	}
	if h.AmountPaid.Amount != 3000 || h.RemainingBalance.Amount != 7000 {
		t.Errorf("hold after cancel = paid %v remaining %v, want $30.00 and $70.00", h.AmountPaid, h.RemainingBalance)
	}

	stored, err := cs.LoadLayaways(ctx)
	if err != nil {
		t.Fatal(err)
	}
	sh, ok := stored.Find(hold.ID)
	if !ok {
		t.Fatal("committed hold missing from the store")
	}
	if sh.AmountPaid.Amount != 3000 || sh.RemainingBalance.Amount != 7000 {
		t.Errorf("stored hold = paid %v remaining %v, want $30.00 and $70.00", sh.AmountPaid, sh.RemainingBalance)
	}
	if inv, lay := cs.saves(); inv != 1 || lay != 1 {
		t.Errorf("saves = %d inventory, %d layaway; want 1 and 1", inv, lay)
	}
	if got := rec.holds(); len(got) != 0 {
		t.Errorf("canceled holds = %v, want none", got)
	}
}
