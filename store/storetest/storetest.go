// Package storetest is a conformance suite every store.Store backend runs
// from its own tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/xraph/till/auditlog"
	"github.com/xraph/till/catalog"
	"github.com/xraph/till/id"
	"github.com/xraph/till/inventory"
	"github.com/xraph/till/layaway"
	"github.com/xraph/till/payroll"
	"github.com/xraph/till/store"
	"github.com/xraph/till/types"
)

// Factory returns a migrated, empty store. The suite closes it.
type Factory func(t *testing.T) store.Store

// Times are truncated to milliseconds so every backend round-trips them.
var day = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

// Run exercises every store.Store method against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"Empty", testEmpty},
		{"InventoryRoundTrip", testInventory},
		{"InventoryReplace", testInventoryReplace},
		{"LayawaysKeepOrder", testLayaways},
		{"LogByDay", testLog},
		{"CatalogRoundTrip", testCatalog},
		{"PunchesInRange", testPunches},
		{"Ping", testPing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func testEmpty(t *testing.T, s store.Store) {
	ctx := context.Background()

	inv, err := s.LoadInventory(ctx)
	if err != nil {
		t.Fatalf("LoadInventory() error = %v", err)
	}
	if inv.Len() != 0 {
		t.Errorf("LoadInventory() = %d records, want 0", inv.Len())
	}

	holds, err := s.LoadLayaways(ctx)
	if err != nil {
		t.Fatalf("LoadLayaways() error = %v", err)
	}
	if holds.Len() != 0 {
		t.Errorf("LoadLayaways() = %d holds, want 0", holds.Len())
	}

	menu, err := s.LoadCatalog(ctx)
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	if menu.Len() != 0 {
		t.Errorf("LoadCatalog() = %d items, want 0", menu.Len())
	}

	entries, err := s.ReadLog(ctx, day)
	if err != nil {
		t.Fatalf("ReadLog() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("ReadLog() = %d entries, want 0", len(entries))
	}
}

func sampleInventory() inventory.Snapshot {
	return inventory.NewSnapshot(
		inventory.Record{ItemCode: "B-001", Category: "Bows", Brand: "Acme", Item: "Red Bow", Quantity: 9, Price: types.USD(2500),
			LastChange: inventory.ChangeSold, LastChangeDate: day},
		inventory.Record{ItemCode: "B-002", Category: "Bows", Brand: "Acme", Item: "Blue Bow", Quantity: -2, Price: types.USD(1500)},
		inventory.Record{ItemCode: "H-001", Category: "Headbands", Brand: "Lumen", Item: "Velvet", Quantity: 4, Price: types.USD(1299)},
	)
}

func testInventory(t *testing.T, s store.Store) {
	ctx := context.Background()
	want := sampleInventory()

	if err := s.SaveInventory(ctx, want); err != nil {
		t.Fatalf("SaveInventory() error = %v", err)
	}
	got, err := s.LoadInventory(ctx)
	if err != nil {
		t.Fatalf("LoadInventory() error = %v", err)
	}
	if !got.Equal(want) {
		t.Errorf("LoadInventory() = %+v, want %+v", got.Records(), want.Records())
	}
}

func testInventoryReplace(t *testing.T, s store.Store) {
	ctx := context.Background()

	if err := s.SaveInventory(ctx, sampleInventory()); err != nil {
		t.Fatal(err)
	}
	smaller := inventory.NewSnapshot(
		inventory.Record{ItemCode: "B-001", Category: "Bows", Brand: "Acme", Item: "Red Bow", Quantity: 20, Price: types.USD(2500)},
	)
	if err := s.SaveInventory(ctx, smaller); err != nil {
		t.Fatal(err)
	}

	got, err := s.LoadInventory(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(smaller) {
		t.Errorf("LoadInventory() = %+v, want only the replacement", got.Records())
	}
}

func testLayaways(t *testing.T, s store.Store) {
	ctx := context.Background()

	a := layaway.NewHold(inventory.NewKey("Bows", "Acme", "Red Bow"), "B-001", types.USD(10000), true,
		layaway.Customer{Name: "Dana", Phone: "555-0100"}, day)
	a = a.ApplyPayment(types.USD(3000), day)
	b := layaway.NewHold(inventory.NewKey(inventory.CategoryOther, "House", "Scarf"), "O-010", types.USD(4000), false,
		layaway.Customer{Name: "Eli"}, day)
	c := layaway.NewHold(inventory.NewKey("Bows", "Acme", "Blue Bow"), "B-002", types.USD(1500), true,
		layaway.Customer{}, day)
	want := layaway.NewList(b, a, c)

	if err := s.SaveLayaways(ctx, want); err != nil {
		t.Fatalf("SaveLayaways() error = %v", err)
	}
	got, err := s.LoadLayaways(ctx)
	if err != nil {
		t.Fatalf("LoadLayaways() error = %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("LoadLayaways() = %+v, want %+v", got.Holds(), want.Holds())
	}

	first := got.Holds()[1]
	if first.Customer != a.Customer || first.ItemCode != "B-001" || !first.InventoryTracked {
		t.Errorf("hold fields = %+v, want %+v", first, a)
	}
	if first.Key() != a.Key() {
		t.Errorf("hold key = %s, want %s", first.Key(), a.Key())
	}

	if err := s.SaveLayaways(ctx, want.Without(a.ID)); err != nil {
		t.Fatal(err)
	}
	got, err = s.LoadLayaways(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 2 {
		t.Errorf("after removal = %d holds, want 2", got.Len())
	}
	if _, ok := got.Find(a.ID); ok {
		t.Error("removed hold is still stored")
	}
}

func entry(at time.Time, action string, qty *int) auditlog.Entry {
	return auditlog.Entry{
		ID:              id.NewLogEntryID(),
		Timestamp:       at,
		Action:          action,
		ItemCode:        "B-001",
		Category:        "Bows",
		Brand:           "Acme",
		Item:            "Red Bow",
		QuantityChange:  qty,
		NewQuantity:     qty,
		PriceSold:       types.USD(2500),
		DiscountApplied: "10%",
	}
}

func testLog(t *testing.T, s store.Store) {
	ctx := context.Background()

	entries := []auditlog.Entry{
		entry(day, auditlog.ActionSoldItem, auditlog.Int(-1)),
		entry(day, auditlog.ActionSoldUntracked, nil),
		entry(day.Add(24*time.Hour), auditlog.ActionInventoryAdjusted, auditlog.Int(5)),
		entry(day, auditlog.ActionLayawayPayment, nil),
	}
	for _, e := range entries {
		if err := s.AppendLog(ctx, e); err != nil {
			t.Fatalf("AppendLog() error = %v", err)
		}
	}

	got, err := s.ReadLog(ctx, day)
	if err != nil {
		t.Fatalf("ReadLog() error = %v", err)
	}
	wantActions := []string{auditlog.ActionSoldItem, auditlog.ActionSoldUntracked, auditlog.ActionLayawayPayment}
	if len(got) != len(wantActions) {
		t.Fatalf("ReadLog() = %d entries, want %d", len(got), len(wantActions))
	}
	for i, action := range wantActions {
		if got[i].Action != action {
			t.Errorf("entry %d action = %q, want %q", i, got[i].Action, action)
		}
	}

	first := got[0]
	if first.ID != entries[0].ID || !first.Timestamp.Equal(day) {
		t.Errorf("entry id/timestamp = %s/%v, want %s/%v", first.ID, first.Timestamp, entries[0].ID, day)
	}
	if first.QuantityChange == nil || *first.QuantityChange != -1 {
		t.Errorf("QuantityChange = %v, want -1", first.QuantityChange)
	}
	if !first.PriceSold.Equal(types.USD(2500)) || first.DiscountApplied != "10%" {
		t.Errorf("price/discount = %v/%q", first.PriceSold, first.DiscountApplied)
	}
	if got[1].QuantityChange != nil || got[1].NewQuantity != nil {
		t.Error("N/A quantities should read back as nil")
	}

	next, err := s.ReadLog(ctx, day.Add(24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(next) != 1 || next[0].Action != auditlog.ActionInventoryAdjusted {
		t.Errorf("next day = %+v, want one adjustment", next)
	}
}

func testCatalog(t *testing.T, s store.Store) {
	ctx := context.Background()

	clip := catalog.Item{Category: inventory.CategoryClips, Brand: "Acme", Item: "Snap Clip", ItemCode: "C-001", Price: types.USD(500)}
	wrap := catalog.Item{Category: inventory.CategoryOther, Brand: "House", Item: "Gift Wrap", ItemCode: "O-100", Price: types.USD(250)}

	if err := s.SaveCatalog(ctx, catalog.New(clip, wrap)); err != nil {
		t.Fatalf("SaveCatalog() error = %v", err)
	}
	got, err := s.LoadCatalog(ctx)
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	if got.Len() != 2 {
		t.Fatalf("LoadCatalog() = %d items, want 2", got.Len())
	}
	it, ok := got.Lookup(clip.Key())
	if !ok || it.ItemCode != "C-001" || !it.Price.Equal(clip.Price) {
		t.Errorf("Lookup(clip) = %+v, %v", it, ok)
	}

	if err := s.SaveCatalog(ctx, catalog.New(wrap)); err != nil {
		t.Fatal(err)
	}
	got, err = s.LoadCatalog(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.Lookup(clip.Key()); ok || got.Len() != 1 {
		t.Errorf("catalog after replace = %+v", got.Items())
	}
}

func testPunches(t *testing.T, s store.Store) {
	ctx := context.Background()

	punches := []payroll.Punch{
		{ID: id.NewPunchID(), Worker: "ana", Direction: payroll.Out, At: day.Add(8 * time.Hour)},
		{ID: id.NewPunchID(), Worker: "ana", Direction: payroll.In, At: day},
		{ID: id.NewPunchID(), Worker: "bo", Direction: payroll.In, At: day.AddDate(0, 0, -20)},
		{ID: id.NewPunchID(), Worker: "bo", Direction: payroll.In, At: day.AddDate(0, 0, 10)},
	}
	for _, p := range punches {
		if err := s.RecordPunch(ctx, p); err != nil {
			t.Fatalf("RecordPunch() error = %v", err)
		}
	}

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	got, err := s.ListPunches(ctx, from, to)
	if err != nil {
		t.Fatalf("ListPunches() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListPunches() = %d punches, want 2", len(got))
	}
	if got[0].Direction != payroll.In || got[1].Direction != payroll.Out {
		t.Errorf("ListPunches() not in time order: %+v", got)
	}
	if got[0].ID != punches[1].ID || got[0].Worker != "ana" || !got[0].At.Equal(day) {
		t.Errorf("first punch = %+v, want %+v", got[0], punches[1])
	}
}

func testPing(t *testing.T, s store.Store) {
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
