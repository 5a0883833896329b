package observability_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	gometrics "github.com/xraph/go-utils/metrics"

	"github.com/xraph/till"
	"github.com/xraph/till/inventory"
	"github.com/xraph/till/layaway"
	"github.com/xraph/till/observability"
	"github.com/xraph/till/sale"
	"github.com/xraph/till/store/memory"
	"github.com/xraph/till/types"
)

var redBow = inventory.NewKey("Bows", "Acme", "Red Bow")

func startEngine(t *testing.T, m *observability.MetricsExtension) *till.Session {
	t.Helper()
	ctx := context.Background()

	s := memory.New()
	if err := s.SaveInventory(ctx, inventory.NewSnapshot(
		inventory.Record{ItemCode: "B-001", Category: "Bows", Brand: "Acme", Item: "Red Bow", Quantity: 10, Price: types.USD(2500)},
	)); err != nil {
		t.Fatal(err)
	}

	eng := till.New(s,
		till.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		till.WithPlugin(m),
	)
	if err := eng.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = eng.Stop() })

	sess, err := eng.Session()
	if err != nil {
		t.Fatal(err)
	}
	return sess
}

func TestSaleMetrics(t *testing.T) {
	ctx := context.Background()
	m := observability.NewMetricsExtension(gometrics.NewMetricsCollector("till-test"))
	sess := startEngine(t, m)

	if _, err := sess.AddItem(ctx, redBow, sale.Discount{}); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.AddCustomItem(ctx, "Gift wrap", types.USD(300)); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.AddCustomItem(ctx, "Ribbon", types.USD(100)); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.UndoLast(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.CompleteSale(ctx); err != nil {
		t.Fatal(err)
	}

	counters := []struct {
		name string
		c    gometrics.Counter
		want float64
	}{
		{"lines added", m.LinesAdded, 3},
		{"lines undone", m.LinesUndone, 1},
		{"sales completed", m.SalesCompleted, 1},
		{"items sold", m.ItemsSold, 2},
		{"sales canceled", m.SalesCleared, 0},
	}
	for _, tt := range counters {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Value(); got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
			}
		})
	}

	if m.SaleTotal.Count() != 1 || m.SaleTotal.Sum() != 28 {
		t.Errorf("sale total histogram count/sum = %d/%v, want 1/28", m.SaleTotal.Count(), m.SaleTotal.Sum())
	}
	if m.SaleLines.Sum() != 2 {
		t.Errorf("sale lines histogram sum = %v, want 2", m.SaleLines.Sum())
	}
}

func TestLayawayAndInventoryMetrics(t *testing.T) {
	ctx := context.Background()
	m := observability.NewMetricsExtension(gometrics.NewMetricsCollector("till-test"))
	sess := startEngine(t, m)

	if _, _, err := sess.AddLayawayDownPayment(ctx, till.LayawayRequest{Key: redBow, OriginalPrice: types.USD(2500)}); err != nil {
		t.Fatal(err)
	}
	if err := sess.CancelSale(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.AdjustInventory(ctx, redBow, 12); err != nil {
		t.Fatal(err)
	}

	if got := m.LayawayOpened.Value(); got != 1 {
		t.Errorf("layaway opened = %v, want 1", got)
	}
	if got := m.LayawayCanceled.Value(); got != 1 {
		t.Errorf("layaway canceled = %v, want 1", got)
	}
	if got := m.SalesCleared.Value(); got != 1 {
		t.Errorf("sales canceled = %v, want 1", got)
	}
	if got := m.InventoryAdjusted.Value(); got != 1 {
		t.Errorf("inventory adjusted = %v, want 1", got)
	}
}

func TestErrorMetrics(t *testing.T) {
	ctx := context.Background()
	m := observability.NewMetricsExtension(gometrics.NewMetricsCollector("till-test"))

	_ = m.OnPersistenceFailed(ctx, "save_inventory", errors.New("disk full"))
	_ = m.OnPersistenceFailed(ctx, "save_layaways", errors.New("disk full"))
	_ = m.OnLayawayCompleted(ctx, layaway.Hold{})

	if got := m.StoreErrors.Value(); got != 2 {
		t.Errorf("store errors = %v, want 2", got)
	}
	if got := m.LayawayCompleted.Value(); got != 1 {
		t.Errorf("layaway completed = %v, want 1", got)
	}
}
