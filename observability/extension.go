// Package observability provides a metrics extension for till that records
// sale, layaway and store event counts via go-utils MetricFactory.
package observability

import (
	"context"

	gometrics "github.com/xraph/go-utils/metrics"

	"github.com/xraph/till/auditlog"
	"github.com/xraph/till/inventory"
	"github.com/xraph/till/layaway"
	"github.com/xraph/till/payroll"
	"github.com/xraph/till/plugin"
	"github.com/xraph/till/sale"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin              = (*MetricsExtension)(nil)
	_ plugin.OnInit              = (*MetricsExtension)(nil)
	_ plugin.OnLineAdded         = (*MetricsExtension)(nil)
	_ plugin.OnLineRemoved       = (*MetricsExtension)(nil)
	_ plugin.OnSaleCompleted     = (*MetricsExtension)(nil)
	_ plugin.OnSaleCanceled      = (*MetricsExtension)(nil)
	_ plugin.OnLayawayOpened     = (*MetricsExtension)(nil)
	_ plugin.OnLayawayCompleted  = (*MetricsExtension)(nil)
	_ plugin.OnLayawayCanceled   = (*MetricsExtension)(nil)
	_ plugin.OnInventoryAdjusted = (*MetricsExtension)(nil)
	_ plugin.OnLogEntryDropped   = (*MetricsExtension)(nil)
	_ plugin.OnPersistenceFailed = (*MetricsExtension)(nil)
	_ plugin.OnPunchRecorded     = (*MetricsExtension)(nil)
)

// MetricsExtension records register-wide metrics.
// Register it as a till plugin to track sales automatically.
type MetricsExtension struct {
	factory gometrics.MetricFactory

	// Pending sale metrics
	LinesAdded   gometrics.Counter
	LinesUndone  gometrics.Counter
	SalesCleared gometrics.Counter

	// Completed sale metrics
	SalesCompleted gometrics.Counter
	SaleTotal      gometrics.Histogram
	SaleLines      gometrics.Histogram
	ItemsSold      gometrics.Counter

	// Layaway metrics
	LayawayOpened    gometrics.Counter
	LayawayCompleted gometrics.Counter
	LayawayCanceled  gometrics.Counter

	// Inventory metrics
	InventoryAdjusted gometrics.Counter

	// Payroll metrics
	PunchesRecorded gometrics.Counter

	// Error metrics
	LogEntriesDropped gometrics.Counter
	StoreErrors       gometrics.Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory gometrics.MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		LinesAdded:   factory.Counter("till.sale.lines.added"),
		LinesUndone:  factory.Counter("till.sale.lines.undone"),
		SalesCleared: factory.Counter("till.sale.canceled"),

		SalesCompleted: factory.Counter("till.sale.completed"),
		SaleTotal:      factory.Histogram("till.sale.total_amount"),
		SaleLines:      factory.Histogram("till.sale.lines"),
		ItemsSold:      factory.Counter("till.sale.items.sold"),

		LayawayOpened:    factory.Counter("till.layaway.opened"),
		LayawayCompleted: factory.Counter("till.layaway.completed"),
		LayawayCanceled:  factory.Counter("till.layaway.canceled"),

		InventoryAdjusted: factory.Counter("till.inventory.adjusted"),

		PunchesRecorded: factory.Counter("till.payroll.punches"),

		LogEntriesDropped: factory.Counter("till.log.dropped"),
		StoreErrors:       factory.Counter("till.store.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	return nil
}

// ──────────────────────────────────────────────────
// Sale hooks
// ──────────────────────────────────────────────────

// OnLineAdded implements plugin.OnLineAdded.
func (m *MetricsExtension) OnLineAdded(_ context.Context, _ sale.Line) error {
	m.LinesAdded.Inc()
	return nil
}

// OnLineRemoved implements plugin.OnLineRemoved.
func (m *MetricsExtension) OnLineRemoved(_ context.Context, _ sale.Line) error {
	m.LinesUndone.Inc()
	return nil
}

// OnSaleCompleted implements plugin.OnSaleCompleted.
func (m *MetricsExtension) OnSaleCompleted(_ context.Context, r *sale.Receipt) error {
	m.SalesCompleted.Inc()
	m.SaleTotal.Observe(r.Total.Decimal().InexactFloat64())
	m.SaleLines.Observe(float64(len(r.Lines)))

	var items int
	for _, l := range r.Lines {
		if l.Kind() == sale.KindItem {
			items++
		}
	}
	m.ItemsSold.Add(float64(items))
	return nil
}

// OnSaleCanceled implements plugin.OnSaleCanceled.
func (m *MetricsExtension) OnSaleCanceled(_ context.Context, _ []sale.Line) error {
	m.SalesCleared.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Layaway hooks
// ──────────────────────────────────────────────────

// OnLayawayOpened implements plugin.OnLayawayOpened.
func (m *MetricsExtension) OnLayawayOpened(_ context.Context, _ layaway.Hold) error {
	m.LayawayOpened.Inc()
	return nil
}

// OnLayawayCompleted implements plugin.OnLayawayCompleted.
func (m *MetricsExtension) OnLayawayCompleted(_ context.Context, _ layaway.Hold) error {
	m.LayawayCompleted.Inc()
	return nil
}

// OnLayawayCanceled implements plugin.OnLayawayCanceled.
func (m *MetricsExtension) OnLayawayCanceled(_ context.Context, _ layaway.Hold) error {
	m.LayawayCanceled.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Inventory, log and store hooks
// ──────────────────────────────────────────────────

// OnInventoryAdjusted implements plugin.OnInventoryAdjusted.
func (m *MetricsExtension) OnInventoryAdjusted(_ context.Context, _, _ inventory.Record) error {
	m.InventoryAdjusted.Inc()
	return nil
}

// OnLogEntryDropped implements plugin.OnLogEntryDropped.
func (m *MetricsExtension) OnLogEntryDropped(_ context.Context, _ auditlog.Entry, _ []string) error {
	m.LogEntriesDropped.Inc()
	return nil
}

// OnPersistenceFailed implements plugin.OnPersistenceFailed.
func (m *MetricsExtension) OnPersistenceFailed(_ context.Context, _ string, _ error) error {
	m.StoreErrors.Inc()
	return nil
}

// OnPunchRecorded implements plugin.OnPunchRecorded.
func (m *MetricsExtension) OnPunchRecorded(_ context.Context, _ payroll.Punch) error {
	m.PunchesRecorded.Inc()
	return nil
}
