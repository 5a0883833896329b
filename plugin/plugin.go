// Package plugin provides the hook system for till.
// Plugins implement any subset of the hook interfaces below and are
// dispatched by a Registry after the engine changes state.
package plugin

import (
	"context"

	"github.com/xraph/till/auditlog"
	"github.com/xraph/till/inventory"
	"github.com/xraph/till/layaway"
	"github.com/xraph/till/payroll"
	"github.com/xraph/till/sale"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called once the engine has loaded its snapshots.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Pending sale hooks
// ──────────────────────────────────────────────────

// OnLineAdded is called after a line is appended to the pending sale.
type OnLineAdded interface {
	Plugin
	OnLineAdded(ctx context.Context, line sale.Line) error
}

// OnLineRemoved is called after the last line is undone.
type OnLineRemoved interface {
	Plugin
	OnLineRemoved(ctx context.Context, line sale.Line) error
}

// OnSaleCompleted is called after a sale is committed.
type OnSaleCompleted interface {
	Plugin
	OnSaleCompleted(ctx context.Context, receipt *sale.Receipt) error
}

// OnSaleCanceled is called after a pending sale is rolled back.
type OnSaleCanceled interface {
	Plugin
	OnSaleCanceled(ctx context.Context, lines []sale.Line) error
}

// ──────────────────────────────────────────────────
// Layaway hooks
// ──────────────────────────────────────────────────

// OnLayawayOpened is called when a down payment creates a hold.
type OnLayawayOpened interface {
	Plugin
	OnLayawayOpened(ctx context.Context, hold layaway.Hold) error
}

// OnLayawayCompleted is called when a hold is paid off and removed.
type OnLayawayCompleted interface {
	Plugin
	OnLayawayCompleted(ctx context.Context, hold layaway.Hold) error
}

// OnLayawayCanceled is called when a hold is removed without completion.
type OnLayawayCanceled interface {
	Plugin
	OnLayawayCanceled(ctx context.Context, hold layaway.Hold) error
}

// ──────────────────────────────────────────────────
// Inventory and log hooks
// ──────────────────────────────────────────────────

// OnInventoryAdjusted is called after a manual quantity adjustment.
type OnInventoryAdjusted interface {
	Plugin
	OnInventoryAdjusted(ctx context.Context, before, after inventory.Record) error
}

// OnLogEntryDropped is called when an audit entry is rejected for missing
// required fields.
type OnLogEntryDropped interface {
	Plugin
	OnLogEntryDropped(ctx context.Context, entry auditlog.Entry, missing []string) error
}

// OnPersistenceFailed is called when a store write fails. op names the
// write ("save_inventory", "save_layaways", "append_log", ...).
type OnPersistenceFailed interface {
	Plugin
	OnPersistenceFailed(ctx context.Context, op string, err error) error
}

// ──────────────────────────────────────────────────
// Payroll hooks
// ──────────────────────────────────────────────────

// OnPunchRecorded is called after a time clock punch is stored.
type OnPunchRecorded interface {
	Plugin
	OnPunchRecorded(ctx context.Context, p payroll.Punch) error
}
