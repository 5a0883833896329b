// Package store defines the composite persistence interface the till engine
// runs on. Backends live in subpackages: memory, file, sqlite, postgres and
// mongo.
package store

import (
	"context"
	"time"

	"github.com/xraph/till/auditlog"
	"github.com/xraph/till/catalog"
	"github.com/xraph/till/inventory"
	"github.com/xraph/till/layaway"
	"github.com/xraph/till/payroll"
)

// Store is the unified storage interface for all till state.
// Methods are declared explicitly rather than by embedding the
// per-package interfaces so every backend's surface is visible in one place.
type Store interface {
	// Inventory snapshot
	LoadInventory(ctx context.Context) (inventory.Snapshot, error)
	SaveInventory(ctx context.Context, snap inventory.Snapshot) error

	// Layaway hold list
	LoadLayaways(ctx context.Context) (layaway.List, error)
	SaveLayaways(ctx context.Context, holds layaway.List) error

	// Audit log
	AppendLog(ctx context.Context, entry auditlog.Entry) error
	ReadLog(ctx context.Context, day time.Time) ([]auditlog.Entry, error)

	// Menu catalog
	LoadCatalog(ctx context.Context) (*catalog.Catalog, error)
	SaveCatalog(ctx context.Context, c *catalog.Catalog) error

	// Time clock
	RecordPunch(ctx context.Context, p payroll.Punch) error
	ListPunches(ctx context.Context, from, to time.Time) ([]payroll.Punch, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Compile-time checks that Store satisfies every per-package contract.
var (
	_ inventory.Store = Store(nil)
	_ layaway.Store   = Store(nil)
	_ auditlog.Store  = Store(nil)
	_ catalog.Store   = Store(nil)
	_ payroll.Store   = Store(nil)
)
