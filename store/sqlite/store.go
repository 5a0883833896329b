// Package sqlite persists till state in a single SQLite database through
// the grove ORM and its modernc.org/sqlite driver. Snapshot saves replace
// their table inside one transaction.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/driver"
	"github.com/xraph/grove/drivers/sqlitedriver"
	_ "github.com/xraph/grove/drivers/sqlitedriver/sqlitemigrate" // registers the sqlite migration executor
	"github.com/xraph/grove/migrate"

	"github.com/xraph/till"
	"github.com/xraph/till/auditlog"
	"github.com/xraph/till/catalog"
	"github.com/xraph/till/inventory"
	"github.com/xraph/till/layaway"
	"github.com/xraph/till/payroll"
	tillstore "github.com/xraph/till/store"
)

// compile-time interface check
var _ tillstore.Store = (*Store)(nil)

// timeLayout is fixed width and always UTC, so text comparison orders
// timestamps chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// Open opens (creating if needed) the SQLite database at path. Use
// ":memory:" for a throwaway database.
func Open(ctx context.Context, path string) (*Store, error) {
	sdb := sqlitedriver.New()
	// A single connection serializes writers and keeps ":memory:" alive.
	if err := sdb.Open(ctx, path, driver.WithPoolSize(1)); err != nil {
		return nil, fmt.Errorf("till/sqlite: open: %w", err)
	}
	if _, err := sdb.NewRaw(`PRAGMA busy_timeout=5000`).Exec(ctx); err != nil {
		_ = sdb.Close()
		return nil, fmt.Errorf("till/sqlite: pragmas: %w", err)
	}
	db, err := grove.Open(sdb)
	if err != nil {
		_ = sdb.Close()
		return nil, fmt.Errorf("till/sqlite: open: %w", err)
	}
	return New(db), nil
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("till/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("till/sqlite: migration failed: %w", mapErr(err))
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return mapErr(s.db.Ping(ctx))
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Inventory Store ====================

func (s *Store) LoadInventory(ctx context.Context) (inventory.Snapshot, error) {
	var models []inventoryModel
	if err := s.sdb.NewSelect(&models).Scan(ctx); err != nil {
		return inventory.Snapshot{}, mapErr(err)
	}
	records := make([]inventory.Record, 0, len(models))
	for i := range models {
		r, err := fromInventoryModel(&models[i])
		if err != nil {
			return inventory.Snapshot{}, err
		}
		records = append(records, r)
	}
	return inventory.NewSnapshot(records...), nil
}

func (s *Store) SaveInventory(ctx context.Context, snap inventory.Snapshot) error {
	recs := snap.Records()
	models := make([]inventoryModel, len(recs))
	for i, r := range recs {
		models[i] = toInventoryModel(r)
	}
	return s.replace(ctx, (*inventoryModel)(nil), &models, len(models))
}

// ==================== Layaway Store ====================

func (s *Store) LoadLayaways(ctx context.Context) (layaway.List, error) {
	var models []holdModel
	if err := s.sdb.NewSelect(&models).OrderExpr("position ASC").Scan(ctx); err != nil {
		return layaway.List{}, mapErr(err)
	}
	holds := make([]layaway.Hold, 0, len(models))
	for i := range models {
		h, err := fromHoldModel(&models[i])
		if err != nil {
			return layaway.List{}, err
		}
		holds = append(holds, h)
	}
	return layaway.NewList(holds...), nil
}

func (s *Store) SaveLayaways(ctx context.Context, holds layaway.List) error {
	hs := holds.Holds()
	models := make([]holdModel, len(hs))
	for i, h := range hs {
		models[i] = toHoldModel(h, i)
	}
	return s.replace(ctx, (*holdModel)(nil), &models, len(models))
}

// ==================== Audit Log Store ====================

func (s *Store) AppendLog(ctx context.Context, e auditlog.Entry) error {
	_, err := s.sdb.NewInsert(toLogEntryModel(e)).Exec(ctx)
	return mapErr(err)
}

func (s *Store) ReadLog(ctx context.Context, day time.Time) ([]auditlog.Entry, error) {
	var models []logEntryModel
	err := s.sdb.NewSelect(&models).
		Where("day = ?", day.Format(auditlog.DayLayout)).
		OrderExpr("seq ASC").
		Scan(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	var out []auditlog.Entry
	for i := range models {
		e, err := fromLogEntryModel(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// ==================== Catalog Store ====================

func (s *Store) LoadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	var models []menuModel
	if err := s.sdb.NewSelect(&models).Scan(ctx); err != nil {
		return nil, mapErr(err)
	}
	items := make([]catalog.Item, 0, len(models))
	for i := range models {
		items = append(items, fromMenuModel(&models[i]))
	}
	return catalog.New(items...), nil
}

func (s *Store) SaveCatalog(ctx context.Context, c *catalog.Catalog) error {
	its := c.Items()
	models := make([]menuModel, len(its))
	for i, it := range its {
		models[i] = toMenuModel(it)
	}
	return s.replace(ctx, (*menuModel)(nil), &models, len(models))
}

// ==================== Time Clock Store ====================

func (s *Store) RecordPunch(ctx context.Context, p payroll.Punch) error {
	_, err := s.sdb.NewInsert(toPunchModel(p)).Exec(ctx)
	return mapErr(err)
}

func (s *Store) ListPunches(ctx context.Context, from, to time.Time) ([]payroll.Punch, error) {
	var models []punchModel
	err := s.sdb.NewSelect(&models).
		Where("at >= ?", formatTime(from)).
		Where("at < ?", formatTime(to)).
		OrderExpr("at ASC").
		Scan(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	var out []payroll.Punch
	for i := range models {
		p, err := fromPunchModel(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ==================== Helpers ====================

// replace empties the table of model and inserts rows in one transaction.
// rows is a pointer to a model slice of length n.
func (s *Store) replace(ctx context.Context, model, rows any, n int) error {
	tx, err := s.sdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return mapErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.NewDelete(model).Exec(ctx); err != nil {
		return mapErr(err)
	}
	// An empty slice is rejected by the bulk insert.
	if n > 0 {
		if _, err := tx.NewInsert(rows).Exec(ctx); err != nil {
			return mapErr(err)
		}
	}
	return tx.Commit()
}

// mapErr translates a closed-database error into till.ErrStoreClosed.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, grove.ErrDriverClosed) || strings.Contains(err.Error(), "sql: database is closed") {
		return fmt.Errorf("%w: %w", till.ErrStoreClosed, err)
	}
	return err
}
