// Package postgres persists till state in PostgreSQL through the grove ORM
// and its pgx driver.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/xraph/grove"
	"github.com/xraph/grove/driver"
	"github.com/xraph/grove/drivers/pgdriver"
	_ "github.com/xraph/grove/drivers/pgdriver/pgmigrate" // registers the pg migration executor
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

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// Open connects to databaseURL and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pgdb := pgdriver.New()
	if err := pgdb.Open(ctx, databaseURL, driver.WithPoolSize(30)); err != nil {
		return nil, fmt.Errorf("till/postgres: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := pgdb.Ping(pingCtx); err != nil {
		_ = pgdb.Close()
		return nil, fmt.Errorf("till/postgres: ping: %w", err)
	}

	db, err := grove.Open(pgdb)
	if err != nil {
		_ = pgdb.Close()
		return nil, fmt.Errorf("till/postgres: open: %w", err)
	}
	return New(db), nil
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("till/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("till/postgres: migration failed: %w", mapErr(err))
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
	if err := s.pg.NewSelect(&models).OrderExpr("category, brand, item").Scan(ctx); err != nil {
		return inventory.Snapshot{}, mapErr(err)
	}
	records := make([]inventory.Record, 0, len(models))
	for i := range models {
		records = append(records, fromInventoryModel(&models[i]))
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
	if err := s.pg.NewSelect(&models).OrderExpr("position ASC").Scan(ctx); err != nil {
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
	err := s.replace(ctx, (*holdModel)(nil), &models, len(models))
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: duplicate layaway id: %w", till.ErrAlreadyExists, err)
	}
	return err
}

// ==================== Audit Log Store ====================

func (s *Store) AppendLog(ctx context.Context, e auditlog.Entry) error {
	_, err := s.pg.NewInsert(toLogEntryModel(e)).Exec(ctx)
	return mapErr(err)
}

func (s *Store) ReadLog(ctx context.Context, day time.Time) ([]auditlog.Entry, error) {
	var models []logEntryModel
	err := s.pg.NewSelect(&models).
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
	if err := s.pg.NewSelect(&models).OrderExpr("category, brand, item").Scan(ctx); err != nil {
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
	_, err := s.pg.NewInsert(toPunchModel(p)).Exec(ctx)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: punch %s", till.ErrAlreadyExists, p.ID)
	}
	return mapErr(err)
}

func (s *Store) ListPunches(ctx context.Context, from, to time.Time) ([]payroll.Punch, error) {
	var models []punchModel
	err := s.pg.NewSelect(&models).
		Where("at >= ?", from.UTC()).
		Where("at < ?", to.UTC()).
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
	tx, err := s.pg.BeginTxQuery(ctx, nil)
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

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// mapErr translates a closed-pool error into till.ErrStoreClosed.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, grove.ErrDriverClosed) || strings.Contains(err.Error(), "closed pool") {
		return fmt.Errorf("%w: %w", till.ErrStoreClosed, err)
	}
	return err
}
