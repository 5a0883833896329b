// Package mongo persists till state in MongoDB through the grove ORM. Each
// snapshot (inventory, layaways, menu) is one document replaced in a single
// write; the audit log and time clock are ordinary collections.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/till"
	"github.com/xraph/till/auditlog"
	"github.com/xraph/till/catalog"
	"github.com/xraph/till/id"
	"github.com/xraph/till/inventory"
	"github.com/xraph/till/layaway"
	"github.com/xraph/till/payroll"
	tillstore "github.com/xraph/till/store"
)

// Collection name constants.
const (
	colCounters = "till_counters"
	colLog      = "till_log"
	colPunches  = "till_punches"
)

// Snapshot document IDs.
const (
	snapInventory = "inventory"
	snapLayaways  = "layaways"
	snapMenu      = "menu"
)

// compile-time interface check
var _ tillstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// Open connects to uri, selects database and verifies the connection.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	mdb := mongodriver.New()

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := mdb.Open(pingCtx, uri, mongodriver.WithDatabase(database)); err != nil {
		_ = mdb.Close()
		return nil, fmt.Errorf("till/mongo: open: %w", err)
	}

	db, err := grove.Open(mdb)
	if err != nil {
		_ = mdb.Close()
		return nil, fmt.Errorf("till/mongo: open: %w", err)
	}
	return New(db), nil
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all till collections using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.mdb)
	if err != nil {
		return fmt.Errorf("till/mongo: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("till/mongo: migration failed: %w", mapErr(err))
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
	m, err := s.loadSnapshot(ctx, snapInventory)
	if err != nil {
		return inventory.Snapshot{}, fmt.Errorf("till/mongo: load inventory: %w", err)
	}
	records := make([]inventory.Record, len(m.Records))
	for i := range m.Records {
		records[i] = fromRecordModel(m.Records[i])
	}
	return inventory.NewSnapshot(records...), nil
}

func (s *Store) SaveInventory(ctx context.Context, snap inventory.Snapshot) error {
	m := snapshotModel{ID: snapInventory}
	for _, r := range snap.Records() {
		m.Records = append(m.Records, toRecordModel(r))
	}
	if err := s.saveSnapshot(ctx, &m); err != nil {
		return fmt.Errorf("till/mongo: save inventory: %w", err)
	}
	return nil
}

// ==================== Layaway Store ====================

func (s *Store) LoadLayaways(ctx context.Context) (layaway.List, error) {
	m, err := s.loadSnapshot(ctx, snapLayaways)
	if err != nil {
		return layaway.List{}, fmt.Errorf("till/mongo: load layaways: %w", err)
	}
	holds := make([]layaway.Hold, 0, len(m.Holds))
	for _, hm := range m.Holds {
		h, err := fromHoldModel(hm)
		if err != nil {
			return layaway.List{}, err
		}
		holds = append(holds, h)
	}
	return layaway.NewList(holds...), nil
}

func (s *Store) SaveLayaways(ctx context.Context, holds layaway.List) error {
	m := snapshotModel{ID: snapLayaways}
	for _, h := range holds.Holds() {
		m.Holds = append(m.Holds, toHoldModel(h))
	}
	if err := s.saveSnapshot(ctx, &m); err != nil {
		return fmt.Errorf("till/mongo: save layaways: %w", err)
	}
	return nil
}

// ==================== Catalog Store ====================

func (s *Store) LoadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	m, err := s.loadSnapshot(ctx, snapMenu)
	if err != nil {
		return nil, fmt.Errorf("till/mongo: load menu: %w", err)
	}
	items := make([]catalog.Item, len(m.Items))
	for i := range m.Items {
		items[i] = fromMenuItemModel(m.Items[i])
	}
	return catalog.New(items...), nil
}

func (s *Store) SaveCatalog(ctx context.Context, c *catalog.Catalog) error {
	m := snapshotModel{ID: snapMenu}
	for _, it := range c.Items() {
		m.Items = append(m.Items, toMenuItemModel(it))
	}
	if err := s.saveSnapshot(ctx, &m); err != nil {
		return fmt.Errorf("till/mongo: save menu: %w", err)
	}
	return nil
}

// ==================== Audit Log Store ====================

func (s *Store) AppendLog(ctx context.Context, e auditlog.Entry) error {
	if e.ID.IsNil() {
		e.ID = id.NewLogEntryID()
	}
	seq, err := s.nextSeq(ctx, colLog)
	if err != nil {
		return fmt.Errorf("till/mongo: append log: %w", err)
	}
	if _, err := s.mdb.NewInsert(toLogEntryModel(e, seq)).Exec(ctx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: log entry %s", till.ErrAlreadyExists, e.ID)
		}
		return fmt.Errorf("till/mongo: append log: %w", mapErr(err))
	}
	return nil
}

func (s *Store) ReadLog(ctx context.Context, day time.Time) ([]auditlog.Entry, error) {
	var models []logEntryModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"day": day.Format(auditlog.DayLayout)}).
		Sort(bson.D{{Key: "seq", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("till/mongo: read log: %w", mapErr(err))
	}

	out := make([]auditlog.Entry, 0, len(models))
	for i := range models {
		e, err := fromLogEntryModel(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// ==================== Time Clock Store ====================

func (s *Store) RecordPunch(ctx context.Context, p payroll.Punch) error {
	if _, err := s.mdb.NewInsert(toPunchModel(p)).Exec(ctx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: punch %s", till.ErrAlreadyExists, p.ID)
		}
		return fmt.Errorf("till/mongo: record punch: %w", mapErr(err))
	}
	return nil
}

func (s *Store) ListPunches(ctx context.Context, from, to time.Time) ([]payroll.Punch, error) {
	var models []punchModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"at": bson.M{"$gte": from.UTC(), "$lt": to.UTC()}}).
		Sort(bson.D{{Key: "at", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("till/mongo: list punches: %w", mapErr(err))
	}

	out := make([]payroll.Punch, 0, len(models))
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

// loadSnapshot returns the snapshot document, or an empty one if it was
// never saved.
func (s *Store) loadSnapshot(ctx context.Context, snapID string) (*snapshotModel, error) {
	var m snapshotModel
	err := s.mdb.NewFind(&m).Filter(bson.M{"_id": snapID}).Scan(ctx)
	if isNoDocuments(err) {
		return &snapshotModel{ID: snapID}, nil
	}
	if err != nil {
		return nil, mapErr(err)
	}
	return &m, nil
}

func (s *Store) saveSnapshot(ctx context.Context, m *snapshotModel) error {
	m.UpdatedAt = now()
	_, err := s.mdb.NewUpdate(m).Filter(bson.M{"_id": m.ID}).Upsert().Exec(ctx)
	return mapErr(err)
}

// nextSeq increments and returns the named counter.
func (s *Store) nextSeq(ctx context.Context, name string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.mdb.Collection(colCounters).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, mapErr(err)
	}
	return counter.Seq, nil
}

// now returns the current UTC time truncated to milliseconds, the
// precision MongoDB stores.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// mapErr translates a disconnected-client error into till.ErrStoreClosed.
func mapErr(err error) error {
	if errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("%w: %w", till.ErrStoreClosed, err)
	}
	return err
}
