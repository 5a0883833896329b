// Package file stores till state in a directory: JSON snapshots for the
// inventory, layaways and menu, and append-only CSV files for the daily
// audit log and the time clock.
//
// Snapshots are written to a temporary file and renamed into place, so a
// crash mid-save leaves the previous snapshot intact.
package file

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xraph/till"
	"github.com/xraph/till/auditlog"
	"github.com/xraph/till/catalog"
	"github.com/xraph/till/id"
	"github.com/xraph/till/inventory"
	"github.com/xraph/till/layaway"
	"github.com/xraph/till/payroll"
	"github.com/xraph/till/store"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// File names inside the data directory.
const (
	InventoryFile = "inventory.json"
	LayawayFile   = "layaways.json"
	CatalogFile   = "menu.json"
	PunchFile     = "time_clock.csv"
	LogDir        = "logs"
)

var punchHeader = []string{"Timestamp", "Worker", "Direction", "ID"}

// Store implements store.Store on the local filesystem.
type Store struct {
	dir      string
	currency string

	mu     sync.Mutex
	closed bool
}

// Option configures a Store.
type Option func(*Store)

// WithCurrency sets the currency prices in CSV logs are read back in.
func WithCurrency(currency string) Option {
	return func(s *Store) {
		if currency != "" {
			s.currency = strings.ToLower(currency)
		}
	}
}

// New returns a store rooted at dir.
func New(dir string, opts ...Option) *Store {
	s := &Store{dir: dir, currency: till.DefaultCurrency}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the data directory.
func (s *Store) Dir() string { return s.dir }

// Migrate creates the data and log directories.
func (s *Store) Migrate(_ context.Context) error {
	if err := os.MkdirAll(filepath.Join(s.dir, LogDir), 0o755); err != nil {
		return fmt.Errorf("till/file: create data dir: %w", err)
	}
	return nil
}

// Ping checks that the data directory exists.
func (s *Store) Ping(_ context.Context) error {
	if err := s.check(); err != nil {
		return err
	}
	info, err := os.Stat(s.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("till/file: %s is not a directory", s.dir)
	}
	return nil
}

// Close marks the store closed. Files are not held open between calls.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return till.ErrStoreClosed
	}
	return nil
}

// ==================== Inventory Store ====================

func (s *Store) LoadInventory(_ context.Context) (inventory.Snapshot, error) {
	var tree inventory.Tree
	if err := s.readJSON(InventoryFile, &tree); err != nil {
		return inventory.Snapshot{}, err
	}
	return inventory.FromTree(tree), nil
}

func (s *Store) SaveInventory(_ context.Context, snap inventory.Snapshot) error {
	return s.writeJSON(InventoryFile, snap.Tree())
}

// ==================== Layaway Store ====================

func (s *Store) LoadLayaways(_ context.Context) (layaway.List, error) {
	var holds []layaway.Hold
	if err := s.readJSON(LayawayFile, &holds); err != nil {
		return layaway.List{}, err
	}
	return layaway.NewList(holds...), nil
}

func (s *Store) SaveLayaways(_ context.Context, holds layaway.List) error {
	return s.writeJSON(LayawayFile, holds.Holds())
}

// ==================== Catalog Store ====================

func (s *Store) LoadCatalog(_ context.Context) (*catalog.Catalog, error) {
	var items []catalog.Item
	if err := s.readJSON(CatalogFile, &items); err != nil {
		return nil, err
	}
	return catalog.New(items...), nil
}

func (s *Store) SaveCatalog(_ context.Context, c *catalog.Catalog) error {
	return s.writeJSON(CatalogFile, c.Items())
}

// ==================== Audit Log Store ====================

// LogPath returns the CSV file holding day's entries.
func (s *Store) LogPath(day time.Time) string {
	return filepath.Join(s.dir, LogDir, "log_"+day.Format(auditlog.DayLayout)+".csv")
}

func (s *Store) AppendLog(_ context.Context, entry auditlog.Entry) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.appendRow(s.LogPath(entry.Timestamp), auditlog.Header, entry.Row())
}

func (s *Store) ReadLog(_ context.Context, day time.Time) ([]auditlog.Entry, error) {
	rows, err := s.readRows(s.LogPath(day))
	if err != nil {
		return nil, err
	}

	out := make([]auditlog.Entry, 0, len(rows))
	for i, row := range rows {
		e, err := auditlog.ParseRow(row, s.currency)
		if err != nil {
			return nil, fmt.Errorf("till/file: %s line %d: %w", filepath.Base(s.LogPath(day)), i+2, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// ==================== Time Clock Store ====================

func (s *Store) RecordPunch(_ context.Context, p payroll.Punch) error {
	if err := s.check(); err != nil {
		return err
	}
	row := []string{p.At.Format(time.RFC3339Nano), p.Worker, string(p.Direction), p.ID.String()}
	return s.appendRow(filepath.Join(s.dir, PunchFile), punchHeader, row)
}

func (s *Store) ListPunches(_ context.Context, from, to time.Time) ([]payroll.Punch, error) {
	rows, err := s.readRows(filepath.Join(s.dir, PunchFile))
	if err != nil {
		return nil, err
	}

	var out []payroll.Punch
	for i, row := range rows {
		if len(row) < len(punchHeader) {
			return nil, fmt.Errorf("till/file: %s line %d: short row", PunchFile, i+2)
		}
		at, err := time.Parse(time.RFC3339Nano, row[0])
		if err != nil {
			return nil, fmt.Errorf("till/file: %s line %d: %w", PunchFile, i+2, err)
		}
		if at.Before(from) || !at.Before(to) {
			continue
		}
		pid, err := id.ParsePunchID(row[3])
		if err != nil {
			return nil, fmt.Errorf("till/file: %s line %d: %w", PunchFile, i+2, err)
		}
		out = append(out, payroll.Punch{ID: pid, Worker: row[1], Direction: payroll.Direction(row[2]), At: at})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out, nil
}

// ==================== Helpers ====================

// readJSON decodes name into v. A missing file leaves v untouched.
func (s *Store) readJSON(name string, v any) error {
	if err := s.check(); err != nil {
		return err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("till/file: decode %s: %w", name, err)
	}
	return nil
}

// writeJSON replaces name atomically via a temp file and rename.
func (s *Store) writeJSON(name string, v any) error {
	if err := s.check(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	temp := path + ".tmp"
	if err := os.WriteFile(temp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(temp, path)
}

// appendRow appends one CSV record, writing header first for a new file.
func (s *Store) appendRow(path string, header, row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	info, err := f.Stat()
	if err == nil && info.Size() == 0 {
		err = w.Write(header)
	}
	if err == nil {
		err = w.Write(row)
	}
	if err == nil {
		w.Flush()
		err = w.Error()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// readRows returns every record after the header. A missing file reads as
// empty.
func (s *Store) readRows(path string) ([][]string, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("till/file: read %s: %w", filepath.Base(path), err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[1:], nil
}
