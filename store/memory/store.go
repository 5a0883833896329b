// Package memory provides an in-process Store used by tests and by
// embedders that persist nothing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/till"
	"github.com/xraph/till/auditlog"
	"github.com/xraph/till/catalog"
	"github.com/xraph/till/inventory"
	"github.com/xraph/till/layaway"
	"github.com/xraph/till/payroll"
	"github.com/xraph/till/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps every collection in maps guarded by one RWMutex.
type Store struct {
	mu     sync.RWMutex
	closed bool

	inventory inventory.Snapshot
	layaways  layaway.List
	catalog   *catalog.Catalog

	// Audit log, keyed by day
	logs map[string][]auditlog.Entry

	punches []payroll.Punch
}

// New returns an empty store.
func New() *Store {
	return &Store{
		inventory: inventory.NewSnapshot(),
		layaways:  layaway.NewList(),
		catalog:   catalog.New(),
		logs:      make(map[string][]auditlog.Entry),
	}
}

// Inventory store implementation

func (s *Store) LoadInventory(_ context.Context) (inventory.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return inventory.Snapshot{}, till.ErrStoreClosed
	}
	return s.inventory, nil
}

func (s *Store) SaveInventory(_ context.Context, snap inventory.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return till.ErrStoreClosed
	}
	s.inventory = snap
	return nil
}

// Layaway store implementation

func (s *Store) LoadLayaways(_ context.Context) (layaway.List, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return layaway.List{}, till.ErrStoreClosed
	}
	return s.layaways, nil
}

func (s *Store) SaveLayaways(_ context.Context, holds layaway.List) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return till.ErrStoreClosed
	}
	s.layaways = holds
	return nil
}

// Audit log implementation

func (s *Store) AppendLog(_ context.Context, entry auditlog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return till.ErrStoreClosed
	}
	day := entry.Day()
	s.logs[day] = append(s.logs[day], entry)
	return nil
}

func (s *Store) ReadLog(_ context.Context, day time.Time) ([]auditlog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, till.ErrStoreClosed
	}
	entries := s.logs[day.Format(auditlog.DayLayout)]
	out := make([]auditlog.Entry, len(entries))
	copy(out, entries)
	return out, nil
}

// Catalog implementation

func (s *Store) LoadCatalog(_ context.Context) (*catalog.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, till.ErrStoreClosed
	}
	return s.catalog, nil
}

func (s *Store) SaveCatalog(_ context.Context, c *catalog.Catalog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return till.ErrStoreClosed
	}
	s.catalog = c
	return nil
}

// Time clock implementation

func (s *Store) RecordPunch(_ context.Context, p payroll.Punch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return till.ErrStoreClosed
	}
	s.punches = append(s.punches, p)
	return nil
}

func (s *Store) ListPunches(_ context.Context, from, to time.Time) ([]payroll.Punch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, till.ErrStoreClosed
	}
	var out []payroll.Punch
	for _, p := range s.punches {
		if !p.At.Before(from) && p.At.Before(to) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out, nil
}

// Core methods

func (s *Store) Migrate(_ context.Context) error {
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return till.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
