package inventory

import (
	"context"
	"sort"
)

// Tree is the nested category → brand → item shape stores load and save.
type Tree map[string]map[string]map[string]Record

// Snapshot is an immutable view of the inventory. Every mutating method
// returns a new Snapshot and leaves the receiver untouched; unchanged
// branches are shared between the two.
type Snapshot struct {
	tree Tree
}

// NewSnapshot builds a snapshot from records. Later records win on key clashes.
func NewSnapshot(records ...Record) Snapshot {
	tree := make(Tree)
	for _, r := range records {
		brands, ok := tree[r.Category]
		if !ok {
			brands = make(map[string]map[string]Record)
			tree[r.Category] = brands
		}
		items, ok := brands[r.Brand]
		if !ok {
			items = make(map[string]Record)
			brands[r.Brand] = items
		}
		items[r.Item] = r
	}
	return Snapshot{tree: tree}
}

// FromTree builds a snapshot from the nested store shape. The tree is copied.
func FromTree(tree Tree) Snapshot {
	var records []Record
	for category, brands := range tree {
		for brand, items := range brands {
			for item, r := range items {
				r.Category, r.Brand, r.Item = category, brand, item
				records = append(records, r)
			}
		}
	}
	return NewSnapshot(records...)
}

// Tree returns a deep copy in the nested store shape.
func (s Snapshot) Tree() Tree {
	return NewSnapshot(s.Records()...).tree
}

// Get returns the record for key.
func (s Snapshot) Get(k Key) (Record, bool) {
	r, ok := s.tree[k.Category][k.Brand][k.Item]
	return r, ok
}

// Put returns a snapshot with r stored under its key (last writer wins).
func (s Snapshot) Put(r Record) Snapshot {
	tree := make(Tree, len(s.tree)+1)
	for c, b := range s.tree {
		tree[c] = b
	}

	brands := make(map[string]map[string]Record, len(s.tree[r.Category])+1)
	for b, items := range s.tree[r.Category] {
		brands[b] = items
	}

	items := make(map[string]Record, len(brands[r.Brand])+1)
	for i, rec := range brands[r.Brand] {
		items[i] = rec
	}
	items[r.Item] = r

	brands[r.Brand] = items
	tree[r.Category] = brands
	return Snapshot{tree: tree}
}

// Adjust returns a snapshot with the quantity at k moved by delta, along with
// the updated record. ok is false, and s is returned unchanged, if k is absent.
func (s Snapshot) Adjust(k Key, delta int) (next Snapshot, updated Record, ok bool) {
	r, ok := s.Get(k)
	if !ok {
		return s, Record{}, false
	}
	r.Quantity += delta
	return s.Put(r), r, true
}

// Records returns every record ordered by category, brand, item.
func (s Snapshot) Records() []Record {
	var out []Record
	for _, brands := range s.tree {
		for _, items := range brands {
			for _, r := range items {
				out = append(out, r)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.Brand != b.Brand {
			return a.Brand < b.Brand
		}
		return a.Item < b.Item
	})
	return out
}

// Len returns the number of records.
func (s Snapshot) Len() int {
	n := 0
	for _, brands := range s.tree {
		for _, items := range brands {
			n += len(items)
		}
	}
	return n
}

// Equal reports whether both snapshots hold identical records.
func (s Snapshot) Equal(o Snapshot) bool {
	a, b := s.Records(), o.Records()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Store persists the inventory as a whole snapshot.
type Store interface {
	LoadInventory(ctx context.Context) (Snapshot, error)
	SaveInventory(ctx context.Context, snap Snapshot) error
}
