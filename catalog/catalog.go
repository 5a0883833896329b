// Package catalog is the read-only menu the sale engine prices untracked
// categories from.
package catalog

import (
	"context"
	"sort"

	"github.com/xraph/till/inventory"
	"github.com/xraph/till/types"
)

// Item is a menu entry.
type Item struct {
	Category string      `json:"category"`
	Brand    string      `json:"brand"`
	Item     string      `json:"item"`
	ItemCode string      `json:"item_code"`
	Price    types.Money `json:"price"`
}

// Key returns the inventory key the menu entry maps to.
func (i Item) Key() inventory.Key {
	return inventory.Key{Category: i.Category, Brand: i.Brand, Item: i.Item}
}

// Catalog indexes menu items by key.
type Catalog struct {
	items map[inventory.Key]Item
}

// New builds a catalog.
func New(items ...Item) *Catalog {
	c := &Catalog{items: make(map[inventory.Key]Item, len(items))}
	for _, it := range items {
		c.items[it.Key()] = it
	}
	return c
}

// Lookup returns the menu entry for k.
func (c *Catalog) Lookup(k inventory.Key) (Item, bool) {
	if c == nil {
		return Item{}, false
	}
	it, ok := c.items[k]
	return it, ok
}

// With returns a new catalog with it added or replaced.
func (c *Catalog) With(it Item) *Catalog {
	return New(append(c.Items(), it)...)
}

// Without returns a new catalog without k.
func (c *Catalog) Without(k inventory.Key) *Catalog {
	var kept []Item
	for _, it := range c.Items() {
		if it.Key() != k {
			kept = append(kept, it)
		}
	}
	return New(kept...)
}

// Items returns all entries ordered by key.
func (c *Catalog) Items() []Item {
	if c == nil {
		return nil
	}
	out := make([]Item, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key().String() < out[j].Key().String()
	})
	return out
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// Store loads and replaces the menu.
type Store interface {
	LoadCatalog(ctx context.Context) (*Catalog, error)
	SaveCatalog(ctx context.Context, c *Catalog) error
}
