package catalog_test

import (
	"testing"

	"github.com/xraph/till/catalog"
	"github.com/xraph/till/inventory"
	"github.com/xraph/till/types"
)

func TestCatalogLookup(t *testing.T) {
	c := catalog.New(
		catalog.Item{Category: "Clips", Brand: "Generic", Item: "Claw Clip", ItemCode: "CLIP-CLAW", Price: types.USD(500)},
		catalog.Item{Category: "Other", Brand: "House", Item: "Shoe Polish", ItemCode: "OTH-POL", Price: types.USD(799)},
	)

	it, ok := c.Lookup(inventory.NewKey("Clips", "Generic", "Claw Clip"))
	if !ok {
		t.Fatal("expected catalog entry")
	}
	if !it.Price.Equal(types.USD(500)) || it.ItemCode != "CLIP-CLAW" {
		t.Errorf("unexpected entry %+v", it)
	}

	if _, ok := c.Lookup(inventory.NewKey("Clips", "Generic", "Bobby Pin")); ok {
		t.Error("expected missing entry")
	}

	var nilCatalog *catalog.Catalog
	if _, ok := nilCatalog.Lookup(it.Key()); ok {
		t.Error("nil catalog should find nothing")
	}
	if nilCatalog.Len() != 0 {
		t.Error("nil catalog should be empty")
	}
}

func TestCatalogWithWithout(t *testing.T) {
	base := catalog.New(catalog.Item{Category: "Clips", Brand: "Generic", Item: "Claw Clip", ItemCode: "CLIP-CLAW", Price: types.USD(500)})

	repriced := base.With(catalog.Item{Category: "Clips", Brand: "Generic", Item: "Claw Clip", ItemCode: "CLIP-CLAW", Price: types.USD(600)})
	if repriced.Len() != 1 {
		t.Fatalf("Len = %d, want 1", repriced.Len())
	}
	if it, _ := repriced.Lookup(inventory.NewKey("Clips", "Generic", "Claw Clip")); !it.Price.Equal(types.USD(600)) {
		t.Errorf("price = %v, want $6.00", it.Price)
	}
	if it, _ := base.Lookup(inventory.NewKey("Clips", "Generic", "Claw Clip")); !it.Price.Equal(types.USD(500)) {
		t.Error("With must not change the receiver")
	}

	if got := repriced.Without(inventory.NewKey("Clips", "Generic", "Claw Clip")); got.Len() != 0 {
		t.Errorf("Len after Without = %d", got.Len())
	}
}
