// Package till is the point-of-sale core of a small retail shop: a pending
// sale ledger over an inventory snapshot and a list of layaway holds, with
// an append-only audit log and a payroll time clock.
//
// Till is designed as a library. A register embeds one Engine, which owns
// the store and exactly one pending sale Session:
//
//   - Item lines decrement tracked stock in memory as they are added
//   - Layaway down payments open a hold and persist it immediately
//   - Layaway payments are checked against the hold's projected balance
//   - CompleteSale logs every line and saves each snapshot once
//   - CancelSale reverses every line and deletes holds opened by the sale
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/till"
//	    "github.com/xraph/till/inventory"
//	    "github.com/xraph/till/sale"
//	    "github.com/xraph/till/store/sqlite"
//	)
//
//	store, err := sqlite.Open(ctx, "till.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	t := till.New(store)
//	if err := t.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer t.Stop()
//
//	sess, _ := t.Session()
//	sess.AddItem(ctx, inventory.NewKey("Clips", "Acme", "Red Clip"), sale.Discount{})
//	receipt, err := sess.CompleteSale(ctx)
//
// # Inventory tracking
//
// Only categories reported by inventory.IsTracked have stock counts. Other
// items are sold from the menu (package catalog) and logged with N/A
// quantities.
//
// # Failures
//
// Rejected operations (empty ledger, invalid amounts, missing item data)
// change nothing. Store failures are different: the in-memory state has
// already moved on, the error matches ErrPersistence, and Engine.Flush
// writes the snapshots again.
//
// # TypeID
//
// Sale lines, holds, log entries and punches carry TypeIDs:
//
//	sli_01h2xcejqtf2nbrexx3vqjhp41  // Sale line
//	lay_01h2xcejqtf2nbrexx3vqjhp41  // Layaway hold
//	log_01h455vb4pex5vsknk084sn02q  // Audit log entry
package till
