package till

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/xraph/till/auditlog"
	"github.com/xraph/till/catalog"
	"github.com/xraph/till/id"
	"github.com/xraph/till/inventory"
	"github.com/xraph/till/layaway"
	"github.com/xraph/till/sale"
	"github.com/xraph/till/types"
)

// Custom items are sold under this category and brand with CustomItemCode.
const (
	CustomCategory = "Custom"
	CustomItemCode = "CUSTOM"
)

// Session is the pending sale ledger. It owns the in-memory inventory and
// layaway snapshots between commits. All methods are safe for concurrent
// use; each one runs to completion before the next starts.
type Session struct {
	engine *Engine

	mu        sync.Mutex
	inventory inventory.Snapshot
	layaways  layaway.List
	catalog   *catalog.Catalog
	lines     []sale.Line
	total     types.Money
	lastTotal types.Money
}

func newSession(e *Engine, inv inventory.Snapshot, holds layaway.List, menu *catalog.Catalog) *Session {
	if menu == nil {
		menu = catalog.New()
	}
	return &Session{
		engine:    e,
		inventory: inv,
		layaways:  holds,
		catalog:   menu,
		total:     types.Zero(e.currency),
		lastTotal: types.Zero(e.currency),
	}
}

// SaleLineRequest describes an item line. ItemCode comes from the item's
// catalog or inventory record and is looked up when empty.
type SaleLineRequest struct {
	Key            inventory.Key
	ItemCode       string
	Price          types.Money
	Discount       string
	TrackInventory bool
}

// LayawayRequest opens a hold. ItemCode is only needed for items with no
// inventory or catalog record.
type LayawayRequest struct {
	Key           inventory.Key
	ItemCode      string
	OriginalPrice types.Money
	Customer      layaway.Customer
}

// ──────────────────────────────────────────────────
// Read accessors
// ──────────────────────────────────────────────────

// Lines returns a copy of the pending lines in insertion order.
func (s *Session) Lines() []sale.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sale.Line(nil), s.lines...)
}

// Len returns the number of pending lines.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// Total returns the running total of the pending sale.
func (s *Session) Total() types.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// LastCompletedTotal returns the total of the most recently completed sale.
func (s *Session) LastCompletedTotal() types.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTotal
}

// Inventory returns the in-memory inventory, including pending decrements.
func (s *Session) Inventory() inventory.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inventory
}

// Catalog returns the menu the session resolves untracked items from.
func (s *Session) Catalog() *catalog.Catalog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog
}

// Hold returns the hold with holdID as it will look once the pending sale
// commits: pending down payments and payments are already applied.
func (s *Session) Hold(holdID id.LayawayID) (layaway.Hold, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projectedHold(holdID)
}

// Layaways returns every hold with pending payments applied.
func (s *Session) Layaways() []layaway.Hold {
	s.mu.Lock()
	defer s.mu.Unlock()

	holds := s.layaways.Holds()
	for i, h := range holds {
		holds[i], _ = s.projectedHold(h.ID)
	}
	return holds
}

func (s *Session) projectedHold(holdID id.LayawayID) (layaway.Hold, bool) {
	h, ok := s.layaways.Find(holdID)
	if !ok {
		return layaway.Hold{}, false
	}
	now := s.engine.clock()
	for _, l := range s.lines {
		if hid, isHold := sale.HoldOf(l); isHold && hid == holdID {
			h = h.ApplyPayment(l.Amount(), now)
		}
	}
	return h, true
}

// ──────────────────────────────────────────────────
// Adding lines
// ──────────────────────────────────────────────────

// AddSaleLine appends an item line. Tracked items are decremented in the
// in-memory inventory right away; the store is not written until the sale
// completes.
func (s *Session) AddSaleLine(ctx context.Context, req SaleLineRequest) (sale.Item, error) {
	var (
		line sale.Item
		err  error
	)
	func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		line, err = s.addSaleLine(ctx, req)
	}()
	if err != nil {
		return sale.Item{}, err
	}

	s.engine.plugins.EmitLineAdded(ctx, line)
	return line, nil
}

// AddItem sells one unit of the item at key. Tracked categories take their
// price from inventory; the rest come from the menu. discount is applied to
// that price.
func (s *Session) AddItem(ctx context.Context, key inventory.Key, discount sale.Discount) (sale.Item, error) {
	var (
		line sale.Item
		err  error
	)
	func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		var req SaleLineRequest
		if req, err = s.resolveItem(key); err != nil {
			return
		}
		if err = s.checkCurrency(req.Price); err != nil {
			return
		}
		if !req.Price.SameCurrency(discount.Amount) {
			err = fmt.Errorf("%w: discount %s on a %s price", ErrInvalidAmount, discount.Amount, req.Price.Currency)
			return
		}
		req.Price = discount.Apply(req.Price)
		req.Discount = discount.Label()
		line, err = s.addSaleLine(ctx, req)
	}()
	if err != nil {
		return sale.Item{}, err
	}

	s.engine.plugins.EmitLineAdded(ctx, line)
	return line, nil
}

// AddCustomItem sells an off-menu item that inventory does not track.
func (s *Session) AddCustomItem(ctx context.Context, description string, price types.Money) (sale.Item, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return sale.Item{}, fmt.Errorf("%w: custom item needs a description", ErrMissingItemData)
	}
	return s.AddSaleLine(ctx, SaleLineRequest{
		Key:      inventory.NewKey(CustomCategory, CustomCategory, description),
		ItemCode: CustomItemCode,
		Price:    price,
	})
}

func (s *Session) resolveItem(key inventory.Key) (SaleLineRequest, error) {
	if inventory.IsTracked(key.Category) {
		rec, ok := s.inventory.Get(key)
		if !ok {
			return SaleLineRequest{}, s.missingItem(key, "no inventory record")
		}
		return SaleLineRequest{Key: key, ItemCode: rec.ItemCode, Price: rec.Price, TrackInventory: true}, nil
	}

	it, ok := s.catalog.Lookup(key)
	if !ok {
		return SaleLineRequest{}, s.missingItem(key, "no menu entry")
	}
	return SaleLineRequest{Key: key, ItemCode: it.ItemCode, Price: it.Price}, nil
}

func (s *Session) addSaleLine(ctx context.Context, req SaleLineRequest) (sale.Item, error) {
	if !req.Key.Valid() {
		return sale.Item{}, s.missingItem(req.Key, "incomplete item key")
	}
	if req.Price.IsNegative() {
		return sale.Item{}, fmt.Errorf("%w: negative price %s", ErrInvalidAmount, req.Price)
	}
	if err := s.checkCurrency(req.Price); err != nil {
		return sale.Item{}, err
	}

	discount := req.Discount
	if discount == "" {
		discount = sale.NoDiscountLabel
	}

	line := sale.Item{
		ID:       id.NewSaleLineID(),
		Key:      req.Key,
		ItemCode: req.ItemCode,
		Price:    req.Price,
		Discount: discount,
		Tracked:  req.TrackInventory,
	}

	next := s.inventory
	if req.TrackInventory {
		rec, ok := s.inventory.Get(req.Key)
		if !ok {
			return sale.Item{}, s.missingItem(req.Key, "no inventory record")
		}
		if !rec.InStock() && !s.engine.confirmStock(ctx, rec) {
			return sale.Item{}, fmt.Errorf("%w: %s", ErrOutOfStockDeclined, req.Key)
		}
		next, rec, _ = s.inventory.Adjust(req.Key, -1)
		if line.ItemCode == "" {
			line.ItemCode = rec.ItemCode
		}
		line.QuantityChange = -1
		line.QuantityAfter = rec.Quantity
	} else if line.ItemCode == "" {
		it, ok := s.catalog.Lookup(req.Key)
		if !ok {
			return sale.Item{}, s.missingItem(req.Key, "no item code")
		}
		line.ItemCode = it.ItemCode
	}

	s.inventory = next
	s.lines = append(s.lines, line)
	s.total = s.total.Add(line.Price)

	s.engine.logger.Debug("sale line added",
		"item", line.Key.String(),
		"price", line.Price.String(),
		"tracked", line.Tracked,
	)
	return line, nil
}

// AddLayawayDownPayment opens a hold for the item and charges the down
// payment on this sale. The new hold is written to the store immediately.
// On a persistence error the hold and line stay in memory; use
// Engine.Flush to retry.
func (s *Session) AddLayawayDownPayment(ctx context.Context, req LayawayRequest) (sale.LayawayDownPayment, layaway.Hold, error) {
	var (
		line sale.LayawayDownPayment
		hold layaway.Hold
		err  error
	)
	func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		line, hold, err = s.addDownPayment(ctx, req)
	}()
	if line.ID.IsNil() {
		return line, hold, err
	}

	s.engine.plugins.EmitLayawayOpened(ctx, hold)
	s.engine.plugins.EmitLineAdded(ctx, line)
	return line, hold, err
}

func (s *Session) addDownPayment(ctx context.Context, req LayawayRequest) (sale.LayawayDownPayment, layaway.Hold, error) {
	if !req.Key.Valid() {
		return sale.LayawayDownPayment{}, layaway.Hold{}, s.missingItem(req.Key, "incomplete item key")
	}
	if !req.OriginalPrice.IsPositive() {
		return sale.LayawayDownPayment{}, layaway.Hold{}, fmt.Errorf("%w: layaway price must be positive", ErrInvalidAmount)
	}
	if err := s.checkCurrency(req.OriginalPrice); err != nil {
		return sale.LayawayDownPayment{}, layaway.Hold{}, err
	}

	tracked := inventory.IsTracked(req.Key.Category)
	itemCode := req.ItemCode
	if tracked {
		rec, ok := s.inventory.Get(req.Key)
		if !ok {
			return sale.LayawayDownPayment{}, layaway.Hold{}, s.missingItem(req.Key, "no inventory record")
		}
		itemCode = rec.ItemCode
	} else if it, ok := s.catalog.Lookup(req.Key); ok && itemCode == "" {
		itemCode = it.ItemCode
	}
	if itemCode == "" {
		return sale.LayawayDownPayment{}, layaway.Hold{}, s.missingItem(req.Key, "no item code")
	}

	return s.openHold(ctx, req.Key, itemCode, req.OriginalPrice, tracked, req.Customer)
}

func (s *Session) openHold(ctx context.Context, key inventory.Key, itemCode string, original types.Money, tracked bool, customer layaway.Customer) (sale.LayawayDownPayment, layaway.Hold, error) {
	hold := layaway.NewHold(key, itemCode, original, tracked, customer, s.engine.clock())
	line := sale.LayawayDownPayment{
		ID:            id.NewSaleLineID(),
		HoldID:        hold.ID,
		Key:           key,
		ItemCode:      itemCode,
		Price:         layaway.DownPayment(original, s.engine.downPaymentRate),
		OriginalPrice: original,
		Tracked:       tracked,
		Customer:      customer,
	}

	s.layaways = s.layaways.With(hold)
	s.lines = append(s.lines, line)
	s.total = s.total.Add(line.Price)

	s.engine.logger.Info("layaway opened",
		"hold_id", hold.ID.String(),
		"item", key.String(),
		"down_payment", line.Price.String(),
	)

	if err := s.engine.store.SaveLayaways(ctx, s.layaways); err != nil {
		return line, hold, s.engine.persistFailed(ctx, "save_layaways", err)
	}
	return line, hold, nil
}

// AddLayawayPayment charges amount against an existing hold. The amount
// must be positive and no more than the hold's remaining balance after
// the payments already pending on this sale.
func (s *Session) AddLayawayPayment(ctx context.Context, holdID id.LayawayID, amount types.Money) (sale.LayawayPayment, error) {
	var (
		line sale.LayawayPayment
		err  error
	)
	func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		line, err = s.addPayment(holdID, amount)
	}()
	if err != nil {
		return sale.LayawayPayment{}, err
	}

	s.engine.plugins.EmitLineAdded(ctx, line)
	return line, nil
}

func (s *Session) addPayment(holdID id.LayawayID, amount types.Money) (sale.LayawayPayment, error) {
	hold, ok := s.projectedHold(holdID)
	if !ok {
		return sale.LayawayPayment{}, fmt.Errorf("%w: %s", ErrHoldNotFound, holdID)
	}
	if err := s.checkCurrency(amount); err != nil {
		return sale.LayawayPayment{}, err
	}
	if !amount.SameCurrency(hold.RemainingBalance) {
		return sale.LayawayPayment{}, fmt.Errorf("%w: %s payment on a %s hold",
			ErrInvalidAmount, amount.Currency, hold.RemainingBalance.Currency)
	}
	if !amount.IsPositive() || amount.GreaterThan(hold.RemainingBalance) {
		return sale.LayawayPayment{}, fmt.Errorf("%w: %s against remaining %s",
			ErrInvalidAmount, amount, hold.RemainingBalance)
	}

	line := sale.LayawayPayment{
		ID:       id.NewSaleLineID(),
		HoldID:   holdID,
		Key:      hold.Key(),
		ItemCode: hold.ItemCode,
		Price:    amount,
		Tracked:  hold.InventoryTracked,
	}
	s.lines = append(s.lines, line)
	s.total = s.total.Add(amount)
	return line, nil
}

// ──────────────────────────────────────────────────
// Editing the pending sale
// ──────────────────────────────────────────────────

// UndoLast removes the most recent line and reverses its effects.
// Undoing a down payment deletes its hold from the store.
func (s *Session) UndoLast(ctx context.Context) (sale.Line, error) {
	var (
		line    sale.Line
		removed *layaway.Hold
		err     error
	)
	func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		line, removed, err = s.undoLast(ctx)
	}()
	if line == nil {
		return nil, err
	}

	if removed != nil {
		s.engine.plugins.EmitLayawayCanceled(ctx, *removed)
	}
	s.engine.plugins.EmitLineRemoved(ctx, line)
	return line, err
}

func (s *Session) undoLast(ctx context.Context) (sale.Line, *layaway.Hold, error) {
	if len(s.lines) == 0 {
		return nil, nil, ErrEmptyLedger
	}

	last := s.lines[len(s.lines)-1]
	s.lines = s.lines[:len(s.lines)-1]
	s.total = s.total.Subtract(last.Amount())

	switch v := last.(type) {
	case sale.Item:
		if v.Tracked {
			s.restock(v)
		}
	case sale.LayawayDownPayment:
		var removed *layaway.Hold
		if hold, ok := s.layaways.Find(v.HoldID); ok {
			removed = &hold
		}
		s.layaways = s.layaways.Without(v.HoldID)
		if err := s.engine.store.SaveLayaways(ctx, s.layaways); err != nil {
			return last, removed, s.engine.persistFailed(ctx, "save_layaways", err)
		}
		return last, removed, nil
	}
	return last, nil, nil
}

func (s *Session) restock(v sale.Item) {
	next, _, ok := s.inventory.Adjust(v.Key, -v.QuantityChange)
	if !ok {
		s.engine.logger.Warn("restock skipped, inventory record vanished", "item", v.Key.String())
		return
	}
	s.inventory = next
}

// DuplicateLast re-adds the most recent line. An item line goes through
// the same stock checks as a fresh add; a down payment opens a second,
// independent hold; a payment is re-validated against the hold's balance.
func (s *Session) DuplicateLast(ctx context.Context) (sale.Line, error) {
	var (
		line   sale.Line
		opened *layaway.Hold
		err    error
	)
	func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		line, opened, err = s.duplicateLast(ctx)
	}()

	if line == nil {
		return nil, err
	}
	if opened != nil {
		s.engine.plugins.EmitLayawayOpened(ctx, *opened)
	}
	s.engine.plugins.EmitLineAdded(ctx, line)
	return line, err
}

func (s *Session) duplicateLast(ctx context.Context) (sale.Line, *layaway.Hold, error) {
	if len(s.lines) == 0 {
		return nil, nil, ErrEmptyLedger
	}

	var (
		line   sale.Line
		opened *layaway.Hold
		err    error
	)
	switch v := s.lines[len(s.lines)-1].(type) {
	case sale.Item:
		var item sale.Item
		item, err = s.addSaleLine(ctx, SaleLineRequest{
			Key:            v.Key,
			ItemCode:       v.ItemCode,
			Price:          v.Price,
			Discount:       v.Discount,
			TrackInventory: v.Tracked,
		})
		if err == nil {
			line = item
		}
	case sale.LayawayDownPayment:
		var (
			dp   sale.LayawayDownPayment
			hold layaway.Hold
		)
		dp, hold, err = s.openHold(ctx, v.Key, v.ItemCode, v.OriginalPrice, v.Tracked, v.Customer)
		line, opened = dp, &hold
	case sale.LayawayPayment:
		var pay sale.LayawayPayment
		pay, err = s.addPayment(v.HoldID, v.Price)
		if err == nil {
			line = pay
		}
	}
	return line, opened, err
}

// ──────────────────────────────────────────────────
// Commit and rollback
// ──────────────────────────────────────────────────

// CompleteSale commits the pending sale. Every line gets an audit entry,
// payments are applied to their holds, holds that reach a zero balance are
// finalized, and the inventory and layaway snapshots are each saved once.
//
// The in-memory state is committed before anything is written. If a write
// fails, the returned receipt is still valid and the error matches
// ErrPersistence; call Engine.Flush to retry the snapshot writes.
func (s *Session) CompleteSale(ctx context.Context) (*sale.Receipt, error) {
	var (
		receipt *sale.Receipt
		err     error
	)
	func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		receipt, err = s.completeSale(ctx)
	}()
	if receipt == nil {
		return nil, err
	}

	s.engine.plugins.EmitSaleCompleted(ctx, receipt)
	for _, h := range receipt.Finalized {
		s.engine.plugins.EmitLayawayCompleted(ctx, h)
	}
	return receipt, err
}

func (s *Session) completeSale(ctx context.Context) (*sale.Receipt, error) {
	if len(s.lines) == 0 {
		s.engine.logger.Info("complete sale ignored, no items")
		return nil, ErrEmptyLedger
	}

	now := s.engine.clock()
	inv := s.inventory
	holds := s.layaways
	entries := make([]auditlog.Entry, 0, len(s.lines))
	var finalized []layaway.Hold

	for _, l := range s.lines {
		switch v := l.(type) {
		case sale.Item:
			entry := newEntry(now, v.Key, v.ItemCode, v.Price, v.Discount)
			if v.Tracked {
				entry.Action = auditlog.ActionSoldItem
				entry.QuantityChange = auditlog.Int(v.QuantityChange)
				entry.NewQuantity = auditlog.Int(v.QuantityAfter)
				if rec, ok := inv.Get(v.Key); ok {
					inv = inv.Put(rec.Annotated(inventory.ChangeSold, now))
				}
			} else {
				entry.Action = auditlog.ActionSoldUntracked
			}
			entries = append(entries, entry)

		case sale.LayawayDownPayment, sale.LayawayPayment:
			holdID, _ := sale.HoldOf(l)
			entry := newEntry(now, l.ItemKey(), lineItemCode(l), l.Amount(), sale.NoDiscountLabel)
			entry.Action = auditlog.ActionLayawayPayment
			if _, isDown := l.(sale.LayawayDownPayment); isDown {
				entry.Action = auditlog.ActionLayawayDownPayment
			}

			hold, ok := holds.Find(holdID)
			if !ok {
				s.engine.logger.Error("layaway hold missing at completion",
					"hold_id", holdID.String(),
					"item", l.ItemKey().String(),
				)
				entries = append(entries, entry)
				continue
			}
			entries = append(entries, entry)

			hold = hold.ApplyPayment(l.Amount(), now)
			if !hold.Completed() {
				holds = holds.With(hold)
				continue
			}

			var done *auditlog.Entry
			inv, done = s.finalizeHold(inv, hold, now)
			if done != nil {
				entries = append(entries, *done)
			}
			holds = holds.Without(hold.ID)
			finalized = append(finalized, hold)
		}
	}

	receipt := &sale.Receipt{
		Total:       s.total,
		Lines:       s.lines,
		Entries:     entries,
		Finalized:   finalized,
		CompletedAt: now,
	}

	s.inventory = inv
	s.layaways = holds
	s.lastTotal = s.total
	s.lines = nil
	s.total = types.Zero(s.engine.currency)

	var errs MultiError
	for _, entry := range entries {
		errs.Add(s.engine.appendLog(ctx, entry))
	}
	if err := s.engine.store.SaveInventory(ctx, inv); err != nil {
		errs.Add(s.engine.persistFailed(ctx, "save_inventory", err))
	}
	if err := s.engine.store.SaveLayaways(ctx, holds); err != nil {
		errs.Add(s.engine.persistFailed(ctx, "save_layaways", err))
	}

	s.engine.logger.Info("sale completed",
		"total", receipt.Total.String(),
		"lines", len(receipt.Lines),
		"finalized_layaways", len(finalized),
	)
	return receipt, errs.ErrOrNil()
}

// finalizeHold releases a paid-off hold. A tracked hold takes its unit out
// of inventory and yields a completion entry; untracked holds yield none.
func (s *Session) finalizeHold(inv inventory.Snapshot, hold layaway.Hold, now time.Time) (inventory.Snapshot, *auditlog.Entry) {
	if !hold.InventoryTracked {
		return inv, nil
	}

	next, rec, ok := inv.Adjust(hold.Key(), -1)
	if !ok {
		s.engine.logger.Error("cannot finalize layaway stock, inventory record missing",
			"hold_id", hold.ID.String(),
			"item", hold.Key().String(),
		)
		return inv, nil
	}
	rec = rec.Annotated(inventory.ChangeLayawayCompleted, now)
	next = next.Put(rec)

	entry := newEntry(now, hold.Key(), hold.ItemCode, types.Zero(hold.OriginalPrice.Currency), sale.NoDiscountLabel)
	entry.Action = auditlog.ActionLayawayCompleted
	entry.QuantityChange = auditlog.Int(-1)
	entry.NewQuantity = auditlog.Int(rec.Quantity)
	return next, &entry
}

// CancelSale discards the pending sale. Inventory decrements are restored
// and holds opened by this sale are deleted; both snapshots are then saved
// once. Cancellation of ctx does not interrupt the rollback.
func (s *Session) CancelSale(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)

	var (
		lines   []sale.Line
		removed []layaway.Hold
		err     error
	)
	func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		lines, removed, err = s.cancelSale(ctx)
	}()
	if len(lines) == 0 {
		return err
	}

	for _, h := range removed {
		s.engine.plugins.EmitLayawayCanceled(ctx, h)
	}
	s.engine.plugins.EmitSaleCanceled(ctx, lines)
	return err
}

func (s *Session) cancelSale(ctx context.Context) ([]sale.Line, []layaway.Hold, error) {
	if len(s.lines) == 0 {
		return nil, nil, nil
	}

	lines := s.lines
	var removed []layaway.Hold
	for i := len(lines) - 1; i >= 0; i-- {
		switch v := lines[i].(type) {
		case sale.Item:
			if v.Tracked {
				s.restock(v)
			}
		case sale.LayawayDownPayment:
			if h, ok := s.layaways.Find(v.HoldID); ok {
				removed = append(removed, h)
			}
			s.layaways = s.layaways.Without(v.HoldID)
		}
	}
	s.lines = nil
	s.total = types.Zero(s.engine.currency)

	var errs MultiError
	if err := s.engine.store.SaveInventory(ctx, s.inventory); err != nil {
		errs.Add(s.engine.persistFailed(ctx, "save_inventory", err))
	}
	if err := s.engine.store.SaveLayaways(ctx, s.layaways); err != nil {
		errs.Add(s.engine.persistFailed(ctx, "save_layaways", err))
	}

	s.engine.logger.Info("sale canceled", "lines", len(lines), "holds_removed", len(removed))
	return lines, removed, errs.ErrOrNil()
}

// committedInventory is the in-memory inventory with pending sale
// decrements put back: what the store should hold right now.
func (s *Session) committedInventory() inventory.Snapshot {
	inv := s.inventory
	for _, l := range s.lines {
		if v, ok := l.(sale.Item); ok && v.Tracked {
			if next, _, found := inv.Adjust(v.Key, -v.QuantityChange); found {
				inv = next
			}
		}
	}
	return inv
}

func (s *Session) flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs MultiError
	if err := s.engine.store.SaveInventory(ctx, s.committedInventory()); err != nil {
		errs.Add(s.engine.persistFailed(ctx, "save_inventory", err))
	}
	if err := s.engine.store.SaveLayaways(ctx, s.layaways); err != nil {
		errs.Add(s.engine.persistFailed(ctx, "save_layaways", err))
	}
	return errs.ErrOrNil()
}

// Reload replaces the in-memory snapshots with the store's. It refuses
// while a sale is pending.
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.lines) > 0 {
		return ErrSaleInProgress
	}
	fresh, err := s.engine.loadSession(ctx)
	if err != nil {
		return err
	}
	s.inventory = fresh.inventory
	s.layaways = fresh.layaways
	s.catalog = fresh.catalog
	return nil
}

// checkCurrency rejects an amount that is not in the engine's currency.
func (s *Session) checkCurrency(m types.Money) error {
	if !types.Zero(s.engine.currency).SameCurrency(m) {
		return fmt.Errorf("%w: %s amount on a %s till", ErrInvalidAmount, m.Currency, s.engine.currency)
	}
	return nil
}

func (s *Session) missingItem(key inventory.Key, reason string) error {
	s.engine.logger.Error("missing item data", "item", key.String(), "reason", reason)
	return fmt.Errorf("%w: %s: %s", ErrMissingItemData, key, reason)
}

func lineItemCode(l sale.Line) string {
	switch v := l.(type) {
	case sale.Item:
		return v.ItemCode
	case sale.LayawayDownPayment:
		return v.ItemCode
	case sale.LayawayPayment:
		return v.ItemCode
	}
	return ""
}

func newEntry(now time.Time, key inventory.Key, itemCode string, price types.Money, discount string) auditlog.Entry {
	return auditlog.Entry{
		ID:              id.NewLogEntryID(),
		Timestamp:       now,
		ItemCode:        itemCode,
		Category:        key.Category,
		Brand:           key.Brand,
		Item:            key.Item,
		PriceSold:       price,
		DiscountApplied: discount,
	}
}
