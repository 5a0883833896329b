package till

import (
	"context"
	"fmt"

	"github.com/xraph/till/auditlog"
	"github.com/xraph/till/catalog"
	"github.com/xraph/till/id"
	"github.com/xraph/till/inventory"
	"github.com/xraph/till/layaway"
	"github.com/xraph/till/sale"
	"github.com/xraph/till/types"
)

// AdjustInventory sets the on-hand quantity of the record at key and logs
// the change. It may run while a sale is pending: the store receives the
// committed quantities, never the sale's unconfirmed decrements.
func (s *Session) AdjustInventory(ctx context.Context, key inventory.Key, quantity int) (inventory.Record, error) {
	var (
		before, after inventory.Record
		applied       bool
		err           error
	)
	func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		before, after, applied, err = s.adjustInventory(ctx, key, quantity)
	}()
	if !applied {
		return inventory.Record{}, err
	}

	s.engine.plugins.EmitInventoryAdjusted(ctx, before, after)
	return after, err
}

func (s *Session) adjustInventory(ctx context.Context, key inventory.Key, quantity int) (before, after inventory.Record, applied bool, err error) {
	if quantity < 0 {
		return before, after, false, ValidationError{Field: "quantity", Message: "must not be negative"}
	}

	committed := s.committedInventory()
	before, ok := committed.Get(key)
	if !ok {
		return before, after, false, fmt.Errorf("%w: %s", ErrItemNotFound, key)
	}

	now := s.engine.clock()
	delta := quantity - before.Quantity
	after = before
	after.Quantity = quantity
	after = after.Annotated(inventory.ChangeManualAdjustment, now)

	// The pending sale's decrements stay applied in memory.
	live, _ := s.inventory.Get(key)
	liveAfter := after
	liveAfter.Quantity = live.Quantity + delta
	s.inventory = s.inventory.Put(liveAfter)

	entry := newEntry(now, key, after.ItemCode, types.Zero(after.Price.Currency), sale.NoDiscountLabel)
	entry.Action = auditlog.ActionInventoryAdjusted
	entry.QuantityChange = auditlog.Int(delta)
	entry.NewQuantity = auditlog.Int(quantity)

	var errs MultiError
	if err := s.engine.store.SaveInventory(ctx, committed.Put(after)); err != nil {
		errs.Add(s.engine.persistFailed(ctx, "save_inventory", err))
	}
	errs.Add(s.engine.appendLog(ctx, entry))

	s.engine.logger.Info("inventory adjusted",
		"item", key.String(),
		"from", before.Quantity,
		"to", quantity,
	)
	return before, after, true, errs.ErrOrNil()
}

// EditLayawayBalance sets a hold's remaining balance directly. remaining
// must lie in [0, original price]. A hold edited down to zero is finalized
// exactly as if the last payment had cleared it.
func (s *Session) EditLayawayBalance(ctx context.Context, holdID id.LayawayID, remaining types.Money) (layaway.Hold, error) {
	var (
		hold      layaway.Hold
		finalized bool
		err       error
	)
	func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		hold, finalized, err = s.editLayawayBalance(ctx, holdID, remaining)
	}()

	if finalized {
		s.engine.plugins.EmitLayawayCompleted(ctx, hold)
	}
	return hold, err
}

func (s *Session) editLayawayBalance(ctx context.Context, holdID id.LayawayID, remaining types.Money) (layaway.Hold, bool, error) {
	if err := s.checkNotPending(holdID); err != nil {
		return layaway.Hold{}, false, err
	}
	hold, ok := s.layaways.Find(holdID)
	if !ok {
		return layaway.Hold{}, false, fmt.Errorf("%w: %s", ErrHoldNotFound, holdID)
	}
	if !remaining.SameCurrency(hold.OriginalPrice) {
		return layaway.Hold{}, false, fmt.Errorf("%w: %s balance on a %s hold",
			ErrInvalidBalance, remaining.Currency, hold.OriginalPrice.Currency)
	}
	if remaining.IsNegative() || remaining.GreaterThan(hold.OriginalPrice) {
		return layaway.Hold{}, false, fmt.Errorf("%w: %s not within 0 and %s",
			ErrInvalidBalance, remaining, hold.OriginalPrice)
	}

	now := s.engine.clock()
	paidBefore := hold.AmountPaid
	hold = hold.WithRemaining(remaining, now)

	entry := newEntry(now, hold.Key(), hold.ItemCode, hold.AmountPaid.Subtract(paidBefore), sale.NoDiscountLabel)
	entry.Action = auditlog.ActionLayawayBalanceEdited
	entries := []auditlog.Entry{entry}

	var errs MultiError
	finalized := hold.Completed()
	if finalized {
		committed := s.committedInventory()
		next, done := s.finalizeHold(committed, hold, now)
		if done != nil {
			entries = append(entries, *done)
			if live, rec, ok := s.inventory.Adjust(hold.Key(), -1); ok {
				s.inventory = live.Put(rec.Annotated(inventory.ChangeLayawayCompleted, now))
			}
			if err := s.engine.store.SaveInventory(ctx, next); err != nil {
				errs.Add(s.engine.persistFailed(ctx, "save_inventory", err))
			}
		}
		s.layaways = s.layaways.Without(hold.ID)
	} else {
		s.layaways = s.layaways.With(hold)
	}

	if err := s.engine.store.SaveLayaways(ctx, s.layaways); err != nil {
		errs.Add(s.engine.persistFailed(ctx, "save_layaways", err))
	}
	for _, e := range entries {
		errs.Add(s.engine.appendLog(ctx, e))
	}

	s.engine.logger.Info("layaway balance edited",
		"hold_id", hold.ID.String(),
		"remaining", remaining.String(),
		"finalized", finalized,
	)
	return hold, finalized, errs.ErrOrNil()
}

// CancelLayaway deletes a hold without touching inventory.
func (s *Session) CancelLayaway(ctx context.Context, holdID id.LayawayID) (layaway.Hold, error) {
	var (
		hold layaway.Hold
		err  error
	)
	func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		hold, err = s.cancelLayaway(ctx, holdID)
	}()
	if hold.ID.IsNil() {
		return hold, err
	}

	s.engine.plugins.EmitLayawayCanceled(ctx, hold)
	return hold, err
}

func (s *Session) cancelLayaway(ctx context.Context, holdID id.LayawayID) (layaway.Hold, error) {
	if err := s.checkNotPending(holdID); err != nil {
		return layaway.Hold{}, err
	}
	hold, ok := s.layaways.Find(holdID)
	if !ok {
		return layaway.Hold{}, fmt.Errorf("%w: %s", ErrHoldNotFound, holdID)
	}

	s.layaways = s.layaways.Without(holdID)

	entry := newEntry(s.engine.clock(), hold.Key(), hold.ItemCode, types.Zero(hold.OriginalPrice.Currency), sale.NoDiscountLabel)
	entry.Action = auditlog.ActionLayawayCanceled

	var errs MultiError
	if err := s.engine.store.SaveLayaways(ctx, s.layaways); err != nil {
		errs.Add(s.engine.persistFailed(ctx, "save_layaways", err))
	}
	errs.Add(s.engine.appendLog(ctx, entry))

	s.engine.logger.Info("layaway canceled", "hold_id", holdID.String(), "paid", hold.AmountPaid.String())
	return hold, errs.ErrOrNil()
}

// checkNotPending rejects manual edits to a hold the pending sale pays into.
func (s *Session) checkNotPending(holdID id.LayawayID) error {
	for _, l := range s.lines {
		if hid, ok := sale.HoldOf(l); ok && hid == holdID {
			return fmt.Errorf("%w: %s", ErrHoldPending, holdID)
		}
	}
	return nil
}

// MenuChange is the kind of edit ApplyMenuChange records.
type MenuChange string

const (
	MenuAdded   MenuChange = auditlog.ActionMenuItemAdded
	MenuUpdated MenuChange = auditlog.ActionMenuItemUpdated
	MenuRemoved MenuChange = auditlog.ActionMenuItemRemoved
)

// ApplyMenuChange adds, replaces or removes a menu item, saves the menu and
// logs the change.
func (s *Session) ApplyMenuChange(ctx context.Context, change MenuChange, item catalog.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := item.Key()
	if !key.Valid() {
		return s.missingItem(key, "incomplete menu key")
	}

	switch change {
	case MenuAdded, MenuUpdated:
		if item.ItemCode == "" {
			return s.missingItem(key, "no item code")
		}
		if item.Price.IsNegative() {
			return fmt.Errorf("%w: negative menu price %s", ErrInvalidAmount, item.Price)
		}
		s.catalog = s.catalog.With(item)
	case MenuRemoved:
		existing, ok := s.catalog.Lookup(key)
		if !ok {
			return fmt.Errorf("%w: menu item %s", ErrNotFound, key)
		}
		item = existing
		s.catalog = s.catalog.Without(key)
	default:
		return ValidationError{Field: "change", Message: fmt.Sprintf("unknown menu change %q", change)}
	}

	entry := newEntry(s.engine.clock(), key, item.ItemCode, item.Price, sale.NoDiscountLabel)
	entry.Action = string(change)

	var errs MultiError
	if err := s.engine.store.SaveCatalog(ctx, s.catalog); err != nil {
		errs.Add(s.engine.persistFailed(ctx, "save_catalog", err))
	}
	errs.Add(s.engine.appendLog(ctx, entry))
	return errs.ErrOrNil()
}
