package layaway

import (
	"context"

	"github.com/xraph/till/id"
)

// List is an immutable, ordered collection of open holds.
type List struct {
	holds []Hold
}

// NewList builds a list from holds, copying the slice.
func NewList(holds ...Hold) List {
	out := make([]Hold, len(holds))
	copy(out, holds)
	return List{holds: out}
}

// Holds returns a copy of the holds in order.
func (l List) Holds() []Hold {
	out := make([]Hold, len(l.holds))
	copy(out, l.holds)
	return out
}

// Len returns the number of holds.
func (l List) Len() int { return len(l.holds) }

// Find returns the hold with holdID.
func (l List) Find(holdID id.LayawayID) (Hold, bool) {
	for _, h := range l.holds {
		if h.ID == holdID {
			return h, true
		}
	}
	return Hold{}, false
}

// With returns a list where h replaces the hold with the same ID, or is
// appended if none exists.
func (l List) With(h Hold) List {
	out := make([]Hold, 0, len(l.holds)+1)
	replaced := false
	for _, existing := range l.holds {
		if existing.ID == h.ID {
			out = append(out, h)
			replaced = true
			continue
		}
		out = append(out, existing)
	}
	if !replaced {
		out = append(out, h)
	}
	return List{holds: out}
}

// Without returns a list with holdID removed.
func (l List) Without(holdID id.LayawayID) List {
	out := make([]Hold, 0, len(l.holds))
	for _, h := range l.holds {
		if h.ID != holdID {
			out = append(out, h)
		}
	}
	return List{holds: out}
}

// Equal reports whether both lists hold the same holds in the same order.
func (l List) Equal(o List) bool {
	if len(l.holds) != len(o.holds) {
		return false
	}
	for i := range l.holds {
		a, b := l.holds[i], o.holds[i]
		if a.ID != b.ID ||
			!a.AmountPaid.Equal(b.AmountPaid) ||
			!a.RemainingBalance.Equal(b.RemainingBalance) ||
			!a.OriginalPrice.Equal(b.OriginalPrice) {
			return false
		}
	}
	return true
}

// Store persists the full hold list. Saves always replace the collection.
type Store interface {
	LoadLayaways(ctx context.Context) (List, error)
	SaveLayaways(ctx context.Context, holds List) error
}
