package sale

import (
	"time"

	"github.com/xraph/till/auditlog"
	"github.com/xraph/till/layaway"
	"github.com/xraph/till/types"
)

// Receipt summarizes a completed sale.
type Receipt struct {
	Total       types.Money      `json:"total"`
	Lines       []Line           `json:"-"`
	Entries     []auditlog.Entry `json:"entries"`
	Finalized   []layaway.Hold   `json:"finalized"`
	CompletedAt time.Time        `json:"completed_at"`
}

// FinalizedNotices returns one user-facing line per paid-off hold.
func (r *Receipt) FinalizedNotices() []string {
	out := make([]string, 0, len(r.Finalized))
	for _, h := range r.Finalized {
		who := h.Customer.Name
		if who == "" {
			who = "customer"
		}
		out = append(out, "Layaway for "+h.Item+" ("+who+") is paid in full")
	}
	return out
}
