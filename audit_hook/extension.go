// Package audithook bridges till events to an external audit trail.
//
// The business log written by the engine (package auditlog) records what
// was sold. This package records who-did-what events for a separate audit
// backend through a local Recorder interface, so callers can plug in any
// sink without till importing it.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xraph/till/auditlog"
	"github.com/xraph/till/inventory"
	"github.com/xraph/till/layaway"
	"github.com/xraph/till/payroll"
	"github.com/xraph/till/plugin"
	"github.com/xraph/till/sale"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin              = (*Extension)(nil)
	_ plugin.OnSaleCompleted     = (*Extension)(nil)
	_ plugin.OnSaleCanceled      = (*Extension)(nil)
	_ plugin.OnLayawayOpened     = (*Extension)(nil)
	_ plugin.OnLayawayCompleted  = (*Extension)(nil)
	_ plugin.OnLayawayCanceled   = (*Extension)(nil)
	_ plugin.OnInventoryAdjusted = (*Extension)(nil)
	_ plugin.OnLogEntryDropped   = (*Extension)(nil)
	_ plugin.OnPersistenceFailed = (*Extension)(nil)
	_ plugin.OnPunchRecorded     = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is one audit trail record.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges till events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Sale hooks
// ──────────────────────────────────────────────────

// OnSaleCompleted implements plugin.OnSaleCompleted.
func (e *Extension) OnSaleCompleted(ctx context.Context, r *sale.Receipt) error {
	return e.record(ctx, ActionSaleCompleted, SeverityInfo, OutcomeSuccess,
		ResourceSale, "", CategorySales, nil,
		"total", r.Total.String(),
		"lines", len(r.Lines),
		"entries", len(r.Entries),
		"finalized_layaways", len(r.Finalized),
	)
}

// OnSaleCanceled implements plugin.OnSaleCanceled.
func (e *Extension) OnSaleCanceled(ctx context.Context, lines []sale.Line) error {
	return e.record(ctx, ActionSaleCanceled, SeverityInfo, OutcomeSuccess,
		ResourceSale, "", CategorySales, nil,
		"lines", len(lines),
		"total", sale.Total(lines).String(),
	)
}

// ──────────────────────────────────────────────────
// Layaway hooks
// ──────────────────────────────────────────────────

// OnLayawayOpened implements plugin.OnLayawayOpened.
func (e *Extension) OnLayawayOpened(ctx context.Context, h layaway.Hold) error {
	return e.recordHold(ctx, ActionLayawayOpened, SeverityInfo, h)
}

// OnLayawayCompleted implements plugin.OnLayawayCompleted.
func (e *Extension) OnLayawayCompleted(ctx context.Context, h layaway.Hold) error {
	return e.recordHold(ctx, ActionLayawayCompleted, SeverityInfo, h)
}

// OnLayawayCanceled implements plugin.OnLayawayCanceled.
func (e *Extension) OnLayawayCanceled(ctx context.Context, h layaway.Hold) error {
	return e.recordHold(ctx, ActionLayawayCanceled, SeverityWarning, h)
}

func (e *Extension) recordHold(ctx context.Context, action, severity string, h layaway.Hold) error {
	return e.record(ctx, action, severity, OutcomeSuccess,
		ResourceLayaway, h.ID.String(), CategoryLayaway, nil,
		"item", h.Key().String(),
		"customer", h.Customer.Name,
		"original_price", h.OriginalPrice.String(),
		"amount_paid", h.AmountPaid.String(),
		"remaining_balance", h.RemainingBalance.String(),
	)
}

// ──────────────────────────────────────────────────
// Inventory and store hooks
// ──────────────────────────────────────────────────

// OnInventoryAdjusted implements plugin.OnInventoryAdjusted.
func (e *Extension) OnInventoryAdjusted(ctx context.Context, before, after inventory.Record) error {
	return e.record(ctx, ActionInventoryAdjusted, SeverityInfo, OutcomeSuccess,
		ResourceInventory, after.Key().String(), CategoryInventory, nil,
		"item_code", after.ItemCode,
		"before", before.Quantity,
		"after", after.Quantity,
	)
}

// OnLogEntryDropped implements plugin.OnLogEntryDropped.
func (e *Extension) OnLogEntryDropped(ctx context.Context, entry auditlog.Entry, missing []string) error {
	return e.record(ctx, ActionLogEntryDropped, SeverityError, OutcomeFailure,
		ResourceLog, entry.ID.String(), CategoryIntegrity,
		fmt.Errorf("missing %s", strings.Join(missing, ", ")),
		"log_action", entry.Action,
	)
}

// OnPersistenceFailed implements plugin.OnPersistenceFailed.
func (e *Extension) OnPersistenceFailed(ctx context.Context, op string, err error) error {
	return e.record(ctx, ActionPersistenceFailed, SeverityCritical, OutcomeFailure,
		ResourceStore, op, CategoryIntegrity, err,
		"op", op,
	)
}

// ──────────────────────────────────────────────────
// Payroll hooks
// ──────────────────────────────────────────────────

// OnPunchRecorded implements plugin.OnPunchRecorded.
func (e *Extension) OnPunchRecorded(ctx context.Context, p payroll.Punch) error {
	return e.record(ctx, ActionPunchRecorded, SeverityInfo, OutcomeSuccess,
		ResourcePunch, p.ID.String(), CategoryPayroll, nil,
		"worker", p.Worker,
		"direction", string(p.Direction),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
