package till

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/till/auditlog"
	"github.com/xraph/till/id"
	"github.com/xraph/till/inventory"
	"github.com/xraph/till/layaway"
	"github.com/xraph/till/payroll"
	"github.com/xraph/till/plugin"
	"github.com/xraph/till/store"
)

// DefaultCurrency is used when no currency option is given.
const DefaultCurrency = "usd"

// StockConfirmer is asked before a tracked item with no stock on hand is
// sold. Returning false aborts the add.
type StockConfirmer func(ctx context.Context, rec inventory.Record) bool

// Engine owns the store, the plugin registry and the single pending sale
// session of a register.
type Engine struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger

	// Configuration
	clock           func() time.Time
	currency        string
	downPaymentRate decimal.Decimal
	confirmStock    StockConfirmer
	skipMigrate     bool

	mu      sync.Mutex
	session *Session
}

// New creates a new Engine over s.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:           s,
		plugins:         plugin.NewRegistry(),
		logger:          slog.Default(),
		clock:           time.Now,
		currency:        DefaultCurrency,
		downPaymentRate: layaway.DefaultDownPaymentRate,
		confirmStock:    func(context.Context, inventory.Record) bool { return true },
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.plugins.WithTimeout(d)
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithCurrency sets the ISO currency code prices are parsed in.
func WithCurrency(currency string) Option {
	return func(e *Engine) {
		if currency != "" {
			e.currency = strings.ToLower(currency)
		}
	}
}

// WithDownPaymentRate sets the share of the original price taken as a
// layaway down payment.
func WithDownPaymentRate(rate decimal.Decimal) Option {
	return func(e *Engine) {
		if rate.IsPositive() && rate.LessThanOrEqual(decimal.NewFromInt(1)) {
			e.downPaymentRate = rate
		}
	}
}

// WithStockConfirmer sets the out-of-stock confirmation callback. The
// default confirms every sale.
func WithStockConfirmer(fn StockConfirmer) Option {
	return func(e *Engine) {
		if fn != nil {
			e.confirmStock = fn
		}
	}
}

// WithoutMigrate makes Start skip Store.Migrate, for schemas managed
// elsewhere.
func WithoutMigrate() Option {
	return func(e *Engine) { e.skipMigrate = true }
}

// Start migrates the store, loads the inventory, layaway and catalog
// snapshots and opens the pending sale session.
func (e *Engine) Start(ctx context.Context) error {
	if !e.skipMigrate {
		if err := e.store.Migrate(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrMigrationFailed, err)
		}
	}

	sess, err := e.loadSession(ctx)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.session = sess
	e.mu.Unlock()

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("till started",
		"currency", e.currency,
		"down_payment_rate", e.downPaymentRate.String(),
		"inventory_records", sess.inventory.Len(),
		"layaways", sess.layaways.Len(),
		"menu_items", sess.catalog.Len(),
	)

	return nil
}

// Stop cancels any pending sale, then closes the store.
func (e *Engine) Stop() error {
	ctx := context.Background()

	e.mu.Lock()
	sess := e.session
	e.session = nil
	e.mu.Unlock()

	if sess != nil && sess.Len() > 0 {
		e.logger.Warn("stopping with a pending sale, canceling it", "lines", sess.Len())
		if err := sess.CancelSale(ctx); err != nil {
			e.logger.Error("cancel pending sale on stop", "error", err)
		}
	}

	e.plugins.EmitShutdown(ctx)

	return e.store.Close()
}

// Session returns the pending sale session. It fails before Start.
func (e *Engine) Session() (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return nil, ErrNotStarted
	}
	return e.session, nil
}

// Store returns the underlying store.
func (e *Engine) Store() store.Store { return e.store }

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger { return e.logger }

// Currency returns the configured currency code.
func (e *Engine) Currency() string { return e.currency }

// DownPaymentRate returns the configured layaway down payment rate.
func (e *Engine) DownPaymentRate() decimal.Decimal { return e.downPaymentRate }

// Flush writes the session's committed inventory and layaway snapshots
// back to the store. Use it after an operation returned a persistence
// error.
func (e *Engine) Flush(ctx context.Context) error {
	sess, err := e.Session()
	if err != nil {
		return err
	}
	return sess.flush(ctx)
}

// ReadLog returns the audit entries recorded on day.
func (e *Engine) ReadLog(ctx context.Context, day time.Time) ([]auditlog.Entry, error) {
	return e.store.ReadLog(ctx, day)
}

// RecordPunch stores a time clock event for worker stamped with the
// engine clock.
func (e *Engine) RecordPunch(ctx context.Context, worker string, dir payroll.Direction) (payroll.Punch, error) {
	worker = strings.TrimSpace(worker)
	if worker == "" {
		return payroll.Punch{}, ValidationError{Field: "worker", Message: "must not be empty"}
	}
	if !dir.Valid() {
		return payroll.Punch{}, ValidationError{Field: "direction", Message: fmt.Sprintf("unknown direction %q", dir)}
	}

	p := payroll.Punch{
		ID:        id.NewPunchID(),
		Worker:    worker,
		Direction: dir,
		At:        e.clock(),
	}
	if err := e.store.RecordPunch(ctx, p); err != nil {
		return payroll.Punch{}, e.persistFailed(ctx, "record_punch", err)
	}

	e.plugins.EmitPunchRecorded(ctx, p)
	return p, nil
}

// PayrollReport computes worked hours for the current and previous pay
// periods.
func (e *Engine) PayrollReport(ctx context.Context) (payroll.Report, error) {
	now := e.clock()
	current, previous := payroll.Periods(now)

	punches, err := e.store.ListPunches(ctx, previous.Start, current.End)
	if err != nil {
		return payroll.Report{}, err
	}
	return payroll.BuildReport(now, punches), nil
}

func (e *Engine) loadSession(ctx context.Context) (*Session, error) {
	inv, err := e.store.LoadInventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("till: load inventory: %w", err)
	}
	holds, err := e.store.LoadLayaways(ctx)
	if err != nil {
		return nil, fmt.Errorf("till: load layaways: %w", err)
	}
	menu, err := e.store.LoadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("till: load catalog: %w", err)
	}
	return newSession(e, inv, holds, menu), nil
}

// appendLog writes entry to the audit log. Malformed entries are dropped
// with a warning and never fail the caller.
func (e *Engine) appendLog(ctx context.Context, entry auditlog.Entry) error {
	if missing := entry.Missing(); len(missing) > 0 {
		e.logger.Warn("dropping malformed log entry",
			"action", entry.Action,
			"missing", missing,
		)
		e.plugins.EmitLogEntryDropped(ctx, entry, missing)
		return nil
	}

	if err := e.store.AppendLog(ctx, entry); err != nil {
		return e.persistFailed(ctx, "append_log", err)
	}
	return nil
}

func (e *Engine) persistFailed(ctx context.Context, op string, err error) error {
	e.logger.Error("persistence failed", "op", op, "error", err)
	e.plugins.EmitPersistenceFailed(ctx, op, err)
	return &persistenceError{Op: op, Err: err}
}
