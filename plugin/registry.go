package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/till/auditlog"
	"github.com/xraph/till/inventory"
	"github.com/xraph/till/layaway"
	"github.com/xraph/till/payroll"
	"github.com/xraph/till/sale"
)

// DefaultTimeout bounds a single plugin call.
const DefaultTimeout = 5 * time.Second

// Registry manages registered plugins and caches them per hook interface
// so dispatch never type-asserts on the hot path.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists
	onInit              []OnInit
	onShutdown          []OnShutdown
	onLineAdded         []OnLineAdded
	onLineRemoved       []OnLineRemoved
	onSaleCompleted     []OnSaleCompleted
	onSaleCanceled      []OnSaleCanceled
	onLayawayOpened     []OnLayawayOpened
	onLayawayCompleted  []OnLayawayCompleted
	onLayawayCanceled   []OnLayawayCanceled
	onInventoryAdjusted []OnInventoryAdjusted
	onLogEntryDropped   []OnLogEntryDropped
	onPersistenceFailed []OnPersistenceFailed
	onPunchRecorded     []OnPunchRecorded
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-call plugin timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	r.timeout = d
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnLineAdded); ok {
		r.onLineAdded = append(r.onLineAdded, v)
	}
	if v, ok := p.(OnLineRemoved); ok {
		r.onLineRemoved = append(r.onLineRemoved, v)
	}
	if v, ok := p.(OnSaleCompleted); ok {
		r.onSaleCompleted = append(r.onSaleCompleted, v)
	}
	if v, ok := p.(OnSaleCanceled); ok {
		r.onSaleCanceled = append(r.onSaleCanceled, v)
	}
	if v, ok := p.(OnLayawayOpened); ok {
		r.onLayawayOpened = append(r.onLayawayOpened, v)
	}
	if v, ok := p.(OnLayawayCompleted); ok {
		r.onLayawayCompleted = append(r.onLayawayCompleted, v)
	}
	if v, ok := p.(OnLayawayCanceled); ok {
		r.onLayawayCanceled = append(r.onLayawayCanceled, v)
	}
	if v, ok := p.(OnInventoryAdjusted); ok {
		r.onInventoryAdjusted = append(r.onInventoryAdjusted, v)
	}
	if v, ok := p.(OnLogEntryDropped); ok {
		r.onLogEntryDropped = append(r.onLogEntryDropped, v)
	}
	if v, ok := p.(OnPersistenceFailed); ok {
		r.onPersistenceFailed = append(r.onPersistenceFailed, v)
	}
	if v, ok := p.(OnPunchRecorded); ok {
		r.onPunchRecorded = append(r.onPunchRecorded, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedHooks(p),
	)

	return nil
}

// implementedHooks lists the hook interfaces p implements.
func implementedHooks(p Plugin) []string {
	var hooks []string
	v := reflect.TypeOf(p)

	check := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			hooks = append(hooks, name)
		}
	}

	check(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	check(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	check(reflect.TypeOf((*OnLineAdded)(nil)).Elem(), "OnLineAdded")
	check(reflect.TypeOf((*OnLineRemoved)(nil)).Elem(), "OnLineRemoved")
	check(reflect.TypeOf((*OnSaleCompleted)(nil)).Elem(), "OnSaleCompleted")
	check(reflect.TypeOf((*OnSaleCanceled)(nil)).Elem(), "OnSaleCanceled")
	check(reflect.TypeOf((*OnLayawayOpened)(nil)).Elem(), "OnLayawayOpened")
	check(reflect.TypeOf((*OnLayawayCompleted)(nil)).Elem(), "OnLayawayCompleted")
	check(reflect.TypeOf((*OnLayawayCanceled)(nil)).Elem(), "OnLayawayCanceled")
	check(reflect.TypeOf((*OnInventoryAdjusted)(nil)).Elem(), "OnInventoryAdjusted")
	check(reflect.TypeOf((*OnLogEntryDropped)(nil)).Elem(), "OnLogEntryDropped")
	check(reflect.TypeOf((*OnPersistenceFailed)(nil)).Elem(), "OnPersistenceFailed")
	check(reflect.TypeOf((*OnPunchRecorded)(nil)).Elem(), "OnPunchRecorded")

	return hooks
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitLineAdded notifies plugins that implement OnLineAdded.
func (r *Registry) EmitLineAdded(ctx context.Context, line sale.Line) {
	r.mu.RLock()
	plugins := r.onLineAdded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnLineAdded(ctx, line)
		}); err != nil {
			r.logger.Warn("plugin OnLineAdded failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitLineRemoved notifies plugins that implement OnLineRemoved.
func (r *Registry) EmitLineRemoved(ctx context.Context, line sale.Line) {
	r.mu.RLock()
	plugins := r.onLineRemoved
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnLineRemoved(ctx, line)
		}); err != nil {
			r.logger.Warn("plugin OnLineRemoved failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitSaleCompleted notifies plugins that implement OnSaleCompleted.
func (r *Registry) EmitSaleCompleted(ctx context.Context, receipt *sale.Receipt) {
	r.mu.RLock()
	plugins := r.onSaleCompleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSaleCompleted(ctx, receipt)
		}); err != nil {
			r.logger.Warn("plugin OnSaleCompleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitSaleCanceled notifies plugins that implement OnSaleCanceled.
func (r *Registry) EmitSaleCanceled(ctx context.Context, lines []sale.Line) {
	r.mu.RLock()
	plugins := r.onSaleCanceled
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSaleCanceled(ctx, lines)
		}); err != nil {
			r.logger.Warn("plugin OnSaleCanceled failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitLayawayOpened notifies plugins that implement OnLayawayOpened.
func (r *Registry) EmitLayawayOpened(ctx context.Context, hold layaway.Hold) {
	r.mu.RLock()
	plugins := r.onLayawayOpened
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnLayawayOpened(ctx, hold)
		}); err != nil {
			r.logger.Warn("plugin OnLayawayOpened failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitLayawayCompleted notifies plugins that implement OnLayawayCompleted.
func (r *Registry) EmitLayawayCompleted(ctx context.Context, hold layaway.Hold) {
	r.mu.RLock()
	plugins := r.onLayawayCompleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnLayawayCompleted(ctx, hold)
		}); err != nil {
			r.logger.Warn("plugin OnLayawayCompleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitLayawayCanceled notifies plugins that implement OnLayawayCanceled.
func (r *Registry) EmitLayawayCanceled(ctx context.Context, hold layaway.Hold) {
	r.mu.RLock()
	plugins := r.onLayawayCanceled
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnLayawayCanceled(ctx, hold)
		}); err != nil {
			r.logger.Warn("plugin OnLayawayCanceled failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInventoryAdjusted notifies plugins that implement OnInventoryAdjusted.
func (r *Registry) EmitInventoryAdjusted(ctx context.Context, before, after inventory.Record) {
	r.mu.RLock()
	plugins := r.onInventoryAdjusted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInventoryAdjusted(ctx, before, after)
		}); err != nil {
			r.logger.Warn("plugin OnInventoryAdjusted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitLogEntryDropped notifies plugins that implement OnLogEntryDropped.
func (r *Registry) EmitLogEntryDropped(ctx context.Context, entry auditlog.Entry, missing []string) {
	r.mu.RLock()
	plugins := r.onLogEntryDropped
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnLogEntryDropped(ctx, entry, missing)
		}); err != nil {
			r.logger.Warn("plugin OnLogEntryDropped failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPersistenceFailed notifies plugins that implement OnPersistenceFailed.
func (r *Registry) EmitPersistenceFailed(ctx context.Context, op string, err error) {
	r.mu.RLock()
	plugins := r.onPersistenceFailed
	r.mu.RUnlock()

	for _, p := range plugins {
		if perr := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPersistenceFailed(ctx, op, err)
		}); perr != nil {
			r.logger.Warn("plugin OnPersistenceFailed failed",
				"plugin", p.Name(),
				"error", perr,
			)
		}
	}
}

// EmitPunchRecorded notifies plugins that implement OnPunchRecorded.
func (r *Registry) EmitPunchRecorded(ctx context.Context, punch payroll.Punch) {
	r.mu.RLock()
	plugins := r.onPunchRecorded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPunchRecorded(ctx, punch)
		}); err != nil {
			r.logger.Warn("plugin OnPunchRecorded failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins must not block the sale pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(r.timeout):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
