package extension

import (
	"github.com/xraph/till"
	audithook "github.com/xraph/till/audit_hook"
	"github.com/xraph/till/plugin"
	"github.com/xraph/till/store"
)

// Option configures the till Forge extension.
type Option func(*Extension)

// WithStore sets the store for the till engine, bypassing StoreDriver.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithTillOption passes a till.Option through to the underlying engine.
func WithTillOption(opt till.Option) Option {
	return func(e *Extension) {
		e.tillOpts = append(e.tillOpts, opt)
	}
}

// WithPlugin registers a till plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.tillOpts = append(e.tillOpts, till.WithPlugin(p))
	}
}

// WithAuditRecorder sends engine events to r through the audit hook.
func WithAuditRecorder(r audithook.Recorder) Option {
	return func(e *Extension) { e.recorder = r }
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithStoreDriver selects the store backend and its connection string.
func WithStoreDriver(driver, dsn string) Option {
	return func(e *Extension) {
		e.config.StoreDriver = driver
		e.config.DSN = dsn
	}
}

// WithDataDir sets the directory used by the file driver.
func WithDataDir(dir string) Option {
	return func(e *Extension) { e.config.DataDir = dir }
}

// WithCurrency sets the register currency.
func WithCurrency(currency string) Option {
	return func(e *Extension) { e.config.Currency = currency }
}

// WithDownPaymentRate sets the layaway down payment share, e.g. "0.25".
func WithDownPaymentRate(rate string) Option {
	return func(e *Extension) { e.config.DownPaymentRate = rate }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithDisableMetrics skips the metrics plugin.
func WithDisableMetrics() Option {
	return func(e *Extension) { e.config.DisableMetrics = true }
}

// WithDisableAudit skips the audit hook.
func WithDisableAudit() Option {
	return func(e *Extension) { e.config.DisableAudit = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
