// Package extension provides the Forge extension adapter for till.
//
// It implements the forge.Extension interface to integrate a till register
// into a Forge application with store selection, DI registration and
// lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.till" or "till" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/till"
	audithook "github.com/xraph/till/audit_hook"
	"github.com/xraph/till/observability"
	"github.com/xraph/till/store"
	"github.com/xraph/till/store/file"
	"github.com/xraph/till/store/memory"
	"github.com/xraph/till/store/mongo"
	"github.com/xraph/till/store/postgres"
	"github.com/xraph/till/store/sqlite"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "till"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Point-of-sale ledger with inventory, layaways and payroll"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts till as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config   Config
	engine   *till.Engine
	store    store.Store
	recorder audithook.Recorder
	tillOpts []till.Option
}

// New creates a new till Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying till engine.
// This is nil until Register is called.
func (e *Extension) Engine() *till.Engine { return e.engine }

// Config returns the resolved configuration.
func (e *Extension) Config() Config { return e.config }

// Register implements [forge.Extension]. It loads configuration, opens the
// configured store, builds the engine and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if e.store == nil {
		s, err := OpenStore(context.Background(), e.config)
		if err != nil {
			return err
		}
		e.store = s
	}

	opts, err := e.buildTillOpts()
	if err != nil {
		return err
	}
	e.engine = till.New(e.store, opts...)

	return vessel.Provide(fapp.Container(), func() (*till.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("till: extension not initialized")
	}
	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("till: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildTillOpts constructs till.Option values from the resolved config.
func (e *Extension) buildTillOpts() ([]till.Option, error) {
	opts := make([]till.Option, 0, len(e.tillOpts)+5)

	opts = append(opts, till.WithCurrency(e.config.Currency))

	rate, err := decimal.NewFromString(e.config.DownPaymentRate)
	if err != nil {
		return nil, fmt.Errorf("till: invalid down_payment_rate %q: %w", e.config.DownPaymentRate, err)
	}
	if !rate.IsPositive() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("till: down_payment_rate %s must be in (0, 1]", rate)
	}
	opts = append(opts, till.WithDownPaymentRate(rate))

	if e.config.DisableMigrate {
		opts = append(opts, till.WithoutMigrate())
	}
	if !e.config.DisableMetrics && e.Metrics() != nil {
		opts = append(opts, till.WithPlugin(observability.NewMetricsExtension(e.Metrics())))
	}
	if !e.config.DisableAudit && e.recorder != nil {
		opts = append(opts, till.WithPlugin(audithook.New(e.recorder)))
	}

	// Append any pass-through till options.
	opts = append(opts, e.tillOpts...)

	return opts, nil
}

// OpenStore builds the backend named by cfg.StoreDriver. The store is not
// migrated; Engine.Start does that.
func OpenStore(ctx context.Context, cfg Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case "", DriverMemory:
		return memory.New(), nil
	case DriverFile:
		return file.New(cfg.DataDir, file.WithCurrency(cfg.Currency)), nil
	case DriverSQLite:
		if cfg.DSN == "" {
			return nil, errors.New("till: sqlite driver needs a dsn (database file path)")
		}
		return sqlite.Open(ctx, cfg.DSN)
	case DriverPostgres:
		if cfg.DSN == "" {
			return nil, errors.New("till: postgres driver needs a dsn")
		}
		return postgres.Open(ctx, cfg.DSN)
	case DriverMongo:
		if cfg.DSN == "" {
			return nil, errors.New("till: mongo driver needs a dsn")
		}
		return mongo.Open(ctx, cfg.DSN, cfg.Database)
	default:
		return nil, fmt.Errorf("till: unknown store driver %q", cfg.StoreDriver)
	}
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("till: configuration is required but not found in config files; " +
				"ensure 'extensions.till' or 'till' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = programmaticConfig.WithDefaults()
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("till: configuration loaded",
		forge.F("store_driver", e.config.StoreDriver),
		forge.F("data_dir", e.config.DataDir),
		forge.F("currency", e.config.Currency),
		forge.F("down_payment_rate", e.config.DownPaymentRate),
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("disable_metrics", e.config.DisableMetrics),
		forge.F("disable_audit", e.config.DisableAudit),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.till" first (namespaced pattern).
	if cm.IsSet("extensions.till") {
		if err := cm.Bind("extensions.till", &cfg); err == nil {
			e.Logger().Debug("till: loaded config from file",
				forge.F("key", "extensions.till"),
			)
			return cfg, true
		}
		e.Logger().Warn("till: failed to bind extensions.till config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "till" key.
	if cm.IsSet("till") {
		if err := cm.Bind("till", &cfg); err == nil {
			e.Logger().Debug("till: loaded config from file",
				forge.F("key", "till"),
			)
			return cfg, true
		}
		e.Logger().Warn("till: failed to bind till config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.DisableMetrics {
		yamlConfig.DisableMetrics = true
	}
	if programmaticConfig.DisableAudit {
		yamlConfig.DisableAudit = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.StoreDriver == "" {
		yamlConfig.StoreDriver = programmaticConfig.StoreDriver
	}
	if yamlConfig.DSN == "" {
		yamlConfig.DSN = programmaticConfig.DSN
	}
	if yamlConfig.Database == "" {
		yamlConfig.Database = programmaticConfig.Database
	}
	if yamlConfig.DataDir == "" {
		yamlConfig.DataDir = programmaticConfig.DataDir
	}
	if yamlConfig.Currency == "" {
		yamlConfig.Currency = programmaticConfig.Currency
	}
	if yamlConfig.DownPaymentRate == "" {
		yamlConfig.DownPaymentRate = programmaticConfig.DownPaymentRate
	}

	// Fill remaining zeros with defaults.
	return yamlConfig.WithDefaults()
}
