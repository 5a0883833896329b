package extension

// Store drivers accepted in Config.StoreDriver.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Config holds the till extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.till" or "till" keys).
type Config struct {
	// StoreDriver selects the backend: memory, file, sqlite, postgres or
	// mongo (default: memory). Ignored when WithStore is used.
	StoreDriver string `json:"store_driver" mapstructure:"store_driver" yaml:"store_driver"`

	// DSN is the connection string for sqlite (a file path), postgres and
	// mongo.
	DSN string `json:"dsn" mapstructure:"dsn" yaml:"dsn"`

	// Database is the MongoDB database name (default: "till").
	Database string `json:"database" mapstructure:"database" yaml:"database"`

	// DataDir is the directory used by the file driver (default: "data").
	DataDir string `json:"data_dir" mapstructure:"data_dir" yaml:"data_dir"`

	// Currency is the register currency (default: "usd").
	Currency string `json:"currency" mapstructure:"currency" yaml:"currency"`

	// DownPaymentRate is the share of the price due when a layaway is
	// opened, as a decimal string (default: "0.30").
	DownPaymentRate string `json:"down_payment_rate" mapstructure:"down_payment_rate" yaml:"down_payment_rate"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// DisableMetrics skips registering the metrics plugin.
	DisableMetrics bool `json:"disable_metrics" mapstructure:"disable_metrics" yaml:"disable_metrics"`

	// DisableAudit skips registering the audit hook even when a recorder
	// was supplied.
	DisableAudit bool `json:"disable_audit" mapstructure:"disable_audit" yaml:"disable_audit"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		StoreDriver:     DriverMemory,
		Database:        "till",
		DataDir:         "data",
		Currency:        "usd",
		DownPaymentRate: "0.30",
	}
}

// WithDefaults returns c with zero-valued fields filled from DefaultConfig.
func (c Config) WithDefaults() Config {
	defaults := DefaultConfig()
	if c.StoreDriver == "" {
		c.StoreDriver = defaults.StoreDriver
	}
	if c.Database == "" {
		c.Database = defaults.Database
	}
	if c.DataDir == "" {
		c.DataDir = defaults.DataDir
	}
	if c.Currency == "" {
		c.Currency = defaults.Currency
	}
	if c.DownPaymentRate == "" {
		c.DownPaymentRate = defaults.DownPaymentRate
	}
	return c
}
