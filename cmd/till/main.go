// Command till runs register operations against a till store from the
// command line: stock and menu maintenance, layaway management, the daily
// log, the time clock and one-shot sales.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/xraph/till"
	"github.com/xraph/till/extension"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "till:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "till",
		Usage: "point-of-sale ledger, layaways and time clock",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file", EnvVars: []string{"TILL_CONFIG"}},
			&cli.StringFlag{Name: "driver", Usage: "store driver: memory, file, sqlite, postgres, mongo", EnvVars: []string{"TILL_DRIVER"}},
			&cli.StringFlag{Name: "dsn", Usage: "store connection string", EnvVars: []string{"TILL_DSN"}},
			&cli.StringFlag{Name: "data-dir", Usage: "data directory for the file driver", EnvVars: []string{"TILL_DATA_DIR"}},
			&cli.StringFlag{Name: "currency", Usage: "register currency", EnvVars: []string{"TILL_CURRENCY"}},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "debug logging"},
		},
		Commands: []*cli.Command{
			inventoryCommand(),
			catalogCommand(),
			layawayCommand(),
			logCommand(),
			punchCommand(),
			payrollCommand(),
			sellCommand(),
		},
	}
}

// fileConfig is the YAML layout: either the extension fields at the top
// level or nested under "till".
type fileConfig struct {
	extension.Config `yaml:",inline"`

	Till *extension.Config `yaml:"till"`
}

// loadConfig reads the config file named by --config, then applies flag
// overrides and defaults.
func loadConfig(c *cli.Context) (extension.Config, error) {
	var cfg extension.Config

	if path := c.String("config"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg = fc.Config
		if fc.Till != nil {
			cfg = *fc.Till
		}
	}

	if v := c.String("driver"); v != "" {
		cfg.StoreDriver = v
	}
	if v := c.String("dsn"); v != "" {
		cfg.DSN = v
	}
	if v := c.String("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if v := c.String("currency"); v != "" {
		cfg.Currency = v
	}

	// Memory would lose everything on exit.
	if cfg.StoreDriver == "" {
		cfg.StoreDriver = extension.DriverFile
	}
	return cfg.WithDefaults(), nil
}

func newLogger(c *cli.Context) *slog.Logger {
	level := slog.LevelWarn
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// withEngine opens the configured store, starts an engine over it and
// runs fn. The engine is stopped afterwards.
func withEngine(c *cli.Context, fn func(ctx context.Context, eng *till.Engine) error, opts ...till.Option) (err error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	ctx := c.Context

	s, err := extension.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}

	rate, err := decimal.NewFromString(cfg.DownPaymentRate)
	if err != nil {
		_ = s.Close()
		return fmt.Errorf("invalid down_payment_rate %q: %w", cfg.DownPaymentRate, err)
	}

	base := []till.Option{
		till.WithLogger(newLogger(c)),
		till.WithCurrency(cfg.Currency),
		till.WithDownPaymentRate(rate),
	}
	if cfg.DisableMigrate {
		base = append(base, till.WithoutMigrate())
	}
	eng := till.New(s, append(base, opts...)...)
	if err := eng.Start(ctx); err != nil {
		_ = s.Close()
		return err
	}
	defer func() {
		if stopErr := eng.Stop(); err == nil {
			err = stopErr
		}
	}()

	return fn(ctx, eng)
}
