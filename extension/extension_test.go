package extension

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/xraph/till/store/file"
	"github.com/xraph/till/store/memory"
	"github.com/xraph/till/store/sqlite"
)

func TestWithDefaults(t *testing.T) {
	got := Config{Currency: "cad"}.WithDefaults()
	want := DefaultConfig()
	want.Currency = "cad"
	if got != want {
		t.Errorf("WithDefaults() = %+v, want %+v", got, want)
	}
}

func TestMergeConfigurations(t *testing.T) {
	yaml := Config{StoreDriver: DriverSQLite, DSN: "till.db"}
	programmatic := Config{StoreDriver: DriverPostgres, Currency: "eur", DisableMetrics: true}

	got := mergeConfigurations(yaml, programmatic)

	tests := []struct {
		name      string
		got, want any
	}{
		{"yaml driver wins", got.StoreDriver, DriverSQLite},
		{"yaml dsn kept", got.DSN, "till.db"},
		{"programmatic fills currency", got.Currency, "eur"},
		{"programmatic flag", got.DisableMetrics, true},
		{"default rate", got.DownPaymentRate, "0.30"},
		{"default data dir", got.DataDir, "data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		s, err := OpenStore(ctx, Config{StoreDriver: DriverMemory})
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := s.(*memory.Store); !ok {
			t.Errorf("OpenStore() = %T, want *memory.Store", s)
		}
	})

	t.Run("file", func(t *testing.T) {
		dir := t.TempDir()
		s, err := OpenStore(ctx, Config{StoreDriver: DriverFile, DataDir: dir})
		if err != nil {
			t.Fatal(err)
		}
		fs, ok := s.(*file.Store)
		if !ok || fs.Dir() != dir {
			t.Errorf("OpenStore() = %T, want *file.Store at %s", s, dir)
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		s, err := OpenStore(ctx, Config{StoreDriver: DriverSQLite, DSN: filepath.Join(t.TempDir(), "till.db")})
		if err != nil {
			t.Fatal(err)
		}
		defer s.Close()
		if _, ok := s.(*sqlite.Store); !ok {
			t.Errorf("OpenStore() = %T, want *sqlite.Store", s)
		}
	})

	for _, cfg := range []Config{
		{StoreDriver: DriverSQLite},
		{StoreDriver: DriverPostgres},
		{StoreDriver: DriverMongo},
		{StoreDriver: "redis"},
	} {
		t.Run("rejects "+cfg.StoreDriver, func(t *testing.T) {
			if _, err := OpenStore(ctx, cfg); err == nil {
				t.Errorf("OpenStore(%+v) error = nil", cfg)
			}
		})
	}
}

func TestBuildTillOpts(t *testing.T) {
	tests := []struct {
		rate    string
		wantErr bool
	}{
		{"0.30", false},
		{"1", false},
		{"0", true},
		{"1.5", true},
		{"thirty", true},
	}
	for _, tt := range tests {
		t.Run(tt.rate, func(t *testing.T) {
			e := New(WithDisableMetrics())
			e.config = e.config.WithDefaults()
			e.config.DownPaymentRate = tt.rate

			_, err := e.buildTillOpts()
			if (err != nil) != tt.wantErr {
				t.Errorf("buildTillOpts() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
