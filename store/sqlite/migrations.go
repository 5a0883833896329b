package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the till store (SQLite).
var Migrations = migrate.NewGroup("till")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_till_inventory",
			Version: "20260301000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS till_inventory (
    category         TEXT NOT NULL,
    brand            TEXT NOT NULL,
    item             TEXT NOT NULL,
    item_code        TEXT NOT NULL DEFAULT '',
    quantity         INTEGER NOT NULL DEFAULT 0,
    price_amount     INTEGER NOT NULL DEFAULT 0,
    currency         TEXT NOT NULL DEFAULT '',
    last_change      TEXT NOT NULL DEFAULT '',
    last_change_date TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (category, brand, item)
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS till_inventory`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_till_layaways",
			Version: "20260301000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS till_layaways (
    id                TEXT PRIMARY KEY,
    position          INTEGER NOT NULL,
    item_code         TEXT NOT NULL DEFAULT '',
    category          TEXT NOT NULL,
    brand             TEXT NOT NULL,
    item              TEXT NOT NULL,
    original_amount   INTEGER NOT NULL,
    amount_paid       INTEGER NOT NULL,
    remaining_balance INTEGER NOT NULL,
    currency          TEXT NOT NULL DEFAULT '',
    inventory_tracked INTEGER NOT NULL DEFAULT 0,
    customer_name     TEXT NOT NULL DEFAULT '',
    customer_phone    TEXT NOT NULL DEFAULT '',
    created_at        TEXT NOT NULL,
    updated_at        TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_till_layaways_position ON till_layaways (position);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS till_layaways`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_till_log",
			Version: "20260301000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS till_log (
    seq              INTEGER PRIMARY KEY AUTOINCREMENT,
    id               TEXT NOT NULL DEFAULT '',
    day              TEXT NOT NULL,
    timestamp        TEXT NOT NULL,
    action           TEXT NOT NULL,
    item_code        TEXT NOT NULL,
    category         TEXT NOT NULL,
    brand            TEXT NOT NULL,
    item             TEXT NOT NULL,
    quantity_change  INTEGER,
    new_quantity     INTEGER,
    price_amount     INTEGER NOT NULL DEFAULT 0,
    currency         TEXT NOT NULL DEFAULT '',
    discount_applied TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_till_log_day ON till_log (day, seq);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS till_log`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_till_menu",
			Version: "20260301000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS till_menu (
    category     TEXT NOT NULL,
    brand        TEXT NOT NULL,
    item         TEXT NOT NULL,
    item_code    TEXT NOT NULL DEFAULT '',
    price_amount INTEGER NOT NULL DEFAULT 0,
    currency     TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (category, brand, item)
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS till_menu`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_till_punches",
			Version: "20260301000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS till_punches (
    id        TEXT PRIMARY KEY,
    worker    TEXT NOT NULL,
    direction TEXT NOT NULL,
    at        TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_till_punches_at ON till_punches (at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS till_punches`)
				return err
			},
		},
	)
}
