package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/xraph/grove/drivers/mongodriver/mongomigrate"
	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the till store (MongoDB).
// Collections are created on first write, so each step only adds indexes.
var Migrations = migrate.NewGroup("till")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_till_log_indexes",
			Version: "20260301000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				return createIndexes(ctx, exec, colLog, []mongo.IndexModel{
					{Keys: bson.D{{Key: "day", Value: 1}, {Key: "seq", Value: 1}}},
				})
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				return dropIndexes(ctx, exec, colLog)
			},
		},
		&migrate.Migration{
			Name:    "create_till_punches_indexes",
			Version: "20260301000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				return createIndexes(ctx, exec, colPunches, []mongo.IndexModel{
					{Keys: bson.D{{Key: "at", Value: 1}}},
					{Keys: bson.D{{Key: "worker", Value: 1}, {Key: "at", Value: 1}}},
				})
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				return dropIndexes(ctx, exec, colPunches)
			},
		},
	)
}

// mongoExecutor unwraps the driver behind a mongomigrate executor.
func mongoExecutor(exec migrate.Executor) (*mongodriver.MongoDB, error) {
	me, ok := exec.(*mongomigrate.Executor)
	if !ok {
		return nil, fmt.Errorf("till/mongo: unexpected migration executor %T", exec)
	}
	return me.DB(), nil
}

func createIndexes(ctx context.Context, exec migrate.Executor, col string, models []mongo.IndexModel) error {
	mdb, err := mongoExecutor(exec)
	if err != nil {
		return err
	}
	_, err = mdb.Collection(col).Indexes().CreateMany(ctx, models)
	return err
}

func dropIndexes(ctx context.Context, exec migrate.Executor, col string) error {
	mdb, err := mongoExecutor(exec)
	if err != nil {
		return err
	}
	return mdb.Collection(col).Indexes().DropAll(ctx)
}
