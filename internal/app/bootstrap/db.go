// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/placementhub/internal/app/system/aicache"
	"github.com/dalemusser/placementhub/internal/app/system/indexes"
	"github.com/dalemusser/placementhub/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const connectTimeout = 15 * time.Second

// ConnectDB dials MongoDB and, when redis_addr is set, Redis. A Redis that
// cannot be reached disables the AI cache rather than failing startup.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	client, err := ConnectMongo(ctx, appCfg)
	if err != nil {
		return DBDeps{}, err
	}
	db := client.Database(appCfg.MongoDatabase)
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	deps := DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		Lifecycle:     newLifecycle(),
	}

	if appCfg.RedisAddr != "" {
		rctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		rdb, err := aicache.Connect(rctx, appCfg.RedisAddr, appCfg.RedisPassword, appCfg.RedisDB)
		cancel()
		if err != nil {
			logger.Warn("redis unavailable; AI cache disabled", zap.Error(err))
		} else {
			deps.Redis = rdb
			logger.Info("connected to Redis", zap.String("addr", appCfg.RedisAddr))
		}
	}

	deps.Jobs = newScheduler(db, logger)
	return deps, nil
}

// ConnectMongo opens and pings a client for appCfg. The CLI uses it too.
func ConnectMongo(ctx context.Context, appCfg AppConfig) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetAppName("placementhub")
	if appCfg.MongoMaxPoolSize > 0 {
		opts.SetMaxPoolSize(appCfg.MongoMaxPoolSize)
	}
	if appCfg.MongoMinPoolSize > 0 {
		opts.SetMinPoolSize(appCfg.MongoMinPoolSize)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// EnsureSchema creates collections with validators and reconciles indexes.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	return SetupSchema(ctx, deps.MongoDatabase, logger)
}

// SetupSchema is EnsureSchema without the lifecycle arguments.
func SetupSchema(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	if err := validators.EnsureAll(ctx, db, logger); err != nil {
		return fmt.Errorf("validators: %w", err)
	}
	if err := indexes.EnsureAll(ctx, db, logger); err != nil {
		return fmt.Errorf("indexes: %w", err)
	}
	return nil
}
