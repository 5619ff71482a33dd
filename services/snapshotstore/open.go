package snapshotstore

import (
	"context"
	"fmt"
	"log"

	"lakebase_dashboards/config"
)

const keyPrefix = "lakebase-dashboards/"

// Open returns the store selected by SNAPSHOT_STORE
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.SnapshotStore {
	case config.SnapshotStoreRedis:
		store := NewRedisStore(NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), keyPrefix, 0)
		if err := store.Ping(ctx); err != nil {
			// Redis being down only costs us the restart fallback.
			log.Printf("Warning: snapshot store redis at %s unreachable: %v", cfg.RedisAddr, err)
		}
		log.Printf("Snapshot store: redis %s", cfg.RedisAddr)
		return store, nil
	case config.SnapshotStoreSQLite:
		store, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Printf("Snapshot store: sqlite %s", cfg.SQLitePath)
		return store, nil
	case config.SnapshotStoreS3:
		client, err := NewS3Client(ctx, cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey)
		if err != nil {
			return nil, fmt.Errorf("failed to configure s3: %w", err)
		}
		log.Printf("Snapshot store: s3 bucket %s", cfg.S3Bucket)
		return NewS3Store(client, cfg.S3Bucket, keyPrefix), nil
	default:
		return Noop{}, nil
	}
}
