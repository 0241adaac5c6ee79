package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/odyssey-erp/roledesk/internal/platform/kv"
)

// OpenStorage builds the slot store selected by cfg. The returned close
// function releases backend connections and is never nil.
func OpenStorage(ctx context.Context, cfg *Config, logger *slog.Logger) (kv.Store, func(), error) {
	noop := func() {}
	var (
		store   kv.Store
		closeFn = noop
	)
	switch cfg.StorageDriver {
	case DriverMemory:
		logger.Warn("memory storage selected, data is lost on restart")
		store = kv.NewMemoryStore()
	case DriverRedis:
		client, err := kv.OpenRedis(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, noop, err
		}
		store = kv.NewRedisStore(client)
		closeFn = func() {
			if err := client.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	case DriverPostgres:
		pool, err := kv.OpenPostgres(ctx, cfg.PGDSN)
		if err != nil {
			return nil, noop, err
		}
		pg := kv.NewPostgresStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			pool.Close()
			return nil, noop, err
		}
		store = pg
		closeFn = pool.Close
	default:
		return nil, noop, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
	return kv.WithPrefix(store, cfg.StorageKeyPrefix), closeFn, nil
}
