package main

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/database"
	"github.com/iliyamo/cinema-booking/internal/kvstore"
)

// openStore opens the backend named by cfg.StoreBackend.  The returned
// func releases its connections.
func openStore(ctx context.Context, cfg config.Config, rdb *redis.Client) (kvstore.Store, func(), error) {
	noop := func() {}
	switch cfg.StoreBackend {
	case config.BackendMemory:
		log.Printf("store: in-memory, data is lost on restart")
		return kvstore.NewMemoryStore(), noop, nil

	case config.BackendFile:
		fs, err := kvstore.NewFileStore(cfg.StoreDir)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("store: files under %s", cfg.StoreDir)
		return fs, noop, nil

	case config.BackendRedis:
		if rdb == nil {
			return nil, nil, fmt.Errorf("store: redis backend selected but redis is unreachable")
		}
		log.Printf("store: redis")
		return kvstore.NewRedisStore(rdb, config.RedisKeyPrefix()), noop, nil

	case config.BackendMySQL:
		db, err := database.OpenMySQL(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return nil, nil, fmt.Errorf("store: open mysql: %w", err)
		}
		s := kvstore.NewMySQLStore(db)
		if err := s.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("store: mysql schema: %w", err)
		}
		log.Printf("store: mysql %s:%s/%s", cfg.DBHost, cfg.DBPort, cfg.DBName)
		return s, func() { _ = db.Close() }, nil

	case config.BackendPostgres:
		pool, err := database.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("store: open postgres: %w", err)
		}
		s := kvstore.NewPostgresStore(pool)
		if err := s.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("store: postgres schema: %w", err)
		}
		log.Printf("store: postgres")
		return s, pool.Close, nil
	}
	return nil, nil, fmt.Errorf("store: unknown backend %q", cfg.StoreBackend)
}
