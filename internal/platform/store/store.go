package store

import (
	"context"
	"fmt"
	"log/slog"
	"subhub/internal/domain/repository"
	"subhub/internal/platform/config"
	"subhub/internal/platform/database"
	"subhub/internal/platform/kv"

	"github.com/redis/go-redis/v9"
)

// Store is an opened record backend. Redis is nil unless the backend is redis.
type Store struct {
	Records repository.RecordRepository
	Redis   *redis.Client
	close   func() error
}

func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Open connects to the backend named by cfg.StoreBackend.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		slog.Warn("using in-memory record store; records are lost on restart")
		return &Store{Records: repository.NewMemoryRecordRepository()}, nil

	case config.StoreRedis:
		rdb, err := kv.Connect(ctx, kv.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return &Store{
			Records: repository.NewRedisRecordRepository(rdb, cfg.RedisKeyPrefix),
			Redis:   rdb,
			close:   rdb.Close,
		}, nil

	case config.StorePostgres:
		db, err := database.Connect(ctx, cfg.DBConnStr)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		return &Store{Records: repository.NewPgRecordRepository(db), close: db.Close}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
