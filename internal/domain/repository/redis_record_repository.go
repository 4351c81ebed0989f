package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"subhub/internal/common"
	"subhub/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 500

type redisRecordRepository struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisRecordRepository stores each record as JSON under "<prefix>:<uuid>".
func NewRedisRecordRepository(rdb *redis.Client, prefix string) RecordRepository {
	return &redisRecordRepository{rdb: rdb, prefix: prefix}
}

func (r *redisRecordRepository) key(uuid string) string {
	return r.prefix + ":" + uuid
}

func (r *redisRecordRepository) Get(ctx context.Context, uuid string) (*model.UserRecord, error) {
	raw, err := r.rdb.Get(ctx, r.key(uuid)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrRecordNotFound
		}
		return nil, fmt.Errorf("redisRecordRepository.Get: %w", err)
	}
	rec := &model.UserRecord{}
	if err := json.Unmarshal(raw, rec); err != nil {
		return nil, fmt.Errorf("redisRecordRepository.Get: decode %s: %w", uuid, err)
	}
	return rec, nil
}

func (r *redisRecordRepository) Put(ctx context.Context, uuid string, record model.UserRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("redisRecordRepository.Put: %w", err)
	}
	if err := r.rdb.Set(ctx, r.key(uuid), raw, 0).Err(); err != nil {
		return fmt.Errorf("redisRecordRepository.Put: %w", err)
	}
	return nil
}

func (r *redisRecordRepository) Delete(ctx context.Context, uuid string) error {
	if err := r.rdb.Del(ctx, r.key(uuid)).Err(); err != nil {
		return fmt.Errorf("redisRecordRepository.Delete: %w", err)
	}
	return nil
}

// List walks the keyspace with SCAN and fetches values in batches. Keys deleted
// between SCAN and MGET are skipped.
func (r *redisRecordRepository) List(ctx context.Context) ([]model.RecordEntry, error) {
	var (
		cursor  uint64
		entries []model.RecordEntry
	)
	pattern := r.prefix + ":*"
	keyPrefix := r.prefix + ":"

	for {
		keys, next, err := r.rdb.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("redisRecordRepository.List: scan: %w", err)
		}
		if len(keys) > 0 {
			values, err := r.rdb.MGet(ctx, keys...).Result()
			if err != nil {
				return nil, fmt.Errorf("redisRecordRepository.List: mget: %w", err)
			}
			for i, v := range values {
				s, ok := v.(string)
				if !ok {
					continue
				}
				var rec model.UserRecord
				if err := json.Unmarshal([]byte(s), &rec); err != nil {
					return nil, fmt.Errorf("redisRecordRepository.List: decode %s: %w", keys[i], err)
				}
				entries = append(entries, model.RecordEntry{
					UUID:   strings.TrimPrefix(keys[i], keyPrefix),
					Record: rec,
				})
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	// SCAN may return a key more than once.
	sortEntries(entries)
	deduped := make([]model.RecordEntry, 0, len(entries))
	for _, e := range entries {
		if n := len(deduped); n > 0 && deduped[n-1].UUID == e.UUID {
			continue
		}
		deduped = append(deduped, e)
	}
	return deduped, nil
}
