package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisPutAttempts = 3

// RedisStorage stores each key as a hash of {value, version}. A non-zero ttl is
// refreshed on every write, which suits session records.
type RedisStorage struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStorage(redisURL string, ttl time.Duration) (*RedisStorage, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStorageWithClient(client, ttl), nil
}

func NewRedisStorageWithClient(client *redis.Client, ttl time.Duration) *RedisStorage {
	return &RedisStorage{
		client: client,
		prefix: "ksk:",
		ttl:    ttl,
	}
}

// WithTTL returns a view over the same client whose writes expire after ttl.
func (s *RedisStorage) WithTTL(ttl time.Duration) *RedisStorage {
	return &RedisStorage{client: s.client, prefix: s.prefix, ttl: ttl}
}

func (s *RedisStorage) key(key string) string {
	return s.prefix + key
}

func (s *RedisStorage) Get(ctx context.Context, key string) (Record, error) {
	vals, err := s.client.HMGet(ctx, s.key(key), "value", "version").Result()
	if err != nil {
		return Record{}, fmt.Errorf("get %s: %w", key, err)
	}
	if len(vals) != 2 || vals[0] == nil {
		return Record{}, ErrNotFound
	}

	value, _ := vals[0].(string)
	versionStr, _ := vals[1].(string)
	version, err := strconv.ParseInt(versionStr, 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("get %s: bad version %q", key, versionStr)
	}
	return Record{Value: []byte(value), Version: version}, nil
}

func (s *RedisStorage) Put(ctx context.Context, key string, value []byte, expectedVersion int64) (int64, error) {
	k := s.key(key)

	var next int64
	put := func(tx *redis.Tx) error {
		// A deleted key keeps its version field, so re-creation continues the sequence.
		vals, err := tx.HMGet(ctx, k, "value", "version").Result()
		if err != nil {
			return err
		}
		exists := len(vals) == 2 && vals[0] != nil
		var current int64
		if len(vals) == 2 && vals[1] != nil {
			versionStr, _ := vals[1].(string)
			if current, err = strconv.ParseInt(versionStr, 10, 64); err != nil {
				return fmt.Errorf("bad version %q", versionStr)
			}
		}

		if expectedVersion != AnyVersion {
			if expectedVersion == 0 && exists {
				return ErrVersionConflict
			}
			if expectedVersion > 0 && (!exists || current != expectedVersion) {
				return ErrVersionConflict
			}
		}

		next = current + 1
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, k, "value", string(value), "version", next)
			if s.ttl > 0 {
				pipe.Expire(ctx, k, s.ttl)
			}
			return nil
		})
		return err
	}

	for attempt := 0; attempt < redisPutAttempts; attempt++ {
		err := s.client.Watch(ctx, put, k)
		if err == nil {
			return next, nil
		}
		if errors.Is(err, ErrVersionConflict) {
			return 0, err
		}
		if errors.Is(err, redis.TxFailedErr) {
			// The key changed under WATCH; a versioned write has lost the race.
			if expectedVersion != AnyVersion {
				return 0, ErrVersionConflict
			}
			continue
		}
		return 0, fmt.Errorf("put %s: %w", key, err)
	}
	return 0, ErrVersionConflict
}

func (s *RedisStorage) Delete(ctx context.Context, key string) error {
	if err := s.client.HDel(ctx, s.key(key), "value").Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *RedisStorage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStorage) Close() error {
	return s.client.Close()
}
