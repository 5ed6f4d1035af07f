package colorcache

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces the per-polygon hashes.
const redisKeyPrefix = "sheetmap:color:"

// RedisStore keeps one hash per polygon id with the attribute text as field
// and the color as value. HSET overwrites, so the last write wins.
type RedisStore struct {
	rc *redis.Client
}

// NewRedisStore connects to addr and verifies the connection with PING.
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis store: empty address")
	}
	rc := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := rc.Ping(ctx).Err(); err != nil {
		rc.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &RedisStore{rc: rc}, nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(rc *redis.Client) *RedisStore {
	return &RedisStore{rc: rc}
}

// Get returns the color stored for id under attribute.
func (s *RedisStore) Get(ctx context.Context, id int64, attribute string) (int, bool, error) {
	v, err := s.rc.HGet(ctx, redisKey(id), attribute).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	c, err := strconv.Atoi(v)
	if err != nil {
		// Corrupt value - treat as miss
		return 0, false, nil
	}
	return c, true, nil
}

// Append records a color, replacing any previous color for the attribute.
func (s *RedisStore) Append(ctx context.Context, id int64, attribute string, color int) error {
	return s.rc.HSet(ctx, redisKey(id), attribute, strconv.Itoa(color)).Err()
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.rc.Close()
}

func redisKey(id int64) string {
	return redisKeyPrefix + strconv.FormatInt(id, 10)
}

// Ensure RedisStore implements Store.
var _ Store = (*RedisStore)(nil)
