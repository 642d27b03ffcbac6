package completion

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the part of a go-redis client the store uses.
// *redis.Client and *redis.ClusterClient both satisfy it.
type RedisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// releaseScript deletes KEYS[1] only while it still holds the claim made by
// trigger ARGV[1].
const releaseScript = `
local v = redis.call("GET", KEYS[1])
if v and cjson.decode(v).trigger_id == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// RedisStore keeps completion records as expiring Redis keys.
type RedisStore struct {
	client RedisClient
	prefix string
}

func NewRedisStore(client RedisClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) SetIfAbsent(ctx context.Context, rec Record, now time.Time) (bool, error) {
	if rec.BatchKey == "" {
		return false, ErrEmptyBatchKey
	}

	ttl := time.Unix(rec.ExpiresAt, 0).Sub(now)
	if ttl < time.Second {
		ttl = time.Second
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("marshal completion record: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.prefix+rec.BatchKey, payload, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) Delete(ctx context.Context, batchKey, triggerID string) error {
	if err := s.client.Eval(ctx, releaseScript, []string{s.prefix + batchKey}, triggerID).Err(); err != nil {
		return fmt.Errorf("redis release: %w", err)
	}
	return nil
}
