package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyPendingMarker = "__pending__"

type RedisIdempotencyStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisIdempotencyStore(client redis.UniversalClient, prefix string) *RedisIdempotencyStore {
	if prefix == "" {
		prefix = "idempotency"
	}
	return &RedisIdempotencyStore{client: client, prefix: prefix}
}

func (s *RedisIdempotencyStore) Begin(ctx context.Context, scope, key string, ttl time.Duration) (IdempotencyResult, error) {
	redisKey := s.redisKey(scope, key)
	set, err := s.client.SetNX(ctx, redisKey, idempotencyPendingMarker, ttl).Result()
	if err != nil {
		return IdempotencyResult{}, err
	}
	if set {
		return IdempotencyResult{State: IdempotencyStateNew}, nil
	}
	raw, err := s.client.Get(ctx, redisKey).Result()
	if err == redis.Nil {
		// Key expired between SetNX and Get; treat the attempt as new.
		return IdempotencyResult{State: IdempotencyStateNew}, nil
	}
	if err != nil {
		return IdempotencyResult{}, err
	}
	if raw == idempotencyPendingMarker {
		return IdempotencyResult{State: IdempotencyStateInProgress}, nil
	}
	var cached CachedCreateResult
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return IdempotencyResult{}, fmt.Errorf("decode cached idempotency result: %w", err)
	}
	return IdempotencyResult{State: IdempotencyStateReplay, Cached: &cached}, nil
}

func (s *RedisIdempotencyStore) Complete(ctx context.Context, scope, key string, result CachedCreateResult, ttl time.Duration) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.redisKey(scope, key), payload, ttl).Err()
}

func (s *RedisIdempotencyStore) redisKey(scope, key string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, scope, key)
}
