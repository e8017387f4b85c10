package resultstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces evaluation-result keys within a shared Redis
// instance, following the teacher's "service:concern:id" key convention.
const keyPrefix = "a2aeval:result:"

// Redis is a Store backed by a Redis instance, for deployments that need
// results to survive process restarts or to be shared across front-end
// replicas.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedis returns a Store backed by rdb. Entries expire after ttl if ttl is
// positive; a zero ttl means entries never expire.
func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func redisKey(evaluationID string) string {
	return keyPrefix + evaluationID
}

// Put stores result under evaluationID.
func (r *Redis) Put(ctx context.Context, evaluationID string, result []byte) error {
	if err := r.rdb.Set(ctx, redisKey(evaluationID), result, r.ttl).Err(); err != nil {
		return fmt.Errorf("resultstore: redis set: %w", err)
	}
	return nil
}

// Get returns the stored result for evaluationID, or ErrNotFound.
func (r *Redis) Get(ctx context.Context, evaluationID string) ([]byte, error) {
	val, err := r.rdb.Get(ctx, redisKey(evaluationID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resultstore: redis get: %w", err)
	}
	return val, nil
}
