package service

import (
	"context"
	"fmt"
	"time"

	"agri-assist-be/internal/apperror"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// IQuotaService guards the daily turn limit per caller. The key is the
// authenticated user id when present, otherwise the session id.
type IQuotaService interface {
	Allow(ctx context.Context, key string) error
}

// NewNullQuotaService allows everything; used when no daily limit is set.
func NewNullQuotaService() IQuotaService {
	return nullQuota{}
}

type nullQuota struct{}

func (nullQuota) Allow(ctx context.Context, key string) error { return nil }

// redisQuota counts turns in Redis so the limit holds across instances.
type redisQuota struct {
	client *redis.Client
	limit  int
}

func NewRedisQuotaService(client *redis.Client, limit int) IQuotaService {
	return &redisQuota{client: client, limit: limit}
}

func (q *redisQuota) Allow(ctx context.Context, key string) error {
	redisKey := fmt.Sprintf("quota:%s:%s", key, time.Now().Format("2006-01-02"))

	count, err := q.client.Incr(ctx, redisKey).Result()
	if err != nil {
		// Redis being down must not block chatting
		return nil
	}
	if count == 1 {
		q.client.Expire(ctx, redisKey, 24*time.Hour)
	}
	if int(count) > q.limit {
		return apperror.QuotaExceeded(q.limit, int(count))
	}
	return nil
}

// memoryQuota is the single-instance fallback when Redis is disabled.
type memoryQuota struct {
	counters *cache.Cache
	limit    int
}

func NewMemoryQuotaService(limit int) IQuotaService {
	return &memoryQuota{
		counters: cache.New(24*time.Hour, time.Hour),
		limit:    limit,
	}
}

func (q *memoryQuota) Allow(ctx context.Context, key string) error {
	cacheKey := fmt.Sprintf("%s:%s", key, time.Now().Format("2006-01-02"))

	count, err := q.counters.IncrementInt(cacheKey, 1)
	if err != nil {
		q.counters.Set(cacheKey, 1, cache.DefaultExpiration)
		count = 1
	}
	if count > q.limit {
		return apperror.QuotaExceeded(q.limit, count)
	}
	return nil
}
