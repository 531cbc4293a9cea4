package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// CacheService wraps redis with JSON marshaling for response-level
// caching of analytics rollups.
type CacheService struct {
	client *redis.Client
}

func NewCacheService(client *redis.Client) *CacheService {
	return &CacheService{
		client: client,
	}
}

func (s *CacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if s.client == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	if err := s.client.Set(ctx, key, data, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	return nil
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) error {
	if s.client == nil {
		return redis.Nil
	}

	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return err
		}
		return fmt.Errorf("failed to get cache: %w", err)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("failed to unmarshal value: %w", err)
	}

	return nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	if s.client == nil {
		return nil
	}

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache: %w", err)
	}
	return nil
}

// DeletePattern drops every key matching the glob pattern. Used to
// invalidate analytics rollups after a resolution sweep lands.
func (s *CacheService) DeletePattern(ctx context.Context, pattern string) error {
	if s.client == nil {
		return nil
	}

	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return s.Delete(ctx, keys...)
}

func (s *CacheService) HealthCheck(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("redis client not configured")
	}
	return s.client.Ping(ctx).Err()
}

// Cache key generators
func ValidationStatsCacheKey(filterHash string) string {
	return fmt.Sprintf("analytics:stats:%s", filterHash)
}

func InsightsCacheKey() string {
	return "analytics:insights"
}

const analyticsKeyPattern = "analytics:*"

// SetWithRetry retries transient cache write failures with backoff.
func (s *CacheService) SetWithRetry(ctx context.Context, key string, value interface{}, expiration time.Duration, maxRetries int) error {
	var err error
	for i := 0; i < maxRetries; i++ {
		if err = s.Set(ctx, key, value, expiration); err == nil {
			return nil
		}
		logrus.Warnf("Cache set failed (attempt %d/%d): %v", i+1, maxRetries, err)
		time.Sleep(time.Millisecond * 100 * time.Duration(i+1))
	}
	return err
}
