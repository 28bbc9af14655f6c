package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pantry-scanner/internal/core/product"
	"pantry-scanner/internal/infrastructure/config"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "pantry:recognition:"

// ErrRemoteMiss 遠端快取未命中
var ErrRemoteMiss = errors.New("remote cache miss")

// Remote 共享的第二層快取
type Remote interface {
	Get(ctx context.Context, key string) (*product.RecognitionResult, error)
	Set(ctx context.Context, key string, result *product.RecognitionResult) error
	Clear(ctx context.Context) error
	Close() error
}

// RedisStore 以 Redis 保存識別結果，讓多個實例共用快取
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore 創建 Redis 快取並測試連線
func NewRedisStore(ctx context.Context, cfg config.CacheConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  cfg.RedisTimeout,
		ReadTimeout:  cfg.RedisTimeout,
		WriteTimeout: cfg.RedisTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

// Get 獲取緩存
func (s *RedisStore) Get(ctx context.Context, key string) (*product.RecognitionResult, error) {
	data, err := s.client.Get(ctx, redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRemoteMiss
		}
		return nil, fmt.Errorf("failed to get cache: %w", err)
	}

	var result product.RecognitionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache: %w", err)
	}
	return &result, nil
}

// Set 設置緩存
func (s *RedisStore) Set(ctx context.Context, key string, result *product.RecognitionResult) error {
	if result.Empty() {
		return nil
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	if err := s.client.Set(ctx, redisKey(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Clear 刪除本服務寫入的所有鍵
func (s *RedisStore) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete cache key: %w", err)
		}
	}
	return iter.Err()
}

// Close 關閉連線
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func redisKey(key string) string {
	return redisKeyPrefix + key
}
