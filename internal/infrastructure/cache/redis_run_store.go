package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "catalogsync:run:"

// RedisRunStore implements RunStore using Redis.
// It is suitable for deployments where several instances serve the same runs.
type RedisRunStore struct {
	client    *redis.Client
	keyPrefix string
}

var _ RunStore = (*RedisRunStore)(nil)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisRunStore connects to Redis and verifies the connection
func NewRedisRunStore(cfg RedisConfig) (*RedisRunStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisRunStoreWithClient(client, ""), nil
}

// NewRedisRunStoreWithClient creates a store with an existing Redis client
func NewRedisRunStoreWithClient(client *redis.Client, keyPrefix string) *RedisRunStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisRunStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisRunStore) pageKey(runID string) string {
	return s.keyPrefix + runID + ":page"
}

func (s *RedisRunStore) errorsKey(runID string) string {
	return s.keyPrefix + runID + ":errors"
}

// Load returns the stashed page of a run
func (s *RedisRunStore) Load(ctx context.Context, runID string) (*integration.StashedPage, error) {
	data, err := s.client.Get(ctx, s.pageKey(runID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, integration.ErrStashMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load stashed page: %w", err)
	}
	return decodePage(data)
}

// Save stores the page of a run, replacing any previous one
func (s *RedisRunStore) Save(ctx context.Context, runID string, page *integration.StashedPage, ttl time.Duration) error {
	data, err := encodePage(page)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.pageKey(runID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to stash page: %w", err)
	}
	return nil
}

// Delete removes the stashed page of a run
func (s *RedisRunStore) Delete(ctx context.Context, runID string) error {
	if err := s.client.Del(ctx, s.pageKey(runID)).Err(); err != nil {
		return fmt.Errorf("failed to delete stashed page: %w", err)
	}
	return nil
}

// Append adds an item error to the run log and refreshes its TTL
func (s *RedisRunStore) Append(ctx context.Context, runID string, report integration.ErrorReport, ttl time.Duration) error {
	data, err := encodeReport(report)
	if err != nil {
		return err
	}
	key := s.errorsKey(runID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append run error: %w", err)
	}
	return nil
}

// Drain returns and removes every error of the run atomically
func (s *RedisRunStore) Drain(ctx context.Context, runID string) ([]integration.ErrorReport, error) {
	key := s.errorsKey(runID)
	var lrange *redis.StringSliceCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		lrange = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to drain run errors: %w", err)
	}

	values := lrange.Val()
	reports := make([]integration.ErrorReport, 0, len(values))
	for _, v := range values {
		report, err := decodeReport([]byte(v))
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// Close closes the Redis client
func (s *RedisRunStore) Close() error {
	return s.client.Close()
}
