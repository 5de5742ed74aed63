package cache

import (
	"go.uber.org/zap"
)

// NewRunStore returns a Redis store when addr is set, otherwise an in-memory
// store. When Redis is unreachable the in-memory store is used if fallback
// is allowed.
func NewRunStore(cfg RedisConfig, allowFallback bool, logger *zap.Logger) (RunStore, error) {
	if cfg.Addr == "" {
		logger.Info("Redis not configured, keeping run state in memory")
		return NewInMemoryRunStore(), nil
	}

	store, err := NewRedisRunStore(cfg)
	if err == nil {
		logger.Info("Run state stored in Redis", zap.String("addr", cfg.Addr))
		return store, nil
	}
	if !allowFallback {
		return nil, err
	}

	logger.Warn("Redis unavailable, falling back to in-memory run state",
		zap.String("addr", cfg.Addr),
		zap.Error(err),
	)
	return NewInMemoryRunStore(), nil
}
