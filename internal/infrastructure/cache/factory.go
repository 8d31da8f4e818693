package cache

import (
	"github.com/factuurdesk/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewStore returns a Redis store when Redis is enabled and reachable, and an
// in-memory store otherwise
func NewStore(cfg config.RedisConfig, logger *zap.Logger) Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		logger.Info("Redis disabled, using in-memory template cache")
		return NewMemoryStore(logger)
	}

	store, err := NewRedisStore(cfg)
	if err != nil {
		logger.Warn("Redis unavailable, falling back to in-memory template cache",
			zap.String("addr", cfg.Addr()),
			zap.Error(err),
		)
		return NewMemoryStore(logger)
	}

	logger.Info("Using Redis template cache", zap.String("addr", cfg.Addr()))
	return store
}
