package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
)

const redisStartupPingTimeout = 3 * time.Second

// Redis wraps the go-redis client backing the client rate limiter and the notification queue.
// A disabled handle has no client.
type Redis struct {
	Client *redis.Client
	addr   string
}

// NewRedis builds a client unless Redis is disabled. An unreachable server is logged, not fatal:
// the limiter fails open and readiness reports it.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *Redis {
	if !cfg.Enabled {
		logger.Warn("REDIS_ENABLED=false; rate limiting and notifications are off")
		return &Redis{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	r := &Redis{Client: client, addr: cfg.Addr}

	pingCtx, cancel := context.WithTimeout(ctx, redisStartupPingTimeout)
	defer cancel()
	if err := r.Ping(pingCtx); err != nil {
		logger.Warn("unable to reach redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB), zap.Error(err))
	} else {
		logger.Info("connected to redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	}
	return r
}

// WrapRedis adopts an existing client.
func WrapRedis(client *redis.Client) *Redis {
	if client == nil {
		return &Redis{}
	}
	return &Redis{Client: client, addr: client.Options().Addr}
}

// Close closes the client.
func (r *Redis) Close() {
	if r.Configured() {
		_ = r.Client.Close()
	}
}

// Configured reports whether a client backs this handle.
func (r *Redis) Configured() bool {
	return r != nil && r.Client != nil
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if !r.Configured() {
		return errors.New("redis client not configured")
	}
	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis %s: %w", r.addr, err)
	}
	return nil
}
