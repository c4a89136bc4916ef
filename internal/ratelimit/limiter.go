// Package ratelimit implements a Redis fixed-window limiter for unauthenticated endpoints.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// Result describes the state of one window after a hit.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetIn   time.Duration
}

// Limiter counts hits per key in fixed windows.
type Limiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	logger *zap.Logger
}

// NewLimiter creates a limiter allowing limit hits per window.
func NewLimiter(client *redis.Client, limit int, window time.Duration, logger *zap.Logger) *Limiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Limiter{client: client, limit: limit, window: window, logger: logger}
}

// Key builds the Redis key for an endpoint and caller.
func Key(endpoint, identifier string) string {
	return fmt.Sprintf("rate_limit:%s:%s", endpoint, identifier)
}

// Allow records one hit for identifier on endpoint. A window without a TTL, whether new or left
// behind by a failed EXPIRE, gets one on the next hit.
func (l *Limiter) Allow(ctx context.Context, endpoint, identifier string) (Result, error) {
	key := Key(endpoint, identifier)
	var (
		incr *redis.IntCmd
		pttl *redis.DurationCmd
	)
	if _, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pttl = pipe.PTTL(ctx, key)
		return nil
	}); err != nil {
		return Result{}, err
	}

	count := int(incr.Val())
	resetIn := pttl.Val()
	if resetIn < 0 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return Result{}, err
		}
		resetIn = l.window
	}
	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   count <= l.limit,
		Limit:     l.limit,
		Remaining: remaining,
		ResetIn:   resetIn,
	}, nil
}

// Middleware limits requests per client IP. Redis failures let the request through.
func (l *Limiter) Middleware(endpoint string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if l == nil || l.client == nil || l.limit <= 0 {
			return c.Next()
		}
		res, err := l.Allow(c.UserContext(), endpoint, c.IP())
		if err != nil {
			l.logger.Warn("rate limiter unavailable", zap.String("endpoint", endpoint), zap.Error(err))
			return c.Next()
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if !res.Allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(res.ResetIn.Round(time.Second).Seconds())))
			return apperrors.NewRateLimited("too many requests, try again later")
		}
		return c.Next()
	}
}
