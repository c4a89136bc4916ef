package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func setupLimiter(t *testing.T, limit int) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	return NewLimiter(client, limit, time.Minute, nil), mr
}

func TestAllowCountsWithinWindow(t *testing.T) {
	limiter, mr := setupLimiter(t, 2)
	ctx := context.Background()

	first, err := limiter.Allow(ctx, "client_submit", "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, first.Allowed)
	assert.Equal(t, 1, first.Remaining)

	second, err := limiter.Allow(ctx, "client_submit", "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, second.Allowed)
	assert.Equal(t, 0, second.Remaining)

	third, err := limiter.Allow(ctx, "client_submit", "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, third.Allowed)

	other, err := limiter.Allow(ctx, "client_submit", "5.6.7.8")
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	assert.True(t, mr.Exists("rate_limit:client_submit:1.2.3.4"))
	ttl := mr.TTL("rate_limit:client_submit:1.2.3.4")
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)
}

func TestWindowResets(t *testing.T) {
	limiter, mr := setupLimiter(t, 1)
	ctx := context.Background()

	_, err := limiter.Allow(ctx, "e", "ip")
	require.NoError(t, err)
	res, err := limiter.Allow(ctx, "e", "ip")
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	mr.FastForward(time.Minute + time.Second)

	res, err = limiter.Allow(ctx, "e", "ip")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestAllowRepairsWindowWithoutTTL(t *testing.T) {
	limiter, mr := setupLimiter(t, 2)
	ctx := context.Background()
	key := Key("client_submit", "1.2.3.4")
	require.NoError(t, mr.Set(key, "2"))
	require.Zero(t, mr.TTL(key))

	res, err := limiter.Allow(ctx, "client_submit", "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, time.Minute, res.ResetIn)
	assert.Equal(t, time.Minute, mr.TTL(key))

	mr.FastForward(time.Minute + time.Second)

	res, err = limiter.Allow(ctx, "client_submit", "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)
}

func newApp(limiter *Limiter) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(apperrors.ToDomainError(err).HTTPStatus).SendString(err.Error())
		},
	})
	app.Post("/submit", limiter.Middleware("client_submit"), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusCreated)
	})
	return app
}

func TestMiddlewareRejectsOverLimit(t *testing.T) {
	limiter, _ := setupLimiter(t, 1)
	app := newApp(limiter)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/submit", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/submit", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderRetryAfter))
}

func TestMiddlewareFailsOpenWhenRedisDown(t *testing.T) {
	limiter, mr := setupLimiter(t, 1)
	app := newApp(limiter)
	mr.Close()

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/submit", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	}
}
