package persistence

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
)

func TestNewRedisConnects(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()

	r := NewRedis(context.Background(), config.RedisConfig{Enabled: true, Addr: addr}, zap.NewNop())
	t.Cleanup(r.Close)

	require.True(t, r.Configured())
	assert.NoError(t, r.Ping(context.Background()))

	mr.Close()
	err := r.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), addr)
}

func TestNewRedisDisabled(t *testing.T) {
	r := NewRedis(context.Background(), config.RedisConfig{Enabled: false, Addr: "127.0.0.1:1"}, zap.NewNop())

	assert.False(t, r.Configured())
	assert.Error(t, r.Ping(context.Background()))
	r.Close()

	var missing *Redis
	assert.False(t, missing.Configured())
	assert.False(t, WrapRedis(nil).Configured())
}
