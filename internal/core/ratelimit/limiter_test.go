package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestMemory_PerKey(t *testing.T) {
	m := NewMemory(2, time.Hour)
	defer m.Close()
	ctx := context.Background()

	assert.True(t, m.Allow(ctx, "ip:1"))
	assert.True(t, m.Allow(ctx, "ip:1"))
	assert.False(t, m.Allow(ctx, "ip:1"))
	assert.True(t, m.Allow(ctx, "ip:2"), "other keys have their own bucket")
}

func TestMemory_SweepDropsIdleBuckets(t *testing.T) {
	m := NewMemory(1, time.Hour)
	defer m.Close()

	m.Allow(context.Background(), "ip:1")
	m.sweep(time.Now().Add(3 * time.Hour))

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Empty(t, m.buckets)
}

func newMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestRedis_FixedWindow(t *testing.T) {
	s := newMiniredis(t)
	ctx := context.Background()

	rdb, err := NewRedisClient(ctx, s.Addr(), "", 0)
	require.NoError(t, err)
	r := NewRedis(rdb, zaptest.NewLogger(t), 2, time.Minute)
	defer r.Close()

	assert.True(t, r.Allow(ctx, "ip:1"))
	assert.True(t, r.Allow(ctx, "ip:1"))
	assert.False(t, r.Allow(ctx, "ip:1"))
	assert.True(t, r.Allow(ctx, "ip:2"))

	ttl := s.TTL("registro:ratelimit:ip:1")
	assert.Equal(t, time.Minute, ttl)

	s.FastForward(time.Minute + time.Second)
	assert.True(t, r.Allow(ctx, "ip:1"), "window expired")
}

func TestRedis_FailsOpen(t *testing.T) {
	s := newMiniredis(t)
	ctx := context.Background()

	rdb, err := NewRedisClient(ctx, s.Addr(), "", 0)
	require.NoError(t, err)
	r := NewRedis(rdb, zaptest.NewLogger(t), 1, time.Minute)
	defer r.Close()

	s.SetError("LOADING")
	assert.True(t, r.Allow(ctx, "ip:1"))
	assert.True(t, r.Allow(ctx, "ip:1"))
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	s := newMiniredis(t)
	addr := s.Addr()
	s.Close()

	_, err := NewRedisClient(context.Background(), addr, "", 0)
	assert.Error(t, err)
}
