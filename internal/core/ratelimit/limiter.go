package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter 按 key（通常是客户端 IP）限流
type Limiter interface {
	Allow(ctx context.Context, key string) bool
	Close() error
}

// Memory 单进程令牌桶，每个 key 一个桶
type Memory struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	every   rate.Limit
	burst   int
	idle    time.Duration
	stop    chan struct{}
	once    sync.Once
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewMemory 每个 key 在 window 内最多 limit 次（平滑补充）
func NewMemory(limit int, window time.Duration) *Memory {
	if window <= 0 {
		window = time.Minute
	}
	m := &Memory{
		buckets: make(map[string]*bucket),
		every:   rate.Every(window / time.Duration(max(1, limit))),
		burst:   max(1, limit),
		idle:    2 * window,
		stop:    make(chan struct{}),
	}
	go m.sweepLoop()
	return m
}

func (m *Memory) Allow(_ context.Context, key string) bool {
	now := time.Now()
	m.mu.Lock()
	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(m.every, m.burst)}
		m.buckets[key] = b
	}
	b.seen = now
	m.mu.Unlock()
	return b.lim.AllowN(now, 1)
}

func (m *Memory) sweepLoop() {
	t := time.NewTicker(m.idle)
	defer t.Stop()
	for {
		select {
		case now := <-t.C:
			m.sweep(now)
		case <-m.stop:
			return
		}
	}
}

func (m *Memory) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, b := range m.buckets {
		if now.Sub(b.seen) > m.idle {
			delete(m.buckets, k)
		}
	}
}

func (m *Memory) Close() error {
	m.once.Do(func() { close(m.stop) })
	return nil
}
