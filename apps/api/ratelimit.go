package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const redisLimiterKeyPrefix = "lostfound:ratelimit:"

// submissionLimiter counts submissions per key in fixed windows.
type submissionLimiter interface {
	Allow(ctx context.Context, key string, now time.Time) (bool, error)
}

type rateBucket struct {
	start time.Time
	count int
}

type memoryLimiter struct {
	maxRequests int
	window      time.Duration

	mu      sync.Mutex
	buckets map[string]rateBucket
}

func newMemoryLimiter(maxRequests int, window time.Duration) *memoryLimiter {
	return &memoryLimiter{
		maxRequests: maxRequests,
		window:      window,
		buckets:     make(map[string]rateBucket),
	}
}

func (l *memoryLimiter) Allow(_ context.Context, key string, now time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	bucket, ok := l.buckets[key]
	if !ok || now.Sub(bucket.start) >= l.window {
		l.buckets[key] = rateBucket{start: now, count: 1}
		return l.maxRequests >= 1, nil
	}
	bucket.count++
	l.buckets[key] = bucket
	return bucket.count <= l.maxRequests, nil
}

func (l *memoryLimiter) startCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				l.prune(now)
			}
		}
	}()
}

func (l *memoryLimiter) prune(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, bucket := range l.buckets {
		if now.Sub(bucket.start) >= l.window {
			delete(l.buckets, key)
		}
	}
}

// redisLimiter shares counters across instances. Each window gets its own
// key so the counter never needs resetting.
type redisLimiter struct {
	client      *redis.Client
	maxRequests int
	window      time.Duration
}

func newRedisLimiter(redisURL string, maxRequests int, window time.Duration) (*redisLimiter, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &redisLimiter{client: client, maxRequests: maxRequests, window: window}, nil
}

func redisWindowKey(key string, now time.Time, window time.Duration) string {
	windowSeconds := int64(window / time.Second)
	if windowSeconds < 1 {
		windowSeconds = 1
	}
	return fmt.Sprintf("%s%s:%d", redisLimiterKeyPrefix, key, now.Unix()/windowSeconds)
}

func (l *redisLimiter) Allow(ctx context.Context, key string, now time.Time) (bool, error) {
	pipe := l.client.Pipeline()
	incr := pipe.Incr(ctx, redisWindowKey(key, now, l.window))
	pipe.Expire(ctx, redisWindowKey(key, now, l.window), l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= int64(l.maxRequests), nil
}

func (l *redisLimiter) Close() error {
	return l.client.Close()
}

// allowSubmission fails open when the limiter backend errors.
func (a *App) allowSubmission(c *gin.Context, kind string) bool {
	if a.limiter == nil {
		return true
	}
	allowed, err := a.limiter.Allow(c.Request.Context(), kind+":"+c.ClientIP(), time.Now())
	if err != nil {
		a.log.Warn("rate limiter unavailable", "kind", kind, "err", err)
		return true
	}
	if !allowed {
		a.log.Info("submission rate limited", "kind", kind, "ip", c.ClientIP())
	}
	return allowed
}
