package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string, time.Time) (bool, error) {
	return false, errors.New("backend down")
}

func TestMemoryLimiterAllowsUpToLimitPerWindow(t *testing.T) {
	limiter := newMemoryLimiter(2, time.Minute)
	now := time.Now()
	ctx := context.Background()

	for i, want := range []bool{true, true, false} {
		allowed, err := limiter.Allow(ctx, "report:1.2.3.4", now.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		assert.Equal(t, want, allowed, "request %d", i+1)
	}

	allowed, err := limiter.Allow(ctx, "report:5.6.7.8", now)
	require.NoError(t, err)
	assert.True(t, allowed, "other keys have their own bucket")

	allowed, err = limiter.Allow(ctx, "report:1.2.3.4", now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, allowed, "a new window resets the count")
}

func TestMemoryLimiterPruneRemovesExpiredBuckets(t *testing.T) {
	now := time.Now()
	limiter := newMemoryLimiter(8, 5*time.Minute)
	limiter.buckets["stale"] = rateBucket{start: now.Add(-5 * time.Minute), count: 8}
	limiter.buckets["recent"] = rateBucket{start: now.Add(-time.Minute), count: 2}

	limiter.prune(now)

	if _, ok := limiter.buckets["stale"]; ok {
		t.Fatal("expected stale rate bucket to be pruned")
	}
	if _, ok := limiter.buckets["recent"]; !ok {
		t.Fatal("expected recent rate bucket to remain")
	}
}

func TestRedisWindowKey(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	assert.Equal(t, "lostfound:ratelimit:comment:10.0.0.1:5666666", redisWindowKey("comment:10.0.0.1", now, 5*time.Minute))
	assert.Equal(t, redisWindowKey("k", now, 5*time.Minute), redisWindowKey("k", now.Add(10*time.Second), 5*time.Minute))
	assert.Equal(t, "lostfound:ratelimit:k:1700000000", redisWindowKey("k", now, 0))
}

func TestNewRedisLimiterRejectsInvalidURL(t *testing.T) {
	_, err := newRedisLimiter("not-a-redis-url", 8, time.Minute)
	assert.Error(t, err)
}

func TestAllowSubmissionFailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app := &App{log: discardLogger(), limiter: failingLimiter{}}

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/report/new", nil)

	assert.True(t, app.allowSubmission(c, submissionKindReport))

	app.limiter = nil
	assert.True(t, app.allowSubmission(c, submissionKindReport))
}
