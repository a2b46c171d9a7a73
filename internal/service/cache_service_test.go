package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingCacheRepo struct{ err error }

func (f failingCacheRepo) Get(context.Context, string, interface{}) error { return f.err }
func (f failingCacheRepo) Set(context.Context, string, interface{}, time.Duration) error {
	return f.err
}
func (f failingCacheRepo) DeleteByPattern(context.Context, string) error { return f.err }

func TestCacheServiceKey(t *testing.T) {
	svc := NewCacheService(&memoryCacheRepo{}, nil, "performance", 0, nil, true)
	assert.Equal(t, "performance:student:s-1:summary", svc.Key("student", "s-1", "summary", ""))
	assert.Equal(t, "performance:student:a|b", svc.Key("student", "a:b"))

	var nilSvc *CacheService
	assert.Equal(t, "student:s-1", nilSvc.Key("student", "s-1"))
}

func TestEscapePattern(t *testing.T) {
	assert.Equal(t, "performance:student:s-1", EscapePattern("performance:student:s-1"))
	assert.Equal(t, `performance:student:\*`, EscapePattern("performance:student:*"))
	assert.Equal(t, `a\?b\[c\]d\\e`, EscapePattern(`a?b[c]d\e`))
}

func TestCacheServiceRoundTripRecordsMetrics(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewCacheService(&memoryCacheRepo{}, metrics, "performance", time.Minute, zap.NewNop(), true)
	ctx := context.Background()

	var dest []string
	hit, err := svc.Get(ctx, "k", &dest)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "k", []string{"a"}, 0))
	hit, err = svc.Get(ctx, "k", &dest)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"a"}, dest)

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.CacheHits)
	assert.Equal(t, uint64(1), snapshot.CacheMisses)
	assert.Equal(t, 0.5, snapshot.CacheHitRatio)
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := &memoryCacheRepo{}
	svc := NewCacheService(repo, nil, "performance", time.Minute, nil, false)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "k", 1, 0))
	assert.Empty(t, repo.store)
	hit, err := svc.Get(ctx, "k", new(int))
	require.NoError(t, err)
	assert.False(t, hit)
	require.NoError(t, svc.Invalidate(ctx, "*"))
	assert.Empty(t, repo.deleted)

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
}

func TestCacheServicePropagatesBackendErrors(t *testing.T) {
	boom := errors.New("redis down")
	svc := NewCacheService(failingCacheRepo{err: boom}, nil, "performance", time.Minute, zap.NewNop(), true)
	ctx := context.Background()

	_, err := svc.Get(ctx, "k", new(int))
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, svc.Set(ctx, "k", 1, 0), boom)
	assert.ErrorIs(t, svc.Invalidate(ctx, "*"), boom)
}
