package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lostfound-api/internal/models"
)

type brokenCache struct{ deletes int }

func (b *brokenCache) Get(ctx context.Context, key string, dest interface{}) error {
	return errors.New("connection reset")
}

func (b *brokenCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return errors.New("connection reset")
}

func (b *brokenCache) Delete(ctx context.Context, keys ...string) error {
	b.deletes++
	return errors.New("connection reset")
}

func TestCacheServiceDegradesWhenStoreFails(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewCacheService(&brokenCache{}, metrics, time.Minute, nil, true)

	var stats models.ReportStats
	loads := 0
	hit, err := svc.Remember(context.Background(), "k", 0, &stats, func(ctx context.Context) error {
		loads++
		stats.Total = 4
		return nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, loads)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, uint64(1), metrics.Snapshot().CacheMisses)

	svc.Forget(context.Background(), "k")
}

func TestCacheServiceDisabledSkipsStore(t *testing.T) {
	store := &brokenCache{}
	svc := NewCacheService(store, nil, time.Minute, nil, false)
	assert.False(t, svc.Enabled())

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())

	loadErr := errors.New("db down")
	var stats models.ReportStats
	_, err := nilSvc.Remember(context.Background(), "k", 0, &stats, func(ctx context.Context) error { return loadErr })
	assert.ErrorIs(t, err, loadErr)

	svc.Forget(context.Background(), "k")
	assert.Equal(t, 0, store.deletes)
}
