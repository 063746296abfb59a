package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lostfound-api/internal/models"
	appErrors "github.com/noah-isme/lostfound-api/pkg/errors"
)

type countStoreStub struct {
	counts   []models.ReportCount
	err      error
	calls    int
	statuses []models.ReportStatus
}

func (c *countStoreStub) CountVisible(ctx context.Context, statuses []models.ReportStatus) ([]models.ReportCount, error) {
	c.calls++
	c.statuses = statuses
	return c.counts, c.err
}

type memoryCache struct {
	values  map[string]interface{}
	deleted []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: make(map[string]interface{})}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	v, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	stats, ok := v.(*models.ReportStats)
	if !ok {
		return errors.New("unexpected cached type")
	}
	*(dest.(*models.ReportStats)) = *stats
	return nil
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if stats, ok := value.(*models.ReportStats); ok {
		copied := *stats
		value = &copied
	}
	m.values[key] = value
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
		m.deleted = append(m.deleted, key)
	}
	return nil
}

func sampleCounts() []models.ReportCount {
	return []models.ReportCount{
		{Category: "Electronics", Building: "Library", Count: 2},
		{Category: "Electronics", Building: "", Count: 1},
		{Category: "Bags", Building: "Library", Count: 3},
		{Category: "", Building: " ", Count: 1},
	}
}

func TestStatsServiceAggregatesWithUnspecifiedBucket(t *testing.T) {
	store := &countStoreStub{counts: sampleCounts()}
	svc := NewStatsService(store, nil, time.Minute, nil)

	stats, err := svc.Stats(context.Background(), adminActor)
	require.NoError(t, err)
	assert.Equal(t, 7, stats.Total)
	assert.Equal(t, map[string]int{"Electronics": 3, "Bags": 3, models.UnspecifiedBucket: 1}, stats.ByCategory)
	assert.Equal(t, map[string]int{"Library": 5, models.UnspecifiedBucket: 2}, stats.ByLocation)
	assert.Equal(t, []models.ReportStatus{models.ReportStatusApproved, models.ReportStatusResolved}, store.statuses)
}

func TestStatsServiceRequiresAdmin(t *testing.T) {
	svc := NewStatsService(&countStoreStub{}, nil, time.Minute, nil)
	_, err := svc.Stats(context.Background(), creatorActor)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.ExportStats(context.Background(), "xlsx", creatorActor)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestStatsServiceUsesCacheUntilInvalidated(t *testing.T) {
	store := &countStoreStub{counts: sampleCounts()}
	mem := newMemoryCache()
	cacheSvc := NewCacheService(mem, nil, time.Minute, nil, true)
	svc := NewStatsService(store, cacheSvc, time.Minute, nil)

	first, err := svc.Stats(context.Background(), adminActor)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	second, err := svc.Stats(context.Background(), adminActor)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Total, second.Total)
	assert.Equal(t, 1, store.calls)

	svc.Invalidate(context.Background())
	assert.Equal(t, []string{statsCacheKey}, mem.deleted)
	_, err = svc.Stats(context.Background(), adminActor)
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)
}

func TestStatsServiceExport(t *testing.T) {
	svc := NewStatsService(&countStoreStub{counts: sampleCounts()}, nil, time.Minute, nil)
	svc.now = func() time.Time { return time.Date(2025, 12, 3, 0, 0, 0, 0, time.UTC) }

	csvOut, err := svc.ExportStats(context.Background(), "csv", adminActor)
	require.NoError(t, err)
	assert.Equal(t, "report-stats-20251203.csv", csvOut.Filename)
	lines := strings.Split(strings.TrimSpace(string(csvOut.Body)), "\n")
	assert.Equal(t, "Group,Name,Count", lines[0])
	assert.Equal(t, "category,Bags,3", lines[1])
	assert.Equal(t, "category,Electronics,3", lines[2])
	assert.Equal(t, "total,all,7", lines[len(lines)-1])

	pdfOut, err := svc.ExportStats(context.Background(), "pdf", adminActor)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdfOut.ContentType)
	assert.True(t, bytes.HasPrefix(pdfOut.Body, []byte("%PDF")))

	_, err = svc.ExportStats(context.Background(), "xlsx", adminActor)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestStatsServiceStoreFailure(t *testing.T) {
	svc := NewStatsService(&countStoreStub{err: errors.New("boom")}, nil, time.Minute, nil)
	_, err := svc.Stats(context.Background(), adminActor)
	assert.ErrorIs(t, err, appErrors.ErrRepository)
}
