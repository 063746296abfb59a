package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lostfound-api/internal/models"
	"github.com/noah-isme/lostfound-api/pkg/cache"
	appErrors "github.com/noah-isme/lostfound-api/pkg/errors"
	"github.com/noah-isme/lostfound-api/pkg/export"
)

var statsCacheKey = cache.Key("stats", "reports")

type countStore interface {
	CountVisible(ctx context.Context, statuses []models.ReportStatus) ([]models.ReportCount, error)
}

// StatsExport is a rendered stats file.
type StatsExport struct {
	Filename    string
	ContentType string
	Body        []byte
}

// StatsService aggregates publicly visible reports for the admin dashboard.
type StatsService struct {
	store  countStore
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewStatsService constructs the service. cacheSvc may be nil.
func NewStatsService(store countStore, cacheSvc *CacheService, ttl time.Duration, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{store: store, cache: cacheSvc, ttl: ttl, logger: logger, now: time.Now}
}

// Stats counts approved and resolved reports by category and by building.
func (s *StatsService) Stats(ctx context.Context, actor *models.Actor) (*models.ReportStats, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	var stats models.ReportStats
	hit, err := s.cache.Remember(ctx, statsCacheKey, s.ttl, &stats, func(ctx context.Context) error {
		counts, err := s.store.CountVisible(ctx, publicStatuses)
		if err != nil {
			return repositoryError(err, "failed to compute report stats")
		}
		stats = *aggregateStats(counts, s.now().UTC())
		return nil
	})
	if err != nil {
		return nil, err
	}
	stats.Cached = hit
	return &stats, nil
}

// ExportStats renders Stats as csv or pdf.
func (s *StatsService) ExportStats(ctx context.Context, format string, actor *models.Actor) (*StatsExport, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	exporter, err := export.ForFormat(format)
	if err != nil {
		return nil, appErrors.Validation("format", "format must be csv or pdf")
	}
	stats, err := s.Stats(ctx, actor)
	if err != nil {
		return nil, err
	}
	body, err := exporter.Render(statsDataset(stats))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render stats export")
	}
	return &StatsExport{
		Filename:    fmt.Sprintf("report-stats-%s.%s", stats.GeneratedAt.Format("20060102"), exporter.Extension()),
		ContentType: exporter.ContentType(),
		Body:        body,
	}, nil
}

// Invalidate drops the cached stats.
func (s *StatsService) Invalidate(ctx context.Context) {
	s.cache.Forget(ctx, statsCacheKey)
}

func aggregateStats(counts []models.ReportCount, now time.Time) *models.ReportStats {
	stats := &models.ReportStats{
		ByCategory:  make(map[string]int),
		ByLocation:  make(map[string]int),
		GeneratedAt: now,
	}
	for _, c := range counts {
		if c.Count <= 0 {
			continue
		}
		stats.Total += c.Count
		stats.ByCategory[bucket(c.Category)] += c.Count
		stats.ByLocation[bucket(c.Building)] += c.Count
	}
	return stats
}

func bucket(value string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return models.UnspecifiedBucket
}

func statsDataset(stats *models.ReportStats) export.Dataset {
	data := export.Dataset{
		Title:       "Lost & Found report statistics",
		GeneratedAt: stats.GeneratedAt,
		Headers:     []string{"Group", "Name", "Count"},
	}
	appendGroup := func(group string, counts map[string]int) {
		names := make([]string, 0, len(counts))
		for name := range counts {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			if counts[names[i]] != counts[names[j]] {
				return counts[names[i]] > counts[names[j]]
			}
			return names[i] < names[j]
		})
		for _, name := range names {
			data.Rows = append(data.Rows, map[string]string{
				"Group": group,
				"Name":  name,
				"Count": strconv.Itoa(counts[name]),
			})
		}
	}
	appendGroup("category", stats.ByCategory)
	appendGroup("location", stats.ByLocation)
	data.Rows = append(data.Rows, map[string]string{"Group": "total", "Name": "all", "Count": strconv.Itoa(stats.Total)})
	return data
}
