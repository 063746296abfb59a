package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/lostfound-api/internal/models"
	appErrors "github.com/noah-isme/lostfound-api/pkg/errors"
)

type expiryStore interface {
	List(ctx context.Context, filter models.ReportFilter) ([]models.Report, error)
}

type reportTransitioner interface {
	TransitionTo(ctx context.Context, id string, target models.ReportStatus, actor *models.Actor) (*models.Report, error)
}

// ExpiryConfig controls the approved -> closed sweeper.
type ExpiryConfig struct {
	Schedule   string
	CloseAfter time.Duration
	BatchSize  int
	RunTimeout time.Duration
}

// ExpiryService closes approved reports that stayed open longer than
// CloseAfter. It acts as the system actor, the only one allowed to close.
type ExpiryService struct {
	store        expiryStore
	transitioner reportTransitioner
	config       ExpiryConfig
	metrics      *MetricsService
	logger       *zap.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// NewExpiryService constructs the sweeper.
func NewExpiryService(store expiryStore, transitioner reportTransitioner, cfg ExpiryConfig, metrics *MetricsService, logger *zap.Logger) *ExpiryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "@hourly"
	}
	if cfg.CloseAfter <= 0 {
		cfg.CloseAfter = 30 * 24 * time.Hour
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 2 * time.Minute
	}
	return &ExpiryService{store: store, transitioner: transitioner, config: cfg, metrics: metrics, logger: logger}
}

// CloseExpired closes one batch of approved reports created before
// now-CloseAfter and returns how many were closed. Reports that another actor
// moved in the meantime are skipped.
func (s *ExpiryService) CloseExpired(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.UTC().Add(-s.config.CloseAfter)
	candidates, err := s.store.List(ctx, models.ReportFilter{
		Statuses:      []models.ReportStatus{models.ReportStatusApproved},
		CreatedBefore: &cutoff,
		Limit:         s.config.BatchSize,
	})
	if err != nil {
		return 0, repositoryError(err, "failed to list expirable reports")
	}

	closed := 0
	var firstErr error
	for _, report := range candidates {
		if report.Status != models.ReportStatusApproved || !report.CreatedAt.Before(cutoff) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return closed, err
		}
		_, err := s.transitioner.TransitionTo(ctx, report.ID, models.ReportStatusClosed, models.SystemActor())
		switch {
		case err == nil:
			closed++
		case errors.Is(err, appErrors.ErrInvalidTransition), errors.Is(err, appErrors.ErrNotFound):
			s.logger.Debug("expiry skipped report", zap.String("report_id", report.ID), zap.Error(err))
		default:
			s.logger.Warn("expiry failed to close report", zap.String("report_id", report.ID), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	s.metrics.RecordExpired(closed)
	if closed > 0 {
		s.logger.Info("expired reports closed", zap.Int("count", closed), zap.Time("cutoff", cutoff))
	}
	return closed, firstErr
}

// Start schedules CloseExpired on the configured cron spec.
func (s *ExpiryService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(s.config.Schedule, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("schedule expiry %q: %w", s.config.Schedule, err)
	}
	c.Start()
	s.cron = c
	s.logger.Info("expiry scheduler started",
		zap.String("schedule", s.config.Schedule),
		zap.Duration("close_after", s.config.CloseAfter),
	)
	return nil
}

// Stop waits for a running sweep to finish.
func (s *ExpiryService) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
	s.logger.Info("expiry scheduler stopped")
}

func (s *ExpiryService) run(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, s.config.RunTimeout)
	defer cancel()
	if _, err := s.CloseExpired(ctx, time.Now()); err != nil {
		s.logger.Error("expiry run failed", zap.Error(err))
	}
}
