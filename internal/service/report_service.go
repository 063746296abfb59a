package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lostfound-api/internal/dto"
	"github.com/noah-isme/lostfound-api/internal/models"
	"github.com/noah-isme/lostfound-api/internal/repository"
	appErrors "github.com/noah-isme/lostfound-api/pkg/errors"
	"github.com/noah-isme/lostfound-api/pkg/middleware/requestid"
)

type reportStore interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id string) (*models.Report, error)
	List(ctx context.Context, filter models.ReportFilter) ([]models.Report, error)
	UpdateStatus(ctx context.Context, params repository.UpdateReportStatusParams) error
	Delete(ctx context.Context, docKey string) error
}

type moderationSink interface {
	Record(event models.ModerationEvent)
}

type statsInvalidator interface {
	Invalidate(ctx context.Context)
}

// ReportService owns the report lifecycle: submission, reads scoped by
// visibility, moderation transitions and admin deletion.
type ReportService struct {
	repo      reportStore
	validator *ReportValidator
	recorder  moderationSink
	stats     statsInvalidator
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// ReportServiceOption customises the service.
type ReportServiceOption func(*ReportService)

// WithModerationSink receives submit, transition and delete events.
func WithModerationSink(sink moderationSink) ReportServiceOption {
	return func(s *ReportService) {
		if sink != nil {
			s.recorder = sink
		}
	}
}

// WithStatsInvalidator is told whenever publicly visible data may have changed.
func WithStatsInvalidator(inv statsInvalidator) ReportServiceOption {
	return func(s *ReportService) {
		if inv != nil {
			s.stats = inv
		}
	}
}

// WithReportMetrics attaches Prometheus counters.
func WithReportMetrics(metrics *MetricsService) ReportServiceOption {
	return func(s *ReportService) {
		s.metrics = metrics
	}
}

// WithClock overrides the time source used for review and update stamps.
func WithClock(now func() time.Time) ReportServiceOption {
	return func(s *ReportService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewReportService constructs the service.
func NewReportService(repo reportStore, validator *ReportValidator, logger *zap.Logger, opts ...ReportServiceOption) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validator == nil {
		validator = NewReportValidator(nil)
	}
	svc := &ReportService{
		repo:      repo,
		validator: validator,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// SubmitReport validates a draft and stores it as pending.
func (s *ReportService) SubmitReport(ctx context.Context, req dto.CreateReportRequest, actor *models.Actor) (*models.Report, error) {
	report, err := s.validator.Build(req, actor)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, repositoryError(err, "failed to create report")
	}
	s.metrics.RecordSubmission()
	s.record(ctx, models.AuditActionReportSubmit, actor, report.ID, "", models.ReportStatusPending)
	s.logger.Info("report submitted",
		zap.String("report_id", report.ID),
		zap.String("type", string(report.Type)),
		zap.String("category", string(report.Category)),
	)
	return report, nil
}

// GetReport returns a single report. Records the actor cannot see are reported
// as not found.
func (s *ReportService) GetReport(ctx context.Context, id string, actor *models.Actor) (*models.Report, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin || report.CreatedBy(actor.Email) || PublicVisibility().Allows(report) {
		return report, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
}

// Transition parses target and applies it. "rejected" is accepted as denied.
func (s *ReportService) Transition(ctx context.Context, id, target string, actor *models.Actor) (*models.Report, error) {
	status, ok := models.ParseReportStatus(target)
	if !ok {
		return nil, appErrors.Validation("status", "status must be one of pending, approved, denied, resolved, closed")
	}
	return s.TransitionTo(ctx, id, status, actor)
}

// TransitionTo moves a report to target after a fresh read. The write is
// conditional on the status that was read; if another writer got there first
// the record is re-read and the conflict reported against its current state.
func (s *ReportService) TransitionTo(ctx context.Context, id string, target models.ReportStatus, actor *models.Actor) (*models.Report, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	from := report.Status

	params, err := PlanTransition(report, target, actor, s.now())
	if err != nil {
		s.metrics.RecordTransition(from, target, errorCode(err))
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, params); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, repositoryError(err, "failed to update report status")
		}
		current, loadErr := s.load(ctx, id)
		if loadErr != nil {
			return nil, loadErr
		}
		s.metrics.RecordTransition(from, target, appErrors.ErrInvalidTransition.Code)
		return nil, appErrors.InvalidTransition(string(current.Status), string(target))
	}

	ApplyTransition(report, params)
	s.metrics.RecordTransition(from, target, "ok")
	s.record(ctx, models.AuditActionReportTransition, actor, report.ID, from, target)
	s.invalidateStats(ctx)
	s.logger.Info("report transitioned",
		zap.String("report_id", report.ID),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
		zap.String("actor", actor.Email),
	)
	return report, nil
}

// DeleteReport hard-deletes a report. Only administrators may delete and the
// state machine is bypassed.
func (s *ReportService) DeleteReport(ctx context.Context, id string, actor *models.Actor) (*models.Report, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, report.DocKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, repositoryError(err, "failed to delete report")
	}
	s.record(ctx, models.AuditActionReportDelete, actor, report.ID, report.Status, "")
	s.invalidateStats(ctx)
	s.logger.Info("report deleted", zap.String("report_id", report.ID), zap.String("actor", actor.Email))
	return report, nil
}

// Search lists publicly visible reports matching the optional category and
// free text.
func (s *ReportService) Search(ctx context.Context, query dto.SearchQuery, actor *models.Actor) ([]models.Report, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	criteria := Criteria{FreeText: query.Query, Visibility: PublicVisibility()}
	if raw := strings.TrimSpace(query.Category); raw != "" {
		category, ok := models.ParseReportCategory(raw)
		if !ok {
			return nil, appErrors.Validation("category", "category is not one of the supported categories")
		}
		criteria.Category = &category
	}
	return s.list(ctx, criteria)
}

// MyReports lists every report the actor submitted, in any status.
func (s *ReportService) MyReports(ctx context.Context, actor *models.Actor) ([]models.Report, error) {
	if actor == nil || strings.TrimSpace(actor.Email) == "" {
		return nil, appErrors.ErrUnauthorized
	}
	return s.list(ctx, Criteria{Visibility: OwnerVisibility(actor.Email)})
}

// PendingQueue lists reports awaiting moderation.
func (s *ReportService) PendingQueue(ctx context.Context, actor *models.Actor) ([]models.Report, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.list(ctx, Criteria{Visibility: PendingQueueVisibility()})
}

// ModerationList lists reports in the given statuses for administrators.
// Without statuses it lists approved reports.
func (s *ReportService) ModerationList(ctx context.Context, statuses []string, actor *models.Actor) ([]models.Report, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	parsed := make([]models.ReportStatus, 0, len(statuses))
	seen := make(map[models.ReportStatus]struct{}, len(statuses))
	for _, raw := range statuses {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		status, ok := models.ParseReportStatus(raw)
		if !ok {
			return nil, appErrors.Validation("status", "unknown status "+strings.TrimSpace(raw))
		}
		if _, dup := seen[status]; dup {
			continue
		}
		seen[status] = struct{}{}
		parsed = append(parsed, status)
	}
	if len(parsed) == 0 {
		parsed = append(parsed, models.ReportStatusApproved)
	}
	return s.list(ctx, Criteria{Visibility: ModerationVisibility(parsed...)})
}

func (s *ReportService) list(ctx context.Context, criteria Criteria) ([]models.Report, error) {
	reports, err := s.repo.List(ctx, criteria.Filter())
	if err != nil {
		return nil, repositoryError(err, "failed to list reports")
	}
	return SearchReports(reports, criteria), nil
}

func (s *ReportService) load(ctx context.Context, id string) (*models.Report, error) {
	if strings.TrimSpace(id) == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
	}
	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, repositoryError(err, "failed to load report")
	}
	return report, nil
}

func (s *ReportService) record(ctx context.Context, action string, actor *models.Actor, reportID string, from, to models.ReportStatus) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(models.ModerationEvent{
		Action:     action,
		ActorEmail: actor.Email,
		ReportID:   reportID,
		From:       from,
		To:         to,
		OccurredAt: s.now().UTC(),
		RequestID:  requestid.FromContext(ctx),
	})
}

func (s *ReportService) invalidateStats(ctx context.Context) {
	if s.stats != nil {
		s.stats.Invalidate(ctx)
	}
}

func requireAdmin(actor *models.Actor) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if !actor.IsAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "administrator access required")
	}
	return nil
}

// repositoryError keeps typed domain errors such as conflicts and wraps
// everything else, including decode failures, as an opaque repository error.
func repositoryError(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) && appErr.Code != appErrors.ErrDecode.Code {
		return appErr
	}
	return appErrors.Repository(err, message)
}

func errorCode(err error) string {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return appErrors.ErrInternal.Code
}
