package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/lostfound-api/internal/models"
	"github.com/noah-isme/lostfound-api/pkg/jobs"
)

const moderationJobKind = "moderation_event"

type auditStore interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ModerationRecorder writes lifecycle events to the audit trail off the request
// path. Events that cannot be queued are logged and counted, never retried
// inline.
type ModerationRecorder struct {
	store   auditStore
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewModerationRecorder builds a recorder backed by a worker queue.
func NewModerationRecorder(store auditStore, cfg jobs.QueueConfig, metrics *MetricsService, logger *zap.Logger) *ModerationRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &ModerationRecorder{store: store, metrics: metrics, logger: logger}
	cfg.Logger = logger
	r.queue = jobs.NewQueue("audit", r.handle, cfg)
	return r
}

// Start launches the audit workers.
func (r *ModerationRecorder) Start(ctx context.Context) {
	r.queue.Start(ctx)
}

// Stop drains queued events and stops the workers.
func (r *ModerationRecorder) Stop() {
	r.queue.Stop()
}

// Record queues event without blocking.
func (r *ModerationRecorder) Record(event models.ModerationEvent) {
	if r == nil {
		return
	}
	err := r.queue.Enqueue(jobs.Job{
		ID:      fmt.Sprintf("%s:%s:%d", event.ReportID, event.Action, event.OccurredAt.UnixNano()),
		Kind:    moderationJobKind,
		Payload: event,
	})
	if err != nil {
		r.metrics.RecordAuditDropped()
		r.logger.Warn("audit event dropped",
			zap.String("report_id", event.ReportID),
			zap.String("action", event.Action),
			zap.Error(err),
		)
	}
}

func (r *ModerationRecorder) handle(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(models.ModerationEvent)
	if !ok {
		r.logger.Error("unexpected audit payload", zap.String("job_id", job.ID), zap.String("kind", job.Kind))
		return nil
	}
	return r.store.CreateAuditLog(ctx, auditLogFor(event))
}

func auditLogFor(event models.ModerationEvent) *models.AuditLog {
	log := &models.AuditLog{
		ActorEmail: event.ActorEmail,
		Action:     event.Action,
		ReportID:   event.ReportID,
		CreatedAt:  event.OccurredAt.UTC(),
	}
	if event.From != "" {
		from := string(event.From)
		log.FromStatus = &from
	}
	if event.To != "" {
		to := string(event.To)
		log.ToStatus = &to
	}
	if event.RequestID != "" {
		details, err := json.Marshal(map[string]string{"requestId": event.RequestID})
		if err == nil {
			log.Details = details
		}
	}
	return log
}
