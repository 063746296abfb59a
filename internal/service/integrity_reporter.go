package service

import (
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/noah-isme/lostfound-api/pkg/identity"
)

// IntegrityReporter surfaces identity reconciliation fallbacks. Each event is
// logged at error level, counted, and captured in Sentry when a hub is set.
type IntegrityReporter struct {
	logger  *zap.Logger
	metrics *MetricsService
	hub     *sentry.Hub
}

// NewIntegrityReporter constructs the reporter. hub may be nil.
func NewIntegrityReporter(logger *zap.Logger, metrics *MetricsService, hub *sentry.Hub) *IntegrityReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntegrityReporter{logger: logger, metrics: metrics, hub: hub}
}

// Report is an identity.WithIntegrityHook callback.
func (r *IntegrityReporter) Report(event identity.IntegrityEvent) {
	r.logger.Error("report id assigned at random",
		zap.String("native_key", event.NativeKey),
		zap.String("assigned_id", event.Assigned.String()),
		zap.Error(event.Err),
	)
	r.metrics.RecordIntegrityEvent()
	if r.hub == nil {
		return
	}
	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelError)
		scope.SetTag("component", "identity")
		scope.SetTag("native_key", event.NativeKey)
		scope.SetExtra("assigned_id", event.Assigned.String())
		r.hub.CaptureException(event.Err)
	})
}
