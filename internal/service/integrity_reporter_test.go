package service

import (
	"errors"
	"hash"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/lostfound-api/pkg/identity"
)

type failingHash struct{ hash.Hash }

func (failingHash) Write([]byte) (int, error) { return 0, errors.New("digest unavailable") }

func TestIntegrityReporterReceivesReconcilerFallback(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	metrics := NewMetricsService()

	var captured []*sentry.Event
	client, err := sentry.NewClient(sentry.ClientOptions{
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			captured = append(captured, event)
			return nil
		},
	})
	require.NoError(t, err)
	hub := sentry.NewHub(client, sentry.NewScope())

	reporter := NewIntegrityReporter(zap.New(core), metrics, hub)
	reconciler := identity.NewReconciler(
		identity.WithHash(func() hash.Hash { return failingHash{} }),
		identity.WithIntegrityHook(reporter.Report),
	)

	id, source, err := reconciler.Reconcile("legacy-key", "")
	require.NoError(t, err)
	assert.Equal(t, identity.SourceRandom, source)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "legacy-key", entry.ContextMap()["native_key"])
	assert.Equal(t, id.String(), entry.ContextMap()["assigned_id"])
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.integrityEvents))
	require.Len(t, captured, 1)
	assert.Equal(t, "legacy-key", captured[0].Tags["native_key"])
}

func TestIntegrityReporterWithoutHub(t *testing.T) {
	reporter := NewIntegrityReporter(nil, nil, nil)
	assert.NotPanics(t, func() {
		reporter.Report(identity.IntegrityEvent{NativeKey: "k", Err: errors.New("x")})
	})
}
