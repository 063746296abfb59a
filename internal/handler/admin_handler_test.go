package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lostfound-api/internal/dto"
	"github.com/noah-isme/lostfound-api/internal/middleware"
	"github.com/noah-isme/lostfound-api/internal/models"
	"github.com/noah-isme/lostfound-api/internal/service"
	appErrors "github.com/noah-isme/lostfound-api/pkg/errors"
)

type moderationServiceMock struct {
	statuses []string
	target   models.ReportStatus
	id       string
	report   *models.Report
	reports  []models.Report
	err      error
}

func (m *moderationServiceMock) PendingQueue(ctx context.Context, actor *models.Actor) ([]models.Report, error) {
	return m.reports, m.err
}

func (m *moderationServiceMock) ModerationList(ctx context.Context, statuses []string, actor *models.Actor) ([]models.Report, error) {
	m.statuses = statuses
	return m.reports, m.err
}

func (m *moderationServiceMock) TransitionTo(ctx context.Context, id string, target models.ReportStatus, actor *models.Actor) (*models.Report, error) {
	m.id = id
	m.target = target
	return m.report, m.err
}

func (m *moderationServiceMock) DeleteReport(ctx context.Context, id string, actor *models.Actor) (*models.Report, error) {
	m.id = id
	return m.report, m.err
}

type statsServiceMock struct {
	stats  *models.ReportStats
	export *service.StatsExport
	format string
	err    error
}

func (m *statsServiceMock) Stats(ctx context.Context, actor *models.Actor) (*models.ReportStats, error) {
	return m.stats, m.err
}

func (m *statsServiceMock) ExportStats(ctx context.Context, format string, actor *models.Actor) (*service.StatsExport, error) {
	m.format = format
	return m.export, m.err
}

func TestAdminHandlerPending(t *testing.T) {
	svc := &moderationServiceMock{reports: []models.Report{*sampleReport(models.ReportStatusPending)}}
	handler := NewAdminHandler(svc, &statsServiceMock{})
	c, w := newGinContext(http.MethodGet, "/admin/reports/pending", nil)
	c.Set(middleware.ContextUserKey, moderator)

	handler.Pending(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decodeEnvelope(t, w).Meta["count"])
}

func TestAdminHandlerListSplitsStatuses(t *testing.T) {
	svc := &moderationServiceMock{}
	handler := NewAdminHandler(svc, &statsServiceMock{})
	c, w := newGinContext(http.MethodGet, "/admin/reports?status=approved,%20rejected&status=closed", nil)
	c.Set(middleware.ContextUserKey, moderator)

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"approved", "rejected", "closed"}, svc.statuses)
}

func TestAdminHandlerTransitions(t *testing.T) {
	cases := []struct {
		name   string
		call   func(*AdminHandler, *gin.Context)
		target models.ReportStatus
	}{
		{name: "approve", call: (*AdminHandler).Approve, target: models.ReportStatusApproved},
		{name: "deny", call: (*AdminHandler).Deny, target: models.ReportStatusDenied},
		{name: "resolve", call: (*AdminHandler).Resolve, target: models.ReportStatusResolved},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &moderationServiceMock{report: sampleReport(tc.target)}
			handler := NewAdminHandler(svc, &statsServiceMock{})
			c, w := newGinContext(http.MethodPost, "/admin/reports/r1/"+tc.name, nil)
			c.Params = gin.Params{{Key: "id", Value: "r1"}}
			c.Set(middleware.ContextUserKey, moderator)

			tc.call(handler, c)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tc.target, svc.target)
			assert.Equal(t, "r1", svc.id)
		})
	}
}

func TestAdminHandlerForbiddenFromService(t *testing.T) {
	svc := &moderationServiceMock{err: appErrors.Clone(appErrors.ErrForbidden, "administrator access required")}
	handler := NewAdminHandler(svc, &statsServiceMock{})
	c, w := newGinContext(http.MethodPost, "/admin/reports/r1/approve", nil)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	c.Set(middleware.ContextUserKey, studentActor)

	handler.Approve(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminHandlerDelete(t *testing.T) {
	svc := &moderationServiceMock{report: sampleReport(models.ReportStatusApproved)}
	handler := NewAdminHandler(svc, &statsServiceMock{})
	c, w := newGinContext(http.MethodDelete, "/admin/reports/r1", nil)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	c.Set(middleware.ContextUserKey, moderator)

	handler.Delete(c)
	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.DeleteResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &resp))
	assert.Equal(t, dto.DeleteResponse{Success: true, ID: sampleReport(models.ReportStatusApproved).ID}, resp)
}

func TestAdminHandlerStatsReportsCacheHit(t *testing.T) {
	stats := &models.ReportStats{Total: 2, ByCategory: map[string]int{"Bags": 2}, ByLocation: map[string]int{"Library": 2}, Cached: true}
	handler := NewAdminHandler(&moderationServiceMock{}, &statsServiceMock{stats: stats})
	c, w := newGinContext(http.MethodGet, "/admin/stats", nil)
	c.Set(middleware.ContextUserKey, moderator)

	handler.Stats(c)
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.NotContains(t, string(env.Data), "Cached")
}

func TestAdminHandlerExportStats(t *testing.T) {
	stats := &statsServiceMock{export: &service.StatsExport{Filename: "report-stats-20251203.csv", ContentType: "text/csv", Body: []byte("Group,Name,Count\n")}}
	handler := NewAdminHandler(&moderationServiceMock{}, stats)
	c, w := newGinContext(http.MethodGet, "/admin/stats/export", nil)
	c.Set(middleware.ContextUserKey, moderator)

	handler.ExportStats(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", stats.format)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "report-stats-20251203.csv")
	assert.Equal(t, "Group,Name,Count\n", w.Body.String())

	stats.err = errors.New("render failed")
	c, w = newGinContext(http.MethodGet, "/admin/stats/export?format=pdf", nil)
	c.Set(middleware.ContextUserKey, moderator)
	handler.ExportStats(c)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "pdf", stats.format)
}
