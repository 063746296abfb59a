package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lostfound-api/internal/dto"
	"github.com/noah-isme/lostfound-api/internal/middleware"
	"github.com/noah-isme/lostfound-api/internal/models"
	appErrors "github.com/noah-isme/lostfound-api/pkg/errors"
)

var (
	studentActor = &models.Actor{Email: "owner@wit.edu", Name: "Owner"}
	moderator    = &models.Actor{Email: "admin@wit.edu", Name: "Admin", IsAdmin: true}
)

type reportServiceMock struct {
	submitted  dto.CreateReportRequest
	search     dto.SearchQuery
	transition string
	id         string
	report     *models.Report
	reports    []models.Report
	err        error
}

func (m *reportServiceMock) SubmitReport(ctx context.Context, req dto.CreateReportRequest, actor *models.Actor) (*models.Report, error) {
	m.submitted = req
	return m.report, m.err
}

func (m *reportServiceMock) GetReport(ctx context.Context, id string, actor *models.Actor) (*models.Report, error) {
	m.id = id
	return m.report, m.err
}

func (m *reportServiceMock) Transition(ctx context.Context, id, target string, actor *models.Actor) (*models.Report, error) {
	m.id = id
	m.transition = target
	return m.report, m.err
}

func (m *reportServiceMock) Search(ctx context.Context, query dto.SearchQuery, actor *models.Actor) ([]models.Report, error) {
	m.search = query
	return m.reports, m.err
}

func (m *reportServiceMock) MyReports(ctx context.Context, actor *models.Actor) ([]models.Report, error) {
	return m.reports, m.err
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func sampleReport(status models.ReportStatus) *models.Report {
	return &models.Report{
		ID:             "9a1f6f0e-4f5e-4bb2-9d57-3f1c2f6f9d10",
		Type:           models.ReportTypeFound,
		Category:       models.CategoryElectronics,
		Title:          "HP Pavilion Laptop",
		CreatedByName:  "Owner",
		CreatedByEmail: "owner@wit.edu",
		CreatedAt:      time.Date(2025, 11, 2, 10, 0, 0, 0, time.UTC),
		Status:         status,
	}
}

func TestReportHandlerSubmit(t *testing.T) {
	svc := &reportServiceMock{report: sampleReport(models.ReportStatusPending)}
	handler := NewReportHandler(svc)

	payload, _ := json.Marshal(map[string]interface{}{
		"type":           "found",
		"category":       "Electronics",
		"title":          "HP Pavilion Laptop",
		"createdByPhone": "6175551200",
		"createdByEmail": "spoofed@wit.edu",
	})
	c, w := newGinContext(http.MethodPost, "/reports", payload)
	c.Set(middleware.ContextUserKey, studentActor)

	handler.Submit(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "HP Pavilion Laptop", svc.submitted.Title)
	assert.Equal(t, "6175551200", svc.submitted.CreatedByPhone)

	var report models.Report
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &report))
	assert.Equal(t, models.ReportStatusPending, report.Status)
}

func TestReportHandlerSubmitRejectsBadJSON(t *testing.T) {
	handler := NewReportHandler(&reportServiceMock{})
	c, w := newGinContext(http.MethodPost, "/reports", []byte("{"))
	c.Set(middleware.ContextUserKey, studentActor)

	handler.Submit(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decodeEnvelope(t, w).Error.Code)
}

func TestReportHandlerSubmitTypeMismatchNamesField(t *testing.T) {
	svc := &reportServiceMock{}
	handler := NewReportHandler(svc)
	payload := []byte(`{"type":"lost","category":"Bags","title":"Bag","createdByPhone":6175551200}`)
	c, w := newGinContext(http.MethodPost, "/reports", payload)
	c.Set(middleware.ContextUserKey, studentActor)

	handler.Submit(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, appErrors.ErrValidation.Code, env.Error.Code)
	assert.Equal(t, "createdByPhone", env.Error.Field)
	assert.Empty(t, svc.submitted.Title)
}

func TestReportHandlerRequiresActor(t *testing.T) {
	handler := NewReportHandler(&reportServiceMock{})
	c, w := newGinContext(http.MethodGet, "/me", nil)

	handler.Me(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReportHandlerValidationErrorCarriesField(t *testing.T) {
	svc := &reportServiceMock{err: appErrors.Validation("createdByPhone", "phone number must contain exactly 10 digits")}
	handler := NewReportHandler(svc)
	payload, _ := json.Marshal(map[string]string{"type": "lost", "category": "Bags", "title": "Bag", "createdByPhone": "12345"})
	c, w := newGinContext(http.MethodPost, "/reports", payload)
	c.Set(middleware.ContextUserKey, studentActor)

	handler.Submit(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "createdByPhone", env.Error.Field)
}

func TestReportHandlerGetNotFound(t *testing.T) {
	svc := &reportServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "report not found")}
	handler := NewReportHandler(svc)
	c, w := newGinContext(http.MethodGet, "/reports/abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	c.Set(middleware.ContextUserKey, studentActor)

	handler.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "abc", svc.id)
}

func TestReportHandlerSearch(t *testing.T) {
	svc := &reportServiceMock{reports: []models.Report{*sampleReport(models.ReportStatusApproved)}}
	handler := NewReportHandler(svc)
	c, w := newGinContext(http.MethodGet, "/reports/search?query=laptop&category=Electronics", nil)
	c.Set(middleware.ContextUserKey, studentActor)

	handler.Search(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.SearchQuery{Category: "Electronics", Query: "laptop"}, svc.search)
	env := decodeEnvelope(t, w)
	assert.EqualValues(t, 1, env.Meta["count"])
}

func TestReportHandlerResolveAndTransition(t *testing.T) {
	svc := &reportServiceMock{report: sampleReport(models.ReportStatusResolved)}
	handler := NewReportHandler(svc)

	c, w := newGinContext(http.MethodPost, "/reports/r1/resolve", nil)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	c.Set(middleware.ContextUserKey, studentActor)
	handler.Resolve(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "resolved", svc.transition)

	svc.err = appErrors.InvalidTransition("resolved", "pending")
	c, w = newGinContext(http.MethodPost, "/reports/r1/transition", []byte(`{"status":"pending"}`))
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	c.Set(middleware.ContextUserKey, studentActor)
	handler.Transition(c)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "pending", svc.transition)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, decodeEnvelope(t, w).Error.Code)
}

func TestReportHandlerMe(t *testing.T) {
	handler := NewReportHandler(&reportServiceMock{})
	c, w := newGinContext(http.MethodGet, "/me", nil)
	c.Set(middleware.ContextUserKey, moderator)

	handler.Me(c)
	require.Equal(t, http.StatusOK, w.Code)
	var me dto.MeResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &me))
	assert.Equal(t, dto.MeResponse{Email: "admin@wit.edu", DisplayName: "Admin", IsAdmin: true}, me)
}

func TestReportHandlerMyReports(t *testing.T) {
	svc := &reportServiceMock{reports: []models.Report{*sampleReport(models.ReportStatusDenied), *sampleReport(models.ReportStatusPending)}}
	handler := NewReportHandler(svc)
	c, w := newGinContext(http.MethodGet, "/me/reports", nil)
	c.Set(middleware.ContextUserKey, studentActor)

	handler.MyReports(c)
	require.Equal(t, http.StatusOK, w.Code)
	var reports []models.Report
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &reports))
	assert.Len(t, reports, 2)
}
