package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lostfound-api/internal/dto"
	"github.com/noah-isme/lostfound-api/internal/models"
	appErrors "github.com/noah-isme/lostfound-api/pkg/errors"
	"github.com/noah-isme/lostfound-api/pkg/response"
)

type reportUseCase interface {
	SubmitReport(ctx context.Context, req dto.CreateReportRequest, actor *models.Actor) (*models.Report, error)
	GetReport(ctx context.Context, id string, actor *models.Actor) (*models.Report, error)
	Transition(ctx context.Context, id, target string, actor *models.Actor) (*models.Report, error)
	Search(ctx context.Context, query dto.SearchQuery, actor *models.Actor) ([]models.Report, error)
	MyReports(ctx context.Context, actor *models.Actor) ([]models.Report, error)
}

// ReportHandler exposes the submitter-facing report endpoints.
type ReportHandler struct {
	reports reportUseCase
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportUseCase) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Submit godoc
// @Summary Submit a lost or found report
// @Description New reports enter the moderation queue as pending.
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateReportRequest true "Report draft"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports [post]
func (h *ReportHandler) Submit(c *gin.Context) {
	actor := requireActor(c)
	if actor == nil {
		return
	}
	var req dto.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid report payload"))
		return
	}
	report, err := h.reports.SubmitReport(c.Request.Context(), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, report)
}

// Get godoc
// @Summary Get a report
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/{id} [get]
func (h *ReportHandler) Get(c *gin.Context) {
	actor := requireActor(c)
	if actor == nil {
		return
	}
	report, err := h.reports.GetReport(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// Search godoc
// @Summary Search approved and resolved reports
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param query query string false "Free text matched against title, building, submitter and description"
// @Param category query string false "Category"
// @Success 200 {object} response.Envelope
// @Router /reports/search [get]
func (h *ReportHandler) Search(c *gin.Context) {
	actor := requireActor(c)
	if actor == nil {
		return
	}
	query := dto.SearchQuery{Category: c.Query("category"), Query: c.Query("query")}
	reports, err := h.reports.Search(c.Request.Context(), query, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, listMeta(c, len(reports)))
}

// Resolve godoc
// @Summary Mark a report resolved
// @Description Submitters may resolve their own pending or approved reports.
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reports/{id}/resolve [post]
func (h *ReportHandler) Resolve(c *gin.Context) {
	h.transition(c, string(models.ReportStatusResolved))
}

// Transition godoc
// @Summary Request a status change
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Param payload body dto.TransitionRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reports/{id}/transition [post]
func (h *ReportHandler) Transition(c *gin.Context) {
	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation("status", "status is required"))
		return
	}
	h.transition(c, req.Status)
}

func (h *ReportHandler) transition(c *gin.Context, target string) {
	actor := requireActor(c)
	if actor == nil {
		return
	}
	report, err := h.reports.Transition(c.Request.Context(), c.Param("id"), target, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// MyReports godoc
// @Summary List the caller's reports in every status
// @Tags Me
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /me/reports [get]
func (h *ReportHandler) MyReports(c *gin.Context) {
	actor := requireActor(c)
	if actor == nil {
		return
	}
	reports, err := h.reports.MyReports(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, listMeta(c, len(reports)))
}

// Me godoc
// @Summary Describe the authenticated caller
// @Tags Me
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /me [get]
func (h *ReportHandler) Me(c *gin.Context) {
	actor := requireActor(c)
	if actor == nil {
		return
	}
	response.JSON(c, http.StatusOK, dto.MeResponse{Email: actor.Email, DisplayName: actor.Name, IsAdmin: actor.IsAdmin})
}
