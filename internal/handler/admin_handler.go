package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lostfound-api/internal/dto"
	"github.com/noah-isme/lostfound-api/internal/middleware"
	"github.com/noah-isme/lostfound-api/internal/models"
	"github.com/noah-isme/lostfound-api/internal/service"
	"github.com/noah-isme/lostfound-api/pkg/response"
)

type moderationUseCase interface {
	PendingQueue(ctx context.Context, actor *models.Actor) ([]models.Report, error)
	ModerationList(ctx context.Context, statuses []string, actor *models.Actor) ([]models.Report, error)
	TransitionTo(ctx context.Context, id string, target models.ReportStatus, actor *models.Actor) (*models.Report, error)
	DeleteReport(ctx context.Context, id string, actor *models.Actor) (*models.Report, error)
}

type statsUseCase interface {
	Stats(ctx context.Context, actor *models.Actor) (*models.ReportStats, error)
	ExportStats(ctx context.Context, format string, actor *models.Actor) (*service.StatsExport, error)
}

// AdminHandler exposes moderation endpoints. Routes are mounted behind
// middleware.RequireAdmin; the services enforce the same rule.
type AdminHandler struct {
	reports moderationUseCase
	stats   statsUseCase
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(reports moderationUseCase, stats statsUseCase) *AdminHandler {
	return &AdminHandler{reports: reports, stats: stats}
}

// Pending godoc
// @Summary Pending moderation queue
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/reports/pending [get]
func (h *AdminHandler) Pending(c *gin.Context) {
	actor := requireActor(c)
	if actor == nil {
		return
	}
	reports, err := h.reports.PendingQueue(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, listMeta(c, len(reports)))
}

// List godoc
// @Summary List reports by status
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Comma separated statuses, default approved"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/reports [get]
func (h *AdminHandler) List(c *gin.Context) {
	actor := requireActor(c)
	if actor == nil {
		return
	}
	reports, err := h.reports.ModerationList(c.Request.Context(), splitStatuses(c.QueryArray("status")), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, listMeta(c, len(reports)))
}

// Approve godoc
// @Summary Approve a pending report
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/reports/{id}/approve [post]
func (h *AdminHandler) Approve(c *gin.Context) {
	h.transition(c, models.ReportStatusApproved)
}

// Deny godoc
// @Summary Deny a pending report
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/reports/{id}/deny [post]
func (h *AdminHandler) Deny(c *gin.Context) {
	h.transition(c, models.ReportStatusDenied)
}

// Resolve godoc
// @Summary Resolve a report on the submitter's behalf
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/reports/{id}/resolve [post]
func (h *AdminHandler) Resolve(c *gin.Context) {
	h.transition(c, models.ReportStatusResolved)
}

func (h *AdminHandler) transition(c *gin.Context, target models.ReportStatus) {
	actor := requireActor(c)
	if actor == nil {
		return
	}
	report, err := h.reports.TransitionTo(c.Request.Context(), c.Param("id"), target, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// Delete godoc
// @Summary Permanently delete a report
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/reports/{id} [delete]
func (h *AdminHandler) Delete(c *gin.Context) {
	actor := requireActor(c)
	if actor == nil {
		return
	}
	report, err := h.reports.DeleteReport(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.DeleteResponse{Success: true, ID: report.ID})
}

// Stats godoc
// @Summary Visible report counts by category and building
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	actor := requireActor(c)
	if actor == nil {
		return
	}
	stats, err := h.stats.Stats(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, stats.Cached)
	response.JSON(c, http.StatusOK, stats, middleware.ExtractMeta(c))
}

// ExportStats godoc
// @Summary Download report statistics
// @Tags Admin
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /admin/stats/export [get]
func (h *AdminHandler) ExportStats(c *gin.Context) {
	actor := requireActor(c)
	if actor == nil {
		return
	}
	out, err := h.stats.ExportStats(c.Request.Context(), c.DefaultQuery("format", "csv"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, out.Filename, out.ContentType, out.Body)
}

// splitStatuses accepts both ?status=a,b and repeated ?status= parameters.
func splitStatuses(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
