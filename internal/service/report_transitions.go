package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/lostfound-api/internal/models"
	"github.com/noah-isme/lostfound-api/internal/repository"
	appErrors "github.com/noah-isme/lostfound-api/pkg/errors"
)

// authorizer decides whether actor may move report along an edge.
type authorizer func(actor *models.Actor, report *models.Report) bool

type edge struct {
	allow   authorizer
	denial  string
	reviews bool
}

var (
	adminOnly = func(actor *models.Actor, _ *models.Report) bool {
		return actor != nil && actor.IsAdmin && !actor.System
	}
	adminOrCreator = func(actor *models.Actor, report *models.Report) bool {
		if actor == nil || actor.System {
			return false
		}
		return actor.IsAdmin || report.CreatedBy(actor.Email)
	}
	systemOnly = func(actor *models.Actor, _ *models.Report) bool {
		return actor != nil && actor.System
	}
)

// transitions is the complete moderation graph. Anything absent is illegal for
// every actor, so denied, resolved and closed are terminal.
var transitions = map[models.ReportStatus]map[models.ReportStatus]edge{
	models.ReportStatusPending: {
		models.ReportStatusApproved: {allow: adminOnly, denial: "only administrators can approve reports", reviews: true},
		models.ReportStatusDenied:   {allow: adminOnly, denial: "only administrators can deny reports", reviews: true},
		models.ReportStatusResolved: {allow: adminOrCreator, denial: "only the submitter or an administrator can resolve this report"},
	},
	models.ReportStatusApproved: {
		models.ReportStatusResolved: {allow: adminOrCreator, denial: "only the submitter or an administrator can resolve this report"},
		models.ReportStatusClosed:   {allow: systemOnly, denial: "reports are closed by the expiry job"},
	},
}

// IsTerminal reports whether no edge leaves status.
func IsTerminal(status models.ReportStatus) bool {
	return len(transitions[status]) == 0
}

// AllowedTargets lists the statuses reachable from status, sorted.
func AllowedTargets(status models.ReportStatus) []models.ReportStatus {
	targets := make([]models.ReportStatus, 0, len(transitions[status]))
	for to := range transitions[status] {
		targets = append(targets, to)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })
	return targets
}

// illegalTransition names the edges that do leave from, so clients can tell a
// terminal report from a wrong target.
func illegalTransition(from, to models.ReportStatus) error {
	err := appErrors.InvalidTransition(string(from), string(to))
	if IsTerminal(from) {
		err.Message = fmt.Sprintf("%s; %s reports can no longer change", err.Message, from)
		return err
	}
	allowed := make([]string, 0, len(transitions[from]))
	for _, target := range AllowedTargets(from) {
		allowed = append(allowed, string(target))
	}
	err.Message = fmt.Sprintf("%s; allowed: %s", err.Message, strings.Join(allowed, ", "))
	return err
}

// CheckTransition applies the moderation rules in order: same state, unknown
// edge, then authorization.
func CheckTransition(report *models.Report, target models.ReportStatus, actor *models.Actor) error {
	if report == nil {
		return appErrors.ErrNotFound
	}
	if report.Status == target {
		return appErrors.InvalidTransition(string(report.Status), string(target))
	}
	e, ok := transitions[report.Status][target]
	if !ok {
		return illegalTransition(report.Status, target)
	}
	if !e.allow(actor, report) {
		return appErrors.Clone(appErrors.ErrForbidden, e.denial)
	}
	return nil
}

// PlanTransition validates the change and computes the single conditional
// update that persists it. Review metadata is stamped for approve and deny, and
// for resolutions by an administrator who did not submit the report.
func PlanTransition(report *models.Report, target models.ReportStatus, actor *models.Actor, now time.Time) (repository.UpdateReportStatusParams, error) {
	if err := CheckTransition(report, target, actor); err != nil {
		return repository.UpdateReportStatusParams{}, err
	}
	e := transitions[report.Status][target]

	params := repository.UpdateReportStatusParams{
		DocKey:     report.DocKey,
		Expected:   report.Status,
		Status:     target,
		ReviewedAt: report.ReviewedAt,
		ReviewedBy: report.ReviewedBy,
		UpdatedAt:  report.UpdatedAt,
	}
	if params.DocKey == "" {
		params.DocKey = report.ID
	}

	stamp := now.UTC()
	reviewer := actor.Email
	switch {
	case e.reviews:
		params.ReviewedAt = &stamp
		params.ReviewedBy = &reviewer
	case target == models.ReportStatusResolved:
		params.UpdatedAt = &stamp
		if actor.IsAdmin && !report.CreatedBy(actor.Email) {
			params.ReviewedAt = &stamp
			params.ReviewedBy = &reviewer
		}
	case target == models.ReportStatusClosed:
		params.UpdatedAt = &stamp
	default:
		return repository.UpdateReportStatusParams{}, appErrors.Clone(appErrors.ErrInternal, fmt.Sprintf("no side effects defined for %s", target))
	}
	return params, nil
}

// ApplyTransition mirrors params onto report after a successful update.
func ApplyTransition(report *models.Report, params repository.UpdateReportStatusParams) {
	report.Status = params.Status
	report.ReviewedAt = params.ReviewedAt
	report.ReviewedBy = params.ReviewedBy
	report.UpdatedAt = params.UpdatedAt
}
