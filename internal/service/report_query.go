package service

import (
	"sort"
	"strings"

	"github.com/noah-isme/lostfound-api/internal/models"
)

// VisibilityKind selects which reports a caller may list.
type VisibilityKind string

const (
	VisibilityPublic       VisibilityKind = "public"
	VisibilityOwner        VisibilityKind = "owner"
	VisibilityPendingQueue VisibilityKind = "pending_queue"
	VisibilityModeration   VisibilityKind = "moderation"
)

var publicStatuses = []models.ReportStatus{models.ReportStatusApproved, models.ReportStatusResolved}

// Visibility is a listing policy.
type Visibility struct {
	Kind     VisibilityKind
	Email    string
	Statuses []models.ReportStatus
}

// PublicVisibility exposes approved and resolved reports to every member.
func PublicVisibility() Visibility { return Visibility{Kind: VisibilityPublic} }

// OwnerVisibility exposes every report submitted by email.
func OwnerVisibility(email string) Visibility {
	return Visibility{Kind: VisibilityOwner, Email: strings.TrimSpace(email)}
}

// PendingQueueVisibility is the moderation inbox.
func PendingQueueVisibility() Visibility { return Visibility{Kind: VisibilityPendingQueue} }

// ModerationVisibility lists reports in any of statuses.
func ModerationVisibility(statuses ...models.ReportStatus) Visibility {
	return Visibility{Kind: VisibilityModeration, Statuses: statuses}
}

// Allows reports whether report is visible under v.
func (v Visibility) Allows(report *models.Report) bool {
	if report == nil {
		return false
	}
	switch v.Kind {
	case VisibilityPublic:
		return containsStatus(publicStatuses, report.Status)
	case VisibilityOwner:
		return report.CreatedBy(v.Email)
	case VisibilityPendingQueue:
		return report.Status == models.ReportStatusPending
	case VisibilityModeration:
		return containsStatus(v.Statuses, report.Status)
	}
	return false
}

// Filter is the store-side pushdown for v. The result only narrows the scan;
// SearchReports re-applies every predicate.
func (v Visibility) Filter() models.ReportFilter {
	switch v.Kind {
	case VisibilityPublic:
		return models.ReportFilter{Statuses: append([]models.ReportStatus(nil), publicStatuses...)}
	case VisibilityOwner:
		return models.ReportFilter{CreatedByEmail: strings.ToLower(v.Email)}
	case VisibilityPendingQueue:
		return models.ReportFilter{Statuses: []models.ReportStatus{models.ReportStatusPending}}
	case VisibilityModeration:
		return models.ReportFilter{Statuses: append([]models.ReportStatus(nil), v.Statuses...)}
	}
	return models.ReportFilter{}
}

// Criteria combines the category, free-text and visibility predicates.
type Criteria struct {
	Category   *models.ReportCategory
	FreeText   string
	Visibility Visibility
}

// Filter returns the store pushdown for c.
func (c Criteria) Filter() models.ReportFilter {
	filter := c.Visibility.Filter()
	if c.Category != nil {
		filter.Category = *c.Category
	}
	return filter
}

// Matches applies every predicate of c to report.
func (c Criteria) Matches(report *models.Report) bool {
	if !c.Visibility.Allows(report) {
		return false
	}
	if c.Category != nil && report.Category != *c.Category {
		return false
	}
	needle := strings.ToLower(strings.TrimSpace(c.FreeText))
	if needle == "" {
		return true
	}
	for _, haystack := range searchableFields(report) {
		if strings.Contains(strings.ToLower(haystack), needle) {
			return true
		}
	}
	return false
}

func searchableFields(report *models.Report) []string {
	fields := []string{report.Title, report.LocationBuilding, report.CreatedByName}
	if report.Description != nil {
		fields = append(fields, *report.Description)
	}
	return fields
}

// SearchReports filters reports by criteria and sorts the result newest first,
// breaking ties by id. The input slice is left untouched.
func SearchReports(reports []models.Report, criteria Criteria) []models.Report {
	result := make([]models.Report, 0, len(reports))
	for i := range reports {
		if criteria.Matches(&reports[i]) {
			result = append(result, reports[i])
		}
	}
	SortReports(result)
	return result
}

// SortReports orders by createdAt descending then id ascending.
func SortReports(reports []models.Report) {
	sort.SliceStable(reports, func(i, j int) bool {
		a, b := reports[i], reports[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

func containsStatus(statuses []models.ReportStatus, status models.ReportStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
