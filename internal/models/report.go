package models

import (
	"strings"
	"time"
)

// ReportType distinguishes lost items from found items.
type ReportType string

const (
	ReportTypeLost  ReportType = "lost"
	ReportTypeFound ReportType = "found"
)

// ParseReportType accepts the wire literal in any case.
func ParseReportType(raw string) (ReportType, bool) {
	switch ReportType(strings.ToLower(strings.TrimSpace(raw))) {
	case ReportTypeLost:
		return ReportTypeLost, true
	case ReportTypeFound:
		return ReportTypeFound, true
	}
	return "", false
}

// ReportCategory is the closed set of item categories shared by every client.
type ReportCategory string

const (
	CategoryWalletIDKeys      ReportCategory = "Wallet/ID/Keys"
	CategoryElectronics       ReportCategory = "Electronics"
	CategoryClothing          ReportCategory = "Clothing & Apparel"
	CategoryAcademicMaterials ReportCategory = "Academic Materials"
	CategoryBags              ReportCategory = "Bags"
	CategoryOther             ReportCategory = "Other"
)

// Categories lists every category in display order.
var Categories = []ReportCategory{
	CategoryWalletIDKeys,
	CategoryElectronics,
	CategoryClothing,
	CategoryAcademicMaterials,
	CategoryBags,
	CategoryOther,
}

// ParseReportCategory matches a category case-insensitively and returns the
// canonical literal.
func ParseReportCategory(raw string) (ReportCategory, bool) {
	needle := strings.TrimSpace(raw)
	for _, c := range Categories {
		if strings.EqualFold(string(c), needle) {
			return c, true
		}
	}
	return "", false
}

// ReportStatus captures the moderation state of a report.
type ReportStatus string

const (
	ReportStatusPending  ReportStatus = "pending"
	ReportStatusApproved ReportStatus = "approved"
	ReportStatusDenied   ReportStatus = "denied"
	ReportStatusResolved ReportStatus = "resolved"
	ReportStatusClosed   ReportStatus = "closed"
)

// statusAliasRejected is the literal one client used for denied reports.
const statusAliasRejected = "rejected"

// ParseReportStatus accepts canonical literals plus the "rejected" alias,
// which maps to denied.
func ParseReportStatus(raw string) (ReportStatus, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == statusAliasRejected {
		return ReportStatusDenied, true
	}
	switch s := ReportStatus(value); s {
	case ReportStatusPending, ReportStatusApproved, ReportStatusDenied, ReportStatusResolved, ReportStatusClosed:
		return s, true
	}
	return "", false
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Report describes a lost or found item.
type Report struct {
	ID                  string         `json:"id"`
	DocKey              string         `json:"-"`
	Type                ReportType     `json:"type"`
	Category            ReportCategory `json:"category"`
	Title               string         `json:"title"`
	Description         *string        `json:"description,omitempty"`
	LocationBuilding    string         `json:"locationBuilding"`
	LocationCoordinates *Coordinates   `json:"locationCoordinates,omitempty"`
	ImageURL            *string        `json:"imageUrl,omitempty"`
	CreatedByName       string         `json:"createdByName"`
	CreatedByEmail      string         `json:"createdByEmail"`
	CreatedByPhone      *string        `json:"createdByPhone,omitempty"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           *time.Time     `json:"updatedAt,omitempty"`
	Status              ReportStatus   `json:"status"`
	ReviewedAt          *time.Time     `json:"reviewedAt,omitempty"`
	ReviewedBy          *string        `json:"reviewedBy,omitempty"`
}

// CreatedBy reports whether email belongs to the report's submitter.
func (r *Report) CreatedBy(email string) bool {
	return r != nil && email != "" && strings.EqualFold(r.CreatedByEmail, email)
}

// ReportFilter constrains repository listing queries.
type ReportFilter struct {
	Statuses       []ReportStatus
	CreatedByEmail string
	Category       ReportCategory
	Type           ReportType
	CreatedBefore  *time.Time
	Limit          int
}
