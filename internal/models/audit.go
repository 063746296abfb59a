package models

import "time"

// AuditAction constants represent moderation actions to be logged.
const (
	AuditActionReportSubmit     = "REPORT_SUBMIT"
	AuditActionReportTransition = "REPORT_TRANSITION"
	AuditActionReportDelete     = "REPORT_DELETE"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	ActorEmail string    `db:"actor_email" json:"actorEmail"`
	Action     string    `db:"action" json:"action"`
	ReportID   string    `db:"report_id" json:"reportId"`
	FromStatus *string   `db:"from_status" json:"fromStatus,omitempty"`
	ToStatus   *string   `db:"to_status" json:"toStatus,omitempty"`
	Details    []byte    `db:"details" json:"details,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// ModerationEvent is the in-process record of a lifecycle change, queued for the
// audit writer.
type ModerationEvent struct {
	Action     string
	ActorEmail string
	ReportID   string
	From       ReportStatus
	To         ReportStatus
	OccurredAt time.Time
	RequestID  string
}
