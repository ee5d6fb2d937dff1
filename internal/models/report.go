package models

import "time"

// ReportStatus tracks the moderation lifecycle of a report.
type ReportStatus string

// Possible report statuses.
const (
	ReportStatusOpen      ReportStatus = "OPEN"
	ReportStatusResolved  ReportStatus = "RESOLVED"
	ReportStatusDismissed ReportStatus = "DISMISSED"
)

// Report flags a member or an item for moderation.
type Report struct {
	ID         string       `db:"id" json:"id"`
	ReporterID string       `db:"reporter_id" json:"reporter_id"`
	SubjectID  string       `db:"subject_id" json:"subject_id"`
	Reason     string       `db:"reason" json:"reason"`
	Status     ReportStatus `db:"status" json:"status"`
	ResolvedAt *time.Time   `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
}
