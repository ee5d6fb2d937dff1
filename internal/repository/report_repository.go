package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/givelane/givelane-api/internal/models"
)

// ReportRepository handles persistence of moderation reports.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

const reportColumns = `id, reporter_id, subject_id, reason, status, resolved_at, created_at`

// Create files a report with status OPEN.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	report.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO reports (id, reporter_id, subject_id, reason, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, query,
		report.ID, report.ReporterID, report.SubjectID, report.Reason, report.Status, report.CreatedAt,
	); err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

// FindByID returns a report by its ID.
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*models.Report, error) {
	query := fmt.Sprintf(`SELECT %s FROM reports WHERE id = $1`, reportColumns)
	var report models.Report
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		return nil, err
	}
	return &report, nil
}

// ListByStatus returns reports in the given status, oldest first so
// moderators work the backlog in order.
func (r *ReportRepository) ListByStatus(ctx context.Context, status models.ReportStatus) ([]models.Report, error) {
	query := fmt.Sprintf(`SELECT %s FROM reports WHERE status = $1 ORDER BY created_at ASC`, reportColumns)
	var reports []models.Report
	if err := r.db.SelectContext(ctx, &reports, query, status); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// UpdateStatus transitions an OPEN report; closed reports stay closed.
func (r *ReportRepository) UpdateStatus(ctx context.Context, id string, status models.ReportStatus, resolvedAt time.Time) error {
	const query = `UPDATE reports SET status = $2, resolved_at = $3 WHERE id = $1 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, id, status, resolvedAt, models.ReportStatusOpen)
	if err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update report status result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a report.
func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM reports WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	return nil
}
