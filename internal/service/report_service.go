package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/givelane/givelane-api/internal/models"
	appErrors "github.com/givelane/givelane-api/pkg/errors"
)

type reportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	FindByID(ctx context.Context, id string) (*models.Report, error)
	ListByStatus(ctx context.Context, status models.ReportStatus) ([]models.Report, error)
	UpdateStatus(ctx context.Context, id string, status models.ReportStatus, resolvedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// CreateReportRequest flags a member or item for moderation.
type CreateReportRequest struct {
	SubjectID string `json:"subject_id" validate:"required"`
	Reason    string `json:"reason" validate:"required,min=1,max=2000"`
}

// ReportService manages moderation reports.
type ReportService struct {
	repo      reportRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReportService constructs ReportService.
func NewReportService(repo reportRepository, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{repo: repo, validator: validate, logger: logger}
}

// Create files a report. Reports open in OPEN status.
func (s *ReportService) Create(ctx context.Context, reporterID string, req CreateReportRequest) (*models.Report, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}
	report := &models.Report{
		ReporterID: reporterID,
		SubjectID:  req.SubjectID,
		Reason:     req.Reason,
		Status:     models.ReportStatusOpen,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report")
	}
	return report, nil
}

// Get returns one report.
func (s *ReportService) Get(ctx context.Context, id string) (*models.Report, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}
	return report, nil
}

// ListOpen returns the reports awaiting moderation.
func (s *ReportService) ListOpen(ctx context.Context) ([]models.Report, error) {
	reports, err := s.repo.ListByStatus(ctx, models.ReportStatusOpen)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}
	return reports, nil
}

// Resolve closes an open report with the given terminal status. Already
// closed reports are left untouched and reported as a conflict.
func (s *ReportService) Resolve(ctx context.Context, id string, status models.ReportStatus) (*models.Report, error) {
	if status != models.ReportStatusResolved && status != models.ReportStatusDismissed {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be RESOLVED or DISMISSED")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, id, status, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "report already closed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update report")
	}
	return s.Get(ctx, id)
}

// Delete removes a report. Only the original reporter can withdraw it.
func (s *ReportService) Delete(ctx context.Context, callerID, id string) error {
	report, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := assertOwner(report.ReporterID, callerID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete report")
	}
	return nil
}
