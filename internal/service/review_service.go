package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/givelane/givelane-api/internal/models"
	appErrors "github.com/givelane/givelane-api/pkg/errors"
)

type reviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	FindByID(ctx context.Context, id string) (*models.Review, error)
	ListBySubject(ctx context.Context, subjectID string) ([]models.Review, error)
	Summary(ctx context.Context, subjectID string) (*models.ReviewSummary, error)
	Delete(ctx context.Context, id string) error
}

type reviewUserFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CreateReviewRequest describes a new review of a member.
type CreateReviewRequest struct {
	SubjectID string `json:"subject_id" validate:"required"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment" validate:"max=2000"`
}

// ReviewService manages member ratings.
type ReviewService struct {
	repo      reviewRepository
	users     reviewUserFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReviewService constructs ReviewService.
func NewReviewService(repo reviewRepository, users reviewUserFinder, validate *validator.Validate, logger *zap.Logger) *ReviewService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{repo: repo, users: users, validator: validate, logger: logger}
}

// Create records a review. Members cannot review themselves.
func (s *ReviewService) Create(ctx context.Context, authorID string, req CreateReviewRequest) (*models.Review, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	if authorID == req.SubjectID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot review yourself")
	}
	if _, err := s.users.FindByID(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	review := &models.Review{
		AuthorID:  authorID,
		SubjectID: req.SubjectID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create review")
	}
	return review, nil
}

// ListBySubject returns the reviews received by a member.
func (s *ReviewService) ListBySubject(ctx context.Context, subjectID string) ([]models.Review, error) {
	reviews, err := s.repo.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reviews")
	}
	return reviews, nil
}

// Summary aggregates a member's received ratings.
func (s *ReviewService) Summary(ctx context.Context, subjectID string) (*models.ReviewSummary, error) {
	summary, err := s.repo.Summary(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarise reviews")
	}
	return summary, nil
}

// Delete removes a review, author only.
func (s *ReviewService) Delete(ctx context.Context, callerID, id string) error {
	review, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "review not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load review")
	}
	if err := assertOwner(review.AuthorID, callerID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete review")
	}
	return nil
}
