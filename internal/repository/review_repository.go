package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/givelane/givelane-api/internal/models"
)

// ReviewRepository handles persistence of member reviews.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository constructs the repository.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

const reviewColumns = `id, author_id, subject_id, rating, comment, created_at`

// Create inserts a review.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	review.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO reviews (id, author_id, subject_id, rating, comment, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, query,
		review.ID, review.AuthorID, review.SubjectID, review.Rating, review.Comment, review.CreatedAt,
	); err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

// FindByID returns a review by its ID.
func (r *ReviewRepository) FindByID(ctx context.Context, id string) (*models.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE id = $1`, reviewColumns)
	var review models.Review
	if err := r.db.GetContext(ctx, &review, query, id); err != nil {
		return nil, err
	}
	return &review, nil
}

// ListBySubject returns reviews received by a member, newest first.
func (r *ReviewRepository) ListBySubject(ctx context.Context, subjectID string) ([]models.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE subject_id = $1 ORDER BY created_at DESC`, reviewColumns)
	var reviews []models.Review
	if err := r.db.SelectContext(ctx, &reviews, query, subjectID); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// Summary aggregates received ratings for a member.
func (r *ReviewRepository) Summary(ctx context.Context, subjectID string) (*models.ReviewSummary, error) {
	const query = `SELECT $1 AS subject_id, COUNT(*) AS count, COALESCE(AVG(rating), 0) AS average
        FROM reviews WHERE subject_id = $1`
	var summary models.ReviewSummary
	if err := r.db.GetContext(ctx, &summary, query, subjectID); err != nil {
		return nil, fmt.Errorf("review summary: %w", err)
	}
	return &summary, nil
}

// Delete removes a review.
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM reviews WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return nil
}
