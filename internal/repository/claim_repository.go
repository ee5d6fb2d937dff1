package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/givelane/givelane-api/internal/models"
)

// ClaimRepository handles persistence of claims.
type ClaimRepository struct {
	db *sqlx.DB
}

// NewClaimRepository constructs the repository.
func NewClaimRepository(db *sqlx.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

const claimColumns = `id, claimer_id, listing_id, quantity, created_at`

// Create inserts a claim record.
func (r *ClaimRepository) Create(ctx context.Context, claim *models.Claim) error {
	if claim.ID == "" {
		claim.ID = uuid.NewString()
	}
	claim.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO claims (id, claimer_id, listing_id, quantity, created_at)
        VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query,
		claim.ID, claim.ClaimerID, claim.ListingID, claim.Quantity, claim.CreatedAt,
	); err != nil {
		return fmt.Errorf("create claim: %w", err)
	}
	return nil
}

// FindByID returns a claim by its ID.
func (r *ClaimRepository) FindByID(ctx context.Context, id string) (*models.Claim, error) {
	query := fmt.Sprintf(`SELECT %s FROM claims WHERE id = $1`, claimColumns)
	var claim models.Claim
	if err := r.db.GetContext(ctx, &claim, query, id); err != nil {
		return nil, err
	}
	return &claim, nil
}

// List returns claims matching the filter, newest first.
func (r *ClaimRepository) List(ctx context.Context, filter models.ClaimFilter) ([]models.Claim, error) {
	var conditions []string
	var args []interface{}

	if filter.ClaimerID != "" {
		conditions = append(conditions, fmt.Sprintf("claimer_id = $%d", len(args)+1))
		args = append(args, filter.ClaimerID)
	}
	if filter.ListingID != "" {
		conditions = append(conditions, fmt.Sprintf("listing_id = $%d", len(args)+1))
		args = append(args, filter.ListingID)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`SELECT %s FROM claims%s ORDER BY created_at DESC`, claimColumns, clause)
	var claims []models.Claim
	if err := r.db.SelectContext(ctx, &claims, query, args...); err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	return claims, nil
}

// CountByListing returns the number of claims against a listing.
func (r *ClaimRepository) CountByListing(ctx context.Context, listingID string) (int, error) {
	const query = `SELECT COUNT(*) FROM claims WHERE listing_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, listingID); err != nil {
		return 0, fmt.Errorf("count claims: %w", err)
	}
	return count, nil
}

// Delete removes a claim. Deleting an already-deleted claim is not an error.
func (r *ClaimRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM claims WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete claim: %w", err)
	}
	return nil
}

// DeleteByListing bulk-deletes all claims referencing a listing.
func (r *ClaimRepository) DeleteByListing(ctx context.Context, listingID string) error {
	const query = `DELETE FROM claims WHERE listing_id = $1`
	if _, err := r.db.ExecContext(ctx, query, listingID); err != nil {
		return fmt.Errorf("delete claims by listing: %w", err)
	}
	return nil
}
