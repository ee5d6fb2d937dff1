package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/givelane/givelane-api/internal/models"
)

// TagRepository handles persistence of listing tags.
type TagRepository struct {
	db *sqlx.DB
}

// NewTagRepository constructs the repository.
func NewTagRepository(db *sqlx.DB) *TagRepository {
	return &TagRepository{db: db}
}

// Create attaches a label to a listing.
func (r *TagRepository) Create(ctx context.Context, tag *models.Tag) error {
	if tag.ID == "" {
		tag.ID = uuid.NewString()
	}
	tag.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO tags (id, listing_id, label, created_at) VALUES ($1, $2, $3, $4)
        ON CONFLICT (listing_id, label) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, tag.ID, tag.ListingID, tag.Label, tag.CreatedAt); err != nil {
		return fmt.Errorf("create tag: %w", err)
	}
	return nil
}

// ListByListing returns all tags on a listing.
func (r *TagRepository) ListByListing(ctx context.Context, listingID string) ([]models.Tag, error) {
	const query = `SELECT id, listing_id, label, created_at FROM tags WHERE listing_id = $1 ORDER BY label ASC`
	var tags []models.Tag
	if err := r.db.SelectContext(ctx, &tags, query, listingID); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// ListingIDsByLabel returns ids of listings carrying the label.
func (r *TagRepository) ListingIDsByLabel(ctx context.Context, label string) ([]string, error) {
	const query = `SELECT listing_id FROM tags WHERE label = $1`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, label); err != nil {
		return nil, fmt.Errorf("list listings by tag: %w", err)
	}
	return ids, nil
}

// Delete removes a single label from a listing.
func (r *TagRepository) Delete(ctx context.Context, listingID, label string) error {
	const query = `DELETE FROM tags WHERE listing_id = $1 AND label = $2`
	if _, err := r.db.ExecContext(ctx, query, listingID, label); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return nil
}

// DeleteByListing removes all tags on a listing.
func (r *TagRepository) DeleteByListing(ctx context.Context, listingID string) error {
	const query = `DELETE FROM tags WHERE listing_id = $1`
	if _, err := r.db.ExecContext(ctx, query, listingID); err != nil {
		return fmt.Errorf("delete tags by listing: %w", err)
	}
	return nil
}
