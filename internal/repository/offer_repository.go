package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/givelane/givelane-api/internal/models"
)

// OfferRepository handles persistence of offers.
type OfferRepository struct {
	db *sqlx.DB
}

// NewOfferRepository constructs the repository.
func NewOfferRepository(db *sqlx.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

const offerColumns = `id, offerer_id, request_id, location, image_path, message, accepted, created_at, updated_at`

// Create inserts an offer with accepted preset to false.
func (r *OfferRepository) Create(ctx context.Context, offer *models.Offer) error {
	if offer.ID == "" {
		offer.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	offer.CreatedAt = now
	offer.UpdatedAt = now
	const query = `INSERT INTO offers (id, offerer_id, request_id, location, image_path, message, accepted, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := r.db.ExecContext(ctx, query,
		offer.ID, offer.OffererID, offer.RequestID, offer.Location, offer.ImagePath,
		offer.Message, offer.Accepted, offer.CreatedAt, offer.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	return nil
}

// FindByID returns an offer by its ID.
func (r *OfferRepository) FindByID(ctx context.Context, id string) (*models.Offer, error) {
	query := fmt.Sprintf(`SELECT %s FROM offers WHERE id = $1`, offerColumns)
	var offer models.Offer
	if err := r.db.GetContext(ctx, &offer, query, id); err != nil {
		return nil, err
	}
	return &offer, nil
}

// ListByRequest returns all offers against a request, newest first.
func (r *OfferRepository) ListByRequest(ctx context.Context, requestID string) ([]models.Offer, error) {
	query := fmt.Sprintf(`SELECT %s FROM offers WHERE request_id = $1 ORDER BY created_at DESC`, offerColumns)
	var offers []models.Offer
	if err := r.db.SelectContext(ctx, &offers, query, requestID); err != nil {
		return nil, fmt.Errorf("list offers by request: %w", err)
	}
	return offers, nil
}

// ListByOfferer returns all offers made by a member, newest first.
func (r *OfferRepository) ListByOfferer(ctx context.Context, offererID string) ([]models.Offer, error) {
	query := fmt.Sprintf(`SELECT %s FROM offers WHERE offerer_id = $1 ORDER BY created_at DESC`, offerColumns)
	var offers []models.Offer
	if err := r.db.SelectContext(ctx, &offers, query, offererID); err != nil {
		return nil, fmt.Errorf("list offers by offerer: %w", err)
	}
	return offers, nil
}

// Update applies only the fields present in the patch.
func (r *OfferRepository) Update(ctx context.Context, id string, patch models.OfferUpdate) error {
	sets := []string{}
	args := []interface{}{}

	add := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)+1))
		args = append(args, value)
	}

	if patch.Location != nil {
		add("location", *patch.Location)
	}
	if patch.ImagePath != nil {
		add("image_path", *patch.ImagePath)
	}
	if patch.Message != nil {
		add("message", *patch.Message)
	}
	if len(sets) == 0 {
		return nil
	}
	add("updated_at", time.Now().UTC())

	query := fmt.Sprintf("UPDATE offers SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args)+1)
	args = append(args, id)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update offer: %w", err)
	}
	return nil
}

// MarkAccepted flips accepted to true, only once. It reports false when the
// offer was already accepted.
func (r *OfferRepository) MarkAccepted(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE offers SET accepted = TRUE, updated_at = $2 WHERE id = $1 AND accepted = FALSE`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("accept offer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("accept offer result: %w", err)
	}
	return affected == 1, nil
}

// Delete removes an offer.
func (r *OfferRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM offers WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete offer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete offer result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteByRequest bulk-deletes all offers against a request.
func (r *OfferRepository) DeleteByRequest(ctx context.Context, requestID string) error {
	const query = `DELETE FROM offers WHERE request_id = $1`
	if _, err := r.db.ExecContext(ctx, query, requestID); err != nil {
		return fmt.Errorf("delete offers by request: %w", err)
	}
	return nil
}
