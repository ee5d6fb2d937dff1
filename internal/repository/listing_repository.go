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

// ListingRepository handles persistence of listings.
type ListingRepository struct {
	db *sqlx.DB
}

// NewListingRepository constructs the repository.
func NewListingRepository(db *sqlx.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

const listingColumns = `id, author_id, name, description, meetup_location, image_path, quantity, remaining, hidden, created_at, updated_at`

// Create inserts a new listing with remaining preset to quantity.
func (r *ListingRepository) Create(ctx context.Context, listing *models.Listing) error {
	if listing.ID == "" {
		listing.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	listing.CreatedAt = now
	listing.UpdatedAt = now
	const query = `INSERT INTO listings (id, author_id, name, description, meetup_location, image_path, quantity, remaining, hidden, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	if _, err := r.db.ExecContext(ctx, query,
		listing.ID, listing.AuthorID, listing.Name, listing.Description, listing.MeetupLocation,
		listing.ImagePath, listing.Quantity, listing.Remaining, listing.Hidden, listing.CreatedAt, listing.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create listing: %w", err)
	}
	return nil
}

// FindByID returns a listing by its ID.
func (r *ListingRepository) FindByID(ctx context.Context, id string) (*models.Listing, error) {
	query := fmt.Sprintf(`SELECT %s FROM listings WHERE id = $1`, listingColumns)
	var listing models.Listing
	if err := r.db.GetContext(ctx, &listing, query, id); err != nil {
		return nil, err
	}
	return &listing, nil
}

// List returns listings filtered by the provided criteria, newest first.
func (r *ListingRepository) List(ctx context.Context, filter models.ListingFilter) ([]models.Listing, int, error) {
	var conditions []string
	var args []interface{}

	if filter.AuthorID != "" {
		conditions = append(conditions, fmt.Sprintf("author_id = $%d", len(args)+1))
		args = append(args, filter.AuthorID)
	}
	if filter.VisibleOnly {
		conditions = append(conditions, "hidden = FALSE")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM listings%s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		listingColumns, clause, size, offset)

	var listings []models.Listing
	if err := r.db.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list listings: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM listings%s", clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count listings: %w", err)
	}
	return listings, total, nil
}

// Update applies only the fields present in the patch.
func (r *ListingRepository) Update(ctx context.Context, id string, patch models.ListingUpdate) error {
	sets := []string{}
	args := []interface{}{}

	add := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)+1))
		args = append(args, value)
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.MeetupLocation != nil {
		add("meetup_location", *patch.MeetupLocation)
	}
	if patch.ImagePath != nil {
		add("image_path", *patch.ImagePath)
	}
	if patch.Quantity != nil {
		add("quantity", *patch.Quantity)
	}
	if len(sets) == 0 {
		return nil
	}
	add("updated_at", time.Now().UTC())

	query := fmt.Sprintf("UPDATE listings SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args)+1)
	args = append(args, id)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	return nil
}

// ApplyClaim decrements remaining by qty and flips hidden when the decrement
// reaches zero, all in one conditional statement. The remaining >= qty guard
// is what serializes concurrent claims; it reports false when the listing is
// missing or the quantity is no longer available.
func (r *ListingRepository) ApplyClaim(ctx context.Context, id string, qty int) (bool, error) {
	const query = `UPDATE listings
        SET remaining = remaining - $2,
            hidden = CASE WHEN remaining - $2 <= 0 THEN TRUE ELSE hidden END,
            updated_at = $3
        WHERE id = $1 AND remaining >= $2`
	res, err := r.db.ExecContext(ctx, query, id, qty, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("apply claim: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("apply claim result: %w", err)
	}
	return affected == 1, nil
}

// ToggleHidden flips the hidden flag.
func (r *ListingRepository) ToggleHidden(ctx context.Context, id string) error {
	const query = `UPDATE listings SET hidden = NOT hidden, updated_at = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("toggle listing hidden: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("toggle listing hidden result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a listing unconditionally. Dependent records are the
// caller's responsibility.
func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM listings WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	return nil
}

// DeleteVisible removes a listing only while it is still visible. The
// visibility check runs inside the DELETE itself so a claim or manual hide
// racing the sweeper wins. It reports whether a row was deleted.
func (r *ListingRepository) DeleteVisible(ctx context.Context, id string) (bool, error) {
	const query = `DELETE FROM listings WHERE id = $1 AND hidden = FALSE`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete visible listing: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete visible listing result: %w", err)
	}
	return affected == 1, nil
}
