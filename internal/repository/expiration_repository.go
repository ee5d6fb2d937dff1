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

// ExpirationRepository handles persistence of the expiry ledger.
type ExpirationRepository struct {
	db *sqlx.DB
}

// NewExpirationRepository constructs the repository.
func NewExpirationRepository(db *sqlx.DB) *ExpirationRepository {
	return &ExpirationRepository{db: db}
}

const expirationColumns = `id, item_id, item_kind, expire_at, created_at, updated_at`

// Create inserts a ledger record. The item_id unique index enforces at most
// one active record per item.
func (r *ExpirationRepository) Create(ctx context.Context, record *models.Expiration) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now
	const query = `INSERT INTO expirations (id, item_id, item_kind, expire_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, query,
		record.ID, record.ItemID, record.ItemKind, record.ExpireAt, record.CreatedAt, record.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create expiration: %w", err)
	}
	return nil
}

// FindByID returns a ledger record by its ID.
func (r *ExpirationRepository) FindByID(ctx context.Context, id string) (*models.Expiration, error) {
	query := fmt.Sprintf(`SELECT %s FROM expirations WHERE id = $1`, expirationColumns)
	var record models.Expiration
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByItem returns the record tracking the given item, if any.
func (r *ExpirationRepository) FindByItem(ctx context.Context, itemID string) (*models.Expiration, error) {
	query := fmt.Sprintf(`SELECT %s FROM expirations WHERE item_id = $1`, expirationColumns)
	var record models.Expiration
	if err := r.db.GetContext(ctx, &record, query, itemID); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListDue returns a snapshot of all records at or past the given instant,
// oldest first. Callers must tolerate records disappearing before they act
// on them.
func (r *ExpirationRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]models.Expiration, error) {
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT %s FROM expirations WHERE expire_at <= $1 ORDER BY expire_at ASC LIMIT %d`,
		expirationColumns, limit)
	var records []models.Expiration
	if err := r.db.SelectContext(ctx, &records, query, now); err != nil {
		return nil, fmt.Errorf("list due expirations: %w", err)
	}
	return records, nil
}

// UpdateExpireAt overwrites the expiry instant of an existing record.
func (r *ExpirationRepository) UpdateExpireAt(ctx context.Context, id string, expireAt time.Time) error {
	const query = `UPDATE expirations SET expire_at = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, expireAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update expiration: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update expiration result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a ledger record. Deleting an already-deleted record is not
// an error.
func (r *ExpirationRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM expirations WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete expiration: %w", err)
	}
	return nil
}

// DeleteByItem removes the record tracking an item, used when the item
// itself is deleted.
func (r *ExpirationRepository) DeleteByItem(ctx context.Context, itemID string) error {
	const query = `DELETE FROM expirations WHERE item_id = $1`
	if _, err := r.db.ExecContext(ctx, query, itemID); err != nil {
		return fmt.Errorf("delete expiration by item: %w", err)
	}
	return nil
}
