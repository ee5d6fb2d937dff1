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

// The wire contract accepts human-entered date and time as two separate
// strings and combines them into one absolute instant.
const (
	expirationDateLayout = "01/02/2006"
	expirationTimeLayout = "15:04"
)

type expirationRepository interface {
	Create(ctx context.Context, record *models.Expiration) error
	FindByID(ctx context.Context, id string) (*models.Expiration, error)
	FindByItem(ctx context.Context, itemID string) (*models.Expiration, error)
	UpdateExpireAt(ctx context.Context, id string, expireAt time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteByItem(ctx context.Context, itemID string) error
}

// AllocateExpirationRequest describes a new ledger entry.
type AllocateExpirationRequest struct {
	ItemID   string `json:"item_id" validate:"required"`
	ItemKind string `json:"item_kind" validate:"required"`
	Date     string `json:"date" validate:"required"`
	Time     string `json:"time" validate:"required"`
}

// EditExpirationRequest updates an existing entry. Omitting either component
// makes the edit an explicit no-op.
type EditExpirationRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// ExpirationEditResult reports whether an edit changed anything.
type ExpirationEditResult struct {
	Record  *models.Expiration `json:"record"`
	Changed bool               `json:"changed"`
	Message string             `json:"message"`
}

// ExpirationService manages the expiry ledger.
type ExpirationService struct {
	repo      expirationRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExpirationService constructs ExpirationService.
func NewExpirationService(repo expirationRepository, validate *validator.Validate, logger *zap.Logger) *ExpirationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpirationService{repo: repo, validator: validate, logger: logger}
}

// Allocate creates the single ledger entry for an item. The computed instant
// must be strictly in the future.
func (s *ExpirationService) Allocate(ctx context.Context, req AllocateExpirationRequest) (*models.Expiration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid expiration payload")
	}
	kind := models.ItemKind(req.ItemKind)
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown item kind")
	}
	expireAt, err := combineExpiry(req.Date, req.Time)
	if err != nil {
		return nil, err
	}
	if existing, err := s.repo.FindByItem(ctx, req.ItemID); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "item already has an expiration")
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing expiration")
	}

	record := &models.Expiration{ItemID: req.ItemID, ItemKind: kind, ExpireAt: expireAt}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create expiration")
	}
	return record, nil
}

// Edit recomputes and overwrites the expiry instant. When either component
// is missing the call acknowledges without changing anything.
func (s *ExpirationService) Edit(ctx context.Context, id string, req EditExpirationRequest) (*ExpirationEditResult, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "expiration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load expiration")
	}
	if req.Date == "" || req.Time == "" {
		return &ExpirationEditResult{Record: record, Changed: false, Message: "no changes made"}, nil
	}

	expireAt, err := combineExpiry(req.Date, req.Time)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateExpireAt(ctx, id, expireAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "expiration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update expiration")
	}
	record.ExpireAt = expireAt
	return &ExpirationEditResult{Record: record, Changed: true, Message: "expiration updated"}, nil
}

// GetByItem returns the ledger entry tracking an item.
func (s *ExpirationService) GetByItem(ctx context.Context, itemID string) (*models.Expiration, error) {
	record, err := s.repo.FindByItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no expiration for item")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load expiration")
	}
	return record, nil
}

// Delete removes a ledger entry. Double deletes are not an error.
func (s *ExpirationService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete expiration")
	}
	return nil
}

// DeleteByItem removes the entry tracking an item, called by item deletion
// cascades.
func (s *ExpirationService) DeleteByItem(ctx context.Context, itemID string) error {
	if err := s.repo.DeleteByItem(ctx, itemID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete expiration")
	}
	return nil
}

// combineExpiry parses the two wire components into one UTC instant and
// rejects instants not strictly after now.
func combineExpiry(date, timeOfDay string) (time.Time, error) {
	expireAt, err := time.ParseInLocation(expirationDateLayout+" "+expirationTimeLayout, date+" "+timeOfDay, time.UTC)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrInvalidExpiration.Code, appErrors.ErrInvalidExpiration.Status, "malformed expiration date or time")
	}
	if !expireAt.After(time.Now().UTC()) {
		return time.Time{}, appErrors.Clone(appErrors.ErrInvalidExpiration, "expiration must be in the future")
	}
	return expireAt, nil
}
