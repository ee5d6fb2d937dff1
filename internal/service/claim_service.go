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

type claimRepository interface {
	Create(ctx context.Context, claim *models.Claim) error
	FindByID(ctx context.Context, id string) (*models.Claim, error)
	List(ctx context.Context, filter models.ClaimFilter) ([]models.Claim, error)
	Delete(ctx context.Context, id string) error
	DeleteByListing(ctx context.Context, listingID string) error
}

type claimListingStore interface {
	FindByID(ctx context.Context, id string) (*models.Listing, error)
	ApplyClaim(ctx context.Context, id string, qty int) (bool, error)
}

// CreateClaimRequest describes a claim against a listing.
type CreateClaimRequest struct {
	ListingID string `json:"listing_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// ClaimService coordinates claims with the listing inventory. It is the one
// mutating path that spans two collections.
type ClaimService struct {
	repo      claimRepository
	listings  claimListingStore
	feedCache *FeedCacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClaimService constructs ClaimService.
func NewClaimService(repo claimRepository, listings claimListingStore, feedCache *FeedCacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ClaimService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClaimService{repo: repo, listings: listings, feedCache: feedCache, metrics: metrics, validator: validate, logger: logger}
}

// Claim reserves a quantity from a listing. The requested quantity is
// compared against the listing's current remaining, never its original
// quantity. The decrement is the atomic guard and runs before the claim
// record is written, so a crash between the two steps can lose a claim
// record but can never over-consume inventory.
func (s *ClaimService) Claim(ctx context.Context, claimerID string, req CreateClaimRequest) (*models.Claim, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid claim payload")
	}

	listing, err := s.listings.FindByID(ctx, req.ListingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "listing not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load listing")
	}
	if req.Quantity > listing.Remaining {
		s.metrics.RecordClaimConflict()
		return nil, appErrors.Clone(appErrors.ErrOverclaim, "claim exceeds remaining quantity")
	}

	applied, err := s.listings.ApplyClaim(ctx, req.ListingID, req.Quantity)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply claim")
	}
	if !applied {
		// Lost the race between the read above and the conditional update.
		if _, err := s.listings.FindByID(ctx, req.ListingID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "listing not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load listing")
		}
		s.metrics.RecordClaimConflict()
		return nil, appErrors.Clone(appErrors.ErrOverclaim, "claim exceeds remaining quantity")
	}

	claim := &models.Claim{ClaimerID: claimerID, ListingID: req.ListingID, Quantity: req.Quantity}
	if err := s.repo.Create(ctx, claim); err != nil {
		// The decrement already landed; the missing claim record is
		// surfaced for the reconciliation pass rather than retried here.
		s.logger.Error("claim record insert failed after decrement",
			zap.String("listing_id", req.ListingID),
			zap.String("claimer_id", claimerID),
			zap.Int("quantity", req.Quantity),
			zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record claim")
	}

	s.feedCache.Invalidate(ctx)
	return claim, nil
}

// Release deletes a claim. It does not restore the listing's remaining
// quantity; see the release asymmetry note in the project design doc.
func (s *ClaimService) Release(ctx context.Context, callerID, claimID string) error {
	claim, err := s.repo.FindByID(ctx, claimID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "claim not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load claim")
	}
	if err := assertOwner(claim.ClaimerID, callerID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, claimID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete claim")
	}
	return nil
}

// Get returns one claim.
func (s *ClaimService) Get(ctx context.Context, id string) (*models.Claim, error) {
	claim, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "claim not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load claim")
	}
	return claim, nil
}

// List returns claims matching the filter.
func (s *ClaimService) List(ctx context.Context, filter models.ClaimFilter) ([]models.Claim, error) {
	claims, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list claims")
	}
	return claims, nil
}

// DeleteAllForListing bulk-deletes the claims referencing a listing; used by
// the listing deletion cascade.
func (s *ClaimService) DeleteAllForListing(ctx context.Context, listingID string) error {
	if err := s.repo.DeleteByListing(ctx, listingID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete claims")
	}
	return nil
}
