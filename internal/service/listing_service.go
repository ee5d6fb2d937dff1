package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/givelane/givelane-api/internal/models"
	appErrors "github.com/givelane/givelane-api/pkg/errors"
)

type listingRepository interface {
	Create(ctx context.Context, listing *models.Listing) error
	FindByID(ctx context.Context, id string) (*models.Listing, error)
	List(ctx context.Context, filter models.ListingFilter) ([]models.Listing, int, error)
	Update(ctx context.Context, id string, patch models.ListingUpdate) error
	ToggleHidden(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type listingClaimDeleter interface {
	CountByListing(ctx context.Context, listingID string) (int, error)
	DeleteByListing(ctx context.Context, listingID string) error
}

type listingTagDeleter interface {
	DeleteByListing(ctx context.Context, listingID string) error
}

type listingExpirationDeleter interface {
	DeleteByItem(ctx context.Context, itemID string) error
}

type imageStore interface {
	Save(filename string, data []byte) (string, error)
	Delete(filename string) error
}

// CreateListingRequest describes a new listing.
type CreateListingRequest struct {
	Name           string `json:"name" validate:"required,min=1"`
	Description    string `json:"description"`
	MeetupLocation string `json:"meetup_location" validate:"required,min=1"`
	Quantity       int    `json:"quantity"`
}

// ListingService orchestrates listing workflows.
type ListingService struct {
	repo        listingRepository
	claims      listingClaimDeleter
	tags        listingTagDeleter
	expirations listingExpirationDeleter
	feedCache   *FeedCacheService
	images      imageStore
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewListingService constructs ListingService.
func NewListingService(
	repo listingRepository,
	claims listingClaimDeleter,
	tags listingTagDeleter,
	expirations listingExpirationDeleter,
	feedCache *FeedCacheService,
	images imageStore,
	validate *validator.Validate,
	logger *zap.Logger,
) *ListingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListingService{
		repo:        repo,
		claims:      claims,
		tags:        tags,
		expirations: expirations,
		feedCache:   feedCache,
		images:      images,
		validator:   validate,
		logger:      logger,
	}
}

// Create posts a new listing. Remaining starts equal to quantity and the
// listing starts visible.
func (s *ListingService) Create(ctx context.Context, authorID string, req CreateListingRequest) (*models.Listing, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid listing payload")
	}
	if req.Quantity < 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidQuantity, "quantity must be a non-negative integer")
	}
	listing := &models.Listing{
		AuthorID:       authorID,
		Name:           req.Name,
		Description:    req.Description,
		MeetupLocation: req.MeetupLocation,
		Quantity:       req.Quantity,
		Remaining:      req.Quantity,
		Hidden:         false,
	}
	if err := s.repo.Create(ctx, listing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create listing")
	}
	s.feedCache.Invalidate(ctx)
	return listing, nil
}

// Get returns one listing.
func (s *ListingService) Get(ctx context.Context, id string) (*models.Listing, error) {
	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "listing not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load listing")
	}
	return listing, nil
}

// List returns listings with pagination metadata. The unfiltered visible
// feed is served from cache when possible.
func (s *ListingService) List(ctx context.Context, filter models.ListingFilter) ([]models.Listing, *models.Pagination, error) {
	cacheable := filter.VisibleOnly && filter.AuthorID == ""
	if cacheable {
		if listings, pagination, ok := s.feedCache.Get(ctx, filter.Page, filter.PageSize); ok {
			return listings, pagination, nil
		}
	}

	listings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list listings")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	if cacheable {
		s.feedCache.Set(ctx, filter.Page, filter.PageSize, listings, pagination)
	}
	return listings, pagination, nil
}

// Update applies a partial edit. Only the author may edit, and quantity
// edits keep the non-negative invariant.
func (s *ListingService) Update(ctx context.Context, callerID, id string, patch models.ListingUpdate) (*models.Listing, error) {
	listing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := assertOwner(listing.AuthorID, callerID); err != nil {
		return nil, err
	}
	if patch.Quantity != nil && *patch.Quantity < 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidQuantity, "quantity must be a non-negative integer")
	}
	if err := s.repo.Update(ctx, id, patch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update listing")
	}
	s.feedCache.Invalidate(ctx)
	return s.Get(ctx, id)
}

// ToggleHidden flips the listing's visibility, author only.
func (s *ListingService) ToggleHidden(ctx context.Context, callerID, id string) (*models.Listing, error) {
	listing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := assertOwner(listing.AuthorID, callerID); err != nil {
		return nil, err
	}
	if err := s.repo.ToggleHidden(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "listing not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle listing")
	}
	s.feedCache.Invalidate(ctx)
	return s.Get(ctx, id)
}

// Delete removes a listing and cascades its dependent records: claims, tags
// and the expiry ledger entry. The store does not cascade on its own.
func (s *ListingService) Delete(ctx context.Context, callerID, id string) error {
	listing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := assertOwner(listing.AuthorID, callerID); err != nil {
		return err
	}
	claimCount, err := s.claims.CountByListing(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count listing claims")
	}
	if err := s.claims.DeleteByListing(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete listing claims")
	}
	if err := s.tags.DeleteByListing(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete listing tags")
	}
	if err := s.expirations.DeleteByItem(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete listing expiration")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete listing")
	}
	if listing.ImagePath != "" && s.images != nil {
		if err := s.images.Delete(listing.ImagePath); err != nil {
			s.logger.Warn("failed to delete listing image", zap.String("listing_id", id), zap.Error(err))
		}
	}
	s.feedCache.Invalidate(ctx)
	s.logger.Info("listing deleted",
		zap.String("listing_id", id),
		zap.Int("claims_removed", claimCount))
	return nil
}

// AttachImage stores an uploaded image and points the listing at it.
func (s *ListingService) AttachImage(ctx context.Context, callerID, id, filename string, data []byte) (*models.Listing, error) {
	listing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := assertOwner(listing.AuthorID, callerID); err != nil {
		return nil, err
	}
	if s.images == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "image storage not configured")
	}
	relPath := filepath.Join("listings", fmt.Sprintf("%s%s", id, filepath.Ext(filename)))
	if _, err := s.images.Save(relPath, data); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store image")
	}
	return s.Update(ctx, callerID, id, models.ListingUpdate{ImagePath: &relPath})
}
