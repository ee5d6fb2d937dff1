package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/givelane/givelane-api/internal/models"
	appErrors "github.com/givelane/givelane-api/pkg/errors"
)

type tagRepository interface {
	Create(ctx context.Context, tag *models.Tag) error
	ListByListing(ctx context.Context, listingID string) ([]models.Tag, error)
	ListingIDsByLabel(ctx context.Context, label string) ([]string, error)
	Delete(ctx context.Context, listingID, label string) error
}

type tagListingFinder interface {
	FindByID(ctx context.Context, id string) (*models.Listing, error)
}

// TagService manages discovery labels on listings.
type TagService struct {
	repo     tagRepository
	listings tagListingFinder
	logger   *zap.Logger
}

// NewTagService constructs TagService.
func NewTagService(repo tagRepository, listings tagListingFinder, logger *zap.Logger) *TagService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TagService{repo: repo, listings: listings, logger: logger}
}

// Add attaches a label to a listing, author only. Labels are normalised to
// lower case and duplicates are silently absorbed by the store.
func (s *TagService) Add(ctx context.Context, callerID, listingID, label string) (*models.Tag, error) {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "label must not be empty")
	}
	listing, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "listing not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load listing")
	}
	if err := assertOwner(listing.AuthorID, callerID); err != nil {
		return nil, err
	}
	tag := &models.Tag{ListingID: listingID, Label: label}
	if err := s.repo.Create(ctx, tag); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create tag")
	}
	return tag, nil
}

// Remove detaches a label from a listing, author only.
func (s *TagService) Remove(ctx context.Context, callerID, listingID, label string) error {
	label = strings.ToLower(strings.TrimSpace(label))
	listing, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "listing not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load listing")
	}
	if err := assertOwner(listing.AuthorID, callerID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, listingID, label); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete tag")
	}
	return nil
}

// ListByListing returns the labels on a listing.
func (s *TagService) ListByListing(ctx context.Context, listingID string) ([]models.Tag, error) {
	tags, err := s.repo.ListByListing(ctx, listingID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tags")
	}
	return tags, nil
}

// SearchListings returns the visible listings carrying a label.
func (s *TagService) SearchListings(ctx context.Context, label string) ([]models.Listing, error) {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "label must not be empty")
	}
	ids, err := s.repo.ListingIDsByLabel(ctx, label)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search tags")
	}
	listings := make([]models.Listing, 0, len(ids))
	for _, id := range ids {
		listing, err := s.listings.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load listing")
		}
		if listing.Hidden {
			continue
		}
		listings = append(listings, *listing)
	}
	return listings, nil
}
