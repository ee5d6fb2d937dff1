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

type offerRepository interface {
	Create(ctx context.Context, offer *models.Offer) error
	FindByID(ctx context.Context, id string) (*models.Offer, error)
	ListByRequest(ctx context.Context, requestID string) ([]models.Offer, error)
	ListByOfferer(ctx context.Context, offererID string) ([]models.Offer, error)
	Update(ctx context.Context, id string, patch models.OfferUpdate) error
	MarkAccepted(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

type offerRequestStore interface {
	FindByID(ctx context.Context, id string) (*models.Request, error)
	ToggleHidden(ctx context.Context, id string) error
}

// CreateOfferRequest describes a new offer against a request.
type CreateOfferRequest struct {
	RequestID string `json:"request_id" validate:"required"`
	Location  string `json:"location" validate:"required,min=1"`
	Message   string `json:"message"`
}

// OfferService orchestrates offers and their acceptance.
type OfferService struct {
	repo      offerRepository
	requests  offerRequestStore
	images    imageStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewOfferService constructs OfferService.
func NewOfferService(repo offerRepository, requests offerRequestStore, images imageStore, validate *validator.Validate, logger *zap.Logger) *OfferService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OfferService{repo: repo, requests: requests, images: images, validator: validate, logger: logger}
}

// Create posts an offer against a visible request.
func (s *OfferService) Create(ctx context.Context, offererID string, req CreateOfferRequest) (*models.Offer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid offer payload")
	}
	request, err := s.requests.FindByID(ctx, req.RequestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	if request.Hidden {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
	}
	offer := &models.Offer{
		OffererID: offererID,
		RequestID: req.RequestID,
		Location:  req.Location,
		Message:   req.Message,
	}
	if err := s.repo.Create(ctx, offer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create offer")
	}
	return offer, nil
}

// Get returns one offer.
func (s *OfferService) Get(ctx context.Context, id string) (*models.Offer, error) {
	offer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "offer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offer")
	}
	return offer, nil
}

// ListByRequest returns the offers made against a request.
func (s *OfferService) ListByRequest(ctx context.Context, requestID string) ([]models.Offer, error) {
	offers, err := s.repo.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list offers")
	}
	return offers, nil
}

// ListByOfferer returns the offers a member has made.
func (s *OfferService) ListByOfferer(ctx context.Context, offererID string) ([]models.Offer, error) {
	offers, err := s.repo.ListByOfferer(ctx, offererID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list offers")
	}
	return offers, nil
}

// Update applies a partial edit, offerer only. Accepted offers are frozen.
func (s *OfferService) Update(ctx context.Context, callerID, id string, patch models.OfferUpdate) (*models.Offer, error) {
	offer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := assertOwner(offer.OffererID, callerID); err != nil {
		return nil, err
	}
	if offer.Accepted {
		return nil, appErrors.Clone(appErrors.ErrAlreadyAccepted, "accepted offers cannot be edited")
	}
	if err := s.repo.Update(ctx, id, patch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update offer")
	}
	return s.Get(ctx, id)
}

// Accept marks an offer accepted and hides the request it targets. Only the
// request's owner may accept, and only the first acceptance wins.
func (s *OfferService) Accept(ctx context.Context, callerID, id string) (*models.Offer, error) {
	offer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	request, err := s.requests.FindByID(ctx, offer.RequestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	if err := assertOwner(request.RequesterID, callerID); err != nil {
		return nil, err
	}

	accepted, err := s.repo.MarkAccepted(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to accept offer")
	}
	if !accepted {
		return nil, appErrors.Clone(appErrors.ErrAlreadyAccepted, "offer already accepted")
	}

	if !request.Hidden {
		if err := s.requests.ToggleHidden(ctx, offer.RequestID); err != nil {
			s.logger.Error("failed to hide request after acceptance",
				zap.String("request_id", offer.RequestID),
				zap.String("offer_id", id),
				zap.Error(err))
		}
	}
	return s.Get(ctx, id)
}

// Delete removes an offer, offerer only. Accepted offers stay.
func (s *OfferService) Delete(ctx context.Context, callerID, id string) error {
	offer, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := assertOwner(offer.OffererID, callerID); err != nil {
		return err
	}
	if offer.Accepted {
		return appErrors.Clone(appErrors.ErrAlreadyAccepted, "accepted offers cannot be deleted")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete offer")
	}
	return nil
}

// AttachImage stores an uploaded image and points the offer at it.
func (s *OfferService) AttachImage(ctx context.Context, callerID, id, filename string, data []byte) (*models.Offer, error) {
	offer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := assertOwner(offer.OffererID, callerID); err != nil {
		return nil, err
	}
	if s.images == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "image storage not configured")
	}
	relPath := filepath.Join("offers", fmt.Sprintf("%s%s", id, filepath.Ext(filename)))
	if _, err := s.images.Save(relPath, data); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store image")
	}
	return s.Update(ctx, callerID, id, models.OfferUpdate{ImagePath: &relPath})
}
