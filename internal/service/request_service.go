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

type requestRepository interface {
	Create(ctx context.Context, request *models.Request) error
	FindByID(ctx context.Context, id string) (*models.Request, error)
	List(ctx context.Context, filter models.RequestFilter) ([]models.Request, int, error)
	Update(ctx context.Context, id string, patch models.RequestUpdate) error
	ToggleHidden(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type requestOfferDeleter interface {
	DeleteByRequest(ctx context.Context, requestID string) error
}

type requestExpirationDeleter interface {
	DeleteByItem(ctx context.Context, itemID string) error
}

// CreateRequestRequest describes a new request.
type CreateRequestRequest struct {
	Title       string `json:"title" validate:"required,min=1"`
	Description string `json:"description"`
	BudgetCents int64  `json:"budget_cents" validate:"gte=0"`
}

// RequestService orchestrates request workflows.
type RequestService struct {
	repo        requestRepository
	offers      requestOfferDeleter
	expirations requestExpirationDeleter
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewRequestService constructs RequestService.
func NewRequestService(repo requestRepository, offers requestOfferDeleter, expirations requestExpirationDeleter, validate *validator.Validate, logger *zap.Logger) *RequestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{repo: repo, offers: offers, expirations: expirations, validator: validate, logger: logger}
}

// Create posts a new request. Requests start visible.
func (s *RequestService) Create(ctx context.Context, requesterID string, req CreateRequestRequest) (*models.Request, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload")
	}
	request := &models.Request{
		RequesterID: requesterID,
		Title:       req.Title,
		Description: req.Description,
		BudgetCents: req.BudgetCents,
		Hidden:      false,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create request")
	}
	return request, nil
}

// Get returns one request.
func (s *RequestService) Get(ctx context.Context, id string) (*models.Request, error) {
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	return request, nil
}

// List returns requests with pagination metadata.
func (s *RequestService) List(ctx context.Context, filter models.RequestFilter) ([]models.Request, *models.Pagination, error) {
	requests, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return requests, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Update applies a partial edit, requester only.
func (s *RequestService) Update(ctx context.Context, callerID, id string, patch models.RequestUpdate) (*models.Request, error) {
	request, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := assertOwner(request.RequesterID, callerID); err != nil {
		return nil, err
	}
	if patch.BudgetCents != nil && *patch.BudgetCents < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "budget must be non-negative")
	}
	if err := s.repo.Update(ctx, id, patch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update request")
	}
	return s.Get(ctx, id)
}

// ToggleHidden flips the request's visibility, requester only.
func (s *RequestService) ToggleHidden(ctx context.Context, callerID, id string) (*models.Request, error) {
	request, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := assertOwner(request.RequesterID, callerID); err != nil {
		return nil, err
	}
	if err := s.repo.ToggleHidden(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle request")
	}
	return s.Get(ctx, id)
}

// Delete removes a request and cascades its offers and ledger entry.
func (s *RequestService) Delete(ctx context.Context, callerID, id string) error {
	request, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := assertOwner(request.RequesterID, callerID); err != nil {
		return err
	}
	if err := s.offers.DeleteByRequest(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete request offers")
	}
	if err := s.expirations.DeleteByItem(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete request expiration")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete request")
	}
	return nil
}
