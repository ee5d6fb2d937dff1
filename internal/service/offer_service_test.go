package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/givelane/givelane-api/internal/models"
	appErrors "github.com/givelane/givelane-api/pkg/errors"
)

type mockOfferRepo struct {
	offers  map[string]*models.Offer
	deleted []string
}

func newMockOfferRepo(offers ...*models.Offer) *mockOfferRepo {
	repo := &mockOfferRepo{offers: map[string]*models.Offer{}}
	for _, offer := range offers {
		repo.offers[offer.ID] = offer
	}
	return repo
}

func (m *mockOfferRepo) Create(_ context.Context, offer *models.Offer) error {
	if offer.ID == "" {
		offer.ID = "offer-new"
	}
	m.offers[offer.ID] = offer
	return nil
}

func (m *mockOfferRepo) FindByID(_ context.Context, id string) (*models.Offer, error) {
	offer, ok := m.offers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *offer
	return &copied, nil
}

func (m *mockOfferRepo) ListByRequest(_ context.Context, requestID string) ([]models.Offer, error) {
	var out []models.Offer
	for _, offer := range m.offers {
		if offer.RequestID == requestID {
			out = append(out, *offer)
		}
	}
	return out, nil
}

func (m *mockOfferRepo) ListByOfferer(_ context.Context, offererID string) ([]models.Offer, error) {
	var out []models.Offer
	for _, offer := range m.offers {
		if offer.OffererID == offererID {
			out = append(out, *offer)
		}
	}
	return out, nil
}

func (m *mockOfferRepo) Update(_ context.Context, id string, patch models.OfferUpdate) error {
	offer, ok := m.offers[id]
	if !ok {
		return sql.ErrNoRows
	}
	if patch.Location != nil {
		offer.Location = *patch.Location
	}
	if patch.Message != nil {
		offer.Message = *patch.Message
	}
	if patch.ImagePath != nil {
		offer.ImagePath = *patch.ImagePath
	}
	return nil
}

func (m *mockOfferRepo) MarkAccepted(_ context.Context, id string) (bool, error) {
	offer, ok := m.offers[id]
	if !ok || offer.Accepted {
		return false, nil
	}
	offer.Accepted = true
	return true, nil
}

func (m *mockOfferRepo) Delete(_ context.Context, id string) error {
	delete(m.offers, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockOfferRequestStore struct {
	requests map[string]*models.Request
	toggled  []string
}

func (m *mockOfferRequestStore) FindByID(_ context.Context, id string) (*models.Request, error) {
	request, ok := m.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *request
	return &copied, nil
}

func (m *mockOfferRequestStore) ToggleHidden(_ context.Context, id string) error {
	request, ok := m.requests[id]
	if !ok {
		return sql.ErrNoRows
	}
	request.Hidden = !request.Hidden
	m.toggled = append(m.toggled, id)
	return nil
}

func TestOfferServiceCreate(t *testing.T) {
	requests := &mockOfferRequestStore{requests: map[string]*models.Request{
		"request-1": {ID: "request-1", RequesterID: "requester-1"},
	}}
	svc := NewOfferService(newMockOfferRepo(), requests, nil, nil, nil)

	offer, err := svc.Create(context.Background(), "offerer-1", CreateOfferRequest{
		RequestID: "request-1",
		Location:  "Community hall",
	})
	require.NoError(t, err)
	assert.Equal(t, "offerer-1", offer.OffererID)
	assert.False(t, offer.Accepted)
}

func TestOfferServiceCreateRejectsHiddenRequest(t *testing.T) {
	requests := &mockOfferRequestStore{requests: map[string]*models.Request{
		"request-1": {ID: "request-1", Hidden: true},
	}}
	svc := NewOfferService(newMockOfferRepo(), requests, nil, nil, nil)

	_, err := svc.Create(context.Background(), "offerer-1", CreateOfferRequest{
		RequestID: "request-1",
		Location:  "Community hall",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestOfferServiceAcceptHidesRequest(t *testing.T) {
	repo := newMockOfferRepo(&models.Offer{ID: "offer-1", OffererID: "offerer-1", RequestID: "request-1"})
	requests := &mockOfferRequestStore{requests: map[string]*models.Request{
		"request-1": {ID: "request-1", RequesterID: "requester-1"},
	}}
	svc := NewOfferService(repo, requests, nil, nil, nil)

	offer, err := svc.Accept(context.Background(), "requester-1", "offer-1")
	require.NoError(t, err)
	assert.True(t, offer.Accepted)
	assert.True(t, requests.requests["request-1"].Hidden)
}

func TestOfferServiceAcceptRequesterOnly(t *testing.T) {
	repo := newMockOfferRepo(&models.Offer{ID: "offer-1", OffererID: "offerer-1", RequestID: "request-1"})
	requests := &mockOfferRequestStore{requests: map[string]*models.Request{
		"request-1": {ID: "request-1", RequesterID: "requester-1"},
	}}
	svc := NewOfferService(repo, requests, nil, nil, nil)

	_, err := svc.Accept(context.Background(), "offerer-1", "offer-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotAuthor.Code, appErrors.FromError(err).Code)
	assert.False(t, repo.offers["offer-1"].Accepted)
}

func TestOfferServiceAcceptOnlyOnce(t *testing.T) {
	repo := newMockOfferRepo(&models.Offer{ID: "offer-1", OffererID: "offerer-1", RequestID: "request-1"})
	requests := &mockOfferRequestStore{requests: map[string]*models.Request{
		"request-1": {ID: "request-1", RequesterID: "requester-1"},
	}}
	svc := NewOfferService(repo, requests, nil, nil, nil)

	_, err := svc.Accept(context.Background(), "requester-1", "offer-1")
	require.NoError(t, err)

	_, err = svc.Accept(context.Background(), "requester-1", "offer-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyAccepted.Code, appErrors.FromError(err).Code)
	// The request stays hidden; the toggle runs once.
	assert.Equal(t, []string{"request-1"}, requests.toggled)
}

func TestOfferServiceUpdateFrozenAfterAcceptance(t *testing.T) {
	repo := newMockOfferRepo(&models.Offer{ID: "offer-1", OffererID: "offerer-1", RequestID: "request-1", Accepted: true})
	svc := NewOfferService(repo, &mockOfferRequestStore{}, nil, nil, nil)

	location := "Elsewhere"
	_, err := svc.Update(context.Background(), "offerer-1", "offer-1", models.OfferUpdate{Location: &location})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyAccepted.Code, appErrors.FromError(err).Code)
}

func TestOfferServiceDeleteOffererOnly(t *testing.T) {
	repo := newMockOfferRepo(&models.Offer{ID: "offer-1", OffererID: "offerer-1", RequestID: "request-1"})
	svc := NewOfferService(repo, &mockOfferRequestStore{}, nil, nil, nil)

	err := svc.Delete(context.Background(), "someone-else", "offer-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotAuthor.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(context.Background(), "offerer-1", "offer-1"))
	assert.Empty(t, repo.offers)
}
