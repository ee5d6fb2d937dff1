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

type mockListingRepo struct {
	listings map[string]*models.Listing
	deleted  []string
	toggled  []string
}

func newMockListingRepo(listings ...*models.Listing) *mockListingRepo {
	repo := &mockListingRepo{listings: map[string]*models.Listing{}}
	for _, listing := range listings {
		repo.listings[listing.ID] = listing
	}
	return repo
}

func (m *mockListingRepo) Create(_ context.Context, listing *models.Listing) error {
	if listing.ID == "" {
		listing.ID = "listing-new"
	}
	m.listings[listing.ID] = listing
	return nil
}

func (m *mockListingRepo) FindByID(_ context.Context, id string) (*models.Listing, error) {
	listing, ok := m.listings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *listing
	return &copied, nil
}

func (m *mockListingRepo) List(_ context.Context, filter models.ListingFilter) ([]models.Listing, int, error) {
	var out []models.Listing
	for _, listing := range m.listings {
		if filter.VisibleOnly && listing.Hidden {
			continue
		}
		if filter.AuthorID != "" && listing.AuthorID != filter.AuthorID {
			continue
		}
		out = append(out, *listing)
	}
	return out, len(out), nil
}

func (m *mockListingRepo) Update(_ context.Context, id string, patch models.ListingUpdate) error {
	listing, ok := m.listings[id]
	if !ok {
		return sql.ErrNoRows
	}
	if patch.Name != nil {
		listing.Name = *patch.Name
	}
	if patch.Quantity != nil {
		listing.Quantity = *patch.Quantity
	}
	if patch.ImagePath != nil {
		listing.ImagePath = *patch.ImagePath
	}
	return nil
}

func (m *mockListingRepo) ToggleHidden(_ context.Context, id string) error {
	listing, ok := m.listings[id]
	if !ok {
		return sql.ErrNoRows
	}
	listing.Hidden = !listing.Hidden
	m.toggled = append(m.toggled, id)
	return nil
}

func (m *mockListingRepo) Delete(_ context.Context, id string) error {
	delete(m.listings, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type recordingDeleter struct {
	calls  []string
	counts []string
}

func (r *recordingDeleter) CountByListing(_ context.Context, listingID string) (int, error) {
	r.counts = append(r.counts, listingID)
	return len(r.calls), nil
}

func (r *recordingDeleter) DeleteByListing(_ context.Context, listingID string) error {
	r.calls = append(r.calls, listingID)
	return nil
}

type recordingItemDeleter struct {
	calls []string
}

func (r *recordingItemDeleter) DeleteByItem(_ context.Context, itemID string) error {
	r.calls = append(r.calls, itemID)
	return nil
}

func newListingService(repo *mockListingRepo) (*ListingService, *recordingDeleter, *recordingDeleter, *recordingItemDeleter) {
	claims := &recordingDeleter{}
	tags := &recordingDeleter{}
	expirations := &recordingItemDeleter{}
	svc := NewListingService(repo, claims, tags, expirations, nil, nil, nil, nil)
	return svc, claims, tags, expirations
}

func TestListingServiceCreate(t *testing.T) {
	repo := newMockListingRepo()
	svc, _, _, _ := newListingService(repo)

	listing, err := svc.Create(context.Background(), "author-1", CreateListingRequest{
		Name:           "Folding table",
		MeetupLocation: "Library steps",
		Quantity:       3,
	})
	require.NoError(t, err)
	assert.Equal(t, "author-1", listing.AuthorID)
	assert.Equal(t, 3, listing.Quantity)
	assert.Equal(t, 3, listing.Remaining)
	assert.False(t, listing.Hidden)
}

func TestListingServiceCreateRejectsNegativeQuantity(t *testing.T) {
	svc, _, _, _ := newListingService(newMockListingRepo())

	_, err := svc.Create(context.Background(), "author-1", CreateListingRequest{
		Name:           "Folding table",
		MeetupLocation: "Library steps",
		Quantity:       -1,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidQuantity.Code, appErrors.FromError(err).Code)
}

func TestListingServiceCreateRequiresNameAndLocation(t *testing.T) {
	svc, _, _, _ := newListingService(newMockListingRepo())

	_, err := svc.Create(context.Background(), "author-1", CreateListingRequest{Quantity: 1})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestListingServiceUpdateAuthorOnly(t *testing.T) {
	repo := newMockListingRepo(&models.Listing{ID: "listing-1", AuthorID: "author-1", Name: "Chair"})
	svc, _, _, _ := newListingService(repo)

	name := "Armchair"
	_, err := svc.Update(context.Background(), "intruder", "listing-1", models.ListingUpdate{Name: &name})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotAuthor.Code, appErrors.FromError(err).Code)
	assert.Equal(t, "Chair", repo.listings["listing-1"].Name)

	updated, err := svc.Update(context.Background(), "author-1", "listing-1", models.ListingUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Armchair", updated.Name)
}

func TestListingServiceToggleHidden(t *testing.T) {
	repo := newMockListingRepo(&models.Listing{ID: "listing-1", AuthorID: "author-1"})
	svc, _, _, _ := newListingService(repo)

	listing, err := svc.ToggleHidden(context.Background(), "author-1", "listing-1")
	require.NoError(t, err)
	assert.True(t, listing.Hidden)

	listing, err = svc.ToggleHidden(context.Background(), "author-1", "listing-1")
	require.NoError(t, err)
	assert.False(t, listing.Hidden)
}

func TestListingServiceDeleteCascades(t *testing.T) {
	repo := newMockListingRepo(&models.Listing{ID: "listing-1", AuthorID: "author-1"})
	svc, claims, tags, expirations := newListingService(repo)

	require.NoError(t, svc.Delete(context.Background(), "author-1", "listing-1"))
	assert.Equal(t, []string{"listing-1"}, claims.calls)
	assert.Equal(t, []string{"listing-1"}, tags.calls)
	assert.Equal(t, []string{"listing-1"}, expirations.calls)
	assert.Equal(t, []string{"listing-1"}, repo.deleted)
}

func TestListingServiceDeleteAuthorOnly(t *testing.T) {
	repo := newMockListingRepo(&models.Listing{ID: "listing-1", AuthorID: "author-1"})
	svc, claims, _, _ := newListingService(repo)

	err := svc.Delete(context.Background(), "intruder", "listing-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotAuthor.Code, appErrors.FromError(err).Code)
	assert.Empty(t, claims.calls)
	assert.Contains(t, repo.listings, "listing-1")
}

func TestListingServiceGetNotFound(t *testing.T) {
	svc, _, _, _ := newListingService(newMockListingRepo())

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
