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

type mockClaimRepo struct {
	claims    map[string]*models.Claim
	createErr error
	deleted   []string
}

func newMockClaimRepo() *mockClaimRepo {
	return &mockClaimRepo{claims: map[string]*models.Claim{}}
}

func (m *mockClaimRepo) Create(_ context.Context, claim *models.Claim) error {
	if m.createErr != nil {
		return m.createErr
	}
	if claim.ID == "" {
		claim.ID = "claim-" + claim.ListingID
	}
	m.claims[claim.ID] = claim
	return nil
}

func (m *mockClaimRepo) FindByID(_ context.Context, id string) (*models.Claim, error) {
	claim, ok := m.claims[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return claim, nil
}

func (m *mockClaimRepo) List(_ context.Context, filter models.ClaimFilter) ([]models.Claim, error) {
	var out []models.Claim
	for _, claim := range m.claims {
		if filter.ClaimerID != "" && claim.ClaimerID != filter.ClaimerID {
			continue
		}
		if filter.ListingID != "" && claim.ListingID != filter.ListingID {
			continue
		}
		out = append(out, *claim)
	}
	return out, nil
}

func (m *mockClaimRepo) Delete(_ context.Context, id string) error {
	delete(m.claims, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockClaimRepo) DeleteByListing(_ context.Context, listingID string) error {
	for id, claim := range m.claims {
		if claim.ListingID == listingID {
			delete(m.claims, id)
		}
	}
	return nil
}

// mockClaimListingStore mimics the conditional decrement of the real store,
// including the flip to hidden when remaining reaches zero.
type mockClaimListingStore struct {
	listings      map[string]*models.Listing
	applyErr      error
	applyOverride *bool
	applyCalls    int
}

func newMockClaimListingStore(listings ...*models.Listing) *mockClaimListingStore {
	store := &mockClaimListingStore{listings: map[string]*models.Listing{}}
	for _, listing := range listings {
		store.listings[listing.ID] = listing
	}
	return store
}

func (m *mockClaimListingStore) FindByID(_ context.Context, id string) (*models.Listing, error) {
	listing, ok := m.listings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *listing
	return &copied, nil
}

func (m *mockClaimListingStore) ApplyClaim(_ context.Context, id string, qty int) (bool, error) {
	m.applyCalls++
	if m.applyErr != nil {
		return false, m.applyErr
	}
	if m.applyOverride != nil {
		return *m.applyOverride, nil
	}
	listing, ok := m.listings[id]
	if !ok || listing.Remaining < qty {
		return false, nil
	}
	listing.Remaining -= qty
	if listing.Remaining <= 0 {
		listing.Hidden = true
	}
	return true, nil
}

func TestClaimServiceClaim(t *testing.T) {
	store := newMockClaimListingStore(&models.Listing{ID: "listing-1", AuthorID: "author", Quantity: 10, Remaining: 10})
	repo := newMockClaimRepo()
	svc := NewClaimService(repo, store, nil, nil, nil, nil)

	claim, err := svc.Claim(context.Background(), "claimer-1", CreateClaimRequest{ListingID: "listing-1", Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, claim.Quantity)
	assert.Equal(t, "claimer-1", claim.ClaimerID)
	assert.Equal(t, 6, store.listings["listing-1"].Remaining)
	assert.False(t, store.listings["listing-1"].Hidden)
}

func TestClaimServiceHidesAtZero(t *testing.T) {
	store := newMockClaimListingStore(&models.Listing{ID: "listing-1", Quantity: 10, Remaining: 10})
	svc := NewClaimService(newMockClaimRepo(), store, nil, nil, nil, nil)

	_, err := svc.Claim(context.Background(), "a", CreateClaimRequest{ListingID: "listing-1", Quantity: 4})
	require.NoError(t, err)
	_, err = svc.Claim(context.Background(), "b", CreateClaimRequest{ListingID: "listing-1", Quantity: 6})
	require.NoError(t, err)

	assert.Equal(t, 0, store.listings["listing-1"].Remaining)
	assert.True(t, store.listings["listing-1"].Hidden)

	_, err = svc.Claim(context.Background(), "c", CreateClaimRequest{ListingID: "listing-1", Quantity: 1})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOverclaim.Code, appErrors.FromError(err).Code)
}

func TestClaimServiceOverclaimLeavesStateUntouched(t *testing.T) {
	store := newMockClaimListingStore(&models.Listing{ID: "listing-1", Quantity: 3, Remaining: 3})
	repo := newMockClaimRepo()
	svc := NewClaimService(repo, store, nil, nil, nil, nil)

	_, err := svc.Claim(context.Background(), "claimer-1", CreateClaimRequest{ListingID: "listing-1", Quantity: 5})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOverclaim.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 3, store.listings["listing-1"].Remaining)
	assert.Empty(t, repo.claims)
	assert.Zero(t, store.applyCalls)
}

func TestClaimServiceOverclaimIsAgainstRemainingNotQuantity(t *testing.T) {
	store := newMockClaimListingStore(&models.Listing{ID: "listing-1", Quantity: 10, Remaining: 2})
	svc := NewClaimService(newMockClaimRepo(), store, nil, nil, nil, nil)

	_, err := svc.Claim(context.Background(), "claimer-1", CreateClaimRequest{ListingID: "listing-1", Quantity: 5})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOverclaim.Code, appErrors.FromError(err).Code)
}

func TestClaimServiceRaceLostMapsToOverclaim(t *testing.T) {
	store := newMockClaimListingStore(&models.Listing{ID: "listing-1", Quantity: 10, Remaining: 10})
	lost := false
	store.applyOverride = &lost
	repo := newMockClaimRepo()
	svc := NewClaimService(repo, store, nil, nil, nil, nil)

	_, err := svc.Claim(context.Background(), "claimer-1", CreateClaimRequest{ListingID: "listing-1", Quantity: 4})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOverclaim.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.claims)
}

func TestClaimServiceListingNotFound(t *testing.T) {
	svc := NewClaimService(newMockClaimRepo(), newMockClaimListingStore(), nil, nil, nil, nil)

	_, err := svc.Claim(context.Background(), "claimer-1", CreateClaimRequest{ListingID: "missing", Quantity: 1})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestClaimServiceReleaseDoesNotRestoreRemaining(t *testing.T) {
	store := newMockClaimListingStore(&models.Listing{ID: "listing-1", Quantity: 10, Remaining: 10})
	repo := newMockClaimRepo()
	svc := NewClaimService(repo, store, nil, nil, nil, nil)

	claim, err := svc.Claim(context.Background(), "claimer-1", CreateClaimRequest{ListingID: "listing-1", Quantity: 4})
	require.NoError(t, err)
	require.Equal(t, 6, store.listings["listing-1"].Remaining)

	require.NoError(t, svc.Release(context.Background(), "claimer-1", claim.ID))
	assert.Empty(t, repo.claims)
	assert.Equal(t, 6, store.listings["listing-1"].Remaining)
}

func TestClaimServiceReleaseClaimerOnly(t *testing.T) {
	store := newMockClaimListingStore(&models.Listing{ID: "listing-1", Quantity: 10, Remaining: 10})
	repo := newMockClaimRepo()
	svc := NewClaimService(repo, store, nil, nil, nil, nil)

	claim, err := svc.Claim(context.Background(), "claimer-1", CreateClaimRequest{ListingID: "listing-1", Quantity: 2})
	require.NoError(t, err)

	err = svc.Release(context.Background(), "someone-else", claim.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotAuthor.Code, appErrors.FromError(err).Code)
	assert.Len(t, repo.claims, 1)
}
