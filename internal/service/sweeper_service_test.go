package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/givelane/givelane-api/internal/models"
)

type mockSweepExpirationStore struct {
	due        []models.Expiration
	listErr    error
	deleteErr  map[string]error
	deletedIDs []string
}

func (m *mockSweepExpirationStore) ListDue(_ context.Context, _ time.Time, _ int) ([]models.Expiration, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.due, nil
}

func (m *mockSweepExpirationStore) Delete(_ context.Context, id string) error {
	if err, ok := m.deleteErr[id]; ok {
		return err
	}
	m.deletedIDs = append(m.deletedIDs, id)
	return nil
}

type mockSweepListingStore struct {
	listings map[string]*models.Listing
	deleted  []string
	findErr  map[string]error
}

func (m *mockSweepListingStore) FindByID(_ context.Context, id string) (*models.Listing, error) {
	if err, ok := m.findErr[id]; ok {
		return nil, err
	}
	listing, ok := m.listings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return listing, nil
}

func (m *mockSweepListingStore) DeleteVisible(_ context.Context, id string) (bool, error) {
	listing, ok := m.listings[id]
	if !ok || listing.Hidden {
		return false, nil
	}
	delete(m.listings, id)
	m.deleted = append(m.deleted, id)
	return true, nil
}

type mockSweepRequestStore struct {
	requests map[string]*models.Request
	deleted  []string
}

func (m *mockSweepRequestStore) FindByID(_ context.Context, id string) (*models.Request, error) {
	request, ok := m.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return request, nil
}

func (m *mockSweepRequestStore) DeleteVisible(_ context.Context, id string) (bool, error) {
	request, ok := m.requests[id]
	if !ok || request.Hidden {
		return false, nil
	}
	delete(m.requests, id)
	m.deleted = append(m.deleted, id)
	return true, nil
}

func dueRecord(id, itemID string, kind models.ItemKind) models.Expiration {
	return models.Expiration{ID: id, ItemID: itemID, ItemKind: kind, ExpireAt: time.Now().UTC().Add(-time.Hour)}
}

func TestSweeperDeletesDueVisibleItems(t *testing.T) {
	expirations := &mockSweepExpirationStore{due: []models.Expiration{
		dueRecord("exp-1", "listing-1", models.ItemKindListing),
		dueRecord("exp-2", "request-1", models.ItemKindRequest),
	}}
	listings := &mockSweepListingStore{listings: map[string]*models.Listing{
		"listing-1": {ID: "listing-1", Remaining: 3},
	}}
	requests := &mockSweepRequestStore{requests: map[string]*models.Request{
		"request-1": {ID: "request-1"},
	}}
	svc := NewSweeperService(expirations, listings, requests, nil, nil, 100, nil)

	result, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Scanned)
	assert.Equal(t, 2, result.Deleted)
	assert.Zero(t, result.Failed)
	assert.Equal(t, []string{"listing-1"}, listings.deleted)
	assert.Equal(t, []string{"request-1"}, requests.deleted)
	assert.ElementsMatch(t, []string{"exp-1", "exp-2"}, expirations.deletedIDs)
}

func TestSweeperSkipsHiddenItems(t *testing.T) {
	expirations := &mockSweepExpirationStore{due: []models.Expiration{
		dueRecord("exp-1", "listing-1", models.ItemKindListing),
	}}
	listings := &mockSweepListingStore{listings: map[string]*models.Listing{
		"listing-1": {ID: "listing-1", Hidden: true},
	}}
	svc := NewSweeperService(expirations, listings, &mockSweepRequestStore{}, nil, nil, 100, nil)

	result, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Zero(t, result.Deleted)
	// The ledger entry survives so a later unhide keeps its expiry.
	assert.Empty(t, expirations.deletedIDs)
	assert.Contains(t, listings.listings, "listing-1")
}

func TestSweeperRemovesOrphanRecords(t *testing.T) {
	expirations := &mockSweepExpirationStore{due: []models.Expiration{
		dueRecord("exp-1", "gone", models.ItemKindListing),
	}}
	svc := NewSweeperService(expirations, &mockSweepListingStore{}, &mockSweepRequestStore{}, nil, nil, 100, nil)

	result, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Orphans)
	assert.Equal(t, []string{"exp-1"}, expirations.deletedIDs)
}

func TestSweeperIsolatesPerRecordFailures(t *testing.T) {
	expirations := &mockSweepExpirationStore{due: []models.Expiration{
		dueRecord("exp-1", "broken", models.ItemKindListing),
		dueRecord("exp-2", "listing-2", models.ItemKindListing),
	}}
	listings := &mockSweepListingStore{
		listings: map[string]*models.Listing{"listing-2": {ID: "listing-2"}},
		findErr:  map[string]error{"broken": errors.New("connection reset")},
	}
	svc := NewSweeperService(expirations, listings, &mockSweepRequestStore{}, nil, nil, 100, nil)

	result, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, []string{"listing-2"}, listings.deleted)
}

func TestSweeperStopsOnCancelledContext(t *testing.T) {
	expirations := &mockSweepExpirationStore{due: []models.Expiration{
		dueRecord("exp-1", "listing-1", models.ItemKindListing),
		dueRecord("exp-2", "listing-2", models.ItemKindListing),
	}}
	listings := &mockSweepListingStore{listings: map[string]*models.Listing{
		"listing-1": {ID: "listing-1"},
		"listing-2": {ID: "listing-2"},
	}}
	svc := NewSweeperService(expirations, listings, &mockSweepRequestStore{}, nil, nil, 100, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := svc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Scanned)
	assert.Zero(t, result.Deleted)
	assert.Empty(t, listings.deleted)
}

func TestSweeperSkipsItemHiddenMidSweep(t *testing.T) {
	// The item reads as visible but the conditional delete declines,
	// mirroring a hide that lands between the lookup and the delete.
	expirations := &mockSweepExpirationStore{due: []models.Expiration{
		dueRecord("exp-1", "listing-1", models.ItemKindListing),
	}}
	listings := &hideBetweenStore{
		mockSweepListingStore: mockSweepListingStore{listings: map[string]*models.Listing{
			"listing-1": {ID: "listing-1"},
		}},
	}
	svc := NewSweeperService(expirations, listings, &mockSweepRequestStore{}, nil, nil, 100, nil)

	result, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Zero(t, result.Deleted)
}

type hideBetweenStore struct {
	mockSweepListingStore
}

func (s *hideBetweenStore) FindByID(ctx context.Context, id string) (*models.Listing, error) {
	listing, err := s.mockSweepListingStore.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Flip hidden after the lookup result is taken.
	listing.Hidden = true
	copied := *listing
	copied.Hidden = false
	return &copied, nil
}
