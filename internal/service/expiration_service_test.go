package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/givelane/givelane-api/internal/models"
	appErrors "github.com/givelane/givelane-api/pkg/errors"
)

type mockExpirationRepo struct {
	records map[string]*models.Expiration
	byItem  map[string]*models.Expiration

	createErr error
	updated   map[string]time.Time
	deleted   []string
}

func newMockExpirationRepo() *mockExpirationRepo {
	return &mockExpirationRepo{
		records: map[string]*models.Expiration{},
		byItem:  map[string]*models.Expiration{},
		updated: map[string]time.Time{},
	}
}

func (m *mockExpirationRepo) Create(_ context.Context, record *models.Expiration) error {
	if m.createErr != nil {
		return m.createErr
	}
	if record.ID == "" {
		record.ID = "exp-" + record.ItemID
	}
	m.records[record.ID] = record
	m.byItem[record.ItemID] = record
	return nil
}

func (m *mockExpirationRepo) FindByID(_ context.Context, id string) (*models.Expiration, error) {
	record, ok := m.records[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return record, nil
}

func (m *mockExpirationRepo) FindByItem(_ context.Context, itemID string) (*models.Expiration, error) {
	record, ok := m.byItem[itemID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return record, nil
}

func (m *mockExpirationRepo) UpdateExpireAt(_ context.Context, id string, expireAt time.Time) error {
	if _, ok := m.records[id]; !ok {
		return sql.ErrNoRows
	}
	m.updated[id] = expireAt
	return nil
}

func (m *mockExpirationRepo) Delete(_ context.Context, id string) error {
	delete(m.records, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockExpirationRepo) DeleteByItem(_ context.Context, itemID string) error {
	if record, ok := m.byItem[itemID]; ok {
		delete(m.records, record.ID)
		delete(m.byItem, itemID)
	}
	return nil
}

func futureExpiry(t *testing.T) (string, string) {
	t.Helper()
	future := time.Now().UTC().Add(48 * time.Hour)
	return future.Format("01/02/2006"), future.Format("15:04")
}

func TestExpirationServiceAllocate(t *testing.T) {
	repo := newMockExpirationRepo()
	svc := NewExpirationService(repo, nil, nil)
	date, tod := futureExpiry(t)

	record, err := svc.Allocate(context.Background(), AllocateExpirationRequest{
		ItemID:   "listing-1",
		ItemKind: string(models.ItemKindListing),
		Date:     date,
		Time:     tod,
	})
	require.NoError(t, err)
	assert.Equal(t, "listing-1", record.ItemID)
	assert.Equal(t, models.ItemKindListing, record.ItemKind)
	assert.True(t, record.ExpireAt.After(time.Now().UTC()))
	assert.Equal(t, time.UTC, record.ExpireAt.Location())
}

func TestExpirationServiceAllocateRejectsPast(t *testing.T) {
	repo := newMockExpirationRepo()
	svc := NewExpirationService(repo, nil, nil)

	_, err := svc.Allocate(context.Background(), AllocateExpirationRequest{
		ItemID:   "listing-1",
		ItemKind: string(models.ItemKindListing),
		Date:     "01/02/2020",
		Time:     "12:00",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidExpiration.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.records)
}

func TestExpirationServiceAllocateRejectsMalformed(t *testing.T) {
	svc := NewExpirationService(newMockExpirationRepo(), nil, nil)

	_, err := svc.Allocate(context.Background(), AllocateExpirationRequest{
		ItemID:   "listing-1",
		ItemKind: string(models.ItemKindListing),
		Date:     "2030-01-02",
		Time:     "12:00",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidExpiration.Code, appErrors.FromError(err).Code)
}

func TestExpirationServiceAllocateRejectsUnknownKind(t *testing.T) {
	svc := NewExpirationService(newMockExpirationRepo(), nil, nil)
	date, tod := futureExpiry(t)

	_, err := svc.Allocate(context.Background(), AllocateExpirationRequest{
		ItemID:   "listing-1",
		ItemKind: "GADGET",
		Date:     date,
		Time:     tod,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExpirationServiceAllocateRejectsDuplicate(t *testing.T) {
	repo := newMockExpirationRepo()
	svc := NewExpirationService(repo, nil, nil)
	date, tod := futureExpiry(t)
	req := AllocateExpirationRequest{
		ItemID:   "listing-1",
		ItemKind: string(models.ItemKindListing),
		Date:     date,
		Time:     tod,
	}

	_, err := svc.Allocate(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Allocate(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestExpirationServiceEditNoOpWhenComponentMissing(t *testing.T) {
	repo := newMockExpirationRepo()
	original := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Minute)
	repo.records["exp-1"] = &models.Expiration{ID: "exp-1", ItemID: "listing-1", ItemKind: models.ItemKindListing, ExpireAt: original}
	svc := NewExpirationService(repo, nil, nil)

	result, err := svc.Edit(context.Background(), "exp-1", EditExpirationRequest{Date: "01/02/2030"})
	require.NoError(t, err)
	assert.False(t, result.Changed)
	assert.Equal(t, "no changes made", result.Message)
	assert.Equal(t, original, result.Record.ExpireAt)
	assert.Empty(t, repo.updated)
}

func TestExpirationServiceEdit(t *testing.T) {
	repo := newMockExpirationRepo()
	repo.records["exp-1"] = &models.Expiration{ID: "exp-1", ItemID: "listing-1", ItemKind: models.ItemKindListing, ExpireAt: time.Now().UTC().Add(time.Hour)}
	svc := NewExpirationService(repo, nil, nil)
	date, tod := futureExpiry(t)

	result, err := svc.Edit(context.Background(), "exp-1", EditExpirationRequest{Date: date, Time: tod})
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Contains(t, repo.updated, "exp-1")
	assert.Equal(t, repo.updated["exp-1"], result.Record.ExpireAt)
}

func TestExpirationServiceEditRejectsPast(t *testing.T) {
	repo := newMockExpirationRepo()
	repo.records["exp-1"] = &models.Expiration{ID: "exp-1", ItemID: "listing-1", ItemKind: models.ItemKindListing, ExpireAt: time.Now().UTC().Add(time.Hour)}
	svc := NewExpirationService(repo, nil, nil)

	_, err := svc.Edit(context.Background(), "exp-1", EditExpirationRequest{Date: "01/02/2020", Time: "12:00"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidExpiration.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.updated)
}

func TestExpirationServiceEditNotFound(t *testing.T) {
	svc := NewExpirationService(newMockExpirationRepo(), nil, nil)

	_, err := svc.Edit(context.Background(), "missing", EditExpirationRequest{Date: "01/02/2030", Time: "12:00"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExpirationServiceDeleteIdempotent(t *testing.T) {
	repo := newMockExpirationRepo()
	repo.records["exp-1"] = &models.Expiration{ID: "exp-1"}
	svc := NewExpirationService(repo, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "exp-1"))
	require.NoError(t, svc.Delete(context.Background(), "exp-1"))
}
