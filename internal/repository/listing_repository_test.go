package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/givelane/givelane-api/internal/models"
)

func newListingRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestListingRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newListingRepoMock(t)
	defer cleanup()

	repo := NewListingRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO listings")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	listing := &models.Listing{
		AuthorID:       "author-1",
		Name:           "Folding table",
		MeetupLocation: "Library steps",
		Quantity:       3,
		Remaining:      3,
	}
	require.NoError(t, repo.Create(context.Background(), listing))
	require.NotEmpty(t, listing.ID)

	rows := sqlmock.NewRows([]string{"id", "author_id", "name", "description", "meetup_location", "image_path", "quantity", "remaining", "hidden", "created_at", "updated_at"}).
		AddRow(listing.ID, listing.AuthorID, listing.Name, "", listing.MeetupLocation, "", 3, 3, false, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, author_id, name")).
		WithArgs(listing.ID).
		WillReturnRows(rows)

	found, err := repo.FindByID(context.Background(), listing.ID)
	require.NoError(t, err)
	require.Equal(t, listing.ID, found.ID)
	require.Equal(t, 3, found.Remaining)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepositoryApplyClaim(t *testing.T) {
	db, mock, cleanup := newListingRepoMock(t)
	defer cleanup()

	repo := NewListingRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE listings")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	applied, err := repo.ApplyClaim(context.Background(), "listing-1", 4)
	require.NoError(t, err)
	require.True(t, applied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepositoryApplyClaimGuardDeclines(t *testing.T) {
	db, mock, cleanup := newListingRepoMock(t)
	defer cleanup()

	repo := NewListingRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE listings")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	applied, err := repo.ApplyClaim(context.Background(), "listing-1", 40)
	require.NoError(t, err)
	require.False(t, applied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepositoryDeleteVisible(t *testing.T) {
	db, mock, cleanup := newListingRepoMock(t)
	defer cleanup()

	repo := NewListingRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM listings WHERE id = $1 AND hidden = FALSE")).
		WithArgs("listing-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := repo.DeleteVisible(context.Background(), "listing-1")
	require.NoError(t, err)
	require.True(t, deleted)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM listings WHERE id = $1 AND hidden = FALSE")).
		WithArgs("listing-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err = repo.DeleteVisible(context.Background(), "listing-1")
	require.NoError(t, err)
	require.False(t, deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepositoryToggleHiddenMissing(t *testing.T) {
	db, mock, cleanup := newListingRepoMock(t)
	defer cleanup()

	repo := NewListingRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE listings SET hidden = NOT hidden")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ToggleHidden(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepositoryUpdatePartial(t *testing.T) {
	db, mock, cleanup := newListingRepoMock(t)
	defer cleanup()

	repo := NewListingRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE listings SET name = $1, updated_at = $2 WHERE id = $3")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	name := "Armchair"
	require.NoError(t, repo.Update(context.Background(), "listing-1", models.ListingUpdate{Name: &name}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepositoryUpdateEmptyPatchIsNoOp(t *testing.T) {
	db, mock, cleanup := newListingRepoMock(t)
	defer cleanup()

	repo := NewListingRepository(db)
	require.NoError(t, repo.Update(context.Background(), "listing-1", models.ListingUpdate{}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepositoryListVisible(t *testing.T) {
	db, mock, cleanup := newListingRepoMock(t)
	defer cleanup()

	repo := NewListingRepository(db)
	rows := sqlmock.NewRows([]string{"id", "author_id", "name", "description", "meetup_location", "image_path", "quantity", "remaining", "hidden", "created_at", "updated_at"}).
		AddRow("listing-1", "author-1", "Chair", "", "Hall", "", 1, 1, false, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, author_id, name")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM listings")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	listings, total, err := repo.List(context.Background(), models.ListingFilter{VisibleOnly: true})
	require.NoError(t, err)
	require.Len(t, listings, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
