package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/givelane/givelane-api/internal/models"
)

func newClaimRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestClaimRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newClaimRepoMock(t)
	defer cleanup()

	repo := NewClaimRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO claims")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	claim := &models.Claim{ClaimerID: "claimer-1", ListingID: "listing-1", Quantity: 2}
	require.NoError(t, repo.Create(context.Background(), claim))
	require.NotEmpty(t, claim.ID)
	require.False(t, claim.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimRepositoryListByClaimer(t *testing.T) {
	db, mock, cleanup := newClaimRepoMock(t)
	defer cleanup()

	repo := NewClaimRepository(db)
	rows := sqlmock.NewRows([]string{"id", "claimer_id", "listing_id", "quantity", "created_at"}).
		AddRow("claim-1", "claimer-1", "listing-1", 2, time.Now()).
		AddRow("claim-2", "claimer-1", "listing-2", 1, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, claimer_id, listing_id")).
		WithArgs("claimer-1").
		WillReturnRows(rows)

	claims, err := repo.List(context.Background(), models.ClaimFilter{ClaimerID: "claimer-1"})
	require.NoError(t, err)
	require.Len(t, claims, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimRepositoryCountByListing(t *testing.T) {
	db, mock, cleanup := newClaimRepoMock(t)
	defer cleanup()

	repo := NewClaimRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM claims WHERE listing_id = $1")).
		WithArgs("listing-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountByListing(context.Background(), "listing-1")
	require.NoError(t, err)
	require.Equal(t, 3, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimRepositoryDeleteByListing(t *testing.T) {
	db, mock, cleanup := newClaimRepoMock(t)
	defer cleanup()

	repo := NewClaimRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM claims WHERE listing_id = $1")).
		WithArgs("listing-1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.DeleteByListing(context.Background(), "listing-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
