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

func newExpirationRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestExpirationRepositoryCreateAndFindByItem(t *testing.T) {
	db, mock, cleanup := newExpirationRepoMock(t)
	defer cleanup()

	repo := NewExpirationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO expirations")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := &models.Expiration{
		ItemID:   "listing-1",
		ItemKind: models.ItemKindListing,
		ExpireAt: time.Now().UTC().Add(time.Hour),
	}
	require.NoError(t, repo.Create(context.Background(), record))
	require.NotEmpty(t, record.ID)

	rows := sqlmock.NewRows([]string{"id", "item_id", "item_kind", "expire_at", "created_at", "updated_at"}).
		AddRow(record.ID, record.ItemID, record.ItemKind, record.ExpireAt, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, item_id, item_kind")).
		WithArgs("listing-1").
		WillReturnRows(rows)

	found, err := repo.FindByItem(context.Background(), "listing-1")
	require.NoError(t, err)
	require.Equal(t, models.ItemKindListing, found.ItemKind)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpirationRepositoryListDue(t *testing.T) {
	db, mock, cleanup := newExpirationRepoMock(t)
	defer cleanup()

	repo := NewExpirationRepository(db)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "item_id", "item_kind", "expire_at", "created_at", "updated_at"}).
		AddRow("exp-1", "listing-1", models.ItemKindListing, now.Add(-2*time.Hour), now, now).
		AddRow("exp-2", "request-1", models.ItemKindRequest, now.Add(-time.Hour), now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, item_id, item_kind")).
		WithArgs(now).
		WillReturnRows(rows)

	due, err := repo.ListDue(context.Background(), now, 100)
	require.NoError(t, err)
	require.Len(t, due, 2)
	require.Equal(t, "exp-1", due[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpirationRepositoryUpdateExpireAtMissing(t *testing.T) {
	db, mock, cleanup := newExpirationRepoMock(t)
	defer cleanup()

	repo := NewExpirationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE expirations SET expire_at")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateExpireAt(context.Background(), "missing", time.Now().UTC().Add(time.Hour))
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpirationRepositoryDeleteIdempotent(t *testing.T) {
	db, mock, cleanup := newExpirationRepoMock(t)
	defer cleanup()

	repo := NewExpirationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM expirations WHERE id = $1")).
		WithArgs("exp-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM expirations WHERE id = $1")).
		WithArgs("exp-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "exp-1"))
	require.NoError(t, repo.Delete(context.Background(), "exp-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
