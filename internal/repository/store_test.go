package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"inquill/internal/db/sqlc"
	"inquill/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_WithTx_CommitsOnSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	s := repository.NewStore(db)
	err = s.WithTx(context.Background(), func(q sqlc.Querier) error {
		if q == nil {
			return errors.New("nil queries")
		}
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithTx_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	s := repository.NewStore(db)
	sentinel := errors.New("boom")
	err = s.WithTx(context.Background(), func(q sqlc.Querier) error { return sentinel })
	assert.ErrorIs(t, err, sentinel)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithTx_UsesTransactionForQueries(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery(`-- name: UpdateArticleStatus`).
		WithArgs(id, "published").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	s := repository.NewStore(db)
	err = s.WithTx(context.Background(), func(q sqlc.Querier) error {
		_, err := q.UpdateArticleStatus(context.Background(), sqlc.UpdateArticleStatusParams{ID: id, Status: "published"})
		return err
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueries_IncrementArticleViews(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	mock.ExpectQuery(`-- name: IncrementArticleViews`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"views"}).AddRow(int64(8)))

	views, err := sqlc.New(db).IncrementArticleViews(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(8), views)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueries_ListPopularTags(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`-- name: ListPopularTags`).
		WithArgs(int32(10)).
		WillReturnRows(sqlmock.NewRows([]string{"tag", "count"}).
			AddRow("cardiology", int64(4)).
			AddRow("oncology", int64(2)))

	tags, err := sqlc.New(db).ListPopularTags(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, sqlc.ListPopularTagsRow{Tag: "cardiology", Count: 4}, tags[0])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueries_MarkNewsletterSent_NoRowsWhenAlreadySent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	mock.ExpectQuery(`-- name: MarkNewsletterSent`).
		WithArgs(id, int32(1250), "32.5%", "4.8%").
		WillReturnError(sql.ErrNoRows)

	_, err = sqlc.New(db).MarkNewsletterSent(context.Background(), sqlc.MarkNewsletterSentParams{
		ID: id, Recipients: 1250, OpenRate: "32.5%", ClickRate: "4.8%",
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueries_DeleteCommentsByArticle_RowsAffected(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	mock.ExpectExec(`-- name: DeleteCommentsByArticle`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := sqlc.New(db).DeleteCommentsByArticle(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}
