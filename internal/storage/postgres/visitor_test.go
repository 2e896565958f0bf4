package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/catalog"
)

var fkViolation = &pgconn.PgError{Code: codeForeignKeyViolation, Message: "violates foreign key constraint"}

func entryRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "product_id", "fingerprint", "created_at", "updated_at"})
}

func TestVisitorRepository_RecordView(t *testing.T) {
	mock := newMock(t)
	repo := NewVisitorRepository(mock)

	mock.ExpectBegin()
	mock.ExpectExec(insertProductViewSQL).WithArgs(int64(1), "fp").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(incrementViewsSQL).WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.RecordView(context.Background(), 1, "fp"))
}

func TestVisitorRepository_RecordView_UnknownProduct(t *testing.T) {
	mock := newMock(t)
	repo := NewVisitorRepository(mock)

	mock.ExpectBegin()
	mock.ExpectExec(insertProductViewSQL).WithArgs(int64(99), "fp").WillReturnError(fkViolation)
	mock.ExpectRollback()

	err := repo.RecordView(context.Background(), 99, "fp")
	require.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestVisitorRepository_Save(t *testing.T) {
	mock := newMock(t)
	repo := NewVisitorRepository(mock)

	mock.ExpectQuery(saveProductSQL).WithArgs(int64(1), "fp").
		WillReturnRows(entryRows().AddRow(int64(8), int64(1), "fp", testTime, testTime))

	e, err := repo.Save(context.Background(), 1, "fp")
	require.NoError(t, err)
	assert.Equal(t, int64(8), e.ID)
	assert.Equal(t, int64(1), e.ProductID)
}

func TestVisitorRepository_Save_UnknownProduct(t *testing.T) {
	mock := newMock(t)
	repo := NewVisitorRepository(mock)

	mock.ExpectQuery(saveProductSQL).WithArgs(int64(99), "fp").WillReturnError(fkViolation)

	_, err := repo.Save(context.Background(), 99, "fp")
	require.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestVisitorRepository_Unsave(t *testing.T) {
	mock := newMock(t)
	repo := NewVisitorRepository(mock)

	mock.ExpectExec(unsaveProductSQL).WithArgs(int64(1), "fp").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(unsaveProductSQL).WithArgs(int64(1), "fp").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	deleted, err := repo.Unsave(context.Background(), 1, "fp")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Unsave(context.Background(), 1, "fp")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestVisitorRepository_ListLastSeen(t *testing.T) {
	mock := newMock(t)
	repo := NewVisitorRepository(mock)

	mock.ExpectQuery(listLastSeenSQL).WithArgs("fp").
		WillReturnRows(entryRows().
			AddRow(int64(2), int64(5), "fp", testTime, testTime).
			AddRow(int64(1), int64(4), "fp", testTime, testTime))

	entries, err := repo.ListLastSeen(context.Background(), "fp")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(5), entries[0].ProductID)
}
