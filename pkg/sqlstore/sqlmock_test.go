package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/watchtower/pkg/core/model"
)

func setupMockStore(t *testing.T, dialect Dialect) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return New(sqlDB, dialect), mock
}

func TestGetShiftRecords_QueryError(t *testing.T) {
	store, mock := setupMockStore(t, Postgres)

	mock.ExpectQuery(`SELECT id, member_id, shift_date`).
		WithArgs(monday, monday).
		WillReturnError(errors.New("connection reset"))

	_, err := store.GetShiftRecords(context.Background(), monday, monday)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query shift records")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetShiftRecords_PostgresPlaceholders(t *testing.T) {
	store, mock := setupMockStore(t, Postgres)

	rows := sqlmock.NewRows([]string{"id", "member_id", "shift_date", "shift_type", "hours", "recall"}).
		AddRow("s1", "VP001", monday, "van", 8.0, false)

	mock.ExpectQuery(`WHERE shift_date >= \$1 AND shift_date <= \$2`).
		WithArgs(monday, monday.AddDate(0, 0, 6)).
		WillReturnRows(rows)

	records, err := store.GetShiftRecords(context.Background(), monday, monday.AddDate(0, 0, 6))

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.ShiftVan, records[0].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRoster_RollsBackOnAssignmentError(t *testing.T) {
	store, mock := setupMockStore(t, Postgres)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO roster_periods`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO shift_assignments`).WillReturnError(errors.New("unique violation"))
	mock.ExpectRollback()

	err := store.SaveRoster(context.Background(), draftRoster())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert assignment")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPublished_ExecError(t *testing.T) {
	store, mock := setupMockStore(t, Postgres)

	mock.ExpectExec(`UPDATE roster_periods`).WillReturnError(errors.New("deadlock detected"))

	ok, err := store.MarkPublished(context.Background(), "r1", time.Now(), model.PublicationNotice{})

	require.Error(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRoster_NotFound(t *testing.T) {
	store, mock := setupMockStore(t, Postgres)

	mock.ExpectQuery(`FROM roster_periods`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.GetRoster(context.Background(), "missing")

	assert.ErrorIs(t, err, model.ErrRosterNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertMembers_CommitError(t *testing.T) {
	store, mock := setupMockStore(t, SQLite)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO members`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO member_preferences`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("disk full"))

	err := store.UpsertMembers(context.Background(), []model.Member{{ID: "VP001", Station: "Central"}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to commit transaction")
}
