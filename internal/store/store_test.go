package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/spaceaccess/internal/db"
	"github.com/vbonduro/spaceaccess/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return New(d)
}

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func TestInTxCommitsOnSuccess(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.InTx(ctx, func(tx *Store) error {
		_, err := tx.Locations.Create(ctx, "Lab", nil)
		return err
	})
	require.NoError(t, err)

	locations, err := s.Locations.List(ctx)
	require.NoError(t, err)
	assert.Len(t, locations, 1)
}

func TestInTxRollsBackOnError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.InTx(ctx, func(tx *Store) error {
		if _, err := tx.Users.Create(ctx, "12345", "Ada", "", time.Now()); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	u, err := s.Users.GetByStudentID(ctx, "12345")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestInTxRollsBackOnPanic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = s.InTx(ctx, func(tx *Store) error {
			_, _ = tx.Locations.Create(ctx, "Doomed", nil)
			panic("scanner exploded")
		})
	})

	locations, err := s.Locations.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, locations)
}

func TestInTxNestedReusesTransaction(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.InTx(ctx, func(tx *Store) error {
		return tx.InTx(ctx, func(inner *Store) error {
			assert.Same(t, tx, inner)
			return nil
		})
	})
	require.NoError(t, err)
}

func TestInTxRollbackWithMock(t *testing.T) {
	d, mock := newMock(t)
	s := New(d)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err := s.InTx(ctx, func(tx *Store) error {
		_, err := tx.Users.Create(ctx, "1", "", "", time.Now())
		return err
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create user")
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxCommitFailureReported(t *testing.T) {
	d, mock := newMock(t)
	s := New(d)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("database is locked"))

	err := s.InTx(context.Background(), func(tx *Store) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to commit transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeRoundTripIsSortable(t *testing.T) {
	a := time.Date(2026, 5, 1, 9, 0, 0, 500, time.UTC)
	b := a.Add(time.Nanosecond * 1000)

	fa, fb := formatTime(a), formatTime(b)
	assert.Less(t, fa, fb)
	assert.Len(t, fa, len(fb))

	parsed, err := parseTime(fa)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(a))

	local := time.FixedZone("UTC+2", 2*3600)
	assert.Equal(t, formatTime(a), formatTime(a.In(local)))
}

func TestSeedLocationIDIsWellKnown(t *testing.T) {
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", domain.SeedLocationID.String())
}
