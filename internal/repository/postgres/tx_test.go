package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestTxManager_CommitsOnSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM event_registrations`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tm := NewTxManager(db)
	err = tm.WithinTx(context.Background(), func(ctx context.Context) error {
		_, execErr := q(ctx, db).ExecContext(ctx, `DELETE FROM event_registrations WHERE id = $1`, "x")
		return execErr
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTxManager_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	tm := NewTxManager(db)
	err = tm.WithinTx(context.Background(), func(ctx context.Context) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTxManager_JoinsExistingTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// Only one Begin/Commit pair even though WithinTx nests.
	mock.ExpectBegin()
	mock.ExpectCommit()

	tm := NewTxManager(db)
	err = tm.WithinTx(context.Background(), func(ctx context.Context) error {
		return tm.WithinTx(ctx, func(ctx context.Context) error {
			return nil
		})
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
