package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ledgerTx opens a mock DB with one transaction already begun, the
// shape every capacity ledger method expects. The mock runs in ordered
// mode, so any statement the code issues beyond the declared
// expectations fails the test.
func ledgerTx(t *testing.T) (*FestivalRepo, *sql.Tx, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectBegin()
	tx, err := db.Begin()
	require.NoError(t, err)
	return NewFestivalRepo(db), tx, mock
}

const (
	reserveLockSQL  = `SELECT current_ticket_count, max_capacity FROM festivals`
	releaseLockSQL  = `SELECT current_ticket_count FROM festivals`
	incrementSQL    = `UPDATE festivals SET current_ticket_count = current_ticket_count + 1`
	decrementSQL    = `UPDATE festivals SET current_ticket_count = current_ticket_count - 1`
	bulkReleaseSQL  = `UPDATE festivals SET current_ticket_count = current_ticket_count - ?`
	nowaitErrorText = "Error 3572: Statement aborted because lock(s) could not be acquired immediately and NOWAIT is set."
)

func counterRows(count, capacity uint32) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"current_ticket_count", "max_capacity"}).AddRow(count, capacity)
}

func TestReserveCapacityTxIncrementsBelowMax(t *testing.T) {
	repo, tx, mock := ledgerTx(t)

	mock.ExpectQuery(regexp.QuoteMeta(reserveLockSQL)).
		WithArgs(uint64(7)).
		WillReturnRows(counterRows(1, 2))
	mock.ExpectExec(regexp.QuoteMeta(incrementSQL)).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ReserveCapacityTx(context.Background(), tx, 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveCapacityTxFullFestival(t *testing.T) {
	repo, tx, mock := ledgerTx(t)

	// count == max: the reserve must fail and the counter must stay
	// untouched, so no UPDATE is declared. An increment attempt would
	// hit an unexpected-statement error from the mock.
	mock.ExpectQuery(regexp.QuoteMeta(reserveLockSQL)).
		WithArgs(uint64(7)).
		WillReturnRows(counterRows(2, 2))

	err := repo.ReserveCapacityTx(context.Background(), tx, 7)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveCapacityTxLockBusy(t *testing.T) {
	repo, tx, mock := ledgerTx(t)

	mock.ExpectQuery(regexp.QuoteMeta(reserveLockSQL)).
		WithArgs(uint64(7)).
		WillReturnError(errors.New(nowaitErrorText))

	err := repo.ReserveCapacityTx(context.Background(), tx, 7)
	assert.ErrorIs(t, err, ErrCapacityBusy)
}

func TestReserveCapacityTxMissingFestival(t *testing.T) {
	repo, tx, mock := ledgerTx(t)

	mock.ExpectQuery(regexp.QuoteMeta(reserveLockSQL)).
		WithArgs(uint64(99)).
		WillReturnError(sql.ErrNoRows)

	err := repo.ReserveCapacityTx(context.Background(), tx, 99)
	assert.ErrorIs(t, err, ErrFestivalNotFound)
}

func TestReleaseCapacityTxDecrements(t *testing.T) {
	repo, tx, mock := ledgerTx(t)

	mock.ExpectQuery(regexp.QuoteMeta(releaseLockSQL)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"current_ticket_count"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta(decrementSQL)).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ReleaseCapacityTx(context.Background(), tx, 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseCapacityTxAtZeroViolatesInvariant(t *testing.T) {
	repo, tx, mock := ledgerTx(t)

	// Releasing below zero is a fault, not a clamp: the error surfaces
	// and no decrement runs.
	mock.ExpectQuery(regexp.QuoteMeta(releaseLockSQL)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"current_ticket_count"}).AddRow(0))

	err := repo.ReleaseCapacityTx(context.Background(), tx, 7)
	assert.ErrorIs(t, err, ErrInvariantViolation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseCapacityBulkTxFloor(t *testing.T) {
	repo, tx, mock := ledgerTx(t)

	mock.ExpectQuery(regexp.QuoteMeta(releaseLockSQL)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"current_ticket_count"}).AddRow(2))

	err := repo.ReleaseCapacityBulkTx(context.Background(), tx, 7, 3)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestReleaseCapacityBulkTxZeroIsNoop(t *testing.T) {
	repo, tx, mock := ledgerTx(t)

	// n == 0 issues no statements at all.
	require.NoError(t, repo.ReleaseCapacityBulkTx(context.Background(), tx, 7, 0))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseCapacityBulkTxSubtracts(t *testing.T) {
	repo, tx, mock := ledgerTx(t)

	mock.ExpectQuery(regexp.QuoteMeta(releaseLockSQL)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"current_ticket_count"}).AddRow(5))
	mock.ExpectExec(regexp.QuoteMeta(bulkReleaseSQL)).
		WithArgs(uint32(3), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ReleaseCapacityBulkTx(context.Background(), tx, 7, 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}
