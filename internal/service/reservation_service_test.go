package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/festival-reservation/internal/model"
	"github.com/iliyamo/festival-reservation/internal/repository"
)

func TestPendingQuotaFor(t *testing.T) {
	assert.Equal(t, QuotaAuthenticated, pendingQuotaFor(true))
	assert.Equal(t, QuotaUnauthenticated, pendingQuotaFor(false))
	assert.Greater(t, QuotaAuthenticated, QuotaUnauthenticated)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ana@example.com", normalizeEmail("  Ana@Example.COM "))
	assert.Equal(t, "", normalizeEmail("   "))
}

func TestHoldsTicket(t *testing.T) {
	uid := uint64(42)
	owned := &model.Ticket{UserID: &uid}
	guest := &model.Ticket{ContactEmail: "g@example.com"}

	assert.True(t, holdsTicket(Actor{ID: 42, Level: model.LevelUser}, owned))
	assert.False(t, holdsTicket(Actor{ID: 7, Level: model.LevelUser}, owned))
	// Guest tickets have no holder account, so nobody "holds" them.
	assert.False(t, holdsTicket(Actor{ID: 42, Level: model.LevelUser}, guest))
}

func TestActorDisplay(t *testing.T) {
	a := Actor{ID: 42, Level: model.LevelSeller}
	assert.Equal(t, "user 42 (SELLER)", a.Display())
}

// ---- Reserve transaction flow ----
//
// The mock runs in ordered mode: each reserve must lock the festival
// row first, then count the requester's pending tickets, then mutate
// the capacity counter, then insert the ticket. A statement issued out
// of that order, or past a declared failure, fails the test.

func reserveHarness(t *testing.T) (*ReservationService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewReservationService(
		repository.NewFestivalRepo(db),
		repository.NewTicketRepo(db),
		repository.NewSellerRepo(db),
	)
	return svc, mock
}

var (
	qFestivalLock = `SELECT id, organizer_id(?s:.*)FOR UPDATE NOWAIT`
	qPendingCount = regexp.QuoteMeta(`SELECT COUNT(*) FROM tickets`)
	qCapacityLock = regexp.QuoteMeta(`SELECT current_ticket_count, max_capacity FROM festivals`)
	qIncrement    = regexp.QuoteMeta(`UPDATE festivals SET current_ticket_count = current_ticket_count + 1`)
	qInsertTicket = regexp.QuoteMeta(`INSERT INTO tickets`)
	qTicketReload = regexp.QuoteMeta(`SELECT id, festival_id`)
)

// festivalRows builds the row set GetForReserveTx scans: a published
// festival whose window is still ahead.
func festivalRows(count, max uint32) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "organizer_id", "name", "description", "style", "address",
		"cost_cents", "age_restriction", "time_from", "time_to",
		"max_capacity", "current_ticket_count", "status", "created_at", "updated_at",
	}).AddRow(
		uint64(7), uint64(3), "Open Air", "", "", "",
		uint32(0), uint8(0), now.Add(24*time.Hour), now.Add(48*time.Hour),
		max, count, model.FestivalPublished, now, now,
	)
}

func countRows(n int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(n)
}

func ticketRows(ticketID, festivalID, userID uint64) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "festival_id", "user_id", "holder_name", "holder_surname",
		"contact_email", "approved", "reason", "created_at", "updated_at",
	}).AddRow(ticketID, festivalID, userID, "", "", "", uint8(model.TicketPending), "", now, now)
}

// expectReserve stages one complete successful reserve cycle for the
// given user against festival 7 with the given pre-reserve counter.
func expectReserve(mock sqlmock.Sqlmock, userID uint64, count, max uint32, ticketID uint64) {
	mock.ExpectBegin()
	mock.ExpectQuery(qFestivalLock).WithArgs(uint64(7)).WillReturnRows(festivalRows(count, max))
	mock.ExpectQuery(qPendingCount).WithArgs(uint64(7), userID, model.TicketPending).WillReturnRows(countRows(0))
	mock.ExpectQuery(qCapacityLock).WithArgs(uint64(7)).WillReturnRows(
		sqlmock.NewRows([]string{"current_ticket_count", "max_capacity"}).AddRow(count, max))
	mock.ExpectExec(qIncrement).WithArgs(uint64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(qInsertTicket).
		WithArgs(uint64(7), userID, "", "", "", model.TicketPending).
		WillReturnResult(sqlmock.NewResult(int64(ticketID), 1))
	mock.ExpectQuery(qTicketReload).WithArgs(ticketID).WillReturnRows(ticketRows(ticketID, 7, userID))
	mock.ExpectCommit()
}

func TestReserveCommitsThrottleLedgerInsertInOrder(t *testing.T) {
	svc, mock := reserveHarness(t)
	expectReserve(mock, 42, 0, 2, 11)

	ticket, err := svc.Reserve(context.Background(), &Actor{ID: 42, Level: model.LevelUser}, nil, 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), ticket.ID)
	assert.Equal(t, model.TicketPending, ticket.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveTwoSlotFestivalSellsOutOnThird(t *testing.T) {
	svc, mock := reserveHarness(t)

	// max_capacity = 2: two reserves consume both slots, the third is
	// rejected by the ledger without any counter mutation.
	expectReserve(mock, 41, 0, 2, 11)
	expectReserve(mock, 42, 1, 2, 12)
	mock.ExpectBegin()
	mock.ExpectQuery(qFestivalLock).WithArgs(uint64(7)).WillReturnRows(festivalRows(2, 2))
	mock.ExpectQuery(qPendingCount).WithArgs(uint64(7), uint64(43), model.TicketPending).WillReturnRows(countRows(0))
	mock.ExpectQuery(qCapacityLock).WithArgs(uint64(7)).WillReturnRows(
		sqlmock.NewRows([]string{"current_ticket_count", "max_capacity"}).AddRow(2, 2))
	mock.ExpectRollback()

	ctx := context.Background()
	_, err := svc.Reserve(ctx, &Actor{ID: 41, Level: model.LevelUser}, nil, 7)
	require.NoError(t, err)
	_, err = svc.Reserve(ctx, &Actor{ID: 42, Level: model.LevelUser}, nil, 7)
	require.NoError(t, err)
	_, err = svc.Reserve(ctx, &Actor{ID: 43, Level: model.LevelUser}, nil, 7)
	assert.ErrorIs(t, err, repository.ErrCapacityExceeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSixthPendingTicketRejected(t *testing.T) {
	svc, mock := reserveHarness(t)

	// Five pending tickets already held: the quota check fails before
	// the ledger, so no capacity statement is declared and none may run.
	mock.ExpectBegin()
	mock.ExpectQuery(qFestivalLock).WithArgs(uint64(7)).WillReturnRows(festivalRows(5, 100))
	mock.ExpectQuery(qPendingCount).WithArgs(uint64(7), uint64(42), model.TicketPending).WillReturnRows(countRows(5))
	mock.ExpectRollback()

	_, err := svc.Reserve(context.Background(), &Actor{ID: 42, Level: model.LevelUser}, nil, 7)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveFourthGuestTicketRejected(t *testing.T) {
	svc, mock := reserveHarness(t)

	mock.ExpectBegin()
	mock.ExpectQuery(qFestivalLock).WithArgs(uint64(7)).WillReturnRows(festivalRows(3, 100))
	mock.ExpectQuery(qPendingCount).WithArgs(uint64(7), "ana@example.com", model.TicketPending).WillReturnRows(countRows(3))
	mock.ExpectRollback()

	contact := &ContactInfo{Name: "Ana", Surname: "Ilic", Email: "  Ana@Example.COM "}
	_, err := svc.Reserve(context.Background(), nil, contact, 7)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveRollsBackLedgerWhenInsertFails(t *testing.T) {
	svc, mock := reserveHarness(t)

	// The increment succeeds, the ticket insert does not: the whole
	// transaction rolls back so the counter never moves.
	mock.ExpectBegin()
	mock.ExpectQuery(qFestivalLock).WithArgs(uint64(7)).WillReturnRows(festivalRows(0, 2))
	mock.ExpectQuery(qPendingCount).WithArgs(uint64(7), uint64(42), model.TicketPending).WillReturnRows(countRows(0))
	mock.ExpectQuery(qCapacityLock).WithArgs(uint64(7)).WillReturnRows(
		sqlmock.NewRows([]string{"current_ticket_count", "max_capacity"}).AddRow(0, 2))
	mock.ExpectExec(qIncrement).WithArgs(uint64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	insertErr := errors.New("duplicate entry")
	mock.ExpectExec(qInsertTicket).
		WithArgs(uint64(7), uint64(42), "", "", "", model.TicketPending).
		WillReturnError(insertErr)
	mock.ExpectRollback()

	_, err := svc.Reserve(context.Background(), &Actor{ID: 42, Level: model.LevelUser}, nil, 7)
	assert.ErrorIs(t, err, insertErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveContendedFestivalRowFailsFast(t *testing.T) {
	svc, mock := reserveHarness(t)

	mock.ExpectBegin()
	mock.ExpectQuery(qFestivalLock).WithArgs(uint64(7)).
		WillReturnError(errors.New("Error 3572: Statement aborted because lock(s) could not be acquired immediately and NOWAIT is set."))
	mock.ExpectRollback()

	_, err := svc.Reserve(context.Background(), &Actor{ID: 42, Level: model.LevelUser}, nil, 7)
	assert.ErrorIs(t, err, repository.ErrCapacityBusy)
	assert.NoError(t, mock.ExpectationsWereMet())
}
