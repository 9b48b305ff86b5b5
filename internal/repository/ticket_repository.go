package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/festival-reservation/internal/model"
)

// TicketRepo provides persistence for tickets. Tickets are created
// inside the reservation transaction and afterwards only move through
// the lifecycle via UpdateStatusTx; rows are never deleted except by
// the cascading removal of their festival.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

const ticketColumns = `id, festival_id, user_id, holder_name, holder_surname,
       contact_email, approved, reason, created_at, updated_at`

func scanTicket(row interface{ Scan(...any) error }, t *model.Ticket) error {
	var userID sql.NullInt64
	if err := row.Scan(
		&t.ID, &t.FestivalID, &userID, &t.HolderName, &t.HolderSurname,
		&t.ContactEmail, &t.Status, &t.Reason, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return err
	}
	if userID.Valid {
		uid := uint64(userID.Int64)
		t.UserID = &uid
	}
	return nil
}

// CreateTx inserts a new pending ticket within the caller's
// transaction and populates the generated ID. Exactly one identity
// form must be set on the ticket: UserID, or the guest contact triple.
func (r *TicketRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) error {
	const q = `INSERT INTO tickets
               (festival_id, user_id, holder_name, holder_surname, contact_email, approved, reason)
               VALUES (?, ?, ?, ?, ?, ?, '')`
	var userID any
	if t.UserID != nil {
		userID = *t.UserID
	}
	res, err := tx.ExecContext(ctx, q,
		t.FestivalID, userID, t.HolderName, t.HolderSurname, t.ContactEmail, model.TicketPending)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	t.Status = model.TicketPending
	const sel = `SELECT ` + ticketColumns + ` FROM tickets WHERE id = ?`
	return scanTicket(tx.QueryRowContext(ctx, sel, t.ID), t)
}

// GetByIDTx loads a ticket and locks its row for the duration of the
// transaction, making the read-check-write of a lifecycle transition
// atomic per ticket.
func (r *TicketRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Ticket, error) {
	const q = `SELECT ` + ticketColumns + ` FROM tickets WHERE id = ? FOR UPDATE`
	var t model.Ticket
	if err := scanTicket(tx.QueryRowContext(ctx, q, id), &t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return &t, nil
}

// CountPendingByUserTx counts pending tickets a user holds against one
// festival. It runs inside the reservation transaction so the throttle
// decision and the insert see the same state.
func (r *TicketRepo) CountPendingByUserTx(ctx context.Context, tx *sql.Tx, festivalID, userID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM tickets
               WHERE festival_id = ? AND user_id = ? AND approved = ?`
	var n int
	err := tx.QueryRowContext(ctx, q, festivalID, userID, model.TicketPending).Scan(&n)
	return n, err
}

// CountPendingByEmailTx counts pending guest tickets held under a
// contact email for one festival.
func (r *TicketRepo) CountPendingByEmailTx(ctx context.Context, tx *sql.Tx, festivalID uint64, email string) (int, error) {
	const q = `SELECT COUNT(*) FROM tickets
               WHERE festival_id = ? AND contact_email = ? AND approved = ?`
	var n int
	err := tx.QueryRowContext(ctx, q, festivalID, email, model.TicketPending).Scan(&n)
	return n, err
}

// UpdateStatusTx records a lifecycle transition: the new status and the
// reason, inside the caller's transaction. The caller is responsible
// for having validated the transition under the row lock taken by
// GetByIDTx.
func (r *TicketRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.TicketStatus, reason string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE tickets SET approved = ?, reason = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, reason, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTicketNotFound
	}
	return nil
}

// CancelPendingByFestivalTx cancels every pending ticket of a festival
// in one statement and returns how many rows changed, so the caller
// can release the matching amount of capacity in the same transaction.
// Used by festival cancellation cascades.
func (r *TicketRepo) CancelPendingByFestivalTx(ctx context.Context, tx *sql.Tx, festivalID uint64, reason string) (uint32, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE tickets SET approved = ?, reason = ?, updated_at = CURRENT_TIMESTAMP
         WHERE festival_id = ? AND approved = ?`,
		model.TicketCancelled, reason, festivalID, model.TicketPending)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}

// ListByFestival returns all tickets of a festival, newest first. The
// seller console uses it to audit and manage reservations.
func (r *TicketRepo) ListByFestival(ctx context.Context, festivalID uint64) ([]model.Ticket, error) {
	const q = `SELECT ` + ticketColumns + ` FROM tickets
               WHERE festival_id = ? ORDER BY created_at DESC`
	return r.list(ctx, q, festivalID)
}

// ListByUser returns all tickets reserved by an authenticated user,
// newest first.
func (r *TicketRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Ticket, error) {
	const q = `SELECT ` + ticketColumns + ` FROM tickets
               WHERE user_id = ? ORDER BY created_at DESC`
	return r.list(ctx, q, userID)
}

func (r *TicketRepo) list(ctx context.Context, q string, args ...any) ([]model.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Ticket, 0)
	for rows.Next() {
		var t model.Ticket
		if err := scanTicket(rows, &t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
