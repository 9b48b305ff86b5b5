// Package repository contains data access logic for the festival
// domain. This file holds the festival CRUD methods and the capacity
// ledger: the atomic counter that guarantees a festival never oversells
// its configured maximum of tickets.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/festival-reservation/internal/model"
)

// FestivalRepo manages persistence for festivals and owns the capacity
// ledger. All timestamps are stored as UTC DATETIME values; the DSN's
// parseTime/loc settings map them to time.Time transparently.
type FestivalRepo struct {
	db *sql.DB
}

// NewFestivalRepo constructs a FestivalRepo with the given DB handle.
func NewFestivalRepo(db *sql.DB) *FestivalRepo { return &FestivalRepo{db: db} }

// DB exposes the underlying sql.DB. It allows the service layer to
// begin transactions spanning multiple repositories.
func (r *FestivalRepo) DB() *sql.DB { return r.db }

const festivalColumns = `id, organizer_id, name, description, style, address,
       cost_cents, age_restriction, time_from, time_to,
       max_capacity, current_ticket_count, status, created_at, updated_at`

func scanFestival(row interface{ Scan(...any) error }, f *model.Festival) error {
	return row.Scan(
		&f.ID, &f.OrganizerID, &f.Name, &f.Description, &f.Style, &f.Address,
		&f.CostCents, &f.AgeRestriction, &f.TimeFrom, &f.TimeTo,
		&f.MaxCapacity, &f.CurrentTicketCount, &f.Status, &f.CreatedAt, &f.UpdatedAt,
	)
}

// Create inserts a new festival in DRAFT status and populates the
// generated ID and DB-default fields on the given struct.
func (r *FestivalRepo) Create(ctx context.Context, f *model.Festival) error {
	const q = `INSERT INTO festivals
               (organizer_id, name, description, style, address, cost_cents,
                age_restriction, time_from, time_to, max_capacity, status)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		f.OrganizerID, f.Name, f.Description, f.Style, f.Address, f.CostCents,
		f.AgeRestriction, f.TimeFrom, f.TimeTo, f.MaxCapacity, model.FestivalDraft)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	const sel = `SELECT ` + festivalColumns + ` FROM festivals WHERE id = ?`
	return scanFestival(r.db.QueryRowContext(ctx, sel, f.ID), f)
}

// GetByID retrieves a festival by its ID. It returns ErrFestivalNotFound
// when no matching row exists.
func (r *FestivalRepo) GetByID(ctx context.Context, id uint64) (*model.Festival, error) {
	const q = `SELECT ` + festivalColumns + ` FROM festivals WHERE id = ?`
	var f model.Festival
	if err := scanFestival(r.db.QueryRowContext(ctx, q, id), &f); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFestivalNotFound
		}
		return nil, err
	}
	return &f, nil
}

// GetByIDTx is GetByID inside an existing transaction. No row lock is
// taken; use ReserveCapacityTx / ReleaseCapacityTx for counter work.
func (r *FestivalRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Festival, error) {
	const q = `SELECT ` + festivalColumns + ` FROM festivals WHERE id = ?`
	var f model.Festival
	if err := scanFestival(tx.QueryRowContext(ctx, q, id), &f); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFestivalNotFound
		}
		return nil, err
	}
	return &f, nil
}

// GetForReserveTx loads a festival and locks its row with FOR UPDATE
// NOWAIT, serializing concurrent reservations against the same
// festival for the rest of the transaction. A requester's pending
// count taken under this lock cannot race another reserve of theirs.
// A busy lock maps to ErrCapacityBusy, same as the ledger.
func (r *FestivalRepo) GetForReserveTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Festival, error) {
	const q = `SELECT ` + festivalColumns + ` FROM festivals WHERE id = ? FOR UPDATE NOWAIT`
	var f model.Festival
	if err := scanFestival(tx.QueryRowContext(ctx, q, id), &f); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFestivalNotFound
		}
		if isLockBusy(err) {
			return nil, ErrCapacityBusy
		}
		return nil, err
	}
	return &f, nil
}

// ListPublished returns all festivals visible to the public, ordered by
// start time ascending.
func (r *FestivalRepo) ListPublished(ctx context.Context) ([]model.Festival, error) {
	const q = `SELECT ` + festivalColumns + ` FROM festivals
               WHERE status = ? ORDER BY time_from ASC`
	return r.list(ctx, q, model.FestivalPublished)
}

// ListByOrganizer returns all festivals owned by the given organizer,
// newest first.
func (r *FestivalRepo) ListByOrganizer(ctx context.Context, organizerID uint64) ([]model.Festival, error) {
	const q = `SELECT ` + festivalColumns + ` FROM festivals
               WHERE organizer_id = ? ORDER BY time_from DESC`
	return r.list(ctx, q, organizerID)
}

func (r *FestivalRepo) list(ctx context.Context, q string, args ...any) ([]model.Festival, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Festival, 0)
	for rows.Next() {
		var f model.Festival
		if err := scanFestival(rows, &f); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// UpdateByIDAndOwner updates a festival's editable fields when it is
// owned by the given organizer. The ticket counter is deliberately not
// touchable here; only the ledger mutates it. Returns sql.ErrNoRows
// when the festival does not exist or belongs to someone else.
func (r *FestivalRepo) UpdateByIDAndOwner(ctx context.Context, f *model.Festival, ownerID uint64) error {
	const q = `UPDATE festivals
               SET name = ?, description = ?, style = ?, address = ?,
                   cost_cents = ?, age_restriction = ?, time_from = ?, time_to = ?,
                   max_capacity = ?, status = ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ? AND organizer_id = ?`
	res, err := r.db.ExecContext(ctx, q,
		f.Name, f.Description, f.Style, f.Address,
		f.CostCents, f.AgeRestriction, f.TimeFrom, f.TimeTo,
		f.MaxCapacity, f.Status,
		f.ID, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish missing/foreign rows from a no-op update.
		var one int
		err := r.db.QueryRowContext(ctx,
			`SELECT 1 FROM festivals WHERE id = ? AND organizer_id = ? LIMIT 1`,
			f.ID, ownerID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return sql.ErrNoRows
		}
		return err
	}
	return nil
}

// ReserveCapacityTx atomically consumes one capacity slot of the given
// festival. It locks the counter row with FOR UPDATE NOWAIT so a
// contended reserve fails immediately instead of queueing: capacity
// exhaustion is an expected, user-visible outcome and not worth waiting
// on. When the festival is full it returns ErrCapacityExceeded without
// mutating anything. The caller must create the ticket in the same
// transaction, or roll back so the increment never becomes visible.
func (r *FestivalRepo) ReserveCapacityTx(ctx context.Context, tx *sql.Tx, festivalID uint64) error {
	const lock = `SELECT current_ticket_count, max_capacity FROM festivals
                  WHERE id = ? FOR UPDATE NOWAIT`
	var count, capacity uint32
	if err := tx.QueryRowContext(ctx, lock, festivalID).Scan(&count, &capacity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrFestivalNotFound
		}
		if isLockBusy(err) {
			return ErrCapacityBusy
		}
		return err
	}
	if count >= capacity {
		return ErrCapacityExceeded
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE festivals SET current_ticket_count = current_ticket_count + 1 WHERE id = ?`,
		festivalID)
	return err
}

// ReleaseCapacityTx returns one capacity slot to the festival inside
// the caller's transaction. Decrementing a zero counter is a logic
// error: it is rejected with ErrInvariantViolation rather than clamped,
// so the fault surfaces instead of silently corrupting the ledger.
func (r *FestivalRepo) ReleaseCapacityTx(ctx context.Context, tx *sql.Tx, festivalID uint64) error {
	const lock = `SELECT current_ticket_count FROM festivals WHERE id = ? FOR UPDATE`
	var count uint32
	if err := tx.QueryRowContext(ctx, lock, festivalID).Scan(&count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrFestivalNotFound
		}
		return err
	}
	if count == 0 {
		return ErrInvariantViolation
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE festivals SET current_ticket_count = current_ticket_count - 1 WHERE id = ?`,
		festivalID)
	return err
}

// ReleaseCapacityBulkTx subtracts released slots at once, used when a
// festival cancellation voids several pending tickets in one sweep.
// The floor check guards the same invariant as ReleaseCapacityTx.
func (r *FestivalRepo) ReleaseCapacityBulkTx(ctx context.Context, tx *sql.Tx, festivalID uint64, n uint32) error {
	if n == 0 {
		return nil
	}
	const lock = `SELECT current_ticket_count FROM festivals WHERE id = ? FOR UPDATE`
	var count uint32
	if err := tx.QueryRowContext(ctx, lock, festivalID).Scan(&count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrFestivalNotFound
		}
		return err
	}
	if count < n {
		return ErrInvariantViolation
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE festivals SET current_ticket_count = current_ticket_count - ? WHERE id = ?`,
		n, festivalID)
	return err
}

// MarkCancelledTx flips the festival status to CANCELLED inside the
// caller's transaction. Cascading of tickets and performances is
// orchestrated by the service layer in the same transaction.
func (r *FestivalRepo) MarkCancelledTx(ctx context.Context, tx *sql.Tx, festivalID uint64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE festivals SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		model.FestivalCancelled, festivalID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrFestivalNotFound
	}
	return nil
}

// isLockBusy detects MySQL's NOWAIT / lock-wait failures (error 3572
// "Statement aborted because lock(s) could not be acquired immediately"
// and 1205 lock wait timeout).
func isLockBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "3572") || strings.Contains(msg, "1205")
}
