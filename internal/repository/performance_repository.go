package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/festival-reservation/internal/model"
)

// PerformanceRepo manages persistence for performances. Conflict
// detection is a read of the stage's non-canceled rows inside the
// scheduling transaction; the overlap arithmetic itself lives in the
// model package so it can be exercised without a database.
type PerformanceRepo struct {
	db *sql.DB
}

// NewPerformanceRepo constructs a PerformanceRepo with the given DB handle.
func NewPerformanceRepo(db *sql.DB) *PerformanceRepo { return &PerformanceRepo{db: db} }

const performanceColumns = `id, festival_id, stage_id, band_id,
       time_from, time_to, canceled, created_at, updated_at`

func scanPerformance(row interface{ Scan(...any) error }, p *model.Performance) error {
	return row.Scan(
		&p.ID, &p.FestivalID, &p.StageID, &p.BandID,
		&p.TimeFrom, &p.TimeTo, &p.Canceled, &p.CreatedAt, &p.UpdatedAt,
	)
}

// CreateTx inserts a new performance (canceled = false) within the
// caller's transaction and populates the generated ID. The caller must
// hold the stage lock taken by StageRepo.LockTx so that two concurrent
// conflict checks cannot both pass and then overlap after insertion.
func (r *PerformanceRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Performance) error {
	const q = `INSERT INTO performances (festival_id, stage_id, band_id, time_from, time_to)
               VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, p.FestivalID, p.StageID, p.BandID, p.TimeFrom, p.TimeTo)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	const sel = `SELECT ` + performanceColumns + ` FROM performances WHERE id = ?`
	return scanPerformance(tx.QueryRowContext(ctx, sel, p.ID), p)
}

// GetByID retrieves a performance by its ID.
func (r *PerformanceRepo) GetByID(ctx context.Context, id uint64) (*model.Performance, error) {
	const q = `SELECT ` + performanceColumns + ` FROM performances WHERE id = ?`
	var p model.Performance
	if err := scanPerformance(r.db.QueryRowContext(ctx, q, id), &p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPerformanceNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListActiveByStageTx returns all non-canceled performances on a stage
// inside the caller's transaction, ordered by start time. The service
// layer scans these for interval overlaps while holding the stage lock.
func (r *PerformanceRepo) ListActiveByStageTx(ctx context.Context, tx *sql.Tx, stageID uint64) ([]model.Performance, error) {
	const q = `SELECT ` + performanceColumns + ` FROM performances
               WHERE stage_id = ? AND canceled = FALSE
               ORDER BY time_from ASC`
	rows, err := tx.QueryContext(ctx, q, stageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Performance, 0)
	for rows.Next() {
		var p model.Performance
		if err := scanPerformance(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListByFestival returns all performances of a festival, including
// canceled ones, ordered by start time. History stays auditable.
func (r *PerformanceRepo) ListByFestival(ctx context.Context, festivalID uint64) ([]model.Performance, error) {
	const q = `SELECT ` + performanceColumns + ` FROM performances
               WHERE festival_id = ? ORDER BY time_from ASC`
	rows, err := r.db.QueryContext(ctx, q, festivalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Performance, 0)
	for rows.Next() {
		var p model.Performance
		if err := scanPerformance(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CancelTx flips the canceled flag of one performance. The row is
// never deleted; the freed interval only stops counting in future
// conflict checks.
func (r *PerformanceRepo) CancelTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE performances SET canceled = TRUE, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPerformanceNotFound
	}
	return nil
}

// CancelByFestivalTx cancels every performance of a festival, used by
// the festival cancellation cascade.
func (r *PerformanceRepo) CancelByFestivalTx(ctx context.Context, tx *sql.Tx, festivalID uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE performances SET canceled = TRUE, updated_at = CURRENT_TIMESTAMP
         WHERE festival_id = ? AND canceled = FALSE`,
		festivalID)
	return err
}
