package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/festival-reservation/internal/model"
)

// StageRepo manages persistence for stages. The stage row doubles as
// the serialization point for scheduling: LockTx takes a row lock so
// check-then-insert sequences on the same stage run one at a time
// while unrelated stages proceed independently.
type StageRepo struct {
	db *sql.DB
}

// NewStageRepo constructs a StageRepo with the given DB handle.
func NewStageRepo(db *sql.DB) *StageRepo { return &StageRepo{db: db} }

// Create inserts a new stage and assigns the generated ID.
func (r *StageRepo) Create(ctx context.Context, s *model.Stage) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO stages (name, size) VALUES (?, ?)`, s.Name, s.Size)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		`SELECT id, name, size, created_at, updated_at FROM stages WHERE id = ?`, s.ID).
		Scan(&s.ID, &s.Name, &s.Size, &s.CreatedAt, &s.UpdatedAt)
}

// GetByID retrieves a stage by its ID.
func (r *StageRepo) GetByID(ctx context.Context, id uint64) (*model.Stage, error) {
	var s model.Stage
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, size, created_at, updated_at FROM stages WHERE id = ?`, id).
		Scan(&s.ID, &s.Name, &s.Size, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStageNotFound
		}
		return nil, err
	}
	return &s, nil
}

// LockTx locks the stage row for the duration of the transaction and
// returns the stage. Every scheduling attempt on the stage must pass
// through this lock before checking for conflicts.
func (r *StageRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Stage, error) {
	var s model.Stage
	err := tx.QueryRowContext(ctx,
		`SELECT id, name, size, created_at, updated_at FROM stages WHERE id = ? FOR UPDATE`, id).
		Scan(&s.ID, &s.Name, &s.Size, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStageNotFound
		}
		return nil, err
	}
	return &s, nil
}

// List returns all stages ordered by ID.
func (r *StageRepo) List(ctx context.Context) ([]model.Stage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, size, created_at, updated_at FROM stages ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Stage, 0)
	for rows.Next() {
		var s model.Stage
		if err := rows.Scan(&s.ID, &s.Name, &s.Size, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Update modifies a stage. A stage referenced by any performance is
// immutable except for admins; when adminOverride is false and a
// reference exists, ErrConflict is returned.
func (r *StageRepo) Update(ctx context.Context, s *model.Stage, adminOverride bool) error {
	if !adminOverride {
		var n int
		if err := r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM performances WHERE stage_id = ?`, s.ID).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return ErrConflict
		}
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE stages SET name = ?, size = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		s.Name, s.Size, s.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStageNotFound
	}
	return nil
}
