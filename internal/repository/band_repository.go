package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/festival-reservation/internal/model"
)

// ErrBandNameExists indicates the unique band name is already taken.
var ErrBandNameExists = errors.New("band name already exists")

// BandRepo manages persistence for bands. Deletion is always soft: the
// deleted_at column is set so the band disappears from scheduling while
// its historical performances stay intact.
type BandRepo struct {
	db *sql.DB
}

// NewBandRepo constructs a BandRepo with the given DB handle.
func NewBandRepo(db *sql.DB) *BandRepo { return &BandRepo{db: db} }

const bandColumns = `id, name, genre, tags, scores, deleted_at, created_at, updated_at`

func scanBand(row interface{ Scan(...any) error }, b *model.Band) error {
	var deleted sql.NullTime
	if err := row.Scan(&b.ID, &b.Name, &b.Genre, &b.Tags, &b.Scores,
		&deleted, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return err
	}
	if deleted.Valid {
		t := deleted.Time
		b.DeletedAt = &t
	}
	return nil
}

// Create inserts a new band. The name is unique; a duplicate insert is
// reported as ErrBandNameExists.
func (r *BandRepo) Create(ctx context.Context, b *model.Band) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO bands (name, genre, tags, scores) VALUES (?, ?, ?, ?)`,
		b.Name, b.Genre, b.Tags, b.Scores)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrBandNameExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	const sel = `SELECT ` + bandColumns + ` FROM bands WHERE id = ?`
	return scanBand(r.db.QueryRowContext(ctx, sel, b.ID), b)
}

// GetActiveByID retrieves a band that has not been soft-deleted. A
// deleted band is reported as ErrBandNotFound, which is what the
// scheduler needs: deleted bands cannot enter new performances.
func (r *BandRepo) GetActiveByID(ctx context.Context, id uint64) (*model.Band, error) {
	const q = `SELECT ` + bandColumns + ` FROM bands WHERE id = ? AND deleted_at IS NULL`
	var b model.Band
	if err := scanBand(r.db.QueryRowContext(ctx, q, id), &b); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBandNotFound
		}
		return nil, err
	}
	return &b, nil
}

// List returns bands ordered by name. When includeDeleted is false,
// soft-deleted bands are filtered out; admins pass true to audit.
func (r *BandRepo) List(ctx context.Context, includeDeleted bool) ([]model.Band, error) {
	q := `SELECT ` + bandColumns + ` FROM bands`
	if !includeDeleted {
		q += ` WHERE deleted_at IS NULL`
	}
	q += ` ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Band, 0)
	for rows.Next() {
		var b model.Band
		if err := scanBand(rows, &b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// SoftDelete stamps deleted_at on a band. Idempotent deletes of an
// already-deleted band report ErrBandNotFound.
func (r *BandRepo) SoftDelete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bands SET deleted_at = NOW(), updated_at = CURRENT_TIMESTAMP
         WHERE id = ? AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBandNotFound
	}
	return nil
}
