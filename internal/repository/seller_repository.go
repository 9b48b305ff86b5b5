package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/festival-reservation/internal/model"
)

// SellerRepo manages the seller_assignments join table: which seller
// accounts may approve and cancel tickets of which festivals. The
// explicit assignment is the only source of seller authority.
type SellerRepo struct {
	db *sql.DB
}

// NewSellerRepo constructs a SellerRepo with the given DB handle.
func NewSellerRepo(db *sql.DB) *SellerRepo { return &SellerRepo{db: db} }

// Assign grants a seller authority over a festival. Re-assigning an
// existing pair is a no-op.
func (r *SellerRepo) Assign(ctx context.Context, sellerID, festivalID uint64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO seller_assignments (seller_id, festival_id) VALUES (?, ?)`,
		sellerID, festivalID)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
		return nil
	}
	return err
}

// Remove revokes a seller's authority over a festival.
func (r *SellerRepo) Remove(ctx context.Context, sellerID, festivalID uint64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM seller_assignments WHERE seller_id = ? AND festival_id = ?`,
		sellerID, festivalID)
	return err
}

// IsAssigned reports whether the seller holds an assignment for the
// festival.
func (r *SellerRepo) IsAssigned(ctx context.Context, sellerID, festivalID uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM seller_assignments WHERE seller_id = ? AND festival_id = ? LIMIT 1`,
		sellerID, festivalID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IsAssignedTx is IsAssigned inside an existing transaction, used when
// the permission check belongs to a lifecycle transition.
func (r *SellerRepo) IsAssignedTx(ctx context.Context, tx *sql.Tx, sellerID, festivalID uint64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM seller_assignments WHERE seller_id = ? AND festival_id = ? LIMIT 1`,
		sellerID, festivalID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListByFestival returns the assignments of one festival.
func (r *SellerRepo) ListByFestival(ctx context.Context, festivalID uint64) ([]model.SellerAssignment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, seller_id, festival_id, created_at FROM seller_assignments
         WHERE festival_id = ? ORDER BY created_at ASC`, festivalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.SellerAssignment, 0)
	for rows.Next() {
		var a model.SellerAssignment
		if err := rows.Scan(&a.ID, &a.SellerID, &a.FestivalID, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListFestivalIDsBySeller returns the festivals a seller is assigned
// to, for the seller's console listing.
func (r *SellerRepo) ListFestivalIDsBySeller(ctx context.Context, sellerID uint64) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT festival_id FROM seller_assignments WHERE seller_id = ? ORDER BY festival_id ASC`,
		sellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]uint64, 0)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
